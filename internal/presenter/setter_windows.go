//go:build windows

package presenter

import (
	"context"
	"fmt"
	"syscall"
	"unsafe"

	"go.uber.org/zap"
)

const (
	spiSetDeskWallpaper = 0x0014
	spifUpdateIniFile   = 0x01
	spifSendChange      = 0x02
)

// windowsSetter applies wallpapers through SystemParametersInfoW
type windowsSetter struct {
	logger *zap.Logger
}

// newSetter creates the Windows wallpaper setter
func newSetter(logger *zap.Logger) (setter, error) {
	logger.Info("Windows wallpaper setter initialized")
	return &windowsSetter{logger: logger}, nil
}

// Apply sets the desktop wallpaper to the given image file
func (s *windowsSetter) Apply(ctx context.Context, imagePath string) error {
	path, err := syscall.UTF16PtrFromString(imagePath)
	if err != nil {
		return fmt.Errorf("invalid wallpaper path: %w", err)
	}

	user32 := syscall.NewLazyDLL("user32.dll")
	proc := user32.NewProc("SystemParametersInfoW")
	ret, _, callErr := proc.Call(
		uintptr(spiSetDeskWallpaper),
		0,
		uintptr(unsafe.Pointer(path)),
		uintptr(spifUpdateIniFile|spifSendChange),
	)
	if ret == 0 {
		return fmt.Errorf("failed to set wallpaper: %w", callErr)
	}

	s.logger.Debug("Wallpaper applied", zap.String("path", imagePath))
	return nil
}
