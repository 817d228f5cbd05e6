//go:build !linux && !windows

package presenter

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// stubSetter stands in on platforms without a wallpaper integration
type stubSetter struct {
	logger *zap.Logger
}

// newSetter creates a stub setter for unsupported platforms
func newSetter(logger *zap.Logger) (setter, error) {
	logger.Warn("Wallpaper setting is not implemented for this platform")
	return &stubSetter{logger: logger}, nil
}

// Apply reports the platform gap
func (s *stubSetter) Apply(ctx context.Context, imagePath string) error {
	return fmt.Errorf("wallpaper setting not implemented for this platform")
}
