package screen

import (
	"github.com/kbinani/screenshot"
	"github.com/walltab/walltab/internal/domain"
	"go.uber.org/zap"
)

// Detect probes the primary display at startup. Headless or undetectable
// environments fall back to 1920x1080, which also keeps the optimizer's
// width floor intact.
func Detect(logger *zap.Logger) *domain.ScreenResolution {
	n := screenshot.NumActiveDisplays()
	if n <= 0 {
		logger.Warn("No active displays detected, falling back to 1920x1080")
		return &domain.ScreenResolution{Width: 1920, Height: 1080}
	}

	bounds := screenshot.GetDisplayBounds(0)
	res := &domain.ScreenResolution{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}

	logger.Info("Screen resolution detected",
		zap.Int("width", res.Width),
		zap.Int("height", res.Height))

	return res
}
