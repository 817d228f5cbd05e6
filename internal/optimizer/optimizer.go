package optimizer

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif" // GIF format support
	"image/jpeg"
	_ "image/png" // PNG format support
	"math"
	"net/http"

	"github.com/disintegration/imaging"
	"github.com/walltab/walltab/internal/domain"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp" // WebP format support
)

const (
	// SizeThreshold is the upload size above which images are downscaled
	// before persisting. Below it the original bytes are embedded as-is,
	// preserving fidelity and format.
	SizeThreshold = 1536 * 1024 // 1.5 MiB

	// MinOptimizeWidth floors the downscale target so a later, larger
	// display is not stuck with a blurry asset
	MinOptimizeWidth = 1920

	// Quality is the JPEG quality factor used when re-encoding
	Quality = 90
)

// TargetWidth picks the downscale bound for the given display width,
// never below the MinOptimizeWidth floor
func TargetWidth(displayWidth int) int {
	if displayWidth < MinOptimizeWidth {
		return MinOptimizeWidth
	}
	return displayWidth
}

// Optimizer turns uploaded image files into persist-ready data URIs,
// downscaling large uploads to keep them inside the storage quota
type Optimizer struct {
	logger *zap.Logger
}

// New creates an optimizer
func New(logger *zap.Logger) *Optimizer {
	return &Optimizer{logger: logger}
}

// Prepare converts an uploaded file into a self-contained data URI ready
// to persist. size is the upload's byte size as reported by the caller;
// targetMaxWidth bounds the downscaled width (see TargetWidth). The result
// is always an embeddable string, never a reference to transient storage.
func (o *Optimizer) Prepare(ctx context.Context, data []byte, size int64, targetMaxWidth int) (string, error) {
	if size <= SizeThreshold {
		o.logger.Debug("Embedding file without optimization", zap.Int64("size", size))
		return dataURI(http.DetectContentType(data), data), nil
	}
	return o.downscale(data, targetMaxWidth)
}

// downscale decodes the source, scales it down to at most maxWidth wide
// (aspect preserved, never upscaled) and re-encodes it as JPEG
func (o *Optimizer) downscale(data []byte, maxWidth int) (string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return "", fmt.Errorf("%w: empty %dx%d image", domain.ErrDecode, bounds.Dx(), bounds.Dy())
	}

	width := bounds.Dx()
	height := bounds.Dy()
	ratio := 1.0
	if width > maxWidth {
		ratio = float64(maxWidth) / float64(width)
	}

	result := img
	if ratio < 1 {
		targetHeight := int(math.Round(float64(height) * ratio))
		result = imaging.Resize(img, maxWidth, targetHeight, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, result, &jpeg.Options{Quality: Quality}); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}

	o.logger.Debug("Image optimized",
		zap.String("format", format),
		zap.Int("sourceWidth", width),
		zap.Int("targetWidth", result.Bounds().Dx()),
		zap.Int("bytes", buf.Len()))

	return dataURI("image/jpeg", buf.Bytes()), nil
}

// dataURI embeds data as a base64 data URI with the given MIME type
func dataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
