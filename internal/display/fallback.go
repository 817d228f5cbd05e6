package display

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/walltab/walltab/internal/domain"
)

// Fallback gradient endpoints, a dark blue-grey ramp
var (
	fallbackTop    = color.NRGBA{R: 0x2b, G: 0x32, B: 0x45, A: 0xff}
	fallbackBottom = color.NRGBA{R: 0x0e, G: 0x10, B: 0x16, A: 0xff}
)

// buildFallback renders the built-in default wallpaper: a vertical gradient
// sized for the given display, embedded as a data URI. It touches neither
// storage nor the network, so load-error recovery always terminates here.
func buildFallback(width, height int) domain.WallpaperRecord {
	if width <= 0 || height <= 0 {
		width, height = 1920, 1080
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		t := float64(y) / float64(height)
		row := color.NRGBA{
			R: lerp(fallbackTop.R, fallbackBottom.R, t),
			G: lerp(fallbackTop.G, fallbackBottom.G, t),
			B: lerp(fallbackTop.B, fallbackBottom.B, t),
			A: 0xff,
		}
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, row)
		}
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 90}); err != nil {
		// Encoding a freshly built NRGBA image cannot fail; keep the
		// record unusable rather than panic if it somehow does.
		return domain.WallpaperRecord{}
	}

	return domain.WallpaperRecord{
		Image: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		Link:  domain.CreditsLink,
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}
