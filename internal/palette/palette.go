// Package palette extracts display colors from cover art.
package palette

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // JPEG decoder for cover art
	_ "image/png"  // PNG decoder for cover art
	"net/http"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"
)

const (
	// FallbackAccent is used when no vibrant color stands out.
	FallbackAccent = "#444444"
	// FallbackShade is the default dark background color.
	FallbackShade = "#111111"

	sampleSize = 64
)

// Palette holds the colors derived from a cover image.
type Palette struct {
	Accent string // most vibrant color, for highlights
	Shade  string // dark companion color, for backgrounds
}

// Fallback returns the palette used when no cover is available.
func Fallback() Palette {
	return Palette{Accent: FallbackAccent, Shade: FallbackShade}
}

// FromImage derives a palette by scanning a downsampled copy of img.
// The accent is the most saturated bright pixel, the shade the most
// saturated dark one.
func FromImage(img image.Image) Palette {
	small := resize.Thumbnail(sampleSize, sampleSize, img, resize.Lanczos3)
	bounds := small.Bounds()

	p := Fallback()
	bestAccent := 0.0
	bestShade := 0.0

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			col, ok := colorful.MakeColor(small.At(x, y))
			if !ok {
				continue
			}
			_, s, v := col.Hsv()

			switch {
			case v > 0.35:
				if score := s * v; score > bestAccent {
					bestAccent = score
					p.Accent = col.Hex()
				}
			case v > 0.05:
				if score := s * (0.4 - v); score > bestShade {
					bestShade = score
					p.Shade = col.Hex()
				}
			}
		}
	}

	return p
}

// Fetch downloads the cover at url and derives its palette.
func Fetch(ctx context.Context, url string) (Palette, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return Fallback(), fmt.Errorf("create request: %w", err)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return Fallback(), fmt.Errorf("fetch cover: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Fallback(), fmt.Errorf("fetch cover: unexpected status %s", resp.Status)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return Fallback(), fmt.Errorf("decode cover: %w", err)
	}

	return FromImage(img), nil
}
