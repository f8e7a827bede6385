package tourseed

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/okian/panotour/pkg/logger"
)

// generatePanoramas renders config.Panoramas distinct equirectangular PNGs
// concurrently. Each one carries its index and the run id in the pixels.
func generatePanoramas(ctx context.Context, config *Config, stats *Stats) ([]Panorama, error) {
	logger.Get().Info(ctx, "generating panoramas",
		logger.Int("count", config.Panoramas),
		logger.Int("width", config.Width))

	out := make([]Panorama, config.Panoramas)
	errs := make([]error, config.Panoramas)
	var wg sync.WaitGroup
	for i := range out {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			data, err := renderPanorama(i, config.Panoramas, config.Width, config.RunID)
			if err != nil {
				errs[i] = err
				return
			}
			out[i] = Panorama{Name: fmt.Sprintf("room-%02d.png", i+1), Data: data}
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("render panorama %d: %w", i, err)
		}
	}
	stats.Generated = len(out)
	return out, nil
}

// renderPanorama draws a 2:1 horizontal gradient with a hue picked from
// index and labels it every quarter turn.
func renderPanorama(index, total, width int, runID string) ([]byte, error) {
	if width < 16 {
		width = 16
	}
	height := width / 2
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	base := hue(float64(index) / float64(total))
	for y := 0; y < height; y++ {
		shade := 0.35 + 0.65*float64(y)/float64(height)
		for x := 0; x < width; x++ {
			ramp := 0.6 + 0.4*float64(x)/float64(width)
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(float64(base.R) * shade * ramp),
				G: uint8(float64(base.G) * shade * ramp),
				B: uint8(float64(base.B) * shade * ramp),
				A: 255,
			})
		}
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
	}
	label := fmt.Sprintf("room %d / %s", index+1, runID)
	for q := 0; q < 4; q++ {
		d.Dot = fixed.P(q*width/4+8, height/2)
		d.DrawString(label)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// hue maps t in [0, 1) to a saturated colour.
func hue(t float64) color.RGBA {
	h := t * 6
	x := uint8(255 * (1 - abs(mod2(h)-1)))
	switch int(h) % 6 {
	case 0:
		return color.RGBA{R: 255, G: x, B: 0, A: 255}
	case 1:
		return color.RGBA{R: x, G: 255, B: 0, A: 255}
	case 2:
		return color.RGBA{R: 0, G: 255, B: x, A: 255}
	case 3:
		return color.RGBA{R: 0, G: x, B: 255, A: 255}
	case 4:
		return color.RGBA{R: x, G: 0, B: 255, A: 255}
	default:
		return color.RGBA{R: 255, G: 0, B: x, A: 255}
	}
}

func mod2(v float64) float64 {
	for v >= 2 {
		v -= 2
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
