package artwork

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DefaultWarning is drawn over obscured artwork.
const DefaultWarning = "NSFW"

type ObscureOptions struct {
	Text string
	// MaxSide bounds the output size; larger images are scaled down first.
	MaxSide int
	// Sigma is the blur strength. 0 picks one relative to the image size.
	Sigma   float64
	Quality int
}

func (o ObscureOptions) withDefaults() ObscureOptions {
	if strings.TrimSpace(o.Text) == "" {
		o.Text = DefaultWarning
	}
	if o.MaxSide <= 0 {
		o.MaxSide = 800
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = 85
	}
	return o
}

// Obscure blurs the image, darkens a band across the middle and writes the
// warning text on it. Output is always JPEG.
func Obscure(data []byte, opt ObscureOptions) ([]byte, error) {
	opt = opt.withDefaults()

	src, err := Decode(data)
	if err != nil {
		return nil, err
	}
	img := imaging.Fit(src, opt.MaxSide, opt.MaxSide, imaging.Lanczos)

	sigma := opt.Sigma
	if sigma <= 0 {
		b := img.Bounds()
		sigma = float64(max(b.Dx(), b.Dy())) / 25
		if sigma < 8 {
			sigma = 8
		}
	}
	canvas := imaging.Blur(img, sigma)

	bounds := canvas.Bounds()
	bandH := max(bounds.Dy()/4, 16)
	band := image.Rect(bounds.Min.X, bounds.Min.Y+(bounds.Dy()-bandH)/2, bounds.Max.X, bounds.Min.Y+(bounds.Dy()+bandH)/2)
	draw.Draw(canvas, band, image.NewUniform(color.NRGBA{A: 170}), image.Point{}, draw.Over)

	label := renderLabel(opt.Text)
	// Scale the bitmap text to ~60% of the width, capped by the band height.
	targetW := bounds.Dx() * 6 / 10
	lb := label.Bounds()
	if targetW > 0 && lb.Dx() > 0 {
		if h := targetW * lb.Dy() / lb.Dx(); h > bandH*8/10 {
			targetW = (bandH * 8 / 10) * lb.Dx() / lb.Dy()
		}
		if targetW > 0 {
			label = imaging.Resize(label, targetW, 0, imaging.NearestNeighbor)
		}
	}
	lb = label.Bounds()
	at := image.Pt(
		bounds.Min.X+(bounds.Dx()-lb.Dx())/2,
		band.Min.Y+(band.Dy()-lb.Dy())/2,
	)
	draw.Draw(canvas, lb.Sub(lb.Min).Add(at), label, lb.Min, draw.Over)

	var out bytes.Buffer
	if err := imaging.Encode(&out, canvas, imaging.JPEG, imaging.JPEGQuality(opt.Quality)); err != nil {
		return nil, fmt.Errorf("encode obscured image: %w", err)
	}
	return out.Bytes(), nil
}

// renderLabel draws text with the built-in bitmap face on a transparent
// image sized to fit it.
func renderLabel(text string) *image.NRGBA {
	face := basicfont.Face7x13
	d := &font.Drawer{Face: face}
	w := d.MeasureString(text).Ceil()
	m := face.Metrics()
	h := (m.Ascent + m.Descent).Ceil()

	const pad = 1
	dst := image.NewNRGBA(image.Rect(0, 0, w+2*pad, h+2*pad))
	d.Dst = dst
	d.Src = image.NewUniform(color.White)
	d.Dot = fixed.P(pad, pad+m.Ascent.Ceil())
	d.DrawString(text)
	return dst
}
