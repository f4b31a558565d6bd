package artwork

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/EdlinOrg/prominentcolor"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Color is a 24-bit RGB value.
type Color uint32

// Black is the accent used when no colour could be extracted.
const Black Color = 0x000000

func RGB(r, g, b uint8) Color { return Color(uint32(r)<<16 | uint32(g)<<8 | uint32(b)) }

// Int is the embed colour integer.
func (c Color) Int() int { return int(c & 0xFFFFFF) }

func (c Color) RGB() (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// Hex renders the colour as #rrggbb for logs.
func (c Color) Hex() string {
	r, g, b := c.RGB()
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// MaxPixels bounds the decoded size. The fetch cap only limits compressed
// bytes; a small file can declare dimensions that need gigabytes.
const MaxPixels = 40_000_000

// ErrTooManyPixels is returned for images over MaxPixels.
var ErrTooManyPixels = errors.New("image dimensions too large")

// Decode reads any registered image format (JPEG, PNG, GIF, WebP), applying
// EXIF orientation.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, errors.New("image is empty")
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image header: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, errors.New("image has no pixels")
	}
	return img, nil
}

// DominantColor returns the centre of the largest k-means colour cluster.
// The caller decides what to do on error; there is no hidden fallback.
func DominantColor(data []byte) (Color, error) {
	img, err := Decode(data)
	if err != nil {
		return Black, err
	}
	return dominant(img)
}

func dominant(img image.Image) (Color, error) {
	items, err := prominentcolor.KmeansWithAll(
		prominentcolor.DefaultK,
		img,
		prominentcolor.ArgumentNoCropping,
		prominentcolor.DefaultSize,
		nil,
	)
	if err != nil {
		return Black, fmt.Errorf("cluster colours: %w", err)
	}
	best := -1
	for i, it := range items {
		if best < 0 || it.Cnt > items[best].Cnt {
			best = i
		}
	}
	if best < 0 {
		return Black, errors.New("cluster colours: no clusters")
	}
	c := items[best].Color
	return RGB(uint8(c.R), uint8(c.G), uint8(c.B)), nil
}
