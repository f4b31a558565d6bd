package artwork

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mostlyRed is 70% red with green and blue strips.
func mostlyRed(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			c := color.NRGBA{R: 220, G: 20, B: 20, A: 255}
			switch {
			case x >= 34:
				c = color.NRGBA{R: 10, G: 200, B: 10, A: 255}
			case x >= 28:
				c = color.NRGBA{R: 10, G: 10, B: 200, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// hugePNG is a 1x1 PNG whose header claims width x height.
func hugePNG(t *testing.T, width, height uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))))
	b := buf.Bytes()
	// Signature (8), IHDR length (4), "IHDR" (4), then width and height.
	binary.BigEndian.PutUint32(b[16:20], width)
	binary.BigEndian.PutUint32(b[20:24], height)
	binary.BigEndian.PutUint32(b[29:33], crc32.ChecksumIEEE(b[12:29]))
	return b
}

func TestDecodeRejectsOversizedDimensions(t *testing.T) {
	_, err := Decode(hugePNG(t, 10000, 10000))
	require.ErrorIs(t, err, ErrTooManyPixels)

	_, err = DominantColor(hugePNG(t, 10000, 10000))
	require.ErrorIs(t, err, ErrTooManyPixels)
	_, err = Obscure(hugePNG(t, 10000, 10000), ObscureOptions{})
	require.ErrorIs(t, err, ErrTooManyPixels)
}

func TestColorFormatting(t *testing.T) {
	c := RGB(0x12, 0xab, 0xff)
	assert.Equal(t, 0x12abff, c.Int())
	assert.Equal(t, "#12abff", c.Hex())
	r, g, b := c.RGB()
	assert.Equal(t, []uint8{0x12, 0xab, 0xff}, []uint8{r, g, b})
	assert.Equal(t, 0, Black.Int())
}

func TestDominantColor(t *testing.T) {
	c, err := DominantColor(mostlyRed(t))
	require.NoError(t, err)
	r, g, b := c.RGB()
	assert.Greater(t, int(r), 150, c.Hex())
	assert.Less(t, int(g), 90, c.Hex())
	assert.Less(t, int(b), 90, c.Hex())
}

func TestDominantColorRejectsGarbage(t *testing.T) {
	_, err := DominantColor([]byte("not an image"))
	assert.Error(t, err)
	_, err = DominantColor(nil)
	assert.Error(t, err)
}

func TestObscureProducesJPEG(t *testing.T) {
	out, err := Obscure(mostlyRed(t), ObscureOptions{})
	require.NoError(t, err)
	require.Greater(t, len(out), 3)
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF}, out[:3])

	img, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 40, img.Bounds().Dx())
}

func TestObscureScalesDown(t *testing.T) {
	big := image.NewNRGBA(image.Rect(0, 0, 1600, 400))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, big))

	out, err := Obscure(buf.Bytes(), ObscureOptions{MaxSide: 400, Text: "ADULT"})
	require.NoError(t, err)
	img, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())
}

func TestFetcher(t *testing.T) {
	payload := mostlyRed(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			assert.NotEmpty(t, r.Header.Get("User-Agent"))
			_, _ = w.Write(payload)
		case "/big":
			_, _ = w.Write(make([]byte, 64))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewFetcher(FetchConfig{MaxBytes: 32})
	_, err := f.Fetch(context.Background(), srv.URL+"/big")
	assert.ErrorIs(t, err, ErrTooLarge)

	f = NewFetcher(FetchConfig{})
	b, err := f.Fetch(context.Background(), srv.URL+"/ok.png")
	require.NoError(t, err)
	assert.Equal(t, payload, b)

	_, err = f.Fetch(context.Background(), srv.URL+"/missing")
	assert.ErrorContains(t, err, "http 404")

	_, err = f.Fetch(context.Background(), "  ")
	assert.Error(t, err)
}

func TestServiceFetchesOncePerURL(t *testing.T) {
	payload := mostlyRed(t)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	svc := NewService(NewFetcher(FetchConfig{}), ObscureOptions{})
	ctx := context.Background()

	_, err := svc.Accent(ctx, srv.URL+"/a.png")
	require.NoError(t, err)
	_, err = svc.Obscured(ctx, srv.URL+"/a.png")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())

	_, err = svc.Accent(ctx, srv.URL+"/b.png")
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}
