package canvas

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBackgroundURI(t *testing.T, w, h int, fill color.RGBA) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, fill)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func decodeFlattened(t *testing.T, uri string) image.Image {
	t.Helper()
	require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return img
}

func TestFlattenDimensionsAndMultiplierFloor(t *testing.T) {
	bg := testBackgroundURI(t, 100, 80, color.RGBA{0, 0, 255, 255})
	c := New(bg, 100, 80)

	uri, err := c.Flatten(2)
	require.NoError(t, err)
	img := decodeFlattened(t, uri)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 160, img.Bounds().Dy())

	// sub-print multipliers are raised to the 2x floor
	uri, err = c.Flatten(0.5)
	require.NoError(t, err)
	img = decodeFlattened(t, uri)
	assert.Equal(t, 200, img.Bounds().Dx())
}

func TestFlattenDrawsAnnotations(t *testing.T) {
	bg := testBackgroundURI(t, 100, 100, color.RGBA{255, 255, 255, 255})
	c := New(bg, 100, 100)
	c.SetTool(ToolDraw)
	c.PointerDown(20, 50)
	c.PointerMove(80, 50)
	c.PointerUp()

	uri, err := c.Flatten(2)
	require.NoError(t, err)
	img := decodeFlattened(t, uri)

	// the stroke midpoint must carry the ink color at 2x coordinates
	r, g, b, _ := img.At(100, 100).RGBA()
	assert.Equal(t, uint32(0xef), r>>8)
	assert.Equal(t, uint32(0x44), g>>8)
	assert.Equal(t, uint32(0x44), b>>8)
}

func TestFlattenMeasurementIncludesLabel(t *testing.T) {
	c := New("", 200, 100)
	c.SetTool(ToolMeasure)
	c.PointerDown(20, 40)
	c.PointerDown(180, 40)
	_, err := c.ConfirmMeasurement("480")
	require.NoError(t, err)

	uri, err := c.Flatten(2)
	require.NoError(t, err)
	img := decodeFlattened(t, uri)

	// measurement line pixels present
	r, _, _, _ := img.At(200, 80).RGBA()
	assert.Equal(t, uint32(0xef), r>>8)

	// label background (near-white over white is fine, but some non-line
	// ink must exist below the line where the label sits)
	foundInk := false
	for y := 82; y < 190 && !foundInk; y++ {
		for x := 100; x < 300; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r>>8 == 0xef && g>>8 == 0x44 && b>>8 == 0x44 {
				foundInk = true
				break
			}
		}
	}
	assert.True(t, foundInk, "label glyph ink expected below the line")
}

func TestFlattenEmptyBackground(t *testing.T) {
	c := New("", 50, 50)
	uri, err := c.Flatten(2)
	require.NoError(t, err)
	img := decodeFlattened(t, uri)
	r, g, b, _ := img.At(10, 10).RGBA()
	assert.Equal(t, uint32(0xff), r>>8)
	assert.Equal(t, uint32(0xff), g>>8)
	assert.Equal(t, uint32(0xff), b>>8)
}

func TestFlattenRejectsZeroArea(t *testing.T) {
	c := New("", 0, 0)
	_, err := c.Flatten(2)
	assert.Error(t, err)
}
