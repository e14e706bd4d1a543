package canvas

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"math"
	"strings"
	"sync"

	"github.com/aufmass/go-aufmass/config"
	"github.com/aufmass/go-aufmass/geometry"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var (
	fontOnce sync.Once
	fontFace *opentype.Font
	fontErr  error
)

func regularFont() (*opentype.Font, error) {
	fontOnce.Do(func() {
		fontFace, fontErr = opentype.Parse(goregular.TTF)
	})
	return fontFace, fontErr
}

// Flatten renders the background image and every annotation into a single
// raster at the given device-pixel multiplier and returns it as a PNG data
// URI. Multipliers below the print-quality floor are raised to it.
// Rendering is synchronous; the returned image is complete.
func (c *Canvas) Flatten(multiplier float64) (string, error) {
	if multiplier < config.FLATTEN_MULTIPLIER {
		multiplier = config.FLATTEN_MULTIPLIER
	}
	w := int(math.Round(float64(c.width) * multiplier))
	h := int(math.Round(float64(c.height) * multiplier))
	if w <= 0 || h <= 0 {
		return "", fmt.Errorf("flatten: surface has no area (%dx%d)", c.width, c.height)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)

	if c.background != "" {
		bg, err := decodeImageDataURI(c.background)
		if err != nil {
			return "", fmt.Errorf("flatten background: %w", err)
		}
		drawBackground(dst, bg)
	}

	for _, obj := range c.objects {
		switch obj.Kind {
		case KindStroke:
			col := parseHexColor(obj.Color)
			width := obj.Width * multiplier
			for i := 1; i < len(obj.Points); i++ {
				p1 := obj.Points[i-1]
				p2 := obj.Points[i]
				drawThickLine(dst, p1.X*multiplier, p1.Y*multiplier, p2.X*multiplier, p2.Y*multiplier, width, col)
			}
		case KindText:
			if err := drawLabel(dst, obj.Text, obj.X*multiplier, obj.Y*multiplier, obj.FontSize*multiplier, 0, parseHexColor(obj.Color), false, 0); err != nil {
				return "", err
			}
		case KindMeasurement:
			if obj.Measurement == nil {
				continue
			}
			m := obj.Measurement
			col := parseHexColor(m.Color)
			width := m.StrokeWidth * multiplier
			drawSegment(dst, m.Line, multiplier, width, col)
			drawSegment(dst, m.Cap1, multiplier, width, col)
			drawSegment(dst, m.Cap2, multiplier, width, col)
			if err := drawLabel(dst, m.Label.Text, m.Label.X*multiplier, m.Label.Y*multiplier, m.Label.FontSize*multiplier, m.Label.Angle, col, true, int(float64(m.Label.Padding)*multiplier)); err != nil {
				return "", err
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return "", fmt.Errorf("encode flattened raster: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// drawBackground scales the captured image to fit the surface, centered.
func drawBackground(dst *image.RGBA, bg image.Image) {
	db := dst.Bounds()
	bb := bg.Bounds()
	if bb.Dx() == 0 || bb.Dy() == 0 {
		return
	}
	scale := math.Min(
		float64(db.Dx())/float64(bb.Dx()),
		float64(db.Dy())/float64(bb.Dy()),
	)
	sw := int(math.Round(float64(bb.Dx()) * scale))
	sh := int(math.Round(float64(bb.Dy()) * scale))
	x0 := (db.Dx() - sw) / 2
	y0 := (db.Dy() - sh) / 2
	target := image.Rect(x0, y0, x0+sw, y0+sh)
	xdraw.ApproxBiLinear.Scale(dst, target, bg, bb, draw.Over, nil)
}

func drawSegment(dst *image.RGBA, seg geometry.Segment, multiplier, width float64, col color.RGBA) {
	drawThickLine(dst, seg.X1*multiplier, seg.Y1*multiplier, seg.X2*multiplier, seg.Y2*multiplier, width, col)
}

func drawThickLine(dst *image.RGBA, x1, y1, x2, y2, width float64, col color.RGBA) {
	length := math.Hypot(x2-x1, y2-y1)
	steps := int(length*2) + 1
	radius := width / 2
	if radius < 1 {
		radius = 1
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		stampDisc(dst, x1+t*(x2-x1), y1+t*(y2-y1), radius, col)
	}
}

func stampDisc(dst *image.RGBA, cx, cy, r float64, col color.RGBA) {
	for y := int(cy - r); y <= int(cy+r+1); y++ {
		for x := int(cx - r); x <= int(cx+r+1); x++ {
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			if dx*dx+dy*dy <= r*r {
				dst.Set(x, y, col)
			}
		}
	}
}

// drawLabel renders text anchored at its top-center point. Labels steeper
// than 45 degrees are rotated a quarter turn so they follow the measured
// line; intermediate angles snap to the nearest readable step since glyph
// rasterization at arbitrary angles is not worth the legibility loss in
// print output.
func drawLabel(dst *image.RGBA, text string, ax, ay, size, angle float64, col color.RGBA, background bool, padding int) error {
	if text == "" {
		return nil
	}
	ft, err := regularFont()
	if err != nil {
		return fmt.Errorf("parse label font: %w", err)
	}
	face, err := opentype.NewFace(ft, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return fmt.Errorf("label face: %w", err)
	}
	defer face.Close()

	drawer := &font.Drawer{Face: face, Src: image.NewUniform(col)}
	textWidth := drawer.MeasureString(text).Ceil()
	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	descent := metrics.Descent.Ceil()

	boxW := textWidth + 2*padding
	boxH := ascent + descent + 2*padding
	box := image.NewRGBA(image.Rect(0, 0, boxW, boxH))
	if background {
		draw.Draw(box, box.Bounds(), image.NewUniform(color.RGBA{255, 255, 255, 230}), image.Point{}, draw.Src)
	}
	drawer.Dst = box
	drawer.Dot = fixed.P(padding, padding+ascent)
	drawer.DrawString(text)

	oriented := box
	switch {
	case angle > 45:
		oriented = rotate90(box, true)
	case angle < -45:
		oriented = rotate90(box, false)
	}

	// place the oriented box with its top-center on the anchor
	ob := oriented.Bounds()
	x0 := int(math.Round(ax)) - ob.Dx()/2
	y0 := int(math.Round(ay))
	draw.Draw(dst, image.Rect(x0, y0, x0+ob.Dx(), y0+ob.Dy()), oriented, ob.Min, draw.Over)
	return nil
}

// rotate90 rotates an image a quarter turn, clockwise or counterclockwise.
func rotate90(src *image.RGBA, clockwise bool) *image.RGBA {
	sb := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, sb.Dy(), sb.Dx()))
	for y := sb.Min.Y; y < sb.Max.Y; y++ {
		for x := sb.Min.X; x < sb.Max.X; x++ {
			if clockwise {
				dst.Set(sb.Max.Y-1-y, x, src.At(x, y))
			} else {
				dst.Set(y, sb.Max.X-1-x, src.At(x, y))
			}
		}
	}
	return dst
}

func parseHexColor(s string) color.RGBA {
	var r, g, b uint8
	if n, err := fmt.Sscanf(strings.TrimSpace(s), "#%02x%02x%02x", &r, &g, &b); err != nil || n != 3 {
		return color.RGBA{0xef, 0x44, 0x44, 0xff}
	}
	return color.RGBA{r, g, b, 0xff}
}

// decodeImageDataURI decodes a base64 data URI into an image.
func decodeImageDataURI(uri string) (image.Image, error) {
	_, idx := dataURIPayload(uri)
	if idx < 0 {
		return nil, fmt.Errorf("not a base64 data URI")
	}
	raw, err := base64.StdEncoding.DecodeString(uri[idx:])
	if err != nil {
		return nil, fmt.Errorf("decode data URI payload: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// dataURIPayload returns the declared MIME type and the offset of the
// base64 payload, or -1 when the string is not a base64 data URI.
func dataURIPayload(uri string) (mime string, payloadStart int) {
	const marker = ";base64,"
	i := strings.Index(uri, marker)
	if i < 0 || !strings.HasPrefix(uri, "data:") {
		return "", -1
	}
	return uri[len("data:"):i], i + len(marker)
}
