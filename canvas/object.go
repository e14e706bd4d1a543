package canvas

import (
	"math"

	"github.com/aufmass/go-aufmass/geometry"
	"github.com/google/uuid"
)

type ObjectKind string

const (
	KindStroke      ObjectKind = "stroke"
	KindText        ObjectKind = "text"
	KindMeasurement ObjectKind = "measurement"
)

// Object is one annotation on the surface. Kind decides which fields are
// meaningful: strokes carry Points, texts carry Text/X/Y/FontSize, and
// measurements carry the full layout group. Selection state is
// session-local and deliberately excluded from snapshots.
type Object struct {
	ID          string                `json:"id"`
	Kind        ObjectKind            `json:"kind"`
	Points      []geometry.Point      `json:"points,omitempty"`
	Text        string                `json:"text,omitempty"`
	X           float64               `json:"x,omitempty"`
	Y           float64               `json:"y,omitempty"`
	FontSize    float64               `json:"font_size,omitempty"`
	Color       string                `json:"color,omitempty"`
	Width       float64               `json:"width,omitempty"`
	Measurement *geometry.Measurement `json:"measurement,omitempty"`

	selected bool
}

func (o *Object) Selected() bool {
	return o.selected
}

func newObjectID() string {
	return uuid.NewString()
}

// translate moves the object by (dx, dy) in canvas coordinates.
func (o *Object) translate(dx, dy float64) {
	switch o.Kind {
	case KindStroke:
		for i := range o.Points {
			o.Points[i].X += dx
			o.Points[i].Y += dy
		}
	case KindText:
		o.X += dx
		o.Y += dy
	case KindMeasurement:
		if o.Measurement == nil {
			return
		}
		m := o.Measurement
		for _, seg := range []*geometry.Segment{&m.Line, &m.Cap1, &m.Cap2} {
			seg.X1 += dx
			seg.Y1 += dy
			seg.X2 += dx
			seg.Y2 += dy
		}
		m.Label.X += dx
		m.Label.Y += dy
	}
}

// bounds returns the object's axis-aligned bounding box for hit testing.
func (o *Object) bounds() (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	grow := func(x, y float64) {
		minX = math.Min(minX, x)
		minY = math.Min(minY, y)
		maxX = math.Max(maxX, x)
		maxY = math.Max(maxY, y)
	}
	switch o.Kind {
	case KindStroke:
		for _, p := range o.Points {
			grow(p.X, p.Y)
		}
		pad := o.Width
		if pad < 4 {
			pad = 4
		}
		return minX - pad, minY - pad, maxX + pad, maxY + pad
	case KindText:
		w := approxTextWidth(o.Text, o.FontSize)
		return o.X, o.Y, o.X + w, o.Y + o.FontSize
	case KindMeasurement:
		if o.Measurement == nil {
			return 0, 0, 0, 0
		}
		m := o.Measurement
		for _, seg := range []geometry.Segment{m.Line, m.Cap1, m.Cap2} {
			grow(seg.X1, seg.Y1)
			grow(seg.X2, seg.Y2)
		}
		grow(m.Label.X, m.Label.Y)
		return minX - 4, minY - 4, maxX + 4, maxY + 4
	}
	return 0, 0, 0, 0
}

func (o *Object) hit(x, y float64) bool {
	minX, minY, maxX, maxY := o.bounds()
	return x >= minX && x <= maxX && y >= minY && y <= maxY
}

// approxTextWidth estimates rendered width without shaping the string.
// Good enough for hit testing; the rasterizer measures properly.
func approxTextWidth(text string, fontSize float64) float64 {
	return float64(len([]rune(text))) * fontSize * 0.6
}
