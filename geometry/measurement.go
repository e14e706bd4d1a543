package geometry

import (
	"math"

	"github.com/aufmass/go-aufmass/config"
)

// Point is a position in canvas coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Segment is a straight stroke between two canvas points.
type Segment struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Label is the placed measurement text. Position is the anchor point at the
// horizontal center, top edge of the text. Angle keeps the text parallel to
// the measured line and is always within [-90, 90] so it never renders
// upside-down; Flipped reports whether the raw line angle was rotated by
// 180 degrees to achieve that.
type Label struct {
	Text     string  `json:"text"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Angle    float64 `json:"angle"`
	Flipped  bool    `json:"flipped"`
	FontSize float64 `json:"font_size"`
	Offset   float64 `json:"offset"`
	Padding  int     `json:"padding"`
}

// Measurement is the composite visual for one dimension annotation: the
// main line, a perpendicular end cap at each endpoint, and the label. It is
// moved and selected as a single unit.
type Measurement struct {
	Line        Segment `json:"line"`
	Cap1        Segment `json:"cap1"`
	Cap2        Segment `json:"cap2"`
	Label       Label   `json:"label"`
	Color       string  `json:"color"`
	StrokeWidth float64 `json:"stroke_width"`
}

// LayoutMeasurement computes the layout for a measurement annotation
// between (x1,y1) and (x2,y2). Label font size and offset scale with line
// length within clamped bounds, so short lines stay legible and long lines
// do not shout. The label always sits on the same visual side of the line
// regardless of the direction it was drawn in: when the angle is
// normalized to keep the text upright the perpendicular offset sign
// inverts with it.
func LayoutMeasurement(x1, y1, x2, y2 float64, label, color string) Measurement {
	length := math.Hypot(x2-x1, y2-y1)
	fontSize := clamp(10, 22, length*0.18)
	textOffset := clamp(8, 20, length*0.12)
	return layout(x1, y1, x2, y2, label, color, fontSize, textOffset)
}

// LayoutMeasurementFixed is the constant-size variant of LayoutMeasurement:
// the label uses a fixed font size and offset independent of line length.
// Both variants are in production use; callers choose per rendering surface.
func LayoutMeasurementFixed(x1, y1, x2, y2 float64, label, color string) Measurement {
	return layout(x1, y1, x2, y2, label, color, 16, 12)
}

func layout(x1, y1, x2, y2 float64, label, color string, fontSize, textOffset float64) Measurement {
	dx := x2 - x1
	dy := y2 - y1
	// zero-length guard: a degenerate line keeps a valid layout
	length := math.Max(math.Hypot(dx, dy), 1)

	// unit perpendicular
	px := -dy / length
	py := dx / length
	half := config.MEASURE_CAP_LENGTH / 2

	midX := (x1 + x2) / 2
	midY := (y1 + y2) / 2

	angle := math.Atan2(dy, dx) * (180 / math.Pi)
	flipped := false
	if angle > 90 {
		angle -= 180
		flipped = true
	}
	if angle < -90 {
		angle += 180
		flipped = true
	}

	// keep the label below the line even when the direction reverses
	sign := 1.0
	if flipped {
		sign = -1
	}

	return Measurement{
		Line: Segment{X1: x1, Y1: y1, X2: x2, Y2: y2},
		Cap1: Segment{
			X1: x1 - px*half, Y1: y1 - py*half,
			X2: x1 + px*half, Y2: y1 + py*half,
		},
		Cap2: Segment{
			X1: x2 - px*half, Y1: y2 - py*half,
			X2: x2 + px*half, Y2: y2 + py*half,
		},
		Label: Label{
			Text:     label,
			X:        midX + sign*px*textOffset,
			Y:        midY + sign*py*textOffset,
			Angle:    angle,
			Flipped:  flipped,
			FontSize: fontSize,
			Offset:   textOffset,
			Padding:  int(math.Max(2, math.Round(fontSize*0.18))),
		},
		Color:       color,
		StrokeWidth: config.MEASURE_STROKE_WIDTH,
	}
}

func clamp(low, high, value float64) float64 {
	return math.Max(low, math.Min(high, value))
}
