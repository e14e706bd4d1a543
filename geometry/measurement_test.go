package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// side reports which side of the directed line (x1,y1)->(x2,y2) a point
// falls on via the cross product sign.
func side(x1, y1, x2, y2, px, py float64) float64 {
	return (x2-x1)*(py-y1) - (y2-y1)*(px-x1)
}

func TestLayoutMeasurementLabelSideStable(t *testing.T) {
	cases := []struct {
		name           string
		x1, y1, x2, y2 float64
	}{
		{"Horizontal", 10, 10, 200, 10},
		{"NearVertical", 50, 20, 51, 300},
		{"Diagonal", 0, 0, 120, 90},
		{"SteepBack", 300, 40, 20, 250},
		{"Shallow", 5, 100, 400, 110},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			forward := LayoutMeasurement(tc.x1, tc.y1, tc.x2, tc.y2, "100 mm", "#ef4444")
			reverse := LayoutMeasurement(tc.x2, tc.y2, tc.x1, tc.y1, "100 mm", "#ef4444")

			// measured against a fixed line orientation, the label must land
			// on the same side whichever way the line was drawn
			sideForward := side(tc.x1, tc.y1, tc.x2, tc.y2, forward.Label.X, forward.Label.Y)
			sideReverse := side(tc.x1, tc.y1, tc.x2, tc.y2, reverse.Label.X, reverse.Label.Y)
			assert.Equal(t, sideForward > 0, sideReverse > 0,
				"label switched sides when direction reversed")

			// same anchor point either way
			assert.InDelta(t, forward.Label.X, reverse.Label.X, 1e-9)
			assert.InDelta(t, forward.Label.Y, reverse.Label.Y, 1e-9)
		})
	}
}

func TestLayoutMeasurementAngleNeverUpsideDown(t *testing.T) {
	for deg := 0; deg < 360; deg += 15 {
		rad := float64(deg) * math.Pi / 180
		m := LayoutMeasurement(100, 100, 100+80*math.Cos(rad), 100+80*math.Sin(rad), "x", "#ef4444")
		assert.LessOrEqual(t, m.Label.Angle, 90.0, "angle %d", deg)
		assert.GreaterOrEqual(t, m.Label.Angle, -90.0, "angle %d", deg)
	}
}

func TestLayoutMeasurementDegenerate(t *testing.T) {
	m := LayoutMeasurement(42, 42, 42, 42, "0 mm", "#ef4444")
	require.False(t, math.IsNaN(m.Label.X))
	require.False(t, math.IsNaN(m.Label.Y))
	require.False(t, math.IsNaN(m.Cap1.X1))
	assert.Equal(t, 42.0, m.Line.X1)
	assert.Equal(t, 42.0, m.Line.X2)
	// zero-length line still yields the minimum font size
	assert.Equal(t, 10.0, m.Label.FontSize)
}

func TestLayoutMeasurementAdaptiveSizing(t *testing.T) {
	short := LayoutMeasurement(0, 0, 20, 0, "x", "#ef4444")
	assert.Equal(t, 10.0, short.Label.FontSize, "short lines clamp to the font floor")
	assert.Equal(t, 8.0, short.Label.Offset)

	long := LayoutMeasurement(0, 0, 1000, 0, "x", "#ef4444")
	assert.Equal(t, 22.0, long.Label.FontSize, "long lines clamp to the font ceiling")
	assert.Equal(t, 20.0, long.Label.Offset)

	mid := LayoutMeasurement(0, 0, 100, 0, "x", "#ef4444")
	assert.InDelta(t, 18.0, mid.Label.FontSize, 1e-9)
	assert.InDelta(t, 12.0, mid.Label.Offset, 1e-9)
}

func TestLayoutMeasurementFixedSizing(t *testing.T) {
	for _, length := range []float64{5, 100, 2000} {
		m := LayoutMeasurementFixed(0, 0, length, 0, "x", "#ef4444")
		assert.Equal(t, 16.0, m.Label.FontSize)
		assert.Equal(t, 12.0, m.Label.Offset)
	}
}

func TestLayoutMeasurementCaps(t *testing.T) {
	m := LayoutMeasurement(0, 0, 100, 0, "x", "#ef4444")
	// horizontal line: caps are vertical segments of total length 14
	assert.InDelta(t, 0.0, m.Cap1.X1, 1e-9)
	assert.InDelta(t, -7.0, m.Cap1.Y1, 1e-9)
	assert.InDelta(t, 7.0, m.Cap1.Y2, 1e-9)
	assert.InDelta(t, 100.0, m.Cap2.X1, 1e-9)
	capLen := math.Hypot(m.Cap2.X2-m.Cap2.X1, m.Cap2.Y2-m.Cap2.Y1)
	assert.InDelta(t, 14.0, capLen, 1e-9)
}
