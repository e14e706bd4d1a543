package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addStroke(t *testing.T, c *Canvas, x, y float64) {
	t.Helper()
	c.SetTool(ToolDraw)
	c.PointerDown(x, y)
	c.PointerMove(x+10, y+10)
	c.PointerMove(x+20, y+5)
	c.PointerUp()
}

func TestUndoRedoRoundTrip(t *testing.T) {
	c := New("", 800, 600)

	const n = 5
	for i := 0; i < n; i++ {
		addStroke(t, c, float64(i*30), 50)
	}
	require.Len(t, c.Objects(), n)

	for i := 0; i < n; i++ {
		require.True(t, c.Undo(), "undo %d", i)
	}
	assert.Empty(t, c.Objects(), "undoing every edit returns to the empty surface")
	assert.False(t, c.Undo(), "no history before the initial state")

	for i := 0; i < n; i++ {
		require.True(t, c.Redo(), "redo %d", i)
	}
	assert.Len(t, c.Objects(), n, "redoing restores the final state")
	assert.False(t, c.Redo())
}

func TestNewEditAfterUndoTruncatesRedo(t *testing.T) {
	c := New("", 800, 600)
	for i := 0; i < 4; i++ {
		addStroke(t, c, float64(i*30), 50)
	}

	require.True(t, c.Undo())
	require.True(t, c.Undo())
	require.Len(t, c.Objects(), 2)

	// a fresh edit invalidates the two undone snapshots
	addStroke(t, c, 500, 500)
	require.Len(t, c.Objects(), 3)
	assert.False(t, c.CanRedo())
	assert.False(t, c.Redo(), "redo after a new edit must be a no-op")

	require.True(t, c.Undo())
	assert.Len(t, c.Objects(), 2)
}

func TestTextToolIsOneShot(t *testing.T) {
	c := New("", 800, 600)
	created := c.SetTool(ToolText)
	require.NotNil(t, created)
	assert.Equal(t, KindText, created.Kind)
	assert.Equal(t, ToolSelect, c.Tool(), "text tool reverts to select immediately")
	assert.True(t, created.Selected())
	assert.Len(t, c.Objects(), 1)

	// the insertion is a history event
	require.True(t, c.Undo())
	assert.Empty(t, c.Objects())
}

func TestMeasureTwoClickProtocol(t *testing.T) {
	c := New("", 800, 600)
	c.SetTool(ToolMeasure)

	assert.False(t, c.PointerDown(100, 100), "first press only records the start")
	assert.True(t, c.MeasurePending())
	assert.True(t, c.PointerDown(300, 100), "second press asks for the value")

	obj, err := c.ConfirmMeasurement("250")
	require.NoError(t, err)
	require.NotNil(t, obj.Measurement)
	assert.Equal(t, KindMeasurement, obj.Kind)
	assert.Equal(t, "250 mm", obj.Measurement.Label.Text)
	assert.Equal(t, ToolSelect, c.Tool())
	assert.False(t, c.MeasurePending())

	_, err = c.ConfirmMeasurement("1")
	assert.ErrorIs(t, err, ErrNoPendingMeasurement)
}

func TestMeasureCancelDiscardsStart(t *testing.T) {
	c := New("", 800, 600)
	c.SetTool(ToolMeasure)
	c.PointerDown(10, 10)
	c.PointerDown(90, 10)

	c.CancelMeasurement()
	assert.Equal(t, ToolSelect, c.Tool())
	assert.False(t, c.MeasurePending())
	assert.Empty(t, c.Objects(), "cancel inserts nothing")
}

func TestDeleteSelected(t *testing.T) {
	c := New("", 800, 600)

	_, err := c.DeleteSelected()
	assert.ErrorIs(t, err, ErrNothingSelected)

	addStroke(t, c, 100, 100)
	addStroke(t, c, 400, 400)
	require.Len(t, c.Objects(), 2)

	require.NotNil(t, c.SelectAt(110, 110))
	removed, err := c.DeleteSelected()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Len(t, c.Objects(), 1)

	// deletion is undoable
	require.True(t, c.Undo())
	assert.Len(t, c.Objects(), 2)
}

func TestSelectAtMissesClearSelection(t *testing.T) {
	c := New("", 800, 600)
	addStroke(t, c, 100, 100)
	require.NotNil(t, c.SelectAt(110, 110))
	assert.Nil(t, c.SelectAt(700, 10))
	_, err := c.DeleteSelected()
	assert.ErrorIs(t, err, ErrNothingSelected)
}

func TestSerializeLoadRoundTrip(t *testing.T) {
	c := New("", 640, 480)
	addStroke(t, c, 10, 10)
	c.SetTool(ToolMeasure)
	c.PointerDown(50, 50)
	c.PointerDown(150, 50)
	_, err := c.ConfirmMeasurement("100")
	require.NoError(t, err)

	raw, err := c.Serialize()
	require.NoError(t, err)

	loaded, err := Load(raw)
	require.NoError(t, err)
	w, h := loaded.Size()
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)
	require.Len(t, loaded.Objects(), 2)
	assert.Equal(t, KindStroke, loaded.Objects()[0].Kind)
	assert.Equal(t, KindMeasurement, loaded.Objects()[1].Kind)

	// history does not survive the round trip
	assert.False(t, loaded.CanUndo())
}
