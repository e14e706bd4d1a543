package canvas

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aufmass/go-aufmass/config"
	"github.com/aufmass/go-aufmass/geometry"
)

// Tool is the active interaction mode of the annotation surface.
type Tool string

const (
	ToolSelect  Tool = "select"
	ToolDraw    Tool = "draw"
	ToolText    Tool = "text"
	ToolMeasure Tool = "measure"
)

var (
	ErrNothingSelected      = errors.New("no object selected")
	ErrNoPendingMeasurement = errors.New("no pending measurement")
)

// Canvas is an annotation surface over a static background image. All
// methods are driven from a single UI event loop; the type is not safe for
// concurrent use. Edit history is session-local full-state snapshots and
// is not persisted.
type Canvas struct {
	background string // data URI of the captured image
	width      int
	height     int
	objects    []*Object

	tool          Tool
	pendingStroke *Object
	measureStart  *geometry.Point
	measureEnd    *geometry.Point

	history [][]byte
	cursor  int
}

type snapshot struct {
	Objects []*Object `json:"objects"`
}

type state struct {
	Background string    `json:"background"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Objects    []*Object `json:"objects"`
}

func New(background string, width, height int) *Canvas {
	c := &Canvas{
		background: background,
		width:      width,
		height:     height,
		tool:       ToolSelect,
	}
	// seed history so undoing every edit lands on the empty surface
	c.history = [][]byte{c.encodeSnapshot()}
	c.cursor = 0
	return c
}

func (c *Canvas) Background() string { return c.background }

func (c *Canvas) Size() (width, height int) { return c.width, c.height }

func (c *Canvas) Tool() Tool { return c.tool }

// Objects returns the live object list in stacking order.
func (c *Canvas) Objects() []*Object { return c.objects }

// SetTool switches the interaction mode. The text tool is a one-shot
// action: it inserts an editable text object at the default position and
// immediately reverts to select. Entering measure mode discards any
// half-finished measurement.
func (c *Canvas) SetTool(tool Tool) (created *Object) {
	c.measureStart = nil
	c.measureEnd = nil
	c.pendingStroke = nil
	switch tool {
	case ToolText:
		created = &Object{
			ID:       newObjectID(),
			Kind:     KindText,
			Text:     "Text eingeben",
			X:        config.TEXT_DEFAULT_X,
			Y:        config.TEXT_DEFAULT_Y,
			FontSize: config.TEXT_FONT_SIZE,
			Color:    config.DRAW_COLOR,
		}
		c.objects = append(c.objects, created)
		c.selectOnly(created)
		c.tool = ToolSelect
		c.record()
	default:
		c.tool = tool
	}
	return created
}

// PointerDown feeds a press event to the active tool. In measure mode the
// first press records the start point and the second completes the pair;
// promptValue is true when the caller should now ask the user for the
// measurement value and confirm or cancel.
func (c *Canvas) PointerDown(x, y float64) (promptValue bool) {
	switch c.tool {
	case ToolSelect:
		c.SelectAt(x, y)
	case ToolDraw:
		c.pendingStroke = &Object{
			ID:     newObjectID(),
			Kind:   KindStroke,
			Points: []geometry.Point{{X: x, Y: y}},
			Color:  config.DRAW_COLOR,
			Width:  config.DRAW_STROKE_WIDTH,
		}
	case ToolMeasure:
		if c.measureStart == nil {
			c.measureStart = &geometry.Point{X: x, Y: y}
			return false
		}
		c.measureEnd = &geometry.Point{X: x, Y: y}
		return true
	}
	return false
}

// PointerMove extends the in-progress freehand stroke.
func (c *Canvas) PointerMove(x, y float64) {
	if c.tool != ToolDraw || c.pendingStroke == nil {
		return
	}
	c.pendingStroke.Points = append(c.pendingStroke.Points, geometry.Point{X: x, Y: y})
}

// PointerUp completes the in-progress freehand stroke.
func (c *Canvas) PointerUp() {
	if c.tool != ToolDraw || c.pendingStroke == nil {
		return
	}
	stroke := c.pendingStroke
	c.pendingStroke = nil
	c.objects = append(c.objects, stroke)
	c.record()
}

// MeasurePending reports whether a measurement start point is recorded.
func (c *Canvas) MeasurePending() bool {
	return c.measureStart != nil
}

// ConfirmMeasurement completes the two-click measure protocol with the
// user-entered value, inserts the measurement group and reverts to select.
func (c *Canvas) ConfirmMeasurement(value string) (*Object, error) {
	if c.measureStart == nil || c.measureEnd == nil {
		return nil, ErrNoPendingMeasurement
	}
	layout := geometry.LayoutMeasurement(
		c.measureStart.X, c.measureStart.Y,
		c.measureEnd.X, c.measureEnd.Y,
		fmt.Sprintf("%s mm", value),
		config.MEASURE_COLOR,
	)
	obj := &Object{
		ID:          newObjectID(),
		Kind:        KindMeasurement,
		Measurement: &layout,
		Color:       config.MEASURE_COLOR,
	}
	c.objects = append(c.objects, obj)
	c.selectOnly(obj)
	c.measureStart = nil
	c.measureEnd = nil
	c.tool = ToolSelect
	c.record()
	return obj, nil
}

// CancelMeasurement discards the pending points and reverts to select.
func (c *Canvas) CancelMeasurement() {
	c.measureStart = nil
	c.measureEnd = nil
	c.tool = ToolSelect
}

// SelectAt selects the topmost object containing the point, or clears the
// selection when the point hits nothing. Selection is not a history event.
func (c *Canvas) SelectAt(x, y float64) *Object {
	for i := len(c.objects) - 1; i >= 0; i-- {
		if c.objects[i].hit(x, y) {
			c.selectOnly(c.objects[i])
			return c.objects[i]
		}
	}
	for _, obj := range c.objects {
		obj.selected = false
	}
	return nil
}

// MoveSelected translates every selected object.
func (c *Canvas) MoveSelected(dx, dy float64) error {
	moved := false
	for _, obj := range c.objects {
		if obj.selected {
			obj.translate(dx, dy)
			moved = true
		}
	}
	if !moved {
		return ErrNothingSelected
	}
	c.record()
	return nil
}

// DeleteSelected removes all selected objects and reports how many went.
func (c *Canvas) DeleteSelected() (int, error) {
	kept := c.objects[:0]
	removed := 0
	for _, obj := range c.objects {
		if obj.selected {
			removed++
			continue
		}
		kept = append(kept, obj)
	}
	if removed == 0 {
		return 0, ErrNothingSelected
	}
	c.objects = kept
	c.record()
	return removed, nil
}

func (c *Canvas) selectOnly(target *Object) {
	for _, obj := range c.objects {
		obj.selected = obj == target
	}
}

// CanUndo reports whether an earlier snapshot exists.
func (c *Canvas) CanUndo() bool { return c.cursor > 0 }

// CanRedo reports whether a later snapshot exists.
func (c *Canvas) CanRedo() bool { return c.cursor < len(c.history)-1 }

// Undo steps the surface back one snapshot.
func (c *Canvas) Undo() bool {
	if !c.CanUndo() {
		return false
	}
	c.cursor--
	c.loadSnapshot(c.history[c.cursor])
	return true
}

// Redo steps the surface forward one snapshot.
func (c *Canvas) Redo() bool {
	if !c.CanRedo() {
		return false
	}
	c.cursor++
	c.loadSnapshot(c.history[c.cursor])
	return true
}

// record appends a snapshot of the current object state. Any snapshots
// ahead of the cursor are discarded: a new edit after undo invalidates the
// redo tail.
func (c *Canvas) record() {
	c.history = append(c.history[:c.cursor+1], c.encodeSnapshot())
	c.cursor = len(c.history) - 1
}

func (c *Canvas) encodeSnapshot() []byte {
	raw, err := json.Marshal(snapshot{Objects: c.objects})
	if err != nil {
		// objects contain only marshalable fields
		panic(err)
	}
	return raw
}

func (c *Canvas) loadSnapshot(raw []byte) {
	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		panic(err)
	}
	c.objects = snap.Objects
}

// Serialize encodes the full surface state for handing between screens.
func (c *Canvas) Serialize() ([]byte, error) {
	return json.Marshal(state{
		Background: c.background,
		Width:      c.width,
		Height:     c.height,
		Objects:    c.objects,
	})
}

// Load restores a surface from Serialize output. History restarts at the
// loaded state and does not carry over from the previous session.
func Load(raw []byte) (*Canvas, error) {
	var st state
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode canvas state: %w", err)
	}
	c := New(st.Background, st.Width, st.Height)
	c.objects = st.Objects
	c.history = [][]byte{c.encodeSnapshot()}
	c.cursor = 0
	return c, nil
}
