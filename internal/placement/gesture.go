package placement

import (
	"fmt"
	"math"
	"strings"

	"github.com/Shashank-Shivakumar/Docfly/internal/form"
)

// Corner names a resize handle
type Corner string

const (
	CornerNW Corner = "nw"
	CornerNE Corner = "ne"
	CornerSW Corner = "sw"
	CornerSE Corner = "se"
)

// ParseCorner validates a resize handle name
func ParseCorner(s string) (Corner, error) {
	c := Corner(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case CornerNW, CornerNE, CornerSW, CornerSE:
		return c, nil
	}
	return "", fmt.Errorf("unknown resize handle %q (want nw, ne, sw or se)", s)
}

type gestureKind int

const (
	gestureDrag gestureKind = iota
	gestureResize
)

type gesture struct {
	kind    gestureKind
	fieldID string
	corner  Corner
	zoom    float64

	// drag: pointer offset from the field origin, in client pixels
	anchorX, anchorY float64

	// resize: pointer and box at gesture start
	startX, startY float64
	start          form.Field
}

// Gesture is an in-progress drag or resize. Moves are applied without
// history; End records one history entry and releases the mapper. End is
// idempotent, so callers can defer it.
type Gesture struct {
	m     *Mapper
	g     *gesture
	ended bool
}

// BeginDrag starts moving the field with id from the pointer position
func (m *Mapper) BeginDrag(id string, clientX, clientY float64) (*Gesture, error) {
	return m.begin(id, func(f form.Field, zoom float64) *gesture {
		return &gesture{
			kind:    gestureDrag,
			fieldID: id,
			zoom:    zoom,
			anchorX: clientX - f.X*zoom,
			anchorY: clientY - f.Y*zoom,
		}
	})
}

// BeginResize starts resizing the field with id from the given corner handle
func (m *Mapper) BeginResize(id string, corner Corner, clientX, clientY float64) (*Gesture, error) {
	if _, err := ParseCorner(string(corner)); err != nil {
		return nil, err
	}
	return m.begin(id, func(f form.Field, zoom float64) *gesture {
		return &gesture{
			kind:    gestureResize,
			fieldID: id,
			corner:  corner,
			zoom:    zoom,
			startX:  clientX,
			startY:  clientY,
			start:   f,
		}
	})
}

func (m *Mapper) begin(id string, build func(form.Field, float64) *gesture) (*Gesture, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil {
		return nil, ErrGestureActive
	}

	f, ok := m.editor.Field(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFieldNotFound, id)
	}
	if err := m.editor.Select(id); err != nil {
		return nil, err
	}
	g := build(f, ClampZoom(m.view.Zoom))
	m.active = g
	return &Gesture{m: m, g: g}, nil
}

// Dragging reports the id of the field under an active gesture, if any
func (m *Mapper) Dragging() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return "", false
	}
	return m.active.fieldID, true
}

// FieldID returns the id of the field being manipulated
func (g *Gesture) FieldID() string {
	return g.g.fieldID
}

// Move applies the pointer position to the field
func (g *Gesture) Move(clientX, clientY float64) error {
	if g.ended {
		return fmt.Errorf("gesture on field %s already ended", g.g.fieldID)
	}
	var update form.FieldUpdate
	switch g.g.kind {
	case gestureDrag:
		update = g.g.dragTo(clientX, clientY)
	case gestureResize:
		update = g.g.resizeTo(clientX, clientY)
	}
	_, err := g.m.editor.UpdateFieldTransient(g.g.fieldID, update)
	return err
}

// End finishes the gesture, committing one history entry if anything moved.
// It reports whether an entry was recorded.
func (g *Gesture) End() bool {
	if g.ended {
		return false
	}
	g.ended = true

	g.m.mu.Lock()
	if g.m.active == g.g {
		g.m.active = nil
	}
	g.m.mu.Unlock()

	return g.m.editor.Commit()
}

func (g *gesture) dragTo(clientX, clientY float64) form.FieldUpdate {
	x := math.Max(0, (clientX-g.anchorX)/g.zoom)
	y := math.Max(0, (clientY-g.anchorY)/g.zoom)
	return form.Move(x, y)
}

func (g *gesture) resizeTo(clientX, clientY float64) form.FieldUpdate {
	dx := (clientX - g.startX) / g.zoom
	dy := (clientY - g.startY) / g.zoom
	s := g.start

	width, height := s.Width, s.Height
	x, y := s.X, s.Y

	switch g.corner {
	case CornerNW:
		width = math.Max(MinFieldSize, s.Width-dx)
		height = math.Max(MinFieldSize, s.Height-dy)
		x = s.X + (s.Width - width)
		y = s.Y + (s.Height - height)
	case CornerNE:
		width = math.Max(MinFieldSize, s.Width+dx)
		height = math.Max(MinFieldSize, s.Height-dy)
		y = s.Y + (s.Height - height)
	case CornerSW:
		width = math.Max(MinFieldSize, s.Width-dx)
		height = math.Max(MinFieldSize, s.Height+dy)
		x = s.X + (s.Width - width)
	case CornerSE:
		width = math.Max(MinFieldSize, s.Width+dx)
		height = math.Max(MinFieldSize, s.Height+dy)
	}

	return form.Bounds(math.Max(0, x), math.Max(0, y), width, height)
}
