package placement

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/Shashank-Shivakumar/Docfly/internal/form"
	"github.com/Shashank-Shivakumar/Docfly/internal/logger"
)

// MinFieldSize is the resize floor for both dimensions
const MinFieldSize = 20.0

var (
	ErrNoTool        = errors.New("no field tool selected")
	ErrGestureActive = errors.New("another drag or resize is in progress")
	ErrFieldNotFound = errors.New("field not found")
)

// Editor is the subset of the document store the mapper drives
type Editor interface {
	Tool() form.Kind
	CurrentPage() int
	AddField(f form.Field) (form.Field, error)
	Field(id string) (form.Field, bool)
	Select(id string) error
	UpdateField(id string, u form.FieldUpdate) (bool, error)
	UpdateFieldTransient(id string, u form.FieldUpdate) (bool, error)
	Commit() bool
}

// Mapper turns pointer input in client coordinates into field placement,
// drag and resize edits on an Editor.
type Mapper struct {
	mu       sync.Mutex
	editor   Editor
	view     Viewport
	measurer Measurer
	now      func() time.Time
	log      *logger.Logger
	active   *gesture
}

// Option configures a Mapper
type Option func(*Mapper)

func WithMeasurer(m Measurer) Option {
	return func(mp *Mapper) { mp.measurer = m }
}

func WithClock(now func() time.Time) Option {
	return func(mp *Mapper) { mp.now = now }
}

func WithLogger(l *logger.Logger) Option {
	return func(mp *Mapper) { mp.log = logger.OrDiscard(l) }
}

// NewMapper creates a mapper over editor at 100% zoom
func NewMapper(editor Editor, opts ...Option) *Mapper {
	m := &Mapper{
		editor: editor,
		view:   NewViewport(),
		now:    time.Now,
		log:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.measurer == nil {
		m.measurer = NewFontMeasurer()
	}
	return m
}

// Viewport returns the current viewport
func (m *Mapper) Viewport() Viewport {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view
}

// SetContainer records where the page container sits in client space
func (m *Mapper) SetContainer(left, top float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.view.Left, m.view.Top = left, top
}

// SetZoom sets the zoom factor, clamped, and returns the applied value
func (m *Mapper) SetZoom(z float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.view = m.view.WithZoom(z)
	return m.view.Zoom
}

func (m *Mapper) ZoomIn() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.view = m.view.ZoomIn()
	return m.view.Zoom
}

func (m *Mapper) ZoomOut() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.view = m.view.ZoomOut()
	return m.view.Zoom
}

func (m *Mapper) ResetZoom() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.view = m.view.ResetZoom()
	return m.view.Zoom
}

// Place creates a field of the armed tool at the clicked point on the current
// page. The store clears the tool, so each arming places one field.
func (m *Mapper) Place(clientX, clientY float64) (form.Field, error) {
	m.mu.Lock()
	if m.active != nil {
		m.mu.Unlock()
		return form.Field{}, ErrGestureActive
	}
	view := m.view
	m.mu.Unlock()

	tool := m.editor.Tool()
	if tool == "" {
		return form.Field{}, ErrNoTool
	}
	x, y := view.ToDocument(clientX, clientY)
	f := form.NewField(tool, x, y, m.editor.CurrentPage(), m.now())
	return m.editor.AddField(f)
}

// SetValue stores a typed value. Text and paragraph boxes grow to fit it and
// never shrink; value and growth are one history entry.
func (m *Mapper) SetValue(id, value string) (form.Field, error) {
	f, ok := m.editor.Field(id)
	if !ok {
		return form.Field{}, fmt.Errorf("%w: %s", ErrFieldNotFound, id)
	}

	update := form.SetValue(value)
	if f.Kind == form.KindText || f.Kind == form.KindParagraph {
		a := f.Properties.Appearance
		w, h, err := ContentSize(m.measurer, value, a.FontSize, a.BorderWidth, a.Bold, a.Italic, f.Kind == form.KindParagraph)
		if err != nil {
			m.log.Warn("Auto-grow measurement failed for field %s: %v", id, err)
		} else if w > f.Width || h > f.Height {
			update.Width = form.Ptr(math.Max(f.Width, w))
			update.Height = form.Ptr(math.Max(f.Height, h))
		}
	}

	if _, err := m.editor.UpdateField(id, update); err != nil {
		return form.Field{}, err
	}
	got, _ := m.editor.Field(id)
	return got, nil
}
