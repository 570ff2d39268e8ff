package placement

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shashank-Shivakumar/Docfly/internal/editor"
	"github.com/Shashank-Shivakumar/Docfly/internal/form"
)

func newSession(t *testing.T) (*editor.Store, *Mapper) {
	t.Helper()
	n := 0
	store := editor.NewStore(editor.Options{
		NewID: func() string {
			n++
			return fmt.Sprintf("f%d", n)
		},
	})
	_, err := store.LoadPDF("form.pdf", "application/pdf", []byte("%PDF-1.4 test"))
	require.NoError(t, err)
	return store, NewMapper(store, WithClock(func() time.Time { return time.UnixMilli(42) }))
}

func placeText(t *testing.T, store *editor.Store, m *Mapper, clientX, clientY float64) form.Field {
	t.Helper()
	require.NoError(t, store.SetTool(form.KindText))
	f, err := m.Place(clientX, clientY)
	require.NoError(t, err)
	return f
}

func TestViewport_Zoom(t *testing.T) {
	v := NewViewport()
	assert.Equal(t, 1.0, v.Zoom)

	for i := 0; i < 20; i++ {
		v = v.ZoomIn()
	}
	assert.Equal(t, MaxZoom, v.Zoom)

	for i := 0; i < 20; i++ {
		v = v.ZoomOut()
	}
	assert.Equal(t, MinZoom, v.Zoom)

	assert.Equal(t, 1.0, v.ResetZoom().Zoom)
	assert.Equal(t, 1.25, NewViewport().ZoomIn().Zoom)
	assert.Equal(t, DefaultZoom, ClampZoom(0))
}

func TestViewport_ZoomSnapsToStep(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"on a step", 1.5, 1.5},
		{"just above a step", 1.1, 1.0},
		{"rounds up past the midpoint", 1.2, 1.25},
		{"midpoint rounds away from zero", 1.125, 1.25},
		{"below the minimum", 0.3, MinZoom},
		{"snaps then clamps high", 3.2, MaxZoom},
		{"negative", -1, DefaultZoom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampZoom(tt.in))
			assert.Equal(t, tt.want, NewViewport().WithZoom(tt.in).Zoom)

			_, m := newSession(t)
			assert.Equal(t, tt.want, m.SetZoom(tt.in))
			assert.Equal(t, tt.want, m.Viewport().Zoom)
		})
	}
}

func TestViewport_RoundTrip(t *testing.T) {
	v := Viewport{Zoom: 2, Left: 20, Top: 30}
	x, y := v.ToDocument(220, 130)
	assert.Equal(t, 100.0, x)
	assert.Equal(t, 50.0, y)

	cx, cy := v.ToClient(x, y)
	assert.Equal(t, 220.0, cx)
	assert.Equal(t, 130.0, cy)
}

func TestMapper_PlaceTextField(t *testing.T) {
	store, m := newSession(t)
	m.SetContainer(20, 20)

	f := placeText(t, store, m, 140, 140)

	assert.Equal(t, 120.0, f.X)
	assert.Equal(t, 120.0, f.Y)
	assert.Equal(t, 120.0, f.Width)
	assert.Equal(t, 32.0, f.Height)
	assert.Equal(t, 1, f.PageNumber)
	assert.Equal(t, "text_42", f.Properties.Name)
	assert.Equal(t, form.Kind(""), store.Tool())

	_, err := m.Place(140, 140)
	assert.ErrorIs(t, err, ErrNoTool)
}

func TestMapper_PlaceHonoursZoomAndPage(t *testing.T) {
	store, m := newSession(t)
	require.NoError(t, store.UpdateTotalPages(3))
	store.SetCurrentPage(2)
	m.SetContainer(10, 10)
	m.SetZoom(2)

	require.NoError(t, store.SetTool(form.KindSignature))
	f, err := m.Place(110, 210)
	require.NoError(t, err)

	assert.Equal(t, 50.0, f.X)
	assert.Equal(t, 100.0, f.Y)
	assert.Equal(t, 150.0, f.Width)
	assert.Equal(t, 2, f.PageNumber)
}

func TestMapper_DragCommitsOnce(t *testing.T) {
	store, m := newSession(t)
	f := placeText(t, store, m, 100, 100)
	lenBefore, _ := store.History()

	g, err := m.BeginDrag(f.ID, 110, 105)
	require.NoError(t, err)
	id, dragging := m.Dragging()
	assert.True(t, dragging)
	assert.Equal(t, f.ID, id)

	require.NoError(t, g.Move(130, 115))
	require.NoError(t, g.Move(160, 125))
	got, _ := store.Field(f.ID)
	assert.Equal(t, 150.0, got.X)
	assert.Equal(t, 120.0, got.Y)

	assert.True(t, g.End())
	assert.False(t, g.End())
	_, dragging = m.Dragging()
	assert.False(t, dragging)

	lenAfter, _ := store.History()
	assert.Equal(t, lenBefore+1, lenAfter)
	selected, ok := store.Selected()
	require.True(t, ok)
	assert.Equal(t, f.ID, selected.ID)
}

func TestMapper_DragClampsAtOrigin(t *testing.T) {
	store, m := newSession(t)
	f := placeText(t, store, m, 10, 10)

	g, err := m.BeginDrag(f.ID, 10, 10)
	require.NoError(t, err)
	defer g.End()

	require.NoError(t, g.Move(-500, -500))
	got, _ := store.Field(f.ID)
	assert.Equal(t, 0.0, got.X)
	assert.Equal(t, 0.0, got.Y)
}

func TestMapper_DragAtZoom(t *testing.T) {
	store, m := newSession(t)
	f := placeText(t, store, m, 100, 100)
	m.SetZoom(2)

	g, err := m.BeginDrag(f.ID, 200, 200)
	require.NoError(t, err)
	require.NoError(t, g.Move(240, 220))
	g.End()

	got, _ := store.Field(f.ID)
	assert.Equal(t, 120.0, got.X)
	assert.Equal(t, 110.0, got.Y)
}

func TestMapper_ResizeCorners(t *testing.T) {
	tests := []struct {
		corner             Corner
		dx, dy             float64
		wantX, wantY       float64
		wantWidth, wantHgt float64
	}{
		{CornerSE, 30, 10, 100, 100, 150, 42},
		{CornerNW, 30, 10, 130, 110, 90, 22},
		{CornerNE, 30, 10, 100, 110, 150, 22},
		{CornerSW, 30, 10, 130, 100, 90, 42},
		{CornerSE, -500, -500, 100, 100, 20, 20},
		{CornerNW, 200, 200, 200, 112, 20, 20},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %+.0f,%+.0f", tt.corner, tt.dx, tt.dy), func(t *testing.T) {
			store, m := newSession(t)
			f := placeText(t, store, m, 100, 100)

			g, err := m.BeginResize(f.ID, tt.corner, 300, 300)
			require.NoError(t, err)
			require.NoError(t, g.Move(300+tt.dx, 300+tt.dy))
			g.End()

			got, _ := store.Field(f.ID)
			assert.Equal(t, tt.wantX, got.X)
			assert.Equal(t, tt.wantY, got.Y)
			assert.Equal(t, tt.wantWidth, got.Width)
			assert.Equal(t, tt.wantHgt, got.Height)
		})
	}
}

func TestMapper_ResizeSEKeepsOrigin(t *testing.T) {
	store, m := newSession(t)
	m.SetContainer(20, 20)
	f := placeText(t, store, m, 140, 140)

	g, err := m.BeginResize(f.ID, CornerSE, 260, 172)
	require.NoError(t, err)
	require.NoError(t, g.Move(290, 182))
	g.End()

	got, _ := store.Field(f.ID)
	assert.Equal(t, 120.0, got.X)
	assert.Equal(t, 120.0, got.Y)
	assert.Equal(t, 150.0, got.Width)
	assert.Equal(t, 42.0, got.Height)
}

func TestMapper_OneGestureAtATime(t *testing.T) {
	store, m := newSession(t)
	a := placeText(t, store, m, 10, 10)
	b := placeText(t, store, m, 200, 200)

	g, err := m.BeginDrag(a.ID, 10, 10)
	require.NoError(t, err)

	_, err = m.BeginResize(b.ID, CornerSE, 0, 0)
	assert.ErrorIs(t, err, ErrGestureActive)

	require.NoError(t, store.SetTool(form.KindDate))
	_, err = m.Place(50, 50)
	assert.ErrorIs(t, err, ErrGestureActive)

	g.End()
	assert.Error(t, g.Move(1, 1))

	g2, err := m.BeginResize(b.ID, CornerSE, 0, 0)
	require.NoError(t, err)
	g2.End()
}

func TestMapper_BeginUnknownField(t *testing.T) {
	_, m := newSession(t)
	_, err := m.BeginDrag("nope", 0, 0)
	assert.True(t, errors.Is(err, ErrFieldNotFound))

	_, err = m.BeginResize("nope", Corner("up"), 0, 0)
	assert.Error(t, err)
}

func TestParseCorner(t *testing.T) {
	c, err := ParseCorner("SE")
	require.NoError(t, err)
	assert.Equal(t, CornerSE, c)

	_, err = ParseCorner("north")
	assert.Error(t, err)
}

type fixedMeasurer struct{ perRune float64 }

func (f fixedMeasurer) TextWidth(text string, size float64, bold, italic bool) (float64, error) {
	return float64(len([]rune(text))) * f.perRune, nil
}

func TestMapper_SetValueGrowsTextField(t *testing.T) {
	store, m := newSession(t)
	m.measurer = fixedMeasurer{perRune: 10}
	f := placeText(t, store, m, 0, 0)
	lenBefore, _ := store.History()

	// one 14.4pt line + 8 padding + 2 border + 16 comfort
	got, err := m.SetValue(f.ID, "short")
	require.NoError(t, err)
	assert.Equal(t, 120.0, got.Width)
	assert.InDelta(t, 40.4, got.Height, 0.001)
	assert.Equal(t, "short", got.Properties.Value)

	// 200 text + 16 padding + 2 border + 16 comfort
	got, err = m.SetValue(f.ID, strings.Repeat("x", 20))
	require.NoError(t, err)
	assert.Equal(t, 234.0, got.Width)
	assert.InDelta(t, 40.4, got.Height, 0.001)

	got, err = m.SetValue(f.ID, "x")
	require.NoError(t, err)
	assert.Equal(t, 234.0, got.Width)

	lenAfter, _ := store.History()
	assert.Equal(t, lenBefore+3, lenAfter)
}

func TestMapper_SetValueGrowsParagraphHeight(t *testing.T) {
	store, m := newSession(t)
	m.measurer = fixedMeasurer{perRune: 5}
	require.NoError(t, store.SetTool(form.KindParagraph))
	f, err := m.Place(0, 0)
	require.NoError(t, err)

	got, err := m.SetValue(f.ID, "a\nb\nc\nd\ne\nf")
	require.NoError(t, err)
	// 6 lines * 14.4 + 8 padding + 2 border + 16 comfort
	assert.InDelta(t, 112.4, got.Height, 0.001)
	assert.Equal(t, 120.0, got.Width)
}

func TestMapper_SetValueLeavesOtherKindsAlone(t *testing.T) {
	store, m := newSession(t)
	m.measurer = fixedMeasurer{perRune: 50}
	require.NoError(t, store.SetTool(form.KindDate))
	f, err := m.Place(0, 0)
	require.NoError(t, err)

	got, err := m.SetValue(f.ID, "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, f.Width, got.Width)
	assert.Equal(t, "2024-01-01", got.Properties.Value)

	_, err = m.SetValue("missing", "x")
	assert.ErrorIs(t, err, ErrFieldNotFound)
}

func TestFontMeasurer(t *testing.T) {
	fm := NewFontMeasurer()

	short, err := fm.TextWidth("iii", 12, false, false)
	require.NoError(t, err)
	long, err := fm.TextWidth("WWWWWW", 12, false, false)
	require.NoError(t, err)
	assert.Greater(t, long, short)

	bigger, err := fm.TextWidth("WWWWWW", 24, true, true)
	require.NoError(t, err)
	assert.Greater(t, bigger, long)

	empty, err := fm.TextWidth("", 12, false, false)
	require.NoError(t, err)
	assert.Equal(t, 0.0, empty)
}
