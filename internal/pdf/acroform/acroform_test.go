package acroform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shashank-Shivakumar/Docfly/internal/pdf/pdftest"
)

// radioField is a radio group without /Opt whose options are the on states
// of its kid widgets
const radioField = "/FT /Btn\n/T (cup)\n/Ff 49152\n/V /Large#20Cup\n/Kids [" +
	"<< /Type /Annot /Subtype /Widget /Rect [10 480 22 492] /AS /Off /AP << /N << /Off 0 /Small 0 >> >> >> " +
	"<< /Type /Annot /Subtype /Widget /Rect [40 480 52 492] /AS /Large#20Cup /AP << /N << /Off 0 /Large#20Cup 0 >> >> >>]"

func formPDF() []byte {
	return pdftest.Build(pdftest.Options{
		Pages: 2,
		Fields: []string{
			"/FT /Tx\n/T (full_name)\n/V (Ada)\n/Ff 2\n/Rect [10 700 130 732]",
			"/FT /Tx\n/T (notes)\n/Ff 4096\n/Rect [10 600 130 680]",
			"/FT /Btn\n/T (agree)\n/V /Yes\n/Rect [10 560 22 572]",
			"/FT /Ch\n/T (color)\n/Ff 131072\n/Opt [(Red) (Blue)]\n/Rect [10 520 130 540]",
		},
	})
}

func radioPDF() []byte {
	return pdftest.Build(pdftest.Options{Fields: []string{radioField}})
}

func TestInspect_ReadsFields(t *testing.T) {
	fields, err := New(nil).InspectBytes(formPDF())
	require.NoError(t, err)
	require.Len(t, fields, 4)

	byName := make(map[string]Field)
	for _, f := range fields {
		byName[f.Name] = f
	}

	name := byName["full_name"]
	assert.Equal(t, TypeText, name.Type)
	assert.Equal(t, "Ada", name.Value)
	assert.True(t, name.Required)
	assert.Equal(t, [4]float64{10, 700, 130, 732}, name.Rect)

	assert.True(t, byName["notes"].Multiline)
	assert.Equal(t, TypeCheckbox, byName["agree"].Type)
	assert.Equal(t, "Yes", byName["agree"].Value)

	color := byName["color"]
	assert.Equal(t, TypeChoice, color.Type)
	assert.Equal(t, []string{"Red", "Blue"}, color.Options)

	// sorted by name
	assert.Equal(t, "agree", fields[0].Name)
}

func TestInspect_NoForm(t *testing.T) {
	fields, err := New(nil).InspectBytes(pdftest.Document(1))
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestInspect_Garbage(t *testing.T) {
	_, err := New(nil).InspectBytes([]byte("not a pdf"))
	assert.Error(t, err)
}

func TestApply_SetsCombAndMaxLen(t *testing.T) {
	in := New(nil)
	out, n, err := in.Apply(formPDF(), []Patch{
		{Name: "notes", Comb: true, MaxLen: 8},
		{Name: "missing", Comb: true, MaxLen: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	fields, err := in.InspectBytes(out)
	require.NoError(t, err)
	for _, f := range fields {
		if f.Name != "notes" {
			continue
		}
		assert.True(t, f.Comb)
		assert.False(t, f.Multiline)
		assert.Equal(t, 8, f.MaxLen)
		return
	}
	t.Fatal("patched field not found")
}

func TestApply_NoPatchesReturnsInput(t *testing.T) {
	src := formPDF()
	out, n, err := New(nil).Apply(src, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, src, out)
}

func TestInspect_RadioOptionsFromAppearances(t *testing.T) {
	fields, err := New(nil).InspectBytes(radioPDF())
	require.NoError(t, err)
	require.Len(t, fields, 1)

	cup := fields[0]
	assert.Equal(t, "cup", cup.Name)
	assert.Equal(t, TypeRadio, cup.Type)
	assert.Equal(t, "Large Cup", cup.Value)
	assert.Equal(t, []string{"Small", "Large Cup"}, cup.Options)
	assert.Equal(t, [4]float64{10, 480, 22, 492}, cup.Rect)
}

func TestApply_MovesWidgets(t *testing.T) {
	tests := []struct {
		name     string
		src      []byte
		patch    Patch
		wantRect [4]float64
	}{
		{
			name:     "single-line text grows to its layout height",
			src:      formPDF(),
			patch:    Patch{Name: "full_name", Rect: [4]float64{10, 660, 130, 692}},
			wantRect: [4]float64{10, 660, 130, 692},
		},
		{
			name:     "choice keeps flags while moving",
			src:      formPDF(),
			patch:    Patch{Name: "color", Rect: [4]float64{200, 520, 320, 552}},
			wantRect: [4]float64{200, 520, 320, 552},
		},
		{
			name: "radio kids move in order",
			src:  radioPDF(),
			patch: Patch{Name: "cup", Widgets: [][4]float64{
				{100, 300, 120, 320},
				{150, 300, 170, 320},
			}},
			wantRect: [4]float64{100, 300, 120, 320},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := New(nil)
			before, err := in.InspectBytes(tt.src)
			require.NoError(t, err)

			out, n, err := in.Apply(tt.src, []Patch{tt.patch})
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			after, err := in.InspectBytes(out)
			require.NoError(t, err)
			require.Len(t, after, len(before))
			for i, f := range after {
				if f.Name != tt.patch.Name {
					assert.Equal(t, before[i], f)
					continue
				}
				assert.Equal(t, tt.wantRect, f.Rect)
				assert.Equal(t, before[i].Flags, f.Flags)
				assert.Equal(t, before[i].Options, f.Options)
			}
		})
	}
}
