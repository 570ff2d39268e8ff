package export

import (
	"fmt"
	"math"

	derrors "github.com/Shashank-Shivakumar/Docfly/internal/errors"
	"github.com/Shashank-Shivakumar/Docfly/internal/form"
	"github.com/Shashank-Shivakumar/Docfly/internal/logger"
)

// Checkbox group geometry
const (
	CheckboxSize    = 12.0
	CheckboxSpacing = 30.0
	labelOffset     = 5.0
	labelHeight     = 10.0
	labelFontSize   = 7.0
)

// WidgetKind is the interactive type a field is written as
type WidgetKind string

const (
	WidgetText     WidgetKind = "text"
	WidgetCheckbox WidgetKind = "checkbox"
	WidgetRadio    WidgetKind = "radio"
	WidgetCombo    WidgetKind = "combo"
)

// Rect is a box in PDF user space (lower-left origin)
type Rect struct {
	X, Y, Width, Height float64
}

// Array returns the corners as [llx lly urx ury]
func (r Rect) Array() [4]float64 {
	return [4]float64{r.X, r.Y, r.X + r.Width, r.Y + r.Height}
}

// Style is the appearance of a widget
type Style struct {
	Font        string
	FontSize    float64
	Background  *RGB
	Border      RGB
	BorderWidth float64
}

// Widget is one interactive element, independent of the PDF library
type Widget struct {
	Kind      WidgetKind
	Name      string
	Page      int
	Rect      Rect
	Style     Style
	Value     string
	Checked   bool
	Multiline bool
	Comb      bool
	MaxLen    int
	ReadOnly  bool
	Required  bool
	Options   []string
	Buttons   []Rect
}

// Group holds the widgets produced by one field
type Group struct {
	FieldID   string
	FieldName string
	Page      int
	Widgets   []Widget
}

// Layout is the full set of widgets to stamp onto a document
type Layout struct {
	Groups  []Group
	Skipped *derrors.ErrorCollection
}

// Widgets returns every widget in field order
func (l *Layout) Widgets() []Widget {
	var out []Widget
	for _, g := range l.Groups {
		out = append(out, g.Widgets...)
	}
	return out
}

// Only returns a layout holding just the group at index i
func (l *Layout) Only(i int) *Layout {
	return &Layout{Groups: []Group{l.Groups[i]}, Skipped: derrors.NewErrorCollection()}
}

// BuildLayout maps the fields of doc onto widgets at PDF coordinates.
// pageHeights[i] is the height of page i+1. Fields that cannot be exported
// are logged and recorded in Skipped; the rest are kept.
func BuildLayout(doc *form.Document, pageHeights []float64, log *logger.Logger) *Layout {
	log = logger.OrDiscard(log)
	layout := &Layout{Skipped: derrors.NewErrorCollection()}

	for _, f := range doc.Fields {
		group, err := buildGroup(f, pageHeights)
		if err != nil {
			log.Warn("Failed to add field %s: %v", f.Properties.Name, err)
			layout.Skipped.Add(derrors.NewExportError("layout", err).WithField(f.ID))
			continue
		}
		if len(group.Widgets) == 0 {
			log.Info("Field %s has no options, skipping", f.Properties.Name)
			continue
		}
		layout.Groups = append(layout.Groups, group)
	}
	return layout
}

func buildGroup(f form.Field, pageHeights []float64) (Group, error) {
	group := Group{FieldID: f.ID, FieldName: f.Properties.Name, Page: f.PageNumber}

	if f.PageNumber < 1 || f.PageNumber > len(pageHeights) {
		return group, fmt.Errorf("page %d is outside the %d page document", f.PageNumber, len(pageHeights))
	}
	if err := f.Validate(); err != nil {
		return group, err
	}
	style, err := widgetStyle(f.Properties.Appearance)
	if err != nil {
		return group, err
	}

	pdfY := pageHeights[f.PageNumber-1] - f.Y - f.Height
	base := Widget{
		Name:     f.Properties.Name,
		Page:     f.PageNumber,
		Rect:     Rect{X: f.X, Y: pdfY, Width: f.Width, Height: f.Height},
		Style:    style,
		Required: f.Properties.Required,
	}

	switch v := f.Variant.(type) {
	case form.TextVariant:
		w := base
		w.Kind = WidgetText
		w.Value = f.InitialValue()
		if v.Combed && v.CombLength > 0 {
			w.Comb = true
			w.MaxLen = v.CombLength
		}
		group.Widgets = append(group.Widgets, w)

	case form.ParagraphVariant:
		w := base
		w.Kind = WidgetText
		w.Value = f.InitialValue()
		w.Multiline = true
		group.Widgets = append(group.Widgets, w)

	case form.DateVariant, form.SignatureVariant, form.InitialsVariant:
		w := base
		w.Kind = WidgetText
		w.Value = f.InitialValue()
		group.Widgets = append(group.Widgets, w)

	case form.CheckboxVariant:
		group.Widgets = append(group.Widgets, checkboxWidgets(base, v)...)

	case form.DropdownVariant:
		if len(v.Options) == 0 {
			return group, nil
		}
		w := base
		w.Kind = WidgetCombo
		w.Options = append([]string(nil), v.Options...)
		w.Value = f.Properties.Value
		group.Widgets = append(group.Widgets, w)

	case form.RadioVariant:
		if len(v.Options) == 0 {
			return group, nil
		}
		w := base
		w.Kind = WidgetRadio
		w.Options = append([]string(nil), v.Options...)
		w.Value = f.Properties.Value
		step := f.Width / float64(len(v.Options))
		size := math.Min(step, f.Height)
		for i := range v.Options {
			w.Buttons = append(w.Buttons, Rect{X: f.X + float64(i)*step, Y: pdfY, Width: size, Height: size})
		}
		group.Widgets = append(group.Widgets, w)

	default:
		return group, fmt.Errorf("unsupported field type %q", f.Kind)
	}
	return group, nil
}

func checkboxWidgets(base Widget, v form.CheckboxVariant) []Widget {
	if len(v.Options) == 0 {
		w := base
		w.Kind = WidgetCheckbox
		side := math.Min(base.Rect.Width, base.Rect.Height)
		w.Rect.Width, w.Rect.Height = side, side
		return []Widget{w}
	}

	checked := v.DefaultLabel()
	boxStyle := base.Style
	boxStyle.Background = nil
	boxStyle.BorderWidth = 1

	var out []Widget
	for i, opt := range v.Options {
		x := base.Rect.X + float64(i)*CheckboxSpacing
		box := Widget{
			Kind:    WidgetCheckbox,
			Name:    fmt.Sprintf("%s_%d", base.Name, i),
			Page:    base.Page,
			Rect:    Rect{X: x, Y: base.Rect.Y, Width: CheckboxSize, Height: CheckboxSize},
			Style:   boxStyle,
			Checked: checked != "" && opt.Label == checked,
		}
		label := Widget{
			Kind: WidgetText,
			Name: fmt.Sprintf("%s_%d_label", base.Name, i),
			Page: base.Page,
			Rect: Rect{
				X:      x - labelOffset,
				Y:      base.Rect.Y - CheckboxSize - labelOffset,
				Width:  CheckboxSize + 2*labelOffset,
				Height: labelHeight,
			},
			Style:    Style{Font: base.Style.Font, FontSize: labelFontSize, Border: base.Style.Border},
			Value:    opt.Label,
			ReadOnly: true,
		}
		out = append(out, box, label)
	}
	return out
}

func widgetStyle(a form.Appearance) (Style, error) {
	bg, err := parseBackground(a.BackgroundColor)
	if err != nil {
		return Style{}, fmt.Errorf("background: %w", err)
	}
	borderColor := a.BorderColor
	if borderColor == "" {
		borderColor = form.DefaultBorderColor
	}
	border, err := ParseColor(borderColor)
	if err != nil {
		return Style{}, fmt.Errorf("border: %w", err)
	}
	size := a.FontSize
	if size <= 0 {
		size = form.DefaultFontSize
	}
	return Style{
		Font:        fontName(a.Bold, a.Italic),
		FontSize:    size,
		Background:  bg,
		Border:      border,
		BorderWidth: a.BorderWidth,
	}, nil
}

// fontName picks the standard Helvetica face for the style
func fontName(bold, italic bool) string {
	switch {
	case bold && italic:
		return "Helvetica-BoldOblique"
	case bold:
		return "Helvetica-Bold"
	case italic:
		return "Helvetica-Oblique"
	}
	return "Helvetica"
}
