package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/Shashank-Shivakumar/Docfly/internal/logger"
	"github.com/Shashank-Shivakumar/Docfly/internal/pdf/acroform"
)

// FormWriter reads page geometry from a PDF and stamps a layout onto it
type FormWriter interface {
	PageHeights(ctx context.Context, src []byte) ([]float64, error)
	Stamp(ctx context.Context, src []byte, layout *Layout, flatten bool) ([]byte, error)
}

// PDFCPUWriter writes layouts with the pdfcpu content and form builder.
// Fillable output gets AcroForm widgets; flattened output draws the same
// layout as static page content.
type PDFCPUWriter struct {
	forms *acroform.Inspector
	log   *logger.Logger
}

var _ FormWriter = (*PDFCPUWriter)(nil)

// NewPDFCPUWriter creates a pdfcpu backed writer
func NewPDFCPUWriter(log *logger.Logger) *PDFCPUWriter {
	log = logger.OrDiscard(log)
	return &PDFCPUWriter{forms: acroform.New(log), log: log}
}

func (w *PDFCPUWriter) configuration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// PageHeights returns the media box height of each page in points
func (w *PDFCPUWriter) PageHeights(ctx context.Context, src []byte) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dims, err := api.PageDims(bytes.NewReader(src), w.configuration())
	if err != nil {
		return nil, fmt.Errorf("failed to read page dimensions: %w", err)
	}
	heights := make([]float64, len(dims))
	for i, d := range dims {
		heights[i] = d.Height
	}
	return heights, nil
}

// Stamp adds the layout to src and returns the new PDF
func (w *PDFCPUWriter) Stamp(ctx context.Context, src []byte, layout *Layout, flatten bool) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(layout.Groups) == 0 {
		return append([]byte(nil), src...), nil
	}

	cj := buildCreateJSON(layout, flatten)
	raw, err := json.Marshal(cj)
	if err != nil {
		return nil, fmt.Errorf("failed to encode page content: %w", err)
	}
	w.log.Debug("Stamping %d field(s), flatten=%t", len(layout.Groups), flatten)

	var out bytes.Buffer
	if err := api.Create(bytes.NewReader(src), bytes.NewReader(raw), &out, w.configuration()); err != nil {
		return nil, fmt.Errorf("failed to write fields: %w", err)
	}
	if flatten {
		return out.Bytes(), nil
	}

	patches := widgetPatches(layout)
	if len(patches) == 0 {
		return out.Bytes(), nil
	}
	patched, n, err := w.forms.Apply(out.Bytes(), patches)
	if err != nil {
		return nil, fmt.Errorf("failed to place widgets: %w", err)
	}
	w.log.Debug("Patched %d widget(s)", n)
	return patched, nil
}

// widgetPatches moves widgets back onto their layout rectangles. pdfcpu sizes
// single-line text fields and combo boxes from the font and spaces radio
// buttons by their label widths.
func widgetPatches(layout *Layout) []acroform.Patch {
	var patches []acroform.Patch
	for _, wd := range layout.Widgets() {
		switch wd.Kind {
		case WidgetText:
			patches = append(patches, acroform.Patch{
				Name:   wd.Name,
				Comb:   wd.Comb,
				MaxLen: wd.MaxLen,
				Rect:   wd.Rect.Array(),
			})
		case WidgetCombo:
			patches = append(patches, acroform.Patch{Name: wd.Name, Rect: wd.Rect.Array()})
		case WidgetRadio:
			if len(wd.Options) < 2 {
				continue
			}
			p := acroform.Patch{Name: wd.Name}
			for _, b := range wd.Buttons {
				p.Widgets = append(p.Widgets, b.Array())
			}
			patches = append(patches, p)
		}
	}
	return patches
}

// pdfcpu create JSON

type createJSON struct {
	Origin string               `json:"origin"`
	Pages  map[string]*pageJSON `json:"pages"`
}

type pageJSON struct {
	Content *contentJSON `json:"content"`
}

type contentJSON struct {
	TextFields  []textFieldJSON  `json:"textfield,omitempty"`
	CheckBoxes  []checkBoxJSON   `json:"checkbox,omitempty"`
	RadioGroups []radioGroupJSON `json:"radiobuttongroup,omitempty"`
	ComboBoxes  []comboBoxJSON   `json:"combobox,omitempty"`
	Texts       []textJSON       `json:"text,omitempty"`
	Boxes       []boxJSON        `json:"box,omitempty"`
}

type fontJSON struct {
	Name  string `json:"name"`
	Size  int    `json:"size"`
	Color string `json:"col,omitempty"`
}

type borderJSON struct {
	Width int    `json:"width"`
	Color string `json:"col,omitempty"`
}

type textFieldJSON struct {
	ID        string      `json:"id"`
	Value     string      `json:"value,omitempty"`
	Pos       [2]float64  `json:"pos"`
	Width     float64     `json:"width"`
	Height    float64     `json:"height,omitempty"`
	Multiline bool        `json:"multiline,omitempty"`
	MaxLen    int         `json:"maxlen,omitempty"`
	Comb      bool        `json:"comb,omitempty"`
	Locked    bool        `json:"locked,omitempty"`
	Font      fontJSON    `json:"font"`
	Border    *borderJSON `json:"border,omitempty"`
	BgCol     string      `json:"bgCol,omitempty"`
}

type checkBoxJSON struct {
	ID     string     `json:"id"`
	Value  bool       `json:"value"`
	Pos    [2]float64 `json:"pos"`
	Width  float64    `json:"width"`
	Locked bool       `json:"locked,omitempty"`
	BgCol  string     `json:"bgCol,omitempty"`
}

// radioLabelJSON positions the option labels drawn next to each button.
// Width is the minimum space per label; pdfcpu widens it to fit the text.
type radioLabelJSON struct {
	Value string   `json:"value"`
	Width int      `json:"width"`
	Gap   int      `json:"gap,omitempty"`
	Pos   string   `json:"pos"`
	Font  fontJSON `json:"font"`
}

type radioButtonsJSON struct {
	Values []string       `json:"values"`
	Gap    int            `json:"gap,omitempty"`
	Label  radioLabelJSON `json:"label"`
}

type radioGroupJSON struct {
	ID      string           `json:"id"`
	Value   string           `json:"value,omitempty"`
	Pos     [2]float64       `json:"pos"`
	Width   float64          `json:"width"`
	Buttons radioButtonsJSON `json:"buttons"`
	Locked  bool             `json:"locked,omitempty"`
	BgCol   string           `json:"bgCol,omitempty"`
}

type comboBoxJSON struct {
	ID      string      `json:"id"`
	Value   string      `json:"value,omitempty"`
	Pos     [2]float64  `json:"pos"`
	Width   float64     `json:"width"`
	Options []string    `json:"options"`
	Font    fontJSON    `json:"font"`
	Border  *borderJSON `json:"border,omitempty"`
	BgCol   string      `json:"bgCol,omitempty"`
}

type textJSON struct {
	Value string     `json:"value"`
	Pos   [2]float64 `json:"pos"`
	Font  fontJSON   `json:"font"`
}

type boxJSON struct {
	Pos     [2]float64  `json:"pos"`
	Width   float64     `json:"width"`
	Height  float64     `json:"height"`
	FillCol string      `json:"fillCol,omitempty"`
	Border  *borderJSON `json:"border,omitempty"`
}

func buildCreateJSON(layout *Layout, flatten bool) *createJSON {
	cj := &createJSON{Origin: "LowerLeft", Pages: make(map[string]*pageJSON)}
	page := func(n int) *contentJSON {
		key := strconv.Itoa(n)
		p, ok := cj.Pages[key]
		if !ok {
			p = &pageJSON{Content: &contentJSON{}}
			cj.Pages[key] = p
		}
		return p.Content
	}

	for _, wd := range layout.Widgets() {
		c := page(wd.Page)
		if flatten {
			c.addStatic(wd)
		} else {
			c.addInteractive(wd)
		}
	}
	return cj
}

// radioLabelGap separates a radio button from its label
const radioLabelGap = 3

// points rounds a size to the whole points pdfcpu accepts, never below 1
func points(f float64) int {
	return max(1, int(math.Round(f)))
}

func border(s Style) *borderJSON {
	if s.BorderWidth <= 0 {
		return nil
	}
	return &borderJSON{Width: points(s.BorderWidth), Color: s.Border.Hex()}
}

func background(s Style) string {
	if s.Background == nil {
		return ""
	}
	return s.Background.Hex()
}

func font(s Style) fontJSON {
	return fontJSON{Name: s.Font, Size: points(s.FontSize), Color: Black.Hex()}
}

// choice returns v when it is one of options
func choice(v string, options []string) string {
	if slices.Contains(options, v) {
		return v
	}
	return ""
}

// truncate cuts s to at most n bytes without splitting a rune
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func pos(r Rect) [2]float64 {
	return [2]float64{r.X, r.Y}
}

func (c *contentJSON) addInteractive(wd Widget) {
	switch wd.Kind {
	case WidgetText:
		c.TextFields = append(c.TextFields, textFieldJSON{
			ID:        wd.Name,
			Value:     truncate(wd.Value, wd.MaxLen),
			Pos:       pos(wd.Rect),
			Width:     wd.Rect.Width,
			Height:    wd.Rect.Height,
			Multiline: wd.Multiline,
			MaxLen:    wd.MaxLen,
			Comb:      wd.Comb,
			Locked:    wd.ReadOnly,
			Font:      font(wd.Style),
			Border:    border(wd.Style),
			BgCol:     background(wd.Style),
		})
	case WidgetCheckbox:
		c.CheckBoxes = append(c.CheckBoxes, checkBoxJSON{
			ID:     wd.Name,
			Value:  wd.Checked,
			Pos:    pos(wd.Rect),
			Width:  wd.Rect.Width,
			Locked: wd.ReadOnly,
			BgCol:  background(wd.Style),
		})
	case WidgetRadio:
		first := wd.Buttons[0]
		if len(wd.Options) < 2 {
			// pdfcpu groups need two buttons; one option is a checkbox
			c.CheckBoxes = append(c.CheckBoxes, checkBoxJSON{
				ID:     wd.Name,
				Value:  wd.Value != "" && wd.Value == wd.Options[0],
				Pos:    pos(first),
				Width:  first.Width,
				Locked: wd.ReadOnly,
				BgCol:  background(wd.Style),
			})
			return
		}
		labelWidth := 1
		if len(wd.Buttons) > 1 {
			labelWidth = points(wd.Buttons[1].X - first.X - first.Width)
		}
		c.RadioGroups = append(c.RadioGroups, radioGroupJSON{
			ID:    wd.Name,
			Value: choice(wd.Value, wd.Options),
			Pos:   pos(first),
			Width: first.Width,
			Buttons: radioButtonsJSON{
				Values: wd.Options,
				Gap:    radioLabelGap,
				Label: radioLabelJSON{
					Value: wd.Name,
					Width: labelWidth,
					Gap:   radioLabelGap,
					Pos:   "right",
					Font:  fontJSON{Name: "Helvetica", Size: points(labelFontSize), Color: Black.Hex()},
				},
			},
			Locked: wd.ReadOnly,
			BgCol:  background(wd.Style),
		})
	case WidgetCombo:
		c.ComboBoxes = append(c.ComboBoxes, comboBoxJSON{
			ID:      wd.Name,
			Value:   choice(wd.Value, wd.Options),
			Pos:     pos(wd.Rect),
			Width:   wd.Rect.Width,
			Options: wd.Options,
			Font:    font(wd.Style),
			Border:  border(wd.Style),
			BgCol:   background(wd.Style),
		})
	}
}

// addStatic draws the widget as boxes and text with no form fields
func (c *contentJSON) addStatic(wd Widget) {
	rects := []Rect{wd.Rect}
	if wd.Kind == WidgetRadio {
		rects = wd.Buttons
	}
	if !wd.ReadOnly {
		for _, r := range rects {
			c.Boxes = append(c.Boxes, boxJSON{
				Pos:     pos(r),
				Width:   r.Width,
				Height:  r.Height,
				FillCol: background(wd.Style),
				Border:  border(wd.Style),
			})
		}
	}

	mark := func(r Rect) {
		size := points(r.Height * 0.8)
		c.Texts = append(c.Texts, textJSON{
			Value: "X",
			Pos:   [2]float64{r.X + (r.Width-float64(size)*0.6)/2, r.Y + r.Height*0.15},
			Font:  fontJSON{Name: "Helvetica", Size: size, Color: Black.Hex()},
		})
	}

	switch wd.Kind {
	case WidgetCheckbox:
		if wd.Checked {
			mark(wd.Rect)
		}
	case WidgetRadio:
		for i, opt := range wd.Options {
			if opt == wd.Value && i < len(wd.Buttons) {
				mark(wd.Buttons[i])
			}
		}
	case WidgetText, WidgetCombo:
		if wd.Value == "" {
			return
		}
		c.Texts = append(c.Texts, textJSON{
			Value: wd.Value,
			Pos:   [2]float64{wd.Rect.X + 2, wd.Rect.Y + (wd.Rect.Height-float64(points(wd.Style.FontSize)))/2},
			Font:  font(wd.Style),
		})
	}
}
