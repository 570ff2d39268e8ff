// Package acroform walks the interactive form of a PDF with pdfcpu. It reads
// back the fields of an exported document and patches field flags that the
// pdfcpu form builder does not expose.
package acroform

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/Shashank-Shivakumar/Docfly/internal/logger"
)

// Field flag bits (PDF 32000-1, 12.7.3.1 and 12.7.4)
const (
	FlagReadOnly  = 1 << 0
	FlagRequired  = 1 << 1
	FlagMultiline = 1 << 12
	FlagRadio     = 1 << 15
	FlagPushbtn   = 1 << 16
	FlagCombo     = 1 << 17
	FlagComb      = 1 << 24
)

// FieldType is the interactive type of a form field
type FieldType string

const (
	TypeText      FieldType = "text"
	TypeCheckbox  FieldType = "checkbox"
	TypeRadio     FieldType = "radio"
	TypeChoice    FieldType = "choice"
	TypeButton    FieldType = "button"
	TypeSignature FieldType = "signature"
	TypeUnknown   FieldType = "unknown"
)

// Field is one terminal field read back from a PDF
type Field struct {
	Name      string     `json:"name"`
	Type      FieldType  `json:"type"`
	Value     string     `json:"value,omitempty"`
	Flags     int        `json:"flags"`
	ReadOnly  bool       `json:"read_only"`
	Required  bool       `json:"required"`
	Multiline bool       `json:"multiline"`
	Comb      bool       `json:"comb"`
	MaxLen    int        `json:"max_len,omitempty"`
	Options   []string   `json:"options,omitempty"`
	Rect      [4]float64 `json:"rect"`
}

// Patch rewrites the field with the given fully-qualified name. Zero values
// leave the corresponding entry alone.
type Patch struct {
	Name   string
	Comb   bool
	MaxLen int
	// Rect replaces the widget rectangle of a field with a merged widget
	Rect [4]float64
	// Widgets replaces the rectangles of the field's kid widgets in order
	Widgets [][4]float64
}

// Inspector reads and rewrites AcroForm dictionaries
type Inspector struct {
	log *logger.Logger
}

// New creates an inspector; a nil logger discards output
func New(log *logger.Logger) *Inspector {
	return &Inspector{log: logger.OrDiscard(log)}
}

func configuration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

func readContext(rs io.ReadSeeker) (*model.Context, error) {
	ctx, err := api.ReadContext(rs, configuration())
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}
	return ctx, nil
}

// Inspect lists the terminal fields of the PDF, sorted by name
func (in *Inspector) Inspect(rs io.ReadSeeker) ([]Field, error) {
	ctx, err := readContext(rs)
	if err != nil {
		return nil, err
	}

	var fields []Field
	err = in.walk(ctx, func(name string, dict types.Dict) error {
		fields = append(fields, in.describe(ctx, name, dict))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
	return fields, nil
}

// InspectBytes is Inspect over an in-memory PDF
func (in *Inspector) InspectBytes(data []byte) ([]Field, error) {
	return in.Inspect(bytes.NewReader(data))
}

// Apply sets the comb flag, maximum length and widget rectangles of matching
// fields and returns the rewritten PDF with the number of fields patched.
// Patches naming unknown fields are logged and ignored.
func (in *Inspector) Apply(data []byte, patches []Patch) ([]byte, int, error) {
	if len(patches) == 0 {
		return data, 0, nil
	}
	ctx, err := readContext(bytes.NewReader(data))
	if err != nil {
		return nil, 0, err
	}

	byName := make(map[string]Patch, len(patches))
	for _, p := range patches {
		byName[p.Name] = p
	}

	applied, moved := 0, false
	err = in.walk(ctx, func(name string, dict types.Dict) error {
		p, ok := byName[name]
		if !ok {
			return nil
		}
		delete(byName, name)

		if p.Comb {
			flags := in.flags(ctx, dict)
			dict.Update("Ff", types.Integer((flags|FlagComb)&^FlagMultiline))
		}
		if p.MaxLen > 0 {
			dict.Update("MaxLen", types.Integer(p.MaxLen))
		}
		if p.Rect != ([4]float64{}) {
			in.place(ctx, dict, p.Rect)
			moved = true
		}
		if len(p.Widgets) > 0 {
			in.placeKids(ctx, dict, p.Widgets)
			moved = true
		}
		applied++
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	for name := range byName {
		in.log.Warn("No form field named %q to patch", name)
	}

	// Resized appearance streams keep their old content; let viewers redraw
	if moved {
		if acroForm, err := in.acroForm(ctx); err == nil && acroForm != nil {
			acroForm.Update("NeedAppearances", types.Boolean(true))
		}
	}

	var out bytes.Buffer
	if err := api.WriteContext(ctx, &out); err != nil {
		return nil, 0, fmt.Errorf("failed to write patched PDF: %w", err)
	}
	return out.Bytes(), applied, nil
}

// place moves a widget to r and resizes its normal appearance to match
func (in *Inspector) place(ctx *model.Context, widget types.Dict, r [4]float64) {
	widget.Update("Rect", types.NewNumberArray(r[0], r[1], r[2], r[3]))

	apObj, found := widget.Find("AP")
	if !found {
		return
	}
	ap, err := ctx.DereferenceDict(apObj)
	if err != nil || ap == nil {
		return
	}
	nObj, found := ap.Find("N")
	if !found {
		return
	}
	if _, isRef := nObj.(types.IndirectRef); !isRef {
		return
	}
	sd, _, err := ctx.DereferenceStreamDict(nObj)
	if err != nil || sd == nil {
		in.log.Debug("Appearance of widget is not a stream: %v", err)
		return
	}
	sd.Update("BBox", types.NewNumberArray(0, 0, r[2]-r[0], r[3]-r[1]))
}

// placeKids moves the kid widgets of a field, such as the buttons of a radio
// group, to rects in order
func (in *Inspector) placeKids(ctx *model.Context, dict types.Dict, rects [][4]float64) {
	kidsObj, found := dict.Find("Kids")
	if !found {
		return
	}
	kids, err := ctx.DereferenceArray(kidsObj)
	if err != nil {
		return
	}
	for i, kid := range kids {
		if i >= len(rects) {
			break
		}
		widget, err := ctx.DereferenceDict(kid)
		if err != nil || widget == nil {
			continue
		}
		widget.Update("Rect", types.NewNumberArray(rects[i][0], rects[i][1], rects[i][2], rects[i][3]))
	}
}

func (in *Inspector) acroForm(ctx *model.Context) (types.Dict, error) {
	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}

	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		in.log.Debug("No AcroForm dictionary found in document")
		return nil, nil
	}
	acroFormDict, err := ctx.DereferenceDict(acroFormObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference AcroForm: %w", err)
	}
	return acroFormDict, nil
}

// walk visits every terminal field with its fully-qualified name
func (in *Inspector) walk(ctx *model.Context, visit func(string, types.Dict) error) error {
	acroFormDict, err := in.acroForm(ctx)
	if err != nil {
		return err
	}
	if acroFormDict == nil {
		return nil
	}

	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		in.log.Debug("No Fields array found in AcroForm")
		return nil
	}
	fieldsArray, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return fmt.Errorf("failed to dereference Fields array: %w", err)
	}

	for i, obj := range fieldsArray {
		if err := in.walkField(ctx, obj, "", i, visit); err != nil {
			return err
		}
	}
	return nil
}

func (in *Inspector) walkField(ctx *model.Context, obj types.Object, parent string, index int, visit func(string, types.Dict) error) error {
	dict, err := ctx.DereferenceDict(obj)
	if err != nil {
		in.log.Debug("Skipping field %d: %v", index, err)
		return nil
	}
	if dict == nil {
		return nil
	}

	name := parent
	if nameObj, found := dict.Find("T"); found {
		if partial, err := ctx.DereferenceStringOrHexLiteral(nameObj, model.V10, nil); err == nil && partial != "" {
			if parent != "" {
				name = parent + "." + partial
			} else {
				name = partial
			}
		}
	}
	if name == "" {
		name = fmt.Sprintf("field_%d", index)
	}

	// Kids carrying their own T are child fields; otherwise they are widgets
	if kidsObj, found := dict.Find("Kids"); found {
		if kids, err := ctx.DereferenceArray(kidsObj); err == nil && len(kids) > 0 && hasNamedKid(ctx, kids) {
			for i, kid := range kids {
				if err := in.walkField(ctx, kid, name, i, visit); err != nil {
					return err
				}
			}
			return nil
		}
	}
	return visit(name, dict)
}

func hasNamedKid(ctx *model.Context, kids types.Array) bool {
	for _, kid := range kids {
		if d, err := ctx.DereferenceDict(kid); err == nil && d != nil {
			if _, found := d.Find("T"); found {
				return true
			}
		}
	}
	return false
}

func (in *Inspector) flags(ctx *model.Context, dict types.Dict) int {
	if flagsObj, found := dict.Find("Ff"); found {
		if flags, err := ctx.DereferenceInteger(flagsObj); err == nil && flags != nil {
			return int(*flags)
		}
	}
	return 0
}

func (in *Inspector) describe(ctx *model.Context, name string, dict types.Dict) Field {
	flags := in.flags(ctx, dict)
	f := Field{
		Name:      name,
		Type:      in.fieldType(ctx, dict, flags),
		Flags:     flags,
		ReadOnly:  flags&FlagReadOnly != 0,
		Required:  flags&FlagRequired != 0,
		Multiline: flags&FlagMultiline != 0,
		Comb:      flags&FlagComb != 0,
	}

	if valueObj, found := dict.Find("V"); found {
		f.Value = in.value(ctx, valueObj)
	}
	if maxLenObj, found := dict.Find("MaxLen"); found {
		if maxLen, err := ctx.DereferenceInteger(maxLenObj); err == nil && maxLen != nil {
			f.MaxLen = int(*maxLen)
		}
	}
	if f.Type == TypeChoice || f.Type == TypeRadio {
		f.Options = in.options(ctx, dict)
	}
	f.Rect = in.rect(ctx, dict)
	return f
}

func (in *Inspector) fieldType(ctx *model.Context, dict types.Dict, flags int) FieldType {
	ftObj, found := dict.Find("FT")
	if !found {
		if parentObj, found := dict.Find("Parent"); found {
			if parentDict, err := ctx.DereferenceDict(parentObj); err == nil && parentDict != nil {
				return in.fieldType(ctx, parentDict, flags|in.flags(ctx, parentDict))
			}
		}
		return TypeUnknown
	}

	ftName, err := ctx.DereferenceName(ftObj, model.V10, nil)
	if err != nil {
		return TypeUnknown
	}

	switch ftName {
	case "Btn":
		switch {
		case flags&FlagRadio != 0:
			return TypeRadio
		case flags&FlagPushbtn != 0:
			return TypeButton
		}
		return TypeCheckbox
	case "Tx":
		return TypeText
	case "Ch":
		return TypeChoice
	case "Sig":
		return TypeSignature
	}
	return TypeUnknown
}

func (in *Inspector) value(ctx *model.Context, obj types.Object) string {
	if s, err := ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil); err == nil {
		return s
	}
	if n, err := ctx.DereferenceName(obj, model.V10, nil); err == nil {
		return decodeName(string(n))
	}
	return ""
}

func decodeName(s string) string {
	if d, err := types.DecodeName(s); err == nil {
		return d
	}
	return s
}

func (in *Inspector) options(ctx *model.Context, dict types.Dict) []string {
	var options []string

	optObj, found := dict.Find("Opt")
	if !found {
		return in.appearanceStates(ctx, dict)
	}
	optArray, err := ctx.DereferenceArray(optObj)
	if err != nil {
		return options
	}

	for _, opt := range optArray {
		// Options are strings or [export, display] pairs
		if str, err := ctx.DereferenceStringOrHexLiteral(opt, model.V10, nil); err == nil {
			options = append(options, str)
		} else if arr, err := ctx.DereferenceArray(opt); err == nil && len(arr) >= 2 {
			if display, err := ctx.DereferenceStringOrHexLiteral(arr[1], model.V10, nil); err == nil {
				options = append(options, display)
			}
		}
	}
	return options
}

// appearanceStates lists the on states of a button field's kid widgets,
// which name the options of a radio group written without /Opt
func (in *Inspector) appearanceStates(ctx *model.Context, dict types.Dict) []string {
	var states []string
	kidsObj, found := dict.Find("Kids")
	if !found {
		return states
	}
	kids, err := ctx.DereferenceArray(kidsObj)
	if err != nil {
		return states
	}

	for _, kid := range kids {
		widget, err := ctx.DereferenceDict(kid)
		if err != nil || widget == nil {
			continue
		}
		apObj, found := widget.Find("AP")
		if !found {
			continue
		}
		ap, err := ctx.DereferenceDict(apObj)
		if err != nil || ap == nil {
			continue
		}
		nObj, found := ap.Find("N")
		if !found {
			continue
		}
		normal, err := ctx.DereferenceDict(nObj)
		if err != nil || normal == nil {
			continue
		}
		keys := make([]string, 0, len(normal))
		for k := range normal {
			if k != "Off" {
				keys = append(keys, decodeName(k))
			}
		}
		sort.Strings(keys)
		states = append(states, keys...)
	}
	return states
}

func (in *Inspector) rect(ctx *model.Context, dict types.Dict) [4]float64 {
	var r [4]float64
	rectObj, found := dict.Find("Rect")
	if !found {
		// First widget of a field with separate annotations
		kidsObj, ok := dict.Find("Kids")
		if !ok {
			return r
		}
		kids, err := ctx.DereferenceArray(kidsObj)
		if err != nil || len(kids) == 0 {
			return r
		}
		widget, err := ctx.DereferenceDict(kids[0])
		if err != nil || widget == nil {
			return r
		}
		if rectObj, found = widget.Find("Rect"); !found {
			return r
		}
	}

	arr, err := ctx.DereferenceArray(rectObj)
	if err != nil || len(arr) != 4 {
		return r
	}
	for i, c := range arr {
		if f, err := ctx.DereferenceNumber(c); err == nil {
			r[i] = f
		}
	}
	return r
}
