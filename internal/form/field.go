package form

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind identifies the type of an interactive field
type Kind string

const (
	KindText      Kind = "text"
	KindParagraph Kind = "paragraph"
	KindCheckbox  Kind = "checkbox"
	KindRadio     Kind = "radio"
	KindDropdown  Kind = "dropdown"
	KindDate      Kind = "date"
	KindSignature Kind = "signature"
	KindInitials  Kind = "initials"
)

// Kinds returns every supported field kind in toolbar order
func Kinds() []Kind {
	return []Kind{
		KindText, KindParagraph, KindCheckbox, KindRadio,
		KindDropdown, KindDate, KindSignature, KindInitials,
	}
}

// Valid reports whether k is a supported kind
func (k Kind) Valid() bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}

// ParseKind converts a tool name into a Kind
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown field type: %q", s)
	}
	return k, nil
}

// Appearance holds the visual properties shared by every kind
type Appearance struct {
	FontSize        float64 `json:"fontSize"`
	Bold            bool    `json:"bold"`
	Italic          bool    `json:"italic"`
	BackgroundColor string  `json:"backgroundColor"`
	BorderColor     string  `json:"borderColor"`
	BorderWidth     float64 `json:"borderWidth"`
}

// Properties holds the user-editable attributes shared by every kind
type Properties struct {
	Name           string     `json:"name"`
	Placeholder    string     `json:"placeholder,omitempty"`
	Question       string     `json:"question,omitempty"`
	HasDefaultText bool       `json:"hasDefaultText,omitempty"`
	DefaultText    string     `json:"defaultText,omitempty"`
	Required       bool       `json:"required"`
	Value          string     `json:"value,omitempty"`
	Appearance     Appearance `json:"appearance"`
}

// Field is a single interactive widget placed on a page. Coordinates are in
// page space with a top-left origin, measured at 100% zoom.
type Field struct {
	ID           string     `json:"id"`
	Kind         Kind       `json:"type"`
	X            float64    `json:"x"`
	Y            float64    `json:"y"`
	Width        float64    `json:"width"`
	Height       float64    `json:"height"`
	PageNumber   int        `json:"pageNumber"`
	Properties   Properties `json:"properties"`
	Variant      Variant    `json:"-"`
	IsConfigured bool       `json:"isConfigured"`
}

type fieldJSON struct {
	fieldAlias
	Variant json.RawMessage `json:"variant,omitempty"`
}

type fieldAlias Field

// MarshalJSON encodes the field with its variant under "variant"
func (f Field) MarshalJSON() ([]byte, error) {
	out := fieldJSON{fieldAlias: fieldAlias(f)}
	if f.Variant != nil {
		raw, err := json.Marshal(f.Variant)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s variant: %w", f.Kind, err)
		}
		out.Variant = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the variant selected by "type"
func (f *Field) UnmarshalJSON(data []byte) error {
	var in fieldJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	decoded := Field(in.fieldAlias)
	if !decoded.Kind.Valid() {
		return fmt.Errorf("unknown field type: %q", decoded.Kind)
	}

	v := NewVariant(decoded.Kind)
	if len(in.Variant) > 0 && string(in.Variant) != "null" {
		if err := json.Unmarshal(in.Variant, v); err != nil {
			return fmt.Errorf("failed to decode %s variant: %w", decoded.Kind, err)
		}
	}
	decoded.Variant = derefVariant(v)
	*f = decoded
	return nil
}

// Clone returns a deep copy of the field
func (f Field) Clone() Field {
	c := f
	if f.Variant != nil {
		c.Variant = f.Variant.clone()
	}
	return c
}

// Validate checks the structural invariants of a field
func (f Field) Validate() error {
	if !f.Kind.Valid() {
		return fmt.Errorf("unknown field type: %q", f.Kind)
	}
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("field %s has non-positive size %.1fx%.1f", f.ID, f.Width, f.Height)
	}
	if f.PageNumber < 1 {
		return fmt.Errorf("field %s has invalid page number %d", f.ID, f.PageNumber)
	}
	if f.Variant == nil {
		return fmt.Errorf("field %s has no %s data", f.ID, f.Kind)
	}
	if f.Variant.Kind() != f.Kind {
		return fmt.Errorf("field %s is %s but carries %s data", f.ID, f.Kind, f.Variant.Kind())
	}
	return f.Variant.validate()
}

// Checkbox returns the checkbox data when the field is a checkbox
func (f Field) Checkbox() (CheckboxVariant, bool) {
	v, ok := f.Variant.(CheckboxVariant)
	return v, ok
}

// Choices returns the options of a radio or dropdown field
func (f Field) Choices() []string {
	switch v := f.Variant.(type) {
	case RadioVariant:
		return v.Options
	case DropdownVariant:
		return v.Options
	}
	return nil
}

// Text returns the text data when the field is a single-line text field
func (f Field) Text() (TextVariant, bool) {
	v, ok := f.Variant.(TextVariant)
	return v, ok
}

// InitialValue is the value a fresh form shows: the entered value, else the
// default text when enabled.
func (f Field) InitialValue() string {
	if f.Properties.Value != "" {
		return f.Properties.Value
	}
	if f.Properties.HasDefaultText {
		return f.Properties.DefaultText
	}
	return ""
}

// DisplayText is the prompt shown for the field: question, else placeholder,
// else "Enter <type>".
func (f Field) DisplayText() string {
	if f.Properties.Question != "" {
		return f.Properties.Question
	}
	if f.Properties.Placeholder != "" {
		return f.Properties.Placeholder
	}
	return "Enter " + string(f.Kind)
}
