package form

import (
	"encoding/json"
	"fmt"
	"time"
)

// Variant carries the data that only one kind of field has. The concrete
// type always matches the owning field's Kind.
type Variant interface {
	Kind() Kind
	clone() Variant
	validate() error
}

// TextVariant is a single-line text input, optionally split into comb cells
type TextVariant struct {
	Combed     bool `json:"combed,omitempty"`
	CombLength int  `json:"combLength,omitempty"`
}

func (TextVariant) Kind() Kind       { return KindText }
func (v TextVariant) clone() Variant { return v }

func (v TextVariant) validate() error {
	if v.Combed && v.CombLength <= 0 {
		return fmt.Errorf("comb field needs a positive cell count, got %d", v.CombLength)
	}
	return nil
}

// ParagraphVariant is a multi-line text area
type ParagraphVariant struct{}

func (ParagraphVariant) Kind() Kind       { return KindParagraph }
func (v ParagraphVariant) clone() Variant { return v }
func (ParagraphVariant) validate() error  { return nil }

// CheckboxOption is one box of a checkbox group
type CheckboxOption struct {
	Label          string `json:"label"`
	Field          string `json:"field"`
	FieldValue     string `json:"field_value"`
	DefaultChecked bool   `json:"default_checked"`
}

// CheckboxVariant is a group of labelled boxes. With no options it renders as
// a single square box.
type CheckboxVariant struct {
	Options        []CheckboxOption `json:"checkboxOptions"`
	DefaultChecked string           `json:"defaultCheckedOption,omitempty"`
}

func (CheckboxVariant) Kind() Kind { return KindCheckbox }

func (v CheckboxVariant) clone() Variant {
	if v.Options != nil {
		v.Options = append(make([]CheckboxOption, 0, len(v.Options)), v.Options...)
	}
	return v
}

func (v CheckboxVariant) validate() error {
	seen := make(map[string]bool, len(v.Options))
	for _, opt := range v.Options {
		if opt.Label == "" {
			return fmt.Errorf("checkbox option has an empty label")
		}
		if seen[opt.Label] {
			return fmt.Errorf("duplicate checkbox option label %q", opt.Label)
		}
		seen[opt.Label] = true
	}
	if v.DefaultChecked != "" && !seen[v.DefaultChecked] {
		return fmt.Errorf("default checked option %q is not an option", v.DefaultChecked)
	}
	return nil
}

// DefaultLabel resolves the single default-checked option: the explicit
// selection when set, else the first option flagged as checked.
func (v CheckboxVariant) DefaultLabel() string {
	if v.DefaultChecked != "" {
		for _, opt := range v.Options {
			if opt.Label == v.DefaultChecked {
				return opt.Label
			}
		}
	}
	for _, opt := range v.Options {
		if opt.DefaultChecked {
			return opt.Label
		}
	}
	return ""
}

// WithDefault selects label as the default option and syncs each option's flag
func (v CheckboxVariant) WithDefault(label string) CheckboxVariant {
	out := v.clone().(CheckboxVariant)
	out.DefaultChecked = label
	for i := range out.Options {
		out.Options[i].DefaultChecked = out.Options[i].Label == label
	}
	return out
}

// AddOption appends a new option with generated export names
func (v CheckboxVariant) AddOption(now time.Time) CheckboxVariant {
	out := v.clone().(CheckboxVariant)
	n := len(out.Options) + 1
	out.Options = append(out.Options, CheckboxOption{
		Label:      fmt.Sprintf("Option %d", n),
		Field:      fmt.Sprintf("checkbox_%d_%d", now.UnixMilli(), n),
		FieldValue: fmt.Sprintf("Yes_%d", n),
	})
	return out
}

// RadioVariant is a single-choice group
type RadioVariant struct {
	Options []string `json:"options,omitempty"`
}

func (RadioVariant) Kind() Kind { return KindRadio }

func (v RadioVariant) clone() Variant {
	if v.Options != nil {
		v.Options = append([]string(nil), v.Options...)
	}
	return v
}

func (RadioVariant) validate() error { return nil }

// DropdownVariant is a combo box
type DropdownVariant struct {
	Options []string `json:"options,omitempty"`
}

func (DropdownVariant) Kind() Kind { return KindDropdown }

func (v DropdownVariant) clone() Variant {
	if v.Options != nil {
		v.Options = append([]string(nil), v.Options...)
	}
	return v
}

func (DropdownVariant) validate() error { return nil }

// DateVariant is a date input
type DateVariant struct{}

func (DateVariant) Kind() Kind       { return KindDate }
func (v DateVariant) clone() Variant { return v }
func (DateVariant) validate() error  { return nil }

// SignatureVariant is a signature box
type SignatureVariant struct{}

func (SignatureVariant) Kind() Kind       { return KindSignature }
func (v SignatureVariant) clone() Variant { return v }
func (SignatureVariant) validate() error  { return nil }

// InitialsVariant is an initials box
type InitialsVariant struct{}

func (InitialsVariant) Kind() Kind       { return KindInitials }
func (v InitialsVariant) clone() Variant { return v }
func (InitialsVariant) validate() error  { return nil }

// NewVariant returns a pointer to the zero variant for kind, suitable for
// decoding into. Unknown kinds yield nil.
func NewVariant(kind Kind) interface{} {
	switch kind {
	case KindText:
		return &TextVariant{}
	case KindParagraph:
		return &ParagraphVariant{}
	case KindCheckbox:
		return &CheckboxVariant{}
	case KindRadio:
		return &RadioVariant{}
	case KindDropdown:
		return &DropdownVariant{}
	case KindDate:
		return &DateVariant{}
	case KindSignature:
		return &SignatureVariant{}
	case KindInitials:
		return &InitialsVariant{}
	}
	return nil
}

// DecodeVariant decodes raw as the variant of kind
func DecodeVariant(kind Kind, raw []byte) (Variant, error) {
	v := NewVariant(kind)
	if v == nil {
		return nil, fmt.Errorf("unknown field type: %q", kind)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, fmt.Errorf("failed to decode %s variant: %w", kind, err)
	}
	return derefVariant(v), nil
}

func derefVariant(v interface{}) Variant {
	switch p := v.(type) {
	case *TextVariant:
		return *p
	case *ParagraphVariant:
		return *p
	case *CheckboxVariant:
		return *p
	case *RadioVariant:
		return *p
	case *DropdownVariant:
		return *p
	case *DateVariant:
		return *p
	case *SignatureVariant:
		return *p
	case *InitialsVariant:
		return *p
	}
	return nil
}
