package form

import (
	"fmt"
	"time"
)

const (
	DefaultWidth           = 120.0
	DefaultHeight          = 32.0
	DefaultWideWidth       = 150.0 // signature and initials
	DefaultParagraphHeight = 80.0
	DefaultFontSize        = 12.0
	DefaultBorderColor     = "#d1d5db"
	DefaultBorderWidth     = 1.0

	// Transparent disables the background fill
	Transparent = "transparent"
)

// DefaultSize returns the initial width and height for a new field of kind
func DefaultSize(kind Kind) (width, height float64) {
	width, height = DefaultWidth, DefaultHeight
	if kind == KindSignature || kind == KindInitials {
		width = DefaultWideWidth
	}
	if kind == KindParagraph {
		height = DefaultParagraphHeight
	}
	return width, height
}

// DefaultProperties returns the properties a freshly placed field starts with
func DefaultProperties(kind Kind, now time.Time) Properties {
	return Properties{
		Name:        fmt.Sprintf("%s_%d", kind, now.UnixMilli()),
		Placeholder: "Enter " + string(kind),
		Appearance: Appearance{
			FontSize:        DefaultFontSize,
			BackgroundColor: Transparent,
			BorderColor:     DefaultBorderColor,
			BorderWidth:     DefaultBorderWidth,
		},
	}
}

// DefaultVariant returns the kind-specific data a freshly placed field starts with
func DefaultVariant(kind Kind) Variant {
	switch kind {
	case KindRadio:
		return RadioVariant{Options: defaultChoices()}
	case KindDropdown:
		return DropdownVariant{Options: defaultChoices()}
	}
	return derefVariant(NewVariant(kind))
}

func defaultChoices() []string {
	return []string{"Option 1", "Option 2", "Option 3"}
}

// NewField builds an unplaced field of kind at (x, y) on page. The id is
// assigned when the field is added to a document.
func NewField(kind Kind, x, y float64, page int, now time.Time) Field {
	width, height := DefaultSize(kind)
	return Field{
		Kind:       kind,
		X:          x,
		Y:          y,
		Width:      width,
		Height:     height,
		PageNumber: page,
		Properties: DefaultProperties(kind, now),
		Variant:    DefaultVariant(kind),
	}
}
