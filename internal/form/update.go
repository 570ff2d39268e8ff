package form

import "fmt"

// FieldUpdate is a partial patch of a field. Nil members are left untouched.
// Top-level members replace; Properties and Appearance merge one level deep.
type FieldUpdate struct {
	X            *float64          `json:"x,omitempty"`
	Y            *float64          `json:"y,omitempty"`
	Width        *float64          `json:"width,omitempty"`
	Height       *float64          `json:"height,omitempty"`
	PageNumber   *int              `json:"pageNumber,omitempty"`
	IsConfigured *bool             `json:"isConfigured,omitempty"`
	Properties   *PropertiesUpdate `json:"properties,omitempty"`
	Variant      Variant           `json:"-"`
}

// PropertiesUpdate is a partial patch of Properties
type PropertiesUpdate struct {
	Name           *string           `json:"name,omitempty"`
	Placeholder    *string           `json:"placeholder,omitempty"`
	Question       *string           `json:"question,omitempty"`
	HasDefaultText *bool             `json:"hasDefaultText,omitempty"`
	DefaultText    *string           `json:"defaultText,omitempty"`
	Required       *bool             `json:"required,omitempty"`
	Value          *string           `json:"value,omitempty"`
	Appearance     *AppearanceUpdate `json:"appearance,omitempty"`
}

// AppearanceUpdate is a partial patch of Appearance
type AppearanceUpdate struct {
	FontSize        *float64 `json:"fontSize,omitempty"`
	Bold            *bool    `json:"bold,omitempty"`
	Italic          *bool    `json:"italic,omitempty"`
	BackgroundColor *string  `json:"backgroundColor,omitempty"`
	BorderColor     *string  `json:"borderColor,omitempty"`
	BorderWidth     *float64 `json:"borderWidth,omitempty"`
}

// Ptr returns a pointer to v, for building updates inline
func Ptr[T any](v T) *T {
	return &v
}

// Move returns an update that only changes the position
func Move(x, y float64) FieldUpdate {
	return FieldUpdate{X: &x, Y: &y}
}

// Bounds returns an update that changes position and size
func Bounds(x, y, width, height float64) FieldUpdate {
	return FieldUpdate{X: &x, Y: &y, Width: &width, Height: &height}
}

// SetValue returns an update that only changes the entered value
func SetValue(value string) FieldUpdate {
	return FieldUpdate{Properties: &PropertiesUpdate{Value: &value}}
}

// IsEmpty reports whether applying u would change nothing
func (u FieldUpdate) IsEmpty() bool {
	return u.X == nil && u.Y == nil && u.Width == nil && u.Height == nil &&
		u.PageNumber == nil && u.IsConfigured == nil && u.Properties == nil && u.Variant == nil
}

// Apply returns a copy of f with u merged in. The result is validated.
func (u FieldUpdate) Apply(f Field) (Field, error) {
	out := f.Clone()
	if u.X != nil {
		out.X = *u.X
	}
	if u.Y != nil {
		out.Y = *u.Y
	}
	if u.Width != nil {
		out.Width = *u.Width
	}
	if u.Height != nil {
		out.Height = *u.Height
	}
	if u.PageNumber != nil {
		out.PageNumber = *u.PageNumber
	}
	if u.IsConfigured != nil {
		out.IsConfigured = *u.IsConfigured
	}
	if u.Properties != nil {
		out.Properties = u.Properties.apply(out.Properties)
	}
	if u.Variant != nil {
		if u.Variant.Kind() != f.Kind {
			return f, fmt.Errorf("cannot set %s data on %s field %s", u.Variant.Kind(), f.Kind, f.ID)
		}
		out.Variant = u.Variant.clone()
	}
	if err := out.Validate(); err != nil {
		return f, err
	}
	return out, nil
}

func (u *PropertiesUpdate) apply(p Properties) Properties {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Placeholder != nil {
		p.Placeholder = *u.Placeholder
	}
	if u.Question != nil {
		p.Question = *u.Question
	}
	if u.HasDefaultText != nil {
		p.HasDefaultText = *u.HasDefaultText
	}
	if u.DefaultText != nil {
		p.DefaultText = *u.DefaultText
	}
	if u.Required != nil {
		p.Required = *u.Required
	}
	if u.Value != nil {
		p.Value = *u.Value
	}
	if u.Appearance != nil {
		p.Appearance = u.Appearance.apply(p.Appearance)
	}
	return p
}

func (u *AppearanceUpdate) apply(a Appearance) Appearance {
	if u.FontSize != nil {
		a.FontSize = *u.FontSize
	}
	if u.Bold != nil {
		a.Bold = *u.Bold
	}
	if u.Italic != nil {
		a.Italic = *u.Italic
	}
	if u.BackgroundColor != nil {
		a.BackgroundColor = *u.BackgroundColor
	}
	if u.BorderColor != nil {
		a.BorderColor = *u.BorderColor
	}
	if u.BorderWidth != nil {
		a.BorderWidth = *u.BorderWidth
	}
	return a
}
