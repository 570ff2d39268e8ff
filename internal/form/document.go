package form

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Document is the PDF being edited together with its fields. Field order is
// insertion order and doubles as z-order.
type Document struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	File      []byte    `json:"file,omitempty"`
	Pages     int       `json:"pages"`
	Fields    []Field   `json:"fields"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a copy whose fields can be mutated without affecting d.
// The source bytes are never mutated after load and are shared.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	c.Fields = make([]Field, len(d.Fields))
	for i, f := range d.Fields {
		c.Fields[i] = f.Clone()
	}
	return &c
}

// IndexOf returns the position of the field with id, or -1
func (d *Document) IndexOf(id string) int {
	for i := range d.Fields {
		if d.Fields[i].ID == id {
			return i
		}
	}
	return -1
}

// FieldByID returns a copy of the field with id
func (d *Document) FieldByID(id string) (Field, bool) {
	i := d.IndexOf(id)
	if i < 0 {
		return Field{}, false
	}
	return d.Fields[i].Clone(), true
}

// FieldsOnPage returns the fields placed on page, in z-order
func (d *Document) FieldsOnPage(page int) []Field {
	var out []Field
	for _, f := range d.Fields {
		if f.PageNumber == page {
			out = append(out, f)
		}
	}
	return out
}

// PendingFields returns the fields whose properties were never confirmed
func (d *Document) PendingFields() []Field {
	var out []Field
	for _, f := range d.Fields {
		if !f.IsConfigured {
			out = append(out, f)
		}
	}
	return out
}

// ConfiguredFields returns the fields whose properties were confirmed
func (d *Document) ConfiguredFields() []Field {
	var out []Field
	for _, f := range d.Fields {
		if f.IsConfigured {
			out = append(out, f)
		}
	}
	return out
}

// Validate checks every field and that each lies on an existing page
func (d *Document) Validate() error {
	for _, f := range d.Fields {
		if err := f.Validate(); err != nil {
			return err
		}
		if d.Pages > 0 && f.PageNumber > d.Pages {
			return fmt.Errorf("field %s is on page %d of a %d page document", f.ID, f.PageNumber, d.Pages)
		}
	}
	return nil
}

// BaseName is the source file name without directory and .pdf extension
func (d *Document) BaseName() string {
	return BaseName(d.Name)
}

// BaseName strips the directory and a trailing .pdf from name
func BaseName(name string) string {
	base := filepath.Base(name)
	if strings.HasSuffix(strings.ToLower(base), ".pdf") {
		base = base[:len(base)-len(".pdf")]
	}
	if base == "" || base == "." {
		return "document"
	}
	return base
}

// StorageKey is the local storage key of the document
func (d *Document) StorageKey() string {
	return StorageKey(d.ID)
}

// StorageKey returns the local storage key for a document id
func StorageKey(id string) string {
	return "pdf-document-" + id
}
