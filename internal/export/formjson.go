package export

import (
	"encoding/json"
	"errors"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	derrors "github.com/Shashank-Shivakumar/Docfly/internal/errors"
	"github.com/Shashank-Shivakumar/Docfly/internal/form"
)

// Form JSON entry types understood by the chat backend
const (
	TypeInputText = "input_text"
	TypeCheckList = "check_list"
)

// ErrNoFile is returned when exporting a document without source bytes
var ErrNoFile = errors.New("no PDF file loaded")

// CheckListItem describes one box of a check_list entry
type CheckListItem struct {
	Label          string `json:"label"`
	Field          string `json:"field"`
	FieldValue     string `json:"field_value"`
	DefaultChecked bool   `json:"default_checked"`
}

// CheckList maps option labels to their items in option order
type CheckList = orderedmap.OrderedMap[string, []CheckListItem]

// Entry is one question of the Form JSON. FormField is the field name for
// input_text entries and a *CheckList for check_list entries.
type Entry struct {
	DisplayText string      `json:"display_text"`
	Type        string      `json:"type"`
	FormField   interface{} `json:"form_feild"`
	Answer      string      `json:"answer"`
}

// Entries converts the fields of doc into Form JSON entries, in field order
func Entries(doc *form.Document) []Entry {
	entries := make([]Entry, 0, len(doc.Fields))
	for _, f := range doc.Fields {
		entry := Entry{
			DisplayText: f.DisplayText(),
			Answer:      f.InitialValue(),
		}

		// An option list, even an emptied one, makes a check_list
		if cb, ok := f.Checkbox(); ok && cb.Options != nil {
			checked := cb.DefaultLabel()
			list := orderedmap.New[string, []CheckListItem]()
			for _, opt := range cb.Options {
				list.Set(opt.Label, []CheckListItem{{
					Label:          opt.Label,
					Field:          opt.Field,
					FieldValue:     opt.FieldValue,
					DefaultChecked: checked != "" && opt.Label == checked,
				}})
			}
			entry.Type = TypeCheckList
			entry.FormField = list
		} else {
			entry.Type = TypeInputText
			entry.FormField = f.Properties.Name
		}
		entries = append(entries, entry)
	}
	return entries
}

// FormJSON renders the Form JSON of doc, indented by two spaces
func FormJSON(doc *form.Document) ([]byte, error) {
	if doc == nil || len(doc.File) == 0 {
		return nil, derrors.NewExportError("form_json", ErrNoFile)
	}
	data, err := json.MarshalIndent(Entries(doc), "", "  ")
	if err != nil {
		return nil, derrors.NewExportError("form_json", fmt.Errorf("failed to encode form JSON: %w", err))
	}
	return data, nil
}
