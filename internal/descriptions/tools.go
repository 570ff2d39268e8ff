package descriptions

import "sort"

// Tool descriptions with practical examples and use cases

const (
	// Document tools
	PDFLoadDescription = `Load a PDF from the work directory as the document to build a form on.

**When to use:** Starting a new form. Replaces the current document and its undo history.

**Examples:**
• "Load w9.pdf so I can add fields to it"
• "Open contracts/lease.pdf"

**Common workflows:**
1. Build a form: pdf_load → field_tool_select → field_place → field_update → document_export
2. Resume work: document_restore instead of pdf_load

**Best practices:** Files must be PDFs no larger than the configured maximum size. The page count is probed on load; if probing fails the document stays loaded and pdf_set_total_pages can fix it.`

	PDFSetTotalPagesDescription = `Record the page count of the loaded document.

**When to use:** The page count could not be probed on load, or the renderer reported a different count.

**Best practices:** This is metadata and does not create an undo step.`

	FieldToolSelectDescription = `Arm a field tool so the next field_place creates that kind of field.

**When to use:** Before placing a field by pointer position. Use "none" to disarm.

**Field types:** text, paragraph, checkbox, radio, dropdown, date, signature, initials.`

	FieldPlaceDescription = `Place a field of the armed tool at a pointer position in client (screen) coordinates.

**When to use:** Mirroring a click on the rendered page. The position is converted using the page container offset and the zoom level.

**Examples:**
• Click at (140,140) with the page container at (20,20) and 100% zoom places a text field at (120,120).

**Best practices:** Each arming places one field; select the tool again to place another.`

	FieldAddDescription = `Add a field directly at page coordinates, without arming a tool.

**When to use:** Building a form programmatically when you already know where each field goes.

**Best practices:** Coordinates are PDF points from the top-left corner of the page at 100% zoom.`

	FieldUpdateDescription = `Change a field's position, size, page, properties, appearance or kind-specific data.

**When to use:** Naming a field, setting its question, marking it required, styling it, or editing checkbox, radio and dropdown choices.

**Examples:**
• {"properties":{"name":"full_name","question":"What is your full name?","required":true}}
• {"properties":{"appearance":{"fontSize":14,"bold":true}}}
• {"variant":{"options":["Red","Green","Blue"]}}

**Best practices:** Properties and appearance are merged one level deep. Each effective update is one undo step. Unknown ids are ignored.`

	FieldMoveDescription = `Drag a field to a new position on its page.

**When to use:** Repositioning a field. Positions never go below zero. The whole move is one undo step.`

	FieldResizeDescription = `Resize a field from one of its corner handles.

**When to use:** Making a field larger or smaller. dx and dy are pointer deltas in screen pixels; the opposite corner stays fixed and neither side goes below 20 points.

**Examples:**
• Dragging the "se" handle by (+30,+10) turns a 100×40 box into 130×50 at the same origin.`

	FieldSetValueDescription = `Type a value into a field.

**When to use:** Pre-filling a field. Text and paragraph boxes grow to fit the value and never shrink.`

	FieldDeleteDescription = `Delete a field and clear the selection.`

	FieldsClearDescription = `Remove every field from the document as a single undo step.`

	FieldsListDescription = `List the fields of the document, optionally for one page, with pending and configured counts.`

	FieldSelectDescription = `Select a field by id, or clear the selection with an empty id.`

	PageSetDescription = `Move the page cursor. Fields placed with field_place go on the current page.`

	ZoomSetDescription = `Set the zoom level (50% to 300%), or step it with "in", "out" or "reset".`

	HistoryUndoDescription = `Undo the last edit. Always clears the selection.`

	HistoryRedoDescription = `Redo the last undone edit. Always clears the selection.`

	DocumentSaveDescription = `Save the document, its fields and the source PDF to the local store.

**When to use:** Keeping work between sessions. The saved copy is keyed by document id.`

	DocumentRestoreDescription = `Restore a saved document as a fresh editing session.

**When to use:** Resuming earlier work. Call without an id to list saved documents.`

	DocumentExportDescription = `Export the form as a fillable PDF, a flattened PDF or Form JSON.

**When to use:** The form is finished.

**Artifacts:**
• fillable → {name}_fillable.pdf with interactive AcroForm fields
• flattened → {name}_flattened.pdf with the fields drawn as static content
• json → {name}_form.json with one entry per configured field

**Best practices:** A field that cannot be written is skipped and reported; the rest of the export still succeeds.`

	PageRenderDescription = `Render a page of the loaded document as a PNG image.

**When to use:** Looking at the page to decide where fields go, or checking placed fields.`

	ExportInspectDescription = `Read back the AcroForm fields of a PDF.

**When to use:** Verifying a fillable export: names, types, flags, values and rectangles.`

	ChatFormsDescription = `List the forms the chat backend can fill.`

	ChatStartDescription = `Start filling a form through the chat backend and show the first question.

**When to use:** Filling a form conversationally. Without a form name the sample survey is started.`

	ChatAnswerDescription = `Answer the current chat question.

**When to use:** Replying to the question shown by chat_start or a previous chat_answer. For check_list questions pass the option text or its number.`

	ChatResetDescription = `Abandon the current chat and go back to the form picker.`

	ChatDownloadDescription = `Save the filled form of a completed chat to the work directory.`

	ServerInfoDescription = `Show server settings, the loaded document, the chat state and the available tools.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"pdf_load":            PDFLoadDescription,
	"pdf_set_total_pages": PDFSetTotalPagesDescription,
	"field_tool_select":   FieldToolSelectDescription,
	"field_place":         FieldPlaceDescription,
	"field_add":           FieldAddDescription,
	"field_update":        FieldUpdateDescription,
	"field_move":          FieldMoveDescription,
	"field_resize":        FieldResizeDescription,
	"field_set_value":     FieldSetValueDescription,
	"field_delete":        FieldDeleteDescription,
	"fields_clear":        FieldsClearDescription,
	"fields_list":         FieldsListDescription,
	"field_select":        FieldSelectDescription,
	"page_set":            PageSetDescription,
	"zoom_set":            ZoomSetDescription,
	"history_undo":        HistoryUndoDescription,
	"history_redo":        HistoryRedoDescription,
	"document_save":       DocumentSaveDescription,
	"document_restore":    DocumentRestoreDescription,
	"document_export":     DocumentExportDescription,
	"page_render":         PageRenderDescription,
	"export_inspect":      ExportInspectDescription,
	"chat_forms":          ChatFormsDescription,
	"chat_start":          ChatStartDescription,
	"chat_answer":         ChatAnswerDescription,
	"chat_reset":          ChatResetDescription,
	"chat_download":       ChatDownloadDescription,
	"server_info":         ServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// Summary returns the first line of a tool's description
func Summary(toolName string) string {
	desc := GetToolDescription(toolName)
	for i, r := range desc {
		if r == '\n' {
			return desc[:i]
		}
	}
	return desc
}

// GetAllToolNames returns every tool name in alphabetical order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
