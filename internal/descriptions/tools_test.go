package descriptions

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetToolDescription(t *testing.T) {
	assert.Contains(t, GetToolDescription("pdf_load"), "work directory")
	assert.Equal(t, "Tool description not available", GetToolDescription("pdf_read_file"))
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "Export the form as a fillable PDF, a flattened PDF or Form JSON.", Summary("document_export"))
	assert.Equal(t, "Delete a field and clear the selection.", Summary("field_delete"))
}

func TestGetAllToolNames(t *testing.T) {
	names := GetAllToolNames()
	assert.Len(t, names, len(ToolDescriptions))
	for i := 1; i < len(names); i++ {
		assert.True(t, strings.Compare(names[i-1], names[i]) < 0, "names must be sorted")
	}
	for _, name := range names {
		assert.NotEmpty(t, ToolDescriptions[name], name)
	}
}
