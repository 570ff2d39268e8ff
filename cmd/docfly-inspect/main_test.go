package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shashank-Shivakumar/Docfly/internal/pdf/pdftest"
)

func writeFormPDF(t *testing.T) string {
	t.Helper()
	data := pdftest.Build(pdftest.Options{
		Fields: []string{
			"/FT /Tx\n/T (full_name)\n/V (Ada)\n/Ff 2\n/Rect [10 700 130 732]",
			"/FT /Ch\n/T (color)\n/Ff 131072\n/Opt [(Red) (Blue)]\n/Rect [10 520 130 540]",
		},
	})
	path := filepath.Join(t.TempDir(), "form.pdf")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestRun_Text(t *testing.T) {
	path := writeFormPDF(t)
	var stdout, stderr bytes.Buffer

	code := run([]string{path}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	out := stdout.String()
	assert.Contains(t, out, "2 field(s)")
	assert.Contains(t, out, "full_name (text)")
	assert.Contains(t, out, `Value: "Ada"`)
	assert.Contains(t, out, "Flags: required")
	assert.Contains(t, out, "color (choice)")
	assert.Contains(t, out, "Options: Red, Blue")
}

func TestRun_JSON(t *testing.T) {
	path := writeFormPDF(t)
	var stdout, stderr bytes.Buffer

	code := run([]string{"--format", "json", path}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	var result InspectResult
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.FieldCount)
	require.Len(t, result.Fields, 2)
	assert.Equal(t, "color", result.Fields[0].Name)
	assert.Equal(t, "full_name", result.Fields[1].Name)
}

func TestRun_NoFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.pdf")
	require.NoError(t, os.WriteFile(path, pdftest.Document(2), 0o644))

	var stdout, stderr bytes.Buffer
	code := run([]string{path}, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "has no form fields")
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantErr  string
	}{
		{"no file", nil, 1, "PDF file path required"},
		{"missing file", []string{"/nonexistent/form.pdf"}, 1, "file not found"},
		{"bad format", []string{"--format", "xml", "form.pdf"}, 1, "unsupported output format"},
		{"unknown flag", []string{"--bogus"}, 2, "unknown flag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(tt.args, &stdout, &stderr)
			assert.Equal(t, tt.wantCode, code)
			assert.Contains(t, stderr.String(), tt.wantErr)
		})
	}
}

func TestRun_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.pdf")
	require.NoError(t, os.WriteFile(path, []byte("just text"), 0o644))

	var stdout, stderr bytes.Buffer
	code := run([]string{path}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout.String(), "inspection failed")
}

func TestRun_Help(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"--help"}, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "--format")
	assert.Contains(t, stdout.String(), "USAGE:")
}
