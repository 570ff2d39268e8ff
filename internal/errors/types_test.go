package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorType_String(t *testing.T) {
	tests := []struct {
		errorType ErrorType
		want      string
	}{
		{ErrorTypeValidation, "VALIDATION"},
		{ErrorTypeRender, "RENDER"},
		{ErrorTypeExport, "EXPORT"},
		{ErrorTypeNetwork, "NETWORK"},
		{ErrorTypeStorage, "STORAGE"},
		{ErrorTypeUnknown, "UNKNOWN"},
		{ErrorType(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.errorType.String())
		})
	}
}

func TestDocflyError_Is(t *testing.T) {
	err := NewValidationError("load_pdf", "file too large")
	wrapped := fmt.Errorf("loading: %w", err)

	assert.True(t, stderrors.Is(wrapped, ErrValidation))
	assert.False(t, stderrors.Is(wrapped, ErrNetwork))
	assert.Equal(t, ErrorTypeValidation, TypeOf(wrapped))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(stderrors.New("plain")))
}

func TestDocflyError_Message(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewNetworkError("start_form", 502, cause)

	assert.Equal(t, "[NETWORK] start_form: connection refused (status 502)", err.Error())
	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, err.Recoverable)

	err.WithContext("Profile")
	assert.Contains(t, err.Error(), ": Profile")
}

func TestErrorCollection(t *testing.T) {
	ec := NewErrorCollection()
	require.Equal(t, 0, ec.Len())
	assert.Equal(t, "No errors", ec.Summary())

	ec.Add(NewExportError("stamp", stderrors.New("bad color")).WithField("f1"))
	ec.Add(NewExportError("stamp", stderrors.New("no options")))

	assert.Equal(t, 2, ec.Len())
	assert.Equal(t, []string{"f1"}, ec.FieldIDs())
	assert.Equal(t, "Skipped 2 field(s)", ec.Summary())

	var nilCollection *ErrorCollection
	assert.Equal(t, 0, nilCollection.Len())
}
