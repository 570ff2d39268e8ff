package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// DocflyError is the error type surfaced by every editing, export and chat
// operation. Callers branch on Type rather than on message text.
type DocflyError struct {
	Type        ErrorType `json:"type"`
	Op          string    `json:"op,omitempty"`
	Message     string    `json:"message"`
	Context     string    `json:"context,omitempty"`
	StatusCode  int       `json:"status_code,omitempty"`
	FieldID     string    `json:"field_id,omitempty"`
	Recoverable bool      `json:"recoverable"`
	Timestamp   time.Time `json:"timestamp"`
	Err         error     `json:"-"`
}

// ErrorType represents the category of a failure
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeValidation
	ErrorTypeRender
	ErrorTypeExport
	ErrorTypeNetwork
	ErrorTypeStorage
)

// Sentinels for errors.Is checks against a category.
var (
	ErrValidation = &DocflyError{Type: ErrorTypeValidation}
	ErrRender     = &DocflyError{Type: ErrorTypeRender}
	ErrExport     = &DocflyError{Type: ErrorTypeExport}
	ErrNetwork    = &DocflyError{Type: ErrorTypeNetwork}
	ErrStorage    = &DocflyError{Type: ErrorTypeStorage}
)

// Error implements the error interface
func (e *DocflyError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Type.String(), e.Message)
	if e.Op != "" {
		msg = fmt.Sprintf("[%s] %s: %s", e.Type.String(), e.Op, e.Message)
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Context != "" {
		msg += ": " + e.Context
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *DocflyError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DocflyError of the same type.
func (e *DocflyError) Is(target error) bool {
	t, ok := target.(*DocflyError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeValidation:
		return "VALIDATION"
	case ErrorTypeRender:
		return "RENDER"
	case ErrorTypeExport:
		return "EXPORT"
	case ErrorTypeNetwork:
		return "NETWORK"
	case ErrorTypeStorage:
		return "STORAGE"
	default:
		return "UNKNOWN"
	}
}

// IsRecoverable reports whether the session can continue after this kind of
// failure without user intervention beyond a retry.
func (et ErrorType) IsRecoverable() bool {
	switch et {
	case ErrorTypeValidation, ErrorTypeRender, ErrorTypeNetwork, ErrorTypeStorage:
		return true
	case ErrorTypeExport:
		return true // whole-file failures abort the export only
	default:
		return false
	}
}

func newError(errorType ErrorType, op, message string, err error) *DocflyError {
	return &DocflyError{
		Type:        errorType,
		Op:          op,
		Message:     message,
		Err:         err,
		Recoverable: errorType.IsRecoverable(),
		Timestamp:   time.Now(),
	}
}

// NewValidationError reports rejected user input. Nothing was mutated.
func NewValidationError(op, message string) *DocflyError {
	return newError(ErrorTypeValidation, op, message, nil)
}

// NewRenderError reports a page rasterization failure.
func NewRenderError(op string, err error) *DocflyError {
	return newError(ErrorTypeRender, op, errMessage(err), err)
}

// NewExportError reports a PDF or JSON export failure.
func NewExportError(op string, err error) *DocflyError {
	return newError(ErrorTypeExport, op, errMessage(err), err)
}

// NewNetworkError reports a failed chat API call. statusCode is zero for
// transport failures.
func NewNetworkError(op string, statusCode int, err error) *DocflyError {
	e := newError(ErrorTypeNetwork, op, errMessage(err), err)
	e.StatusCode = statusCode
	return e
}

// NewStorageError reports a local persistence failure.
func NewStorageError(op string, err error) *DocflyError {
	return newError(ErrorTypeStorage, op, errMessage(err), err)
}

// WithContext adds context to an existing error
func (e *DocflyError) WithContext(context string) *DocflyError {
	e.Context = context
	return e
}

// WithField records the field the error belongs to
func (e *DocflyError) WithField(fieldID string) *DocflyError {
	e.FieldID = fieldID
	return e
}

// TypeOf returns the category of err, or ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var de *DocflyError
	if stderrors.As(err, &de) {
		return de.Type
	}
	return ErrorTypeUnknown
}

func errMessage(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

// ErrorCollection gathers per-field failures from a best-effort operation
type ErrorCollection struct {
	Errors []*DocflyError `json:"errors"`
}

// NewErrorCollection creates an empty collection
func NewErrorCollection() *ErrorCollection {
	return &ErrorCollection{Errors: make([]*DocflyError, 0)}
}

// Add appends an error to the collection
func (ec *ErrorCollection) Add(err *DocflyError) {
	ec.Errors = append(ec.Errors, err)
}

// Len returns the number of collected errors
func (ec *ErrorCollection) Len() int {
	if ec == nil {
		return 0
	}
	return len(ec.Errors)
}

// FieldIDs returns the ids of the fields that failed, in order
func (ec *ErrorCollection) FieldIDs() []string {
	ids := make([]string, 0, ec.Len())
	if ec == nil {
		return ids
	}
	for _, err := range ec.Errors {
		if err.FieldID != "" {
			ids = append(ids, err.FieldID)
		}
	}
	return ids
}

// Summary returns a text summary of all collected errors
func (ec *ErrorCollection) Summary() string {
	if ec.Len() == 0 {
		return "No errors"
	}
	return fmt.Sprintf("Skipped %d field(s)", ec.Len())
}
