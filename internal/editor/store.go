package editor

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	derrors "github.com/Shashank-Shivakumar/Docfly/internal/errors"
	"github.com/Shashank-Shivakumar/Docfly/internal/form"
	"github.com/Shashank-Shivakumar/Docfly/internal/logger"
)

const (
	DefaultMaxFileSize  = 50 * 1024 * 1024 // 50MB
	DefaultMinFileSize  = 1024             // 1KB, enforced only in strict mode
	DefaultHistoryLimit = 0 // unbounded
)

// ErrNoDocument is returned by every editing operation before a PDF is loaded
var ErrNoDocument = errors.New("no PDF document loaded")

// Options configures a Store
type Options struct {
	MaxFileSize  int64
	MinFileSize  int64
	Strict       bool // reject files smaller than MinFileSize
	HistoryLimit int  // 0 keeps every snapshot
	Logger       *logger.Logger
	Now          func() time.Time
	NewID        func() string
}

// DefaultOptions returns the options used by the CLI
func DefaultOptions() Options {
	return Options{
		MaxFileSize:  DefaultMaxFileSize,
		MinFileSize:  DefaultMinFileSize,
		HistoryLimit: DefaultHistoryLimit,
	}
}

// Store owns the active document, the selection, the active tool, the page
// cursor and the undo history of one editing session. It is safe for
// concurrent use; every operation runs to completion under one lock.
type Store struct {
	mu   sync.Mutex
	opts Options
	log  *logger.Logger

	doc     *form.Document
	history []*form.Document
	index   int

	selected    string
	tool        form.Kind
	currentPage int
	totalPages  int
}

// NewStore creates an empty editing session
func NewStore(opts Options) *Store {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.MinFileSize <= 0 {
		opts.MinFileSize = DefaultMinFileSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Store{
		opts:        opts,
		log:         logger.OrDiscard(opts.Logger),
		currentPage: 1,
	}
}

// LoadPDF validates an uploaded file and replaces the active document with a
// fresh one. On validation failure nothing changes.
func (s *Store) LoadPDF(name, mimeType string, data []byte) (*form.Document, error) {
	if err := s.validateUpload(name, mimeType, data); err != nil {
		return nil, err
	}

	now := s.opts.Now()
	doc := &form.Document{
		ID:        s.opts.NewID(),
		Name:      name,
		File:      append([]byte(nil), data...),
		Pages:     1,
		Fields:    []form.Field{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset(doc)
	s.totalPages = 0
	s.log.Info("Loaded %s (%d bytes) as document %s", name, len(data), doc.ID)
	return doc.Clone(), nil
}

func (s *Store) validateUpload(name, mimeType string, data []byte) error {
	isPDF := strings.Contains(strings.ToLower(mimeType), "pdf") ||
		strings.HasSuffix(strings.ToLower(name), ".pdf")
	if !isPDF {
		return derrors.NewValidationError("load_pdf", "please upload a PDF file").WithContext(name)
	}
	size := int64(len(data))
	if size == 0 {
		return derrors.NewValidationError("load_pdf", "file is empty").WithContext(name)
	}
	if size > s.opts.MaxFileSize {
		return derrors.NewValidationError("load_pdf",
			fmt.Sprintf("file size %d exceeds maximum of %d bytes", size, s.opts.MaxFileSize)).WithContext(name)
	}
	if s.opts.Strict && size < s.opts.MinFileSize {
		return derrors.NewValidationError("load_pdf",
			fmt.Sprintf("file size %d is below minimum of %d bytes", size, s.opts.MinFileSize)).WithContext(name)
	}
	return nil
}

func (s *Store) reset(doc *form.Document) {
	s.doc = doc
	s.history = []*form.Document{doc}
	s.index = 0
	s.selected = ""
	s.tool = ""
	s.currentPage = 1
}

// UpdateTotalPages records the page count reported by the renderer. Page
// count is document metadata, not an edit, so every snapshot is patched and
// no history entry is added.
func (s *Store) UpdateTotalPages(n int) error {
	if n < 1 {
		return derrors.NewValidationError("update_total_pages", fmt.Sprintf("invalid page count %d", n))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return ErrNoDocument
	}

	s.totalPages = n
	for _, snap := range s.history {
		snap.Pages = n
	}
	s.doc.Pages = n
	if s.currentPage > n {
		s.currentPage = n
	}
	return nil
}

// AddField assigns a new id to f, appends it, selects it and clears the
// active tool.
func (s *Store) AddField(f form.Field) (form.Field, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return form.Field{}, ErrNoDocument
	}

	f = f.Clone()
	f.ID = s.opts.NewID()
	if err := f.Validate(); err != nil {
		return form.Field{}, derrors.NewValidationError("add_field", err.Error())
	}
	if s.totalPages > 0 && f.PageNumber > s.totalPages {
		return form.Field{}, derrors.NewValidationError("add_field",
			fmt.Sprintf("page %d is outside the %d page document", f.PageNumber, s.totalPages))
	}

	next := s.doc.Clone()
	next.Fields = append(next.Fields, f)
	s.push(next)
	s.selected = f.ID
	s.tool = ""
	s.log.Debug("Added %s field %s on page %d", f.Kind, f.ID, f.PageNumber)
	return f.Clone(), nil
}

// UpdateField merges u into the field with id and records one history entry.
// An unknown id is a no-op and reports false.
func (s *Store) UpdateField(id string, u form.FieldUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(id, u, true)
}

// UpdateFieldTransient merges u into the field without recording history.
// Used while a drag or resize is in progress; Commit records the result.
func (s *Store) UpdateFieldTransient(id string, u form.FieldUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(id, u, false)
}

func (s *Store) update(id string, u form.FieldUpdate, record bool) (bool, error) {
	if s.doc == nil {
		return false, ErrNoDocument
	}
	i := s.doc.IndexOf(id)
	if i < 0 || u.IsEmpty() {
		return false, nil
	}

	updated, err := u.Apply(s.doc.Fields[i])
	if err != nil {
		return false, derrors.NewValidationError("update_field", err.Error()).WithField(id)
	}
	if s.totalPages > 0 && updated.PageNumber > s.totalPages {
		return false, derrors.NewValidationError("update_field",
			fmt.Sprintf("page %d is outside the %d page document", updated.PageNumber, s.totalPages)).WithField(id)
	}

	next := s.doc.Clone()
	next.Fields[i] = updated
	if record {
		s.push(next)
	} else {
		next.UpdatedAt = s.opts.Now()
		s.doc = next
	}
	return true, nil
}

// Commit records the active document as one history entry if it differs
// from the current snapshot. It reports whether an entry was added.
func (s *Store) Commit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil || s.doc == s.history[s.index] {
		return false
	}
	s.push(s.doc)
	return true
}

// DeleteField removes the field with id and clears the selection
func (s *Store) DeleteField(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return false, ErrNoDocument
	}
	i := s.doc.IndexOf(id)
	if i < 0 {
		return false, nil
	}

	next := s.doc.Clone()
	next.Fields = append(next.Fields[:i], next.Fields[i+1:]...)
	s.push(next)
	s.selected = ""
	return true, nil
}

// ClearAllFields removes every field as a single history entry
func (s *Store) ClearAllFields() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return ErrNoDocument
	}

	next := s.doc.Clone()
	next.Fields = []form.Field{}
	s.push(next)
	s.selected = ""
	return nil
}

func (s *Store) push(next *form.Document) {
	next.UpdatedAt = s.opts.Now()
	history := make([]*form.Document, 0, s.index+2)
	history = append(history, s.history[:s.index+1]...)
	history = append(history, next)

	if limit := s.opts.HistoryLimit; limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	s.history = history
	s.index = len(history) - 1
	s.doc = next
}

// Undo steps back one snapshot. It reports whether the cursor moved.
func (s *Store) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil || s.index == 0 {
		return false
	}
	s.index--
	s.doc = s.history[s.index]
	s.selected = ""
	return true
}

// Redo steps forward one snapshot. It reports whether the cursor moved.
func (s *Store) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil || s.index >= len(s.history)-1 {
		return false
	}
	s.index++
	s.doc = s.history[s.index]
	s.selected = ""
	return true
}

func (s *Store) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc != nil && s.index > 0
}

func (s *Store) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc != nil && s.index < len(s.history)-1
}

// History returns the number of snapshots and the cursor position
func (s *Store) History() (length, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history), s.index
}

// Document returns a copy of the active document, or nil before a load
func (s *Store) Document() *form.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Field returns a copy of the field with id
func (s *Store) Field(id string) (form.Field, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return form.Field{}, false
	}
	return s.doc.FieldByID(id)
}

// Select marks the field with id as selected. An empty id clears the selection.
func (s *Store) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return ErrNoDocument
	}
	if id != "" && s.doc.IndexOf(id) < 0 {
		return derrors.NewValidationError("select", "no field with id "+id)
	}
	s.selected = id
	return nil
}

// Selected returns the selected field as it is in the active document
func (s *Store) Selected() (form.Field, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil || s.selected == "" {
		return form.Field{}, false
	}
	return s.doc.FieldByID(s.selected)
}

// SetTool arms a placement tool. An empty kind disarms it.
func (s *Store) SetTool(kind form.Kind) error {
	if kind != "" && !kind.Valid() {
		return derrors.NewValidationError("set_tool", fmt.Sprintf("unknown field type %q", kind))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tool = kind
	return nil
}

// Tool returns the armed placement tool, or "" when none
func (s *Store) Tool() form.Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tool
}

// SetCurrentPage moves the page cursor, clamped to the known page range.
// It returns the resulting page.
func (s *Store) SetCurrentPage(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 1 {
		n = 1
	}
	if s.totalPages > 0 && n > s.totalPages {
		n = s.totalPages
	}
	s.currentPage = n
	return n
}

func (s *Store) CurrentPage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentPage
}

// TotalPages returns the page count reported by the renderer, 0 if unknown
func (s *Store) TotalPages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalPages
}
