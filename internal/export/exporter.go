package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	derrors "github.com/Shashank-Shivakumar/Docfly/internal/errors"
	"github.com/Shashank-Shivakumar/Docfly/internal/form"
	"github.com/Shashank-Shivakumar/Docfly/internal/logger"
)

// Kind selects the export artifact
type Kind string

const (
	KindFillable  Kind = "fillable"
	KindFlattened Kind = "flattened"
	KindJSON      Kind = "json"
)

// ParseKind validates an export kind name
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindFillable, KindFlattened, KindJSON:
		return k, nil
	}
	return "", fmt.Errorf("unknown export type %q (want fillable, flattened or json)", s)
}

// Artifact is a finished export ready to be written to disk
type Artifact struct {
	Name    string
	MIME    string
	Data    []byte
	Skipped *derrors.ErrorCollection
}

// Uploader receives the Form JSON of every JSON export
type Uploader interface {
	UploadForm(ctx context.Context, formName string, fields json.RawMessage) error
}

// Exporter turns a document snapshot into downloadable artifacts
type Exporter struct {
	writer   FormWriter
	uploader Uploader
	log      *logger.Logger
}

// Option configures an Exporter
type Option func(*Exporter)

// WithUploader pushes Form JSON exports to the chat backend
func WithUploader(u Uploader) Option {
	return func(e *Exporter) { e.uploader = u }
}

func WithLogger(l *logger.Logger) Option {
	return func(e *Exporter) { e.log = logger.OrDiscard(l) }
}

// New creates an exporter writing PDFs through writer
func New(writer FormWriter, opts ...Option) *Exporter {
	e := &Exporter{writer: writer, log: logger.Discard()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ArtifactName returns the download name for kind
func ArtifactName(doc *form.Document, kind Kind) string {
	base := doc.BaseName()
	if kind == KindJSON {
		return base + "_form.json"
	}
	return fmt.Sprintf("%s_%s.pdf", base, kind)
}

var whitespace = regexp.MustCompile(`\s+`)

// FormName is the name the chat backend stores a form under
func FormName(doc *form.Document) string {
	return whitespace.ReplaceAllString(strings.ToLower(doc.BaseName()), "_")
}

// Export produces the artifact of the given kind
func (e *Exporter) Export(ctx context.Context, doc *form.Document, kind Kind) (*Artifact, error) {
	switch kind {
	case KindJSON:
		data, err := FormJSON(doc)
		if err != nil {
			return nil, err
		}
		e.upload(ctx, doc, data)
		return &Artifact{
			Name:    ArtifactName(doc, kind),
			MIME:    "application/json",
			Data:    data,
			Skipped: derrors.NewErrorCollection(),
		}, nil

	case KindFillable, KindFlattened:
		data, skipped, err := e.stamp(ctx, doc, kind == KindFlattened)
		if err != nil {
			return nil, err
		}
		return &Artifact{
			Name:    ArtifactName(doc, kind),
			MIME:    "application/pdf",
			Data:    data,
			Skipped: skipped,
		}, nil
	}
	return nil, derrors.NewValidationError("export", fmt.Sprintf("unknown export type %q", kind))
}

// Fillable stamps interactive fields onto the source PDF
func (e *Exporter) Fillable(ctx context.Context, doc *form.Document) ([]byte, error) {
	data, _, err := e.stamp(ctx, doc, false)
	return data, err
}

// Flattened stamps the fields as static page content
func (e *Exporter) Flattened(ctx context.Context, doc *form.Document) ([]byte, error) {
	data, _, err := e.stamp(ctx, doc, true)
	return data, err
}

func (e *Exporter) stamp(ctx context.Context, doc *form.Document, flatten bool) ([]byte, *derrors.ErrorCollection, error) {
	op := "export_fillable"
	if flatten {
		op = "export_flattened"
	}
	if doc == nil || len(doc.File) == 0 {
		return nil, nil, derrors.NewExportError(op, ErrNoFile)
	}

	heights, err := e.writer.PageHeights(ctx, doc.File)
	if err != nil {
		return nil, nil, derrors.NewExportError(op, err)
	}

	layout := BuildLayout(doc, heights, e.log)
	out, err := e.writer.Stamp(ctx, doc.File, layout, flatten)
	if err == nil {
		return out, layout.Skipped, nil
	}
	if len(layout.Groups) <= 1 || ctx.Err() != nil {
		return nil, nil, derrors.NewExportError(op, err)
	}

	// Retry field by field so one bad field does not lose the rest
	e.log.Warn("Stamping all fields failed, retrying one at a time: %v", err)
	data := doc.File
	stamped := 0
	for i, g := range layout.Groups {
		next, gerr := e.writer.Stamp(ctx, data, layout.Only(i), flatten)
		if gerr != nil {
			e.log.Warn("Failed to add field %s: %v", g.FieldName, gerr)
			layout.Skipped.Add(derrors.NewExportError(op, gerr).WithField(g.FieldID))
			continue
		}
		data = next
		stamped++
	}
	if stamped == 0 {
		return nil, nil, derrors.NewExportError(op, err)
	}
	return data, layout.Skipped, nil
}

func (e *Exporter) upload(ctx context.Context, doc *form.Document, data []byte) {
	if e.uploader == nil {
		return
	}
	name := FormName(doc)
	if err := e.uploader.UploadForm(ctx, name, json.RawMessage(data)); err != nil {
		e.log.Warn("Could not upload form %s to the chat backend: %v", name, err)
		return
	}
	e.log.Info("Uploaded form %s to the chat backend", name)
}

// WriteArtifact saves a to dir and returns the written path. The data goes
// to a temporary file first, which is always removed.
func WriteArtifact(dir string, a *Artifact) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", derrors.NewExportError("write_artifact", fmt.Errorf("failed to create %s: %w", dir, err))
	}

	tmp, err := os.CreateTemp(dir, ".docfly-*")
	if err != nil {
		return "", derrors.NewExportError("write_artifact", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(a.Data); err != nil {
		tmp.Close()
		return "", derrors.NewExportError("write_artifact", err)
	}
	if err := tmp.Close(); err != nil {
		return "", derrors.NewExportError("write_artifact", err)
	}

	path := filepath.Join(dir, filepath.Base(a.Name))
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", derrors.NewExportError("write_artifact", err)
	}
	return path, nil
}
