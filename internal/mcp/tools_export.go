package mcp

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Shashank-Shivakumar/Docfly/internal/descriptions"
	"github.com/Shashank-Shivakumar/Docfly/internal/editor"
	"github.com/Shashank-Shivakumar/Docfly/internal/export"
)

func (s *Server) registerExportTools() {
	s.addTool(mcp.NewTool("document_export",
		mcp.WithDescription(descriptions.GetToolDescription("document_export")),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("Artifact to produce"),
			mcp.Enum(string(export.KindFillable), string(export.KindFlattened), string(export.KindJSON)),
		),
		mcp.WithString("output_dir",
			mcp.Description("Directory to write to, inside the work directory (defaults to the work directory)"),
		),
	), s.handleDocumentExport)

	s.addTool(mcp.NewTool("export_inspect",
		mcp.WithDescription(descriptions.GetToolDescription("export_inspect")),
		mcp.WithString("path", mcp.Required(), mcp.Description("PDF to inspect, inside the work directory")),
		mcp.WithBoolean("json", mcp.Description("Return the fields as JSON")),
	), s.handleExportInspect)
}

func (s *Server) handleDocumentExport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("type")
	if err != nil {
		return errorResult(err), nil
	}
	kind, err := export.ParseKind(name)
	if err != nil {
		return errorResult(err), nil
	}
	dir, err := s.services.Paths.Resolve(request.GetString("output_dir", "."))
	if err != nil {
		return errorResult(err), nil
	}
	if err := s.services.Paths.ValidateDirectory(dir); err != nil {
		return errorResult(err), nil
	}

	doc := s.services.Store.Document()
	if doc == nil {
		return errorResult(editor.ErrNoDocument), nil
	}

	artifact, err := s.services.Exporter.Export(ctx, doc, kind)
	if err != nil {
		return errorResult(err), nil
	}
	path, err := export.WriteArtifact(dir, artifact)
	if err != nil {
		return errorResult(err), nil
	}
	s.log.Info("Exported %s as %s (%d bytes)", doc.Name, path, len(artifact.Data))

	text := fmt.Sprintf("📦 Exported %s\n", artifact.Name)
	text += fmt.Sprintf("Path: %s\n", path)
	text += fmt.Sprintf("Type: %s (%s, %d bytes)\n", kind, artifact.MIME, len(artifact.Data))
	text += fmt.Sprintf("Fields: %d configured, %d pending\n", len(doc.ConfiguredFields()), len(doc.PendingFields()))
	if artifact.Skipped.Len() > 0 {
		text += fmt.Sprintf("\n⚠️  %s: %s\n", artifact.Skipped.Summary(), strings.Join(artifact.Skipped.FieldIDs(), ", "))
		for _, e := range artifact.Skipped.Errors {
			text += fmt.Sprintf("   • %v\n", e)
		}
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleExportInspect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return errorResult(err), nil
	}
	resolved, err := s.services.Paths.Resolve(path)
	if err != nil {
		return errorResult(err), nil
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return errorResult(fmt.Errorf("failed to read %s: %w", path, err)), nil
	}

	fields, err := s.services.Inspector.InspectBytes(data)
	if err != nil {
		return errorResult(err), nil
	}
	if request.GetBool("json", false) {
		return jsonResult(fields), nil
	}

	if len(fields) == 0 {
		return textResult("%s has no form fields", path), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Form fields in %s: %d\n\n", path, len(fields))
	for i, f := range fields {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, f.Name, f.Type)
		var flags []string
		if f.Required {
			flags = append(flags, "required")
		}
		if f.ReadOnly {
			flags = append(flags, "read-only")
		}
		if f.Multiline {
			flags = append(flags, "multiline")
		}
		if f.Comb {
			flags = append(flags, fmt.Sprintf("comb of %d", f.MaxLen))
		}
		if len(flags) > 0 {
			fmt.Fprintf(&b, "   Flags: %s\n", strings.Join(flags, ", "))
		}
		if f.Value != "" {
			fmt.Fprintf(&b, "   Value: %s\n", f.Value)
		}
		if len(f.Options) > 0 {
			fmt.Fprintf(&b, "   Options: %s\n", strings.Join(f.Options, ", "))
		}
		fmt.Fprintf(&b, "   Rect: [%.1f %.1f %.1f %.1f]\n", f.Rect[0], f.Rect[1], f.Rect[2], f.Rect[3])
	}
	return mcp.NewToolResultText(b.String()), nil
}
