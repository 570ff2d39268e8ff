package mcp

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Shashank-Shivakumar/Docfly/internal/descriptions"
	"github.com/Shashank-Shivakumar/Docfly/internal/editor"
	"github.com/Shashank-Shivakumar/Docfly/internal/form"
	"github.com/Shashank-Shivakumar/Docfly/internal/render"
)

func (s *Server) registerDocumentTools() {
	s.addTool(mcp.NewTool("pdf_load",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_load")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("PDF path, relative to the work directory or absolute inside it"),
		),
		mcp.WithString("mime_type",
			mcp.Description("MIME type of the upload (guessed from the extension when empty)"),
		),
	), s.handlePDFLoad)

	s.addTool(mcp.NewTool("pdf_set_total_pages",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_set_total_pages")),
		mcp.WithNumber("pages", mcp.Required(), mcp.Description("Number of pages in the document")),
	), s.handleSetTotalPages)

	s.addTool(mcp.NewTool("page_set",
		mcp.WithDescription(descriptions.GetToolDescription("page_set")),
		mcp.WithNumber("page", mcp.Required(), mcp.Description("Page number, starting at 1")),
	), s.handlePageSet)

	s.addTool(mcp.NewTool("zoom_set",
		mcp.WithDescription(descriptions.GetToolDescription("zoom_set")),
		mcp.WithNumber("zoom", mcp.Description("Zoom factor, 0.5 to 3.0")),
		mcp.WithString("step",
			mcp.Description("Step the zoom instead of setting it"),
			mcp.Enum("in", "out", "reset"),
		),
	), s.handleZoomSet)

	s.addTool(mcp.NewTool("history_undo",
		mcp.WithDescription(descriptions.GetToolDescription("history_undo")),
	), s.handleUndo)

	s.addTool(mcp.NewTool("history_redo",
		mcp.WithDescription(descriptions.GetToolDescription("history_redo")),
	), s.handleRedo)

	s.addTool(mcp.NewTool("document_save",
		mcp.WithDescription(descriptions.GetToolDescription("document_save")),
	), s.handleDocumentSave)

	s.addTool(mcp.NewTool("document_restore",
		mcp.WithDescription(descriptions.GetToolDescription("document_restore")),
		mcp.WithString("id", mcp.Description("Saved document id; empty lists saved documents")),
	), s.handleDocumentRestore)

	s.addTool(mcp.NewTool("page_render",
		mcp.WithDescription(descriptions.GetToolDescription("page_render")),
		mcp.WithNumber("page", mcp.Description("Page to render (defaults to the current page)")),
		mcp.WithNumber("zoom", mcp.Description("Zoom factor (defaults to the editor zoom)")),
	), s.handlePageRender)
}

func (s *Server) handlePDFLoad(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

	mimeType := request.GetString("mime_type", "")
	if mimeType == "" {
		mimeType = mime.TypeByExtension(strings.ToLower(filepath.Ext(resolved)))
	}

	previous := s.services.Store.Document()
	doc, err := s.services.Store.LoadPDF(filepath.Base(resolved), mimeType, data)
	if err != nil {
		return errorResult(err), nil
	}
	if previous != nil && s.services.Renderer != nil {
		s.services.Renderer.Invalidate(previous.ID)
	}
	s.services.Mapper.ResetZoom()

	text := fmt.Sprintf("Loaded %s (%d bytes)\nDocument ID: %s\n", doc.Name, len(data), doc.ID)
	pages, err := s.probe(data)
	if err != nil {
		s.log.Warn("Page count probe failed for %s: %v", doc.Name, err)
		text += fmt.Sprintf("\n⚠️  Could not read the page count: %v\n"+
			"The document is loaded; use pdf_set_total_pages to set it.\n", err)
		return mcp.NewToolResultText(text), nil
	}
	if err := s.services.Store.UpdateTotalPages(pages); err != nil {
		return errorResult(err), nil
	}
	text += fmt.Sprintf("Pages: %d\n", pages)
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleSetTotalPages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pages, err := request.RequireInt("pages")
	if err != nil {
		return errorResult(err), nil
	}
	if err := s.services.Store.UpdateTotalPages(pages); err != nil {
		return errorResult(err), nil
	}
	return textResult("Total pages set to %d (current page %d)", pages, s.services.Store.CurrentPage()), nil
}

func (s *Server) handlePageSet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, err := request.RequireInt("page")
	if err != nil {
		return errorResult(err), nil
	}
	if s.services.Store.Document() == nil {
		return errorResult(editor.ErrNoDocument), nil
	}
	applied := s.services.Store.SetCurrentPage(page)
	total := s.services.Store.TotalPages()
	if total > 0 {
		return textResult("Current page: %d of %d", applied, total), nil
	}
	return textResult("Current page: %d", applied), nil
}

func (s *Server) handleZoomSet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m := s.services.Mapper
	var zoom float64
	switch step := request.GetString("step", ""); step {
	case "in":
		zoom = m.ZoomIn()
	case "out":
		zoom = m.ZoomOut()
	case "reset":
		zoom = m.ResetZoom()
	case "":
		z, err := request.RequireFloat("zoom")
		if err != nil {
			return errorResult(fmt.Errorf("either zoom or step is required")), nil
		}
		zoom = m.SetZoom(z)
	default:
		return errorResult(fmt.Errorf("unknown zoom step %q (want in, out or reset)", step)), nil
	}
	return textResult("Zoom: %.0f%%", zoom*100), nil
}

func (s *Server) handleUndo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.historyResult("undo", s.services.Store.Undo()), nil
}

func (s *Server) handleRedo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.historyResult("redo", s.services.Store.Redo()), nil
}

func (s *Server) historyResult(action string, moved bool) *mcp.CallToolResult {
	length, index := s.services.Store.History()
	if !moved {
		return textResult("Nothing to %s (history %d/%d)", action, index+1, length)
	}
	fields := 0
	if doc := s.services.Store.Document(); doc != nil {
		fields = len(doc.Fields)
	}
	return textResult("Applied %s (history %d/%d, %d fields)", action, index+1, length, fields)
}

func (s *Server) handleDocumentSave(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.services.KV == nil {
		return errorResult(fmt.Errorf("no document store is configured")), nil
	}
	key, err := s.services.Store.Save(ctx, s.services.KV)
	if err != nil {
		return errorResult(err), nil
	}
	doc := s.services.Store.Document()
	return textResult("Saved %s with %d fields as %s\nRestore it with document_restore id=%s",
		doc.Name, len(doc.Fields), key, doc.ID), nil
}

func (s *Server) handleDocumentRestore(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.services.KV == nil {
		return errorResult(fmt.Errorf("no document store is configured")), nil
	}

	id := strings.TrimSpace(request.GetString("id", ""))
	if id == "" {
		ids, err := editor.ListSaved(ctx, s.services.KV)
		if err != nil {
			return errorResult(err), nil
		}
		if len(ids) == 0 {
			return textResult("No saved documents"), nil
		}
		return textResult("Saved documents (%d):\n  %s", len(ids), strings.Join(ids, "\n  ")), nil
	}

	previous := s.services.Store.Document()
	doc, err := s.services.Store.Restore(ctx, s.services.KV, id)
	if err != nil {
		return errorResult(err), nil
	}
	if previous != nil && s.services.Renderer != nil {
		s.services.Renderer.Invalidate(previous.ID)
	}
	if pages, err := s.probe(doc.File); err == nil {
		_ = s.services.Store.UpdateTotalPages(pages)
	}
	return textResult("Restored %s (%d fields, %d pages)", doc.Name, len(doc.Fields), s.services.Store.TotalPages()), nil
}

func (s *Server) handlePageRender(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.services.Renderer == nil {
		return errorResult(fmt.Errorf("page rendering is not available")), nil
	}
	doc := s.services.Store.Document()
	if doc == nil {
		return errorResult(editor.ErrNoDocument), nil
	}

	page := request.GetInt("page", s.services.Store.CurrentPage())
	zoom := request.GetFloat("zoom", s.services.Mapper.Viewport().Zoom)
	scale := zoom * s.config.RenderDPI / render.BaseDPI

	p, err := s.services.Renderer.RenderPage(ctx, doc.ID, doc.File, page, scale)
	if err != nil {
		return errorResult(err), nil
	}

	caption := fmt.Sprintf("Page %d of %s at %.0f%% (%dx%d px)", p.Number, doc.Name, zoom*100, p.Width, p.Height)
	if n := len(doc.FieldsOnPage(page)); n > 0 {
		caption += fmt.Sprintf(", %d field(s) on this page", n)
	}
	return mcp.NewToolResultImage(caption, base64.StdEncoding.EncodeToString(p.PNG), "image/png"), nil
}

// documentSummary describes the loaded document for server_info
func documentSummary(doc *form.Document, currentPage, totalPages int, tool form.Kind) string {
	if doc == nil {
		return "📄 Document: none loaded\n"
	}
	text := fmt.Sprintf("📄 Document: %s (%s)\n", doc.Name, doc.ID)
	text += fmt.Sprintf("   Page %d of %d, %d fields (%d configured, %d pending)\n",
		currentPage, totalPages, len(doc.Fields), len(doc.ConfiguredFields()), len(doc.PendingFields()))
	if tool != "" {
		text += fmt.Sprintf("   Armed tool: %s\n", tool)
	}
	return text
}
