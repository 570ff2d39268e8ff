package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Shashank-Shivakumar/Docfly/internal/descriptions"
	"github.com/Shashank-Shivakumar/Docfly/internal/editor"
	"github.com/Shashank-Shivakumar/Docfly/internal/form"
	"github.com/Shashank-Shivakumar/Docfly/internal/placement"
)

func (s *Server) registerFieldTools() {
	kinds := make([]string, 0, len(form.Kinds())+1)
	for _, k := range form.Kinds() {
		kinds = append(kinds, string(k))
	}

	s.addTool(mcp.NewTool("field_tool_select",
		mcp.WithDescription(descriptions.GetToolDescription("field_tool_select")),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("Field type to arm, or \"none\" to disarm"),
			mcp.Enum(append(kinds, "none")...),
		),
	), s.handleToolSelect)

	s.addTool(mcp.NewTool("field_place",
		mcp.WithDescription(descriptions.GetToolDescription("field_place")),
		mcp.WithNumber("client_x", mcp.Required(), mcp.Description("Pointer X in client pixels")),
		mcp.WithNumber("client_y", mcp.Required(), mcp.Description("Pointer Y in client pixels")),
		mcp.WithNumber("container_left", mcp.Description("Left edge of the page container in client pixels")),
		mcp.WithNumber("container_top", mcp.Description("Top edge of the page container in client pixels")),
	), s.handleFieldPlace)

	s.addTool(mcp.NewTool("field_add",
		mcp.WithDescription(descriptions.GetToolDescription("field_add")),
		mcp.WithString("type", mcp.Required(), mcp.Description("Field type"), mcp.Enum(kinds...)),
		mcp.WithNumber("x", mcp.Required(), mcp.Description("X position in page points")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("Y position in page points")),
		mcp.WithNumber("page", mcp.Description("Page number (defaults to the current page)")),
	), s.handleFieldAdd)

	s.addTool(mcp.NewTool("field_update",
		mcp.WithDescription(descriptions.GetToolDescription("field_update")),
		mcp.WithString("id", mcp.Required(), mcp.Description("Field id")),
		mcp.WithString("update", mcp.Required(), mcp.Description("JSON object with the members to change")),
	), s.handleFieldUpdate)

	s.addTool(mcp.NewTool("field_move",
		mcp.WithDescription(descriptions.GetToolDescription("field_move")),
		mcp.WithString("id", mcp.Required(), mcp.Description("Field id")),
		mcp.WithNumber("x", mcp.Required(), mcp.Description("New X position in page points")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("New Y position in page points")),
	), s.handleFieldMove)

	s.addTool(mcp.NewTool("field_resize",
		mcp.WithDescription(descriptions.GetToolDescription("field_resize")),
		mcp.WithString("id", mcp.Required(), mcp.Description("Field id")),
		mcp.WithString("corner", mcp.Required(), mcp.Description("Resize handle"), mcp.Enum("nw", "ne", "sw", "se")),
		mcp.WithNumber("dx", mcp.Required(), mcp.Description("Horizontal pointer delta in client pixels")),
		mcp.WithNumber("dy", mcp.Required(), mcp.Description("Vertical pointer delta in client pixels")),
	), s.handleFieldResize)

	s.addTool(mcp.NewTool("field_set_value",
		mcp.WithDescription(descriptions.GetToolDescription("field_set_value")),
		mcp.WithString("id", mcp.Required(), mcp.Description("Field id")),
		mcp.WithString("value", mcp.Required(), mcp.Description("Value to enter")),
	), s.handleFieldSetValue)

	s.addTool(mcp.NewTool("field_delete",
		mcp.WithDescription(descriptions.GetToolDescription("field_delete")),
		mcp.WithString("id", mcp.Required(), mcp.Description("Field id")),
	), s.handleFieldDelete)

	s.addTool(mcp.NewTool("fields_clear",
		mcp.WithDescription(descriptions.GetToolDescription("fields_clear")),
	), s.handleFieldsClear)

	s.addTool(mcp.NewTool("fields_list",
		mcp.WithDescription(descriptions.GetToolDescription("fields_list")),
		mcp.WithNumber("page", mcp.Description("Only list fields on this page")),
		mcp.WithBoolean("json", mcp.Description("Return the fields as JSON")),
	), s.handleFieldsList)

	s.addTool(mcp.NewTool("field_select",
		mcp.WithDescription(descriptions.GetToolDescription("field_select")),
		mcp.WithString("id", mcp.Description("Field id; empty clears the selection")),
	), s.handleFieldSelect)
}

func (s *Server) handleToolSelect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("type")
	if err != nil {
		return errorResult(err), nil
	}
	if strings.EqualFold(strings.TrimSpace(name), "none") {
		if err := s.services.Store.SetTool(""); err != nil {
			return errorResult(err), nil
		}
		return textResult("Field tool disarmed"), nil
	}
	kind, err := form.ParseKind(name)
	if err != nil {
		return errorResult(err), nil
	}
	if err := s.services.Store.SetTool(kind); err != nil {
		return errorResult(err), nil
	}
	return textResult("Armed %s tool; the next field_place creates a %s field on page %d",
		kind, kind, s.services.Store.CurrentPage()), nil
}

func (s *Server) handleFieldPlace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cx, err := request.RequireFloat("client_x")
	if err != nil {
		return errorResult(err), nil
	}
	cy, err := request.RequireFloat("client_y")
	if err != nil {
		return errorResult(err), nil
	}

	m := s.services.Mapper
	view := m.Viewport()
	m.SetContainer(
		request.GetFloat("container_left", view.Left),
		request.GetFloat("container_top", view.Top),
	)

	f, err := m.Place(cx, cy)
	if err != nil {
		return errorResult(err), nil
	}
	return textResult("Placed %s", describeField(f)), nil
}

func (s *Server) handleFieldAdd(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("type")
	if err != nil {
		return errorResult(err), nil
	}
	kind, err := form.ParseKind(name)
	if err != nil {
		return errorResult(err), nil
	}
	x, err := request.RequireFloat("x")
	if err != nil {
		return errorResult(err), nil
	}
	y, err := request.RequireFloat("y")
	if err != nil {
		return errorResult(err), nil
	}
	page := request.GetInt("page", s.services.Store.CurrentPage())

	f, err := s.services.Store.AddField(form.NewField(kind, x, y, page, s.now()))
	if err != nil {
		return errorResult(err), nil
	}
	return textResult("Added %s", describeField(f)), nil
}

// fieldUpdateRequest is the wire form of a field_update patch. The variant
// stays raw until the field's kind is known.
type fieldUpdateRequest struct {
	form.FieldUpdate
	Variant json.RawMessage `json:"variant,omitempty"`
}

func (s *Server) handleFieldUpdate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return errorResult(err), nil
	}
	raw, err := request.RequireString("update")
	if err != nil {
		return errorResult(err), nil
	}

	var in fieldUpdateRequest
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return errorResult(fmt.Errorf("invalid update JSON: %w", err)), nil
	}

	f, ok := s.services.Store.Field(id)
	if !ok {
		return textResult("No field with id %s; nothing changed", id), nil
	}

	update := in.FieldUpdate
	if len(in.Variant) > 0 {
		v, err := form.DecodeVariant(f.Kind, in.Variant)
		if err != nil {
			return errorResult(err), nil
		}
		update.Variant = v
	}

	changed, err := s.services.Store.UpdateField(id, update)
	if err != nil {
		return errorResult(err), nil
	}
	if !changed {
		return textResult("Field %s unchanged", id), nil
	}
	f, _ = s.services.Store.Field(id)
	return textResult("Updated %s", describeField(f)), nil
}

func (s *Server) handleFieldMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return errorResult(err), nil
	}
	x, err := request.RequireFloat("x")
	if err != nil {
		return errorResult(err), nil
	}
	y, err := request.RequireFloat("y")
	if err != nil {
		return errorResult(err), nil
	}

	f, ok := s.services.Store.Field(id)
	if !ok {
		return errorResult(fmt.Errorf("%w: %s", placement.ErrFieldNotFound, id)), nil
	}

	m := s.services.Mapper
	view := m.Viewport()
	startX, startY := view.ToClient(f.X, f.Y)
	g, err := m.BeginDrag(id, startX, startY)
	if err != nil {
		return errorResult(err), nil
	}
	defer g.End()

	endX, endY := view.ToClient(x, y)
	if err := g.Move(endX, endY); err != nil {
		return errorResult(err), nil
	}
	g.End()

	f, _ = s.services.Store.Field(id)
	return textResult("Moved %s", describeField(f)), nil
}

func (s *Server) handleFieldResize(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return errorResult(err), nil
	}
	name, err := request.RequireString("corner")
	if err != nil {
		return errorResult(err), nil
	}
	corner, err := placement.ParseCorner(name)
	if err != nil {
		return errorResult(err), nil
	}
	dx, err := request.RequireFloat("dx")
	if err != nil {
		return errorResult(err), nil
	}
	dy, err := request.RequireFloat("dy")
	if err != nil {
		return errorResult(err), nil
	}

	g, err := s.services.Mapper.BeginResize(id, corner, 0, 0)
	if err != nil {
		return errorResult(err), nil
	}
	defer g.End()

	if err := g.Move(dx, dy); err != nil {
		return errorResult(err), nil
	}
	g.End()

	f, _ := s.services.Store.Field(id)
	return textResult("Resized %s", describeField(f)), nil
}

func (s *Server) handleFieldSetValue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return errorResult(err), nil
	}
	value, err := request.RequireString("value")
	if err != nil {
		return errorResult(err), nil
	}
	f, err := s.services.Mapper.SetValue(id, value)
	if err != nil {
		return errorResult(err), nil
	}
	return textResult("Set value of %s", describeField(f)), nil
}

func (s *Server) handleFieldDelete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return errorResult(err), nil
	}
	deleted, err := s.services.Store.DeleteField(id)
	if err != nil {
		return errorResult(err), nil
	}
	if !deleted {
		return textResult("No field with id %s; nothing deleted", id), nil
	}
	return textResult("Deleted field %s", id), nil
}

func (s *Server) handleFieldsClear(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc := s.services.Store.Document()
	if doc == nil {
		return errorResult(editor.ErrNoDocument), nil
	}
	n := len(doc.Fields)
	if err := s.services.Store.ClearAllFields(); err != nil {
		return errorResult(err), nil
	}
	return textResult("Removed %d field(s)", n), nil
}

func (s *Server) handleFieldsList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc := s.services.Store.Document()
	if doc == nil {
		return errorResult(editor.ErrNoDocument), nil
	}

	fields := doc.Fields
	page := request.GetInt("page", 0)
	if page > 0 {
		fields = doc.FieldsOnPage(page)
	}
	if request.GetBool("json", false) {
		if fields == nil {
			fields = []form.Field{}
		}
		return jsonResult(fields), nil
	}

	var b strings.Builder
	if page > 0 {
		fmt.Fprintf(&b, "Fields on page %d: %d\n", page, len(fields))
	} else {
		fmt.Fprintf(&b, "Fields: %d (%d configured, %d pending)\n",
			len(fields), len(doc.ConfiguredFields()), len(doc.PendingFields()))
	}
	selected, hasSelection := s.services.Store.Selected()
	for _, f := range fields {
		marker := " "
		if hasSelection && f.ID == selected.ID {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %s\n", marker, describeField(f))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleFieldSelect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(request.GetString("id", ""))
	if err := s.services.Store.Select(id); err != nil {
		return errorResult(err), nil
	}
	if id == "" {
		return textResult("Selection cleared"), nil
	}
	f, _ := s.services.Store.Selected()
	return textResult("Selected %s", describeField(f)), nil
}

// describeField renders a one-line summary of a field
func describeField(f form.Field) string {
	name := f.Properties.Name
	if name == "" {
		name = "(unnamed)"
	}
	status := "pending"
	if f.IsConfigured {
		status = "configured"
	}
	text := fmt.Sprintf("%s field %s %q on page %d at (%.1f, %.1f) size %.1fx%.1f, %s",
		f.Kind, f.ID, name, f.PageNumber, f.X, f.Y, f.Width, f.Height, status)
	if f.Properties.Required {
		text += ", required"
	}
	if v := f.Properties.Value; v != "" {
		text += fmt.Sprintf(", value %q", v)
	}
	return text
}
