package mcp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Shashank-Shivakumar/Docfly/internal/chat"
	"github.com/Shashank-Shivakumar/Docfly/internal/descriptions"
)

var errChatDisabled = errors.New("the chat backend is not configured")

func (s *Server) registerChatTools() {
	s.addTool(mcp.NewTool("chat_forms",
		mcp.WithDescription(descriptions.GetToolDescription("chat_forms")),
	), s.handleChatForms)

	s.addTool(mcp.NewTool("chat_start",
		mcp.WithDescription(descriptions.GetToolDescription("chat_start")),
		mcp.WithString("form", mcp.Description("Form name from chat_forms; empty starts the sample survey")),
	), s.handleChatStart)

	s.addTool(mcp.NewTool("chat_answer",
		mcp.WithDescription(descriptions.GetToolDescription("chat_answer")),
		mcp.WithString("answer", mcp.Required(), mcp.Description("Answer text, or an option number")),
	), s.handleChatAnswer)

	s.addTool(mcp.NewTool("chat_reset",
		mcp.WithDescription(descriptions.GetToolDescription("chat_reset")),
	), s.handleChatReset)

	s.addTool(mcp.NewTool("chat_download",
		mcp.WithDescription(descriptions.GetToolDescription("chat_download")),
		mcp.WithString("output_dir", mcp.Description("Directory to save to, inside the work directory")),
	), s.handleChatDownload)
}

func (s *Server) handleChatForms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.services.Chat == nil {
		return errorResult(errChatDisabled), nil
	}
	forms, err := s.services.Chat.LoadForms(ctx)
	if err != nil {
		return errorResult(fmt.Errorf("%s: %w", chat.MsgFormsFailed, err)), nil
	}
	if len(forms) == 0 {
		return textResult("No forms available"), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Available forms (%d):\n", len(forms))
	for i, name := range forms {
		fmt.Fprintf(&b, "%d. %s\n", i+1, name)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleChatStart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.services.Chat == nil {
		return errorResult(errChatDisabled), nil
	}
	var err error
	if name := strings.TrimSpace(request.GetString("form", "")); name != "" {
		err = s.services.Chat.StartForm(ctx, name)
	} else {
		err = s.services.Chat.StartSurvey(ctx)
	}
	if err != nil {
		return errorResult(s.chatError(err)), nil
	}
	return mcp.NewToolResultText(s.chatStatus()), nil
}

func (s *Server) handleChatAnswer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.services.Chat == nil {
		return errorResult(errChatDisabled), nil
	}
	answer, err := request.RequireString("answer")
	if err != nil {
		return errorResult(err), nil
	}

	session := s.services.Chat
	if q := session.Question(); q != nil && q.IsCheckList() {
		if n, convErr := strconv.Atoi(strings.TrimSpace(answer)); convErr == nil {
			err = session.Choose(ctx, n)
		} else {
			err = session.Submit(ctx, answer)
		}
	} else {
		err = session.Submit(ctx, answer)
	}
	if err != nil {
		return errorResult(s.chatError(err)), nil
	}
	return mcp.NewToolResultText(s.chatStatus()), nil
}

func (s *Server) handleChatReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.services.Chat == nil {
		return errorResult(errChatDisabled), nil
	}
	s.services.Chat.Reset()
	return textResult("%s", chat.MsgWelcomeBack), nil
}

func (s *Server) handleChatDownload(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.services.Chat == nil {
		return errorResult(errChatDisabled), nil
	}
	dir, err := s.services.Paths.Resolve(request.GetString("output_dir", "."))
	if err != nil {
		return errorResult(err), nil
	}
	path, err := s.services.Chat.DownloadResult(ctx, dir)
	if err != nil {
		return errorResult(s.chatError(err)), nil
	}
	return textResult("Saved the filled form to %s", path), nil
}

// chatError pairs a failure with the last bot message, which explains it to
// the user
func (s *Server) chatError(err error) error {
	if errors.Is(err, chat.ErrBusy) || errors.Is(err, chat.ErrNoQuestion) {
		return err
	}
	msgs := s.services.Chat.Messages()
	if n := len(msgs); n > 0 && msgs[n-1].Role == chat.RoleBot {
		return fmt.Errorf("%s (%w)", msgs[n-1].Content, err)
	}
	return err
}

// chatStatus describes where the conversation stands
func (s *Server) chatStatus() string {
	session := s.services.Chat
	var b strings.Builder
	switch session.State() {
	case chat.StateAwaitingAnswer:
		q := session.Question()
		p := session.Progress()
		fmt.Fprintf(&b, "💬 %s", session.Form())
		if p.Total > 0 {
			fmt.Fprintf(&b, " (question %d of %d)", p.Current, p.Total)
		}
		b.WriteString("\n\n")
		if q != nil {
			b.WriteString(q.Prompt())
			b.WriteString("\n")
			for i, opt := range q.Options() {
				fmt.Fprintf(&b, "  %d. %s\n", i+1, opt)
			}
		}
	case chat.StateCompleted:
		fmt.Fprintf(&b, "✅ %s\n", session.Completion())
		b.WriteString(chat.MsgSaved + "\n")
		if session.DownloadURL() != "" {
			b.WriteString(chat.MsgReady + " Use chat_download to save it.\n")
		}
	default:
		b.WriteString(chat.MsgWelcomeBack + "\n")
	}
	return b.String()
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := s.config
	var b strings.Builder
	fmt.Fprintf(&b, "🖥️  %s v%s\n", cfg.ServerName, cfg.Version)
	fmt.Fprintf(&b, "   Work directory: %s\n", cfg.WorkDir)
	fmt.Fprintf(&b, "   Store: %s\n", cfg.StorePath)
	fmt.Fprintf(&b, "   Max file size: %d bytes, history limit %d\n", cfg.MaxFileSize, cfg.HistoryLimit)
	fmt.Fprintf(&b, "   Zoom: %.0f%%\n\n", s.services.Mapper.Viewport().Zoom*100)

	store := s.services.Store
	b.WriteString(documentSummary(store.Document(), store.CurrentPage(), store.TotalPages(), store.Tool()))
	length, index := store.History()
	fmt.Fprintf(&b, "   History: %d/%d (undo %t, redo %t)\n\n", index+1, length, store.CanUndo(), store.CanRedo())

	if s.services.Renderer != nil {
		stats := s.services.Renderer.CacheStats()
		fmt.Fprintf(&b, "🖼️  Render cache: %d/%d pages, %.1f%% hit rate\n\n", stats.Size, stats.Capacity, stats.HitRate)
	}

	if s.services.Chat != nil {
		fmt.Fprintf(&b, "💬 Chat: %s", s.services.Chat.State())
		if form := s.services.Chat.Form(); form != "" {
			fmt.Fprintf(&b, " (%s)", form)
		}
		fmt.Fprintf(&b, " at %s\n\n", cfg.ChatBaseURL)
	} else {
		b.WriteString("💬 Chat: disabled\n\n")
	}

	tools := s.Tools()
	fmt.Fprintf(&b, "🔧 Tools (%d):\n", len(tools))
	for _, name := range tools {
		fmt.Fprintf(&b, "   • %s: %s\n", name, descriptions.Summary(name))
	}
	return mcp.NewToolResultText(b.String()), nil
}
