package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"writeit/internal/domain"
	"writeit/internal/editor"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server exposes read-only note tools over MCP
type Server struct {
	ws *editor.Workspace
}

func NewMCPServer(ws *editor.Workspace) *Server {
	return &Server{ws: ws}
}

func (s *Server) listNotesHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notes, err := s.ws.ListNotes()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("database error: %v", err)), nil
	}
	if len(notes) == 0 {
		return mcp.NewToolResultText("No notes found."), nil
	}

	var lines []string
	for _, n := range notes {
		lines = append(lines, fmt.Sprintf("[%d] %s", n.ID, n.Title))
	}
	return mcp.NewToolResultText(fmt.Sprintf("Found %d notes:\n%s", len(notes), strings.Join(lines, "\n"))), nil
}

func (s *Server) recentNotesHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", 0)
	if limit < 0 {
		return mcp.NewToolResultError("limit must be positive"), nil
	}

	notes, err := s.ws.RecentNotes(limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("database error: %v", err)), nil
	}
	if len(notes) == 0 {
		return mcp.NewToolResultText("No notes found."), nil
	}

	var lines []string
	for _, n := range notes {
		lines = append(lines, fmt.Sprintf("[%d] %s (updated %s)", n.ID, n.Title, n.UpdatedAt.Format(time.RFC3339)))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getNoteHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError("id is required"), nil
	}

	v, err := s.ws.View(int64(id))
	if errors.Is(err, domain.ErrNotFound) {
		return mcp.NewToolResultError("note not found"), nil
	} else if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("database error: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", v.Title)
	if !v.UpdatedAt.IsZero() {
		fmt.Fprintf(&b, "Updated: %s\n", v.UpdatedAt.Format(time.RFC3339))
	}
	if v.Warning != nil {
		b.WriteString("Note: some formatting could not be restored.\n")
	}
	b.WriteString("\n")
	b.WriteString(v.Doc.PlainText("[image]"))
	return mcp.NewToolResultText(b.String()), nil
}

// Handler builds the stateless streamable HTTP endpoint
func (s *Server) Handler() *server.StreamableHTTPServer {
	mcpServer := server.NewMCPServer("WriteIt", "1.0.0")

	mcpServer.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List every note as id and title, most recently updated first."),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	), s.listNotesHandler)

	mcpServer.AddTool(mcp.NewTool("recent_notes",
		mcp.WithDescription("List the most recently updated notes."),
		mcp.WithNumber("limit", mcp.Description("How many notes to return; defaults to the configured recent limit")),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	), s.recentNotesHandler)

	mcpServer.AddTool(mcp.NewTool("get_note",
		mcp.WithDescription("Read one note as plain text. Inline images appear as [image]."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("The note id, as shown by list_notes")),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	), s.getNoteHandler)

	return server.NewStreamableHTTPServer(mcpServer, server.WithStateLess(true))
}
