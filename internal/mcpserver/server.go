// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Plume note operations for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vmoreira/plume/internal/models"
	"github.com/vmoreira/plume/internal/noteservice"
)

// Server wraps the MCP server with Plume tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all Plume tools registered.
func New(svc *noteservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Plume",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List live notes, newest first, pinned-filterable, paginated."),
		mcp.WithNumber("page", mcp.Description("Page number, starting at 1 (default 1)")),
		mcp.WithNumber("limit", mcp.Description("Page size (default 10)")),
		mcp.WithBoolean("pinned", mcp.Description("Only pinned (true) or only unpinned (false) notes; omit for all")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("list_deleted_notes",
		mcp.WithDescription("List soft-deleted notes, most recently deleted first, paginated."),
		mcp.WithNumber("page", mcp.Description("Page number, starting at 1 (default 1)")),
		mcp.WithNumber("limit", mcp.Description("Page size (default 10)")),
	), s.listDeletedNotes)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new note. An empty title becomes \"Untitled\"."),
		mcp.WithString("title", mcp.Description("Note title")),
		mcp.WithString("content", mcp.Description("Note body")),
		mcp.WithString("color", mcp.Description("Display color")),
		mcp.WithBoolean("pinned", mcp.Description("Create the note pinned")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("update_note",
		mcp.WithDescription("Partially update a note: only the provided fields change."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("content", mcp.Description("New body")),
		mcp.WithString("color", mcp.Description("New display color")),
		mcp.WithBoolean("pinned", mcp.Description("New pin state")),
	), s.updateNote)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Soft-delete a note: it moves to the trash and can be restored."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.deleteNote)

	s.mcp.AddTool(mcp.NewTool("restore_note",
		mcp.WithDescription("Restore a soft-deleted note from the trash."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.restoreNote)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func listParams(req mcp.CallToolRequest, deleted bool) models.ListParams {
	params := models.ListParams{
		Page:      req.GetInt("page", 1),
		Limit:     req.GetInt("limit", 10),
		IsDeleted: deleted,
	}
	if args := req.GetArguments(); args != nil {
		if _, ok := args["pinned"]; ok {
			pinned := req.GetBool("pinned", false)
			params.IsPinned = &pinned
		}
	}
	return params
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.ListNotes(ctx, listParams(req, false))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listDeletedNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := models.ListParams{
		Page:      req.GetInt("page", 1),
		Limit:     req.GetInt("limit", 10),
		IsDeleted: true,
	}
	res, err := s.svc.ListNotes(ctx, params)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	draft := models.NoteDraft{
		Title:    req.GetString("title", ""),
		Content:  req.GetString("content", ""),
		Color:    req.GetString("color", ""),
		IsPinned: req.GetBool("pinned", false),
	}
	note, err := s.svc.CreateNote(ctx, draft)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(note, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) updateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var upd models.NoteUpdate
	args := req.GetArguments()
	if _, ok := args["title"]; ok {
		v := req.GetString("title", "")
		upd.Title = &v
	}
	if _, ok := args["content"]; ok {
		v := req.GetString("content", "")
		upd.Content = &v
	}
	if _, ok := args["color"]; ok {
		v := req.GetString("color", "")
		upd.Color = &v
	}
	if _, ok := args["pinned"]; ok {
		v := req.GetBool("pinned", false)
		upd.IsPinned = &v
	}

	note, err := s.svc.UpdateNote(ctx, id, upd)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if note == nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(note, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.SoftDeleteNote(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) restoreNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.RestoreNote(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("restored: %s", id)), nil
}
