package mcp

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	"writeit/internal/editor"
	"writeit/internal/store/sqlstore"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Server, *editor.Workspace) {
	t.Helper()
	store, err := sqlstore.New("sqlite3", ":memory:", nil)
	require.NoError(t, err, "Failed to create store")
	t.Cleanup(func() { store.Close() })

	ws, err := editor.NewWorkspace(store)
	require.NoError(t, err)
	return NewMCPServer(ws), ws
}

func saveNote(t *testing.T, ws *editor.Workspace, title, content string) *editor.Session {
	t.Helper()
	s := ws.NewNote()
	require.NoError(t, s.InsertText(0, content))
	require.NoError(t, s.Save(title))
	return s
}

func call(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func text(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	textContent, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "Expected TextContent")
	return textContent.Text
}

func TestListNotesTool(t *testing.T) {
	srv, ws := setup(t)

	result, err := srv.listNotesHandler(context.Background(), call(nil))
	require.NoError(t, err)
	assert.Equal(t, "No notes found.", text(t, result))

	saveNote(t, ws, "Note 1", "one")
	saveNote(t, ws, "Note 2", "two")

	result, err = srv.listNotesHandler(context.Background(), call(nil))
	require.NoError(t, err)
	require.False(t, result.IsError)
	content := text(t, result)
	assert.Contains(t, content, "Found 2 notes")
	assert.Contains(t, content, "Note 1")
	assert.Contains(t, content, "Note 2")
}

func TestRecentNotesTool(t *testing.T) {
	srv, ws := setup(t)
	saveNote(t, ws, "Older", "a")
	saveNote(t, ws, "Newer", "b")

	result, err := srv.recentNotesHandler(context.Background(), call(map[string]interface{}{"limit": float64(1)}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	content := text(t, result)
	assert.NotContains(t, content, "\n")

	result, err = srv.recentNotesHandler(context.Background(), call(map[string]interface{}{"limit": float64(-1)}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestGetNoteTool(t *testing.T) {
	srv, ws := setup(t)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	s := ws.NewNote()
	require.NoError(t, s.InsertText(0, "before  after"))
	_, err := s.InsertImage(7, buf.Bytes())
	require.NoError(t, err)
	require.NoError(t, s.Save("With picture"))

	result, err := srv.getNoteHandler(context.Background(), call(map[string]interface{}{"id": float64(s.NoteID())}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	content := text(t, result)
	assert.Contains(t, content, "# With picture")
	assert.Contains(t, content, "before [image] after")

	result, err = srv.getNoteHandler(context.Background(), call(map[string]interface{}{"id": float64(404)}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = srv.getNoteHandler(context.Background(), call(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError, "Expected error for missing id")
}

func TestHandlerBuilds(t *testing.T) {
	srv, _ := setup(t)
	assert.NotNil(t, srv.Handler())
}
