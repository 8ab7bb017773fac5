package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vito/shline/pkg/editor"
	"github.com/vito/shline/pkg/render/vttest"
)

func TestDebugEditorStats(t *testing.T) {
	term := vttest.NewTerm(40, 10)
	ed, err := editor.New(term, editor.Config{Env: []string{"TERM=xterm-256color", "LANG=en_US.UTF-8"}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ed.Close() })

	term.Type("\x1b]0;title\x07\x1bP>|xterm\x1b\\pwd\r")
	line, err := ed.ReadLine(context.Background(), editor.PromptConfig{Prompt: editor.StaticPrompt("$ ", "> ")})
	require.NoError(t, err)
	assert.Equal(t, "pwd", line)

	srv := httptest.NewServer(debugMux(ed))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/debug/editor")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var vars editorVars
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&vars))
	assert.Equal(t, 1, vars.Lines)
	assert.Equal(t, 2, vars.DecodeErrors)
	assert.Positive(t, vars.Renders)
	assert.Positive(t, vars.LastRender.BytesWritten)
}
