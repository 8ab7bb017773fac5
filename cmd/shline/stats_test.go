package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeRenderLog(t *testing.T) {
	log := strings.Join([]string{
		`{"ts":1,"total_us":100,"rows_changed":1,"visible_rows":3,"bytes_written":10}`,
		`not json`,
		`{"ts":2,"total_us":300,"rows_changed":3,"visible_rows":3,"bytes_written":50,"full_redraw":true}`,
		`{"ts":3,"total_us":200,"rows_changed":2,"visible_rows":3,"bytes_written":30,"scroll_lines":1}`,
	}, "\n")

	frames, err := readFrames(strings.NewReader(log))
	require.NoError(t, err)
	require.Len(t, frames, 3)

	var out bytes.Buffer
	summarize(&out, frames)
	text := ansi.Strip(out.String())

	assert.Regexp(t, `frames\s+3`, text)
	assert.Regexp(t, `full redraws\s+1`, text)
	assert.Regexp(t, `p50\s+200µs`, text)
	assert.Regexp(t, `max\s+300µs`, text)
	assert.Regexp(t, `bytes/frame\s+30`, text)
	assert.Regexp(t, `rows/frame\s+2.0`, text)
}

func TestSummarizeEmpty(t *testing.T) {
	var out bytes.Buffer
	summarize(&out, nil)
	assert.Regexp(t, `frames\s+0`, ansi.Strip(out.String()))
}
