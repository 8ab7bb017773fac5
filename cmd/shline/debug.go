package main

import (
	"encoding/json"
	"expvar"
	"log/slog"
	"net"
	"net/http"
	"net/http/pprof"
	"runtime"

	"github.com/vito/shline/pkg/editor"
)

// editorVars is the JSON shape of the editor counters.
type editorVars struct {
	Lines        int        `json:"lines"`
	Renders      int        `json:"renders"`
	FullRedraws  int        `json:"full_redraws"`
	DecodeErrors int        `json:"decode_errors"`
	LastRender   renderVars `json:"last_render"`
}

type renderVars struct {
	TotalUs      int64 `json:"total_us"`
	DiffUs       int64 `json:"diff_us"`
	WriteUs      int64 `json:"write_us"`
	ContentRows  int   `json:"content_rows"`
	VisibleRows  int   `json:"visible_rows"`
	RowsChanged  int   `json:"rows_changed"`
	FullRedraw   bool  `json:"full_redraw"`
	BytesWritten int   `json:"bytes_written"`
}

func newEditorVars(st editor.Stats) editorVars {
	r := st.LastRender
	return editorVars{
		Lines:        st.Lines,
		Renders:      st.Renders,
		FullRedraws:  st.FullRedraws,
		DecodeErrors: st.DecodeErrors,
		LastRender: renderVars{
			TotalUs:      r.TotalTime.Microseconds(),
			DiffUs:       r.DiffTime.Microseconds(),
			WriteUs:      r.WriteTime.Microseconds(),
			ContentRows:  r.ContentRows,
			VisibleRows:  r.VisibleRows,
			RowsChanged:  r.RowsChanged,
			FullRedraw:   r.FullRedraw,
			BytesWritten: r.BytesWritten,
		},
	}
}

// debugMux serves pprof, expvar and the editor counters.
func debugMux(ed *editor.Editor) *http.ServeMux {
	m := http.NewServeMux()
	m.Handle("/debug/vars", expvar.Handler())
	m.Handle("/debug/pprof/", http.HandlerFunc(pprof.Index))
	m.Handle("/debug/pprof/cmdline", http.HandlerFunc(pprof.Cmdline))
	m.Handle("/debug/pprof/profile", http.HandlerFunc(pprof.Profile))
	m.Handle("/debug/pprof/symbol", http.HandlerFunc(pprof.Symbol))
	m.Handle("/debug/pprof/trace", http.HandlerFunc(pprof.Trace))
	m.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))

	m.Handle("/debug/editor", http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(rw).Encode(newEditorVars(ed.Stats())); err != nil {
			slog.Debug("write editor stats", "err", err)
		}
	}))

	m.Handle("/debug/gc", http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		runtime.GC()
		slog.Warn("triggered GC from debug endpoint")
	}))
	return m
}

// setupDebugHandlers publishes the editor counters under the "editor"
// expvar and serves debugMux on addr.
func setupDebugHandlers(addr string, ed *editor.Editor) error {
	expvar.Publish("editor", expvar.Func(func() any {
		return newEditorVars(ed.Stats())
	}))

	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	slog.Info("debug handlers listening", "debugAddr", addr)
	go http.Serve(l, debugMux(ed)) //nolint:errcheck
	return nil
}
