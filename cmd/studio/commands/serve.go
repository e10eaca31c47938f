package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/canvasml/studio/pkg/preview"
	"github.com/canvasml/studio/pkg/streamparse"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Live preview server over HTTP + websocket",
	Long: `Serve starts a local server that accepts generation stream chunks over a
websocket and pushes lifecycle events and re-rendered previews back as the
project takes shape.

Endpoints:
  GET  /          minimal live-preview page
  GET  /preview   current preview markup
  GET  /ws        websocket: text messages in are chunks; JSON messages out
                  are {"event": ...} and {"preview": ...} frames`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8787", "listen address")
	rootCmd.AddCommand(serveCmd)
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 65536,
	// Local tool; the page may be opened from file:// as well.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// liveServer owns one parser and fans events out to connected sockets.
// parserMu serializes chunk processing (the parser is single-writer);
// connMu guards the socket set and may be taken while parserMu is held.
type liveServer struct {
	parserMu sync.Mutex
	parser   *streamparse.Parser
	reg      *preview.Registry

	connMu sync.Mutex
	conns  map[*websocket.Conn]struct{}
}

func newLiveServer() *liveServer {
	s := &liveServer{
		parser: streamparse.New(),
		reg:    preview.Default(),
		conns:  make(map[*websocket.Conn]struct{}),
	}
	s.parser.OnEvent(s.onEvent)
	return s
}

func (s *liveServer) onEvent(e streamparse.Event) {
	s.broadcast(map[string]any{"event": e})
	// Re-render once a file closes so the page tracks the stream.
	if e.Type == streamparse.EventFileEnd || e.Type == streamparse.EventProjectEnd {
		res := s.reg.Preview(context.Background(), s.parser.FS(), &preview.Options{ActiveFile: e.Path})
		if res.Success {
			s.broadcast(map[string]any{"preview": res.Markup})
		}
	}
}

func (s *liveServer) broadcast(frame map[string]any) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	s.connMu.Lock()
	defer s.connMu.Unlock()
	for c := range s.conns {
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			c.Close()
			delete(s.conns, c)
		}
	}
}

func (s *liveServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("serve: websocket upgrade failed", "err", err)
		return
	}
	s.connMu.Lock()
	s.conns[conn] = struct{}{}
	s.connMu.Unlock()

	defer func() {
		s.connMu.Lock()
		delete(s.conns, conn)
		s.connMu.Unlock()
		conn.Close()
	}()

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		s.parserMu.Lock()
		s.parser.ProcessChunk(string(data))
		s.parserMu.Unlock()
	}
}

func (s *liveServer) handlePreview(w http.ResponseWriter, r *http.Request) {
	// The VFS has its own lock; reading it does not contend with parsing.
	res := s.reg.Preview(r.Context(), s.parser.FS(), nil)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if !res.Success {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprintf(w, "<pre>preview failed: %v</pre>", res.Errors)
		return
	}
	fmt.Fprint(w, res.Markup)
}

func runServe(cmd *cobra.Command, args []string) error {
	s := newLiveServer()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/preview", s.handlePreview)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, livePage)
	})

	slog.Info("serve: listening", "addr", serveAddr)
	return http.ListenAndServe(serveAddr, mux)
}

const livePage = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>studio live preview</title>
<style>
body{margin:0;display:flex;height:100vh;font-family:system-ui,sans-serif}
#log{width:30%;overflow:auto;border-right:1px solid #ccc;padding:.5rem;font:12px ui-monospace,monospace}
#frame{flex:1;border:0}
</style>
</head>
<body>
<div id="log"></div>
<iframe id="frame" sandbox="allow-scripts"></iframe>
<script>
const log = document.getElementById('log');
const frame = document.getElementById('frame');
const ws = new WebSocket('ws://' + location.host + '/ws');
ws.onmessage = (m) => {
  const frameData = JSON.parse(m.data);
  if (frameData.preview !== undefined) {
    frame.srcdoc = frameData.preview;
    return;
  }
  const e = frameData.event;
  const line = document.createElement('div');
  line.textContent = e.type + (e.path ? ' ' + e.path : '');
  log.appendChild(line);
  log.scrollTop = log.scrollHeight;
};
</script>
</body>
</html>
`
