// Package www serves the browser client: the session websocket, a health
// probe and the static page.
package www

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"node.town/parley/session"
	"node.town/parley/translate"
	"node.town/parley/tts"
)

const (
	writeWait       = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

var errClientClosed = errors.New("client closed")

type Server struct {
	Connector   session.Connector
	Translator  translate.Translator
	Synthesizer tts.Synthesizer
	Defaults    session.Config
	StaticDir   string

	// Health reports which provider keys are set.
	AssemblyAIConfigured bool
	OpenAIConfigured     bool

	// Logger reports listener and request failures. SessionLogger, when
	// set, is the parent of every connection's logger.
	Logger        *log.Logger
	SessionLogger *log.Logger

	upgrader websocket.Upgrader
}

func (s *Server) Router() *chi.Mux {
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1 << 14,
		WriteBufferSize: 1 << 14,
		CheckOrigin:     func(*http.Request) bool { return true },
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	static := http.NotFoundHandler()
	if s.StaticDir != "" {
		if info, err := os.Stat(s.StaticDir); err == nil && info.IsDir() {
			static = http.FileServer(http.Dir(s.StaticDir))
		} else {
			s.Logger.Warn("no static dir", "path", s.StaticDir)
		}
	}

	// Browsers open the session socket on the page root; /ws is an alias.
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		if websocket.IsWebSocketUpgrade(req) {
			s.handleSession(w, req)
			return
		}
		static.ServeHTTP(w, req)
	})
	r.Get("/ws", s.handleSession)
	r.Get("/api/health", s.handleHealth)
	r.Handle("/*", static)

	return r
}

// Serve listens on port until ctx is done, then shuts down. Live sessions
// are torn down with ctx.
func (s *Server) Serve(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", port),
		Handler:     s.Router(),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.Logger.Info("http", "url", fmt.Sprintf("http://localhost:%d", port))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

type health struct {
	Status     string `json:"status"`
	AssemblyAI string `json:"assemblyai"`
	OpenAI     string `json:"openai"`
}

func configured(ok bool) string {
	if ok {
		return "configured"
	}
	return "missing"
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(health{
		Status:     "ok",
		AssemblyAI: configured(s.AssemblyAIConfigured),
		OpenAI:     configured(s.OpenAIConfigured),
	})
	if err != nil {
		s.Logger.Error("write health", "error", err)
	}
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Logger.Error("upgrade", "error", err)
		return
	}

	parent := s.SessionLogger
	if parent == nil {
		parent = s.Logger
	}
	id := uuid.NewString()
	logger := parent.With("conn", id[:8])
	logger.Info("client connected", "remote", r.RemoteAddr)

	client := &Client{conn: conn}
	o := session.NewOrchestrator(
		client,
		s.Connector,
		s.Translator,
		s.Synthesizer,
		s.Defaults,
		logger,
	)

	inbox := make(chan session.Frame)
	done := make(chan struct{})
	go func() {
		defer close(done)
		o.Run(r.Context(), inbox)
		client.Close()
	}()

	received := readFrames(conn, inbox, done)
	close(inbox)
	<-done

	logger.Info(
		"client closed",
		"audio", humanize.Bytes(received),
		"dropped", o.Dropped(),
		"state", o.State(),
	)
}

// readFrames pumps client messages into inbox until the connection fails
// or the session is done. It returns the audio bytes read.
func readFrames(conn *websocket.Conn, inbox chan<- session.Frame, done <-chan struct{}) uint64 {
	var received uint64
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			return received
		}

		f := session.Frame{Binary: kind == websocket.BinaryMessage, Data: data}
		if f.Binary {
			received += uint64(len(data))
		}

		select {
		case inbox <- f:
		case <-done:
			return received
		}
	}
}

// Client is the browser side of a session. Writes are serialized and
// silently refused once the connection is closed.
type Client struct {
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
}

func (c *Client) Send(m session.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errClientClosed
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(m); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait),
	)
	return c.conn.Close()
}
