// Package server provides the HTTP API of the runner daemon.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/grovetools/runner/errors"
	"github.com/grovetools/runner/internal/daemon/engine"
	"github.com/grovetools/runner/pkg/models"
)

// Focuser brings a session's terminal to the foreground.
type Focuser interface {
	Focus(ctx context.Context, entry models.SessionEntry) error
}

// Server manages the daemon's HTTP server over a Unix socket.
type Server struct {
	logger        *logrus.Entry
	mu            sync.Mutex
	server        *http.Server
	engine        *engine.Engine
	focuser       Focuser
	runningConfig *models.RunningConfig
	watcherMode   func() string
	upgrader      websocket.Upgrader
}

// New creates a new Server instance.
func New(logger *logrus.Entry) *Server {
	return &Server{
		logger: logger,
		upgrader: websocket.Upgrader{
			// Only local processes can reach the socket.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// SetEngine sets the engine whose store and dispatcher back the API.
func (s *Server) SetEngine(eng *engine.Engine) {
	s.engine = eng
}

// SetFocuser sets the strategy used by the focus endpoint.
func (s *Server) SetFocuser(f Focuser) {
	s.focuser = f
}

// SetRunningConfig sets the configuration reported by /api/config. mode, if
// non-nil, supplies the current watcher mode on every request.
func (s *Server) SetRunningConfig(cfg *models.RunningConfig, mode func() string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runningConfig = cfg
	s.watcherMode = mode
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /api/state", s.handleGetState)
	mux.HandleFunc("GET /api/sessions", s.handleGetSessions)
	mux.HandleFunc("GET /api/counts", s.handleGetCounts)
	mux.HandleFunc("POST /api/reload", s.handleReload)
	mux.HandleFunc("GET /api/stream", s.handleStreamState)
	mux.HandleFunc("GET /api/ws", s.handleWebsocket)
	mux.HandleFunc("GET /api/config", s.handleGetConfig)
	mux.HandleFunc("POST /api/sessions/{id}/focus", s.handleFocus)

	return mux
}

// ListenAndServe starts the daemon on the given unix socket path.
// It blocks until the server stops or fails.
func (s *Server) ListenAndServe(socketPath string) error {
	// Cleanup stale socket
	if _, err := os.Stat(socketPath); err == nil {
		if err := os.Remove(socketPath); err != nil {
			return fmt.Errorf("failed to remove stale socket: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(socketPath), 0755); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket: %w", err)
	}

	// Set restrictive permissions on socket
	if err := os.Chmod(socketPath, 0600); err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	srv := &http.Server{
		Handler: h2c.NewHandler(s.Handler(), &http2.Server{}),
	}
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	s.logger.WithField("socket", socketPath).Info("Daemon listening")
	err = srv.Serve(listener)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}

func (s *Server) ready(w http.ResponseWriter) bool {
	if s.engine == nil {
		http.Error(w, "engine not initialized", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	rerr, ok := err.(*errors.RunnerError)
	if !ok {
		rerr = errors.Wrap(err, errors.GetCode(err), err.Error())
		if rerr.Code == "" {
			rerr.Code = errors.ErrCodeInternal
		}
	}
	writeJSON(w, status, rerr)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) {
		return
	}
	writeJSON(w, http.StatusOK, models.NewStateResponse(s.engine.Store().Current()))
}

func (s *Server) handleGetSessions(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) {
		return
	}
	entries := s.engine.Store().Current().Entries
	if entries == nil {
		entries = []models.SessionEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGetCounts(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) {
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Store().Current().Counts)
}

// handleReload rescans the sessions directory before answering.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) {
		return
	}
	snap := s.engine.Store().Reload()
	s.logger.WithField("sessions", len(snap.Entries)).Debug("Reload requested by client")
	writeJSON(w, http.StatusOK, models.NewStateResponse(snap))
}

// handleStreamState provides Server-Sent Events for every changed snapshot.
// The subscription is primed, so the current state is always sent first.
func (s *Server) handleStreamState(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	st := s.engine.Store()
	ch := st.Subscribe()
	defer st.Unsubscribe(ch)

	// Send initial ping to confirm connection
	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	s.logger.Debug("SSE client connected")

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case snap, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(models.NewStateResponse(snap))
			if err != nil {
				s.logger.WithError(err).Error("Failed to marshal state")
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// handleWebsocket pushes snapshots and alerts as StreamMessages.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Debug("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	st := s.engine.Store()
	snaps := st.Subscribe()
	defer st.Unsubscribe(snaps)

	var alerts chan models.Alert
	if d := s.engine.Dispatcher(); d != nil {
		alerts = d.Subscribe()
		defer d.Unsubscribe(alerts)
	}

	// The reader only exists to notice the peer going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	s.logger.Debug("Websocket client connected")
	for {
		var msg models.StreamMessage
		select {
		case <-closed:
			s.logger.Debug("Websocket client disconnected")
			return
		case <-r.Context().Done():
			return
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			msg = models.StreamMessage{Type: models.MsgSnapshot, Payload: models.NewStateResponse(snap)}
		case alert, ok := <-alerts:
			if !ok {
				alerts = nil
				continue
			}
			msg = models.StreamMessage{Type: models.MsgAlert, Payload: alert}
		}
		if err := conn.WriteJSON(msg); err != nil {
			s.logger.WithError(err).Debug("Websocket write failed")
			return
		}
	}
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	running, mode := s.runningConfig, s.watcherMode
	s.mu.Unlock()
	if running == nil {
		http.Error(w, "config not initialized", http.StatusServiceUnavailable)
		return
	}
	cfg := *running
	if mode != nil {
		cfg.WatcherMode = mode()
	}
	writeJSON(w, http.StatusOK, cfg)
}

// handleFocus focuses the terminal of a known session.
func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) {
		return
	}
	id := r.PathValue("id")
	entry, ok := models.FindByID(s.engine.Store().Current().Entries, id)
	if !ok {
		writeError(w, http.StatusNotFound, errors.SessionNotFound(id))
		return
	}
	if s.focuser == nil {
		writeError(w, http.StatusConflict, errors.FocusUnsupported(id, entry.TerminalBundleID))
		return
	}

	if err := s.focuser.Focus(r.Context(), entry); err != nil {
		switch errors.GetCode(err) {
		case errors.ErrCodeFocusUnsupported:
			writeError(w, http.StatusConflict, err)
		case errors.ErrCodeSessionNotFound:
			writeError(w, http.StatusNotFound, err)
		default:
			s.logger.WithError(err).WithField("session", id).Warn("Focus failed")
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
