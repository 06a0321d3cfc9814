// Package api serves the journal over HTTP and streams save-status changes
// to WebSocket clients.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"tableflip.dev/chronos/pkg/app"
	"tableflip.dev/chronos/pkg/journal"
	"tableflip.dev/chronos/pkg/metrics"
	"tableflip.dev/chronos/pkg/scheduler"
)

// MessageType names a feed message.
type MessageType string

const (
	// MessageTypeSnapshot carries every known status, sent on connect.
	MessageTypeSnapshot MessageType = "snapshot"

	// MessageTypeStatus carries one status transition.
	MessageTypeStatus MessageType = "status"
)

// Message is one frame of the /ws feed.
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Config holds server configuration.
type Config struct {
	// Addr to listen on, host:port. Port 0 picks a free port.
	Addr string

	Logger *zap.SugaredLogger
}

// Server exposes a Session and its Scheduler over HTTP.
type Server struct {
	session *app.Session
	sched   *scheduler.Scheduler
	addr    string
	log     *zap.SugaredLogger

	listener net.Listener
	server   *http.Server

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]func()

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer returns a Server over session and sched.
func NewServer(session *app.Session, sched *scheduler.Scheduler, cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		session: session,
		sched:   sched,
		addr:    cfg.Addr,
		log:     cfg.Logger.Named("api"),
		clients: make(map[*websocket.Conn]func()),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/entries", s.handleListEntries)
	mux.HandleFunc("GET /api/entries/{date}", s.handleGetEntry)
	mux.HandleFunc("PUT /api/entries/{date}", s.handlePutEntry)
	mux.HandleFunc("GET /api/entries/{date}/share", s.handleShare)
	mux.HandleFunc("GET /api/checklist", s.handleGetChecklist)
	mux.HandleFunc("PUT /api/checklist", s.handlePutChecklist)
	mux.HandleFunc("POST /api/sync", s.handleSync)
	mux.HandleFunc("POST /api/flush", s.handleFlush)
	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/status", s.handleStatuses)
	mux.HandleFunc("GET /api/status/{key...}", s.handleStatus)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())
	return mux
}

// Start begins serving in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln

	s.server = &http.Server{
		Handler:     s.Handler(),
		ReadTimeout: 10 * time.Second,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.log.Infow("listening", "addr", ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Errorw("server error", "error", err)
		}
	}()
	return nil
}

// Stop closes every feed client and shuts the HTTP server down.
func (s *Server) Stop() error {
	s.cancel()

	s.clientsMu.Lock()
	for conn, unsubscribe := range s.clients {
		unsubscribe()
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		delete(s.clients, conn)
	}
	s.clientsMu.Unlock()

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}
	s.wg.Wait()
	return nil
}

// Addr returns the listening address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// ClientCount returns the number of connected feed clients.
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

func (s *Server) uid() string {
	return s.session.UserID()
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Service.LoadLocal().Entries)
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	e, err := s.sched.ReadEntry(r.Context(), s.session.Service, r.PathValue("date"), s.uid())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handlePutEntry(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	if !journal.ValidDateKey(date) {
		writeError(w, fmt.Errorf("%w: %q", app.ErrInvalidDate, date))
		return
	}
	var e journal.DailyEntry
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		http.Error(w, "invalid entry: "+err.Error(), http.StatusBadRequest)
		return
	}
	e.ID = date
	s.sched.StageEntry(e, s.uid())
	writeJSON(w, http.StatusAccepted, map[string]string{
		"key":    scheduler.EntryKey(date),
		"status": string(s.sched.Status(scheduler.EntryKey(date))),
	})
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	text, err := s.session.Service.Share(r.Context(), r.PathValue("date"), s.uid())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprint(w, text)
}

func (s *Server) handleGetChecklist(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sched.ReadChecklist(r.Context(), s.session.Service, s.uid()))
}

func (s *Server) handlePutChecklist(w http.ResponseWriter, r *http.Request) {
	var items []journal.ChecklistItemConfig
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		http.Error(w, "invalid checklist: "+err.Error(), http.StatusBadRequest)
		return
	}
	s.sched.StageChecklist(items, s.uid())
	writeJSON(w, http.StatusAccepted, map[string]string{
		"key":    scheduler.ChecklistKey,
		"status": string(s.sched.Status(scheduler.ChecklistKey)),
	})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	report, err := s.session.Service.SyncAllFromCloud(r.Context(), s.uid())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleFlush(w http.ResponseWriter, r *http.Request) {
	if err := s.sched.Flush(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sched.Statuses())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	name := app.ExportName(time.Now())
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if err := s.session.Service.Export(w); err != nil {
		s.log.Warnw("export failed", "error", err)
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Service.Stats())
}

func (s *Server) handleStatuses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sched.Statuses())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	writeJSON(w, http.StatusOK, map[string]string{
		"key":    key,
		"status": string(s.sched.Status(key)),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"clients": s.ClientCount(),
		"cloud":   s.session.Service.IsCloudAvailable(),
		"user":    s.uid() != "",
		"loading": s.session.Loading(),
	})
}

// handleWebSocket upgrades to a feed of status transitions, starting with a
// snapshot of the current statuses.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"localhost:*", "127.0.0.1:*"},
	})
	if err != nil {
		s.log.Debugw("websocket upgrade failed", "error", err)
		return
	}

	feed, unsubscribe := s.sched.Subscribe()
	s.clientsMu.Lock()
	s.clients[conn] = unsubscribe
	count := len(s.clients)
	s.clientsMu.Unlock()
	s.log.Debugw("client connected", "clients", count)

	if err := s.send(conn, MessageTypeSnapshot, s.sched.Statuses()); err != nil {
		s.removeClient(conn)
		return
	}

	s.wg.Add(2)
	go s.readLoop(conn)
	go s.writeLoop(conn, feed)
}

func (s *Server) send(conn *websocket.Conn, typ MessageType, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(Message{Type: typ, Timestamp: time.Now().UTC(), Data: data})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, frame)
}

func (s *Server) writeLoop(conn *websocket.Conn, feed <-chan scheduler.Transition) {
	defer s.wg.Done()
	defer s.removeClient(conn)
	for {
		select {
		case <-s.ctx.Done():
			return
		case t, ok := <-feed:
			if !ok {
				return
			}
			if err := s.send(conn, MessageTypeStatus, t); err != nil {
				s.log.Debugw("send failed", "error", err)
				return
			}
		}
	}
}

// readLoop drains client frames until the connection ends.
func (s *Server) readLoop(conn *websocket.Conn) {
	defer s.wg.Done()
	defer s.removeClient(conn)
	for {
		if _, _, err := conn.Read(s.ctx); err != nil {
			return
		}
	}
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	unsubscribe, ok := s.clients[conn]
	if !ok {
		s.clientsMu.Unlock()
		return
	}
	delete(s.clients, conn)
	count := len(s.clients)
	s.clientsMu.Unlock()

	unsubscribe()
	_ = conn.Close(websocket.StatusNormalClosure, "")
	s.log.Debugw("client disconnected", "clients", count)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, app.ErrInvalidDate):
		code = http.StatusBadRequest
	case errors.Is(err, app.ErrNoRemote):
		code = http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code = http.StatusGatewayTimeout
	}
	http.Error(w, err.Error(), code)
}
