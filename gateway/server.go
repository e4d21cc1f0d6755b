// Package gateway exposes a running production line over HTTP: a JSON
// progress endpoint, a health endpoint, and a WebSocket stream that
// pushes progress snapshots to connected clients.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/c360/prodline/errors"
	"github.com/c360/prodline/line"
)

// ProgressSource is anything that can report a point-in-time run view.
// *line.Line satisfies it.
type ProgressSource interface {
	Progress() line.Progress
}

// Config holds the gateway server configuration.
type Config struct {
	Port int    `json:"port"           yaml:"port"`
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	// BroadcastRate caps progress pushes per second across the stream.
	BroadcastRate float64 `json:"broadcast_rate,omitempty" yaml:"broadcast_rate,omitempty"`
}

// DefaultConfig returns the default gateway configuration.
func DefaultConfig() Config {
	return Config{
		Port:          8081,
		Path:          "/ws",
		BroadcastRate: 10,
	}
}

// Server serves run progress to HTTP and WebSocket clients.
type Server struct {
	cfg    Config
	source ProgressSource
	logger *slog.Logger

	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]*clientConn
	clientsMu sync.RWMutex

	limiter *rate.Limiter
	server  *http.Server

	lifecycleMu sync.Mutex
	running     bool
	shutdown    chan struct{}
	wg          *sync.WaitGroup
}

// clientConn tracks one WebSocket client. The write mutex exists because
// gorilla/websocket panics on concurrent writes to the same connection.
type clientConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a gateway server for the given progress source.
func NewServer(cfg Config, source ProgressSource, options ...Option) (*Server, error) {
	if source == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Server", "NewServer", "progress source is required")
	}
	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Server", "NewServer",
			fmt.Sprintf("port %d out of range 1024-65535", cfg.Port))
	}
	if cfg.Path == "" {
		cfg.Path = "/ws"
	}
	if cfg.BroadcastRate <= 0 {
		cfg.BroadcastRate = DefaultConfig().BroadcastRate
	}

	s := &Server{
		cfg:    cfg,
		source: source,
		logger: slog.Default(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(_ *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]*clientConn),
		limiter: rate.NewLimiter(rate.Limit(cfg.BroadcastRate), 1),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Handler returns the HTTP handler. Exposed so tests can drive the
// gateway through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Path, s.handleWebSocket)
	mux.HandleFunc("/progress", s.handleProgress)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Start binds the listener and begins broadcasting progress snapshots.
// It returns immediately; use Stop to shut down.
func (s *Server) Start(ctx context.Context) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.running {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Server", "Start", "gateway already running")
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "Server", "Start", "context already cancelled")
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.shutdown = make(chan struct{})
	s.wg = &sync.WaitGroup{}
	s.running = true

	s.wg.Add(2)
	go s.runServer()
	go s.broadcastLoop(ctx)

	s.logger.Info("gateway started", "addr", s.server.Addr, "path", s.cfg.Path)
	return nil
}

func (s *Server) runServer() {
	defer s.wg.Done()
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("gateway server failed", "error", err)
	}
}

// broadcastLoop pushes progress snapshots to all clients, paced by the
// rate limiter.
func (s *Server) broadcastLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return
		}
		select {
		case <-s.shutdown:
			return
		default:
		}
		s.broadcast(s.source.Progress())
	}
}

func (s *Server) broadcast(p line.Progress) {
	data, err := json.Marshal(p)
	if err != nil {
		s.logger.Error("marshal progress", "error", err)
		return
	}

	s.clientsMu.RLock()
	conns := make([]*clientConn, 0, len(s.clients))
	for _, c := range s.clients {
		conns = append(conns, c)
	}
	s.clientsMu.RUnlock()

	for _, c := range conns {
		if err := c.write(data); err != nil {
			s.removeClient(c.conn)
		}
	}
}

func (c *clientConn) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Stop shuts the server down, closing all client connections. It waits
// up to timeout for goroutines to exit.
func (s *Server) Stop(timeout time.Duration) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false
	close(s.shutdown)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("gateway shutdown", "error", err)
	}

	s.closeAllClients()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		s.logger.Warn("gateway goroutines did not exit within timeout")
	}

	s.server = nil
	s.logger.Info("gateway stopped")
	return nil
}

func (s *Server) closeAllClients() {
	s.clientsMu.Lock()
	for conn := range s.clients {
		_ = conn.Close()
	}
	s.clients = make(map[*websocket.Conn]*clientConn)
	s.clientsMu.Unlock()
}

// ClientCount returns the number of connected WebSocket clients.
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &clientConn{conn: conn}
	s.clientsMu.Lock()
	s.clients[conn] = client
	s.clientsMu.Unlock()

	// Send an immediate snapshot so clients do not wait a full interval.
	if data, err := json.Marshal(s.source.Progress()); err == nil {
		_ = client.write(data)
	}

	go s.readClient(conn)
}

// readClient drains the client read side so close frames and pings are
// processed. The stream is one-way; anything the client sends is ignored.
func (s *Server) readClient(conn *websocket.Conn) {
	defer s.removeClient(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	delete(s.clients, conn)
	s.clientsMu.Unlock()
	_ = conn.Close()
}

func (s *Server) handleProgress(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.source.Progress()); err != nil {
		http.Error(w, "encode progress", http.StatusInternalServerError)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
