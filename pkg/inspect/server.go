// pkg/inspect/server.go

// Package inspect streams world snapshots to debugging clients over
// websockets.
package inspect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"github.com/opd-ai/go-broadphase/pkg/config"
	"github.com/opd-ai/go-broadphase/pkg/logging"
	"github.com/opd-ai/go-broadphase/pkg/simulation"
	"github.com/opd-ai/go-broadphase/pkg/validation"
)

// ErrServerClosed is returned by Start once the server has been closed.
var ErrServerClosed = errors.New("inspect: server closed")

// DefaultWriteTimeout bounds a single frame write.
const DefaultWriteTimeout = 2 * time.Second

// Server serves /ws for the snapshot stream and /snapshot for one-off
// JSON snapshots.
type Server struct {
	world        *simulation.World
	cfg          config.InspectorConfig
	breaker      BreakerSettings
	writeTimeout time.Duration
	validator    *validation.MessageValidator
	logger       *logging.Logger

	clients     map[string]*client
	clientsLock sync.RWMutex
	nextID      uint64

	listener   net.Listener
	httpServer *http.Server
	done       chan struct{}
	closed     bool
	mu         sync.Mutex
}

// client is one websocket subscriber.
type client struct {
	ID    string
	Codec string

	conn   *websocket.Conn
	write  func(Frame) error
	sender *sender

	writeLock sync.Mutex
	mu        sync.Mutex
	tags      []string
	paused    bool
}

// NewServer creates an inspector for world. It does not listen until Start.
func NewServer(world *simulation.World, cfg config.InspectorConfig) *Server {
	return &Server{
		world:        world,
		cfg:          cfg,
		breaker:      DefaultBreakerSettings(),
		writeTimeout: DefaultWriteTimeout,
		validator:    validation.NewMessageValidator(cfg.MaxMessageBytes, cfg.CommandsPerSecond),
		logger:       logging.NewLogger().Component("inspect"),
		clients:      make(map[string]*client),
		done:         make(chan struct{}),
	}
}

// SetLogger replaces the server's logger.
func (s *Server) SetLogger(l *logging.Logger) {
	s.logger = l.Component("inspect")
}

// SetBreakerSettings applies to clients that connect afterwards.
func (s *Server) SetBreakerSettings(b BreakerSettings) {
	s.breaker = b
}

// SetWriteTimeout sets the per-frame write deadline.
func (s *Server) SetWriteTimeout(d time.Duration) {
	s.writeTimeout = d
}

// Handler returns the server's HTTP routes without starting a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", websocket.Handler(s.serveClient))
	mux.HandleFunc("/snapshot", s.handleSnapshot)
	return mux
}

// Start listens on address and begins broadcasting snapshots.
func (s *Server) Start(address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrServerClosed
	}
	if s.listener != nil {
		return fmt.Errorf("inspect: already listening on %s", s.listener.Addr())
	}

	ln, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to start inspector: %w", err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(context.Background(), "inspector server stopped", err)
		}
	}()
	go s.broadcastLoop()

	s.logger.Info(context.Background(), "inspector started", "address", ln.Addr().String())
	return nil
}

// ListenerAddress returns the bound address, or "" when not listening.
func (s *Server) ListenerAddress() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil || s.closed {
		return ""
	}
	return s.listener.Addr().String()
}

// Close stops the listener and disconnects every client. It is safe to call
// more than once.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	httpServer := s.httpServer
	s.mu.Unlock()

	var err error
	if httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		// Hijacked websocket connections are not tracked by Shutdown.
		err = httpServer.Shutdown(ctx)
	}

	s.clientsLock.Lock()
	for id, c := range s.clients {
		if c.conn != nil {
			c.conn.Close()
		}
		delete(s.clients, id)
	}
	s.clientsLock.Unlock()

	s.validator.Close()
	s.logger.Info(context.Background(), "inspector stopped")
	return err
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.clientsLock.RLock()
	defer s.clientsLock.RUnlock()
	return len(s.clients)
}

func (s *Server) broadcastLoop() {
	rate := s.cfg.SnapshotRate
	if rate <= 0 {
		rate = 20
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.Broadcast()
		}
	}
}

// Broadcast sends the current snapshot to every client that is not paused,
// filtered by the client's subscription. Clients whose breaker opens are
// dropped. It returns the number of frames delivered.
func (s *Server) Broadcast() int {
	snap := s.world.Snapshot()

	s.clientsLock.RLock()
	clients := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.clientsLock.RUnlock()

	delivered := 0
	for _, c := range clients {
		tags, paused := c.subscription()
		if paused {
			continue
		}
		if s.send(c, Frame{Type: FrameSnapshot, Snapshot: snap.Filter(tags)}) {
			delivered++
		}
	}
	return delivered
}

// send writes f to c and drops c once its breaker opens.
func (s *Server) send(c *client, f Frame) bool {
	err := c.sender.Send(func() error {
		c.writeLock.Lock()
		defer c.writeLock.Unlock()
		return c.write(f)
	})
	if err == nil {
		return true
	}

	if rejected(err) || c.sender.Open() {
		s.logger.Warn(context.Background(), "dropping inspector client",
			"client_id", c.ID,
			"error", err.Error(),
		)
		s.removeClient(c)
		if c.conn != nil {
			c.conn.Close()
		}
		return false
	}
	s.logger.Debug(context.Background(), "inspector send failed", "client_id", c.ID, "error", err.Error())
	return false
}

func (s *Server) addClient(c *client) bool {
	s.clientsLock.Lock()
	defer s.clientsLock.Unlock()

	if limit := s.cfg.MaxClients; limit > 0 && len(s.clients) >= limit {
		return false
	}
	s.clients[c.ID] = c
	return true
}

func (s *Server) removeClient(c *client) {
	s.clientsLock.Lock()
	_, ok := s.clients[c.ID]
	delete(s.clients, c.ID)
	s.clientsLock.Unlock()

	if ok {
		s.validator.Forget(c.ID)
		s.logger.Info(context.Background(), "inspector client removed", "client_id", c.ID)
	}
}

func (s *Server) newClientID() string {
	s.clientsLock.Lock()
	defer s.clientsLock.Unlock()
	s.nextID++
	return "client-" + strconv.FormatUint(s.nextID, 10)
}

// serveClient registers ws and reads commands until the connection ends.
func (s *Server) serveClient(ws *websocket.Conn) {
	defer ws.Close()

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}

	codec, codecName := codecFor(ws.Request().URL.Query().Get("codec"))
	id := s.newClientID()
	ctx := logging.WithCorrelationID(context.Background(), id)

	c := &client{
		ID:     id,
		Codec:  codecName,
		conn:   ws,
		sender: newSender("inspect-"+id, s.breaker, s.logger),
	}
	c.write = func(f Frame) error {
		if s.writeTimeout > 0 {
			_ = ws.SetWriteDeadline(time.Now().Add(s.writeTimeout))
		}
		return codec.Send(ws, f)
	}

	if !s.addClient(c) {
		s.logger.Warn(ctx, "rejecting inspector client, server full", "max_clients", s.cfg.MaxClients)
		return
	}
	defer s.removeClient(c)

	s.logger.Info(ctx, "inspector client connected",
		"client_id", id,
		"codec", codecName,
		"remote", ws.Request().RemoteAddr,
	)
	s.readCommands(ctx, c)
}

func (s *Server) readCommands(ctx context.Context, c *client) {
	for {
		var data []byte
		if err := websocket.Message.Receive(c.conn, &data); err != nil {
			s.logger.Debug(ctx, "inspector read loop ended", "client_id", c.ID, "error", err.Error())
			return
		}

		cmd, err := s.validator.ParseCommand(data, c.ID)
		if err != nil {
			s.logger.Warn(ctx, "rejected inspector command", "client_id", c.ID, "error", err.Error())
			if !s.send(c, Frame{Type: FrameError, Error: err.Error()}) && c.sender.Open() {
				return
			}
			continue
		}

		c.apply(cmd)
		s.logger.Debug(ctx, "inspector command applied", "client_id", c.ID, "command", cmd.Type)
		if !s.send(c, Frame{Type: FrameAck, Command: cmd.Type}) && c.sender.Open() {
			return
		}
	}
}

func (c *client) apply(cmd *validation.Command) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch cmd.Type {
	case validation.CommandSubscribe:
		c.tags = cmd.Tags
	case validation.CommandPause:
		c.paused = true
	case validation.CommandResume:
		c.paused = false
	}
}

func (c *client) subscription() ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tags, c.paused
}

// handleSnapshot answers GET /snapshot with the current snapshot as JSON.
// An optional tags query parameter (comma separated) filters the bodies.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var tags []string
	if raw := r.URL.Query().Get("tags"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			tag, err := validation.ValidateTag(t)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if tag != "" {
				tags = append(tags, tag)
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.world.Snapshot().Filter(tags)); err != nil {
		s.logger.Error(r.Context(), "failed to encode snapshot", err)
	}
}
