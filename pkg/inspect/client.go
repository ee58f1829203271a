// pkg/inspect/client.go
package inspect

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"github.com/opd-ai/go-broadphase/pkg/event"
	"github.com/opd-ai/go-broadphase/pkg/logging"
	"github.com/opd-ai/go-broadphase/pkg/simulation"
	"github.com/opd-ai/go-broadphase/pkg/validation"
)

// Client event types
const (
	ClientDisconnected    event.Type = "inspect_client_disconnected"
	ClientReconnected     event.Type = "inspect_client_reconnected"
	ClientReconnectFailed event.Type = "inspect_client_reconnect_failed"
	CommandAcked          event.Type = "inspect_command_acked"
	CommandRejected       event.Type = "inspect_command_rejected"
)

// ErrNotConnected is returned by commands sent while the client has no
// connection.
var ErrNotConnected = errors.New("not connected")

// ClientEvent carries the command or error text of a client event.
type ClientEvent struct {
	event.BaseEvent
	Message string
}

// Client streams snapshots from an inspector Server. Snapshots that arrive
// while the channel is full are dropped. A lost connection is retried and
// the last subscription and pause state are restored.
type Client struct {
	EventBus *event.Bus

	url       string
	origin    string
	codec     websocket.Codec
	codecName string

	conn      *websocket.Conn
	connected bool
	closed    bool
	tags      []string
	paused    bool
	mu        sync.Mutex
	writeLock sync.Mutex

	snapshots chan *simulation.Snapshot
	done      chan struct{}

	connectTimeout       time.Duration
	readTimeout          time.Duration
	writeTimeout         time.Duration
	reconnectDelay       time.Duration
	maxReconnectAttempts int

	logger *logging.Logger
}

// NewClient creates a client for the inspector at address, either a host:port
// or a ws:// URL. codec is CodecJSON or CodecMsgpack.
func NewClient(address, codec string) (*Client, error) {
	u, err := inspectorURL(address)
	if err != nil {
		return nil, err
	}
	c, name := codecFor(codec)
	q := u.Query()
	q.Set("codec", name)
	u.RawQuery = q.Encode()

	return &Client{
		EventBus:             event.NewEventBus(),
		url:                  u.String(),
		origin:               "http://" + u.Host,
		codec:                c,
		codecName:            name,
		snapshots:            make(chan *simulation.Snapshot, 10),
		done:                 make(chan struct{}),
		connectTimeout:       10 * time.Second,
		readTimeout:          30 * time.Second,
		writeTimeout:         DefaultWriteTimeout,
		reconnectDelay:       3 * time.Second,
		maxReconnectAttempts: 5,
		logger:               logging.Discard(),
	}, nil
}

func inspectorURL(address string) (*url.URL, error) {
	if !strings.Contains(address, "://") {
		address = "ws://" + address
	}
	u, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("invalid inspector address: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("invalid inspector address %q: scheme must be ws or wss", address)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	return u, nil
}

// SetLogger replaces the client's logger.
func (c *Client) SetLogger(l *logging.Logger) {
	c.logger = l.Component("inspect-client")
}

// SetReconnect sets how often and how many times a lost connection is
// retried. Zero attempts disables reconnecting.
func (c *Client) SetReconnect(attempts int, delay time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxReconnectAttempts = attempts
	c.reconnectDelay = delay
}

// SetTimeouts sets the dial, read and write timeouts.
func (c *Client) SetTimeouts(connect, read, write time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connectTimeout = connect
	c.readTimeout = read
	c.writeTimeout = write
}

// URL returns the websocket URL dialed, including the codec parameter.
func (c *Client) URL() string {
	return c.url
}

// Codec returns the negotiated codec name.
func (c *Client) Codec() string {
	return c.codecName
}

// Snapshots returns the channel snapshots are delivered on.
func (c *Client) Snapshots() <-chan *simulation.Snapshot {
	return c.snapshots
}

// Done is closed when the client is closed or gives up reconnecting.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Connected reports whether the client currently has a connection.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Connect dials the inspector and starts reading frames.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrServerClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.dial(); err != nil {
		return err
	}
	go c.messageLoop(c.conn)
	return nil
}

// dial must be called with the lock held.
func (c *Client) dial() error {
	cfg, err := websocket.NewConfig(c.url, c.origin)
	if err != nil {
		return fmt.Errorf("failed to configure inspector connection: %w", err)
	}
	cfg.Dialer = &net.Dialer{Timeout: c.connectTimeout}

	conn, err := websocket.DialConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to inspector: %w", err)
	}
	c.conn = conn
	c.connected = true
	c.logger.Info(context.Background(), "connected to inspector", "url", c.url, "codec", c.codecName)
	return nil
}

// Close disconnects and stops reconnecting. It is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.connected = false
	close(c.done)
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Subscribe limits snapshots to bodies with one of tags. No tags clears the
// filter.
func (c *Client) Subscribe(tags ...string) error {
	c.mu.Lock()
	c.tags = append([]string(nil), tags...)
	c.mu.Unlock()
	return c.send(validation.Command{Type: validation.CommandSubscribe, Tags: tags})
}

// Pause stops snapshot delivery until Resume.
func (c *Client) Pause() error {
	c.mu.Lock()
	c.paused = true
	c.mu.Unlock()
	return c.send(validation.Command{Type: validation.CommandPause})
}

// Resume restarts snapshot delivery.
func (c *Client) Resume() error {
	c.mu.Lock()
	c.paused = false
	c.mu.Unlock()
	return c.send(validation.Command{Type: validation.CommandResume})
}

// send writes cmd as JSON, which the server expects whatever the frame codec.
func (c *Client) send(cmd validation.Command) error {
	c.mu.Lock()
	conn, connected, timeout := c.conn, c.connected, c.writeTimeout
	c.mu.Unlock()
	if !connected {
		return ErrNotConnected
	}

	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	if timeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	if err := websocket.JSON.Send(conn, cmd); err != nil {
		return fmt.Errorf("failed to send %s command: %w", cmd.Type, err)
	}
	return nil
}

// messageLoop reads frames from conn until it fails.
func (c *Client) messageLoop(conn *websocket.Conn) {
	for {
		c.mu.Lock()
		timeout := c.readTimeout
		c.mu.Unlock()
		if timeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(timeout))
		}

		var f Frame
		if err := c.codec.Receive(conn, &f); err != nil {
			c.handleDisconnect(conn, err)
			return
		}

		switch f.Type {
		case FrameSnapshot:
			c.handleSnapshot(f.Snapshot)
		case FrameAck:
			c.EventBus.Publish(&ClientEvent{
				BaseEvent: event.BaseEvent{EventType: CommandAcked, Source: c},
				Message:   f.Command,
			})
		case FrameError:
			c.logger.Warn(context.Background(), "inspector rejected command", "error", f.Error)
			c.EventBus.Publish(&ClientEvent{
				BaseEvent: event.BaseEvent{EventType: CommandRejected, Source: c},
				Message:   f.Error,
			})
		default:
			// Ignore unknown frame types
		}
	}
}

func (c *Client) handleSnapshot(s *simulation.Snapshot) {
	if s == nil {
		return
	}
	// Send snapshot to channel, non-blocking
	select {
	case c.snapshots <- s:
	default:
		c.logger.Debug(context.Background(), "snapshot dropped, consumer is behind", "tick", s.Tick)
	}
}

// handleDisconnect handles the end of conn's read loop
func (c *Client) handleDisconnect(conn *websocket.Conn, err error) {
	c.mu.Lock()
	if c.closed || c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.connected = false
	conn.Close()
	c.mu.Unlock()

	c.logger.Warn(context.Background(), "inspector connection lost", "error", err.Error())
	c.EventBus.Publish(&ClientEvent{
		BaseEvent: event.BaseEvent{EventType: ClientDisconnected, Source: c},
		Message:   err.Error(),
	})

	go c.attemptReconnect()
}

// attemptReconnect retries the connection and restores the subscription.
func (c *Client) attemptReconnect() {
	c.mu.Lock()
	attempts, delay := c.maxReconnectAttempts, c.reconnectDelay
	c.mu.Unlock()

	for i := 1; i <= attempts; i++ {
		select {
		case <-c.done:
			return
		case <-time.After(delay):
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		err := c.dial()
		conn, tags, paused := c.conn, c.tags, c.paused
		c.mu.Unlock()

		if err != nil {
			c.logger.Debug(context.Background(), "reconnect attempt failed", "attempt", i, "error", err.Error())
			continue
		}

		go c.messageLoop(conn)
		if tags != nil {
			_ = c.send(validation.Command{Type: validation.CommandSubscribe, Tags: tags})
		}
		if paused {
			_ = c.send(validation.Command{Type: validation.CommandPause})
		}
		c.EventBus.Publish(&ClientEvent{
			BaseEvent: event.BaseEvent{EventType: ClientReconnected, Source: c},
		})
		return
	}

	c.logger.Warn(context.Background(), "giving up on inspector", "attempts", attempts)
	c.EventBus.Publish(&ClientEvent{
		BaseEvent: event.BaseEvent{EventType: ClientReconnectFailed, Source: c},
	})
	c.Close()
}
