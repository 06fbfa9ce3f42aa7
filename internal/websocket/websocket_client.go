package websocket

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/club3d/clubsync"
	"github.com/club3d/clubsync/internal/protocol"
)

const writeTimeout = 10 * time.Second

// ErrSendBufferFull is returned by Send when the client's outbound queue is
// full. The frame is dropped rather than blocking the caller.
var ErrSendBufferFull = errors.New(clubsync.ErrSendBufferFull)

// Client implements the clubsync.Client interface
type Client struct {
	id           string
	conn         *websocket.Conn
	remoteAddr   string
	ctx          context.Context
	cancel       context.CancelFunc
	sendCh       chan []byte
	mu           sync.RWMutex
	closed       bool
	rateLimiter  *rate.Limiter // flood limiter for incoming messages
	pingInterval time.Duration
}

// NewClient creates a new WebSocket client with flood rate limiting.
// The write pump starts immediately and pings on pingInterval to keep the
// connection alive.
func NewClient(conn *websocket.Conn, remoteAddr string, rateLimitConfig *RateLimitConfig, pingInterval time.Duration) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	var limiter *rate.Limiter
	if rateLimitConfig != nil && rateLimitConfig.Enabled {
		limiter = rate.NewLimiter(rateLimitConfig.MessagesPerSecond, rateLimitConfig.Burst)
	}

	client := &Client{
		id:           uuid.New().String(),
		conn:         conn,
		remoteAddr:   remoteAddr,
		ctx:          ctx,
		cancel:       cancel,
		sendCh:       make(chan []byte, 256),
		closed:       false,
		rateLimiter:  limiter,
		pingInterval: pingInterval,
	}

	// Start the write pump
	go client.writePump()

	return client
}

// ID returns a unique identifier for the connected client
func (c *Client) ID() string {
	return c.id
}

// RemoteAddr returns the client's remote network address
func (c *Client) RemoteAddr() string {
	return c.remoteAddr
}

// Context returns the client's lifecycle context
func (c *Client) Context() context.Context {
	return c.ctx
}

// Send encodes an event envelope and queues it for delivery.
//
// Send never blocks: when the queue is full the frame is dropped and
// ErrSendBufferFull is returned. State handlers run under the hub mutex, so
// a slow consumer must not be able to stall them.
func (c *Client) Send(ctx context.Context, event string, data any) error {
	frame, err := protocol.Encode(event, data)
	if err != nil {
		return fmt.Errorf("%s: %w", clubsync.ErrFailedToEncode, err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New(clubsync.ErrConnectionClosed)
	}

	select {
	case c.sendCh <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.ctx.Done():
		return errors.New(clubsync.ErrContextCancelled)
	default:
		return ErrSendBufferFull
	}
}

// Close closes the client connection
func (c *Client) Close(ctx context.Context) error {
	return c.CloseWithCode(ctx, websocket.CloseNormalClosure, "")
}

// CloseWithCode closes the connection with a close code and optional reason
func (c *Client) CloseWithCode(ctx context.Context, code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	c.cancel()

	// Send close message
	message := websocket.FormatCloseMessage(code, reason)
	deadline := time.Now().Add(time.Second)
	c.conn.WriteControl(websocket.CloseMessage, message, deadline)

	close(c.sendCh)
	return c.conn.Close()
}

// IsAlive returns true if the connection is still active
func (c *Client) IsAlive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed
}

// CheckRateLimit reports whether the client is within its flood limit.
// Returns true if the message is allowed, false if rate limited.
func (c *Client) CheckRateLimit(ctx context.Context) bool {
	if c.rateLimiter == nil {
		// Rate limiting disabled
		return true
	}
	return c.rateLimiter.Allow()
}

// writePump pumps frames from the send channel to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.sendCh:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				// Channel closed
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			// Send ping to keep connection alive
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}
