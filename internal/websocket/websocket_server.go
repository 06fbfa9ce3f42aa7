package websocket

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/club3d/clubsync"
	"github.com/club3d/clubsync/internal/protocol"
)

// CheckOriginFn validates the origin of a WebSocket connection request.
// It receives the HTTP request and returns true if the origin is allowed.
// Use this to implement the cross-origin policy for the server.
type CheckOriginFn = func(r *http.Request) bool

// OnConnectFn is called when a new client connects, after the handshake
// completes and before the message reading loop starts. This is where the
// sync engine registers the connection and sends its initial state
// snapshot.
//
// Note: the callback runs synchronously during connection setup. Avoid
// long-running work that could block new connections.
type OnConnectFn = func(client clubsync.Client)

// OnClientDisconnectFn is invoked when a connected client disconnects.
// voluntary is true when the disconnect was initiated by the client, false
// for unexpected or server-initiated disconnects. The sync engine uses this
// hook to run its cleanup ordering.
type OnClientDisconnectFn = func(client clubsync.Client, voluntary bool)

// ServerConfig carries the transport-level knobs: listen address, origin
// policy, flood limiting and heartbeat timing. None of these affect the
// sync engine's semantics.
type ServerConfig struct {
	Addr               string
	RateLimitConfig    *RateLimitConfig
	CheckOrigin        CheckOriginFn
	OnConnect          OnConnectFn
	OnClientDisconnect OnClientDisconnectFn

	// PingInterval is how often the server pings each client.
	// PongTimeout is the read deadline; a client that produces neither data
	// nor pongs within it is considered dead.
	PingInterval time.Duration
	PongTimeout  time.Duration
}

// RateLimitConfig defines flood limiting applied per client connection.
type RateLimitConfig struct {
	// MessagesPerSecond defines how many messages a client can send per second
	MessagesPerSecond rate.Limit
	// Burst defines the maximum burst size (token bucket capacity)
	Burst int
	// Enabled determines if rate limiting is active
	Enabled bool
}

// DefaultRateLimitConfig returns the default rate limit configuration.
// Allows 100 messages per second with burst of 200.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		MessagesPerSecond: 100,
		Burst:             200,
		Enabled:           true,
	}
}

// NoRateLimit returns a configuration with rate limiting disabled
func NoRateLimit() *RateLimitConfig {
	return &RateLimitConfig{
		Enabled: false,
	}
}

const (
	defaultPingInterval = 25 * time.Second
	defaultPongTimeout  = 60 * time.Second
)

// Server implements the clubsync.Server interface
type Server struct {
	addr     string
	server   *http.Server
	clients  sync.Map // map[string]*Client
	handlers sync.Map // map[string]func(client clubsync.Client, data []byte)

	rateLimitConfig *RateLimitConfig
	pingInterval    time.Duration
	pongTimeout     time.Duration

	log          *zap.SugaredLogger
	mu           sync.RWMutex
	running      bool
	upgrader     websocket.Upgrader
	onConnect    OnConnectFn
	onDisconnect OnClientDisconnectFn
}

// New creates a new WebSocket server instance with the specified
// configuration. Zero-valued heartbeat settings fall back to the defaults
// (ping every 25s, pong timeout 60s) and a nil RateLimitConfig falls back
// to DefaultRateLimitConfig.
func New(cfg *ServerConfig, log *zap.SugaredLogger) *Server {
	if cfg.RateLimitConfig == nil {
		cfg.RateLimitConfig = DefaultRateLimitConfig()
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaultPingInterval
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = defaultPongTimeout
	}
	return &Server{
		addr:            cfg.Addr,
		rateLimitConfig: cfg.RateLimitConfig,
		pingInterval:    cfg.PingInterval,
		pongTimeout:     cfg.PongTimeout,
		log:             log,
		onConnect:       cfg.OnConnect,
		onDisconnect:    cfg.OnClientDisconnect,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     cfg.CheckOrigin,
		},
	}
}

// Start starts the WebSocket server
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New(clubsync.ErrServerAlreadyRunning)
	}
	s.running = true
	s.mu.Unlock()

	router := mux.NewRouter()
	router.HandleFunc("/ws", s.handleWebSocket)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods("GET")

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: router,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	// Check for immediate startup errors with a small timeout
	select {
	case err := <-errChan:
		// Reset running state without calling Stop to avoid deadlock
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return err
	case <-ctx.Done():
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(stopCtx)
	case <-time.After(100 * time.Millisecond):
		// Server started successfully, no immediate errors
		return nil
	}
}

// Stop stops the WebSocket server
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	// Close all client connections
	s.clients.Range(func(key, value interface{}) bool {
		if client, ok := value.(*Client); ok {
			client.Close(ctx)
		}
		return true
	})

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// RegisterHandler registers a handler for a named inbound event.
// Handlers run synchronously on the connection's read loop, so one
// connection's events are processed in arrival order.
func (s *Server) RegisterHandler(ctx context.Context, event string, handler func(client clubsync.Client, data []byte)) error {
	s.handlers.Store(event, handler)
	return nil
}

// handleWebSocket handles incoming WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnw("failed to upgrade connection", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	client := NewClient(conn, r.RemoteAddr, s.rateLimitConfig, s.pingInterval)
	s.clients.Store(client.ID(), client)

	// Start reading messages from client
	go s.handleClient(client)
}

// handleClient runs the read loop for a connected client
func (s *Server) handleClient(client *Client) {
	defer func() {
		voluntary := client.Context().Err() == context.Canceled

		if s.onDisconnect != nil {
			s.onDisconnect(client, voluntary)
		}
		s.clients.Delete(client.ID())
		client.Close(context.Background())
	}()

	// Set read deadline to prevent indefinite blocking
	client.conn.SetReadDeadline(time.Now().Add(s.pongTimeout))

	// Reset the read deadline whenever the client answers a ping
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(s.pongTimeout))
		return nil
	})

	// Register the connection with the sync engine before reading anything:
	// the initial state snapshot must precede any broadcast the client
	// could trigger.
	if s.onConnect != nil {
		s.onConnect(client)
	}

	for {
		select {
		case <-client.Context().Done():
			return
		default:
			_, data, err := client.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					s.log.Warnw("unexpected websocket close", "client_id", client.ID(), "error", err)
				}
				return
			}

			// Reset read deadline after successful read
			client.conn.SetReadDeadline(time.Now().Add(s.pongTimeout))

			// Check rate limit before processing message
			if !client.CheckRateLimit(context.Background()) {
				s.log.Warnw("rate limit exceeded", "client_id", client.ID(), "remote_addr", client.RemoteAddr())
				client.CloseWithCode(context.Background(), websocket.ClosePolicyViolation, "rate limit exceeded")
				return
			}

			event, payload, err := protocol.Decode(data)
			if err != nil {
				s.log.Warnw("malformed frame", "client_id", client.ID(), "error", err)
				client.CloseWithCode(context.Background(), websocket.CloseProtocolError, clubsync.ErrInvalidMessageFormat)
				return
			}

			s.dispatch(client, event, payload)
		}
	}
}

// dispatch invokes the registered handler for an event.
//
// Handlers run synchronously here rather than in per-message goroutines:
// the sync engine relies on one connection's events arriving in order, and
// its handlers only touch in-memory registries under a mutex, so they are
// fast enough to run inline.
func (s *Server) dispatch(client *Client, event string, payload []byte) {
	if handler, ok := s.handlers.Load(event); ok {
		if handlerFunc, ok := handler.(func(clubsync.Client, []byte)); ok {
			handlerFunc(client, payload)
		}
	}
	// Unknown events are silently ignored (fire-and-forget pattern)
}

// GetClient returns a client by ID
func (s *Server) GetClient(id string) (*Client, bool) {
	if client, ok := s.clients.Load(id); ok {
		return client.(*Client), true
	}
	return nil, false
}

// Broadcast sends an event to all connected clients
func (s *Server) Broadcast(ctx context.Context, event string, data any) error {
	s.clients.Range(func(key, value interface{}) bool {
		if client, ok := value.(*Client); ok {
			client.Send(ctx, event, data)
		}
		return true
	})
	return nil
}
