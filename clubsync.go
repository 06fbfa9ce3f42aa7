package clubsync

import "context"

// Server defines the interface for the WebSocket transport that carries
// clubsync event envelopes.
//
// All messages exchanged between the server and clients are JSON envelopes
// with an event name and a structured payload. The transport enforces
// liveness (ping/pong), origin policy and flood limiting; it knows nothing
// about players or rooms.
//
// Example usage:
//
//	cfg := ws.NewConfig(":3000", ws.DefaultRateLimitConfig(), ws.AllOrigins(), onConnect, onDisconnect)
//	server := ws.New(cfg, logger)
//
//	server.RegisterHandler(ctx, clubsync.EventChatMessage, func(client clubsync.Client, data []byte) {
//	    // ...
//	})
//
//	server.Start(ctx)
type Server interface {
	// Start starts the WebSocket server and begins listening for
	// connections. The server keeps running until Stop is called or the
	// context is cancelled.
	//
	// Returns an error if the server is already running or the listen
	// address cannot be bound.
	Start(ctx context.Context) error

	// Stop gracefully stops the server and closes all client connections.
	Stop(ctx context.Context) error

	// RegisterHandler registers a handler for a named inbound event.
	//
	// When an envelope with the given event name arrives from a client, the
	// handler is invoked with the client and the raw payload. Handlers for
	// the same connection run in arrival order and must not block; anything
	// slow belongs on the far side of a send queue.
	//
	// Events with no registered handler are silently ignored.
	RegisterHandler(ctx context.Context, event string, handler func(client Client, data []byte)) error

	// Broadcast sends an event to every connected client.
	Broadcast(ctx context.Context, event string, data any) error
}

// Client represents a connected participant's session handle.
//
// A client exists from transport accept to transport close. The ID is the
// identity everything else hangs off: the player record, room memberships
// and the movement gate entry all key on it.
type Client interface {
	// ID returns the unique identifier for the connected client, generated
	// at accept time and constant for the lifetime of the connection.
	ID() string

	// RemoteAddr returns the client's remote network address
	// ("IP:port", for example "192.168.1.100:54321").
	RemoteAddr() string

	// Context returns the client's lifecycle context, cancelled when the
	// connection closes.
	Context() context.Context

	// Send encodes an event envelope and queues it for delivery.
	//
	// Send never blocks on a slow consumer: if the client's send buffer is
	// full the envelope is dropped and ErrSendBufferFull is returned. This
	// keeps state handlers free of network backpressure.
	Send(ctx context.Context, event string, data any) error

	// Close closes the connection gracefully
	// (CloseWithCode with websocket.CloseNormalClosure).
	Close(ctx context.Context) error

	// CloseWithCode closes the connection with a specific WebSocket close
	// code and optional reason.
	//
	// Common close codes:
	//   - 1000 (websocket.CloseNormalClosure): normal closure
	//   - 1002 (websocket.CloseProtocolError): protocol error
	//   - 1008 (websocket.ClosePolicyViolation): rate limit exceeded
	CloseWithCode(ctx context.Context, code int, reason string) error

	// IsAlive returns true if the connection is still active.
	IsAlive() bool
}
