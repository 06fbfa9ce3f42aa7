// Package clubsync provides the realtime synchronization backbone for a
// browser-based multiplayer 3D social space.
//
// The server keeps an ephemeral, shared view of connected participants
// (position, rotation, action, appearance, animation), room membership, and
// a small shared environment configuration (lighting, shaders, audio mode),
// and relays updates between participants with low latency. Nothing is
// persisted: a restart is a full, intentional reset.
//
// # Architecture
//
// Messages are JSON envelopes carrying an event name and a structured
// payload:
//
//	{"event": "playerMove", "data": {"position": {...}, "rotation": {...}, "action": "Walk"}}
//
// The transport (internal/websocket) owns connection liveness, origin
// policy, per-client flood limiting and framing. The hub (internal/hub)
// owns all shared state: the player and room registries, the environment
// state and the movement gate. Every inbound event is handled to completion
// under a single hub mutex, so no handler ever observes a partially updated
// registry.
//
// # Quick start
//
//	import (
//	    "github.com/club3d/clubsync/internal/hub"
//	    "github.com/club3d/clubsync/ws"
//	)
//
//	h := hub.New(logger, hub.DefaultMoveInterval)
//	cfg := ws.NewConfig(":3000", ws.DefaultRateLimitConfig(), ws.AllOrigins(), h.Connect, h.Disconnect)
//	server := ws.New(cfg, logger)
//	h.Register(server)
//	server.Start(ctx)
//
// # Event vocabulary
//
// Inbound events: "set username", "joinRoom", "playerMove", "get shaders",
// "appearanceUpdate", "animationUpdate", "audioSync", "environmentUpdate",
// "chat message".
//
// Outbound events: "initialState", "newPlayer", "existingPlayers",
// "roomState", "playerMoved", "shader update", "playerAppearanceChanged",
// "playerAnimationChanged", "audioSync", "environmentUpdated",
// "chat message", "deletePlayer".
//
// Unknown inbound events are silently ignored. Handlers that need a player
// record no-op when one is absent: a misbehaving client cannot corrupt
// shared state, only fail to affect it.
//
// # Broadcast modes
//
//   - global, all connections: chat messages, disconnect notices
//   - global, excluding the sender: movement, shader index, appearance,
//     animation, environment updates, new-player announcements
//   - room-scoped, excluding the sender: audio sync, delivered to the
//     sender's current room (the room of the most recent joinRoom)
//
// # Rate limiting
//
// Two independent mechanisms share golang.org/x/time/rate:
//
//   - Each client has a token-bucket flood limiter at the transport.
//     Exceeding it closes the connection with close code 1008.
//   - Movement updates pass through a per-connection minimum-interval gate
//     (default 16ms, ~60Hz). Rejected updates are dropped, not buffered:
//     the tradeoff is bandwidth over freshness, and a burst may lose its
//     final sample.
//
// # Security
//
//   - Origin allow-list via CheckOrigin (never use ws.AllOrigins() in
//     production)
//   - Maximum payload 1MB
//   - Read deadline refreshed on pong (default 60s)
//   - Ping keepalive (default every 25s)
package clubsync
