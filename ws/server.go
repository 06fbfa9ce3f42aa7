package ws

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/club3d/clubsync"
	"github.com/club3d/clubsync/internal/websocket"
)

type RateLimitConfig = websocket.RateLimitConfig
type CheckOriginFn = websocket.CheckOriginFn
type OnConnectFn = websocket.OnConnectFn
type OnDisconnectFn = websocket.OnClientDisconnectFn
type ServerConfig = *websocket.ServerConfig

// New creates a new WebSocket transport server for clubsync event
// envelopes.
//
// Example:
//
//	cfg := ws.NewConfig(":3000", ws.DefaultRateLimitConfig(), ws.OriginList(origins), h.Connect, h.Disconnect)
//	server := ws.New(cfg, logger)
func New(cfg ServerConfig, log *zap.SugaredLogger) clubsync.Server {
	return websocket.New(cfg, log)
}

// NewConfig assembles a transport configuration. Heartbeat timing keeps the
// defaults (ping every 25s, pong timeout 60s); set the fields on the
// returned config to override.
func NewConfig(addr string, rateLimitConfig *RateLimitConfig, checkOrigin CheckOriginFn, onConnect OnConnectFn, onDisconnect OnDisconnectFn) ServerConfig {
	return &websocket.ServerConfig{
		Addr:               addr,
		RateLimitConfig:    rateLimitConfig,
		CheckOrigin:        checkOrigin,
		OnConnect:          onConnect,
		OnClientDisconnect: onDisconnect,
	}
}

// WithHeartbeat sets the ping interval and pong timeout on a config.
func WithHeartbeat(cfg ServerConfig, pingInterval, pongTimeout time.Duration) ServerConfig {
	cfg.PingInterval = pingInterval
	cfg.PongTimeout = pongTimeout
	return cfg
}

// AllOrigins returns a checkOrigin function that allows all origins.
// Development only; production deployments should use OriginList.
func AllOrigins() CheckOriginFn {
	return func(r *http.Request) bool {
		return true
	}
}

// OriginList returns a checkOrigin function that allows only the given
// origins. A single "*" entry allows everything. Requests without an Origin
// header (non-browser clients) are allowed.
func OriginList(origins []string) CheckOriginFn {
	allowed := make(map[string]struct{}, len(origins))
	wildcard := false
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
		allowed[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		if wildcard {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}

// DefaultRateLimitConfig returns the default flood limit configuration
func DefaultRateLimitConfig() *RateLimitConfig {
	return websocket.DefaultRateLimitConfig()
}

// NoRateLimit returns a configuration with flood limiting disabled
func NoRateLimit() *RateLimitConfig {
	return websocket.NoRateLimit()
}
