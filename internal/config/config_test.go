package config

import (
	"testing"
	"time"
)

// TestLoadDefaults verifies the fallbacks used when nothing is set in the
// environment.
func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Addr != ":3000" {
		t.Errorf("Addr = %q, want %q", cfg.Addr, ":3000")
	}
	if len(cfg.AllowedOrigins) != 3 {
		t.Errorf("AllowedOrigins = %v, want the 3 deployment origins", cfg.AllowedOrigins)
	}
	if cfg.PingInterval != 25*time.Second {
		t.Errorf("PingInterval = %v, want 25s", cfg.PingInterval)
	}
	if cfg.PongTimeout != 60*time.Second {
		t.Errorf("PongTimeout = %v, want 60s", cfg.PongTimeout)
	}
	if cfg.MoveInterval != 16*time.Millisecond {
		t.Errorf("MoveInterval = %v, want 16ms", cfg.MoveInterval)
	}
	if cfg.MessagesPerSecond != 100 || cfg.MessageBurst != 200 {
		t.Errorf("flood limit = %v/%d, want 100/200", cfg.MessagesPerSecond, cfg.MessageBurst)
	}
}

// TestLoadOverrides verifies environment overrides are picked up.
func TestLoadOverrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("MOVE_INTERVAL_MS", "33")
	t.Setenv("MSG_BURST", "50")

	cfg := Load()

	if cfg.Addr != ":9999" {
		t.Errorf("Addr = %q, want %q", cfg.Addr, ":9999")
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.AllowedOrigins) != len(want) {
		t.Fatalf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, want)
	}
	for i := range want {
		if cfg.AllowedOrigins[i] != want[i] {
			t.Errorf("AllowedOrigins[%d] = %q, want %q", i, cfg.AllowedOrigins[i], want[i])
		}
	}
	if cfg.MoveInterval != 33*time.Millisecond {
		t.Errorf("MoveInterval = %v, want 33ms", cfg.MoveInterval)
	}
	if cfg.MessageBurst != 50 {
		t.Errorf("MessageBurst = %d, want 50", cfg.MessageBurst)
	}
}

// TestLoadBadNumbers verifies unparsable numeric values fall back to
// defaults instead of failing startup.
func TestLoadBadNumbers(t *testing.T) {
	t.Setenv("MOVE_INTERVAL_MS", "sixteen")
	t.Setenv("MSGS_PER_SECOND", "lots")

	cfg := Load()

	if cfg.MoveInterval != 16*time.Millisecond {
		t.Errorf("MoveInterval = %v, want default 16ms", cfg.MoveInterval)
	}
	if cfg.MessagesPerSecond != 100 {
		t.Errorf("MessagesPerSecond = %v, want default 100", cfg.MessagesPerSecond)
	}
}
