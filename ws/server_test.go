package ws

import (
	"net/http/httptest"
	"testing"
)

// TestOriginList checks the allow-list origin policy built from config.
func TestOriginList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		origins []string
		origin  string
		want    bool
	}{
		{
			name:    "listed origin allowed",
			origins: []string{"https://club-3d.vercel.app", "http://localhost:5500"},
			origin:  "http://localhost:5500",
			want:    true,
		},
		{
			name:    "unlisted origin rejected",
			origins: []string{"https://club-3d.vercel.app"},
			origin:  "https://evil.example",
			want:    false,
		},
		{
			name:    "wildcard allows anything",
			origins: []string{"*"},
			origin:  "https://anywhere.example",
			want:    true,
		},
		{
			name:    "missing origin header allowed",
			origins: []string{"https://club-3d.vercel.app"},
			origin:  "",
			want:    true,
		},
		{
			name:    "empty list rejects browsers",
			origins: nil,
			origin:  "https://club-3d.vercel.app",
			want:    false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			check := OriginList(tt.origins)
			req := httptest.NewRequest("GET", "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}

			if got := check(req); got != tt.want {
				t.Errorf("OriginList(%v)(%q) = %v, want %v", tt.origins, tt.origin, got, tt.want)
			}
		})
	}
}

// TestAllOrigins checks the development-only allow-all policy.
func TestAllOrigins(t *testing.T) {
	t.Parallel()

	check := AllOrigins()
	req := httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("Origin", "https://anywhere.example")

	if !check(req) {
		t.Error("AllOrigins() rejected a request")
	}
}
