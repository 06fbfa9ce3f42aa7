package protocol

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

// TestEncode tests the Encode function with various inputs
func TestEncode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		event     string
		data      any
		wantError bool
	}{
		{
			name:      "event with object payload",
			event:     "playerMove",
			data:      map[string]any{"action": "Run"},
			wantError: false,
		},
		{
			name:      "event with string payload",
			event:     "set username",
			data:      "Alice",
			wantError: false,
		},
		{
			name:      "event with numeric payload",
			event:     "get shaders",
			data:      3,
			wantError: false,
		},
		{
			name:      "event with nil payload",
			event:     "deletePlayer",
			data:      nil,
			wantError: false,
		},
		{
			name:      "event name with spaces",
			event:     "chat message",
			data:      "hello",
			wantError: false,
		},
		{
			name:      "empty event name",
			event:     "",
			data:      "x",
			wantError: true,
		},
		{
			name:      "unmarshalable payload",
			event:     "environmentUpdate",
			data:      make(chan int),
			wantError: true,
		},
		{
			name:      "payload exceeds max size",
			event:     "appearanceUpdate",
			data:      strings.Repeat("x", maxPayloadSize),
			wantError: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := Encode(tt.event, tt.data)

			if (err != nil) != tt.wantError {
				t.Errorf("Encode() error = %v, wantError %v", err, tt.wantError)
				return
			}

			if tt.wantError {
				return
			}

			// The result must be a valid envelope carrying the event name
			var env Envelope
			if err := json.Unmarshal(result, &env); err != nil {
				t.Fatalf("Encode() produced invalid JSON: %v", err)
			}
			if env.Event != tt.event {
				t.Errorf("encoded event = %q, want %q", env.Event, tt.event)
			}
		})
	}
}

// TestDecode tests the Decode function with various inputs
func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		data        []byte
		wantEvent   string
		wantPayload []byte
		wantError   bool
	}{
		{
			name:        "valid envelope with object payload",
			data:        []byte(`{"event":"playerMove","data":{"action":"Idle"}}`),
			wantEvent:   "playerMove",
			wantPayload: []byte(`{"action":"Idle"}`),
			wantError:   false,
		},
		{
			name:        "valid envelope with string payload",
			data:        []byte(`{"event":"set username","data":"Alice"}`),
			wantEvent:   "set username",
			wantPayload: []byte(`"Alice"`),
			wantError:   false,
		},
		{
			name:        "valid envelope without payload",
			data:        []byte(`{"event":"joinRoom"}`),
			wantEvent:   "joinRoom",
			wantPayload: nil,
			wantError:   false,
		},
		{
			name:      "not json",
			data:      []byte("not json at all"),
			wantError: true,
		},
		{
			name:      "empty input",
			data:      []byte{},
			wantError: true,
		},
		{
			name:      "missing event name",
			data:      []byte(`{"data":{"x":1}}`),
			wantError: true,
		},
		{
			name:      "json array instead of envelope",
			data:      []byte(`[1,2,3]`),
			wantError: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gotEvent, gotPayload, err := Decode(tt.data)

			if (err != nil) != tt.wantError {
				t.Errorf("Decode() error = %v, wantError %v", err, tt.wantError)
				return
			}

			if tt.wantError {
				return
			}

			if gotEvent != tt.wantEvent {
				t.Errorf("Decode() event = %q, want %q", gotEvent, tt.wantEvent)
			}

			if !bytes.Equal(gotPayload, tt.wantPayload) {
				t.Errorf("Decode() payload = %s, want %s", gotPayload, tt.wantPayload)
			}
		})
	}
}

// TestEncodeDecodeRoundTrip verifies that Encode and Decode are inverses
func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		event string
		data  any
	}{
		{"nil payload", "deletePlayer", nil},
		{"string payload", "chat message", "Hello, World!"},
		{"object payload", "playerMoved", map[string]any{"id": "abc", "action": "Run"}},
		{"nested payload", "environmentUpdate", map[string]any{"lights": map[string]int{"light1": 0}}},
		{"numeric payload", "get shaders", float64(7)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			encoded, err := Encode(tt.event, tt.data)
			if err != nil {
				t.Fatalf("Encode() failed: %v", err)
			}

			decodedEvent, decodedPayload, err := Decode(encoded)
			if err != nil {
				t.Fatalf("Decode() failed: %v", err)
			}

			if decodedEvent != tt.event {
				t.Errorf("event = %q, want %q", decodedEvent, tt.event)
			}

			if tt.data == nil {
				if decodedPayload != nil {
					t.Errorf("payload = %s, want nil", decodedPayload)
				}
				return
			}

			want, _ := json.Marshal(tt.data)
			var gotNorm, wantNorm any
			if err := json.Unmarshal(decodedPayload, &gotNorm); err != nil {
				t.Fatalf("payload is not valid JSON: %v", err)
			}
			_ = json.Unmarshal(want, &wantNorm)
			gotBytes, _ := json.Marshal(gotNorm)
			wantBytes, _ := json.Marshal(wantNorm)
			if !bytes.Equal(gotBytes, wantBytes) {
				t.Errorf("payload mismatch: got %s, want %s", gotBytes, wantBytes)
			}
		})
	}
}

// BenchmarkEncode benchmarks the encoding operation
func BenchmarkEncode(b *testing.B) {
	data := map[string]any{"position": map[string]float64{"x": 1, "y": 2, "z": 3}}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Encode("playerMove", data)
	}
}

// BenchmarkDecode benchmarks the decoding operation
func BenchmarkDecode(b *testing.B) {
	frame, _ := Encode("playerMove", map[string]any{"action": "Run"})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = Decode(frame)
	}
}
