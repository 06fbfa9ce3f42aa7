package hub

import "encoding/json"

// Vec3 is a position or rotation in world space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Player is the synchronized state record for a named connection. A record
// exists iff the connection has set a username and has not disconnected.
// Appearance and Animation are opaque to the server and relayed as-is.
type Player struct {
	ID          string          `json:"id"`
	Username    string          `json:"username"`
	Position    Vec3            `json:"position"`
	Rotation    Vec3            `json:"rotation"`
	ShaderIndex int             `json:"shaderIndex"`
	Action      string          `json:"action"`
	Appearance  json.RawMessage `json:"appearance,omitempty"`
	Animation   json.RawMessage `json:"animation,omitempty"`
}

const defaultAction = "Idle"

// newPlayer builds a fresh record at the origin. Calling set username again
// for an already-named connection goes through here too: renaming resets
// transient state rather than merging.
func newPlayer(id, username string) *Player {
	return &Player{
		ID:       id,
		Username: username,
		Action:   defaultAction,
	}
}

// EnvironmentState is the shared room configuration visible to every
// connection. It always has exactly these three fields, each a full value.
type EnvironmentState struct {
	Lights    map[string]int `json:"lights"`
	Shaders   map[string]int `json:"shaders"`
	AudioMode string         `json:"audioMode"`
}

func defaultEnvironment() EnvironmentState {
	return EnvironmentState{
		Lights:    map[string]int{"light1": 1, "light2": 1, "tube": 1},
		Shaders:   map[string]int{},
		AudioMode: "default",
	}
}

// environmentUpdate is the inbound partial form. A present key replaces the
// corresponding value wholesale: {"lights":{"light1":0}} drops light2 and
// tube. This is shallow replacement, not a deep merge.
type environmentUpdate struct {
	Lights    map[string]int `json:"lights"`
	Shaders   map[string]int `json:"shaders"`
	AudioMode *string        `json:"audioMode"`
}

// movePayload is the inbound playerMove shape.
type movePayload struct {
	Position Vec3   `json:"position"`
	Rotation Vec3   `json:"rotation"`
	Action   string `json:"action"`
}

// audioSyncPayload is relayed to the sender's current room untouched.
type audioSyncPayload struct {
	Timestamp float64 `json:"timestamp"`
	Playing   bool    `json:"playing"`
	SongID    string  `json:"songId"`
}

// Outbound payload shapes.

type initialStatePayload struct {
	Environment EnvironmentState `json:"environment"`
	Players     []Player         `json:"players"`
}

type newPlayerPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type roomStatePayload struct {
	Players []Player `json:"players"`
}

type playerMovedPayload struct {
	ID       string `json:"id"`
	Position Vec3   `json:"position"`
	Rotation Vec3   `json:"rotation"`
	Action   string `json:"action"`
}

type shaderUpdatePayload struct {
	ID          string `json:"id"`
	ShaderIndex int    `json:"shaderIndex"`
}

type appearancePayload struct {
	ID         string          `json:"id"`
	Appearance json.RawMessage `json:"appearance"`
}

type animationPayload struct {
	ID        string          `json:"id"`
	Animation json.RawMessage `json:"animation"`
}

type chatPayload struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

type deletePlayerPayload struct {
	ID string `json:"id"`
}
