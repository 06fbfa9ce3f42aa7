package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/club3d/clubsync"
)

// Hub is the stateful synchronization engine. It owns every process-wide
// registry: connected clients, player records, room membership, the shared
// environment state and the movement gate.
//
// All handlers run to completion under one mutex, so no handler ever
// observes a partially updated Player, Room or EnvironmentState. Sends
// issued while the mutex is held never block (the transport drops frames on
// a full client buffer), so the lock is never held across network waits.
type Hub struct {
	log *zap.SugaredLogger
	now func() time.Time // injectable clock for the movement gate

	mu          sync.Mutex
	clients     map[string]clubsync.Client
	players     map[string]*Player
	rooms       map[string]map[string]struct{}
	currentRoom map[string]string // audio-sync scope: room of the most recent joinRoom
	env         EnvironmentState
	gate        *moveGate
}

// New creates a hub with empty registries and the default environment
// state. moveInterval <= 0 falls back to DefaultMoveInterval.
func New(log *zap.SugaredLogger, moveInterval time.Duration) *Hub {
	return &Hub{
		log:         log,
		now:         time.Now,
		clients:     make(map[string]clubsync.Client),
		players:     make(map[string]*Player),
		rooms:       make(map[string]map[string]struct{}),
		currentRoom: make(map[string]string),
		env:         defaultEnvironment(),
		gate:        newMoveGate(moveInterval),
	}
}

// Register wires every inbound event to its hub handler on the transport.
func (h *Hub) Register(ctx context.Context, server clubsync.Server) error {
	handlers := map[string]func(clubsync.Client, []byte){
		clubsync.EventSetUsername:       h.SetUsername,
		clubsync.EventJoinRoom:          h.JoinRoom,
		clubsync.EventPlayerMove:        h.PlayerMove,
		clubsync.EventGetShaders:        h.ShaderUpdate,
		clubsync.EventAppearanceUpdate:  h.AppearanceUpdate,
		clubsync.EventAnimationUpdate:   h.AnimationUpdate,
		clubsync.EventAudioSync:         h.AudioSync,
		clubsync.EventEnvironmentUpdate: h.EnvironmentUpdate,
		clubsync.EventChatMessage:       h.ChatMessage,
	}
	for event, handler := range handlers {
		if err := server.RegisterHandler(ctx, event, handler); err != nil {
			return fmt.Errorf("register handler for %q: %w", event, err)
		}
	}
	return nil
}

// Connect registers a new connection and sends it, and only it, a snapshot
// of the environment state and all current player records.
func (h *Hub) Connect(client clubsync.Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID()] = client
	h.log.Infow("client connected", "client_id", client.ID(), "remote_addr", client.RemoteAddr())

	h.sendTo(client, clubsync.EventInitialState, initialStatePayload{
		Environment: h.env,
		Players:     h.playerList(),
	})
}

// Disconnect runs the cleanup ordering for a closed connection: remove it
// from every room (deleting rooms left empty), drop its player record,
// notify everyone, and forget its movement gate entry. Safe to call for
// connections that never set a username.
func (h *Hub) Disconnect(client clubsync.Client, voluntary bool) {
	id := client.ID()

	h.mu.Lock()
	defer h.mu.Unlock()

	for roomID, members := range h.rooms {
		delete(members, id)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	delete(h.currentRoom, id)
	delete(h.players, id)
	delete(h.clients, id)
	h.gate.Forget(id)

	h.broadcastAll(clubsync.EventDeletePlayer, deletePlayerPayload{ID: id})
	h.log.Infow("client disconnected", "client_id", id, "voluntary", voluntary)
}

// SetUsername creates (or overwrites) the player record for a connection.
// Renaming an already-named connection resets its transient state to the
// defaults. Everyone else learns about the player via newPlayer; the naming
// connection alone receives the full current player list.
func (h *Hub) SetUsername(client clubsync.Client, data []byte) {
	var username string
	if err := json.Unmarshal(data, &username); err != nil {
		h.dropMalformed(client, clubsync.EventSetUsername, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.known(client, clubsync.EventSetUsername) {
		return
	}

	id := client.ID()
	h.players[id] = newPlayer(id, username)
	h.log.Infow("username set", "client_id", id, "username", username)

	h.broadcastExcept(id, clubsync.EventNewPlayer, newPlayerPayload{ID: id, Username: username})
	h.sendTo(client, clubsync.EventExistingPlayers, h.playerList())
}

// JoinRoom adds the connection to a room's member set, creating the room on
// first join, and replies to the joiner with the player records of current
// members. Members that have not set a username yet are silently filtered
// out. The room becomes the connection's current room for audio-sync
// scoping. There is no leave operation; membership ends at disconnect.
func (h *Hub) JoinRoom(client clubsync.Client, data []byte) {
	var roomID string
	if err := json.Unmarshal(data, &roomID); err != nil {
		h.dropMalformed(client, clubsync.EventJoinRoom, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.known(client, clubsync.EventJoinRoom) {
		return
	}

	id := client.ID()
	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[string]struct{})
		h.rooms[roomID] = members
	}
	members[id] = struct{}{}
	h.currentRoom[id] = roomID

	roomPlayers := make([]Player, 0, len(members))
	for memberID := range members {
		if p, ok := h.players[memberID]; ok {
			roomPlayers = append(roomPlayers, *p)
		}
	}

	h.log.Debugw("room joined", "client_id", id, "room", roomID, "members", len(members))
	h.sendTo(client, clubsync.EventRoomState, roomStatePayload{Players: roomPlayers})
}

// PlayerMove applies a movement update and relays it to everyone else,
// subject to the per-connection minimum-interval gate. Rejected updates are
// dropped outright: a burst faster than the window keeps only the samples
// that land outside it, trading freshness for bandwidth. No-op for
// connections that have not set a username.
func (h *Hub) PlayerMove(client clubsync.Client, data []byte) {
	var move movePayload
	if err := json.Unmarshal(data, &move); err != nil {
		h.dropMalformed(client, clubsync.EventPlayerMove, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	id := client.ID()
	player, ok := h.players[id]
	if !ok {
		return
	}
	if !h.gate.Allow(id, h.now()) {
		return
	}

	player.Position = move.Position
	player.Rotation = move.Rotation
	player.Action = move.Action

	h.broadcastExcept(id, clubsync.EventPlayerMoved, playerMovedPayload{
		ID:       id,
		Position: move.Position,
		Rotation: move.Rotation,
		Action:   move.Action,
	})
}

// ShaderUpdate overwrites the player's shader index and relays it to
// everyone else. No-op without a player record.
func (h *Hub) ShaderUpdate(client clubsync.Client, data []byte) {
	var shaderIndex int
	if err := json.Unmarshal(data, &shaderIndex); err != nil {
		h.dropMalformed(client, clubsync.EventGetShaders, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	id := client.ID()
	player, ok := h.players[id]
	if !ok {
		return
	}
	player.ShaderIndex = shaderIndex

	h.broadcastExcept(id, clubsync.EventShaderUpdate, shaderUpdatePayload{ID: id, ShaderIndex: shaderIndex})
}

// AppearanceUpdate stores an opaque appearance blob on the player record
// and relays it to everyone else. No-op without a player record.
func (h *Hub) AppearanceUpdate(client clubsync.Client, data []byte) {
	if !json.Valid(data) {
		h.dropMalformed(client, clubsync.EventAppearanceUpdate, errors.New("payload is not valid JSON"))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	id := client.ID()
	player, ok := h.players[id]
	if !ok {
		return
	}
	player.Appearance = json.RawMessage(data)

	h.broadcastExcept(id, clubsync.EventAppearanceChanged, appearancePayload{ID: id, Appearance: player.Appearance})
}

// AnimationUpdate stores an opaque animation blob on the player record and
// relays it to everyone else. No-op without a player record.
func (h *Hub) AnimationUpdate(client clubsync.Client, data []byte) {
	if !json.Valid(data) {
		h.dropMalformed(client, clubsync.EventAnimationUpdate, errors.New("payload is not valid JSON"))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	id := client.ID()
	player, ok := h.players[id]
	if !ok {
		return
	}
	player.Animation = json.RawMessage(data)

	h.broadcastExcept(id, clubsync.EventAnimationChanged, animationPayload{ID: id, Animation: player.Animation})
}

// AudioSync relays a playback position to the sender's current room, i.e.
// the room of its most recent joinRoom. Connections that never joined a
// room are a silent no-op.
func (h *Hub) AudioSync(client clubsync.Client, data []byte) {
	var payload audioSyncPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		h.dropMalformed(client, clubsync.EventAudioSync, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	id := client.ID()
	roomID, ok := h.currentRoom[id]
	if !ok {
		return
	}
	members, ok := h.rooms[roomID]
	if !ok {
		// The current-room index points at a room missing from the room
		// table. Registry state is inconsistent; end this session and keep
		// the process alive.
		h.log.Errorw("room registry inconsistent, closing session",
			"client_id", id, "room", roomID)
		delete(h.currentRoom, id)
		client.Close(context.Background())
		return
	}

	h.broadcastRoom(members, id, clubsync.EventAudioSync, payload)
}

// EnvironmentUpdate replaces the value of each top-level key present in the
// partial update and relays the full resulting state to everyone but the
// sender. Replacement is shallow: a partial lights object drops the lights
// keys it does not name.
func (h *Hub) EnvironmentUpdate(client clubsync.Client, data []byte) {
	var update environmentUpdate
	if err := json.Unmarshal(data, &update); err != nil {
		h.dropMalformed(client, clubsync.EventEnvironmentUpdate, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.known(client, clubsync.EventEnvironmentUpdate) {
		return
	}

	if update.Lights != nil {
		h.env.Lights = update.Lights
	}
	if update.Shaders != nil {
		h.env.Shaders = update.Shaders
	}
	if update.AudioMode != nil {
		h.env.AudioMode = *update.AudioMode
	}

	h.log.Debugw("environment updated", "client_id", client.ID(), "audio_mode", h.env.AudioMode)
	h.broadcastExcept(client.ID(), clubsync.EventEnvironmentState, h.env)
}

// ChatMessage relays a chat line to every connection, the sender included.
// The payload is duck-typed on the wire (a bare string or {"message":...});
// it is normalized here, at the boundary. Senders without a player record
// chat as "Unknown".
func (h *Hub) ChatMessage(client clubsync.Client, data []byte) {
	message, err := normalizeChatMessage(data)
	if err != nil {
		h.dropMalformed(client, clubsync.EventChatMessage, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	id := client.ID()
	name := "Unknown"
	if player, ok := h.players[id]; ok {
		name = player.Username
	}

	h.broadcastAll(clubsync.EventChatMessage, chatPayload{ID: id, Name: name, Message: message})
}

// normalizeChatMessage accepts either a bare JSON string or an object with
// a message field and returns the single normalized form.
func normalizeChatMessage(data []byte) (string, error) {
	var wrapped struct {
		Message *string `json:"message"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Message != nil {
		return *wrapped.Message, nil
	}

	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		return bare, nil
	}

	return "", errors.New("chat payload is neither a string nor an object with a message field")
}

// Environment returns a snapshot of the current environment state.
func (h *Hub) Environment() EnvironmentState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.env
}

// PlayerCount returns the number of named connections.
func (h *Hub) PlayerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.players)
}

// playerList snapshots all player records. Callers hold h.mu.
func (h *Hub) playerList() []Player {
	players := make([]Player, 0, len(h.players))
	for _, p := range h.players {
		players = append(players, *p)
	}
	return players
}

// known guards handlers that mutate registries against events for
// connections the hub never saw. Callers hold h.mu.
func (h *Hub) known(client clubsync.Client, event string) bool {
	if _, ok := h.clients[client.ID()]; !ok {
		h.log.Warnw("event from unknown connection, dropping",
			"event", event, "client_id", client.ID())
		return false
	}
	return true
}

func (h *Hub) dropMalformed(client clubsync.Client, event string, err error) {
	h.log.Warnw("malformed payload, dropping",
		"event", event, "client_id", client.ID(), "error", err)
}

// sendTo delivers an event to a single client. Delivery failures only ever
// mean a closed connection or a full send buffer; either way the frame is
// gone and the registries stay consistent, so we just log it.
func (h *Hub) sendTo(client clubsync.Client, event string, data any) {
	if err := client.Send(context.Background(), event, data); err != nil {
		h.log.Debugw("send failed", "event", event, "client_id", client.ID(), "error", err)
	}
}

// broadcastAll delivers an event to every connection, sender included.
// Callers hold h.mu.
func (h *Hub) broadcastAll(event string, data any) {
	for _, client := range h.clients {
		h.sendTo(client, event, data)
	}
}

// broadcastExcept delivers an event to every connection but the sender.
// Callers hold h.mu.
func (h *Hub) broadcastExcept(senderID string, event string, data any) {
	for id, client := range h.clients {
		if id == senderID {
			continue
		}
		h.sendTo(client, event, data)
	}
}

// broadcastRoom delivers an event to a room's members, minus the sender.
// Callers hold h.mu.
func (h *Hub) broadcastRoom(members map[string]struct{}, senderID string, event string, data any) {
	for memberID := range members {
		if memberID == senderID {
			continue
		}
		if client, ok := h.clients[memberID]; ok {
			h.sendTo(client, event, data)
		}
	}
}
