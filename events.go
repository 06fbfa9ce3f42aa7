package clubsync

// Inbound event names (client -> server).
const (
	EventSetUsername       = "set username"
	EventJoinRoom          = "joinRoom"
	EventPlayerMove        = "playerMove"
	EventGetShaders        = "get shaders"
	EventAppearanceUpdate  = "appearanceUpdate"
	EventAnimationUpdate   = "animationUpdate"
	EventAudioSync         = "audioSync"
	EventEnvironmentUpdate = "environmentUpdate"
	EventChatMessage       = "chat message"
)

// Outbound event names (server -> client). EventAudioSync and
// EventChatMessage are reused in both directions.
const (
	EventInitialState      = "initialState"
	EventNewPlayer         = "newPlayer"
	EventExistingPlayers   = "existingPlayers"
	EventRoomState         = "roomState"
	EventPlayerMoved       = "playerMoved"
	EventShaderUpdate      = "shader update"
	EventAppearanceChanged = "playerAppearanceChanged"
	EventAnimationChanged  = "playerAnimationChanged"
	EventEnvironmentState  = "environmentUpdated"
	EventDeletePlayer      = "deletePlayer"
)

// Standard error messages
const (
	// Protocol errors
	ErrInvalidMessageFormat = "invalid message format"

	// Connection errors
	ErrClientNotFound       = "client not found"
	ErrConnectionClosed     = "client connection is closed"
	ErrContextCancelled     = "client context cancelled"
	ErrSendBufferFull       = "client send buffer full, message dropped"
	ErrFailedToEncode       = "failed to encode message"
	ErrServerAlreadyRunning = "server already running"
)
