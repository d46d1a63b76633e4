package game

type EventType string

// Inbound events.
const (
	EventCreateRoom EventType = "create-room"
	EventJoinRoom   EventType = "join-room"
	EventCallNumber EventType = "call-number"
)

// Outbound events.
const (
	EventRoomCreated  EventType = "room-created"
	EventGameStart    EventType = "game-start"
	EventNumberCalled EventType = "number-called"
	EventGameOver     EventType = "game-over"
	EventError        EventType = "error"
)

type CreateRoomRequest struct {
	Name string `json:"name"`
}

type JoinRoomRequest struct {
	RoomCode string `json:"roomCode"`
	Name     string `json:"name"`
}

type CallNumberRequest struct {
	RoomCode string `json:"roomCode"`
	Number   int    `json:"number"`
}

type RoomCreated struct {
	RoomCode string `json:"roomCode"`
	Board    Board  `json:"board"`
}

type GameStart struct {
	Boards  map[string]Board `json:"boards"`
	Players []string         `json:"players"`
	Turn    string           `json:"turn"`
}

type NumberCalled struct {
	Number int              `json:"number"`
	Marks  map[string]Marks `json:"marks"`
	Turn   string           `json:"turn"`
}

type GameOver struct {
	Winner string `json:"winner"`
}

// Outbound is an event a room wants delivered. Exactly one of ConnID and
// Group is set.
type Outbound struct {
	Event   EventType
	Payload any
	ConnID  string
	Group   string
}

func toGroup(group string, event EventType, payload any) Outbound {
	return Outbound{Event: event, Payload: payload, Group: group}
}
