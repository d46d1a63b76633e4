package game

import (
	"sync"
)

// MaxPlayers is the capacity of every room.
const MaxPlayers = 2

// RoomState is the lifecycle phase of a room. Rooms only move forward
// through the states, and a finished room is never reused.
type RoomState string

const (
	// RoomStateWaiting means the creator is seated and waiting for an
	// opponent. No numbers may be called yet.
	RoomStateWaiting RoomState = "waiting"
	// RoomStateActive means both players are seated and take turns calling.
	RoomStateActive RoomState = "active"
	// RoomStateFinished means a player won or left. The room is removed from
	// the registry as soon as it gets here.
	RoomStateFinished RoomState = "finished"
)

type Player struct {
	ID    string
	Name  string
	Board Board
	Marks Marks
}

// Room is one two-player game. Game state is guarded by lock. delivery is
// held by the coordinator for as long as it takes to change the room and
// hand the resulting events to the gateway, so each room's events reach the
// transport in the order its state changed.
type Room struct {
	delivery sync.Mutex

	lock    sync.Mutex
	code    string
	players []*Player
	turn    string
	state   RoomState
}

// RoomStatus is a read-only view of a room that leaves out boards and marks.
type RoomStatus struct {
	RoomCode string    `json:"roomCode"`
	State    RoomState `json:"state"`
	Players  []string  `json:"players"`
	Turn     string    `json:"turn,omitempty"`
}

func newRoom(code string, creator *Player) *Room {
	return &Room{
		code:    code,
		players: []*Player{creator},
		turn:    creator.ID,
		state:   RoomStateWaiting,
	}
}

func (r *Room) Code() string {
	return r.code
}

func (r *Room) Status() RoomStatus {
	r.lock.Lock()
	defer r.lock.Unlock()

	status := RoomStatus{
		RoomCode: r.code,
		State:    r.state,
		Players:  make([]string, 0, len(r.players)),
	}
	for _, p := range r.players {
		status.Players = append(status.Players, p.Name)
	}
	if r.state == RoomStateActive {
		status.Turn = r.turn
	}

	return status
}

func (r *Room) memberIDs() []string {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.memberIDsLocked()
}

func (r *Room) memberIDsLocked() []string {
	ids := make([]string, 0, len(r.players))
	for _, p := range r.players {
		ids = append(ids, p.ID)
	}
	return ids
}

func (r *Room) player(id string) *Player {
	for _, p := range r.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// seat adds a player with a fresh board. Once the second player sits down
// the game starts and both players are told about it.
func (r *Room) seat(connID, name string, boards BoardGenerator) ([]Outbound, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.state == RoomStateFinished {
		return nil, ErrRoomNotFound
	}
	if len(r.players) >= MaxPlayers {
		return nil, ErrRoomFull
	}

	r.players = append(r.players, &Player{
		ID:    connID,
		Name:  name,
		Board: boards.GenerateBoard(),
	})

	if len(r.players) != MaxPlayers {
		return nil, nil
	}

	r.state = RoomStateActive
	GamesStartedCounter.Inc()

	start := GameStart{
		Boards:  make(map[string]Board, len(r.players)),
		Players: r.memberIDsLocked(),
		Turn:    r.turn,
	}
	for _, p := range r.players {
		start.Boards[p.ID] = p.Board
	}

	return []Outbound{toGroup(r.code, EventGameStart, start)}, nil
}

// CallNumber marks number on every board and either ends the game or passes
// the turn. A call from anyone but the turn holder, or outside an active
// game, changes nothing and returns ErrIllegalMove.
func (r *Room) CallNumber(callerID string, number int) (out []Outbound, finished bool, err error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.state != RoomStateActive || r.turn != callerID {
		return nil, false, ErrIllegalMove
	}

	for _, p := range r.players {
		if idx := p.Board.IndexOf(number); idx >= 0 {
			p.Marks[idx] = true
		}
	}

	// Seating order breaks ties, so the creator wins a shared finish.
	for _, p := range r.players {
		if CountCompletedLines(p.Marks) >= WinningLines {
			r.state = RoomStateFinished
			return []Outbound{
				toGroup(r.code, EventGameOver, GameOver{Winner: p.Name}),
			}, true, nil
		}
	}

	for _, p := range r.players {
		if p.ID != callerID {
			r.turn = p.ID
			break
		}
	}

	called := NumberCalled{
		Number: number,
		Marks:  make(map[string]Marks, len(r.players)),
		Turn:   r.turn,
	}
	for _, p := range r.players {
		called.Marks[p.ID] = p.Marks
	}

	return []Outbound{toGroup(r.code, EventNumberCalled, called)}, false, nil
}

// removePlayer takes connID out of the room and finishes it. It returns the
// ids still seated, the notice for them, and the state the room was in. A
// room that had already finished, such as one just won, gets no notice.
func (r *Room) removePlayer(connID string) ([]string, []Outbound, RoomState) {
	r.lock.Lock()
	defer r.lock.Unlock()

	previous := r.state
	for i, p := range r.players {
		if p.ID == connID {
			r.players = append(r.players[:i], r.players[i+1:]...)
			break
		}
	}
	r.state = RoomStateFinished

	remaining := r.memberIDsLocked()
	if len(remaining) == 0 || previous == RoomStateFinished {
		return remaining, nil, previous
	}

	return remaining, []Outbound{
		toGroup(r.code, EventError, ErrPlayerDisconnected.Error()),
	}, previous
}
