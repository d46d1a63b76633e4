package game

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

const (
	codeLength      = 5
	maxCodeAttempts = 32
)

// CodeGenerator produces candidate room codes. Candidates may collide; the
// registry retries until it finds a free one.
type CodeGenerator func() string

// NewRoomCode derives a five character uppercase code from a random UUID.
func NewRoomCode() string {
	return strings.ToUpper(uuid.NewString()[:codeLength])
}

// NormalizeCode maps client supplied codes onto the registry's keys.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Registry owns every live room, keyed by code, and remembers which room
// each connection is seated in. Lock order is registry before room.
type Registry struct {
	lock    sync.RWMutex
	rooms   map[string]*Room
	seats   map[string]string
	boards  BoardGenerator
	newCode CodeGenerator
}

func NewRegistry(boards BoardGenerator, newCode CodeGenerator) *Registry {
	if newCode == nil {
		newCode = NewRoomCode
	}

	return &Registry{
		rooms:   make(map[string]*Room),
		seats:   make(map[string]string),
		boards:  boards,
		newCode: newCode,
	}
}

// CreateRoom seats connID alone in a room under a fresh code and returns the
// room with the creator's board.
func (r *Registry) CreateRoom(connID, name string) (*Room, Board, error) {
	room, board, err := r.createRoom(connID, name)
	if err != nil {
		return nil, Board{}, err
	}
	room.delivery.Unlock()
	return room, board, nil
}

// createRoom is CreateRoom, but hands the room back with its delivery lock
// held so nobody can deliver to the room before the creator is grouped.
func (r *Registry) createRoom(connID, name string) (*Room, Board, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, seated := r.seats[connID]; seated {
		return nil, Board{}, ErrAlreadySeated
	}

	code := ""
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		candidate := r.newCode()
		if _, taken := r.rooms[candidate]; !taken {
			code = candidate
			break
		}
	}
	if code == "" {
		return nil, Board{}, ErrCodeSpaceExhausted
	}

	creator := &Player{
		ID:    connID,
		Name:  name,
		Board: r.boards.GenerateBoard(),
	}
	room := newRoom(code, creator)
	room.delivery.Lock()

	r.rooms[code] = room
	r.seats[connID] = code
	RoomsGauge.Inc()

	return room, creator.Board, nil
}

// JoinRoom seats connID in the room with the given code. The returned events
// announce the game start when the room just filled up.
func (r *Registry) JoinRoom(code, connID, name string) (*Room, []Outbound, error) {
	code = NormalizeCode(code)

	r.lock.Lock()
	defer r.lock.Unlock()

	if _, seated := r.seats[connID]; seated {
		return nil, nil, ErrAlreadySeated
	}

	room, ok := r.rooms[code]
	if !ok {
		return nil, nil, ErrRoomNotFound
	}

	out, err := r.seatLocked(room, connID, name)
	if err != nil {
		return nil, nil, err
	}

	return room, out, nil
}

// seatIn is JoinRoom for a room the caller already holds. It fails with
// ErrRoomNotFound once room is no longer the one registered under its code.
func (r *Registry) seatIn(room *Room, connID, name string) ([]Outbound, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, seated := r.seats[connID]; seated {
		return nil, ErrAlreadySeated
	}
	if r.rooms[room.code] != room {
		return nil, ErrRoomNotFound
	}

	return r.seatLocked(room, connID, name)
}

func (r *Registry) seatLocked(room *Room, connID, name string) ([]Outbound, error) {
	out, err := room.seat(connID, name, r.boards)
	if err != nil {
		return nil, err
	}

	r.seats[connID] = room.code
	return out, nil
}

func (r *Registry) Room(code string) (*Room, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	room, ok := r.rooms[NormalizeCode(code)]
	return room, ok
}

// RoomOf returns the room connID is seated in.
func (r *Registry) RoomOf(connID string) (*Room, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	code, ok := r.seats[connID]
	if !ok {
		return nil, false
	}
	return r.rooms[code], true
}

// RemoveRoom deletes the room and frees the seats of everyone in it.
func (r *Registry) RemoveRoom(code string) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.removeRoomLocked(NormalizeCode(code))
}

// release removes room only if it is still the one registered under its
// code, so a late cleanup cannot evict a newer room that reused the code.
func (r *Registry) release(room *Room) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.rooms[room.code] == room {
		r.removeRoomLocked(room.code)
	}
}

func (r *Registry) removeRoomLocked(code string) {
	room, ok := r.rooms[code]
	if !ok {
		return
	}

	for _, id := range room.memberIDs() {
		if r.seats[id] == code {
			delete(r.seats, id)
		}
	}

	delete(r.rooms, code)
	RoomsGauge.Dec()
}

// Disconnect ends the game connID was seated in, if any. The room is gone
// from the registry by the time this returns.
func (r *Registry) Disconnect(connID string) (*Room, []string, []Outbound, bool) {
	r.lock.Lock()
	defer r.lock.Unlock()

	code, ok := r.seats[connID]
	if !ok {
		return nil, nil, nil, false
	}
	room := r.rooms[code]

	delete(r.seats, connID)
	remaining, out, previous := room.removePlayer(connID)
	r.removeRoomLocked(code)

	if previous == RoomStateActive {
		GamesFinishedCounter.WithLabelValues(finishedReasonDisconnect).Inc()
	}

	return room, remaining, out, true
}

func (r *Registry) Len() int {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return len(r.rooms)
}
