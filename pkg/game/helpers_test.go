package game

import (
	"sync"
)

func identityBoard() Board {
	var board Board
	for i := range board {
		board[i] = i + 1
	}
	return board
}

func reversedBoard() Board {
	var board Board
	for i := range board {
		board[i] = BoardSize - i
	}
	return board
}

// boardQueue deals the queued boards in order, then identity boards.
type boardQueue struct {
	lock   sync.Mutex
	boards []Board
}

func (q *boardQueue) GenerateBoard() Board {
	q.lock.Lock()
	defer q.lock.Unlock()

	if len(q.boards) == 0 {
		return identityBoard()
	}
	board := q.boards[0]
	q.boards = q.boards[1:]
	return board
}

func codeSequence(codes ...string) CodeGenerator {
	var lock sync.Mutex
	return func() string {
		lock.Lock()
		defer lock.Unlock()

		code := codes[0]
		if len(codes) > 1 {
			codes = codes[1:]
		}
		return code
	}
}

type sentEvent struct {
	ConnID  string
	Group   string
	Event   EventType
	Payload any
}

// recordingGateway keeps every send in order, plus what each connection
// would have received given the group memberships at the time.
type recordingGateway struct {
	lock    sync.Mutex
	events  []sentEvent
	groups  map[string]map[string]bool
	inboxes map[string][]EventType
}

func newRecordingGateway() *recordingGateway {
	return &recordingGateway{
		groups:  make(map[string]map[string]bool),
		inboxes: make(map[string][]EventType),
	}
}

func (g *recordingGateway) Emit(connID string, event EventType, payload any) {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.events = append(g.events, sentEvent{ConnID: connID, Event: event, Payload: payload})
	g.inboxes[connID] = append(g.inboxes[connID], event)
}

func (g *recordingGateway) EmitToGroup(group string, event EventType, payload any) {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.events = append(g.events, sentEvent{Group: group, Event: event, Payload: payload})
	for id := range g.groups[group] {
		g.inboxes[id] = append(g.inboxes[id], event)
	}
}

func (g *recordingGateway) inbox(connID string) []EventType {
	g.lock.Lock()
	defer g.lock.Unlock()
	return append([]EventType(nil), g.inboxes[connID]...)
}

func (g *recordingGateway) Broadcast(event EventType, payload any) {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.events = append(g.events, sentEvent{Event: event, Payload: payload})
}

func (g *recordingGateway) AddToGroup(group, connID string) {
	g.lock.Lock()
	defer g.lock.Unlock()
	if g.groups[group] == nil {
		g.groups[group] = make(map[string]bool)
	}
	g.groups[group][connID] = true
}

func (g *recordingGateway) RemoveFromGroup(group, connID string) {
	g.lock.Lock()
	defer g.lock.Unlock()
	delete(g.groups[group], connID)
	if len(g.groups[group]) == 0 {
		delete(g.groups, group)
	}
}

func (g *recordingGateway) members(group string) []string {
	g.lock.Lock()
	defer g.lock.Unlock()
	ids := make([]string, 0, len(g.groups[group]))
	for id := range g.groups[group] {
		ids = append(ids, id)
	}
	return ids
}

func (g *recordingGateway) sent() []sentEvent {
	g.lock.Lock()
	defer g.lock.Unlock()
	return append([]sentEvent(nil), g.events...)
}

func (g *recordingGateway) last() sentEvent {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.events[len(g.events)-1]
}

func (g *recordingGateway) reset() {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.events = nil
}

// hookGateway runs onAdd before a connection is added to a group.
type hookGateway struct {
	*recordingGateway
	onAdd func(group, connID string)
}

func (g *hookGateway) AddToGroup(group, connID string) {
	if g.onAdd != nil {
		g.onAdd(group, connID)
	}
	g.recordingGateway.AddToGroup(group, connID)
}
