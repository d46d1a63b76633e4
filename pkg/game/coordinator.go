package game

import (
	"errors"

	log "github.com/sirupsen/logrus"
)

// Coordinator turns inbound client events into registry and room operations
// and hands the resulting events to the gateway. It never calls the gateway
// while holding the registry lock or a room's state lock; only the room's
// delivery lock is held across a send.
type Coordinator struct {
	registry *Registry
	gateway  Gateway
}

func NewCoordinator(registry *Registry, gateway Gateway) *Coordinator {
	return &Coordinator{
		registry: registry,
		gateway:  gateway,
	}
}

func (c *Coordinator) CreateRoom(connID, name string) {
	room, board, err := c.registry.createRoom(connID, name)
	if err != nil {
		c.reject(connID, "", EventCreateRoom, err)
		return
	}
	defer room.delivery.Unlock()

	c.gateway.AddToGroup(room.Code(), connID)
	c.gateway.Emit(connID, EventRoomCreated, RoomCreated{
		RoomCode: room.Code(),
		Board:    board,
	})

	log.WithFields(log.Fields{
		"room":       room.Code(),
		"connection": connID,
		"player":     name,
	}).Info("Room created")
}

func (c *Coordinator) JoinRoom(connID, code, name string) {
	code = NormalizeCode(code)

	room, ok := c.registry.Room(code)
	if !ok {
		c.reject(connID, code, EventJoinRoom, ErrRoomNotFound)
		return
	}

	// Seating, grouping and the game start go out as one step, so a
	// disconnect that ends the room is delivered after the joiner is in
	// the group, never before.
	room.delivery.Lock()
	defer room.delivery.Unlock()

	out, err := c.registry.seatIn(room, connID, name)
	if err != nil {
		c.reject(connID, code, EventJoinRoom, err)
		return
	}

	c.gateway.AddToGroup(room.Code(), connID)
	c.dispatch(out)

	logFields := log.Fields{
		"room":       room.Code(),
		"connection": connID,
		"player":     name,
	}
	log.WithFields(logFields).Info("Player joined room")
	if len(out) > 0 {
		log.WithFields(logFields).Info("Game started")
	}
}

// CallNumber ignores calls for unknown rooms and calls made out of turn.
func (c *Coordinator) CallNumber(connID, code string, number int) {
	code = NormalizeCode(code)

	logFields := log.Fields{
		"room":       code,
		"connection": connID,
		"number":     number,
	}

	room, ok := c.registry.Room(code)
	if !ok {
		RejectedCallsCounter.Inc()
		log.WithFields(logFields).Debug("Ignoring call for unknown room")
		return
	}

	room.delivery.Lock()
	defer room.delivery.Unlock()

	out, finished, err := room.CallNumber(connID, number)
	if err != nil {
		RejectedCallsCounter.Inc()
		log.WithFields(logFields).WithError(err).Debug("Ignoring call")
		return
	}

	NumbersCalledCounter.Inc()

	if !finished {
		c.dispatch(out)
		log.WithFields(logFields).Debug("Number called")
		return
	}

	members := room.memberIDs()
	c.registry.release(room)
	GamesFinishedCounter.WithLabelValues(finishedReasonWin).Inc()

	c.dispatch(out)
	for _, id := range members {
		c.gateway.RemoveFromGroup(code, id)
	}

	log.WithFields(logFields).Info("Game over")
}

// Disconnect tears down whatever room connID was seated in. The remaining
// player is told and unseated as well.
func (c *Coordinator) Disconnect(connID string) {
	room, remaining, out, ok := c.registry.Disconnect(connID)
	if !ok {
		return
	}

	room.delivery.Lock()
	defer room.delivery.Unlock()

	c.gateway.RemoveFromGroup(room.Code(), connID)
	c.dispatch(out)
	for _, id := range remaining {
		c.gateway.RemoveFromGroup(room.Code(), id)
	}

	log.WithFields(log.Fields{
		"room":       room.Code(),
		"connection": connID,
	}).Info("Room ended by disconnect")
}

// Shutdown tells every connection the server is going away.
func (c *Coordinator) Shutdown() {
	c.gateway.Broadcast(EventError, ErrServerShuttingDown.Error())
	log.WithField("rooms", c.registry.Len()).Info("Notified connections of shutdown")
}

// RoomStatus looks up a live room for the status endpoint.
func (c *Coordinator) RoomStatus(code string) (RoomStatus, bool) {
	room, ok := c.registry.Room(code)
	if !ok {
		return RoomStatus{}, false
	}
	return room.Status(), true
}

func (c *Coordinator) reject(connID, code string, event EventType, err error) {
	log.WithFields(log.Fields{
		"room":       code,
		"connection": connID,
		"event":      event,
	}).WithError(err).Warn("Rejected request")

	msg := ErrCodeSpaceExhausted.Error()
	for _, known := range []error{ErrRoomNotFound, ErrRoomFull, ErrAlreadySeated} {
		if errors.Is(err, known) {
			msg = known.Error()
			break
		}
	}

	c.gateway.Emit(connID, EventError, msg)
}

func (c *Coordinator) dispatch(out []Outbound) {
	for _, o := range out {
		if o.ConnID != "" {
			c.gateway.Emit(o.ConnID, o.Event, o.Payload)
		} else {
			c.gateway.EmitToGroup(o.Group, o.Event, o.Payload)
		}
	}
}
