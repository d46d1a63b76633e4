package pkg

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mtaylor91/bingo-server/pkg/game"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Session is one websocket connection. Its UUID is the connection id the
// game knows players by.
type Session struct {
	manager *Manager
	lock    sync.RWMutex
	uuid    uuid.UUID
	conn    *websocket.Conn
	send    chan []byte
	closed  bool
	groups  []*Group
}

func (s *Session) id() string {
	return s.uuid.String()
}

// enqueue hands a frame to the write pump without blocking. Frames for a
// closed session, or one whose queue is full, are dropped.
func (s *Session) enqueue(message []byte) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if s.closed {
		return false
	}

	select {
	case s.send <- message:
		return true
	default:
		BingoServerDroppedMessagesCounter.Inc()
		log.WithField("session", s.uuid).Warn("Send queue full, dropping message")
		return false
	}
}

func (s *Session) close() {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.closed {
		s.closed = true
		close(s.send)
	}
}

func (s *Session) joinGroup(g *Group) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.groups = append(s.groups, g)
}

func (s *Session) leaveGroup(g *Group) {
	s.lock.Lock()
	defer s.lock.Unlock()
	for i, group := range s.groups {
		if group == g {
			s.groups = append(s.groups[:i], s.groups[i+1:]...)
			break
		}
	}
}

func (s *Session) memberships() []*Group {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return append([]*Group(nil), s.groups...)
}

func (s *Session) handleMessage(messageData []byte) error {
	message, err := decodeMessage(messageData)
	if err != nil {
		return fmt.Errorf("failed to decode message: %w", err)
	}

	log.WithFields(log.Fields{
		"session": s.uuid,
		"event":   message.Event,
	}).Debug("Received message")

	dispatcher := s.manager.dispatcher

	switch message.Event {
	case game.EventCreateRoom:
		var req game.CreateRoomRequest
		if err := message.decodePayload(&req); err != nil {
			return err
		}
		dispatcher.CreateRoom(s.id(), req.Name)
	case game.EventJoinRoom:
		var req game.JoinRoomRequest
		if err := message.decodePayload(&req); err != nil {
			return err
		}
		dispatcher.JoinRoom(s.id(), req.RoomCode, req.Name)
	case game.EventCallNumber:
		var req game.CallNumberRequest
		if err := message.decodePayload(&req); err != nil {
			return err
		}
		dispatcher.CallNumber(s.id(), req.RoomCode, req.Number)
	default:
		return fmt.Errorf("unknown event %q", message.Event)
	}

	return nil
}

func (s *Session) read() {
	s.conn.SetReadLimit(MaxMessageLength)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived) {
				log.Error("Failed to read message: ", err)
			}
			break
		}

		if err := s.handleMessage(message); err != nil {
			log.WithField("session", s.uuid).Warn("Failed to handle message: ", err)
			s.manager.Emit(s.id(), game.EventError, malformedMessage)
		}
	}
}

func (s *Session) write() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error("Failed to write message: ", err)
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error("Failed to write ping: ", err)
				return
			}
		}
	}
}
