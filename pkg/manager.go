package pkg

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/mtaylor91/bingo-server/pkg/game"
	log "github.com/sirupsen/logrus"
)

// Dispatcher receives the game events decoded from client frames, plus the
// transport generated disconnect.
type Dispatcher interface {
	CreateRoom(connID, name string)
	JoinRoom(connID, code, name string)
	CallNumber(connID, code string, number int)
	Disconnect(connID string)
	RoomStatus(code string) (game.RoomStatus, bool)
}

type ManagerOptions struct {
	// AllowedOrigins lists the browser origins allowed to open a socket. A
	// "*" entry allows any origin.
	AllowedOrigins []string
	SendBuffer     int
}

// Manager is the websocket side of the game: it owns sessions and groups and
// implements game.Gateway on top of them.
type Manager struct {
	lock       sync.RWMutex
	sessions   map[uuid.UUID]*Session
	groups     map[string]*Group
	upgrader   websocket.Upgrader
	sendBuffer int
	dispatcher Dispatcher
}

var _ game.Gateway = &Manager{}

func NewManager(options ManagerOptions) *Manager {
	sendBuffer := options.SendBuffer
	if sendBuffer <= 0 {
		sendBuffer = 256
	}

	return &Manager{
		sessions:   make(map[uuid.UUID]*Session),
		groups:     make(map[string]*Group),
		sendBuffer: sendBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(options.AllowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// SetDispatcher must be called before the socket handler serves traffic.
func (m *Manager) SetDispatcher(d Dispatcher) {
	m.dispatcher = d
}

func (m *Manager) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/v1/health", m.HealthHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/socket", m.SocketHandler)
	router.HandleFunc("/api/v1/rooms/{code}", m.RoomHandler).Methods(http.MethodGet)
}

func (m *Manager) NewSession(conn *websocket.Conn) *Session {
	m.lock.Lock()
	defer m.lock.Unlock()

	s := &Session{
		manager: m,
		uuid:    uuid.New(),
		conn:    conn,
		send:    make(chan []byte, m.sendBuffer),
		groups:  make([]*Group, 0),
	}

	m.sessions[s.uuid] = s
	BingoServerSessionsGauge.Inc()

	return s
}

func (m *Manager) GetSession(connID string) *Session {
	id, err := uuid.Parse(connID)
	if err != nil {
		return nil
	}

	m.lock.RLock()
	defer m.lock.RUnlock()

	return m.sessions[id]
}

func (m *Manager) GetGroup(name string) *Group {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return m.groups[name]
}

func (m *Manager) getOrCreateGroupLocked(name string) *Group {
	if group, ok := m.groups[name]; ok {
		return group
	}

	group := &Group{
		name:     name,
		sessions: make([]*Session, 0),
	}
	m.groups[name] = group

	return group
}

// DeleteSession forgets the session, takes it out of every group, closes its
// queue and then reports the disconnect to the game, so the leaving
// connection never hears about it.
func (m *Manager) DeleteSession(session *Session) {
	m.lock.Lock()

	if _, ok := m.sessions[session.uuid]; !ok {
		m.lock.Unlock()
		return
	}

	delete(m.sessions, session.uuid)

	for _, group := range session.memberships() {
		if group.remove(session) == 0 {
			delete(m.groups, group.name)
		}
		session.leaveGroup(group)
	}

	BingoServerSessionsGauge.Dec()
	m.lock.Unlock()

	session.close()

	if m.dispatcher != nil {
		m.dispatcher.Disconnect(session.id())
	}
}

func (m *Manager) AddToGroup(name, connID string) {
	session := m.GetSession(connID)
	if session == nil {
		return
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	// The session may have gone away since the lookup.
	if _, ok := m.sessions[session.uuid]; !ok {
		return
	}

	if m.getOrCreateGroupLocked(name).add(session) {
		session.joinGroup(m.groups[name])
	}
}

func (m *Manager) RemoveFromGroup(name, connID string) {
	session := m.GetSession(connID)
	if session == nil {
		return
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	group, ok := m.groups[name]
	if !ok {
		return
	}

	if group.remove(session) == 0 {
		delete(m.groups, name)
	}
	session.leaveGroup(group)
}

func (m *Manager) Emit(connID string, event game.EventType, payload any) {
	session := m.GetSession(connID)
	if session == nil {
		return
	}

	message, err := encodeMessage(event, payload)
	if err != nil {
		log.Error("Failed to encode message: ", err)
		return
	}

	session.enqueue(message)
}

func (m *Manager) EmitToGroup(name string, event game.EventType, payload any) {
	group := m.GetGroup(name)
	if group == nil {
		return
	}

	message, err := encodeMessage(event, payload)
	if err != nil {
		log.Error("Failed to encode message: ", err)
		return
	}

	for _, session := range group.members() {
		session.enqueue(message)
	}
}

func (m *Manager) Broadcast(event game.EventType, payload any) {
	message, err := encodeMessage(event, payload)
	if err != nil {
		log.Error("Failed to encode message: ", err)
		return
	}

	m.lock.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	m.lock.RUnlock()

	for _, session := range sessions {
		session.enqueue(message)
	}
}

func (m *Manager) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
}

func (m *Manager) RoomHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")

	status, ok := m.dispatcher.RoomStatus(mux.Vars(r)["code"])
	if !ok {
		http.Error(w, game.ErrRoomNotFound.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Error("Failed to write room status: ", err)
	}
}

func (m *Manager) SocketHandler(w http.ResponseWriter, r *http.Request) {
	// Set the response headers
	w.Header().Set("Cache-Control", "no-cache")

	// Upgrade the connection to a websocket connection
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Failed to upgrade connection: ", err)
		return
	}

	defer conn.Close()

	// Register our new session
	session := m.NewSession(conn)

	logFields := log.Fields{
		"session": session.uuid,
		"remote":  r.RemoteAddr,
	}

	log.WithFields(logFields).Info("New session")

	// Write messages to the connection
	go session.write()

	// Read messages until the client goes away
	session.read()

	m.DeleteSession(session)

	log.WithFields(logFields).Info("Closed session")
}
