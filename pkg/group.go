package pkg

import (
	"sync"
)

// Group is a named set of sessions that can be addressed together. The
// game uses one group per room code.
type Group struct {
	lock     sync.RWMutex
	name     string
	sessions []*Session
}

func (g *Group) add(s *Session) bool {
	g.lock.Lock()
	defer g.lock.Unlock()

	for _, session := range g.sessions {
		if session == s {
			return false
		}
	}

	g.sessions = append(g.sessions, s)
	return true
}

func (g *Group) remove(s *Session) int {
	g.lock.Lock()
	defer g.lock.Unlock()

	for i, session := range g.sessions {
		if session == s {
			g.sessions = append(g.sessions[:i], g.sessions[i+1:]...)
			break
		}
	}

	return len(g.sessions)
}

func (g *Group) members() []*Session {
	g.lock.RLock()
	defer g.lock.RUnlock()

	return append([]*Session(nil), g.sessions...)
}
