// session/session.go
package session

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wfunc/coinflip/logger"
	"github.com/wfunc/coinflip/network"
)

var (
	ErrSessionClosed  = errors.New("session closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

const DefaultSendBuffer = 64

// Session is one live connection. Outbound frames are queued and written by a
// dedicated goroutine so callers never block on the socket.
type Session struct {
	ID         string
	Conn       network.Connection
	CreatedAt  time.Time
	lastActive atomic.Int64

	send      chan []byte
	done      chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once
	startOnce sync.Once
}

func NewSession(id string, conn network.Connection, bufferSize int) *Session {
	if bufferSize <= 0 {
		bufferSize = DefaultSendBuffer
	}
	now := time.Now()
	s := &Session{
		ID:        id,
		Conn:      conn,
		CreatedAt: now,
		send:      make(chan []byte, bufferSize),
		done:      make(chan struct{}),
	}
	s.lastActive.Store(now.UnixNano())
	return s
}

// Start launches the write pump. A positive heartbeat also makes the pump
// ping the peer on that interval.
func (s *Session) Start(heartbeat time.Duration) {
	s.startOnce.Do(func() {
		if heartbeat > 0 {
			s.Conn.SetHeartbeat(heartbeat)
		}
		go s.writeLoop(heartbeat)
	})
}

func (s *Session) writeLoop(heartbeat time.Duration) {
	var pings <-chan time.Time
	if heartbeat > 0 {
		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()
		pings = ticker.C
	}

	for {
		select {
		case data := <-s.send:
			if err := s.Conn.WriteMessage(data); err != nil {
				logger.Log.Debugf("session %s write failed: %v", s.ID, err)
				s.Close()
				return
			}
		case <-pings:
			if err := s.Conn.Ping(); err != nil {
				logger.Log.Debugf("session %s ping failed: %v", s.ID, err)
				s.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}

// Send queues data for delivery without blocking.
func (s *Session) Send(data []byte) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	select {
	case s.send <- data:
		return nil
	case <-s.done:
		return ErrSessionClosed
	default:
		logger.Log.Warnf("session %s send buffer full, dropping message", s.ID)
		return ErrSendBufferFull
	}
}

func (s *Session) Touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

func (s *Session) IsOpen() bool {
	return !s.closed.Load()
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.done)
		err = s.Conn.Close()
	})
	return err
}

// Manager tracks every open connection, authenticated or not.
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// Open returns a snapshot of the sessions that are still open.
func (m *Manager) Open() []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	result := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		if session.IsOpen() {
			result = append(result, session)
		}
	}
	return result
}

// CloseAll closes every tracked session.
func (m *Manager) CloseAll() {
	for _, session := range m.Open() {
		_ = session.Close()
	}
}
