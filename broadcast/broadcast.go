// broadcast/broadcast.go
package broadcast

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wfunc/coinflip/logger"
	"github.com/wfunc/coinflip/session"
)

var (
	ErrSessionNotFound = errors.New("session not found")
)

// Broadcaster delivers outbound envelopes to sessions.
type Broadcaster interface {
	SendTo(sessionID string, msg any) error
	BroadcastToSessions(sessionIDs []string, msg any) error
	BroadcastToAll(msg any) error
}

// SessionBroadcaster delivers JSON envelopes through the session manager.
// Closed sessions are skipped.
type SessionBroadcaster struct {
	sessionManager *session.Manager
}

func NewSessionBroadcaster(sessionManager *session.Manager) *SessionBroadcaster {
	return &SessionBroadcaster{
		sessionManager: sessionManager,
	}
}

func (b *SessionBroadcaster) SendTo(sessionID string, msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	s, ok := b.sessionManager.Get(sessionID)
	if !ok || !s.IsOpen() {
		return ErrSessionNotFound
	}
	return s.Send(data)
}

func (b *SessionBroadcaster) BroadcastToSessions(sessionIDs []string, msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	for _, id := range sessionIDs {
		s, ok := b.sessionManager.Get(id)
		if !ok || !s.IsOpen() {
			continue
		}
		if err := s.Send(data); err != nil {
			logger.Log.Debugf("broadcast to session %s failed: %v", id, err)
		}
	}
	return nil
}

func (b *SessionBroadcaster) BroadcastToAll(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	for _, s := range b.sessionManager.Open() {
		if err := s.Send(data); err != nil {
			logger.Log.Debugf("broadcast to session %s failed: %v", s.ID, err)
		}
	}
	return nil
}
