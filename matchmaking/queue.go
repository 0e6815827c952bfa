package matchmaking

import (
	"github.com/wfunc/coinflip/models"
)

// Queue is the FIFO of players waiting for an opponent at a given stake.
// It reads each entry's PendingStake at match time. Queue is not safe for
// concurrent use; the owning service serializes access.
type Queue struct {
	players []*models.Player
}

func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends p unless a player with the same ID is already waiting.
// It returns the 1-indexed queue length after the call.
func (q *Queue) Enqueue(p *models.Player) int {
	if !q.Contains(p.ID) {
		q.players = append(q.players, p)
	}
	return len(q.players)
}

// TakeMatch removes and returns the earliest waiting player whose identity
// differs from playerID and whose pending stake equals stake.
func (q *Queue) TakeMatch(playerID string, stake int64) *models.Player {
	for i, p := range q.players {
		if p.ID != playerID && p.PendingStake == stake {
			q.players = append(q.players[:i], q.players[i+1:]...)
			return p
		}
	}
	return nil
}

// Remove drops playerID from the queue. It reports whether it was present.
func (q *Queue) Remove(playerID string) bool {
	for i, p := range q.players {
		if p.ID == playerID {
			q.players = append(q.players[:i], q.players[i+1:]...)
			return true
		}
	}
	return false
}

func (q *Queue) Contains(playerID string) bool {
	return q.Position(playerID) > 0
}

// Position is the 1-indexed place of playerID, or 0 when absent.
func (q *Queue) Position(playerID string) int {
	for i, p := range q.players {
		if p.ID == playerID {
			return i + 1
		}
	}
	return 0
}

func (q *Queue) Len() int {
	return len(q.players)
}
