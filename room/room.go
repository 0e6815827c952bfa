// room/room.go
package room

import (
	"errors"
	"sync"
	"time"

	"github.com/wfunc/coinflip/models"
	"github.com/wfunc/coinflip/state"
)

// Phase is the room's position in its lifecycle.
type Phase = state.State

const (
	PhaseBetting  Phase = "betting"
	PhaseFlipping Phase = "flipping"
	PhaseResolved Phase = "resolved"
	PhaseClosed   Phase = "closed"
)

var (
	ErrNotParticipant = errors.New("player is not in this room")
	ErrBettingClosed  = errors.New("betting is closed")
)

// Room is one two-player wager.
type Room struct {
	ID        string
	Players   [2]*models.Player
	Stake     int64
	Bets      map[string]models.Choice
	Timer     int
	Result    models.Choice
	Winner    string
	CreatedAt time.Time

	// scheduled task ids, 0 when none
	CountdownTimer int64
	FlipTimer      int64
	CleanupTimer   int64

	machine *state.BaseStateMachine
}

// NewRoom creates a room in the betting phase.
func NewRoom(id string, a, b *models.Player, stake int64, countdown int, now time.Time) *Room {
	r := &Room{
		ID:        id,
		Players:   [2]*models.Player{a, b},
		Stake:     stake,
		Bets:      make(map[string]models.Choice, 2),
		Timer:     countdown,
		CreatedAt: now,
		machine:   state.NewBaseStateMachine(PhaseBetting),
	}

	r.machine.AddTransition(PhaseBetting, PhaseFlipping, nil)
	r.machine.AddTransition(PhaseBetting, PhaseResolved, nil)
	r.machine.AddTransition(PhaseBetting, PhaseClosed, nil)
	r.machine.AddTransition(PhaseFlipping, PhaseResolved, nil)
	r.machine.AddTransition(PhaseFlipping, PhaseClosed, nil)
	r.machine.AddTransition(PhaseResolved, PhaseClosed, nil)
	return r
}

func (r *Room) Phase() Phase {
	return r.machine.GetCurrentState()
}

func (r *Room) Transition(to Phase) error {
	return r.machine.ChangeState(to)
}

// Can reports whether the room may move to phase to right now.
func (r *Room) Can(to Phase) bool {
	return r.machine.Can(to)
}

// OnEnter registers hook to run every time the room enters phase p.
func (r *Room) OnEnter(p Phase, hook state.Hook) {
	r.machine.OnEnter(p, hook)
}

// OnExit registers hook to run every time the room leaves phase p.
func (r *Room) OnExit(p Phase, hook state.Hook) {
	r.machine.OnExit(p, hook)
}

func (r *Room) Has(playerID string) bool {
	return r.index(playerID) >= 0
}

func (r *Room) index(playerID string) int {
	for i, p := range r.Players {
		if p != nil && p.ID == playerID {
			return i
		}
	}
	return -1
}

// Opponent returns the other participant, or nil if playerID is not seated.
func (r *Room) Opponent(playerID string) *models.Player {
	switch r.index(playerID) {
	case 0:
		return r.Players[1]
	case 1:
		return r.Players[0]
	}
	return nil
}

// PlaceBet records or overwrites playerID's choice.
func (r *Room) PlaceBet(playerID string, choice models.Choice) error {
	if r.Phase() != PhaseBetting {
		return ErrBettingClosed
	}
	if !r.Has(playerID) {
		return ErrNotParticipant
	}
	r.Bets[playerID] = choice
	return nil
}

func (r *Room) Bet(playerID string) (models.Choice, bool) {
	c, ok := r.Bets[playerID]
	return c, ok
}

// BetsComplete reports whether both seats have a recorded choice.
func (r *Room) BetsComplete() bool {
	for _, p := range r.Players {
		if _, ok := r.Bets[p.ID]; !ok {
			return false
		}
	}
	return true
}

// Tick decrements the countdown and returns what is left.
func (r *Room) Tick() int {
	if r.Timer > 0 {
		r.Timer--
	}
	return r.Timer
}

func (r *Room) SetResult(result models.Choice, winner string) {
	r.Result = result
	r.Winner = winner
}

// SessionIDs lists the sessions currently bound to the two seats.
func (r *Room) SessionIDs() []string {
	ids := make([]string, 0, len(r.Players))
	for _, p := range r.Players {
		if p != nil && p.SessionID != "" {
			ids = append(ids, p.SessionID)
		}
	}
	return ids
}

func (r *Room) Balances() map[string]int64 {
	balances := make(map[string]int64, len(r.Players))
	for _, p := range r.Players {
		balances[p.ID] = p.Balance
	}
	return balances
}

// TakeTimers returns every pending task id and forgets them.
func (r *Room) TakeTimers() []int64 {
	var ids []int64
	for _, id := range []*int64{&r.CountdownTimer, &r.FlipTimer, &r.CleanupTimer} {
		if *id != 0 {
			ids = append(ids, *id)
			*id = 0
		}
	}
	return ids
}

// --- room manager ---

// Manager tracks every open room.
type Manager struct {
	rooms map[string]*Room
	mutex sync.RWMutex
}

func NewRoomManager() *Manager {
	return &Manager{
		rooms: make(map[string]*Room),
	}
}

func (m *Manager) Add(room *Room) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.rooms[room.ID] = room
}

func (m *Manager) Remove(id string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.rooms, id)
}

func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	room, exists := m.rooms[id]
	return room, exists
}

// IsCurrent reports whether r is still the room registered under its id.
func (m *Manager) IsCurrent(r *Room) bool {
	cur, ok := m.GetRoom(r.ID)
	return ok && cur == r
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}
