// Package game owns every mutable piece of the server: the player registry,
// the session bindings, the waiting queue, the rooms and the counters. All of
// it is guarded by one mutex.
package game

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wfunc/coinflip/broadcast"
	"github.com/wfunc/coinflip/config"
	"github.com/wfunc/coinflip/logger"
	"github.com/wfunc/coinflip/matchmaking"
	"github.com/wfunc/coinflip/models"
	"github.com/wfunc/coinflip/monitor"
	"github.com/wfunc/coinflip/network"
	"github.com/wfunc/coinflip/outcome"
	"github.com/wfunc/coinflip/room"
)

const (
	commissionPercent   = 10
	opponentLeftMessage = "Opponent disconnected"
)

// Scheduler runs delayed and repeating callbacks. timer.TimerManager
// satisfies it.
type Scheduler interface {
	AddTimer(delay time.Duration, interval time.Duration, callback func()) int64
	RemoveTimer(timerId int64)
}

// Recorder receives a copy of every resolved round.
type Recorder interface {
	Record(rec *models.RoundRecord)
}

type Option func(*Service)

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func WithMonitor(m *monitor.Monitor) Option {
	return func(s *Service) { s.monitor = m }
}

// WithClock replaces time.Now (for testing).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRoomIDs replaces the room id generator (for testing).
func WithRoomIDs(next func() string) Option {
	return func(s *Service) { s.newRoomID = next }
}

type Service struct {
	mutex sync.Mutex

	cfg      config.GameConfig
	players  map[string]*models.Player
	sessions map[string]string // session id -> player id
	queue    *matchmaking.Queue
	rooms    *room.Manager
	stats    models.ServerStats

	scheduler   Scheduler
	broadcaster broadcast.Broadcaster
	engine      *outcome.Engine
	recorder    Recorder
	monitor     *monitor.Monitor

	now       func() time.Time
	newRoomID func() string
}

func NewService(cfg config.GameConfig, scheduler Scheduler, broadcaster broadcast.Broadcaster, engine *outcome.Engine, opts ...Option) *Service {
	s := &Service{
		cfg:         cfg,
		players:     make(map[string]*models.Player),
		sessions:    make(map[string]string),
		queue:       matchmaking.NewQueue(),
		rooms:       room.NewRoomManager(),
		scheduler:   scheduler,
		broadcaster: broadcaster,
		engine:      engine,
		now:         time.Now,
		newRoomID: func() string {
			return "room_" + uuid.NewString()
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.stats.StartedAt = s.now()
	return s
}

// Authenticate binds sessionID to playerID. A nil balance takes the
// configured default. A known identity is rebound and keeps its queue or
// room membership.
func (s *Service) Authenticate(sessionID, playerID string, balance *int64) error {
	if playerID == "" {
		return ErrMissingPlayerID
	}
	declared := s.cfg.DefaultBalance
	if balance != nil {
		if *balance < 0 {
			return ErrInvalidBalance
		}
		declared = *balance
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if prev, ok := s.sessions[sessionID]; ok && prev != playerID {
		s.detachLocked(sessionID)
	}

	p, ok := s.players[playerID]
	if ok {
		if p.SessionID != sessionID {
			// the old connection no longer speaks for this player
			delete(s.sessions, p.SessionID)
			logger.Log.Infof("player %s reconnected on session %s", playerID, sessionID)
		}
		p.SessionID = sessionID
		p.Balance = declared
	} else {
		p = models.NewPlayer(playerID, sessionID, declared, s.now())
		s.players[playerID] = p
		logger.Log.Infof("player %s authenticated with balance %d", playerID, declared)
	}
	s.sessions[sessionID] = playerID

	if len(s.players) > s.stats.PeakOnline {
		s.stats.PeakOnline = len(s.players)
	}

	s.sendLocked(sessionID, network.AuthSuccess{
		Type:       network.MsgTypeAuthSuccess,
		PlayerID:   playerID,
		ServerTime: s.now().UnixMilli(),
	})
	s.broadcastStatsLocked()
	return nil
}

// RequestMatch pairs the caller with the earliest waiting player at the same
// stake or queues the caller. amount must be a whole number of coins.
func (s *Service) RequestMatch(sessionID string, amount float64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	p, err := s.playerLocked(sessionID)
	if err != nil {
		return err
	}
	if p.InRoom() {
		return ErrAlreadyInGame
	}
	stake := int64(amount)
	if float64(stake) != amount || stake < s.cfg.MinStake || stake > s.cfg.MaxStake {
		return StakeRangeError{Min: s.cfg.MinStake, Max: s.cfg.MaxStake}
	}
	if stake > p.Balance {
		return ErrInsufficientFunds
	}

	p.PendingStake = stake
	if opponent := s.queue.TakeMatch(p.ID, stake); opponent != nil {
		s.queue.Remove(p.ID)
		s.createRoomLocked(p, opponent, stake)
		return nil
	}

	position := s.queue.Enqueue(p)
	s.sendLocked(sessionID, network.Searching{
		Type:          network.MsgTypeSearching,
		QueuePosition: position,
		BetAmount:     stake,
	})
	s.refreshGaugesLocked()
	return nil
}

func (s *Service) CancelSearch(sessionID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	p, err := s.playerLocked(sessionID)
	if err != nil {
		return err
	}
	if s.queue.Remove(p.ID) {
		logger.Log.Debugf("player %s left the queue", p.ID)
	}
	if !p.InRoom() {
		p.PendingStake = 0
	}
	s.refreshGaugesLocked()
	return nil
}

// SubmitBet records the caller's choice. Once both seats have chosen the
// countdown stops and the coin is flipped.
func (s *Service) SubmitBet(sessionID, bet string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	p, err := s.playerLocked(sessionID)
	if err != nil {
		return err
	}
	if !p.InRoom() {
		return ErrNoActiveRoom
	}
	r, ok := s.rooms.GetRoom(p.RoomID)
	if !ok || r.Phase() != room.PhaseBetting {
		return ErrNoActiveRoom
	}
	choice, ok := models.ParseChoice(bet)
	if !ok {
		return ErrInvalidBet
	}
	if err := r.PlaceBet(p.ID, choice); err != nil {
		return ErrNoActiveRoom
	}

	s.broadcastRoomLocked(r, network.BetMade{
		Type:     network.MsgTypeBetMade,
		PlayerID: p.ID,
		Bet:      string(choice),
	})

	if r.BetsComplete() {
		a, b := r.Players[0], r.Players[1]
		decision := s.engine.Decide(
			outcome.ContenderFor(a, r.Bets[a.ID]),
			outcome.ContenderFor(b, r.Bets[b.ID]),
			r.Stake,
		)
		s.startFlipLocked(r, decision, models.OutcomeSettled)
	}
	return nil
}

// Disconnect detaches whoever sessionID speaks for. A session that was
// replaced by a reconnect is ignored.
func (s *Service) Disconnect(sessionID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return
	}
	s.detachLocked(sessionID)
	s.broadcastStatsLocked()
}

func (s *Service) Stats() models.ServerStats {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.statsLocked()
}

// PlayerSnapshot returns a copy of the player record.
func (s *Service) PlayerSnapshot(playerID string) (models.Player, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	p, ok := s.players[playerID]
	if !ok {
		return models.Player{}, false
	}
	return *p, true
}

func (s *Service) BroadcastStats() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.broadcastStatsLocked()
}

// RunStatsLoop pushes stats_update every StatsInterval until ctx is done.
func (s *Service) RunStatsLoop(ctx context.Context) error {
	if s.cfg.StatsInterval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(s.cfg.StatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.BroadcastStats()
		}
	}
}

func (s *Service) playerLocked(sessionID string) (*models.Player, error) {
	playerID, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotAuthenticated
	}
	p, ok := s.players[playerID]
	if !ok {
		return nil, ErrNotAuthenticated
	}
	return p, nil
}

func (s *Service) detachLocked(sessionID string) {
	playerID := s.sessions[sessionID]
	delete(s.sessions, sessionID)

	p, ok := s.players[playerID]
	if !ok || p.SessionID != sessionID {
		return
	}

	s.queue.Remove(p.ID)
	if p.InRoom() {
		if r, ok := s.rooms.GetRoom(p.RoomID); ok {
			if opponent := r.Opponent(p.ID); opponent != nil && opponent.SessionID != "" {
				s.sendLocked(opponent.SessionID, network.OpponentDisconnected{
					Type:    network.MsgTypeOpponentDisconnected,
					Message: opponentLeftMessage,
				})
			}
			s.closeRoomLocked(r)
		}
	}
	delete(s.players, p.ID)

	if s.monitor != nil {
		s.monitor.IncDisconnects()
	}
	logger.Log.Infof("player %s disconnected", p.ID)
}

func (s *Service) statsLocked() models.ServerStats {
	stats := s.stats
	stats.Online = len(s.players)
	stats.Rooms = s.rooms.Count()
	stats.Queue = s.queue.Len()
	return stats
}

func (s *Service) broadcastStatsLocked() {
	stats := s.statsLocked()
	if err := s.broadcaster.BroadcastToAll(network.StatsUpdate{
		Type:       network.MsgTypeStatsUpdate,
		Online:     stats.Online,
		Rooms:      stats.Rooms,
		Queue:      stats.Queue,
		PeakOnline: stats.PeakOnline,
		TotalGames: stats.TotalGames,
	}); err != nil {
		logger.Log.Warnf("broadcast stats: %v", err)
	}
	s.refreshGaugesLocked()
}

func (s *Service) refreshGaugesLocked() {
	if s.monitor == nil {
		return
	}
	s.monitor.SetOnlinePlayers(len(s.players))
	s.monitor.SetActiveRooms(s.rooms.Count())
	s.monitor.SetQueueLength(s.queue.Len())
}

func (s *Service) sendLocked(sessionID string, msg any) {
	if err := s.broadcaster.SendTo(sessionID, msg); err != nil {
		logger.Log.Debugf("send to %s: %v", sessionID, err)
	}
}

func (s *Service) broadcastRoomLocked(r *room.Room, msg any) {
	if err := s.broadcaster.BroadcastToSessions(r.SessionIDs(), msg); err != nil {
		logger.Log.Debugf("broadcast to room %s: %v", r.ID, err)
	}
}
