package game

import (
	"github.com/wfunc/coinflip/logger"
	"github.com/wfunc/coinflip/models"
	"github.com/wfunc/coinflip/network"
	"github.com/wfunc/coinflip/outcome"
	"github.com/wfunc/coinflip/room"
)

// Settlement returns the house cut and the winner's credit for a stake.
func Settlement(stake int64) (commission, payout int64) {
	commission = stake * commissionPercent / 100
	payout = 2*stake - commission
	return commission, payout
}

func (s *Service) createRoomLocked(a, b *models.Player, stake int64) {
	r := room.NewRoom(s.newRoomID(), a, b, stake, s.cfg.BettingSeconds, s.now())
	for _, p := range r.Players {
		p.RoomID = r.ID
		p.PendingStake = 0
	}
	r.OnExit(room.PhaseBetting, func(_, _ room.Phase) {
		s.cancelTimerLocked(&r.CountdownTimer)
	})
	r.OnEnter(room.PhaseClosed, func(_, _ room.Phase) {
		for _, id := range r.TakeTimers() {
			s.scheduler.RemoveTimer(id)
		}
	})
	s.rooms.Add(r)

	for _, p := range r.Players {
		opponent := r.Opponent(p.ID)
		s.sendLocked(p.SessionID, network.OpponentFound{
			Type:      network.MsgTypeOpponentFound,
			RoomID:    r.ID,
			BetAmount: stake,
			Timer:     r.Timer,
			Opponent: network.OpponentInfo{
				ID:      opponent.ID,
				Balance: opponent.Balance,
			},
		})
	}

	tick := s.cfg.TickInterval
	r.CountdownTimer = s.scheduler.AddTimer(tick, tick, func() { s.onTick(r) })
	s.refreshGaugesLocked()

	logger.Log.Infof("room %s created: %s vs %s at %d, betting closes in %s",
		r.ID, a.ID, b.ID, stake, s.cfg.BettingWindow())
}

func (s *Service) onTick(r *room.Room) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.rooms.IsCurrent(r) || r.Phase() != room.PhaseBetting {
		return
	}

	left := r.Tick()
	s.broadcastRoomLocked(r, network.TimerUpdate{
		Type:  network.MsgTypeTimerUpdate,
		Timer: left,
	})
	if left > 0 {
		return
	}
	s.resolveTimeoutLocked(r)
}

// resolveTimeoutLocked ends a betting phase that ran out of time. A lone
// bettor wins by forfeit. With no bets the round is void.
func (s *Service) resolveTimeoutLocked(r *room.Room) {
	var bettors []*models.Player
	for _, p := range r.Players {
		if _, ok := r.Bet(p.ID); ok {
			bettors = append(bettors, p)
		}
	}

	switch len(bettors) {
	case 0:
		s.voidLocked(r)
	case 1:
		winner := bettors[0]
		choice, _ := r.Bet(winner.ID)
		s.startFlipLocked(r, outcome.Decision{
			Result: choice,
			Winner: winner.ID,
			Loser:  r.Opponent(winner.ID).ID,
		}, models.OutcomeForfeit)
	default:
		a, b := r.Players[0], r.Players[1]
		decision := s.engine.Decide(
			outcome.ContenderFor(a, r.Bets[a.ID]),
			outcome.ContenderFor(b, r.Bets[b.ID]),
			r.Stake,
		)
		s.startFlipLocked(r, decision, models.OutcomeSettled)
	}
}

func (s *Service) startFlipLocked(r *room.Room, d outcome.Decision, kind string) {
	if err := r.Transition(room.PhaseFlipping); err != nil {
		logger.Log.Warnf("room %s: %v", r.ID, err)
		return
	}
	r.SetResult(d.Result, d.Winner)

	s.stats.TotalGames++
	if s.monitor != nil {
		s.monitor.IncGames()
	}

	s.broadcastRoomLocked(r, network.CoinFlipStart{
		Type:   network.MsgTypeCoinFlipStart,
		Result: string(d.Result),
	})

	r.FlipTimer = s.scheduler.AddTimer(s.cfg.FlipDelay, 0, func() { s.onSettle(r, d, kind) })
}

func (s *Service) onSettle(r *room.Room, d outcome.Decision, kind string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.rooms.IsCurrent(r) || r.Phase() != room.PhaseFlipping {
		return
	}
	r.FlipTimer = 0
	s.settleLocked(r, d, kind)
}

func (s *Service) settleLocked(r *room.Room, d outcome.Decision, kind string) {
	if err := r.Transition(room.PhaseResolved); err != nil {
		logger.Log.Warnf("room %s: %v", r.ID, err)
		return
	}

	commission, payout := Settlement(r.Stake)
	for _, p := range r.Players {
		if p.ID == d.Winner {
			p.RecordWin(payout)
		} else {
			p.RecordLoss(r.Stake)
		}
	}
	s.stats.TotalCommission += commission
	if s.monitor != nil {
		s.monitor.AddCommission(commission)
	}

	s.broadcastRoomLocked(r, network.GameResult{
		Type:       network.MsgTypeGameResult,
		Result:     string(d.Result),
		Winner:     d.Winner,
		WinAmount:  payout,
		Commission: commission,
		Balances:   r.Balances(),
	})

	rec := s.roundRecordLocked(r, kind)
	rec.Payout = payout
	rec.Commission = commission
	rec.TargetID = d.TargetID
	rec.Probability = d.Probability
	s.recordLocked(rec)

	logger.Log.Infof("room %s settled (%s): %s wins %d", r.ID, kind, d.Winner, payout)
	s.scheduleCleanupLocked(r)
}

func (s *Service) voidLocked(r *room.Room) {
	if err := r.Transition(room.PhaseResolved); err != nil {
		logger.Log.Warnf("room %s: %v", r.ID, err)
		return
	}

	s.broadcastRoomLocked(r, network.GameResult{
		Type:     network.MsgTypeGameResult,
		Balances: r.Balances(),
	})
	s.recordLocked(s.roundRecordLocked(r, models.OutcomeVoid))

	logger.Log.Infof("room %s void: no bets", r.ID)
	s.scheduleCleanupLocked(r)
}

func (s *Service) scheduleCleanupLocked(r *room.Room) {
	r.CleanupTimer = s.scheduler.AddTimer(s.cfg.ResultDelay, 0, func() { s.onCleanup(r) })
}

func (s *Service) onCleanup(r *room.Room) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.rooms.IsCurrent(r) || r.Phase() != room.PhaseResolved {
		return
	}
	r.CleanupTimer = 0
	s.closeRoomLocked(r)
}

// closeRoomLocked discards r. Entering the closed phase cancels everything
// scheduled for it. Players whose room reference still points at r become idle.
func (s *Service) closeRoomLocked(r *room.Room) {
	if r.Can(room.PhaseClosed) {
		if err := r.Transition(room.PhaseClosed); err != nil {
			logger.Log.Warnf("room %s: %v", r.ID, err)
		}
	}
	for _, p := range r.Players {
		if p.RoomID == r.ID {
			p.RoomID = ""
		}
	}
	if s.rooms.IsCurrent(r) {
		s.rooms.Remove(r.ID)
	}
	s.refreshGaugesLocked()
}

func (s *Service) cancelTimerLocked(id *int64) {
	if *id != 0 {
		s.scheduler.RemoveTimer(*id)
		*id = 0
	}
}

func (s *Service) roundRecordLocked(r *room.Room, kind string) *models.RoundRecord {
	rec := &models.RoundRecord{
		RoomID:     r.ID,
		Stake:      r.Stake,
		Outcome:    kind,
		Result:     string(r.Result),
		Winner:     r.Winner,
		CreatedAt:  r.CreatedAt,
		ResolvedAt: s.now(),
	}
	for _, p := range r.Players {
		choice, _ := r.Bet(p.ID)
		rec.Players = append(rec.Players, models.RoundParticipant{
			PlayerID: p.ID,
			Choice:   string(choice),
			Balance:  p.Balance,
		})
	}
	return rec
}

func (s *Service) recordLocked(rec *models.RoundRecord) {
	if s.recorder != nil {
		s.recorder.Record(rec)
	}
}
