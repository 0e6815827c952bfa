// models/models.go
package models

import (
	"time"
)

// Choice is one side of the coin.
type Choice string

const (
	ChoiceHeads Choice = "heads"
	ChoiceTails Choice = "tails"
)

// ParseChoice accepts exactly "heads" or "tails".
func ParseChoice(s string) (Choice, bool) {
	switch Choice(s) {
	case ChoiceHeads, ChoiceTails:
		return Choice(s), true
	}
	return "", false
}

// Player is the economic state bound to a claimed identity.
type Player struct {
	ID           string
	SessionID    string
	Balance      int64
	Wins         int
	Losses       int
	WinStreak    int
	LossStreak   int
	RoomID       string
	PendingStake int64
	ConnectedAt  time.Time
}

func NewPlayer(id, sessionID string, balance int64, now time.Time) *Player {
	return &Player{
		ID:          id,
		SessionID:   sessionID,
		Balance:     balance,
		ConnectedAt: now,
	}
}

// GamesPlayed counts decided rounds.
func (p *Player) GamesPlayed() int {
	return p.Wins + p.Losses
}

func (p *Player) InRoom() bool {
	return p.RoomID != ""
}

func (p *Player) RecordWin(payout int64) {
	p.Balance += payout
	p.Wins++
	p.WinStreak++
	p.LossStreak = 0
}

func (p *Player) RecordLoss(stake int64) {
	p.Balance -= stake
	p.Losses++
	p.LossStreak++
	p.WinStreak = 0
}

// Outcome kinds stored on a RoundRecord.
const (
	OutcomeSettled = "settled"
	OutcomeForfeit = "forfeit"
	OutcomeVoid    = "void"
)

// RoundRecord is the audit row written once a room resolves.
type RoundRecord struct {
	RoomID      string             `json:"room_id"`
	Stake       int64              `json:"stake"`
	Outcome     string             `json:"outcome"`
	Result      string             `json:"result"`
	Winner      string             `json:"winner"`
	Payout      int64              `json:"payout"`
	Commission  int64              `json:"commission"`
	TargetID    string             `json:"target_id,omitempty"`
	Probability float64            `json:"probability,omitempty"`
	Players     []RoundParticipant `json:"players"`
	CreatedAt   time.Time          `json:"created_at"`
	ResolvedAt  time.Time          `json:"resolved_at"`
}

// RoundParticipant is one side of a RoundRecord.
type RoundParticipant struct {
	PlayerID string `json:"player_id"`
	Choice   string `json:"choice"`
	Balance  int64  `json:"balance"`
}

// ServerStats is a point-in-time view of the process-lifetime counters.
type ServerStats struct {
	Online          int       `json:"online"`
	Rooms           int       `json:"rooms"`
	Queue           int       `json:"queue"`
	TotalGames      int64     `json:"totalGames"`
	TotalCommission int64     `json:"totalCommission"`
	PeakOnline      int       `json:"peakOnline"`
	StartedAt       time.Time `json:"-"`
}
