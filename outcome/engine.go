// Package outcome decides who wins a round. The draw is deliberately biased
// toward new, losing and low-balance players.
package outcome

import (
	"math/rand"
	"sync"
	"time"

	"github.com/wfunc/coinflip/models"
)

// Random is the source of uniform draws in [0, 1).
type Random interface {
	Float64() float64
}

// WinProbability returns the chance that a player with the given history
// wins a round at stake. The first matching rule applies.
func WinProbability(gamesPlayed, lossStreak int, balance, stake int64) float64 {
	balanceRatio := float64(balance) / 1000

	switch {
	case gamesPlayed < 3:
		return 0.75
	case lossStreak >= 2:
		return 0.65
	case balanceRatio > 1.8:
		return 0.2
	case balanceRatio > 1.3:
		return 0.35
	case stake > 300:
		return 0.3
	default:
		return 0.45
	}
}

// Contender is one side of a round as seen by the engine.
type Contender struct {
	PlayerID    string
	Choice      models.Choice
	GamesPlayed int
	LossStreak  int
	Balance     int64
}

func ContenderFor(p *models.Player, choice models.Choice) Contender {
	return Contender{
		PlayerID:    p.ID,
		Choice:      choice,
		GamesPlayed: p.GamesPlayed(),
		LossStreak:  p.LossStreak,
		Balance:     p.Balance,
	}
}

// Decision is the sampled result of a round.
type Decision struct {
	Result      models.Choice
	Winner      string
	Loser       string
	TargetID    string
	Probability float64
}

type Engine struct {
	rng   Random
	mutex sync.Mutex
}

// NewEngine seeds a math/rand source. A zero seed uses the clock.
func NewEngine(seed int64) *Engine {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return NewEngineWithRandom(rand.New(rand.NewSource(seed)))
}

func NewEngineWithRandom(rng Random) *Engine {
	return &Engine{rng: rng}
}

// Decide picks a target uniformly, evaluates its win probability and draws
// once. The winner's own choice becomes the published result.
func (e *Engine) Decide(a, b Contender, stake int64) Decision {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	target, other := b, a
	if e.rng.Float64() > 0.5 {
		target, other = a, b
	}

	probability := WinProbability(target.GamesPlayed, target.LossStreak, target.Balance, stake)
	winner, loser := other, target
	if e.rng.Float64() < probability {
		winner, loser = target, other
	}

	return Decision{
		Result:      winner.Choice,
		Winner:      winner.PlayerID,
		Loser:       loser.PlayerID,
		TargetID:    target.PlayerID,
		Probability: probability,
	}
}
