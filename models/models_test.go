package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChoice(t *testing.T) {
	c, ok := ParseChoice("heads")
	assert.True(t, ok)
	assert.Equal(t, ChoiceHeads, c)

	c, ok = ParseChoice("tails")
	assert.True(t, ok)
	assert.Equal(t, ChoiceTails, c)

	for _, bad := range []string{"", "Heads", "edge", "tails "} {
		_, ok := ParseChoice(bad)
		assert.False(t, ok, bad)
	}
}

func TestPlayer_WinAndLossStreaks(t *testing.T) {
	p := NewPlayer("p1", "s1", 1000, time.Now())

	p.RecordLoss(50)
	p.RecordLoss(50)
	assert.Equal(t, int64(900), p.Balance)
	assert.Equal(t, 2, p.LossStreak)
	assert.Equal(t, 0, p.WinStreak)

	p.RecordWin(95)
	assert.Equal(t, int64(995), p.Balance)
	assert.Equal(t, 1, p.WinStreak)
	assert.Equal(t, 0, p.LossStreak)
	assert.Equal(t, 3, p.GamesPlayed())
}

func TestNewGormRoundRecord(t *testing.T) {
	resolved := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	row, err := NewGormRoundRecord(&RoundRecord{
		RoomID:     "room_1",
		Stake:      100,
		Outcome:    OutcomeSettled,
		Result:     "heads",
		Winner:     "a",
		Payout:     190,
		Commission: 10,
		Players:    []RoundParticipant{{PlayerID: "a", Choice: "heads", Balance: 1190}},
		ResolvedAt: resolved,
	})
	require.NoError(t, err)

	assert.Equal(t, "room_1", row.RoomID)
	assert.Equal(t, resolved, row.CreatedAt)
	assert.JSONEq(t, `[{"player_id":"a","choice":"heads","balance":1190}]`, string(row.Players))
}
