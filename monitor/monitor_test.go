package monitor

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitor_Counters(t *testing.T) {
	m := NewMonitor("test")

	m.SetOnlinePlayers(3)
	m.SetActiveRooms(1)
	m.SetQueueLength(2)
	m.IncGames()
	m.IncGames()
	m.AddCommission(15)
	m.IncMessagesReceived("auth")
	m.ObserveMessageLatency(time.Millisecond)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.Metrics().OnlinePlayers))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Metrics().ActiveRooms))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Metrics().QueueLength))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Metrics().GamesTotal))
	assert.Equal(t, 15.0, testutil.ToFloat64(m.Metrics().CommissionTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Metrics().MessagesReceived.WithLabelValues("auth")))
}

func TestMonitor_TwoInstancesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMonitor("dup")
		NewMonitor("dup")
	})
}

func TestMonitor_Handler(t *testing.T) {
	m := NewMonitor("scrape")
	m.IncGames()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "scrape_games_total 1")
}

func TestMonitor_WatchLedger(t *testing.T) {
	m := NewMonitor("ledger")
	saved, dropped := int64(4), int64(1)
	m.WatchLedger(func() (int64, int64) { return saved, dropped })

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	saved = 7
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "ledger_ledger_rounds_saved_total 7")
	assert.Contains(t, string(body), "ledger_ledger_rounds_dropped_total 1")
}
