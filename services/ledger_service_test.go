package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/coinflip/models"
)

type memoryStore struct {
	mutex  sync.Mutex
	rounds []string
	fail   map[string]bool
	block  chan struct{}
}

func (m *memoryStore) SaveRound(ctx context.Context, rec *models.RoundRecord) error {
	if m.block != nil {
		<-m.block
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.fail[rec.RoomID] {
		return errors.New("write failed")
	}
	m.rounds = append(m.rounds, rec.RoomID)
	return nil
}

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) saved() []string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]string(nil), m.rounds...)
}

func TestLedgerService_SavesInOrder(t *testing.T) {
	store := &memoryStore{fail: map[string]bool{"r2": true}}
	ledger := NewLedgerService(store, 8)

	ledger.Record(&models.RoundRecord{RoomID: "r1"})
	ledger.Record(&models.RoundRecord{RoomID: "r2"})
	ledger.Record(&models.RoundRecord{RoomID: "r3"})
	ledger.Close()

	require.NoError(t, ledger.Run(context.Background()))
	assert.Equal(t, []string{"r1", "r3"}, store.saved())

	saved, dropped := ledger.Stats()
	assert.Equal(t, int64(2), saved)
	assert.Equal(t, int64(0), dropped)
}

func TestLedgerService_DropsWhenFull(t *testing.T) {
	store := &memoryStore{}
	ledger := NewLedgerService(store, 1)

	ledger.Record(&models.RoundRecord{RoomID: "r1"})
	ledger.Record(&models.RoundRecord{RoomID: "r2"})

	_, dropped := ledger.Stats()
	assert.Equal(t, int64(1), dropped)

	ledger.Close()
	ledger.Record(&models.RoundRecord{RoomID: "r3"})
	_, dropped = ledger.Stats()
	assert.Equal(t, int64(2), dropped)

	require.NoError(t, ledger.Run(context.Background()))
	assert.Equal(t, []string{"r1"}, store.saved())
}

func TestLedgerService_RecordDoesNotBlockOnSlowStore(t *testing.T) {
	store := &memoryStore{block: make(chan struct{})}
	ledger := NewLedgerService(store, 4)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ledger.Run(ctx) }()

	start := time.Now()
	for i := 0; i < 10; i++ {
		ledger.Record(&models.RoundRecord{RoomID: "r"})
	}
	assert.Less(t, time.Since(start), time.Second)

	close(store.block)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
