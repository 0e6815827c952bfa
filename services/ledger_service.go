// services/ledger_service.go
package services

import (
	"context"
	"sync"
	"time"

	"github.com/wfunc/coinflip/logger"
	"github.com/wfunc/coinflip/models"
	"github.com/wfunc/coinflip/persistence"
)

const saveTimeout = 5 * time.Second

// LedgerService forwards resolved rounds to a RoundStore off the caller's
// goroutine. When the buffer is full the round is dropped and logged.
type LedgerService struct {
	store   persistence.RoundStore
	records chan *models.RoundRecord

	mutex   sync.Mutex
	closed  bool
	dropped int64
	saved   int64
}

func NewLedgerService(store persistence.RoundStore, bufferSize int) *LedgerService {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &LedgerService{
		store:   store,
		records: make(chan *models.RoundRecord, bufferSize),
	}
}

// Record queues rec without blocking.
func (s *LedgerService) Record(rec *models.RoundRecord) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		s.dropped++
		return
	}
	select {
	case s.records <- rec:
	default:
		s.dropped++
		logger.Log.Warnf("ledger buffer full, dropping round %s", rec.RoomID)
	}
}

// Run drains queued rounds into the store until Close is called and the
// buffer is empty, or ctx is cancelled.
func (s *LedgerService) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.drain()
			return nil
		case rec, ok := <-s.records:
			if !ok {
				return nil
			}
			s.save(rec)
		}
	}
}

// Close stops accepting rounds. Run returns after the buffer is drained.
func (s *LedgerService) Close() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.closed {
		s.closed = true
		close(s.records)
	}
}

// Stats returns how many rounds were stored and how many were dropped.
func (s *LedgerService) Stats() (saved, dropped int64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.saved, s.dropped
}

func (s *LedgerService) drain() {
	for {
		select {
		case rec, ok := <-s.records:
			if !ok {
				return
			}
			s.save(rec)
		default:
			return
		}
	}
}

func (s *LedgerService) save(rec *models.RoundRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := s.store.SaveRound(ctx, rec); err != nil {
		logger.Log.Errorf("save round %s: %v", rec.RoomID, err)
		return
	}

	s.mutex.Lock()
	s.saved++
	s.mutex.Unlock()
}
