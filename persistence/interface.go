// persistence/interface.go
package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/wfunc/coinflip/config"
	"github.com/wfunc/coinflip/models"
)

// RoundStore is a write-only audit sink for resolved rounds. Nothing in the
// game reads it back.
type RoundStore interface {
	SaveRound(ctx context.Context, rec *models.RoundRecord) error
	Close() error
}

// Errors returned by Open.
var (
	ErrUnknownDriver = fmt.Errorf("unknown ledger driver")
)

const (
	DriverNone     = "none"
	DriverGorm     = "gorm"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverKafka    = "kafka"
)

// Open builds the store selected by cfg.Driver.
func Open(cfg config.LedgerConfig) (RoundStore, error) {
	pg := cfg.Postgres
	switch strings.ToLower(cfg.Driver) {
	case "", DriverNone:
		return NopStore{}, nil
	case DriverGorm:
		return NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	case DriverPostgres:
		return NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	case DriverRedis:
		return NewRedisStore(cfg.Redis)
	case DriverKafka:
		return NewKafkaStore(cfg.Kafka), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// NopStore discards every round.
type NopStore struct{}

func (NopStore) SaveRound(context.Context, *models.RoundRecord) error { return nil }
func (NopStore) Close() error                                         { return nil }
