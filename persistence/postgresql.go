// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq" // postgres driver

	"github.com/wfunc/coinflip/models"
)

// PostgreSQL writes rounds with plain SQL through lib/pq.
type PostgreSQL struct {
	db *sql.DB
}

func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(ctx, db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

func initTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS round_records (
            id BIGSERIAL PRIMARY KEY,
            room_id VARCHAR(64) NOT NULL,
            stake BIGINT NOT NULL,
            outcome VARCHAR(16) NOT NULL,
            result VARCHAR(8),
            winner VARCHAR(255),
            payout BIGINT NOT NULL DEFAULT 0,
            commission BIGINT NOT NULL DEFAULT 0,
            target_id VARCHAR(255),
            probability DOUBLE PRECISION,
            players JSONB NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
        CREATE INDEX IF NOT EXISTS idx_round_records_room_id ON round_records(room_id);
        CREATE INDEX IF NOT EXISTS idx_round_records_winner ON round_records(winner);
        CREATE INDEX IF NOT EXISTS idx_round_records_created_at ON round_records(created_at);
    `)
	return err
}

func (p *PostgreSQL) SaveRound(ctx context.Context, rec *models.RoundRecord) error {
	players, err := json.Marshal(rec.Players)
	if err != nil {
		return err
	}

	query := `
        INSERT INTO round_records
            (room_id, stake, outcome, result, winner, payout, commission, target_id, probability, players, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `
	_, err = p.db.ExecContext(ctx, query,
		rec.RoomID, rec.Stake, rec.Outcome, rec.Result, rec.Winner,
		rec.Payout, rec.Commission, rec.TargetID, rec.Probability,
		players, rec.ResolvedAt)
	return err
}

func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
