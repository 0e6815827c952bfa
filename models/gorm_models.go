// models/gorm_models.go
package models

import (
	"encoding/json"

	"gorm.io/gorm"
)

// GormRoundRecord is the round_records row.
type GormRoundRecord struct {
	gorm.Model
	RoomID      string  `gorm:"index;not null"`
	Stake       int64   `gorm:"not null"`
	Outcome     string  `gorm:"not null"`
	Result      string
	Winner      string  `gorm:"index"`
	Payout      int64   `gorm:"default:0"`
	Commission  int64   `gorm:"default:0"`
	TargetID    string
	Probability float64
	Players     []byte `gorm:"type:jsonb;not null"`
}

func (GormRoundRecord) TableName() string {
	return "round_records"
}

// NewGormRoundRecord flattens a RoundRecord into its table row.
func NewGormRoundRecord(rec *RoundRecord) (*GormRoundRecord, error) {
	players, err := json.Marshal(rec.Players)
	if err != nil {
		return nil, err
	}
	row := &GormRoundRecord{
		RoomID:      rec.RoomID,
		Stake:       rec.Stake,
		Outcome:     rec.Outcome,
		Result:      rec.Result,
		Winner:      rec.Winner,
		Payout:      rec.Payout,
		Commission:  rec.Commission,
		TargetID:    rec.TargetID,
		Probability: rec.Probability,
		Players:     players,
	}
	row.CreatedAt = rec.ResolvedAt
	return row, nil
}
