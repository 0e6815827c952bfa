package persistence

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/wfunc/coinflip/config"
	"github.com/wfunc/coinflip/models"
)

// KafkaStore publishes each round as a message keyed by room id.
type KafkaStore struct {
	writer *kafka.Writer
}

func NewKafkaStore(cfg config.KafkaConfig) *KafkaStore {
	return &KafkaStore{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (s *KafkaStore) SaveRound(ctx context.Context, rec *models.RoundRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(rec.RoomID),
		Value: data,
	})
}

func (s *KafkaStore) Close() error {
	return s.writer.Close()
}
