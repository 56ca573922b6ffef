package consumer

import (
	"time"

	"github.com/segmentio/kafka-go"
)

// ReaderConfig names the brokers, group and topic a change-event reader joins.
type ReaderConfig struct {
	Brokers []string
	GroupID string
	Topic   string
}

// NewKafkaReader builds a consumer-group reader for one topic.
func NewKafkaReader(cfg ReaderConfig) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:         cfg.Brokers,
		GroupID:         cfg.GroupID,
		Topic:           cfg.Topic,
		MinBytes:        1,
		MaxBytes:        10e6,
		MaxWait:         500 * time.Millisecond,
		CommitInterval:  time.Second,
		RetentionTime:   24 * time.Hour,
		ReadLagInterval: -1,
	})
}
