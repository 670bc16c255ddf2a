// Package kafka mirrors audit rows onto a Kafka topic for downstream
// consumers. It is write-only; the relational log stays the system of record.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"opsconsole/internal/account/models"
)

// Store produces one record per audit entry, keyed by target identifier so
// entries about the same account stay ordered within a partition.
type Store struct {
	client *kgo.Client
	topic  string
}

// New connects a producer. Extra kgo options are appended after the defaults.
func New(brokers []string, topic string, opts ...kgo.Opt) (*Store, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka audit mirror: no brokers configured")
	}
	if topic == "" {
		return nil, errors.New("kafka audit mirror: topic is required")
	}
	base := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	}
	client, err := kgo.NewClient(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Store{client: client, topic: topic}, nil
}

// EnsureTopic creates the topic when it does not exist yet.
func (s *Store) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	adm := kadm.NewClient(s.client)
	resp, err := adm.CreateTopic(ctx, partitions, replicationFactor, nil, s.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", s.topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", s.topic, resp.Err)
	}
	return nil
}

// Message is the wire form of a mirrored entry.
type Message struct {
	ID        string    `json:"id"`
	Actor     string    `json:"user"`
	Target    string    `json:"client"`
	Service   string    `json:"sva"`
	Action    string    `json:"request"`
	SourceIP  string    `json:"ip"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Store) Append(ctx context.Context, entry models.AuditLogEntry) error {
	payload, err := json.Marshal(Message{
		ID:        uuid.NewString(),
		Actor:     entry.ActorName,
		Target:    entry.TargetIdentifier,
		Service:   entry.ServiceLabel,
		Action:    entry.ActionLabel,
		SourceIP:  entry.SourceIP,
		Timestamp: entry.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("marshal audit message: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(entry.TargetIdentifier),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit message: %w", err)
	}
	return nil
}

// Ping checks broker connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *Store) Close() {
	s.client.Close()
}
