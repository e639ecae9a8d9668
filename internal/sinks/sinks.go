// Package sinks fans normalized records out to the optional backends:
// a Redis current-state cache, a Kafka topic and a Postgres result store.
package sinks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/BearBump/vasptrack/internal/broker/messages"
	"github.com/BearBump/vasptrack/internal/models"
	"github.com/pkg/errors"
)

type BytesCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

type RecordStore interface {
	SaveRecord(ctx context.Context, rec *models.TrackingRecord, checkedAt time.Time) error
}

func CurrentKey(number string) string {
	return "tracking:" + number + ":current"
}

// Cache keeps the latest record per number.
type Cache struct {
	c   BytesCache
	ttl time.Duration
}

func NewCache(c BytesCache, ttl time.Duration) *Cache {
	return &Cache{c: c, ttl: ttl}
}

func (s *Cache) Name() string { return "redis" }

func (s *Cache) Save(ctx context.Context, rec *models.TrackingRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "marshal record")
	}
	return s.c.Set(ctx, CurrentKey(rec.Number), b, s.ttl)
}

// Current reads the cached record back; nil when the key is missing or expired.
func (s *Cache) Current(ctx context.Context, number string) (*models.TrackingRecord, error) {
	b, ok, err := s.c.Get(ctx, CurrentKey(number))
	if err != nil || !ok {
		return nil, err
	}
	var rec models.TrackingRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, errors.Wrap(err, "unmarshal cached record")
	}
	return &rec, nil
}

// Topic publishes a TrackingUpdated message keyed by number.
type Topic struct {
	p     Producer
	topic string
	now   func() time.Time
}

func NewTopic(p Producer, topic string) *Topic {
	if topic == "" {
		topic = "tracking.updated"
	}
	return &Topic{p: p, topic: topic, now: time.Now}
}

func (s *Topic) Name() string { return "kafka" }

func (s *Topic) Save(ctx context.Context, rec *models.TrackingRecord) error {
	b, err := json.Marshal(messages.NewTrackingUpdated(rec, s.now()))
	if err != nil {
		return errors.Wrap(err, "marshal kafka msg")
	}
	return s.p.Publish(ctx, s.topic, []byte(rec.Number), b)
}

// Store persists records in Postgres.
type Store struct {
	st  RecordStore
	now func() time.Time
}

func NewStore(st RecordStore) *Store {
	return &Store{st: st, now: time.Now}
}

func (s *Store) Name() string { return "postgres" }

func (s *Store) Save(ctx context.Context, rec *models.TrackingRecord) error {
	return s.st.SaveRecord(ctx, rec, s.now())
}
