package sinks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/BearBump/vasptrack/internal/broker/messages"
	"github.com/BearBump/vasptrack/internal/cache/rediscache"
	"github.com/BearBump/vasptrack/internal/models"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func record() *models.TrackingRecord {
	return &models.TrackingRecord{
		Number:       "VX1",
		Status:       models.TrackingStatusOK,
		CurrentState: "ENTREGUE",
		Events: []models.TrackingEvent{
			{Timestamp: strp("2025-11-03T08:15:00Z"), State: strp("RECOLHIDA")},
		},
		RawJSONSnapshotPath: "snapshots/VX1.json",
		RawHTMLSnapshotPath: "snapshots/VX1.html",
	}
}

func TestCache_Save(t *testing.T) {
	mr := miniredis.RunT(t)
	c := rediscache.New(mr.Addr())
	s := NewCache(c, 10*time.Minute)
	require.Equal(t, "redis", s.Name())

	require.NoError(t, s.Save(context.Background(), record()))

	raw, err := mr.Get(CurrentKey("VX1"))
	require.NoError(t, err)

	var got models.TrackingRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	require.Equal(t, *record(), got)
	require.Equal(t, 10*time.Minute, mr.TTL(CurrentKey("VX1")))

	cur, err := s.Current(context.Background(), "VX1")
	require.NoError(t, err)
	require.Equal(t, record(), cur)

	missing, err := s.Current(context.Background(), "NOPE")
	require.NoError(t, err)
	require.Nil(t, missing)

	mr.FastForward(11 * time.Minute)
	expired, err := s.Current(context.Background(), "VX1")
	require.NoError(t, err)
	require.Nil(t, expired)
}

func TestCache_CurrentCorrupted(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewCache(rediscache.New(mr.Addr()), time.Minute)
	require.NoError(t, mr.Set(CurrentKey("VX1"), "not json"))

	_, err := s.Current(context.Background(), "VX1")
	require.Error(t, err)
}

type fakeProducer struct {
	topic string
	key   []byte
	value []byte
	calls int
	err   error
}

func (p *fakeProducer) Publish(ctx context.Context, topic string, key, value []byte) error {
	p.calls++
	p.topic, p.key, p.value = topic, key, value
	return p.err
}

func TestTopic_Save(t *testing.T) {
	fp := &fakeProducer{}
	s := NewTopic(fp, "")
	at := time.Date(2025, 11, 5, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return at }

	require.NoError(t, s.Save(context.Background(), record()))
	require.Equal(t, 1, fp.calls)
	require.Equal(t, "tracking.updated", fp.topic)
	require.Equal(t, []byte("VX1"), fp.key)

	var msg messages.TrackingUpdated
	require.NoError(t, json.Unmarshal(fp.value, &msg))
	require.Equal(t, "VX1", msg.Number)
	require.Equal(t, at, msg.CheckedAt)
	require.Equal(t, "ENTREGUE", msg.CurrentState)
	require.Len(t, msg.Events, 1)
	require.Equal(t, "RECOLHIDA", *msg.Events[0].State)
}

func TestTopic_SaveError(t *testing.T) {
	want := errors.New("broker down")
	s := NewTopic(&fakeProducer{err: want}, "custom")
	require.ErrorIs(t, s.Save(context.Background(), record()), want)
}

type fakeStore struct {
	got       *models.TrackingRecord
	checkedAt time.Time
}

func (f *fakeStore) SaveRecord(ctx context.Context, rec *models.TrackingRecord, checkedAt time.Time) error {
	f.got, f.checkedAt = rec, checkedAt
	return nil
}

func TestStore_Save(t *testing.T) {
	fs := &fakeStore{}
	s := NewStore(fs)
	require.Equal(t, "postgres", s.Name())

	rec := record()
	require.NoError(t, s.Save(context.Background(), rec))
	require.Same(t, rec, fs.got)
	require.False(t, fs.checkedAt.IsZero())
}
