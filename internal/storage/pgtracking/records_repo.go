package pgtracking

import (
	"context"
	"time"

	"github.com/BearBump/vasptrack/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// SaveRecord upserts the record by number and replaces its events.
func (s *Storage) SaveRecord(ctx context.Context, rec *models.TrackingRecord, checkedAt time.Time) error {
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
INSERT INTO tracking_records (
  number, status, current_state, last_update,
  raw_json_snapshot_path, raw_html_snapshot_path,
  checked_at, created_at, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
ON CONFLICT (number)
DO UPDATE SET
  status = EXCLUDED.status,
  current_state = EXCLUDED.current_state,
  last_update = EXCLUDED.last_update,
  raw_json_snapshot_path = EXCLUDED.raw_json_snapshot_path,
  raw_html_snapshot_path = EXCLUDED.raw_html_snapshot_path,
  checked_at = EXCLUDED.checked_at,
  updated_at = EXCLUDED.updated_at
`, rec.Number, rec.Status, rec.CurrentState, rec.LastUpdate,
		rec.RawJSONSnapshotPath, rec.RawHTMLSnapshotPath, checkedAt.UTC(), now)
	if err != nil {
		return errors.Wrap(err, "upsert tracking record")
	}

	if _, err := tx.Exec(ctx, `DELETE FROM tracking_record_events WHERE number = $1`, rec.Number); err != nil {
		return errors.Wrap(err, "delete events")
	}

	if len(rec.Events) > 0 {
		batch := &pgx.Batch{}
		for i, e := range rec.Events {
			batch.Queue(`
INSERT INTO tracking_record_events (number, position, event_timestamp, date_raw, state, location, description)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`, rec.Number, i, e.Timestamp, e.DateRaw, e.State, e.Location, e.Description)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return errors.Wrap(err, "insert events")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit tx")
	}
	return nil
}

// GetRecord returns the stored record with its events in position order.
func (s *Storage) GetRecord(ctx context.Context, number string) (*models.TrackingRecord, error) {
	var rec models.TrackingRecord
	err := s.db.QueryRow(ctx, `
SELECT number, status, current_state, last_update, raw_json_snapshot_path, raw_html_snapshot_path
FROM tracking_records
WHERE number = $1
`, number).Scan(
		&rec.Number, &rec.Status, &rec.CurrentState, &rec.LastUpdate,
		&rec.RawJSONSnapshotPath, &rec.RawHTMLSnapshotPath,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "select tracking record")
	}

	rows, err := s.db.Query(ctx, `
SELECT event_timestamp, date_raw, state, location, description
FROM tracking_record_events
WHERE number = $1
ORDER BY position ASC
`, number)
	if err != nil {
		return nil, errors.Wrap(err, "select events")
	}
	defer rows.Close()

	rec.Events = []models.TrackingEvent{}
	for rows.Next() {
		var e models.TrackingEvent
		if err := rows.Scan(&e.Timestamp, &e.DateRaw, &e.State, &e.Location, &e.Description); err != nil {
			return nil, errors.Wrap(err, "scan event")
		}
		rec.Events = append(rec.Events, e)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return &rec, nil
}
