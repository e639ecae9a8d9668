package pgtracking

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS tracking_records (
  number TEXT PRIMARY KEY,
  status TEXT NOT NULL,
  current_state TEXT NOT NULL,
  last_update TEXT NULL,
  raw_json_snapshot_path TEXT NOT NULL,
  raw_html_snapshot_path TEXT NOT NULL,
  checked_at TIMESTAMPTZ NOT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_tracking_records_status ON tracking_records(status)`,
		`
CREATE TABLE IF NOT EXISTS tracking_record_events (
  number TEXT NOT NULL REFERENCES tracking_records(number) ON DELETE CASCADE,
  position INT NOT NULL,
  event_timestamp TEXT NULL,
  date_raw TEXT NULL,
  state TEXT NULL,
  location TEXT NULL,
  description TEXT NULL,
  PRIMARY KEY (number, position)
)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
