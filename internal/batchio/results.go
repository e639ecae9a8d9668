package batchio

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BearBump/vasptrack/internal/models"
	"github.com/pkg/errors"
)

var ErrNoResults = errors.New("no results to save")

var csvHeader = []string{
	"number", "status", "last_update", "current_state", "events",
	"raw_json_snapshot_path", "raw_html_snapshot_path",
}

// WriteResults saves records as a .json array or a .csv table.
func WriteResults(path string, records []*models.TrackingRecord) error {
	if len(records) == 0 {
		return ErrNoResults
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = encodeJSON(records)
	case ".csv":
		data, err = encodeCSV(records)
	default:
		return errors.Wrapf(ErrUnsupportedFormat, "%q: use .json or .csv", path)
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "write results")
	}
	return nil
}

func encodeJSON(records []*models.TrackingRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return nil, errors.Wrap(err, "encode json results")
	}
	return buf.Bytes(), nil
}

func encodeCSV(records []*models.TrackingRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, errors.Wrap(err, "write csv header")
	}
	for _, r := range records {
		events, err := json.Marshal(r.Events)
		if err != nil {
			return nil, errors.Wrap(err, "encode events")
		}
		lastUpdate := ""
		if r.LastUpdate != nil {
			lastUpdate = *r.LastUpdate
		}
		if err := w.Write([]string{
			r.Number, r.Status, lastUpdate, r.CurrentState, string(events),
			r.RawJSONSnapshotPath, r.RawHTMLSnapshotPath,
		}); err != nil {
			return nil, errors.Wrap(err, "write csv row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.Wrap(err, "flush csv")
	}
	return buf.Bytes(), nil
}
