package messages

import (
	"time"

	"github.com/BearBump/vasptrack/internal/models"
)

// TrackingUpdated публикуется в kafka для каждой успешно нормализованной записи.
type TrackingUpdated struct {
	Number    string    `json:"number"`
	CheckedAt time.Time `json:"checked_at"`

	Status       string  `json:"status"`
	CurrentState string  `json:"current_state"`
	LastUpdate   *string `json:"last_update,omitempty"`

	Events []TrackingEvent `json:"events,omitempty"`

	RawJSONSnapshotPath string `json:"raw_json_snapshot_path"`
	RawHTMLSnapshotPath string `json:"raw_html_snapshot_path"`
}

type TrackingEvent struct {
	Timestamp   *string `json:"timestamp,omitempty"`
	DateRaw     *string `json:"date_raw,omitempty"`
	State       *string `json:"state,omitempty"`
	Location    *string `json:"location,omitempty"`
	Description *string `json:"description,omitempty"`
}

func NewTrackingUpdated(rec *models.TrackingRecord, checkedAt time.Time) TrackingUpdated {
	msg := TrackingUpdated{
		Number:              rec.Number,
		CheckedAt:           checkedAt.UTC(),
		Status:              rec.Status,
		CurrentState:        rec.CurrentState,
		LastUpdate:          rec.LastUpdate,
		RawJSONSnapshotPath: rec.RawJSONSnapshotPath,
		RawHTMLSnapshotPath: rec.RawHTMLSnapshotPath,
	}
	for _, e := range rec.Events {
		msg.Events = append(msg.Events, TrackingEvent{
			Timestamp:   e.Timestamp,
			DateRaw:     e.DateRaw,
			State:       e.State,
			Location:    e.Location,
			Description: e.Description,
		})
	}
	return msg
}
