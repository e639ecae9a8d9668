package models

// Статусы нормализованной записи.
const (
	TrackingStatusOK       = "ok"
	TrackingStatusNotFound = "not_found"
)

// CurrentStateUnknown подставляется, когда у текущего события нет описания.
const CurrentStateUnknown = "Unknown"

type TrackingRecord struct {
	Number              string          `json:"number"`
	Status              string          `json:"status"`
	LastUpdate          *string         `json:"last_update"`
	CurrentState        string          `json:"current_state"`
	Events              []TrackingEvent `json:"events"`
	RawJSONSnapshotPath string          `json:"raw_json_snapshot_path"`
	RawHTMLSnapshotPath string          `json:"raw_html_snapshot_path"`
}

type TrackingEvent struct {
	Timestamp   *string `json:"timestamp"`
	DateRaw     *string `json:"date_raw"`
	State       *string `json:"state"`
	Location    *string `json:"location"`
	Description *string `json:"description"`
}

// SortKey returns the timestamp, or "" when it is missing.
func (e TrackingEvent) SortKey() string {
	if e.Timestamp == nil {
		return ""
	}
	return *e.Timestamp
}
