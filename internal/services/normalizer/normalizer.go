package normalizer

import (
	"sort"

	"github.com/BearBump/vasptrack/internal/models"
	"github.com/BearBump/vasptrack/internal/payload"
	"github.com/pkg/errors"
)

// SnapshotStore persists the raw response of a code in both formats.
type SnapshotStore interface {
	SaveJSON(code string, raw []byte) (string, error)
	SaveHTML(code, number string, events []models.TrackingEvent) (string, error)
}

// Цепочки полей провайдера: первое присутствующее значение побеждает.
var (
	numberChain       = payload.Chain{payload.Path("service", "serviceBarCode")}
	currentStateChain = payload.Chain{payload.Field("eventDescriptionPT"), payload.Field("eventDescriptionENG")}
	lastUpdateChain   = payload.Chain{payload.Field("eventDate")}

	timestampChain   = payload.Chain{payload.Field("eventDate")}
	dateRawChain     = payload.Chain{payload.Field("createdDateUtc"), payload.Field("eventDate")}
	stateChain       = payload.Chain{payload.Field("eventDescriptionPT"), payload.Field("eventDescriptionENG")}
	locationChain    = payload.Chain{payload.Field("depotName")}
	descriptionChain = payload.Chain{payload.Field("incidencePT"), payload.Field("incidenceENG")}
)

type Normalizer struct {
	snapshots SnapshotStore
}

func New(snapshots SnapshotStore) *Normalizer {
	return &Normalizer{snapshots: snapshots}
}

// Normalize builds the record for one response and writes its snapshots.
// Snapshots are written for every record, including not_found ones.
func (n *Normalizer) Normalize(doc *payload.Document, code string) (*models.TrackingRecord, error) {
	if doc == nil || doc.Root == nil {
		return nil, errors.Wrap(payload.ErrMalformed, "empty document")
	}
	root := doc.Root
	current := root.Object("currentEvent")

	rec := &models.TrackingRecord{
		Number:       numberChain.Or(root, code),
		LastUpdate:   lastUpdateChain.Ptr(current),
		CurrentState: currentStateChain.Or(current, models.CurrentStateUnknown),
		Events:       Events(root),
	}
	rec.Status = models.TrackingStatusNotFound
	if len(rec.Events) > 0 {
		rec.Status = models.TrackingStatusOK
	}

	jsonPath, err := n.snapshots.SaveJSON(code, doc.Raw)
	if err != nil {
		return nil, err
	}
	htmlPath, err := n.snapshots.SaveHTML(code, rec.Number, rec.Events)
	if err != nil {
		return nil, err
	}
	rec.RawJSONSnapshotPath = jsonPath
	rec.RawHTMLSnapshotPath = htmlPath

	return rec, nil
}

// Events extracts clientEvents sorted by timestamp. The sort is stable, and a
// missing timestamp sorts as "".
func Events(root payload.Object) []models.TrackingEvent {
	raw := root.Objects("clientEvents")
	events := make([]models.TrackingEvent, 0, len(raw))
	for _, e := range raw {
		events = append(events, models.TrackingEvent{
			Timestamp:   timestampChain.Ptr(e),
			DateRaw:     dateRawChain.Ptr(e),
			State:       stateChain.Ptr(e),
			Location:    locationChain.Ptr(e),
			Description: descriptionChain.Ptr(e),
		})
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].SortKey() < events[j].SortKey()
	})
	return events
}
