package lookup

import "time"

type Stats struct {
	StartedAt      time.Time `json:"startedAt"`
	TotalCodes     int64     `json:"totalCodes"`
	TotalProcessed int64     `json:"totalProcessed"`
	TotalSucceeded int64     `json:"totalSucceeded"`
	TotalSkipped   int64     `json:"totalSkipped"`
	InFlight       int64     `json:"inFlight"`
	LastError      string    `json:"lastError,omitempty"`
}

func (o *Orchestrator) Stats() Stats {
	st := Stats{
		StartedAt:      time.Unix(0, o.startedAtUnixNano).UTC(),
		TotalCodes:     o.totalCodes.Load(),
		TotalProcessed: o.totalProcessed.Load(),
		TotalSucceeded: o.totalSucceeded.Load(),
		TotalSkipped:   o.totalSkipped.Load(),
		InFlight:       o.inFlight.Load(),
	}
	o.lastErrorMu.Lock()
	st.LastError = o.lastError
	o.lastErrorMu.Unlock()
	return st
}
