package lookup

import (
	"context"
	"fmt"

	"github.com/BearBump/vasptrack/internal/integrations/vasp"
	"github.com/BearBump/vasptrack/internal/payload"
	"github.com/BearBump/vasptrack/internal/storage/snapshots"
	"github.com/pkg/errors"
)

var (
	ErrInvalidCode  = errors.New("invalid code")
	ErrNoValidCodes = errors.New("no valid codes to process")
)

// HTTPStatusError означает, что провайдер ответил не-2xx.
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http %d", e.StatusCode)
}

// Outcome is the classified result of one code.
type Outcome string

const (
	OutcomeOK             Outcome = "ok"
	OutcomeInvalidCode    Outcome = "invalid_code"
	OutcomeInvalidPayload Outcome = "invalid_payload"
	OutcomeHTTPStatus     Outcome = "http_status"
	OutcomeTimeout        Outcome = "timeout"
	OutcomeConnection     Outcome = "connection"
	OutcomeTransport      Outcome = "transport"
	OutcomeProcessing     Outcome = "processing"
	OutcomeFatal          Outcome = "fatal"
)

// Classify maps a per-code error onto its outcome.
func Classify(err error) Outcome {
	var statusErr *HTTPStatusError
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, snapshots.ErrWrite), errors.Is(err, context.Canceled):
		return OutcomeFatal
	case errors.Is(err, ErrInvalidCode):
		return OutcomeInvalidCode
	case errors.Is(err, payload.ErrMalformed):
		return OutcomeInvalidPayload
	case errors.As(err, &statusErr):
		return OutcomeHTTPStatus
	case errors.Is(err, vasp.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	case errors.Is(err, vasp.ErrConnection):
		return OutcomeConnection
	case errors.Is(err, vasp.ErrTransport):
		return OutcomeTransport
	default:
		return OutcomeProcessing
	}
}
