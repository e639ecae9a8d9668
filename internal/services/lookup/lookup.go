package lookup

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/BearBump/vasptrack/internal/integrations/vasp"
	"github.com/BearBump/vasptrack/internal/metrics"
	"github.com/BearBump/vasptrack/internal/models"
	"github.com/BearBump/vasptrack/internal/payload"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

type Normalizer interface {
	Normalize(doc *payload.Document, code string) (*models.TrackingRecord, error)
}

// Sink receives every successfully normalized record. Sink errors never stop a batch.
type Sink interface {
	Name() string
	Save(ctx context.Context, rec *models.TrackingRecord) error
}

type Settings struct {
	Timeout       time.Duration // default: 10s
	Delay         time.Duration // default: 1s, applied after every code
	MinCodeLength int           // default: 5
	Concurrency   int           // default: 1 (sequential)
}

func DefaultSettings() Settings {
	return Settings{
		Timeout:       10 * time.Second,
		Delay:         1 * time.Second,
		MinCodeLength: 5,
		Concurrency:   1,
	}
}

type Orchestrator struct {
	fetcher    vasp.Fetcher
	normalizer Normalizer
	sinks      []Sink
	log        *slog.Logger
	metrics    *metrics.Metrics

	settings Settings
	sleep    func(ctx context.Context, d time.Duration)

	startedAtUnixNano int64
	totalCodes        atomic.Int64
	totalProcessed    atomic.Int64
	totalSucceeded    atomic.Int64
	totalSkipped      atomic.Int64
	inFlight          atomic.Int64
	lastErrorMu       sync.Mutex
	lastError         string
}

func New(fetcher vasp.Fetcher, normalizer Normalizer, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		fetcher:           fetcher,
		normalizer:        normalizer,
		log:               log,
		settings:          DefaultSettings(),
		sleep:             sleepCtx,
		startedAtUnixNano: time.Now().UTC().UnixNano(),
	}
}

// WithSettings overrides the positive fields of s.
func (o *Orchestrator) WithSettings(s Settings) *Orchestrator {
	if s.Timeout > 0 {
		o.settings.Timeout = s.Timeout
	}
	if s.Delay > 0 {
		o.settings.Delay = s.Delay
	}
	if s.MinCodeLength > 0 {
		o.settings.MinCodeLength = s.MinCodeLength
	}
	if s.Concurrency > 0 {
		o.settings.Concurrency = s.Concurrency
	}
	return o
}

func (o *Orchestrator) WithSinks(sinks ...Sink) *Orchestrator {
	o.sinks = append(o.sinks, sinks...)
	return o
}

func (o *Orchestrator) WithMetrics(m *metrics.Metrics) *Orchestrator {
	o.metrics = m
	return o
}

func (o *Orchestrator) WithSleeper(fn func(ctx context.Context, d time.Duration)) *Orchestrator {
	if fn != nil {
		o.sleep = fn
	}
	return o
}

func (o *Orchestrator) Settings() Settings { return o.settings }

// Run looks up every valid code and returns the records in input order.
// Per-code failures are logged and skipped. The returned error is either
// ErrNoValidCodes, a snapshot write failure, or the cancellation of ctx;
// records gathered before a fatal error are still returned.
func (o *Orchestrator) Run(ctx context.Context, codes []string) ([]*models.TrackingRecord, error) {
	valid := o.filter(codes)
	if len(valid) == 0 {
		return nil, ErrNoValidCodes
	}
	o.totalCodes.Add(int64(len(valid)))

	slots := make([]*models.TrackingRecord, len(valid))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.settings.Concurrency)
	for i, code := range valid {
		if gctx.Err() != nil {
			break
		}
		i, code := i, code
		g.Go(func() error {
			o.inFlight.Add(1)
			defer o.inFlight.Add(-1)

			rec, err := o.processOne(gctx, code)
			// Пауза после каждого кода, успешного или нет: бережём сервер провайдера.
			// При concurrency > 1 пауза держит слот воркера.
			if err == nil || Classify(err) != OutcomeFatal {
				o.sleep(gctx, o.settings.Delay)
			}
			if err != nil {
				if Classify(err) == OutcomeFatal {
					return err
				}
				return nil
			}
			slots[i] = rec
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	out := make([]*models.TrackingRecord, 0, len(slots))
	for _, rec := range slots {
		if rec != nil {
			out = append(out, rec)
		}
	}
	return out, err
}

func (o *Orchestrator) filter(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		code := strings.TrimSpace(c)
		if err := o.validate(code); err != nil {
			o.totalSkipped.Add(1)
			o.observe(OutcomeInvalidCode, 0)
			if o.metrics != nil {
				o.metrics.CodesSkippedTotal.Inc()
			}
			o.log.Warn("skipping invalid code", "code", c, "min_length", o.settings.MinCodeLength)
			continue
		}
		out = append(out, code)
	}
	return out
}

func (o *Orchestrator) validate(code string) error {
	if code == "" {
		return errors.Wrap(ErrInvalidCode, "empty code")
	}
	if utf8.RuneCountInString(code) < o.settings.MinCodeLength {
		return errors.Wrapf(ErrInvalidCode, "code %q shorter than %d", code, o.settings.MinCodeLength)
	}
	return nil
}

func (o *Orchestrator) processOne(ctx context.Context, code string) (*models.TrackingRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	o.log.Debug("checking code", "code", code)

	rec, err := o.lookup(ctx, code)
	outcome := Classify(err)
	o.totalProcessed.Add(1)
	o.observe(outcome, time.Since(start))

	if err != nil {
		o.setLastError(code, err)
		if outcome == OutcomeFatal {
			o.log.Error("batch aborted", "code", code, "error", err.Error())
			return nil, err
		}
		o.totalSkipped.Add(1)
		o.report(code, outcome, err)
		return nil, err
	}

	o.totalSucceeded.Add(1)
	if o.metrics != nil {
		o.metrics.SnapshotsWritten.Inc()
	}
	o.log.Info("tracking found", "code", code, "number", rec.Number, "status", rec.Status, "state", rec.CurrentState, "events", len(rec.Events))

	for _, s := range o.sinks {
		if err := s.Save(ctx, rec); err != nil {
			if o.metrics != nil {
				o.metrics.SinkErrorsTotal.WithLabelValues(s.Name()).Inc()
			}
			o.log.Warn("result sink failed", "sink", s.Name(), "code", code, "error", err.Error())
		}
	}
	return rec, nil
}

func (o *Orchestrator) lookup(ctx context.Context, code string) (*models.TrackingRecord, error) {
	reqCtx, cancel := context.WithTimeout(ctx, o.settings.Timeout)
	defer cancel()

	resp, err := o.fetcher.Fetch(reqCtx, code)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if Classify(err) == OutcomeProcessing {
			err = errors.Wrap(vasp.ErrTransport, err.Error())
		}
		return nil, err
	}
	if !resp.OK() {
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode}
	}

	doc, err := payload.Parse(resp.Body)
	if err != nil {
		return nil, err
	}
	rec, err := o.normalizer.Normalize(doc, code)
	if err != nil {
		return nil, errors.WithMessage(err, "normalize")
	}
	return rec, nil
}

func (o *Orchestrator) report(code string, outcome Outcome, err error) {
	switch outcome {
	case OutcomeInvalidPayload:
		o.log.Error("invalid json response from server", "code", code, "error", err.Error())
	case OutcomeHTTPStatus:
		var se *HTTPStatusError
		if errors.As(err, &se) {
			o.log.Error("server returned error", "code", code, "http_status", se.StatusCode)
			return
		}
		o.log.Error("server returned error", "code", code, "error", err.Error())
	case OutcomeTimeout:
		o.log.Error("request timed out", "code", code, "timeout", o.settings.Timeout.String())
	case OutcomeConnection:
		o.log.Error("network connection error", "code", code, "error", err.Error())
	case OutcomeTransport:
		o.log.Error("unexpected network error", "code", code, "error", err.Error())
	case OutcomeProcessing:
		o.log.Error("error processing response", "code", code, "error", err.Error())
	}
}

func (o *Orchestrator) observe(outcome Outcome, d time.Duration) {
	if o.metrics == nil {
		return
	}
	o.metrics.LookupsTotal.WithLabelValues(string(outcome)).Inc()
	if outcome != OutcomeInvalidCode {
		o.metrics.LookupDuration.Observe(d.Seconds())
	}
}

func (o *Orchestrator) setLastError(code string, err error) {
	o.lastErrorMu.Lock()
	o.lastError = code + ": " + err.Error()
	o.lastErrorMu.Unlock()
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
