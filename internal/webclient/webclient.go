package webclient

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/raysh454/pagefetch/internal/logging"
)

// WebClient is the contract shared by the static and dynamic fetchers.
// Fetch never returns a nil Result; every failure other than a nil request
// is recovered into a Failure.
type WebClient interface {
	Fetch(ctx context.Context, req *Request) *Result

	Close() error
}

// pacer spaces consecutive fetches on one instance. A nil pacer never waits.
type pacer struct {
	lim *rate.Limiter
}

func newPacer(every time.Duration) *pacer {
	if every <= 0 {
		return nil
	}
	return &pacer{lim: rate.NewLimiter(rate.Every(every), 1)}
}

func (p *pacer) wait(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return p.lim.Wait(ctx)
}

// fetchScope carries the bookkeeping common to one Fetch call.
type fetchScope struct {
	meta   Result
	start  time.Time
	logger logging.Logger
}

func beginFetch(logger logging.Logger, backend string, req *Request) *fetchScope {
	id := uuid.NewString()
	url := req.URL()
	return &fetchScope{
		meta: Result{
			FetchID: id,
			URL:     url,
			Backend: backend,
		},
		start:  time.Now(),
		logger: logger.With(logging.F("fetch_id", id), logging.F("url", url)),
	}
}

func (s *fetchScope) stamp() Result {
	m := s.meta
	m.FetchedAt = time.Now()
	m.Duration = m.FetchedAt.Sub(s.start)
	return m
}

func (s *fetchScope) succeed(markup string) *Result {
	res := NewSuccess(s.stamp(), markup)
	s.logger.Info("fetch succeeded",
		logging.F("bytes", len(markup)),
		logging.F("attempts", res.Attempts),
		logging.F("duration", res.Duration.String()))
	return res
}

func (s *fetchScope) fail(kind ErrorKind, statusCode int, cause error) *Result {
	msg := kind.String()
	if cause != nil {
		msg = cause.Error()
	}
	res := NewFailure(s.stamp(), kind, msg, statusCode)
	fields := []logging.Field{
		logging.F("kind", kind.String()),
		logging.F("attempts", res.Attempts),
		logging.F("duration", res.Duration.String()),
		logging.Err(cause),
	}
	if statusCode != 0 {
		fields = append(fields, logging.F("status", statusCode))
	}
	s.logger.Error("fetch failed", fields...)
	return res
}
