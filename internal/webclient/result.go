package webclient

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

// Success carries the retrieved markup.
type Success struct {
	Markup string
}

// Failure carries a classified error. StatusCode is set for HttpStatus.
type Failure struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
}

// Result is the outcome of one Fetch call. Exactly one of Success and
// Failure is populated; the variant is fixed at construction and a Result is
// never modified after Fetch returns it.
type Result struct {
	FetchID    string
	URL        string
	FinalURL   string
	Backend    string
	Attempts   int
	StatusCode int
	Duration   time.Duration
	FetchedAt  time.Time

	success *Success
	failure *Failure
}

// NewSuccess builds a successful result. Test doubles use it as well.
func NewSuccess(meta Result, markup string) *Result {
	meta.success = &Success{Markup: markup}
	meta.failure = nil
	return &meta
}

// NewFailure builds a failed result.
func NewFailure(meta Result, kind ErrorKind, message string, statusCode int) *Result {
	meta.success = nil
	meta.failure = &Failure{Kind: kind, Message: message, StatusCode: statusCode}
	return &meta
}

// OK reports whether the fetch succeeded.
func (r *Result) OK() bool { return r != nil && r.success != nil }

// Success returns the success variant.
func (r *Result) Success() (Success, bool) {
	if r == nil || r.success == nil {
		return Success{}, false
	}
	return *r.success, true
}

// Failure returns the failure variant.
func (r *Result) Failure() (Failure, bool) {
	if r == nil || r.failure == nil {
		return Failure{}, false
	}
	return *r.failure, true
}

// Markup returns the fetched markup, or "" for a failure.
func (r *Result) Markup() string {
	if s, ok := r.Success(); ok {
		return s.Markup
	}
	return ""
}

// Err converts a failure into a *FetchError; it is nil on success.
func (r *Result) Err() error {
	f, ok := r.Failure()
	if !ok {
		return nil
	}
	return &FetchError{Kind: f.Kind, StatusCode: f.StatusCode, Msg: f.Message}
}

// Document parses the markup for a downstream extraction step. Parsing is
// lenient, so the only error is calling it on a failed result.
func (r *Result) Document() (*goquery.Document, error) {
	if r == nil {
		return nil, eris.New("no markup to parse: nil result")
	}
	s, ok := r.Success()
	if !ok {
		return nil, eris.Wrap(r.Err(), "no markup to parse")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s.Markup))
	if err != nil {
		return nil, eris.Wrap(err, "parse markup")
	}
	return doc, nil
}
