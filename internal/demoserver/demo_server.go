package demoserver

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/charmap"

	"github.com/raysh454/pagefetch/internal/logging"
)

// DemoServer serves fixture pages that exercise both fetch strategies:
// plain markup, script-rendered markup, transient 5xx, arbitrary status
// codes, a response that never completes, and a non-UTF-8 page.
type DemoServer struct {
	cfg    Config
	logger logging.Logger

	mu    sync.Mutex
	flaky map[string]int // key -> 503s served so far

	stop     chan struct{}
	stopOnce sync.Once
}

// NewDemoServer creates a new demo server instance.
func NewDemoServer(cfg Config, logger logging.Logger) *DemoServer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &DemoServer{
		cfg:    cfg,
		logger: logger.With(logging.F("component", "demoserver")),
		flaky:  map[string]int{},
		stop:   make(chan struct{}),
	}
}

// Router returns the chi router with every fixture route mounted. Tests
// wrap it in httptest.NewServer.
func (s *DemoServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLog)

	r.Get("/", s.indexHandler)
	r.Get("/static", s.staticHandler)
	r.Get("/rendered", s.renderedHandler)
	r.Get("/flaky/{failures}", s.flakyHandler)
	r.Get("/status/{code}", s.statusHandler)
	r.Get("/stall", s.stallHandler)
	r.Get("/charset", s.charsetHandler)
	r.Get("/echo-headers", s.echoHeadersHandler)
	r.Get("/redirect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/static", http.StatusFound)
	})
	return r
}

// Start listens on cfg.Port until ctx is cancelled.
func (s *DemoServer) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("demo server listening", logging.F("addr", "http://localhost"+srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return eris.Wrap(err, "demo server")
	case <-ctx.Done():
	}

	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "demo server shutdown")
	}
	return nil
}

// Close releases handlers blocked in /stall.
func (s *DemoServer) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *DemoServer) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("served",
			logging.F("path", r.URL.Path),
			logging.F("status", ww.Status()),
			logging.F("duration", time.Since(start).String()))
	})
}

func writeHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (s *DemoServer) indexHandler(w http.ResponseWriter, r *http.Request) {
	writeHTML(w, http.StatusOK, indexHTML)
}

func (s *DemoServer) staticHandler(w http.ResponseWriter, r *http.Request) {
	writeHTML(w, http.StatusOK, staticHTML)
}

func (s *DemoServer) renderedHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = renderedTmpl.Execute(w, struct{ DelayMS int64 }{DelayMS: s.cfg.RenderDelay.Milliseconds()})
}

// flakyHandler answers 503 for the first N requests per key, then 200.
// The key defaults to the path, so /flaky/3?key=a and /flaky/3?key=b count
// separately.
func (s *DemoServer) flakyHandler(w http.ResponseWriter, r *http.Request) {
	failures, err := strconv.Atoi(chi.URLParam(r, "failures"))
	if err != nil || failures < 0 {
		http.Error(w, "failures must be a non-negative integer", http.StatusBadRequest)
		return
	}
	key := r.URL.Path + "?" + r.URL.Query().Get("key")

	s.mu.Lock()
	served := s.flaky[key]
	if served < failures {
		s.flaky[key] = served + 1
	}
	s.mu.Unlock()

	if served < failures {
		writeHTML(w, http.StatusServiceUnavailable, "<html><body>try again</body></html>")
		return
	}
	writeHTML(w, http.StatusOK, fmt.Sprintf(
		"<html><head><title>Flaky</title></head><body><p id=\"content\">recovered after %d failures</p></body></html>", failures))
}

// FlakyServed reports how many 503s /flaky has returned for path+key.
func (s *DemoServer) FlakyServed(path, key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flaky[path+"?"+key]
}

func (s *DemoServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	code, err := strconv.Atoi(chi.URLParam(r, "code"))
	if err != nil || code < 200 || code > 599 {
		http.Error(w, "code must be between 200 and 599", http.StatusBadRequest)
		return
	}
	writeHTML(w, code, fmt.Sprintf("<html><body><h1>%d %s</h1></body></html>", code, http.StatusText(code)))
}

// stallHandler sends headers and the start of a document, then holds the
// connection open. The load event never fires and no <body> ever arrives.
func (s *DemoServer) stallHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("<!DOCTYPE html><html><head><title>Stalled</title>"))
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	limit := time.NewTimer(s.cfg.StallLimit)
	defer limit.Stop()
	select {
	case <-r.Context().Done():
	case <-s.stop:
	case <-limit.C:
	}
}

func (s *DemoServer) charsetHandler(w http.ResponseWriter, r *http.Request) {
	page := "<html><head><title>Café</title></head><body><p id=\"content\">déjà vu à la carte</p></body></html>"
	encoded, err := charmap.ISO8859_1.NewEncoder().String(page)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(encoded))
}

func (s *DemoServer) echoHeadersHandler(w http.ResponseWriter, r *http.Request) {
	keys := make([]string, 0, len(r.Header))
	for k := range r.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	type header struct{ Name, Value string }
	headers := make([]header, 0, len(keys))
	for _, k := range keys {
		headers = append(headers, header{Name: k, Value: r.Header.Get(k)})
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = echoTmpl.Execute(w, headers)
}

var renderedTmpl = template.Must(template.New("rendered").Parse(renderedHTML))
var echoTmpl = template.Must(template.New("echo").Parse(echoHTML))
