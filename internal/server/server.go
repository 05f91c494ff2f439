package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tartampluch/go-bazi/internal/config"
	"github.com/tartampluch/go-bazi/internal/engine"
	"github.com/tartampluch/go-bazi/internal/feed"
	"github.com/tartampluch/go-bazi/internal/ganzhi"
)

// cacheItem stores the rendered calendar and its metadata for HTTP caching.
type cacheItem struct {
	data         []byte
	etag         string
	lastModified string // RFC1123 format required by HTTP headers
}

// CalendarServer serves the synchronized feed and computes charts on demand.
type CalendarServer struct {
	// cache uses atomic.Pointer for lock-free reads.
	cache atomic.Pointer[cacheItem]
	Port  string

	// Charter answers /chart and /chart.ics. Nil disables both routes.
	Charter  feed.Charter
	Renderer feed.Renderer
	Clock    engine.Clock
}

// NewCalendarServer creates a new instance of the server.
func NewCalendarServer(port string, charter feed.Charter) *CalendarServer {
	return &CalendarServer{
		Port:    port,
		Charter: charter,
	}
}

// Handler returns the routed and instrumented HTTP handler.
func (s *CalendarServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(config.RouteFeed, instrument(config.RouteFeed, s.handleCalendarRequest))
	mux.HandleFunc(config.RouteChart, instrument(config.RouteChart, s.handleChart))
	mux.HandleFunc(config.RouteChartICS, instrument(config.RouteChartICS, s.handleChartICS))
	mux.Handle(config.RouteMetrics, promhttp.Handler())
	return mux
}

// Start initializes the HTTP server and blocks until the context is cancelled.
func (s *CalendarServer) Start(ctx context.Context) error {
	if s.Port == "" {
		return errors.New(config.ErrPortRequired)
	}

	srv := &http.Server{
		Addr:         config.LocalhostBindAddr + config.AddrSeparator + s.Port,
		Handler:      s.Handler(),
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serverError := make(chan error, config.ChannelBufferSize)

	go func() {
		slog.Info(config.MsgServerListen,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyPort, s.Port,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info(config.MsgServerStop, config.LogKeyComponent, config.CompServer)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: %w", config.ErrServerShutdown, err)
		}
		return nil

	case err := <-serverError:
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
}

// Update atomically replaces the served feed.
func (s *CalendarServer) Update(data []byte) {
	item := newCacheItem(data, time.Now())
	s.cache.Store(item)
	feedUpdates.Inc()
	feedSize.Set(float64(len(data)))

	slog.Debug(config.MsgCacheUpdated,
		config.LogKeyComponent, config.CompServer,
		config.LogKeySizeBytes, len(data),
		config.LogKeyETag, item.etag,
	)
}

func newCacheItem(data []byte, at time.Time) *cacheItem {
	hash := sha256.Sum256(data)
	return &cacheItem{
		data:         data,
		etag:         fmt.Sprintf(config.FormatETag, hex.EncodeToString(hash[:])),
		lastModified: at.UTC().Format(http.TimeFormat),
	}
}

// handleCalendarRequest serves the cached feed with HTTP caching support.
func (s *CalendarServer) handleCalendarRequest(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r) {
		return
	}

	item := s.cache.Load()
	if item == nil {
		w.Header().Set(config.HeaderRetryAfter, config.RetryAfterSeconds)
		http.Error(w, config.HTTPMsgInitializing, http.StatusServiceUnavailable)
		return
	}
	serveCached(w, r, item)
}

// serveCached writes item honouring If-None-Match and If-Modified-Since.
func serveCached(w http.ResponseWriter, r *http.Request, item *cacheItem) {
	w.Header().Set(config.HeaderContentType, config.MimeTextCalendar)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	w.Header().Set(config.HeaderCacheControl, config.CacheControlPrivate)
	w.Header().Set(config.HeaderETag, item.etag)
	w.Header().Set(config.HeaderLastModified, item.lastModified)

	if match := r.Header.Get(config.HeaderIfNoneMatch); match == item.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	if since := r.Header.Get(config.HeaderIfModifiedSince); since != "" {
		if clientTime, err := time.Parse(http.TimeFormat, since); err == nil {
			if serverTime, err := time.Parse(http.TimeFormat, item.lastModified); err == nil {
				if !serverTime.After(clientTime) {
					w.WriteHeader(http.StatusNotModified)
					return
				}
			}
		}
	}

	if r.Method == http.MethodGet {
		if _, err := io.Copy(w, bytes.NewReader(item.data)); err != nil {
			slog.Error(config.ErrWriteResp,
				config.LogKeyComponent, config.CompServer,
				config.LogKeyError, err,
			)
		}
	}
}

// handleChart answers GET /chart?date=1990-01-15&time=12:00&gender=male with
// the chart as JSON.
func (s *CalendarServer) handleChart(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r) {
		return
	}
	c, _, err := s.computeFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(c); err != nil {
		writeError(w, r, fmt.Errorf("%s: %w", config.ErrJSONEncode, err))
		return
	}
	w.Header().Set(config.HeaderContentType, config.MimeJSON)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	if r.Method == http.MethodGet {
		_, _ = w.Write(buf.Bytes())
	}
}

// handleChartICS renders the fortune cycles of one chart as a feed.
func (s *CalendarServer) handleChartICS(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r) {
		return
	}
	c, b, err := s.computeFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	name := r.URL.Query().Get(config.QueryName)
	if name == "" {
		name = config.FallbackName
	}
	data, err := s.Renderer.Render(s.clock().Now(), []feed.ProfileChart{{
		Profile: feed.NewProfile(name, b, true),
		Chart:   c,
	}})
	if err != nil {
		writeError(w, r, err)
		return
	}
	serveCached(w, r, newCacheItem(data, s.clock().Now()))
}

func (s *CalendarServer) computeFromQuery(r *http.Request) (*engine.Chart, engine.Birth, error) {
	if s.Charter == nil {
		return nil, engine.Birth{}, errors.New(config.ErrCharterMissing)
	}
	q := r.URL.Query()
	b, err := engine.ParseBirth(q.Get(config.QueryDate), q.Get(config.QueryTime), q.Get(config.QueryGender))
	if err != nil {
		return nil, engine.Birth{}, err
	}

	var opts []engine.ChartOption
	for _, p := range []struct {
		key string
		opt func(int) engine.ChartOption
	}{
		{config.QueryFrom, engine.WithLiuNianFrom},
		{config.QueryYears, engine.WithLiuNianYears},
	} {
		v := q.Get(p.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, engine.Birth{}, &engine.InvalidInputError{Field: p.key, Value: v, Reason: config.ErrNotInteger}
		}
		opts = append(opts, p.opt(n))
	}

	c, err := s.Charter.ComputeChart(r.Context(), b, opts...)
	if err != nil {
		return nil, engine.Birth{}, err
	}
	return c, b, nil
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeError maps engine errors to HTTP statuses: bad input is the caller's
// fault, calculation failures come from the calendar service.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := errorBody{Error: config.HTTPMsgInternalErr}
	code := http.StatusInternalServerError

	var inputErr *engine.InvalidInputError
	var calcErr *engine.CalculationError
	switch {
	case errors.As(err, &inputErr):
		code = http.StatusBadRequest
		body = errorBody{Error: inputErr.Error(), Field: inputErr.Field}
	case errors.As(err, &calcErr), errors.Is(err, ganzhi.ErrInvalidPillar):
		code = http.StatusBadGateway
		body.Error = config.HTTPMsgUpstreamErr
	}

	slog.Warn(config.MsgRequestFailed,
		config.LogKeyComponent, config.CompServer,
		config.LogKeyURL, r.URL.Path,
		config.LogKeyStatus, code,
		config.LogKeyError, err,
	)

	w.Header().Set(config.HeaderContentType, config.MimeJSON)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func allowMethod(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set(config.HeaderAllow, config.AllowedMethods)
		http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func (s *CalendarServer) clock() engine.Clock {
	if s.Clock == nil {
		return engine.RealClock{}
	}
	return s.Clock
}
