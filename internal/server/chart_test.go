package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-bazi/internal/config"
	"github.com/tartampluch/go-bazi/internal/engine"
	"github.com/tartampluch/go-bazi/internal/ganzhi"
	"github.com/tartampluch/go-bazi/internal/lunar"
)

// ---- Mocks ----

// failingCharter returns a fixed error for every chart.
type failingCharter struct{ err error }

func (f failingCharter) ComputeChart(context.Context, engine.Birth, ...engine.ChartOption) (*engine.Chart, error) {
	return nil, f.err
}

func newChartServer() *CalendarServer {
	now := engine.FixedClock(time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC))
	srv := NewCalendarServer("0", &engine.Engine{Calendar: lunar.New(), Clock: now})
	srv.Clock = now
	return srv
}

func get(t *testing.T, h http.Handler, target string) *http.Response {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w.Result()
}

// ---- Test Cases ----

func TestHandler_Chart(t *testing.T) {
	h := newChartServer().Handler()

	resp := get(t, h, "/chart?date=1990-01-15&time=12:00&gender=male&from=2024&years=3")
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, config.MimeJSON, resp.Header.Get(config.HeaderContentType))

	var got struct {
		Pillars struct {
			Year, Month, Day, Hour string
		} `json:"pillars"`
		DaYun struct {
			Direction string `json:"direction"`
			StartAge  int    `json:"start_age"`
		} `json:"da_yun"`
		LiuNian []struct {
			Year   int    `json:"year"`
			Pillar string `json:"pillar"`
		} `json:"liu_nian"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "庚辰", got.Pillars.Day)
	assert.Equal(t, "壬午", got.Pillars.Hour)
	assert.Equal(t, "backward", got.DaYun.Direction)
	assert.Equal(t, 3, got.DaYun.StartAge)
	require.Len(t, got.LiuNian, 3)
	assert.Equal(t, 2024, got.LiuNian[0].Year)
	assert.Equal(t, "甲辰", got.LiuNian[0].Pillar)
}

func TestHandler_ChartTraditionalHour(t *testing.T) {
	h := newChartServer().Handler()

	resp := get(t, h, "/chart?date=19900115&time=%E5%8D%88%E6%97%B6&gender=%E7%94%B7") // 午时, 男
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandler_ChartBadRequest(t *testing.T) {
	h := newChartServer().Handler()

	tests := []struct {
		name  string
		query string
		field string
	}{
		{"missing date", "time=12:00&gender=male", "date"},
		{"impossible date", "date=1990-02-30&time=12:00&gender=male", "date"},
		{"bad hour", "date=1990-01-15&time=25:00&gender=male", "hour"},
		{"bad gender", "date=1990-01-15&time=12:00&gender=x", "gender"},
		{"year out of range", "date=1850-01-15&time=12:00&gender=male", "year"},
		{"bad years", "date=1990-01-15&time=12:00&gender=male&years=ten", "years"},
		{"window too long", "date=1990-01-15&time=12:00&gender=male&years=61", "years"},
		{"window before birth", "date=1990-01-15&time=12:00&gender=male&from=1980", "from"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, h, "/chart?"+tt.query)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var body errorBody
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.field, body.Field)
		})
	}
}

func TestHandler_ChartErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"calculation", &engine.CalculationError{Op: config.ErrSolarTerm, Err: errors.New("no term")}, http.StatusBadGateway},
		{"invalid pillar", &ganzhi.InvalidPillarError{Stem: ganzhi.Jia, Branch: ganzhi.Ox}, http.StatusBadGateway},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewCalendarServer("0", failingCharter{err: tt.err})
			resp := get(t, srv.Handler(), "/chart?date=1990-01-15&time=12:00&gender=male")
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.code, resp.StatusCode)

			body, _ := io.ReadAll(resp.Body)
			assert.NotContains(t, string(body), "boom", "internal details stay in the log")
		})
	}
}

func TestHandler_ChartWithoutCharter(t *testing.T) {
	srv := NewCalendarServer("0", nil)

	_, _, err := srv.computeFromQuery(httptest.NewRequest(http.MethodGet, "/chart?date=1990-01-15&time=12:00&gender=male", nil))
	require.Error(t, err)
	assert.Equal(t, config.ErrCharterMissing, err.Error())

	resp := get(t, srv.Handler(), "/chart?date=1990-01-15&time=12:00&gender=male")
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestHandler_ChartICS(t *testing.T) {
	h := newChartServer().Handler()

	resp := get(t, h, "/chart.ics?date=1990-01-15&time=12:00&gender=male&years=2&name=Jane")
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, config.MimeTextCalendar, resp.Header.Get(config.HeaderContentType))
	assert.NotEmpty(t, resp.Header.Get(config.HeaderETag))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 8+2, strings.Count(string(body), "BEGIN:VEVENT"))
	assert.Contains(t, string(body), "SUMMARY:Jane: Da Yun 1 丙子")
}

func TestHandler_ChartMethodNotAllowed(t *testing.T) {
	w := httptest.NewRecorder()
	newChartServer().Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, config.RouteChart, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, config.AllowedMethods, w.Header().Get(config.HeaderAllow))
}

func TestHandler_Metrics(t *testing.T) {
	h := newChartServer().Handler()
	resp := get(t, h, "/chart?date=1990-01-15&time=12:00&gender=male")
	_ = resp.Body.Close()

	resp = get(t, h, config.RouteMetrics)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `gobazi_http_requests_total{code="200",route="/chart"}`)
}
