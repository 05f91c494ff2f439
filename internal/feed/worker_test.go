package feed_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-bazi/internal/config"
	"github.com/tartampluch/go-bazi/internal/engine"
	"github.com/tartampluch/go-bazi/internal/feed"
	"go.uber.org/goleak"
)

// freshFetcher serves the same vCard on every call.
type freshFetcher string

func (f freshFetcher) Fetch(context.Context, string, string, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(string(f))), nil
}

// idleConns ignores keep-alive connections left by the HTTP fetcher tests.
var idleConns = []goleak.Option{
	goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
	goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
}

const oneContact = "BEGIN:VCARD\nVERSION:4.0\nFN:Ticker\nBDAY:1990-01-15T12:00:00\nGENDER:F\nEND:VCARD"

func TestWorker_RunOnceWithoutInterval(t *testing.T) {
	defer goleak.VerifyNone(t, idleConns...)

	var published [][]byte
	w := &feed.Worker{
		Generator: &feed.Generator{
			Clock:   engine.FixedClock(now),
			Fetcher: webSource(t, oneContact),
			Charter: realEngine(),
		},
		Config:  feed.SyncConfig{Mode: config.SourceModeWeb, WebURL: "http://test.local", LiuNianYears: 1},
		Publish: func(ics []byte) { published = append(published, ics) },
	}

	w.Run(context.Background())
	require.Len(t, published, 1)
	assert.Contains(t, string(published[0]), "SUMMARY:Ticker: Da Yun 1")
}

func TestWorker_PeriodicUntilCancelled(t *testing.T) {
	defer goleak.VerifyNone(t, idleConns...)

	fetcher := freshFetcher(oneContact)

	var (
		mu    sync.Mutex
		count int
	)
	w := &feed.Worker{
		Generator: &feed.Generator{Fetcher: fetcher, Charter: realEngine()},
		Config:    feed.SyncConfig{Mode: config.SourceModeWeb, WebURL: "http://test.local", LiuNianYears: 1},
		Interval:  10 * time.Millisecond,
		Publish: func([]byte) {
			mu.Lock()
			count++
			mu.Unlock()
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count >= 3
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestWorker_FailureKeepsPreviousFeed(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("Fetch", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("offline"))

	called := false
	w := &feed.Worker{
		Generator: &feed.Generator{Fetcher: fetcher, Charter: realEngine()},
		Config:    feed.SyncConfig{Mode: config.SourceModeWeb, WebURL: "http://test.local"},
		Publish:   func([]byte) { called = true },
	}

	assert.False(t, w.SyncOnce(context.Background()))
	assert.False(t, called)
}
