// Package feed turns a vCard collection into an iCalendar feed of fortune
// cycles: every contact with a birth date and a gender gets a chart, and the
// chart's Da Yun periods and Liu Nian years become calendar events.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/tartampluch/go-bazi/internal/config"
	"github.com/tartampluch/go-bazi/internal/engine"
	"golang.org/x/sync/errgroup"
)

// SyncConfig contains all parameters required to perform a synchronization.
type SyncConfig struct {
	Mode         string // config.SourceModeLocal or config.SourceModeWeb
	LocalPath    string // Absolute path to the .vcf file
	WebURL       string // CardDAV or WebDAV URL
	WebUser      string // HTTP Basic Auth Username
	WebPass      string // HTTP Basic Auth Password
	LiuNianYears int    // Length of each contact's Liu Nian window, 0 for the default
}

// Charter computes a chart. *engine.Engine implements it.
type Charter interface {
	ComputeChart(ctx context.Context, b engine.Birth, opts ...engine.ChartOption) (*engine.Chart, error)
}

// Result is the outcome of one synchronization.
type Result struct {
	ICS    []byte
	Charts []ProfileChart // in vCard order
	Failed int            // contacts whose chart could not be computed
}

// Generator fetches contacts, charts them and renders the feed.
type Generator struct {
	Clock    engine.Clock
	Fetcher  VCardFetcher
	Charter  Charter
	Renderer Renderer

	// Concurrency bounds the charts computed in parallel. Zero uses
	// config.BatchConcurrency.
	Concurrency int
}

// RunSync executes the fetching, parsing, charting and rendering pipeline.
// A contact whose chart fails is logged and left out of the feed.
func (g *Generator) RunSync(ctx context.Context, cfg SyncConfig) (*Result, error) {
	start := time.Now()
	log := slog.With(
		config.LogKeyComponent, config.CompFeed,
		config.LogKeyMode, cfg.Mode,
	)
	log.InfoContext(ctx, config.MsgSyncStarted)

	if g.Charter == nil {
		return nil, errors.New(config.ErrCharterMissing)
	}

	// 1. Acquire Data Stream
	reader, err := g.acquireStream(ctx, cfg)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s: %w", config.ErrVCardParse, err)
	}
	defer func() { _ = reader.Close() }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 2. Decode contacts
	profiles, stats, err := decodeProfiles(ctx, reader)
	if err != nil {
		return nil, err
	}

	// 3. Chart them
	charts, failed, err := g.chartAll(ctx, profiles, cfg.LiuNianYears)
	if err != nil {
		return nil, err
	}

	// 4. Render
	ics, err := g.Renderer.Render(g.clock().Now(), charts)
	if err != nil {
		return nil, err
	}

	logSuccess(stats, len(charts), failed)
	log.Debug(config.MsgSyncFinished, config.LogKeyDuration, time.Since(start).Milliseconds())
	return &Result{ICS: ics, Charts: charts, Failed: failed}, nil
}

// acquireStream opens the appropriate data source based on configuration.
func (g *Generator) acquireStream(ctx context.Context, cfg SyncConfig) (io.ReadCloser, error) {
	switch cfg.Mode {
	case config.SourceModeLocal:
		if cfg.LocalPath == "" {
			return nil, errors.New(config.ErrLocalPathEmpty)
		}
		return os.Open(cfg.LocalPath)
	case config.SourceModeWeb:
		if cfg.WebURL == "" {
			return nil, errors.New(config.ErrWebURLEmpty)
		}
		if g.Fetcher == nil {
			return nil, errors.New(config.ErrFetcherMissing)
		}
		return g.Fetcher.Fetch(ctx, cfg.WebURL, cfg.WebUser, cfg.WebPass)
	default:
		return nil, fmt.Errorf("%s: %q", config.ErrModeUnsupport, cfg.Mode)
	}
}

// chartAll computes the charts of profiles with bounded parallelism. Results
// keep the input order; failed charts leave a nil slot that is compacted away.
func (g *Generator) chartAll(ctx context.Context, profiles []Profile, years int) ([]ProfileChart, int, error) {
	var opts []engine.ChartOption
	if years > 0 {
		opts = append(opts, engine.WithLiuNianYears(years))
	}

	limit := g.Concurrency
	if limit <= 0 {
		limit = config.BatchConcurrency
	}

	slots := make([]*engine.Chart, len(profiles))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)
	for i, p := range profiles {
		i, p := i, p
		eg.Go(func() error {
			c, err := g.Charter.ComputeChart(egCtx, p.Birth, opts...)
			if err != nil {
				if egCtx.Err() != nil {
					return egCtx.Err()
				}
				slog.Warn(config.MsgSkippedChart,
					config.LogKeyComponent, config.CompFeed,
					config.LogKeyName, p.Name,
					config.LogKeyDOB, p.Birth.String(),
					config.LogKeyError, err)
				return nil
			}
			slots[i] = c
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, 0, err
	}

	charts := make([]ProfileChart, 0, len(profiles))
	for i, c := range slots {
		if c == nil {
			continue
		}
		charts = append(charts, ProfileChart{Profile: profiles[i], Chart: c})
	}
	return charts, len(profiles) - len(charts), nil
}

func (g *Generator) clock() engine.Clock {
	if g.Clock == nil {
		return engine.RealClock{}
	}
	return g.Clock
}

// logSuccess logs the final statistics of the generation process.
func logSuccess(stats decodeStats, built, failed int) {
	slog.Info(config.MsgGenSuccess,
		config.LogKeyComponent, config.CompFeed,
		slog.Group(config.LogKeyStats,
			slog.Int(config.LogKeyTotal, stats.processed),
			slog.Int(config.LogKeyCharted, built),
			slog.Int(config.LogKeyFailed, failed),
		),
	)
}
