package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-bazi/internal/config"
	"github.com/tartampluch/go-bazi/internal/engine"
	"github.com/tartampluch/go-bazi/internal/feed"
	"github.com/tartampluch/go-bazi/internal/lunar"
	"github.com/tartampluch/go-bazi/internal/report"
	"github.com/tartampluch/go-bazi/internal/server"
	"github.com/zalando/go-keyring"
	"golang.org/x/sync/errgroup"
)

// cli holds the parsed flags and the collaborators the commands share.
type cli struct {
	out       io.Writer
	logCloser io.Closer

	debug      bool
	configPath string
	lang       string
	rulesPath  string
	years      int

	date, clock, gender string
	from                int
	asJSON              bool
	name                string

	source, path, url, user string
	port                    string
	interval                int

	// Replaced in tests.
	setupLog   func(level slog.Level) io.Closer
	keyringGet func(service, user string) (string, error)
	fetcher    feed.VCardFetcher
	now        engine.Clock
}

func newCLI(out io.Writer) *cli {
	return &cli{
		out:        out,
		setupLog:   setupLogging,
		keyringGet: keyring.Get,
		fetcher:    feed.NewHTTPFetcher(),
		now:        engine.RealClock{},
	}
}

func (c *cli) closeLog() {
	if c.logCloser != nil {
		_ = c.logCloser.Close() // Best effort close
	}
}

func (c *cli) root() *cobra.Command {
	root := &cobra.Command{
		Use:           config.AppBinary,
		Short:         config.ShortRoot,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if cmd.Name() == config.CmdServe {
				level = slog.LevelInfo
			}
			if c.debug {
				level = slog.LevelDebug
			}
			c.logCloser = c.setupLog(level)
			logStartupInfo()
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVar(&c.debug, config.FlagDebug, false, config.FlagDescDebug)
	pf.StringVar(&c.configPath, config.FlagConfig, "", config.FlagDescConfig)
	pf.StringVar(&c.lang, config.FlagLang, config.DefaultLanguage, config.FlagDescLang)
	pf.StringVar(&c.rulesPath, config.FlagRules, "", config.FlagDescRules)
	pf.IntVar(&c.years, config.FlagYears, config.DefaultLiuNianYears, config.FlagDescYears)

	root.AddCommand(c.chartCmd(), c.icsCmd(), c.batchCmd(), c.serveCmd(), c.versionCmd())
	return root
}

func (c *cli) birthFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&c.date, config.FlagDate, "", config.FlagDescDate)
	f.StringVar(&c.clock, config.FlagTime, "", config.FlagDescTime)
	f.StringVar(&c.gender, config.FlagGender, "", config.FlagDescGender)
	f.IntVar(&c.from, config.FlagFrom, 0, config.FlagDescFrom)
	_ = cmd.MarkFlagRequired(config.FlagDate)
	_ = cmd.MarkFlagRequired(config.FlagTime)
	_ = cmd.MarkFlagRequired(config.FlagGender)
}

func (c *cli) sourceFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&c.source, config.FlagSource, "", config.FlagDescSource)
	f.StringVar(&c.path, config.FlagPath, "", config.FlagDescPath)
	f.StringVar(&c.url, config.FlagURL, "", config.FlagDescURL)
	f.StringVar(&c.user, config.FlagUser, "", config.FlagDescUser)
}

func (c *cli) chartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   config.CmdChart,
		Short: config.ShortChart,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.settings(cmd)
			if err != nil {
				return err
			}
			chart, _, err := c.compute(cmd.Context(), s)
			if err != nil {
				return err
			}
			if c.asJSON {
				enc := json.NewEncoder(c.out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(chart); err != nil {
					return fmt.Errorf("%s: %w", config.ErrJSONEncode, err)
				}
				return nil
			}
			return report.NewTranslator(s.Language).WriteChart(c.out, chart)
		},
	}
	c.birthFlags(cmd)
	cmd.Flags().BoolVar(&c.asJSON, config.FlagJSON, false, config.FlagDescJSON)
	return cmd
}

func (c *cli) icsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   config.CmdICS,
		Short: config.ShortICS,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.settings(cmd)
			if err != nil {
				return err
			}
			chart, b, err := c.compute(cmd.Context(), s)
			if err != nil {
				return err
			}
			data, err := renderer(report.NewTranslator(s.Language)).Render(c.now.Now(), []feed.ProfileChart{{
				Profile: feed.NewProfile(c.name, b, true),
				Chart:   chart,
			}})
			if err != nil {
				return err
			}
			_, err = c.out.Write(data)
			return err
		},
	}
	c.birthFlags(cmd)
	cmd.Flags().StringVar(&c.name, config.FlagName, config.FallbackName, config.FlagDescName)
	return cmd
}

func (c *cli) batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   config.CmdBatch,
		Short: config.ShortBatch,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.settings(cmd)
			if err != nil {
				return err
			}
			gen, err := c.generator(s)
			if err != nil {
				return err
			}
			res, err := gen.RunSync(cmd.Context(), c.syncConfig(s))
			if err != nil {
				return err
			}
			if res.Failed > 0 {
				slog.Warn(config.ErrBatchIncomplete,
					config.LogKeyComponent, config.CompMain,
					config.LogKeyFailed, res.Failed)
			}
			_, err = c.out.Write(res.ICS)
			return err
		},
	}
	c.sourceFlags(cmd)
	return cmd
}

func (c *cli) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   config.CmdServe,
		Short: config.ShortServe,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.settings(cmd)
			if err != nil {
				return err
			}
			return c.serve(cmd.Context(), s)
		},
	}
	cmd.Flags().StringVar(&c.port, config.FlagPort, config.DefaultPort, config.FlagDescPort)
	cmd.Flags().IntVar(&c.interval, config.FlagInterval, config.DefaultRefreshMin, config.FlagDescInterval)
	c.sourceFlags(cmd)
	return cmd
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   config.CmdVersion,
		Short: config.ShortVersion,
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			printVersion(c.out)
		},
	}
}

// serve runs the HTTP server and, when a vCard source is configured, the
// feed worker. The first failure stops both.
func (c *cli) serve(ctx context.Context, s config.Settings) error {
	eng, err := c.engine(s)
	if err != nil {
		return err
	}
	srv := server.NewCalendarServer(s.Port, eng)
	srv.Renderer = renderer(report.NewTranslator(s.Language))
	srv.Clock = c.now

	eg, egCtx := errgroup.WithContext(ctx)
	if s.SourceMode != "" {
		gen, err := c.generator(s)
		if err != nil {
			return err
		}
		w := &feed.Worker{
			Generator: gen,
			Config:    c.syncConfig(s),
			Interval:  time.Duration(s.RefreshMin) * time.Minute,
			Publish:   srv.Update,
		}
		eg.Go(func() error {
			w.Run(egCtx)
			return nil
		})
	}
	eg.Go(func() error { return srv.Start(egCtx) })

	if err := eg.Wait(); err != nil {
		return err
	}
	slog.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
	return nil
}

// settings loads the settings file and applies the flags the user set.
func (c *cli) settings(cmd *cobra.Command) (config.Settings, error) {
	path := c.configPath
	if path == "" {
		path, _ = defaultSettingsPath()
	}
	s, err := config.LoadSettings(path)
	if err != nil {
		return s, err
	}

	f := cmd.Flags()
	override := func(name string, apply func()) {
		if f.Lookup(name) != nil && f.Changed(name) {
			apply()
		}
	}
	override(config.FlagLang, func() { s.Language = c.lang })
	override(config.FlagRules, func() { s.RulesPath = c.rulesPath })
	override(config.FlagYears, func() { s.LiuNianYears = c.years })
	override(config.FlagSource, func() { s.SourceMode = c.source })
	override(config.FlagPath, func() { s.LocalPath = c.path })
	override(config.FlagURL, func() { s.WebURL = c.url })
	override(config.FlagUser, func() { s.WebUser = c.user })
	override(config.FlagPort, func() { s.Port = c.port })
	override(config.FlagInterval, func() { s.RefreshMin = c.interval })

	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

func (c *cli) engine(s config.Settings) (*engine.Engine, error) {
	rules := engine.DefaultRules()
	if s.RulesPath != "" {
		rb, err := engine.LoadRulesFile(s.RulesPath)
		if err != nil {
			return nil, err
		}
		rules = rb
	}
	return &engine.Engine{
		Calendar: lunar.New(),
		Rules:    rules,
		Clock:    c.now,
	}, nil
}

func (c *cli) compute(ctx context.Context, s config.Settings) (*engine.Chart, engine.Birth, error) {
	b, err := engine.ParseBirth(c.date, c.clock, c.gender)
	if err != nil {
		return nil, engine.Birth{}, err
	}
	eng, err := c.engine(s)
	if err != nil {
		return nil, engine.Birth{}, err
	}

	opts := []engine.ChartOption{engine.WithLiuNianYears(s.LiuNianYears)}
	if c.from != 0 {
		opts = append(opts, engine.WithLiuNianFrom(c.from))
	}
	chart, err := eng.ComputeChart(ctx, b, opts...)
	if err != nil {
		return nil, engine.Birth{}, err
	}
	return chart, b, nil
}

func (c *cli) generator(s config.Settings) (*feed.Generator, error) {
	eng, err := c.engine(s)
	if err != nil {
		return nil, err
	}
	return &feed.Generator{
		Clock:    c.now,
		Fetcher:  c.fetcher,
		Charter:  eng,
		Renderer: renderer(report.NewTranslator(s.Language)),
	}, nil
}

// syncConfig assembles the feed source from settings and the OS keyring.
func (c *cli) syncConfig(s config.Settings) feed.SyncConfig {
	cfg := feed.SyncConfig{
		Mode:         s.SourceMode,
		LocalPath:    s.LocalPath,
		WebURL:       s.WebURL,
		WebUser:      s.WebUser,
		LiuNianYears: s.LiuNianYears,
	}

	if cfg.WebUser != "" {
		if p, err := c.keyringGet(config.KeyringService, cfg.WebUser); err == nil {
			cfg.WebPass = p
		} else {
			slog.Debug(config.MsgPassFail,
				config.LogKeyComponent, config.CompMain,
				config.LogKeyUser, cfg.WebUser,
				config.LogKeyError, err)
		}
	}
	return cfg
}

func renderer(tr *report.Translator) feed.Renderer {
	return feed.Renderer{
		FormatDaYun:   tr.DaYunSummary,
		FormatLiuNian: tr.LiuNianSummary,
	}
}
