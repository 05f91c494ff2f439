package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tartampluch/go-bazi/internal/config"
	"github.com/tartampluch/go-bazi/internal/ganzhi"
)

// TenGods relates the year, month and hour stems to the day master.
type TenGods struct {
	Year  ganzhi.TenGod `json:"year"`
	Month ganzhi.TenGod `json:"month"`
	Hour  ganzhi.TenGod `json:"hour"`
}

// NaYin holds the melodic element of each pillar.
type NaYin struct {
	Year  string `json:"year"`
	Month string `json:"month"`
	Day   string `json:"day"`
	Hour  string `json:"hour"`
}

// Strength holds the state (旺相休死囚) of the day master in each pillar's
// branch.
type Strength struct {
	Year  ganzhi.Strength `json:"year"`
	Month ganzhi.Strength `json:"month"`
	Day   ganzhi.Strength `json:"day"`
	Hour  ganzhi.Strength `json:"hour"`
}

// Chart is the complete reading for one birth. A Chart is built once by
// Engine.ComputeChart and never modified afterwards.
type Chart struct {
	Birth    Birth            `json:"birth"`
	Pillars  Pillars          `json:"pillars"`
	Elements FiveElementTally `json:"five_elements"`
	TenGods  TenGods          `json:"ten_gods"`
	NaYin    NaYin            `json:"na_yin"`
	Strength Strength         `json:"wang_shuai"`
	Zodiac   string           `json:"zodiac"`
	PengZu   PengZu           `json:"peng_zu"`
	ShenSha  ShenSha          `json:"shen_sha"`
	DaYun    DaYunTable       `json:"da_yun"`
	LiuNian  []LiuNianYear    `json:"liu_nian"`
}

// ChartOption adjusts a single ComputeChart call.
type ChartOption func(*chartOptions)

type chartOptions struct {
	from  int
	years int
}

// WithLiuNianFrom anchors the Liu Nian window at year instead of the current
// year.
func WithLiuNianFrom(year int) ChartOption {
	return func(o *chartOptions) { o.from = year }
}

// WithLiuNianYears sets the length of the Liu Nian window.
func WithLiuNianYears(n int) ChartOption {
	return func(o *chartOptions) { o.years = n }
}

// Engine computes charts. It holds only read-only collaborators and is safe
// for concurrent use.
type Engine struct {
	Calendar CalendarService // Required.
	Rules    *RuleBook       // Defaults to DefaultRules().
	Clock    Clock           // Defaults to RealClock; anchors open Liu Nian windows and current flags.
}

// ComputeChart validates the birth, then runs pillar calculation, element
// tally, Shen Sha, Da Yun and Liu Nian in order. It returns either a complete
// chart or the first error; it never returns a partial chart.
//
// Errors are *InvalidInputError, a wrapped *InvalidPillarError, or
// *CalculationError.
func (e *Engine) ComputeChart(ctx context.Context, b Birth, opts ...ChartOption) (*Chart, error) {
	start := time.Now()

	if err := b.Validate(); err != nil {
		return nil, err
	}
	o := chartOptions{years: config.DefaultLiuNianYears}
	for _, opt := range opts {
		opt(&o)
	}
	if e.Calendar == nil {
		return nil, errors.New(config.ErrCalendarMissing)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lp, err := e.Calendar.LunarPillars(ctx, b.Time())
	if err != nil {
		return nil, calculation(config.ErrLunarPillars, err)
	}
	p, err := CalculatePillars(lp, b.Hour)
	if err != nil {
		return nil, err
	}

	rules := e.rules()
	dayun, err := ProjectDaYun(ctx, e.Calendar, rules, b, p)
	if err != nil {
		return nil, err
	}

	now := e.clock().Now().Year()
	from := o.from
	if from == 0 {
		from = max(b.Year, now)
	}
	liunian, err := ProjectLiuNian(rules, p.Day, b.Year, from, o.years)
	if err != nil {
		return nil, err
	}
	LinkDaYun(rules, liunian, dayun.Periods)
	MarkCurrent(dayun.Periods, liunian, now)

	day := p.Day.Stem()
	chart := &Chart{
		Birth:    b,
		Pillars:  p,
		Elements: TallyElements(p),
		TenGods: TenGods{
			Year:  ganzhi.TenGodOf(day, p.Year.Stem()),
			Month: ganzhi.TenGodOf(day, p.Month.Stem()),
			Hour:  ganzhi.TenGodOf(day, p.Hour.Stem()),
		},
		NaYin: NaYin{
			Year:  p.Year.NaYin(),
			Month: p.Month.NaYin(),
			Day:   p.Day.NaYin(),
			Hour:  p.Hour.NaYin(),
		},
		Strength: Strength{
			Year:  ganzhi.StrengthOf(day, p.Year.Branch()),
			Month: ganzhi.StrengthOf(day, p.Month.Branch()),
			Day:   ganzhi.StrengthOf(day, p.Day.Branch()),
			Hour:  ganzhi.StrengthOf(day, p.Hour.Branch()),
		},
		Zodiac:  p.Year.Branch().Zodiac(),
		PengZu:  lp.PengZu,
		ShenSha: EvaluateShenSha(rules, p),
		DaYun:   dayun,
		LiuNian: liunian,
	}

	slog.DebugContext(ctx, config.MsgChartComputed,
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyPillars, p.Year.String()+" "+p.Month.String()+" "+p.Day.String()+" "+p.Hour.String(),
		config.LogKeyDirection, dayun.Direction.String(),
		config.LogKeyStartAge, dayun.StartAge,
		config.LogKeyDuration, time.Since(start).Milliseconds(),
	)
	return chart, nil
}

func (e *Engine) rules() *RuleBook {
	if e.Rules != nil {
		return e.Rules
	}
	return DefaultRules()
}

func (e *Engine) clock() Clock {
	if e.Clock != nil {
		return e.Clock
	}
	return RealClock{}
}
