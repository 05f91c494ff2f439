// Package lunar implements engine.CalendarService on top of the lunar-go
// almanac library. Solar terms are computed in China Standard Time; moments
// are passed through as wall-clock fields.
package lunar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/6tail/lunar-go/LunarUtil"
	"github.com/6tail/lunar-go/calendar"
	"github.com/tartampluch/go-bazi/internal/config"
	"github.com/tartampluch/go-bazi/internal/engine"
	"github.com/tartampluch/go-bazi/internal/ganzhi"
)

// Calendar is stateless and safe for concurrent use.
type Calendar struct{}

// New returns a Calendar.
func New() *Calendar { return &Calendar{} }

var _ engine.CalendarService = (*Calendar)(nil)

// LunarPillars returns the exact year (Li Chun), month (Jie terms) and day
// (23:00 rollover) stems and branches of t, with the PengZu taboos of that day.
func (c *Calendar) LunarPillars(ctx context.Context, t time.Time) (engine.LunarPillars, error) {
	l, err := lunarOf(ctx, t)
	if err != nil {
		return engine.LunarPillars{}, err
	}

	var (
		lp   engine.LunarPillars
		errs [6]error
	)
	lp.YearStem, errs[0] = ganzhi.ParseStem(l.GetYearGanExact())
	lp.YearBranch, errs[1] = ganzhi.ParseBranch(l.GetYearZhiExact())
	lp.MonthStem, errs[2] = ganzhi.ParseStem(l.GetMonthGanExact())
	lp.MonthBranch, errs[3] = ganzhi.ParseBranch(l.GetMonthZhiExact())
	lp.DayStem, errs[4] = ganzhi.ParseStem(l.GetDayGanExact())
	lp.DayBranch, errs[5] = ganzhi.ParseBranch(l.GetDayZhiExact())
	for _, err := range errs {
		if err != nil {
			return engine.LunarPillars{}, fmt.Errorf("%s: %w", config.ErrLunarPillars, err)
		}
	}
	// The library's own PengZu getters follow the midnight day; index by the
	// 23:00 day instead. Both tables start with a blank entry.
	lp.PengZu = engine.PengZu{
		Stem:   LunarUtil.PENGZU_GAN[lp.DayStem.Index()+1],
		Branch: LunarUtil.PENGZU_ZHI[lp.DayBranch.Index()+1],
	}

	slog.DebugContext(ctx, config.MsgLunarResolved,
		config.LogKeyComponent, config.CompLunar,
		config.LogKeyDOB, t.Format(config.DateFormatDashTMin),
		config.LogKeyPillars, l.GetYearInGanZhiExact()+" "+l.GetMonthInGanZhiExact()+" "+l.GetDayInGanZhiExact(),
	)
	return lp, nil
}

// GoverningSolarTerm returns the previous or next Jie term around t.
func (c *Calendar) GoverningSolarTerm(ctx context.Context, t time.Time, dir engine.TermDirection) (time.Time, error) {
	l, err := lunarOf(ctx, t)
	if err != nil {
		return time.Time{}, err
	}

	jq := l.GetNextJie()
	if dir == engine.PreviousTerm {
		jq = l.GetPrevJie()
	}
	if jq == nil || jq.GetSolar() == nil {
		return time.Time{}, fmt.Errorf("%s: %s of %s", config.ErrSolarTerm, dir, t.Format(config.DateFormatDashTMin))
	}

	s := jq.GetSolar()
	term := time.Date(s.GetYear(), time.Month(s.GetMonth()), s.GetDay(), s.GetHour(), s.GetMinute(), s.GetSecond(), 0, time.UTC)
	slog.DebugContext(ctx, config.MsgTermResolved,
		config.LogKeyComponent, config.CompLunar,
		config.LogKeyName, jq.GetName(),
		config.LogKeyDirection, dir.String(),
		config.LogKeyValue, term.Format(config.DateFormatDashTMin),
	)
	return term, nil
}

// YearStemPolarity returns the polarity of the exact year stem of t.
func (c *Calendar) YearStemPolarity(ctx context.Context, t time.Time) (ganzhi.Polarity, error) {
	l, err := lunarOf(ctx, t)
	if err != nil {
		return 0, err
	}
	s, err := ganzhi.ParseStem(l.GetYearGanExact())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", config.ErrYearPolarity, err)
	}
	return s.Polarity(), nil
}

// lunarOf converts the wall-clock fields of t. The library panics on dates it
// cannot tabulate; that is reported as an error.
func lunarOf(ctx context.Context, t time.Time) (l *calendar.Lunar, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t.Year() < config.MinBirthYear || t.Year() > config.MaxBirthYear {
		return nil, fmt.Errorf("%s: year %d", config.ErrOutOfRange, t.Year())
	}
	defer func() {
		if r := recover(); r != nil {
			l, err = nil, fmt.Errorf("%s: %v", config.ErrLunarPillars, r)
		}
	}()
	solar := calendar.NewSolar(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
	return solar.GetLunar(), nil
}
