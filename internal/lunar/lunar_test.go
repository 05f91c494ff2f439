package lunar_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/6tail/lunar-go/LunarUtil"
	"github.com/6tail/lunar-go/calendar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-bazi/internal/config"
	"github.com/tartampluch/go-bazi/internal/engine"
	"github.com/tartampluch/go-bazi/internal/ganzhi"
	"github.com/tartampluch/go-bazi/internal/lunar"
)

func at(y, m, d, h, mi int) time.Time {
	return time.Date(y, time.Month(m), d, h, mi, 0, 0, time.UTC)
}

func pillarsString(t *testing.T, lp engine.LunarPillars) [3]string {
	t.Helper()
	y, err := ganzhi.NewPillar(lp.YearStem, lp.YearBranch)
	require.NoError(t, err)
	m, err := ganzhi.NewPillar(lp.MonthStem, lp.MonthBranch)
	require.NoError(t, err)
	d, err := ganzhi.NewPillar(lp.DayStem, lp.DayBranch)
	require.NoError(t, err)
	return [3]string{y.String(), m.String(), d.String()}
}

func TestLunarPillars(t *testing.T) {
	cal := lunar.New()
	ctx := context.Background()

	tests := []struct {
		name string
		at   time.Time
		want [3]string
	}{
		{"before li chun", at(1990, 1, 15, 12, 0), [3]string{"己巳", "丁丑", "庚辰"}},
		{"late rat hour rolls the day", at(1990, 1, 15, 23, 30), [3]string{"己巳", "丁丑", "辛巳"}},
		{"reference day", at(2000, 1, 1, 12, 0), [3]string{"己卯", "丙子", "戊午"}},
		{"after li chun", at(2024, 2, 10, 12, 0), [3]string{"甲辰", "丙寅", "甲辰"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lp, err := cal.LunarPillars(ctx, tt.at)
			require.NoError(t, err)
			assert.Equal(t, tt.want, pillarsString(t, lp))
		})
	}
}

func TestLunarPillars_PengZu(t *testing.T) {
	cal := lunar.New()
	ctx := context.Background()

	lp, err := cal.LunarPillars(ctx, at(1990, 1, 15, 12, 0))
	require.NoError(t, err)
	assert.Equal(t, engine.PengZu{Stem: "庚不经络织机虚张", Branch: "辰不哭泣必主重丧"}, lp.PengZu)

	// Matches the library before 23:00.
	l := calendar.NewSolar(1990, 1, 15, 12, 0, 0).GetLunar()
	assert.Equal(t, l.GetPengZuGan(), lp.PengZu.Stem)
	assert.Equal(t, l.GetPengZuZhi(), lp.PengZu.Branch)

	// The late rat hour belongs to the next day.
	lp, err = cal.LunarPillars(ctx, at(1990, 1, 15, 23, 30))
	require.NoError(t, err)
	assert.Equal(t, engine.PengZu{Stem: "辛不合酱主人不尝", Branch: "巳不远行财物伏藏"}, lp.PengZu)
}

func TestCalendar_LogsResolution(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer slog.SetDefault(prev)

	cal := lunar.New()
	ctx := context.Background()
	_, err := cal.LunarPillars(ctx, at(1990, 1, 15, 12, 0))
	require.NoError(t, err)
	_, err = cal.GoverningSolarTerm(ctx, at(1990, 1, 15, 12, 0), engine.NextTerm)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, config.MsgLunarResolved)
	assert.Contains(t, out, config.MsgTermResolved)
	assert.Contains(t, out, config.CompLunar)
}

// The engine's direction tables agree with the almanac tables shipped by the
// library.
func TestDirections_MatchAlmanac(t *testing.T) {
	for i := 0; i < ganzhi.StemCount; i++ {
		s := ganzhi.StemAt(i)
		d := engine.DirectionsOf(s)
		assert.Equal(t, LunarUtil.POSITION_XI[i+1], d.Joy.Symbol(), "joy %s", s)
		assert.Equal(t, LunarUtil.POSITION_FU_2[i+1], d.Fortune.Symbol(), "fortune %s", s)
		assert.Equal(t, LunarUtil.POSITION_CAI[i+1], d.Wealth.Symbol(), "wealth %s", s)
	}
}

func TestGoverningSolarTerm(t *testing.T) {
	cal := lunar.New()
	ctx := context.Background()
	birth := at(1990, 1, 15, 12, 0)

	prev, err := cal.GoverningSolarTerm(ctx, birth, engine.PreviousTerm)
	require.NoError(t, err)
	assert.Equal(t, at(1990, 1, 5, 0, 0), at(prev.Year(), int(prev.Month()), prev.Day(), 0, 0), "小寒")

	next, err := cal.GoverningSolarTerm(ctx, birth, engine.NextTerm)
	require.NoError(t, err)
	assert.Equal(t, at(1990, 2, 4, 0, 0), at(next.Year(), int(next.Month()), next.Day(), 0, 0), "立春")

	assert.True(t, prev.Before(birth))
	assert.True(t, next.After(birth))
}

func TestYearStemPolarity(t *testing.T) {
	cal := lunar.New()
	ctx := context.Background()

	p, err := cal.YearStemPolarity(ctx, at(1990, 1, 15, 12, 0))
	require.NoError(t, err)
	assert.Equal(t, ganzhi.Yin, p, "己巳 until 立春")

	p, err = cal.YearStemPolarity(ctx, at(1990, 6, 1, 12, 0))
	require.NoError(t, err)
	assert.Equal(t, ganzhi.Yang, p, "庚午")
}

func TestCalendar_Errors(t *testing.T) {
	cal := lunar.New()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := cal.LunarPillars(ctx, at(1990, 1, 15, 12, 0))
	assert.ErrorIs(t, err, context.Canceled)

	_, err = cal.GoverningSolarTerm(context.Background(), at(1800, 1, 1, 0, 0), engine.NextTerm)
	assert.Error(t, err)
}

func TestCalendar_EndToEnd(t *testing.T) {
	e := &engine.Engine{
		Calendar: lunar.New(),
		Clock:    engine.FixedClock(at(2026, 10, 16, 0, 0)),
	}
	b := engine.Birth{Year: 1990, Month: 1, Day: 15, Hour: 12, Gender: engine.Male}

	chart, err := e.ComputeChart(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, "壬午", chart.Pillars.Hour.String())
	assert.Equal(t, engine.Backward, chart.DaYun.Direction)
	assert.Equal(t, 3, chart.DaYun.StartAge)
	assert.Equal(t, "丙子", chart.DaYun.Periods[0].Pillar.String())
}
