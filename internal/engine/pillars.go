package engine

import (
	"fmt"

	"github.com/tartampluch/go-bazi/internal/config"
	"github.com/tartampluch/go-bazi/internal/ganzhi"
)

// Pillars are the four stem-branch pairs of a chart.
type Pillars struct {
	Year  ganzhi.Pillar `json:"year"`
	Month ganzhi.Pillar `json:"month"`
	Day   ganzhi.Pillar `json:"day"`
	Hour  ganzhi.Pillar `json:"hour"`
}

// All returns the pillars in year, month, day, hour order.
func (p Pillars) All() [4]ganzhi.Pillar {
	return [4]ganzhi.Pillar{p.Year, p.Month, p.Day, p.Hour}
}

// ziHourStart is the stem of the 子 hour for each day stem modulo 5
// (甲己 → 甲, 乙庚 → 丙, 丙辛 → 戊, 丁壬 → 庚, 戊癸 → 壬).
var ziHourStart = [5]ganzhi.Stem{ganzhi.Jia, ganzhi.Bing, ganzhi.Wu, ganzhi.Geng, ganzhi.Ren}

// HourBranch maps a clock hour 0-23 to its two-hour branch. 23:00 belongs to
// the 子 hour of the following day.
func HourBranch(hour int) ganzhi.Branch {
	return ganzhi.BranchAt((hour + 1) / 2)
}

// ZiHourStem returns the stem that opens the day's 子 hour.
func ZiHourStem(day ganzhi.Stem) ganzhi.Stem {
	return ziHourStart[day.Index()%5]
}

// HourPillar derives the hour pillar from the day stem and the clock hour.
// The day stem must already reflect the 23:00 rollover.
func HourPillar(day ganzhi.Stem, hour int) (ganzhi.Pillar, error) {
	b := HourBranch(hour)
	s := ganzhi.StemAt(ZiHourStem(day).Index() + b.Index())
	return ganzhi.NewPillar(s, b)
}

// CalculatePillars validates the year, month and day pairs supplied by the
// calendar service and derives the hour pillar.
func CalculatePillars(lp LunarPillars, hour int) (Pillars, error) {
	var (
		p   Pillars
		err error
	)
	if p.Year, err = positioned("year", lp.YearStem, lp.YearBranch); err != nil {
		return Pillars{}, err
	}
	if p.Month, err = positioned("month", lp.MonthStem, lp.MonthBranch); err != nil {
		return Pillars{}, err
	}
	if p.Day, err = positioned("day", lp.DayStem, lp.DayBranch); err != nil {
		return Pillars{}, err
	}
	if p.Hour, err = HourPillar(p.Day.Stem(), hour); err != nil {
		return Pillars{}, fmt.Errorf("%s: hour: %w", config.ErrInvalidPillar, err)
	}
	return p, nil
}

func positioned(name string, s ganzhi.Stem, b ganzhi.Branch) (ganzhi.Pillar, error) {
	p, err := ganzhi.NewPillar(s, b)
	if err != nil {
		return ganzhi.Pillar{}, fmt.Errorf("%s: %s: %w", config.ErrInvalidPillar, name, err)
	}
	return p, nil
}
