package engine

import (
	"context"
	"time"

	"github.com/tartampluch/go-bazi/internal/ganzhi"
)

// TermDirection selects which solar-term boundary GoverningSolarTerm returns.
type TermDirection int

const (
	// NextTerm is the first boundary strictly after the moment.
	NextTerm TermDirection = iota
	// PreviousTerm is the last boundary at or before the moment.
	PreviousTerm
)

func (d TermDirection) String() string {
	if d == PreviousTerm {
		return "previous"
	}
	return "next"
}

// PengZu holds the 彭祖百忌 taboos of the day stem and day branch.
type PengZu struct {
	Stem   string `json:"stem"`
	Branch string `json:"branch"`
}

// LunarPillars carries the year, month and day stems and branches resolved by
// a CalendarService. The values are raw: the engine validates them.
type LunarPillars struct {
	YearStem    ganzhi.Stem
	YearBranch  ganzhi.Branch
	MonthStem   ganzhi.Stem
	MonthBranch ganzhi.Branch
	DayStem     ganzhi.Stem
	DayBranch   ganzhi.Branch
	PengZu      PengZu // almanac text for the day; empty when unknown
}

// CalendarService supplies the astronomical and calendrical primitives the
// engine does not compute itself. The moment passed in is a civil wall-clock
// time: implementations read its year, month, day, hour and minute fields and
// ignore its location.
//
// The year pillar changes at Li Chun, month pillars follow the twelve Jie
// terms, and the day pillar rolls over at 23:00.
type CalendarService interface {
	LunarPillars(ctx context.Context, t time.Time) (LunarPillars, error)
	GoverningSolarTerm(ctx context.Context, t time.Time, dir TermDirection) (time.Time, error)
	YearStemPolarity(ctx context.Context, t time.Time) (ganzhi.Polarity, error)
}
