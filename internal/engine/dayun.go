package engine

import (
	"context"
	"time"

	"github.com/tartampluch/go-bazi/internal/config"
	"github.com/tartampluch/go-bazi/internal/ganzhi"
)

// Direction is the way Da Yun periods step through the cycle.
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Step returns +1 or -1.
func (d Direction) Step() int {
	if d == Backward {
		return -1
	}
	return 1
}

// Term returns the solar term that governs the starting age.
func (d Direction) Term() TermDirection {
	if d == Backward {
		return PreviousTerm
	}
	return NextTerm
}

// DaYunDirection is forward for a yang year and a male, or a yin year and a
// female; backward otherwise.
func DaYunDirection(year ganzhi.Polarity, g Gender) Direction {
	if (year == ganzhi.Yang) == (g == Male) {
		return Forward
	}
	return Backward
}

// StartAge converts the whole civil days between birth and the governing
// solar term at three days per year, truncated, with a floor of one.
func StartAge(birth, term time.Time) int {
	days := civilDays(birth, term)
	if days < 0 {
		days = -days
	}
	return max(config.MinStartAge, days/config.DaysPerFortuneYear)
}

// civilDays counts calendar days from a to b using their wall-clock dates.
func civilDays(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// DaYunPeriod is one decade of the major fortune.
type DaYunPeriod struct {
	Index        int           `json:"index"`
	StartAge     int           `json:"start_age"`
	EndAge       int           `json:"end_age"`
	StartYear    int           `json:"start_year"`
	EndYear      int           `json:"end_year"`
	Pillar       ganzhi.Pillar `json:"pillar"`
	TenGod       ganzhi.TenGod `json:"ten_god"`
	NaYin        string        `json:"na_yin"`
	Score        int           `json:"score"`
	Favorability Favorability  `json:"favorability"`
	Current      bool          `json:"is_current"`
}

// DaYunTable is the full major-fortune projection.
type DaYunTable struct {
	Direction Direction     `json:"direction"`
	StartAge  int           `json:"start_age"`
	StartYear int           `json:"start_year"`
	SolarTerm time.Time     `json:"solar_term"`
	Periods   []DaYunPeriod `json:"periods"`
}

// ProjectDaYun resolves the direction and governing solar term through cal and
// builds the periods from the month pillar.
func ProjectDaYun(ctx context.Context, cal CalendarService, rb *RuleBook, b Birth, p Pillars) (DaYunTable, error) {
	t := b.Time()
	polarity, err := cal.YearStemPolarity(ctx, t)
	if err != nil {
		return DaYunTable{}, calculation(config.ErrYearPolarity, err)
	}
	dir := DaYunDirection(polarity, b.Gender)

	term, err := cal.GoverningSolarTerm(ctx, t, dir.Term())
	if err != nil {
		return DaYunTable{}, calculation(config.ErrSolarTerm, err)
	}
	if term.IsZero() {
		return DaYunTable{}, calculation(config.ErrSolarTerm, ErrNoSolarTerm)
	}

	startAge := StartAge(t, term)
	return DaYunTable{
		Direction: dir,
		StartAge:  startAge,
		StartYear: b.Year + startAge,
		SolarTerm: term,
		Periods:   DaYunPeriods(rb, p, dir, b.Year, startAge),
	}, nil
}

// DaYunPeriods lays out the decades after startAge, stepping the month pillar
// one position per period in dir.
func DaYunPeriods(rb *RuleBook, p Pillars, dir Direction, birthYear, startAge int) []DaYunPeriod {
	periods := make([]DaYunPeriod, config.DaYunPeriods)
	for i := range periods {
		age := startAge + i*config.DaYunSpan
		pillar := p.Month.Add(dir.Step() * (i + 1))
		score := rb.Score(p.Day, pillar)
		periods[i] = DaYunPeriod{
			Index:        i + 1,
			StartAge:     age,
			EndAge:       age + config.DaYunSpan - 1,
			StartYear:    birthYear + age,
			EndYear:      birthYear + age + config.DaYunSpan - 1,
			Pillar:       pillar,
			TenGod:       ganzhi.TenGodOf(p.Day.Stem(), pillar.Stem()),
			NaYin:        pillar.NaYin(),
			Score:        score,
			Favorability: Classify(score),
		}
	}
	return periods
}
