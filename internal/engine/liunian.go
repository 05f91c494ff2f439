package engine

import (
	"strconv"

	"github.com/tartampluch/go-bazi/internal/config"
	"github.com/tartampluch/go-bazi/internal/ganzhi"
)

// Favorability is the Ji Xiong label of an auspice score.
type Favorability string

const (
	Excellent   Favorability = "excellent"
	Good        Favorability = "good"
	Neutral     Favorability = "neutral"
	Unfavorable Favorability = "unfavorable"
)

// Classify maps a score to its label: 3 or more is excellent, 2 good,
// 1 neutral, anything lower unfavorable.
func Classify(score int) Favorability {
	switch {
	case score >= 3:
		return Excellent
	case score == 2:
		return Good
	case score == 1:
		return Neutral
	default:
		return Unfavorable
	}
}

// SuiYun holds the year pillar (太岁) with its 太阴 and 太阳 branches.
type SuiYun struct {
	TaiSui  ganzhi.Pillar `json:"tai_sui"`
	TaiYin  ganzhi.Branch `json:"tai_yin"`
	TaiYang ganzhi.Branch `json:"tai_yang"`
}

// SuiYunOf mirrors the year branch for 太阴 (子 to 亥) and moves it five
// places forward for 太阳 (子 to 巳).
func SuiYunOf(year ganzhi.Pillar) SuiYun {
	b := year.Branch().Index()
	return SuiYun{
		TaiSui:  year,
		TaiYin:  ganzhi.BranchAt(ganzhi.BranchCount - 1 - b),
		TaiYang: ganzhi.BranchAt(b + 5),
	}
}

// DaYunLink relates a year to the Da Yun period covering it. The stem
// relation is the ten god of the year stem seen from the period stem.
type DaYunLink struct {
	Period         int           `json:"period"`
	Pillar         ganzhi.Pillar `json:"pillar"`
	StemRelation   ganzhi.TenGod `json:"stem_relation"`
	BranchRelation Relation      `json:"branch_relation"`
}

// LiuNianYear is one projected year.
type LiuNianYear struct {
	Year         int           `json:"year"`
	Age          int           `json:"age"`
	Pillar       ganzhi.Pillar `json:"pillar"`
	TenGod       ganzhi.TenGod `json:"ten_god"`
	NaYin        string        `json:"na_yin"`
	Zodiac       string        `json:"zodiac"`
	Score        int           `json:"score"`
	Favorability Favorability  `json:"favorability"`
	Markers      []Marker      `json:"markers"`
	SuiYun       SuiYun        `json:"sui_yun"`
	DaYun        *DaYunLink    `json:"da_yun,omitempty"` // nil before the first period
	Current      bool          `json:"is_current"`
}

// ProjectLiuNian projects years consecutive years starting at from. Year
// pillars step from the birth year's label, and the age is nominal: the birth
// year counts as age 1.
func ProjectLiuNian(rb *RuleBook, day ganzhi.Pillar, birthYear, from, years int) ([]LiuNianYear, error) {
	if years < config.MinLiuNianYears || years > config.MaxLiuNianYears {
		return nil, invalidInput("years", strconv.Itoa(years), config.ErrLiuNianWindow)
	}
	if from < birthYear {
		return nil, invalidInput("from", strconv.Itoa(from), config.ErrLiuNianWindow)
	}

	base := ganzhi.YearPillar(birthYear)
	out := make([]LiuNianYear, years)
	for i := range out {
		y := from + i
		offset := y - birthYear
		pillar := base.Add(offset)
		score := rb.Score(day, pillar)
		out[i] = LiuNianYear{
			Year:         y,
			Age:          offset + 1,
			Pillar:       pillar,
			TenGod:       ganzhi.TenGodOf(day.Stem(), pillar.Stem()),
			NaYin:        pillar.NaYin(),
			Zodiac:       pillar.Branch().Zodiac(),
			Score:        score,
			Favorability: Classify(score),
			Markers:      rb.Evaluate(YearView(pillar)),
			SuiYun:       SuiYunOf(pillar),
		}
	}
	return out, nil
}

// LinkDaYun attaches to each year the period whose years cover it.
func LinkDaYun(rb *RuleBook, years []LiuNianYear, periods []DaYunPeriod) {
	for i := range years {
		y := &years[i]
		for _, p := range periods {
			if y.Year < p.StartYear || y.Year > p.EndYear {
				continue
			}
			y.DaYun = &DaYunLink{
				Period:         p.Index,
				Pillar:         p.Pillar,
				StemRelation:   ganzhi.TenGodOf(p.Pillar.Stem(), y.Pillar.Stem()),
				BranchRelation: rb.BranchRelation(p.Pillar.Branch(), y.Pillar.Branch()),
			}
			break
		}
	}
}

// MarkCurrent flags the period and the Liu Nian entry that contain year.
func MarkCurrent(periods []DaYunPeriod, years []LiuNianYear, year int) {
	for i := range periods {
		periods[i].Current = periods[i].StartYear <= year && year <= periods[i].EndYear
	}
	for i := range years {
		years[i].Current = years[i].Year == year
	}
}
