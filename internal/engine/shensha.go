package engine

import (
	"github.com/tartampluch/go-bazi/internal/ganzhi"
)

// Marker is the name of a Shen Sha, such as "Tianyi Guiren".
type Marker string

// Evaluate returns the markers of every rule that fires against v, in rule
// order. Each rule contributes at most once.
func (rb *RuleBook) Evaluate(v View) []Marker {
	out := []Marker{}
	for i := range rb.ShenSha {
		if rb.ShenSha[i].Fires(v) {
			out = append(out, Marker(rb.ShenSha[i].Marker))
		}
	}
	return out
}

// Officer is one of the twelve day officers (建除十二神).
type Officer int

const (
	Establish Officer = iota // 建
	Remove                   // 除
	Full                     // 满
	Balance                  // 平
	Settle                   // 定
	Hold                     // 执
	Break                    // 破
	Danger                   // 危
	Success                  // 成
	Receive                  // 收
	Open                     // 开
	Close                    // 闭
)

var officerNames = [12]string{
	"establish", "remove", "full", "balance", "settle", "hold",
	"break", "danger", "success", "receive", "open", "close",
}

var officerSymbols = [12]string{"建", "除", "满", "平", "定", "执", "破", "危", "成", "收", "开", "闭"}

func (o Officer) String() string { return officerNames[o%12] }

// Symbol returns the Chinese name.
func (o Officer) Symbol() string { return officerSymbols[o%12] }

// MarshalText implements encoding.TextMarshaler.
func (o Officer) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// DayOfficer returns the officer governing a day: 建 falls on the day whose
// branch equals the month branch, and the officers advance with the day branch.
func DayOfficer(month, day ganzhi.Branch) Officer {
	return Officer(ganzhi.BranchAt(day.Index() - month.Index()).Index())
}

// Trigram is one of the eight trigrams used as compass directions.
type Trigram int

const (
	Kan  Trigram = iota // 坎, north
	Gen                 // 艮, northeast
	Zhen                // 震, east
	Xun                 // 巽, southeast
	Li                  // 离, south
	Kun                 // 坤, southwest
	Dui                 // 兑, west
	Qian                // 乾, northwest
)

var trigramNames = [8]string{"kan", "gen", "zhen", "xun", "li", "kun", "dui", "qian"}
var trigramSymbols = [8]string{"坎", "艮", "震", "巽", "离", "坤", "兑", "乾"}
var trigramCompass = [8]string{"north", "northeast", "east", "southeast", "south", "southwest", "west", "northwest"}

func (t Trigram) String() string { return trigramNames[t%8] }

// Symbol returns the Chinese trigram name.
func (t Trigram) Symbol() string { return trigramSymbols[t%8] }

// Compass returns the direction the trigram stands for.
func (t Trigram) Compass() string { return trigramCompass[t%8] }

// MarshalText implements encoding.TextMarshaler.
func (t Trigram) MarshalText() ([]byte, error) { return []byte(t.Compass()), nil }

// Directions are the favourable directions of a day stem.
type Directions struct {
	Joy     Trigram `json:"joy"`
	Fortune Trigram `json:"fortune"`
	Wealth  Trigram `json:"wealth"`
}

// Indexed by day stem. Joy follows 喜神方位歌, fortune 福神方位歌 and wealth
// 财神方位歌.
var (
	joyDirections     = [ganzhi.StemCount]Trigram{Gen, Qian, Kun, Li, Xun, Gen, Qian, Kun, Li, Xun}
	fortuneDirections = [ganzhi.StemCount]Trigram{Kan, Kun, Qian, Xun, Gen, Kan, Kun, Qian, Xun, Gen}
	wealthDirections  = [ganzhi.StemCount]Trigram{Gen, Gen, Kun, Kun, Kan, Kan, Zhen, Zhen, Li, Li}
)

// DirectionsOf returns the joy, fortune and wealth directions of a day stem.
func DirectionsOf(day ganzhi.Stem) Directions {
	i := day.Index()
	return Directions{
		Joy:     joyDirections[i],
		Fortune: fortuneDirections[i],
		Wealth:  wealthDirections[i],
	}
}

// ShenSha is the marker set of a chart together with the day-derived values
// read alongside it.
type ShenSha struct {
	Markers         []Marker      `json:"markers"`
	Clash           ganzhi.Branch `json:"clash"`
	GoverningSpirit Officer       `json:"governing_spirit"`
	Directions      Directions    `json:"directions"`
}

// EvaluateShenSha applies the rule book to the four pillars.
func EvaluateShenSha(rb *RuleBook, p Pillars) ShenSha {
	return ShenSha{
		Markers:         rb.Evaluate(ChartView(p)),
		Clash:           p.Day.Branch().Clash(),
		GoverningSpirit: DayOfficer(p.Month.Branch(), p.Day.Branch()),
		Directions:      DirectionsOf(p.Day.Stem()),
	}
}
