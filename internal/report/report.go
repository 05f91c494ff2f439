// Package report renders charts for people: a localized plain-text report
// and the localized event summaries of the iCalendar feed.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/tartampluch/go-bazi/internal/config"
	"github.com/tartampluch/go-bazi/internal/engine"
	"github.com/tartampluch/go-bazi/internal/ganzhi"
)

const dash = "-"

// WriteChart prints c as a plain-text report.
func (t *Translator) WriteChart(w io.Writer, c *engine.Chart) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "%s\n\n", t.Msg(config.TKeyReportTitle))
	fmt.Fprintf(tw, "%s:\t%s\n", t.Msg(config.TKeyLblBirth),
		fmt.Sprintf("%04d-%02d-%02d %02d:%02d", c.Birth.Year, c.Birth.Month, c.Birth.Day, c.Birth.Hour, c.Birth.Minute))
	fmt.Fprintf(tw, "%s:\t%s\n", t.Msg(config.TKeyLblGender), t.Gender(c.Birth.Gender))
	fmt.Fprintf(tw, "%s:\t%s\n\n", t.Msg(config.TKeyLblZodiac), t.Term(config.TKeyPrefixZodiac, c.Zodiac))

	// Pillars, ten gods and na yin share the same four columns.
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.Msg(config.TKeyLblPillars),
		t.Msg(config.TKeyLblYear), t.Msg(config.TKeyLblMonth), t.Msg(config.TKeyLblDay), t.Msg(config.TKeyLblHour))
	p := c.Pillars
	fmt.Fprintf(tw, "\t%s\t%s\t%s\t%s\n", p.Year, p.Month, p.Day, p.Hour)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.Msg(config.TKeyColTenGod),
		t.TenGod(c.TenGods.Year), t.TenGod(c.TenGods.Month), dash, t.TenGod(c.TenGods.Hour))
	fmt.Fprintf(tw, "\t%s\t%s\t%s\t%s\n", c.NaYin.Year, c.NaYin.Month, c.NaYin.Day, c.NaYin.Hour)
	st := c.Strength
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n\n", t.Msg(config.TKeyLblWangShuai),
		t.Strength(st.Year), t.Strength(st.Month), t.Strength(st.Day), t.Strength(st.Hour))

	counts := make([]string, 0, len(ganzhi.Elements))
	for _, e := range ganzhi.Elements {
		counts = append(counts, fmt.Sprintf("%s %d", t.Element(e), c.Elements.Count(e)))
	}
	fmt.Fprintf(tw, "%s:\t%s\n", t.Msg(config.TKeyLblElements), strings.Join(counts, "  "))

	markers := make([]string, len(c.ShenSha.Markers))
	for i, m := range c.ShenSha.Markers {
		markers[i] = t.Marker(m)
	}
	fmt.Fprintf(tw, "%s:\t%s\n", t.Msg(config.TKeyLblShenSha), t.list(markers))
	clash := c.ShenSha.Clash
	fmt.Fprintf(tw, "%s:\t%s %s\n", t.Msg(config.TKeyLblClash), clash, t.Term(config.TKeyPrefixZodiac, clash.Zodiac()))
	fmt.Fprintf(tw, "%s:\t%s %s\n", t.Msg(config.TKeyLblSpirit),
		c.ShenSha.GoverningSpirit.Symbol(), t.Term(config.TKeyPrefixOfficer, c.ShenSha.GoverningSpirit.String()))
	d := c.ShenSha.Directions
	fmt.Fprintf(tw, "%s:\t%s %s  %s %s  %s %s\n", t.Msg(config.TKeyLblDirections),
		t.Msg(config.TKeyLblJoy), t.Trigram(d.Joy),
		t.Msg(config.TKeyLblFortune), t.Trigram(d.Fortune),
		t.Msg(config.TKeyLblWealth), t.Trigram(d.Wealth))
	var taboos []string
	for _, v := range []string{c.PengZu.Stem, c.PengZu.Branch} {
		if v != "" {
			taboos = append(taboos, v)
		}
	}
	fmt.Fprintf(tw, "%s:\t%s\n\n", t.Msg(config.TKeyLblPengZu), t.list(taboos))

	dy := c.DaYun
	fmt.Fprintf(tw, "%s\n", t.Msg(config.TKeyLblDaYun))
	fmt.Fprintf(tw, "%s\n", t.Msgf(config.TKeyLblDaYunStart, map[string]any{
		"Age":       dy.StartAge,
		"Year":      dy.StartYear,
		"Direction": t.Direction(dy.Direction),
	}))
	fmt.Fprintf(tw, "#\t%s\t%s\t%s\t%s\t%s\n", t.Msg(config.TKeyColAges), t.Msg(config.TKeyColYears),
		t.Msg(config.TKeyColPillar), t.Msg(config.TKeyColTenGod), t.Msg(config.TKeyColFavorability))
	for _, pr := range dy.Periods {
		fmt.Fprintf(tw, "%d%s\t%d-%d\t%d-%d\t%s %s\t%s\t%s\n", pr.Index, mark(pr.Current), pr.StartAge, pr.EndAge,
			pr.StartYear, pr.EndYear, pr.Pillar, pr.NaYin, t.TenGod(pr.TenGod), t.Favorability(pr.Favorability))
	}

	fmt.Fprintf(tw, "\n%s\n", t.Msg(config.TKeyLblLiuNian))
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", t.Msg(config.TKeyLblYear), t.Msg(config.TKeyColAge),
		t.Msg(config.TKeyColPillar), t.Msg(config.TKeyColTenGod), t.Msg(config.TKeyColFavorability),
		t.Msg(config.TKeyColDaYunLink), t.Msg(config.TKeyColMarkers))
	for _, y := range c.LiuNian {
		ym := make([]string, len(y.Markers))
		for i, m := range y.Markers {
			ym[i] = t.Marker(m)
		}
		fmt.Fprintf(tw, "%d%s\t%d\t%s %s\t%s\t%s\t%s\t%s\n", y.Year, mark(y.Current), y.Age, y.Pillar, y.NaYin,
			t.TenGod(y.TenGod), t.Favorability(y.Favorability), t.daYunLink(y.DaYun), t.list(ym))
		fmt.Fprintf(tw, "\t\t%s\n", t.SuiYun(y.SuiYun))
	}

	return tw.Flush()
}

// DaYunSummary is the feed event title of a Da Yun period.
func (t *Translator) DaYunSummary(name string, p engine.DaYunPeriod) string {
	return t.Msgf(config.TKeyEvtDaYun, map[string]any{
		"Name":   name,
		"Index":  p.Index,
		"Pillar": p.Pillar.String(),
	})
}

// LiuNianSummary is the feed event title of a Liu Nian year.
func (t *Translator) LiuNianSummary(name string, y engine.LiuNianYear) string {
	return t.Msgf(config.TKeyEvtLiuNian, map[string]any{
		"Name":   name,
		"Pillar": y.Pillar.String(),
		"Age":    y.Age,
	})
}

// SuiYun names the 太阴 and 太阳 branches of a year.
func (t *Translator) SuiYun(s engine.SuiYun) string {
	return t.Msgf(config.TKeyColSuiYun, map[string]any{
		"Yin":  s.TaiYin.String(),
		"Yang": s.TaiYang.String(),
	})
}

func (t *Translator) daYunLink(l *engine.DaYunLink) string {
	if l == nil {
		return dash
	}
	return fmt.Sprintf("%s %s %s", l.Pillar, t.TenGod(l.StemRelation), t.Relation(l.BranchRelation))
}

func mark(current bool) string {
	if current {
		return config.CurrentMark
	}
	return ""
}

func (t *Translator) Strength(s ganzhi.Strength) string {
	return t.Term(config.TKeyPrefixStrength, s.String())
}

func (t *Translator) Relation(r engine.Relation) string {
	return t.Term(config.TKeyPrefixRelation, string(r))
}

func (t *Translator) Marker(m engine.Marker) string {
	return t.Term(config.TKeyPrefixMarker, string(m))
}

func (t *Translator) Element(e ganzhi.Element) string {
	return t.Term(config.TKeyPrefixElement, e.String())
}

func (t *Translator) TenGod(g ganzhi.TenGod) string {
	return t.Term(config.TKeyPrefixTenGod, g.String())
}

func (t *Translator) Trigram(tg engine.Trigram) string {
	return t.Term(config.TKeyPrefixTrigram, tg.String())
}

func (t *Translator) Favorability(f engine.Favorability) string {
	return t.Term(config.TKeyPrefixFav, string(f))
}

func (t *Translator) Gender(g engine.Gender) string {
	if g == engine.Female {
		return t.Msg(config.TKeyGenderFemale)
	}
	return t.Msg(config.TKeyGenderMale)
}

func (t *Translator) Direction(d engine.Direction) string {
	if d == engine.Backward {
		return t.Msg(config.TKeyDirBackward)
	}
	return t.Msg(config.TKeyDirForward)
}

func (t *Translator) list(items []string) string {
	if len(items) == 0 {
		return t.Msg(config.TKeyLblNone)
	}
	return strings.Join(items, ", ")
}
