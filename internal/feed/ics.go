package feed

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/tartampluch/go-bazi/internal/config"
	"github.com/tartampluch/go-bazi/internal/engine"
)

// ProfileChart pairs a profile with its computed chart.
type ProfileChart struct {
	Profile Profile
	Chart   *engine.Chart
}

// Renderer turns charts into an iCalendar feed: one all-day event per Da Yun
// period and per Liu Nian year, dated on the birthday anniversary of the
// first year concerned.
type Renderer struct {
	// FormatDaYun and FormatLiuNian inject localized summaries. Nil falls back
	// to an English summary.
	FormatDaYun   func(name string, p engine.DaYunPeriod) string
	FormatLiuNian func(name string, y engine.LiuNianYear) string
}

// Render encodes charts as a VCALENDAR stamped with now. Without events it
// returns config.StubVCalendar so clients still see a valid feed.
func (r Renderer) Render(now time.Time, charts []ProfileChart) ([]byte, error) {
	cal := ical.NewCalendar()

	// Set standard iCalendar headers
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, config.ICalCalName)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	// RFC 7986: Suggest a refresh interval
	refreshProp := ical.NewProp(config.PropRefresh)
	refreshProp.SetDuration(config.DefaultICalRefresh)
	cal.Props.Set(refreshProp)

	dtStampProp := ical.NewProp(config.PropDTStamp)
	dtStampProp.SetDateTime(now.UTC())

	for _, pc := range charts {
		for _, e := range r.events(pc) {
			e.Props.Set(dtStampProp)
			cal.Children = append(cal.Children, e.Component)
		}
	}

	if len(cal.Children) == 0 {
		return []byte(config.StubVCalendar), nil
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}
	return buf.Bytes(), nil
}

func (r Renderer) events(pc ProfileChart) []*ical.Event {
	name, birth, c := pc.Profile.Name, pc.Profile.Birth, pc.Chart
	uidBase := pc.Profile.UID
	if uidBase == "" {
		uidBase = NewProfile(name, birth, false).UID
	}
	var note string
	if !pc.Profile.TimeKnown {
		note = config.DescHourUnknown
	}

	events := make([]*ical.Event, 0, len(c.DaYun.Periods)+len(c.LiuNian))
	for _, p := range c.DaYun.Periods {
		summary := fmt.Sprintf(config.FallbackSummaryDaYun, name, p.Index, p.Pillar)
		if r.FormatDaYun != nil {
			summary = r.FormatDaYun(name, p)
		}
		desc := fmt.Sprintf("%s %s · %d-%d (%d-%d) · %s · %s",
			p.Pillar, p.NaYin, p.StartAge, p.EndAge, p.StartYear, p.EndYear, p.TenGod.Symbol(), p.Favorability) + note
		events = append(events, newEvent(
			fmt.Sprintf(config.FormatUID, uidBase, strings.ToLower(config.CategoryDaYun), p.Index, config.ICalDomain),
			summary, desc, config.CategoryDaYun, anniversary(birth, p.StartYear)))
	}
	for _, y := range c.LiuNian {
		summary := fmt.Sprintf(config.FallbackSummaryYear, name, y.Pillar, y.Age)
		if r.FormatLiuNian != nil {
			summary = r.FormatLiuNian(name, y)
		}
		markers := make([]string, len(y.Markers))
		for i, m := range y.Markers {
			markers[i] = string(m)
		}
		desc := fmt.Sprintf("%s %s · %s · %s", y.Pillar, y.NaYin, y.TenGod.Symbol(), y.Favorability)
		if len(markers) > 0 {
			desc += " · " + strings.Join(markers, ", ")
		}
		desc += note
		events = append(events, newEvent(
			fmt.Sprintf(config.FormatUID, uidBase, strings.ToLower(config.CategoryLiuNian), y.Year, config.ICalDomain),
			summary, desc, config.CategoryLiuNian, anniversary(birth, y.Year)))
	}
	return events
}

func newEvent(uid, summary, description, category string, date time.Time) *ical.Event {
	event := ical.NewEvent()
	event.Props.SetText(config.PropUID, uid)
	event.Props.SetText(config.PropSummary, summary)
	event.Props.SetText(config.PropDescription, description)
	event.Props.SetText(config.PropCategories, category)

	dtStartProp := ical.NewProp(config.PropDTStart)
	dtStartProp.SetDate(date)
	event.Props.Set(dtStartProp)
	return event
}

// anniversary returns the birthday in year. Go's time.Date normalizes Feb 29
// to March 1st in common years.
func anniversary(b engine.Birth, year int) time.Time {
	return time.Date(year, time.Month(b.Month), b.Day, 0, 0, 0, 0, time.UTC)
}
