package engine

import (
	"encoding/json"
	"fmt"

	"github.com/tartampluch/go-bazi/internal/ganzhi"
)

// FiveElementTally counts the elements of the eight chart symbols, indexed by
// ganzhi.Element. Its total is always 8.
type FiveElementTally [5]int

// TallyElements counts each stem and branch of the four pillars once, without
// weighting or hidden stems.
func TallyElements(p Pillars) FiveElementTally {
	var t FiveElementTally
	for _, pl := range p.All() {
		t[pl.Stem().Element()]++
		t[pl.Branch().Element()]++
	}
	return t
}

// Count returns the count of e.
func (t FiveElementTally) Count(e ganzhi.Element) int { return t[e] }

// Total returns the sum of all counts.
func (t FiveElementTally) Total() int {
	n := 0
	for _, c := range t {
		n += c
	}
	return n
}

// Missing lists the elements absent from the chart, in generation order.
func (t FiveElementTally) Missing() []ganzhi.Element {
	var out []ganzhi.Element
	for _, e := range ganzhi.Elements {
		if t[e] == 0 {
			out = append(out, e)
		}
	}
	return out
}

// MarshalJSON encodes the tally as an object keyed by element name.
func (t FiveElementTally) MarshalJSON() ([]byte, error) {
	m := make(map[string]int, len(t))
	for _, e := range ganzhi.Elements {
		m[e.String()] = t[e]
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes an object keyed by element name.
func (t *FiveElementTally) UnmarshalJSON(b []byte) error {
	var m map[string]int
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	var out FiveElementTally
	for k, v := range m {
		var e ganzhi.Element
		if err := e.UnmarshalText([]byte(k)); err != nil {
			return fmt.Errorf("five elements: %w", err)
		}
		out[e] = v
	}
	*t = out
	return nil
}
