// Package ganzhi implements the sexagenary (stem-branch) cycle: the 10 heavenly
// stems, the 12 earthly branches, their elements and polarities, and the 60
// valid stem-branch pillars.
//
// Every other package indexes stems and branches through this package; no
// other code keeps its own copy of the symbol tables.
package ganzhi

import (
	"fmt"
)

// Counts of the cycle components.
const (
	StemCount   = 10
	BranchCount = 12
	CycleLength = 60 // lcm(10, 12)
)

// Element is one of the five phases.
type Element int

const (
	Wood Element = iota
	Fire
	Earth
	Metal
	Water
)

// Elements lists the five phases in generation order.
var Elements = [5]Element{Wood, Fire, Earth, Metal, Water}

var elementNames = [5]string{"wood", "fire", "earth", "metal", "water"}
var elementSymbols = [5]string{"木", "火", "土", "金", "水"}

func (e Element) String() string {
	if e < Wood || e > Water {
		return fmt.Sprintf("Element(%d)", int(e))
	}
	return elementNames[e]
}

// Symbol returns the Chinese character of the element.
func (e Element) Symbol() string {
	if e < Wood || e > Water {
		return ""
	}
	return elementSymbols[e]
}

// Generates returns the element this one produces (wood feeds fire, ...).
func (e Element) Generates() Element { return (e + 1) % 5 }

// Controls returns the element this one overcomes (wood parts earth, ...).
func (e Element) Controls() Element { return (e + 2) % 5 }

// MarshalText implements encoding.TextMarshaler.
func (e Element) MarshalText() ([]byte, error) {
	if e < Wood || e > Water {
		return nil, fmt.Errorf("ganzhi: invalid element %d", int(e))
	}
	return []byte(elementNames[e]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Element) UnmarshalText(b []byte) error {
	for i, n := range elementNames {
		if n == string(b) || elementSymbols[i] == string(b) {
			*e = Element(i)
			return nil
		}
	}
	return fmt.Errorf("ganzhi: unknown element %q", string(b))
}

// Polarity is yang or yin.
type Polarity int

const (
	Yang Polarity = iota
	Yin
)

func (p Polarity) String() string {
	if p == Yin {
		return "yin"
	}
	return "yang"
}

// MarshalText implements encoding.TextMarshaler.
func (p Polarity) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Polarity) UnmarshalText(b []byte) error {
	switch string(b) {
	case "yang", "阳":
		*p = Yang
	case "yin", "阴":
		*p = Yin
	default:
		return fmt.Errorf("ganzhi: unknown polarity %q", string(b))
	}
	return nil
}

func polarityOf(position int) Polarity {
	if position%2 == 0 {
		return Yang
	}
	return Yin
}

// mod returns the non-negative remainder of n / m.
func mod(n, m int) int {
	r := n % m
	if r < 0 {
		r += m
	}
	return r
}
