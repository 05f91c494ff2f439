package ganzhi

// Strength is the seasonal state (旺相休死囚) of the day master against a
// branch.
type Strength int

const (
	Prosperous Strength = iota // 旺
	Assisting                  // 相
	Resting                    // 休
	Dead                       // 死
	Imprisoned                 // 囚
)

var strengthNames = [5]string{"prosperous", "assisting", "resting", "dead", "imprisoned"}
var strengthSymbols = [5]string{"旺", "相", "休", "死", "囚"}

func (s Strength) String() string {
	if s < Prosperous || s > Imprisoned {
		return ""
	}
	return strengthNames[s]
}

// Symbol returns the Chinese name.
func (s Strength) Symbol() string {
	if s < Prosperous || s > Imprisoned {
		return ""
	}
	return strengthSymbols[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s Strength) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// StrengthOf compares the elements of day and b: same is prosperous, day
// feeding b assisting, day controlling b resting, b feeding day dead and b
// controlling day imprisoned.
func StrengthOf(day Stem, b Branch) Strength {
	de, be := day.Element(), b.Element()
	switch {
	case de == be:
		return Prosperous
	case de.Generates() == be:
		return Assisting
	case de.Controls() == be:
		return Resting
	case be.Generates() == de:
		return Dead
	default:
		return Imprisoned
	}
}
