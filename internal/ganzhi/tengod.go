package ganzhi

// TenGod is the relation of a stem to the day master (the day stem).
type TenGod int

// Ten gods. Each pair is (same polarity, opposite polarity).
const (
	Companion        TenGod = iota // 比肩
	RobWealth                      // 劫财
	EatingGod                      // 食神
	HurtingOfficer                 // 伤官
	IndirectWealth                 // 偏财
	DirectWealth                   // 正财
	SevenKillings                  // 七杀
	DirectOfficer                  // 正官
	IndirectResource               // 偏印
	DirectResource                 // 正印
)

var tenGodNames = [10]string{
	"companion", "rob_wealth", "eating_god", "hurting_officer", "indirect_wealth",
	"direct_wealth", "seven_killings", "direct_officer", "indirect_resource", "direct_resource",
}

var tenGodSymbols = [10]string{"比肩", "劫财", "食神", "伤官", "偏财", "正财", "七杀", "正官", "偏印", "正印"}

func (g TenGod) String() string {
	if g < Companion || g > DirectResource {
		return ""
	}
	return tenGodNames[g]
}

// Symbol returns the Chinese name.
func (g TenGod) Symbol() string {
	if g < Companion || g > DirectResource {
		return ""
	}
	return tenGodSymbols[g]
}

// MarshalText implements encoding.TextMarshaler.
func (g TenGod) MarshalText() ([]byte, error) { return []byte(g.String()), nil }

// TenGodOf classifies other against the day master by element relation and
// polarity.
func TenGodOf(day, other Stem) TenGod {
	de, oe := day.Element(), other.Element()
	base := Companion
	switch {
	case de == oe:
		base = Companion
	case de.Generates() == oe:
		base = EatingGod
	case de.Controls() == oe:
		base = IndirectWealth
	case oe.Controls() == de:
		base = SevenKillings
	default: // oe generates de
		base = IndirectResource
	}
	if day.Polarity() != other.Polarity() {
		base++
	}
	return base
}
