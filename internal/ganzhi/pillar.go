package ganzhi

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrInvalidPillar is matched by every *InvalidPillarError via errors.Is.
var ErrInvalidPillar = errors.New("ganzhi: invalid pillar")

// InvalidPillarError reports a stem-branch pair whose parities differ. Only
// pairs with stem%2 == branch%2 belong to the sexagenary cycle.
type InvalidPillarError struct {
	Stem   Stem
	Branch Branch
}

func (e *InvalidPillarError) Error() string {
	return fmt.Sprintf("ganzhi: invalid pillar %s%s (stem %d and branch %d differ in parity)",
		e.Stem, e.Branch, e.Stem.Index(), e.Branch.Index())
}

// Is makes errors.Is(err, ErrInvalidPillar) hold.
func (e *InvalidPillarError) Is(target error) bool { return target == ErrInvalidPillar }

// CycleIndexOf returns the position 0-59 of the pair in the sexagenary cycle.
func CycleIndexOf(s Stem, b Branch) (int, error) {
	si, bi := mod(int(s), StemCount), mod(int(b), BranchCount)
	if si%2 != bi%2 {
		return 0, &InvalidPillarError{Stem: Stem(si), Branch: Branch(bi)}
	}
	// Solve n ≡ si (mod 10), n ≡ bi (mod 12). Stepping the stem forward by one
	// full lap of 10 moves the branch by 10, so walk at most 6 laps.
	for n := si; n < CycleLength; n += StemCount {
		if n%BranchCount == bi {
			return n, nil
		}
	}
	// Unreachable for same-parity pairs.
	return 0, &InvalidPillarError{Stem: Stem(si), Branch: Branch(bi)}
}

// Pillar is a valid stem-branch pair. The zero value is 甲子, the first
// pillar of the cycle. A Pillar cannot be built with mismatched parity: the
// only constructors are NewPillar, PillarAt, ParsePillar and YearPillar.
type Pillar struct {
	stem   Stem
	branch Branch
}

// NewPillar validates the pair against the cycle.
func NewPillar(s Stem, b Branch) (Pillar, error) {
	if _, err := CycleIndexOf(s, b); err != nil {
		return Pillar{}, err
	}
	return Pillar{stem: StemAt(int(s)), branch: BranchAt(int(b))}, nil
}

// PillarAt returns the n-th pillar of the cycle, n reduced modulo 60.
func PillarAt(n int) Pillar {
	n = mod(n, CycleLength)
	return Pillar{stem: StemAt(n), branch: BranchAt(n)}
}

// ParsePillar parses a two-character pillar such as "甲子".
func ParsePillar(v string) (Pillar, error) {
	if utf8.RuneCountInString(v) != 2 {
		return Pillar{}, fmt.Errorf("ganzhi: pillar %q must be two symbols", v)
	}
	r, size := utf8.DecodeRuneInString(v)
	s, err := ParseStem(string(r))
	if err != nil {
		return Pillar{}, err
	}
	b, err := ParseBranch(v[size:])
	if err != nil {
		return Pillar{}, err
	}
	return NewPillar(s, b)
}

// YearPillar returns the pillar conventionally attached to a Gregorian year,
// anchored on 1984 = 甲子. It does not account for the Li Chun boundary; it is
// the label of the year, not of a moment within it.
func YearPillar(year int) Pillar { return PillarAt(year - 4) }

// Stem returns the heavenly stem.
func (p Pillar) Stem() Stem { return p.stem }

// Branch returns the earthly branch.
func (p Pillar) Branch() Branch { return p.branch }

// Index returns the position 0-59 in the cycle.
func (p Pillar) Index() int {
	n, _ := CycleIndexOf(p.stem, p.branch)
	return n
}

// Add steps n positions along the cycle; negative n steps backwards.
func (p Pillar) Add(n int) Pillar { return PillarAt(p.Index() + n) }

// NaYin returns the melodic element name of the pillar.
func (p Pillar) NaYin() string { return naYin[p.Index()/2] }

func (p Pillar) String() string { return p.stem.String() + p.branch.String() }

// MarshalText implements encoding.TextMarshaler.
func (p Pillar) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Pillar) UnmarshalText(b []byte) error {
	v, err := ParsePillar(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// naYin holds one name per consecutive pair of pillars.
var naYin = [CycleLength / 2]string{
	"海中金", "炉中火", "大林木", "路旁土", "剑锋金", "山头火",
	"涧下水", "城头土", "白蜡金", "杨柳木", "泉中水", "屋上土",
	"霹雳火", "松柏木", "长流水", "砂石金", "山下火", "平地木",
	"壁上土", "金箔金", "覆灯火", "天河水", "大驿土", "钗钏金",
	"桑柘木", "大溪水", "沙中土", "天上火", "石榴木", "大海水",
}
