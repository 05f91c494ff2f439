package ganzhi

import (
	"fmt"
	"strings"
)

// Stem is a heavenly stem, position 0 (甲) to 9 (癸).
type Stem int

// Heavenly stems.
const (
	Jia Stem = iota
	Yi
	Bing
	Ding
	Wu
	Ji
	Geng
	Xin
	Ren
	Gui
)

var stemSymbols = [StemCount]string{"甲", "乙", "丙", "丁", "戊", "己", "庚", "辛", "壬", "癸"}
var stemPinyin = [StemCount]string{"jia", "yi", "bing", "ding", "wu", "ji", "geng", "xin", "ren", "gui"}

// stem -> element, two consecutive stems per element.
var stemElements = [StemCount]Element{Wood, Wood, Fire, Fire, Earth, Earth, Metal, Metal, Water, Water}

// StemAt returns the stem at cycle position n. Any integer is accepted and
// reduced modulo 10.
func StemAt(n int) Stem { return Stem(mod(n, StemCount)) }

// Index returns the position 0-9.
func (s Stem) Index() int { return int(s) }

// Element returns the fixed element of the stem.
func (s Stem) Element() Element { return stemElements[mod(int(s), StemCount)] }

// Polarity returns yang for even positions and yin for odd ones.
func (s Stem) Polarity() Polarity { return polarityOf(mod(int(s), StemCount)) }

// Pinyin returns the romanised name.
func (s Stem) Pinyin() string { return stemPinyin[mod(int(s), StemCount)] }

func (s Stem) String() string { return stemSymbols[mod(int(s), StemCount)] }

// MarshalText implements encoding.TextMarshaler.
func (s Stem) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stem) UnmarshalText(b []byte) error {
	v, err := ParseStem(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseStem accepts the Chinese character or the pinyin name.
func ParseStem(v string) (Stem, error) {
	v = strings.TrimSpace(v)
	for i := range stemSymbols {
		if stemSymbols[i] == v || strings.EqualFold(stemPinyin[i], v) {
			return Stem(i), nil
		}
	}
	return 0, fmt.Errorf("ganzhi: unknown stem %q", v)
}

// Branch is an earthly branch, position 0 (子) to 11 (亥).
type Branch int

// Earthly branches, named by their zodiac animal: 子 Rat through 亥 Pig.
const (
	Rat Branch = iota
	Ox
	Tiger
	Rabbit
	Dragon
	Snake
	Horse
	Goat
	Monkey
	Rooster
	Dog
	Pig
)

var branchSymbols = [BranchCount]string{"子", "丑", "寅", "卯", "辰", "巳", "午", "未", "申", "酉", "戌", "亥"}
var branchPinyin = [BranchCount]string{"zi", "chou", "yin", "mao", "chen", "si", "wu", "wei", "shen", "you", "xu", "hai"}
var branchElements = [BranchCount]Element{Water, Earth, Wood, Wood, Earth, Fire, Fire, Earth, Metal, Metal, Earth, Water}
var zodiac = [BranchCount]string{"rat", "ox", "tiger", "rabbit", "dragon", "snake", "horse", "goat", "monkey", "rooster", "dog", "pig"}

// BranchAt returns the branch at cycle position n, reduced modulo 12.
func BranchAt(n int) Branch { return Branch(mod(n, BranchCount)) }

// Index returns the position 0-11.
func (b Branch) Index() int { return int(b) }

// Element returns the fixed element of the branch.
func (b Branch) Element() Element { return branchElements[mod(int(b), BranchCount)] }

// Polarity returns yang for even positions and yin for odd ones.
func (b Branch) Polarity() Polarity { return polarityOf(mod(int(b), BranchCount)) }

// Pinyin returns the romanised name.
func (b Branch) Pinyin() string { return branchPinyin[mod(int(b), BranchCount)] }

// Zodiac returns the animal associated with the branch.
func (b Branch) Zodiac() string { return zodiac[mod(int(b), BranchCount)] }

// Clash returns the opposite branch (六冲), six positions away.
func (b Branch) Clash() Branch { return BranchAt(int(b) + 6) }

func (b Branch) String() string { return branchSymbols[mod(int(b), BranchCount)] }

// MarshalText implements encoding.TextMarshaler.
func (b Branch) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Branch) UnmarshalText(v []byte) error {
	p, err := ParseBranch(string(v))
	if err != nil {
		return err
	}
	*b = p
	return nil
}

// ParseBranch accepts the Chinese character or the pinyin name.
func ParseBranch(v string) (Branch, error) {
	v = strings.TrimSpace(v)
	for i := range branchSymbols {
		if branchSymbols[i] == v || strings.EqualFold(branchPinyin[i], v) {
			return Branch(i), nil
		}
	}
	return 0, fmt.Errorf("ganzhi: unknown branch %q", v)
}
