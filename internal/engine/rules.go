package engine

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"unicode"

	"github.com/tartampluch/go-bazi/internal/config"
	"github.com/tartampluch/go-bazi/internal/ganzhi"
	"gopkg.in/yaml.v3"
)

//go:embed rules/default.yaml
var defaultRulesYAML []byte

// Position names one symbol slot of a chart.
type Position string

const (
	PosYearStem    Position = "year_stem"
	PosYearBranch  Position = "year_branch"
	PosMonthStem   Position = "month_stem"
	PosMonthBranch Position = "month_branch"
	PosDayStem     Position = "day_stem"
	PosDayBranch   Position = "day_branch"
	PosHourStem    Position = "hour_stem"
	PosHourBranch  Position = "hour_branch"
	PosYearPillar  Position = "year_pillar"
	PosMonthPillar Position = "month_pillar"
	PosDayPillar   Position = "day_pillar"
	PosHourPillar  Position = "hour_pillar"
)

type positionKind int

const (
	kindStem positionKind = iota
	kindBranch
	kindPillar
	kindSymbol // any stem or branch
)

type positionInfo struct {
	kind   positionKind
	pillar int // 0 year, 1 month, 2 day, 3 hour
}

var positions = map[Position]positionInfo{
	PosYearStem:    {kindStem, 0},
	PosYearBranch:  {kindBranch, 0},
	PosYearPillar:  {kindPillar, 0},
	PosMonthStem:   {kindStem, 1},
	PosMonthBranch: {kindBranch, 1},
	PosMonthPillar: {kindPillar, 1},
	PosDayStem:     {kindStem, 2},
	PosDayBranch:   {kindBranch, 2},
	PosDayPillar:   {kindPillar, 2},
	PosHourStem:    {kindStem, 3},
	PosHourBranch:  {kindBranch, 3},
	PosHourPillar:  {kindPillar, 3},
}

// View maps the positions available to an evaluation to their symbols.
type View map[Position]string

// ChartView exposes all twelve positions of p.
func ChartView(p Pillars) View {
	v := make(View, len(positions))
	names := [4][3]Position{
		{PosYearStem, PosYearBranch, PosYearPillar},
		{PosMonthStem, PosMonthBranch, PosMonthPillar},
		{PosDayStem, PosDayBranch, PosDayPillar},
		{PosHourStem, PosHourBranch, PosHourPillar},
	}
	for i, pl := range p.All() {
		v[names[i][0]] = pl.Stem().String()
		v[names[i][1]] = pl.Branch().String()
		v[names[i][2]] = pl.String()
	}
	return v
}

// YearView exposes only the year positions, for annual evaluation.
func YearView(p ganzhi.Pillar) View {
	return View{
		PosYearStem:   p.Stem().String(),
		PosYearBranch: p.Branch().String(),
		PosYearPillar: p.String(),
	}
}

// Rule is one Shen Sha predicate. The symbol found at any key position selects
// a row of Table; the rule fires when a target position holds a symbol of that
// row. A rule without targets fires when a key symbol is itself a row.
//
// Table keys and values are written compactly in YAML: for stem and branch
// positions every character is one symbol ("申子辰: 寅"), for pillar positions
// symbols are separated by spaces ("庚辰 庚戌" with an empty value).
type Rule struct {
	Marker   string            `yaml:"marker"`
	Keys     []Position        `yaml:"keys"`
	Targets  []Position        `yaml:"targets"`
	Distinct bool              `yaml:"distinct"` // key and target must sit on different pillars
	Table    map[string]string `yaml:"table"`

	rows map[string]map[string]bool
}

// Fires evaluates the rule against v. Positions missing from v are ignored.
func (r *Rule) Fires(v View) bool {
	for _, k := range r.Keys {
		sym, ok := v[k]
		if !ok {
			continue
		}
		row, ok := r.rows[sym]
		if !ok {
			continue
		}
		if len(r.Targets) == 0 {
			return true
		}
		for _, t := range r.Targets {
			if r.Distinct && positions[t].pillar == positions[k].pillar {
				continue
			}
			if ts, ok := v[t]; ok && row[ts] {
				return true
			}
		}
	}
	return false
}

// PairRule scores a fixed set of unordered symbol pairs.
type PairRule struct {
	Weight int      `yaml:"weight"`
	Pairs  []string `yaml:"pairs"`

	set map[[2]string]bool
}

func (p *PairRule) match(a, b string) bool { return p.set[[2]string{a, b}] }

// GroupRule scores two symbols that belong to the same group.
type GroupRule struct {
	Weight int      `yaml:"weight"`
	Groups []string `yaml:"groups"`

	group map[string]int
}

func (g *GroupRule) match(a, b string) bool {
	ga, okA := g.group[a]
	gb, okB := g.group[b]
	return okA && okB && ga == gb
}

// Relation names how two branches interact. RelationNone means no rule
// matched.
type Relation string

const RelationNone Relation = "none"

// RelationRule is one named branch relation, given either as unordered pairs
// or as groups whose members relate to each other. A branch relates to itself
// through a group it belongs to.
type RelationRule struct {
	Relation Relation `yaml:"relation"`
	Pairs    []string `yaml:"pairs"`
	Groups   []string `yaml:"groups"`

	set   map[[2]string]bool
	group map[string]int
}

func (r *RelationRule) match(a, b string) bool {
	if r.set[[2]string{a, b}] {
		return true
	}
	ga, okA := r.group[a]
	gb, okB := r.group[b]
	return okA && okB && ga == gb
}

// AuspiceRules hold the Ji Xiong scoring between a cycle pillar and the day
// pillar.
type AuspiceRules struct {
	StemCombination PairRule  `yaml:"stem_combination"`
	Triad           GroupRule `yaml:"triad"`
	Harmony         PairRule  `yaml:"harmony"`
}

// RuleBook is the data behind Shen Sha evaluation and auspice scoring. It is
// read-only once loaded and safe for concurrent use.
type RuleBook struct {
	ShenSha   []Rule         `yaml:"shensha"`
	Auspice   AuspiceRules   `yaml:"auspice"`
	Relations []RelationRule `yaml:"branch_relations"` // first match wins
}

var defaultRules = sync.OnceValues(func() (*RuleBook, error) {
	return LoadRules(bytes.NewReader(defaultRulesYAML))
})

// DefaultRules returns the embedded rule book. It panics if the embedded file
// is invalid, which the package tests rule out.
func DefaultRules() *RuleBook {
	rb, err := defaultRules()
	if err != nil {
		panic(err)
	}
	return rb
}

// LoadRulesFile reads a rule book from disk.
func LoadRulesFile(path string) (*RuleBook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrRulesLoad, err)
	}
	defer func() { _ = f.Close() }()

	rb, err := LoadRules(f)
	if err != nil {
		return nil, err
	}
	slog.Info(config.MsgRulesLoaded,
		config.LogKeyComponent, config.CompRules,
		config.LogKeyPath, path,
		config.LogKeyRules, len(rb.ShenSha),
	)
	return rb, nil
}

// LoadRules decodes and validates a YAML rule book. Unknown fields are errors.
func LoadRules(r io.Reader) (*RuleBook, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var rb RuleBook
	if err := dec.Decode(&rb); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", config.ErrRulesLoad, err)
	}
	if err := rb.compile(); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrRulesInvalid, err)
	}
	return &rb, nil
}

func (rb *RuleBook) compile() error {
	seen := make(map[string]bool, len(rb.ShenSha))
	for i := range rb.ShenSha {
		r := &rb.ShenSha[i]
		if r.Marker == "" {
			return fmt.Errorf("rule %d: marker is empty", i)
		}
		if seen[r.Marker] {
			return fmt.Errorf("rule %q: duplicate marker", r.Marker)
		}
		seen[r.Marker] = true
		if err := r.compile(); err != nil {
			return fmt.Errorf("rule %q: %w", r.Marker, err)
		}
	}

	a := &rb.Auspice
	var err error
	if a.StemCombination.set, err = compilePairs(a.StemCombination.Pairs, kindStem); err != nil {
		return fmt.Errorf("stem_combination: %w", err)
	}
	if a.Harmony.set, err = compilePairs(a.Harmony.Pairs, kindBranch); err != nil {
		return fmt.Errorf("harmony: %w", err)
	}
	if a.Triad.group, err = compileGroups(a.Triad.Groups); err != nil {
		return fmt.Errorf("triad: %w", err)
	}

	names := make(map[Relation]bool, len(rb.Relations))
	for i := range rb.Relations {
		r := &rb.Relations[i]
		switch {
		case r.Relation == "" || r.Relation == RelationNone:
			return fmt.Errorf("branch relation %d: name %q is reserved or empty", i, r.Relation)
		case names[r.Relation]:
			return fmt.Errorf("branch relation %q: duplicate name", r.Relation)
		case len(r.Pairs) == 0 && len(r.Groups) == 0:
			return fmt.Errorf("branch relation %q: no pairs or groups", r.Relation)
		}
		names[r.Relation] = true
		if r.set, err = compilePairs(r.Pairs, kindBranch); err != nil {
			return fmt.Errorf("branch relation %q: %w", r.Relation, err)
		}
		if r.group, err = compileGroups(r.Groups); err != nil {
			return fmt.Errorf("branch relation %q: %w", r.Relation, err)
		}
	}
	return nil
}

// compileGroups indexes branch groups. A branch may belong to one group only.
func compileGroups(groups []string) (map[string]int, error) {
	index := make(map[string]int)
	for gi, g := range groups {
		syms, err := splitSymbols(g, kindBranch)
		if err != nil {
			return nil, err
		}
		for _, s := range syms {
			if _, dup := index[s]; dup {
				return nil, fmt.Errorf("%s appears in two groups", s)
			}
			index[s] = gi
		}
	}
	return index, nil
}

func (r *Rule) compile() error {
	if len(r.Keys) == 0 {
		return errors.New("no key positions")
	}
	keyKind, err := commonKind(r.Keys)
	if err != nil {
		return fmt.Errorf("keys: %w", err)
	}
	valueKind := kindSymbol
	if len(r.Targets) > 0 {
		for _, t := range r.Targets {
			if _, ok := positions[t]; !ok {
				return fmt.Errorf("unknown target position %q", t)
			}
		}
		if k, err := commonKind(r.Targets); err == nil {
			valueKind = k
		}
	}

	r.rows = make(map[string]map[string]bool, len(r.Table))
	for key, value := range r.Table {
		keys, err := splitSymbols(key, keyKind)
		if err != nil {
			return err
		}
		values, err := splitSymbols(value, valueKind)
		if err != nil {
			return err
		}
		if len(r.Targets) > 0 && len(values) == 0 {
			return fmt.Errorf("row %q has no target symbols", key)
		}
		for _, k := range keys {
			row := r.rows[k]
			if row == nil {
				row = make(map[string]bool, len(values))
				r.rows[k] = row
			}
			for _, v := range values {
				row[v] = true
			}
		}
	}
	if len(r.rows) == 0 {
		return errors.New("empty table")
	}
	return nil
}

func commonKind(ps []Position) (positionKind, error) {
	var kind positionKind
	for i, p := range ps {
		info, ok := positions[p]
		if !ok {
			return 0, fmt.Errorf("unknown position %q", p)
		}
		if i > 0 && info.kind != kind {
			return 0, fmt.Errorf("positions %q mix kinds", ps)
		}
		kind = info.kind
	}
	return kind, nil
}

// splitSymbols tokenizes a compact YAML symbol list and validates each symbol
// against kind.
func splitSymbols(v string, kind positionKind) ([]string, error) {
	var out []string
	if kind == kindPillar {
		for _, f := range strings.Fields(v) {
			p, err := ganzhi.ParsePillar(f)
			if err != nil {
				return nil, err
			}
			out = append(out, p.String())
		}
		return out, nil
	}
	for _, r := range v {
		if unicode.IsSpace(r) || r == ',' {
			continue
		}
		s := string(r)
		_, errStem := ganzhi.ParseStem(s)
		_, errBranch := ganzhi.ParseBranch(s)
		switch {
		case kind == kindStem && errStem != nil,
			kind == kindBranch && errBranch != nil,
			errStem != nil && errBranch != nil:
			return nil, fmt.Errorf("unknown symbol %q", s)
		}
		out = append(out, s)
	}
	return out, nil
}

func compilePairs(pairs []string, kind positionKind) (map[[2]string]bool, error) {
	set := make(map[[2]string]bool, 2*len(pairs))
	for _, p := range pairs {
		syms, err := splitSymbols(p, kind)
		if err != nil {
			return nil, err
		}
		if len(syms) != 2 {
			return nil, fmt.Errorf("pair %q must hold two symbols", p)
		}
		set[[2]string{syms[0], syms[1]}] = true
		set[[2]string{syms[1], syms[0]}] = true
	}
	return set, nil
}

// Score returns the auspice score of other relative to the day pillar.
func (rb *RuleBook) Score(day, other ganzhi.Pillar) int {
	a := &rb.Auspice
	score := 0
	if a.StemCombination.match(other.Stem().String(), day.Stem().String()) {
		score += a.StemCombination.Weight
	}
	if a.Triad.match(other.Branch().String(), day.Branch().String()) {
		score += a.Triad.Weight
	}
	if a.Harmony.match(other.Branch().String(), day.Branch().String()) {
		score += a.Harmony.Weight
	}
	return score
}

// BranchRelation returns the first relation rule that links a and b, or
// RelationNone.
func (rb *RuleBook) BranchRelation(a, b ganzhi.Branch) Relation {
	for i := range rb.Relations {
		if rb.Relations[i].match(a.String(), b.String()) {
			return rb.Relations[i].Relation
		}
	}
	return RelationNone
}
