package engine_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-bazi/internal/engine"
	"github.com/tartampluch/go-bazi/internal/ganzhi"
)

func mustPillar(t *testing.T, v string) ganzhi.Pillar {
	t.Helper()
	p, err := ganzhi.ParsePillar(v)
	require.NoError(t, err)
	return p
}

func TestDefaultRules_Load(t *testing.T) {
	rb := engine.DefaultRules()
	require.NotNil(t, rb)
	assert.Len(t, rb.ShenSha, 22)
	assert.Equal(t, "Tianyi Guiren", rb.ShenSha[0].Marker)
	assert.Len(t, rb.Relations, 6)
	assert.Same(t, rb, engine.DefaultRules(), "parsed once")
}

func TestRuleBook_Score(t *testing.T) {
	rb := engine.DefaultRules()
	day := mustPillar(t, "庚辰")

	tests := []struct {
		other string
		score int
		want  engine.Favorability
	}{
		{"甲辰", 2, engine.Good},        // same triad
		{"乙巳", 2, engine.Good},        // 乙庚 combine
		{"癸酉", 1, engine.Neutral},     // 辰酉 harmony
		{"乙酉", 3, engine.Excellent},   // combine + harmony
		{"丙午", 0, engine.Unfavorable}, // nothing
		{"乙亥", 2, engine.Good},
		{"戊申", 2, engine.Good},
	}
	for _, tt := range tests {
		t.Run(tt.other, func(t *testing.T) {
			score := rb.Score(day, mustPillar(t, tt.other))
			assert.Equal(t, tt.score, score)
			assert.Equal(t, tt.want, engine.Classify(score))
		})
	}

	// Combining stems differ in parity, so a combination can stack with a
	// harmony pair but never with a triad.
	assert.Equal(t, 3, rb.Score(mustPillar(t, "甲子"), mustPillar(t, "己丑")))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, engine.Unfavorable, engine.Classify(-1))
	assert.Equal(t, engine.Unfavorable, engine.Classify(0))
	assert.Equal(t, engine.Neutral, engine.Classify(1))
	assert.Equal(t, engine.Good, engine.Classify(2))
	assert.Equal(t, engine.Excellent, engine.Classify(3))
	assert.Equal(t, engine.Excellent, engine.Classify(5))
}

func TestRule_DistinctSkipsOwnPillar(t *testing.T) {
	rb, err := engine.LoadRules(strings.NewReader(`
shensha:
  - marker: Huagai
    keys: [year_branch]
    targets: [year_branch, day_branch]
    distinct: true
    table:
      申子辰: 辰
`))
	require.NoError(t, err)

	// A 辰 year alone never marks itself.
	assert.Empty(t, rb.Evaluate(engine.YearView(mustPillar(t, "甲辰"))))

	v := engine.View{engine.PosYearBranch: "子", engine.PosDayBranch: "辰"}
	assert.Equal(t, []engine.Marker{"Huagai"}, rb.Evaluate(v))
}

func TestRuleBook_YearViewSkipsUnavailablePositions(t *testing.T) {
	rb := engine.DefaultRules()

	// 丁 reaches 酉 through Tianyi, Taiji and Wenchang.
	got := rb.Evaluate(engine.YearView(mustPillar(t, "丁酉")))
	assert.Equal(t, []engine.Marker{"Tianyi Guiren", "Taiji Guiren", "Wenchang Guiren"}, got)

	// Day-pillar rules never fire on a year view even for a Kuigang pillar.
	assert.NotContains(t, rb.Evaluate(engine.YearView(mustPillar(t, "庚辰"))), engine.Marker("Kuigang"))
}

func TestRuleBook_EvaluateKeepsRuleOrder(t *testing.T) {
	rb, err := engine.LoadRules(strings.NewReader(`
shensha:
  - marker: Zeta
    keys: [day_pillar]
    table:
      庚辰: ""
  - marker: Alpha
    keys: [day_stem]
    targets: [hour_branch]
    table:
      庚: 午
`))
	require.NoError(t, err)

	p := engine.Pillars{Day: mustPillar(t, "庚辰"), Hour: mustPillar(t, "壬午")}
	for j := 0; j < 5; j++ {
		assert.Equal(t, []engine.Marker{"Zeta", "Alpha"}, rb.Evaluate(engine.ChartView(p)))
	}
}

func TestLoadRules_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown field", "shensha:\n  - marker: A\n    keyz: [day_stem]\n"},
		{"unknown position", "shensha:\n  - marker: A\n    keys: [moon_stem]\n    table: {甲: 子}\n"},
		{"unknown target", "shensha:\n  - marker: A\n    keys: [day_stem]\n    targets: [moon_branch]\n    table: {甲: 子}\n"},
		{"mixed key kinds", "shensha:\n  - marker: A\n    keys: [day_stem, day_branch]\n    targets: [hour_branch]\n    table: {甲: 子}\n"},
		{"branch under stem key", "shensha:\n  - marker: A\n    keys: [day_stem]\n    targets: [hour_branch]\n    table: {子: 子}\n"},
		{"stem under branch target", "shensha:\n  - marker: A\n    keys: [day_stem]\n    targets: [hour_branch]\n    table: {甲: 乙}\n"},
		{"branch under stem target", "shensha:\n  - marker: A\n    keys: [month_branch]\n    targets: [year_stem, day_stem]\n    table: {寅: 子}\n"},
		{"unknown symbol", "shensha:\n  - marker: A\n    keys: [day_stem]\n    targets: [hour_branch]\n    table: {甲: X}\n"},
		{"empty table", "shensha:\n  - marker: A\n    keys: [day_stem]\n"},
		{"no keys", "shensha:\n  - marker: A\n    table: {甲: 子}\n"},
		{"missing marker", "shensha:\n  - keys: [day_stem]\n    targets: [hour_branch]\n    table: {甲: 子}\n"},
		{"duplicate marker", "shensha:\n  - marker: A\n    keys: [day_stem]\n    targets: [hour_branch]\n    table: {甲: 子}\n  - marker: A\n    keys: [day_stem]\n    targets: [hour_branch]\n    table: {乙: 丑}\n"},
		{"invalid pillar", "shensha:\n  - marker: A\n    keys: [day_pillar]\n    table: {甲丑: ''}\n"},
		{"bad pair", "auspice:\n  harmony:\n    weight: 1\n    pairs: [子]\n"},
		{"overlapping triads", "auspice:\n  triad:\n    weight: 2\n    groups: [申子辰, 子午卯]\n"},
		{"unnamed relation", "branch_relations:\n  - pairs: [子午]\n"},
		{"relation named none", "branch_relations:\n  - relation: none\n    pairs: [子午]\n"},
		{"duplicate relation", "branch_relations:\n  - relation: clash\n    pairs: [子午]\n  - relation: clash\n    pairs: [丑未]\n"},
		{"empty relation", "branch_relations:\n  - relation: clash\n"},
		{"stem in relation", "branch_relations:\n  - relation: clash\n    pairs: [甲午]\n"},
		{"malformed yaml", "shensha: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb, err := engine.LoadRules(strings.NewReader(tt.yaml))
			assert.Error(t, err)
			assert.Nil(t, rb)
		})
	}
}

func TestLoadRulesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
shensha:
  - marker: Custom
    keys: [year_stem]
    targets: [year_branch]
    table:
      甲: 子
auspice:
  harmony:
    weight: 5
    pairs: [子丑]
`), 0o600))

	rb, err := engine.LoadRulesFile(path)
	require.NoError(t, err)
	assert.Equal(t, []engine.Marker{"Custom"}, rb.Evaluate(engine.YearView(mustPillar(t, "甲子"))))
	assert.Equal(t, 5, rb.Score(mustPillar(t, "甲子"), mustPillar(t, "乙丑")))
	assert.Equal(t, 0, rb.Score(mustPillar(t, "甲子"), mustPillar(t, "己巳")), "unset groups score nothing")

	_, err = engine.LoadRulesFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRuleBook_BranchRelation(t *testing.T) {
	rb := engine.DefaultRules()

	tests := []struct {
		a, b ganzhi.Branch
		want engine.Relation
	}{
		{ganzhi.Rat, ganzhi.Horse, "clash"},
		{ganzhi.Monkey, ganzhi.Dragon, "triad"},
		{ganzhi.Dragon, ganzhi.Dragon, "triad"}, // same branch, same triad
		{ganzhi.Rat, ganzhi.Ox, "harmony"},
		{ganzhi.Tiger, ganzhi.Rabbit, "assembly"},
		{ganzhi.Rabbit, ganzhi.Dragon, "assembly"}, // ahead of harm
		{ganzhi.Rat, ganzhi.Rabbit, "punishment"},
		{ganzhi.Rabbit, ganzhi.Rat, "punishment"},
		{ganzhi.Tiger, ganzhi.Snake, "punishment"}, // ahead of harm
		{ganzhi.Ox, ganzhi.Horse, "harm"},
		{ganzhi.Monkey, ganzhi.Pig, "harm"},
		{ganzhi.Rat, ganzhi.Tiger, engine.RelationNone},
	}
	for _, tt := range tests {
		t.Run(tt.a.String()+tt.b.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, rb.BranchRelation(tt.a, tt.b))
		})
	}

	empty, err := engine.LoadRules(strings.NewReader("shensha: []\n"))
	require.NoError(t, err)
	assert.Equal(t, engine.RelationNone, empty.BranchRelation(ganzhi.Rat, ganzhi.Horse))
}
