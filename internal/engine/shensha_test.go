package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tartampluch/go-bazi/internal/engine"
	"github.com/tartampluch/go-bazi/internal/ganzhi"
)

func TestDirectionsOf_AllStems(t *testing.T) {
	// 甲己正北是福神，丙辛西北乾宫存，乙庚坤位戊癸艮，丁壬巽上好追寻。
	tests := []struct {
		stem    ganzhi.Stem
		joy     string
		fortune string
		wealth  string
	}{
		{ganzhi.Jia, "艮", "坎", "艮"},
		{ganzhi.Yi, "乾", "坤", "艮"},
		{ganzhi.Bing, "坤", "乾", "坤"},
		{ganzhi.Ding, "离", "巽", "坤"},
		{ganzhi.Wu, "巽", "艮", "坎"},
		{ganzhi.Ji, "艮", "坎", "坎"},
		{ganzhi.Geng, "乾", "坤", "震"},
		{ganzhi.Xin, "坤", "乾", "震"},
		{ganzhi.Ren, "离", "巽", "离"},
		{ganzhi.Gui, "巽", "艮", "离"},
	}
	for _, tt := range tests {
		t.Run(tt.stem.String(), func(t *testing.T) {
			d := engine.DirectionsOf(tt.stem)
			assert.Equal(t, tt.joy, d.Joy.Symbol(), "joy")
			assert.Equal(t, tt.fortune, d.Fortune.Symbol(), "fortune")
			assert.Equal(t, tt.wealth, d.Wealth.Symbol(), "wealth")
		})
	}
}

func TestDayOfficer(t *testing.T) {
	assert.Equal(t, engine.Establish, engine.DayOfficer(ganzhi.Tiger, ganzhi.Tiger))
	assert.Equal(t, engine.Balance, engine.DayOfficer(ganzhi.Ox, ganzhi.Dragon))
	assert.Equal(t, engine.Close, engine.DayOfficer(ganzhi.Rat, ganzhi.Pig))
	assert.Equal(t, "闭", engine.DayOfficer(ganzhi.Tiger, ganzhi.Ox).Symbol())
}
