package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTagForScore(t *testing.T) {
	tests := []struct {
		total int
		want  string
	}{
		{5, LeadStatusCold},
		{8, LeadStatusCold},
		{9, LeadStatusWarm},
		{11, LeadStatusWarm},
		{12, LeadStatusHot},
		{15, LeadStatusHot},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TagForScore(tt.total), "total %d", tt.total)
	}
}

func scoredRecord(scores [5]int) *ParsedAnalytics {
	return &ParsedAnalytics{
		Intent:     CategoryScore{Level: "High", Score: scores[0]},
		Urgency:    CategoryScore{Level: "High", Score: scores[1]},
		Budget:     CategoryScore{Level: "High", Score: scores[2]},
		Fit:        CategoryScore{Level: "Medium", Score: scores[3]},
		Engagement: CategoryScore{Level: "Medium", Score: scores[4]},
		ParseTier:  TierStrictJSON,
	}
}

func TestApplyEngagementCap(t *testing.T) {
	tests := []struct {
		name      string
		scores    [5]int
		demoCTA   bool
		follCTA   bool
		turnCount int
		wantTotal int
		wantTag   string
	}{
		{
			name:      "high score short call capped",
			scores:    [5]int{3, 3, 3, 2, 2},
			demoCTA:   true,
			turnCount: 2,
			wantTotal: 9,
			wantTag:   LeadStatusWarm,
		},
		{
			name:      "high score no engagement cta capped",
			scores:    [5]int{3, 3, 3, 3, 3},
			turnCount: 10,
			wantTotal: 9,
			wantTag:   LeadStatusWarm,
		},
		{
			name:      "hot lead with demo cta keeps score",
			scores:    [5]int{3, 3, 3, 2, 2},
			demoCTA:   true,
			turnCount: 8,
			wantTotal: 13,
			wantTag:   LeadStatusHot,
		},
		{
			name:      "followup cta counts as engagement",
			scores:    [5]int{3, 3, 2, 2, 2},
			follCTA:   true,
			turnCount: 5,
			wantTotal: 12,
			wantTag:   LeadStatusHot,
		},
		{
			name:      "low score unaffected by cap",
			scores:    [5]int{2, 1, 1, 1, 1},
			turnCount: 1,
			wantTotal: 6,
			wantTag:   LeadStatusCold,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := scoredRecord(tt.scores)
			a.CTADemoClicked = tt.demoCTA
			a.CTAFollowupClicked = tt.follCTA

			ApplyEngagementCap(a, tt.turnCount)

			assert.Equal(t, tt.wantTotal, a.TotalScore)
			assert.Equal(t, tt.wantTag, a.LeadStatusTag)
		})
	}
}

func TestApplyEngagementCapLeavesRawRecordsAlone(t *testing.T) {
	a := rawFallback("garbage {{{")
	ApplyEngagementCap(a, 10)

	assert.Equal(t, LeadStatusRaw, a.LeadStatusTag)
	assert.Zero(t, a.TotalScore)
}

func TestApplyEngagementCapNilSafe(t *testing.T) {
	assert.NotPanics(t, func() { ApplyEngagementCap(nil, 5) })
}

func TestParseThenCapMatchesPipeline(t *testing.T) {
	// A lead the model scored 13 that hung up after two turns ends Warm at 9.
	raw := `{'intent_score': 3, 'urgency_score': 3, 'budget_score': 3, 'fit_score': 2, 'engagement_score': 2, 'cta_demo_clicked': true}`

	a := Parse(raw)
	assert.Equal(t, 13, a.TotalScore)

	ApplyEngagementCap(a, 2)
	assert.Equal(t, 9, a.TotalScore)
	assert.Equal(t, LeadStatusWarm, a.LeadStatusTag)
}
