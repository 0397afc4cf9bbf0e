package analytics

// Score band thresholds for lead status tagging. Anything below the warm
// band is treated as cold; scores outside 0-15 only appear in tier-4 records,
// which keep their "Raw" tag and never reach this mapping.
const (
	warmThreshold = 9
	hotThreshold  = 12
	scoreCap      = 9
	minTurnCount  = 3
)

// TagForScore maps a total score to its lead status tag.
// Cold 5-8, Warm 9-11, Hot 12-15.
func TagForScore(total int) string {
	switch {
	case total >= hotThreshold:
		return LeadStatusHot
	case total >= warmThreshold:
		return LeadStatusWarm
	default:
		return LeadStatusCold
	}
}

// ApplyEngagementCap enforces the low-engagement scoring rule on a parsed
// record: the total score is the sum of the five category scores, clipped to
// 9 when the conversation had fewer than 3 turns or neither the demo nor the
// follow-up CTA fired. The status tag is recomputed from the final total.
//
// Tier-4 fallback records are left untouched; their scores are placeholders
// and their "Raw" tag must survive.
func ApplyEngagementCap(a *ParsedAnalytics, turnCount int) {
	if a == nil || a.ParseTier == TierRawFallback {
		return
	}

	if a.HasScores() {
		a.TotalScore = a.Intent.Score + a.Urgency.Score + a.Budget.Score +
			a.Fit.Score + a.Engagement.Score
	}

	lowEngagement := turnCount < minTurnCount || !(a.CTADemoClicked || a.CTAFollowupClicked)
	if lowEngagement && a.TotalScore > scoreCap {
		a.TotalScore = scoreCap
	}

	if a.TotalScore > 0 {
		a.LeadStatusTag = TagForScore(a.TotalScore)
	}
}
