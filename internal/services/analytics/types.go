package analytics

// Parser tiers, in the order they are attempted
const (
	TierStrictJSON   = 1 // value was already valid JSON
	TierSingleQuoted = 2 // Python-repr style, single quotes swapped for double
	TierTolerant     = 3 // unquoted dict text run through the tolerant converter
	TierRawFallback  = 4 // unparseable, original text preserved
)

// Lead status tags
const (
	LeadStatusCold = "Cold"
	LeadStatusWarm = "Warm"
	LeadStatusHot  = "Hot"
	LeadStatusRaw  = "Raw"
)

// LevelUnknown is used for category levels the upstream model did not emit
// or that could not be parsed.
const LevelUnknown = "Unknown"

// CategoryScore is one scored lead dimension: a textual level plus a 1-3 score.
type CategoryScore struct {
	Level string `json:"level"`
	Score int    `json:"score"`
}

// ParsedAnalytics is the strict structured form of the provider's
// LLM-generated analysis string. Parse always returns one of these, however
// malformed the input; the worst case is a tier-4 record tagged "Raw" with
// the original text preserved.
type ParsedAnalytics struct {
	Intent     CategoryScore `json:"intent"`
	Urgency    CategoryScore `json:"urgency"`
	Budget     CategoryScore `json:"budget"`
	Fit        CategoryScore `json:"fit"`
	Engagement CategoryScore `json:"engagement"`

	TotalScore    int    `json:"total_score"`
	LeadStatusTag string `json:"lead_status_tag"`

	CTAPricingClicked   bool `json:"cta_pricing_clicked"`
	CTADemoClicked      bool `json:"cta_demo_clicked"`
	CTAFollowupClicked  bool `json:"cta_followup_clicked"`
	CTASampleClicked    bool `json:"cta_sample_clicked"`
	CTAEscalatedToHuman bool `json:"cta_escalated_to_human"`

	ExtractedName     string `json:"extracted_name,omitempty"`
	ExtractedEmail    string `json:"extracted_email,omitempty"`
	ExtractedCompany  string `json:"extracted_company,omitempty"`
	SmartNotification string `json:"smart_notification,omitempty"`
	DemoBookDatetime  string `json:"demo_book_datetime,omitempty"`

	Reasoning map[string]string `json:"reasoning,omitempty"`

	// RawAnalysisData carries the original analysis string when parsing
	// degraded to the tier-4 fallback, so no call is ever lost to a parse
	// failure, only degraded.
	RawAnalysisData string `json:"raw_analysis_data,omitempty"`

	// ParseTier records which tier produced this record.
	ParseTier int `json:"parse_tier"`
}

// HasScores reports whether any category carries a usable score.
func (a *ParsedAnalytics) HasScores() bool {
	return a.Intent.Score > 0 || a.Urgency.Score > 0 || a.Budget.Score > 0 ||
		a.Fit.Score > 0 || a.Engagement.Score > 0
}
