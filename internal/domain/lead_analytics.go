package domain

import (
	"time"
)

// Lead status tags produced by the analytics scoring rules
const (
	LeadStatusCold = "Cold"
	LeadStatusWarm = "Warm"
	LeadStatusHot  = "Hot"
	LeadStatusRaw  = "Raw" // parser fallback, scores unusable
)

// LeadAnalytics stores the parsed lead-scoring record for one call.
// The unique index on CallID keeps a retried delivery from inserting a
// second analytics row for the same call.
type LeadAnalytics struct {
	ID     string `json:"id" gorm:"type:uuid;primaryKey"`
	CallID string `json:"call_id" gorm:"type:uuid;not null;uniqueIndex:idx_lead_analytics_call_id"`

	IntentLevel     string `json:"intent_level" gorm:"type:varchar(32)"`
	IntentScore     int    `json:"intent_score"`
	UrgencyLevel    string `json:"urgency_level" gorm:"type:varchar(32)"`
	UrgencyScore    int    `json:"urgency_score"`
	BudgetLevel     string `json:"budget_level" gorm:"type:varchar(32)"`
	BudgetScore     int    `json:"budget_score"`
	FitLevel        string `json:"fit_level" gorm:"type:varchar(32)"`
	FitScore        int    `json:"fit_score"`
	EngagementLevel string `json:"engagement_level" gorm:"type:varchar(32)"`
	EngagementScore int    `json:"engagement_score"`

	TotalScore    int    `json:"total_score"`
	LeadStatusTag string `json:"lead_status_tag" gorm:"type:varchar(16);index"`

	CTAPricingClicked   bool `json:"cta_pricing_clicked"`
	CTADemoClicked      bool `json:"cta_demo_clicked"`
	CTAFollowupClicked  bool `json:"cta_followup_clicked"`
	CTASampleClicked    bool `json:"cta_sample_clicked"`
	CTAEscalatedToHuman bool `json:"cta_escalated_to_human"`

	ExtractedName     *string `json:"extracted_name" gorm:"type:varchar(255)"`
	ExtractedEmail    *string `json:"extracted_email" gorm:"type:varchar(255)"`
	ExtractedCompany  *string `json:"extracted_company" gorm:"type:varchar(255)"`
	SmartNotification *string `json:"smart_notification" gorm:"type:text"`
	DemoBookDatetime  *string `json:"demo_book_datetime" gorm:"type:varchar(64)"`

	RawAnalysisData *string `json:"raw_analysis_data" gorm:"type:text"` // original string, kept only when parsing degraded

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (LeadAnalytics) TableName() string {
	return "lead_analytics"
}
