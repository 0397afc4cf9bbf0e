package analytics

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ClareAI/astra-lead-service/pkg/logger"
	"go.uber.org/zap"
)

// Parse converts the provider's analysis string into a structured record.
// The string is generated by an upstream language model and is frequently not
// valid JSON, so four progressively more tolerant strategies are attempted:
//
//  1. strict JSON parse
//  2. single quotes replaced with double quotes, then strict parse
//  3. tolerant conversion of fully unquoted dict-like text, then strict parse
//  4. fixed-shape fallback tagged "Raw" with the original text preserved
//
// Parse never fails; the caller always gets a usable record.
func Parse(raw string) *ParsedAnalytics {
	trimmed := strings.TrimSpace(raw)

	if m, ok := tryStrictParse(trimmed); ok {
		return fromMap(m, TierStrictJSON)
	}

	if m, ok := tryStrictParse(strings.ReplaceAll(trimmed, "'", `"`)); ok {
		return fromMap(m, TierSingleQuoted)
	}

	if converted, err := ConvertLooseJSON(trimmed); err == nil {
		if m, ok := tryStrictParse(converted); ok {
			return fromMap(m, TierTolerant)
		}
	}

	logger.Base().Warn("analysis string unparseable at every tier, falling back to raw record",
		zap.Int("length", len(raw)))
	return rawFallback(raw)
}

func tryStrictParse(s string) (map[string]interface{}, bool) {
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, false
	}
	return m, true
}

// rawFallback builds the tier-4 record: every score zeroed, every level
// Unknown, and the original string kept for later inspection.
func rawFallback(raw string) *ParsedAnalytics {
	unknown := CategoryScore{Level: LevelUnknown, Score: 0}
	return &ParsedAnalytics{
		Intent:          unknown,
		Urgency:         unknown,
		Budget:          unknown,
		Fit:             unknown,
		Engagement:      unknown,
		TotalScore:      0,
		LeadStatusTag:   LeadStatusRaw,
		RawAnalysisData: raw,
		ParseTier:       TierRawFallback,
	}
}

func fromMap(m map[string]interface{}, tier int) *ParsedAnalytics {
	a := &ParsedAnalytics{
		Intent:     categoryFrom(m, "intent"),
		Urgency:    categoryFrom(m, "urgency"),
		Budget:     categoryFrom(m, "budget"),
		Fit:        categoryFrom(m, "fit"),
		Engagement: categoryFrom(m, "engagement"),

		TotalScore:    intFrom(m, "total_score"),
		LeadStatusTag: stringFrom(m, "lead_status_tag"),

		CTAPricingClicked:   boolFrom(m, "cta_pricing_clicked"),
		CTADemoClicked:      boolFrom(m, "cta_demo_clicked"),
		CTAFollowupClicked:  boolFrom(m, "cta_followup_clicked"),
		CTASampleClicked:    boolFrom(m, "cta_sample_clicked"),
		CTAEscalatedToHuman: boolFrom(m, "cta_escalated_to_human"),

		DemoBookDatetime: NormalizeDemoDatetime(stringFrom(m, "demo_book_datetime")),
		ParseTier:        tier,
	}

	// Extraction fields arrive either nested under "extraction" or flat.
	extraction := m
	if nested, ok := m["extraction"].(map[string]interface{}); ok {
		extraction = nested
	}
	a.ExtractedName = stringFrom(extraction, "name")
	a.ExtractedEmail = stringFrom(extraction, "email")
	a.ExtractedCompany = stringFrom(extraction, "company_name")
	a.SmartNotification = stringFrom(extraction, "smart_notification")
	if a.DemoBookDatetime == "" {
		a.DemoBookDatetime = NormalizeDemoDatetime(stringFrom(extraction, "demo_book_datetime"))
	}

	if reasoning, ok := m["reasoning"].(map[string]interface{}); ok {
		a.Reasoning = make(map[string]string, len(reasoning))
		for k, v := range reasoning {
			a.Reasoning[k] = fmt.Sprintf("%v", v)
		}
	}

	// The parsed record may carry a pre-computed total; otherwise derive it
	// from the category scores so the sum invariant holds.
	if a.TotalScore == 0 && a.HasScores() {
		a.TotalScore = a.Intent.Score + a.Urgency.Score + a.Budget.Score +
			a.Fit.Score + a.Engagement.Score
	}
	if a.LeadStatusTag == "" && a.TotalScore > 0 {
		a.LeadStatusTag = TagForScore(a.TotalScore)
	}

	return a
}

func categoryFrom(m map[string]interface{}, name string) CategoryScore {
	level := stringFrom(m, name+"_level")
	if level == "" {
		level = LevelUnknown
	}
	return CategoryScore{
		Level: level,
		Score: intFrom(m, name+"_score"),
	}
}

// stringFrom pulls a string value, tolerating non-string JSON scalars.
func stringFrom(m map[string]interface{}, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// intFrom pulls an integer value, tolerating float and numeric-string forms.
func intFrom(m map[string]interface{}, key string) int {
	v, ok := m[key]
	if !ok || v == nil {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return int(t)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n
		}
	}
	return 0
}

// boolFrom pulls a boolean value, tolerating "true"/"True"/"yes" strings.
func boolFrom(m map[string]interface{}, key string) bool {
	v, ok := m[key]
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s == "true" || s == "yes"
	}
	return false
}
