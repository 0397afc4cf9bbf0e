package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ClareAI/astra-lead-service/internal/domain"
)

// ErrMalformedPayload marks a notification whose mandatory identity, status
// or duration fields cannot be located under any known shape. Missing
// optional fields (analytics, transcript, phone info) never raise this.
var ErrMalformedPayload = errors.New("webhook payload does not match any known shape")

// NormalizePayload collapses the provider's historical notification shapes
// into one canonical representation. Two shapes are supported: the legacy
// flat shape with top-level conversation_id/duration_seconds/phone_number,
// and the current shape that wraps everything in a "data" object with a
// metadata subtree. The presence of the "data" wrapper is the discriminant.
func NormalizePayload(raw []byte) (*CanonicalPayload, error) {
	var tree map[string]interface{}
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrMalformedPayload, err)
	}

	var payload *CanonicalPayload
	if data, ok := tree["data"].(map[string]interface{}); ok {
		payload = normalizeNewShape(data)
	} else {
		payload = normalizeLegacyShape(tree)
	}

	if payload.ConversationID == "" {
		return nil, fmt.Errorf("%w: missing conversation id", ErrMalformedPayload)
	}
	if payload.AgentProviderID == "" {
		return nil, fmt.Errorf("%w: missing agent id", ErrMalformedPayload)
	}
	if payload.Status == "" {
		return nil, fmt.Errorf("%w: missing status", ErrMalformedPayload)
	}

	payload.AnalysisRaw = locateAnalysisString(tree)
	return payload, nil
}

// normalizeNewShape maps the current "data"-wrapped notification format.
func normalizeNewShape(data map[string]interface{}) *CanonicalPayload {
	p := &CanonicalPayload{
		ConversationID:  stringAt(data, "conversation_id"),
		AgentProviderID: stringAt(data, "agent_id"),
		Status:          stringAt(data, "status"),
		Transcript:      transcriptAt(data, "transcript"),
	}

	if metadata, ok := data["metadata"].(map[string]interface{}); ok {
		p.DurationSeconds = intAt(metadata, "call_duration_secs")
		if unix := intAt(metadata, "start_time_unix_secs"); unix > 0 {
			p.StartTime = time.Unix(int64(unix), 0)
		}
		if phoneCall, ok := metadata["phone_call"].(map[string]interface{}); ok {
			p.PhoneNumber = stringAt(phoneCall, "external_number")
		}
		p.ProviderMetadata = domain.JSONB(metadata)
	}
	return p
}

// normalizeLegacyShape maps the flat pre-wrapper notification format.
func normalizeLegacyShape(tree map[string]interface{}) *CanonicalPayload {
	p := &CanonicalPayload{
		ConversationID:  stringAt(tree, "conversation_id"),
		AgentProviderID: stringAt(tree, "agent_id"),
		Status:          stringAt(tree, "status"),
		Transcript:      transcriptAt(tree, "transcript"),
		DurationSeconds: intAt(tree, "duration_seconds"),
		PhoneNumber:     stringAt(tree, "phone_number"),
	}
	if unix := intAt(tree, "start_time_unix_secs"); unix > 0 {
		p.StartTime = time.Unix(int64(unix), 0)
	}
	if metadata, ok := tree["metadata"].(map[string]interface{}); ok {
		p.ProviderMetadata = domain.JSONB(metadata)
	}
	return p
}

// locateAnalysisString probes the known locations of the embedded analytics
// string in priority order. First match wins; absence is fine, a call can
// complete with no lead analysis.
func locateAnalysisString(tree map[string]interface{}) string {
	paths := [][]string{
		{"data", "analysis", "data_collection_results", "default", "value"},
		{"analysis", "data_collection_results", "default", "value"},
		{"analysis", "value"},
	}
	for _, path := range paths {
		if value := stringAtPath(tree, path); value != "" {
			return value
		}
	}
	return ""
}

func stringAtPath(tree map[string]interface{}, path []string) string {
	current := tree
	for i, key := range path {
		if i == len(path)-1 {
			return stringAt(current, key)
		}
		next, ok := current[key].(map[string]interface{})
		if !ok {
			return ""
		}
		current = next
	}
	return ""
}

func transcriptAt(m map[string]interface{}, key string) []TranscriptEntry {
	items, ok := m[key].([]interface{})
	if !ok {
		return nil
	}
	entries := make([]TranscriptEntry, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		entries = append(entries, TranscriptEntry{
			Role:           stringAt(entry, "role"),
			Message:        stringAt(entry, "message"),
			TimeInCallSecs: floatAt(entry, "time_in_call_secs"),
		})
	}
	return entries
}

func stringAt(m map[string]interface{}, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func intAt(m map[string]interface{}, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case string:
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return 0
}

func floatAt(m map[string]interface{}, key string) float64 {
	if f, ok := m[key].(float64); ok {
		return f
	}
	return 0
}
