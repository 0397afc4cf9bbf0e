package domain

import (
	"time"
)

// CallTranscript stores the concatenated full text of one call's transcript.
type CallTranscript struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	CallID    string    `json:"call_id" gorm:"type:uuid;not null;index"`
	FullText  string    `json:"full_text" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (CallTranscript) TableName() string {
	return "call_transcripts"
}

// CallTranscriptSegment is one turn of a call transcript with its offset
// into the call, as reported by the voice provider.
type CallTranscriptSegment struct {
	ID             string    `json:"id" gorm:"type:uuid;primaryKey"`
	TranscriptID   string    `json:"transcript_id" gorm:"type:uuid;not null;index"`
	Role           string    `json:"role" gorm:"type:varchar(32)"` // user, agent
	Message        string    `json:"message" gorm:"type:text"`
	TimeInCallSecs float64   `json:"time_in_call_secs"`
	Position       int       `json:"position"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (CallTranscriptSegment) TableName() string {
	return "call_transcript_segments"
}
