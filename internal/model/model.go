package model

import "time"

// Answer is the outcome of one pass through the pipeline.
type Answer struct {
	Question      string `json:"question,omitempty"`
	Text          string `json:"text"`
	Grounding     string `json:"grounding,omitempty"`
	AudioKey      string `json:"audio_key"`
	TranscriptKey string `json:"transcript_key"`
	MediaType     string `json:"media_type"`
	Audio         []byte `json:"-"`
}

// Interaction is one answered question recorded in the ledger.
type Interaction struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	DocumentKey string    `json:"document_key"`
	Question    string    `json:"question"`
	Answer      string    `json:"answer"`
	AudioKey    string    `json:"audio_key"`
	Grounding   string    `json:"grounding"`
	CreatedAt   time.Time `json:"created_at"`
}

// Session carries the caller's active document.
type Session struct {
	ID        string    `json:"id"`
	Document  *Document `json:"document,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
