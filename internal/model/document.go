package model

import "time"

// Folder names under which persisted files live.
const (
	FolderUploads = "uploads"
	FolderSpeech  = "tts"
)

// DocumentHandle is the opaque reference the generation service issues for a registered file.
type DocumentHandle struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	MIMEType string `json:"mime_type"`
}

// IsZero reports whether no handle was issued.
func (h DocumentHandle) IsZero() bool {
	return h.URI == ""
}

// Document represents an uploaded book.
// It carries no database tags; persistence layers map it themselves.
type Document struct {
	Key              string         `json:"key"`
	OriginalFilename string         `json:"original_filename"`
	ContentType      string         `json:"content_type"`
	Size             int64          `json:"size"`
	Handle           DocumentHandle `json:"handle"`
	CreatedAt        time.Time      `json:"created_at"`
}

// AudioRef points at a persisted audio question. It is consumed once.
type AudioRef struct {
	Key      string `json:"key"`
	MIMEType string `json:"mime_type"`
	Size     int64  `json:"size"`
}
