package speech

import (
	"context"
	"fmt"
	"strings"
)

// Encoding is the audio container produced by a Synthesizer.
type Encoding string

const (
	EncodingMP3 Encoding = "mp3"
	EncodingWAV Encoding = "wav"
)

// ParseEncoding maps a configuration value to an Encoding.
func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(strings.ToLower(strings.TrimSpace(s))) {
	case EncodingMP3, "":
		return EncodingMP3, nil
	case EncodingWAV, "linear16":
		return EncodingWAV, nil
	}
	return "", fmt.Errorf("unsupported audio encoding %q", s)
}

// Extension is the file extension, with its leading dot.
func (e Encoding) Extension() string {
	return "." + string(e)
}

// MediaType is the HTTP content type of audio in this encoding.
func (e Encoding) MediaType() string {
	if e == EncodingWAV {
		return "audio/wav"
	}
	return "audio/mpeg"
}

// Synthesizer converts text to audio bytes in a fixed encoding.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
	Encoding() Encoding
}
