package llm

import (
	"context"
	"io"

	"booktalk/internal/model"
)

// GenerateRequest is one call to the generation collaborator.
type GenerateRequest struct {
	// System is an optional system instruction.
	System string
	// Prompt is the user turn text.
	Prompt string
	// Files are registered files attached ahead of the prompt.
	Files           []model.DocumentHandle
	Temperature     float32
	MaxOutputTokens int32
}

// Client is the generative-language collaborator: it registers files and generates text.
type Client interface {
	// Upload registers content with the service and returns its handle.
	Upload(ctx context.Context, r io.Reader, displayName, mimeType string) (model.DocumentHandle, error)
	// Generate returns the model's text for req. An empty string is a valid, if useless, result.
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}
