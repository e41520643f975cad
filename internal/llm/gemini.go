package llm

import (
	"context"
	"fmt"
	"io"

	"google.golang.org/genai"

	"booktalk/internal/config"
	"booktalk/internal/model"
)

// Gemini implements Client on top of the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini builds a Gemini client from cfg. The API key is required.
func NewGemini(ctx context.Context, cfg config.GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: cli, model: cfg.Model}, nil
}

var _ Client = (*Gemini)(nil)

// Upload registers r through the Files API.
func (g *Gemini) Upload(ctx context.Context, r io.Reader, displayName, mimeType string) (model.DocumentHandle, error) {
	f, err := g.client.Files.Upload(ctx, r, &genai.UploadFileConfig{
		MIMEType:    mimeType,
		DisplayName: displayName,
	})
	if err != nil {
		return model.DocumentHandle{}, fmt.Errorf("gemini upload: %w", err)
	}
	mt := f.MIMEType
	if mt == "" {
		mt = mimeType
	}
	return model.DocumentHandle{Name: f.Name, URI: f.URI, MIMEType: mt}, nil
}

// Generate sends one user turn made of the attached files followed by the prompt.
func (g *Gemini) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	contents, cfg := buildRequest(req)
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return resp.Text(), nil
}

// buildRequest lays out a single user turn: file parts first, in request order, then the prompt.
func buildRequest(req GenerateRequest) ([]*genai.Content, *genai.GenerateContentConfig) {
	parts := make([]*genai.Part, 0, len(req.Files)+1)
	for _, f := range req.Files {
		parts = append(parts, genai.NewPartFromURI(f.URI, f.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(req.Prompt))

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(req.Temperature),
		MaxOutputTokens: req.MaxOutputTokens,
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, cfg
}
