package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoExtractableText is returned when a PDF yields no text at all.
var ErrNoExtractableText = errors.New("no extractable text found in PDF")

// Extractor turns document bytes into plain text.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// PDF extracts plain text page by page using ledongthuc/pdf.
type PDF struct{}

func NewPDF() PDF { return PDF{} }

func (PDF) Extract(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, reader); err != nil {
		return "", fmt.Errorf("read extracted text: %w", err)
	}
	text := strings.TrimSpace(buf.String())
	if text == "" {
		return "", ErrNoExtractableText
	}
	return text, nil
}

// Plain treats the bytes as UTF-8 text; used for .txt books.
type Plain struct{}

func (Plain) Extract(ctx context.Context, data []byte) (string, error) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", ErrNoExtractableText
	}
	return text, nil
}
