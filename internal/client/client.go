// Package client talks to a running booktalk server over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"booktalk/internal/model"
)

// Answer is a spoken answer as returned by /ask.
type Answer struct {
	Audio          []byte
	MediaType      string
	AudioFile      string
	TranscriptFile string
}

// APIError is the server's JSON error envelope.
type APIError struct {
	Status    int
	RequestID string
	Code      string
	Message   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s (request %s)", e.Status, e.Code, e.Message, e.RequestID)
}

// Client keeps the session cookie, so a book uploaded through it is the one later asked about.
type Client struct {
	base *url.URL
	http *http.Client
}

// New returns a client for the server at baseURL.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must include scheme and host", baseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		base: u,
		http: &http.Client{
			Timeout:   timeout,
			Jar:       jar,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

// UploadBook sends a PDF or text file and makes it the session's active document.
func (c *Client) UploadBook(ctx context.Context, path string) (*model.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	body, contentType, err := formFile("pdf", filepath.Base(path), f)
	if err != nil {
		return nil, err
	}
	resp, err := c.post(ctx, "/upload_pdf", body, contentType)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var doc model.Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

// Ask sends a typed question.
func (c *Client) Ask(ctx context.Context, question string) (*Answer, error) {
	form := url.Values{"question": {question}}
	resp, err := c.post(ctx, "/ask", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return nil, err
	}
	return readAnswer(resp)
}

// AskRecording sends a recorded question file.
func (c *Client) AskRecording(ctx context.Context, path string) (*Answer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	body, contentType, err := formFile("audio_data", filepath.Base(path), f)
	if err != nil {
		return nil, err
	}
	resp, err := c.post(ctx, "/ask", body, contentType)
	if err != nil {
		return nil, err
	}
	return readAnswer(resp)
}

// Transcript downloads the sidecar text written next to an answer's audio.
func (c *Client) Transcript(ctx context.Context, a *Answer) (string, error) {
	if a.TranscriptFile == "" {
		return "", fmt.Errorf("answer has no transcript file")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/tts/"+url.PathEscape(a.TranscriptFile)), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *Client) endpoint(p string) string {
	return c.base.String() + p
}

func (c *Client) post(ctx context.Context, p string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(p), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	return c.do(req)
}

// do turns non-2xx responses into *APIError.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	apiErr := &APIError{Status: resp.StatusCode, Code: "HTTP_ERROR", Message: resp.Status}
	var payload struct {
		RequestID string `json:"request_id"`
		Error     struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.NewDecoder(resp.Body).Decode(&payload) == nil && payload.Error.Code != "" {
		apiErr.RequestID = payload.RequestID
		apiErr.Code = payload.Error.Code
		apiErr.Message = payload.Error.Message
	}
	return nil, apiErr
}

func readAnswer(resp *http.Response) (*Answer, error) {
	defer resp.Body.Close()
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	return &Answer{
		Audio:          audio,
		MediaType:      resp.Header.Get("Content-Type"),
		AudioFile:      resp.Header.Get("X-Audio-File"),
		TranscriptFile: resp.Header.Get("X-Transcript-File"),
	}, nil
}

func formFile(field, filename string, r io.Reader) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
