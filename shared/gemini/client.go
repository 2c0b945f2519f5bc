package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"google.golang.org/genai"
)

// ErrProcessingFailed is returned when the backend reports a terminal failure
// state for an uploaded file during readiness polling. It is distinct from
// transfer errors: the bytes arrived, the remote processing did not.
var ErrProcessingFailed = errors.New("video processing failed on the backend side")

// ErrEmptyResponse signals a successful call that produced no text, which
// usually indicates content filtering or an inaccessible video.
var ErrEmptyResponse = errors.New("empty response from model")

// UploadProgress reports incremental byte progress for a media upload.
type UploadProgress struct {
	Sent  int64
	Total int64
}

// Generator is the contract the pipeline depends on: upload media and wait
// for backend readiness, and run a single-shot text generation.
type Generator interface {
	// Upload sends the media bytes and blocks until the backend reports the
	// file is ready for use in generation. The returned reference is opaque
	// and only meaningful to Generate.
	Upload(ctx context.Context, r io.Reader, size int64, mimeType string, onProgress func(UploadProgress)) (string, error)

	// Generate runs one text generation. mediaRef may be empty for text-only
	// calls. extraInstruction is concatenated onto the prompt verbatim.
	Generate(ctx context.Context, model, prompt, mediaRef, mimeType, extraInstruction string) (string, error)
}

// Client implements Generator against the Gemini API.
type Client struct {
	client         *genai.Client
	pollInterval   time.Duration
	processTimeout time.Duration
}

// NewClient builds a Gemini-backed Generator. processTimeout bounds the
// readiness polling after an upload; zero means wait indefinitely.
func NewClient(ctx context.Context, apiKey string, processTimeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		client:         client,
		pollInterval:   2 * time.Second,
		processTimeout: processTimeout,
	}, nil
}

type countingReader struct {
	r          io.Reader
	sent       int64
	total      int64
	onProgress func(UploadProgress)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.sent += int64(n)
		if c.onProgress != nil {
			c.onProgress(UploadProgress{Sent: c.sent, Total: c.total})
		}
	}
	return n, err
}

func (c *Client) Upload(ctx context.Context, r io.Reader, size int64, mimeType string, onProgress func(UploadProgress)) (string, error) {
	if mimeType == "" {
		mimeType = "video/mp4"
	}

	counted := &countingReader{r: r, total: size, onProgress: onProgress}
	file, err := c.client.Files.Upload(ctx, counted, &genai.UploadFileConfig{
		MIMEType: mimeType,
	})
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}

	file, err = c.waitForProcessing(ctx, file)
	if err != nil {
		return "", err
	}

	return file.URI, nil
}

// waitForProcessing polls the uploaded file at a fixed interval until the
// backend reports a terminal state.
func (c *Client) waitForProcessing(ctx context.Context, file *genai.File) (*genai.File, error) {
	if c.processTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.processTimeout)
		defer cancel()
	}

	for file.State == genai.FileStateProcessing {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("gave up waiting for backend processing of %s: %w", file.Name, ctx.Err())
		case <-time.After(c.pollInterval):
		}

		updated, err := c.client.Files.Get(ctx, file.Name, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to poll processing state of %s: %w", file.Name, err)
		}
		file = updated
	}

	if file.State == genai.FileStateFailed {
		return nil, ErrProcessingFailed
	}

	return file, nil
}

func (c *Client) Generate(ctx context.Context, model, prompt, mediaRef, mimeType, extraInstruction string) (string, error) {
	fullPrompt := prompt
	if extraInstruction != "" {
		fullPrompt += extraInstruction
	}

	parts := []*genai.Part{
		genai.NewPartFromText(fullPrompt),
	}
	if mediaRef != "" {
		if mimeType == "" {
			mimeType = "video/mp4"
		}
		parts = append(parts, genai.NewPartFromURI(mediaRef, mimeType))
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	// Errors from the SDK carry the backend's own message; surface them
	// unmodified inside the wrap.
	result, err := c.client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}

	return text, nil
}
