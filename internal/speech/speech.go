// Package speech synthesizes short voice clips for scene lines.
// Strictly best-effort: callers log failures and move on.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Synthesizer turns text into an OGG/MP3 voice payload
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Disabled never produces audio
type Disabled struct{}

func (Disabled) Synthesize(context.Context, string) ([]byte, error) {
	return nil, nil
}

// HTTPClient posts text to a TTS endpoint and returns the audio bytes
type HTTPClient struct {
	url    string
	voice  string
	client *http.Client
}

// NewHTTPClient creates a synthesizer for a simple JSON-in, audio-out
// TTS endpoint
func NewHTTPClient(url, voice string) *HTTPClient {
	return &HTTPClient{
		url:    url,
		voice:  voice,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *HTTPClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	payload, err := json.Marshal(map[string]string{"text": text, "voice": c.voice})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal TTS request: %v", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create TTS request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call TTS endpoint: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("TTS endpoint returned status %d", resp.StatusCode)
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read TTS response: %v", err)
	}
	return audio, nil
}
