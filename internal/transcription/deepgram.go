package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lujip/citu-speech-evaluation/pkg/logger"
	"github.com/lujip/citu-speech-evaluation/pkg/retry"
)

const defaultDeepgramURL = "https://api.deepgram.com/v1/listen"

// DeepgramClient implements Transcriber against the Deepgram prerecorded
// REST API.
type DeepgramClient struct {
	apiKey     string
	baseURL    string
	model      string
	language   string
	timeout    time.Duration
	httpClient *http.Client
	retryCfg   retry.Config
}

type DeepgramOption func(*DeepgramClient)

// WithBaseURL overrides the API endpoint (used by tests).
func WithBaseURL(u string) DeepgramOption {
	return func(c *DeepgramClient) { c.baseURL = u }
}

func WithModel(model string) DeepgramOption {
	return func(c *DeepgramClient) { c.model = model }
}

func WithLanguage(language string) DeepgramOption {
	return func(c *DeepgramClient) { c.language = language }
}

func WithTimeout(d time.Duration) DeepgramOption {
	return func(c *DeepgramClient) { c.timeout = d }
}

func WithMaxAttempts(n int) DeepgramOption {
	return func(c *DeepgramClient) { c.retryCfg.MaxAttempts = n }
}

func NewDeepgramClient(apiKey string, opts ...DeepgramOption) (*DeepgramClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("deepgram: api key must not be empty")
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.InitialDelay = 500 * time.Millisecond
	// Only transport-level failures are worth another verbatim attempt.
	retryCfg.RetryableErrors = []error{ErrUnavailable}
	retryCfg.Logger = logger.GetLogger()

	c := &DeepgramClient{
		apiKey:   apiKey,
		baseURL:  defaultDeepgramURL,
		model:    "nova-2",
		language: "en-US",
		timeout:  30 * time.Second,
		retryCfg: retryCfg,
	}
	for _, o := range opts {
		o(c)
	}
	c.httpClient = &http.Client{Timeout: c.timeout}
	return c, nil
}

// deepgramResponse mirrors the subset of the vendor payload we consume.
type deepgramResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
				Words      []struct {
					Word           string  `json:"word"`
					Start          float64 `json:"start"`
					End            float64 `json:"end"`
					Confidence     float64 `json:"confidence"`
					Type           string  `json:"type"`
					PunctuatedWord string  `json:"punctuated_word"`
				} `json:"words"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// Transcribe submits the audio bytes and normalizes the response. Transport
// failures are retried with backoff; an empty transcript is returned as
// ErrEmpty without further attempts.
func (c *DeepgramClient) Transcribe(ctx context.Context, audio []byte, mimeType string) (*Transcript, error) {
	start := time.Now()
	t, err := retry.DoWithResult(ctx, c.retryCfg, func() (*Transcript, error) {
		return c.transcribeOnce(ctx, audio, mimeType)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("transcription completed",
		zap.Duration("latency", time.Since(start)),
		zap.Int("audio_bytes", len(audio)),
		zap.Float64("confidence", t.Confidence),
	)
	return t, nil
}

func (c *DeepgramClient) transcribeOnce(ctx context.Context, audio []byte, mimeType string) (*Transcript, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqURL, err := c.buildURL()
	if err != nil {
		return nil, fmt.Errorf("deepgram: build url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(audio))
	if err != nil {
		return nil, fmt.Errorf("deepgram: build request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", mimeType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: status %s", ErrUnavailable, resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("deepgram: request rejected with status %s", resp.Status)
	}

	return normalizeDeepgram(body)
}

func (c *DeepgramClient) buildURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("model", c.model)
	q.Set("language", c.language)
	q.Set("smart_format", "true")
	q.Set("filler_words", "true")
	q.Set("punctuate", "true")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// normalizeDeepgram validates the vendor payload and constructs a
// Transcript, rejecting responses without the expected structure.
func normalizeDeepgram(body []byte) (*Transcript, error) {
	var dg deepgramResponse
	if err := json.Unmarshal(body, &dg); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrEmpty, err)
	}
	if len(dg.Results.Channels) == 0 || len(dg.Results.Channels[0].Alternatives) == 0 {
		return nil, fmt.Errorf("%w: response has no alternatives", ErrEmpty)
	}

	alt := dg.Results.Channels[0].Alternatives[0]
	if strings.TrimSpace(alt.Transcript) == "" {
		return nil, ErrEmpty
	}

	t := &Transcript{
		Text:       alt.Transcript,
		Confidence: alt.Confidence,
		Words:      make([]Word, 0, len(alt.Words)),
	}
	for _, w := range alt.Words {
		t.Words = append(t.Words, Word{
			Word:       w.Word,
			StartSec:   w.Start,
			EndSec:     w.End,
			Confidence: w.Confidence,
		})
		if w.Type == "filler" {
			t.Fillers = append(t.Fillers, w.Word)
		}
	}
	return t, nil
}
