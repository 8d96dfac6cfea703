package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL   = "https://api.elevenlabs.io"
	defaultUserAgent = "leadpilot-voice/0.1"
	defaultModelID   = "eleven_turbo_v2_5"
	sttModelID       = "scribe_v1"
)

// Config controls how the speech client behaves.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
	UserAgent  string
	ModelID    string
}

// Client wraps the ElevenLabs endpoints the voice pipeline needs:
// text-to-speech synthesis and speech-to-text transcription.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	logger     *slog.Logger
	userAgent  string
	modelID    string
}

// New creates a configured Client with sane defaults.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("voice: API key is required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = 250 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	modelID := strings.TrimSpace(cfg.ModelID)
	if modelID == "" {
		modelID = defaultModelID
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		maxRetries: maxRetries,
		backoff:    backoff,
		logger:     logger,
		userAgent:  userAgent,
		modelID:    modelID,
	}, nil
}

// Synthesize renders text to MP3 audio with the given voice.
func (c *Client) Synthesize(ctx context.Context, text, voiceID string, speed float64) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("voice: text required")
	}
	if strings.TrimSpace(voiceID) == "" {
		return nil, errors.New("voice: voice id required")
	}
	body, err := json.Marshal(struct {
		Text          string `json:"text"`
		ModelID       string `json:"model_id"`
		VoiceSettings struct {
			Stability       float64 `json:"stability"`
			SimilarityBoost float64 `json:"similarity_boost"`
			Speed           float64 `json:"speed,omitempty"`
		} `json:"voice_settings"`
	}{
		Text:    text,
		ModelID: c.modelID,
		VoiceSettings: struct {
			Stability       float64 `json:"stability"`
			SimilarityBoost float64 `json:"similarity_boost"`
			Speed           float64 `json:"speed,omitempty"`
		}{Stability: 0.5, SimilarityBoost: 0.75, Speed: speed},
	})
	if err != nil {
		return nil, fmt.Errorf("voice: marshal synthesis body: %w", err)
	}
	return c.invoke(ctx, http.MethodPost, "/v1/text-to-speech/"+voiceID, body, "application/json")
}

// Transcription is a speech-to-text result. Confidence is the provider's
// overall probability for the transcript, in [0, 1].
type Transcription struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Transcribe converts recorded audio to text.
func (c *Client) Transcribe(ctx context.Context, audio []byte, fileName string) (*Transcription, error) {
	if len(audio) == 0 {
		return nil, errors.New("voice: audio required")
	}
	if fileName == "" {
		fileName = "recording.webm"
	}
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("model_id", sttModelID); err != nil {
		return nil, fmt.Errorf("voice: write field: %w", err)
	}
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("voice: create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("voice: copy audio: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("voice: close multipart writer: %w", err)
	}
	data, err := c.invoke(ctx, http.MethodPost, "/v1/speech-to-text", buf.Bytes(), writer.FormDataContentType())
	if err != nil {
		return nil, err
	}
	var out struct {
		Text  string `json:"text"`
		Words []struct {
			Logprob float64 `json:"logprob"`
		} `json:"words"`
		LanguageProbability float64 `json:"language_probability"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("voice: decode transcription: %w", err)
	}
	return &Transcription{
		Text:       out.Text,
		Confidence: out.LanguageProbability,
	}, nil
}

func (c *Client) invoke(ctx context.Context, method, path string, body []byte, contentType string) ([]byte, error) {
	fullURL := c.baseURL + "/" + strings.TrimLeft(path, "/")
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("voice: build request: %w", err)
		}
		req.Header.Set("xi-api-key", c.apiKey)
		req.Header.Set("User-Agent", c.userAgent)
		if body != nil {
			ct := contentType
			if ct == "" {
				ct = "application/json"
			}
			req.Header.Set("Content-Type", ct)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !shouldRetry(0, err) || attempt == c.maxRetries {
				return nil, fmt.Errorf("voice: http error: %w", err)
			}
			lastErr = err
			c.logRetry(path, attempt, 0, err)
			if sleepErr := c.sleep(ctx, attempt); sleepErr != nil {
				return nil, sleepErr
			}
			continue
		}
		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("voice: read response: %w", readErr)
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return data, nil
		}
		apiErr := decodeAPIError(resp.StatusCode, data)
		if attempt < c.maxRetries && shouldRetry(resp.StatusCode, nil) {
			lastErr = apiErr
			c.logRetry(path, attempt, resp.StatusCode, apiErr)
			if sleepErr := c.sleep(ctx, attempt); sleepErr != nil {
				return nil, sleepErr
			}
			continue
		}
		return nil, apiErr
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, errors.New("voice: request failed without response")
}

func (c *Client) sleep(ctx context.Context, attempt int) error {
	delay := c.backoff * time.Duration(1<<attempt)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) logRetry(path string, attempt int, status int, err error) {
	if c.logger == nil {
		return
	}
	c.logger.Warn("voice provider retry",
		"path", path,
		"attempt", attempt+1,
		"status", status,
		"error", err,
	)
}

func shouldRetry(status int, err error) bool {
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return true
		}
		return !errors.Is(err, context.Canceled)
	}
	if status == http.StatusTooManyRequests {
		return true
	}
	if status >= 500 && status <= 599 {
		return true
	}
	return false
}

// APIError is a non-2xx response from the speech provider.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("voice: provider returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("voice: provider returned %d", e.StatusCode)
}

func decodeAPIError(status int, data []byte) error {
	var payload struct {
		Detail struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"detail"`
	}
	apiErr := &APIError{StatusCode: status}
	if err := json.Unmarshal(data, &payload); err == nil {
		apiErr.Message = payload.Detail.Message
		if apiErr.Message == "" {
			apiErr.Message = payload.Detail.Status
		}
	}
	return apiErr
}
