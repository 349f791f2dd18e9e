package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultBaseURL targets the public Generative Language API.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiClient talks to a Gemini-style cachedContents REST API. The zero
// value is unusable; APIKey must be set for the client to report available.
type GeminiClient struct {
	// BaseURL overrides the API endpoint, e.g. for a local stub. Empty means
	// DefaultBaseURL.
	BaseURL string
	// APIKey authenticates requests. Empty means the client is unavailable.
	APIKey string
	// HTTPClient, when nil, falls back to a default client.
	HTTPClient *http.Client
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// PerRequestTimeout bounds each attempt.
	PerRequestTimeout time.Duration
}

// Available reports whether an API key is configured.
func (c *GeminiClient) Available() bool {
	return c != nil && strings.TrimSpace(c.APIKey) != ""
}

type cachedContentPart struct {
	Text string `json:"text"`
}

type cachedContentBlock struct {
	Role  string              `json:"role,omitempty"`
	Parts []cachedContentPart `json:"parts"`
}

type cachedContentBody struct {
	Model             string               `json:"model"`
	Contents          []cachedContentBlock `json:"contents"`
	SystemInstruction *cachedContentBlock  `json:"systemInstruction,omitempty"`
	TTL               string               `json:"ttl"`
	DisplayName       string               `json:"displayName,omitempty"`
}

type cachedContentResponse struct {
	Name string `json:"name"`
}

// Create registers req as a remote cached content object and returns the
// provider-assigned name, e.g. "cachedContents/abc123".
func (c *GeminiClient) Create(ctx context.Context, req CreateRequest) (string, error) {
	body := cachedContentBody{
		Model:       qualifyModel(req.Model),
		TTL:         ttlString(req.TTL),
		DisplayName: req.DisplayName,
	}
	for _, text := range req.Contents {
		body.Contents = append(body.Contents, cachedContentBlock{
			Role:  "user",
			Parts: []cachedContentPart{{Text: text}},
		})
	}
	if req.SystemInstruction != "" {
		body.SystemInstruction = &cachedContentBlock{
			Parts: []cachedContentPart{{Text: req.SystemInstruction}},
		}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	var out cachedContentResponse
	err = c.doWithRetry(ctx, http.MethodPost, c.baseURL()+"/cachedContents", payload, &out)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Name) == "" {
		return "", errors.New("create response missing cache name")
	}
	return out.Name, nil
}

// Delete removes the remote cached content object identified by handle.
func (c *GeminiClient) Delete(ctx context.Context, handle string) error {
	if strings.TrimSpace(handle) == "" {
		return errors.New("empty handle")
	}
	return c.doWithRetry(ctx, http.MethodDelete, c.baseURL()+"/"+handle, nil, nil)
}

func (c *GeminiClient) baseURL() string {
	if strings.TrimSpace(c.BaseURL) != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return DefaultBaseURL
}

// doWithRetry issues the request with bounded retry on transient errors,
// mirroring the attempt/backoff policy used for other outbound HTTP here.
func (c *GeminiClient) doWithRetry(ctx context.Context, method, url string, payload []byte, out any) error {
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		err := c.tryOnce(ctx, method, url, payload, out)
		if err == nil {
			return nil
		}
		if !isTransient(err) || i == attempts-1 {
			return err
		}
		lastErr = err
		log.Debug().Err(err).Str("url", url).Int("attempt", i+1).Msg("transient provider error, retrying")
		time.Sleep(time.Duration(i+1) * 200 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

func (c *GeminiClient) tryOnce(ctx context.Context, method, url string, payload []byte, out any) error {
	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.PerRequestTimeout)
		defer cancel()
	}
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Goog-Api-Key", c.APIKey)

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: c.PerRequestTimeout}
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 && resp.StatusCode <= 599 {
		return fmt.Errorf("server error: %d", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return strings.Contains(err.Error(), "server error:")
}

// qualifyModel ensures the resource-style "models/" prefix the API expects.
func qualifyModel(model string) string {
	if model == "" || strings.Contains(model, "/") {
		return model
	}
	return "models/" + model
}

// ttlString renders a duration as the "<seconds>s" string the API expects.
func ttlString(ttl time.Duration) string {
	secs := int64(ttl / time.Second)
	if secs < 0 {
		secs = 0
	}
	return strconv.FormatInt(secs, 10) + "s"
}
