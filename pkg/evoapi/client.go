package evoapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrMissingConfig is returned when the gateway URL, key or instance is empty.
var ErrMissingConfig = errors.New("evoapi configuration incomplete")

// Config identifies one gateway instance.
type Config struct {
	BaseURL  string
	APIKey   string
	Instance string
}

// Complete reports whether all fields are set.
func (c Config) Complete() bool {
	return c.BaseURL != "" && c.APIKey != "" && c.Instance != ""
}

// MediaMessage is the body of POST /message/sendMedia/{instance}.
type MediaMessage struct {
	Number    string `json:"number"`
	MediaType string `json:"mediatype"`
	MimeType  string `json:"mimetype"`
	Media     string `json:"media"`
	FileName  string `json:"fileName"`
	Caption   string `json:"caption"`
}

// NewImageMessage builds a JPEG media message with the image base64-encoded.
func NewImageMessage(number string, jpeg []byte, fileName, caption string) MediaMessage {
	return MediaMessage{
		Number:    number,
		MediaType: "image",
		MimeType:  "image/jpeg",
		Media:     base64.StdEncoding.EncodeToString(jpeg),
		FileName:  fileName,
		Caption:   caption,
	}
}

// APIError is a non-2xx answer from the gateway.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("evoapi: status %d - %s", e.StatusCode, e.Body)
}

// Client sends messages through an Evolution API gateway.
type Client struct {
	httpClient *http.Client
	debug      bool
}

// NewClient returns a client with the given request timeout (30s when zero).
// Gateway coordinates are passed per call since they are runtime settings.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		debug:      os.Getenv("ENV") == "development",
	}
}

// SendMedia posts msg to the instance and returns the raw gateway answer.
func (c *Client) SendMedia(ctx context.Context, cfg Config, msg MediaMessage) (json.RawMessage, error) {
	if !cfg.Complete() {
		return nil, ErrMissingConfig
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := strings.TrimSuffix(cfg.BaseURL, "/") + "/message/sendMedia/" + url.PathEscape(cfg.Instance)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", cfg.APIKey)

	if c.debug {
		log.Debug().
			Str("endpoint", endpoint).
			Str("number", msg.Number).
			Str("file", msg.FileName).
			Msg("[EVOAPI] Outgoing request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if c.debug {
		log.Debug().
			Int("status_code", resp.StatusCode).
			Str("response", string(respBody)).
			Msg("[EVOAPI] Incoming response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
	if !json.Valid(respBody) {
		return json.RawMessage("null"), nil
	}
	return respBody, nil
}
