package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// openAIClient speaks the OpenAI audio/speech wire format. Kokoro servers
// and compatibility-mode custom endpoints reuse it with their own base
// URLs.
type openAIClient struct {
	client   *http.Client
	kind     Kind
	endpoint string
	apiKey   string
	model    string
	voice    string
	speed    float64
}

// speechRequest is the audio/speech request body.
type speechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format,omitempty"`
	Speed          float64 `json:"speed,omitempty"`
}

// apiError is the error envelope returned on non-success statuses.
type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

func newOpenAIClient(client *http.Client, cfg Config) *openAIClient {
	return &openAIClient{
		client:   client,
		kind:     cfg.Kind,
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		voice:    cfg.Voice,
		speed:    cfg.Speed,
	}
}

// Synthesize posts the request and returns the MP3 payload.
func (c *openAIClient) Synthesize(ctx context.Context, text string) (Result, error) {
	reqBody := speechRequest{
		Model:          c.model,
		Input:          text,
		Voice:          c.voice,
		ResponseFormat: "mp3",
	}
	if c.speed != 1.0 {
		reqBody.Speed = c.speed
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return Result{}, &RequestError{Provider: c.kind, Message: "encode request", Cause: err}
	}

	url := speechURL(c.endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Result{}, &RequestError{Provider: c.kind, Message: "build request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, newTransportError(c.kind, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return Result{}, c.decodeError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &RequestError{Provider: c.kind, Message: "read audio body", Cause: err}
	}
	if len(audio) == 0 {
		return Result{}, &RequestError{Provider: c.kind, Message: "empty audio response"}
	}

	return Result{Audio: audio, Format: FormatMP3, SourceURL: url}, nil
}

// decodeError parses the provider error envelope, falling back to the
// raw body when it is not the documented JSON shape.
func (c *openAIClient) decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var envelope apiError
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return newStatusError(c.kind, resp.StatusCode, envelope.Error.Code, envelope.Error.Message)
	}
	return newStatusError(c.kind, resp.StatusCode, "", strings.TrimSpace(string(body)))
}

// speechURL joins a versioned base URL with the audio/speech path.
func speechURL(endpoint string) string {
	return fmt.Sprintf("%s/audio/speech", strings.TrimSuffix(endpoint, "/"))
}
