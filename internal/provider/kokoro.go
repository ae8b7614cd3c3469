package provider

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
)

// kokoroClient speaks to a Kokoro server over its OpenAI-compatible
// endpoint. Outside compatibility mode the request may carry Kokoro's
// extensions; with CompatibilityMode set the payload is confined to the
// strict OpenAI field set so it works against any compatible server.
type kokoroClient struct {
	client *http.Client
	cfg    Config
}

// kokoroRequest extends the OpenAI body with Kokoro's fields.
type kokoroRequest struct {
	speechRequest
	LangCode string `json:"lang_code,omitempty"`
}

func newKokoroClient(client *http.Client, cfg Config) *kokoroClient {
	return &kokoroClient{client: client, cfg: cfg}
}

func (c *kokoroClient) Synthesize(ctx context.Context, text string) (Result, error) {
	if c.cfg.CompatibilityMode {
		return newOpenAIClient(c.client, c.cfg).Synthesize(ctx, text)
	}

	reqBody := kokoroRequest{
		speechRequest: speechRequest{
			Model:          c.cfg.Model,
			Input:          text,
			Voice:          c.cfg.Voice,
			ResponseFormat: "mp3",
		},
		LangCode: c.cfg.Language,
	}
	if c.cfg.Speed != 1.0 {
		reqBody.Speed = c.cfg.Speed
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return Result{}, &RequestError{Provider: KindKokoro, Message: "encode request", Cause: err}
	}

	url := speechURL(c.cfg.Endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Result{}, &RequestError{Provider: KindKokoro, Message: "build request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, newTransportError(KindKokoro, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		var envelope apiError
		if jerr := json.Unmarshal(detail, &envelope); jerr == nil && envelope.Error.Message != "" {
			return Result{}, newStatusError(KindKokoro, resp.StatusCode, envelope.Error.Code, envelope.Error.Message)
		}
		return Result{}, newStatusError(KindKokoro, resp.StatusCode, "", strings.TrimSpace(string(detail)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &RequestError{Provider: KindKokoro, Message: "read audio body", Cause: err}
	}
	if len(audio) == 0 {
		return Result{}, &RequestError{Provider: KindKokoro, Message: "empty audio response"}
	}

	return Result{Audio: audio, Format: FormatMP3, SourceURL: url}, nil
}
