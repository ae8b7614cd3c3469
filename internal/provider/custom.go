package provider

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// customClient targets a user-supplied endpoint. In compatibility mode it
// reuses the OpenAI wire format against the custom base URL. Otherwise it
// posts a form request and accepts the loose conventions of self-hosted
// TTS bridges: raw audio bytes, a JSON envelope with a URL to fetch, or a
// JSON envelope with base64 audio.
type customClient struct {
	client *http.Client
	cfg    Config
}

// customEnvelope is the JSON response shape of non-compatible endpoints.
type customEnvelope struct {
	URL   string `json:"url"`
	Audio string `json:"audio"`
	Error string `json:"error"`
}

func newCustomClient(client *http.Client, cfg Config) *customClient {
	return &customClient{client: client, cfg: cfg}
}

func (c *customClient) Synthesize(ctx context.Context, text string) (Result, error) {
	if c.cfg.CompatibilityMode {
		return newOpenAIClient(c.client, c.cfg).Synthesize(ctx, text)
	}

	form := url.Values{}
	form.Set("text", text)
	if c.cfg.Voice != "" {
		form.Set("voice", c.cfg.Voice)
	}
	if c.cfg.Model != "" {
		form.Set("model", c.cfg.Model)
	}
	if c.cfg.Language != "" {
		form.Set("language", c.cfg.Language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Result{}, &RequestError{Provider: KindCustom, Message: "build request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, newTransportError(KindCustom, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &RequestError{Provider: KindCustom, Message: "read response", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		var envelope customEnvelope
		if jerr := json.Unmarshal(body, &envelope); jerr == nil && envelope.Error != "" {
			return Result{}, newStatusError(KindCustom, resp.StatusCode, "", envelope.Error)
		}
		return Result{}, newStatusError(KindCustom, resp.StatusCode, "", strings.TrimSpace(string(body)))
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/json") {
		return c.resolveEnvelope(ctx, body)
	}

	if len(body) == 0 {
		return Result{}, &RequestError{Provider: KindCustom, Message: "empty audio response"}
	}
	return Result{Audio: body, Format: formatFromContentType(contentType), SourceURL: c.cfg.Endpoint}, nil
}

// resolveEnvelope turns a JSON response into audio bytes, following a URL
// or decoding an inline base64 payload.
func (c *customClient) resolveEnvelope(ctx context.Context, body []byte) (Result, error) {
	var envelope customEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Result{}, &RequestError{Provider: KindCustom, Message: "malformed response envelope", Cause: err}
	}
	if envelope.Error != "" {
		return Result{}, &RequestError{Provider: KindCustom, Message: envelope.Error}
	}

	switch {
	case envelope.Audio != "":
		audio, err := base64.StdEncoding.DecodeString(envelope.Audio)
		if err != nil {
			return Result{}, &RequestError{Provider: KindCustom, Message: "decode base64 audio", Cause: err}
		}
		return Result{Audio: audio, SourceURL: c.cfg.Endpoint}, nil

	case envelope.URL != "":
		return c.fetchAudio(ctx, envelope.URL)

	default:
		return Result{}, &RequestError{Provider: KindCustom, Message: "response envelope carried no audio or url"}
	}
}

// fetchAudio downloads audio the endpoint linked to.
func (c *customClient) fetchAudio(ctx context.Context, audioURL string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return Result{}, &RequestError{Provider: KindCustom, Message: "build audio fetch", Cause: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, newTransportError(KindCustom, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return Result{}, newStatusError(KindCustom, resp.StatusCode, "", "audio fetch failed")
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &RequestError{Provider: KindCustom, Message: "read fetched audio", Cause: err}
	}
	if len(audio) == 0 {
		return Result{}, &RequestError{Provider: KindCustom, Message: "fetched audio was empty"}
	}

	return Result{Audio: audio, Format: formatFromContentType(resp.Header.Get("Content-Type")), SourceURL: audioURL}, nil
}

func formatFromContentType(contentType string) Format {
	switch {
	case strings.Contains(contentType, "mpeg"), strings.Contains(contentType, "mp3"):
		return FormatMP3
	case strings.Contains(contentType, "wav"), strings.Contains(contentType, "x-wav"):
		return FormatWAV
	default:
		return FormatUnknown
	}
}
