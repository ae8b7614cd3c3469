package provider

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

// azureOutputFormat requests RIFF WAV so playback needs no transcoding.
const azureOutputFormat = "riff-24khz-16bit-mono-pcm"

// azureClient speaks the Cognitive Services SSML wire format.
type azureClient struct {
	client *http.Client
	apiKey string
	url    string
	voice  string
	lang   string
}

func newAzureClient(client *http.Client, cfg Config) *azureClient {
	return &azureClient{
		client: client,
		apiKey: cfg.APIKey,
		url:    azureEndpointURL(cfg.Endpoint),
		voice:  cfg.Voice,
		lang:   normalizeLanguageTag(cfg.Language),
	}
}

// azureEndpointURL accepts either a full URL or a bare region name.
func azureEndpointURL(endpoint string) string {
	if strings.Contains(endpoint, "://") {
		return endpoint
	}
	region := endpoint
	if region == "" {
		region = "eastus"
	}
	return fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", region)
}

// normalizeLanguageTag canonicalizes tags like "en-us" to "en-US" so the
// SSML xml:lang attribute matches what the service expects.
func normalizeLanguageTag(lang string) string {
	if lang == "" {
		return defaultAzureLanguage
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return defaultAzureLanguage
	}
	return tag.String()
}

func (c *azureClient) Synthesize(ctx context.Context, text string) (Result, error) {
	body, err := buildSSML(c.lang, c.voice, text)
	if err != nil {
		return Result{}, &RequestError{Provider: KindAzure, Message: "build ssml", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, &RequestError{Provider: KindAzure, Message: "build request", Cause: err}
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", azureOutputFormat)
	req.Header.Set("User-Agent", "murmur")

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, newTransportError(KindAzure, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return Result{}, newStatusError(KindAzure, resp.StatusCode, "", strings.TrimSpace(string(detail)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &RequestError{Provider: KindAzure, Message: "read audio body", Cause: err}
	}
	if len(audio) == 0 {
		return Result{}, &RequestError{Provider: KindAzure, Message: "empty audio response"}
	}

	return Result{Audio: audio, Format: FormatWAV, SourceURL: c.url}, nil
}

// buildSSML assembles the speak document with the text XML-escaped.
func buildSSML(lang, voice, text string) ([]byte, error) {
	var escaped bytes.Buffer
	if err := xml.EscapeText(&escaped, []byte(text)); err != nil {
		return nil, err
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "<speak version='1.0' xml:lang='%s'>", lang)
	fmt.Fprintf(&b, "<voice xml:lang='%s' name='%s'>", lang, voice)
	b.Write(escaped.Bytes())
	b.WriteString("</voice></speak>")
	return b.Bytes(), nil
}
