// Package provider resolves text into audio through external TTS backends
// or a local inference worker.
package provider

import (
	"context"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Kind identifies a speech provider. The set is closed: dispatch happens
// over exactly these values, never over free-form strings.
type Kind string

const (
	// KindOpenAI is the OpenAI speech API.
	KindOpenAI Kind = "openai"
	// KindAzure is Azure Cognitive Services speech.
	KindAzure Kind = "azure"
	// KindKokoro is a Kokoro server (OpenAI-compatible) or local worker.
	KindKokoro Kind = "kokoro"
	// KindCustom is a user-supplied endpoint.
	KindCustom Kind = "custom"
)

// Kinds returns every supported provider kind.
func Kinds() []Kind {
	return []Kind{KindOpenAI, KindAzure, KindKokoro, KindCustom}
}

// Valid reports whether k names a supported provider.
func (k Kind) Valid() bool {
	switch k {
	case KindOpenAI, KindAzure, KindKokoro, KindCustom:
		return true
	}
	return false
}

func (k Kind) String() string {
	return string(k)
}

// Format hints at the container of synthesized audio bytes.
type Format string

const (
	FormatUnknown Format = ""
	FormatMP3     Format = "mp3"
	FormatWAV     Format = "wav"
)

// Config selects and parameterizes a provider for one synthesis request.
type Config struct {
	Kind              Kind
	APIKey            string
	Endpoint          string
	Model             string
	Voice             string
	Language          string
	Speed             float64
	CompatibilityMode bool
	Local             bool
}

// Defaults per provider kind.
const (
	defaultOpenAIEndpoint = "https://api.openai.com/v1"
	defaultOpenAIModel    = "tts-1"
	defaultOpenAIVoice    = "alloy"

	defaultAzureVoice    = "en-US-AvaNeural"
	defaultAzureLanguage = "en-US"

	defaultKokoroEndpoint = "http://localhost:8880/v1"
	defaultKokoroModel    = "kokoro"
	defaultKokoroVoice    = "af_bella"
)

// Validate reports whether the configuration can dispatch a request.
// Any non-local provider requires an API key.
func (c Config) Validate() error {
	if !c.Kind.Valid() {
		return &ConfigError{Field: "kind", Err: ErrUnknownKind}
	}
	if c.Local && c.Kind != KindKokoro {
		return &ConfigError{Field: "local", Err: ErrLocalUnsupported}
	}
	if !c.Local && c.APIKey == "" {
		return &ConfigError{Field: "apiKey", Err: ErrMissingAPIKey}
	}
	if c.Kind == KindCustom && c.Endpoint == "" {
		return &ConfigError{Field: "endpoint", Err: ErrEndpointRequired}
	}
	return nil
}

// withDefaults fills the per-kind defaults for unset fields.
func (c Config) withDefaults() Config {
	if c.Speed == 0 {
		c.Speed = 1.0
	}
	switch c.Kind {
	case KindOpenAI:
		if c.Endpoint == "" {
			c.Endpoint = defaultOpenAIEndpoint
		}
		if c.Model == "" {
			c.Model = defaultOpenAIModel
		}
		if c.Voice == "" {
			c.Voice = defaultOpenAIVoice
		}
	case KindAzure:
		if c.Voice == "" {
			c.Voice = defaultAzureVoice
		}
		if c.Language == "" {
			c.Language = defaultAzureLanguage
		}
	case KindKokoro:
		if c.Endpoint == "" {
			c.Endpoint = defaultKokoroEndpoint
		}
		if c.Model == "" {
			c.Model = defaultKokoroModel
		}
		if c.Voice == "" {
			c.Voice = defaultKokoroVoice
		}
	}
	return c
}

// Result carries resolved audio. Audio always holds the playable bytes;
// SourceURL records where remote audio came from when the provider handed
// back a link instead of a payload.
type Result struct {
	Audio     []byte
	Format    Format
	SourceURL string
}

// Synthesizer is one provider-kind resolver.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (Result, error)
}

// Voices returns the known voice catalog for a provider kind. Custom
// endpoints have no catalog.
func Voices(kind Kind) []string {
	switch kind {
	case KindOpenAI:
		return []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer"}
	case KindAzure:
		return []string{
			"en-US-AvaNeural",
			"en-US-AndrewNeural",
			"en-US-EmmaNeural",
			"en-US-BrianNeural",
			"en-US-JennyNeural",
			"en-US-GuyNeural",
			"en-GB-SoniaNeural",
			"de-DE-KatjaNeural",
		}
	case KindKokoro:
		return []string{
			"af_bella",
			"af_nicole",
			"af_sarah",
			"af_sky",
			"am_adam",
			"am_michael",
			"bf_emma",
			"bf_isabella",
			"bm_george",
			"bm_lewis",
		}
	default:
		return nil
	}
}
