package tts

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/sashabaranov/go-openai"
	"node.town/parley/config"
)

// Synthesizer turns text into MP3 audio spoken in lang.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string) ([]byte, error)
}

// New builds the backend named by cfg.TTS.Backend.
func New(cfg *config.Config, logger *log.Logger) (Synthesizer, error) {
	switch cfg.TTS.Backend {
	case "", "openai":
		return NewOpenAISynthesizer(
			OpenAIClientConfig(cfg.OpenAI),
			cfg.OpenAI.TTSModel,
			logger,
		), nil
	case "elevenlabs":
		if cfg.TTS.ElevenLabs.APIKey == "" {
			return nil, fmt.Errorf("elevenlabs: missing api key")
		}
		return NewElevenLabsSynthesizer(cfg.TTS.ElevenLabs, logger), nil
	case "polly":
		return NewPollySynthesizer(cfg.TTS.Polly, nil, logger), nil
	default:
		return nil, fmt.Errorf("unknown tts backend %q", cfg.TTS.Backend)
	}
}

// OpenAIClientConfig maps the openai section onto a go-openai client config.
func OpenAIClientConfig(cfg config.OpenAIConfig) openai.ClientConfig {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return clientConfig
}

func voiceFor(voices map[string]string, lang, fallback string) string {
	if v, ok := voices[lang]; ok && v != "" {
		return v
	}
	return fallback
}
