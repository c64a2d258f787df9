package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/haguro/elevenlabs-go"
	"node.town/parley/config"
)

const (
	DefaultElevenLabsVoice = "pKLLpypGseGMUjkb5fEZ"
	DefaultElevenLabsModel = "eleven_turbo_v2_5"
)

type elevenLabsStreamer interface {
	TextToSpeechStream(
		streamWriter io.Writer,
		voiceID string,
		ttsReq elevenlabs.TextToSpeechRequest,
		queries ...elevenlabs.QueryFunc,
	) error
}

type ElevenLabsSynthesizer struct {
	model     string
	voices    map[string]string
	newClient func(ctx context.Context) elevenLabsStreamer
	logger    *log.Logger
}

func NewElevenLabsSynthesizer(
	cfg config.ElevenLabsConfig,
	logger *log.Logger,
) *ElevenLabsSynthesizer {
	model := cfg.Model
	if model == "" {
		model = DefaultElevenLabsModel
	}
	apiKey := cfg.APIKey
	return &ElevenLabsSynthesizer{
		model:  model,
		voices: cfg.Voices,
		newClient: func(ctx context.Context) elevenLabsStreamer {
			return elevenlabs.NewClient(ctx, apiKey, 30*time.Second)
		},
		logger: logger,
	}
}

func (e *ElevenLabsSynthesizer) Synthesize(
	ctx context.Context,
	text, lang string,
) ([]byte, error) {
	voice := voiceFor(e.voices, lang, DefaultElevenLabsVoice)

	var buf bytes.Buffer
	err := e.newClient(ctx).TextToSpeechStream(
		&buf,
		voice,
		elevenlabs.TextToSpeechRequest{
			Text:    text,
			ModelID: e.model,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate speech: %w", err)
	}

	e.logger.Debug(
		"spoke",
		"lang", lang,
		"voice", voice,
		"size", humanize.Bytes(uint64(buf.Len())),
	)
	return buf.Bytes(), nil
}
