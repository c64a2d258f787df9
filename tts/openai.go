package tts

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/sashabaranov/go-openai"
)

// OpenAIVoices maps language codes to OpenAI voices.
var OpenAIVoices = map[string]openai.SpeechVoice{
	"en": openai.VoiceAlloy,
	"es": openai.VoiceNova,
	"fr": openai.VoiceShimmer,
	"de": openai.VoiceEcho,
	"it": openai.VoiceFable,
	"pt": openai.VoiceOnyx,
}

type OpenAISynthesizer struct {
	client *openai.Client
	model  openai.SpeechModel
	logger *log.Logger
}

func NewOpenAISynthesizer(
	config openai.ClientConfig,
	model string,
	logger *log.Logger,
) *OpenAISynthesizer {
	if model == "" {
		model = string(openai.TTSModel1)
	}
	return &OpenAISynthesizer{
		client: openai.NewClientWithConfig(config),
		model:  openai.SpeechModel(model),
		logger: logger,
	}
}

func (s *OpenAISynthesizer) Synthesize(
	ctx context.Context,
	text, lang string,
) ([]byte, error) {
	voice, ok := OpenAIVoices[lang]
	if !ok {
		voice = openai.VoiceAlloy
	}

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          s.model,
		Input:          text,
		Voice:          voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
		Speed:          1.0,
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read speech: %w", err)
	}

	s.logger.Debug(
		"spoke",
		"lang", lang,
		"voice", voice,
		"size", humanize.Bytes(uint64(len(audio))),
	)
	return audio, nil
}
