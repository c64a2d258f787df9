package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/sashabaranov/go-openai"
)

type Translator interface {
	Translate(
		ctx context.Context,
		text, sourceLang, targetLang string,
	) (string, error)
}

var languageNames = map[string]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
}

// Languages lists the codes with a known display name, in a stable order.
var Languages = []string{"en", "es", "fr", "de", "it", "pt"}

// LanguageName returns the English name for code, or code itself.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return code
}

type OpenAITranslator struct {
	client *openai.Client
	model  string
	logger *log.Logger
}

func NewOpenAITranslator(
	config openai.ClientConfig,
	model string,
	logger *log.Logger,
) *OpenAITranslator {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAITranslator{
		client: openai.NewClientWithConfig(config),
		model:  model,
		logger: logger,
	}
}

func systemPrompt(sourceLang, targetLang string) string {
	return fmt.Sprintf(
		"You are a professional translator. Translate the following text from %s to %s. "+
			"Return ONLY the translated text. Preserve the original tone, meaning, and punctuation.",
		LanguageName(sourceLang),
		LanguageName(targetLang),
	)
}

func (t *OpenAITranslator) Translate(
	ctx context.Context,
	text, sourceLang, targetLang string,
) (string, error) {
	resp, err := t.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: t.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt(sourceLang, targetLang),
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: text,
				},
			},
			Temperature: 0.3,
			MaxTokens:   1000,
		},
	)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf(
				"translate: openai %d: %s",
				apiErr.HTTPStatusCode,
				apiErr.Message,
			)
		}
		return "", fmt.Errorf("translate: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}

	translated := strings.TrimSpace(resp.Choices[0].Message.Content)
	t.logger.Debug("translated", "from", sourceLang, "to", targetLang, "txt", translated)
	return translated, nil
}
