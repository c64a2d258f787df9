package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	pollytypes "github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/aws/smithy-go"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"node.town/parley/config"
)

// PollyVoices are neural voices used when the config names none.
var PollyVoices = map[string]string{
	"en": "Joanna",
	"es": "Lupe",
	"fr": "Lea",
	"de": "Vicki",
	"it": "Bianca",
	"pt": "Camila",
}

type pollyClient interface {
	SynthesizeSpeech(
		ctx context.Context,
		params *polly.SynthesizeSpeechInput,
		optFns ...func(*polly.Options),
	) (*polly.SynthesizeSpeechOutput, error)
}

type PollySynthesizer struct {
	mu     sync.Mutex
	client pollyClient
	cfg    config.PollyConfig
	logger *log.Logger
}

// NewPollySynthesizer loads AWS credentials lazily on first use when
// client is nil.
func NewPollySynthesizer(
	cfg config.PollyConfig,
	client pollyClient,
	logger *log.Logger,
) *PollySynthesizer {
	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = "us-east-1"
	}
	if strings.TrimSpace(cfg.Engine) == "" {
		cfg.Engine = "neural"
	}
	return &PollySynthesizer{client: client, cfg: cfg, logger: logger}
}

func (p *PollySynthesizer) Synthesize(
	ctx context.Context,
	text, lang string,
) ([]byte, error) {
	client, err := p.resolveClient(ctx)
	if err != nil {
		return nil, err
	}

	engine := pollytypes.EngineStandard
	if strings.EqualFold(p.cfg.Engine, "neural") {
		engine = pollytypes.EngineNeural
	}
	voice := voiceFor(p.cfg.Voices, lang, voiceFor(PollyVoices, lang, "Joanna"))

	output, err := client.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
		Engine:       engine,
		OutputFormat: pollytypes.OutputFormatMp3,
		Text:         &text,
		TextType:     pollytypes.TextTypeText,
		VoiceId:      pollytypes.VoiceId(voice),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf(
				"polly %s: %s",
				apiErr.ErrorCode(),
				apiErr.ErrorMessage(),
			)
		}
		return nil, fmt.Errorf("polly: %w", err)
	}
	if output == nil || output.AudioStream == nil {
		return nil, fmt.Errorf("polly: empty audio")
	}
	defer output.AudioStream.Close()

	audio, err := io.ReadAll(output.AudioStream)
	if err != nil {
		return nil, fmt.Errorf("read polly audio: %w", err)
	}

	p.logger.Debug(
		"spoke",
		"lang", lang,
		"voice", voice,
		"size", humanize.Bytes(uint64(len(audio))),
	)
	return audio, nil
}

func (p *PollySynthesizer) resolveClient(ctx context.Context) (pollyClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(p.cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	p.client = polly.NewFromConfig(awsCfg)
	return p.client, nil
}
