package session

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/charmbracelet/log"
)

type turnJob struct {
	order      int
	transcript string
	source     string
	target     string
	logger     *log.Logger
}

// runPipeline translates then synthesizes one turn. Each provider is
// called once; a failure ends this turn only.
func (o *Orchestrator) runPipeline(ctx context.Context, job turnJob) {
	start := o.now()
	translated, err := o.translator.Translate(ctx, job.transcript, job.source, job.target)
	if err != nil {
		o.pipelineFailed(job, "translate", err)
		return
	}
	translateLatency := o.now().Sub(start).Milliseconds()

	job.logger.Info("translated", "to", job.target, "ms", translateLatency)
	o.send(job.logger, Translation{
		Original:         job.transcript,
		Translated:       translated,
		SourceLang:       job.source,
		TargetLang:       job.target,
		TranslateLatency: translateLatency,
		TurnOrder:        job.order,
	})

	start = o.now()
	audio, err := o.synthesizer.Synthesize(ctx, translated, job.target)
	if err != nil {
		o.pipelineFailed(job, "synthesize", err)
		return
	}
	ttsLatency := o.now().Sub(start).Milliseconds()

	job.logger.Info("spoke", "ms", ttsLatency)
	o.send(job.logger, TTSAudio{
		Audio:      base64.StdEncoding.EncodeToString(audio),
		TTSLatency: ttsLatency,
		TurnOrder:  job.order,
	})
}

func (o *Orchestrator) pipelineFailed(job turnJob, stage string, err error) {
	job.logger.Error("pipeline failed", "stage", stage, "error", err)
	o.send(job.logger, Error{Message: fmt.Sprintf("pipeline error: %v", err)})
}
