package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sourcegraph/conc"
	"node.town/parley/assemblyai"
	"node.town/parley/translate"
	"node.town/parley/tts"
)

// Link is the upstream transcription connection as the orchestrator
// uses it. *assemblyai.Link implements it.
type Link interface {
	Events() <-chan assemblyai.Event
	Send(frame []byte) error
	Terminate() error
	ForceEndpoint() error
	Close() error
}

type Connector interface {
	Connect(ctx context.Context, p assemblyai.Params) (Link, error)
}

type ConnectorFunc func(ctx context.Context, p assemblyai.Params) (Link, error)

func (f ConnectorFunc) Connect(ctx context.Context, p assemblyai.Params) (Link, error) {
	return f(ctx, p)
}

// AssemblyAI adapts a streaming client to a Connector.
func AssemblyAI(c *assemblyai.Client) Connector {
	return ConnectorFunc(func(ctx context.Context, p assemblyai.Params) (Link, error) {
		link, err := c.Connect(ctx, p)
		if err != nil {
			return nil, err
		}
		return link, nil
	})
}

type dialResult struct {
	gen  int
	link Link
	err  error
}

// Orchestrator owns one client connection and at most one upstream link.
// All of its fields except the atomics are touched only by the Run loop.
type Orchestrator struct {
	sink        Sink
	connector   Connector
	translator  translate.Translator
	synthesizer tts.Synthesizer
	defaults    Config
	base        *log.Logger
	logger      *log.Logger
	now         func() time.Time

	state   atomic.Int32
	dropped atomic.Int64

	config        Config
	link          Link
	linkGen       int
	terminateSent bool
	sessionID     string
	cleanup       bool
	clock         turnClock
	dialed        chan dialResult
	pipelines     conc.WaitGroup
}

func NewOrchestrator(
	sink Sink,
	connector Connector,
	translator translate.Translator,
	synthesizer tts.Synthesizer,
	defaults Config,
	logger *log.Logger,
) *Orchestrator {
	return &Orchestrator{
		sink:        sink,
		connector:   connector,
		translator:  translator,
		synthesizer: synthesizer,
		defaults:    defaults,
		base:        logger,
		logger:      logger,
		now:         time.Now,
		config:      defaults,
		clock:       newTurnClock(),
		dialed:      make(chan dialResult),
	}
}

func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// Dropped counts audio frames that arrived while no link was accepting audio.
func (o *Orchestrator) Dropped() int64 {
	return o.dropped.Load()
}

func (o *Orchestrator) setState(s State) {
	prev := State(o.state.Swap(int32(s)))
	if prev != s {
		o.logger.Debug("state", "from", prev, "to", s)
	}
}

// Run serves the connection until inbox is closed or ctx is done, then
// tears the session down and waits for in-flight pipelines.
func (o *Orchestrator) Run(ctx context.Context, inbox <-chan Frame) {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		if r := o.pipelines.WaitAndRecover(); r != nil {
			o.logger.Error("pipeline panic", "error", r.AsError())
		}
	}()

	for {
		var events <-chan assemblyai.Event
		if o.link != nil {
			events = o.link.Events()
		}

		select {
		case <-ctx.Done():
			o.disconnect()
			return

		case f, ok := <-inbox:
			if !ok {
				o.disconnect()
				return
			}
			o.handleInbound(ctx, Classify(f))

		case r := <-o.dialed:
			o.handleDialed(r)

		case ev, ok := <-events:
			if !ok {
				o.dropLink()
				continue
			}
			o.handleEvent(ctx, ev)
		}
	}
}

func (o *Orchestrator) handleInbound(ctx context.Context, in Inbound) {
	switch in := in.(type) {
	case Audio:
		o.forward(in.Data)
	case Start:
		o.start(ctx, in.Overrides)
	case Stop:
		o.stop()
	case ForceEndpoint:
		o.forceEndpoint()
	case Ignored:
		o.logger.Debug("ignored", "reason", in.Reason)
	default:
		o.logger.Error("unhandled inbound", "kind", fmt.Sprintf("%T", in))
	}
}

func (o *Orchestrator) forward(frame []byte) {
	state := o.State()
	if o.link == nil || (state != Active && state != Stopping) {
		o.dropped.Add(1)
		return
	}

	err := o.link.Send(frame)
	switch {
	case err == nil:
	case errors.Is(err, assemblyai.ErrNotReady), errors.Is(err, assemblyai.ErrLinkClosed):
		o.dropped.Add(1)
	default:
		o.logger.Warn("forward audio", "error", err)
	}
}

func (o *Orchestrator) start(ctx context.Context, overrides Overrides) {
	if o.link != nil {
		o.logger.Info("replacing link")
		o.link.Close()
		o.link = nil
	}

	o.config = overrides.Merge(o.defaults)
	o.linkGen++
	o.terminateSent = false
	o.sessionID = ""
	o.logger = o.base
	o.setState(Connecting)

	gen := o.linkGen
	params := o.config.Params()
	o.logger.Info(
		"start",
		"pair", o.config.LanguageA+"/"+o.config.LanguageB,
		"rate", o.config.SampleRate,
		"terms", len(o.config.KeytermsPrompt),
	)

	go func() {
		link, err := o.connector.Connect(ctx, params)
		select {
		case o.dialed <- dialResult{gen: gen, link: link, err: err}:
		case <-ctx.Done():
			if link != nil {
				link.Close()
			}
		}
	}()
}

func (o *Orchestrator) handleDialed(r dialResult) {
	if r.gen != o.linkGen {
		if r.link != nil {
			r.link.Close()
		}
		return
	}

	if r.err != nil {
		o.logger.Error("upstream connect failed", "error", r.err)
		o.send(o.logger, Error{Message: fmt.Sprintf("upstream connection error: %v", r.err)})
		o.send(o.logger, Status{Status: StatusError})
		// Idle here means no link: the client may start again.
		o.setState(Idle)
		return
	}

	o.link = r.link
	o.clock = newTurnClock()
	o.send(o.logger, Status{Status: StatusConnected})
}

func (o *Orchestrator) stop() {
	if o.link == nil {
		o.logger.Debug("ignored", "reason", "stop without link")
		return
	}
	o.terminate()
	o.setState(Stopping)
}

func (o *Orchestrator) forceEndpoint() {
	if o.link == nil {
		o.logger.Debug("ignored", "reason", "force_endpoint without link")
		return
	}
	if err := o.link.ForceEndpoint(); err != nil {
		o.logger.Warn("force endpoint", "error", err)
	}
}

// terminate sends at most one Terminate per link.
func (o *Orchestrator) terminate() {
	if o.terminateSent {
		return
	}
	o.terminateSent = true
	if err := o.link.Terminate(); err != nil && !errors.Is(err, assemblyai.ErrLinkClosed) {
		o.logger.Warn("terminate", "error", err)
	}
}

func (o *Orchestrator) disconnect() {
	o.cleanup = true
	o.logger.Info("client gone")
	if o.link != nil {
		o.terminate()
		o.link.Close()
		o.link = nil
	}
	o.setState(Terminated)
}

func (o *Orchestrator) dropLink() {
	if o.link != nil {
		o.link.Close()
		o.link = nil
	}
}

func (o *Orchestrator) handleEvent(ctx context.Context, ev assemblyai.Event) {
	switch ev := ev.(type) {
	case assemblyai.Begin:
		o.sessionID = ev.ID
		o.logger = o.base.With("session", ev.ID)
		o.setState(Active)
		o.send(o.logger, SessionBegin{SessionID: ev.ID, ExpiresAt: ev.ExpiresAt})

	case assemblyai.Turn:
		o.handleTurn(ctx, ev)

	case assemblyai.Termination:
		o.logger.Info(
			"terminated",
			"audio", ev.AudioDurationSeconds,
			"session", ev.SessionDurationSeconds,
		)
		o.send(o.logger, SessionEnd{
			AudioDuration:   ev.AudioDurationSeconds,
			SessionDuration: ev.SessionDurationSeconds,
		})
		o.setState(Terminated)

	case assemblyai.LinkError:
		o.send(o.logger, Error{Message: fmt.Sprintf("upstream connection error: %v", ev.Err)})

	case assemblyai.Closed:
		if !o.cleanup {
			o.send(o.logger, Status{Status: StatusDisconnected})
		}
		o.setState(Terminated)
		o.dropLink()

	default:
		o.logger.Error("unhandled link event", "kind", fmt.Sprintf("%T", ev))
	}
}

func (o *Orchestrator) handleTurn(ctx context.Context, t assemblyai.Turn) {
	mark := o.clock.observe(t, o.now())
	o.send(o.logger, transcriptMessage(t, mark))

	if !shouldTranslate(t) {
		return
	}

	source, target := o.config.TargetLanguage(t.LanguageCode)
	job := turnJob{
		order:      t.TurnOrder,
		transcript: t.Transcript,
		source:     source,
		target:     target,
		logger:     o.logger.With("turn", t.TurnOrder),
	}
	o.logger.Info("heard", "turn", t.TurnOrder, "lang", source, "txt", t.Transcript)
	o.pipelines.Go(func() {
		o.runPipeline(ctx, job)
	})
}

func (o *Orchestrator) send(logger *log.Logger, m Message) {
	if err := o.sink.Send(m); err != nil {
		logger.Debug("send dropped", "type", m.messageType(), "error", err)
	}
}
