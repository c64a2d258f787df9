package session

import (
	"strings"
	"time"

	"node.town/parley/assemblyai"
)

// turnClock measures how long the service took to close an utterance,
// from its first non-empty interim report to its first end-of-turn report.
type turnClock struct {
	lastWasEndOfTurn bool
	started          time.Time
}

func newTurnClock() turnClock {
	return turnClock{lastWasEndOfTurn: true}
}

type turnMark struct {
	newUtterance bool
	sttLatency   *int64
}

// observe skips empty reports; the service sends them between utterances.
func (c *turnClock) observe(t assemblyai.Turn, now time.Time) turnMark {
	var m turnMark
	if t.Transcript == "" {
		return m
	}
	if c.lastWasEndOfTurn && !t.EndOfTurn {
		c.started = now
		m.newUtterance = true
	}
	c.lastWasEndOfTurn = t.EndOfTurn

	if t.EndOfTurn && !c.started.IsZero() {
		ms := now.Sub(c.started).Milliseconds()
		m.sttLatency = &ms
		c.started = time.Time{}
	}
	return m
}

// shouldTranslate holds only for the formatted end-of-turn report. The
// service reports every end of turn twice, raw first.
func shouldTranslate(t assemblyai.Turn) bool {
	return t.EndOfTurn && t.TurnIsFormatted && strings.TrimSpace(t.Transcript) != ""
}

func transcriptMessage(t assemblyai.Turn, m turnMark) Transcript {
	msg := Transcript{
		Transcript:         t.Transcript,
		EndOfTurn:          t.EndOfTurn,
		TurnIsFormatted:    t.TurnIsFormatted,
		LanguageConfidence: t.LanguageConfidence,
		TurnOrder:          t.TurnOrder,
		NewUtterance:       m.newUtterance,
		STTLatency:         m.sttLatency,
	}
	if t.LanguageCode != "" {
		code := t.LanguageCode
		msg.LanguageCode = &code
	}
	return msg
}
