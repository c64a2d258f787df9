package assemblyai

import (
	"encoding/json"
	"fmt"
)

// Event is one message delivered by a Link. The set of implementations is
// closed: Begin, Turn, Termination, LinkError and Closed.
type Event interface {
	linkEvent()
}

// Begin is sent once the service has accepted the stream.
type Begin struct {
	ID        string `json:"id"`
	ExpiresAt int64  `json:"expires_at"`
}

type Word struct {
	Text        string  `json:"text"`
	Start       int64   `json:"start"`
	End         int64   `json:"end"`
	Confidence  float64 `json:"confidence"`
	WordIsFinal bool    `json:"word_is_final"`
}

// Turn reports the current state of an utterance. The same turn order is
// reported repeatedly: interim, then end of turn, then end of turn again
// once formatted.
type Turn struct {
	TurnOrder           int     `json:"turn_order"`
	Transcript          string  `json:"transcript"`
	EndOfTurn           bool    `json:"end_of_turn"`
	TurnIsFormatted     bool    `json:"turn_is_formatted"`
	EndOfTurnConfidence float64 `json:"end_of_turn_confidence"`
	LanguageCode        string  `json:"language_code"`
	LanguageConfidence  float64 `json:"language_confidence"`
	Words               []Word  `json:"words"`
}

// Termination is the last message before the service closes the socket.
type Termination struct {
	AudioDurationSeconds   float64 `json:"audio_duration_seconds"`
	SessionDurationSeconds float64 `json:"session_duration_seconds"`
}

// LinkError reports a transport failure. It is always followed by Closed.
type LinkError struct {
	Err error
}

// Closed is the final event on a link; the channel is closed after it.
type Closed struct {
	Code   int
	Reason string
}

func (Begin) linkEvent()       {}
func (Turn) linkEvent()        {}
func (Termination) linkEvent() {}
func (LinkError) linkEvent()   {}
func (Closed) linkEvent()      {}

func (e LinkError) Error() string {
	return e.Err.Error()
}

const (
	typeBegin       = "Begin"
	typeTurn        = "Turn"
	typeTermination = "Termination"
)

// UnknownMessageError is returned by Decode for well-formed messages
// with a type this package does not handle.
type UnknownMessageError struct {
	Type string
}

func (e *UnknownMessageError) Error() string {
	return fmt.Sprintf("unknown message type %q", e.Type)
}

// Decode parses one text message from the service.
func Decode(data []byte) (Event, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}

	var (
		ev  Event
		err error
	)
	switch envelope.Type {
	case typeBegin:
		var b Begin
		err = json.Unmarshal(data, &b)
		ev = b
	case typeTurn:
		var t Turn
		err = json.Unmarshal(data, &t)
		ev = t
	case typeTermination:
		var t Termination
		err = json.Unmarshal(data, &t)
		ev = t
	default:
		return nil, &UnknownMessageError{Type: envelope.Type}
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", envelope.Type, err)
	}
	return ev, nil
}

type terminateDirective struct {
	Type string `json:"type"`
}

type forceEndpointDirective struct {
	Type                string  `json:"type"`
	EndOfTurnConfidence float64 `json:"end_of_turn_confidence"`
}
