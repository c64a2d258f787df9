package session

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Frame is one websocket message from the client.
type Frame struct {
	Binary bool
	Data   []byte
}

// Inbound is a classified client frame: Audio, Start, Stop, ForceEndpoint
// or Ignored.
type Inbound interface {
	inbound()
}

type Audio struct {
	Data []byte
}

type Start struct {
	Overrides Overrides
}

type Stop struct{}

type ForceEndpoint struct{}

// Ignored is a text frame that carries no command.
type Ignored struct {
	Reason string
}

func (Audio) inbound()         {}
func (Start) inbound()         {}
func (Stop) inbound()          {}
func (ForceEndpoint) inbound() {}
func (Ignored) inbound()       {}

const controlSchemaJSON = `{
  "type": "object",
  "required": ["type"],
  "properties": {
    "type": {"type": "string"},
    "config": {
      "type": ["object", "null"],
      "properties": {
        "languageA": {"type": "string", "minLength": 1},
        "languageB": {"type": "string", "minLength": 1},
        "sampleRate": {"type": "integer", "minimum": 1},
        "endOfTurnConfidence": {"type": "number", "minimum": 0, "maximum": 1},
        "minEndOfTurnSilence": {"type": "integer", "minimum": 0},
        "maxTurnSilence": {"type": "integer", "minimum": 0},
        "keytermsPrompt": {"type": "array", "items": {"type": "string"}}
      }
    }
  }
}`

var controlSchema = jsonschema.MustCompileString("control.json", controlSchemaJSON)

// Classify turns a client frame into a command. Binary frames are always
// audio; text frames that fail to parse or validate are Ignored.
func Classify(f Frame) Inbound {
	if f.Binary {
		return Audio{Data: f.Data}
	}

	var doc any
	dec := json.NewDecoder(bytes.NewReader(f.Data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return Ignored{Reason: "not json"}
	}
	if err := controlSchema.Validate(doc); err != nil {
		return Ignored{Reason: fmt.Sprintf("invalid control message: %v", err)}
	}

	var msg struct {
		Type   string     `json:"type"`
		Config *Overrides `json:"config"`
	}
	if err := json.Unmarshal(f.Data, &msg); err != nil {
		return Ignored{Reason: "not json"}
	}

	switch msg.Type {
	case "start":
		var o Overrides
		if msg.Config != nil {
			o = *msg.Config
		}
		return Start{Overrides: o}
	case "stop":
		return Stop{}
	case "force_endpoint":
		return ForceEndpoint{}
	default:
		return Ignored{Reason: fmt.Sprintf("unknown type %q", msg.Type)}
	}
}
