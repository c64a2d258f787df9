package session

import "encoding/json"

// Message is one server-to-client event. Every implementation marshals
// with its "type" discriminator.
type Message interface {
	messageType() string
}

const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
	StatusError        = "error"
)

type Status struct {
	Status string `json:"status"`
}

type SessionBegin struct {
	SessionID string `json:"sessionId"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Transcript relays one upstream turn report. NewUtterance and STTLatency
// carry the turn timing observed by the server.
type Transcript struct {
	Transcript         string  `json:"transcript"`
	EndOfTurn          bool    `json:"endOfTurn"`
	TurnIsFormatted    bool    `json:"turnIsFormatted"`
	LanguageCode       *string `json:"languageCode"`
	LanguageConfidence float64 `json:"languageConfidence"`
	TurnOrder          int     `json:"turnOrder"`
	NewUtterance       bool    `json:"newUtterance,omitempty"`
	STTLatency         *int64  `json:"sttLatency,omitempty"`
}

type Translation struct {
	Original         string `json:"original"`
	Translated       string `json:"translated"`
	SourceLang       string `json:"sourceLang"`
	TargetLang       string `json:"targetLang"`
	TranslateLatency int64  `json:"translateLatency"`
	TurnOrder        int    `json:"turnOrder"`
}

type TTSAudio struct {
	Audio      string `json:"audio"` // base64 MP3
	TTSLatency int64  `json:"ttsLatency"`
	TurnOrder  int    `json:"turnOrder"`
}

type SessionEnd struct {
	AudioDuration   float64 `json:"audioDuration"`
	SessionDuration float64 `json:"sessionDuration"`
}

type Error struct {
	Message string `json:"message"`
}

func (Status) messageType() string       { return "status" }
func (SessionBegin) messageType() string { return "session_begin" }
func (Transcript) messageType() string   { return "transcript" }
func (Translation) messageType() string  { return "translation" }
func (TTSAudio) messageType() string     { return "tts_audio" }
func (SessionEnd) messageType() string   { return "session_end" }
func (Error) messageType() string        { return "error" }

func (m Status) MarshalJSON() ([]byte, error) {
	type fields Status
	return json.Marshal(struct {
		Type string `json:"type"`
		fields
	}{m.messageType(), fields(m)})
}

func (m SessionBegin) MarshalJSON() ([]byte, error) {
	type fields SessionBegin
	return json.Marshal(struct {
		Type string `json:"type"`
		fields
	}{m.messageType(), fields(m)})
}

func (m Transcript) MarshalJSON() ([]byte, error) {
	type fields Transcript
	return json.Marshal(struct {
		Type string `json:"type"`
		fields
	}{m.messageType(), fields(m)})
}

func (m Translation) MarshalJSON() ([]byte, error) {
	type fields Translation
	return json.Marshal(struct {
		Type string `json:"type"`
		fields
	}{m.messageType(), fields(m)})
}

func (m TTSAudio) MarshalJSON() ([]byte, error) {
	type fields TTSAudio
	return json.Marshal(struct {
		Type string `json:"type"`
		fields
	}{m.messageType(), fields(m)})
}

func (m SessionEnd) MarshalJSON() ([]byte, error) {
	type fields SessionEnd
	return json.Marshal(struct {
		Type string `json:"type"`
		fields
	}{m.messageType(), fields(m)})
}

func (m Error) MarshalJSON() ([]byte, error) {
	type fields Error
	return json.Marshal(struct {
		Type string `json:"type"`
		fields
	}{m.messageType(), fields(m)})
}

// Sink delivers messages to the client. Implementations must be safe for
// concurrent use and drop messages once the client is gone.
type Sink interface {
	Send(m Message) error
}
