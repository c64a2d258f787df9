package session

import (
	"reflect"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
		want  Inbound
	}{
		{
			name:  "binary is audio",
			frame: Frame{Binary: true, Data: []byte(`{"type":"stop"}`)},
			want:  Audio{Data: []byte(`{"type":"stop"}`)},
		},
		{
			name:  "start without config",
			frame: Frame{Data: []byte(`{"type":"start"}`)},
			want:  Start{},
		},
		{
			name:  "start with null config",
			frame: Frame{Data: []byte(`{"type":"start","config":null}`)},
			want:  Start{},
		},
		{
			name:  "stop",
			frame: Frame{Data: []byte(`{"type":"stop"}`)},
			want:  Stop{},
		},
		{
			name:  "force endpoint",
			frame: Frame{Data: []byte(`{"type":"force_endpoint"}`)},
			want:  ForceEndpoint{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.frame)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Classify() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestClassifyIgnored(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `hello`},
		{"no type", `{"config":{}}`},
		{"unknown type", `{"type":"pause"}`},
		{"type not a string", `{"type":7}`},
		{"bad sample rate", `{"type":"start","config":{"sampleRate":"fast"}}`},
		{"confidence out of range", `{"type":"start","config":{"endOfTurnConfidence":2}}`},
		{"array", `[1,2]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(Frame{Data: []byte(tt.data)})
			ig, ok := got.(Ignored)
			if !ok {
				t.Fatalf("Classify() = %#v, want Ignored", got)
			}
			if ig.Reason == "" {
				t.Error("Ignored without a reason")
			}
		})
	}
}

func TestClassifyStartOverrides(t *testing.T) {
	got := Classify(Frame{Data: []byte(`{
		"type": "start",
		"config": {
			"languageA": "de",
			"sampleRate": 48000,
			"endOfTurnConfidence": 0.7,
			"keytermsPrompt": ["Kubernetes"]
		}
	}`)})

	start, ok := got.(Start)
	if !ok {
		t.Fatalf("Classify() = %#v, want Start", got)
	}
	cfg := start.Overrides.Merge(DefaultConfig)
	want := Config{
		LanguageA:           "de",
		LanguageB:           "es",
		SampleRate:          48000,
		EndOfTurnConfidence: 0.7,
		MinEndOfTurnSilence: 400,
		MaxTurnSilence:      1280,
		KeytermsPrompt:      []string{"Kubernetes"},
	}
	if !reflect.DeepEqual(cfg, want) {
		t.Errorf("merged config = %+v, want %+v", cfg, want)
	}
}
