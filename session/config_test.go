package session

import (
	"reflect"
	"testing"

	"node.town/parley/config"
)

func TestTargetLanguage(t *testing.T) {
	cfg := Config{LanguageA: "en", LanguageB: "es"}

	tests := []struct {
		detected   string
		wantSource string
		wantTarget string
	}{
		{"en", "en", "es"},
		{"es", "es", "en"},
		{"", "en", "es"},
		{"fr", "fr", "en"},
	}

	for _, tt := range tests {
		t.Run("detected="+tt.detected, func(t *testing.T) {
			source, target := cfg.TargetLanguage(tt.detected)
			if source != tt.wantSource || target != tt.wantTarget {
				t.Errorf(
					"TargetLanguage(%q) = %s, %s; want %s, %s",
					tt.detected, source, target, tt.wantSource, tt.wantTarget,
				)
			}
		})
	}
}

func TestMergeKeepsDefaults(t *testing.T) {
	empty := ""
	zero := 0
	got := Overrides{LanguageA: &empty, SampleRate: &zero}.Merge(DefaultConfig)

	if got.LanguageA != "en" {
		t.Errorf("LanguageA = %q, want en", got.LanguageA)
	}
	if got.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", got.SampleRate)
	}
	if got.KeytermsPrompt == nil {
		t.Error("KeytermsPrompt is nil, want empty slice")
	}
}

func TestMergeCopiesKeyterms(t *testing.T) {
	terms := []string{"Parley"}
	got := Overrides{KeytermsPrompt: terms}.Merge(DefaultConfig)
	terms[0] = "changed"

	if !reflect.DeepEqual(got.KeytermsPrompt, []string{"Parley"}) {
		t.Errorf("KeytermsPrompt = %v, want a private copy", got.KeytermsPrompt)
	}
}

func TestParams(t *testing.T) {
	cfg := ConfigFromSettings(config.SessionConfig{
		LanguageA:           "en",
		LanguageB:           "it",
		SampleRate:          8000,
		EndOfTurnConfidence: 0.5,
		MinEndOfTurnSilence: 300,
		MaxTurnSilence:      2000,
		KeytermsPrompt:      []string{"a", "b"},
	})
	p := cfg.Params()

	if p.SampleRate != 8000 || p.EndOfTurnConfidence != 0.5 {
		t.Errorf("Params() = %+v", p)
	}
	if p.MinEndOfTurnSilence != 300 || p.MaxTurnSilence != 2000 {
		t.Errorf("Params() silence = %d/%d", p.MinEndOfTurnSilence, p.MaxTurnSilence)
	}
	if len(p.KeytermsPrompt) != 2 {
		t.Errorf("Params() terms = %v", p.KeytermsPrompt)
	}
}
