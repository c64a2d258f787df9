package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	if err := Init(v, ""); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HTTP.Port != 3000 {
		t.Errorf("HTTP.Port = %d, want 3000", cfg.HTTP.Port)
	}
	s := cfg.Session
	if s.LanguageA != "en" || s.LanguageB != "es" {
		t.Errorf("languages = %q/%q, want en/es", s.LanguageA, s.LanguageB)
	}
	if s.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", s.SampleRate)
	}
	if s.EndOfTurnConfidence != 0.4 {
		t.Errorf("EndOfTurnConfidence = %v, want 0.4", s.EndOfTurnConfidence)
	}
	if s.MinEndOfTurnSilence != 400 || s.MaxTurnSilence != 1280 {
		t.Errorf("silence = %d/%d, want 400/1280", s.MinEndOfTurnSilence, s.MaxTurnSilence)
	}
	if s.KeytermsPrompt == nil || len(s.KeytermsPrompt) != 0 {
		t.Errorf("KeytermsPrompt = %#v, want empty", s.KeytermsPrompt)
	}
	if cfg.TTS.Backend != "openai" {
		t.Errorf("TTS.Backend = %q, want openai", cfg.TTS.Backend)
	}
}

func TestConfigFileAndSecrets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "parley.yaml")
	yaml := `
http:
  port: 9000
openai:
  api_key: ${PARLEY_TEST_OPENAI}
session:
  language_b: fr
  keyterms_prompt: [Parley, AssemblyAI]
tts:
  backend: polly
  polly:
    voices:
      fr: Lea
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PARLEY_TEST_OPENAI", "sk-from-env")
	t.Setenv("ASSEMBLYAI_API_KEY", "aai-fallback")

	v := viper.New()
	if err := Init(v, path); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HTTP.Port != 9000 {
		t.Errorf("HTTP.Port = %d, want 9000", cfg.HTTP.Port)
	}
	if cfg.OpenAI.APIKey != "sk-from-env" {
		t.Errorf("OpenAI.APIKey = %q, want env reference resolved", cfg.OpenAI.APIKey)
	}
	if cfg.AssemblyAI.APIKey != "aai-fallback" {
		t.Errorf("AssemblyAI.APIKey = %q, want fallback env", cfg.AssemblyAI.APIKey)
	}
	if cfg.Session.LanguageA != "en" || cfg.Session.LanguageB != "fr" {
		t.Errorf("languages = %q/%q, want en/fr", cfg.Session.LanguageA, cfg.Session.LanguageB)
	}
	if len(cfg.Session.KeytermsPrompt) != 2 {
		t.Errorf("KeytermsPrompt = %v", cfg.Session.KeytermsPrompt)
	}
	if cfg.TTS.Backend != "polly" || cfg.TTS.Polly.Voices["fr"] != "Lea" {
		t.Errorf("TTS = %+v", cfg.TTS)
	}
}

func TestMissingConfigFile(t *testing.T) {
	v := viper.New()
	if err := Init(v, filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Init() error = nil for an explicit missing file")
	}
}
