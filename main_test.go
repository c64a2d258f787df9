package main

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"node.town/parley/config"
)

func TestLanguageRows(t *testing.T) {
	cfg := &config.Config{}
	cfg.TTS.Polly.Voices = map[string]string{"es": "Lucia"}
	cfg.TTS.ElevenLabs.Voices = map[string]string{"en": "voice-en"}

	rows := languageRows(cfg)
	if len(rows) != 6 {
		t.Fatalf("rows = %d, want 6", len(rows))
	}

	want := map[string][]string{
		"en": {"en", "English", "alloy", "Joanna", "voice-en"},
		"es": {"es", "Spanish", "nova", "Lucia", "-"},
		"pt": {"pt", "Portuguese", "onyx", "Camila", "-"},
	}
	for _, row := range rows {
		w, ok := want[row[0]]
		if !ok {
			continue
		}
		if strings.Join(row, ",") != strings.Join(w, ",") {
			t.Errorf("row %s = %v, want %v", row[0], row, w)
		}
	}
}

func TestPrintLanguages(t *testing.T) {
	var buf bytes.Buffer
	printLanguages(&buf, &config.Config{})

	out := buf.String()
	for _, want := range []string{"CODE", "German", "fable", "shimmer"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestCreateLoggersLevel(t *testing.T) {
	logger = log.New(io.Discard)

	mainLogger, _, _, _, _, _ := createLoggers("debug")
	if got := mainLogger.GetLevel(); got != log.DebugLevel {
		t.Errorf("level = %v, want debug", got)
	}

	mainLogger, _, _, _, _, _ = createLoggers("nonsense")
	if got := mainLogger.GetLevel(); got != log.InfoLevel {
		t.Errorf("level = %v, want info fallback", got)
	}
}
