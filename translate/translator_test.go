package translate

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/sashabaranov/go-openai"
)

func TestLanguageName(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"en", "English"},
		{"es", "Spanish"},
		{"pt", "Portuguese"},
		{"ja", "ja"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := LanguageName(tt.code); got != tt.want {
			t.Errorf("LanguageName(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func newTestTranslator(t *testing.T, handler http.HandlerFunc) *OpenAITranslator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	config := openai.DefaultConfig("test-key")
	config.BaseURL = srv.URL + "/v1"
	return NewOpenAITranslator(config, "", log.New(io.Discard))
}

func TestTranslate(t *testing.T) {
	var got openai.ChatCompletionRequest
	translator := newTestTranslator(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"choices":[{"index":0,"message":{"role":"assistant","content":"  Hola.\n"}}]}`)
	})

	translated, err := translator.Translate(context.Background(), "Hello.", "en", "es")
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if translated != "Hola." {
		t.Errorf("Translate() = %q, want %q", translated, "Hola.")
	}

	if got.Model != openai.GPT4oMini {
		t.Errorf("model = %q, want %q", got.Model, openai.GPT4oMini)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(got.Messages))
	}
	if !strings.Contains(got.Messages[0].Content, "from English to Spanish") {
		t.Errorf("system prompt = %q", got.Messages[0].Content)
	}
	if got.Messages[1].Content != "Hello." {
		t.Errorf("user message = %q", got.Messages[1].Content)
	}
}

func TestTranslateAPIError(t *testing.T) {
	translator := newTestTranslator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error":{"message":"slow down","type":"rate_limit"}}`)
	})

	_, err := translator.Translate(context.Background(), "Hello.", "en", "es")
	if err == nil {
		t.Fatal("Translate() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "slow down") {
		t.Errorf("error = %v, want provider message", err)
	}
}

func TestTranslateNoChoices(t *testing.T) {
	translator := newTestTranslator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"choices":[]}`)
	})

	translated, err := translator.Translate(context.Background(), "Hello.", "en", "es")
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if translated != "" {
		t.Errorf("Translate() = %q, want empty", translated)
	}
}
