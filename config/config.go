// Package config loads server settings from flags, environment and an
// optional parley.yaml.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	HTTP       HTTPConfig       `mapstructure:"http"`
	AssemblyAI AssemblyAIConfig `mapstructure:"assemblyai"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	TTS        TTSConfig        `mapstructure:"tts"`
	Session    SessionConfig    `mapstructure:"session"`
	Log        LogConfig        `mapstructure:"log"`
}

type HTTPConfig struct {
	Port      int    `mapstructure:"port"`
	StaticDir string `mapstructure:"static_dir"`
}

type AssemblyAIConfig struct {
	APIKey      string `mapstructure:"api_key"`
	URL         string `mapstructure:"url"`
	SpeechModel string `mapstructure:"speech_model"`
}

type OpenAIConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	TranslateModel string `mapstructure:"translate_model"`
	TTSModel       string `mapstructure:"tts_model"`
}

// TTSConfig selects the synthesis backend: "openai", "elevenlabs" or "polly".
type TTSConfig struct {
	Backend    string           `mapstructure:"backend"`
	ElevenLabs ElevenLabsConfig `mapstructure:"elevenlabs"`
	Polly      PollyConfig      `mapstructure:"polly"`
}

type ElevenLabsConfig struct {
	APIKey string            `mapstructure:"api_key"`
	Model  string            `mapstructure:"model"`
	Voices map[string]string `mapstructure:"voices"` // language code -> voice id
}

type PollyConfig struct {
	Region string            `mapstructure:"region"`
	Engine string            `mapstructure:"engine"` // neural or standard
	Voices map[string]string `mapstructure:"voices"` // language code -> voice id
}

// SessionConfig holds the defaults a client start message is merged over.
type SessionConfig struct {
	LanguageA           string   `mapstructure:"language_a"`
	LanguageB           string   `mapstructure:"language_b"`
	SampleRate          int      `mapstructure:"sample_rate"`
	EndOfTurnConfidence float64  `mapstructure:"end_of_turn_confidence"`
	MinEndOfTurnSilence int      `mapstructure:"min_end_of_turn_silence"`
	MaxTurnSilence      int      `mapstructure:"max_turn_silence"`
	KeytermsPrompt      []string `mapstructure:"keyterms_prompt"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("http.port", 3000)
	v.SetDefault("http.static_dir", "public")
	v.SetDefault("assemblyai.url", "wss://streaming.assemblyai.com/v3/ws")
	v.SetDefault("assemblyai.speech_model", "universal-streaming-multilingual")
	v.SetDefault("openai.translate_model", "gpt-4o-mini")
	v.SetDefault("openai.tts_model", "tts-1")
	v.SetDefault("tts.backend", "openai")
	v.SetDefault("tts.elevenlabs.model", "eleven_turbo_v2_5")
	v.SetDefault("tts.polly.region", "us-east-1")
	v.SetDefault("tts.polly.engine", "neural")
	v.SetDefault("session.language_a", "en")
	v.SetDefault("session.language_b", "es")
	v.SetDefault("session.sample_rate", 16000)
	v.SetDefault("session.end_of_turn_confidence", 0.4)
	v.SetDefault("session.min_end_of_turn_silence", 400)
	v.SetDefault("session.max_turn_silence", 1280)
	v.SetDefault("session.keyterms_prompt", []string{})
	v.SetDefault("log.level", "info")
}

// Init prepares v to read parley.yaml and PARLEY_* variables. configFile
// overrides the search path when set.
func Init(v *viper.Viper, configFile string) error {
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("parley")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix("PARLEY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// Load unmarshals v and resolves secrets.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.AssemblyAI.APIKey = secret(cfg.AssemblyAI.APIKey, "ASSEMBLYAI_API_KEY")
	cfg.OpenAI.APIKey = secret(cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	cfg.TTS.ElevenLabs.APIKey = secret(cfg.TTS.ElevenLabs.APIKey, "ELEVENLABS_API_KEY")

	if cfg.Session.KeytermsPrompt == nil {
		cfg.Session.KeytermsPrompt = []string{}
	}
	return &cfg, nil
}

// secret expands a "${VAR}" reference and falls back to the conventional
// variable when the value is empty.
func secret(val, fallbackEnv string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		val = os.Getenv(val[2 : len(val)-1])
	}
	if val == "" {
		val = os.Getenv(fallbackEnv)
	}
	return val
}
