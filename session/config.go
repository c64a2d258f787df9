package session

import (
	"node.town/parley/assemblyai"
	"node.town/parley/config"
)

// Config is the effective configuration of one session.
type Config struct {
	LanguageA           string   `json:"languageA"`
	LanguageB           string   `json:"languageB"`
	SampleRate          int      `json:"sampleRate"`
	EndOfTurnConfidence float64  `json:"endOfTurnConfidence"`
	MinEndOfTurnSilence int      `json:"minEndOfTurnSilence"`
	MaxTurnSilence      int      `json:"maxTurnSilence"`
	KeytermsPrompt      []string `json:"keytermsPrompt"`
}

// DefaultConfig is used when the server config names no defaults.
var DefaultConfig = Config{
	LanguageA:           "en",
	LanguageB:           "es",
	SampleRate:          16000,
	EndOfTurnConfidence: 0.4,
	MinEndOfTurnSilence: 400,
	MaxTurnSilence:      1280,
	KeytermsPrompt:      []string{},
}

func ConfigFromSettings(s config.SessionConfig) Config {
	c := Config{
		LanguageA:           s.LanguageA,
		LanguageB:           s.LanguageB,
		SampleRate:          s.SampleRate,
		EndOfTurnConfidence: s.EndOfTurnConfidence,
		MinEndOfTurnSilence: s.MinEndOfTurnSilence,
		MaxTurnSilence:      s.MaxTurnSilence,
		KeytermsPrompt:      s.KeytermsPrompt,
	}
	return Overrides{}.Merge(c)
}

// Overrides is the config object of a start message. Absent fields keep
// their defaults.
type Overrides struct {
	LanguageA           *string  `json:"languageA"`
	LanguageB           *string  `json:"languageB"`
	SampleRate          *int     `json:"sampleRate"`
	EndOfTurnConfidence *float64 `json:"endOfTurnConfidence"`
	MinEndOfTurnSilence *int     `json:"minEndOfTurnSilence"`
	MaxTurnSilence      *int     `json:"maxTurnSilence"`
	KeytermsPrompt      []string `json:"keytermsPrompt"`
}

func (o Overrides) Merge(base Config) Config {
	c := base
	if o.LanguageA != nil {
		c.LanguageA = *o.LanguageA
	}
	if o.LanguageB != nil {
		c.LanguageB = *o.LanguageB
	}
	if o.SampleRate != nil {
		c.SampleRate = *o.SampleRate
	}
	if o.EndOfTurnConfidence != nil {
		c.EndOfTurnConfidence = *o.EndOfTurnConfidence
	}
	if o.MinEndOfTurnSilence != nil {
		c.MinEndOfTurnSilence = *o.MinEndOfTurnSilence
	}
	if o.MaxTurnSilence != nil {
		c.MaxTurnSilence = *o.MaxTurnSilence
	}
	if o.KeytermsPrompt != nil {
		c.KeytermsPrompt = o.KeytermsPrompt
	}

	if c.LanguageA == "" {
		c.LanguageA = DefaultConfig.LanguageA
	}
	if c.LanguageB == "" {
		c.LanguageB = DefaultConfig.LanguageB
	}
	if c.SampleRate <= 0 {
		c.SampleRate = DefaultConfig.SampleRate
	}
	terms := make([]string, len(c.KeytermsPrompt))
	copy(terms, c.KeytermsPrompt)
	c.KeytermsPrompt = terms
	return c
}

func (c Config) Params() assemblyai.Params {
	return assemblyai.Params{
		SampleRate:          c.SampleRate,
		EndOfTurnConfidence: c.EndOfTurnConfidence,
		MinEndOfTurnSilence: c.MinEndOfTurnSilence,
		MaxTurnSilence:      c.MaxTurnSilence,
		KeytermsPrompt:      c.KeytermsPrompt,
	}
}

// TargetLanguage picks the half of the pair that was not spoken. An
// undetected language counts as LanguageA.
func (c Config) TargetLanguage(detected string) (source, target string) {
	source = detected
	if source == "" {
		source = c.LanguageA
	}
	if source == c.LanguageA {
		return source, c.LanguageB
	}
	return source, c.LanguageA
}
