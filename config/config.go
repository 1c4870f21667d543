// Package config holds the immutable PipelineConfig bundle: thresholds,
// feature flags, blacklists, and source priorities. A Config is built once
// at pipeline entry and is read-only for the duration of a run.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source identifiers, duplicated here (rather than importing package entity)
// to keep config free of a dependency on the entity model.
const (
	SourceRegex   = "regex"
	SourceNER     = "ner"
	SourceLexicon = "lexicon"
)

// PipelineConfig is the enumerated set of options the pipeline honors. All
// fields are data; there is no behavior attached beyond the lookup,
// validation and construction helpers below.
type PipelineConfig struct {
	RegexConfidence     float64 `json:"regex_confidence" yaml:"regex_confidence"`
	NERConfidence       float64 `json:"ner_confidence" yaml:"ner_confidence"`
	LexiconConfidence   float64 `json:"lexicon_confidence" yaml:"lexicon_confidence"`
	MinTextLengthForNER int     `json:"min_text_length_for_ner" yaml:"min_text_length_for_ner"`
	NERTimeoutSeconds   float64 `json:"ner_timeout_seconds" yaml:"ner_timeout_seconds"`
	MaxTextLength       int     `json:"max_text_length" yaml:"max_text_length"`

	SupportedNERLanguages []string `json:"supported_ner_languages" yaml:"supported_ner_languages"`
	SourcePriority        []string `json:"source_priority" yaml:"source_priority"`

	EngineRegexEnabled   bool `json:"engine_regex_enabled" yaml:"engine_regex_enabled"`
	EngineNEREnabled     bool `json:"engine_ner_enabled" yaml:"engine_ner_enabled"`
	EngineLexiconEnabled bool `json:"engine_lexicon_enabled" yaml:"engine_lexicon_enabled"`

	// EntityTypesEnabled maps an entity type to its enabled state. A type
	// absent from this map defaults to enabled.
	EntityTypesEnabled map[string]bool `json:"entity_types_enabled" yaml:"entity_types_enabled"`

	BlacklistValues []string `json:"blacklist_values" yaml:"blacklist_values"`

	NERModelName    string `json:"ner_model_name" yaml:"ner_model_name"`
	RegexRuleVersion string `json:"regex_rule_version" yaml:"regex_rule_version"`
}

// DefaultConfig returns a PipelineConfig populated with the defaults from
// the component design table.
func DefaultConfig() PipelineConfig {
	return PipelineConfig{
		RegexConfidence:       0.95,
		NERConfidence:         0.70,
		LexiconConfidence:     0.90,
		MinTextLengthForNER:   20,
		NERTimeoutSeconds:     2.0,
		MaxTextLength:         100000,
		SupportedNERLanguages: []string{"it", "en"},
		SourcePriority:        []string{SourceRegex, SourceNER, SourceLexicon},
		EngineRegexEnabled:    true,
		EngineNEREnabled:      true,
		EngineLexiconEnabled:  true,
		EntityTypesEnabled:    map[string]bool{},
		BlacklistValues:       nil,
		NERModelName:          "",
		RegexRuleVersion:      "regex-v1.0",
	}
}

// TypeEnabled reports whether entityType is enabled under cfg. Unknown
// types default to enabled, per the component design.
func (c PipelineConfig) TypeEnabled(entityType string) bool {
	enabled, known := c.EntityTypesEnabled[entityType]
	if !known {
		return true
	}
	return enabled
}

// IsBlacklisted reports whether value matches a blacklist entry,
// case-insensitively.
func (c PipelineConfig) IsBlacklisted(value string) bool {
	lower := strings.ToLower(value)
	for _, b := range c.BlacklistValues {
		if strings.ToLower(b) == lower {
			return true
		}
	}
	return false
}

// Validate rejects configurations with out-of-range or structurally
// invalid fields. It never mutates cfg.
func (c PipelineConfig) Validate() error {
	var problems []string
	if c.RegexConfidence < 0 || c.RegexConfidence > 1 {
		problems = append(problems, "regex_confidence must be within [0,1]")
	}
	if c.NERConfidence < 0 || c.NERConfidence > 1 {
		problems = append(problems, "ner_confidence must be within [0,1]")
	}
	if c.LexiconConfidence < 0 || c.LexiconConfidence > 1 {
		problems = append(problems, "lexicon_confidence must be within [0,1]")
	}
	if c.MaxTextLength <= 0 {
		problems = append(problems, "max_text_length must be positive")
	}
	if c.NERTimeoutSeconds <= 0 {
		problems = append(problems, "ner_timeout_seconds must be positive")
	}
	if len(c.SourcePriority) == 0 {
		problems = append(problems, "source_priority must not be empty")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// FromFile loads a PipelineConfig from a JSON or YAML file, layered on top
// of DefaultConfig. The format is chosen by file extension (.yaml/.yml vs
// anything else, which is treated as JSON).
func FromFile(path string) (PipelineConfig, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parsing yaml %s: %w", path, err)
		}
		return cfg, nil
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing json %s: %w", path, err)
	}
	return cfg, nil
}

// FromEnv builds a PipelineConfig from environment variables prefixed
// NER_, optionally layering a config file named by NER_CONFIG_FILE
// underneath the environment overrides. Unknown keys are simply not read;
// malformed values are logged as warnings and skipped rather than
// rejected, since config loading must never fail a pipeline run.
func FromEnv() PipelineConfig {
	cfg := DefaultConfig()

	if path := os.Getenv("NER_CONFIG_FILE"); path != "" {
		loaded, err := FromFile(path)
		if err != nil {
			slog.Warn("config: ignoring unreadable NER_CONFIG_FILE", "path", path, "error", err)
		} else {
			cfg = loaded
		}
	}

	setFloat(&cfg.RegexConfidence, "NER_REGEX_CONFIDENCE")
	setFloat(&cfg.NERConfidence, "NER_NER_CONFIDENCE")
	setFloat(&cfg.LexiconConfidence, "NER_LEXICON_CONFIDENCE")
	setInt(&cfg.MinTextLengthForNER, "NER_MIN_TEXT_LENGTH_FOR_NER")
	setFloat(&cfg.NERTimeoutSeconds, "NER_NER_TIMEOUT_SECONDS")
	setInt(&cfg.MaxTextLength, "NER_MAX_TEXT_LENGTH")

	if v := os.Getenv("NER_SUPPORTED_LANGUAGES"); v != "" {
		cfg.SupportedNERLanguages = splitCSV(v)
	}
	if v := os.Getenv("NER_SOURCE_PRIORITY"); v != "" {
		cfg.SourcePriority = splitCSV(v)
	}
	if v := os.Getenv("NER_BLACKLIST"); v != "" {
		cfg.BlacklistValues = splitCSV(v)
	}

	setBool(&cfg.EngineRegexEnabled, "NER_ENGINE_REGEX_ENABLED")
	setBool(&cfg.EngineNEREnabled, "NER_ENGINE_NER_ENABLED")
	setBool(&cfg.EngineLexiconEnabled, "NER_ENGINE_LEXICON_ENABLED")

	if v := os.Getenv("NER_MODEL_NAME"); v != "" {
		cfg.NERModelName = v
	}

	return cfg
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func setFloat(dst *float64, env string) {
	v := os.Getenv(env)
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("config: ignoring malformed float env var", "var", env, "value", v)
		return
	}
	*dst = f
}

func setInt(dst *int, env string) {
	v := os.Getenv(env)
	if v == "" {
		return
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config: ignoring malformed int env var", "var", env, "value", v)
		return
	}
	*dst = i
}

func setBool(dst *bool, env string) {
	v := os.Getenv(env)
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config: ignoring malformed bool env var", "var", env, "value", v)
		return
	}
	*dst = b
}
