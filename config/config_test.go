package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestPipelineConfig_TypeEnabled_UnknownDefaultsOn(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EntityTypesEnabled = map[string]bool{"EMAIL": false}

	if cfg.TypeEnabled("EMAIL") {
		t.Error("EMAIL explicitly disabled should report disabled")
	}
	if !cfg.TypeEnabled("IBAN") {
		t.Error("unknown type IBAN should default to enabled")
	}
}

func TestPipelineConfig_IsBlacklisted_CaseInsensitive(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BlacklistValues = []string{"Example@Test.com"}

	if !cfg.IsBlacklisted("example@test.com") {
		t.Error("expected case-insensitive blacklist match")
	}
	if cfg.IsBlacklisted("other@test.com") {
		t.Error("unexpected blacklist match")
	}
}

func TestValidate_RejectsOutOfRangeConfidence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RegexConfidence = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for out-of-range confidence")
	}
}

func TestFromFile_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.json")
	body := `{"regex_confidence": 0.5, "ner_model_name": "it-ner-v2"}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	if cfg.RegexConfidence != 0.5 {
		t.Errorf("RegexConfidence = %v, want 0.5", cfg.RegexConfidence)
	}
	if cfg.NERModelName != "it-ner-v2" {
		t.Errorf("NERModelName = %q, want it-ner-v2", cfg.NERModelName)
	}
	// Untouched fields keep their defaults.
	if cfg.MaxTextLength != 100000 {
		t.Errorf("MaxTextLength = %d, want default 100000", cfg.MaxTextLength)
	}
}

func TestFromFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	body := "regex_confidence: 0.6\nsource_priority: [ner, regex, lexicon]\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	if cfg.RegexConfidence != 0.6 {
		t.Errorf("RegexConfidence = %v, want 0.6", cfg.RegexConfidence)
	}
	if len(cfg.SourcePriority) != 3 || cfg.SourcePriority[0] != "ner" {
		t.Errorf("SourcePriority = %v", cfg.SourcePriority)
	}
}

func TestFromEnv_OverridesDefaults(t *testing.T) {
	t.Setenv("NER_REGEX_CONFIDENCE", "0.42")
	t.Setenv("NER_BLACKLIST", "foo, bar ,baz")
	t.Setenv("NER_ENGINE_NER_ENABLED", "false")
	t.Setenv("NER_MODEL_NAME", "it-core-lg")

	cfg := FromEnv()
	if cfg.RegexConfidence != 0.42 {
		t.Errorf("RegexConfidence = %v, want 0.42", cfg.RegexConfidence)
	}
	if len(cfg.BlacklistValues) != 3 || cfg.BlacklistValues[1] != "bar" {
		t.Errorf("BlacklistValues = %v", cfg.BlacklistValues)
	}
	if cfg.EngineNEREnabled {
		t.Error("expected engine_ner_enabled to be false")
	}
	if cfg.NERModelName != "it-core-lg" {
		t.Errorf("NERModelName = %q", cfg.NERModelName)
	}
}

func TestFromEnv_MalformedValueIgnored(t *testing.T) {
	t.Setenv("NER_REGEX_CONFIDENCE", "not-a-number")
	cfg := FromEnv()
	if cfg.RegexConfidence != DefaultConfig().RegexConfidence {
		t.Errorf("expected malformed env var to be ignored, got %v", cfg.RegexConfidence)
	}
}
