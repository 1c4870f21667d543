package postfilter

import (
	"testing"

	"github.com/brunobiangulo/entityextract/config"
	"github.com/brunobiangulo/entityextract/entity"
)

func TestApply_FiltersEmptyValues(t *testing.T) {
	cfg := config.DefaultConfig()
	entities := []entity.Entity{
		{Type: "EMAIL", Value: "a@b.com", Span: entity.Span{Start: 0, End: 7}, Source: entity.SourceRegex, Confidence: 0.9},
		{Type: "EMAIL", Value: "   ", Span: entity.Span{Start: 10, End: 13}, Source: entity.SourceRegex, Confidence: 0.9},
	}
	out := Apply(entities, cfg)
	if len(out) != 1 {
		t.Fatalf("expected 1 surviving entity, got %d: %+v", len(out), out)
	}
}

func TestApply_BlacklistIsCaseInsensitive(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BlacklistValues = []string{"noreply@example.com"}
	entities := []entity.Entity{
		{Type: "EMAIL", Value: "NoReply@Example.com", Span: entity.Span{Start: 0, End: 20}, Source: entity.SourceRegex, Confidence: 0.9},
		{Type: "EMAIL", Value: "a@b.com", Span: entity.Span{Start: 25, End: 32}, Source: entity.SourceRegex, Confidence: 0.9},
	}
	out := Apply(entities, cfg)
	if len(out) != 1 || out[0].Value != "a@b.com" {
		t.Errorf("expected only a@b.com to survive the blacklist, got %+v", out)
	}
}

func TestApply_TypeFlagsDisableType(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.EntityTypesEnabled = map[string]bool{"TELEFONO": false}
	entities := []entity.Entity{
		{Type: "TELEFONO", Value: "+39 02 1234567", Span: entity.Span{Start: 0, End: 14}, Source: entity.SourceRegex, Confidence: 0.9},
		{Type: "EMAIL", Value: "a@b.com", Span: entity.Span{Start: 20, End: 27}, Source: entity.SourceRegex, Confidence: 0.9},
	}
	out := Apply(entities, cfg)
	if len(out) != 1 || out[0].Type != "EMAIL" {
		t.Errorf("expected TELEFONO filtered out by disabled type flag, got %+v", out)
	}
}

func TestApply_UnknownTypeDefaultsEnabled(t *testing.T) {
	cfg := config.DefaultConfig()
	entities := []entity.Entity{
		{Type: "CUSTOMTYPE", Value: "foo", Span: entity.Span{Start: 0, End: 3}, Source: entity.SourceRegex, Confidence: 0.9},
	}
	out := Apply(entities, cfg)
	if len(out) != 1 {
		t.Errorf("expected unknown type to default enabled, got %+v", out)
	}
}

func TestCanonicalDate_SlashToISO(t *testing.T) {
	cases := map[string]string{
		"01/02/2026": "2026-02-01",
		"31-12-2025": "2025-12-31",
	}
	for in, want := range cases {
		got := canonicalDate(in)
		if got != want {
			t.Errorf("canonicalDate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCanonicalDate_UnrecognizedPassesThrough(t *testing.T) {
	in := "2026.02.01"
	if got := canonicalDate(in); got != in {
		t.Errorf("canonicalDate(%q) = %q, want unchanged", in, got)
	}
}

func TestCanonicalImporto_CommaDecimal(t *testing.T) {
	cases := map[string]string{
		"1.234,5":   "1234.50",
		"1.234,56":  "1234.56",
		"42,00":     "42.00",
		"1234":      "1234.00",
		"1.234.567": "1234567.00",
	}
	for in, want := range cases {
		got := canonicalImporto(in)
		if got != want {
			t.Errorf("canonicalImporto(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCanonicalImporto_DotDecimal(t *testing.T) {
	if got := canonicalImporto("1234.5"); got != "1234.50" {
		t.Errorf("canonicalImporto(%q) = %q, want 1234.50", "1234.5", got)
	}
}

func TestApply_CanonicalizesDataAndImporto(t *testing.T) {
	cfg := config.DefaultConfig()
	entities := []entity.Entity{
		{Type: "DATA", Value: "01/02/2026", Span: entity.Span{Start: 0, End: 10}, Source: entity.SourceRegex, Confidence: 0.9},
		{Type: "IMPORTO", Value: "1.234,56", Span: entity.Span{Start: 20, End: 28}, Source: entity.SourceRegex, Confidence: 0.9},
	}
	out := Apply(entities, cfg)
	if len(out) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(out))
	}
	if out[0].Value != "2026-02-01" {
		t.Errorf("DATA canonical value = %q, want 2026-02-01", out[0].Value)
	}
	if out[1].Value != "1234.56" {
		t.Errorf("IMPORTO canonical value = %q, want 1234.56", out[1].Value)
	}
}

func TestApply_CanonicalizesCodiceFiscaleAndPartitaIVA(t *testing.T) {
	cfg := config.DefaultConfig()
	entities := []entity.Entity{
		{Type: "CODICEFISCALE", Value: "rssmra 80a01 h501u", Span: entity.Span{Start: 0, End: 18}, Source: entity.SourceRegex, Confidence: 0.9},
		{Type: "PARTITAIVA", Value: "it 12345678901", Span: entity.Span{Start: 20, End: 35}, Source: entity.SourceRegex, Confidence: 0.9},
	}
	out := Apply(entities, cfg)
	if out[0].Value != "RSSMRA80A01H501U" {
		t.Errorf("CODICEFISCALE canonical value = %q, want RSSMRA80A01H501U", out[0].Value)
	}
	if out[1].Value != "IT12345678901" {
		t.Errorf("PARTITAIVA canonical value = %q, want IT12345678901", out[1].Value)
	}
}

func TestApply_PreservesSpanWhileRewritingValue(t *testing.T) {
	cfg := config.DefaultConfig()
	entities := []entity.Entity{
		{Type: "DATA", Value: "01/02/2026", Span: entity.Span{Start: 5, End: 15}, Source: entity.SourceRegex, Confidence: 0.9},
	}
	out := Apply(entities, cfg)
	if out[0].Span.Start != 5 || out[0].Span.End != 15 {
		t.Errorf("canonicalization must not rewrite Span, got %+v", out[0].Span)
	}
}

func TestApply_OtherTypesPassThroughUnchanged(t *testing.T) {
	cfg := config.DefaultConfig()
	entities := []entity.Entity{
		{Type: "EMAIL", Value: "a@b.com", Span: entity.Span{Start: 0, End: 7}, Source: entity.SourceRegex, Confidence: 0.9},
	}
	out := Apply(entities, cfg)
	if out[0] != entities[0] {
		t.Errorf("expected EMAIL entity untouched, got %+v", out[0])
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	cfg := config.DefaultConfig()
	entities := []entity.Entity{
		{Type: "DATA", Value: "01/02/2026", Span: entity.Span{Start: 0, End: 10}, Source: entity.SourceRegex, Confidence: 0.9},
	}
	snapshot := entities[0]
	_ = Apply(entities, cfg)
	if entities[0] != snapshot {
		t.Error("Apply mutated its input slice")
	}
}
