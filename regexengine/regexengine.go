// Package regexengine implements the curated pattern set that produces
// candidate entities directly from the normalized text.
package regexengine

import (
	"regexp"
	"strings"

	"github.com/brunobiangulo/entityextract/config"
	"github.com/brunobiangulo/entityextract/entity"
)

// rule binds an entity type to a compiled pattern. valueGroup selects which
// submatch becomes the entity's value/span; 0 means the whole match.
type rule struct {
	entityType string
	pattern    *regexp.Regexp
	valueGroup int
}

// Precompiled pattern table. Grouped and commented the way the teacher's
// graph/builder.go keeps its identifier-extraction patterns as a package
// level var block of *regexp.Regexp.
var rules = []rule{
	{
		// local-part of [a-zA-Z0-9._%+-]+, @, domain with at least one dot.
		entityType: entity.TypeEmail,
		pattern:    regexp.MustCompile(`\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`),
		valueGroup: 0,
	},
	{
		// Italian fiscal code: 6 letters, 2 digits, 1 letter, 2 digits,
		// 1 letter, 3 digits, 1 letter (16 alphanumerics total).
		entityType: entity.TypeCodiceFiscale,
		pattern:    regexp.MustCompile(`\b[A-Za-z]{6}[0-9]{2}[A-Za-z][0-9]{2}[A-Za-z][0-9]{3}[A-Za-z]\b`),
		valueGroup: 0,
	},
	{
		// Anchored form: "IT" (optional space) + 11 digits. The whole
		// match (including the IT prefix) becomes the entity value.
		entityType: entity.TypePartitaIVA,
		pattern:    regexp.MustCompile(`\bIT\s?\d{11}\b`),
		valueGroup: 0,
	},
	{
		// Labeled form: "P.IVA" / "partita iva" within a small window of
		// 11 digits. Bare 11-digit runs never match on their own.
		entityType: entity.TypePartitaIVA,
		pattern:    regexp.MustCompile(`(?i)(?:P\.?\s?IVA|partita\s+iva)[^0-9]{0,10}(\d{11})\b`),
		valueGroup: 1,
	},
	{
		// 2 letters + 2 digits + up to 30 alphanumerics, total 15-34 chars.
		entityType: entity.TypeIBAN,
		pattern:    regexp.MustCompile(`\b[A-Z]{2}\d{2}[A-Z0-9]{11,30}\b`),
		valueGroup: 0,
	},
	{
		// +39 (optional space) + 9-10 digits.
		entityType: entity.TypeTelefono,
		pattern:    regexp.MustCompile(`\+39\s?\d{9,10}\b`),
		valueGroup: 0,
	},
	{
		// Leading 0 + area code + digits forming a landline.
		entityType: entity.TypeTelefono,
		pattern:    regexp.MustCompile(`\b0\d{6,10}\b`),
		valueGroup: 0,
	},
	{
		// Leading 3 + 9 digits forming a mobile number.
		entityType: entity.TypeTelefono,
		pattern:    regexp.MustCompile(`\b3\d{9}\b`),
		valueGroup: 0,
	},
	{
		// dd/mm/yyyy or dd-mm-yyyy with valid day/month ranges.
		entityType: entity.TypeData,
		pattern:    regexp.MustCompile(`\b(0[1-9]|[12][0-9]|3[01])[/-](0[1-9]|1[0-2])[/-]\d{4}\b`),
		valueGroup: 0,
	},
	{
		// Numeric with optional thousands separator / decimal comma or
		// point, preceded by '€'.
		entityType: entity.TypeImporto,
		pattern:    regexp.MustCompile(`€\s?(\d{1,3}(?:\.\d{3})*(?:,\d{1,2})?|\d+(?:\.\d{1,2})?)`),
		valueGroup: 1,
	},
	{
		// Numeric with optional thousands separator / decimal comma or
		// point, followed by '€'.
		entityType: entity.TypeImporto,
		pattern:    regexp.MustCompile(`(\d{1,3}(?:\.\d{3})*(?:,\d{1,2})?|\d+(?:\.\d{1,2})?)\s?€`),
		valueGroup: 1,
	},
	{
		// Label "PRAT" or "N." followed by an alphanumeric reference.
		entityType: entity.TypeNumeroPratica,
		pattern:    regexp.MustCompile(`(?i)(?:PRAT\.?|N\.)\s*([A-Z0-9][A-Z0-9/-]{2,})`),
		valueGroup: 1,
	},
}

// Extract runs the curated pattern set over text and returns candidate
// entities. Candidates with an empty or whitespace value are dropped.
// Disabled entity types (via cfg.TypeEnabled) are skipped entirely.
func Extract(text string, cfg config.PipelineConfig) []entity.Entity {
	var out []entity.Entity

	for _, r := range rules {
		if !cfg.TypeEnabled(r.entityType) {
			continue
		}

		matches := r.pattern.FindAllStringSubmatchIndex(text, -1)
		for _, m := range matches {
			groupStart, groupEnd := m[2*r.valueGroup], m[2*r.valueGroup+1]
			if groupStart < 0 || groupEnd < 0 {
				continue
			}
			value := text[groupStart:groupEnd]
			if strings.TrimSpace(value) == "" {
				continue
			}

			e := entity.Entity{
				Type:       r.entityType,
				Value:      value,
				Span:       entity.Span{Start: groupStart, End: groupEnd},
				Confidence: cfg.RegexConfidence,
				Source:     entity.SourceRegex,
				Version:    cfg.RegexRuleVersion,
			}
			out = append(out, e)
		}
	}

	return out
}
