// Package lexicon implements lemma-based dictionary lookup. Matches are
// labeled by entity class, not by the lemma itself — the historical FIX #7
// invariant: label=entity_label, never label=lemma.
package lexicon

import (
	"regexp"
	"sort"
	"strings"

	"github.com/brunobiangulo/entityextract/config"
	"github.com/brunobiangulo/entityextract/entity"
)

// Lexicon maps a lemma (e.g. "ACME S.p.A.") to the entity label it should
// be tagged with (e.g. "AZIENDA").
type Lexicon map[string]string

// Extract scans text for case-insensitive occurrences of every lemma in
// lex. The produced Entity's Type is the entity label, and its Value
// preserves the original casing found in text.
func Extract(text string, lex Lexicon, cfg config.PipelineConfig) []entity.Entity {
	var out []entity.Entity

	// Iterate lemmas in a fixed order so candidate generation — and
	// therefore the resolver's stable-input-order tie-break — is
	// deterministic across runs, independent of Go's randomized map order.
	lemmas := make([]string, 0, len(lex))
	for lemma := range lex {
		lemmas = append(lemmas, lemma)
	}
	sort.Strings(lemmas)

	// \b only matches next to a word character, so it is placed only at
	// lemma edges that are word characters (e.g. not after the final '.'
	// of "ACME S.p.A.").
	isWord := func(b byte) bool {
		return b == '_' || ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
	}

	for _, lemma := range lemmas {
		if lemma == "" {
			continue
		}
		label := lex[lemma]
		expr := regexp.QuoteMeta(lemma)
		if isWord(lemma[0]) {
			expr = `\b` + expr
		}
		if isWord(lemma[len(lemma)-1]) {
			expr += `\b`
		}
		pattern, err := regexp.Compile(`(?i)` + expr)
		if err != nil {
			continue
		}

		for _, m := range pattern.FindAllStringIndex(text, -1) {
			value := text[m[0]:m[1]]
			if strings.TrimSpace(value) == "" {
				continue
			}
			out = append(out, entity.Entity{
				Type:       label,
				Value:      value,
				Span:       entity.Span{Start: m[0], End: m[1]},
				Confidence: cfg.LexiconConfidence,
				Source:     entity.SourceLexicon,
				Version:    "lexicon-v1.0",
			})
		}
	}

	return out
}
