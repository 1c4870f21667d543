// Package postfilter applies the fixed post-extraction filter pipeline:
// empty-guard, blacklist, type-flag, then canonical-format rewriting.
package postfilter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/brunobiangulo/entityextract/config"
	"github.com/brunobiangulo/entityextract/entity"
)

// Apply runs the fixed filter order over entities and returns the final
// list ready for serialization. It never mutates its input entities;
// canonicalization produces new values via Entity.WithValue.
func Apply(entities []entity.Entity, cfg config.PipelineConfig) []entity.Entity {
	out := filterEmpty(entities)
	out = applyBlacklist(out, cfg)
	out = applyTypeFlags(out, cfg)
	out = canonicalize(out)
	return out
}

// filterEmpty is the final safety net against invalid values, re-checking
// the same invariant the resolver already enforced.
func filterEmpty(entities []entity.Entity) []entity.Entity {
	out := make([]entity.Entity, 0, len(entities))
	for _, e := range entities {
		if e.IsValid() {
			out = append(out, e)
		}
	}
	return out
}

func applyBlacklist(entities []entity.Entity, cfg config.PipelineConfig) []entity.Entity {
	out := make([]entity.Entity, 0, len(entities))
	for _, e := range entities {
		if !cfg.IsBlacklisted(e.Value) {
			out = append(out, e)
		}
	}
	return out
}

func applyTypeFlags(entities []entity.Entity, cfg config.PipelineConfig) []entity.Entity {
	out := make([]entity.Entity, 0, len(entities))
	for _, e := range entities {
		if cfg.TypeEnabled(e.Type) {
			out = append(out, e)
		}
	}
	return out
}

func canonicalize(entities []entity.Entity) []entity.Entity {
	out := make([]entity.Entity, len(entities))
	for i, e := range entities {
		switch e.Type {
		case entity.TypeData:
			out[i] = e.WithValue(canonicalDate(e.Value))
		case entity.TypeImporto:
			out[i] = e.WithValue(canonicalImporto(e.Value))
		case entity.TypeCodiceFiscale, entity.TypePartitaIVA:
			out[i] = e.WithValue(canonicalUpperNoSpace(e.Value))
		default:
			out[i] = e
		}
	}
	return out
}

// canonicalDate rewrites dd/mm/yyyy or dd-mm-yyyy to ISO 8601 YYYY-MM-DD.
// Values not matching either separator pass through unchanged.
func canonicalDate(value string) string {
	sep := "/"
	if !strings.Contains(value, "/") && strings.Contains(value, "-") {
		sep = "-"
	}
	parts := strings.Split(value, sep)
	if len(parts) != 3 {
		return value
	}
	day, month, year := parts[0], parts[1], parts[2]
	if len(day) != 2 || len(month) != 2 || len(year) != 4 {
		return value
	}
	return fmt.Sprintf("%s-%s-%s", year, month, day)
}

// canonicalImporto rewrites a thousands-separated, comma-or-dot-decimal
// amount into a plain dot-decimal value with exactly two fraction digits.
func canonicalImporto(value string) string {
	v := strings.TrimSpace(value)

	lastComma := strings.LastIndex(v, ",")
	lastDot := strings.LastIndex(v, ".")

	var integerPart, fractionPart string
	switch {
	case lastComma > lastDot:
		// Comma is the decimal separator; dots (if any) are thousands
		// separators.
		integerPart = strings.ReplaceAll(v[:lastComma], ".", "")
		fractionPart = v[lastComma+1:]
	case lastDot > lastComma && isThousandsGrouped(v):
		// Multiple dot groups with no comma: dots are thousands
		// separators and there is no fractional part.
		integerPart = strings.ReplaceAll(v, ".", "")
		fractionPart = ""
	case lastDot > lastComma:
		// A single dot is the decimal separator.
		integerPart = strings.ReplaceAll(v[:lastDot], ",", "")
		fractionPart = v[lastDot+1:]
	default:
		integerPart = strings.ReplaceAll(v, ",", "")
		fractionPart = ""
	}

	integerPart = strings.TrimSpace(integerPart)
	if integerPart == "" {
		integerPart = "0"
	}
	if _, err := strconv.Atoi(integerPart); err != nil {
		return value
	}

	switch len(fractionPart) {
	case 0:
		fractionPart = "00"
	case 1:
		fractionPart = fractionPart + "0"
	default:
		fractionPart = fractionPart[:2]
	}

	return integerPart + "." + fractionPart
}

// isThousandsGrouped reports whether every dot-separated group in v after
// the first is exactly three digits long, e.g. "1.234.567".
func isThousandsGrouped(v string) bool {
	groups := strings.Split(v, ".")
	if len(groups) < 2 {
		return false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return false
		}
	}
	return true
}

func canonicalUpperNoSpace(value string) string {
	return strings.ToUpper(strings.Join(strings.Fields(value), ""))
}
