// Package normalize implements the deterministic, 4-step text
// canonicalization every engine downstream operates on. Normalization is
// idempotent: normalizing already-normalized text is a no-op.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Step records one canonicalization pass for audit logging.
type Step struct {
	Tag       string `json:"tag"`
	BeforeLen int    `json:"before_len"`
	AfterLen  int    `json:"after_len"`
}

// Log is the replayable record of a single Normalize call. It lives only
// for the duration of one pipeline run.
type Log struct {
	Steps []Step `json:"steps"`
}

var (
	runSpacesTabs = regexp.MustCompile(`[ \t]+`)
	runNewlines   = regexp.MustCompile(`\n+`)
)

// Normalize applies the four deterministic steps, in order, and returns the
// transformed text along with a log of each step's before/after length.
//
//  1. Unicode NFKC compatibility normalization.
//  2. Strip leading/trailing whitespace.
//  3. Collapse runs of spaces and tabs to a single space.
//  4. Collapse runs of newlines to a single '\n'.
func Normalize(text string) (string, Log) {
	var log Log

	step := func(tag, before, after string) string {
		log.Steps = append(log.Steps, Step{Tag: tag, BeforeLen: len(before), AfterLen: len(after)})
		return after
	}

	nfkc := norm.NFKC.String(text)
	text = step("nfkc", text, nfkc)

	trimmed := strings.TrimSpace(text)
	text = step("trim", text, trimmed)

	collapsedSpaces := runSpacesTabs.ReplaceAllString(text, " ")
	text = step("collapse_spaces_tabs", text, collapsedSpaces)

	collapsedNewlines := runNewlines.ReplaceAllString(text, "\n")
	text = step("collapse_newlines", text, collapsedNewlines)

	return text, log
}
