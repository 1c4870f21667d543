// Package validation validates a raw input map into an ExtractionInput,
// producing structured errors and soft warnings rather than panicking.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// ExtractionInput is the validated, strongly-typed input to a pipeline run.
type ExtractionInput struct {
	IDConversazione   string
	IDMessaggio       string
	TestoNormalizzato string
	Lingua            *string // nil means "unknown language"
	Timestamp         string
	Mittente          string
	Destinatario      string

	PreAnnotations interface{}
	RoutingRules   interface{}
	UpstreamTags   interface{}
}

// FieldError is one structured validation problem, contractual with the
// ExtractionOutput.errors[] shape from the output envelope.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Field, e.Message, e.Type)
}

// ValidationError aggregates one or more hard FieldErrors that reject the
// input outright.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Warning is a soft, non-blocking issue recorded alongside a successful
// validation.
type Warning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

var htmlTagPattern = regexp.MustCompile(`<[a-zA-Z/][^>]*>`)

const defaultMaxTextLength = 100000

// requiredStringFields lists the names of the required string fields, in
// the order they're checked.
var requiredStringFields = []string{
	"id_conversazione",
	"id_messaggio",
	"testo_normalizzato",
	"timestamp",
	"mittente",
	"destinatario",
}

// Validate checks a raw key-value map against the ExtractionInput contract.
// maxTextLength bounds the text field; pass 0 to use the default of 100000.
//
// On success it returns the typed input and any soft warnings. On hard
// failure it returns a *ValidationError carrying every field problem found.
func Validate(raw map[string]any, maxTextLength int) (ExtractionInput, []Warning, error) {
	if maxTextLength <= 0 {
		maxTextLength = defaultMaxTextLength
	}

	var fieldErrs []FieldError
	var warnings []Warning

	getString := func(field string) (string, bool) {
		v, ok := raw[field]
		if !ok || v == nil {
			fieldErrs = append(fieldErrs, FieldError{Field: field, Message: "required field missing", Type: "missing_field"})
			return "", false
		}
		s, ok := v.(string)
		if !ok {
			fieldErrs = append(fieldErrs, FieldError{Field: field, Message: "expected a string", Type: "type_mismatch"})
			return "", false
		}
		return s, true
	}

	values := make(map[string]string, len(requiredStringFields))
	for _, f := range requiredStringFields {
		if s, ok := getString(f); ok {
			values[f] = s
		}
	}

	text, haveText := values["testo_normalizzato"]
	if haveText {
		if strings.TrimSpace(text) == "" {
			fieldErrs = append(fieldErrs, FieldError{
				Field: "testo_normalizzato", Message: "text is whitespace-only", Type: "empty_text",
			})
		}
		if len(text) > maxTextLength {
			fieldErrs = append(fieldErrs, FieldError{
				Field: "testo_normalizzato", Message: "text exceeds max_text_length", Type: "text_too_long",
			})
		}
		if htmlTagPattern.MatchString(text) {
			fieldErrs = append(fieldErrs, FieldError{
				Field: "testo_normalizzato", Message: "text contains raw HTML tags", Type: "html_rejected",
			})
		}
	}

	var linguaPtr *string
	linguaRaw, present := raw["lingua"]
	if !present || linguaRaw == nil {
		warnings = append(warnings, Warning{Field: "lingua", Message: "language not provided", Type: "lingua_missing"})
	} else if s, ok := linguaRaw.(string); ok {
		linguaPtr = &s
	} else {
		fieldErrs = append(fieldErrs, FieldError{Field: "lingua", Message: "expected a string or null", Type: "type_mismatch"})
	}

	if len(fieldErrs) > 0 {
		return ExtractionInput{}, warnings, &ValidationError{Errors: fieldErrs}
	}

	return ExtractionInput{
		IDConversazione:   values["id_conversazione"],
		IDMessaggio:       values["id_messaggio"],
		TestoNormalizzato: text,
		Lingua:            linguaPtr,
		Timestamp:         values["timestamp"],
		Mittente:          values["mittente"],
		Destinatario:      values["destinatario"],
		PreAnnotations:    raw["pre_annotations"],
		RoutingRules:      raw["routing_rules"],
		UpstreamTags:      raw["upstream_tags"],
	}, warnings, nil
}
