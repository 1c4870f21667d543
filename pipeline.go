// Package entityextract is the Entity Extraction core of an email-triage
// pipeline: it validates and normalizes an inbound message, runs the
// regex, NER, and lexicon engines over it, resolves their candidates into
// a canonical entity list, and serializes the result into a stable
// envelope. No internal failure ever escapes as a panic or error to the
// caller — RunPipeline always returns a complete ExtractionOutput.
package entityextract

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/google/uuid"

	"github.com/brunobiangulo/entityextract/config"
	"github.com/brunobiangulo/entityextract/entity"
	"github.com/brunobiangulo/entityextract/lexicon"
	"github.com/brunobiangulo/entityextract/ner"
	"github.com/brunobiangulo/entityextract/normalize"
	"github.com/brunobiangulo/entityextract/postfilter"
	"github.com/brunobiangulo/entityextract/regexengine"
	"github.com/brunobiangulo/entityextract/resolver"
	"github.com/brunobiangulo/entityextract/telemetry"
	"github.com/brunobiangulo/entityextract/validation"
)

const layerVersion = "1.0.0"

// EnvelopeError is one entry in ExtractionOutput.Errors, matching the
// wire shape of validation.FieldError but decoupled from that package so
// internal-fault errors can use the same shape.
type EnvelopeError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Meta carries the run's bookkeeping: status, feature flags in effect,
// per-component timings, and any fallback decisions (e.g. NER skips).
type Meta struct {
	Status             string             `json:"status"`
	LayerVersion       string             `json:"layer_version"`
	FeatureFlags       map[string]bool    `json:"feature_flags"`
	ComponentTimingsMs map[string]float64 `json:"component_timings_ms"`
	Fallbacks          []string           `json:"fallbacks"`
}

// ExtractionOutput is the pipeline's always-valid JSON envelope.
type ExtractionOutput struct {
	Entities []entity.Entity `json:"entities"`
	Meta     Meta            `json:"meta"`
	Errors   []EnvelopeError `json:"errors"`
}

// Engines bundles the pluggable, stateful collaborators a Pipeline needs
// beyond its immutable config: the NER model cache/loader and a metrics
// sink. A zero-value Engines is usable — NER will fail closed (model
// load errors become a skip reason) and metrics become no-ops.
type Engines struct {
	NERCache  *ner.Cache
	NERLoader ner.Loader
	Lexicon   lexicon.Lexicon
	Metrics   telemetry.Metrics
}

// Pipeline runs the seven-step orchestration over a fixed config and set
// of engine collaborators. It holds no per-call state; RunPipeline is
// safe to call concurrently.
type Pipeline struct {
	cfg     config.PipelineConfig
	nerEng  *ner.Engine
	lexicon lexicon.Lexicon
	metrics telemetry.Metrics
}

// NewPipeline builds a Pipeline from a config and its engine collaborators.
func NewPipeline(cfg config.PipelineConfig, engines Engines) *Pipeline {
	metrics := engines.Metrics
	if metrics == nil {
		metrics = telemetry.NoopMetrics{}
	}

	cache := engines.NERCache
	if cache == nil {
		cache = ner.NewCache(nil)
	}

	return &Pipeline{
		cfg:     cfg,
		nerEng:  ner.NewEngine(cache, engines.NERLoader),
		lexicon: engines.Lexicon,
		metrics: metrics,
	}
}

// RunPipeline executes the full seven-step orchestration over a raw input
// map and returns a complete envelope. It never panics outward: any fault
// that escapes step 2 onward is recovered and reported as an internal
// failure envelope.
func (p *Pipeline) RunPipeline(ctx context.Context, raw map[string]any) (out ExtractionOutput) {
	defer func() {
		if r := recover(); r != nil {
			faultErr := fmt.Errorf("%w: %v", ErrInternalFault, r)
			p.metrics.IncErrors("hard", "orchestrator")
			p.metrics.IncRun("failed")
			out = ExtractionOutput{
				Entities: []entity.Entity{},
				Meta: Meta{
					Status:             "failed",
					LayerVersion:       layerVersion,
					FeatureFlags:       p.featureFlags(),
					ComponentTimingsMs: map[string]float64{},
					Fallbacks:          nil,
				},
				Errors: []EnvelopeError{{
					Message: faultErr.Error(),
					Type:    "internal",
				}},
			}
			slog.Error("pipeline panic recovered",
				"error", faultErr,
				"stack", string(debug.Stack()),
			)
		}
	}()

	timings := map[string]float64{}

	// Step 1: validate.
	input, warnings, err := validation.Validate(raw, p.cfg.MaxTextLength)
	if err != nil {
		p.metrics.IncErrors("hard", "validator")
		p.metrics.IncRun("failed")
		return ExtractionOutput{
			Entities: []entity.Entity{},
			Meta: Meta{
				Status:             "failed",
				LayerVersion:       layerVersion,
				FeatureFlags:       p.featureFlags(),
				ComponentTimingsMs: timings,
				Fallbacks:          nil,
			},
			Errors: errorsFromValidation(err, warnings),
		}
	}

	var fallbacks []string
	for _, w := range warnings {
		fallbacks = append(fallbacks, w.Type)
	}

	// Step 2: normalize.
	stopNormalize := telemetry.Timer(p.metrics, "normalize")
	text, _ := normalize.Normalize(input.TestoNormalizzato)
	timings["normalize"] = stopNormalize()

	var candidates []entity.Entity

	// Step 3: regex engine.
	stopRegex := telemetry.Timer(p.metrics, "regex")
	if p.cfg.EngineRegexEnabled {
		candidates = append(candidates, regexengine.Extract(text, p.cfg)...)
	}
	timings["regex"] = stopRegex()

	// Step 4: NER gating and extraction.
	stopNER := telemetry.Timer(p.metrics, "ner")
	nerEntities, skips := p.nerEng.Extract(ctx, text, input.Lingua, p.cfg)
	candidates = append(candidates, nerEntities...)
	fallbacks = append(fallbacks, skips...)
	timings["ner"] = stopNER()

	// Step 5: lexicon engine.
	stopLexicon := telemetry.Timer(p.metrics, "lexicon")
	if p.cfg.EngineLexiconEnabled && len(p.lexicon) > 0 {
		candidates = append(candidates, lexicon.Extract(text, p.lexicon, p.cfg)...)
	}
	timings["lexicon"] = stopLexicon()

	// Step 6: merge.
	stopMerge := telemetry.Timer(p.metrics, "merge")
	merged := resolver.Merge(candidates, p.cfg)
	timings["merge"] = stopMerge()

	// Step 7: post-filter.
	stopFilter := telemetry.Timer(p.metrics, "filter")
	final := postfilter.Apply(merged, p.cfg)
	timings["filter"] = stopFilter()

	if final == nil {
		final = []entity.Entity{}
	}
	for _, e := range final {
		p.metrics.ObserveEntities(e.Type, 1)
	}
	for _, reason := range skips {
		p.metrics.IncNERSkip(reason)
	}

	logger := slog.With("id_conversazione", input.IDConversazione, "id_messaggio", input.IDMessaggio)
	summary := map[string]int{}
	for _, e := range final {
		summary[e.Type+"/"+string(e.Source)]++
	}
	logger.Info("entities_extracted", "count", len(final), "by_type_source", summary)
	if len(fallbacks) > 0 {
		logger.Info("fallbacks_activated", "fallbacks", fallbacks)
	}
	p.metrics.IncRun("ok")

	return ExtractionOutput{
		Entities: final,
		Meta: Meta{
			Status:             "ok",
			LayerVersion:       layerVersion,
			FeatureFlags:       p.featureFlags(),
			ComponentTimingsMs: timings,
			Fallbacks:          fallbacks,
		},
		Errors: nil,
	}
}

// ExtractAllEntities is the backward-compatible convenience wrapper: it
// builds a minimal ExtractionInput around a bare string and returns only
// the resulting entity list.
func (p *Pipeline) ExtractAllEntities(ctx context.Context, text string) []entity.Entity {
	// Callers of this convenience wrapper have no real conversation/message
	// identifiers; synthesize trace-worthy ones rather than stamping a
	// constant that would collide across calls in logs and metrics.
	traceID := uuid.NewString()
	raw := map[string]any{
		"id_conversazione":   traceID,
		"id_messaggio":       traceID,
		"testo_normalizzato": text,
		"lingua":             nil,
		"timestamp":          "",
		"mittente":           "",
		"destinatario":       "",
	}
	out := p.RunPipeline(ctx, raw)
	return out.Entities
}

func (p *Pipeline) featureFlags() map[string]bool {
	return map[string]bool{
		"engine_regex_enabled":   p.cfg.EngineRegexEnabled,
		"engine_ner_enabled":     p.cfg.EngineNEREnabled,
		"engine_lexicon_enabled": p.cfg.EngineLexiconEnabled,
	}
}

func errorsFromValidation(err error, warnings []validation.Warning) []EnvelopeError {
	var out []EnvelopeError
	if ve, ok := err.(*validation.ValidationError); ok {
		for _, fe := range ve.Errors {
			out = append(out, EnvelopeError{Field: fe.Field, Message: fe.Message, Type: fe.Type})
		}
	} else {
		out = append(out, EnvelopeError{Message: err.Error(), Type: "internal"})
	}
	for _, w := range warnings {
		out = append(out, EnvelopeError{Field: w.Field, Message: w.Message, Type: w.Type})
	}
	return out
}
