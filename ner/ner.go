// Package ner wraps an external statistical tagger. It never raises to its
// caller: every failure mode is converted into a skip reason recorded
// alongside whatever entities were produced (possibly none).
package ner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/brunobiangulo/entityextract/config"
	"github.com/brunobiangulo/entityextract/entity"
)

// RawSpan is what a Model adapter returns for one tagged span: the matched
// text, offsets into the text it was given, a type label, and a raw
// (unclamped) confidence.
type RawSpan struct {
	Value      string
	Start      int
	End        int
	Type       string
	Confidence float64
}

// Model is the call contract for an external statistical tagger, analogous
// to the teacher's llm.Provider interface (Chat/Embed) — here a single
// Tag call replaces Chat.
type Model interface {
	Tag(ctx context.Context, text string) ([]RawSpan, error)
}

// Loader resolves a model name to a ready-to-use Model, performing whatever
// I/O (file load, RPC handshake, ...) is required. Concurrent misses for
// one model name share a single Loader call; a failed load or ClearCache
// makes the next miss call Loader again. See Cache for the locking contract.
type Loader func(ctx context.Context, modelName string) (Model, error)

// Skip reasons, in the priority order they're checked.
const (
	SkipDisabled            = "ner_disabled"
	SkipLanguageUnknown     = "language_unknown"
	SkipLanguageUnsupported = "language_unsupported"
	SkipTextTooShort        = "text_too_short"
	SkipModelLoadFailed     = "model_load_failed"
	SkipTimeout             = "ner_timeout"
)

// Engine gates and executes NER extraction.
type Engine struct {
	cache  *Cache
	loader Loader
}

// NewEngine builds an Engine backed by the given model cache and loader.
// A nil loader is replaced with one that always fails, so gating that
// reaches the load step degrades to SkipModelLoadFailed instead of a nil
// pointer dereference.
func NewEngine(cache *Cache, loader Loader) *Engine {
	if loader == nil {
		loader = func(ctx context.Context, name string) (Model, error) {
			return nil, errModelLoadFailed
		}
	}
	return &Engine{cache: cache, loader: loader}
}

// Extract applies the gating ladder from the component design, in order,
// recording the first applicable skip reason. If gating allows a run, the
// model is loaded (or fetched from cache) and invoked under a deadline of
// cfg.NERTimeoutSeconds. Any failure — load, timeout, or inference error —
// is converted into a skip reason; Extract itself never returns an error.
func (e *Engine) Extract(ctx context.Context, text string, lingua *string, cfg config.PipelineConfig) ([]entity.Entity, []string) {
	if !cfg.EngineNEREnabled {
		return nil, []string{SkipDisabled}
	}
	if lingua == nil {
		return nil, []string{SkipLanguageUnknown}
	}
	if !contains(cfg.SupportedNERLanguages, *lingua) {
		return nil, []string{SkipLanguageUnsupported}
	}
	if len(text) < cfg.MinTextLengthForNER {
		return nil, []string{SkipTextTooShort}
	}

	model, err := e.cache.GetOrLoad(ctx, cfg.NERModelName, e.loader)
	if err != nil {
		return nil, []string{SkipModelLoadFailed}
	}

	timeout := time.Duration(cfg.NERTimeoutSeconds * float64(time.Second))
	spans, skip := runWithTimeout(ctx, timeout, model, text)
	if skip != "" {
		return nil, []string{skip}
	}

	return toEntities(spans, cfg), nil
}

// runWithTimeout invokes model.Tag on a bounded worker goroutine, managed
// by an errgroup so its cancellation is clean, and delivers the result
// over a channel rather than relying on a signal-based timer (forbidden
// per the concurrency model: signal-based timeouts are not portable
// across operating systems).
func runWithTimeout(ctx context.Context, timeout time.Duration, model Model, text string) ([]RawSpan, string) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	var spans []RawSpan
	g.Go(func() (err error) {
		// A third-party Model is an untrusted boundary; a panic inside it
		// must not escape this goroutine (the caller's recover cannot see
		// across goroutine boundaries), so it is converted into the same
		// "exception during inference" skip reason a returned error gets.
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("ner: model panic: %v", r)
			}
		}()
		s, tagErr := model.Tag(gctx, text)
		spans = s
		return tagErr
	})

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			return nil, skipReasonFor(err)
		}
		return spans, ""
	case <-ctx.Done():
		return nil, SkipTimeout
	}
}

func skipReasonFor(err error) string {
	return fmt.Sprintf("ner_error:%T", err)
}

func toEntities(spans []RawSpan, cfg config.PipelineConfig) []entity.Entity {
	var out []entity.Entity
	for _, s := range spans {
		if strings.TrimSpace(s.Value) == "" {
			continue
		}

		// Clamp confidence to the configured floor, per the chosen reading
		// of the open question in SPEC_FULL.md (clamp, never drop).
		confidence := s.Confidence
		if confidence < cfg.NERConfidence {
			confidence = cfg.NERConfidence
		}
		if confidence > 1.0 {
			confidence = 1.0
		}

		out = append(out, entity.Entity{
			Type:       s.Type,
			Value:      s.Value,
			Span:       entity.Span{Start: s.Start, End: s.End},
			Confidence: confidence,
			Source:     entity.SourceNER,
			Version:    cfg.NERModelName,
		})
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}
