// Package resolver implements the fusion stage: deduplication and
// priority-based conflict resolution across candidate entities from the
// regex, NER, and lexicon engines, followed by a stable deterministic sort.
package resolver

import (
	"sort"
	"strings"

	"github.com/brunobiangulo/entityextract/config"
	"github.com/brunobiangulo/entityextract/entity"
)

// Merge reassembles a canonical entity list from candidates. It never
// mutates its input; every returned Entity is either an input value
// unchanged or untouched by this package (canonicalization happens later,
// in postfilter).
func Merge(candidates []entity.Entity, cfg config.PipelineConfig) []entity.Entity {
	valid := dropInvalid(candidates)
	deduped := exactDedup(valid, cfg.SourcePriority)
	resolved := resolveOverlaps(deduped, cfg.SourcePriority)
	sortDeterministic(resolved)
	return resolved
}

func dropInvalid(candidates []entity.Entity) []entity.Entity {
	out := make([]entity.Entity, 0, len(candidates))
	for _, c := range candidates {
		if c.IsValid() {
			out = append(out, c)
		}
	}
	return out
}

// priorityIndex returns the position of source in priority (lower is
// higher priority). Sources absent from priority sort last.
func priorityIndex(priority []string, source entity.Source) int {
	for i, s := range priority {
		if s == string(source) {
			return i
		}
	}
	return len(priority)
}

type dedupKey struct {
	entType string
	value   string
	start   int
	end     int
}

// exactDedup groups candidates sharing (type, lowercased value, span) and
// keeps one representative per group: highest source priority first, then
// higher confidence, then earliest occurrence in the input (stable order).
func exactDedup(candidates []entity.Entity, priority []string) []entity.Entity {
	type indexed struct {
		entity.Entity
		idx int
	}

	groups := make(map[dedupKey][]indexed)
	var order []dedupKey
	for i, c := range candidates {
		key := dedupKey{
			entType: c.Type,
			value:   strings.ToLower(c.Value),
			start:   c.Span.Start,
			end:     c.Span.End,
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], indexed{c, i})
	}

	out := make([]entity.Entity, 0, len(order))
	for _, key := range order {
		group := groups[key]
		best := group[0]
		for _, cand := range group[1:] {
			if pickBetter(cand.Entity, cand.idx, best.Entity, best.idx, priority) {
				best = cand
			}
		}
		out = append(out, best.Entity)
	}
	return out
}

// pickBetter reports whether candidate b should replace the current best a.
// Tie-break order: source priority, then confidence, then earlier input
// index (stable order — a wins ties).
func pickBetter(b entity.Entity, bIdx int, a entity.Entity, aIdx int, priority []string) bool {
	pa, pb := priorityIndex(priority, a.Source), priorityIndex(priority, b.Source)
	if pb != pa {
		return pb < pa
	}
	if b.Confidence != a.Confidence {
		return b.Confidence > a.Confidence
	}
	return bIdx < aIdx
}

// resolveOverlaps resolves overlapping spans of the same type down to a
// single survivor per overlapping cluster, by source priority, then
// confidence, then longer span, then earlier start. Overlaps across
// different types are conservatively left untouched (open question,
// documented in SPEC_FULL.md).
func resolveOverlaps(candidates []entity.Entity, priority []string) []entity.Entity {
	if len(candidates) == 0 {
		return candidates
	}

	// Group by type, then cluster overlapping spans within each type.
	byType := make(map[string][]indexedEntity)
	var typeOrder []string
	for i, c := range candidates {
		if _, seen := byType[c.Type]; !seen {
			typeOrder = append(typeOrder, c.Type)
		}
		byType[c.Type] = append(byType[c.Type], indexedEntity{c, i})
	}

	survivors := make(map[int]bool, len(candidates))
	for _, t := range typeOrder {
		group := byType[t]
		sort.Slice(group, func(i, j int) bool {
			return group[i].Span.Start < group[j].Span.Start
		})

		for _, cluster := range clusterOverlapping(group) {
			winner := cluster[0]
			for _, cand := range cluster[1:] {
				if overlapWins(cand.Entity, cand.idx, winner.Entity, winner.idx, priority) {
					winner = cand
				}
			}
			survivors[winner.idx] = true
		}
	}

	out := make([]entity.Entity, 0, len(survivors))
	for i, c := range candidates {
		if survivors[i] {
			out = append(out, c)
		}
	}
	return out
}

type indexedEntity struct {
	entity.Entity
	idx int
}

// clusterOverlapping groups a start-sorted slice of same-type entities into
// clusters of mutually (transitively) overlapping spans.
func clusterOverlapping(sorted []indexedEntity) [][]indexedEntity {
	var clusters [][]indexedEntity
	var current []indexedEntity
	currentEnd := -1

	for _, ic := range sorted {
		if len(current) == 0 || ic.Span.Start < currentEnd {
			current = append(current, ic)
			if ic.Span.End > currentEnd {
				currentEnd = ic.Span.End
			}
			continue
		}
		clusters = append(clusters, current)
		current = []indexedEntity{ic}
		currentEnd = ic.Span.End
	}
	if len(current) > 0 {
		clusters = append(clusters, current)
	}
	return clusters
}

// overlapWins reports whether candidate b should replace the current
// winner a within an overlapping cluster: higher source priority, then
// higher confidence, then longer span, then earlier start.
func overlapWins(b entity.Entity, bIdx int, a entity.Entity, aIdx int, priority []string) bool {
	pa, pb := priorityIndex(priority, a.Source), priorityIndex(priority, b.Source)
	if pb != pa {
		return pb < pa
	}
	if b.Confidence != a.Confidence {
		return b.Confidence > a.Confidence
	}
	if b.Span.Len() != a.Span.Len() {
		return b.Span.Len() > a.Span.Len()
	}
	if b.Span.Start != a.Span.Start {
		return b.Span.Start < a.Span.Start
	}
	return bIdx < aIdx
}

// sortDeterministic sorts survivors by (span.start, type, source)
// lexicographically, in place, using a stable sort so any remaining ties
// preserve their current relative order.
func sortDeterministic(entities []entity.Entity) {
	sort.SliceStable(entities, func(i, j int) bool {
		a, b := entities[i], entities[j]
		if a.Span.Start != b.Span.Start {
			return a.Span.Start < b.Span.Start
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return string(a.Source) < string(b.Source)
	})
}
