package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/brunobiangulo/entityextract"
)

type handler struct {
	pipeline *entityextract.Pipeline
}

func newHandler(p *entityextract.Pipeline) *handler {
	return &handler{pipeline: p}
}

// POST /extract
// Accepts a JSON ExtractionInput body and returns the pipeline's envelope.
// The envelope is always returned with HTTP 200: a "failed" status is a
// property of the envelope, not an HTTP-level error, per the contract that
// run_pipeline never raises.
func (h *handler) handleExtract(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	out := h.pipeline.RunPipeline(ctx, raw)
	writeJSON(w, http.StatusOK, out)
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
