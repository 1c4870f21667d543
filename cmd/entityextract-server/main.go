package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brunobiangulo/entityextract"
	"github.com/brunobiangulo/entityextract/config"
	"github.com/brunobiangulo/entityextract/lexicon"
	"github.com/brunobiangulo/entityextract/ner"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (JSON or YAML)")
	lexiconPath := flag.String("lexicon", "", "Path to lexicon JSON file (lemma -> entity label)")
	addr := flag.String("addr", ":8080", "Listen address")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg := config.FromEnv()
	if *configPath != "" {
		loaded, err := config.FromFile(*configPath)
		if err != nil {
			slog.Error("loading config", "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	lex := lexicon.Lexicon{}
	if *lexiconPath != "" {
		loaded, err := loadLexicon(*lexiconPath)
		if err != nil {
			slog.Error("loading lexicon", "error", err)
			os.Exit(1)
		}
		lex = loaded
	}

	apiKey := os.Getenv("ENTITYEXTRACT_API_KEY")
	corsOrigins := os.Getenv("ENTITYEXTRACT_CORS_ORIGINS")

	pipeline := entityextract.NewPipeline(cfg, entityextract.Engines{
		NERCache:  ner.NewCache(nil),
		NERLoader: nil, // no statistical tagger wired; NER always gates to a skip reason
		Lexicon:   lex,
	})

	h := newHandler(pipeline)
	mux := http.NewServeMux()

	mux.HandleFunc("POST /extract", h.handleExtract)
	mux.HandleFunc("GET /health", h.handleHealth)

	var handler http.Handler = mux
	handler = logMiddleware(handler)
	handler = authMiddleware(apiKey, handler)
	handler = corsMiddleware(corsOrigins, handler)
	handler = recoveryMiddleware(handler)

	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}

func loadLexicon(path string) (lexicon.Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lex lexicon.Lexicon
	if err := json.NewDecoder(f).Decode(&lex); err != nil {
		return nil, err
	}
	return lex, nil
}
