package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"docshelf/config"
	"docshelf/internal/adapter/analyzer"
	"docshelf/internal/adapter/cache"
	"docshelf/internal/adapter/chunker"
	"docshelf/internal/adapter/classifier"
	"docshelf/internal/adapter/index"
	"docshelf/internal/adapter/llm"
	"docshelf/internal/adapter/memstore"
	"docshelf/internal/adapter/retriever"
	"docshelf/internal/adapter/store"
	"docshelf/internal/port"
	"docshelf/internal/usecase"
)

// app bundles the opened library with the pieces retrieval wiring needs.
type app struct {
	library   *usecase.Library
	index     *index.Inverted
	tokenizer *analyzer.Tokenizer
}

func (a *app) close() {
	if err := a.library.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing library: %v\n", err)
	}
}

func newStore(path string) (port.LibraryStore, error) {
	switch cfg.Library.Backend {
	case "json":
		return store.NewJSONStore(path), nil
	case "memory":
		return memstore.NewMemoryStore(), nil
	default:
		return store.NewBoltStore(path)
	}
}

// openLibrary opens the configured store and loads the library into an
// index. With mustExist set, a missing store file is reported instead of
// silently creating an empty library.
func openLibrary(ctx context.Context, mustExist bool) (*app, error) {
	path := cfg.StorePath(rootDir)

	if cfg.Library.Backend != "memory" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if mustExist {
				return nil, fmt.Errorf("no library found at %s. Run 'docshelf add' first", path)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return nil, fmt.Errorf("failed to create library directory: %w", err)
			}
		}
	}

	st, err := newStore(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open library store: %w", err)
	}

	ch, err := chunker.NewSentenceChunker(cfg.Chunking.Size, cfg.Chunking.Overlap, cfg.Chunking.MinChunk)
	if err != nil {
		st.Close()
		return nil, err
	}

	ix := index.NewInverted()
	tok := analyzer.NewTokenizer(cfg.Index.Stemming)
	lib := usecase.NewLibrary(st, ix, ch, tok)
	if err := lib.Open(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to open library: %w", err)
	}

	return &app{library: lib, index: ix, tokenizer: tok}, nil
}

// buildRetriever assembles the retrieval pipeline from the config.
func buildRetriever(ctx context.Context, a *app) (*usecase.Retriever, error) {
	tfidf := retriever.NewTFIDFScorer(a.index, a.tokenizer, cfg.Index.RawTF)
	bm25 := retriever.NewBM25Scorer(a.index, a.tokenizer, cfg.Retrieve.BM25K1, cfg.Retrieve.BM25B)
	blended, err := retriever.NewBlendedScorer(tfidf, bm25, cfg.Retrieve.BlendWeight)
	if err != nil {
		return nil, err
	}

	mmr := retriever.NewMMRReranker(cfg.Retrieve.MMRLambda, cfg.Retrieve.DedupJaccard)
	ret := usecase.NewRetriever(a.library, classifier.NewRuleClassifier(), blended, mmr)

	if cfg.Retrieve.CacheSize > 0 {
		ttl := time.Duration(cfg.Retrieve.CacheTTLSeconds) * time.Second
		ret = ret.WithCache(cache.NewQueryCache(cfg.Retrieve.CacheSize, ttl))
	}

	if cfg.Retrieve.Expansion {
		model, err := buildModel(ctx)
		if err != nil {
			return nil, err
		}
		ret = ret.WithExpander(retriever.NewQueryExpander(model))
	}

	return ret, nil
}

// buildModel creates the configured generation model, or nil when answers
// stay extractive.
func buildModel(ctx context.Context) (port.LLM, error) {
	key := cfg.Answer.APIKey()
	if cfg.Answer.Provider != "" && cfg.Answer.Provider != "none" && key == "" {
		return nil, fmt.Errorf("answer provider %q configured but no API key found in environment", cfg.Answer.Provider)
	}
	return llm.New(ctx, cfg.Answer.Provider, key, cfg.Answer.Model)
}

// ensureStateDir creates the .docshelf directory for commands that write.
func ensureStateDir() error {
	if cfg.Library.Path != "" || cfg.Library.Backend == "memory" {
		return nil
	}
	if err := config.EnsureStateDir(rootDir); err != nil {
		return fmt.Errorf("failed to create .docshelf directory: %w", err)
	}
	return nil
}
