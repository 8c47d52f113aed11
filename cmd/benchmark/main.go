package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"docshelf/config"
	"docshelf/internal/adapter/analyzer"
	"docshelf/internal/adapter/chunker"
	"docshelf/internal/adapter/classifier"
	"docshelf/internal/adapter/index"
	"docshelf/internal/adapter/retriever"
	"docshelf/internal/adapter/store"
	"docshelf/internal/port"
	"docshelf/internal/usecase"
)

func main() {
	libDir := flag.String("dir", ".", "Path to library directory")
	query := flag.String("q", "", "Query to test")
	topK := flag.Int("k", 10, "Number of results")
	rounds := flag.Int("rounds", 20, "Timed query rounds")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run cmd/benchmark/main.go -dir ./notes -q \"query\"")
		fmt.Println("\nMeasures:")
		fmt.Println("  1. Index build time (load from store, rebuild postings)")
		fmt.Println("  2. Query latency (classify, score, rerank)")
		fmt.Println("  3. Result quality (blended score distribution)")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*libDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	st, err := openStore(cfg, *libDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening library: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx := context.Background()
	tokenizer := analyzer.NewTokenizer(cfg.Index.Stemming)
	chk, err := chunker.NewSentenceChunker(cfg.Chunking.Size, cfg.Chunking.Overlap, cfg.Chunking.MinChunk)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building chunker: %v\n", err)
		os.Exit(1)
	}
	ix := index.NewInverted()
	library := usecase.NewLibrary(st, ix, chk, tokenizer)

	buildStart := time.Now()
	if err := library.Open(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error opening library: %v\n", err)
		os.Exit(1)
	}
	buildTime := time.Since(buildStart)

	stats := library.Stats()
	if stats.TotalChunks == 0 {
		fmt.Fprintln(os.Stderr, "Library is empty - run 'docshelf add' first")
		os.Exit(1)
	}

	tfidf := retriever.NewTFIDFScorer(ix, tokenizer, cfg.Index.RawTF)
	bm25 := retriever.NewBM25Scorer(ix, tokenizer, cfg.Retrieve.BM25K1, cfg.Retrieve.BM25B)
	blended, err := retriever.NewBlendedScorer(tfidf, bm25, cfg.Retrieve.BlendWeight)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building scorer: %v\n", err)
		os.Exit(1)
	}
	search := usecase.NewRetriever(library, classifier.NewRuleClassifier(), blended,
		retriever.NewMMRReranker(cfg.Retrieve.MMRLambda, cfg.Retrieve.DedupJaccard))

	fmt.Println("SPARSE RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Documents: %d  Passages: %d  Terms: %d\n", stats.TotalDocs, stats.TotalChunks, stats.TotalTerms)
	fmt.Printf("Scoring: %.0f%% TF-IDF / %.0f%% BM25 (k1=%.1f, b=%.2f)\n",
		cfg.Retrieve.BlendWeight*100, (1-cfg.Retrieve.BlendWeight)*100, cfg.Retrieve.BM25K1, cfg.Retrieve.BM25B)
	fmt.Printf("Index build: %s\n", buildTime.Round(time.Millisecond))
	fmt.Println()

	fmt.Printf("Query: \"%s\"\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	result, err := search.Retrieve(ctx, *query, *topK, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
		os.Exit(1)
	}
	if result.Bypassed {
		fmt.Println("Query classified as a library question; nothing to score.")
		os.Exit(0)
	}
	fmt.Printf("Intent: %s (confidence %.2f)\n\n", result.Classification.Intent, result.Classification.Confidence)

	if len(result.Passages) == 0 {
		fmt.Println("No matches.")
		os.Exit(0)
	}

	fmt.Printf("Top %d matches:\n\n", len(result.Passages))

	totalScore := 0.0
	for i, p := range result.Passages {
		preview := p.Chunk.Text
		if len(preview) > 150 {
			preview = preview[:150] + "..."
		}
		preview = strings.ReplaceAll(preview, "\n", " ")

		totalScore += p.Score

		rating := "LOW"
		if p.Score > 0.7 {
			rating = "HIGH"
		} else if p.Score > 0.5 {
			rating = "GOOD"
		} else if p.Score > 0.3 {
			rating = "OK"
		}

		fmt.Printf("%d. [%s %.3f] %s (chars %d-%d)\n", i+1, rating, p.Score, p.Document.Title, p.Chunk.StartOffset, p.Chunk.EndOffset)
		fmt.Printf("   %s\n\n", preview)
	}

	latency := timeQueries(ctx, search, *query, *topK, *rounds)

	avgScore := totalScore / float64(len(result.Passages))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Average score: %.3f\n", avgScore)
	fmt.Printf("  Top-1 score:   %.3f\n", result.Passages[0].Score)
	fmt.Printf("  Latency:       %s avg over %d rounds\n", latency.Round(time.Microsecond), *rounds)

	if avgScore > 0.5 {
		fmt.Println("  Status: GOOD - query terms discriminate well")
	} else if avgScore > 0.3 {
		fmt.Println("  Status: OK - results are somewhat related")
	} else {
		fmt.Println("  Status: POOR - consider rephrasing or re-ingesting")
	}
}

// timeQueries runs the retriever without a cache attached, so every round
// pays the full classify, score and rerank cost.
func timeQueries(ctx context.Context, search *usecase.Retriever, query string, topK, rounds int) time.Duration {
	if rounds < 1 {
		rounds = 1
	}
	start := time.Now()
	for i := 0; i < rounds; i++ {
		_, _ = search.Retrieve(ctx, query, topK, nil)
	}
	return time.Since(start) / time.Duration(rounds)
}

func openStore(cfg *config.Config, dir string) (port.LibraryStore, error) {
	path := cfg.StorePath(dir)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("no library found at %s", path)
	}
	switch cfg.Library.Backend {
	case "json":
		return store.NewJSONStore(path), nil
	default:
		return store.NewBoltStore(path)
	}
}
