//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"syscall/js"

	"docshelf/internal/adapter/analyzer"
	"docshelf/internal/adapter/chunker"
	"docshelf/internal/adapter/classifier"
	"docshelf/internal/adapter/index"
	"docshelf/internal/adapter/memstore"
	"docshelf/internal/adapter/retriever"
	"docshelf/internal/usecase"
)

var (
	library *usecase.Library
	search  *usecase.Retriever
	rules   *classifier.RuleClassifier
)

func setup() {
	tokenizer := analyzer.NewTokenizer(true)
	chk, _ := chunker.NewSentenceChunker(800, 120, 0)
	ix := index.NewInverted()

	library = usecase.NewLibrary(memstore.NewMemoryStore(), ix, chk, tokenizer)
	_ = library.Open(context.Background())

	tfidf := retriever.NewTFIDFScorer(ix, tokenizer, false)
	bm25 := retriever.NewBM25Scorer(ix, tokenizer, retriever.DefaultBM25K1, retriever.DefaultBM25B)
	blended, _ := retriever.NewBlendedScorer(tfidf, bm25, 0.5)
	rules = classifier.NewRuleClassifier()
	search = usecase.NewRetriever(library, rules, blended, retriever.NewMMRReranker(0.7, 0.9))
}

func main() {
	setup()

	c := make(chan struct{})

	js.Global().Set("shelfAdd", js.FuncOf(addDocument))
	js.Global().Set("shelfQuery", js.FuncOf(queryLibrary))
	js.Global().Set("shelfClassify", js.FuncOf(classifyQuery))
	js.Global().Set("shelfClear", js.FuncOf(clearLibrary))
	js.Global().Set("shelfStats", js.FuncOf(getStats))

	<-c
}

func addDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeError("usage: shelfAdd(title, text)")
	}

	title := args[0].String()
	text := args[1].String()

	doc, err := library.Submit(context.Background(), title, text, nil)
	if err != nil {
		return makeError("submit failed: " + err.Error())
	}

	rec, err := library.Record(doc.ID)
	if err != nil {
		return makeError("record lookup failed: " + err.Error())
	}

	return makeResult(map[string]interface{}{
		"success":  true,
		"docId":    doc.ID,
		"title":    doc.Title,
		"passages": len(rec.Chunks),
	})
}

func queryLibrary(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: shelfQuery(query, [topK])")
	}

	query := args[0].String()
	topK := 5
	if len(args) > 1 {
		topK = args[1].Int()
	}

	result, err := search.Retrieve(context.Background(), query, topK, nil)
	if err != nil {
		return makeError("search failed: " + err.Error())
	}

	if result.Bypassed {
		return makeResult(map[string]interface{}{
			"query":    query,
			"intent":   string(result.Classification.Intent),
			"bypassed": true,
			"results":  []interface{}{},
		})
	}

	output := make([]map[string]interface{}, 0, len(result.Passages))
	for _, p := range result.Passages {
		output = append(output, map[string]interface{}{
			"docId": p.Document.ID,
			"title": p.Document.Title,
			"start": p.Chunk.StartOffset,
			"end":   p.Chunk.EndOffset,
			"score": p.Score,
			"text":  p.Chunk.Text,
		})
	}

	return makeResult(map[string]interface{}{
		"query":   query,
		"intent":  string(result.Classification.Intent),
		"results": output,
	})
}

func classifyQuery(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: shelfClassify(query)")
	}

	c := rules.Classify(args[0].String())

	return makeResult(map[string]interface{}{
		"query":      c.Query,
		"intent":     string(c.Intent),
		"confidence": c.Confidence,
		"signals":    c.MatchedSignals,
	})
}

func clearLibrary(this js.Value, args []js.Value) interface{} {
	setup()
	return makeResult(map[string]interface{}{
		"success": true,
	})
}

func getStats(this js.Value, args []js.Value) interface{} {
	stats := library.Stats()

	titles := []string{}
	for _, doc := range library.Documents() {
		titles = append(titles, doc.Title)
	}

	return makeResult(map[string]interface{}{
		"totalDocs":     stats.TotalDocs,
		"totalPassages": stats.TotalChunks,
		"avgChunkLen":   stats.AvgChunkLen,
		"titles":        titles,
	})
}

func makeError(msg string) interface{} {
	result, _ := json.Marshal(map[string]interface{}{
		"error": msg,
	})
	return string(result)
}

func makeResult(data map[string]interface{}) interface{} {
	result, _ := json.Marshal(data)
	return string(result)
}
