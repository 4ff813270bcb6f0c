package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/jurisai/jurisai/internal/config"
	"github.com/jurisai/jurisai/internal/metrics"
	"github.com/jurisai/jurisai/internal/rag/vectorDB"
)

func chunkCollection() string {
	return config.ChunkCollectionName
}

func (s *service) executeEmbeddingStep(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding", time.Since(start)) }()

	return s.embedder.GetEmbedding(ctx, text)
}

func (s *service) executeCacheCheckStep(ctx context.Context, emb []float32) (string, bool) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("semantic_cache_lookup", time.Since(start)) }()

	ans, found, _ := s.vectorDB.GetCachedAnswer(ctx, emb)
	metrics.CaptureCacheLookup("semantic_cache", found)
	return ans, found
}

func (s *service) executeVectorSearchStep(ctx context.Context, emb []float32, limit uint64) ([]vectorDB.Match, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_search", time.Since(start)) }()

	return s.vectorDB.Search(ctx, emb, limit)
}

func (s *service) executeLLMStep(ctx context.Context, question string, matches []vectorDB.Match, history []string) (string, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()

	return s.llmProvider.Generate(ctx, question, formatMatches(matches), history)
}

// formatMatches renders chunks as prompt context lines with their citation
// metadata inline.
func formatMatches(matches []vectorDB.Match) []string {
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, fmt.Sprintf("Document: %s (page %d)\n%s", m.Title, m.PageNum, m.Content))
	}
	return out
}
