// Package search serves the document search endpoint: a lexical path over
// Postgres with a Redis cache in front, and a semantic path over the vector
// store that degrades back to lexical when the RAG stack is down.
package search

import (
	"context"
	"fmt"

	"github.com/jurisai/jurisai/internal/config"
	"github.com/jurisai/jurisai/internal/data/postgres"
	"github.com/jurisai/jurisai/internal/data/store"
	"github.com/jurisai/jurisai/internal/domain/docmodel"
	"github.com/jurisai/jurisai/internal/rag"
	"github.com/jurisai/jurisai/pkg/logger_i"
)

// cacheKeyPrefix has to line up with the prefix the documents service
// invalidates on writes.
const cacheKeyPrefix = "jurisai:search:"

const (
	ModeLexical  = "lexical"
	ModeSemantic = "semantic"
)

// Query carries the search parameters after handler-level parsing.
type Query struct {
	Text         string
	DocumentType string
	Jurisdiction string
	Offset       int
	Limit        int
	UseSemantic  bool
}

// SemanticHit is one scored chunk from the vector store, shaped for the API.
type SemanticHit struct {
	DocumentId   int64   `json:"document_id"`
	Title        string  `json:"title"`
	Jurisdiction string  `json:"jurisdiction,omitempty"`
	PageNum      int     `json:"page_num"`
	Excerpt      string  `json:"excerpt"`
	Score        float32 `json:"score"`
}

// Result is the outcome of a search. Mode reports which path actually
// produced it, which matters when a semantic request fell back to lexical.
type Result struct {
	Mode      string              `json:"mode"`
	Documents []docmodel.Document `json:"documents,omitempty"`
	Hits      []SemanticHit       `json:"hits,omitempty"`
	Cached    bool                `json:"cached"`
}

// Store is the slice of the document store the lexical path needs.
type Store interface {
	SearchLexical(ctx context.Context, query string, f postgres.ListFilter) ([]docmodel.Document, error)
}

type Service struct {
	store  Store
	rag    rag.Service
	cache  *store.ResponseCache
	logger *logger_i.Logger
}

func NewService(documents Store, ragService rag.Service, cache *store.ResponseCache) *Service {
	return &Service{
		store:  documents,
		rag:    ragService,
		cache:  cache,
		logger: logger_i.NewLogger("Search Service"),
	}
}

// Search runs the semantic path when requested, falling back to lexical if
// the vector stack is unavailable or errors out.
func (s *Service) Search(ctx context.Context, q Query) (Result, error) {
	if q.Limit <= 0 {
		q.Limit = 10
	}

	if q.UseSemantic {
		hits, err := s.semantic(ctx, q)
		if err == nil {
			return Result{Mode: ModeSemantic, Hits: hits}, nil
		}
		s.logger.Warn("Semantic search unavailable, falling back to lexical", "error", err)
	}

	return s.lexical(ctx, q)
}

// Ask answers a question against the ingested corpus. Unlike Search there is
// no lexical fallback: a generated answer needs the full RAG stack.
func (s *Service) Ask(ctx context.Context, question string, history []string) (rag.Answer, error) {
	return s.rag.AnswerQuestion(ctx, question, history)
}

func (s *Service) semantic(ctx context.Context, q Query) ([]SemanticHit, error) {
	matches, err := s.rag.SemanticSearch(ctx, q.Text, uint64(q.Limit))
	if err != nil {
		return nil, err
	}

	hits := make([]SemanticHit, 0, len(matches))
	for _, m := range matches {
		hits = append(hits, SemanticHit{
			DocumentId:   m.DocumentId,
			Title:        m.Title,
			Jurisdiction: m.Jurisdiction,
			PageNum:      m.PageNum,
			Excerpt:      m.Content,
			Score:        m.Score,
		})
	}
	return hits, nil
}

func (s *Service) lexical(ctx context.Context, q Query) (Result, error) {
	key := cacheKey(q)

	var docs []docmodel.Document
	if s.cache.GetJSON(ctx, "lexical_search", key, &docs) {
		return Result{Mode: ModeLexical, Documents: docs, Cached: true}, nil
	}

	docs, err := s.store.SearchLexical(ctx, q.Text, postgres.ListFilter{
		DocumentType: q.DocumentType,
		Jurisdiction: q.Jurisdiction,
		Offset:       q.Offset,
		Limit:        q.Limit,
	})
	if err != nil {
		return Result{}, err
	}

	s.cache.SetJSON(ctx, key, docs, config.SearchCacheTTL)
	return Result{Mode: ModeLexical, Documents: docs}, nil
}

func cacheKey(q Query) string {
	return fmt.Sprintf("%s%s|%s|%s|%d|%d",
		cacheKeyPrefix, q.Text, q.DocumentType, q.Jurisdiction, q.Offset, q.Limit)
}
