package vectorDB

import (
	"context"

	"github.com/jurisai/jurisai/internal/domain/docmodel"
)

// Match is one scored chunk returned by a vector search.
type Match struct {
	Content      string  `json:"content"`
	DocumentId   int64   `json:"document_id"`
	Title        string  `json:"title"`
	Jurisdiction string  `json:"jurisdiction,omitempty"`
	PageNum      int     `json:"page_num"`
	ChunkOrder   int     `json:"chunk_order"`
	Score        float32 `json:"score"`
}

// DataProcessor is the vector store surface the RAG service and the ingest
// pipeline depend on.
type DataProcessor interface {
	Search(ctx context.Context, vectorVal []float32, limit uint64) ([]Match, error)
	GetCachedAnswer(ctx context.Context, queryVector []float32) (string, bool, error)
	SaveToCache(ctx context.Context, id string, vector []float32, answer string) error

	// EnsureCollection is called at the start of every ingest run.
	EnsureCollection(ctx context.Context, collectionName string) error
	UpsertBatch(ctx context.Context, collectionName string, chunks []docmodel.DocChunk, vectors [][]float32) error
	DeleteByDocument(ctx context.Context, collectionName string, documentId int64) error
}
