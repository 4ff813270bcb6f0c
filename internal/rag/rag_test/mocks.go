package rag_test

import (
	"context"

	"github.com/jurisai/jurisai/internal/domain/docmodel"
	"github.com/jurisai/jurisai/internal/rag/vectorDB"
)

// MockVectorDB implements vectorDB.DataProcessor
type MockVectorDB struct {
	OnSearch           func(ctx context.Context, vectorVal []float32, limit uint64) ([]vectorDB.Match, error)
	OnGetCachedAnswer  func(ctx context.Context, queryVector []float32) (string, bool, error)
	OnSaveToCache      func(ctx context.Context, id string, vector []float32, answer string) error
	OnEnsureCollection func(ctx context.Context, name string) error
	OnUpsertBatch      func(ctx context.Context, name string, chunks []docmodel.DocChunk, vectors [][]float32) error
	OnDeleteByDocument func(ctx context.Context, name string, documentId int64) error
}

func (m *MockVectorDB) Search(ctx context.Context, v []float32, limit uint64) ([]vectorDB.Match, error) {
	if m.OnSearch != nil {
		return m.OnSearch(ctx, v, limit)
	}
	return []vectorDB.Match{{Content: "default context", Title: "Some Act", PageNum: 1}}, nil
}

func (m *MockVectorDB) GetCachedAnswer(ctx context.Context, v []float32) (string, bool, error) {
	if m.OnGetCachedAnswer != nil {
		return m.OnGetCachedAnswer(ctx, v)
	}
	return "", false, nil
}

func (m *MockVectorDB) SaveToCache(ctx context.Context, id string, v []float32, a string) error {
	if m.OnSaveToCache != nil {
		return m.OnSaveToCache(ctx, id, v, a)
	}
	return nil
}

func (m *MockVectorDB) EnsureCollection(ctx context.Context, name string) error {
	if m.OnEnsureCollection != nil {
		return m.OnEnsureCollection(ctx, name)
	}
	return nil
}

func (m *MockVectorDB) UpsertBatch(ctx context.Context, name string, chunks []docmodel.DocChunk, vectors [][]float32) error {
	if m.OnUpsertBatch != nil {
		return m.OnUpsertBatch(ctx, name, chunks, vectors)
	}
	return nil
}

func (m *MockVectorDB) DeleteByDocument(ctx context.Context, name string, documentId int64) error {
	if m.OnDeleteByDocument != nil {
		return m.OnDeleteByDocument(ctx, name, documentId)
	}
	return nil
}

type MockEmbedder struct {
	OnGetEmbedding   func(ctx context.Context, text string) ([]float32, error)
	OnBatchEmbedding func(ctx context.Context, chunks []string, isHuge bool) ([][]float32, error)
}

func (m *MockEmbedder) BatchEmbedding(ctx context.Context, chunks []string, isHuge bool) ([][]float32, error) {
	if m.OnBatchEmbedding != nil {
		return m.OnBatchEmbedding(ctx, chunks, isHuge)
	}
	return make([][]float32, len(chunks)), nil
}

func (m *MockEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	if m.OnGetEmbedding != nil {
		return m.OnGetEmbedding(ctx, query)
	}
	return []float32{0.1}, nil
}

// MockLLM implements llm.Provider
type MockLLM struct {
	OnGenerate func(ctx context.Context, query string, matches []string, history []string) (string, error)
	OnComplete func(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}

func (m *MockLLM) Generate(ctx context.Context, q string, mth []string, hist []string) (string, error) {
	if m.OnGenerate != nil {
		return m.OnGenerate(ctx, q, mth, hist)
	}
	return "mocked llm response", nil
}

func (m *MockLLM) Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	if m.OnComplete != nil {
		return m.OnComplete(ctx, systemPrompt, userPrompt)
	}
	return "mocked completion", nil
}
