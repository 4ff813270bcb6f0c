package search

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jurisai/jurisai/internal/data/postgres"
	"github.com/jurisai/jurisai/internal/data/redisStore"
	"github.com/jurisai/jurisai/internal/data/store"
	"github.com/jurisai/jurisai/internal/domain/docmodel"
	"github.com/jurisai/jurisai/internal/domain/taskmodel"
	"github.com/jurisai/jurisai/internal/rag"
	"github.com/jurisai/jurisai/internal/rag/ingest"
	"github.com/jurisai/jurisai/internal/rag/llm"
	"github.com/jurisai/jurisai/internal/rag/vectorDB"
)

type fakeDocStore struct {
	docs    []docmodel.Document
	err     error
	queries int
}

func (f *fakeDocStore) SearchLexical(_ context.Context, _ string, _ postgres.ListFilter) ([]docmodel.Document, error) {
	f.queries++
	return f.docs, f.err
}

type fakeRag struct {
	matches  []vectorDB.Match
	err      error
	answer   rag.Answer
	question string
}

func (f *fakeRag) AnswerQuestion(_ context.Context, question string, _ []string) (rag.Answer, error) {
	f.question = question
	return f.answer, f.err
}

func (f *fakeRag) SemanticSearch(_ context.Context, _ string, _ uint64) ([]vectorDB.Match, error) {
	return f.matches, f.err
}

func (f *fakeRag) IngestDocument(_ context.Context, task taskmodel.Task, _ ingest.Request) taskmodel.Task {
	return task
}

func (f *fakeRag) RemoveDocument(_ context.Context, _ int64) error { return nil }

func (f *fakeRag) Provider() llm.Provider { return nil }

func newTestService(t *testing.T, docs *fakeDocStore, fr *fakeRag) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := store.TestResponseCache(redisStore.NewTestStore(client))
	return NewService(docs, fr, cache)
}

func TestSearch_LexicalCached(t *testing.T) {
	docs := &fakeDocStore{docs: []docmodel.Document{{Id: 1, Title: "Land Use Act"}}}
	svc := newTestService(t, docs, &fakeRag{})
	ctx := context.Background()

	q := Query{Text: "land", Limit: 10}

	first, err := svc.Search(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, ModeLexical, first.Mode)
	assert.False(t, first.Cached)
	require.Len(t, first.Documents, 1)

	second, err := svc.Search(ctx, q)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Documents, second.Documents)
	assert.Equal(t, 1, docs.queries, "second lookup should come from cache")
}

func TestSearch_CacheKeyIncludesFilters(t *testing.T) {
	docs := &fakeDocStore{docs: []docmodel.Document{{Id: 1, Title: "Land Use Act"}}}
	svc := newTestService(t, docs, &fakeRag{})
	ctx := context.Background()

	_, err := svc.Search(ctx, Query{Text: "land", Limit: 10})
	require.NoError(t, err)
	_, err = svc.Search(ctx, Query{Text: "land", Jurisdiction: "Lagos", Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, 2, docs.queries, "different filters must not share a cache entry")
}

func TestSearch_Semantic(t *testing.T) {
	fr := &fakeRag{matches: []vectorDB.Match{{
		DocumentId:   4,
		Title:        "Evidence Act",
		Jurisdiction: "Federal",
		PageNum:      12,
		Content:      "Section 84 admits electronic evidence.",
		Score:        0.91,
	}}}
	svc := newTestService(t, &fakeDocStore{}, fr)

	res, err := svc.Search(context.Background(), Query{Text: "electronic evidence", UseSemantic: true})
	require.NoError(t, err)
	assert.Equal(t, ModeSemantic, res.Mode)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, int64(4), res.Hits[0].DocumentId)
	assert.Equal(t, 12, res.Hits[0].PageNum)
	assert.Equal(t, float32(0.91), res.Hits[0].Score)
}

func TestSearch_SemanticFallsBackToLexical(t *testing.T) {
	docs := &fakeDocStore{docs: []docmodel.Document{{Id: 2, Title: "Companies Act"}}}
	fr := &fakeRag{err: rag.ErrUnavailable}
	svc := newTestService(t, docs, fr)

	res, err := svc.Search(context.Background(), Query{Text: "companies", UseSemantic: true})
	require.NoError(t, err)
	assert.Equal(t, ModeLexical, res.Mode)
	require.Len(t, res.Documents, 1)
	assert.Equal(t, 1, docs.queries)
}

func TestSearch_LexicalError(t *testing.T) {
	docs := &fakeDocStore{err: errors.New("connection refused")}
	svc := newTestService(t, docs, &fakeRag{})

	_, err := svc.Search(context.Background(), Query{Text: "land"})
	assert.Error(t, err)
}

func TestAsk_Passthrough(t *testing.T) {
	fr := &fakeRag{answer: rag.Answer{Text: "The Act applies.", Cached: true}}
	svc := newTestService(t, &fakeDocStore{}, fr)

	ans, err := svc.Ask(context.Background(), "Does the Act apply?", nil)
	require.NoError(t, err)
	assert.Equal(t, "The Act applies.", ans.Text)
	assert.Equal(t, "Does the Act apply?", fr.question)
}
