package documents

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jurisai/jurisai/internal/data/postgres"
	"github.com/jurisai/jurisai/internal/domain/docmodel"
	"github.com/jurisai/jurisai/internal/domain/taskmodel"
	"github.com/jurisai/jurisai/internal/domain/usermodel"
	"github.com/jurisai/jurisai/internal/rag"
	"github.com/jurisai/jurisai/internal/rag/ingest"
	"github.com/jurisai/jurisai/internal/rag/llm"
	"github.com/jurisai/jurisai/internal/rag/vectorDB"
)

type fakeStore struct {
	docs   map[int64]docmodel.Document
	nextId int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: map[int64]docmodel.Document{}, nextId: 1}
}

func (f *fakeStore) Create(_ context.Context, d docmodel.Document) (docmodel.Document, error) {
	d.Id = f.nextId
	f.nextId++
	f.docs[d.Id] = d
	return d, nil
}

func (f *fakeStore) Get(_ context.Context, id int64) (docmodel.Document, error) {
	d, ok := f.docs[id]
	if !ok {
		return docmodel.Document{}, postgres.ErrNotFound
	}
	return d, nil
}

func (f *fakeStore) List(_ context.Context, _ postgres.ListFilter) ([]docmodel.Document, error) {
	var out []docmodel.Document
	for _, d := range f.docs {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeStore) Update(_ context.Context, d docmodel.Document) (docmodel.Document, error) {
	existing, ok := f.docs[d.Id]
	if !ok {
		return docmodel.Document{}, postgres.ErrNotFound
	}
	if d.Title != "" {
		existing.Title = d.Title
	}
	f.docs[d.Id] = existing
	return existing, nil
}

func (f *fakeStore) Delete(_ context.Context, id int64) error {
	if _, ok := f.docs[id]; !ok {
		return postgres.ErrNotFound
	}
	delete(f.docs, id)
	return nil
}

func (f *fakeStore) Entities(_ context.Context, _ int64) ([]docmodel.Entity, error) {
	return nil, nil
}

func (f *fakeStore) KeyTerms(_ context.Context, documentId int64) ([]docmodel.KeyTerm, error) {
	return []docmodel.KeyTerm{{DocumentId: documentId, Term: "notice", Frequency: 3}}, nil
}

type fakeQueuer struct {
	enqueued []taskmodel.Task
}

func (f *fakeQueuer) Enqueue(_ context.Context, task taskmodel.Task) (taskmodel.Task, error) {
	task.Id = fmt.Sprintf("task-%d", len(f.enqueued)+1)
	f.enqueued = append(f.enqueued, task)
	return task, nil
}

type fakeRag struct {
	removed []int64
}

func (f *fakeRag) AnswerQuestion(context.Context, string, []string) (rag.Answer, error) {
	return rag.Answer{}, rag.ErrUnavailable
}

func (f *fakeRag) SemanticSearch(context.Context, string, uint64) ([]vectorDB.Match, error) {
	return nil, rag.ErrUnavailable
}

func (f *fakeRag) IngestDocument(_ context.Context, task taskmodel.Task, _ ingest.Request) taskmodel.Task {
	return task
}

func (f *fakeRag) RemoveDocument(_ context.Context, documentId int64) error {
	f.removed = append(f.removed, documentId)
	return nil
}

func (f *fakeRag) Provider() llm.Provider { return nil }

func owner(id int64) *usermodel.User {
	return &usermodel.User{Id: id, Role: usermodel.LegacyRoleUser}
}

func admin() *usermodel.User {
	return &usermodel.User{Id: 999, Role: usermodel.LegacyRoleAdmin}
}

func newTestService(t *testing.T) (*Service, *fakeStore, *fakeQueuer, *fakeRag) {
	t.Helper()
	fs := newFakeStore()
	fq := &fakeQueuer{}
	fr := &fakeRag{}
	svc := NewService(fs, fq, fr, nil, t.TempDir())
	return svc, fs, fq, fr
}

func TestUploadExtractsAndQueues(t *testing.T) {
	svc, fs, fq, _ := newTestService(t)

	result, err := svc.Upload(context.Background(), UploadInput{
		Title:        "Employment Act",
		Jurisdiction: "NG",
		FileName:     "employment-act.txt",
		File:         strings.NewReader("Section 1. The employer shall give notice."),
		Owner:        owner(7),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(7), result.Document.OwnerId)
	assert.Equal(t, "txt", result.Document.FileFormat)
	assert.Equal(t, 8, result.Document.WordCount)
	assert.Contains(t, result.Document.Content, "Section 1")

	stored, err := fs.Get(context.Background(), result.Document.Id)
	require.NoError(t, err)
	assert.Equal(t, "Employment Act", stored.Title)

	require.Len(t, fq.enqueued, 1)
	assert.Equal(t, taskmodel.AgentRAGIngest, fq.enqueued[0].AgentType)
	assert.Equal(t, result.Document.Id, fq.enqueued[0].DocumentId)
	assert.NotEmpty(t, fq.enqueued[0].Parameters["file_path"])
	assert.Nil(t, result.AnalysisTask)
}

func TestUploadWithAutoAnalyze(t *testing.T) {
	svc, _, fq, _ := newTestService(t)

	result, err := svc.Upload(context.Background(), UploadInput{
		Title:       "Lease",
		FileName:    "lease.txt",
		File:        strings.NewReader("the tenant shall pay rent monthly"),
		Owner:       owner(7),
		AutoAnalyze: true,
	})
	require.NoError(t, err)
	require.NotNil(t, result.AnalysisTask)
	require.Len(t, fq.enqueued, 2)
	assert.Equal(t, taskmodel.AgentDocumentAnalyzer, fq.enqueued[1].AgentType)
}

func TestUploadRejectsUnsupportedFormat(t *testing.T) {
	svc, _, fq, _ := newTestService(t)

	_, err := svc.Upload(context.Background(), UploadInput{
		Title:    "Photo",
		FileName: "evidence.png",
		File:     strings.NewReader("binary"),
		Owner:    owner(7),
	})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Empty(t, fq.enqueued)
}

func TestDeleteEnforcesOwnership(t *testing.T) {
	svc, fs, _, fr := newTestService(t)
	doc, _ := fs.Create(context.Background(), docmodel.Document{Title: "Brief", OwnerId: 7})

	err := svc.Delete(context.Background(), owner(8), doc.Id)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, svc.Delete(context.Background(), owner(7), doc.Id))
	assert.Equal(t, []int64{doc.Id}, fr.removed)
}

func TestAdminBypassesOwnership(t *testing.T) {
	svc, fs, _, _ := newTestService(t)
	doc, _ := fs.Create(context.Background(), docmodel.Document{Title: "Brief", OwnerId: 7})

	require.NoError(t, svc.Delete(context.Background(), admin(), doc.Id))
}

func TestUpdateEnforcesOwnership(t *testing.T) {
	svc, fs, _, _ := newTestService(t)
	doc, _ := fs.Create(context.Background(), docmodel.Document{Title: "Old", OwnerId: 7})

	_, err := svc.Update(context.Background(), owner(8), docmodel.Document{Id: doc.Id, Title: "New"})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Update(context.Background(), owner(7), docmodel.Document{Id: doc.Id, Title: "New"})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Title)
}

func TestAnalyzeUnknownDocument(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Analyze(context.Background(), owner(7), 404, nil)
	assert.ErrorIs(t, err, postgres.ErrNotFound)
}

func TestKeyTerms(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	terms, err := svc.KeyTerms(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, terms, 1)
	assert.Equal(t, int64(7), terms[0].DocumentId)
	assert.Equal(t, "notice", terms[0].Term)
}

func TestUploadBatchStampsBatchId(t *testing.T) {
	svc, fs, fq, _ := newTestService(t)

	result, err := svc.UploadBatch(context.Background(), "batch-1", []UploadInput{
		{Title: "Act", FileName: "act.txt", File: strings.NewReader("section one"), Owner: owner(7)},
		{Title: "Lease", FileName: "lease.txt", File: strings.NewReader("the tenant shall pay"), Owner: owner(7)},
	})
	require.NoError(t, err)
	require.Len(t, result.Uploaded, 2)
	assert.Empty(t, result.Failed)
	assert.Equal(t, "batch-1", result.BatchId)
	assert.Len(t, fq.enqueued, 2)

	for _, u := range result.Uploaded {
		stored, err := fs.Get(context.Background(), u.Document.Id)
		require.NoError(t, err)
		assert.Equal(t, "batch-1", stored.Metadata["batch_id"])
	}
}

func TestUploadBatchToleratesFailedFiles(t *testing.T) {
	svc, _, fq, _ := newTestService(t)

	result, err := svc.UploadBatch(context.Background(), "batch-2", []UploadInput{
		{Title: "Photo", FileName: "evidence.png", File: strings.NewReader("binary"), Owner: owner(7)},
		{Title: "Act", FileName: "act.txt", File: strings.NewReader("section one"), Owner: owner(7)},
	})
	require.NoError(t, err)
	require.Len(t, result.Uploaded, 1)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "evidence.png", result.Failed[0].FileName)
	assert.Len(t, fq.enqueued, 1)
}

func TestUploadBatchLimits(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.UploadBatch(context.Background(), "batch-3", nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)

	tooMany := make([]UploadInput, MaxBatchFiles+1)
	for i := range tooMany {
		tooMany[i] = UploadInput{
			Title:    fmt.Sprintf("Doc %d", i),
			FileName: fmt.Sprintf("doc-%d.txt", i),
			File:     strings.NewReader("text"),
			Owner:    owner(7),
		}
	}
	_, err = svc.UploadBatch(context.Background(), "batch-3", tooMany)
	assert.ErrorIs(t, err, ErrBatchTooLarge)
}
