// Package documents is the application layer for legal document management:
// uploads with text extraction, CRUD with ownership rules, and queueing the
// async ingest and analysis work.
package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jurisai/jurisai/internal/data/postgres"
	"github.com/jurisai/jurisai/internal/data/store"
	"github.com/jurisai/jurisai/internal/domain/docmodel"
	"github.com/jurisai/jurisai/internal/domain/taskmodel"
	"github.com/jurisai/jurisai/internal/domain/usermodel"
	"github.com/jurisai/jurisai/internal/rag"
	"github.com/jurisai/jurisai/internal/rag/ingest"
	"github.com/jurisai/jurisai/pkg/logger_i"
)

var (
	// ErrUnsupportedFormat rejects uploads we cannot extract text from.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrForbidden means the caller does not own the document and is not an
	// admin.
	ErrForbidden = errors.New("not the document owner")

	// ErrEmptyBatch rejects a batch upload with no files.
	ErrEmptyBatch = errors.New("no files in batch")

	// ErrBatchTooLarge rejects a batch upload over MaxBatchFiles.
	ErrBatchTooLarge = errors.New("too many files in batch")
)

// MaxBatchFiles caps a single batch upload.
const MaxBatchFiles = 20

// searchCachePrefix matches the keys the search service writes, so document
// mutations can invalidate stale results.
const searchCachePrefix = "jurisai:search:"

// TaskQueuer is the slice of the task service the upload path needs.
type TaskQueuer interface {
	Enqueue(ctx context.Context, task taskmodel.Task) (taskmodel.Task, error)
}

// Store is the persistence surface; postgres.DocumentStore implements it.
type Store interface {
	Create(ctx context.Context, d docmodel.Document) (docmodel.Document, error)
	Get(ctx context.Context, id int64) (docmodel.Document, error)
	List(ctx context.Context, f postgres.ListFilter) ([]docmodel.Document, error)
	Update(ctx context.Context, d docmodel.Document) (docmodel.Document, error)
	Delete(ctx context.Context, id int64) error
	Entities(ctx context.Context, documentId int64) ([]docmodel.Entity, error)
	KeyTerms(ctx context.Context, documentId int64) ([]docmodel.KeyTerm, error)
}

type Service struct {
	store     Store
	tasks     TaskQueuer
	rag       rag.Service
	cache     *store.ResponseCache
	uploadDir string
	logger    *logger_i.Logger
}

func NewService(documentStore Store, taskQueuer TaskQueuer, ragService rag.Service, cache *store.ResponseCache, uploadDir string) *Service {
	return &Service{
		store:     documentStore,
		tasks:     taskQueuer,
		rag:       ragService,
		cache:     cache,
		uploadDir: uploadDir,
		logger:    logger_i.NewLogger("Documents"),
	}
}

// UploadInput describes one multipart upload.
type UploadInput struct {
	Title           string
	DocumentType    string
	Jurisdiction    string
	PublicationDate *time.Time
	FileName        string
	File            io.Reader
	Owner           *usermodel.User
	AutoAnalyze     bool

	// BatchId ties documents of one batch upload together via metadata.
	BatchId string
}

// UploadResult is everything the upload endpoint reports back.
type UploadResult struct {
	Document     docmodel.Document
	IngestTask   taskmodel.Task
	AnalysisTask *taskmodel.Task
}

// Upload stores the file, extracts its text into the relational record, and
// queues the vector ingest task (plus analysis when asked for).
func (s *Service) Upload(ctx context.Context, in UploadInput) (UploadResult, error) {
	if !ingest.SupportedFormat(in.FileName) {
		return UploadResult{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(in.FileName))
	}

	filePath, err := s.saveFile(in.FileName, in.File)
	if err != nil {
		return UploadResult{}, err
	}

	content, err := ingest.ExtractFullText(filePath)
	if err != nil {
		// The file is useless if we cannot read it; clean up.
		_ = os.Remove(filePath)
		return UploadResult{}, fmt.Errorf("text extraction failed: %w", err)
	}

	doc := docmodel.Document{
		Title:           in.Title,
		Content:         content,
		DocumentType:    in.DocumentType,
		Jurisdiction:    in.Jurisdiction,
		PublicationDate: in.PublicationDate,
		FileFormat:      strings.TrimPrefix(strings.ToLower(filepath.Ext(in.FileName)), "."),
		WordCount:       len(strings.Fields(content)),
		OwnerId:         in.Owner.Id,
	}
	if in.BatchId != "" {
		doc.Metadata = map[string]any{"batch_id": in.BatchId}
	}

	doc, err = s.store.Create(ctx, doc)
	if err != nil {
		_ = os.Remove(filePath)
		return UploadResult{}, err
	}

	s.invalidateSearchCache(ctx)

	ingestTask, err := s.tasks.Enqueue(ctx, taskmodel.Task{
		AgentType:  taskmodel.AgentRAGIngest,
		TaskType:   taskmodel.TaskTypeDocumentIngest,
		UserId:     in.Owner.Id,
		DocumentId: doc.Id,
		Parameters: map[string]any{
			"file_path":    filePath,
			"title":        doc.Title,
			"jurisdiction": doc.Jurisdiction,
		},
	})
	if err != nil {
		s.logger.Error("Failed to queue ingest task", "documentId", doc.Id, "error", err)
		return UploadResult{Document: doc}, err
	}

	result := UploadResult{Document: doc, IngestTask: ingestTask}

	if in.AutoAnalyze {
		analysisTask, err := s.tasks.Enqueue(ctx, taskmodel.Task{
			AgentType:  taskmodel.AgentDocumentAnalyzer,
			TaskType:   taskmodel.TaskTypeDocumentAnalysis,
			UserId:     in.Owner.Id,
			DocumentId: doc.Id,
		})
		if err != nil {
			s.logger.Error("Failed to queue analysis task", "documentId", doc.Id, "error", err)
		} else {
			result.AnalysisTask = &analysisTask
		}
	}

	return result, nil
}

// BatchFailure records one file of a batch that could not be processed.
type BatchFailure struct {
	FileName string
	Reason   string
}

// BatchResult aggregates the outcome of a batch upload. A failed file does
// not abort the batch.
type BatchResult struct {
	BatchId  string
	Uploaded []UploadResult
	Failed   []BatchFailure
}

// UploadBatch uploads up to MaxBatchFiles files under one batch id. Every
// stored document carries the batch id in its metadata so the batch can be
// traced later.
func (s *Service) UploadBatch(ctx context.Context, batchId string, inputs []UploadInput) (BatchResult, error) {
	if len(inputs) == 0 {
		return BatchResult{}, ErrEmptyBatch
	}
	if len(inputs) > MaxBatchFiles {
		return BatchResult{}, fmt.Errorf("%w: %d files (max %d)", ErrBatchTooLarge, len(inputs), MaxBatchFiles)
	}

	result := BatchResult{BatchId: batchId}
	for _, in := range inputs {
		in.BatchId = batchId
		uploaded, err := s.Upload(ctx, in)
		if err != nil {
			s.logger.Error("Batch file failed", "batchId", batchId, "file", in.FileName, "error", err)
			result.Failed = append(result.Failed, BatchFailure{FileName: in.FileName, Reason: err.Error()})
			continue
		}
		result.Uploaded = append(result.Uploaded, uploaded)
	}
	return result, nil
}

func (s *Service) saveFile(fileName string, file io.Reader) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0750); err != nil {
		return "", fmt.Errorf("upload directory unavailable: %w", err)
	}

	// Prefix with nanos to dodge collisions between same-named uploads.
	target := filepath.Join(s.uploadDir, fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(fileName)))
	dst, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("storage error: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", fmt.Errorf("write error: %w", err)
	}
	return target, nil
}

func (s *Service) Get(ctx context.Context, id int64) (docmodel.Document, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f postgres.ListFilter) ([]docmodel.Document, error) {
	return s.store.List(ctx, f)
}

func (s *Service) Entities(ctx context.Context, documentId int64) ([]docmodel.Entity, error) {
	return s.store.Entities(ctx, documentId)
}

func (s *Service) KeyTerms(ctx context.Context, documentId int64) ([]docmodel.KeyTerm, error) {
	return s.store.KeyTerms(ctx, documentId)
}

// Update applies caller-supplied fields. Only the owner or an admin may
// change a document.
func (s *Service) Update(ctx context.Context, caller *usermodel.User, d docmodel.Document) (docmodel.Document, error) {
	if err := s.checkOwnership(ctx, caller, d.Id); err != nil {
		return docmodel.Document{}, err
	}

	updated, err := s.store.Update(ctx, d)
	if err != nil {
		return docmodel.Document{}, err
	}
	s.invalidateSearchCache(ctx)
	return updated, nil
}

// Delete removes the relational record and the document's vector chunks.
func (s *Service) Delete(ctx context.Context, caller *usermodel.User, id int64) error {
	if err := s.checkOwnership(ctx, caller, id); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.rag.RemoveDocument(ctx, id); err != nil && !errors.Is(err, rag.ErrUnavailable) {
		s.logger.Error("Failed to remove document chunks", "documentId", id, "error", err)
	}

	s.invalidateSearchCache(ctx)
	return nil
}

// Analyze queues a document analysis task for an existing document.
func (s *Service) Analyze(ctx context.Context, caller *usermodel.User, documentId int64, parameters map[string]any) (taskmodel.Task, error) {
	if _, err := s.store.Get(ctx, documentId); err != nil {
		return taskmodel.Task{}, err
	}

	return s.tasks.Enqueue(ctx, taskmodel.Task{
		AgentType:  taskmodel.AgentDocumentAnalyzer,
		TaskType:   taskmodel.TaskTypeDocumentAnalysis,
		UserId:     caller.Id,
		DocumentId: documentId,
		Parameters: parameters,
	})
}

func (s *Service) checkOwnership(ctx context.Context, caller *usermodel.User, documentId int64) error {
	existing, err := s.store.Get(ctx, documentId)
	if err != nil {
		return err
	}
	if existing.OwnerId != caller.Id && !caller.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

func (s *Service) invalidateSearchCache(ctx context.Context) {
	s.cache.Invalidate(ctx, searchCachePrefix)
}
