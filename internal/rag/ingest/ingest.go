// Package ingest turns an uploaded legal document into embedded chunks in
// the vector store. The pipeline is: extract pages, split into overlapping
// chunks, embed in batches, upsert to the legal-chunks collection.
package ingest

import (
	"context"
	"os"
	"time"

	"github.com/jurisai/jurisai/internal/config"
	"github.com/jurisai/jurisai/internal/domain/docmodel"
	"github.com/jurisai/jurisai/internal/domain/taskmodel"
	"github.com/jurisai/jurisai/internal/rag/embedding"
	"github.com/jurisai/jurisai/internal/rag/vectorDB"
	"github.com/jurisai/jurisai/pkg/logger_i"
)

type rawPage struct {
	Number  int    `json:"number"`
	Content string `json:"content"`
}

var logger = logger_i.NewLogger("Document Ingestion")

// Request carries everything the pipeline needs about the source document.
type Request struct {
	DocumentId   int64
	Title        string
	Jurisdiction string
	FilePath     string
	EmbedModel   string
}

// ProcessDocumentIngestion runs the full pipeline and reports progress on the
// task. The uploaded file is removed once its chunks are in the vector store.
func ProcessDocumentIngestion(ctx context.Context, task taskmodel.Task, req Request, e embedding.Embedder, vectorDatabase vectorDB.DataProcessor) taskmodel.Task {
	log := logger.With("traceId", task.TraceId, "documentId", req.DocumentId)
	log.Debug("Processing document", "title", req.Title, "path", req.FilePath)

	task.CurrentStep = taskmodel.StepIngestProcessing
	err := vectorDatabase.EnsureCollection(ctx, config.ChunkCollectionName)
	if err != nil {
		log.Error("Error creating collection", "error", err)
		return failIngest(task, "vector collection unavailable")
	}

	docType := getDocType(req.FilePath)
	if docType == docmodel.ERR {
		log.Error("Unsupported document type", "path", req.FilePath)
		return failIngest(task, "unsupported document format")
	}

	source := docmodel.ChunkSource{
		DocumentId:   req.DocumentId,
		Title:        req.Title,
		Jurisdiction: req.Jurisdiction,
		IngestedAt:   time.Now(),
		ContentType:  docType,
	}

	rawPages, err := extractText(req.FilePath, docType)
	if err != nil {
		log.Error("Error extracting document content", "error", err)
		return failIngest(task, "error extracting document content")
	}

	chunks := PrepareChunks(rawPages, source, req.EmbedModel)
	log.Debug("Prepared chunks", "pages", len(rawPages), "chunks", len(chunks))

	// Re-ingest replaces the document's previous chunks.
	if err := vectorDatabase.DeleteByDocument(ctx, config.ChunkCollectionName, req.DocumentId); err != nil {
		log.Warn("Could not clear previous chunks", "error", err)
	}

	err = BatchIngest(ctx, chunks, vectorDatabase, e)
	if err != nil {
		log.Error("Error embedding document", "error", err)
		return failIngest(task, "error embedding document")
	}

	if err := os.Remove(req.FilePath); err != nil {
		log.Error("Error removing uploaded file", "error", err)
	}

	task.Status = taskmodel.TaskStatusCompleted
	task.CurrentStep = taskmodel.StepComplete
	if task.Results == nil {
		task.Results = map[string]any{}
	}
	task.Results["chunks_indexed"] = len(chunks)
	task.Results["pages"] = len(rawPages)
	return task
}

func failIngest(task taskmodel.Task, message string) taskmodel.Task {
	task.Status = taskmodel.TaskStatusFailed
	task.CurrentStep = taskmodel.StepError
	task.Error = taskmodel.TaskError{Code: 500, Message: message, Retry: true}
	return task
}
