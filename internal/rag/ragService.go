// Package rag wires the embedder, vector store and LLM provider into the
// retrieval-augmented answer flow. Callers only see the Service interface;
// the concrete clients stay private to this package.
package rag

import (
	"context"
	"errors"
	"time"

	"github.com/jurisai/jurisai/internal/adapter/utils"
	"github.com/jurisai/jurisai/internal/config"
	"github.com/jurisai/jurisai/internal/domain/taskmodel"
	"github.com/jurisai/jurisai/internal/metrics"
	"github.com/jurisai/jurisai/internal/rag/embedding"
	"github.com/jurisai/jurisai/internal/rag/ingest"
	"github.com/jurisai/jurisai/internal/rag/llm"
	"github.com/jurisai/jurisai/internal/rag/vectorDB"
	"github.com/jurisai/jurisai/pkg/logger_i"
)

// ErrUnavailable is returned when the vector store or embedder is down;
// callers fall back to lexical behavior.
var ErrUnavailable = errors.New("semantic backend unavailable")

// Answer is a generated response with the chunks that grounded it.
type Answer struct {
	Text    string           `json:"text"`
	Sources []vectorDB.Match `json:"sources,omitempty"`
	Cached  bool             `json:"cached"`
}

// Service is the only surface the search and worker layers call. It hides
// the embedder, the vector store and the LLM provider behind one contract so
// tests can swap them for mocks.
type Service interface {
	AnswerQuestion(ctx context.Context, question string, messageHistory []string) (Answer, error)
	SemanticSearch(ctx context.Context, query string, limit uint64) ([]vectorDB.Match, error)
	IngestDocument(ctx context.Context, task taskmodel.Task, req ingest.Request) taskmodel.Task
	RemoveDocument(ctx context.Context, documentId int64) error
	Provider() llm.Provider
}

type service struct {
	vectorDB    vectorDB.DataProcessor
	llmProvider llm.Provider
	embedder    embedding.Embedder
	embedModel  string
	logger      *logger_i.Logger
}

func NewService(vector vectorDB.DataProcessor, provider llm.Provider, em embedding.Embedder, embedModel string) Service {
	return &service{
		vectorDB:    vector,
		llmProvider: provider,
		embedder:    em,
		embedModel:  embedModel,
		logger:      logger_i.NewLogger("RAG Service"),
	}
}

// AnswerQuestion runs embed, semantic cache check, vector search and LLM
// generation. Cache hits skip the last two steps.
func (s *service) AnswerQuestion(ctx context.Context, question string, messageHistory []string) (Answer, error) {
	if s.embedder == nil || s.vectorDB == nil || s.llmProvider == nil {
		return Answer{}, ErrUnavailable
	}
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	processContext, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	emb, err := s.executeEmbeddingStep(processContext, question)
	if err != nil {
		log.Error("embedding failed", "error", err)
		return Answer{}, err
	}

	if cached, found := s.executeCacheCheckStep(processContext, emb); found {
		return Answer{Text: cached, Cached: true}, nil
	}

	matches, err := s.executeVectorSearchStep(processContext, emb, 3)
	if err != nil {
		log.Error("vector search failed", "error", err)
		return Answer{}, err
	}

	answer, err := s.executeLLMStep(processContext, question, matches, messageHistory)
	if err != nil {
		log.Error("llm generation failed", "error", err)
		return Answer{}, err
	}

	// The semantic cache write is best effort and off the request path.
	go func() {
		saveCtx, saveCancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer saveCancel()
		if err := s.vectorDB.SaveToCache(saveCtx, utils.GetNewUUID(), emb, answer); err != nil {
			s.logger.Error("Failed to save to semantic cache", "error", err)
		}
	}()

	return Answer{Text: answer, Sources: matches}, nil
}

// SemanticSearch embeds the query and returns scored chunks without LLM
// generation; this is the search endpoint's semantic mode.
func (s *service) SemanticSearch(ctx context.Context, query string, limit uint64) ([]vectorDB.Match, error) {
	if s.embedder == nil || s.vectorDB == nil {
		return nil, ErrUnavailable
	}

	emb, err := s.executeEmbeddingStep(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.executeVectorSearchStep(ctx, emb, limit)
}

func (s *service) IngestDocument(ctx context.Context, task taskmodel.Task, req ingest.Request) taskmodel.Task {
	if s.embedder == nil || s.vectorDB == nil {
		task.Status = taskmodel.TaskStatusFailed
		task.CurrentStep = taskmodel.StepError
		task.Error = taskmodel.TaskError{Code: 503, Message: ErrUnavailable.Error(), Retry: true}
		return task
	}

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("document_ingestion", time.Since(start)) }()

	req.EmbedModel = s.embedModel
	return ingest.ProcessDocumentIngestion(ctx, task, req, s.embedder, s.vectorDB)
}

func (s *service) RemoveDocument(ctx context.Context, documentId int64) error {
	if s.vectorDB == nil {
		return ErrUnavailable
	}
	return s.vectorDB.DeleteByDocument(ctx, chunkCollection(), documentId)
}

// Provider exposes the LLM for the summarizer; nil when no provider is up.
func (s *service) Provider() llm.Provider {
	return s.llmProvider
}
