package agents

import (
	"context"

	"github.com/jurisai/jurisai/internal/domain/docmodel"
	"github.com/jurisai/jurisai/internal/domain/taskmodel"
	"github.com/jurisai/jurisai/internal/summarize"
	"github.com/jurisai/jurisai/pkg/logger_i"
)

// DocumentStore is the slice of the documents store the analyzer writes
// its findings back through.
type DocumentStore interface {
	Get(ctx context.Context, id int64) (docmodel.Document, error)
	Update(ctx context.Context, d docmodel.Document) (docmodel.Document, error)
	SetSummary(ctx context.Context, id int64, summary string) error
	ReplaceEntities(ctx context.Context, documentId int64, entities []docmodel.Entity) error
	ReplaceKeyTerms(ctx context.Context, documentId int64, terms []docmodel.KeyTerm) error
}

// DocumentAnalyzer runs the analysis pipeline over a stored document and
// persists the summary, entities and key terms it finds.
type DocumentAnalyzer struct {
	documents  DocumentStore
	summarizer *summarize.Summarizer
	flags      summarize.FlagChecker
	logger     *logger_i.Logger
}

func NewDocumentAnalyzer(documents DocumentStore, summarizer *summarize.Summarizer, flags summarize.FlagChecker) *DocumentAnalyzer {
	return &DocumentAnalyzer{
		documents:  documents,
		summarizer: summarizer,
		flags:      flags,
		logger:     logger_i.NewLogger("DocumentAnalyzer"),
	}
}

func (a *DocumentAnalyzer) Type() taskmodel.AgentType {
	return taskmodel.AgentDocumentAnalyzer
}

func (a *DocumentAnalyzer) Execute(ctx context.Context, task taskmodel.Task) taskmodel.Task {
	log := a.logger.With("taskId", task.Id, "documentId", task.DocumentId)
	task.CurrentStep = taskmodel.StepAnalysis

	doc, err := a.documents.Get(ctx, task.DocumentId)
	if err != nil {
		log.Error("Document lookup failed", "error", err)
		return Fail(task, "document not found", false)
	}
	if doc.Content == "" {
		return Fail(task, "document has no extracted content", false)
	}

	analysis := a.summarizer.AnalyzeDocument(ctx, doc, task.Parameters, a.flags, task.UserId)

	a.persistFindings(ctx, log, doc, analysis)

	task.Results = analysis.Results
	task.Confidence = analysis.Confidence
	task.Status = taskmodel.TaskStatusCompleted
	task.CurrentStep = taskmodel.StepComplete
	log.Info("Analysis complete", "confidence", analysis.Confidence)
	return task
}

// persistFindings writes analysis output back to the document tables. These
// writes are best effort; the task result carries everything regardless.
func (a *DocumentAnalyzer) persistFindings(ctx context.Context, log *logger_i.Logger, doc docmodel.Document, analysis summarize.Analysis) {
	if summary, ok := analysis.Results["summary"].(map[string]any); ok {
		if text, _ := summary["text"].(string); text != "" {
			if err := a.documents.SetSummary(ctx, doc.Id, text); err != nil {
				log.Error("Failed to save summary", "error", err)
			}
		}
	}

	if analysis.DocumentType != "" && analysis.DocumentType != doc.DocumentType {
		doc.DocumentType = analysis.DocumentType
		if _, err := a.documents.Update(ctx, doc); err != nil {
			log.Error("Failed to update document type", "error", err)
		}
	}

	if len(analysis.Entities) > 0 {
		if err := a.documents.ReplaceEntities(ctx, doc.Id, analysis.Entities); err != nil {
			log.Error("Failed to save entities", "error", err)
		}
	}
	if len(analysis.KeyTerms) > 0 {
		if err := a.documents.ReplaceKeyTerms(ctx, doc.Id, analysis.KeyTerms); err != nil {
			log.Error("Failed to save key terms", "error", err)
		}
	}
}
