package agents

import (
	"context"

	"github.com/jurisai/jurisai/internal/domain/taskmodel"
	"github.com/jurisai/jurisai/internal/rag"
	"github.com/jurisai/jurisai/internal/rag/ingest"
	"github.com/jurisai/jurisai/pkg/logger_i"
)

// RAGIngest feeds an uploaded file through the chunk and embed pipeline so
// the document becomes searchable semantically.
type RAGIngest struct {
	rag    rag.Service
	logger *logger_i.Logger
}

func NewRAGIngest(ragService rag.Service) *RAGIngest {
	return &RAGIngest{
		rag:    ragService,
		logger: logger_i.NewLogger("RAGIngestAgent"),
	}
}

func (a *RAGIngest) Type() taskmodel.AgentType {
	return taskmodel.AgentRAGIngest
}

func (a *RAGIngest) Execute(ctx context.Context, task taskmodel.Task) taskmodel.Task {
	req, ok := requestFromParameters(task)
	if !ok {
		a.logger.Error("Ingest task missing parameters", "taskId", task.Id)
		return Fail(task, "missing ingest parameters", false)
	}

	task.CurrentStep = taskmodel.StepIngestInit
	return a.rag.IngestDocument(ctx, task, req)
}

// requestFromParameters rebuilds the ingest request from the task record.
// Parameters round-trip through JSON, so numbers arrive as float64.
func requestFromParameters(task taskmodel.Task) (ingest.Request, bool) {
	filePath, _ := task.Parameters["file_path"].(string)
	title, _ := task.Parameters["title"].(string)
	jurisdiction, _ := task.Parameters["jurisdiction"].(string)

	if filePath == "" || task.DocumentId == 0 {
		return ingest.Request{}, false
	}

	return ingest.Request{
		DocumentId:   task.DocumentId,
		Title:        title,
		Jurisdiction: jurisdiction,
		FilePath:     filePath,
	}, true
}
