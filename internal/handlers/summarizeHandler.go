package handlers

import (
	"errors"
	"net/http"

	"github.com/jurisai/jurisai/internal/api"
	"github.com/jurisai/jurisai/internal/data/postgres"
	"github.com/jurisai/jurisai/internal/documents"
	"github.com/jurisai/jurisai/internal/summarize"
	"github.com/jurisai/jurisai/pkg/logger_i"
)

type SummarizeHandler struct {
	summarizer *summarize.Summarizer
	documents  *documents.Service
	logger     *logger_i.Logger
}

func NewSummarizeHandler(summarizer *summarize.Summarizer, documentService *documents.Service) *SummarizeHandler {
	return &SummarizeHandler{
		summarizer: summarizer,
		documents:  documentService,
		logger:     logger_i.NewLogger("SummarizeHandler"),
	}
}

// Summarize godoc
// @Summary      Summarize a stored document or raw text
// @Description  Uses the configured LLM provider when available, otherwise an extractive fallback. Exactly one of document_id or text must be set.
// @Tags         Summarization
// @Accept       json
// @Produce      json
// @Param        request  body      api.SummarizeRequest  true  "Summarization request"
// @Success      200      {object}  api.SummaryResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /summarization [post]
func (h *SummarizeHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	var req api.SummarizeRequest
	if err := decodeBody(r, &req); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "bad request")
		return
	}
	if (req.DocumentId == 0) == (req.Text == "") {
		WriteErrorResponse(w, http.StatusBadRequest, "provide document_id or text, not both")
		return
	}

	text := req.Text
	if req.DocumentId != 0 {
		doc, err := h.documents.Get(r.Context(), req.DocumentId)
		if err != nil {
			if errors.Is(err, postgres.ErrNotFound) {
				WriteErrorResponse(w, http.StatusNotFound, "document not found")
				return
			}
			h.logger.Error("Failed to load document", "documentId", req.DocumentId, "error", err)
			WriteErrorResponse(w, http.StatusInternalServerError, "failed to load document")
			return
		}
		if doc.Content == "" {
			WriteErrorResponse(w, http.StatusBadRequest, "document has no extracted text")
			return
		}
		text = doc.Content
	}

	summary, aiUsed := h.summarizer.Summarize(r.Context(), text, summarize.Options{
		MaxLength:         req.MaxLength,
		FocusArea:         req.FocusArea,
		PreserveCitations: req.PreserveCitations,
	})

	keyPoints := make([]string, 0, 10)
	for _, term := range summarize.KeyTerms(text, 10) {
		keyPoints = append(keyPoints, term.Term)
	}

	writeJsonResponse(w, http.StatusOK, api.SummaryResponse{
		DocumentId:     req.DocumentId,
		Summary:        summary,
		KeyPoints:      keyPoints,
		Citations:      summarize.CaseCitations(text),
		OriginalLength: len(text),
		SummaryLength:  len(summary),
		AIUsed:         aiUsed,
	})
}
