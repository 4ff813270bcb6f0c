package handlers

import (
	"errors"
	"net/http"

	"github.com/jurisai/jurisai/internal/adapter"
	"github.com/jurisai/jurisai/internal/api"
	"github.com/jurisai/jurisai/internal/rag"
	"github.com/jurisai/jurisai/internal/search"
	"github.com/jurisai/jurisai/pkg/logger_i"
)

type SearchHandler struct {
	service *search.Service
	logger  *logger_i.Logger
}

func NewSearchHandler(service *search.Service) *SearchHandler {
	return &SearchHandler{
		service: service,
		logger:  logger_i.NewLogger("SearchHandler"),
	}
}

// Search godoc
// @Summary      Search legal documents
// @Description  Lexical search by default; pass use_semantic=true for vector search over ingested chunks. Falls back to lexical when the vector stack is down.
// @Tags         Search
// @Produce      json
// @Param        q              query  string  true   "Search query"
// @Param        use_semantic   query  bool    false  "Use vector search"
// @Param        document_type  query  string  false  "Filter by type (lexical only)"
// @Param        jurisdiction   query  string  false  "Filter by jurisdiction (lexical only)"
// @Param        offset         query  int     false  "Pagination offset"
// @Param        limit          query  int     false  "Page size"
// @Success      200  {object}  api.SearchResponse
// @Failure      400  {object}  api.ErrorResponse
// @Router       /search [get]
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	queryText := r.URL.Query().Get("q")
	if queryText == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "q is required")
		return
	}

	result, err := h.service.Search(r.Context(), search.Query{
		Text:         queryText,
		DocumentType: r.URL.Query().Get("document_type"),
		Jurisdiction: r.URL.Query().Get("jurisdiction"),
		Offset:       queryInt(r, "offset", 0),
		Limit:        queryInt(r, "limit", 10),
		UseSemantic:  r.URL.Query().Get("use_semantic") == "true",
	})
	if err != nil {
		h.logger.Error("Search failed", "query", queryText, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "search failed")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToSearchResponse(queryText, result))
}

// Ask godoc
// @Summary      Ask a question against the ingested corpus
// @Description  Runs the full retrieval flow and returns a generated answer with its sources.
// @Tags         Search
// @Accept       json
// @Produce      json
// @Param        request  body      api.AskRequest  true  "Question and optional chat history"
// @Success      200      {object}  api.AskResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      503      {object}  api.ErrorResponse  "Vector stack or LLM unavailable"
// @Router       /search/ask [post]
func (h *SearchHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req api.AskRequest
	if err := decodeBody(r, &req); err != nil || req.Question == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "question is required")
		return
	}

	answer, err := h.service.Ask(r.Context(), req.Question, req.History)
	if err != nil {
		if errors.Is(err, rag.ErrUnavailable) {
			WriteErrorResponse(w, http.StatusServiceUnavailable, "semantic backend unavailable")
			return
		}
		h.logger.Error("Question answering failed", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "failed to answer question")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAskResponse(req.Question, answer))
}
