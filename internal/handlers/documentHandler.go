package handlers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/jurisai/jurisai/internal/adapter"
	"github.com/jurisai/jurisai/internal/adapter/utils"
	"github.com/jurisai/jurisai/internal/api"
	"github.com/jurisai/jurisai/internal/config"
	"github.com/jurisai/jurisai/internal/data/postgres"
	"github.com/jurisai/jurisai/internal/documents"
	"github.com/jurisai/jurisai/internal/domain/docmodel"
	"github.com/jurisai/jurisai/pkg/logger_i"
)

// batchProcessingFlag gates the batch upload endpoint.
const batchProcessingFlag = "enable_batch_processing"

// FlagChecker gates optional features; the featureflags service implements
// it.
type FlagChecker interface {
	IsEnabled(ctx context.Context, flagKey string, userId int64) bool
}

type DocumentHandler struct {
	service *documents.Service
	flags   FlagChecker
	logger  *logger_i.Logger
}

func NewDocumentHandler(service *documents.Service, flags FlagChecker) *DocumentHandler {
	return &DocumentHandler{
		service: service,
		flags:   flags,
		logger:  logger_i.NewLogger("DocumentHandler"),
	}
}

// Upload godoc
// @Summary      Upload a legal document
// @Description  Receives a file via multipart/form-data, extracts its text, persists it, and queues a vector ingest task. Pass auto_analyze=true to also queue analysis.
// @Tags         Documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        title             formData  string  true   "Document title"
// @Param        document          formData  file    true   "PDF, DOCX, RTF or TXT file"
// @Param        document_type     formData  string  false  "e.g. court_judgment"
// @Param        jurisdiction      formData  string  false  "e.g. Lagos"
// @Param        publication_date  formData  string  false  "RFC 3339 date"
// @Param        auto_analyze      formData  bool    false  "Queue an analysis task too"
// @Success      202  {object}  api.UploadResponse
// @Failure      400  {object}  api.ErrorResponse
// @Failure      500  {object}  api.ErrorResponse
// @Router       /documents [post]
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(config.MaxUploadBytes); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "file too large or bad request")
		return
	}

	title := r.FormValue("title")
	if title == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}

	fileReader, fileMetadata, err := r.FormFile("document")
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "could not retrieve file")
		return
	}
	defer fileReader.Close()

	user, ok := currentUser(r)
	if !ok {
		WriteErrorResponse(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	in := documents.UploadInput{
		Title:        title,
		DocumentType: r.FormValue("document_type"),
		Jurisdiction: r.FormValue("jurisdiction"),
		FileName:     fileMetadata.Filename,
		File:         fileReader,
		Owner:        &user,
		AutoAnalyze:  r.FormValue("auto_analyze") == "true",
	}
	if raw := r.FormValue("publication_date"); raw != "" {
		published, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			WriteErrorResponse(w, http.StatusBadRequest, "publication_date must be RFC 3339")
			return
		}
		in.PublicationDate = &published
	}

	result, err := h.service.Upload(r.Context(), in)
	if err != nil {
		if errors.Is(err, documents.ErrUnsupportedFormat) {
			WriteErrorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Upload failed", "title", title, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "upload failed")
		return
	}

	res := api.UploadResponse{
		Document:       adapter.ToDocumentResponse(result.Document),
		ExtractedWords: result.Document.WordCount,
	}
	ingestInit := adapter.ToInitTaskResponse(result.IngestTask.Id)
	res.IngestTask = &ingestInit
	if result.AnalysisTask != nil {
		analysisInit := adapter.ToInitTaskResponse(result.AnalysisTask.Id)
		res.AnalysisTask = &analysisInit
	}
	writeJsonResponse(w, http.StatusAccepted, res)
}

// BatchUpload godoc
// @Summary      Upload up to 20 documents in one request
// @Description  Every file gets its own document record and ingest task; all records carry the batch id in their metadata. Gated by the enable_batch_processing flag.
// @Tags         Documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        files          formData  file    true   "One or more files (max 20)"
// @Param        document_type  formData  string  false  "Applied to every file"
// @Param        jurisdiction   formData  string  false  "Applied to every file"
// @Param        auto_analyze   formData  bool    false  "Queue analysis for every file"
// @Success      202  {object}  api.BatchUploadResponse
// @Failure      400  {object}  api.ErrorResponse
// @Failure      403  {object}  api.ErrorResponse
// @Router       /documents/batch-upload [post]
func (h *DocumentHandler) BatchUpload(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		WriteErrorResponse(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if h.flags != nil && !h.flags.IsEnabled(r.Context(), batchProcessingFlag, user.Id) {
		WriteErrorResponse(w, http.StatusForbidden, "batch processing is not enabled")
		return
	}

	if err := r.ParseMultipartForm(config.MaxUploadBytes); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "files too large or bad request")
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		WriteErrorResponse(w, http.StatusBadRequest, "no files were uploaded")
		return
	}
	if len(files) > documents.MaxBatchFiles {
		WriteErrorResponse(w, http.StatusBadRequest,
			fmt.Sprintf("maximum %d files can be uploaded in a batch", documents.MaxBatchFiles))
		return
	}

	docType := r.FormValue("document_type")
	jurisdiction := r.FormValue("jurisdiction")
	autoAnalyze := r.FormValue("auto_analyze") == "true"

	var readers []multipart.File
	defer func() {
		for _, rd := range readers {
			rd.Close()
		}
	}()

	inputs := make([]documents.UploadInput, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			WriteErrorResponse(w, http.StatusBadRequest, "could not read "+fh.Filename)
			return
		}
		readers = append(readers, f)
		inputs = append(inputs, documents.UploadInput{
			Title:        titleFromFilename(fh.Filename),
			DocumentType: docType,
			Jurisdiction: jurisdiction,
			FileName:     fh.Filename,
			File:         f,
			Owner:        &user,
			AutoAnalyze:  autoAnalyze,
		})
	}

	batchId := fmt.Sprintf("batch_%s_%s", time.Now().UTC().Format("20060102150405"), utils.GetNewUUID()[:8])
	result, err := h.service.UploadBatch(r.Context(), batchId, inputs)
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	res := api.BatchUploadResponse{
		BatchId:       result.BatchId,
		DocumentCount: len(result.Uploaded),
		Status:        "processing",
	}
	for _, u := range result.Uploaded {
		res.Documents = append(res.Documents, adapter.ToDocumentResponse(u.Document))
	}
	for _, f := range result.Failed {
		res.Failed = append(res.Failed, api.BatchFileError{FileName: f.FileName, Reason: f.Reason})
	}
	writeJsonResponse(w, http.StatusAccepted, res)
}

func titleFromFilename(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// List godoc
// @Summary      List documents
// @Tags         Documents
// @Produce      json
// @Param        document_type  query  string  false  "Filter by type"
// @Param        jurisdiction   query  string  false  "Filter by jurisdiction"
// @Param        offset         query  int     false  "Pagination offset"
// @Param        limit          query  int     false  "Page size"
// @Success      200  {object}  api.DocumentListResponse
// @Router       /documents [get]
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 50)

	docs, err := h.service.List(r.Context(), postgres.ListFilter{
		DocumentType: r.URL.Query().Get("document_type"),
		Jurisdiction: r.URL.Query().Get("jurisdiction"),
		Offset:       offset,
		Limit:        limit,
	})
	if err != nil {
		h.logger.Error("Failed to list documents", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "failed to list documents")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToDocumentListResponse(docs, offset, limit))
}

// Get godoc
// @Summary      Get a document
// @Tags         Documents
// @Produce      json
// @Param        id   path      int  true  "Document ID"
// @Success      200  {object}  api.DocumentResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /documents/{id} [get]
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		WriteErrorResponse(w, http.StatusBadRequest, "invalid document id")
		return
	}
	doc, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToDocumentResponse(doc))
}

// Update godoc
// @Summary      Update document metadata
// @Description  Only the owner or an admin may update.
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Param        id       path      int                        true  "Document ID"
// @Param        request  body      api.UpdateDocumentRequest  true  "Fields to change"
// @Success      200      {object}  api.DocumentResponse
// @Failure      403      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /documents/{id} [put]
func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		WriteErrorResponse(w, http.StatusBadRequest, "invalid document id")
		return
	}
	user, ok := currentUser(r)
	if !ok {
		WriteErrorResponse(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req api.UpdateDocumentRequest
	if err := decodeBody(r, &req); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "bad request")
		return
	}

	doc, err := h.service.Update(r.Context(), &user, docmodelUpdate(id, req))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToDocumentResponse(doc))
}

// Delete godoc
// @Summary      Delete a document and its vector chunks
// @Tags         Documents
// @Param        id  path  int  true  "Document ID"
// @Success      204  "Document deleted"
// @Failure      403  {object}  api.ErrorResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /documents/{id} [delete]
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		WriteErrorResponse(w, http.StatusBadRequest, "invalid document id")
		return
	}
	user, ok := currentUser(r)
	if !ok {
		WriteErrorResponse(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if err := h.service.Delete(r.Context(), &user, id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Entities godoc
// @Summary      List entities extracted from a document
// @Tags         Documents
// @Produce      json
// @Param        id   path      int  true  "Document ID"
// @Success      200  {object}  api.EntitiesResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /documents/{id}/entities [get]
func (h *DocumentHandler) Entities(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		WriteErrorResponse(w, http.StatusBadRequest, "invalid document id")
		return
	}
	if _, err := h.service.Get(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	entities, err := h.service.Entities(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load entities", "documentId", id, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "failed to load entities")
		return
	}
	writeJsonResponse(w, http.StatusOK, api.EntitiesResponse{DocumentId: id, Entities: entities})
}

// KeyTerms godoc
// @Summary      List key terms extracted from a document
// @Tags         Documents
// @Produce      json
// @Param        id   path      int  true  "Document ID"
// @Success      200  {object}  api.KeyTermsResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /documents/{id}/key_terms [get]
func (h *DocumentHandler) KeyTerms(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		WriteErrorResponse(w, http.StatusBadRequest, "invalid document id")
		return
	}
	if _, err := h.service.Get(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	terms, err := h.service.KeyTerms(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load key terms", "documentId", id, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "failed to load key terms")
		return
	}
	writeJsonResponse(w, http.StatusOK, api.KeyTermsResponse{DocumentId: id, KeyTerms: terms})
}

// Analyze godoc
// @Summary      Queue an analysis task for a document
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Param        id       path      int                 true   "Document ID"
// @Param        request  body      api.AnalyzeRequest  false  "Optional analysis parameters"
// @Success      202      {object}  api.InitTaskResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /documents/{id}/analyze [post]
func (h *DocumentHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		WriteErrorResponse(w, http.StatusBadRequest, "invalid document id")
		return
	}
	user, ok := currentUser(r)
	if !ok {
		WriteErrorResponse(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req api.AnalyzeRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			WriteErrorResponse(w, http.StatusBadRequest, "bad request")
			return
		}
	}

	task, err := h.service.Analyze(r.Context(), &user, id, req.Parameters)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitTaskResponse(task.Id))
}

func docmodelUpdate(id int64, req api.UpdateDocumentRequest) docmodel.Document {
	return docmodel.Document{
		Id:           id,
		Title:        req.Title,
		DocumentType: req.DocumentType,
		Jurisdiction: req.Jurisdiction,
		Metadata:     req.Metadata,
	}
}

func (h *DocumentHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, postgres.ErrNotFound):
		WriteErrorResponse(w, http.StatusNotFound, "document not found")
	case errors.Is(err, documents.ErrForbidden):
		WriteErrorResponse(w, http.StatusForbidden, "not the document owner")
	default:
		h.logger.Error("Document operation failed", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "internal error")
	}
}
