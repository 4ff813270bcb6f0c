package handlers

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jurisai/jurisai/internal/config"
	"github.com/jurisai/jurisai/internal/documents"
	"github.com/jurisai/jurisai/internal/domain/usermodel"
)

type stubFlags struct {
	enabled bool
	asked   string
}

func (s *stubFlags) IsEnabled(_ context.Context, flagKey string, _ int64) bool {
	s.asked = flagKey
	return s.enabled
}

func batchRequest(t *testing.T, fileCount int) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for i := 0; i < fileCount; i++ {
		part, err := writer.CreateFormFile("files", fmt.Sprintf("doc-%d.txt", i))
		require.NoError(t, err)
		_, err = part.Write([]byte("section one"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/documents/batch-upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	user := usermodel.User{Id: 7, Role: usermodel.LegacyRoleUser}
	return req.WithContext(context.WithValue(req.Context(), config.AUTH_USER_KEY, user))
}

func TestBatchUploadRequiresAuth(t *testing.T) {
	h := NewDocumentHandler(nil, &stubFlags{enabled: true})

	req := httptest.NewRequest(http.MethodPost, "/documents/batch-upload", nil)
	rec := httptest.NewRecorder()
	h.BatchUpload(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBatchUploadFlagDisabled(t *testing.T) {
	flags := &stubFlags{enabled: false}
	h := NewDocumentHandler(nil, flags)

	rec := httptest.NewRecorder()
	h.BatchUpload(rec, batchRequest(t, 2))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "enable_batch_processing", flags.asked)
}

func TestBatchUploadRejectsEmptyAndOversizedBatches(t *testing.T) {
	h := NewDocumentHandler(nil, &stubFlags{enabled: true})

	rec := httptest.NewRecorder()
	h.BatchUpload(rec, batchRequest(t, 0))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.BatchUpload(rec, batchRequest(t, documents.MaxBatchFiles+1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "maximum 20 files")
}
