package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestInferMimeType(t *testing.T) {
	cases := map[string]string{
		"resume.pdf":  "application/pdf",
		"resume.txt":  "text/plain",
		"resume.doc":  "application/msword",
		"resume.docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"resume.xyz":  "application/octet-stream",
	}
	for filename, want := range cases {
		assert.Equal(t, want, inferMimeType(filename))
	}
}

func newUploadRequest(t *testing.T, fields map[string]string, withFile bool) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if withFile {
		fw, err := w.CreateFormFile("file", "resume.pdf")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write([]byte("%PDF-1.4 fake content"))
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestUpload_MissingOwnerID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewDocumentHandler(nil, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = newUploadRequest(t, map[string]string{"kind": "cv"}, true)

	h.Upload(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_OWNER_ID")
}

func TestUpload_InvalidKind(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewDocumentHandler(nil, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = newUploadRequest(t, map[string]string{
		"owner_id": "8d9e9a2b-1f0a-4a9e-8a0a-1f0a4a9e8a0a",
		"kind":     "resume",
	}, true)

	h.Upload(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_KIND")
}

func TestUpload_MissingFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewDocumentHandler(nil, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = newUploadRequest(t, map[string]string{
		"owner_id": "8d9e9a2b-1f0a-4a9e-8a0a-1f0a4a9e8a0a",
		"kind":     "cv",
	}, false)

	h.Upload(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "MISSING_FILE")
}
