package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsage/docsage/pkg/extract"
	"github.com/docsage/docsage/pkg/index"
	"github.com/docsage/docsage/pkg/rag"
	"github.com/docsage/docsage/pkg/store"
)

type stubEmbedder struct{}

func (stubEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		var sum float32
		for _, r := range text {
			sum += float32(r)
		}
		out[i] = []float32{float32(len(text)), sum}
	}
	return out, nil
}

type stubChat struct {
	response string
	models   []string
}

func (c *stubChat) Chat(ctx context.Context, model, prompt string) (string, error) {
	return c.response, nil
}

func (c *stubChat) ListModels(ctx context.Context) []string { return c.models }

func newTestServer(t *testing.T) (*Server, *stubChat) {
	t.Helper()
	chat := &stubChat{response: "stubbed answer", models: []string{"deepseek-r1:14b"}}

	manager := index.NewManager(store.NewMemoryStore(store.MemoryConfig{}), stubEmbedder{}, nil, index.Config{})
	t.Cleanup(manager.Close)

	answerer := rag.NewAnswerer(manager, chat, nil, rag.AnswererConfig{DefaultModel: "deepseek-r1:14b"})
	return New(Config{Addr: ":0", Extract: extract.Config{}}, manager, answerer, chat, nil), chat
}

func multipartBody(t *testing.T, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func uploadFile(t *testing.T, handler http.Handler, fileName, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, fileName, content)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestUploadAndAsk(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()

	rr := uploadFile(t, handler, "notes.txt", "The project ships in March.")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var uploadResp struct {
		Files []struct {
			Name   string `json:"name"`
			Chunks int    `json:"chunks"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &uploadResp))
	require.Len(t, uploadResp.Files, 1)
	assert.Equal(t, "notes.txt", uploadResp.Files[0].Name)
	assert.Greater(t, uploadResp.Files[0].Chunks, 0)

	askBody := bytes.NewBufferString(`{"question":"When does the project ship?"}`)
	req := httptest.NewRequest(http.MethodPost, "/ask", askBody)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var askResp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &askResp))
	assert.Equal(t, "stubbed answer", askResp["answer"])
}

func TestAskWithoutDocuments(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/ask", bytes.NewBufferString(`{"question":"anything?"}`))
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "upload a document")
}

func TestAskInvalidRole(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/ask",
		bytes.NewBufferString(`{"question":"q?","role":"astrologer"}`))
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "astrologer")
}

func TestUploadUnsupportedFormat(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := uploadFile(t, srv.Handler(), "archive.zip", "not really a zip")
	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
}

func TestRemoveDocument(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()

	rr := uploadFile(t, handler, "notes.txt", "Some content to remove later.")
	require.Equal(t, http.StatusOK, rr.Code)

	req := httptest.NewRequest(http.MethodDelete, "/documents/notes.txt", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	// Removing twice finds nothing.
	req = httptest.NewRequest(http.MethodDelete, "/documents/notes.txt", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestResetClearsDocuments(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()

	rr := uploadFile(t, handler, "notes.txt", "Gone after reset.")
	require.Equal(t, http.StatusOK, rr.Code)

	req := httptest.NewRequest(http.MethodPost, "/reset", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/documents", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.JSONEq(t, `{"documents":[]}`, rr.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/ask", bytes.NewBufferString(`{"question":"q?"}`))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestModelsAndRoles(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/models", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.JSONEq(t, `{"models":["deepseek-r1:14b"]}`, rr.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/roles", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.JSONEq(t, `{"roles":["default","financial","legal","technical","travel"]}`, rr.Body.String())
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())
}
