package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"font-detection-service/config"
	"font-detection-service/models"
	"font-detection-service/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jpegBytes carries a JPEG magic number so http.DetectContentType reports image/jpeg.
var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

const vazirmatnResponse = `[
	{
		"name": "Vazirmatn",
		"confidence": 0.92,
		"isFree": true,
		"downloadUrl": "https://github.com/rastikerdar/vazirmatn",
		"description": "A Persian/Arabic sans-serif typeface widely used on the web.",
		"sampleCharacters": {
			"english": ["A", "B"],
			"persian": ["ا", "ب"],
			"numbers": ["1", "2"]
		}
	}
]`

// fakeLLM is a controllable gateway double.
type fakeLLM struct {
	resp  string
	err   error
	block chan struct{}
}

func (f *fakeLLM) SourceName() string { return "Fake" }

func (f *fakeLLM) IdentifyFonts(imageData []byte, mimeType string) (string, error) {
	if f.block != nil {
		<-f.block
	}
	return f.resp, f.err
}

func setupRouter(fake *fakeLLM, cfg *config.Config) (*gin.Engine, *session.Store) {
	gin.SetMode(gin.TestMode)

	if cfg == nil {
		cfg = &config.Config{MaxUploadBytes: 8 << 20}
	}
	store := session.NewStore(time.Minute)
	h := NewHandlers(cfg, fake, store)

	router := gin.New()
	router.GET("/health", h.HealthCheck)
	api := router.Group("/api/v3")
	{
		api.POST("/sessions", h.CreateSession)
		api.GET("/sessions/:id", h.GetSession)
		api.DELETE("/sessions/:id", h.DeleteSession)
		api.POST("/sessions/:id/image", h.UploadImage)
		api.POST("/sessions/:id/analyze", h.Analyze)
		api.POST("/sessions/:id/copy", h.CopyCharacter)
	}
	return router, store
}

func doRequest(router *gin.Engine, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func multipartImage(t *testing.T, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "upload.jpg")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func createSession(t *testing.T, router *gin.Engine) models.SessionView {
	t.Helper()
	w := doRequest(router, "POST", "/api/v3/sessions", nil, "")
	require.Equal(t, http.StatusCreated, w.Code)

	var view models.SessionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.NotEmpty(t, view.ID)
	return view
}

func uploadImage(t *testing.T, router *gin.Engine, id string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartImage(t, data)
	return doRequest(router, "POST", "/api/v3/sessions/"+id+"/image", body, contentType)
}

func getView(t *testing.T, router *gin.Engine, id string) models.SessionView {
	t.Helper()
	w := doRequest(router, "GET", "/api/v3/sessions/"+id, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var view models.SessionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	return view
}

func waitForCompletion(t *testing.T, router *gin.Engine, id string) models.SessionView {
	t.Helper()
	var view models.SessionView
	require.Eventually(t, func() bool {
		view = getView(t, router, id)
		return view.Status != string(session.StatusLoading)
	}, 2*time.Second, 10*time.Millisecond)
	return view
}

func TestHealthCheck(t *testing.T) {
	router, _ := setupRouter(&fakeLLM{}, nil)

	w := doRequest(router, "GET", "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "font-detection-service")
}

func TestCreateAndGetSession(t *testing.T) {
	router, _ := setupRouter(&fakeLLM{}, nil)

	view := createSession(t, router)
	assert.Equal(t, string(session.StatusIdle), view.Status)
	assert.False(t, view.HasImage)
	assert.NotNil(t, view.Results)
	assert.Empty(t, view.Results)

	got := getView(t, router, view.ID)
	assert.Equal(t, view.ID, got.ID)
}

func TestSessionNotFound(t *testing.T) {
	router, _ := setupRouter(&fakeLLM{}, nil)

	w := doRequest(router, "GET", "/api/v3/sessions/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadImage(t *testing.T) {
	router, _ := setupRouter(&fakeLLM{}, nil)
	view := createSession(t, router)

	w := uploadImage(t, router, view.ID, jpegBytes)
	require.Equal(t, http.StatusOK, w.Code)

	got := getView(t, router, view.ID)
	assert.True(t, got.HasImage)
	assert.Equal(t, "image/jpeg", got.ImageMimeType)
	assert.Equal(t, string(session.StatusIdle), got.Status)
}

func TestUploadRejectsNonImage(t *testing.T) {
	router, _ := setupRouter(&fakeLLM{}, nil)
	view := createSession(t, router)

	w := uploadImage(t, router, view.ID, []byte("this is a text file, not an image"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadRejectsMissingFile(t *testing.T) {
	router, _ := setupRouter(&fakeLLM{}, nil)
	view := createSession(t, router)

	w := doRequest(router, "POST", "/api/v3/sessions/"+view.ID+"/image", nil, "multipart/form-data")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadRejectsOversizeImage(t *testing.T) {
	cfg := &config.Config{MaxUploadBytes: 4}
	router, _ := setupRouter(&fakeLLM{}, cfg)
	view := createSession(t, router)

	w := uploadImage(t, router, view.ID, jpegBytes)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestAnalyzeWithoutImage(t *testing.T) {
	router, _ := setupRouter(&fakeLLM{}, nil)
	view := createSession(t, router)

	w := doRequest(router, "POST", "/api/v3/sessions/"+view.ID+"/analyze", nil, "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAnalyzeSuccess(t *testing.T) {
	router, _ := setupRouter(&fakeLLM{resp: vazirmatnResponse}, nil)
	view := createSession(t, router)
	require.Equal(t, http.StatusOK, uploadImage(t, router, view.ID, jpegBytes).Code)

	w := doRequest(router, "POST", "/api/v3/sessions/"+view.ID+"/analyze", nil, "")
	require.Equal(t, http.StatusAccepted, w.Code)

	got := waitForCompletion(t, router, view.ID)
	assert.Equal(t, string(session.StatusSuccess), got.Status)
	require.Len(t, got.Results, 1)

	font := got.Results[0]
	assert.Equal(t, "Vazirmatn", font.Name)
	assert.Equal(t, 0.92, font.Confidence)
	assert.True(t, font.IsFree)
	assert.Equal(t, "https://github.com/rastikerdar/vazirmatn", font.DownloadURL)

	total := len(font.SampleCharacters.English) + len(font.SampleCharacters.Persian) + len(font.SampleCharacters.Numbers)
	assert.Equal(t, 6, total)

	assert.Empty(t, got.Notice)
	assert.Empty(t, got.Error)
}

func TestAnalyzeEmptyResponse(t *testing.T) {
	router, _ := setupRouter(&fakeLLM{resp: "[]"}, nil)
	view := createSession(t, router)
	require.Equal(t, http.StatusOK, uploadImage(t, router, view.ID, jpegBytes).Code)

	w := doRequest(router, "POST", "/api/v3/sessions/"+view.ID+"/analyze", nil, "")
	require.Equal(t, http.StatusAccepted, w.Code)

	got := waitForCompletion(t, router, view.ID)
	assert.Equal(t, string(session.StatusSuccess), got.Status)
	assert.Empty(t, got.Results)
	assert.Equal(t, session.NoticeNoFonts, got.Notice)
	assert.Empty(t, got.Error)
}

func TestAnalyzeMalformedResponse(t *testing.T) {
	// A parse failure is indistinguishable from a legitimate empty result.
	router, _ := setupRouter(&fakeLLM{resp: "sorry, I can't help with that"}, nil)
	view := createSession(t, router)
	require.Equal(t, http.StatusOK, uploadImage(t, router, view.ID, jpegBytes).Code)

	w := doRequest(router, "POST", "/api/v3/sessions/"+view.ID+"/analyze", nil, "")
	require.Equal(t, http.StatusAccepted, w.Code)

	got := waitForCompletion(t, router, view.ID)
	assert.Equal(t, string(session.StatusSuccess), got.Status)
	assert.Empty(t, got.Results)
	assert.Equal(t, session.NoticeNoFonts, got.Notice)
}

func TestAnalyzeGatewayError(t *testing.T) {
	fake := &fakeLLM{err: errors.New("provider unavailable")}
	router, store := setupRouter(fake, nil)
	view := createSession(t, router)
	require.Equal(t, http.StatusOK, uploadImage(t, router, view.ID, jpegBytes).Code)

	// Seed prior results so the failure can be seen clearing them.
	s, ok := store.Get(view.ID)
	require.True(t, ok)
	_, _, err := s.BeginAnalysis()
	require.NoError(t, err)
	s.CompleteSuccess([]models.FontInfo{{Name: "Helvetica"}})

	w := doRequest(router, "POST", "/api/v3/sessions/"+view.ID+"/analyze", nil, "")
	require.Equal(t, http.StatusAccepted, w.Code)

	got := waitForCompletion(t, router, view.ID)
	assert.Equal(t, string(session.StatusFailed), got.Status)
	assert.Empty(t, got.Results)
	assert.Equal(t, session.ErrGenericAnalysis, got.Error)
	assert.Empty(t, got.Notice)
}

func TestAnalyzeWhileLoading(t *testing.T) {
	fake := &fakeLLM{resp: "[]", block: make(chan struct{})}
	router, _ := setupRouter(fake, nil)
	view := createSession(t, router)
	require.Equal(t, http.StatusOK, uploadImage(t, router, view.ID, jpegBytes).Code)

	w := doRequest(router, "POST", "/api/v3/sessions/"+view.ID+"/analyze", nil, "")
	require.Equal(t, http.StatusAccepted, w.Code)

	// The trigger is disabled while a request is in flight.
	w = doRequest(router, "POST", "/api/v3/sessions/"+view.ID+"/analyze", nil, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	close(fake.block)
	got := waitForCompletion(t, router, view.ID)
	assert.Equal(t, string(session.StatusSuccess), got.Status)
}

func TestCopyCharacter(t *testing.T) {
	router, _ := setupRouter(&fakeLLM{}, nil)
	view := createSession(t, router)

	body := bytes.NewBufferString(`{"character": "ا"}`)
	w := doRequest(router, "POST", "/api/v3/sessions/"+view.ID+"/copy", body, "application/json")
	require.Equal(t, http.StatusOK, w.Code)

	got := getView(t, router, view.ID)
	assert.Equal(t, "ا", got.CopiedCharacter)
}

func TestCopyCharacterRequiresValue(t *testing.T) {
	router, _ := setupRouter(&fakeLLM{}, nil)
	view := createSession(t, router)

	body := bytes.NewBufferString(`{"character": ""}`)
	w := doRequest(router, "POST", "/api/v3/sessions/"+view.ID+"/copy", body, "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteSession(t *testing.T) {
	router, _ := setupRouter(&fakeLLM{}, nil)
	view := createSession(t, router)

	w := doRequest(router, "DELETE", "/api/v3/sessions/"+view.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, "GET", "/api/v3/sessions/"+view.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
