package handlers

import (
	"io"
	"net/http"
	"strings"
	"time"

	"font-detection-service/config"
	"font-detection-service/llm"
	"font-detection-service/metrics"
	"font-detection-service/parser"
	"font-detection-service/session"
	"font-detection-service/version"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// Handlers represents the HTTP handlers
type Handlers struct {
	cfg       *config.Config
	llmClient llm.Client
	store     *session.Store
}

// NewHandlers creates new HTTP handlers
func NewHandlers(cfg *config.Config, llmClient llm.Client, store *session.Store) *Handlers {
	return &Handlers{
		cfg:       cfg,
		llmClient: llmClient,
		store:     store,
	}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"service":  "font-detection-service",
		"provider": h.llmClient.SourceName(),
		"build":    version.Get("font-detection-service"),
	})
}

// CreateSession creates a new analysis session
func (h *Handlers) CreateSession(c *gin.Context) {
	s := h.store.Create()
	metrics.ActiveSessions.Set(float64(h.store.Len()))

	log.Infof("Created session %s", s.ID())
	c.JSON(http.StatusCreated, s.View())
}

// GetSession returns the current session view
func (h *Handlers) GetSession(c *gin.Context) {
	s, ok := h.store.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	c.JSON(http.StatusOK, s.View())
}

// DeleteSession discards a session
func (h *Handlers) DeleteSession(c *gin.Context) {
	h.store.Delete(c.Param("id"))
	metrics.ActiveSessions.Set(float64(h.store.Len()))

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// UploadImage receives the image to analyze as a multipart form field "image".
// Re-uploading replaces the previous image; results from a previous completed
// run stay visible until the next run completes.
func (h *Handlers) UploadImage(c *gin.Context) {
	s, ok := h.store.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image file is required"})
		return
	}
	if fileHeader.Size > h.cfg.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Image exceeds the upload size limit"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Errorf("Failed to open uploaded file for session %s: %v", s.ID(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded image"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		log.Errorf("Failed to read uploaded file for session %s: %v", s.ID(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded image"})
		return
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Uploaded file is not an image"})
		return
	}

	s.SetImage(data, mimeType)
	metrics.UploadsTotal.Inc()

	log.Infof("Session %s: accepted %s image (%d bytes)", s.ID(), mimeType, len(data))
	c.JSON(http.StatusOK, s.View())
}

// Analyze fires the analysis trigger. The trigger is rejected while no image
// is loaded or a request is already in flight, mirroring a disabled control.
// The analysis itself runs in the background; callers observe completion by
// polling GetSession.
func (h *Handlers) Analyze(c *gin.Context) {
	s, ok := h.store.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	imageData, mimeType, err := s.BeginAnalysis()
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	go h.runAnalysis(s, imageData, mimeType)

	c.JSON(http.StatusAccepted, s.View())
}

// runAnalysis performs the single outbound model call and applies the error
// taxonomy: rejected call -> generic failure; unparseable or empty body ->
// empty results with the "no fonts" notice. Nothing is retried.
func (h *Handlers) runAnalysis(s *session.Session, imageData []byte, mimeType string) {
	start := time.Now()
	metrics.AnalysesInFlight.Inc()
	defer metrics.AnalysesInFlight.Dec()

	log.Infof("Session %s: analyzing %s image (%d bytes) with %s", s.ID(), mimeType, len(imageData), h.llmClient.SourceName())

	response, err := h.llmClient.IdentifyFonts(imageData, mimeType)
	if err != nil {
		log.Errorf("Session %s: analysis failed: %v", s.ID(), err)
		s.CompleteFailure()
		metrics.AnalysesTotal.WithLabelValues("error").Inc()
		metrics.AnalysisDurationSeconds.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return
	}

	fonts, err := parser.ParseFonts(response)
	if err != nil {
		// A parse failure degrades to an empty result set, indistinguishable
		// from a legitimate empty response.
		log.Warnf("Session %s: unparseable model response, treating as empty: %v", s.ID(), err)
		fonts = nil
	}

	s.CompleteSuccess(fonts)

	result := "success"
	if len(fonts) == 0 {
		result = "empty"
		log.Infof("Session %s: no fonts identified", s.ID())
	} else {
		log.Infof("Session %s: identified %d fonts", s.ID(), len(fonts))
	}
	metrics.AnalysesTotal.WithLabelValues(result).Inc()
	metrics.AnalysisDurationSeconds.WithLabelValues(result).Observe(time.Since(start).Seconds())
}

// CopyRequest is the body of the copy-character endpoint.
type CopyRequest struct {
	Character string `json:"character"`
}

// CopyCharacter records the copied sample character. The copied indicator is
// keyed by character value alone, so every card sharing that value reports it.
func (h *Handlers) CopyCharacter(c *gin.Context) {
	s, ok := h.store.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	var req CopyRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if req.Character == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Character is required"})
		return
	}

	s.Copy(req.Character)
	c.JSON(http.StatusOK, s.View())
}
