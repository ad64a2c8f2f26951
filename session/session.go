package session

import (
	"errors"
	"sync"
	"time"

	"font-detection-service/models"
)

// Status is the analysis lifecycle state of a session.
//
// Transitions: Idle -> Loading -> (Success | Failed). Uploading a new image
// outside of Loading returns the session to Idle. Prior results are not
// cleared on entering Loading; they are only replaced on completion.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// NoticeNoFonts is surfaced alongside empty results when the model returned an
// empty array or an unparseable body. The two cases are indistinguishable at
// the API layer.
const NoticeNoFonts = "no fonts could be identified in this image"

// ErrGenericAnalysis is the single generic message shown for configuration,
// transport and provider failures. The cause is not differentiated.
const ErrGenericAnalysis = "failed to analyze the image, please try again"

var (
	// ErrNoImage is returned when the trigger fires without an uploaded image.
	ErrNoImage = errors.New("no image uploaded")
	// ErrAnalysisInFlight is returned when the trigger fires while a request
	// is already running. There is no cancellation of an in-flight request.
	ErrAnalysisInFlight = errors.New("analysis already in progress")
)

// Session is the explicit state container behind one analysis surface. It is
// owned by the Store and safe for concurrent use.
type Session struct {
	mu sync.Mutex

	id        string
	createdAt time.Time
	touchedAt time.Time

	status    Status
	imageData []byte
	mimeType  string

	results []models.FontInfo
	notice  string
	errMsg  string

	// Transient copy indicator, keyed by character value alone. Two cards
	// sharing a character value show the indicator simultaneously; this is a
	// preserved product quirk, not a bug.
	copiedChar string
}

func newSession(id string) *Session {
	now := time.Now()
	return &Session{
		id:        id,
		createdAt: now,
		touchedAt: now,
		status:    StatusIdle,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// SetImage replaces the session's image. Re-uploading is allowed at any time,
// including while an analysis is in flight; the running request is not
// cancelled and will still replace the results on completion.
func (s *Session) SetImage(data []byte, mimeType string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touchedAt = time.Now()
	s.imageData = data
	s.mimeType = mimeType
	if s.status != StatusLoading {
		s.status = StatusIdle
	}
}

// BeginAnalysis marks the session as Loading and returns a snapshot of the
// current image. It fails when no image is present or a request is already in
// flight, which is how the disabled trigger control is enforced server-side.
func (s *Session) BeginAnalysis() ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touchedAt = time.Now()
	if len(s.imageData) == 0 {
		return nil, "", ErrNoImage
	}
	if s.status == StatusLoading {
		return nil, "", ErrAnalysisInFlight
	}

	s.status = StatusLoading
	return s.imageData, s.mimeType, nil
}

// CompleteSuccess records a successful round trip. An empty record set gets
// the "no fonts" notice; prior results are replaced either way.
func (s *Session) CompleteSuccess(results []models.FontInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touchedAt = time.Now()
	s.status = StatusSuccess
	s.results = results
	s.errMsg = ""
	if len(results) == 0 {
		s.notice = NoticeNoFonts
	} else {
		s.notice = ""
	}
}

// CompleteFailure records a rejected call. No partial results are kept.
func (s *Session) CompleteFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touchedAt = time.Now()
	s.status = StatusFailed
	s.results = nil
	s.notice = ""
	s.errMsg = ErrGenericAnalysis
}

// Copy records the copied character. The indicator is keyed by the character
// value, not by card or position identity.
func (s *Session) Copy(character string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touchedAt = time.Now()
	s.copiedChar = character
}

// View returns a snapshot of the session for rendering.
func (s *Session) View() models.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touchedAt = time.Now()
	results := s.results
	if results == nil {
		results = []models.FontInfo{}
	}

	return models.SessionView{
		ID:              s.id,
		Status:          string(s.status),
		HasImage:        len(s.imageData) > 0,
		ImageMimeType:   s.mimeType,
		Results:         results,
		Notice:          s.notice,
		Error:           s.errMsg,
		CopiedCharacter: s.copiedChar,
	}
}

func (s *Session) expired(ttl time.Duration, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return now.Sub(s.touchedAt) > ttl
}
