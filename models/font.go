package models

// SampleCharacters groups per-script exemplar glyphs for one detected font.
// Each slice holds single-character strings in display order.
type SampleCharacters struct {
	English []string `json:"english"`
	Persian []string `json:"persian"`
	Numbers []string `json:"numbers"`
}

// FontInfo represents one font identified by the vision model, as returned by
// the external gateway. Fields are untrusted external input: confidence is
// expected in [0,1] but is not clamped, and the download URL is not validated.
type FontInfo struct {
	Name             string           `json:"name"`
	Confidence       float64          `json:"confidence"`
	IsFree           bool             `json:"isFree"`
	DownloadURL      string           `json:"downloadUrl"`
	Description      string           `json:"description"`
	SampleCharacters SampleCharacters `json:"sampleCharacters"`
}

// SessionView is the API representation of an analysis session.
type SessionView struct {
	ID              string     `json:"id"`
	Status          string     `json:"status"`
	HasImage        bool       `json:"has_image"`
	ImageMimeType   string     `json:"image_mime_type,omitempty"`
	Results         []FontInfo `json:"results"`
	Notice          string     `json:"notice,omitempty"`
	Error           string     `json:"error,omitempty"`
	CopiedCharacter string     `json:"copied_character,omitempty"`
}
