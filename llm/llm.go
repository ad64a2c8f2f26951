package llm

// Client abstracts the multimodal model provider used for font identification.
// Implementations must be concurrency-safe if used across goroutines.
type Client interface {
	// IdentifyFonts takes raw image bytes and their MIME type, and returns a
	// single JSON string holding an array of font records.
	IdentifyFonts(imageData []byte, mimeType string) (string, error)
	// SourceName returns a short provider label (e.g., "ChatGPT", "Gemini").
	SourceName() string
}
