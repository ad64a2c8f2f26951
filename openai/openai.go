package openai

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const openAIEndpoint = "https://api.openai.com/v1/chat/completions"

const promptSystem = `
You are **Font Detector**, a typography expert that identifies the fonts used in an uploaded image.

Analyze the image and identify every distinct font visible in it. For each font fill every field of the schema below.

OUTPUT RULES:
* Output a single, valid JSON array and nothing else — no wrapping markdown.
* "confidence" is your confidence in the identification, from 0.0 to 1.0.
* "isFree" is true for freely usable fonts, false for commercially licensed ones.
* "downloadUrl" is a URL where the font can be downloaded or purchased.
* "description" is one or two sentences about the font, its style and where it is commonly used.
* "sampleCharacters" holds three arrays of single-character strings: "english" (Latin letters), "persian" (Persian/Arabic letters) and "numbers" (digits).
* If no font can be identified with any confidence, output an empty array: []

OUTPUT SCHEMA:
[
  {
    "name":        "<font display name>",
    "confidence":  <0.0-1.0>,
    "isFree":      <true | false>,
    "downloadUrl": "<url>",
    "description": "<1-2 sentences>",
    "sampleCharacters": {
      "english": ["A", "B"],
      "persian": ["ا", "ب"],
      "numbers": ["1", "2"]
    }
  }
]
`

type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type TextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type ImageURL struct {
	URL string `json:"url"`
}

type ImageContent struct {
	Type     string   `json:"type"`
	ImageURL ImageURL `json:"image_url"`
}

type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content any `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client represents an OpenAI API client
type Client struct {
	apiKey string
	model  string
	client *http.Client
}

// NewClient creates a new OpenAI client
func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{},
	}
}

// SourceName identifies this provider in logs and metrics
func (c *Client) SourceName() string {
	return "ChatGPT"
}

// encodeImageToDataURL converts image bytes to a base64 data URL
func encodeImageToDataURL(imageData []byte, mimeType string) string {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	base64Data := base64.StdEncoding.EncodeToString(imageData)
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64Data)
}

// IdentifyFonts analyzes an image using OpenAI's vision API
func (c *Client) IdentifyFonts(imageData []byte, mimeType string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("openai API key is not configured")
	}

	textPrompt := TextContent{
		Type: "text",
		Text: promptSystem,
	}

	imagePrompt := ImageContent{
		Type: "image_url",
		ImageURL: ImageURL{
			URL: encodeImageToDataURL(imageData, mimeType),
		},
	}

	reqBody := ChatRequest{
		Model: c.model,
		Messages: []Message{
			{
				Role: "system",
				Content: []any{
					textPrompt,
				},
			},
			{
				Role: "user",
				Content: []any{
					imagePrompt,
				},
			},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", openAIEndpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	// Extract the text content from the response
	content := chatResp.Choices[0].Message.Content
	if contentStr, ok := content.(string); ok {
		return contentStr, nil
	}

	// If content is not a string, try to marshal it back to JSON
	contentJSON, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("failed to marshal content: %w", err)
	}

	return string(contentJSON), nil
}
