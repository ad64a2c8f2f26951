package gemini

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const promptInstruction = `
You are **Font Detector**, a typography expert that identifies the fonts used in an uploaded image.

Analyze the image and identify every distinct font visible in it. For each font provide:

- "name": the font's display name.
- "confidence": how confident you are in the identification, from 0.0 to 1.0.
- "isFree": true if the font is free to use, false if it requires a commercial license.
- "downloadUrl": a URL where the font can be downloaded or purchased.
- "description": one or two sentences about the font, its style and where it is commonly used.
- "sampleCharacters": three arrays of single-character strings showcasing the font:
  - "english": Latin letters (e.g. "A", "b").
  - "persian": Persian/Arabic letters (e.g. "ا", "ب").
  - "numbers": digits.

Output a single JSON array of font objects and nothing else. If no font can be
identified with any confidence, output an empty array.
`

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

// schema is the subset of the Gemini response-schema grammar the request needs.
type schema struct {
	Type       string             `json:"type"`
	Items      *schema            `json:"items,omitempty"`
	Properties map[string]*schema `json:"properties,omitempty"`
	Required   []string           `json:"required,omitempty"`
}

type generationConfig struct {
	ResponseMimeType string  `json:"response_mime_type,omitempty"`
	ResponseSchema   *schema `json:"response_schema,omitempty"`
}

type geminiRequest struct {
	GenerationConfig generationConfig `json:"generationConfig,omitempty"`
	Contents         []content        `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text,omitempty"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// fontListSchema describes the requested output: an array of font records with
// name, confidence, license flag, download URL, description and per-script
// sample characters.
func fontListSchema() *schema {
	stringArray := &schema{Type: "ARRAY", Items: &schema{Type: "STRING"}}
	return &schema{
		Type: "ARRAY",
		Items: &schema{
			Type: "OBJECT",
			Properties: map[string]*schema{
				"name":        {Type: "STRING"},
				"confidence":  {Type: "NUMBER"},
				"isFree":      {Type: "BOOLEAN"},
				"downloadUrl": {Type: "STRING"},
				"description": {Type: "STRING"},
				"sampleCharacters": {
					Type: "OBJECT",
					Properties: map[string]*schema{
						"english": stringArray,
						"persian": stringArray,
						"numbers": stringArray,
					},
					Required: []string{"english", "persian", "numbers"},
				},
			},
			Required: []string{"name", "confidence", "isFree", "downloadUrl", "description", "sampleCharacters"},
		},
	}
}

type Client struct {
	apiKey string
	model  string
	http   *http.Client
}

func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey: apiKey,
		model:  model,
		http:   &http.Client{},
	}
}

func (c *Client) SourceName() string {
	return "Gemini"
}

// IdentifyFonts sends the image with the font-identification instruction and
// the response schema, and returns the model's JSON text.
func (c *Client) IdentifyFonts(imageData []byte, mimeType string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("gemini API key is not configured")
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	parts := []part{{Text: promptInstruction}}
	if len(imageData) > 0 {
		parts = append(parts, part{
			InlineData: &inlineData{
				MimeType: mimeType,
				Data:     base64.StdEncoding.EncodeToString(imageData),
			},
		})
	}

	reqBody := geminiRequest{
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   fontListSchema(),
		},
		Contents: []content{
			{
				Role:  "user",
				Parts: parts,
			},
		},
	}

	return c.generateContent(reqBody)
}

func (c *Client) generateContent(body geminiRequest) (string, error) {
	// try v1beta first, then v1
	endpoints := []string{
		fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s", c.model, c.apiKey),
		fmt.Sprintf("https://generativelanguage.googleapis.com/v1/models/%s:generateContent?key=%s", c.model, c.apiKey),
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for _, ep := range endpoints {
		req, err := http.NewRequest("POST", ep, bytes.NewBuffer(data))
		if err != nil {
			lastErr = fmt.Errorf("failed to create request: %w", err)
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("failed to send request: %w", err)
			continue
		}
		defer resp.Body.Close()
		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			lastErr = fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(bodyBytes))
			// retry next endpoint if available
			continue
		}
		var gr geminiResponse
		if err := json.Unmarshal(bodyBytes, &gr); err != nil {
			lastErr = fmt.Errorf("failed to parse response: %w", err)
			continue
		}
		if len(gr.Candidates) == 0 {
			lastErr = fmt.Errorf("no candidates in response")
			continue
		}
		// find first text part
		for _, p := range gr.Candidates[0].Content.Parts {
			if p.Text != "" {
				return p.Text, nil
			}
		}
		lastErr = fmt.Errorf("no text part in response")
	}
	return "", lastErr
}
