package parser

import (
	"encoding/json"
	"errors"
	"strings"

	"font-detection-service/models"
)

// ExtractJSONFromMarkdown extracts a JSON array from markdown code blocks
func ExtractJSONFromMarkdown(response string) string {
	// Look for JSON code blocks with ``` markers
	startMarker := "```"
	endMarker := "```"

	startIdx := strings.Index(response, startMarker)
	if startIdx == -1 {
		// No code block found, try to find the JSON array directly
		startIdx = strings.Index(response, "[")
		if startIdx == -1 {
			return response
		}
		endIdx := strings.LastIndex(response, "]")
		if endIdx == -1 {
			return response
		}
		return strings.TrimSpace(response[startIdx : endIdx+1])
	}

	// Find the end of the first code block
	endIdx := strings.Index(response[startIdx+len(startMarker):], endMarker)
	if endIdx == -1 {
		return response
	}
	endIdx += startIdx + len(startMarker)

	// Extract content between the markers
	content := response[startIdx+len(startMarker) : endIdx]

	// Remove the language identifier if present (e.g., "json")
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) > 0 && (strings.TrimSpace(lines[0]) == "json" || strings.TrimSpace(lines[0]) == "") {
		content = strings.Join(lines[1:], "\n")
	}

	return strings.TrimSpace(content)
}

// ParseFonts parses the model response into font records. Parsing is
// best-effort and all-or-nothing: a parse failure anywhere in the body yields
// an error rather than a partial result set. Field values are not validated
// beyond the parse itself.
func ParseFonts(response string) ([]models.FontInfo, error) {
	// Clean the response
	cleaned := strings.TrimSpace(response)

	// Extract JSON from markdown if present
	jsonContent := ExtractJSONFromMarkdown(cleaned)

	var fonts []models.FontInfo
	if err := json.Unmarshal([]byte(jsonContent), &fonts); err != nil {
		return nil, errors.New("failed to parse JSON response: " + err.Error())
	}

	return fonts, nil
}
