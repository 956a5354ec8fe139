package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sam-maryland/nfl-playoff-engine/internal/playoff"
	"github.com/sam-maryland/nfl-playoff-engine/internal/standings"
)

// Response represents the standard response format for our tools
type Response struct {
	Success  bool         `json:"success"`
	Data     interface{}  `json:"data,omitempty"`
	Summary  string       `json:"summary"`
	Error    *ErrorDetail `json:"error,omitempty"`
	Metadata Metadata     `json:"metadata"`
}

// ErrorDetail describes a failed tool call
type ErrorDetail struct {
	Message  string `json:"message"`
	Kind     string `json:"kind,omitempty"`
	Severity string `json:"severity,omitempty"`
	Recovery string `json:"recovery,omitempty"`
}

// Metadata contains response metadata
type Metadata struct {
	Timestamp    time.Time `json:"timestamp"`
	Source       string    `json:"source"`
	TournamentID string    `json:"tournament_id,omitempty"`
}

// formatJSONResponse converts a response struct to a formatted JSON string
func formatJSONResponse(response interface{}) (string, error) {
	jsonBytes, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal response: %w", err)
	}

	return string(jsonBytes), nil
}

func textResult(text string, isError bool) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Type: "text",
				Text: text,
			},
		},
		IsError: isError,
	}
}

// jsonResult wraps data in a successful Response
func jsonResult(tournamentID, summary string, data interface{}) (*mcp.CallToolResult, error) {
	response := Response{
		Success: true,
		Data:    data,
		Summary: summary,
		Metadata: Metadata{
			Timestamp:    time.Now(),
			Source:       "playoff_engine",
			TournamentID: tournamentID,
		},
	}

	jsonResponse, err := formatJSONResponse(response)
	if err != nil {
		return nil, err
	}
	return textResult(jsonResponse, false), nil
}

// errorResult reports err to the MCP client. Engine errors carry their kind and the
// recovery the caller is expected to take.
func errorResult(tournamentID, summary string, err error) *mcp.CallToolResult {
	detail := &ErrorDetail{Message: err.Error()}

	var pe *playoff.Error
	var se *standings.SourceError
	switch {
	case errors.As(err, &pe):
		detail.Kind = pe.Kind.String()
		detail.Severity = pe.Kind.Severity().String()
		detail.Recovery = pe.Kind.Recovery().String()
	case errors.As(err, &se):
		detail.Kind = se.Type
	}

	response := Response{
		Success: false,
		Summary: summary,
		Error:   detail,
		Metadata: Metadata{
			Timestamp:    time.Now(),
			Source:       "playoff_engine",
			TournamentID: tournamentID,
		},
	}

	jsonResponse, marshalErr := formatJSONResponse(response)
	if marshalErr != nil {
		return textResult(fmt.Sprintf("%s: %s", summary, err.Error()), true)
	}
	return textResult(jsonResponse, true)
}

// decodeArg converts a structured argument into dst
func decodeArg(args map[string]interface{}, name string, dst interface{}) (bool, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return false, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", name, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("%s is malformed: %w", name, err)
	}
	return true, nil
}

func requiredString(args map[string]interface{}, name string) (string, error) {
	value, ok := args[name].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("%s is required and must be a string", name)
	}
	return value, nil
}

// optionalInt reads a numeric argument; JSON numbers arrive as float64
func optionalInt(args map[string]interface{}, name string) (int, bool, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, false, fmt.Errorf("%s must be a whole number", name)
		}
		return int(v), true, nil
	case int:
		return v, true, nil
	default:
		return 0, false, fmt.Errorf("%s must be a number", name)
	}
}
