package gemini

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/neonpi/anton/pkg/core/types"
)

// geminiError represents an error response from the Gemini API.
type geminiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// parseError parses an error response from Gemini.
func (c *Client) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var geminiErr geminiError
	if err := json.Unmarshal(body, &geminiErr); err != nil {
		return &types.Error{
			Type:    types.ErrProvider,
			Message: string(body),
		}
	}

	// Map Gemini status codes to our error types
	var errType types.ErrorType
	switch geminiErr.Error.Status {
	case "INVALID_ARGUMENT":
		errType = types.ErrInvalidRequest
	case "UNAUTHENTICATED":
		errType = types.ErrAuthentication
	case "PERMISSION_DENIED":
		errType = types.ErrPermission
	case "NOT_FOUND":
		errType = types.ErrNotFound
	case "RESOURCE_EXHAUSTED":
		errType = types.ErrRateLimit
	case "INTERNAL":
		errType = types.ErrAPI
	case "UNAVAILABLE":
		errType = types.ErrOverloaded
	case "FAILED_PRECONDITION":
		errType = types.ErrInvalidRequest
	default:
		errType = types.ErrProvider
	}

	// Also check HTTP status code
	if resp.StatusCode == 429 {
		errType = types.ErrRateLimit
	}
	if resp.StatusCode == 503 {
		errType = types.ErrOverloaded
	}
	if resp.StatusCode == 401 || resp.StatusCode == 403 {
		errType = types.ErrAuthentication
	}

	return &types.Error{
		Type:          errType,
		Message:       geminiErr.Error.Message,
		Code:          geminiErr.Error.Status,
		ProviderError: geminiErr.Error,
	}
}
