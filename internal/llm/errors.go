package llm

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Veraticus/loanbot/internal/common"
)

// apiErrorBody matches the error envelope used by Gemini, OpenAI and Anthropic.
type apiErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Status  string `json:"status"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// statusError converts a non-200 response into an error the retry loop understands.
// Rate limits wrap common.ErrRateLimit, server errors stay retryable and every
// other client error is marked non-retryable.
func statusError(provider string, status int, body []byte) error {
	detail := string(body)
	var envelope apiErrorBody
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		kind := envelope.Error.Status
		if kind == "" {
			kind = envelope.Error.Type
		}
		detail = envelope.Error.Message
		if kind != "" {
			detail = kind + ": " + detail
		}
	}

	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s API (status %d): %s", common.ErrRateLimit, provider, status, detail)
	case status >= http.StatusInternalServerError:
		return common.Transient(fmt.Errorf("%w: %s API (status %d): %s", common.ErrUpstream, provider, status, detail))
	default:
		return common.Permanent(fmt.Errorf("%w: %s API (status %d): %s", common.ErrUpstream, provider, status, detail))
	}
}
