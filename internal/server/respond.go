package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Veraticus/loanbot/internal/chat"
	"github.com/Veraticus/loanbot/internal/common"
)

// Error codes of the JSON envelope.
const (
	codeBadRequest  = "bad_request"
	codeNotFound    = "not_found"
	codeUnavailable = "unavailable"
	codeInternal    = "internal_error"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Errors after WriteHeader cannot change the status code.
	_ = json.NewEncoder(w).Encode(response)
}

// writeError translates err into a status code and the JSON error envelope.
// Internal failures never leak their text.
func writeError(w http.ResponseWriter, err error) {
	status, code, message := http.StatusInternalServerError, codeInternal, "internal error"

	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, common.ErrInvalidConfig):
		status, code, message = http.StatusBadRequest, codeBadRequest, err.Error()
	case errors.Is(err, common.ErrNotFound), errors.Is(err, chat.ErrClosed):
		status, code, message = http.StatusNotFound, codeNotFound, err.Error()
	case errors.Is(err, errStatsDisabled):
		status, code, message = http.StatusServiceUnavailable, codeUnavailable, err.Error()
	default:
		message = common.UserMessage(err, message)
	}

	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

// decodeJSON reads a JSON body into T, rejecting unknown fields.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	var v T
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, errors.Join(errBadRequest, err)
	}
	return v, nil
}
