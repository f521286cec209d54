// Package shared holds the JSON response and request decoding helpers used
// by every feature handler, so error translation happens in exactly one
// place.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "libris/pkg/domain-errors"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into its HTTP status and envelope.
// Non-domain errors surface as 500 with a generic message.
func WriteError(w http.ResponseWriter, err error) {
	WriteJSON(w, dErrors.ToHTTPStatus(dErrors.CodeOf(err)), errorEnvelope{
		Error: errorBody{
			Code:    string(dErrors.CodeOf(err)),
			Message: dErrors.MessageOf(err),
		},
	})
}

// MethodNotAllowed is the handler for verbs the resource does not support.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, dErrors.New(dErrors.CodeMethodNotAllowed, "method not allowed"))
}
