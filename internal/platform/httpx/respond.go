// Package httpx provides HTTP response utilities.
package httpx

import (
	"encoding/json"
	"net/http"
)

// Message is the error envelope returned by every non-2xx response.
// Msg is either a single string or a list of field-level messages.
type Message struct {
	Msg    any `json:"msg"`
	Status int `json:"status"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Fail sends the error envelope with the given status code.
func Fail(w http.ResponseWriter, status int, msg any) {
	JSON(w, status, Message{Msg: msg, Status: status})
}

// DecodeJSON decodes a JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
