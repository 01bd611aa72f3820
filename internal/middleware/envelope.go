package middleware

import (
	"encoding/json"
	"net/http"
)

// Error codes written by middleware. The api package reuses them.
const (
	ErrCodeRateLimited        = "rate_limited"
	ErrCodeIdempotencyTooLong = "idempotency_key_too_long"
	ErrCodeIdempotencyInvalid = "invalid_idempotency_key"
	ErrCodeIdempotencyReused  = "idempotency_key_reused"
)

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// writeErrorEnvelope writes {"error":{"code","message"}} and records code for
// the logging middleware.
func writeErrorEnvelope(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	UpdateResponseContext(w, SetErrorCode(r.Context(), code))

	var env errorEnvelope
	env.Error.Code = code
	env.Error.Message = message
	body, _ := json.Marshal(env)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
