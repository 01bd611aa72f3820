package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/onnwee/venuefinder/internal/idempotency"
)

// IdempotencyKeyHeader is the HTTP header name for idempotency keys.
const IdempotencyKeyHeader = "Idempotency-Key"

// IdempotentReplayHeader marks a response served from the idempotency cache.
const IdempotentReplayHeader = "Idempotent-Replay"

type idempotencyKeyContextKey struct{}

// idempotencyResponseWriter captures status and body while passing them through.
type idempotencyResponseWriter struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
	written    bool
}

func newIdempotencyResponseWriter(w http.ResponseWriter) *idempotencyResponseWriter {
	return &idempotencyResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
		body:           &bytes.Buffer{},
	}
}

func (w *idempotencyResponseWriter) WriteHeader(statusCode int) {
	if !w.written {
		w.statusCode = statusCode
		w.written = true
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *idempotencyResponseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.body.Write(b[:n])
	return n, err
}

// SetIdempotencyKey stores the idempotency key in the context.
func SetIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKeyContextKey{}, key)
}

// GetIdempotencyKey retrieves the idempotency key from context. Returns empty string if not present.
func GetIdempotencyKey(ctx context.Context) string {
	if key, ok := ctx.Value(idempotencyKeyContextKey{}).(string); ok {
		return key
	}
	return ""
}

// Idempotency makes POST requests to the given routes replayable. A request
// carrying an Idempotency-Key header has its 2xx response cached; a later
// request with the same key gets the cached status and body without reaching
// the handler. Requests without the header pass through untouched. Reusing a
// key on a different route yields 422. metrics may be nil.
//
// Two concurrent first requests with the same key may both reach the
// handler; the repository keeps whichever response is stored first.
func Idempotency(repo idempotency.Repository, routes map[string]bool, metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || !routes[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(IdempotencyKeyHeader)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			if err := idempotency.ValidateKey(key); err != nil {
				if errors.Is(err, idempotency.ErrKeyTooLong) {
					writeErrorEnvelope(w, r, http.StatusBadRequest, ErrCodeIdempotencyTooLong, "Idempotency-Key exceeds maximum length of 64 characters")
				} else {
					writeErrorEnvelope(w, r, http.StatusBadRequest, ErrCodeIdempotencyInvalid, "Invalid Idempotency-Key format")
				}
				return
			}

			ctx := SetIdempotencyKey(r.Context(), key)
			r = r.WithContext(ctx)

			existing, err := repo.Get(ctx, key)
			switch {
			case err == nil && !existing.Matches(r.Method, r.URL.Path):
				writeErrorEnvelope(w, r, http.StatusUnprocessableEntity, ErrCodeIdempotencyReused, "Idempotency-Key was already used for a different request")
				return
			case err == nil && existing.Verify():
				slog.InfoContext(ctx, "replaying cached response", "key", key, "status", existing.StatusCode)
				if metrics != nil {
					metrics.IncIdempotencyReplays(r.URL.Path)
				}
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set(IdempotentReplayHeader, "true")
				w.WriteHeader(existing.StatusCode)
				_, _ = w.Write([]byte(existing.ResponseBody))
				return
			case err == nil:
				slog.ErrorContext(ctx, "cached response failed hash check, serving fresh", "key", key)
				next.ServeHTTP(w, r)
				return
			case !errors.Is(err, idempotency.ErrKeyNotFound):
				slog.ErrorContext(ctx, "failed to check idempotency key", "key", key, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			capture := newIdempotencyResponseWriter(w)
			next.ServeHTTP(capture, r)

			if capture.statusCode < 200 || capture.statusCode >= 300 {
				return
			}
			body := capture.body.String()
			record := &idempotency.Record{
				Key:          key,
				Method:       r.Method,
				Route:        r.URL.Path,
				ResponseHash: idempotency.ComputeResponseHash(body),
				ResponseBody: body,
				StatusCode:   capture.statusCode,
			}
			if err := repo.Store(ctx, record); err != nil && !errors.Is(err, idempotency.ErrKeyExists) {
				slog.ErrorContext(ctx, "failed to store idempotency key", "key", key, "error", err)
			}
		})
	}
}
