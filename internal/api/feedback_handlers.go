package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/onnwee/venuefinder/internal/feedback"
)

// maxFeedbackBody bounds POST /feedback request bodies.
const maxFeedbackBody = 16 << 10

// FeedbackHandlers holds dependencies for feedback HTTP handlers.
type FeedbackHandlers struct {
	store feedback.Store
}

// NewFeedbackHandlers creates a new FeedbackHandlers instance.
func NewFeedbackHandlers(store feedback.Store) *FeedbackHandlers {
	return &FeedbackHandlers{store: store}
}

// CreateFeedbackRequest is the body of POST /feedback.
type CreateFeedbackRequest struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// FeedbackListResponse is the body of GET /feedback.
type FeedbackListResponse struct {
	Feedback []feedback.Entry `json:"feedback"`
	Count    int              `json:"count"`
}

// CreateFeedback handles POST /feedback.
func (h *FeedbackHandlers) CreateFeedback(w http.ResponseWriter, r *http.Request) {
	var req CreateFeedbackRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFeedbackBody)).Decode(&req); err != nil {
		WriteError(w, r, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	entry, err := h.store.Create(r.Context(), req.Name, req.Message)
	if err != nil {
		if errors.Is(err, feedback.ErrInvalidFeedback) {
			WriteError(w, r, ErrCodeValidation, "name and message are required")
			return
		}
		slog.ErrorContext(r.Context(), "failed to store feedback", "error", err)
		WriteError(w, r, ErrCodeInternal, "Failed to store feedback")
		return
	}

	writeJSON(w, r.Context(), http.StatusCreated, entry)
}

// ListFeedback handles GET /feedback?limit=N, newest first.
func (h *FeedbackHandlers) ListFeedback(w http.ResponseWriter, r *http.Request) {
	limit := feedback.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > feedback.MaxListLimit {
			WriteError(w, r, ErrCodeValidation, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	entries, err := h.store.List(r.Context(), limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list feedback", "error", err)
		WriteError(w, r, ErrCodeInternal, "Failed to list feedback")
		return
	}
	if entries == nil {
		entries = []feedback.Entry{}
	}

	writeJSON(w, r.Context(), http.StatusOK, FeedbackListResponse{Feedback: entries, Count: len(entries)})
}
