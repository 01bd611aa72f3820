package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/onnwee/venuefinder/internal/feedback"
)

func TestCreateFeedback(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"valid", `{"name":"Ana","message":"Adorei o app"}`, http.StatusCreated, ""},
		{"missing name", `{"message":"Adorei"}`, http.StatusBadRequest, ErrCodeValidation},
		{"blank message", `{"name":"Ana","message":"   "}`, http.StatusBadRequest, ErrCodeValidation},
		{"invalid json", `{"name":`, http.StatusBadRequest, ErrCodeBadRequest},
		{"message too long", `{"name":"Ana","message":"` + strings.Repeat("a", 2001) + `"}`, http.StatusBadRequest, ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewFeedbackHandlers(feedback.NewInMemoryStore())

			req := httptest.NewRequest(http.MethodPost, "/feedback", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			h.CreateFeedback(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}

			if tt.wantCode != "" {
				var resp ErrorResponse
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to decode error: %v", err)
				}
				if resp.Error.Code != tt.wantCode {
					t.Errorf("expected code %s, got %s", tt.wantCode, resp.Error.Code)
				}
				return
			}

			var entry feedback.Entry
			if err := json.Unmarshal(w.Body.Bytes(), &entry); err != nil {
				t.Fatalf("failed to decode entry: %v", err)
			}
			if entry.ID == "" || entry.CreatedAt.IsZero() {
				t.Errorf("expected id and created_at, got %+v", entry)
			}
			if entry.Name != "Ana" {
				t.Errorf("expected name Ana, got %s", entry.Name)
			}
		})
	}
}

func TestListFeedback(t *testing.T) {
	store := feedback.NewInMemoryStore()
	for _, msg := range []string{"primeiro", "segundo", "terceiro"} {
		if _, err := store.Create(context.Background(), "Ana", msg); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	h := NewFeedbackHandlers(store)

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantMsgs   []string
	}{
		{"default limit", "/feedback", http.StatusOK, []string{"terceiro", "segundo", "primeiro"}},
		{"explicit limit", "/feedback?limit=2", http.StatusOK, []string{"terceiro", "segundo"}},
		{"zero limit", "/feedback?limit=0", http.StatusBadRequest, nil},
		{"limit too large", "/feedback?limit=101", http.StatusBadRequest, nil},
		{"non-numeric limit", "/feedback?limit=abc", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ListFeedback(w, httptest.NewRequest(http.MethodGet, tt.target, nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp FeedbackListResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode: %v", err)
			}
			if resp.Count != len(tt.wantMsgs) {
				t.Errorf("expected count %d, got %d", len(tt.wantMsgs), resp.Count)
			}
			for i, want := range tt.wantMsgs {
				if resp.Feedback[i].Message != want {
					t.Errorf("entry %d: expected %q, got %q", i, want, resp.Feedback[i].Message)
				}
			}
		})
	}
}

func TestListFeedback_NewestVisibleBeyondMaxLimit(t *testing.T) {
	store := feedback.NewInMemoryStore()
	total := feedback.MaxListLimit + 1
	for i := 1; i <= total; i++ {
		if _, err := store.Create(context.Background(), "Ana", fmt.Sprintf("msg %d", i)); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	h := NewFeedbackHandlers(store)

	tests := []struct {
		target    string
		wantCount int
	}{
		{"/feedback", feedback.DefaultListLimit},
		{fmt.Sprintf("/feedback?limit=%d", feedback.MaxListLimit), feedback.MaxListLimit},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ListFeedback(w, httptest.NewRequest(http.MethodGet, tt.target, nil))
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}

			var resp FeedbackListResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode: %v", err)
			}
			if resp.Count != tt.wantCount {
				t.Errorf("expected count %d, got %d", tt.wantCount, resp.Count)
			}
			if want := fmt.Sprintf("msg %d", total); resp.Feedback[0].Message != want {
				t.Errorf("expected newest entry %q first, got %q", want, resp.Feedback[0].Message)
			}
		})
	}
}

func TestListFeedback_EmptyArray(t *testing.T) {
	h := NewFeedbackHandlers(feedback.NewInMemoryStore())

	w := httptest.NewRecorder()
	h.ListFeedback(w, httptest.NewRequest(http.MethodGet, "/feedback", nil))

	if !strings.Contains(w.Body.String(), `"feedback":[]`) {
		t.Errorf("expected empty array, got %s", w.Body.String())
	}
}

type failingFeedbackStore struct{}

func (failingFeedbackStore) Create(ctx context.Context, name, message string) (*feedback.Entry, error) {
	return nil, errors.New("disk full")
}

func (failingFeedbackStore) List(ctx context.Context, limit int) ([]feedback.Entry, error) {
	return nil, errors.New("disk full")
}

func TestFeedbackHandlers_StoreErrors(t *testing.T) {
	h := NewFeedbackHandlers(failingFeedbackStore{})

	w := httptest.NewRecorder()
	h.CreateFeedback(w, httptest.NewRequest(http.MethodPost, "/feedback", strings.NewReader(`{"name":"Ana","message":"oi"}`)))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("create: expected 500, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.ListFeedback(w, httptest.NewRequest(http.MethodGet, "/feedback", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("list: expected 500, got %d", w.Code)
	}
}
