package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"learning-friend-service/internal/app"
	"learning-friend-service/internal/domain"
	"learning-friend-service/internal/logging"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

// Handler serves the REST API over the quiz and progress use cases.
type Handler struct {
	quiz     *app.QuizService
	progress *app.ProgressService
}

func NewHandler(quiz *app.QuizService, progress *app.ProgressService) *Handler {
	return &Handler{quiz: quiz, progress: progress}
}

type startSessionRequest struct {
	SubjectID string          `json:"subjectId"`
	Student   *domain.Student `json:"student,omitempty"`
}

type selectOptionRequest struct {
	OptionIndex *int `json:"optionIndex"`
}

type syncProgressResponse struct {
	Synced int `json:"synced"`
}

// GET /api/subjects
func (h *Handler) ListSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.quiz.Subjects(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, subjects)
}

// POST /api/sessions
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SubjectID == "" {
		http.Error(w, "subjectId is required", http.StatusBadRequest)
		return
	}
	view, err := h.quiz.StartSession(r.Context(), req.SubjectID, req.Student)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

// GET /api/sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.quiz.Session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// DELETE /api/sessions/{id}
func (h *Handler) AbandonSession(w http.ResponseWriter, r *http.Request) {
	if err := h.quiz.Abandon(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/sessions/{id}/select
func (h *Handler) SelectOption(w http.ResponseWriter, r *http.Request) {
	var req selectOptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.OptionIndex == nil {
		http.Error(w, "optionIndex is required", http.StatusBadRequest)
		return
	}
	view, err := h.quiz.SelectOption(r.Context(), chi.URLParam(r, "id"), *req.OptionIndex)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// POST /api/sessions/{id}/submit
func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	result, err := h.quiz.SubmitAnswer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// POST /api/sessions/{id}/advance
func (h *Handler) Advance(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.quiz.Advance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, outcome)
}

// POST /api/sync-progress
func (h *Handler) SyncProgress(w http.ResponseWriter, r *http.Request) {
	var records []domain.ProgressRecord
	if !decodeJSON(w, r, &records) {
		return
	}
	n, err := h.progress.Sync(r.Context(), records)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, syncProgressResponse{Synced: n})
}

// GET /api/progress?name=&grade=
func (h *Handler) Progress(w http.ResponseWriter, r *http.Request) {
	grade, err := strconv.Atoi(r.URL.Query().Get("grade"))
	if err != nil {
		http.Error(w, "grade must be a number", http.StatusBadRequest)
		return
	}
	summary, err := h.progress.Summary(r.Context(), domain.Student{
		Name:  r.URL.Query().Get("name"),
		Grade: grade,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	payload := newErrorPayload(err)
	_, status := classify(err)
	log := logging.WithContext(r.Context()).WithFields(logrus.Fields{
		"path":  r.URL.Path,
		"code":  payload.Code,
		"error": err.Error(),
	})
	if status >= http.StatusInternalServerError {
		log.Error("request failed")
	} else {
		log.Warn("request rejected")
	}
	respondJSON(w, status, payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}
