// Package handler binds the orchestrator to HTTP. It stays thin: parse
// the request, call the orchestrator, map errors to status codes.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sanadsad75/exam-prep-assistant/internal/decoder"
	"github.com/sanadsad75/exam-prep-assistant/internal/extract"
	"github.com/sanadsad75/exam-prep-assistant/internal/i18n"
	"github.com/sanadsad75/exam-prep-assistant/internal/llm"
	"github.com/sanadsad75/exam-prep-assistant/internal/model"
	"github.com/sanadsad75/exam-prep-assistant/internal/storage"
	"github.com/sanadsad75/exam-prep-assistant/internal/study"
)

const (
	maxFilesPerUpload    = 10
	defaultQuizQuestions = 5
	defaultExamQuestions = 20
	multipartMemoryLimit = 32 << 20
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	study *study.Orchestrator
	files *storage.FileManager
}

// New creates a new Handler.
func New(o *study.Orchestrator, fm *storage.FileManager) *Handler {
	return &Handler{study: o, files: fm}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.handleRoot)
	r.Get("/api/health", h.handleHealth)
	r.Post("/api/analyze/upload", h.handleUpload)
	r.Get("/api/analyze/session/{sessionID}", h.handleGetSession)
	r.Get("/api/study/section/{sessionID}/{sectionID}", h.handleSectionContent)
	r.Get("/api/study/quiz/{sessionID}/{sectionID}", h.handleQuiz)
	r.Get("/api/study/final-exam/{sessionID}", h.handleFinalExam)
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(h.files.Dir()))))
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"message": i18n.T(r.Context(), "APIRunning"),
		"endpoints": map[string]string{
			"health":  "/api/health",
			"analyze": "/api/analyze",
			"study":   "/api/study",
		},
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"message": i18n.T(r.Context(), "ServerRunning"),
	})
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	var fileHeaders []*multipart.FileHeader
	if r.MultipartForm != nil {
		fileHeaders = r.MultipartForm.File["files"]
	}
	if len(fileHeaders) == 0 {
		h.respondError(w, r, model.ErrNoFiles)
		return
	}
	if strings.TrimSpace(r.FormValue("subjectName")) == "" {
		h.respondError(w, r, model.ErrMissingSubject)
		return
	}
	if len(fileHeaders) > maxFilesPerUpload {
		respondMessage(w, http.StatusBadRequest, i18n.T(r.Context(), "ErrTooManyFiles"))
		return
	}

	uploads := make([]extract.Upload, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			slog.Error("open upload failed", "file", fh.Filename, "error", err)
			respondMessage(w, http.StatusInternalServerError, i18n.T(r.Context(), "ErrUploadSave"))
			return
		}
		path, storedName, err := h.files.SaveUpload(f, fh.Filename)
		f.Close()
		if err != nil {
			slog.Error("save upload failed", "file", fh.Filename, "error", err)
			respondMessage(w, http.StatusBadRequest, i18n.T(r.Context(), "ErrUploadSave"))
			return
		}
		uploads = append(uploads, extract.Upload{
			Path:     path,
			Filename: fh.Filename,
			URL:      "/uploads/" + storedName,
			MimeType: fh.Header.Get("Content-Type"),
			Size:     fh.Size,
		})
	}

	documents, images := extract.Batch(uploads)
	failed := 0
	for _, d := range documents {
		if d.Error != "" {
			failed++
		}
	}

	sess, err := h.study.CreateSession(r.Context(), r.FormValue("subjectName"), documents, images)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"sessionId":      sess.ID,
		"subjectName":    sess.SubjectName,
		"analysis":       sess.Analysis,
		"filesProcessed": len(documents),
		"filesFailed":    failed,
	})
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.study.GetSession(chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"session": map[string]any{
			"id":          sess.ID,
			"subjectName": sess.SubjectName,
			"analysis":    sess.Analysis,
			"createdAt":   sess.CreatedAt,
		},
	})
}

func (h *Handler) handleSectionContent(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	sectionID := chi.URLParam(r, "sectionID")

	content, err := h.study.GetSectionContent(r.Context(), sessionID, sectionID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	sess, err := h.study.GetSession(sessionID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"content": content,
		"images":  sess.Images,
	})
}

func (h *Handler) handleQuiz(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	sectionID := chi.URLParam(r, "sectionID")
	numQuestions := queryInt(r, "numQuestions", defaultQuizQuestions)

	quiz, err := h.study.GetQuiz(r.Context(), sessionID, sectionID, numQuestions)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"quiz":    quiz,
	})
}

func (h *Handler) handleFinalExam(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	numQuestions := queryInt(r, "numQuestions", defaultExamQuestions)

	exam, err := h.study.GetFinalExam(r.Context(), sessionID, numQuestions)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"exam":    exam,
	})
}

// respondError maps core errors onto user-facing status codes. Decode and
// completion failures are upstream problems, so they surface as 502.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	var dErr *decoder.Error
	var cErr *llm.CompletionError
	switch {
	case errors.Is(err, model.ErrSessionNotFound):
		respondMessage(w, http.StatusNotFound, i18n.T(ctx, "ErrSessionNotFound"))
	case errors.Is(err, model.ErrSectionNotFound):
		respondMessage(w, http.StatusNotFound, i18n.T(ctx, "ErrSectionNotFound"))
	case errors.Is(err, model.ErrNoFiles):
		respondMessage(w, http.StatusBadRequest, i18n.T(ctx, "ErrNoFiles"))
	case errors.Is(err, model.ErrMissingSubject):
		respondMessage(w, http.StatusBadRequest, i18n.T(ctx, "ErrMissingSubject"))
	case errors.As(err, &dErr):
		msg := i18n.T(ctx, "ErrDecodeNoStructure")
		if dErr.Kind == decoder.KindValidationFailed {
			msg = i18n.Td(ctx, "ErrDecodeValidation", map[string]any{"Field": dErr.Field})
		}
		slog.Error("decode failed", "error", err)
		respondJSON(w, http.StatusBadGateway, map[string]any{"error": msg, "message": err.Error()})
	case errors.As(err, &cErr):
		slog.Error("completion failed", "error", err)
		respondJSON(w, http.StatusBadGateway, map[string]any{"error": i18n.T(ctx, "ErrCompletion"), "message": err.Error()})
	default:
		slog.Error("request failed", "error", err)
		respondMessage(w, http.StatusInternalServerError, i18n.T(ctx, "ErrInternal"))
	}
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{"error": message})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
