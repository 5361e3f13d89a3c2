package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"quiz-bot-service/internal/domain"
)

// QuizReader is the read-only slice of the quiz store the API exposes.
type QuizReader interface {
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	GetQuiz(ctx context.Context, id int64) (domain.Quiz, []domain.Question, error)
}

// APIHandler serves the read-only JSON endpoints consumed by the web view.
type APIHandler struct {
	quizzes QuizReader
	log     *slog.Logger
}

func NewAPIHandler(quizzes QuizReader, log *slog.Logger) *APIHandler {
	return &APIHandler{quizzes: quizzes, log: log}
}

// Register mounts the API routes and, when staticDir is set, static serving
// of the web view's built assets with an SPA fallback.
func (h *APIHandler) Register(mux *http.ServeMux, staticDir string) {
	mux.HandleFunc("GET /api/quizzes", h.listQuizzes)
	mux.HandleFunc("GET /api/quizzes/{id}", h.getQuiz)
	if staticDir != "" {
		mux.Handle("/", spaFileServer(staticDir))
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *APIHandler) listQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.quizzes.ListQuizzes(r.Context())
	if err != nil {
		h.serverError(w, err)
		return
	}
	if quizzes == nil {
		quizzes = []domain.Quiz{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"quizzes": quizzes})
}

func (h *APIHandler) getQuiz(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "quiz not found"})
		return
	}
	quiz, questions, err := h.quizzes.GetQuiz(r.Context(), id)
	if errors.Is(err, domain.ErrQuizNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "quiz not found"})
		return
	}
	if err != nil {
		h.serverError(w, err)
		return
	}
	if questions == nil {
		questions = []domain.Question{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"quiz": quiz, "questions": questions})
}

func (h *APIHandler) serverError(w http.ResponseWriter, err error) {
	h.log.Error("api request failed", "err", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// spaFileServer serves files from dir and falls back to the entry document
// for client-side routes.
func spaFileServer(dir string) http.Handler {
	fileServer := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := filepath.Join(dir, filepath.Clean(strings.TrimPrefix(r.URL.Path, "/")))
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(dir, "index.html"))
	})
}
