package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/HarshdeepGupta/diabe-ai-buddy/internal/pipeline"
)

const maxRequestBodySize = 1 << 20 // 1MB

// QuestionAnswerer abstracts the question pipeline for the HTTP layer.
type QuestionAnswerer interface {
	AnswerQuestion(ctx context.Context, question, topic string, priorTurns []pipeline.Turn) (pipeline.Result, error)
}

// Deps holds dependencies for the HTTP handler.
type Deps struct {
	Agent          QuestionAnswerer
	AllowedOrigins []string
	StartedAt      time.Time
}

type AnswerRequest struct {
	Question            string          `json:"question"`
	Topic               string          `json:"topic"`
	ConversationHistory []pipeline.Turn `json:"conversationHistory"`
}

type AnswerResponse struct {
	Answer            string   `json:"answer"`
	FollowupQuestions []string `json:"followupQuestions"`
	Topic             string   `json:"topic"`
	NeedsMoreContext  bool     `json:"needsMoreContext"`
}

// NewHandler returns the public HTTP surface: the question endpoint,
// a health probe, and a root greeting.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Post("/api/answerQuestion", handleAnswerQuestion(deps))
	r.Get("/health", handleHealth(deps))
	r.Get("/", handleRoot)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpError(w, http.StatusNotFound, "not_found", "no such endpoint: %s", r.URL.Path)
	})

	return r
}

func handleAnswerQuestion(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req AnswerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Question == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "question is required")
			return
		}

		requestID := uuid.New().String()
		start := time.Now()

		res, err := deps.Agent.AnswerQuestion(r.Context(), req.Question, req.Topic, req.ConversationHistory)
		if err != nil {
			slog.Error("answering question failed",
				"request_id", requestID,
				"error", err,
			)
			httpError(w, http.StatusInternalServerError, "api_error", "failed to answer question")
			return
		}

		slog.Info("question answered",
			"request_id", requestID,
			"topic", res.Topic,
			"needs_more_context", res.NeedsMoreContext,
			"duration_ms", time.Since(start).Milliseconds(),
		)

		followups := res.Followups
		if followups == nil {
			followups = []string{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(AnswerResponse{
			Answer:            res.Answer,
			FollowupQuestions: followups,
			Topic:             res.Topic,
			NeedsMoreContext:  res.NeedsMoreContext,
		})
	}
}

func handleHealth(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":         "ok",
			"timestamp":      time.Now().UTC().Format(time.RFC3339),
			"uptime_seconds": int64(time.Since(deps.StartedAt).Seconds()),
		})
	}
}

func handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "DiabeAI Buddy API. POST /api/answerQuestion to ask a question.",
	})
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
