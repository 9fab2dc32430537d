package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/messages-qa-service/internal/config"
	"github.com/kirillkom/messages-qa-service/internal/core/domain"
	"github.com/kirillkom/messages-qa-service/internal/core/ports"
	"github.com/kirillkom/messages-qa-service/internal/observability/metrics"
)

const serviceName = "messages-qa"

type Router struct {
	cfg     config.Config
	qa      ports.QuestionAnswerer
	metrics *metrics.HTTPServerMetrics
}

func NewRouter(cfg config.Config, qa ports.QuestionAnswerer, m *metrics.HTTPServerMetrics) *Router {
	return &Router{cfg: cfg, qa: qa, metrics: m}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/qa/ask", rt.ask)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = rateLimitMiddleware(rt.cfg, handler)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) ask(w http.ResponseWriter, r *http.Request) {
	var question string
	switch r.Method {
	case http.MethodGet:
		question = r.URL.Query().Get("question")
	case http.MethodPost:
		var req struct {
			Question string `json:"question"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body")
			return
		}
		question = req.Question
	default:
		writeError(w, http.StatusMethodNotAllowed, "invalid_input", "method not allowed")
		return
	}

	if strings.TrimSpace(question) == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "question is required")
		return
	}

	start := time.Now()
	result, err := rt.qa.AnswerQuestion(r.Context(), question)
	if err != nil {
		if rt.metrics != nil {
			rt.metrics.RecordAnswerError(serviceName, domain.ErrorKind(err))
		}
		writeError(w, mapErrorToHTTPStatus(err), domain.ErrorKind(err), publicErrorMessage(err))
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordAnswer(serviceName, len(result.SourceIDs), result.Degraded, time.Since(start))
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"kind":    kind,
			"message": message,
		},
	})
}
