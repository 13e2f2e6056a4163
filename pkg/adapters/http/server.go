package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/souvenir"
	"github.com/aretw0/souvenir/api"
	"github.com/aretw0/souvenir/pkg/domain"
	"github.com/aretw0/souvenir/pkg/scheduler"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Engine defines the operations the HTTP surface needs from the Souvenir engine.
type Engine interface {
	Current(ctx context.Context) (*domain.QandA, error)
	Answer(ctx context.Context, index int) (bool, error)
	Reveal(ctx context.Context) error
	Status(ctx context.Context) (souvenir.Status, error)
	Cancel(ctx context.Context, moduleID string) error
}

// Server serves the current question and accepts answers over HTTP.
type Server struct {
	Engine   Engine
	Streams  *StreamManager
	logger   *slog.Logger
	gatherer prometheus.Gatherer
	doc      *openapi3.T
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics exposes g on GET /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithStreams shares a StreamManager, typically one whose Hooks were given to the engine.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		if sm != nil {
			s.Streams = sm
		}
	}
}

// AnswerRequest is the body of POST /answer.
type AnswerRequest struct {
	Index *int `json:"index"`
}

// AnswerResponse reports the outcome of an answer.
type AnswerResponse struct {
	Correct bool `json:"correct"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine:  engine,
		Streams: NewStreamManager(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)
	if s.doc != nil {
		mw, err := s.validator()
		if err != nil {
			s.logger.Error("Request validation disabled", "err", err)
		} else {
			r.Use(mw)
		}
	}

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/question", s.GetQuestion)
	r.Post("/answer", s.PostAnswer)
	r.Post("/reveal", s.PostReveal)
	r.Get("/status", s.GetStatus)
	r.Post("/modules/{id}/cancel", s.CancelModule)
	r.Get("/events", s.SubscribeEvents)
	r.Get("/openapi.yaml", s.GetOpenAPI)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "souvenir-http",
		"version": strings.TrimSpace(souvenir.Version),
	})
}

// GetOpenAPI serves the OpenAPI document of this API.
func (s *Server) GetOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(api.Spec())
}

// GetQuestion handles the GET /question request. It answers 204 when no
// question is being presented.
func (s *Server) GetQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := s.Engine.Current(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	if q == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.writeJSON(w, http.StatusOK, q)
}

// PostAnswer handles the POST /answer request.
func (s *Server) PostAnswer(w http.ResponseWriter, r *http.Request) {
	var body AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Index == nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "body must be {\"index\": <n>}"})
		s.logger.Warn("PostAnswer: Invalid request body", "err", err)
		return
	}
	correct, err := s.Engine.Answer(r.Context(), *body.Index)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, AnswerResponse{Correct: correct})
}

// PostReveal handles the POST /reveal request.
func (s *Server) PostReveal(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.Reveal(r.Context()); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetStatus handles the GET /status request.
func (s *Server) GetStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.Engine.Status(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, st)
}

// CancelModule handles the POST /modules/{id}/cancel request.
func (s *Server) CancelModule(w http.ResponseWriter, r *http.Request) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Required:      true,
	})
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid module id: %v", err)})
		return
	}
	if err := s.Engine.Cancel(r.Context(), id); err != nil {
		s.fail(w, err)
		return
	}
	s.logger.Info("Module cancelled over HTTP", "module_id", id)
	w.WriteHeader(http.StatusAccepted)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, scheduler.ErrNotPresenting):
		return http.StatusConflict
	case errors.Is(err, scheduler.ErrAnswerRange):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrModuleNotFound):
		return http.StatusNotFound
	case errors.Is(err, souvenir.ErrStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		s.logger.Error("Request failed", "err", err)
	}
	s.writeJSON(w, code, ErrorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

// SubscribeEvents handles the GET /events request (SSE). The optional
// "types" query parameter filters by comma-separated event type.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	var types []string
	if err := runtime.BindQueryParameter("form", false, false, "types", r.URL.Query(), &types); err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid types: %v", err)})
		return
	}
	var filter map[domain.EventType]bool
	if len(types) > 0 {
		filter = map[domain.EventType]bool{}
		for _, t := range types {
			filter[domain.EventType(strings.TrimSpace(t))] = true
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if filter != nil && !filter[msg.Type] {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, msg.Data)
			flusher.Flush()
		}
	}
}
