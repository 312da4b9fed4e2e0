// Package httptransport exposes the chat pipeline over HTTP.
//
// Authentication happens upstream: the gateway sets X-User-ID for every
// request it lets through.
package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/alphamail/chatbot/internal/core"
	"github.com/alphamail/chatbot/pkg/log"
)

const (
	HeaderUserID    = "X-User-ID"
	HeaderRequestID = "X-Request-ID"

	maxBodyBytes = 64 << 10
)

type Server struct {
	chat   core.ChatService
	server *http.Server
}

func NewServer(ctx context.Context, addr string, chat core.ChatService) *Server {
	s := &Server{chat: chat}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Routes builds the router. Handlers log through the logger found in ctx.
func (s *Server) Routes(ctx context.Context) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(ctx))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/chatbot", func(r chi.Router) {
		r.Use(requireUser)
		r.Post("/message", s.handleMessage)
		r.Post("/search", s.handleSearch)
	})
	return r
}

func (s *Server) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Str("addr", s.server.Addr).Msg("starting http server")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type searchRequest struct {
	DocumentType string `json:"document_type"`
	Query        string `json:"query"`
	Timezone     string `json:"timezone"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req core.ChatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Message == "" {
		writeError(w, r, http.StatusBadRequest, "message is required")
		return
	}

	resp, err := s.chat.Handle(r.Context(), userID(r.Context()), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	docType, err := core.ParseDocumentType(req.DocumentType)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, r, http.StatusBadRequest, "query is required")
		return
	}

	resp, err := s.chat.Search(r.Context(), userID(r.Context()), docType, req.Query, req.Timezone)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// StatusFor maps pipeline errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrExtractionIncomplete):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrRetrievalUnavailable), errors.Is(err, core.ErrDirectoryUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrGenerationFailure):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	logger := log.FromCtx(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Int("status", status).Msg("request failed")
	} else {
		logger.Info().Err(err).Int("status", status).Msg("request rejected")
	}
	writeError(w, r, status, core.UserMessage(err))
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, RequestID: w.Header().Get(HeaderRequestID)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type userIDKey struct{}

func userID(ctx context.Context) int64 {
	id, _ := ctx.Value(userIDKey{}).(int64)
	return id
}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.Header.Get(HeaderUserID), 10, 64)
		if err != nil || id <= 0 {
			writeError(w, r, http.StatusUnauthorized, "missing or invalid "+HeaderUserID)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLogger gives every request an id and a child of the base logger.
func requestLogger(base context.Context) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(HeaderRequestID)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set(HeaderRequestID, reqID)

			logger := log.FromCtx(base).With().
				Str("request_id", reqID).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Logger()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context())))

			logger.Debug().
				Int("status", ww.Status()).
				Dur("elapsed", time.Since(start)).
				Msg("http request")
		})
	}
}
