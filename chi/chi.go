// Package chi serves chatter sessions over HTTP using the chi router, with
// store events streamed to browsers over a WebSocket.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/fwojciec/chatter"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

const maxBodyBytes = 1 << 20

// Sessions is the part of the session store the server exposes.
type Sessions interface {
	Sessions() []chatter.Session
	Session(id string) (chatter.Session, error)
	ActiveID() string
	SetActive(id string) error
	CreateSession(title string) string
	RenameSession(id, title string) error
	ClearMessages(id string) error
	DeleteSession(id string) error
	Subscribe(fn func(chatter.Event)) (unsubscribe func())
}

// Conversation accepts user messages for a given session.
type Conversation interface {
	SubmitTo(sessionID, text string) (*chatter.Turn, error)
	Pending(sessionID string) int
}

var (
	_ Sessions     = (*chatter.Store)(nil)
	_ Conversation = (*chatter.Controller)(nil)
)

// Server is an http.Handler exposing sessions and their messages.
type Server struct {
	store    Sessions
	conv     Conversation
	renderer chatter.Renderer
	logger   *slog.Logger
	upgrader websocket.Upgrader
	router   chi.Router
}

// Option configures a [Server].
type Option func(*Server)

// WithRenderer adds an "html" field rendered by r to responder messages.
func WithRenderer(r chatter.Renderer) Option {
	return func(s *Server) { s.renderer = r }
}

// WithLogger sets the logger for requests and socket errors.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCheckOrigin sets the WebSocket origin check. The default accepts
// same-origin requests only.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(s *Server) { s.upgrader.CheckOrigin = fn }
}

// NewServer creates a Server and registers its routes.
func NewServer(store Sessions, conv Conversation, opts ...Option) *Server {
	s := &Server{
		store:  store,
		conv:   conv,
		logger: slog.New(slog.DiscardHandler),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, o := range opts {
		o(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/health"))
	r.Use(s.logRequests)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.handleListSessions)
		r.Post("/", s.handleCreateSession)
		r.Put("/active", s.handleSetActive)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Patch("/", s.handleRenameSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/messages", s.handleSubmit)
			r.Delete("/messages", s.handleClearMessages)
		})
	})
	r.Get("/events", s.handleEvents)

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("encode response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, chatter.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, chatter.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, chatter.ErrIllegalState):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.respondJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", chatter.ErrValidation)
	}
	return nil
}
