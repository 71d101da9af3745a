package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type createSessionRequest struct {
	Title string `json:"title"`
}

type setActiveRequest struct {
	ID string `json:"id"`
}

type renameRequest struct {
	Title string `json:"title"`
}

type submitRequest struct {
	Message string `json:"message"`
}

type submitResponse struct {
	Status    string     `json:"status"`
	SessionID string     `json:"session_id"`
	Message   messageDTO `json:"message"`
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.store.Sessions()
	list := sessionListDTO{
		ActiveID: s.store.ActiveID(),
		Sessions: make([]sessionDTO, len(sessions)),
	}
	for i, sess := range sessions {
		list.Sessions[i] = s.summary(sess)
	}
	s.respondJSON(w, http.StatusOK, list)
}

// handleCreateSession accepts an empty body for a default title.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			s.respondError(w, err)
			return
		}
	}
	id := s.store.CreateSession(req.Title)
	sess, err := s.store.Session(id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, s.session(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Session(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, s.session(sess))
}

func (s *Server) handleSetActive(w http.ResponseWriter, r *http.Request) {
	var req setActiveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	if err := s.store.SetActive(req.ID); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRenameSession(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.store.RenameSession(id, req.Title); err != nil {
		s.respondError(w, err)
		return
	}
	sess, err := s.store.Session(id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, s.summary(sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteSession(chi.URLParam(r, "id")); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSubmit records the user message and returns before the reply
// arrives. The reply is delivered on the event stream.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	turn, err := s.conv.SubmitTo(chi.URLParam(r, "id"), req.Message)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusAccepted, submitResponse{
		Status:    "queued",
		SessionID: turn.SessionID(),
		Message:   s.message(turn.Trigger()),
	})
}

func (s *Server) handleClearMessages(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ClearMessages(chi.URLParam(r, "id")); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
