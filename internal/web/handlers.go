package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-tagger/internal/pipeline"
)

type identityResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

type detectResponse struct {
	DocUID     string             `json:"doc_uid"`
	Outcome    string             `json:"outcome"`
	Identities []identityResponse `json:"identities"`
	Names      []string           `json:"names"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// Headers are gone; nothing left to do but log.
		http.Error(w, "encoding error", http.StatusInternalServerError)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDetect runs the interactive detection path for one document.
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	if uid == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing document uid"})
		return
	}

	result, err := s.pipeline.Process(r.Context(), uid)
	if err != nil {
		writeJSON(w, statusForError(err), errorResponse{Error: err.Error()})
		return
	}

	resp := detectResponse{
		DocUID:     result.DocUID,
		Outcome:    string(result.Outcome),
		Identities: make([]identityResponse, 0, len(result.Matches)),
		Names:      make([]string, 0, len(result.Matches)),
	}
	for _, m := range result.Matches {
		name := s.config.Identities.Name(m.ID)
		resp.Identities = append(resp.Identities, identityResponse{
			ID:         m.ID,
			Name:       name,
			Confidence: m.Confidence,
		})
		resp.Names = append(resp.Names, name)
	}
	pipeline.SortNames(resp.Names)

	writeJSON(w, http.StatusOK, resp)
}

// handleModelState reports both views of the model: the local lifecycle
// state of this process and the service-side status, which also covers a
// model started by another process.
func (s *Server) handleModelState(w http.ResponseWriter, r *http.Request) {
	remote, err := s.model.RemoteStatus(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"state":         string(s.model.State()),
		"remote_status": remote,
	})
}

// statusForError maps pipeline failure classes to HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrUnsupportedMedia), errors.Is(err, pipeline.ErrDecode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pipeline.ErrRecognition):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
