package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/folio/internal/common"
	"github.com/dmitrijs2005/folio/internal/server/models"
	"github.com/go-chi/chi/v5"
)

type uploadResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type healthResponse struct {
	Status string `json:"status"`
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if s.services.Store != nil {
		if err := s.services.Store.Ping(r.Context()); err != nil {
			s.writeError(w, r, common.StorageFailure(err))
			return
		}
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (s *Server) queryAccessLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries, err := s.services.AccessLogs.Query(r.Context(), q.Get("start"), q.Get("end"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) contact(w http.ResponseWriter, r *http.Request) {
	var msg models.ContactMessage
	if err := decodeJSON(w, r, &msg); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.services.Contact.Submit(r.Context(), msg); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, success)
}

func (s *Server) uploadMedia(w http.ResponseWriter, r *http.Request) {
	key, url, err := s.services.Media.PresignUpload(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{Key: key, URL: url})
}

func (s *Server) downloadMedia(w http.ResponseWriter, r *http.Request) {
	url, err := s.services.Media.PresignDownload(r.Context(), chi.URLParam(r, "*"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}
