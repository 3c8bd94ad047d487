package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/folio/internal/server/services"
	"github.com/go-chi/chi/v5"
)

type postSummary struct {
	Title    string `json:"title"`
	Overview string `json:"overview"`
	Content  string `json:"content"`
}

type postCreatedResponse struct {
	Message string      `json:"message"`
	Blog    postSummary `json:"blog"`
	ID      string      `json:"id"`
}

type postUpdatedResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

func (s *Server) postOverviews(w http.ResponseWriter, r *http.Request) {
	posts, err := s.services.Posts.Overviews(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) listPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.services.Posts.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) getPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.services.Posts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	var in services.PostInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := s.services.Posts.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info(r.Context(), "post created", "id", id)
	writeJSON(w, http.StatusOK, postCreatedResponse{
		Message: "Blog created",
		Blog:    postSummary{Title: in.Title, Overview: in.Overview, Content: in.Content},
		ID:      id,
	})
}

func (s *Server) updatePost(w http.ResponseWriter, r *http.Request) {
	var in services.PostInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.services.Posts.Update(r.Context(), id, in); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, postUpdatedResponse{Message: "Blog updated", ID: id})
}

func (s *Server) deletePost(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Posts.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Blog deleted"})
}
