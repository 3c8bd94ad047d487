package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/folio/internal/common"
	"github.com/dmitrijs2005/folio/internal/server/models"
)

var (
	errRouteNotFound    = common.ErrNotFound.WithMessage("route not found")
	errMethodNotAllowed = &common.Error{Kind: "MethodNotAllowed", Status: http.StatusMethodNotAllowed, Message: "method not allowed"}
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type usernameRequest struct {
	Username string `json:"username"`
}

type isAdminResponse struct {
	IsAdmin bool `json:"is_admin"`
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.services.Accounts.Signup(r.Context(), req.Username, req.Password, models.RoleUser); err != nil {
		s.writeError(w, r, err)
		return
	}
	admin, _ := UsernameFromContext(r.Context())
	s.logger.Info(r.Context(), "account created", "username", req.Username, "by", admin)
	writeJSON(w, http.StatusOK, success)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	pair, err := s.services.Accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.setTokenCookies(w, pair.AccessToken, pair.RefreshToken)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Login successful"})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	access, err := s.services.Accounts.Refresh(r.Context(), cookieValue(r, refreshTokenCookie))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.setTokenCookies(w, access, "")
	writeJSON(w, http.StatusOK, success)
}

// logout always clears the cookies, even when the stored session could
// not be revoked.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	err := s.services.Accounts.Logout(r.Context(), cookieValue(r, refreshTokenCookie))
	s.clearTokenCookies(w)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, success)
}

func (s *Server) isAdmin(w http.ResponseWriter, r *http.Request) {
	ok, err := s.services.Accounts.IsAdmin(r.Context(), cookieValue(r, accessTokenCookie))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, isAdminResponse{IsAdmin: ok})
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	var req usernameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.services.Accounts.Delete(r.Context(), req.Username); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, success)
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.services.Accounts.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}
