package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/folio/internal/common"
	"github.com/go-chi/chi/v5/middleware"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Timestamp string `json:"timestamp"`
	Name      string `json:"name"`
	Code      int    `json:"code"`
	Message   string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

var success = messageResponse{Message: "success"}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err as the error envelope. Causes of server-side
// failures are logged and never sent to the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := common.AsError(err)
	if e.Status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed",
			"request_id", middleware.GetReqID(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeJSON(w, e.Status, errorEnvelope{Error: errorBody{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Name:      string(e.Kind),
		Code:      e.Status,
		Message:   e.Message,
	}})
}

// decodeJSON reads a single JSON object and rejects fields dst does not
// declare.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return common.ErrValidation.WithMessage("invalid params: empty body")
		}
		return common.ErrValidation.WithMessage(fmt.Sprintf("invalid params: %v", err))
	}
	if dec.More() {
		return common.ErrValidation.WithMessage("invalid params: trailing data")
	}
	return nil
}
