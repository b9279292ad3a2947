package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	apperrors "urbfisc/internal/errors"
)

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to HTTP responses. Store failures are shown
// to the user as a plain message and raise an operator alert; they are not
// retried.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *apperrors.ValidationError
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation failed", Fields: validation.Fields})
	case apperrors.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "ocorrência não encontrada"})
	case apperrors.IsStoreError(err):
		s.logger.Error("❌ Record store unavailable",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		if s.notifier.Enabled() {
			at := s.now()
			s.notifyAsync("store alert", func(ctx context.Context) error {
				return s.notifier.SendCriticalAlert(ctx, "Banco de dados", err.Error(), at)
			})
		}
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: storeUnavailableMsg})
	default:
		s.logger.Error("❌ Request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: http.StatusText(http.StatusInternalServerError)})
	}
}
