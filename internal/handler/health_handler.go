package handler

import (
	"log/slog"
	"net/http"

	"github.com/GoArmGo/ContactsApp/internal/core/ports"
)

// HealthHandler сообщает о доступности хранилища. Недоступность не меняет код ответа.
type HealthHandler struct {
	provider ports.SessionProvider
	logger   *slog.Logger
}

func NewHealthHandler(provider ports.SessionProvider, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{provider: provider, logger: logger}
}

type healthResponse struct {
	Status  string `json:"status"`
	Details string `json:"details,omitempty"`
}

// Healthcheck — GET /healthcheck
func (h *HealthHandler) Healthcheck(w http.ResponseWriter, r *http.Request) {
	if err := h.provider.CheckConnection(r.Context()); err != nil {
		h.logger.Warn("healthcheck failed", "error", err)
		respondWithJSON(w, http.StatusOK, healthResponse{Status: "unhealthy", Details: err.Error()}, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, healthResponse{Status: "ok"}, h.logger)
}

// Root — GET /
func (h *HealthHandler) Root(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the contact API"}, h.logger)
}
