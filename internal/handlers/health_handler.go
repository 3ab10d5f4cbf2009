// internal/handlers/health_handler.go
package handlers

import (
	"log/slog"
	"net/http"

	"gorm.io/gorm"
)

type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health はDBにpingして疎通を確認する
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	logger := handlerLogger(r, "Health")

	sqlDB, err := h.db.DB()
	if err != nil {
		logger.Error("Health check failed: could not get DB object", slog.Any("error", err))
		http.Error(w, "Health check failed", http.StatusInternalServerError)
		return
	}
	if err := sqlDB.PingContext(r.Context()); err != nil {
		logger.Error("Health check failed: could not ping DB", slog.Any("error", err))
		http.Error(w, "Health check failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
