package monitor

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler wires HTTP endpoints for consistency reports.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs monitor handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/reports/low-stock", h.lowStock)
	r.Get("/reports/expiring", h.expiring)
	r.Get("/reports/overview", h.overview)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.LowStock(r.Context())
	if err != nil {
		h.logger.Error("low stock report failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) expiring(w http.ResponseWriter, r *http.Request) {
	horizon, ok := horizonDays(w, r)
	if !ok {
		return
	}
	report, err := h.service.ExpiringSoon(r.Context(), horizon)
	if err != nil {
		h.logger.Error("expiring report failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	horizon, ok := horizonDays(w, r)
	if !ok {
		return
	}
	overview, err := h.service.Overview(r.Context(), horizon)
	if err != nil {
		h.logger.Error("overview report failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, overview)
}

func horizonDays(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("horizon_days")
	if raw == "" {
		return 0, true
	}
	horizon, err := strconv.Atoi(raw)
	if err != nil || horizon < 0 {
		httpx.RespondError(w, fmt.Errorf("monitor: invalid horizon_days %q: %w", raw, shared.ErrValidation))
		return 0, false
	}
	return horizon, true
}
