package ledger

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler wires HTTP endpoints for stock operations.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs ledger handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/stock/{id}", h.getItem)
	r.Post("/stock/{id}/decrement", h.decrement)
	r.Post("/stock/{id}/increment", h.increment)
}

type quantityRequest struct {
	Qty  int64  `json:"qty" validate:"required,gt=0"`
	Note string `json:"note,omitempty" validate:"max=500"`
}

type quantityResponse struct {
	StockItemID int64 `json:"stock_item_id"`
	NewQuantity int64 `json:"new_quantity"`
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid stock item id")
		return
	}
	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) decrement(w http.ResponseWriter, r *http.Request) {
	id, req, ok := h.parseMutation(w, r)
	if !ok {
		return
	}
	newQty, err := h.service.Decrement(r.Context(), id, req.Qty, MovementRef{Module: "STOCK", Note: req.Note})
	if err != nil {
		h.logger.Error("decrement stock failed", slog.Int64("stock_item_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quantityResponse{StockItemID: id, NewQuantity: newQty})
}

func (h *Handler) increment(w http.ResponseWriter, r *http.Request) {
	id, req, ok := h.parseMutation(w, r)
	if !ok {
		return
	}
	newQty, err := h.service.Increment(r.Context(), id, req.Qty, MovementRef{Module: "STOCK", Note: req.Note})
	if err != nil {
		h.logger.Error("increment stock failed", slog.Int64("stock_item_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quantityResponse{StockItemID: id, NewQuantity: newQty})
}

func (h *Handler) parseMutation(w http.ResponseWriter, r *http.Request) (int64, quantityRequest, bool) {
	var req quantityRequest
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid stock item id")
		return 0, req, false
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return 0, req, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("ledger: %v: %w", err, shared.ErrValidation))
		return 0, req, false
	}
	return id, req, true
}
