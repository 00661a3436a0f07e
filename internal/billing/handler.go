package billing

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/money"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler wires HTTP endpoints for billing documents.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs billing handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers document routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/documents", h.create)
	r.Get("/documents/{id}", h.get)
	r.Put("/documents/{id}/lines", h.replaceLines)
	r.Post("/documents/{id}/payment", h.setAmountPaid)
	r.Post("/documents/{id}/send", h.markSent)
	r.Post("/documents/{id}/accept", h.accept)
	r.Post("/documents/{id}/reject", h.reject)
	r.Delete("/documents/{id}", h.delete)
}

type createDocumentRequest struct {
	Kind       DocumentKind `json:"kind" validate:"required,oneof=INVOICE PROFORMA QUOTATION"`
	CustomerID int64        `json:"customer_id" validate:"required,gt=0"`
	CompanyID  *int64       `json:"company_id,omitempty" validate:"omitempty,gt=0"`
	ParentID   *int64       `json:"parent_id,omitempty" validate:"omitempty,gt=0"`
	StartDate  *time.Time   `json:"start_date,omitempty"`
	EndDate    *time.Time   `json:"end_date,omitempty"`
	ValidUntil *time.Time   `json:"valid_until,omitempty"`
	Notes      *string      `json:"notes,omitempty"`
	Lines      []LineInput  `json:"lines" validate:"required,min=1,dive"`
}

type replaceLinesRequest struct {
	Lines []LineInput `json:"lines" validate:"required,min=1,dive"`
}

type setAmountPaidRequest struct {
	AmountPaid money.Amount `json:"amount_paid" validate:"gte=0"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createDocumentRequest
	if !h.decode(w, r, &req) {
		return
	}
	doc, err := h.service.Create(r.Context(), CreateDocumentInput{
		Kind:       req.Kind,
		CustomerID: req.CustomerID,
		CompanyID:  req.CompanyID,
		ParentID:   req.ParentID,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		ValidUntil: req.ValidUntil,
		Notes:      req.Notes,
		Lines:      req.Lines,
	})
	if err != nil {
		h.logger.Error("create document failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, doc)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}
	doc, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) replaceLines(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}
	var req replaceLinesRequest
	if !h.decode(w, r, &req) {
		return
	}
	doc, err := h.service.ReplaceLineItems(r.Context(), id, req.Lines)
	if err != nil {
		h.logger.Error("replace line items failed", slog.Int64("document_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) setAmountPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}
	var req setAmountPaidRequest
	if !h.decode(w, r, &req) {
		return
	}
	doc, err := h.service.SetAmountPaid(r.Context(), id, req.AmountPaid)
	if err != nil {
		h.logger.Error("set amount paid failed", slog.Int64("document_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) markSent(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.MarkSent)
}

func (h *Handler) accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Accept)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Reject)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete document failed", slog.Int64("document_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, int64) (*Document, error)) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}
	doc, err := op(r.Context(), id)
	if err != nil {
		h.logger.Error("document transition failed", slog.Int64("document_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) documentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid document id")
		return 0, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return false
	}
	if err := h.validate.Struct(target); err != nil {
		httpx.RespondError(w, fmt.Errorf("billing: %v: %w", err, shared.ErrValidation))
		return false
	}
	return true
}
