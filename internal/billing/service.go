package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/money"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service owns billing document pricing, payment state and workflow.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// CreateDocumentInput describes a new billing document.
type CreateDocumentInput struct {
	Kind       DocumentKind
	CustomerID int64
	CompanyID  *int64
	ParentID   *int64
	StartDate  *time.Time
	EndDate    *time.Time
	ValidUntil *time.Time
	Notes      *string
	Lines      []LineInput
}

// Create inserts a document with its priced lines in one unit. Invoices
// start with a derived payment status; quotations and proformas start DRAFT.
func (s *Service) Create(ctx context.Context, input CreateDocumentInput) (*Document, error) {
	if !input.Kind.valid() {
		return nil, fmt.Errorf("billing: unknown document kind %q: %w", input.Kind, shared.ErrValidation)
	}
	if input.CustomerID <= 0 {
		return nil, fmt.Errorf("billing: customer required: %w", shared.ErrValidation)
	}
	lines, total, err := PriceLines(input.Lines)
	if err != nil {
		return nil, err
	}

	status := StatusDraft
	if input.Kind.PaymentBearing() {
		status, err = DerivePaymentStatus(0, total)
		if err != nil {
			return nil, err
		}
	}

	doc := Document{
		Kind:        input.Kind,
		Number:      documentNumber(input.Kind),
		CustomerID:  input.CustomerID,
		CompanyID:   input.CompanyID,
		ParentID:    input.ParentID,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		ValidUntil:  input.ValidUntil,
		AmountToPay: total,
		AmountPaid:  0,
		Status:      status,
		Notes:       input.Notes,
	}

	var docID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		ok, err := tx.CustomerExists(ctx, input.CustomerID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w (id %d)", ErrCustomerNotFound, input.CustomerID)
		}
		for _, line := range lines {
			ok, err := tx.ProductExists(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w (id %d)", ErrProductNotFound, line.ProductID)
			}
		}
		docID, err = tx.InsertDocument(ctx, doc)
		if err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		for _, line := range lines {
			line.DocumentID = docID
			if _, err := tx.InsertLine(ctx, line); err != nil {
				return fmt.Errorf("insert line: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, "billing:create", docID, map[string]any{"kind": string(input.Kind), "amount_to_pay": total})
	return s.repo.Get(ctx, docID)
}

// ReplaceLineItems swaps a document's owned line set wholesale: delete all,
// recompute all, insert all, then update the parent total — one atomic unit.
// A line referencing a missing product aborts the whole replacement leaving
// prior lines and total untouched.
func (s *Service) ReplaceLineItems(ctx context.Context, documentID int64, inputs []LineInput) (*Document, error) {
	lines, total, err := PriceLines(inputs)
	if err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		doc, err := tx.GetDocumentForUpdate(ctx, documentID)
		if err != nil {
			return err
		}
		for _, line := range lines {
			ok, err := tx.ProductExists(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w (id %d)", ErrProductNotFound, line.ProductID)
			}
		}

		status := doc.Status
		if doc.Kind.PaymentBearing() {
			// The new total must still cover what has already been paid.
			status, err = DerivePaymentStatus(doc.AmountPaid, total)
			if err != nil {
				return err
			}
		}

		if err := tx.DeleteLines(ctx, documentID); err != nil {
			return fmt.Errorf("delete lines: %w", err)
		}
		for _, line := range lines {
			line.DocumentID = documentID
			if _, err := tx.InsertLine(ctx, line); err != nil {
				return fmt.Errorf("insert line: %w", err)
			}
		}
		return tx.UpdateTotal(ctx, documentID, total, status)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, "billing:replace_lines", documentID, map[string]any{"lines": len(lines), "amount_to_pay": total})
	return s.repo.Get(ctx, documentID)
}

// SetAmountPaid stores the accumulated payment and the status derived from
// it. Overpayment is a validation failure, not a silent clamp.
func (s *Service) SetAmountPaid(ctx context.Context, documentID int64, amountPaid money.Amount) (*Document, error) {
	if amountPaid < 0 {
		return nil, ErrNegativePayment
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		doc, err := tx.GetDocumentForUpdate(ctx, documentID)
		if err != nil {
			return err
		}
		if !doc.Kind.PaymentBearing() {
			return fmt.Errorf("%w (kind %s)", ErrNotPaymentKind, doc.Kind)
		}
		status, err := DerivePaymentStatus(amountPaid, doc.AmountToPay)
		if err != nil {
			return err
		}
		return tx.UpdateAmountPaid(ctx, documentID, amountPaid, status)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, "billing:set_amount_paid", documentID, map[string]any{"amount_paid": amountPaid})
	return s.repo.Get(ctx, documentID)
}

// MarkSent moves a draft quotation or proforma to SENT.
func (s *Service) MarkSent(ctx context.Context, documentID int64) (*Document, error) {
	return s.transition(ctx, documentID, StatusSent)
}

// Accept moves a sent quotation or proforma to ACCEPTED.
func (s *Service) Accept(ctx context.Context, documentID int64) (*Document, error) {
	return s.transition(ctx, documentID, StatusAccepted)
}

// Reject moves a sent quotation or proforma to REJECTED.
func (s *Service) Reject(ctx context.Context, documentID int64) (*Document, error) {
	return s.transition(ctx, documentID, StatusRejected)
}

func (s *Service) transition(ctx context.Context, documentID int64, to DocumentStatus) (*Document, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		doc, err := tx.GetDocumentForUpdate(ctx, documentID)
		if err != nil {
			return err
		}
		if doc.Kind.PaymentBearing() {
			return fmt.Errorf("%w (kind %s)", ErrNotPaymentKind, doc.Kind)
		}
		if !canTransition(doc.Status, to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatus, doc.Status, to)
		}
		return tx.UpdateStatus(ctx, documentID, to)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, "billing:transition", documentID, map[string]any{"status": string(to)})
	return s.repo.Get(ctx, documentID)
}

// Delete removes a document only when nothing depends on it.
func (s *Service) Delete(ctx context.Context, documentID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.GetDocumentForUpdate(ctx, documentID); err != nil {
			return err
		}
		lines, err := tx.CountLines(ctx, documentID)
		if err != nil {
			return err
		}
		children, err := tx.CountChildren(ctx, documentID)
		if err != nil {
			return err
		}
		if lines > 0 || children > 0 {
			return fmt.Errorf("%w (lines %d, children %d)", ErrHasDependents, lines, children)
		}
		return tx.DeleteDocument(ctx, documentID)
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, "billing:delete", documentID, nil)
	return nil
}

// Get loads a document with its lines.
func (s *Service) Get(ctx context.Context, documentID int64) (*Document, error) {
	return s.repo.Get(ctx, documentID)
}

// ListExpiring returns unpaid-or-partial invoices whose end date falls in
// the window, soonest first.
func (s *Service) ListExpiring(ctx context.Context, from, to time.Time) ([]Document, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("billing: expiry window end before start: %w", shared.ErrValidation)
	}
	return s.repo.ListExpiring(ctx, from, to)
}

func (s *Service) recordAudit(ctx context.Context, action string, documentID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "billing_document",
		EntityID: fmt.Sprintf("%d", documentID),
		Meta:     meta,
	})
}

func documentNumber(kind DocumentKind) string {
	prefix := "INV"
	switch kind {
	case KindProforma:
		prefix = "PRO"
	case KindQuotation:
		prefix = "QUO"
	}
	return fmt.Sprintf("%s-%d", prefix, time.Now().UTC().UnixNano())
}
