package billing

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/money"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
)

// Repository persists billing documents in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("billing repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const documentColumns = `id, kind, number, customer_id, company_id, parent_id, start_date, end_date, valid_until, amount_to_pay, amount_paid, status, notes, created_at, updated_at`

// Get loads a document with its lines ordered as stored.
func (r *Repository) Get(ctx context.Context, id int64) (*Document, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM billing_documents WHERE id=$1`, id)
	doc, err := scanDocument(row)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `SELECT id, document_id, product_id, qty, unit_price, discount_pct, price, notes, line_order
FROM billing_lines WHERE document_id=$1 ORDER BY line_order ASC, id ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var line LineItem
		if err := rows.Scan(&line.ID, &line.DocumentID, &line.ProductID, &line.Qty, &line.UnitPrice, &line.DiscountPct, &line.Price, &line.Notes, &line.LineOrder); err != nil {
			return nil, err
		}
		doc.Lines = append(doc.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListExpiring returns payment-bearing documents whose end date falls in
// [from, to] and that are not fully paid, soonest first.
func (r *Repository) ListExpiring(ctx context.Context, from, to time.Time) ([]Document, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+documentColumns+`
FROM billing_documents
WHERE kind=$1 AND status <> $2 AND end_date IS NOT NULL AND end_date BETWEEN $3 AND $4
ORDER BY end_date ASC, id ASC`, string(KindInvoice), string(StatusPaid), from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	docs := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *txRepository) GetDocumentForUpdate(ctx context.Context, id int64) (Document, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+documentColumns+` FROM billing_documents WHERE id=$1 FOR UPDATE`, id)
	return scanDocument(row)
}

func (r *txRepository) CustomerExists(ctx context.Context, customerID int64) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM customers WHERE id=$1)`, customerID).Scan(&exists)
	return exists, err
}

func (r *txRepository) ProductExists(ctx context.Context, productID int64) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id=$1)`, productID).Scan(&exists)
	return exists, err
}

func (r *txRepository) InsertDocument(ctx context.Context, doc Document) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO billing_documents (kind, number, customer_id, company_id, parent_id, start_date, end_date, valid_until, amount_to_pay, amount_paid, status, notes, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,NOW(),NOW()) RETURNING id`,
		string(doc.Kind), doc.Number, doc.CustomerID, doc.CompanyID, doc.ParentID,
		doc.StartDate, doc.EndDate, doc.ValidUntil, int64(doc.AmountToPay), int64(doc.AmountPaid),
		string(doc.Status), doc.Notes).Scan(&id)
	return id, err
}

func (r *txRepository) InsertLine(ctx context.Context, line LineItem) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO billing_lines (document_id, product_id, qty, unit_price, discount_pct, price, notes, line_order)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`,
		line.DocumentID, line.ProductID, line.Qty, int64(line.UnitPrice), line.DiscountPct, int64(line.Price), line.Notes, line.LineOrder).Scan(&id)
	return id, err
}

func (r *txRepository) DeleteLines(ctx context.Context, documentID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM billing_lines WHERE document_id=$1`, documentID)
	return err
}

func (r *txRepository) UpdateTotal(ctx context.Context, documentID int64, amountToPay money.Amount, status DocumentStatus) error {
	_, err := r.tx.Exec(ctx, `UPDATE billing_documents SET amount_to_pay=$2, status=$3, updated_at=NOW() WHERE id=$1`,
		documentID, int64(amountToPay), string(status))
	return err
}

func (r *txRepository) UpdateAmountPaid(ctx context.Context, documentID int64, amountPaid money.Amount, status DocumentStatus) error {
	_, err := r.tx.Exec(ctx, `UPDATE billing_documents SET amount_paid=$2, status=$3, updated_at=NOW() WHERE id=$1`,
		documentID, int64(amountPaid), string(status))
	return err
}

func (r *txRepository) UpdateStatus(ctx context.Context, documentID int64, status DocumentStatus) error {
	_, err := r.tx.Exec(ctx, `UPDATE billing_documents SET status=$2, updated_at=NOW() WHERE id=$1`,
		documentID, string(status))
	return err
}

func (r *txRepository) CountLines(ctx context.Context, documentID int64) (int64, error) {
	var count int64
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM billing_lines WHERE document_id=$1`, documentID).Scan(&count)
	return count, err
}

func (r *txRepository) CountChildren(ctx context.Context, documentID int64) (int64, error) {
	var count int64
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM billing_documents WHERE parent_id=$1`, documentID).Scan(&count)
	return count, err
}

func (r *txRepository) DeleteDocument(ctx context.Context, documentID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM billing_documents WHERE id=$1`, documentID)
	return err
}

func scanDocument(row pgx.Row) (Document, error) {
	var doc Document
	var amountToPay, amountPaid int64
	err := row.Scan(&doc.ID, &doc.Kind, &doc.Number, &doc.CustomerID, &doc.CompanyID, &doc.ParentID,
		&doc.StartDate, &doc.EndDate, &doc.ValidUntil, &amountToPay, &amountPaid, &doc.Status, &doc.Notes,
		&doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, ErrDocumentNotFound
		}
		return Document{}, err
	}
	doc.AmountToPay = money.Amount(amountToPay)
	doc.AmountPaid = money.Amount(amountPaid)
	return doc, nil
}
