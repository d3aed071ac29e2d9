package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"rental-contracts-backend/internal/domain"
	"rental-contracts-backend/internal/logger"
	"rental-contracts-backend/internal/repository"
)

type invoiceRepository struct {
	db *sql.DB
}

func NewInvoiceRepository(db *sql.DB) repository.InvoiceRepository {
	return &invoiceRepository{db: db}
}

const invoiceColumns = `id, serial, reservation_id, property_id, unit_id, items, subtotal, discount, COALESCE(coupon_code, ''),
	service_fee_percent, service_fee, amount, status, issued_at, due_at, paid_at, COALESCE(receipt_ref, ''),
	COALESCE(idempotency_key, ''), canceled_at, COALESCE(cancel_reason, ''), updated_at`

func (r *invoiceRepository) Create(ctx context.Context, inv *domain.Invoice) error {
	logger.EnterMethod("invoiceRepository.Create", "invoiceID", inv.ID, "serial", inv.Serial)

	items, err := json.Marshal(inv.Items)
	if err != nil {
		return fmt.Errorf("failed to encode invoice items: %w", err)
	}
	inv.UpdatedAt = time.Now().UTC()

	query := `INSERT INTO invoices (id, serial, reservation_id, property_id, unit_id, items, subtotal, discount, coupon_code,
	          service_fee_percent, service_fee, amount, status, issued_at, due_at, idempotency_key, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err = conn(ctx, r.db).ExecContext(ctx, query,
		inv.ID, inv.Serial, inv.ReservationID, inv.PropertyID, inv.UnitID, items, inv.Subtotal, inv.Discount, nullString(inv.CouponCode),
		inv.ServiceFeePercent, inv.ServiceFee, inv.Amount, inv.Status, inv.IssuedAt, inv.DueAt, nullString(inv.IdempotencyKey), inv.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			logger.ExitMethodWithWarning("invoiceRepository.Create", err, "invoiceID", inv.ID)
			return fmt.Errorf("%w: invoice %s", domain.ErrDuplicateKey, inv.ID)
		}
		logger.ExitMethodWithError("invoiceRepository.Create", err, "invoiceID", inv.ID)
		return err
	}

	logger.ExitMethod("invoiceRepository.Create", "invoiceID", inv.ID)
	return nil
}

func (r *invoiceRepository) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	return scanInvoice(row)
}

func (r *invoiceRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Invoice, error) {
	if key == "" {
		return nil, domain.ErrNotFound
	}
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE idempotency_key = $1`, key)
	return scanInvoice(row)
}

func (r *invoiceRepository) Transition(ctx context.Context, inv *domain.Invoice, from domain.InvoiceStatus) error {
	now := time.Now().UTC()
	query := `UPDATE invoices SET status = $1, paid_at = $2, receipt_ref = $3, canceled_at = $4, cancel_reason = $5, updated_at = $6
	          WHERE id = $7 AND status = $8`
	logger.DatabaseCall("UPDATE", "invoices", "invoiceID", inv.ID, "from", from, "to", inv.Status)
	res, err := conn(ctx, r.db).ExecContext(ctx, query,
		inv.Status, inv.PaidAt, nullString(inv.ReceiptRef), inv.CanceledAt, nullString(inv.CancelReason), now, inv.ID, from)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	logger.DatabaseResult("UPDATE", n, nil)
	if n == 0 {
		return domain.ErrConcurrentUpdate
	}
	inv.UpdatedAt = now
	return nil
}

func (r *invoiceRepository) ListPaidWithoutReceipt(ctx context.Context, limit int) ([]domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices
	          WHERE status = 'paid' AND COALESCE(receipt_ref, '') = '' ORDER BY paid_at LIMIT $1`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*domain.Invoice, error) {
	inv := &domain.Invoice{}
	var items []byte
	err := row.Scan(&inv.ID, &inv.Serial, &inv.ReservationID, &inv.PropertyID, &inv.UnitID, &items, &inv.Subtotal, &inv.Discount,
		&inv.CouponCode, &inv.ServiceFeePercent, &inv.ServiceFee, &inv.Amount, &inv.Status, &inv.IssuedAt, &inv.DueAt, &inv.PaidAt,
		&inv.ReceiptRef, &inv.IdempotencyKey, &inv.CanceledAt, &inv.CancelReason, &inv.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &inv.Items); err != nil {
			return nil, fmt.Errorf("failed to decode invoice items: %w", err)
		}
	}
	return inv, nil
}
