package boltstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	bolt "github.com/boltdb/bolt"

	"rental-contracts-backend/internal/domain"
)

type invoiceRepository struct {
	s *Store
}

func (r *invoiceRepository) Create(ctx context.Context, inv *domain.Invoice) error {
	return r.s.update(ctx, func(tx *bolt.Tx) error {
		if exists(tx, bucketInvoices, inv.ID) {
			return fmt.Errorf("%w: invoice %s", domain.ErrDuplicateKey, inv.ID)
		}
		if inv.IdempotencyKey != "" {
			if exists(tx, bucketInvoiceKeys, inv.IdempotencyKey) {
				return fmt.Errorf("%w: idempotency key %s", domain.ErrDuplicateKey, inv.IdempotencyKey)
			}
			if err := tx.Bucket(bucketInvoiceKeys).Put([]byte(inv.IdempotencyKey), []byte(inv.ID)); err != nil {
				return err
			}
		}
		inv.UpdatedAt = time.Now().UTC()
		return put(tx, bucketInvoices, inv.ID, inv)
	})
}

func (r *invoiceRepository) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := r.s.view(ctx, func(tx *bolt.Tx) error {
		return get(tx, bucketInvoices, id, &inv)
	})
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invoiceRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Invoice, error) {
	if key == "" {
		return nil, domain.ErrNotFound
	}
	var inv domain.Invoice
	err := r.s.view(ctx, func(tx *bolt.Tx) error {
		id := tx.Bucket(bucketInvoiceKeys).Get([]byte(key))
		if id == nil {
			return domain.ErrNotFound
		}
		return get(tx, bucketInvoices, string(id), &inv)
	})
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invoiceRepository) Transition(ctx context.Context, inv *domain.Invoice, from domain.InvoiceStatus) error {
	return r.s.update(ctx, func(tx *bolt.Tx) error {
		var stored domain.Invoice
		if err := get(tx, bucketInvoices, inv.ID, &stored); err != nil {
			return err
		}
		if stored.Status != from {
			return domain.ErrConcurrentUpdate
		}
		stored.Status = inv.Status
		stored.PaidAt = inv.PaidAt
		stored.ReceiptRef = inv.ReceiptRef
		stored.CanceledAt = inv.CanceledAt
		stored.CancelReason = inv.CancelReason
		stored.UpdatedAt = time.Now().UTC()
		inv.UpdatedAt = stored.UpdatedAt
		return put(tx, bucketInvoices, inv.ID, &stored)
	})
}

func (r *invoiceRepository) ListPaidWithoutReceipt(ctx context.Context, limit int) ([]domain.Invoice, error) {
	var out []domain.Invoice
	err := r.s.view(ctx, func(tx *bolt.Tx) error {
		return tx.Bucket(bucketInvoices).ForEach(func(k, v []byte) error {
			var inv domain.Invoice
			if err := json.Unmarshal(v, &inv); err != nil {
				return err
			}
			if inv.Status == domain.InvoiceStatusPaid && inv.ReceiptRef == "" {
				out = append(out, inv)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		return paidAt(out[i]).Before(paidAt(out[j]))
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func paidAt(inv domain.Invoice) time.Time {
	if inv.PaidAt == nil {
		return time.Time{}
	}
	return *inv.PaidAt
}
