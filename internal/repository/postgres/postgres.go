package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"rental-contracts-backend/internal/domain"
	"rental-contracts-backend/internal/logger"
	"rental-contracts-backend/internal/repository"

	"github.com/lib/pq"
)

type Store struct {
	db *sql.DB
	repository.ContractRepository
	repository.InvoiceRepository
	repository.SequenceRepository
	repository.TemplateRepository
	repository.PropertyRepository
	repository.ReservationRepository
	repository.CouponRepository
	repository.OutboxRepository
	repository.FeeSettingRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                    db,
		ContractRepository:    NewContractRepository(db),
		InvoiceRepository:     NewInvoiceRepository(db),
		SequenceRepository:    NewSequenceRepository(db),
		TemplateRepository:    NewTemplateRepository(db),
		PropertyRepository:    NewPropertyRepository(db),
		ReservationRepository: NewReservationRepository(db),
		CouponRepository:      NewCouponRepository(db),
		OutboxRepository:      NewOutboxRepository(db),
		FeeSettingRepository:  NewFeeSettingRepository(db),
	}
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, s.db, fn)
}

func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Tx:           s,
		Contracts:    s.ContractRepository,
		Invoices:     s.InvoiceRepository,
		Sequences:    s.SequenceRepository,
		Templates:    s.TemplateRepository,
		Properties:   s.PropertyRepository,
		Reservations: s.ReservationRepository,
		Coupons:      s.CouponRepository,
		Outbox:       s.OutboxRepository,
		FeeSettings:  s.FeeSettingRepository,
	}
}

type txKey struct{}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn returns the transaction carried by ctx, or db.
func conn(ctx context.Context, db *sql.DB) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

func withTx(ctx context.Context, db *sql.DB, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(repository.MarkTx(context.WithValue(ctx, txKey{}, tx))); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("Failed to rollback transaction", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
