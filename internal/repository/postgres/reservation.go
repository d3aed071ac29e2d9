package postgres

import (
	"context"
	"database/sql"

	"rental-contracts-backend/internal/domain"
	"rental-contracts-backend/internal/repository"
)

type reservationRepository struct {
	db *sql.DB
}

func NewReservationRepository(db *sql.DB) repository.ReservationRepository {
	return &reservationRepository{db: db}
}

func (r *reservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	query := `INSERT INTO reservations (id, property_id, unit_id, tenant_name, tenant_email, purpose, rental_type, start_date, end_date, status)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		res.ID, res.PropertyID, res.UnitID, res.TenantName, res.TenantEmail, res.Purpose, nullString(string(res.RentalType)),
		res.StartDate, res.EndDate, res.Status)
	return err
}

func (r *reservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	res := &domain.Reservation{}
	query := `SELECT id, property_id, unit_id, tenant_name, tenant_email, purpose, COALESCE(rental_type, ''), start_date, end_date, status
	          FROM reservations WHERE id = $1`
	err := conn(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&res.ID, &res.PropertyID, &res.UnitID, &res.TenantName, &res.TenantEmail, &res.Purpose, &res.RentalType,
		&res.StartDate, &res.EndDate, &res.Status)
	if err != nil {
		return nil, notFound(err)
	}
	return res, nil
}
