package postgres

import (
	"context"
	"database/sql"

	"rental-contracts-backend/internal/domain"
	"rental-contracts-backend/internal/logger"
	"rental-contracts-backend/internal/repository"
)

type propertyRepository struct {
	db *sql.DB
}

func NewPropertyRepository(db *sql.DB) repository.PropertyRepository {
	return &propertyRepository{db: db}
}

func (r *propertyRepository) Create(ctx context.Context, p *domain.Property) error {
	query := `INSERT INTO properties (id, building_id, title, status, published, purpose, rental_type, daily_rate, monthly_rate,
	          yearly_rate, sale_price, owner_name, owner_email)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		p.ID, nullString(p.BuildingID), p.Title, p.Status, p.Published, p.Purpose, nullString(string(p.RentalType)), p.DailyRate, p.MonthlyRate,
		p.YearlyRate, p.SalePrice, p.OwnerName, p.OwnerEmail)
	return err
}

func (r *propertyRepository) GetByID(ctx context.Context, id string) (*domain.Property, error) {
	p := &domain.Property{}
	query := `SELECT id, COALESCE(building_id, ''), title, status, published, purpose, COALESCE(rental_type, ''),
	          daily_rate, monthly_rate, yearly_rate, sale_price, owner_name, owner_email
	          FROM properties WHERE id = $1`
	err := conn(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.BuildingID, &p.Title, &p.Status, &p.Published, &p.Purpose, &p.RentalType,
		&p.DailyRate, &p.MonthlyRate, &p.YearlyRate, &p.SalePrice, &p.OwnerName, &p.OwnerEmail)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (r *propertyRepository) SetStatus(ctx context.Context, propertyID string, status domain.PropertyStatus, published bool) error {
	logger.DatabaseCall("UPDATE", "properties", "propertyID", propertyID, "status", status, "published", published)
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE properties SET status = $1, published = $2 WHERE id = $3`, status, published, propertyID)
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
		return domain.ErrNotFound
	}
	return nil
}

func (r *propertyRepository) CreateUnit(ctx context.Context, u *domain.Unit) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO units (id, building_id, property_id) VALUES ($1, $2, $3)`, u.ID, u.BuildingID, u.PropertyID)
	return err
}

func (r *propertyRepository) GetUnit(ctx context.Context, id string) (*domain.Unit, error) {
	u := &domain.Unit{}
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, building_id, COALESCE(property_id, '') FROM units WHERE id = $1`, id).
		Scan(&u.ID, &u.BuildingID, &u.PropertyID)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}
