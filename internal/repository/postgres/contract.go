package postgres

import (
	"context"
	"database/sql"
	"time"

	"rental-contracts-backend/internal/domain"
	"rental-contracts-backend/internal/logger"
	"rental-contracts-backend/internal/repository"
)

type contractRepository struct {
	db *sql.DB
}

func NewContractRepository(db *sql.DB) repository.ContractRepository {
	return &contractRepository{db: db}
}

func (r *contractRepository) Create(ctx context.Context, c *domain.Contract) error {
	logger.EnterMethod("contractRepository.Create", "contractID", c.ID)

	return withTx(ctx, r.db, func(ctx context.Context) error {
		now := time.Now().UTC()
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		c.UpdatedAt = now
		c.Version = 1

		query := `INSERT INTO contracts (id, property_id, unit_id, state, tenant_name, tenant_email, created_by, created_at,
		          template_id, version, updated_at)
		          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
		_, err := conn(ctx, r.db).ExecContext(ctx, query,
			c.ID, c.PropertyID, c.UnitID, c.State, c.TenantName, c.TenantEmail, c.CreatedBy, c.CreatedAt,
			nullString(c.TemplateID), c.Version, c.UpdatedAt)
		if err != nil {
			logger.ExitMethodWithError("contractRepository.Create", err, "contractID", c.ID)
			return err
		}
		if err := r.insertSignatures(ctx, c); err != nil {
			return err
		}
		logger.ExitMethod("contractRepository.Create", "contractID", c.ID)
		return nil
	})
}

func (r *contractRepository) GetByID(ctx context.Context, id string) (*domain.Contract, error) {
	c := &domain.Contract{}
	query := `SELECT id, property_id, unit_id, state, tenant_name, tenant_email, created_by, created_at,
	          sent_for_signatures_at, COALESCE(sent_for_signatures_by, ''), activated_at, rejected_at,
	          COALESCE(rejected_by, ''), COALESCE(rejection_reason, ''), COALESCE(template_id, ''),
	          COALESCE(rendered_hash, ''), COALESCE(serial, ''), version, updated_at
	          FROM contracts WHERE id = $1`
	q := conn(ctx, r.db)
	err := q.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.PropertyID, &c.UnitID, &c.State, &c.TenantName, &c.TenantEmail, &c.CreatedBy, &c.CreatedAt,
		&c.SentForSignaturesAt, &c.SentForSignaturesBy, &c.ActivatedAt, &c.RejectedAt,
		&c.RejectedBy, &c.RejectionReason, &c.TemplateID,
		&c.RenderedHash, &c.Serial, &c.Version, &c.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}

	rows, err := q.QueryContext(ctx, `SELECT role, signer_name, COALESCE(signer_email, ''), signed_at,
	          COALESCE(origin_address, ''), COALESCE(client_context, '')
	          FROM contract_signatures WHERE contract_id = $1 ORDER BY signed_at, id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var s domain.Signature
		if err := rows.Scan(&s.Role, &s.SignerName, &s.SignerEmail, &s.SignedAt, &s.OriginAddress, &s.ClientContext); err != nil {
			return nil, err
		}
		c.Signatures = append(c.Signatures, s)
	}
	return c, rows.Err()
}

func (r *contractRepository) Update(ctx context.Context, c *domain.Contract) error {
	logger.EnterMethod("contractRepository.Update", "contractID", c.ID, "version", c.Version)

	return withTx(ctx, r.db, func(ctx context.Context) error {
		now := time.Now().UTC()
		query := `UPDATE contracts SET state = $1, sent_for_signatures_at = $2, sent_for_signatures_by = $3,
		          activated_at = $4, rejected_at = $5, rejected_by = $6, rejection_reason = $7, template_id = $8,
		          rendered_hash = $9, serial = $10, version = version + 1, updated_at = $11
		          WHERE id = $12 AND version = $13`
		logger.DatabaseCall("UPDATE", "contracts", "contractID", c.ID)
		res, err := conn(ctx, r.db).ExecContext(ctx, query,
			c.State, c.SentForSignaturesAt, nullString(c.SentForSignaturesBy),
			c.ActivatedAt, c.RejectedAt, nullString(c.RejectedBy), nullString(c.RejectionReason), nullString(c.TemplateID),
			nullString(c.RenderedHash), nullString(c.Serial), now, c.ID, c.Version)
		if err != nil {
			logger.DatabaseResult("UPDATE", 0, err, "contractID", c.ID)
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		logger.DatabaseResult("UPDATE", n, nil, "contractID", c.ID)
		if n == 0 {
			return domain.ErrConcurrentUpdate
		}

		if err := r.insertSignatures(ctx, c); err != nil {
			return err
		}
		c.Version++
		c.UpdatedAt = now
		return nil
	})
}

// insertSignatures writes signatures not yet stored. The (contract_id, role)
// unique key keeps a role from being recorded twice.
func (r *contractRepository) insertSignatures(ctx context.Context, c *domain.Contract) error {
	query := `INSERT INTO contract_signatures (contract_id, role, signer_name, signer_email, signed_at, origin_address, client_context)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT (contract_id, role) DO NOTHING`
	for _, s := range c.Signatures {
		_, err := conn(ctx, r.db).ExecContext(ctx, query,
			c.ID, s.Role, s.SignerName, nullString(s.SignerEmail), s.SignedAt, nullString(s.OriginAddress), nullString(s.ClientContext))
		if err != nil {
			return err
		}
	}
	return nil
}
