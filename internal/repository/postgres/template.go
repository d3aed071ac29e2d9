package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"rental-contracts-backend/internal/domain"
	"rental-contracts-backend/internal/repository"
)

type templateRepository struct {
	db *sql.DB
}

func NewTemplateRepository(db *sql.DB) repository.TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) SaveTemplate(ctx context.Context, t *domain.ContractTemplate) error {
	fields, err := json.Marshal(t.Fields)
	if err != nil {
		return fmt.Errorf("failed to encode template fields: %w", err)
	}
	query := `INSERT INTO contract_templates (id, scope, body_primary, body_secondary, fields, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (id) DO UPDATE SET scope = EXCLUDED.scope, body_primary = EXCLUDED.body_primary,
	          body_secondary = EXCLUDED.body_secondary, fields = EXCLUDED.fields, updated_at = EXCLUDED.updated_at`
	_, err = conn(ctx, r.db).ExecContext(ctx, query, t.ID, t.Scope, t.BodyPrimary, t.BodySecondary, fields, time.Now().UTC())
	return err
}

func (r *templateRepository) GetTemplate(ctx context.Context, id string) (*domain.ContractTemplate, error) {
	t := &domain.ContractTemplate{}
	var fields []byte
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, scope, body_primary, COALESCE(body_secondary, ''), fields FROM contract_templates WHERE id = $1`, id).
		Scan(&t.ID, &t.Scope, &t.BodyPrimary, &t.BodySecondary, &fields)
	if err != nil {
		return nil, notFound(err)
	}
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &t.Fields); err != nil {
			return nil, fmt.Errorf("failed to decode template fields: %w", err)
		}
	}
	return t, nil
}

func (r *templateRepository) SaveAssignment(ctx context.Context, a *domain.Assignment) error {
	overrides, err := json.Marshal(a.FieldOverrides)
	if err != nil {
		return fmt.Errorf("failed to encode field overrides: %w", err)
	}
	return withTx(ctx, r.db, func(ctx context.Context) error {
		q := conn(ctx, r.db)
		if a.Active {
			if _, err := q.ExecContext(ctx,
				`UPDATE template_assignments SET active = false WHERE level = $1 AND ref_id = $2 AND active`,
				a.Level, a.RefID); err != nil {
				return err
			}
		}
		_, err := q.ExecContext(ctx,
			`INSERT INTO template_assignments (level, ref_id, template_id, field_overrides, active, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			a.Level, a.RefID, a.TemplateID, overrides, a.Active, time.Now().UTC())
		return err
	})
}

func (r *templateRepository) GetActiveAssignment(ctx context.Context, level domain.AssignmentLevel, refID string) (*domain.Assignment, error) {
	a := &domain.Assignment{Level: level, RefID: refID, Active: true}
	var overrides []byte
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT template_id, field_overrides FROM template_assignments
		 WHERE level = $1 AND ref_id = $2 AND active ORDER BY id DESC LIMIT 1`, level, refID).
		Scan(&a.TemplateID, &overrides)
	if err != nil {
		return nil, notFound(err)
	}
	if len(overrides) > 0 {
		if err := json.Unmarshal(overrides, &a.FieldOverrides); err != nil {
			return nil, fmt.Errorf("failed to decode field overrides: %w", err)
		}
	}
	return a, nil
}
