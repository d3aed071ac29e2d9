package boltstore

import (
	"context"

	bolt "github.com/boltdb/bolt"

	"rental-contracts-backend/internal/domain"
)

type templateRepository struct {
	s *Store
}

func assignmentKey(level domain.AssignmentLevel, refID string) string {
	return string(level) + "/" + refID
}

func (r *templateRepository) SaveTemplate(ctx context.Context, t *domain.ContractTemplate) error {
	return r.s.update(ctx, func(tx *bolt.Tx) error {
		return put(tx, bucketTemplates, t.ID, t)
	})
}

func (r *templateRepository) GetTemplate(ctx context.Context, id string) (*domain.ContractTemplate, error) {
	var t domain.ContractTemplate
	err := r.s.view(ctx, func(tx *bolt.Tx) error {
		return get(tx, bucketTemplates, id, &t)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// SaveAssignment keeps one record per level and ref; the latest save wins.
func (r *templateRepository) SaveAssignment(ctx context.Context, a *domain.Assignment) error {
	return r.s.update(ctx, func(tx *bolt.Tx) error {
		return put(tx, bucketAssignments, assignmentKey(a.Level, a.RefID), a)
	})
}

func (r *templateRepository) GetActiveAssignment(ctx context.Context, level domain.AssignmentLevel, refID string) (*domain.Assignment, error) {
	var a domain.Assignment
	err := r.s.view(ctx, func(tx *bolt.Tx) error {
		return get(tx, bucketAssignments, assignmentKey(level, refID), &a)
	})
	if err != nil {
		return nil, err
	}
	if !a.Active {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}
