package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rental-contracts-backend/internal/config"
	"rental-contracts-backend/internal/domain"
	"rental-contracts-backend/internal/logger"
	"rental-contracts-backend/internal/repository"

	"github.com/google/uuid"
)

const (
	NamespaceInvoice  = "invoice"
	NamespaceContract = "contract"
)

type sequenceService struct {
	repo       repository.SequenceRepository
	namespaces map[string]config.NamespaceConfig
	attempts   int
	backoff    time.Duration
}

func NewSequenceService(repo repository.SequenceRepository, cfg config.SequencesConfig) SequenceService {
	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &sequenceService{
		repo:       repo,
		namespaces: cfg.Namespaces,
		attempts:   attempts,
		backoff:    time.Duration(cfg.RetryBackoffMs) * time.Millisecond,
	}
}

func (s *sequenceService) defaults(namespace string) domain.SequenceCounter {
	c := domain.SequenceCounter{
		Namespace: namespace,
		Prefix:    strings.ToUpper(namespace),
		Width:     domain.DefaultSequenceWidth,
	}
	if ns, ok := s.namespaces[namespace]; ok {
		if ns.Prefix != "" {
			c.Prefix = ns.Prefix
		}
		if ns.Width > 0 {
			c.Width = ns.Width
		}
	}
	return c
}

// Next allocates the next serial in namespace. When ctx carries a store
// transaction the increment joins it, so a rollback releases the value.
// Store failures are retried with exponential backoff; the service never
// invents a value on its own. Inside a transaction a failure is returned at
// once: the transaction is unusable and the caller retries the whole unit.
func (s *sequenceService) Next(ctx context.Context, namespace string) (string, error) {
	logger.EnterMethod("sequenceService.Next", "namespace", namespace)

	if namespace == "" {
		err := fmt.Errorf("%w: empty sequence namespace", domain.ErrInvalidInput)
		logger.ExitMethodWithError("sequenceService.Next", err)
		return "", err
	}

	defaults := s.defaults(namespace)
	attempts := s.attempts
	if repository.InTx(ctx) {
		attempts = 1
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			wait := s.backoff << (attempt - 1)
			logger.Warn("Retrying sequence allocation", "namespace", namespace, "attempt", attempt+1, "wait", wait, "error", lastErr)
			if err := sleepContext(ctx, wait); err != nil {
				lastErr = err
				break
			}
		}

		counter, err := s.repo.Next(ctx, namespace, defaults)
		if err == nil {
			serial := counter.Format(counter.Value)
			logger.ExitMethod("sequenceService.Next", "namespace", namespace, "serial", serial)
			return serial, nil
		}
		lastErr = err
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			break
		}
	}

	err := fmt.Errorf("%w: namespace %s: %v", domain.ErrSequenceUnavailable, namespace, lastErr)
	logger.ExitMethodWithError("sequenceService.Next", err, "namespace", namespace)
	return "", err
}

func (s *sequenceService) Current(ctx context.Context, namespace string) (*domain.SequenceCounter, error) {
	counter, err := s.repo.Get(ctx, namespace)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Not allocated yet.
			c := s.defaults(namespace)
			return &c, nil
		}
		return nil, fmt.Errorf("failed to read sequence %s: %w", namespace, err)
	}
	return counter, nil
}

// Reset moves a counter to value, which may be lower than the current one.
// It is the only way a counter goes backwards and always leaves an audit row.
func (s *sequenceService) Reset(ctx context.Context, namespace string, value int64, actor, reason string) (*domain.SequenceReset, error) {
	logger.EnterMethod("sequenceService.Reset", "namespace", namespace, "value", value, "actor", actor)

	if namespace == "" || value < 0 || actor == "" || strings.TrimSpace(reason) == "" {
		err := fmt.Errorf("%w: reset needs a namespace, a non-negative value, an actor and a reason", domain.ErrInvalidInput)
		logger.ExitMethodWithError("sequenceService.Reset", err, "namespace", namespace)
		return nil, err
	}

	reset := &domain.SequenceReset{
		ID:        uuid.NewString(),
		Namespace: namespace,
		NewValue:  value,
		Actor:     actor,
		Reason:    reason,
		ResetAt:   time.Now().UTC(),
	}
	if err := s.repo.Reset(ctx, reset); err != nil {
		logger.ExitMethodWithError("sequenceService.Reset", err, "namespace", namespace)
		return nil, fmt.Errorf("failed to reset sequence %s: %w", namespace, err)
	}

	logger.Info("Sequence reset", "namespace", namespace, "oldValue", reset.OldValue, "newValue", reset.NewValue, "actor", actor, "resetAt", reset.ResetAt)
	logger.ExitMethod("sequenceService.Reset", "namespace", namespace)
	return reset, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
