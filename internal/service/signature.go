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
)

type signatureService struct {
	tx           repository.Transactor
	contractRepo repository.ContractRepository
	propertyRepo repository.PropertyRepository
	sequences    SequenceService
	templates    TemplateService
	propertySync PropertyStatusSync
	events       *eventPublisher
	admin        domain.Recipient

	rejectEarlyAdmin bool
	maxRetries       int
}

func NewSignatureService(
	repos *repository.Repositories,
	sequences SequenceService,
	templates TemplateService,
	propertySync PropertyStatusSync,
	dispatcher NotificationDispatcher,
	cfg *config.Config,
) SignatureService {
	return &signatureService{
		tx:               repos.Tx,
		contractRepo:     repos.Contracts,
		propertyRepo:     repos.Properties,
		sequences:        sequences,
		templates:        templates,
		propertySync:     propertySync,
		events:           newEventPublisher(repos.Outbox, dispatcher, time.Duration(cfg.Outbox.BaseBackoffSec)*time.Second),
		admin:            domain.Recipient{Name: cfg.Notify.AdminName, Email: cfg.Notify.AdminEmail, DeviceToken: cfg.Notify.AdminDeviceToken},
		rejectEarlyAdmin: cfg.Workflow.RejectEarlyAdmin,
		maxRetries:       cfg.Workflow.MaxCASRetries,
	}
}

// mutation validates and changes c in place and returns the events to publish.
// Returning an error leaves the stored contract untouched.
type mutation func(ctx context.Context, c *domain.Contract, now time.Time) ([]domain.Event, error)

// mutate runs load, fn, persist inside a transaction. A lost version race
// reloads the contract and applies fn again, so a second signer for the same
// role observes the first one's signature.
func (s *signatureService) mutate(ctx context.Context, contractID string, fn mutation) (*domain.Contract, error) {
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		var (
			result *domain.Contract
			staged []*domain.OutboxEvent
		)
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			c, err := s.contractRepo.GetByID(ctx, contractID)
			if err != nil {
				return err
			}
			now := time.Now().UTC()
			events, err := fn(ctx, c, now)
			if err != nil {
				return err
			}
			c.UpdatedAt = now
			if err := s.contractRepo.Update(ctx, c); err != nil {
				return err
			}
			staged, err = s.events.stageAll(ctx, events)
			if err != nil {
				return err
			}
			result = c
			return nil
		})
		if errors.Is(err, domain.ErrConcurrentUpdate) {
			logger.Warn("Contract changed concurrently, retrying", "contractID", contractID, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, err
		}
		s.events.flush(ctx, staged)
		return result, nil
	}
	return nil, fmt.Errorf("%w: contract %s", domain.ErrConcurrentUpdate, contractID)
}

func (s *signatureService) SendForSignatures(ctx context.Context, contractID string, actor *domain.Actor) (*domain.Contract, error) {
	logger.EnterMethod("signatureService.SendForSignatures", "contractID", contractID)

	sentBy := ""
	if actor != nil {
		sentBy = actor.Name
		if sentBy == "" {
			sentBy = actor.ID
		}
	}

	c, err := s.mutate(ctx, contractID, func(ctx context.Context, c *domain.Contract, now time.Time) ([]domain.Event, error) {
		if c.State != domain.ContractStateDraft {
			return nil, fmt.Errorf("%w: cannot send a %s contract for signatures", domain.ErrInvalidTransition, c.State)
		}

		property, err := s.propertyRepo.GetByID(ctx, c.PropertyID)
		if err != nil {
			return nil, fmt.Errorf("failed to load property %s: %w", c.PropertyID, err)
		}

		level, refID := domain.AssignmentLevelBuilding, property.BuildingID
		if c.UnitID != nil && *c.UnitID != "" {
			level, refID = domain.AssignmentLevelUnit, *c.UnitID
		}
		if refID == "" {
			refID = property.ID
		}
		resolved, err := s.templates.Resolve(ctx, level, refID)
		if err != nil {
			return nil, err
		}
		if resolved.Resolved {
			c.TemplateID = resolved.TemplateID
			c.RenderedHash = resolved.Hash
		} else {
			logger.Warn("Sending contract without a rendered body", "contractID", c.ID, "error", domain.ErrTemplateUnresolved)
		}

		if c.Serial == "" {
			serial, err := s.sequences.Next(ctx, NamespaceContract)
			if err != nil {
				return nil, err
			}
			c.Serial = serial
		}

		c.State = domain.ContractStateSentForSignatures
		c.SentForSignaturesAt = &now
		c.SentForSignaturesBy = sentBy

		return []domain.Event{
			contractEvent(domain.EventContractSentForSignatures, c, property, s.admin,
				"Contract ready for signatures",
				fmt.Sprintf("The contract for %s is ready to be signed.", property.Title)),
		}, nil
	})
	if err != nil {
		logger.ExitMethodWithError("signatureService.SendForSignatures", err, "contractID", contractID)
		return nil, err
	}

	logger.WithContract(c.ID).Info("Contract sent for signatures", "serial", c.Serial, "by", sentBy, "renderedHash", c.RenderedHash)
	logger.ExitMethod("signatureService.SendForSignatures", "contractID", contractID)
	return c, nil
}

func (s *signatureService) Sign(ctx context.Context, contractID string, req SignRequest) (*domain.Contract, error) {
	logger.EnterMethod("signatureService.Sign", "contractID", contractID, "role", req.Role)

	if !req.Role.Valid() {
		err := fmt.Errorf("%w: unknown signature type %q", domain.ErrInvalidInput, req.Role)
		logger.ExitMethodWithError("signatureService.Sign", err, "contractID", contractID)
		return nil, err
	}
	name := strings.TrimSpace(req.SignerName)
	if name == "" {
		err := fmt.Errorf("%w: signer name is required", domain.ErrInvalidInput)
		logger.ExitMethodWithError("signatureService.Sign", err, "contractID", contractID)
		return nil, err
	}

	c, err := s.mutate(ctx, contractID, func(ctx context.Context, c *domain.Contract, now time.Time) ([]domain.Event, error) {
		if c.IsTerminal() {
			return nil, fmt.Errorf("%w: contract is %s", domain.ErrInvalidTransition, c.State)
		}
		if c.State == domain.ContractStateDraft {
			return nil, fmt.Errorf("%w: contract has not been sent for signatures", domain.ErrInvalidTransition)
		}
		if c.HasSigned(req.Role) {
			return nil, fmt.Errorf("%w: %s", domain.ErrAlreadySigned, req.Role)
		}
		if req.Role == domain.SignerRoleAdmin && s.rejectEarlyAdmin &&
			!(c.HasSigned(domain.SignerRoleTenant) && c.HasSigned(domain.SignerRoleOwner)) {
			return nil, fmt.Errorf("%w: admin approval requires tenant and owner signatures", domain.ErrOutOfOrder)
		}

		c.Signatures = append(c.Signatures, domain.Signature{
			Role:          req.Role,
			SignerName:    name,
			SignerEmail:   req.SignerEmail,
			SignedAt:      now,
			OriginAddress: req.OriginAddress,
			ClientContext: req.ClientContext,
		})
		c.State = domain.DeriveState(c.Signatures)

		property, err := s.propertyRepo.GetByID(ctx, c.PropertyID)
		if err != nil {
			return nil, fmt.Errorf("failed to load property %s: %w", c.PropertyID, err)
		}

		events := []domain.Event{
			contractEvent(domain.EventContractSigned, c, property, s.admin,
				"Contract signed",
				fmt.Sprintf("%s signed the contract as %s. Next: %s.", name, req.Role, domain.NextStep(c.State))),
		}

		if c.State == domain.ContractStateActive {
			c.ActivatedAt = &now
			if _, err := s.propertySync.Apply(ctx, c.PropertyID); err != nil {
				return nil, err
			}
			events = append(events, contractEvent(domain.EventContractActivated, c, property, s.admin,
				"Contract active",
				fmt.Sprintf("All parties have signed the contract for %s.", property.Title)))
		}
		return events, nil
	})
	if err != nil {
		logger.ExitMethodWithError("signatureService.Sign", err, "contractID", contractID, "role", req.Role)
		return nil, err
	}

	logger.WithContract(c.ID).Info("Contract signed", "role", req.Role, "state", c.State)
	logger.ExitMethod("signatureService.Sign", "contractID", contractID, "state", c.State)
	return c, nil
}

func (s *signatureService) Reject(ctx context.Context, contractID, by, reason string) (*domain.Contract, error) {
	logger.EnterMethod("signatureService.Reject", "contractID", contractID, "by", by)

	if strings.TrimSpace(by) == "" {
		err := fmt.Errorf("%w: rejecting party is required", domain.ErrInvalidInput)
		logger.ExitMethodWithError("signatureService.Reject", err, "contractID", contractID)
		return nil, err
	}

	c, err := s.mutate(ctx, contractID, func(ctx context.Context, c *domain.Contract, now time.Time) ([]domain.Event, error) {
		if c.IsTerminal() {
			return nil, fmt.Errorf("%w: contract is %s", domain.ErrInvalidTransition, c.State)
		}
		c.State = domain.ContractStateRejected
		c.RejectedAt = &now
		c.RejectedBy = by
		c.RejectionReason = reason

		property, err := s.propertyRepo.GetByID(ctx, c.PropertyID)
		if err != nil {
			return nil, fmt.Errorf("failed to load property %s: %w", c.PropertyID, err)
		}
		return []domain.Event{
			contractEvent(domain.EventContractRejected, c, property, s.admin,
				"Contract rejected",
				fmt.Sprintf("%s rejected the contract: %s", by, reason)),
		}, nil
	})
	if err != nil {
		logger.ExitMethodWithError("signatureService.Reject", err, "contractID", contractID)
		return nil, err
	}

	logger.WithContract(c.ID).Info("Contract rejected", "by", by, "reason", reason)
	logger.ExitMethod("signatureService.Reject", "contractID", contractID)
	return c, nil
}

func (s *signatureService) GetSignatures(ctx context.Context, contractID string) (*ContractView, error) {
	c, err := s.contractRepo.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckConsistency(c); err != nil {
		logger.WithContract(c.ID).Error("Stored contract is inconsistent", "error", err)
	}
	return &ContractView{Contract: c, NextStep: domain.NextStep(c.State)}, nil
}
