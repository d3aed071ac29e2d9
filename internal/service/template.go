package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"rental-contracts-backend/internal/domain"
	"rental-contracts-backend/internal/logger"
	"rental-contracts-backend/internal/repository"
	"rental-contracts-backend/internal/utils"
)

type templateService struct {
	templateRepo      repository.TemplateRepository
	propertyRepo      repository.PropertyRepository
	defaultTemplateID string
}

func NewTemplateService(templateRepo repository.TemplateRepository, propertyRepo repository.PropertyRepository, defaultTemplateID string) TemplateService {
	return &templateService{
		templateRepo:      templateRepo,
		propertyRepo:      propertyRepo,
		defaultTemplateID: defaultTemplateID,
	}
}

// Resolve renders the contract body for a building or unit. The template is
// taken from the most specific active assignment, falling back to the
// configured default. Field values layer template defaults, then building
// overrides, then unit overrides.
//
// When no template can be found the result has Resolved=false and an empty
// body; that is not an error.
func (s *templateService) Resolve(ctx context.Context, level domain.AssignmentLevel, refID string) (*domain.ResolvedTemplate, error) {
	logger.EnterMethod("templateService.Resolve", "level", level, "refID", refID)

	if !level.Valid() || refID == "" {
		err := fmt.Errorf("%w: unknown template scope %q", domain.ErrInvalidInput, level)
		logger.ExitMethodWithError("templateService.Resolve", err)
		return nil, err
	}

	chain, err := s.assignmentChain(ctx, level, refID)
	if err != nil {
		logger.ExitMethodWithError("templateService.Resolve", err, "refID", refID)
		return nil, err
	}

	templateID := s.defaultTemplateID
	if len(chain) > 0 {
		templateID = chain[len(chain)-1].TemplateID
	}

	tmpl, err := s.templateRepo.GetTemplate(ctx, templateID)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Warn("Contract template unresolved", "error", domain.ErrTemplateUnresolved, "level", level, "refID", refID, "templateID", templateID)
		logger.ExitMethod("templateService.Resolve", "refID", refID, "resolved", false)
		return &domain.ResolvedTemplate{Fields: map[string]string{}}, nil
	}
	if err != nil {
		logger.ExitMethodWithError("templateService.Resolve", err, "refID", refID)
		return nil, fmt.Errorf("failed to load template %s: %w", templateID, err)
	}

	fields := make(map[string]string, len(tmpl.Fields))
	for _, f := range tmpl.Fields {
		fields[f.Key] = f.Default
	}
	for _, a := range chain {
		for _, key := range utils.SortedKeys(a.FieldOverrides) {
			fields[key] = a.FieldOverrides[key]
		}
	}

	var missing []string
	for _, f := range tmpl.Fields {
		if f.Required && fields[f.Key] == "" {
			missing = append(missing, f.Key)
		}
	}
	sort.Strings(missing)

	undeclared := undeclaredTokens(fields, tmpl.BodyPrimary, tmpl.BodySecondary)
	if len(undeclared) > 0 {
		logger.Warn("Template body references undeclared fields", "templateID", tmpl.ID, "fields", undeclared)
	}

	body := utils.Substitute(tmpl.BodyPrimary, fields)
	resolved := &domain.ResolvedTemplate{
		TemplateID:       tmpl.ID,
		Body:             body,
		BodySecondary:    utils.Substitute(tmpl.BodySecondary, fields),
		Fields:           fields,
		Hash:             utils.HashRendered(body),
		MissingRequired:  missing,
		UndeclaredFields: undeclared,
		Resolved:         true,
	}

	logger.ExitMethod("templateService.Resolve", "refID", refID, "templateID", tmpl.ID, "missing", len(missing))
	return resolved, nil
}

func undeclaredTokens(fields map[string]string, bodies ...string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, b := range bodies {
		for _, key := range utils.Placeholders(b) {
			if _, ok := fields[key]; ok {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

// assignmentChain returns the active assignments that apply, least specific first.
func (s *templateService) assignmentChain(ctx context.Context, level domain.AssignmentLevel, refID string) ([]*domain.Assignment, error) {
	buildingID := refID
	var unitAssignment *domain.Assignment

	if level == domain.AssignmentLevelUnit {
		a, err := s.activeAssignment(ctx, domain.AssignmentLevelUnit, refID)
		if err != nil {
			return nil, err
		}
		unitAssignment = a

		unit, err := s.propertyRepo.GetUnit(ctx, refID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			buildingID = ""
		case err != nil:
			return nil, fmt.Errorf("failed to load unit %s: %w", refID, err)
		default:
			buildingID = unit.BuildingID
		}
	}

	var chain []*domain.Assignment
	if buildingID != "" {
		a, err := s.activeAssignment(ctx, domain.AssignmentLevelBuilding, buildingID)
		if err != nil {
			return nil, err
		}
		if a != nil {
			chain = append(chain, a)
		}
	}
	if unitAssignment != nil {
		chain = append(chain, unitAssignment)
	}
	return chain, nil
}

func (s *templateService) activeAssignment(ctx context.Context, level domain.AssignmentLevel, refID string) (*domain.Assignment, error) {
	a, err := s.templateRepo.GetActiveAssignment(ctx, level, refID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s assignment %s: %w", level, refID, err)
	}
	return a, nil
}
