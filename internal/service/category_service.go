package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/network-ticketing/internal/domain"
	"github.com/spec-kit/network-ticketing/internal/repository"
	apperrors "github.com/spec-kit/network-ticketing/pkg/util"
)

// CategoryService manages issue categories and the default seed set.
type CategoryService struct {
	categories repository.IssueCategoryRepository
	logger     *zap.Logger
}

// NewCategoryService creates the service.
func NewCategoryService(categories repository.IssueCategoryRepository, logger *zap.Logger) *CategoryService {
	return &CategoryService{categories: categories, logger: logger}
}

// List returns all categories.
func (s *CategoryService) List(ctx context.Context) ([]domain.IssueCategory, error) {
	categories, err := s.categories.ListAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return categories, nil
}

// Create validates and stores a category.
func (s *CategoryService) Create(ctx context.Context, category *domain.IssueCategory) (*domain.IssueCategory, error) {
	if strings.TrimSpace(category.Code) == "" || strings.TrimSpace(category.Name) == "" {
		return nil, apperrors.NewValidationError("code and name required", nil)
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// Update replaces a category's mutable fields.
func (s *CategoryService) Update(ctx context.Context, id int64, updated *domain.IssueCategory) (*domain.IssueCategory, error) {
	existing, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("issue category", map[string]any{"category_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	if strings.TrimSpace(updated.Code) != "" {
		existing.Code = updated.Code
	}
	existing.Name = updated.Name
	existing.Description = updated.Description
	existing.SLAHours = updated.SLAHours
	existing.Active = updated.Active
	if err := s.categories.Update(ctx, existing); err != nil {
		return nil, apperrors.MapError(err)
	}
	return existing, nil
}

type seedCategory struct {
	code        string
	name        string
	description string
	slaHours    int
}

// The name+description text doubles as the auto-categorization pool, so the
// descriptions carry the vocabulary customers actually use.
var defaultCategories = []seedCategory{
	{"NET_OUTAGE", "Network Outage", "Complete loss of network connectivity, internet down or service offline.", 4},
	{"SLOW_PERFORMANCE", "Slow Performance", "Intermittent slowness, lag or degraded performance.", 8},
	{"AUTH_ISSUE", "Authentication Issue", "Users unable to login, locked accounts or rejected passwords.", 8},
	{"HARDWARE_FAILURE", "Hardware Failure", "Physical device failure (switch, router or server).", 24},
	{"SOFTWARE_BUG", "Application Bug", "Functional bug, crash or unexpected application error.", 48},
	{"CHANGE_REQUEST", "Change Request", "Request for configuration change or approved upgrade.", 72},
	{"ACCESS_REQUEST", "Access Request", "Request for account, permission or resource access.", 24},
	{"BILLING_QUERY", "Billing / Account", "Billing related questions, invoices or account reconciliation.", 48},
}

// SeedDefaults inserts the default categories that are not already present,
// keyed by code. Idempotent across restarts.
func (s *CategoryService) SeedDefaults(ctx context.Context) error {
	existing, err := s.categories.ListAll(ctx)
	if err != nil {
		return apperrors.MapError(err)
	}
	existingCodes := make(map[string]struct{}, len(existing))
	for _, category := range existing {
		existingCodes[strings.ToUpper(category.Code)] = struct{}{}
	}

	seeded := 0
	for _, seed := range defaultCategories {
		if _, ok := existingCodes[seed.code]; ok {
			continue
		}
		hours := seed.slaHours
		category := &domain.IssueCategory{
			Code:        seed.code,
			Name:        seed.name,
			Description: seed.description,
			SLAHours:    &hours,
			Active:      true,
		}
		if err := s.categories.Create(ctx, category); err != nil {
			return apperrors.MapError(err)
		}
		seeded++
	}
	if seeded > 0 {
		s.logger.Info("seeded issue categories", zap.Int("count", seeded))
	}
	return nil
}
