package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/craftshoplabs/craftshop-backend/internal/authz"
	"github.com/craftshoplabs/craftshop-backend/pkg/config"
	"github.com/craftshoplabs/craftshop-backend/pkg/db/models"
	dbtypes "github.com/craftshoplabs/craftshop-backend/pkg/db/types"
	pkgerrors "github.com/craftshoplabs/craftshop-backend/pkg/errors"
	"github.com/craftshoplabs/craftshop-backend/pkg/logger"
	"github.com/craftshoplabs/craftshop-backend/pkg/metrics"
)

type categoryStore interface {
	Create(ctx context.Context, category *models.Category) (*models.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	ListVisibleTo(ctx context.Context, principalID uuid.UUID, familyID *uuid.UUID) ([]models.Category, error)
	Rename(ctx context.Context, id uuid.UUID, newName string) (int64, error)
	DeleteIfEmpty(ctx context.Context, id uuid.UUID, scrubOwner *uuid.UUID) (bool, int64, error)
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// CreateCategoryInput holds the fields needed to create a category.
type CreateCategoryInput struct {
	Name string
}

// CategoryService exposes the category side of the catalog.
type CategoryService interface {
	ListCategories(ctx context.Context, principal authz.Principal) ([]models.Category, error)
	GetCategory(ctx context.Context, principal authz.Principal, id uuid.UUID) (*models.Category, error)
	CreateCategory(ctx context.Context, principal authz.Principal, input CreateCategoryInput) (*models.Category, error)
	RenameCategory(ctx context.Context, principal authz.Principal, id uuid.UUID, newName string) (*models.Category, error)
	DeleteCategory(ctx context.Context, principal authz.Principal, id uuid.UUID) error
}

type categoryService struct {
	categories categoryStore
	users      userLoader
	cfg        config.CatalogConfig
	metrics    *metrics.CatalogMetrics
	logg       *logger.Logger
}

// NewCategoryService wires the referential-integrity coordinator for
// categories. Metrics may be nil.
func NewCategoryService(categories categoryStore, users userLoader, cfg config.CatalogConfig, m *metrics.CatalogMetrics, logg *logger.Logger) (CategoryService, error) {
	if categories == nil {
		return nil, fmt.Errorf("category store required")
	}
	if users == nil {
		return nil, fmt.Errorf("user loader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &categoryService{
		categories: categories,
		users:      users,
		cfg:        cfg,
		metrics:    m,
		logg:       logg,
	}, nil
}

func (s *categoryService) ListCategories(ctx context.Context, principal authz.Principal) ([]models.Category, error) {
	rows, err := s.categories.ListVisibleTo(ctx, principal.ID, principal.FamilyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing categories")
	}
	visible := authz.FilterOwned(principal, rows, func(c models.Category) authz.Descriptor {
		return authz.ForCategory(&c)
	})
	return visible, nil
}

func (s *categoryService) GetCategory(ctx context.Context, principal authz.Principal, id uuid.UUID) (*models.Category, error) {
	category, err := s.loadCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if decision := authz.Authorize(principal, authz.ForCategory(category), authz.ActionRead); !decision.Allowed {
		return nil, authz.Denied(authz.ActionRead, decision)
	}
	return category, nil
}

func (s *categoryService) CreateCategory(ctx context.Context, principal authz.Principal, input CreateCategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}

	creator, err := s.users.FindByID(ctx, principal.ID)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "acting user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading acting user")
	}

	// The creator and the creator's own inviter share visibility from day one.
	ownerIDs := dbtypes.UUIDArray{principal.ID}.With(creator.OwnerID)

	category := &models.Category{
		CategoryName: name,
		OwnerName:    creator.Name,
		OwnerID:      principal.ID,
		FamilyID:     creator.FamilyID,
		OwnerIDs:     ownerIDs,
		ProductCount: 0,
	}
	created, err := s.categories.Create(ctx, category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating category")
	}
	return created, nil
}

func (s *categoryService) RenameCategory(ctx context.Context, principal authz.Principal, id uuid.UUID, newName string) (*models.Category, error) {
	name := strings.TrimSpace(newName)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}

	category, err := s.loadCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if decision := authz.Authorize(principal, authz.ForCategory(category), authz.ActionUpdate); !decision.Allowed {
		return nil, authz.Denied(authz.ActionUpdate, decision)
	}

	cascaded, err := s.categories.Rename(ctx, id, name)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "renaming category")
	}

	s.metrics.AddCascadeRows(id.String(), cascaded)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"category_id":   id.String(),
		"cascaded_rows": cascaded,
	}), "category renamed")

	category.CategoryName = name
	return category, nil
}

func (s *categoryService) DeleteCategory(ctx context.Context, principal authz.Principal, id uuid.UUID) error {
	category, err := s.loadCategory(ctx, id)
	if err != nil {
		return err
	}
	if decision := authz.Authorize(principal, authz.ForCategory(category), authz.ActionDelete); !decision.Allowed {
		return authz.Denied(authz.ActionDelete, decision)
	}
	if category.ProductCount > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "category still has products").
			WithDetails(map[string]any{"product_count": category.ProductCount})
	}

	var scrubOwner *uuid.UUID
	if s.cfg.ScrubOwnerOnCategoryDelete {
		actor := principal.ID
		scrubOwner = &actor
	}

	deleted, scrubbed, err := s.categories.DeleteIfEmpty(ctx, id, scrubOwner)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting category")
	}
	if scrubbed > 0 {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"category_id":   id.String(),
			"scrubbed_rows": scrubbed,
		}), "owner scrubbed from referencing products")
	}
	if !deleted {
		// A product landed between the count check and the guarded delete.
		return pkgerrors.New(pkgerrors.CodeConflict, "category still has products")
	}
	return nil
}

func (s *categoryService) loadCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading category")
	}
	return category, nil
}
