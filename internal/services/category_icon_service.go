package services

import (
	"context"
	"strings"
	"time"

	"github.com/brandonhuynh1/eventwish-api/internal/models"
	"github.com/brandonhuynh1/eventwish-api/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CategoryIconService manages the icons shown next to template categories
type CategoryIconService struct {
	icons  repository.CategoryIconRepository
	logger zerolog.Logger
}

// NewCategoryIconService creates a new category icon service
func NewCategoryIconService(icons repository.CategoryIconRepository, logger zerolog.Logger) *CategoryIconService {
	return &CategoryIconService{
		icons:  icons,
		logger: logger.With().Str("service", "category_icon").Logger(),
	}
}

func (s *CategoryIconService) List(ctx context.Context) ([]models.CategoryIcon, error) {
	return s.icons.List(ctx)
}

func (s *CategoryIconService) GetByCategory(ctx context.Context, category string) (*models.CategoryIcon, error) {
	icon, err := s.icons.GetByCategory(ctx, strings.TrimSpace(category))
	if err != nil {
		return nil, notFound(err, "Category icon")
	}
	return icon, nil
}

// Create adds an icon for a category that has none yet
func (s *CategoryIconService) Create(ctx context.Context, in models.CategoryIcon) (*models.CategoryIcon, error) {
	in.Category = strings.TrimSpace(in.Category)
	in.CategoryIcon = strings.TrimSpace(in.CategoryIcon)
	if in.Category == "" || in.CategoryIcon == "" {
		return nil, invalidf("Category and categoryIcon are required")
	}
	if in.IconType == "" {
		in.IconType = models.IconTypeURL
	}
	if err := validateIconType(in.IconType); err != nil {
		return nil, err
	}

	now := time.Now()
	in.ID = uuid.New().String()
	in.CreatedAt = now
	in.UpdatedAt = now

	if err := s.icons.Create(ctx, &in); err != nil {
		return nil, err
	}

	s.logger.Info().Str("category", in.Category).Msg("Category icon created")
	return &in, nil
}

func (s *CategoryIconService) Update(ctx context.Context, category string, patch models.CategoryIconPatch) (*models.CategoryIcon, error) {
	if patch.IconType != nil {
		if err := validateIconType(*patch.IconType); err != nil {
			return nil, err
		}
	}
	if patch.CategoryIcon != nil && strings.TrimSpace(*patch.CategoryIcon) == "" {
		return nil, invalidf("categoryIcon cannot be empty")
	}

	icon, err := s.icons.Update(ctx, strings.TrimSpace(category), patch)
	if err != nil {
		return nil, notFound(err, "Category icon")
	}
	return icon, nil
}

// Delete removes an icon. Templates using it keep working without an icon.
func (s *CategoryIconService) Delete(ctx context.Context, category string) error {
	if err := s.icons.Delete(ctx, strings.TrimSpace(category)); err != nil {
		return notFound(err, "Category icon")
	}
	s.logger.Info().Str("category", category).Msg("Category icon deleted")
	return nil
}

func validateIconType(iconType string) error {
	if iconType != models.IconTypeURL && iconType != models.IconTypeResource {
		return invalidf("iconType must be %s or %s", models.IconTypeURL, models.IconTypeResource)
	}
	return nil
}
