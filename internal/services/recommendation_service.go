package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brandonhuynh1/eventwish-api/internal/config"
	"github.com/brandonhuynh1/eventwish-api/internal/models"
	"github.com/brandonhuynh1/eventwish-api/internal/recommend"
	"github.com/brandonhuynh1/eventwish-api/internal/repository"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	userRecommendationsPrefix    = "user_recommendations_"
	defaultRecommendationsPrefix = "default_recommendations:"
)

// RecommendationService builds per-device template recommendations from
// category history
type RecommendationService struct {
	users      repository.UserRepository
	templates  *TemplateService
	cache      Cache
	weights    recommend.Weights
	userTTL    time.Duration
	defaultTTL time.Duration
	defLimit   int
	maxLimit   int
	now        func() time.Time
	logger     zerolog.Logger
}

// NewRecommendationService creates a new recommendation service
func NewRecommendationService(users repository.UserRepository, templates *TemplateService, cache Cache, cfg config.RecommendationConfig, logger zerolog.Logger) *RecommendationService {
	return &RecommendationService{
		users:      users,
		templates:  templates,
		cache:      cache,
		weights:    recommend.DefaultWeights,
		userTTL:    time.Duration(cfg.UserCacheTTLSeconds) * time.Second,
		defaultTTL: time.Duration(cfg.DefaultCacheTTLSeconds) * time.Second,
		defLimit:   cfg.DefaultLimit,
		maxLimit:   cfg.MaxLimit,
		now:        time.Now,
		logger:     logger.With().Str("service", "recommendation").Logger(),
	}
}

// ClampLimit applies the default and bounds to a requested limit
func (s *RecommendationService) ClampLimit(limit int) int {
	if limit <= 0 {
		return s.defLimit
	}
	if limit > s.maxLimit {
		return s.maxLimit
	}
	return limit
}

// GetRecommendations returns recommendations for a device. It never fails:
// missing history or any error falls back to the default list.
func (s *RecommendationService) GetRecommendations(ctx context.Context, deviceID string, limit int) *models.Recommendations {
	limit = s.ClampLimit(limit)
	key := userRecommendationsPrefix + deviceID

	var cached models.Recommendations
	if ok, err := s.cache.GetJSON(ctx, key, &cached); err != nil {
		s.logger.Warn().Err(err).Str("deviceId", deviceID).Msg("Recommendation cache read failed")
	} else if ok {
		s.logger.Debug().Str("deviceId", deviceID).Msg("Using cached recommendations")
		return &cached
	}

	recs, err := s.personalised(ctx, deviceID, limit)
	if err != nil {
		if !errors.Is(err, errNoHistory) {
			s.logger.Error().Err(err).Str("deviceId", deviceID).Msg("Failed to build recommendations")
		} else {
			s.logger.Info().Str("deviceId", deviceID).Msg("No category history, using default recommendations")
		}
		return s.GetDefaultRecommendations(ctx, limit)
	}

	if err := s.cache.SetJSON(ctx, key, recs, s.userTTL); err != nil {
		s.logger.Warn().Err(err).Str("deviceId", deviceID).Msg("Recommendation cache write failed")
	}
	return recs
}

var errNoHistory = errors.New("no category history")

func (s *RecommendationService) personalised(ctx context.Context, deviceID string, limit int) (*models.Recommendations, error) {
	user, err := s.users.GetByDeviceID(ctx, deviceID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errNoHistory
	}
	if err != nil {
		return nil, err
	}
	if len(user.Categories) == 0 {
		return nil, errNoHistory
	}

	top := recommend.TopCategories(user.Categories, recommend.DefaultTopCategories, s.weights)
	perCategory := recommend.PerCategoryLimit(limit, len(top))

	lists := make([][]models.Template, len(top))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range top {
		i, category := i, c.Category
		g.Go(func() error {
			templates, err := s.templates.Latest(gctx, category, perCategory)
			if err != nil {
				return fmt.Errorf("failed to load templates for %s: %w", category, err)
			}
			lists[i] = templates
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	templates := recommend.Interleave(lists)
	if len(templates) > limit {
		templates = templates[:limit]
	}

	topCategories := make([]models.TopCategory, 0, len(top))
	for _, c := range top {
		topCategories = append(topCategories, models.TopCategory{
			Category: c.Category,
			Score:    c.Score,
			Weight:   c.VisitCount,
		})
	}

	return &models.Recommendations{
		Templates:     templates,
		TopCategories: topCategories,
		LastUpdated:   s.now(),
	}, nil
}

// GetDefaultRecommendations returns the newest active templates. A failure
// yields an empty list flagged with Error.
func (s *RecommendationService) GetDefaultRecommendations(ctx context.Context, limit int) *models.Recommendations {
	limit = s.ClampLimit(limit)
	key := fmt.Sprintf("%s%d", defaultRecommendationsPrefix, limit)

	var cached models.Recommendations
	if ok, err := s.cache.GetJSON(ctx, key, &cached); err != nil {
		s.logger.Warn().Err(err).Msg("Default recommendation cache read failed")
	} else if ok {
		return &cached
	}

	templates, err := s.templates.Latest(ctx, "", limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load default recommendations")
		return &models.Recommendations{
			Templates:     []models.Template{},
			TopCategories: []models.TopCategory{},
			IsDefault:     true,
			Error:         true,
			LastUpdated:   s.now(),
		}
	}

	recs := &models.Recommendations{
		Templates:     templates,
		TopCategories: []models.TopCategory{},
		IsDefault:     true,
		LastUpdated:   s.now(),
	}
	if err := s.cache.SetJSON(ctx, key, recs, s.defaultTTL); err != nil {
		s.logger.Warn().Err(err).Msg("Default recommendation cache write failed")
	}
	return recs
}

// InvalidateUser drops the cached recommendations of a device
func (s *RecommendationService) InvalidateUser(ctx context.Context, deviceID string) {
	if err := s.cache.Delete(ctx, userRecommendationsPrefix+deviceID); err != nil {
		s.logger.Warn().Err(err).Str("deviceId", deviceID).Msg("Failed to invalidate recommendations")
	}
}
