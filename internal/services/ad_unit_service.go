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

var adTypes = map[string]bool{
	models.AdTypeRewarded:     true,
	models.AdTypeBanner:       true,
	models.AdTypeInterstitial: true,
	models.AdTypeNative:       true,
	models.AdTypeAppOpen:      true,
}

// AdUnitService manages AdMob ad unit configuration
type AdUnitService struct {
	units  repository.AdUnitRepository
	logger zerolog.Logger
}

// NewAdUnitService creates a new ad unit service
func NewAdUnitService(units repository.AdUnitRepository, logger zerolog.Logger) *AdUnitService {
	return &AdUnitService{
		units:  units,
		logger: logger.With().Str("service", "ad_unit").Logger(),
	}
}

func (s *AdUnitService) List(ctx context.Context) ([]models.AdUnit, error) {
	return s.units.List(ctx)
}

func (s *AdUnitService) Create(ctx context.Context, in models.AdUnitInput) (*models.AdUnit, error) {
	unit := models.AdUnit{
		AdUnitCode: strings.TrimSpace(in.AdUnitCode),
		AdName:     strings.TrimSpace(in.AdName),
		AdType:     in.AdType,
		Status:     in.Status == nil || *in.Status,
	}
	if unit.AdUnitCode == "" || unit.AdName == "" || unit.AdType == "" {
		return nil, invalidf("adUnitCode, adName and adType are required")
	}
	if !adTypes[unit.AdType] {
		return nil, invalidf("Unknown ad type %q", unit.AdType)
	}

	now := time.Now()
	unit.ID = uuid.New().String()
	unit.CreatedAt = now
	unit.UpdatedAt = now

	if err := s.units.Create(ctx, &unit); err != nil {
		return nil, err
	}
	s.logger.Info().Str("adUnit", unit.AdUnitCode).Str("type", unit.AdType).Bool("status", unit.Status).Msg("Ad unit created")
	return &unit, nil
}

func (s *AdUnitService) Update(ctx context.Context, id string, patch models.AdUnitPatch) (*models.AdUnit, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, &NotFoundError{Resource: "Ad unit"}
	}
	if patch.AdType != nil && !adTypes[*patch.AdType] {
		return nil, invalidf("Unknown ad type %q", *patch.AdType)
	}
	if patch.AdName != nil && strings.TrimSpace(*patch.AdName) == "" {
		return nil, invalidf("adName cannot be empty")
	}

	unit, err := s.units.Update(ctx, id, patch)
	if err != nil {
		return nil, notFound(err, "Ad unit")
	}
	return unit, nil
}

func (s *AdUnitService) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return &NotFoundError{Resource: "Ad unit"}
	}
	if err := s.units.Delete(ctx, id); err != nil {
		return notFound(err, "Ad unit")
	}
	s.logger.Info().Str("id", id).Msg("Ad unit deleted")
	return nil
}
