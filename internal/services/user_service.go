package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/brandonhuynh1/eventwish-api/internal/models"
	"github.com/brandonhuynh1/eventwish-api/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RecommendationInvalidator drops cached recommendations for a device
type RecommendationInvalidator interface {
	InvalidateUser(ctx context.Context, deviceID string)
}

// counterDeltas maps engagement actions onto template counter changes
var counterDeltas = map[string]struct {
	field string
	delta int
}{
	models.ActionLike:   {"likes", 1},
	models.ActionUnlike: {"likes", -1},
	models.ActionFav:    {"favorites", 1},
	models.ActionUnfav:  {"favorites", -1},
}

// UserService handles user-related operations
type UserService struct {
	users     repository.UserRepository
	templates *TemplateService
	recs      RecommendationInvalidator
	now       func() time.Time
	logger    zerolog.Logger
}

// NewUserService creates a new user service
func NewUserService(users repository.UserRepository, templates *TemplateService, recs RecommendationInvalidator, logger zerolog.Logger) *UserService {
	return &UserService{
		users:     users,
		templates: templates,
		recs:      recs,
		now:       time.Now,
		logger:    logger.With().Str("service", "user").Logger(),
	}
}

// Register creates a user for the device, or refreshes lastOnline when it
// already exists. created reports which happened.
func (s *UserService) Register(ctx context.Context, deviceID string) (*models.User, bool, error) {
	deviceID, err := ValidateDeviceID(deviceID)
	if err != nil {
		return nil, false, err
	}

	now := s.now()
	existing, err := s.users.GetByDeviceID(ctx, deviceID)
	switch {
	case err == nil:
		if err := s.users.Touch(ctx, existing.ID, now); err != nil {
			return nil, false, err
		}
		existing.LastOnline = now
		return existing, false, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, false, err
	}

	u := &models.User{
		ID:                uuid.New().String(),
		DeviceID:          deviceID,
		PreferredTheme:    "light",
		PreferredLanguage: "en",
		Timezone:          "Asia/Kolkata",
		PushPreferences:   models.PushPreferences{AllowFestivalPush: true, AllowPersonalPush: true},
		LastOnline:        now,
		Created:           now,
		Categories:        []models.CategoryVisit{},
	}
	if err := s.users.Create(ctx, u); err != nil {
		// Lost a race with a concurrent registration
		if errors.Is(err, repository.ErrDuplicate) {
			existing, getErr := s.users.GetByDeviceID(ctx, deviceID)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	s.logger.Info().Str("deviceId", deviceID).Msg("New user registered")
	return u, true, nil
}

// Get returns the user with its category history
func (s *UserService) Get(ctx context.Context, deviceID string) (*models.User, error) {
	deviceID, err := ValidateDeviceID(deviceID)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByDeviceID(ctx, deviceID)
	if err != nil {
		return nil, notFound(err, "User")
	}
	return u, nil
}

// UpdateActivity refreshes lastOnline and records an optional category visit
func (s *UserService) UpdateActivity(ctx context.Context, deviceID, category, source string) error {
	u, err := s.Get(ctx, deviceID)
	if err != nil {
		return err
	}
	category, err = ValidateCategory(category)
	if err != nil {
		return err
	}

	now := s.now()
	if err := s.users.Touch(ctx, u.ID, now); err != nil {
		return err
	}
	if category == "" {
		return nil
	}

	if source != models.SourceTemplate {
		source = models.SourceDirect
	}
	if err := s.users.VisitCategory(ctx, u.ID, category, source, now); err != nil {
		return err
	}

	s.logger.Info().Str("deviceId", u.DeviceID).Str("category", category).Str("source", source).Msg("Category visited")
	s.recs.InvalidateUser(ctx, u.DeviceID)
	return nil
}

// RecordTemplateView records a template view as a template-sourced visit
// to its category
func (s *UserService) RecordTemplateView(ctx context.Context, deviceID, templateID, category string) error {
	templateID = strings.TrimSpace(templateID)
	if templateID == "" || strings.TrimSpace(category) == "" {
		return invalidf("Template ID and category are required")
	}
	category, err := ValidateCategory(category)
	if err != nil {
		return err
	}

	u, err := s.Get(ctx, deviceID)
	if err != nil {
		return err
	}

	now := s.now()
	if err := s.users.VisitCategory(ctx, u.ID, category, models.SourceTemplate, now); err != nil {
		return err
	}
	if err := s.users.RecordView(ctx, u.ID, templateID, now); err != nil {
		return err
	}
	if err := s.templates.AdjustCounter(ctx, templateID, "usageCount", 1); err != nil {
		s.logger.Warn().Err(err).Str("templateID", templateID).Msg("Failed to bump template usage")
	}

	s.logger.Info().Str("deviceId", u.DeviceID).Str("templateID", templateID).Str("category", category).Msg("Template viewed")
	s.recs.InvalidateUser(ctx, u.DeviceID)
	return nil
}

// RecordEngagement applies a like, favorite or share. Template counters
// move only when the user's likes or favorites actually change.
func (s *UserService) RecordEngagement(ctx context.Context, deviceID, templateID, action string) (*models.User, error) {
	action = strings.ToUpper(strings.TrimSpace(action))
	switch action {
	case models.ActionLike, models.ActionUnlike, models.ActionFav, models.ActionUnfav, models.ActionShare:
	default:
		return nil, invalidf("Action must be one of LIKE, UNLIKE, FAV, UNFAV, SHARE")
	}
	templateID = strings.TrimSpace(templateID)
	if templateID == "" {
		return nil, invalidf("Template ID is required")
	}

	u, err := s.Get(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	changed, err := s.users.ApplyEngagement(ctx, u.ID, templateID, action, s.now())
	if err != nil {
		return nil, notFound(err, "User")
	}

	if d, ok := counterDeltas[action]; ok && changed {
		if err := s.templates.AdjustCounter(ctx, templateID, d.field, d.delta); err != nil {
			s.logger.Warn().Err(err).Str("templateID", templateID).Str("action", action).Msg("Failed to adjust template counter")
		}
	}

	return s.Get(ctx, u.DeviceID)
}

// UpdateProfile links a Firebase account to the device and applies profile
// changes. A device already linked to another account is refused.
func (s *UserService) UpdateProfile(ctx context.Context, deviceID, uid string, patch models.ProfileUpdate) (*models.User, error) {
	if uid == "" {
		return nil, invalidf("Firebase UID is required")
	}

	u, err := s.Get(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if u.UID != nil && *u.UID != "" && *u.UID != uid {
		s.logger.Warn().Str("deviceId", u.DeviceID).Msg("Device is linked to a different account")
		return nil, ErrForbidden
	}

	u.UID = &uid
	if patch.DisplayName != nil {
		u.DisplayName = strings.TrimSpace(*patch.DisplayName)
	}
	if patch.Email != nil {
		u.Email = strings.TrimSpace(*patch.Email)
	}
	if patch.ProfilePhoto != nil {
		u.ProfilePhoto = *patch.ProfilePhoto
	}
	if patch.PreferredTheme != nil {
		u.PreferredTheme = *patch.PreferredTheme
	}
	if patch.PreferredLanguage != nil {
		u.PreferredLanguage = *patch.PreferredLanguage
	}
	if patch.Timezone != nil {
		u.Timezone = *patch.Timezone
	}
	if patch.PushPreferences != nil {
		u.PushPreferences = *patch.PushPreferences
	}
	u.LastOnline = s.now()

	if err := s.users.UpdateProfile(ctx, u); err != nil {
		return nil, notFound(err, "User")
	}
	return u, nil
}
