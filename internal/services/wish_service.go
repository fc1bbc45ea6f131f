package services

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/brandonhuynh1/eventwish-api/internal/config"
	"github.com/brandonhuynh1/eventwish-api/internal/models"
	"github.com/brandonhuynh1/eventwish-api/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	maxPlatformLength  = 50
	maxShortCodeLength = 32
	shortCodeAttempts  = 3
)

// WishService creates shared wishes and tracks how they spread
type WishService struct {
	wishes    repository.SharedWishRepository
	templates repository.TemplateRepository
	baseURL   string
	logger    zerolog.Logger
	now       func() time.Time
	newCode   func() string
}

// NewWishService creates a new shared wish service
func NewWishService(wishes repository.SharedWishRepository, templates repository.TemplateRepository, cfg config.WishConfig, logger zerolog.Logger) *WishService {
	return &WishService{
		wishes:    wishes,
		templates: templates,
		baseURL:   strings.TrimRight(cfg.PublicBaseURL, "/"),
		logger:    logger.With().Str("service", "wish").Logger(),
		now:       time.Now,
		newCode:   newShortCode,
	}
}

// newShortCode returns eight URL safe characters from 48 random bits
func newShortCode() string {
	id := uuid.New()
	return base64.RawURLEncoding.EncodeToString(id[:6])
}

// absoluteURL resolves a site relative path against the public base URL
func (s *WishService) absoluteURL(u string) string {
	if u == "" || strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	if !strings.HasPrefix(u, "/") {
		u = "/" + u
	}
	return s.baseURL + u
}

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v == "" {
		return fallback
	}
	return v
}

// Create stores a personalized copy of a template under a fresh short code
func (s *WishService) Create(ctx context.Context, in models.SharedWishInput) (*models.SharedWish, error) {
	templateID := strings.TrimSpace(in.TemplateID)
	if templateID == "" {
		return nil, invalidf("Template ID is required")
	}
	if _, err := uuid.Parse(templateID); err != nil {
		return nil, &NotFoundError{Resource: "Template"}
	}
	tmpl, err := s.templates.GetByID(ctx, templateID)
	if err != nil {
		return nil, notFound(err, "Template")
	}

	now := s.now()
	wish := &models.SharedWish{
		ID:             uuid.New().String(),
		TemplateID:     &tmpl.ID,
		RecipientName:  orDefault(in.RecipientName, "You"),
		SenderName:     orDefault(in.SenderName, "Someone"),
		CustomizedHTML: in.CustomizedHTML,
		CSSContent:     in.CSSContent,
		JSContent:      in.JSContent,
		PreviewURL:     s.absoluteURL(tmpl.PreviewURL),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	for attempt := 1; ; attempt++ {
		wish.ShortCode = s.newCode()
		err = s.wishes.Create(ctx, wish)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicate) || attempt == shortCodeAttempts {
			return nil, err
		}
		s.logger.Warn().Str("shortCode", wish.ShortCode).Msg("Short code collision, retrying")
	}

	wish.Template = tmpl
	s.logger.Info().Str("shortCode", wish.ShortCode).Str("templateId", tmpl.ID).Msg("Shared wish created")
	return wish, nil
}

func validShortCode(code string) bool {
	return code != "" && len(code) <= maxShortCodeLength
}

// Get opens a shared wish, counting the view
func (s *WishService) Get(ctx context.Context, shortCode string, viewer models.WishViewer) (*models.SharedWish, error) {
	shortCode = strings.TrimSpace(shortCode)
	if !validShortCode(shortCode) {
		return nil, &NotFoundError{Resource: "Shared wish"}
	}

	wish, err := s.wishes.RecordView(ctx, shortCode, viewer)
	if err != nil {
		return nil, notFound(err, "Shared wish")
	}

	if wish.TemplateID != nil {
		tmpl, err := s.templates.GetByID(ctx, *wish.TemplateID)
		if err != nil {
			s.logger.Warn().Err(err).Str("shortCode", shortCode).Msg("Failed to load wish template")
		} else {
			wish.Template = tmpl
			if wish.PreviewURL == "" {
				wish.PreviewURL = tmpl.PreviewURL
			}
		}
	}
	wish.PreviewURL = s.absoluteURL(wish.PreviewURL)
	return wish, nil
}

// Share records that a wish was passed on through platform
func (s *WishService) Share(ctx context.Context, shortCode, platform string) (*models.SharedWish, error) {
	platform = strings.TrimSpace(platform)
	if platform == "" {
		return nil, invalidf("Platform is required")
	}
	if len(platform) > maxPlatformLength {
		return nil, invalidf("Platform cannot exceed %d characters", maxPlatformLength)
	}
	shortCode = strings.TrimSpace(shortCode)
	if !validShortCode(shortCode) {
		return nil, &NotFoundError{Resource: "Shared wish"}
	}

	ev := &models.ShareEvent{Platform: platform, Timestamp: s.now().UTC()}
	wish, err := s.wishes.RecordShare(ctx, shortCode, ev)
	if err != nil {
		return nil, notFound(err, "Shared wish")
	}
	s.logger.Info().Str("shortCode", shortCode).Str("platform", platform).Int("shareCount", wish.ShareCount).Msg("Shared wish re-shared")
	return wish, nil
}

// Analytics reports views, shares and the per platform split of a wish
func (s *WishService) Analytics(ctx context.Context, shortCode string) (*models.WishAnalytics, error) {
	shortCode = strings.TrimSpace(shortCode)
	if !validShortCode(shortCode) {
		return nil, &NotFoundError{Resource: "Shared wish"}
	}

	wish, err := s.wishes.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, notFound(err, "Shared wish")
	}
	history, err := s.wishes.ShareHistory(ctx, wish.ID)
	if err != nil {
		return nil, err
	}

	a := &models.WishAnalytics{
		ShortCode:         wish.ShortCode,
		Views:             wish.Views,
		UniqueViews:       wish.UniqueViews,
		ShareCount:        wish.ShareCount,
		LastSharedAt:      wish.LastSharedAt,
		ShareHistory:      history,
		PlatformBreakdown: map[string]int{},
	}
	if wish.UniqueViews > 0 {
		a.ConversionRate = float64(wish.ShareCount) / float64(wish.UniqueViews)
	}
	for _, ev := range history {
		a.PlatformBreakdown[ev.Platform]++
	}
	return a, nil
}
