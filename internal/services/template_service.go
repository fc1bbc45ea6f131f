package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brandonhuynh1/eventwish-api/internal/models"
	"github.com/brandonhuynh1/eventwish-api/internal/repository"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

const (
	defaultPageLimit      = 20
	defaultAdminPageLimit = 10
	maxPageLimit          = 100
)

// AdminTemplateQuery are the admin listing parameters
type AdminTemplateQuery struct {
	Category string
	Search   string
	Sort     string
	Order    string
	Page     int
	Limit    int
}

// TemplateService handles template-related operations
type TemplateService struct {
	templates repository.TemplateRepository
	icons     repository.CategoryIconRepository
	cache     Cache
	logger    zerolog.Logger
}

// NewTemplateService creates a new template service
func NewTemplateService(templates repository.TemplateRepository, icons repository.CategoryIconRepository, cache Cache, logger zerolog.Logger) *TemplateService {
	return &TemplateService{
		templates: templates,
		icons:     icons,
		cache:     cache,
		logger:    logger.With().Str("service", "template").Logger(),
	}
}

func normalizePage(page, limit, defaultLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

func totalPages(total, limit int) int {
	if total == 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// ListActive returns a page of active templates, newest first, with
// per-category counts
func (s *TemplateService) ListActive(ctx context.Context, page, limit int) (*models.TemplatePage, error) {
	page, limit = normalizePage(page, limit, defaultPageLimit)
	filter := models.TemplateFilter{ActiveOnly: true, Limit: limit, Offset: (page - 1) * limit}

	result, err := s.listPage(ctx, filter, page, limit)
	if err != nil {
		return nil, err
	}

	counts, err := s.templates.CategoryCounts(ctx, true)
	if err != nil {
		return nil, err
	}
	result.Categories = counts
	result.TotalTemplates = result.TotalItems
	return result, nil
}

// ListByCategory returns a page of active templates in one category
func (s *TemplateService) ListByCategory(ctx context.Context, category string, page, limit int) (*models.TemplatePage, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, invalidf("Category is required")
	}

	page, limit = normalizePage(page, limit, defaultPageLimit)
	filter := models.TemplateFilter{Category: category, ActiveOnly: true, Limit: limit, Offset: (page - 1) * limit}
	return s.listPage(ctx, filter, page, limit)
}

// AdminList lists every template, active or not, with search and sorting
func (s *TemplateService) AdminList(ctx context.Context, q AdminTemplateQuery) (*models.TemplatePage, error) {
	page, limit := normalizePage(q.Page, q.Limit, defaultAdminPageLimit)

	sortField := q.Sort
	if !repository.IsSortableTemplateField(sortField) {
		sortField = "createdAt"
	}

	filter := models.TemplateFilter{
		Category:  strings.TrimSpace(q.Category),
		Search:    strings.TrimSpace(q.Search),
		SortField: sortField,
		Ascending: strings.EqualFold(q.Order, "asc"),
		Limit:     limit,
		Offset:    (page - 1) * limit,
	}

	result, err := s.listPage(ctx, filter, page, limit)
	if err != nil {
		return nil, err
	}
	result.Limit = limit

	counts, err := s.templates.CategoryCounts(ctx, false)
	if err != nil {
		return nil, err
	}
	result.Categories = counts
	return result, nil
}

func (s *TemplateService) listPage(ctx context.Context, filter models.TemplateFilter, page, limit int) (*models.TemplatePage, error) {
	total, err := s.templates.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	templates, err := s.templates.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	s.attachIcons(ctx, templates)

	pages := totalPages(total, limit)
	return &models.TemplatePage{
		Data:       templates,
		Page:       page,
		TotalPages: pages,
		TotalItems: total,
		HasMore:    page < pages,
	}, nil
}

// Latest returns the newest active templates, optionally in one category
func (s *TemplateService) Latest(ctx context.Context, category string, limit int) ([]models.Template, error) {
	templates, err := s.templates.List(ctx, models.TemplateFilter{
		Category:   category,
		ActiveOnly: true,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	s.attachIcons(ctx, templates)
	return templates, nil
}

// Get returns a template with its category icon populated
func (s *TemplateService) Get(ctx context.Context, id string) (*models.Template, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, &NotFoundError{Resource: "Template"}
	}

	t, err := s.templates.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Template")
	}

	if t.CategoryIconID != nil {
		icon, err := s.icons.GetByID(ctx, *t.CategoryIconID)
		if err != nil {
			s.logger.Warn().Err(err).Str("templateID", id).Msg("Failed to load category icon")
		} else {
			t.CategoryIcon = icon
		}
	}
	return t, nil
}

// attachIcons populates category icons in place. Failures leave icons empty.
func (s *TemplateService) attachIcons(ctx context.Context, templates []models.Template) {
	needed := false
	for _, t := range templates {
		if t.CategoryIconID != nil {
			needed = true
			break
		}
	}
	if !needed {
		return
	}

	icons, err := s.icons.List(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to load category icons")
		return
	}

	byID := make(map[string]*models.CategoryIcon, len(icons))
	for i := range icons {
		byID[icons[i].ID] = &icons[i]
	}
	for i := range templates {
		if id := templates[i].CategoryIconID; id != nil {
			templates[i].CategoryIcon = byID[*id]
		}
	}
}

// Create adds a template. Title and category are required.
func (s *TemplateService) Create(ctx context.Context, in models.TemplatePatch) (*models.Template, error) {
	title := strings.TrimSpace(deref(in.Title))
	category := strings.TrimSpace(deref(in.Category))
	if title == "" || category == "" {
		return nil, invalidf("Title and category are required")
	}
	if err := s.checkIcon(ctx, in.CategoryIconID); err != nil {
		return nil, err
	}

	now := time.Now()
	t := &models.Template{
		ID:          uuid.New().String(),
		Title:       title,
		Category:    category,
		HTMLContent: deref(in.HTMLContent),
		CSSContent:  deref(in.CSSContent),
		JSContent:   deref(in.JSContent),
		PreviewURL:  deref(in.PreviewURL),
		Status:      true,
		FestivalTag: deref(in.FestivalTag),
		Tags:        pq.StringArray{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	if in.IsPremium != nil {
		t.IsPremium = *in.IsPremium
	}
	if in.Tags != nil {
		t.Tags = pq.StringArray(*in.Tags)
	}
	if in.CategoryIconID != nil && *in.CategoryIconID != "" {
		t.CategoryIconID = in.CategoryIconID
	}

	if err := s.templates.Create(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info().Str("templateID", t.ID).Str("category", t.Category).Msg("Template created")
	s.invalidateDefaults(ctx)
	return t, nil
}

// Update applies a partial update. Only provided fields change.
func (s *TemplateService) Update(ctx context.Context, id string, patch models.TemplatePatch) (*models.Template, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, &NotFoundError{Resource: "Template"}
	}
	if patch.Title != nil {
		trimmed := strings.TrimSpace(*patch.Title)
		if trimmed == "" {
			return nil, invalidf("Title cannot be empty")
		}
		patch.Title = &trimmed
	}
	if patch.Category != nil {
		trimmed := strings.TrimSpace(*patch.Category)
		if trimmed == "" {
			return nil, invalidf("Category cannot be empty")
		}
		patch.Category = &trimmed
	}
	if err := s.checkIcon(ctx, patch.CategoryIconID); err != nil {
		return nil, err
	}

	t, err := s.templates.Update(ctx, id, patch)
	if err != nil {
		return nil, notFound(err, "Template")
	}

	s.invalidateDefaults(ctx)
	return t, nil
}

// Delete removes a template
func (s *TemplateService) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return &NotFoundError{Resource: "Template"}
	}
	if err := s.templates.Delete(ctx, id); err != nil {
		return notFound(err, "Template")
	}

	s.logger.Info().Str("templateID", id).Msg("Template deleted")
	s.invalidateDefaults(ctx)
	return nil
}

// AdjustCounter moves usageCount, likes or favorites by delta, never below zero
func (s *TemplateService) AdjustCounter(ctx context.Context, id, field string, delta int) error {
	if _, err := uuid.Parse(id); err != nil {
		return &NotFoundError{Resource: "Template"}
	}
	if err := s.templates.AdjustCounter(ctx, id, field, delta); err != nil {
		return notFound(err, "Template")
	}
	return nil
}

func (s *TemplateService) checkIcon(ctx context.Context, iconID *string) error {
	if iconID == nil || *iconID == "" {
		return nil
	}
	if _, err := uuid.Parse(*iconID); err != nil {
		return invalidf("Category icon %s does not exist", *iconID)
	}
	if _, err := s.icons.GetByID(ctx, *iconID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalidf("Category icon %s does not exist", *iconID)
		}
		return fmt.Errorf("failed to check category icon: %w", err)
	}
	return nil
}

// invalidateDefaults drops cached default recommendations after catalogue changes
func (s *TemplateService) invalidateDefaults(ctx context.Context) {
	if err := s.cache.DeletePrefix(ctx, defaultRecommendationsPrefix); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to invalidate default recommendations")
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
