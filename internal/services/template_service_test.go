package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brandonhuynh1/eventwish-api/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool     { return &b }

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func tmpl(category string, age time.Duration, active bool) models.Template {
	return models.Template{
		ID:        uuid.New().String(),
		Title:     category + " card",
		Category:  category,
		Status:    active,
		CreatedAt: baseTime.Add(-age),
	}
}

func newTemplateService(repo *fakeTemplates, icons *fakeIcons, cache *fakeCache) *TemplateService {
	return NewTemplateService(repo, icons, cache, zerolog.Nop())
}

func TestTemplateService_ListActive(t *testing.T) {
	repo := newFakeTemplates(
		tmpl("birthday", time.Hour, true),
		tmpl("birthday", 2*time.Hour, true),
		tmpl("wedding", 3*time.Hour, true),
		tmpl("wedding", 4*time.Hour, false),
	)
	svc := newTemplateService(repo, newFakeIcons(), newFakeCache())

	page, err := svc.ListActive(context.Background(), 1, 2)
	require.NoError(t, err)

	assert.Len(t, page.Data, 2)
	assert.Equal(t, 3, page.TotalItems)
	assert.Equal(t, 3, page.TotalTemplates)
	assert.Equal(t, 2, page.TotalPages)
	assert.True(t, page.HasMore)
	assert.Equal(t, map[string]int{"birthday": 2, "wedding": 1}, page.Categories)
	assert.True(t, page.Data[0].CreatedAt.After(page.Data[1].CreatedAt))

	last, err := svc.ListActive(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Len(t, last.Data, 1)
	assert.False(t, last.HasMore)
}

func TestTemplateService_ListActiveDefaults(t *testing.T) {
	svc := newTemplateService(newFakeTemplates(), newFakeIcons(), newFakeCache())

	page, err := svc.ListActive(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 0, page.TotalPages)
	assert.False(t, page.HasMore)
	assert.Empty(t, page.Data)
}

func TestTemplateService_ListByCategory(t *testing.T) {
	repo := newFakeTemplates(tmpl("birthday", time.Hour, true), tmpl("wedding", time.Hour, true))
	svc := newTemplateService(repo, newFakeIcons(), newFakeCache())

	page, err := svc.ListByCategory(context.Background(), "wedding", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "wedding", page.Data[0].Category)

	_, err = svc.ListByCategory(context.Background(), "  ", 1, 10)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestTemplateService_AdminListIncludesInactive(t *testing.T) {
	repo := newFakeTemplates(tmpl("birthday", time.Hour, true), tmpl("birthday", 2*time.Hour, false))
	svc := newTemplateService(repo, newFakeIcons(), newFakeCache())

	page, err := svc.AdminList(context.Background(), AdminTemplateQuery{Sort: "dropTable", Order: "asc"})
	require.NoError(t, err)

	assert.Len(t, page.Data, 2)
	assert.Equal(t, 10, page.Limit)
	assert.Equal(t, map[string]int{"birthday": 2}, page.Categories)
	assert.True(t, page.Data[0].CreatedAt.Before(page.Data[1].CreatedAt))
}

func TestTemplateService_GetAttachesIcon(t *testing.T) {
	icon := models.CategoryIcon{ID: uuid.New().String(), Category: "birthday", CategoryIcon: "https://cdn/b.png", IconType: models.IconTypeURL}
	withIcon := tmpl("birthday", time.Hour, true)
	withIcon.CategoryIconID = &icon.ID
	svc := newTemplateService(newFakeTemplates(withIcon), newFakeIcons(icon), newFakeCache())

	got, err := svc.Get(context.Background(), withIcon.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CategoryIcon)
	assert.Equal(t, "https://cdn/b.png", got.CategoryIcon.CategoryIcon)
}

func TestTemplateService_GetNotFound(t *testing.T) {
	svc := newTemplateService(newFakeTemplates(), newFakeIcons(), newFakeCache())

	for _, id := range []string{"not-a-uuid", uuid.New().String()} {
		_, err := svc.Get(context.Background(), id)
		var nf *NotFoundError
		require.True(t, errors.As(err, &nf), id)
		assert.Equal(t, "Template not found", nf.Error())
	}
}

func TestTemplateService_Create(t *testing.T) {
	repo := newFakeTemplates()
	cache := newFakeCache()
	cache.entries["default_recommendations:10"] = cacheEntry{value: &models.Recommendations{}}
	svc := newTemplateService(repo, newFakeIcons(), cache)

	created, err := svc.Create(context.Background(), models.TemplatePatch{
		Title:    strPtr("  Happy Birthday "),
		Category: strPtr("birthday"),
		Tags:     &[]string{"cake"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Happy Birthday", created.Title)
	assert.True(t, created.Status)
	assert.Equal(t, []string{"cake"}, []string(created.Tags))
	assert.Contains(t, repo.byID, created.ID)
	assert.False(t, cache.has("default_recommendations:10"))
}

func TestTemplateService_CreateValidation(t *testing.T) {
	svc := newTemplateService(newFakeTemplates(), newFakeIcons(), newFakeCache())

	_, err := svc.Create(context.Background(), models.TemplatePatch{Title: strPtr("x")})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "Title and category are required", err.Error())

	_, err = svc.Create(context.Background(), models.TemplatePatch{
		Title:          strPtr("x"),
		Category:       strPtr("birthday"),
		CategoryIconID: strPtr(uuid.New().String()),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestTemplateService_CreateInactive(t *testing.T) {
	svc := newTemplateService(newFakeTemplates(), newFakeIcons(), newFakeCache())

	created, err := svc.Create(context.Background(), models.TemplatePatch{
		Title:    strPtr("Draft"),
		Category: strPtr("wedding"),
		Status:   boolPtr(false),
	})
	require.NoError(t, err)
	assert.False(t, created.Status)
}

func TestTemplateService_Update(t *testing.T) {
	existing := tmpl("birthday", time.Hour, true)
	svc := newTemplateService(newFakeTemplates(existing), newFakeIcons(), newFakeCache())

	updated, err := svc.Update(context.Background(), existing.ID, models.TemplatePatch{Title: strPtr(" New ")})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Title)
	assert.Equal(t, "birthday", updated.Category)

	_, err = svc.Update(context.Background(), existing.ID, models.TemplatePatch{Category: strPtr("")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Update(context.Background(), uuid.New().String(), models.TemplatePatch{Title: strPtr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTemplateService_Delete(t *testing.T) {
	existing := tmpl("birthday", time.Hour, true)
	repo := newFakeTemplates(existing)
	svc := newTemplateService(repo, newFakeIcons(), newFakeCache())

	require.NoError(t, svc.Delete(context.Background(), existing.ID))
	assert.Empty(t, repo.byID)

	assert.ErrorIs(t, svc.Delete(context.Background(), existing.ID), ErrNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), "nope"), ErrNotFound)
}

func TestTemplateService_AdjustCounterFloorsAtZero(t *testing.T) {
	existing := tmpl("birthday", time.Hour, true)
	repo := newFakeTemplates(existing)
	svc := newTemplateService(repo, newFakeIcons(), newFakeCache())

	require.NoError(t, svc.AdjustCounter(context.Background(), existing.ID, "likes", 1))
	require.NoError(t, svc.AdjustCounter(context.Background(), existing.ID, "likes", -1))
	require.NoError(t, svc.AdjustCounter(context.Background(), existing.ID, "likes", -1))
	assert.Equal(t, 0, repo.byID[existing.ID].Likes)
}

func TestTemplateService_CacheFailureDoesNotFailWrites(t *testing.T) {
	cache := newFakeCache()
	cache.err = errors.New("redis down")
	svc := newTemplateService(newFakeTemplates(), newFakeIcons(), cache)

	_, err := svc.Create(context.Background(), models.TemplatePatch{Title: strPtr("x"), Category: strPtr("birthday")})
	assert.NoError(t, err)
}
