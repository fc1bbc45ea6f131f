// Package repository persists EventWish data in PostgreSQL through sqlx.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/brandonhuynh1/eventwish-api/internal/models"
	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a row does not exist
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint is violated
	ErrDuplicate = errors.New("already exists")
)

// TemplateRepository stores greeting card templates
type TemplateRepository interface {
	List(ctx context.Context, filter models.TemplateFilter) ([]models.Template, error)
	Count(ctx context.Context, filter models.TemplateFilter) (int, error)
	CategoryCounts(ctx context.Context, activeOnly bool) (map[string]int, error)
	GetByID(ctx context.Context, id string) (*models.Template, error)
	Create(ctx context.Context, t *models.Template) error
	Update(ctx context.Context, id string, patch models.TemplatePatch) (*models.Template, error)
	Delete(ctx context.Context, id string) error
	AdjustCounter(ctx context.Context, id, field string, delta int) error
}

// CategoryIconRepository stores category icons
type CategoryIconRepository interface {
	List(ctx context.Context) ([]models.CategoryIcon, error)
	GetByCategory(ctx context.Context, category string) (*models.CategoryIcon, error)
	GetByID(ctx context.Context, id string) (*models.CategoryIcon, error)
	Create(ctx context.Context, icon *models.CategoryIcon) error
	Update(ctx context.Context, category string, patch models.CategoryIconPatch) (*models.CategoryIcon, error)
	Delete(ctx context.Context, category string) error
}

// UserRepository stores users and their category history
type UserRepository interface {
	GetByDeviceID(ctx context.Context, deviceID string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	Touch(ctx context.Context, userID string, at time.Time) error
	Categories(ctx context.Context, userID string) ([]models.CategoryVisit, error)
	VisitCategory(ctx context.Context, userID, category, source string, at time.Time) error
	RecordView(ctx context.Context, userID, templateID string, at time.Time) error
	ApplyEngagement(ctx context.Context, userID, templateID, action string, at time.Time) (bool, error)
	UpdateProfile(ctx context.Context, u *models.User) error
}

// AccountMutation changes a locked coins account in place. A returned
// reward record is stored in the same transaction.
type AccountMutation func(acc *models.CoinsAccount) (*models.RewardRecord, error)

// CoinsRepository stores coin balances and reward history
type CoinsRepository interface {
	GetOrCreate(ctx context.Context, deviceID string) (*models.CoinsAccount, error)
	Mutate(ctx context.Context, deviceID string, create bool, fn AccountMutation) (*models.CoinsAccount, error)
	RewardHistory(ctx context.Context, accountID string, limit int) ([]models.RewardRecord, error)
}

// AdUnitRepository stores ad unit configuration
type AdUnitRepository interface {
	List(ctx context.Context) ([]models.AdUnit, error)
	GetByID(ctx context.Context, id string) (*models.AdUnit, error)
	GetByCode(ctx context.Context, code string) (*models.AdUnit, error)
	Create(ctx context.Context, unit *models.AdUnit) error
	Update(ctx context.Context, id string, patch models.AdUnitPatch) (*models.AdUnit, error)
	Delete(ctx context.Context, id string) error
	IncrementImpressions(ctx context.Context, id string) error
}

// SharedWishRepository stores shared wishes and their share log
type SharedWishRepository interface {
	Create(ctx context.Context, w *models.SharedWish) error
	GetByShortCode(ctx context.Context, shortCode string) (*models.SharedWish, error)
	RecordView(ctx context.Context, shortCode string, viewer models.WishViewer) (*models.SharedWish, error)
	RecordShare(ctx context.Context, shortCode string, ev *models.ShareEvent) (*models.SharedWish, error)
	ShareHistory(ctx context.Context, wishID string) ([]models.ShareEvent, error)
}

// translate maps driver errors onto the package sentinels
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

// requireAffected turns a zero-row write into ErrNotFound
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
