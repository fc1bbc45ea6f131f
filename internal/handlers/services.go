package handlers

import (
	"context"
	"time"

	"github.com/brandonhuynh1/eventwish-api/internal/models"
	"github.com/brandonhuynh1/eventwish-api/internal/services"
	"github.com/go-redis/redis/v8"
)

// The handlers depend on these subsets of the services so routes can be
// exercised without a database.

type Templates interface {
	ListActive(ctx context.Context, page, limit int) (*models.TemplatePage, error)
	ListByCategory(ctx context.Context, category string, page, limit int) (*models.TemplatePage, error)
	AdminList(ctx context.Context, q services.AdminTemplateQuery) (*models.TemplatePage, error)
	Get(ctx context.Context, id string) (*models.Template, error)
	Create(ctx context.Context, in models.TemplatePatch) (*models.Template, error)
	Update(ctx context.Context, id string, patch models.TemplatePatch) (*models.Template, error)
	Delete(ctx context.Context, id string) error
}

type Recommendations interface {
	GetRecommendations(ctx context.Context, deviceID string, limit int) *models.Recommendations
}

type CategoryIcons interface {
	List(ctx context.Context) ([]models.CategoryIcon, error)
	GetByCategory(ctx context.Context, category string) (*models.CategoryIcon, error)
	Create(ctx context.Context, in models.CategoryIcon) (*models.CategoryIcon, error)
	Update(ctx context.Context, category string, patch models.CategoryIconPatch) (*models.CategoryIcon, error)
	Delete(ctx context.Context, category string) error
}

type Users interface {
	Register(ctx context.Context, deviceID string) (*models.User, bool, error)
	Get(ctx context.Context, deviceID string) (*models.User, error)
	UpdateActivity(ctx context.Context, deviceID, category, source string) error
	RecordTemplateView(ctx context.Context, deviceID, templateID, category string) error
	RecordEngagement(ctx context.Context, deviceID, templateID, action string) (*models.User, error)
	UpdateProfile(ctx context.Context, deviceID, uid string, patch models.ProfileUpdate) (*models.User, error)
}

type Coins interface {
	Plan() models.Plan
	ServerTime() time.Time
	GetCoins(ctx context.Context, deviceID string) (*services.Balance, error)
	History(ctx context.Context, deviceID string, limit int) ([]models.RewardRecord, error)
	AddCoins(ctx context.Context, deviceID string, in services.RewardInput) (*services.Balance, error)
	Unlock(ctx context.Context, deviceID string, durationDays int) (*services.UnlockResult, error)
	ValidateUnlock(deviceID string, timestampMs int64, durationDays int, signature string) (*services.UnlockValidation, error)
	ReportUnlock(ctx context.Context, deviceID string, timestampMs int64, durationDays int) (string, error)
	CurrentEvent(ctx context.Context, deviceID string) (*models.CoinsEvent, error)
}

type AdUnits interface {
	List(ctx context.Context) ([]models.AdUnit, error)
	Create(ctx context.Context, in models.AdUnitInput) (*models.AdUnit, error)
	Update(ctx context.Context, id string, patch models.AdUnitPatch) (*models.AdUnit, error)
	Delete(ctx context.Context, id string) error
}

type Wishes interface {
	Create(ctx context.Context, in models.SharedWishInput) (*models.SharedWish, error)
	Get(ctx context.Context, shortCode string, viewer models.WishViewer) (*models.SharedWish, error)
	Share(ctx context.Context, shortCode, platform string) (*models.SharedWish, error)
	Analytics(ctx context.Context, shortCode string) (*models.WishAnalytics, error)
}

// Subscriber opens pub/sub subscriptions. *database.RedisClient satisfies it.
type Subscriber interface {
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}
