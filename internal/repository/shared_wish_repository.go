package repository

import (
	"context"
	"fmt"

	"github.com/brandonhuynh1/eventwish-api/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const sharedWishColumns = `id, short_code, template_id, recipient_name, sender_name, customized_html,
	css_content, js_content, preview_url, views, unique_views, viewer_ips, referrer, device_info,
	shared_via, share_count, last_shared_at, created_at, updated_at`

// recordView counts every open and each viewer IP once. Referrer and
// device info keep the first non-empty value.
const recordView = `
	UPDATE shared_wishes SET
		views = views + 1,
		unique_views = unique_views + CASE WHEN $2::text = '' OR $2::text = ANY(viewer_ips) THEN 0 ELSE 1 END,
		viewer_ips = CASE WHEN $2::text = '' OR $2::text = ANY(viewer_ips) THEN viewer_ips ELSE array_append(viewer_ips, $2::text) END,
		referrer = CASE WHEN referrer = '' THEN $3 ELSE referrer END,
		device_info = CASE WHEN device_info = '' THEN $4 ELSE device_info END,
		updated_at = NOW()
	WHERE short_code = $1
	RETURNING ` + sharedWishColumns

type sharedWishRepository struct {
	db *sqlx.DB
}

// NewSharedWishRepository creates a sqlx backed shared wish repository
func NewSharedWishRepository(db *sqlx.DB) SharedWishRepository {
	return &sharedWishRepository{db: db}
}

func (r *sharedWishRepository) Create(ctx context.Context, w *models.SharedWish) error {
	if w.ViewerIPs == nil {
		w.ViewerIPs = []string{}
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO shared_wishes (id, short_code, template_id, recipient_name, sender_name, customized_html,
			css_content, js_content, preview_url, views, unique_views, viewer_ips, referrer, device_info,
			shared_via, share_count, last_shared_at, created_at, updated_at)
		VALUES (:id, :short_code, :template_id, :recipient_name, :sender_name, :customized_html,
			:css_content, :js_content, :preview_url, :views, :unique_views, :viewer_ips, :referrer, :device_info,
			:shared_via, :share_count, :last_shared_at, :created_at, :updated_at)
	`, w)
	if err != nil {
		return fmt.Errorf("failed to create shared wish: %w", translate(err))
	}
	return nil
}

func (r *sharedWishRepository) GetByShortCode(ctx context.Context, shortCode string) (*models.SharedWish, error) {
	var w models.SharedWish
	err := r.db.GetContext(ctx, &w, "SELECT "+sharedWishColumns+" FROM shared_wishes WHERE short_code = $1", shortCode)
	if err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (r *sharedWishRepository) RecordView(ctx context.Context, shortCode string, viewer models.WishViewer) (*models.SharedWish, error) {
	var w models.SharedWish
	err := r.db.GetContext(ctx, &w, recordView, shortCode, viewer.IP, viewer.Referrer, viewer.UserAgent)
	if err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (r *sharedWishRepository) RecordShare(ctx context.Context, shortCode string, ev *models.ShareEvent) (*models.SharedWish, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var w models.SharedWish
	err = tx.GetContext(ctx, &w, `
		UPDATE shared_wishes SET
			shared_via = $2,
			share_count = share_count + 1,
			last_shared_at = $3,
			updated_at = NOW()
		WHERE short_code = $1
		RETURNING `+sharedWishColumns, shortCode, ev.Platform, ev.Timestamp)
	if err != nil {
		return nil, translate(err)
	}

	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	ev.WishID = w.ID
	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO shared_wish_shares (id, wish_id, platform, timestamp)
		VALUES (:id, :wish_id, :platform, :timestamp)
	`, ev)
	if err != nil {
		return nil, fmt.Errorf("failed to record share: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit share: %w", err)
	}
	return &w, nil
}

func (r *sharedWishRepository) ShareHistory(ctx context.Context, wishID string) ([]models.ShareEvent, error) {
	events := []models.ShareEvent{}
	err := r.db.SelectContext(ctx, &events, `
		SELECT id, wish_id, platform, timestamp
		FROM shared_wish_shares
		WHERE wish_id = $1
		ORDER BY timestamp ASC
	`, wishID)
	if err != nil {
		return nil, fmt.Errorf("failed to load share history: %w", err)
	}
	return events, nil
}
