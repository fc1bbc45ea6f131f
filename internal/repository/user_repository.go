package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/brandonhuynh1/eventwish-api/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// MaxRecentTemplates caps the recently used template list
const MaxRecentTemplates = 20

const userColumns = `id, device_id, uid, display_name, email, profile_photo, preferred_theme,
	preferred_language, timezone, allow_festival_push, allow_personal_push, last_online, created,
	last_active_template, last_action_on_template, recent_templates_used, likes, favorites`

// engagementUpdates toggles set membership. The WHERE clause makes each
// statement a no-op when membership would not change.
var engagementUpdates = map[string]string{
	models.ActionLike:   "UPDATE users SET likes = array_append(likes, $2::text) WHERE id = $1 AND NOT ($2::text = ANY(likes))",
	models.ActionUnlike: "UPDATE users SET likes = array_remove(likes, $2::text) WHERE id = $1 AND $2::text = ANY(likes)",
	models.ActionFav:    "UPDATE users SET favorites = array_append(favorites, $2::text) WHERE id = $1 AND NOT ($2::text = ANY(favorites))",
	models.ActionUnfav:  "UPDATE users SET favorites = array_remove(favorites, $2::text) WHERE id = $1 AND $2::text = ANY(favorites)",
}

type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a sqlx backed user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

// GetByDeviceID loads a user together with its category visits
func (r *userRepository) GetByDeviceID(ctx context.Context, deviceID string) (*models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u, "SELECT "+userColumns+" FROM users WHERE device_id = $1", deviceID)
	if err != nil {
		return nil, translate(err)
	}
	u.PushPreferences = models.PushPreferences{
		AllowFestivalPush: u.AllowFestivalPush,
		AllowPersonalPush: u.AllowPersonalPush,
	}

	categories, err := r.Categories(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	u.Categories = categories
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, u *models.User) error {
	if u.RecentTemplatesUsed == nil {
		u.RecentTemplatesUsed = pq.StringArray{}
	}
	if u.Likes == nil {
		u.Likes = pq.StringArray{}
	}
	if u.Favorites == nil {
		u.Favorites = pq.StringArray{}
	}
	u.AllowFestivalPush = u.PushPreferences.AllowFestivalPush
	u.AllowPersonalPush = u.PushPreferences.AllowPersonalPush

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO users (
			id, device_id, uid, display_name, email, profile_photo, preferred_theme,
			preferred_language, timezone, allow_festival_push, allow_personal_push,
			last_online, created, recent_templates_used, likes, favorites
		) VALUES (
			:id, :device_id, :uid, :display_name, :email, :profile_photo, :preferred_theme,
			:preferred_language, :timezone, :allow_festival_push, :allow_personal_push,
			:last_online, :created, :recent_templates_used, :likes, :favorites
		)
	`, u)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", translate(err))
	}
	return nil
}

func (r *userRepository) Touch(ctx context.Context, userID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET last_online = $1 WHERE id = $2", at, userID)
	if err != nil {
		return fmt.Errorf("failed to update last online: %w", err)
	}
	return requireAffected(res)
}

func (r *userRepository) Categories(ctx context.Context, userID string) ([]models.CategoryVisit, error) {
	visits := []models.CategoryVisit{}
	err := r.db.SelectContext(ctx, &visits, `
		SELECT category, visit_count, visit_date, source
		FROM user_categories
		WHERE user_id = $1
		ORDER BY visit_date DESC, category
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load category visits: %w", err)
	}
	return visits, nil
}

// VisitCategory upserts a visit. Repeat visits bump the count and take
// the latest date and source.
func (r *userRepository) VisitCategory(ctx context.Context, userID, category, source string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_categories (user_id, category, visit_count, visit_date, source)
		VALUES ($1, $2, 1, $3, $4)
		ON CONFLICT (user_id, category) DO UPDATE
		SET visit_count = user_categories.visit_count + 1,
			visit_date = EXCLUDED.visit_date,
			source = EXCLUDED.source
	`, userID, category, at, source)
	if err != nil {
		return fmt.Errorf("failed to record category visit: %w", err)
	}
	return nil
}

// RecordView marks templateID as viewed and moves it to the front of the
// recent list
func (r *userRepository) RecordView(ctx context.Context, userID, templateID string, at time.Time) error {
	query := fmt.Sprintf(`
		UPDATE users SET
			last_active_template = $2::text,
			last_action_on_template = $3,
			last_online = $4,
			recent_templates_used = (ARRAY[$2::text] || array_remove(recent_templates_used, $2::text))[1:%d]
		WHERE id = $1
	`, MaxRecentTemplates)

	res, err := r.db.ExecContext(ctx, query, userID, templateID, models.ActionView, at)
	if err != nil {
		return fmt.Errorf("failed to record template view: %w", err)
	}
	return requireAffected(res)
}

// ApplyEngagement records an action on a template and reports whether the
// user's likes or favorites changed
func (r *userRepository) ApplyEngagement(ctx context.Context, userID, templateID, action string, at time.Time) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	changed := true
	if stmt, ok := engagementUpdates[action]; ok {
		res, err := tx.ExecContext(ctx, stmt, userID, templateID)
		if err != nil {
			return false, fmt.Errorf("failed to apply %s: %w", action, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return false, err
		}
		changed = n > 0
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE users SET last_active_template = $2, last_action_on_template = $3, last_online = $4
		WHERE id = $1
	`, userID, templateID, action, at)
	if err != nil {
		return false, fmt.Errorf("failed to update last action: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return false, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO engagement_logs (id, user_id, template_id, action, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New().String(), userID, templateID, action, at)
	if err != nil {
		return false, fmt.Errorf("failed to log engagement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit engagement: %w", err)
	}
	return changed, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, u *models.User) error {
	u.AllowFestivalPush = u.PushPreferences.AllowFestivalPush
	u.AllowPersonalPush = u.PushPreferences.AllowPersonalPush

	res, err := r.db.NamedExecContext(ctx, `
		UPDATE users SET
			uid = :uid,
			display_name = :display_name,
			email = :email,
			profile_photo = :profile_photo,
			preferred_theme = :preferred_theme,
			preferred_language = :preferred_language,
			timezone = :timezone,
			allow_festival_push = :allow_festival_push,
			allow_personal_push = :allow_personal_push,
			last_online = :last_online
		WHERE id = :id
	`, u)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return requireAffected(res)
}
