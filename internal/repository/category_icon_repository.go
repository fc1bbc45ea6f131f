package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/brandonhuynh1/eventwish-api/internal/models"
	"github.com/jmoiron/sqlx"
)

const iconColumns = "id, category, category_icon, icon_type, resource_name, created_at, updated_at"

type categoryIconRepository struct {
	db *sqlx.DB
}

// NewCategoryIconRepository creates a sqlx backed category icon repository
func NewCategoryIconRepository(db *sqlx.DB) CategoryIconRepository {
	return &categoryIconRepository{db: db}
}

func (r *categoryIconRepository) List(ctx context.Context) ([]models.CategoryIcon, error) {
	icons := []models.CategoryIcon{}
	err := r.db.SelectContext(ctx, &icons, "SELECT "+iconColumns+" FROM category_icons ORDER BY category")
	if err != nil {
		return nil, fmt.Errorf("failed to list category icons: %w", err)
	}
	return icons, nil
}

func (r *categoryIconRepository) GetByCategory(ctx context.Context, category string) (*models.CategoryIcon, error) {
	var icon models.CategoryIcon
	err := r.db.GetContext(ctx, &icon, "SELECT "+iconColumns+" FROM category_icons WHERE category = $1", category)
	if err != nil {
		return nil, translate(err)
	}
	return &icon, nil
}

func (r *categoryIconRepository) GetByID(ctx context.Context, id string) (*models.CategoryIcon, error) {
	var icon models.CategoryIcon
	err := r.db.GetContext(ctx, &icon, "SELECT "+iconColumns+" FROM category_icons WHERE id = $1", id)
	if err != nil {
		return nil, translate(err)
	}
	return &icon, nil
}

func (r *categoryIconRepository) Create(ctx context.Context, icon *models.CategoryIcon) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO category_icons (id, category, category_icon, icon_type, resource_name, created_at, updated_at)
		VALUES (:id, :category, :category_icon, :icon_type, :resource_name, :created_at, :updated_at)
	`, icon)
	if err != nil {
		return fmt.Errorf("failed to create category icon: %w", translate(err))
	}
	return nil
}

func (r *categoryIconRepository) Update(ctx context.Context, category string, patch models.CategoryIconPatch) (*models.CategoryIcon, error) {
	sets := []string{"updated_at = NOW()"}
	var args []interface{}
	if patch.CategoryIcon != nil {
		args = append(args, *patch.CategoryIcon)
		sets = append(sets, fmt.Sprintf("category_icon = $%d", len(args)))
	}
	if patch.IconType != nil {
		args = append(args, *patch.IconType)
		sets = append(sets, fmt.Sprintf("icon_type = $%d", len(args)))
	}
	if patch.ResourceName != nil {
		args = append(args, *patch.ResourceName)
		sets = append(sets, fmt.Sprintf("resource_name = $%d", len(args)))
	}

	args = append(args, category)
	query := fmt.Sprintf("UPDATE category_icons SET %s WHERE category = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), iconColumns)

	var icon models.CategoryIcon
	if err := r.db.GetContext(ctx, &icon, query, args...); err != nil {
		return nil, translate(err)
	}
	return &icon, nil
}

// Delete removes an icon. Templates pointing at it are unlinked by the
// ON DELETE SET NULL foreign key.
func (r *categoryIconRepository) Delete(ctx context.Context, category string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM category_icons WHERE category = $1", category)
	if err != nil {
		return fmt.Errorf("failed to delete category icon: %w", err)
	}
	return requireAffected(res)
}
