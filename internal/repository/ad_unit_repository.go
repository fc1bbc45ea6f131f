package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/brandonhuynh1/eventwish-api/internal/models"
	"github.com/jmoiron/sqlx"
)

const adUnitColumns = "id, ad_unit_code, ad_name, ad_type, status, impressions, created_at, updated_at"

type adUnitRepository struct {
	db *sqlx.DB
}

// NewAdUnitRepository creates a sqlx backed ad unit repository
func NewAdUnitRepository(db *sqlx.DB) AdUnitRepository {
	return &adUnitRepository{db: db}
}

func (r *adUnitRepository) List(ctx context.Context) ([]models.AdUnit, error) {
	units := []models.AdUnit{}
	err := r.db.SelectContext(ctx, &units, "SELECT "+adUnitColumns+" FROM ad_units ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list ad units: %w", err)
	}
	return units, nil
}

func (r *adUnitRepository) GetByID(ctx context.Context, id string) (*models.AdUnit, error) {
	var unit models.AdUnit
	if err := r.db.GetContext(ctx, &unit, "SELECT "+adUnitColumns+" FROM ad_units WHERE id = $1", id); err != nil {
		return nil, translate(err)
	}
	return &unit, nil
}

func (r *adUnitRepository) GetByCode(ctx context.Context, code string) (*models.AdUnit, error) {
	var unit models.AdUnit
	if err := r.db.GetContext(ctx, &unit, "SELECT "+adUnitColumns+" FROM ad_units WHERE ad_unit_code = $1", code); err != nil {
		return nil, translate(err)
	}
	return &unit, nil
}

func (r *adUnitRepository) Create(ctx context.Context, unit *models.AdUnit) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO ad_units (id, ad_unit_code, ad_name, ad_type, status, impressions, created_at, updated_at)
		VALUES (:id, :ad_unit_code, :ad_name, :ad_type, :status, :impressions, :created_at, :updated_at)
	`, unit)
	if err != nil {
		return fmt.Errorf("failed to create ad unit: %w", translate(err))
	}
	return nil
}

func (r *adUnitRepository) Update(ctx context.Context, id string, patch models.AdUnitPatch) (*models.AdUnit, error) {
	sets := []string{"updated_at = NOW()"}
	var args []interface{}
	if patch.AdName != nil {
		args = append(args, *patch.AdName)
		sets = append(sets, fmt.Sprintf("ad_name = $%d", len(args)))
	}
	if patch.AdType != nil {
		args = append(args, *patch.AdType)
		sets = append(sets, fmt.Sprintf("ad_type = $%d", len(args)))
	}
	if patch.Status != nil {
		args = append(args, *patch.Status)
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE ad_units SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), adUnitColumns)

	var unit models.AdUnit
	if err := r.db.GetContext(ctx, &unit, query, args...); err != nil {
		return nil, translate(err)
	}
	return &unit, nil
}

func (r *adUnitRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM ad_units WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete ad unit: %w", err)
	}
	return requireAffected(res)
}

func (r *adUnitRepository) IncrementImpressions(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE ad_units SET impressions = impressions + 1, updated_at = NOW() WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to increment impressions: %w", err)
	}
	return requireAffected(res)
}
