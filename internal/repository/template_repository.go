package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/brandonhuynh1/eventwish-api/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const templateColumns = `id, title, category, html_content, css_content, js_content, preview_url,
	status, is_premium, festival_tag, tags, category_icon_id, usage_count, likes, favorites,
	created_at, updated_at`

// templateSortColumns whitelists the sortable fields
var templateSortColumns = map[string]string{
	"createdAt":  "created_at",
	"updatedAt":  "updated_at",
	"title":      "title",
	"category":   "category",
	"usageCount": "usage_count",
	"likes":      "likes",
	"favorites":  "favorites",
}

// counterColumns are the template counters that may be adjusted
var counterColumns = map[string]string{
	"usageCount": "usage_count",
	"likes":      "likes",
	"favorites":  "favorites",
}

// IsSortableTemplateField reports whether field may be used to sort templates
func IsSortableTemplateField(field string) bool {
	_, ok := templateSortColumns[field]
	return ok
}

// likeEscaper makes search text match literally inside an ILIKE pattern
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

type templateRepository struct {
	db *sqlx.DB
}

// NewTemplateRepository creates a sqlx backed template repository
func NewTemplateRepository(db *sqlx.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func templateWhere(filter models.TemplateFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.ActiveOnly {
		conditions = append(conditions, "status = TRUE")
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+likeEscaper.Replace(filter.Search)+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			`(title ILIKE $%d ESCAPE '\' OR category ILIKE $%d ESCAPE '\' OR festival_tag ILIKE $%d ESCAPE '\')`, n, n, n))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func (r *templateRepository) List(ctx context.Context, filter models.TemplateFilter) ([]models.Template, error) {
	where, args := templateWhere(filter)

	column, ok := templateSortColumns[filter.SortField]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if filter.Ascending {
		direction = "ASC"
	}

	query := "SELECT " + templateColumns + " FROM templates" + where +
		fmt.Sprintf(" ORDER BY %s %s, id %s", column, direction, direction)

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	templates := []models.Template{}
	if err := r.db.SelectContext(ctx, &templates, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}

func (r *templateRepository) Count(ctx context.Context, filter models.TemplateFilter) (int, error) {
	where, args := templateWhere(filter)

	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM templates"+where, args...); err != nil {
		return 0, fmt.Errorf("failed to count templates: %w", err)
	}
	return count, nil
}

func (r *templateRepository) CategoryCounts(ctx context.Context, activeOnly bool) (map[string]int, error) {
	query := "SELECT category, COUNT(*) AS count FROM templates"
	if activeOnly {
		query += " WHERE status = TRUE"
	}
	query += " GROUP BY category"

	var rows []struct {
		Category string `db:"category"`
		Count    int    `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Category] = row.Count
	}
	return counts, nil
}

func (r *templateRepository) GetByID(ctx context.Context, id string) (*models.Template, error) {
	var t models.Template
	err := r.db.GetContext(ctx, &t, "SELECT "+templateColumns+" FROM templates WHERE id = $1", id)
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *templateRepository) Create(ctx context.Context, t *models.Template) error {
	if t.Tags == nil {
		t.Tags = pq.StringArray{}
	}

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO templates (
			id, title, category, html_content, css_content, js_content, preview_url,
			status, is_premium, festival_tag, tags, category_icon_id, usage_count,
			likes, favorites, created_at, updated_at
		) VALUES (
			:id, :title, :category, :html_content, :css_content, :js_content, :preview_url,
			:status, :is_premium, :festival_tag, :tags, :category_icon_id, :usage_count,
			:likes, :favorites, :created_at, :updated_at
		)
	`, t)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", translate(err))
	}
	return nil
}

func (r *templateRepository) Update(ctx context.Context, id string, patch models.TemplatePatch) (*models.Template, error) {
	var sets []string
	var args []interface{}
	set := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Category != nil {
		set("category", *patch.Category)
	}
	if patch.HTMLContent != nil {
		set("html_content", *patch.HTMLContent)
	}
	if patch.CSSContent != nil {
		set("css_content", *patch.CSSContent)
	}
	if patch.JSContent != nil {
		set("js_content", *patch.JSContent)
	}
	if patch.PreviewURL != nil {
		set("preview_url", *patch.PreviewURL)
	}
	if patch.Status != nil {
		set("status", *patch.Status)
	}
	if patch.IsPremium != nil {
		set("is_premium", *patch.IsPremium)
	}
	if patch.FestivalTag != nil {
		set("festival_tag", *patch.FestivalTag)
	}
	if patch.Tags != nil {
		set("tags", pq.StringArray(*patch.Tags))
	}
	if patch.CategoryIconID != nil {
		// An empty id clears the icon
		if *patch.CategoryIconID == "" {
			set("category_icon_id", nil)
		} else {
			set("category_icon_id", *patch.CategoryIconID)
		}
	}
	sets = append(sets, "updated_at = NOW()")

	args = append(args, id)
	query := fmt.Sprintf("UPDATE templates SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), templateColumns)

	var t models.Template
	if err := r.db.GetContext(ctx, &t, query, args...); err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *templateRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM templates WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return requireAffected(res)
}

// AdjustCounter adds delta to a counter, never going below zero
func (r *templateRepository) AdjustCounter(ctx context.Context, id, field string, delta int) error {
	column, ok := counterColumns[field]
	if !ok {
		return fmt.Errorf("unknown template counter %q", field)
	}

	query := fmt.Sprintf("UPDATE templates SET %[1]s = GREATEST(%[1]s + $1, 0) WHERE id = $2", column)
	res, err := r.db.ExecContext(ctx, query, delta, id)
	if err != nil {
		return fmt.Errorf("failed to adjust %s: %w", field, err)
	}
	return requireAffected(res)
}
