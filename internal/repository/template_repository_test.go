package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/brandonhuynh1/eventwish-api/internal/models"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateRepository_ListBuildsFilteredQuery(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTemplateRepository(db)

	rows := addTemplateRow(templateRows(), "t1", "Happy Diwali", "diwali")
	mock.ExpectQuery(`FROM templates WHERE status = TRUE AND category = \$1 ORDER BY likes ASC, id ASC LIMIT \$2 OFFSET \$3`).
		WithArgs("diwali", 5, 10).
		WillReturnRows(rows)

	templates, err := repo.List(context.Background(), models.TemplateFilter{
		Category:   "diwali",
		ActiveOnly: true,
		SortField:  "likes",
		Ascending:  true,
		Limit:      5,
		Offset:     10,
	})
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, "Happy Diwali", templates[0].Title)
	assert.Equal(t, pq.StringArray{"fun", "family"}, templates[0].Tags)
	assert.Nil(t, templates[0].CategoryIconID)
}

func TestTemplateRepository_ListFallsBackToCreatedAt(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTemplateRepository(db)

	mock.ExpectQuery(`FROM templates WHERE \(title ILIKE \$1 ESCAPE '\\' OR category ILIKE \$1 ESCAPE '\\' OR festival_tag ILIKE \$1 ESCAPE '\\'\) ORDER BY created_at DESC, id DESC`).
		WithArgs("%diya%").
		WillReturnRows(templateRows())

	templates, err := repo.List(context.Background(), models.TemplateFilter{Search: "diya", SortField: "html_content; DROP"})
	require.NoError(t, err)
	assert.Empty(t, templates)
}

func TestTemplateRepository_SearchEscapesWildcards(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTemplateRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM templates WHERE \(title ILIKE \$1 ESCAPE`).
		WithArgs(`%50\%\_off\\%`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	count, err := repo.Count(context.Background(), models.TemplateFilter{Search: `50%_off\`})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestTemplateRepository_Count(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTemplateRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM templates WHERE status = TRUE`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := repo.Count(context.Background(), models.TemplateFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 42, count)
}

func TestTemplateRepository_CategoryCounts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTemplateRepository(db)

	mock.ExpectQuery(`SELECT category, COUNT\(\*\) AS count FROM templates WHERE status = TRUE GROUP BY category`).
		WillReturnRows(sqlmock.NewRows([]string{"category", "count"}).
			AddRow("birthday", 7).
			AddRow("diwali", 3))

	counts, err := repo.CategoryCounts(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"birthday": 7, "diwali": 3}, counts)
}

func TestTemplateRepository_GetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTemplateRepository(db)

	mock.ExpectQuery(`FROM templates WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTemplateRepository_CreateDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTemplateRepository(db)

	mock.ExpectExec(`INSERT INTO templates`).WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Template{ID: "t1", Title: "x", Category: "y"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestTemplateRepository_UpdateOnlyProvidedFields(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTemplateRepository(db)

	title := "New title"
	status := false
	mock.ExpectQuery(`UPDATE templates SET title = \$1, status = \$2, updated_at = NOW\(\) WHERE id = \$3 RETURNING`).
		WithArgs(title, status, "t1").
		WillReturnRows(addTemplateRow(templateRows(), "t1", title, "birthday"))

	updated, err := repo.Update(context.Background(), "t1", models.TemplatePatch{Title: &title, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
}

func TestTemplateRepository_UpdateNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTemplateRepository(db)

	mock.ExpectQuery(`UPDATE templates SET`).WillReturnError(sql.ErrNoRows)

	_, err := repo.Update(context.Background(), "missing", models.TemplatePatch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTemplateRepository_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTemplateRepository(db)

	mock.ExpectExec(`DELETE FROM templates WHERE id = \$1`).WithArgs("t1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM templates WHERE id = \$1`).WithArgs("t2").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "t1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "t2"), ErrNotFound)
}

func TestTemplateRepository_AdjustCounter(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTemplateRepository(db)

	mock.ExpectExec(`UPDATE templates SET likes = GREATEST\(likes \+ \$1, 0\) WHERE id = \$2`).
		WithArgs(-1, "t1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.AdjustCounter(context.Background(), "t1", "likes", -1))
	assert.Error(t, repo.AdjustCounter(context.Background(), "t1", "title", 1))
}

func TestIsSortableTemplateField(t *testing.T) {
	assert.True(t, IsSortableTemplateField("usageCount"))
	assert.False(t, IsSortableTemplateField("html_content"))
}
