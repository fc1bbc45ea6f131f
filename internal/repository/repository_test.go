package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2024, 10, 20, 9, 30, 0, 0, time.UTC)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		mockDB.Close()
	})
	return sqlx.NewDb(mockDB, "postgres"), mock
}

func templateRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "category", "html_content", "css_content", "js_content", "preview_url",
		"status", "is_premium", "festival_tag", "tags", "category_icon_id", "usage_count",
		"likes", "favorites", "created_at", "updated_at",
	})
}

func addTemplateRow(rows *sqlmock.Rows, id, title, category string) *sqlmock.Rows {
	return rows.AddRow(id, title, category, "<p/>", "", "", "", true, false, "",
		[]byte("{fun,family}"), nil, 3, 1, 0, fixedTime, fixedTime)
}
