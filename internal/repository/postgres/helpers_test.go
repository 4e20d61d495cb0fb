package postgres

import (
	"database/sql/driver"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func userRow(id uuid.UUID, email, status string, verified bool, resetToken *string) *sqlmock.Rows {
	now := time.Now()
	var token driver.Value
	if resetToken != nil {
		token = *resetToken
	}
	return sqlmock.NewRows(strings.Split(strings.ReplaceAll(userColumns, " ", ""), ",")).
		AddRow(id.String(), email, nil, nil, nil, nil, []byte("hash"), []byte("salt"), verified, status, token, now, now)
}
