package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for range schema {
		mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	client := NewClient(sqlx.NewDb(db, "postgres"))
	require.NoError(t, client.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchemaStopsOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS ai_platforms").WillReturnError(errors.New("permission denied"))

	client := NewClient(sqlx.NewDb(db, "postgres"))
	err = client.EnsureSchema(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statement 0")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaCascadesDerivedRecords(t *testing.T) {
	var cascades int
	for _, stmt := range schema {
		if strings.Contains(stmt, "REFERENCES ai_responses(id) ON DELETE CASCADE") {
			cascades++
		}
	}
	assert.Equal(t, 2, cascades)
}
