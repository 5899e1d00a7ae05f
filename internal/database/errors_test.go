package database_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarianKovalyshyn/planetarium-api-service/internal/database"
	"github.com/MarianKovalyshyn/planetarium-api-service/internal/database/dbtest"
)

func TestMySQLErrorClassification(t *testing.T) {
	tests := []struct {
		name                 string
		err                  error
		unique, fk, deadlock bool
	}{
		{"duplicate entry", &mysql.MySQLError{Number: 1062}, true, false, false},
		{"wrapped duplicate", fmt.Errorf("insert ticket: %w", &mysql.MySQLError{Number: 1062}), true, false, false},
		{"missing parent", &mysql.MySQLError{Number: 1452}, false, true, false},
		{"deadlock", &mysql.MySQLError{Number: 1213}, false, false, true},
		{"other server error", &mysql.MySQLError{Number: 1146}, false, false, false},
		{"plain error", errors.New("boom"), false, false, false},
		{"nil", nil, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.unique, database.IsUniqueViolation(tt.err))
			assert.Equal(t, tt.fk, database.IsForeignKeyViolation(tt.err))
			assert.Equal(t, tt.deadlock, database.IsDeadlock(tt.err))
		})
	}
}

func TestSQLiteErrorClassification(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := db.ExecContext(ctx, "INSERT INTO show_themes (name) VALUES (?)", "Stars")
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, "INSERT INTO show_themes (name) VALUES (?)", "Stars")
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))
	assert.False(t, database.IsForeignKeyViolation(err))

	_, err = db.ExecContext(ctx, "INSERT INTO reservations (user_id, created_at) VALUES (?, ?)", 999, now)
	require.Error(t, err)
	assert.True(t, database.IsForeignKeyViolation(err))
	assert.False(t, database.IsUniqueViolation(err))
}

func TestMigrateIsIdempotent(t *testing.T) {
	o := dbtest.Options(t)
	require.NoError(t, database.Migrate(o))
	require.NoError(t, database.Migrate(o))

	v, dirty, err := database.SchemaVersion(o)
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
	assert.False(t, dirty)

	require.NoError(t, database.MigrateDown(o))
	v, _, err = database.SchemaVersion(o)
	require.NoError(t, err)
	assert.Equal(t, uint(0), v)
}
