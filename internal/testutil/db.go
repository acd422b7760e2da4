// Package testutil holds helpers shared by store-backed tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"charitychain/internal/db"
	"charitychain/internal/model"
)

// NewDB opens a migrated SQLite database in a temporary directory that is
// removed when the test ends.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	model.BcryptCost = bcrypt.MinCost

	gdb, err := db.Open(db.DriverSQLite, filepath.Join(t.TempDir(), "test.db"), false)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return gdb
}

// CreateUser inserts a user with password "password123".
func CreateUser(t testing.TB, gdb *gorm.DB, email string, role model.Role) *model.User {
	t.Helper()
	user := &model.User{
		Name:     "Test " + string(role),
		Email:    email,
		Password: "password123",
		Role:     role,
	}
	require.NoError(t, gdb.Create(user).Error)
	return user
}
