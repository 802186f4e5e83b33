// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"
	"time"

	"todo-calendar/internal/database"
	"todo-calendar/internal/models"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewPool opens a migrated in-memory sqlite store that is closed with the test.
func NewPool(t testing.TB) *database.DatabasePool {
	t.Helper()

	pool, err := database.NewDatabasePool(&database.PoolConfig{
		Driver:   database.DriverSQLite,
		DSN:      ":memory:",
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	require.NoError(t, pool.Migrate(models.All()...))
	return pool
}

func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	return NewPool(t).DB
}

// CreateUser stores a user whose password is hashed at the minimum bcrypt cost.
func CreateUser(t testing.TB, db *gorm.DB, username, password string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{Username: username, Password: string(hash), Email: username + "@example.com"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func CreateTask(t testing.TB, db *gorm.DB, userID uint, content string, deadline time.Time) *models.Task {
	t.Helper()

	task := &models.Task{UserID: userID, Content: content, Deadline: deadline, Date: time.Now()}
	require.NoError(t, db.Create(task).Error)
	return task
}
