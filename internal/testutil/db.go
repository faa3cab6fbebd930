// Package testutil provides shared fixtures for backend tests.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/database"
	"github.com/lensphilisme/social-dating-app-nextjs-react-sub002/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewSQLiteDB opens a private in-memory database with the full schema applied.
// The pool is pinned to one connection so every query sees the same database;
// goroutines sharing it run their statements one after another.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared&_foreign_keys=on", dbSeq.Add(1))
	return openSQLite(t, dsn, 1)
}

// NewSQLiteFileDB opens a file-backed WAL database pooled over conns
// connections. Transactions begin IMMEDIATE and wait on the busy timeout, so
// concurrent writers contend for the lock from separate connections.
func NewSQLiteFileDB(t *testing.T, conns int) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), fmt.Sprintf("engine%d.db", dbSeq.Add(1)))
	dsn := "file:" + path + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=10000&_txlock=immediate"
	return openSQLite(t, dsn, conns)
}

func openSQLite(t *testing.T, dsn string, conns int) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(conns)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	require.NoError(t, database.EnsureConstraints(context.Background(), db))
	return db
}

// ConcurrencyBackends returns the two harnesses concurrent tests run on: the
// single-connection database, which only exercises the losing side of a
// guarded update, and a WAL pool where transactions interleave across
// connections.
func ConcurrencyBackends() map[string]func(*testing.T) *gorm.DB {
	return map[string]func(*testing.T) *gorm.DB{
		"single connection": NewSQLiteDB,
		"wal pool": func(t *testing.T) *gorm.DB {
			return NewSQLiteFileDB(t, 4)
		},
	}
}

// CreateUser inserts a user with a unique username derived from name.
func CreateUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	u := &models.User{
		Username: fmt.Sprintf("%s_%d", name, dbSeq.Add(1)),
		Name:     name,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateQuestion inserts an active free-text question owned by ownerID.
func CreateQuestion(t *testing.T, db *gorm.DB, ownerID uint, prompt string) *models.Question {
	t.Helper()
	q := &models.Question{
		OwnerID:      ownerID,
		Prompt:       prompt,
		ResponseType: models.ResponseTypeFreeText,
		TimerSeconds: models.DefaultTimerSeconds,
		IsActive:     true,
	}
	require.NoError(t, db.Create(q).Error)
	return q
}
