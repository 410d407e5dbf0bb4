package service_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/lhuanyu/Sumeru/internal/db"
	"github.com/lhuanyu/Sumeru/internal/model"
	"github.com/lhuanyu/Sumeru/internal/service"
	"github.com/lhuanyu/Sumeru/internal/store"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sumeru.db")
	sqldb, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = sqldb.Close() })
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return sqldb
}

func newTestRepo(t *testing.T) (*sql.DB, store.Repository) {
	t.Helper()
	sqldb := newTestDB(t)
	return sqldb, store.NewSQLite(sqldb)
}

var loc = time.UTC

func at(day, hour, minute int) time.Time {
	return time.Date(2026, 4, day, hour, minute, 0, 0, loc)
}

func mustCreate(t *testing.T, repo store.Repository, in service.CareEventInput) model.CareEvent {
	t.Helper()
	e, err := service.CreateCareEvent(context.Background(), repo, in)
	if err != nil {
		t.Fatalf("create %s event: %v", in.Type, err)
	}
	return e
}

func formulaFeed(ts time.Time, ml int) service.CareEventInput {
	return service.CareEventInput{Type: "feeding", Timestamp: ts, FeedType: "formula", FormulaMl: ml}
}
