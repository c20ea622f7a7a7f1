package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/stylecoach/internal/bodyshape"
	"github.com/example/stylecoach/internal/catalog"
	"github.com/example/stylecoach/internal/logging"
	"github.com/example/stylecoach/internal/season"
)

type transientTestError struct{}

func (transientTestError) Error() string   { return "transient" }
func (transientTestError) Timeout() bool   { return true }
func (transientTestError) Temporary() bool { return true }

func newTestRepository(t *testing.T) *CatalogRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := NewCatalogRepository(db, zap.NewNop())
	if err := repo.AutoMigrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repo
}

func TestSeedAndFind(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.Seed(ctx, catalog.Defaults()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	entry, err := repo.Find(ctx, "req-1", catalog.KindSeason, string(season.WinterCool))
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	want, _ := catalog.Season(season.WinterCool)
	if entry.Name != want.Name || len(entry.Palette) != len(want.Palette) || entry.Palette[0] != want.Palette[0] {
		t.Fatalf("unexpected entry %+v", entry)
	}

	bodies, err := repo.List(ctx, "req-2", catalog.KindBody)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(bodies) != len(bodyshape.Categories) {
		t.Fatalf("expected %d body entries, got %d", len(bodyshape.Categories), len(bodies))
	}
	if bodies[0].Key != string(bodyshape.Hourglass) {
		t.Fatalf("expected entries ordered by key, got %s first", bodies[0].Key)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	entries := catalog.Defaults()
	if err := repo.Seed(ctx, entries); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	entries[0].Description = "updated"
	if err := repo.Seed(ctx, entries); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	all, err := repo.List(ctx, "", entries[0].Kind)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != len(bodyshape.Categories) {
		t.Fatalf("expected no duplicate rows, got %d", len(all))
	}
	entry, err := repo.Find(ctx, "", entries[0].Kind, entries[0].Key)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if entry.Description != "updated" {
		t.Fatalf("expected upserted description, got %q", entry.Description)
	}
}

func TestFindNotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Find(context.Background(), "req-3", catalog.KindBody, "UNKNOWN")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExecuteWithRetryRetriesTransientErrors(t *testing.T) {
	repo := &CatalogRepository{
		logger:         zap.NewNop(),
		retryAttempts:  3,
		initialBackoff: time.Millisecond,
		maxBackoff:     2 * time.Millisecond,
	}

	attempts := 0
	err := repo.executeWithRetry(context.Background(), "test.operation", "req-1", func() error {
		attempts++
		if attempts < 2 {
			return transientTestError{}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestExecuteWithRetryReturnsOperationError(t *testing.T) {
	repo := &CatalogRepository{
		logger:         zap.NewNop(),
		retryAttempts:  2,
		initialBackoff: time.Millisecond,
		maxBackoff:     2 * time.Millisecond,
	}

	attempts := 0
	err := repo.executeWithRetry(context.Background(), "test.operation", "req-2", func() error {
		attempts++
		return errors.New("boom")
	})

	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}

	var opErr *logging.OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected OperationError, got %T", err)
	}
	if opErr.Operation != "test.operation" || opErr.RequestID != "req-2" {
		t.Fatalf("unexpected operation error: %+v", opErr)
	}
}

func TestExecuteWithRetryHonoursContext(t *testing.T) {
	repo := &CatalogRepository{
		logger:         zap.NewNop(),
		retryAttempts:  5,
		initialBackoff: time.Hour,
		maxBackoff:     time.Hour,
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.executeWithRetry(ctx, "test.operation", "", func() error {
		return transientTestError{}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
