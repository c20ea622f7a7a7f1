package repository

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/stylecoach/internal/catalog"
	"github.com/example/stylecoach/internal/logging"
)

// ErrNotFound is returned when no recommendation matches the lookup.
var ErrNotFound = errors.New("recommendation not found")

// RecommendationRecord is a persisted block of styling advice.
type RecommendationRecord struct {
	ID              uint      `gorm:"primaryKey"`
	Kind            string    `gorm:"column:kind;size:16;uniqueIndex:idx_recommendation_kind_key"`
	Key             string    `gorm:"column:entry_key;size:64;uniqueIndex:idx_recommendation_kind_key"`
	Name            string    `gorm:"column:name;size:128"`
	Description     string    `gorm:"column:description;type:text"`
	Recommendations []string  `gorm:"column:recommendations;serializer:json;type:text"`
	Avoid           []string  `gorm:"column:avoid;serializer:json;type:text"`
	Palette         []string  `gorm:"column:palette;serializer:json;type:text"`
	ColorNames      []string  `gorm:"column:color_names;serializer:json;type:text"`
	Makeup          []string  `gorm:"column:makeup;serializer:json;type:text"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

// TableName overrides the default table name.
func (RecommendationRecord) TableName() string {
	return "recommendations"
}

func recordFromEntry(entry catalog.Entry) RecommendationRecord {
	return RecommendationRecord{
		Kind:            string(entry.Kind),
		Key:             entry.Key,
		Name:            entry.Name,
		Description:     entry.Description,
		Recommendations: entry.Recommendations,
		Avoid:           entry.Avoid,
		Palette:         entry.Palette,
		ColorNames:      entry.ColorNames,
		Makeup:          entry.Makeup,
	}
}

// Entry converts the record back to its catalog form.
func (r RecommendationRecord) Entry() catalog.Entry {
	return catalog.Entry{
		Kind:            catalog.Kind(r.Kind),
		Key:             r.Key,
		Name:            r.Name,
		Description:     r.Description,
		Recommendations: r.Recommendations,
		Avoid:           r.Avoid,
		Palette:         r.Palette,
		ColorNames:      r.ColorNames,
		Makeup:          r.Makeup,
	}
}

// CatalogRepository serves the static recommendation catalog from the database.
type CatalogRepository struct {
	db             *gorm.DB
	logger         *zap.Logger
	retryAttempts  int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// NewCatalogRepository creates a new repository instance.
func NewCatalogRepository(db *gorm.DB, logger *zap.Logger) *CatalogRepository {
	return &CatalogRepository{
		db:             db,
		logger:         logger.Named("catalog_repository"),
		retryAttempts:  3,
		initialBackoff: 50 * time.Millisecond,
		maxBackoff:     time.Second,
	}
}

// AutoMigrate ensures the schema is available.
func (r *CatalogRepository) AutoMigrate(ctx context.Context) error {
	return r.executeWithRetry(ctx, "repository.auto_migrate", "", func() error {
		return r.db.WithContext(ctx).AutoMigrate(&RecommendationRecord{})
	})
}

// Seed upserts entries keyed by kind and key, so it is safe to run on every start.
func (r *CatalogRepository) Seed(ctx context.Context, entries []catalog.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	records := make([]RecommendationRecord, 0, len(entries))
	for _, entry := range entries {
		records = append(records, recordFromEntry(entry))
	}
	return r.executeWithRetry(ctx, "repository.seed", "", func() error {
		return r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "kind"}, {Name: "entry_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "recommendations", "avoid", "palette", "color_names", "makeup", "updated_at"}),
		}).Create(&records).Error
	})
}

// Find retrieves one entry. It returns ErrNotFound when nothing matches.
func (r *CatalogRepository) Find(ctx context.Context, requestID string, kind catalog.Kind, key string) (*catalog.Entry, error) {
	var record RecommendationRecord
	err := r.executeWithRetry(ctx, "repository.find", requestID, func() error {
		return r.db.WithContext(ctx).First(&record, "kind = ? AND entry_key = ?", string(kind), key).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	entry := record.Entry()
	return &entry, nil
}

// List returns every entry of a kind ordered by key.
func (r *CatalogRepository) List(ctx context.Context, requestID string, kind catalog.Kind) ([]catalog.Entry, error) {
	var records []RecommendationRecord
	if err := r.executeWithRetry(ctx, "repository.list", requestID, func() error {
		return r.db.WithContext(ctx).Where("kind = ?", string(kind)).Order("entry_key").Find(&records).Error
	}); err != nil {
		return nil, err
	}
	entries := make([]catalog.Entry, 0, len(records))
	for _, record := range records {
		entries = append(entries, record.Entry())
	}
	return entries, nil
}

func (r *CatalogRepository) executeWithRetry(ctx context.Context, operation, requestID string, fn func() error) error {
	attempts := r.retryAttempts
	if attempts < 1 {
		attempts = 1
	}

	backoff := r.initialBackoff
	opLogger := logging.WithOperation(r.logger, operation, requestID)
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return logging.NewOperationError(operation, requestID, ctx.Err())
			case <-time.After(backoff):
			}
			if next := backoff * 2; next <= r.maxBackoff {
				backoff = next
			}
		}

		err = fn()
		if err == nil {
			if attempt > 0 {
				opLogger.Info("database operation succeeded after retry", zap.Int("attempt", attempt+1))
			}
			return nil
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if !isTransientError(err) || attempt == attempts-1 {
			opLogger.Error("database operation failed", zap.Error(err), zap.Int("attempt", attempt+1))
			return logging.NewOperationError(operation, requestID, err)
		}
		opLogger.Warn("transient database error", zap.Error(err), zap.Int("attempt", attempt+1))
	}
	return logging.NewOperationError(operation, requestID, err)
}

func isTransientError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) && timeout.Timeout() {
		return true
	}
	var temporary interface{ Temporary() bool }
	return errors.As(err, &temporary) && temporary.Temporary()
}
