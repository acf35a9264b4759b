package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mkrogh/storefront/pkg/config"
)

// cartBlob is the single-row persistence model: the serialized ordered entry
// list stored under the configured key, mirroring localStorage semantics.
type cartBlob struct {
	Key       string `gorm:"primaryKey;column:key"`
	Value     string `gorm:"column:value"`
	UpdatedAt time.Time
}

func (cartBlob) TableName() string {
	return "cart_blobs"
}

// SQLiteRepository stores the cart in a local sqlite file so it survives
// application restarts.
type SQLiteRepository struct {
	db  *gorm.DB
	key string
}

func NewSQLiteRepository(cfg config.CartConfig) (*SQLiteRepository, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("cart db path required")
	}
	if cfg.StorageKey == "" {
		return nil, fmt.Errorf("cart storage key required")
	}

	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening cart db: %w", err)
	}
	if err := db.AutoMigrate(&cartBlob{}); err != nil {
		return nil, fmt.Errorf("migrating cart db: %w", err)
	}
	return &SQLiteRepository{db: db, key: cfg.StorageKey}, nil
}

func (r *SQLiteRepository) Load(ctx context.Context) ([]Entry, error) {
	var blob cartBlob
	err := r.db.WithContext(ctx).First(&blob, "key = ?", r.key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading cart blob: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal([]byte(blob.Value), &entries); err != nil {
		return nil, fmt.Errorf("decoding cart blob: %w", err)
	}
	return entries, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	encoded, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding cart blob: %w", err)
	}

	blob := cartBlob{Key: r.key, Value: string(encoded), UpdatedAt: time.Now().UTC()}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&blob).Error
	if err != nil {
		return fmt.Errorf("saving cart blob: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
