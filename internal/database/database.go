// Package database is the record store adapter: it materializes property
// sale records for the analysis packages, pushing bounding-box and attribute
// predicates down to SQL. The analysis packages never touch storage directly.
package database

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"pricegrid/server/internal/models"
)

type Database struct {
	db *gorm.DB
}

// NewDatabase opens the sqlite store at the given path.
func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &Database{db: db}, nil
}

// NewTestDB opens an in-memory sqlite store for tests. The pool is pinned to
// a single connection so every query sees the same in-memory database.
func NewTestDB() (*Database, error) {
	d, err := NewDatabase(":memory:")
	if err != nil {
		return nil, err
	}
	sqlDB, err := d.db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return d, nil
}

// FetchRecords returns records matching the optional bounding box and the
// attribute predicates. A nil bbox means no spatial constraint.
func (d *Database) FetchRecords(bbox *models.BoundingBox, filter models.RecordFilter) ([]models.PropertyRecord, error) {
	query := d.db.Model(&models.PropertyRecord{})

	if bbox != nil {
		if !bbox.Valid() {
			return nil, models.ErrInvalidViewport
		}
		query = query.
			Where("latitude BETWEEN ? AND ?", bbox.MinLat, bbox.MaxLat).
			Where("longitude BETWEEN ? AND ?", bbox.MinLon, bbox.MaxLon)
	}

	if filter.County != "" {
		query = query.Where("county = ?", filter.County)
	}
	if filter.MinPrice > 0 {
		query = query.Where("price >= ?", filter.MinPrice)
	}
	if filter.MaxPrice > 0 {
		query = query.Where("price <= ?", filter.MaxPrice)
	}
	if !filter.Start.IsZero() {
		query = query.Where("sale_date >= ?", filter.Start)
	}
	if !filter.End.IsZero() {
		query = query.Where("sale_date < ?", filter.End.AddDate(0, 0, 1))
	}

	// Stable ordering keeps capped result sets deterministic across requests
	var records []models.PropertyRecord
	if err := query.Order("id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch records: %w", err)
	}

	return records, nil
}

// DateRange returns the earliest and latest sale dates in the store. ok is
// false when the store is empty.
func (d *Database) DateRange() (minDate, maxDate time.Time, ok bool, err error) {
	type bounds struct {
		MinDate *time.Time
		MaxDate *time.Time
	}

	var b bounds
	row := d.db.Model(&models.PropertyRecord{}).
		Select("MIN(sale_date) AS min_date, MAX(sale_date) AS max_date").
		Scan(&b)
	if row.Error != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("failed to read date range: %w", row.Error)
	}
	if b.MinDate == nil || b.MaxDate == nil {
		return time.Time{}, time.Time{}, false, nil
	}

	return *b.MinDate, *b.MaxDate, true, nil
}

// InsertRecords stores a batch of records; used by seeding and tests.
func (d *Database) InsertRecords(records []models.PropertyRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := d.db.Create(&records).Error; err != nil {
		return fmt.Errorf("failed to insert records: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
