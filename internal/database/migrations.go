package database

import (
	"fmt"

	"pricegrid/server/internal/models"
)

// RunMigrations brings the schema up to date. GORM's auto-migration creates
// the records table plus the coordinate, county and sale date indexes
// declared on the model.
func (d *Database) RunMigrations() error {
	if err := d.db.AutoMigrate(&models.PropertyRecord{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
