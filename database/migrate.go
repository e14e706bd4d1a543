package database

import (
	"errors"
	"fmt"

	"github.com/aufmass/go-aufmass/logger"
	"gorm.io/gorm"
)

// SchemaVersion is the current schema. Each step below is additive: it
// introduces collections without reshaping earlier ones, so upgrades never
// rewrite existing rows.
const SchemaVersion = 3

// SchemaInfo is the store's single bookkeeping row: applied schema version
// and the legacy-import idempotency flag.
type SchemaInfo struct {
	ID             uint `gorm:"primarykey"`
	Version        int  `gorm:"not null"`
	LegacyImported bool `gorm:"not null;default:false"`
}

var migrations = []func(db *gorm.DB) error{
	// v1: projects, locations and their image blobs
	func(db *gorm.DB) error {
		return db.AutoMigrate(&Project{}, &Location{}, &ImageBlob{})
	},
	// v2: detail images
	func(db *gorm.DB) error {
		return db.AutoMigrate(&DetailImage{})
	},
	// v3: floor plans
	func(db *gorm.DB) error {
		return db.AutoMigrate(&FloorPlan{})
	},
}

// migrate applies every step between the stored version and SchemaVersion,
// in order, recording each step as it lands so an interrupted upgrade
// resumes where it stopped and a repeat open is a no-op.
func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&SchemaInfo{}); err != nil {
		return err
	}
	var info SchemaInfo
	err := db.First(&info).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		info = SchemaInfo{Version: 0}
		if err := db.Create(&info).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	}
	if info.Version > SchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", info.Version, SchemaVersion)
	}
	for v := info.Version; v < SchemaVersion; v++ {
		if err := migrations[v](db); err != nil {
			return fmt.Errorf("schema step v%d: %w", v+1, err)
		}
		info.Version = v + 1
		if err := db.Save(&info).Error; err != nil {
			return err
		}
		logger.Sugar().Infof("applied schema step v%d", info.Version)
	}
	return nil
}
