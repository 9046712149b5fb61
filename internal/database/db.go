package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/Rao-Faizan/my-gamil-automation/internal/database/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Initialize creates and returns a database connection
func Initialize(dbPath string) (*gorm.DB, error) {
	// Ensure the directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(sqlite.Open(dbPath), gormConfig)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// RunMigrations runs all database migrations. Safe to call on every startup.
func RunMigrations(db *gorm.DB) error {
	// Auto-migrate all models
	if err := db.AutoMigrate(
		&models.ReplyRecord{},
		&models.Log{},
	); err != nil {
		return err
	}

	// Earlier deployments created reply_records without draft_id/message_id.
	// AutoMigrate handles new installs; for upgraded databases add the columns
	// with raw SQL (SQLite compatible) and tolerate duplicates.
	if db.Migrator().HasTable(&models.ReplyRecord{}) {
		var colInfo []struct {
			Name string `gorm:"column:name"`
		}
		db.Raw("PRAGMA table_info(reply_records)").Scan(&colInfo)

		legacyColumns := []struct {
			name string
			def  string
		}{
			{"draft_id", "TEXT DEFAULT ''"},
			{"message_id", "TEXT DEFAULT ''"},
			{"contact", "TEXT DEFAULT ''"},
		}

		for _, col := range legacyColumns {
			var exists bool
			for _, c := range colInfo {
				if c.Name == col.name {
					exists = true
					break
				}
			}
			if !exists {
				sql := fmt.Sprintf("ALTER TABLE reply_records ADD COLUMN %s %s", col.name, col.def)
				if err := db.Exec(sql).Error; err != nil {
					if !strings.Contains(err.Error(), "duplicate column") {
						log.Printf("[Migration] Warning: Failed to add column %s: %v", col.name, err)
					}
				} else {
					log.Printf("[Migration] Added column %s to reply_records", col.name)
				}
			}
		}

		// Records imported before message_id existed get a synthetic key so the
		// unique index can be created.
		db.Exec("UPDATE reply_records SET message_id = 'legacy:' || id WHERE message_id IS NULL OR message_id = ''")
	}

	// Normalize unknown statuses left by older script versions
	db.Model(&models.ReplyRecord{}).
		Where("status = '' OR status IS NULL").
		Update("status", models.StatusUnread)

	return nil
}
