package db

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/agnosto/boosty-archiver/db/models"
	"github.com/agnosto/boosty-archiver/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	_ "modernc.org/sqlite"
)

// Database represents the ledger database connection
type Database struct {
	DB *gorm.DB
}

// NewDatabase opens (or creates) the dedup ledger at dbPath.
func NewDatabase(dbPath string) (*Database, error) {
	// Older archiver versions kept a bare single-column archive table;
	// detect it before GORM touches the file so we can carry the keys over.
	needsMigration, err := checkLegacySchema(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to check database schema: %w", err)
	}

	logConfig := gormlogger.Config{
		LogLevel: gormlogger.Warn, // Log only warnings and errors
		Colorful: false,
	}

	gdb, err := gorm.Open(&sqlite.Dialector{DriverName: "sqlite", DSN: dbPath}, &gorm.Config{
		Logger: gormlogger.New(
			logger.Logger,
			logConfig,
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := gdb.AutoMigrate(&models.ArchiveEntry{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if needsMigration {
		if err := migrateLegacySchema(gdb); err != nil {
			return nil, fmt.Errorf("failed to migrate legacy schema: %w", err)
		}
	}

	return &Database{DB: gdb}, nil
}

// checkLegacySchema reports whether dbPath holds the pre-GORM schema,
// a single archive(entry PRIMARY KEY) table.
func checkLegacySchema(dbPath string) (bool, error) {
	// sql.Open is lazy and would create an empty file just by probing, so
	// a missing database is decided on the filesystem.
	if _, err := os.Stat(dbPath); err != nil {
		return false, nil
	}

	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return false, err
	}
	defer sqlDB.Close()

	var count int
	err = sqlDB.QueryRow(`SELECT COUNT(*) FROM sqlite_master
                         WHERE type='table' AND name='archive'
                         AND sql LIKE '%entry PRIMARY KEY%'`).Scan(&count)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// migrateLegacySchema copies keys from the old archive table into the GORM
// table and drops the old one.
func migrateLegacySchema(gdb *gorm.DB) error {
	if err := gdb.Exec(`INSERT OR IGNORE INTO archive_entries (key, created_at)
                       SELECT entry, CURRENT_TIMESTAMP FROM archive`).Error; err != nil {
		return err
	}

	if err := gdb.Exec(`DROP TABLE archive`).Error; err != nil {
		return err
	}

	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
