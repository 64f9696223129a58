package db

import (
	"os"
	"path/filepath"
	"sync"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	instance *gorm.DB
	once     sync.Once
	initErr  error
)

// Init opens the sqlite database at path once per process. An empty path
// means ~/.ecoswap/ecoswap.db.
func Init(path string) (*gorm.DB, error) {
	once.Do(func() {
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				initErr = err
				return
			}
			path = filepath.Join(home, ".ecoswap", "ecoswap.db")
		}

		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			initErr = err
			return
		}

		instance, initErr = gorm.Open(sqlite.Open(path), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if initErr != nil {
			return
		}
		initErr = Migrate(instance)
	})
	return instance, initErr
}

// Migrate creates or updates every table the engine uses.
func Migrate(d *gorm.DB) error {
	return d.AutoMigrate(&Request{}, &Offer{}, &Item{})
}
