package db

import (
	"fmt"
	"log"
	"time"

	"mantrafm/config"
	"mantrafm/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormDB is the GORM connection, used by the playlist module.
// It coexists with the raw DB (*sql.DB) used by the older repositories.
var GormDB *gorm.DB

// ConnectGormDB establishes the GORM database connection.
func ConnectGormDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	GormDB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Warn),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect database with GORM: %w", err)
	}

	sqlDB, err := GormDB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("Successfully connected to the database with GORM.")
	return nil
}

// CloseGormDB closes the GORM database connection.
func CloseGormDB() error {
	if GormDB == nil {
		return nil
	}

	sqlDB, err := GormDB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// AutoMigrateModels migrates the given models.
func AutoMigrateModels(models ...interface{}) error {
	if GormDB == nil {
		return fmt.Errorf("GORM database not initialized")
	}

	if err := GormDB.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}

	log.Println("Models migrated successfully with GORM.")
	return nil
}

// curated playlists shipped with the product
var curatedPlaylists = []model.Playlist{
	{Name: "Morning Rise", Type: "morning", Description: "Start the day with your affirmations."},
	{Name: "Daytime Drive", Type: "daytime", Description: "Keep the energy up through the day."},
	{Name: "Bedtime Wind Down", Type: "bedtime", Description: "Calm affirmations before sleep."},
}

// SeedCuratedPlaylists inserts the three curated playlists if they are missing.
// Safe to run on every startup.
func SeedCuratedPlaylists() error {
	if GormDB == nil {
		return fmt.Errorf("GORM database not initialized")
	}

	for _, p := range curatedPlaylists {
		var count int64
		if err := GormDB.Model(&model.Playlist{}).Where("type = ?", p.Type).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check playlist %q: %w", p.Type, err)
		}
		if count > 0 {
			continue
		}
		if err := GormDB.Create(&p).Error; err != nil {
			return fmt.Errorf("failed to seed playlist %q: %w", p.Type, err)
		}
		log.Printf("Seeded curated playlist %q (%s).", p.Name, p.Type)
	}
	return nil
}
