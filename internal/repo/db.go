package repo

import (
	"log"

	"holdem-service/internal/config"
	"holdem-service/internal/model"
	"holdem-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// InitDB connects to Postgres when a DSN is configured. Without one the
// server runs in ephemeral mode and DB stays nil; callers must tolerate that.
func InitDB() {
	dsn := config.GlobalConfig.Database.DSN
	if dsn == "" {
		logger.Log.Warn("no database DSN configured, running ephemeral (guest-only identities)")
		return
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Log.Fatal("Failed to connect to database",
			zap.Error(err),
		)
	}

	err = DB.AutoMigrate(
		&model.User{},
		&model.Admin{},
		&model.HandLog{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
}
