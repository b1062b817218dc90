package config

import (
	"Arcadia/models/postgres"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectGORM returns a GORM DB instance connected to PostgreSQL
func ConnectGORM() (*gorm.DB, error) {
	user := os.Getenv("POSTGRES_USER")
	password := os.Getenv("POSTGRES_PASSWORD")
	host := os.Getenv("POSTGRES_HOST")
	port := os.Getenv("POSTGRES_PORT")
	database := os.Getenv("POSTGRES_DATABASE")
	verbose := os.Getenv("VERBOSE_POSTGRES")

	// NOTE: https://stackoverflow.com/questions/57205060/how-to-connect-postgresql-database-using-gorm
	dsn := fmt.Sprintf("postgresql://%s:%s@%s:%s/%s",
		user, password, host, port, database)

	sqlDB1, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Printf("Error connecting to PostgreSQL: %v", err)
		return nil, err
	}

	gormConfig := &gorm.Config{}
	if verbose == "true" {
		newLogger := logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  logger.Info,
				IgnoreRecordNotFoundError: false,
				Colorful:                  true,
			},
		)
		gormConfig.Logger = newLogger
	}

	// NOTE: See https://github.com/go-gorm/gorm/issues/5409
	db, err := gorm.Open(pgdriver.New(pgdriver.Config{
		Conn:                 sqlDB1,
		PreferSimpleProtocol: true,
	}), gormConfig)
	if err != nil {
		log.Printf("Error connecting to PostgreSQL with GORM: %v", err)
		return nil, err
	}

	// Get the underlying SQL DB object
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying SQL DB: %v", err)
		return nil, err
	}

	// Verify connection
	if err := sqlDB.Ping(); err != nil {
		log.Printf("Error pinging PostgreSQL: %v", err)
		return nil, err
	}

	// Set connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("Successfully connected to PostgreSQL with GORM")
	return db, nil
}

// MigrateDatabase migrates the GORM models to the PostgreSQL database
func MigrateDatabase(db *gorm.DB) error {
	err := db.AutoMigrate(
		postgres.GameProfile{},
		postgres.User{},
		postgres.GameSession{},
		postgres.SessionPlayer{},
		postgres.GameInvitation{},
		postgres.Achievement{},
		postgres.PlayerAchievement{},
		postgres.Notification{})
	if err != nil {
		return fmt.Errorf("auto migration failed: %w", err)
	}

	if err := seedAchievements(db); err != nil {
		return err
	}

	log.Println("PostgreSQL database migrated successfully")
	return nil
}

// seedAchievements inserts the static achievement catalog. Existing rows
// are left alone so re-running migrations is safe.
func seedAchievements(db *gorm.DB) error {
	catalog := []postgres.Achievement{
		{ID: "first-game", Name: "First Steps", Description: "Play your first game", Category: "games", Rarity: "common", Points: 10},
		{ID: "regular", Name: "Regular", Description: "Play 5 games", Category: "games", Rarity: "common", Points: 25},
		{ID: "veteran", Name: "Veteran", Description: "Play 25 games", Category: "games", Rarity: "rare", Points: 100},
		{ID: "first-win", Name: "Winner", Description: "Win your first game", Category: "wins", Rarity: "common", Points: 20},
		{ID: "win-streak", Name: "On Fire", Description: "Win 3 games in a row", Category: "wins", Rarity: "rare", Points: 75},
		{ID: "champion", Name: "Champion", Description: "Win 10 games", Category: "wins", Rarity: "epic", Points: 200},
		{ID: "high-scorer", Name: "High Scorer", Description: "Accumulate 1000 points", Category: "score", Rarity: "rare", Points: 100},
		{ID: "legend", Name: "Legend", Description: "Accumulate 10000 points", Category: "score", Rarity: "legendary", Points: 500},
	}

	for _, achievement := range catalog {
		if err := db.Where("id = ?", achievement.ID).
			FirstOrCreate(&achievement).Error; err != nil {
			return fmt.Errorf("seeding achievement %s failed: %w", achievement.ID, err)
		}
	}
	return nil
}
