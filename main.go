package main

import (
	"Arcadia/config"
	_ "Arcadia/docs"
	"Arcadia/middleware"
	"Arcadia/routes"
	"Arcadia/services/notifications"
	"Arcadia/services/portals"
	"Arcadia/services/redis"
	"Arcadia/services/sessions"
	"Arcadia/services/socket_io"
	syncmanager "Arcadia/sync"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// @title Arcadia API
// @version 1.0
// @description Gin-Gonic server for the Arcadia team games API
// @BasePath /
func main() {
	godotenv.Load()
	// Setup DB conn
	log.Println("Setting up server...")

	if os.Getenv("PROD") == "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	gormDB, err := config.ConnectGORM()
	if err != nil {
		log.Fatalf("Error connecting to PostgreSQL: %v", err)
	}
	log.Println("GORM Connected")

	// Only migrate in development or during deployment
	if os.Getenv("MIGRATE_POSTGRES") == "true" {
		log.Println("Migrating PostgreSQL database...")
		if err := config.MigrateDatabase(gormDB); err != nil {
			log.Printf("Warning: Database migration failed: %v", err)
			// Continue execution even if migration fails
		} else {
			log.Println("Database migrated successfully")
		}
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatalf("Error reading GORM PostgreSQL instance: %v", err)
	}
	defer sqlDB.Close()

	redisClient, err := config.Connect_redis()
	if err != nil {
		log.Fatalf("Error connecting to Redis: %v", err)
	}
	log.Println("Connection to Redis successful")
	defer redis.CloseRedis(redisClient)

	// Long-lived singletons shared by the socket and REST surfaces
	store := sessions.NewStore()
	registry := portals.NewRegistry()
	feed := notifications.NewFeed()
	syncMgr := syncmanager.NewSyncManager(redisClient, gormDB)

	r := gin.Default()

	middleware.SetUpMiddleware(r)

	sio := &socket_io.MySocketServer{}
	sio.Start(r, gormDB, redisClient, &socket_io.Services{
		Store:    store,
		Registry: registry,
		Feed:     feed,
		SyncMgr:  syncMgr,
	})

	routes.SetupRoutes(r, gormDB, redisClient, store, registry, feed)

	// Configure port
	port := os.Getenv("PORT")
	if port == "" && os.Getenv("USE_HTTPS") == "true" {
		port = "443"
	} else if port == "" {
		port = "8080"
	}

	if os.Getenv("USE_HTTPS") == "true" {
		//SSL certification configuration for HTTPS
		certFile := os.Getenv("TLS_CERT_FILE")
		keyFile := os.Getenv("TLS_KEY_FILE")

		// Start server
		if err := r.RunTLS(":"+port, certFile, keyFile); err != nil {
			log.Fatalf("Error starting server: %v", err)
		}
	} else {
		if err := r.Run(":" + port); err != nil {
			log.Fatalf("Error starting server: %v", err)
		}
	}
	log.Printf("Server started on port %s", port)
}
