package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"playmatch/meetups/docs"
	"playmatch/meetups/internal/config"
	"playmatch/meetups/internal/database"
	"playmatch/meetups/internal/handler"
	"playmatch/meetups/internal/meetup"
	"playmatch/meetups/internal/storage/gormstore"
	"playmatch/meetups/internal/storage/memory"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Playmatch Meetups API
// @version         1.0
// @description     Create sport meetups with a capacity limit and let members join or leave.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	zone, err := cfg.Location()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to the database
	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	var registry meetup.Registry
	switch cfg.MeetupStore {
	case config.StoreMemory:
		registry = memory.NewRegistry()
	default:
		registry = gormstore.NewRegistry(db)
	}
	slog.Info("meetup store selected", slog.String("store", cfg.MeetupStore))

	sports := gormstore.NewSportStore(db)
	meetups := meetup.NewService(registry, meetup.Options{
		Duration: cfg.MeetupDuration,
		Timeout:  cfg.StoreTimeout,
		Zone:     zone,
		Sports:   sports,
	})

	router := gin.Default()

	// Swagger route
	docs.SwaggerInfo.BasePath = "/api/v1"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	handler.New(db, meetups, sports, cfg.JWTSecret).RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server is running", slog.String("addr", cfg.ServerAddress))
		slog.Info("swagger UI is available at /swagger/index.html")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGTERM, syscall.SIGINT)
	<-s

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown failed", slog.Any("err", err))
	}
}
