package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"backoffice/internal/auth"
	"backoffice/internal/cache"
	"backoffice/internal/config"
	"backoffice/internal/db"
	"backoffice/internal/flash"
	"backoffice/internal/handler"
	"backoffice/internal/logging"
	"backoffice/internal/middleware"
	"backoffice/internal/model"
	"backoffice/internal/repository"
	"backoffice/internal/router"
	"backoffice/internal/service"
	"backoffice/internal/storage"
)

//go:generate swag init -g cmd/server/main.go -o docs

// @title User Back Office API
// @version 1.0
// @description Admin user directory, account lifecycle and profile photos.
// @host localhost:8080
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	log, err := logging.New(cfg.IsProduction())
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	gormDB, err := db.Open(cfg.DBDriver, cfg.MySQLDSN, cfg.SQLitePath)
	if err != nil {
		log.Fatal("database init", zap.Error(err))
	}

	if cfg.ResetDB {
		log.Warn("RESET_DB=true detected, dropping users table")
		if err := gormDB.Migrator().DropTable(&model.User{}); err != nil {
			log.Warn("drop users table", zap.Error(err))
		}
	}

	if err := gormDB.AutoMigrate(&model.User{}); err != nil {
		log.Fatal("auto-migrate", zap.Error(err))
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer func() { _ = cacheClient.Close() }()
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
	if err := cacheClient.Ping(pingCtx); err != nil {
		log.Warn("redis unavailable, running without cache and token revocation", zap.Error(err))
	}
	cancelPing()

	disk, err := storage.NewDisk(cfg.StorageDir)
	if err != nil {
		log.Fatal("storage init", zap.Error(err))
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	userService := service.NewUserService(userRepo, cacheClient, disk, log)
	photoService := service.NewPhotoService(userRepo, cacheClient, disk, cfg.PhotoMaxKB, log)
	authService := service.NewAuthService(userRepo, jwtService, tokenStore)

	// Initialize handlers
	flashes := flash.NewStore(cfg.SessionSecret, cfg.IsProduction())
	userHandler := handler.NewUserHandler(userService, flashes, cfg.PerPageDefault, cfg.PerPageMax)
	authHandler := handler.NewAuthHandler(authService, cfg.IsProduction(), log)
	profileHandler := handler.NewProfileHandler(photoService, flashes, log)

	e := echo.New()
	e.HideBanner = true

	router.Register(
		e,
		log,
		middleware.Authenticate(jwtService, userService, tokenStore),
		disk.FileSystem(),
		userHandler,
		authHandler,
		profileHandler,
	)

	log.Info("swagger documentation available", zap.String("url", swaggerURL(cfg)))

	go func() {
		addr := ":" + cfg.ServerPort
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Warn("server shutdown", zap.Error(err))
	}
}

func swaggerURL(cfg *config.Config) string {
	host := cfg.SwaggerHost
	if host == "" {
		host = "localhost:" + cfg.ServerPort
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return host + "/swagger/index.html"
}
