package main

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"backoffice/internal/config"
	"backoffice/internal/db"
	"backoffice/internal/logging"
	"backoffice/internal/model"
	"backoffice/internal/repository"
	"backoffice/internal/service"
	"backoffice/internal/storage"
)

// Creates the bootstrap admin account unless an admin already exists.
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
	if err := gormDB.AutoMigrate(&model.User{}); err != nil {
		log.Fatal("auto-migrate", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo := repository.NewUserRepository(gormDB)
	admins, err := repo.CountByRole(ctx, model.RoleAdmin)
	if err != nil {
		log.Fatal("count admins", zap.Error(err))
	}
	if admins > 0 {
		log.Info("admin already present, nothing to seed", zap.Int64("admins", admins))
		return
	}

	password := cfg.AdminPassword
	generated := password == ""
	if generated {
		password = strings.ReplaceAll(uuid.NewString(), "-", "")
	}

	files, err := storage.NewDisk(cfg.StorageDir)
	if err != nil {
		log.Fatal("storage init", zap.Error(err))
	}
	users := service.NewUserService(repo, nil, files, log)
	admin, err := users.CreateUser(ctx, service.CreateUserInput{
		Name:     cfg.AdminName,
		Email:    cfg.AdminEmail,
		Password: password,
		Role:     model.RoleAdmin,
	})
	if err != nil {
		log.Fatal("create admin", zap.Error(err))
	}

	fields := []zap.Field{zap.Uint("id", admin.ID), zap.String("email", admin.Email)}
	if generated {
		// printed once; ADMIN_PASSWORD was not set
		fields = append(fields, zap.String("password", password))
	}
	log.Info("admin account created", fields...)
}
