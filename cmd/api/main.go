package main

import (
	"net/http"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"crmcore/internal/bootstrap"
	"crmcore/internal/config"
	"crmcore/internal/httpserver"
	"crmcore/internal/logger"
	"crmcore/internal/models"
)

func main() {
	_ = godotenv.Load()
	lg := logger.New()
	defer lg.Sync()

	cfg, err := config.Load()
	if err != nil {
		lg.Fatalw("invalid configuration", "error", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		lg.Fatalw("db connect failed", "error", err)
	}
	if err := db.AutoMigrate(
		&models.Permission{}, &models.Role{}, &models.RolePermission{},
		&models.User{}, &models.RefreshToken{},
		&models.Customer{}, &models.Contact{}, &models.ServiceType{}, &models.Job{},
	); err != nil {
		lg.Fatalw("automigrate failed", "error", err)
	}

	if err := bootstrap.Run(db, cfg, lg); err != nil {
		lg.Fatalw("bootstrap failed", "error", err)
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}

	router := httpserver.NewRouter(db, rdb, cfg, lg)
	lg.Infow("listening", "port", cfg.HTTPPort)
	if err := http.ListenAndServe(":"+cfg.HTTPPort, router); err != nil {
		lg.Fatalw("server stopped", "error", err)
	}
}
