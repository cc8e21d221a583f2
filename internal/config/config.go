package config

import (
	"log"
	"os"
	"strings"
)

type Config struct {
	Port          string
	DBDSN         string
	MediaDir      string
	StagingDir    string
	LogFile       string
	BusinessID    string
	PublicBaseURL string
	RedisAddr     string
	AdminEmail    string
	AdminPassword string
	CookieSecure  bool
}

func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "shopfront.db"
	} // sqlite file in project root
	media := os.Getenv("MEDIA_DIR")
	if media == "" {
		// public blobs (order images) are written here and served under /media
		media = "./web/media"
	}
	staging := os.Getenv("STAGING_DIR")
	if staging == "" {
		staging = "./tmp/staged"
	}
	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "./shopfront.log"
	}
	business := os.Getenv("BUSINESS_ID")
	if business == "" {
		business = "default"
	}
	baseURL := strings.TrimRight(os.Getenv("PUBLIC_BASE_URL"), "/")
	if baseURL == "" {
		baseURL = "http://localhost:" + port
	}

	cfg := Config{
		Port:          port,
		DBDSN:         dsn,
		MediaDir:      media,
		StagingDir:    staging,
		LogFile:       logFile,
		BusinessID:    business,
		PublicBaseURL: baseURL,
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		CookieSecure:  os.Getenv("COOKIE_SECURE") == "true",
	}
	log.Printf("[config] PORT=%s DB_DSN=%s MEDIA_DIR=%s STAGING_DIR=%s LOG_FILE=%s BUSINESS_ID=%s REDIS_ADDR=%s",
		cfg.Port, cfg.DBDSN, cfg.MediaDir, cfg.StagingDir, cfg.LogFile, cfg.BusinessID, cfg.RedisAddr)
	return cfg
}
