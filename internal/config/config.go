package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN        string
	ServerPort   string
	JWTSecret    string
	AppEnv       string
	UploadDir    string
	UploadSecret string
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBDSN:        os.Getenv("DB_DSN"),
		ServerPort:   os.Getenv("SERVER_PORT"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		AppEnv:       os.Getenv("APP_ENV"),
		UploadDir:    os.Getenv("UPLOAD_DIR"),
		UploadSecret: os.Getenv("UPLOAD_SECRET"),
	}

	if cfg.DBDSN == "" {
		log.Fatal("DB_DSN is not set")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "prod"
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "uploads"
	}
	if cfg.UploadSecret == "" {
		// signed download URLs fall back to the JWT secret
		cfg.UploadSecret = cfg.JWTSecret
	}

	return cfg
}
