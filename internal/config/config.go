package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port       string
	GinMode    string
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	JWTSecret     string
	SessionSecret string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string
	ClientURL          string

	// GhostUserID, when set, receives created_by ownership of tasks,
	// teams and organizations left behind by deleted accounts.
	GhostUserID string
}

func Load() *Config {
	// Missing .env is fine; real deployments use process env.
	_ = godotenv.Load()

	return &Config{
		Port:       getEnv("PORT", "4000"),
		GinMode:    getEnv("GIN_MODE", "debug"),
		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "flux"),
		DBPassword: getEnv("DB_PASSWORD", "flux"),
		DBName:     getEnv("DB_NAME", "flux"),

		JWTSecret:     getEnv("JWT_SECRET", "default-secret-key-change-me"),
		SessionSecret: getEnv("SESSION_SECRET", "default-session-secret"),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleCallbackURL:  getEnv("GOOGLE_CALLBACK_URL", "http://localhost:4000/auth/google/callback"),
		ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),

		GhostUserID: getEnv("GHOST_USER_ID", ""),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
