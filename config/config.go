package config

import (
	"os"
	"strconv"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Config dibaca dari environment (.env di-load oleh main lewat godotenv).
type Config struct {
	Port         string
	DatabaseDSN  string
	CORSOrigin   string
	SlotDuration time.Duration
	DepositRate  float64
	StoreTimeout time.Duration
}

func Load() Config {
	cfg := Config{
		Port:         getEnv("PORT", "8080"),
		DatabaseDSN:  os.Getenv("DATABASE_DSN"),
		CORSOrigin:   getEnv("CORS_ALLOWED_ORIGIN", "*"),
		SlotDuration: getDuration("BOOKING_SLOT_DURATION", 2*time.Hour),
		DepositRate:  getFloat("BOOKING_DEPOSIT_RATE", 0.2),
		StoreTimeout: getDuration("STORE_TIMEOUT", 5*time.Second),
	}
	return cfg
}

// InitDB membuka koneksi database: MySQL kalau DATABASE_DSN di-set,
// fallback ke file SQLite untuk development lokal.
func InitDB(cfg Config) (*gorm.DB, error) {
	if cfg.DatabaseDSN != "" {
		return gorm.Open(mysql.Open(cfg.DatabaseDSN), &gorm.Config{})
	}
	return gorm.Open(sqlite.Open(getEnv("SQLITE_PATH", "floor.db")), &gorm.Config{})
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
