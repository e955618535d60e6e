package config

import (
	"fmt"
	"log"
	"os"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/kanchiweave/storefront/internal/localcache"
)

type Config struct {
	PORT            string
	UPSTREAM_URL    string
	JWT_SECRET      string
	CACHE_DSN       string
	CACHE_PATH      string
	KAFKA_ADDRESS   string
	ES_URL          string
	ES_USER         string
	ES_PASSWORD     string
	ES_INDEX        string
	RAZORPAY_KEY_ID string
	LOG_LEVEL       string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		PORT:            os.Getenv("PORT"),
		UPSTREAM_URL:    os.Getenv("UPSTREAM_URL"),
		JWT_SECRET:      os.Getenv("JWT_SECRET"),
		CACHE_DSN:       os.Getenv("CACHE_DSN"),
		CACHE_PATH:      os.Getenv("CACHE_PATH"),
		KAFKA_ADDRESS:   os.Getenv("KAFKA_ADDRESS"),
		ES_URL:          os.Getenv("ES_URL"),
		ES_USER:         os.Getenv("ES_USER"),
		ES_PASSWORD:     os.Getenv("ES_PASSWORD"),
		ES_INDEX:        os.Getenv("ES_INDEX"),
		RAZORPAY_KEY_ID: os.Getenv("RAZORPAY_KEY_ID"),
		LOG_LEVEL:       os.Getenv("LOG_LEVEL"),
	}

	if config.PORT == "" {
		config.PORT = "8080"
	}
	if config.CACHE_PATH == "" {
		config.CACHE_PATH = "storefront.db"
	}
	if config.ES_INDEX == "" {
		config.ES_INDEX = "product"
	}
	if config.UPSTREAM_URL == "" {
		return nil, fmt.Errorf("UPSTREAM_URL is required")
	}

	return config, nil
}

// InitCache opens the persistent local cache. An embedded sqlite file is the
// default; CACHE_DSN switches to postgres for multi-instance deployments.
func InitCache(cfg *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if cfg.CACHE_DSN != "" {
		dialector = postgres.Open(cfg.CACHE_DSN)
	} else {
		dialector = sqlite.Open(cfg.CACHE_PATH)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	if err := db.AutoMigrate(&localcache.Snapshot{}); err != nil {
		return nil, fmt.Errorf("migrate cache: %w", err)
	}
	return db, nil
}
