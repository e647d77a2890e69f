package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"sku-recon/internal/reconcile/tables"
)

type Config struct {
	Host          string
	Port          int
	AllowOrigins  []string
	LogLevel      string
	MaxUploadMB   int
	LogFile       string
	TablesFile    string
	CurrentBundle string
	Workers       int
}

// Load reads the environment after an optional .env in the working directory.
// Variables already set in the environment win over .env.
func Load() Config {
	_ = godotenv.Load()
	return fromEnv()
}

func fromEnv() Config {
	port, err := strconv.Atoi(getenv("PORT", "8082"))
	if err != nil || port <= 0 {
		port = 8082
	}
	mb, err := strconv.Atoi(getenv("MAX_UPLOAD_MB", "64"))
	if err != nil || mb <= 0 {
		mb = 64
	}
	workers, err := strconv.Atoi(getenv("WORKERS", "0"))
	if err != nil {
		workers = 0
	}
	var origins []string
	for _, o := range strings.Split(getenv("ALLOW_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return Config{
		Host:          getenv("HOST", "127.0.0.1"),
		Port:          port,
		AllowOrigins:  origins,
		LogLevel:      getenv("LOG_LEVEL", "info"),
		MaxUploadMB:   mb,
		LogFile:       getenv("LOG_FILE", "logs/sku-recon.log"),
		TablesFile:    getenv("TABLES_FILE", ""),
		CurrentBundle: getenv("CURRENT_BUNDLE", ""),
		Workers:       workers,
	}
}

func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

// MaxUploadBytes is the request body limit.
func (c Config) MaxUploadBytes() int64 { return int64(c.MaxUploadMB) << 20 }

// LoadTables loads TABLES_FILE (or the embedded tables) and applies the
// CURRENT_BUNDLE override.
func (c Config) LoadTables() (*tables.Tables, error) {
	t, err := tables.Load(c.TablesFile)
	if err != nil {
		return nil, err
	}
	return t.WithCurrentBundle(c.CurrentBundle, ""), nil
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}
