package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath      string
	SourcePaths []string
	SourceURL   string
	RawDir      string
	OutputDir   string

	FetchTimeoutMs int
	FetchRetries   int

	ServerPort       int
	WatchIntervalSec int

	DefaultKcalPerKg    float64
	DefaultProteinPerKg float64
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:      getEnv("FORMULARY_DB_PATH", filepath.Join(cwd, "data", "formulary.db")),
		SourcePaths: getEnvList("FORMULARY_SOURCE_PATHS", []string{"formulary.csv", "formulary.xlsx - Sheet1.csv", "formulary.xlsx"}),
		SourceURL:   getEnv("FORMULARY_SOURCE_URL", ""),
		RawDir:      getEnv("FORMULARY_RAW_DIR", filepath.Join(cwd, "data", "raw")),
		OutputDir:   getEnv("FORMULARY_OUTPUT_DIR", filepath.Join(cwd, "out")),

		FetchTimeoutMs: getEnvInt("FORMULARY_FETCH_TIMEOUT_MS", 30000),
		FetchRetries:   getEnvInt("FORMULARY_FETCH_RETRIES", 5),

		ServerPort:       getEnvInt("FORMULARY_SERVER_PORT", 8080),
		WatchIntervalSec: getEnvInt("FORMULARY_WATCH_INTERVAL_SEC", 60),

		DefaultKcalPerKg:    getEnvFloat("FORMULARY_DEFAULT_KCAL_PER_KG", 25),
		DefaultProteinPerKg: getEnvFloat("FORMULARY_DEFAULT_PROTEIN_PER_KG", 1.2),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := getEnv(key, "")
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
