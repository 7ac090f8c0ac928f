// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ImageDir     string // Default image folder offered at startup
	SQLiteMirror string // Optional SQLite file mirroring the ledger
	Resampler    string // "draw" or "opencv"
	Resume       bool   // Continue an existing _VALIDATED.csv instead of starting empty

	AutoAdvance       time.Duration // Delay after a correct verdict completes a record
	ReasonAutoAdvance time.Duration // Delay after a failure reason completes a record
	WatchInterval     time.Duration // Image folder polling interval, 0 disables

	CanvasWidth  int
	CanvasHeight int
}

// Load reads .env (if present) and the environment. Unset or invalid values
// fall back to defaults.
func Load() *Config {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit env file path.
func LoadFile(path string) *Config {
	err := godotenv.Load(path)
	if err != nil && !os.IsNotExist(err) {
		log.Printf("Config: cannot load %s: %v", path, err)
	}

	return &Config{
		ImageDir:     getEnv("ANPR_IMAGE_DIR", ""),
		SQLiteMirror: getEnv("ANPR_SQLITE_MIRROR", ""),
		Resampler:    strings.ToLower(getEnv("ANPR_RESAMPLER", "draw")),
		Resume:       getBool("ANPR_RESUME", false),

		AutoAdvance:       time.Duration(getInt("ANPR_AUTO_ADVANCE_MS", 300)) * time.Millisecond,
		ReasonAutoAdvance: time.Duration(getInt("ANPR_REASON_ADVANCE_MS", 500)) * time.Millisecond,
		WatchInterval:     time.Duration(getInt("ANPR_WATCH_MS", 2000)) * time.Millisecond,

		CanvasWidth:  getInt("ANPR_CANVAS_WIDTH", 400),
		CanvasHeight: getInt("ANPR_CANVAS_HEIGHT", 300),
	}
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil || v < 0 {
		log.Printf("Config: invalid %s, using %d", key, fallback)
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(fallback)))
	if err != nil {
		log.Printf("Config: invalid %s, using %v", key, fallback)
		return fallback
	}
	return v
}
