// Package config читает настройки сервисов из окружения (и файла .env, если он есть).
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"tripplanner/internal/model"
)

// Config - настройки API и бота.
type Config struct {
	DBHost string
	DBPort string
	DBUser string
	DBPass string
	DBName string

	APIPort     string
	CORSOrigins string
	BotToken    string

	GeocoderURL       string
	GeocoderUserAgent string
	GeocoderLanguage  string
	SearchLimit       int

	// Home - фиксированная домашняя точка (HOME_LAT/HOME_LON); nil, если не задана.
	Home               *model.Coordinates
	HomeLookupTimeout  time.Duration
	TransportRulesFile string
	MigrationsDir      string
	Debug              bool
}

// Load загружает .env (если файл есть) и читает переменные окружения.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Файл .env не найден, используются переменные окружения")
	}
	return FromEnv()
}

// FromEnv читает настройки только из переменных окружения.
func FromEnv() Config {
	cfg := Config{
		DBHost: getEnvWithDefault("DB_HOST", "localhost"),
		DBPort: getEnvWithDefault("DB_PORT", "5432"),
		DBUser: os.Getenv("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBName: getEnvWithDefault("DB_NAME", "tripplanner"),

		APIPort:     getEnvWithDefault("API_PORT", "8080"),
		CORSOrigins: getEnvWithDefault("CORS_ORIGINS", "*"),
		BotToken:    os.Getenv("BOT_TOKEN"),

		GeocoderURL:       getEnvWithDefault("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
		GeocoderUserAgent: getEnvWithDefault("GEOCODER_USER_AGENT", "tripplanner/1.0"),
		GeocoderLanguage:  getEnvWithDefault("GEOCODER_LANGUAGE", "ru"),
		SearchLimit:       getEnvAsInt("SEARCH_LIMIT", 5),

		HomeLookupTimeout:  time.Duration(getEnvAsInt("HOME_LOOKUP_TIMEOUT_SEC", 120)) * time.Second,
		TransportRulesFile: os.Getenv("TRANSPORT_RULES_FILE"),
		MigrationsDir:      getEnvWithDefault("MIGRATIONS_DIR", "migrations"),
		Debug:              getEnvAsBool("DEBUG", false),
	}
	lat, okLat := getEnvAsFloat("HOME_LAT")
	lon, okLon := getEnvAsFloat("HOME_LON")
	if okLat && okLon {
		cfg.Home = &model.Coordinates{Latitude: lat, Longitude: lon}
	}
	return cfg
}

// DSN собирает строку подключения к PostgreSQL.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPass, c.DBName)
}

// AllowedOrigins возвращает список CORS_ORIGINS, разделенный запятыми.
func (c Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Helper functions
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string) (float64, bool) {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
