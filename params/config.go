package params

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Log struct {
	Level string
	File  string // empty: stderr only
}

type API struct {
	Addr           string
	AllowedOrigins []string
}

type Store struct {
	Dir string // pebble directory for archived runs; empty disables archiving
}

type Kafka struct {
	Brokers []string // empty disables publishing
	Topic   string
}

// Sim holds the defaults of the scenario generator.
type Sim struct {
	Name   string
	Seed   int64
	Orders int
}

type Config struct {
	Log   Log
	API   API
	Store Store
	Kafka Kafka
	Sim   Sim
}

func Default() Config {
	return Config{
		Log: Log{Level: "info"},
		API: API{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Store: Store{Dir: "data/runs"},
		Kafka: Kafka{Topic: "kwh-trades"},
		Sim: Sim{
			Name:   "demo",
			Seed:   42,
			Orders: 20,
		},
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment variables
// Priority: ENV > .env file > defaults
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	// godotenv never overrides variables that are already set
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)
	cfg.API.Addr = getEnv("API_ADDR", cfg.API.Addr)
	if origins := os.Getenv("API_ALLOWED_ORIGINS"); origins != "" {
		cfg.API.AllowedOrigins = splitList(origins)
	}
	if dir, ok := os.LookupEnv("STORE_DIR"); ok {
		cfg.Store.Dir = dir
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = splitList(brokers)
	}
	cfg.Kafka.Topic = getEnv("KAFKA_TOPIC", cfg.Kafka.Topic)

	cfg.Sim.Name = getEnv("SIM_NAME", cfg.Sim.Name)
	if seed := os.Getenv("SIM_SEED"); seed != "" {
		if v, err := strconv.ParseInt(seed, 10, 64); err == nil {
			cfg.Sim.Seed = v
		}
	}
	if n := os.Getenv("SIM_ORDERS"); n != "" {
		if v, err := strconv.Atoi(n); err == nil && v >= 0 {
			cfg.Sim.Orders = v
		}
	}

	return cfg
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
