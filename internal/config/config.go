package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port           string
	DatabaseURL    string
	AllowedOrigins []string
	LogLevel       string
	Env            string

	TickRate      int
	RoundDuration time.Duration
	StartPolicy   string
	MaxPlayers    int

	MessageRate  float64
	MessageBurst int
}

// InitConfig loads .env into the process environment. A missing file is not an error.
func InitConfig(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		log.Warn().Err(err).Msg("[InitConfig] no .env file loaded, using environment variables")
		return
	}
	log.Info().Msg("[InitConfig] loaded environment variables")
}

func GetEnvVariable(v string) (string, error) {
	if v == "" {
		return "", fmt.Errorf("input param empty")
	}
	b := os.Getenv(v)
	if b == "" {
		return "", fmt.Errorf("failed to get variable for %s", v)
	}

	return b, nil
}

// Load reads the typed configuration. Unset variables take their defaults; set but invalid
// ones are an error.
func Load() (Config, error) {
	cfg := Config{
		Port:           envOr("PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		AllowedOrigins: splitList(envOr("ALLOWED_ORIGINS", "*")),
		LogLevel:       envOr("LOG_LEVEL", "info"),
		Env:            envOr("APP_ENV", "development"),
		StartPolicy:    envOr("START_POLICY", "allReady"),
	}

	var err error
	if cfg.TickRate, err = intEnv("TICK_RATE", 20); err != nil {
		return cfg, err
	}
	if cfg.MaxPlayers, err = intEnv("MAX_PLAYERS", 8); err != nil {
		return cfg, err
	}
	if cfg.MessageBurst, err = intEnv("MSG_BURST", 30); err != nil {
		return cfg, err
	}
	if cfg.MessageRate, err = floatEnv("MSG_RATE", 60); err != nil {
		return cfg, err
	}
	if cfg.RoundDuration, err = durationEnv("ROUND_DURATION", 180*time.Second); err != nil {
		return cfg, err
	}

	if cfg.TickRate <= 0 || cfg.TickRate > 120 {
		return cfg, fmt.Errorf("TICK_RATE must be between 1 and 120, got %d", cfg.TickRate)
	}
	if cfg.StartPolicy != "allReady" && cfg.StartPolicy != "unconditional" {
		return cfg, fmt.Errorf("START_POLICY must be allReady or unconditional, got %q", cfg.StartPolicy)
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func envOr(key, def string) string {
	if v, err := GetEnvVariable(key); err == nil {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v, err := GetEnvVariable(key)
	if err != nil {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func floatEnv(key string, def float64) (float64, error) {
	v, err := GetEnvVariable(key)
	if err != nil {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

// durationEnv accepts Go durations ("3m") or plain seconds ("180").
func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v, err := GetEnvVariable(key)
	if err != nil {
		return def, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
