package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"cardkeeper/internal/utils/logger"
)

const (
	defaultRunAddress = ":8080"
	defaultMigrations = "migrations"
	defaultLogLevel   = "info"
	defaultSessionTTL = 24 * time.Hour
	defaultResetTTL   = time.Hour
)

type Config struct {
	Env    string
	DB     db
	Server server
	Logger loggerConfig
}

type db struct {
	DatabaseURI string `env:"DATABASE_URI"`
	Migrations  string `env:"MIGRATIONS_PATH"`
}

type server struct {
	RunAddress string        `env:"RUN_ADDRESS"`
	SessionTTL time.Duration `env:"SESSION_TTL"`
	ResetTTL   time.Duration `env:"RESET_TTL"`
}

type loggerConfig struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load собирает конфигурацию сервера из .env и переменных окружения
func Load() (*Config, error) {
	for _, envPath := range []string{".env", "../../.env"} {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return nil, fmt.Errorf("ошибка загрузки .env файла: %w", err)
			}
			break
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", logger.EnvLocal)
	v.SetDefault("RUN_ADDRESS", defaultRunAddress)
	v.SetDefault("MIGRATIONS_PATH", defaultMigrations)
	v.SetDefault("LOG_LEVEL", defaultLogLevel)
	v.SetDefault("SESSION_TTL", defaultSessionTTL)
	v.SetDefault("RESET_TTL", defaultResetTTL)

	cfg := &Config{
		Env: v.GetString("APP_ENV"),
		DB: db{
			DatabaseURI: v.GetString("DATABASE_URI"),
			Migrations:  v.GetString("MIGRATIONS_PATH"),
		},
		Server: server{
			RunAddress: v.GetString("RUN_ADDRESS"),
			SessionTTL: v.GetDuration("SESSION_TTL"),
			ResetTTL:   v.GetDuration("RESET_TTL"),
		},
		Logger: loggerConfig{LogLevel: v.GetString("LOG_LEVEL")},
	}

	if cfg.DB.DatabaseURI == "" {
		return nil, fmt.Errorf("ошибка конфигурации: не задан DATABASE_URI")
	}
	if cfg.Server.SessionTTL <= 0 {
		return nil, fmt.Errorf("ошибка конфигурации: SESSION_TTL должен быть положительным")
	}

	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
