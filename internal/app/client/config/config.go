package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"cardkeeper/internal/app/client/kv"
	"cardkeeper/internal/utils/logger"
)

const (
	defaultEnv              = logger.EnvLocal
	defaultConfigDir        = ".cardkeeper"
	defaultLocalStore       = kv.DriverSQLite
	defaultLocalLatencyMS   = 150
	defaultCommunityLimit   = 50
	defaultGeocoderURL      = "https://photon.komoot.io/api/"
	defaultGeocodeDelayMS   = 600
	defaultGeocodeRPS       = 1.0
	defaultGeminiModel      = "gemini-1.5-flash"
	defaultConfirmWindowSec = 3
)

type Config struct {
	Env            string  `mapstructure:"app_env"`
	ServerAddress  string  `mapstructure:"server_address"`
	EnableTLS      bool    `mapstructure:"enable_tls"`
	ConfigDir      string  `mapstructure:"config_dir"`
	DataPath       string  `mapstructure:"data_path"`
	TokenPath      string  `mapstructure:"token_path"`
	LocalStore     string  `mapstructure:"local_store"`
	LocalLatencyMS int     `mapstructure:"local_latency_ms"`
	CommunityLimit int     `mapstructure:"community_limit"`
	GeocoderURL    string  `mapstructure:"geocoder_url"`
	GeocodeDelayMS int     `mapstructure:"geocode_delay_ms"`
	GeocodeRPS     float64 `mapstructure:"geocode_rps"`
	GeminiAPIKey   string  `mapstructure:"gemini_api_key"`
	GeminiModel    string  `mapstructure:"gemini_model"`
	ConfirmWindow  int     `mapstructure:"confirm_window_seconds"`
}

// Load читает конфигурацию клиента из .env, переменных окружения и
// необязательного файла configFile
func Load(configFile string) (*Config, error) {
	// Загружаем .env файл если существует
	for _, envPath := range []string{".env", "../.env"} {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return nil, fmt.Errorf("ошибка загрузки .env файла: %w", err)
			}
			break
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", defaultEnv)
	v.SetDefault("SERVER_ADDRESS", "")
	v.SetDefault("ENABLE_TLS", false)
	v.SetDefault("CONFIG_DIR", defaultConfigDir)
	v.SetDefault("LOCAL_STORE", defaultLocalStore)
	v.SetDefault("LOCAL_LATENCY_MS", defaultLocalLatencyMS)
	v.SetDefault("COMMUNITY_LIMIT", defaultCommunityLimit)
	v.SetDefault("GEOCODER_URL", defaultGeocoderURL)
	v.SetDefault("GEOCODE_DELAY_MS", defaultGeocodeDelayMS)
	v.SetDefault("GEOCODE_RPS", defaultGeocodeRPS)
	v.SetDefault("GEMINI_MODEL", defaultGeminiModel)
	v.SetDefault("CONFIRM_WINDOW_SECONDS", defaultConfirmWindowSec)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
		}
	}

	// Получаем домашнюю директорию пользователя
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	configDir := v.GetString("CONFIG_DIR")
	if configDir == defaultConfigDir {
		configDir = filepath.Join(homeDir, configDir)
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("ошибка создания директории конфигурации: %w", err)
	}

	cfg := &Config{
		Env:            v.GetString("APP_ENV"),
		ServerAddress:  strings.TrimSpace(v.GetString("SERVER_ADDRESS")),
		EnableTLS:      v.GetBool("ENABLE_TLS"),
		ConfigDir:      configDir,
		DataPath:       v.GetString("DATA_PATH"),
		TokenPath:      v.GetString("TOKEN_PATH"),
		LocalStore:     v.GetString("LOCAL_STORE"),
		LocalLatencyMS: v.GetInt("LOCAL_LATENCY_MS"),
		CommunityLimit: v.GetInt("COMMUNITY_LIMIT"),
		GeocoderURL:    v.GetString("GEOCODER_URL"),
		GeocodeDelayMS: v.GetInt("GEOCODE_DELAY_MS"),
		GeocodeRPS:     v.GetFloat64("GEOCODE_RPS"),
		GeminiAPIKey:   v.GetString("GEMINI_API_KEY"),
		GeminiModel:    v.GetString("GEMINI_MODEL"),
		ConfirmWindow:  v.GetInt("CONFIRM_WINDOW_SECONDS"),
	}

	if cfg.TokenPath == "" {
		cfg.TokenPath = filepath.Join(configDir, "token")
	}
	if cfg.DataPath == "" {
		cfg.DataPath = filepath.Join(configDir, defaultDataFile(cfg.LocalStore))
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("ошибка конфигурации: %w", err)
	}

	return cfg, nil
}

// MustLoad - Load, паникующий при ошибке
func MustLoad(configFile string) *Config {
	cfg, err := Load(configFile)
	if err != nil {
		panic(err)
	}
	return cfg
}

func defaultDataFile(driver string) string {
	switch driver {
	case kv.DriverBadger:
		return "badger"
	default:
		return "cards.db"
	}
}

func (c *Config) validate() error {
	switch c.LocalStore {
	case kv.DriverSQLite, kv.DriverBadger, kv.DriverMemory:
	default:
		return fmt.Errorf("local_store должен быть sqlite, badger или memory, получено %q", c.LocalStore)
	}
	if c.LocalLatencyMS < 0 {
		return fmt.Errorf("local_latency_ms не может быть отрицательным")
	}
	if c.GeocodeDelayMS < 0 {
		return fmt.Errorf("geocode_delay_ms не может быть отрицательным")
	}
	return nil
}

// CloudActive - единственный флаг режима: задан адрес сервера.
// Проверяется один раз при запуске клиента.
func (c *Config) CloudActive() bool {
	return c.ServerAddress != ""
}

// BaseURL возвращает адрес сервера со схемой
func (c *Config) BaseURL() string {
	if strings.HasPrefix(c.ServerAddress, "http://") || strings.HasPrefix(c.ServerAddress, "https://") {
		return c.ServerAddress
	}
	scheme := "http://"
	if c.EnableTLS {
		scheme = "https://"
	}
	return scheme + c.ServerAddress
}

func (c *Config) LocalLatency() time.Duration {
	return time.Duration(c.LocalLatencyMS) * time.Millisecond
}

func (c *Config) GeocodeDelay() time.Duration {
	return time.Duration(c.GeocodeDelayMS) * time.Millisecond
}

func (c *Config) ConfirmWindowDuration() time.Duration {
	return time.Duration(c.ConfirmWindow) * time.Second
}

// IsProd проверяет, prod ли окружение
func (c *Config) IsProd() bool {
	return c.Env == logger.EnvProd
}

// IsLocal проверяет, local ли окружение
func (c *Config) IsLocal() bool {
	return c.Env == logger.EnvLocal || c.Env == ""
}
