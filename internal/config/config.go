package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// DefaultConfigPath используется, когда путь не передан ни флагом, ни через окружение
const DefaultConfigPath = "config.yaml"

type LogConfig struct {
	Level      string `yaml:"level"`
	Path       string `yaml:"path"`
	ErrorPath  string `yaml:"errorpath"`
	MaxSize    int    `yaml:"maxsize"`
	MaxBackups int    `yaml:"maxbackups"`
	MaxAge     int    `yaml:"maxage"`
	Compress   bool   `yaml:"compress"`
	Console    bool   `yaml:"console"`
}

type ServerConfig struct {
	RunAddress      string        `yaml:"runaddress"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	StaticDir       string        `yaml:"static_dir"`
}

// StorageConfig описывает хранилище пользовательских настроек (тема оформления)
type StorageConfig struct {
	Type             string `yaml:"type"`
	DataPath         string `yaml:"data_path"`
	DBPath           string `yaml:"db_path"`
	ConnectionString string `yaml:"connection_string"`
	MigrationsPath   string `yaml:"migrations_path"`
}

type APIConfig struct {
	Token string `yaml:"token"`
}

// SessionConfig - подпись cookie клиента и время жизни состояния формы
type SessionConfig struct {
	Secret      string        `yaml:"secret"`
	TTL         time.Duration `yaml:"ttl"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// LogoConfig ограничивает загрузку логотипов
type LogoConfig struct {
	FetchTimeout         time.Duration `yaml:"fetch_timeout"`
	MaxUploadBytes       int64         `yaml:"max_upload_bytes"`
	AllowPrivateNetworks bool          `yaml:"allow_private_networks"`
}

type TelegramConfig struct {
	Token string `yaml:"token"`
}

// Config представляет структуру конфигурации
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"logger"`
	Storage  StorageConfig  `yaml:"storage"`
	API      APIConfig      `yaml:"api"`
	Session  SessionConfig  `yaml:"session"`
	Logo     LogoConfig     `yaml:"logo"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			RunAddress:      "localhost:8080",
			ShutdownTimeout: 5 * time.Second,
		},
		Log: LogConfig{
			Level:      "info",
			Path:       "./logs/codeform.log",
			ErrorPath:  "./logs/codeform_error.log",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Console:    true,
		},
		Storage: StorageConfig{
			Type:           "memory",
			DataPath:       "./data",
			DBPath:         "./data/codeform.db",
			MigrationsPath: "./migrations",
		},
		Session: SessionConfig{
			Secret:      "codeform-dev-secret",
			TTL:         30 * 24 * time.Hour,
			IdleTimeout: 2 * time.Hour,
		},
		Logo: LogoConfig{
			FetchTimeout:   5 * time.Second,
			MaxUploadBytes: 2 << 20,
		},
	}
}

// LoadConfig загружает конфигурацию из файла YAML.
// Пустой path означает CODEFORM_CONFIG или config.yaml; отсутствие файла не ошибка.
// Переменные окружения CODEFORM_* (в том числе из .env) имеют приоритет над файлом.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if path == "" {
		path = os.Getenv("CODEFORM_CONFIG")
	}
	if path == "" {
		path = DefaultConfigPath
	}

	config := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config data: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// работаем на значениях по умолчанию
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := applyEnv(config); err != nil {
		return nil, err
	}

	return config, nil
}

func applyEnv(c *Config) error {
	if v := os.Getenv("CODEFORM_RUN_ADDRESS"); v != "" {
		c.Server.RunAddress = v
	}
	if v := os.Getenv("CODEFORM_STATIC_DIR"); v != "" {
		c.Server.StaticDir = v
	}
	if v := os.Getenv("CODEFORM_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CODEFORM_LOG_PATH"); v != "" {
		c.Log.Path = v
	}
	if v := os.Getenv("CODEFORM_STORAGE_TYPE"); v != "" {
		c.Storage.Type = strings.ToLower(v)
	}
	if v := os.Getenv("CODEFORM_DATABASE_DSN"); v != "" {
		c.Storage.ConnectionString = v
	}
	if v := os.Getenv("CODEFORM_DB_PATH"); v != "" {
		c.Storage.DBPath = v
	}
	if v := os.Getenv("CODEFORM_API_TOKEN"); v != "" {
		c.API.Token = v
	}
	if v := os.Getenv("CODEFORM_SESSION_SECRET"); v != "" {
		c.Session.Secret = v
	}
	if v := os.Getenv("CODEFORM_TELEGRAM_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("CODEFORM_LOGO_FETCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CODEFORM_LOGO_FETCH_TIMEOUT %q: %w", v, err)
		}
		c.Logo.FetchTimeout = d
	}
	if v := os.Getenv("CODEFORM_LOGO_ALLOW_PRIVATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid CODEFORM_LOGO_ALLOW_PRIVATE %q: %w", v, err)
		}
		c.Logo.AllowPrivateNetworks = b
	}
	if v := os.Getenv("CODEFORM_LOGO_MAX_UPLOAD"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid CODEFORM_LOGO_MAX_UPLOAD %q: %w", v, err)
		}
		c.Logo.MaxUploadBytes = n
	}
	return nil
}
