package config

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverDynamoDB = "dynamodb"
	DriverSQLite   = "sqlite"

	DefaultAddr             = ":8080"
	DefaultInteractionsPath = "/interactions"
	DefaultFeedPath         = "/ws"
	DefaultAPIBaseURL       = "https://discord.com/api/v10"
)

// Config содержит все настройки сервиса.
type Config struct {
	Server    ServerConfig    `json:"server" yaml:"server"`
	Discord   DiscordConfig   `json:"discord" yaml:"discord"`
	Store     StoreConfig     `json:"store" yaml:"store"`
	Dashboard DashboardConfig `json:"dashboard" yaml:"dashboard"`
	Log       LogConfig       `json:"log" yaml:"log"`
}

type ServerConfig struct {
	Addr             string `json:"addr" yaml:"addr"`                           // адрес HTTP-сервера (например, ":8080")
	InteractionsPath string `json:"interactions_path" yaml:"interactions_path"` // путь вебхука Discord
	FeedPath         string `json:"feed_path" yaml:"feed_path"`                 // путь WebSocket-ленты
}

type DiscordConfig struct {
	PublicKey      string  `json:"public_key" yaml:"public_key"`           // ed25519, hex
	ApplicationID  string  `json:"application_id" yaml:"application_id"`   // нужен для редактирования ответов и регистрации команд
	BotToken       string  `json:"bot_token" yaml:"bot_token"`             // статический токен (локальный запуск)
	TokenParameter string  `json:"token_parameter" yaml:"token_parameter"` // имя параметра SSM с токеном
	APIBaseURL     string  `json:"api_base_url" yaml:"api_base_url"`
	RateLimit      float64 `json:"rate_limit" yaml:"rate_limit"` // запросов в секунду
	RateBurst      int     `json:"rate_burst" yaml:"rate_burst"`
}

type StoreConfig struct {
	Driver     string `json:"driver" yaml:"driver"`
	TableName  string `json:"table_name" yaml:"table_name"`
	Region     string `json:"region" yaml:"region"`
	Endpoint   string `json:"endpoint" yaml:"endpoint"` // локальный DynamoDB
	SQLitePath string `json:"sqlite_path" yaml:"sqlite_path"`
}

type DashboardConfig struct {
	RefreshSchedule string `json:"refresh_schedule" yaml:"refresh_schedule"` // cron-выражение, пусто = выключено
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // text | json
}

// envOverrides читается из окружения и перекрывает значения из файла.
type envOverrides struct {
	TableName       string  `env:"DYNAMODB_TABLE_NAME"`
	PublicKey       string  `env:"DISCORD_PUBLIC_KEY"`
	ApplicationID   string  `env:"DISCORD_APPLICATION_ID"`
	BotToken        string  `env:"DISCORD_BOT_TOKEN"`
	TokenParameter  string  `env:"DISCORD_TOKEN_PARAMETER"`
	APIBaseURL      string  `env:"DISCORD_API_BASE_URL"`
	RateLimit       float64 `env:"DISCORD_RATE_LIMIT"`
	Addr            string  `env:"EVENTBOARD_ADDR"`
	Driver          string  `env:"EVENTBOARD_STORE_DRIVER"`
	SQLitePath      string  `env:"EVENTBOARD_SQLITE_PATH"`
	Region          string  `env:"AWS_REGION"`
	Endpoint        string  `env:"EVENTBOARD_DYNAMODB_ENDPOINT"`
	LogLevel        string  `env:"EVENTBOARD_LOG_LEVEL"`
	LogFormat       string  `env:"EVENTBOARD_LOG_FORMAT"`
	RefreshSchedule string  `env:"EVENTBOARD_REFRESH_SCHEDULE"`
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,255}$`)

// Default возвращает конфигурацию со значениями по умолчанию.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:             DefaultAddr,
			InteractionsPath: DefaultInteractionsPath,
			FeedPath:         DefaultFeedPath,
		},
		Discord: DiscordConfig{
			APIBaseURL: DefaultAPIBaseURL,
			RateLimit:  5,
			RateBurst:  5,
		},
		Store: StoreConfig{
			Driver:     DriverDynamoDB,
			SQLitePath: "eventboard.db",
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// LoadConfig загружает конфигурацию: значения по умолчанию, затем файл (JSON или YAML),
// затем .env и переменные окружения. Отсутствующий файл не считается ошибкой.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (cfg *Config) applyEnv() error {
	var env envOverrides
	if err := envdecode.Decode(&env); err != nil {
		if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
			return nil
		}
		return fmt.Errorf("decode environment: %w", err)
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Store.TableName, env.TableName)
	set(&cfg.Discord.PublicKey, env.PublicKey)
	set(&cfg.Discord.ApplicationID, env.ApplicationID)
	set(&cfg.Discord.BotToken, env.BotToken)
	set(&cfg.Discord.TokenParameter, env.TokenParameter)
	set(&cfg.Discord.APIBaseURL, env.APIBaseURL)
	set(&cfg.Server.Addr, env.Addr)
	set(&cfg.Store.Driver, env.Driver)
	set(&cfg.Store.SQLitePath, env.SQLitePath)
	set(&cfg.Store.Region, env.Region)
	set(&cfg.Store.Endpoint, env.Endpoint)
	set(&cfg.Log.Level, env.LogLevel)
	set(&cfg.Log.Format, env.LogFormat)
	set(&cfg.Dashboard.RefreshSchedule, env.RefreshSchedule)
	if env.RateLimit > 0 {
		cfg.Discord.RateLimit = env.RateLimit
	}
	return nil
}

// Validate проверяет обязательные параметры. Ошибка здесь должна прерывать запуск.
func (cfg *Config) Validate() error {
	var errs []error

	if cfg.Store.TableName == "" {
		errs = append(errs, errors.New("table name is not set (DYNAMODB_TABLE_NAME)"))
	} else if !tableNamePattern.MatchString(cfg.Store.TableName) {
		errs = append(errs, fmt.Errorf("table name %q is invalid", cfg.Store.TableName))
	}

	if cfg.Discord.PublicKey == "" {
		errs = append(errs, errors.New("discord public key is not set (DISCORD_PUBLIC_KEY)"))
	} else if key, err := hex.DecodeString(cfg.Discord.PublicKey); err != nil || len(key) != 32 {
		errs = append(errs, errors.New("discord public key must be 32 bytes of hex"))
	}

	if cfg.Discord.BotToken == "" && cfg.Discord.TokenParameter == "" {
		errs = append(errs, errors.New("bot credential source is not set (DISCORD_BOT_TOKEN or DISCORD_TOKEN_PARAMETER)"))
	}

	switch cfg.Store.Driver {
	case DriverDynamoDB:
	case DriverSQLite:
		if cfg.Store.SQLitePath == "" {
			errs = append(errs, errors.New("sqlite path is not set"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", cfg.Store.Driver))
	}

	if cfg.Discord.RateLimit <= 0 || cfg.Discord.RateBurst <= 0 {
		errs = append(errs, errors.New("discord rate limit and burst must be positive"))
	}

	if _, err := cfg.LogLevel(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// LogLevel разбирает уровень логирования.
func (cfg *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", cfg.Log.Level)
	}
	return level, nil
}

// NewLogger создаёт логгер согласно настройкам.
func (cfg *Config) NewLogger() *slog.Logger {
	level, _ := cfg.LogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
