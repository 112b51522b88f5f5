package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type HTTPServer struct {
	Port string `mapstructure:"port"`
}

type DbServer struct {
	Host              string `mapstructure:"host"`
	Port              string `mapstructure:"port"`
	User              string `mapstructure:"user"`
	Pass              string `mapstructure:"pass"`
	Name              string `mapstructure:"name"`
	MaxConns          int32  `mapstructure:"max_conns" validate:"gte=0"`
	ConnectRetries    int    `mapstructure:"connect_retries" validate:"gte=0"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds" validate:"gte=0"`
}

func (config *DbServer) GetConnectionStr() string {
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=disable",
		config.User, config.Pass, config.Host, config.Port, config.Name,
	)
}

// Configured reports whether enough connection values are present to try the store at all.
func (config *DbServer) Configured() bool {
	return config.Host != "" && config.Name != ""
}

type HTTPClient struct {
	TimeoutSeconds     int  `mapstructure:"timeout_seconds" validate:"gte=0"`
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify"`
}

type Provider struct {
	BaseURL  string `mapstructure:"base_url" validate:"required,url"`
	Timezone string `mapstructure:"timezone" validate:"required"`
}

type Storage struct {
	ChunkSize    int    `mapstructure:"chunk_size" validate:"gt=0,lte=10922"`
	FallbackFile string `mapstructure:"fallback_file"`
}

type Backfill struct {
	From         string `mapstructure:"from" validate:"omitempty,datetime=2006-01-02"`
	To           string `mapstructure:"to" validate:"omitempty,datetime=2006-01-02"`
	DelayMillis  int    `mapstructure:"delay_ms" validate:"gte=0"`
	SkipExisting bool   `mapstructure:"skip_existing"`
}

type Scheduler struct {
	Cron string `mapstructure:"cron"`
}

type Logging struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type Cache struct {
	MaxItems int64 `mapstructure:"max_items" validate:"gt=0"`
}

type AppConfig struct {
	HTTPServer HTTPServer `mapstructure:"http_server"`
	DbServer   DbServer   `mapstructure:"db_server"`
	HTTPClient HTTPClient `mapstructure:"http_client"`
	Provider   Provider   `mapstructure:"provider"`
	Storage    Storage    `mapstructure:"storage"`
	Backfill   Backfill   `mapstructure:"backfill"`
	Scheduler  Scheduler  `mapstructure:"scheduler"`
	Logging    Logging    `mapstructure:"logging"`
	Cache      Cache      `mapstructure:"cache"`
}

func (c *AppConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Provider.Timezone)
}

func (c *AppConfig) HTTPTimeout() time.Duration {
	timeout := time.Duration(c.HTTPClient.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return timeout
}

func (c *AppConfig) BackfillDelay() time.Duration {
	return time.Duration(c.Backfill.DelayMillis) * time.Millisecond
}

// Init loads .env (if any), the YAML file at path (if any), defaults and env overrides.
func Init(path string) (*AppConfig, error) {
	var cfg AppConfig

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetDefault("db_server.port", "5432")
	v.SetDefault("db_server.max_conns", 4)
	v.SetDefault("db_server.connect_retries", 2)
	v.SetDefault("db_server.retry_delay_seconds", 1)
	v.SetDefault("http_client.timeout_seconds", 10)
	v.SetDefault("http_client.insecure_skip_verify", false)
	v.SetDefault("http_server.port", "8080")
	v.SetDefault("provider.base_url", "https://www.cbr.ru/scripts/XML_daily.asp")
	v.SetDefault("provider.timezone", "Europe/Moscow")
	v.SetDefault("storage.chunk_size", 1000)
	v.SetDefault("storage.fallback_file", "currency_backup.csv")
	v.SetDefault("backfill.from", "2000-01-02")
	v.SetDefault("backfill.to", "2015-06-24")
	v.SetDefault("backfill.delay_ms", 500)
	v.SetDefault("backfill.skip_existing", false)
	v.SetDefault("scheduler.cron", "0 16 * * *")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "currency_app.log")
	v.SetDefault("cache.max_items", 8192)

	// db server env vars
	_ = v.BindEnv("db_server.host", "DB_HOST")
	_ = v.BindEnv("db_server.port", "DB_PORT")
	_ = v.BindEnv("db_server.user", "DB_USER")
	_ = v.BindEnv("db_server.pass", "DB_PASSWORD", "DB_PASS")
	_ = v.BindEnv("db_server.name", "DB_NAME")
	_ = v.BindEnv("db_server.max_conns", "DB_MAX_CONNS")
	_ = v.BindEnv("db_server.connect_retries", "DB_CONNECT_RETRIES")

	// http client env vars
	_ = v.BindEnv("http_client.timeout_seconds", "HTTP_CLIENT_TIMEOUT_SECONDS")

	_ = v.BindEnv("http_server.port", "HTTP_PORT")
	_ = v.BindEnv("provider.base_url", "CBR_BASE_URL")
	_ = v.BindEnv("storage.fallback_file", "FALLBACK_FILE")
	_ = v.BindEnv("logging.level", "LOG_LEVEL")
	_ = v.BindEnv("logging.file", "LOG_FILE")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their config keys, e.g. storage.chunk_size
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		return strings.SplitN(field.Tag.Get("mapstructure"), ",", 2)[0]
	})
	return v
}

func (c *AppConfig) validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return describe(fieldErrs[0])
		}
		return fmt.Errorf("error validating config: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid provider.timezone %q: %w", c.Provider.Timezone, err)
	}
	return nil
}

func describe(fe validator.FieldError) error {
	key := fe.Namespace()
	if i := strings.Index(key, "."); i >= 0 {
		key = key[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", key)
	case "gt":
		return fmt.Errorf("%s must be positive, got %v", key, fe.Value())
	case "gte":
		return fmt.Errorf("%s must not be negative, got %v", key, fe.Value())
	case "lte":
		return fmt.Errorf("%s must be at most %s, got %v", key, fe.Param(), fe.Value())
	case "url":
		return fmt.Errorf("%s must be a valid URL, got %q", key, fe.Value())
	case "datetime":
		return fmt.Errorf("%s must be a YYYY-MM-DD date, got %q", key, fe.Value())
	default:
		return fmt.Errorf("%s failed %q validation", key, fe.Tag())
	}
}
