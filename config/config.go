package config

import (
	"errors"
	"os"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type DatabaseConfig struct {
	Driver      string        `mapstructure:"driver"`
	DSN         string        `mapstructure:"dsn"`
	Debug       bool          `mapstructure:"debug"`
	PingTimeout time.Duration `mapstructure:"ping_timeout"`
}

type MailConfig struct {
	Server        string `mapstructure:"server"`
	Port          int    `mapstructure:"port"`
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
	DefaultSender string `mapstructure:"default_sender"`
	UseTLS        bool   `mapstructure:"use_tls"`
	UseSSL        bool   `mapstructure:"use_ssl"`
}

type HTTPConfig struct {
	Addr          string `mapstructure:"addr"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

type QueueConfig struct {
	Name        string `mapstructure:"name"`
	MaxAttempts int    `mapstructure:"max_attempts"`
}

type RateLimitConfig struct {
	LoginLimit int           `mapstructure:"login_limit"`
	Window     time.Duration `mapstructure:"window"`
}

type SeedConfig struct {
	AdminEmail     string `mapstructure:"admin_email"`
	AdminPassword  string `mapstructure:"admin_password"`
	MemberEmail    string `mapstructure:"member_email"`
	MemberPassword string `mapstructure:"member_password"`
}

type Config struct {
	ServiceName          string          `mapstructure:"service_name"`
	Env                  string          `mapstructure:"env"`
	LogLevel             string          `mapstructure:"log_level"`
	SecretKey            string          `mapstructure:"secret_key"`
	JWTSecretKey         string          `mapstructure:"jwt_secret_key"`
	AccessTokenExp       int             `mapstructure:"access_token_exp"`
	RefreshTokenExp      int             `mapstructure:"refresh_token_exp"`
	UserUnusablePassword string          `mapstructure:"user_unusable_password"`
	RedisURL             string          `mapstructure:"redis_url"`
	Database             DatabaseConfig  `mapstructure:"database"`
	Mail                 MailConfig      `mapstructure:"mail"`
	HTTP                 HTTPConfig      `mapstructure:"http"`
	Queue                QueueConfig     `mapstructure:"queue"`
	RateLimit            RateLimitConfig `mapstructure:"rate_limit"`
	Seed                 SeedConfig      `mapstructure:"seed"`
}

// AccessTokenTTL is access_token_exp in minutes
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExp) * time.Minute
}

// RefreshTokenTTL is refresh_token_exp in days
func (c *Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenExp) * 24 * time.Hour
}

// Validate checks the settings the application cannot start without
func (c *Config) Validate() error {
	missing := []string{}
	if c.SecretKey == "" {
		missing = append(missing, "secret_key")
	}
	if c.JWTSecretKey == "" {
		missing = append(missing, "jwt_secret_key")
	}
	if c.Database.DSN == "" {
		missing = append(missing, "database.dsn")
	}
	if len(missing) > 0 {
		return goerrors.New("missing required configuration", goerrors.CategoryValidation).
			WithMetadata(map[string]any{"missing": missing})
	}
	return nil
}

// Load reads an optional .env file, then the optional config file at
// path, then environment variables. Nested keys map to upper case env
// names with underscores, mail.server is MAIL_SERVER.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to read .env file")
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to read config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to unmarshal config")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "auth-starter")
	v.SetDefault("env", "dev")
	v.SetDefault("log_level", "info")
	v.SetDefault("secret_key", "")
	v.SetDefault("jwt_secret_key", "")
	v.SetDefault("access_token_exp", 15)
	v.SetDefault("refresh_token_exp", 7)
	v.SetDefault("user_unusable_password", "")
	v.SetDefault("redis_url", "redis://localhost:6379/0")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.debug", false)
	v.SetDefault("database.ping_timeout", "5s")
	v.SetDefault("mail.server", "localhost")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.default_sender", "noreply@localhost")
	v.SetDefault("mail.use_tls", true)
	v.SetDefault("mail.use_ssl", false)
	v.SetDefault("http.addr", ":8000")
	v.SetDefault("http.public_base_url", "http://localhost:8000")
	v.SetDefault("queue.name", "auth:deliveries")
	v.SetDefault("queue.max_attempts", 3)
	v.SetDefault("rate_limit.login_limit", 10)
	v.SetDefault("rate_limit.window", "1m")
	v.SetDefault("seed.admin_email", "admin@localhost")
	v.SetDefault("seed.admin_password", "")
	v.SetDefault("seed.member_email", "member@localhost")
	v.SetDefault("seed.member_password", "")
}
