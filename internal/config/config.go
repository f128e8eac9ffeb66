// Package config loads service configuration from an optional YAML file,
// a .env file and ARENA_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. ARENA_SERVER_HTTP_ADDR.
const EnvPrefix = "ARENA"

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Storage StorageConfig `mapstructure:"storage"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Arena   ArenaConfig   `mapstructure:"arena"`
	Closer  CloserConfig  `mapstructure:"closer"`
	Auth    AuthConfig    `mapstructure:"auth"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

// IsDev reports whether development-only surfaces may be enabled.
func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, "dev")
}

type ServerConfig struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	EnableAirdrop   bool          `mapstructure:"enable_airdrop"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type StorageConfig struct {
	Backend       string `mapstructure:"backend"` // memory | postgres
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	ClickhouseDSN string `mapstructure:"clickhouse_dsn"` // optional notification store
}

type CacheConfig struct {
	Backend       string        `mapstructure:"backend"` // memory | redis
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

type ArenaConfig struct {
	ProgramID      string `mapstructure:"program_id"`
	Authority      string `mapstructure:"authority"`
	Treasury       string `mapstructure:"treasury"`
	AutoInitialize bool   `mapstructure:"auto_initialize"`
	StakeReturn    string `mapstructure:"stake_return"` // principal | double
	Forfeit        string `mapstructure:"forfeit"`      // treasury | burn
}

type CloserConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

type AuthConfig struct {
	Insecure        bool          `mapstructure:"insecure"`
	SignatureWindow time.Duration `mapstructure:"signature_window"` // allowed X-Timestamp skew
}

// Load reads configuration. path may be empty or point to a missing file,
// in which case defaults and the environment are used.
func Load(path string) (Config, error) {
	// .env is optional.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.enable_airdrop", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("storage.backend", "memory")
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.clickhouse_dsn", "")
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl", "5s")
	v.SetDefault("arena.program_id", "")
	v.SetDefault("arena.authority", "")
	v.SetDefault("arena.treasury", "")
	v.SetDefault("arena.auto_initialize", false)
	v.SetDefault("arena.stake_return", "")
	v.SetDefault("arena.forfeit", "")
	v.SetDefault("closer.enabled", false)
	v.SetDefault("closer.schedule", "0 */5 * * * *")
	v.SetDefault("auth.insecure", false)
	v.SetDefault("auth.signature_window", "5m")
}

// Validate rejects combinations the server cannot start with.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case "memory":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return errors.New("storage.postgres_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}

	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown cache.backend %q", c.Cache.Backend)
	}

	if c.Server.EnableAirdrop && !c.App.IsDev() {
		return errors.New("server.enable_airdrop is only allowed when app.env is dev")
	}
	if c.Auth.Insecure && !c.App.IsDev() {
		return errors.New("auth.insecure is only allowed when app.env is dev")
	}
	if c.Auth.SignatureWindow < 0 {
		return errors.New("auth.signature_window must not be negative")
	}
	if c.Closer.Enabled && c.Arena.Authority == "" {
		return errors.New("closer.enabled requires arena.authority")
	}
	return nil
}
