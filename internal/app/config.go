package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/linguapath-backend/internal/data/db"
	"github.com/yungbote/linguapath-backend/internal/observability"
	"github.com/yungbote/linguapath-backend/internal/platform/cache"
	"github.com/yungbote/linguapath-backend/internal/platform/envutil"
	"github.com/yungbote/linguapath-backend/internal/platform/logger"
)

const defaultConfigPath = "config/config.yaml"

type DatabaseConfig struct {
	Driver        string        `yaml:"driver"`
	Host          string        `yaml:"host"`
	Port          string        `yaml:"port"`
	User          string        `yaml:"user"`
	Password      string        `yaml:"password"`
	Name          string        `yaml:"name"`
	SSLMode       string        `yaml:"ssl_mode"`
	SQLitePath    string        `yaml:"sqlite_path"`
	MaxOpenConns  int           `yaml:"max_open_conns"`
	MaxIdleConns  int           `yaml:"max_idle_conns"`
	SlowThreshold time.Duration `yaml:"slow_threshold"`
}

type CacheConfig struct {
	Backend       string `yaml:"backend"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	KeyPrefix     string `yaml:"key_prefix"`
	BadgerPath    string `yaml:"badger_path"`
}

type ReportsConfig struct {
	CacheTTL       time.Duration `yaml:"cache_ttl"`
	CacheVersioned bool          `yaml:"cache_versioned"`
	Workers        int           `yaml:"workers"`
}

type ProgressConfig struct {
	// UnitCompletionThreshold is in (0, 1].
	UnitCompletionThreshold float64 `yaml:"unit_completion_threshold"`
}

type Config struct {
	LogMode        string         `yaml:"log_mode"`
	Port           string         `yaml:"port"`
	CORSOrigins    []string       `yaml:"cors_origins"`
	JWTSecretKey   string         `yaml:"jwt_secret_key"`
	MetricsEnabled bool           `yaml:"metrics_enabled"`
	Database       DatabaseConfig `yaml:"database"`
	Cache          CacheConfig    `yaml:"cache"`
	Reports        ReportsConfig  `yaml:"reports"`
	Progress       ProgressConfig `yaml:"progress"`

	Otel observability.OtelConfig `yaml:"-"`
}

func DefaultConfig() Config {
	return Config{
		LogMode:        "development",
		Port:           "8080",
		MetricsEnabled: true,
		Database: DatabaseConfig{
			Driver:        db.DriverPostgres,
			Host:          "localhost",
			Port:          "5432",
			User:          "postgres",
			Name:          "linguapath",
			SSLMode:       "disable",
			SlowThreshold: time.Second,
		},
		Cache: CacheConfig{
			Backend:   cache.BackendMemory,
			RedisAddr: "localhost:6379",
			KeyPrefix: "linguapath:",
		},
		Reports: ReportsConfig{
			CacheTTL:       10 * time.Minute,
			CacheVersioned: true,
			Workers:        8,
		},
		Progress: ProgressConfig{UnitCompletionThreshold: 1},
	}
}

// LoadConfig layers defaults, an optional YAML file, .env and the process
// environment, then validates the result.
func LoadConfig(log *logger.Logger) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := DefaultConfig()
	path := envutil.String("LINGUAPATH_CONFIG_PATH", "")
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := decodeConfig(f, &cfg); err != nil {
			return Config{}, fmt.Errorf("config file %s: %w", path, err)
		}
		if log != nil {
			log.Info("Loaded config file", "path", path)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("open config file %s: %w", path, err)
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeConfig(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)
	cfg.Port = envutil.String("PORT", cfg.Port)
	cfg.CORSOrigins = envutil.List("CORS_ORIGINS", cfg.CORSOrigins)
	cfg.JWTSecretKey = envutil.String("JWT_SECRET_KEY", cfg.JWTSecretKey)
	cfg.MetricsEnabled = envutil.Bool("METRICS_ENABLED", cfg.MetricsEnabled)

	d := &cfg.Database
	d.Driver = envutil.String("DB_DRIVER", d.Driver)
	d.Host = envutil.String("POSTGRES_HOST", d.Host)
	d.Port = envutil.String("POSTGRES_PORT", d.Port)
	d.User = envutil.String("POSTGRES_USER", d.User)
	d.Password = envutil.String("POSTGRES_PASSWORD", d.Password)
	d.Name = envutil.String("POSTGRES_NAME", d.Name)
	d.SSLMode = envutil.String("POSTGRES_SSLMODE", d.SSLMode)
	d.SQLitePath = envutil.String("SQLITE_PATH", d.SQLitePath)
	d.MaxOpenConns = envutil.Int("DB_MAX_OPEN_CONNS", d.MaxOpenConns)
	d.MaxIdleConns = envutil.Int("DB_MAX_IDLE_CONNS", d.MaxIdleConns)
	d.SlowThreshold = envutil.Duration("DB_SLOW_THRESHOLD", d.SlowThreshold)

	c := &cfg.Cache
	c.Backend = envutil.String("CACHE_BACKEND", c.Backend)
	c.RedisAddr = envutil.String("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = envutil.String("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = envutil.Int("REDIS_DB", c.RedisDB)
	c.KeyPrefix = envutil.String("CACHE_KEY_PREFIX", c.KeyPrefix)
	c.BadgerPath = envutil.String("BADGER_PATH", c.BadgerPath)

	r := &cfg.Reports
	r.CacheTTL = envutil.Duration("REPORT_CACHE_TTL", r.CacheTTL)
	r.CacheVersioned = envutil.Bool("REPORT_CACHE_VERSIONED", r.CacheVersioned)
	r.Workers = envutil.Int("REPORT_WORKERS", r.Workers)

	cfg.Progress.UnitCompletionThreshold = envutil.Float("UNIT_COMPLETION_THRESHOLD", cfg.Progress.UnitCompletionThreshold)

	cfg.Otel = observability.OtelConfigFromEnv()
}

func (c Config) Validate() error {
	var problems []string
	switch strings.ToLower(c.Database.Driver) {
	case db.DriverPostgres, db.DriverSQLite:
	default:
		problems = append(problems, fmt.Sprintf("database driver %q is not postgres or sqlite", c.Database.Driver))
	}
	switch strings.ToLower(c.Cache.Backend) {
	case cache.BackendMemory, cache.BackendRedis, cache.BackendBadger, cache.BackendNone:
	default:
		problems = append(problems, fmt.Sprintf("cache backend %q is not memory, redis, badger or none", c.Cache.Backend))
	}
	if strings.EqualFold(c.Cache.Backend, cache.BackendRedis) && strings.TrimSpace(c.Cache.RedisAddr) == "" {
		problems = append(problems, "redis cache backend needs REDIS_ADDR")
	}
	if t := c.Progress.UnitCompletionThreshold; t <= 0 || t > 1 {
		problems = append(problems, fmt.Sprintf("unit completion threshold %v is outside (0, 1]", t))
	}
	if c.Reports.Workers < 1 {
		problems = append(problems, "report workers must be at least 1")
	}
	if c.Reports.CacheTTL < 0 {
		problems = append(problems, "report cache ttl must not be negative")
	}
	if strings.TrimSpace(c.Port) == "" {
		problems = append(problems, "port is required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c Config) DB() db.Config {
	return db.Config{
		Driver:           c.Database.Driver,
		PostgresHost:     c.Database.Host,
		PostgresPort:     c.Database.Port,
		PostgresUser:     c.Database.User,
		PostgresPassword: c.Database.Password,
		PostgresName:     c.Database.Name,
		PostgresSSLMode:  c.Database.SSLMode,
		SQLitePath:       c.Database.SQLitePath,
		SlowThreshold:    c.Database.SlowThreshold,
		MaxOpenConns:     c.Database.MaxOpenConns,
		MaxIdleConns:     c.Database.MaxIdleConns,
	}
}

func (c Config) CacheStore() cache.Config {
	return cache.Config{
		Backend:       c.Cache.Backend,
		RedisAddr:     c.Cache.RedisAddr,
		RedisPassword: c.Cache.RedisPassword,
		RedisDB:       c.Cache.RedisDB,
		KeyPrefix:     c.Cache.KeyPrefix,
		BadgerPath:    c.Cache.BadgerPath,
	}
}
