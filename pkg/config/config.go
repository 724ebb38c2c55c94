// Package config loads maintcore configuration from an optional YAML file,
// an optional .env file, and MAINTCORE_* environment variables, in that
// order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	StorageKV         = "kv"
	StorageRelational = "relational"
)

// Key/value sub-drivers.
const (
	KVMemory     = "memory"
	KVFilesystem = "fs"
	KVS3         = "s3"
	KVRedis      = "redis"
)

// Relational transports, dialects, and binding styles.
const (
	TransportLoopback = "loopback"
	TransportHTTP     = "http"

	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"

	BindingNamed      = "named"
	BindingPositional = "positional"
)

// Lifecycle policies.
const (
	CascadeBestEffort = "best_effort"
	CascadeCompensate = "compensate"

	IDCounter = "counter"
	IDLength  = "length"
)

// Config is the root configuration.
type Config struct {
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
	Lifecycle LifecycleConfig `yaml:"lifecycle"`
	Bridge    BridgeConfig    `yaml:"bridge"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// StorageConfig selects and configures the backend adapter.
type StorageConfig struct {
	Driver     string           `yaml:"driver"`
	KV         KVConfig         `yaml:"kv"`
	Relational RelationalConfig `yaml:"relational"`
}

// KVConfig configures the key/value adapter and its host store.
type KVConfig struct {
	Driver string      `yaml:"driver"`
	Prefix string      `yaml:"prefix"`
	FSRoot string      `yaml:"fs_root"`
	S3     S3Config    `yaml:"s3"`
	Redis  RedisConfig `yaml:"redis"`
}

// S3Config configures the S3 / MinIO key/value store.
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// RedisConfig configures the redis key/value store.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RelationalConfig configures the relational adapter and the bridge it calls.
type RelationalConfig struct {
	Transport   string        `yaml:"transport"`
	Dialect     string        `yaml:"dialect"`
	SQLitePath  string        `yaml:"sqlite_path"`
	PostgresDSN string        `yaml:"postgres_dsn"`
	BridgeURL   string        `yaml:"bridge_url"`
	Binding     string        `yaml:"binding"`
	Timeout     time.Duration `yaml:"timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LifecycleConfig tunes lifecycle controllers.
type LifecycleConfig struct {
	NextMaintenanceMonths int    `yaml:"next_maintenance_months"`
	CascadePolicy         string `yaml:"cascade_policy"`
	IDStrategy            string `yaml:"id_strategy"`
}

// BridgeConfig configures the bridge receiving process.
type BridgeConfig struct {
	Listen string `yaml:"listen"`
}

// MetricsConfig configures metric naming.
type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
}

// Default returns the configuration used when nothing is set: the relational
// adapter over an embedded sqlite file reached through the loopback bridge.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Driver: StorageRelational,
			KV: KVConfig{
				Driver: KVMemory,
				FSRoot: "./maintdata",
				S3:     S3Config{Region: "us-east-1"},
				Redis:  RedisConfig{Address: "localhost:6379"},
			},
			Relational: RelationalConfig{
				Transport:  TransportLoopback,
				Dialect:    DialectSQLite,
				SQLitePath: "maintcore.db",
				Binding:    BindingNamed,
				Timeout:    10 * time.Second,
			},
		},
		Log:       LogConfig{Level: "INFO", Format: "CONSOLE"},
		Lifecycle: LifecycleConfig{NextMaintenanceMonths: 3, CascadePolicy: CascadeBestEffort, IDStrategy: IDCounter},
		Bridge:    BridgeConfig{Listen: ":8089"},
		Metrics:   MetricsConfig{Namespace: "maintcore"},
	}
}

// Load builds the configuration. path names an optional YAML file; an empty
// path skips it. A .env file in the working directory is loaded when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode config %s: %w", path, err)
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Storage.Driver, "MAINTCORE_STORAGE_DRIVER")
	setString(&cfg.Storage.KV.Driver, "MAINTCORE_KV_DRIVER")
	setString(&cfg.Storage.KV.Prefix, "MAINTCORE_KV_PREFIX")
	setString(&cfg.Storage.KV.FSRoot, "MAINTCORE_KV_FS_ROOT")
	setString(&cfg.Storage.KV.S3.Bucket, "MAINTCORE_KV_S3_BUCKET")
	setString(&cfg.Storage.KV.S3.Region, "MAINTCORE_KV_S3_REGION")
	setString(&cfg.Storage.KV.S3.Endpoint, "MAINTCORE_KV_S3_ENDPOINT")
	setString(&cfg.Storage.KV.S3.AccessKeyID, "MAINTCORE_KV_S3_ACCESS_KEY_ID")
	setString(&cfg.Storage.KV.S3.SecretAccessKey, "MAINTCORE_KV_S3_SECRET_ACCESS_KEY")
	setString(&cfg.Storage.KV.Redis.Address, "MAINTCORE_KV_REDIS_ADDRESS")
	setString(&cfg.Storage.KV.Redis.Password, "MAINTCORE_KV_REDIS_PASSWORD")
	setString(&cfg.Storage.Relational.Transport, "MAINTCORE_RELATIONAL_TRANSPORT")
	setString(&cfg.Storage.Relational.Dialect, "MAINTCORE_RELATIONAL_DIALECT")
	setString(&cfg.Storage.Relational.SQLitePath, "MAINTCORE_SQLITE_PATH")
	setString(&cfg.Storage.Relational.PostgresDSN, "MAINTCORE_POSTGRES_DSN")
	setString(&cfg.Storage.Relational.BridgeURL, "MAINTCORE_BRIDGE_URL")
	setString(&cfg.Storage.Relational.Binding, "MAINTCORE_RELATIONAL_BINDING")
	setString(&cfg.Log.Level, "MAINTCORE_LOG_LEVEL")
	setString(&cfg.Log.Format, "MAINTCORE_LOG_FORMAT")
	setString(&cfg.Lifecycle.CascadePolicy, "MAINTCORE_CASCADE_POLICY")
	setString(&cfg.Lifecycle.IDStrategy, "MAINTCORE_ID_STRATEGY")
	setString(&cfg.Bridge.Listen, "MAINTCORE_BRIDGE_LISTEN")
	setString(&cfg.Metrics.Namespace, "MAINTCORE_METRICS_NAMESPACE")

	if v, ok := os.LookupEnv("MAINTCORE_KV_S3_PATH_STYLE"); ok {
		cfg.Storage.KV.S3.PathStyle = strings.EqualFold(v, "true")
	}
	if err := setInt(&cfg.Storage.KV.Redis.DB, "MAINTCORE_KV_REDIS_DB"); err != nil {
		return err
	}
	if err := setInt(&cfg.Lifecycle.NextMaintenanceMonths, "MAINTCORE_NEXT_MAINTENANCE_MONTHS"); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("MAINTCORE_RELATIONAL_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("MAINTCORE_RELATIONAL_TIMEOUT: %w", err)
		}
		cfg.Storage.Relational.Timeout = d
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

// Validate rejects unknown drivers and missing required settings.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageKV:
		switch c.Storage.KV.Driver {
		case KVMemory, KVFilesystem, KVRedis:
		case KVS3:
			if c.Storage.KV.S3.Bucket == "" {
				return errors.New("storage.kv.s3.bucket required for s3 driver")
			}
		default:
			return fmt.Errorf("unknown kv driver %q", c.Storage.KV.Driver)
		}
	case StorageRelational:
		r := c.Storage.Relational
		switch r.Transport {
		case TransportLoopback:
			switch r.Dialect {
			case DialectSQLite:
			case DialectPostgres:
				if r.PostgresDSN == "" {
					return errors.New("storage.relational.postgres_dsn required for postgres dialect")
				}
			default:
				return fmt.Errorf("unknown relational dialect %q", r.Dialect)
			}
		case TransportHTTP:
			if r.BridgeURL == "" {
				return errors.New("storage.relational.bridge_url required for http transport")
			}
		default:
			return fmt.Errorf("unknown relational transport %q", r.Transport)
		}
		if r.Binding != BindingNamed && r.Binding != BindingPositional {
			return fmt.Errorf("unknown binding style %q", r.Binding)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Lifecycle.NextMaintenanceMonths < 0 {
		return errors.New("lifecycle.next_maintenance_months must not be negative")
	}
	if c.Lifecycle.CascadePolicy != CascadeBestEffort && c.Lifecycle.CascadePolicy != CascadeCompensate {
		return fmt.Errorf("unknown cascade policy %q", c.Lifecycle.CascadePolicy)
	}
	if c.Lifecycle.IDStrategy != IDCounter && c.Lifecycle.IDStrategy != IDLength {
		return fmt.Errorf("unknown id strategy %q", c.Lifecycle.IDStrategy)
	}
	return nil
}
