package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. LATAMGRID_DATA_DIR.
const EnvPrefix = "LATAMGRID"

// Document source kinds accepted by data.source.
const (
	SourceDir   = "dir"
	SourceHTTP  = "http"
	SourceMinio = "minio"
)

// DataConfig locates the manifest, topology and scenario documents.
type DataConfig struct {
	Source           string        `mapstructure:"source"`
	Dir              string        `mapstructure:"dir"`
	BaseURL          string        `mapstructure:"base_url"`
	Manifest         string        `mapstructure:"manifest"`
	Topology         string        `mapstructure:"topology"`
	TopologyProperty string        `mapstructure:"topology_property"`
	Watch            bool          `mapstructure:"watch"`
	FetchTimeout     time.Duration `mapstructure:"fetch_timeout"`
}

// MinioConfig holds the bucket settings used when data.source is minio.
type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// RedisConfig enables the read-through document cache.
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type CacheConfig struct {
	Snapshots int `mapstructure:"snapshots"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type LogConfig struct {
	Verbose bool `mapstructure:"verbose"`
	JSON    bool `mapstructure:"json"`
}

// Config holds all runtime configuration for latamgrid.
// Values are populated from latamgrid.yaml, LATAMGRID_* env vars, and CLI flags.
type Config struct {
	Data   DataConfig   `mapstructure:"data"`
	Minio  MinioConfig  `mapstructure:"minio"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
}

// Init points viper at the config file and environment. An empty
// configFile searches for latamgrid.yaml in the working directory and the
// home directory. A missing file is not an error.
func Init(configFile string) error {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("latamgrid")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetDefault("data.source", SourceDir)
	viper.SetDefault("data.dir", "data")
	viper.SetDefault("data.base_url", "")
	viper.SetDefault("data.manifest", "scenarios.json")
	viper.SetDefault("data.topology", "ne_110m_admin_0_map_units-1.json")
	viper.SetDefault("data.topology_property", "ADMIN")
	viper.SetDefault("data.watch", false)
	viper.SetDefault("data.fetch_timeout", 30*time.Second)
	viper.SetDefault("minio.endpoint", "")
	viper.SetDefault("minio.access_key", "")
	viper.SetDefault("minio.secret_key", "")
	viper.SetDefault("minio.bucket", "")
	viper.SetDefault("minio.prefix", "")
	viper.SetDefault("minio.use_ssl", true)
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ttl", time.Hour)
	viper.SetDefault("cache.snapshots", 16)
	viper.SetDefault("server.port", 3000)
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("log.verbose", false)
	viper.SetDefault("log.json", false)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects combinations that cannot produce a document source.
func (c Config) Validate() error {
	switch c.Data.Source {
	case SourceDir:
		if c.Data.Dir == "" {
			return errors.New("config: data.dir is required for the dir source")
		}
	case SourceHTTP:
		if c.Data.BaseURL == "" {
			return errors.New("config: data.base_url is required for the http source")
		}
	case SourceMinio:
		if c.Minio.Endpoint == "" || c.Minio.Bucket == "" {
			return errors.New("config: minio.endpoint and minio.bucket are required for the minio source")
		}
	default:
		return fmt.Errorf("config: unknown data.source %q (want dir, http or minio)", c.Data.Source)
	}
	if c.Data.Manifest == "" {
		return errors.New("config: data.manifest must not be empty")
	}
	if c.Cache.Snapshots < 1 {
		return fmt.Errorf("config: cache.snapshots must be at least 1, got %d", c.Cache.Snapshots)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: unknown server.mode %q", c.Server.Mode)
	}
	return nil
}
