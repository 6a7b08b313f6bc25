package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cityequip/cityequip/internal/ingest"
	"github.com/cityequip/cityequip/internal/store"
)

// EnvPrefix namespaces every environment override, e.g. CITYEQUIP_SERVER_PORT.
const EnvPrefix = "CITYEQUIP"

// DotEnvFiles are loaded, when present, before configuration is read.
var DotEnvFiles = []string{".env", "variables.env"}

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Source SourceConfig `yaml:"source" mapstructure:"source"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Seed   SeedConfig   `yaml:"seed" mapstructure:"seed"`
	Fetch  FetchConfig  `yaml:"fetch" mapstructure:"fetch"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
	// ConnectAttempts bounds retries of transient connection failures at boot.
	ConnectAttempts int `yaml:"connect_attempts" mapstructure:"connect_attempts"`
}

// PoolConfig returns the Postgres pool tuning for this store.
func (s StoreConfig) PoolConfig() *store.PoolConfig {
	return &store.PoolConfig{MaxConns: s.MaxConns, MinConns: s.MinConns}
}

// SourceConfig locates the equipment extract.
type SourceConfig struct {
	Path    string           `yaml:"path" mapstructure:"path"`
	URL     string           `yaml:"url" mapstructure:"url"`
	Charset string           `yaml:"charset" mapstructure:"charset"`
	Columns ingest.ColumnMap `yaml:"columns" mapstructure:"columns"`
}

// IngestSource converts the config into the loader's source description.
func (s SourceConfig) IngestSource() ingest.Source {
	return ingest.Source{Path: s.Path, Charset: s.Charset, Columns: s.Columns}
}

// ServerConfig configures the REST server.
type ServerConfig struct {
	Port             int      `yaml:"port" mapstructure:"port"`
	APIKeys          []string `yaml:"api_keys" mapstructure:"api_keys"`
	CORSOrigins      []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	RateLimit        float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst        int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	ResetTimeoutSecs int      `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// SeedConfig controls startup seeding.
type SeedConfig struct {
	OnStartup bool `yaml:"on_startup" mapstructure:"on_startup"`
}

// FetchConfig configures downloading the extract.
type FetchConfig struct {
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int `yaml:"max_retries" mapstructure:"max_retries"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// LoadDotEnv loads each existing file into the process environment without
// overriding variables that are already set. It returns the files loaded.
func LoadDotEnv(files ...string) ([]string, error) {
	var loaded []string
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return loaded, eris.Wrapf(err, "config: load %s", f)
		}
		loaded = append(loaded, f)
	}
	return loaded, nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unprefixed names used by existing deployments.
	aliases := map[string][]string{
		"store.database_url": {"DATABASE_URL", "DATABASE"},
		"source.path":        {"CSV_PATH"},
		"server.api_keys":    {"API_SECRET"},
		"server.port":        {"PORT"},
	}
	for key, names := range aliases {
		envName := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(append([]string{key, envName}, names...)...); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

	// Defaults
	cols := ingest.DefaultColumns()
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("store.connect_attempts", 5)
	v.SetDefault("store.database_url", "")
	v.SetDefault("source.path", "data/equipaments.csv")
	v.SetDefault("source.url", "")
	v.SetDefault("source.charset", ingest.DefaultCharset)
	v.SetDefault("source.columns.name", cols.Name)
	v.SetDefault("source.columns.schedule", cols.Schedule)
	v.SetDefault("source.columns.type", cols.Type)
	v.SetDefault("source.columns.municipal", cols.Municipal)
	v.SetDefault("source.columns.latitude", cols.Latitude)
	v.SetDefault("source.columns.longitude", cols.Longitude)
	v.SetDefault("source.columns.address", cols.Address)
	v.SetDefault("source.columns.phone", cols.Phone)
	v.SetDefault("source.columns.district", cols.District)
	v.SetDefault("source.columns.agency_code", cols.AgencyCode)
	v.SetDefault("source.columns.agency_name", cols.AgencyName)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.api_keys", []string{})
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 10.0)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("server.reset_timeout_secs", 120)
	v.SetDefault("seed.on_startup", true)
	v.SetDefault("fetch.timeout_secs", 120)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
