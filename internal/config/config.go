package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/fleet-import/internal/ingest"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig    `yaml:"store" mapstructure:"store"`
	Import ingest.Options `yaml:"import" mapstructure:"import"`
	Server ServerConfig   `yaml:"server" mapstructure:"server"`
	Log    LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string  `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string  `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32   `yaml:"max_conns" mapstructure:"max_conns"`
	MaxQPS      float64 `yaml:"max_qps" mapstructure:"max_qps"`
}

// ServerConfig configures the HTTP upload server.
type ServerConfig struct {
	Port              int      `yaml:"port" mapstructure:"port"`
	MaxUploadMB       int      `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
	SessionTTLMinutes int      `yaml:"session_ttl_minutes" mapstructure:"session_ttl_minutes"`
	AllowedOrigins    []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// EnvPrefix prefixes every environment override, e.g. FLEET_STORE_DRIVER.
const EnvPrefix = "FLEET"

// Load reads configuration from .env, config.yaml and the environment, in
// increasing precedence.
func Load() (*Config, error) {
	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, eris.Wrap(err, "config: read .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "fleet.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.max_qps", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_upload_mb", 10)
	v.SetDefault("server.session_ttl_minutes", 30)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("import.preview_limit", 20)
	v.SetDefault("import.expense_batch_size", 50)
	v.SetDefault("import.trip_batch_size", 0)
	v.SetDefault("import.fuzzy_tolerance", 0.05)
	v.SetDefault("import.strict_idempotency", false)

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

// Validate checks the settings a command needs. mode is "import" for the
// CLI import commands and migrate, "serve" for the HTTP server.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch strings.ToLower(c.Store.Driver) {
	case "postgres", "postgresql":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for the postgres driver")
		}
	case "sqlite", "memory":
	default:
		errs = append(errs, "store.driver must be postgres, sqlite or memory")
	}
	if c.Store.MaxQPS < 0 {
		errs = append(errs, "store.max_qps must not be negative")
	}
	if c.Import.ExpenseBatchSize < 0 || c.Import.TripBatchSize < 0 {
		errs = append(errs, "import batch sizes must not be negative")
	}
	if c.Import.FuzzyTolerance < 0 || c.Import.FuzzyTolerance >= 1 {
		errs = append(errs, "import.fuzzy_tolerance must be in [0, 1)")
	}

	if mode == "serve" {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be between 1 and 65535")
		}
		if c.Server.MaxUploadMB <= 0 {
			errs = append(errs, "server.max_upload_mb must be positive")
		}
	}

	if len(errs) > 0 {
		return eris.New("config: " + strings.Join(errs, "; "))
	}
	return nil
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
