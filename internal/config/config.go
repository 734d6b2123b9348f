package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/oasis-ingest/internal/timeconv"
)

// Config holds the full application configuration.
type Config struct {
	Ingest IngestConfig `yaml:"ingest" mapstructure:"ingest"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// IngestConfig configures report discovery and extraction.
type IngestConfig struct {
	XMLDir       string `yaml:"xml_dir" mapstructure:"xml_dir"`
	Extension    string `yaml:"extension" mapstructure:"extension"`
	ManifestPath string `yaml:"manifest_path" mapstructure:"manifest_path"`
	ResourceName string `yaml:"resource_name" mapstructure:"resource_name"`
	Namespace    string `yaml:"namespace" mapstructure:"namespace"`
	Timezone     string `yaml:"timezone" mapstructure:"timezone"`
}

// StoreConfig configures the SQLite database.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path" mapstructure:"database_path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("OASIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("ingest.xml_dir", "xml")
	v.SetDefault("ingest.extension", ".xml")
	v.SetDefault("ingest.manifest_path", "db/inserted.txt")
	v.SetDefault("ingest.resource_name", "data-oasis-atl-apnode-all")
	v.SetDefault("ingest.namespace", "http://www.caiso.com/soa/OASISReport_v1.xsd")
	v.SetDefault("ingest.timezone", "")
	v.SetDefault("store.database_path", "db/data-oasis-atl-apnode-all.db")
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

// Validate checks that the paths are set and the time zone resolves.
func (c *Config) Validate() error {
	switch {
	case c.Ingest.XMLDir == "":
		return eris.New("config: ingest.xml_dir is required")
	case c.Ingest.ManifestPath == "":
		return eris.New("config: ingest.manifest_path is required")
	case c.Store.DatabasePath == "":
		return eris.New("config: store.database_path is required")
	}
	if _, err := timeconv.LoadLocation(c.Ingest.Timezone); err != nil {
		return eris.Wrap(err, "config: ingest.timezone")
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
