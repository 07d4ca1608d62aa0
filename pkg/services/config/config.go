package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Server struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

type Store struct {
	DbPath     string `mapstructure:"db_path"`
	SourcePath string `mapstructure:"source_path"`
}

type Query struct {
	RowLimit      int `mapstructure:"row_limit"`
	GroupLimit    int `mapstructure:"group_limit"`
	EnrichWorkers int `mapstructure:"enrich_workers"`
}

type Config struct {
	Server Server `mapstructure:"server"`
	Store  Store  `mapstructure:"store"`
	Query  Query  `mapstructure:"query"`
}

// Load reads the service configuration from an optional YAML file, with
// CUR_-prefixed environment variables taking precedence. A missing file is
// fine; defaults cover everything except the source export path.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("store.db_path", "cur-atlas.db")
	v.SetDefault("store.source_path", "cur2.csv")
	v.SetDefault("query.row_limit", 500)
	v.SetDefault("query.group_limit", 2)
	v.SetDefault("query.enrich_workers", 4)

	v.SetEnvPrefix("CUR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
