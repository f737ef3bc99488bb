package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultPort             = 8080
	defaultDBPath           = "pipeline.db"
	defaultExtractTimeout   = 10 * time.Second
	defaultExtractAttempts  = 3
	defaultRunTimeout       = 2 * time.Minute
	defaultMaxBatchSize     = 10000
	defaultLoadConcurrency  = 4
	defaultTransformWorkers = 4
)

// Config is the service runtime configuration. Values resolve in
// defaults < config file < PIPELINE_* environment precedence.
type Config struct {
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	Addr             string        `mapstructure:"-"`
	DBPath           string        `mapstructure:"db-path"`
	ExtractTimeout   time.Duration `mapstructure:"extract-timeout"`
	ExtractAttempts  int           `mapstructure:"extract-attempts"`
	RunTimeout       time.Duration `mapstructure:"run-timeout"`
	MaxBatchSize     int           `mapstructure:"max-batch-size"`
	LoadConcurrency  int           `mapstructure:"load-concurrency"`
	TransformWorkers int           `mapstructure:"transform-workers"`
}

// Load reads configuration from the optional file at configPath and the
// environment.
func Load(configPath string) (Config, error) {
	var cfg Config

	v := viper.New()
	v.SetEnvPrefix("PIPELINE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("host", "")
	v.SetDefault("port", defaultPort)
	v.SetDefault("db-path", defaultDBPath)
	v.SetDefault("extract-timeout", defaultExtractTimeout)
	v.SetDefault("extract-attempts", defaultExtractAttempts)
	v.SetDefault("run-timeout", defaultRunTimeout)
	v.SetDefault("max-batch-size", defaultMaxBatchSize)
	v.SetDefault("load-concurrency", defaultLoadConcurrency)
	v.SetDefault("transform-workers", defaultTransformWorkers)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return cfg, err
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return cfg, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.ExtractAttempts < 1 {
		return cfg, fmt.Errorf("extract-attempts must be at least 1, got %d", cfg.ExtractAttempts)
	}
	if cfg.MaxBatchSize < 1 {
		return cfg, fmt.Errorf("max-batch-size must be at least 1, got %d", cfg.MaxBatchSize)
	}
	if cfg.LoadConcurrency < 1 {
		return cfg, fmt.Errorf("load-concurrency must be at least 1, got %d", cfg.LoadConcurrency)
	}

	cfg.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	return cfg, nil
}
