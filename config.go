package datascope

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// envPrefix is the prefix of environment variables read by LoadConfig
const envPrefix = "DATASCOPE"

// Config stores the tunables of a session.
// The values are read by viper from a config file or environment variables.
type Config struct {
	// PageCapacity is the number of data rows per page.
	PageCapacity int `mapstructure:"pageCapacity"`
	// DefaultMaxPoints is the chart point budget used when none is requested.
	DefaultMaxPoints int `mapstructure:"defaultMaxPoints"`
	// ThumbnailPoints is the target number of points of a page preview.
	ThumbnailPoints int `mapstructure:"thumbnailPoints"`
	// InferSampleSize is the number of rows used for column type inference.
	InferSampleSize int `mapstructure:"inferSampleSize"`
	// Workers bounds background thumbnail generation.
	Workers int `mapstructure:"workers"`
	// MemoryLimitMB is the heap limit checked before loading a file. Zero
	// disables the check.
	MemoryLimitMB int64 `mapstructure:"memoryLimitMB"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		PageCapacity:     DefaultPageCapacity,
		DefaultMaxPoints: DefaultMaxPoints,
		ThumbnailPoints:  DefaultThumbnailPoints,
		InferSampleSize:  DefaultInferSampleSize,
		Workers:          max(1, runtime.NumCPU()/2),
		MemoryLimitMB:    0,
	}
}

// Validate checks the configuration for unusable values.
func (c Config) Validate() error {
	switch {
	case c.PageCapacity <= 0:
		return fmt.Errorf("pageCapacity must be positive, got %d", c.PageCapacity)
	case c.DefaultMaxPoints < MinPoints || c.DefaultMaxPoints > MaxPoints:
		return fmt.Errorf("defaultMaxPoints must be within [%d, %d], got %d", MinPoints, MaxPoints, c.DefaultMaxPoints)
	case c.ThumbnailPoints <= 0:
		return fmt.Errorf("thumbnailPoints must be positive, got %d", c.ThumbnailPoints)
	case c.InferSampleSize <= 0:
		return fmt.Errorf("inferSampleSize must be positive, got %d", c.InferSampleSize)
	case c.Workers <= 0:
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	case c.MemoryLimitMB < 0:
		return fmt.Errorf("memoryLimitMB must not be negative, got %d", c.MemoryLimitMB)
	}
	return nil
}

// LoadConfig reads configuration from a yaml file and DATASCOPE_* environment
// variables on top of DefaultConfig. An empty path searches ./datascope.yaml;
// a missing file is not an error in that case.
func LoadConfig(configPath string) (Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("datascope")
		v.SetConfigType("yaml")
	}

	def := DefaultConfig()
	v.SetDefault("pageCapacity", def.PageCapacity)
	v.SetDefault("defaultMaxPoints", def.DefaultMaxPoints)
	v.SetDefault("thumbnailPoints", def.ThumbnailPoints)
	v.SetDefault("inferSampleSize", def.InferSampleSize)
	v.SetDefault("workers", def.Workers)
	v.SetDefault("memoryLimitMB", def.MemoryLimitMB)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
