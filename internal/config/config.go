// Package config loads classinfo settings from classinfo.yaml and
// CLASSINFO_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

const (
	DefaultCacheSize = 2000
	MinCacheSize     = 100
	MaxCacheSize     = 10000

	DefaultLogLevel = "info"
)

// Config holds the resolved settings.
type Config struct {
	CacheSize int
	Classpath []string
	LogLevel  string
	Minio     MinioConfig

	// Warnings describes settings that were rejected in favor of defaults.
	Warnings []string
}

// MinioConfig holds the connection settings for s3:// classpath entries.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Load reads classinfo.yaml from the working directory, if present, and the
// environment. Invalid values fall back to defaults and are reported in
// Config.Warnings rather than as errors.
func Load() (*Config, error) {
	return LoadFrom(viper.New())
}

// LoadFrom is Load over a caller-supplied viper instance, which may already
// carry flag bindings.
func LoadFrom(v *viper.Viper) (*Config, error) {
	v.SetDefault("cache.size", DefaultCacheSize)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("minio.use_ssl", true)

	v.SetConfigName("classinfo")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CLASSINFO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	cfg.CacheSize = cacheSize(v.GetString("cache.size"), &cfg.Warnings)
	cfg.Classpath = classpathEntries(v.Get("classpath"))
	cfg.LogLevel = logLevel(v.GetString("log_level"), &cfg.Warnings)
	cfg.Minio.Endpoint = v.GetString("minio.endpoint")
	cfg.Minio.AccessKey = v.GetString("minio.access_key")
	cfg.Minio.SecretKey = v.GetString("minio.secret_key")
	cfg.Minio.UseSSL = v.GetBool("minio.use_ssl")
	return cfg, nil
}

// cacheSize parses the configured capacity. Non-numeric and out-of-range
// values yield the default.
func cacheSize(raw string, warnings *[]string) int {
	raw = strings.TrimSpace(raw)
	n, err := strconv.Atoi(raw)
	if err != nil {
		*warnings = append(*warnings, fmt.Sprintf("cache.size %q is not a number; using %d", raw, DefaultCacheSize))
		return DefaultCacheSize
	}
	if n < MinCacheSize || n > MaxCacheSize {
		*warnings = append(*warnings, fmt.Sprintf("cache.size %d is outside [%d, %d]; using %d", n, MinCacheSize, MaxCacheSize, DefaultCacheSize))
		return DefaultCacheSize
	}
	return n
}

// classpathEntries accepts a YAML list or a path-list string separated by
// ':' or ','.
func classpathEntries(raw any) []string {
	var entries []string
	switch v := raw.(type) {
	case nil:
		return nil
	case []string:
		entries = v
	case []any:
		for _, e := range v {
			entries = append(entries, fmt.Sprint(e))
		}
	default:
		entries = splitPathList(fmt.Sprint(v))
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// splitPathList splits on ',' and on ':' except where ':' is part of an
// "s3://" scheme.
func splitPathList(s string) []string {
	var entries []string
	for _, part := range strings.Split(s, ",") {
		for part != "" {
			i := strings.IndexByte(part, ':')
			if i < 0 {
				entries = append(entries, part)
				break
			}
			if strings.HasPrefix(part[i:], "://") {
				next := strings.IndexByte(part[i+3:], ':')
				if next < 0 {
					entries = append(entries, part)
					break
				}
				i += 3 + next
			}
			entries = append(entries, part[:i])
			part = part[i+1:]
		}
	}
	return entries
}

var logLevels = []string{"debug", "info", "warn", "error"}

func logLevel(raw string, warnings *[]string) string {
	level := strings.ToLower(strings.TrimSpace(raw))
	for _, l := range logLevels {
		if level == l {
			return level
		}
	}
	*warnings = append(*warnings, fmt.Sprintf("log_level %q is not one of %s; using %s", raw, strings.Join(logLevels, ", "), DefaultLogLevel))
	return DefaultLogLevel
}
