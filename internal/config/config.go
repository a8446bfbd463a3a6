// Package config loads bookd's startup configuration.
//
// Sources, lowest to highest precedence:
//  1. flag defaults
//  2. YAML file (--config)
//  3. BOOKD_* environment variables (BOOKD_PORT, BOOKD_PATTERN, BOOKD_LOG__LEVEL, ...)
//  4. flags set on the command line
package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/dreamware/bookd/internal/logger"
	"github.com/dreamware/bookd/internal/scanner"
)

// EnvPrefix is the prefix of environment variables read by Load
const EnvPrefix = "BOOKD_"

// Config is the complete startup configuration.
type Config struct {
	Port         int           `koanf:"port"`
	SearchTerm   string        `koanf:"pattern"`
	ExportDir    string        `koanf:"export_dir"`
	ScanInterval time.Duration `koanf:"scan_interval"`
	MetricsAddr  string        `koanf:"metrics_addr"`
	Log          logger.Config `koanf:"log"`
}

// ListenAddr returns the TCP address to bind
func (c Config) ListenAddr() string {
	return ":" + strconv.Itoa(c.Port)
}

// Validate checks required fields and ranges.
func (c Config) Validate() error {
	if c.Port == 0 {
		return errors.New("port is required (-l/--port)")
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("port %d out of range 1-65535", c.Port)
	}
	if c.SearchTerm == "" {
		return errors.New("search term is required (-p/--pattern)")
	}
	if c.ScanInterval <= 0 {
		return errors.Errorf("scan interval must be positive, got %v", c.ScanInterval)
	}
	return nil
}

// RegisterFlags adds every configuration flag to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.IntP("port", "l", 0, "Port to listen on for ingestion connections")
	fs.StringP("pattern", "p", "", "Search term counted by the pattern scanner")
	fs.String("export-dir", ".", "Directory for exported books")
	fs.Duration("scan-interval", scanner.DefaultInterval, "Time between pattern scans")
	fs.String("metrics-addr", "", "Address for /metrics, /health and /info (empty disables)")
	fs.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	fs.String("log-file", "", "Also write logs to this file, rotated by size")
	fs.Int("log-max-size", 50, "Log file size in MB before rotation")
	fs.Int("log-max-backups", 3, "Rotated log files to keep")
	fs.StringP("config", "c", "", "Optional YAML config file")
}

// flagKeys maps flag names to koanf keys where they differ
var flagKeys = map[string]string{
	"export-dir":      "export_dir",
	"scan-interval":   "scan_interval",
	"metrics-addr":    "metrics_addr",
	"log-level":       "log.level",
	"log-file":        "log.file",
	"log-max-size":    "log.max_size",
	"log-max-backups": "log.max_backups",
	"config":          "",
}

// Load merges all configuration sources and validates the result.
func Load(fs *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path, _ := fs.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, errors.Wrapf(err, "loading config file %q", path)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, errors.Wrap(err, "loading environment")
	}

	flags := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
		key, ok := flagKeys[f.Name]
		if !ok {
			key = f.Name
		}
		return key, posflag.FlagVal(fs, f)
	})
	if err := k.Load(flags, nil); err != nil {
		return Config{}, errors.Wrap(err, "loading flags")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, "decoding configuration")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKey turns BOOKD_LOG__MAX_SIZE into log.max_size.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}
