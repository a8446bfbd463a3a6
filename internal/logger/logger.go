// Package logger configures the process-wide logrus logger and hands out
// per-component entries tagged with a prefix.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/natefinch/lumberjack"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Config controls log level and the optional rotating log file.
type Config struct {
	Level      string `koanf:"level"`
	File       string `koanf:"file"`
	MaxSize    int    `koanf:"max_size"`    // Megabytes before rotation
	MaxBackups int    `koanf:"max_backups"` // Rotated files to keep
}

// Init sets level, formatter and output of the standard logrus logger.
// Output always goes to stdout; if cfg.File is set it is also written to a
// lumberjack-rotated file.
func Init(cfg Config) error {
	level := logrus.InfoLevel
	if cfg.Level != "" {
		lvl, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return errors.Wrapf(err, "invalid log level %q", cfg.Level)
		}
		level = lvl
	}

	logrus.SetLevel(level)
	logrus.SetFormatter(&prefixed.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		ForceFormatting: true,
	})

	var out io.Writer = os.Stdout
	if cfg.File != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
		})
	}
	logrus.SetOutput(out)

	return nil
}

// GetLogger returns an entry whose lines are prefixed with name.
func GetLogger(name string) *logrus.Entry {
	return logrus.WithField("prefix", name)
}
