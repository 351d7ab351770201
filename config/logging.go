package config

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// SetupLogging configures the global logrus logger from l.
func SetupLogging(l Log) error {
	level, err := logrus.ParseLevel(l.Level)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	logrus.SetLevel(level)

	switch l.Format {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, l.Format)
	}

	logrus.WithFields(logrus.Fields{
		"function": "SetupLogging",
		"level":    level.String(),
		"format":   l.Format,
	}).Debug("Logger configured")
	return nil
}
