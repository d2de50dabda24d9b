package config

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// InitLogging configures the global logrus logger from a config-driven
// level string, the same level-from-config pattern the proxy's own
// command wiring uses for its logger setup.
func InitLogging(cfg Logging) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("config: invalid logging level %q: %w", cfg.Level, err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.JSONFormatter{})
	return nil
}
