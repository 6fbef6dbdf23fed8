package config

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

// ConfigureLogging applies the log level and format to the standard logger
func (c *Config) ConfigureLogging() error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}

	log.SetOutput(os.Stdout)
	log.SetLevel(level)
	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}
