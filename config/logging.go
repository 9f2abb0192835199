package config

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

func SetupLogging(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("SetupLogging: invalid log level %q: %w", level, err)
	}

	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	return nil
}
