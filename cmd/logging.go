package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// ConfigureLogging sets the global logrus level and formatter.
// Production logs are JSON; everything else uses the text formatter.
func ConfigureLogging(level, environment string) {
	log.SetOutput(os.Stdout)

	if environment == "production" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	if level == "" {
		level = "info"
	}
	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.WithField("level", level).Warn("Unknown log level, using info")
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
}
