package observability

import (
	"github.com/sirupsen/logrus"
)

// SetupLogger configures the standard logrus logger: JSON in production,
// text with full timestamps elsewhere
func SetupLogger(environment, level string) *logrus.Logger {
	logger := logrus.StandardLogger()
	if environment == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.WithField("level", level).Warn("Unknown log level, using info")
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}
