package utils

import (
	"github.com/sirupsen/logrus"

	"examportal/config"
)

func InitLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}
