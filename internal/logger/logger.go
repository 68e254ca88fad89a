package logger

import (
	"io"
	"os"
	"time"

	"backend-commutepro/internal/config"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
)

// New builds the service logger. With LOG_FILE set, output goes to a
// rotating file as well as stdout.
func New(cfg config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.LogFile == "" {
		log.SetOutput(os.Stdout)
		return log
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    10, // megabytes
		MaxBackups: 7,
		MaxAge:     7, // days
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rotator))
	return log
}

// Discard returns a logger that drops everything. Used as the default when a
// component is built without one.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
