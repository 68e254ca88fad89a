package logger

import (
	"os"
	"path/filepath"
	"testing"

	"backend-commutepro/internal/config"

	"github.com/sirupsen/logrus"
)

func TestNewStdout(t *testing.T) {
	log := New(config.Config{LogLevel: "debug"})
	if log.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %v", log.GetLevel())
	}
}

func TestNewInvalidLevelFallsBack(t *testing.T) {
	log := New(config.Config{LogLevel: "loud"})
	if log.GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected info level, got %v", log.GetLevel())
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log := New(config.Config{LogLevel: "info", LogFile: path})
	log.Info("commute saved")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected log output in file")
	}
}

func TestDiscard(t *testing.T) {
	log := Discard()
	log.Error("dropped")
}
