package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// TestInitLogger ensures that the logger initializes properly.
func TestInitLogger(t *testing.T) {
	ResetLogger()
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "fundrecon.log")
	SetLogPath(logPath)

	InitLogger()

	if log == nil {
		t.Fatal("Expected logger to be initialized, but got nil")
	}

	log.Info("Test log message")
	Sync()

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		t.Fatal("Log file was not created")
	}
}

// TestGetLogger ensures that GetLogger returns a non-nil instance.
func TestGetLogger(t *testing.T) {
	ResetLogger()
	tmpDir := t.TempDir()
	SetLogPath(filepath.Join(tmpDir, "fundrecon.log"))

	l := GetLogger()
	if l == nil {
		t.Fatal("Expected non-nil logger instance, but got nil")
	}
	l.Info("Logger retrieved successfully")
	Sync()
}

// TestSync ensures the Sync function flushes logs to the file.
func TestSync(t *testing.T) {
	ResetLogger()
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "fundrecon.log")
	SetLogPath(logPath)

	InitLogger()
	log.Info("Test sync log message")
	Sync()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !bytes.Contains(data, []byte("Test sync log message")) {
		t.Fatal("Expected log message not found in log file")
	}
}
