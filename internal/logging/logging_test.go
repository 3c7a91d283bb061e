package logging

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docboard.log")
	logger := New(Options{File: path})
	logger.Info("document created")
	_ = logger.Sync()

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log file: %v", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		t.Fatal("expected a log line")
	}
	var entry map[string]any
	if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
		t.Fatalf("parse log line: %v", err)
	}
	if entry["message"] != "document created" {
		t.Fatalf("unexpected message %v", entry["message"])
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Fatalf("expected timestamp key, got %v", entry)
	}
}

func TestNewWithoutFile(t *testing.T) {
	logger := New(Options{Development: true})
	if logger == nil {
		t.Fatal("expected logger")
	}
	logger.Debug("debug enabled in development")
}
