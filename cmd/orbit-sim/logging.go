package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"
)

const (
	logFileName = "orbit-sim.log"
	maxLogSize  = 10 << 20
)

// logDir is used when the configuration names no directory
var logDir = "logs"

// setupLogging sends the standard logger to dir/orbit-sim.log when debug is set
// and discards it otherwise; the terminal owns stdout and stderr while running.
// A log file above maxLogSize is renamed with a timestamp before a fresh one is opened.
func setupLogging(debug bool, dir string) *os.File {
	if !debug {
		log.SetOutput(io.Discard)
		return nil
	}
	if dir == "" {
		dir = logDir
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		log.SetOutput(io.Discard)
		return nil
	}

	path := filepath.Join(dir, logFileName)
	if info, err := os.Stat(path); err == nil && info.Size() > maxLogSize {
		rotated := filepath.Join(dir, fmt.Sprintf("orbit-sim-%s.log", time.Now().Format("20060102-150405")))
		os.Rename(path, rotated)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.SetOutput(io.Discard)
		return nil
	}

	log.SetOutput(f)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Printf("[MAIN] logging to %s", path)
	return f
}
