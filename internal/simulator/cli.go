package simulator

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/lapvn/timecard/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "simulation_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the attendance simulator.
func ShowHelp() {
	os.Stdout.WriteString(`Timecard Attendance Simulator
=============================

A concurrent tool for exercising the timecard attendance scoring service
with synthetic biometric punches.

Usage:
  go run cmd/simulator/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -employees int
        Number of synthetic employees (default 200)
  -days int
        Number of civil days to cover, ending yesterday (default 5)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -strategy string
        Merge strategy for the /sync pass (default "replace")
  -output string
        Output file for generated punches (default: generated_punches_TIMESTAMP.json)
  -log string
        Log file for simulation output (default: simulation_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Simulate with default settings
  go run cmd/simulator/main.go

  # Simulate a larger workforce over two weeks
  go run cmd/simulator/main.go -employees 1000 -days 14 -workers 16

  # Simulate with verbose output against a remote instance
  go run cmd/simulator/main.go -verbose -url http://timecard:9080
`)
}
