package tourseed

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/panotour/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging sends log output to stdout and to logFile. An empty logFile
// gets a timestamped name. The returned closer releases the file.
func SetupLogging(logFile string) (io.Closer, error) {
	if logFile == "" {
		logFile = "tour_seed_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.Init(logger.WithOutput(io.MultiWriter(os.Stdout, file))); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return file, nil
}

// ShowHelp prints usage information for the tour seed tool.
func ShowHelp() {
	os.Stdout.WriteString(`panotour seed tool
==================

Uploads generated panoramas to a running service, links them into a ring of
hotspots by clicking inside the live viewer, and checks the scene graph.

Usage:
  go run ./cmd/tour-seed [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -panoramas int
        Number of panoramas to generate, at least 2 (default 6)
  -width int
        Width of each panorama in pixels (default 512)
  -workers int
        Number of concurrent uploaders (default CPU cores)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Write the final scene graph to this file
  -log string
        Log file (default: tour_seed_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  go run ./cmd/tour-seed -panoramas 12 -workers 4
  go run ./cmd/tour-seed -url http://localhost:8080 -output graph.json
`)
}
