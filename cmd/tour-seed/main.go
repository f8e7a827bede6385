package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/panotour/internal/tourseed"
)

const defaultRunTimeout = 10 * time.Minute

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		panoramas  = flag.Int("panoramas", tourseed.DefaultPanoramas, "Number of panoramas to generate")
		width      = flag.Int("width", tourseed.DefaultWidth, "Width of each panorama in pixels")
		workers    = flag.Int("workers", runtime.NumCPU(), "Number of concurrent uploaders")
		timeout    = flag.Duration("timeout", tourseed.DefaultTimeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "Write the final scene graph to this file")
		logFile    = flag.String("log", "", "Log file (default: tour_seed_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		tourseed.ShowHelp()
		return
	}

	closer, err := tourseed.SetupLogging(*logFile)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &tourseed.Config{
		BaseURL:    *baseURL,
		Panoramas:  *panoramas,
		Width:      *width,
		Workers:    *workers,
		Timeout:    *timeout,
		OutputFile: *outputFile,
		Verbose:    *verbose,
	}

	if _, err := tourseed.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Seed failed: " + err.Error() + "\n")
		cancel()
		_ = closer.Close()
		os.Exit(1)
	}
}
