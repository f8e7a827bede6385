package tourseed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/okian/panotour/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Run executes a complete seeding run.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	if config.Panoramas < MinPanoramas {
		return nil, fmt.Errorf("panoramas must be at least %d, got %d", MinPanoramas, config.Panoramas)
	}
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.RunID == "" {
		config.RunID = uuid.NewString()[:8]
	}
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting tour seed",
		logger.String("baseURL", config.BaseURL),
		logger.Int("panoramas", config.Panoramas),
		logger.Int("workers", config.Workers),
		logger.String("runID", config.RunID),
		logger.Duration("timeout", config.Timeout))

	client := newHTTPClient(config.BaseURL, config.Timeout)

	if err := checkServiceHealth(ctx, client); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	panoramas, err := generatePanoramas(ctx, config, stats)
	if err != nil {
		return stats, fmt.Errorf("panorama generation failed: %w", err)
	}

	if err := uploadPanoramas(ctx, config, client, panoramas, stats); err != nil {
		return stats, fmt.Errorf("upload failed: %w", err)
	}

	ids := linkable(panoramas)
	if err := linkRing(ctx, client, ids, stats); err != nil {
		return stats, fmt.Errorf("linking failed: %w", err)
	}

	graph, err := verifySceneGraph(ctx, client, ids)
	if err != nil {
		return stats, fmt.Errorf("verification failed: %w", err)
	}

	if config.OutputFile != "" {
		if err := saveSceneGraph(ctx, config.OutputFile, graph); err != nil {
			logger.Get().Warn(ctx, "failed to save scene graph", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return stats, nil
}

// linkable returns the distinct panorama ids that made it into the tour,
// in upload order.
func linkable(panoramas []Panorama) []string {
	seen := make(map[string]bool, len(panoramas))
	ids := make([]string, 0, len(panoramas))
	for _, p := range panoramas {
		if p.PanoramaID == "" || seen[p.PanoramaID] {
			continue
		}
		seen[p.PanoramaID] = true
		ids = append(ids, p.PanoramaID)
	}
	return ids
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient) error {
	logger.Get().Info(ctx, "checking service health")
	if _, err := client.Get(ctx, "/healthz", nil); err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveSceneGraph writes g as indented JSON to filename.
func saveSceneGraph(ctx context.Context, filename string, g sceneGraph) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal scene graph: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	logger.Get().Info(ctx, "scene graph saved", logger.String("filename", filename))
	return nil
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	logger.Get().Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("ready", stats.Ready),
		logger.Int("failed", stats.Failed),
		logger.Int("linked", stats.Linked),
		logger.Duration("duration", stats.Duration))
}
