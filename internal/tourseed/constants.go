package tourseed

import "time"

// Defaults for a seeding run.
const (
	DefaultPanoramas = 6
	DefaultWidth     = 512
	DefaultTimeout   = 30 * time.Second
	MinPanoramas     = 2
)

const (
	statusReady  = "ready"
	statusFailed = "failed"

	awaitingTarget = "awaiting_target"

	// Hotspots are placed on the horizon, spread out by index.
	hotspotPitch   = 0.0
	hotspotYawStep = 47.0
)
