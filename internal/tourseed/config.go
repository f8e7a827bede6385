// Package tourseed drives a running tour service end to end: it uploads a
// batch of generated panoramas, links them into a ring of hotspots through
// the viewer, and checks the compiled scene graph.
package tourseed

import "time"

// Config holds configuration for a seeding run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Panoramas  int           // Number of panoramas to generate
	Width      int           // Width of each generated panorama; height is half
	Workers    int           // Number of concurrent uploaders
	Timeout    time.Duration // HTTP request timeout
	RunID      string        // Stamped on every image so runs do not collide
	OutputFile string        // Scene graph is written here when set
	Verbose    bool          // Enable verbose logging
}

// Panorama is a generated panorama and what the service made of it.
type Panorama struct {
	Name       string
	Data       []byte
	UploadID   string
	PanoramaID string
	Status     string
}

// Stats holds run statistics.
type Stats struct {
	Generated int
	Accepted  int
	Duplicate int
	Ready     int
	Failed    int
	Linked    int
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// uploadAck mirrors the service's upload response.
type uploadAck struct {
	UploadID   string `json:"upload_id"`
	Status     string `json:"status"`
	PanoramaID string `json:"panorama_id"`
	Duplicate  bool   `json:"duplicate"`
	Error      string `json:"error"`
}

type viewerState struct {
	HandleID string `json:"handle_id"`
	Live     bool   `json:"live"`
}

type placementState struct {
	State string `json:"state"`
}

type sceneGraph struct {
	FirstScene string           `json:"first_scene"`
	Order      []string         `json:"order"`
	Scenes     map[string]scene `json:"scenes"`
}

type scene struct {
	Image    string    `json:"image"`
	Hotspots []hotspot `json:"hotspots"`
}

type hotspot struct {
	Pitch         float64 `json:"pitch"`
	Yaw           float64 `json:"yaw"`
	TargetSceneID string  `json:"target_scene_id"`
}
