package model

import "time"

// UploadJob carries a raw uploaded file from the HTTP layer to the decoders.
type UploadJob struct {
	ID       string    // upload ticket id
	Name     string    // sanitized display name
	Data     []byte    // raw file bytes
	Received time.Time // acceptance time, used for decode latency
}

// UploadState is the lifecycle state of an upload ticket.
type UploadState string

// Upload states.
const (
	UploadPending UploadState = "pending"
	UploadReady   UploadState = "ready"
	UploadFailed  UploadState = "failed"
)

// UploadStatus reports the outcome of an upload.
type UploadStatus struct {
	ID         string      `json:"upload_id"`
	State      UploadState `json:"status"`
	PanoramaID string      `json:"panorama_id,omitempty"`
	Error      string      `json:"error,omitempty"`
}
