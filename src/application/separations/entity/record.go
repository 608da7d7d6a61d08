package entity

import "time"

// Record describes a completed separation job.
type Record struct {
	JobName          string            `json:"job_name"`
	OriginalFilename string            `json:"original_filename"`
	SplitType        string            `json:"split_type"`
	Stems            map[string]string `json:"stems"`
	RemoteStems      map[string]string `json:"remote_stems,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	DurationSeconds  float64           `json:"duration_seconds"`
}
