package separator

import (
	"context"
	"io"
	"path/filepath"
	"time"
)

type CleanupPolicy string

const (
	// CleanupOnSuccess removes the staged input only after a successful job,
	// failed inputs stay on disk for inspection.
	CleanupOnSuccess CleanupPolicy = "on_success"
	// CleanupAlways removes the staged input however the job ends.
	CleanupAlways CleanupPolicy = "always"
)

func ConvertToCleanupPolicy(val string) (CleanupPolicy, bool) {
	switch CleanupPolicy(val) {
	case CleanupOnSuccess:
		return CleanupOnSuccess, true
	case CleanupAlways:
		return CleanupAlways, true
	default:
		return "", false
	}
}

// Upload is one submitted audio file.
type Upload struct {
	Filename string
	Content  io.Reader
	Size     int64
}

// SeparationJob lives only for the duration of one request.
type SeparationJob struct {
	Name             string
	OriginalFilename string
	InputPath        string
	OutputRoot       string
	SplitType        SplitType
	Codec            string
	Timeout          time.Duration
}

// StemDir is the directory the separator writes this job's stems into.
func (s SeparationJob) StemDir() string {
	return filepath.Join(s.OutputRoot, s.Name)
}

func (s SeparationJob) StemFileName(stem string) string {
	return stem + "." + s.Codec
}

type StemFile struct {
	LocalPath string
	RemoteURL string
}

type StemFiles = map[string]StemFile

// StemSet maps stem name to the path a client downloads it from.
type StemSet = map[string]string

type FileSeparator interface {
	SeparateFile(ctx context.Context, job SeparationJob) (StemFiles, error)
}
