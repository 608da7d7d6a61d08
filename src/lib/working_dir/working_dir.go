package working_dir

import (
	"os"
	"path/filepath"
	"stem-separator/src/lib/cerr"
	"time"

	"github.com/apex/log"
)

// WorkingDir owns the two process-wide roots: staged uploads and separator output.
type WorkingDir struct {
	uploadRoot string
	outputRoot string
}

func NewWorkingDir(uploadRoot string, outputRoot string) (WorkingDir, error) {
	absUploadRoot, err := filepath.Abs(uploadRoot)
	if err != nil {
		return WorkingDir{}, cerr.Field("upload_root", uploadRoot).
			Wrap(err).Error("Failed to generate absolute path for upload directory")
	}

	absOutputRoot, err := filepath.Abs(outputRoot)
	if err != nil {
		return WorkingDir{}, cerr.Field("output_root", outputRoot).
			Wrap(err).Error("Failed to generate absolute path for output directory")
	}

	for _, dir := range []string{absUploadRoot, absOutputRoot} {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return WorkingDir{}, cerr.Field("dir", dir).
				Wrap(err).Error("Failed to create working directory")
		}
	}

	return WorkingDir{
		uploadRoot: absUploadRoot,
		outputRoot: absOutputRoot,
	}, nil
}

func (w WorkingDir) UploadRoot() string {
	return w.uploadRoot
}

func (w WorkingDir) OutputRoot() string {
	return w.outputRoot
}

func (w WorkingDir) StagedPath(fileName string) string {
	return filepath.Join(w.uploadRoot, fileName)
}

// StemDir is where the separator writes the stems of the named job.
func (w WorkingDir) StemDir(jobName string) string {
	return filepath.Join(w.outputRoot, jobName)
}

// ResolveOutput maps a client supplied relative path onto a path inside the
// output root. The path is cleaned as if rooted, so ".." can't climb out.
func (w WorkingDir) ResolveOutput(relPath string) string {
	cleaned := filepath.Clean(string(filepath.Separator) + filepath.FromSlash(relPath))
	return filepath.Join(w.outputRoot, cleaned)
}

// CleanStaleUploads removes staged files older than maxAge and returns the removed paths.
// Failed jobs can leave their staged input behind, this reclaims them.
func (w WorkingDir) CleanStaleUploads(maxAge time.Duration) ([]string, error) {
	entries, err := os.ReadDir(w.uploadRoot)
	if err != nil {
		return nil, cerr.Field("upload_root", w.uploadRoot).
			Wrap(err).Error("Failed to read upload directory")
	}

	cutoff := time.Now().Add(-maxAge)
	removed := []string{}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		stagedPath := filepath.Join(w.uploadRoot, entry.Name())
		info, err := entry.Info()
		if err != nil {
			log.WithError(err).WithField("path", stagedPath).Warn("Failed to stat staged upload")
			continue
		}

		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.Remove(stagedPath); err != nil {
			log.WithError(err).WithField("path", stagedPath).Warn("Failed to remove stale staged upload")
			continue
		}

		removed = append(removed, stagedPath)
	}

	return removed, nil
}
