package file_separator

import (
	"context"
	"path/filepath"
	cloudstorage "stem-separator/src/application/cloud_storage/entity"
	"stem-separator/src/application/jobs/separate/separator"
	"stem-separator/src/lib/cerr"
	"stem-separator/src/lib/mark"
	"stem-separator/src/lib/storagepath"

	"github.com/apex/log"
)

var _ separator.FileSeparator = RemoteFileSeparator{}

func NewRemoteFileSeparator(localSeparator separator.FileSeparator, remoteFileStore cloudstorage.FileStore, pathGenerator storagepath.Generator) RemoteFileSeparator {
	return RemoteFileSeparator{
		localSeparator:  localSeparator,
		remoteFileStore: remoteFileStore,
		pathGenerator:   pathGenerator,
	}
}

// RemoteFileSeparator separates locally, then mirrors every stem to cloud storage.
// The local files are kept, the download route still serves them.
type RemoteFileSeparator struct {
	localSeparator  separator.FileSeparator
	remoteFileStore cloudstorage.FileStore
	pathGenerator   storagepath.Generator
}

func (r RemoteFileSeparator) SeparateFile(ctx context.Context, job separator.SeparationJob) (separator.StemFiles, error) {
	localOutputs, err := r.localSeparator.SeparateFile(ctx, job)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"jobName":  job.Name,
		"numStems": len(localOutputs),
	}).Info("Uploading stems to remote file store")

	outputs, err := r.uploadStems(ctx, job.Name, localOutputs)
	if err != nil {
		err = cerr.Field("job_name", job.Name).Wrap(err).Error("Failed to mirror stems to remote file store")
		return nil, mark.Wrap(err, separator.SeparationError, "Separation failed")
	}

	return outputs, nil
}

type uploadResult struct {
	stemFile separator.StemFile
	err      error
}

func (r RemoteFileSeparator) uploadStem(ctx context.Context, done chan<- uploadResult, jobName string, stemFile separator.StemFile) {
	remoteURL := r.pathGenerator.GeneratePath(jobName, filepath.Base(stemFile.LocalPath))

	err := r.remoteFileStore.UploadFile(ctx, remoteURL, stemFile.LocalPath)
	if err != nil {
		done <- uploadResult{err: cerr.Field("remote_url", remoteURL).Wrap(err).Error("Failed to upload stem file")}
		return
	}

	done <- uploadResult{
		stemFile: separator.StemFile{
			LocalPath: stemFile.LocalPath,
			RemoteURL: remoteURL,
		},
	}
}

func (r RemoteFileSeparator) uploadStems(ctx context.Context, jobName string, localOutputs separator.StemFiles) (separator.StemFiles, error) {
	resultChannels := map[string]chan uploadResult{}

	for stem, stemFile := range localOutputs {
		// capacity 1: every uploader can send even after an early return
		resultChannel := make(chan uploadResult, 1)
		resultChannels[stem] = resultChannel
		go r.uploadStem(ctx, resultChannel, jobName, stemFile)
	}

	outputs := separator.StemFiles{}
	for stem, resultChannel := range resultChannels {
		result := <-resultChannel
		if result.err != nil {
			return nil, result.err
		}

		outputs[stem] = result.stemFile
	}

	return outputs, nil
}
