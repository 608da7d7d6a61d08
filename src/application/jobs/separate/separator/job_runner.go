package separator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"stem-separator/src/application/publish"
	"stem-separator/src/application/separations/entity"
	"stem-separator/src/lib/cerr"
	"stem-separator/src/lib/mark"
	"stem-separator/src/lib/working_dir"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

const (
	CompletedEventType = "stems_separated"
	defaultCodec       = "wav"
)

type Settings struct {
	SplitType     SplitType
	Codec         string
	Timeout       time.Duration
	CleanupPolicy CleanupPolicy
	// IsolateJobs suffixes every job name with a random ID, so uploads
	// sharing a file name no longer share staged file and output directory.
	IsolateJobs bool
	// OutputURLPrefix is prepended to stem paths handed back to clients.
	OutputURLPrefix string
}

type Result struct {
	Job         SeparationJob
	Files       StemSet
	RemoteFiles StemSet
}

// NewJobRunner wires a runner. recordStore and publisher are optional, pass nil to skip them.
func NewJobRunner(workingDir working_dir.WorkingDir, fileSeparator FileSeparator, settings Settings, recordStore entity.RecordStore, publisher publish.Publisher) JobRunner {
	if settings.Codec == "" {
		settings.Codec = defaultCodec
	}

	if settings.CleanupPolicy == "" {
		settings.CleanupPolicy = CleanupOnSuccess
	}

	return JobRunner{
		workingDir:    workingDir,
		fileSeparator: fileSeparator,
		settings:      settings,
		recordStore:   recordStore,
		publisher:     publisher,
	}
}

type JobRunner struct {
	workingDir    working_dir.WorkingDir
	fileSeparator FileSeparator
	settings      Settings
	recordStore   entity.RecordStore
	publisher     publish.Publisher
}

// Run stages the upload, runs the separator over it and reports where the stems are.
// It blocks until the separator exits or the timeout elapses.
func (j JobRunner) Run(ctx context.Context, upload Upload) (Result, error) {
	fileName, err := sanitizeFileName(upload.Filename)
	if err != nil {
		return Result{}, err
	}

	job := j.newJob(upload.Filename, fileName)
	errctx := cerr.Field("job_name", job.Name).Field("original_filename", upload.Filename)
	logger := log.WithFields(log.Fields{
		"jobName":   job.Name,
		"inputPath": job.InputPath,
		"size":      humanize.Bytes(uint64(upload.Size)),
	})

	logger.Info("Staging uploaded file")
	if err := stage(job.InputPath, upload.Content); err != nil {
		return Result{}, errctx.Wrap(err).Error("Failed to stage uploaded file")
	}

	if j.settings.CleanupPolicy == CleanupAlways {
		defer removeStaged(job)
	}

	logger.Info("Starting separation")
	startTime := time.Now()

	stemFiles, err := j.fileSeparator.SeparateFile(ctx, job)
	if err != nil {
		return Result{}, errctx.Wrap(err).Error("Failed to separate uploaded file")
	}

	duration := time.Since(startTime)
	logger.WithField("duration", duration.String()).Info("Separation completed")

	if j.settings.CleanupPolicy == CleanupOnSuccess {
		removeStaged(job)
	}

	result := Result{
		Job:         job,
		Files:       j.stemSet(job),
		RemoteFiles: remoteStemSet(stemFiles),
	}

	record := entity.Record{
		JobName:          job.Name,
		OriginalFilename: job.OriginalFilename,
		SplitType:        string(job.SplitType),
		Stems:            result.Files,
		RemoteStems:      result.RemoteFiles,
		CreatedAt:        startTime.UTC(),
		DurationSeconds:  duration.Seconds(),
	}

	j.saveRecord(ctx, record)
	j.publishCompleted(record)

	return result, nil
}

func (j JobRunner) newJob(originalFilename string, fileName string) SeparationJob {
	ext := filepath.Ext(fileName)
	name := BaseName(fileName)

	if j.settings.IsolateJobs {
		name = fmt.Sprintf("%s-%s", name, uuid.NewString())
	}

	return SeparationJob{
		Name:             name,
		OriginalFilename: originalFilename,
		InputPath:        j.workingDir.StagedPath(name + ext),
		OutputRoot:       j.workingDir.OutputRoot(),
		SplitType:        j.settings.SplitType,
		Codec:            j.settings.Codec,
		Timeout:          j.settings.Timeout,
	}
}

func (j JobRunner) stemSet(job SeparationJob) StemSet {
	stems := StemSet{}
	for _, stem := range job.SplitType.Stems() {
		stems[stem] = path.Join(j.settings.OutputURLPrefix, job.Name, job.StemFileName(stem))
	}

	return stems
}

func remoteStemSet(stemFiles StemFiles) StemSet {
	remote := StemSet{}
	for stem, stemFile := range stemFiles {
		if stemFile.RemoteURL != "" {
			remote[stem] = stemFile.RemoteURL
		}
	}

	if len(remote) == 0 {
		return nil
	}

	return remote
}

func (j JobRunner) saveRecord(ctx context.Context, record entity.Record) {
	if j.recordStore == nil {
		return
	}

	if err := j.recordStore.SaveRecord(ctx, record); err != nil {
		cerr.LogWarn(cerr.Field("job_name", record.JobName).Wrap(err).Error("Failed to save separation record"))
	}
}

func (j JobRunner) publishCompleted(record entity.Record) {
	if j.publisher == nil {
		return
	}

	msg, err := CreateCompletedMessage(record)
	if err == nil {
		err = j.publisher.Publish(msg)
	}

	if err != nil {
		cerr.LogWarn(cerr.Field("job_name", record.JobName).Wrap(err).Error("Failed to publish separation completed event"))
	}
}

func CreateCompletedMessage(record entity.Record) (amqp.Publishing, error) {
	jsonBytes, err := json.Marshal(record)
	if err != nil {
		return amqp.Publishing{}, cerr.Wrap(err).Error("Failed to marshal separation record")
	}

	return amqp.Publishing{
		Type: CompletedEventType,
		Body: jsonBytes,
	}, nil
}

// BaseName is the file name without its extension. A dot file such as
// ".mp3" keeps its full name, the same way the separator names its output dir.
func BaseName(fileName string) string {
	ext := filepath.Ext(fileName)
	if ext == fileName {
		return fileName
	}

	return strings.TrimSuffix(fileName, ext)
}

// sanitizeFileName keeps only the last element of a client supplied name,
// so a staged file can never land outside the upload root.
func sanitizeFileName(fileName string) (string, error) {
	if fileName == "" {
		return "", mark.Wrap(mark.Message(NoFileSelectedError, "Upload has an empty filename"), ValidationError, "Invalid upload")
	}

	base := filepath.Base(strings.ReplaceAll(fileName, "\\", "/"))
	switch BaseName(base) {
	case "", ".", "..", "/":
		err := cerr.Field("filename", fileName).Error("Upload filename has no usable name")
		return "", mark.Wrap(mark.Wrap(err, NoFileSelectedError, "No file selected"), ValidationError, "Invalid upload")
	}

	return base, nil
}

func stage(stagedPath string, content io.Reader) error {
	file, err := os.Create(stagedPath)
	if err != nil {
		return cerr.Field("staged_path", stagedPath).Wrap(err).Error("Failed to create staged file")
	}

	_, copyErr := io.Copy(file, content)
	closeErr := file.Close()

	if copyErr != nil || closeErr != nil {
		_ = os.Remove(stagedPath)
		if copyErr == nil {
			copyErr = closeErr
		}

		return cerr.Field("staged_path", stagedPath).Wrap(copyErr).Error("Failed to write staged file")
	}

	return nil
}

func removeStaged(job SeparationJob) {
	err := os.Remove(job.InputPath)
	if err != nil && !os.IsNotExist(err) {
		log.WithError(err).WithField("inputPath", job.InputPath).Warn("Failed to remove staged file")
	}
}
