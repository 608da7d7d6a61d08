package file_separator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"stem-separator/src/application/executor"
	"stem-separator/src/application/jobs/separate/separator"
	"stem-separator/src/lib/cerr"
	"stem-separator/src/lib/mark"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
)

var _ separator.FileSeparator = LocalFileSeparator{}

const defaultCodec = "wav"

var spleeterParamMap = map[separator.SplitType]string{
	separator.SplitTwoStemsType:  "spleeter:2stems",
	separator.SplitFourStemsType: "spleeter:4stems",
	separator.SplitFiveStemsType: "spleeter:5stems",
}

func NewLocalFileSeparator(spleeterBinPath string, spleeterDir string, verifyOutputs bool, executor executor.Executor) (LocalFileSeparator, error) {
	absSpleeterDir, err := filepath.Abs(spleeterDir)
	if err != nil {
		return LocalFileSeparator{}, cerr.Field("spleeter_dir", spleeterDir).
			Wrap(err).Error("Failed to convert spleeter working dir to absolute format")
	}

	return LocalFileSeparator{
		spleeterBinPath: spleeterBinPath,
		spleeterDir:     absSpleeterDir,
		verifyOutputs:   verifyOutputs,
		executor:        executor,
	}, nil
}

type LocalFileSeparator struct {
	spleeterBinPath string
	spleeterDir     string
	verifyOutputs   bool
	executor        executor.Executor
}

func (l LocalFileSeparator) SeparateFile(ctx context.Context, job separator.SeparationJob) (separator.StemFiles, error) {
	errctx := cerr.Field("job_name", job.Name).Field("input_path", job.InputPath)

	// splitting is a lengthy process, if we want to halt now is the time
	if ctx.Err() != nil {
		return nil, mark.Wrap(ctx.Err(), separator.SeparationError, "Context cancelled before separation could happen")
	}

	runCtx := ctx
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	if err := l.runSpleeter(runCtx, job); err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			err = errctx.Field("timeout", job.Timeout.String()).
				Wrap(err).Error("Spleeter did not finish in time")
			return nil, mark.Wrap(err, separator.TimeoutError, "Separation timed out")
		}

		err = errctx.Wrap(err).Error("Failed to execute spleeter")
		return nil, mark.Wrap(err, separator.SeparationError, "Separation failed")
	}

	return l.collectStemFiles(job)
}

func (l LocalFileSeparator) runSpleeter(ctx context.Context, job separator.SeparationJob) error {
	logger := log.WithFields(log.Fields{
		"inputPath":  job.InputPath,
		"outputRoot": job.OutputRoot,
		"splitType":  job.SplitType,
		"timeout":    job.Timeout.String(),
	})

	splitParam, ok := spleeterParamMap[job.SplitType]
	if !ok {
		return cerr.Field("split_type", job.SplitType).Error("Invalid split type passed in!")
	}

	args := []string{"separate", "-p", splitParam, "-o", job.OutputRoot}
	if job.Codec != "" && job.Codec != defaultCodec {
		args = append(args, "-c", job.Codec)
	}
	args = append(args, job.InputPath)

	errctx := cerr.Field("spleeter_bin_path", l.spleeterBinPath).Field("spleeter_args", args)

	logger.Info("Running spleeter command")
	cmd := l.executor.CommandContext(ctx, l.spleeterBinPath, args...)
	cmd.SetDir(l.spleeterDir)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return errctx.Field("spleeter_output", string(output)).
			Wrap(err).
			Error(fmt.Sprintf("Error occurred while running spleeter: %s", string(output)))
	}

	logger.Debug(string(output))
	logger.Info("Finished spleeter command")

	return nil
}

// collectStemFiles maps each expected stem to its file. A zero exit status is
// only trusted as far as the files actually being there, unless verification is off.
func (l LocalFileSeparator) collectStemFiles(job separator.SeparationJob) (separator.StemFiles, error) {
	stemDir := job.StemDir()
	logger := log.WithFields(log.Fields{
		"dir":    stemDir,
		"verify": l.verifyOutputs,
	})

	logger.Info("Collecting stem file paths")

	outputs := separator.StemFiles{}
	missing := []string{}

	for _, stem := range job.SplitType.Stems() {
		stemPath := filepath.Join(stemDir, job.StemFileName(stem))

		if l.verifyOutputs {
			info, err := os.Stat(stemPath)
			if err != nil || info.IsDir() {
				missing = append(missing, stem)
				continue
			}
		}

		outputs[stem] = separator.StemFile{LocalPath: stemPath}
	}

	if len(missing) > 0 {
		err := cerr.Field("job_name", job.Name).
			Field("stem_dir", stemDir).
			Field("missing_stems", missing).
			Error("Spleeter exited successfully but some stems were not written")
		return nil, mark.Wrap(err, separator.IncompleteOutputError, "Separation output is incomplete")
	}

	return outputs, nil
}
