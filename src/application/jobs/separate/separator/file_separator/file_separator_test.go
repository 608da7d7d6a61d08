package file_separator_test

import (
	"context"
	"os"
	"path/filepath"
	"stem-separator/src/application/executor/executorfakes"
	"stem-separator/src/application/integration_test/dummy"
	"stem-separator/src/application/jobs/separate/separator"
	"stem-separator/src/application/jobs/separate/separator/file_separator"
	"stem-separator/src/lib/config"
	"stem-separator/src/lib/mark"
	"stem-separator/src/lib/storagepath"

	"github.com/cockroachdb/errors"

	. "github.com/onsi/gomega"

	. "github.com/onsi/ginkgo"
)

var _ = Describe("File separators", func() {
	var (
		dummyExecutor  *dummy.SpleeterExecutor
		dummyFileStore *dummy.FileStore
		localSeparator file_separator.LocalFileSeparator

		job separator.SeparationJob
	)

	BeforeEach(func() {
		caseRoot, err := os.MkdirTemp(testRoot, "case-*")
		Expect(err).NotTo(HaveOccurred())

		inputPath := filepath.Join(caseRoot, "song.mp3")
		Expect(os.WriteFile(inputPath, []byte("cool_jamz"), 0o644)).To(Succeed())

		job = separator.SeparationJob{
			Name:       "song",
			InputPath:  inputPath,
			OutputRoot: filepath.Join(caseRoot, "output"),
			SplitType:  separator.SplitFourStemsType,
			Codec:      "wav",
		}

		dummyExecutor = dummy.NewDummySpleeterExecutor()
		dummyFileStore = dummy.NewDummyFileStore()

		localSeparator, err = file_separator.NewLocalFileSeparator("spleeter", caseRoot, true, dummyExecutor)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("LocalFileSeparator", func() {
		It("runs in the configured directory", func() {
			_, err := localSeparator.SeparateFile(context.Background(), job)
			Expect(err).NotTo(HaveOccurred())
			Expect(dummyExecutor.CommandForCall(0).Dir).To(Equal(filepath.Dir(job.InputPath)))
		})

		It("maps every stem to its local file", func() {
			stemFiles, err := localSeparator.SeparateFile(context.Background(), job)
			Expect(err).NotTo(HaveOccurred())
			Expect(stemFiles).To(HaveLen(4))
			Expect(stemFiles["drums"].LocalPath).To(Equal(filepath.Join(job.OutputRoot, "song", "drums.wav")))
			Expect(stemFiles["drums"].RemoteURL).To(BeEmpty())
		})

		It("does not start on a cancelled context", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := localSeparator.SeparateFile(ctx, job)
			Expect(mark.Is(err, separator.SeparationError)).To(BeTrue())
			Expect(dummyExecutor.CallCount()).To(BeZero())
		})

		It("reports the missing stems", func() {
			dummyExecutor.MissingStems = []string{"bass", "other"}

			_, err := localSeparator.SeparateFile(context.Background(), job)
			Expect(mark.Is(err, separator.IncompleteOutputError)).To(BeTrue())
		})

		It("trusts the exit status when verification is off", func() {
			unverified, err := file_separator.NewLocalFileSeparator("spleeter", ".", false, dummyExecutor)
			Expect(err).NotTo(HaveOccurred())
			dummyExecutor.MissingStems = []string{"bass"}

			stemFiles, err := unverified.SeparateFile(context.Background(), job)
			Expect(err).NotTo(HaveOccurred())
			Expect(stemFiles).To(HaveKey("bass"))
		})
	})

	Describe("LocalFileSeparator with a fake command", func() {
		var (
			fakeExecutor *executorfakes.FakeExecutor
			fakeCommand  *executorfakes.FakeCommand
			spleeterDir  string
			separatorErr error
		)

		BeforeEach(func() {
			fakeCommand = &executorfakes.FakeCommand{}
			fakeCommand.CombinedOutputReturns([]byte("ERROR:spleeter:ffmpeg not found"), errors.New("exit status 2"))

			fakeExecutor = &executorfakes.FakeExecutor{}
			fakeExecutor.CommandContextReturns(fakeCommand)

			spleeterDir = filepath.Join(filepath.Dir(job.InputPath), "models")
		})

		JustBeforeEach(func() {
			fakeSeparator, err := file_separator.NewLocalFileSeparator("/usr/bin/spleeter", spleeterDir, true, fakeExecutor)
			Expect(err).NotTo(HaveOccurred())

			_, separatorErr = fakeSeparator.SeparateFile(context.Background(), job)
		})

		It("sets the working directory before running", func() {
			Expect(fakeCommand.SetDirCallCount()).To(Equal(1))
			Expect(fakeCommand.SetDirArgsForCall(0)).To(Equal(spleeterDir))
			Expect(fakeCommand.CombinedOutputCallCount()).To(Equal(1))
		})

		It("passes the binary and model to the executor", func() {
			Expect(fakeExecutor.CommandContextCallCount()).To(Equal(1))
			_, name, args := fakeExecutor.CommandContextArgsForCall(0)
			Expect(name).To(Equal("/usr/bin/spleeter"))
			Expect(args).To(Equal([]string{"separate", "-p", "spleeter:4stems", "-o", job.OutputRoot, job.InputPath}))
		})

		It("reports the tool output in a separation error", func() {
			Expect(mark.Is(separatorErr, separator.SeparationError)).To(BeTrue())
			Expect(separatorErr.Error()).To(ContainSubstring("ffmpeg not found"))
		})
	})

	Describe("RemoteFileSeparator", func() {
		var (
			pathGenerator   storagepath.Generator
			remoteSeparator file_separator.RemoteFileSeparator
		)

		BeforeEach(func() {
			pathGenerator = storagepath.Generator{
				Host:   config.GoogleStorageHost,
				Bucket: "bucket-head",
			}
			remoteSeparator = file_separator.NewRemoteFileSeparator(localSeparator, dummyFileStore, pathGenerator)
		})

		It("mirrors every stem to the file store", func() {
			stemFiles, err := remoteSeparator.SeparateFile(context.Background(), job)
			Expect(err).NotTo(HaveOccurred())
			Expect(stemFiles).To(HaveLen(4))

			for _, stem := range job.SplitType.Stems() {
				expectedURL := config.GoogleStorageHost + "/bucket-head/song/" + stem + ".wav"
				Expect(stemFiles[stem].RemoteURL).To(Equal(expectedURL))
				Expect(stemFiles[stem].LocalPath).To(BeARegularFile())

				content, getErr := dummyFileStore.GetFile(expectedURL)
				Expect(getErr).NotTo(HaveOccurred())
				Expect(string(content)).To(Equal("cool_jamz-" + stem))
			}
		})

		It("fails the separation when the file store is down", func() {
			dummyFileStore.Unavailable = true

			_, err := remoteSeparator.SeparateFile(context.Background(), job)
			Expect(mark.Is(err, separator.SeparationError)).To(BeTrue())
		})

		It("passes local errors through", func() {
			dummyExecutor.Unavailable = true

			_, err := remoteSeparator.SeparateFile(context.Background(), job)
			Expect(mark.Is(err, separator.SeparationError)).To(BeTrue())
			Expect(dummyFileStore.State).To(BeEmpty())
		})
	})
})
