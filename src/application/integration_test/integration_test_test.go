package integration_test_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"stem-separator/src/application"
	"stem-separator/src/application/api_error"
	"stem-separator/src/application/integration_test/dummy"
	"stem-separator/src/application/jobs/separate"
	"stem-separator/src/application/jobs/separate/separator"
	"stem-separator/src/application/publish/publishfakes"
	"stem-separator/src/application/separations/entity"
	"stem-separator/src/lib/config"
	"stem-separator/src/lib/testlib"
	"time"

	. "github.com/onsi/gomega"

	. "github.com/onsi/ginkgo"
)

var _ = Describe("IntegrationTest", func() {
	var (
		uploadDir   string
		outputDir   string
		publicDir   string
		spleeterDir string

		appConfig     application.Config
		collaborators application.Collaborators

		spleeterExecutor *dummy.SpleeterExecutor
		fileStore        *dummy.FileStore
		recordStore      *dummy.RecordStore
		fakePublisher    *publishfakes.FakePublisher

		server *httptest.Server

		fiveStems []string
	)

	uploadRequest := func(fileName string, content []byte) testlib.RequestFactory {
		return testlib.RequestFactory{
			Method: http.MethodPost,
			Target: server.URL + "/upload",
			Files: []testlib.MultipartFile{
				{FieldName: separate.FileFieldName, FileName: fileName, Content: content},
			},
		}
	}

	get := func(path string) *http.Response {
		response, err := testlib.RequestFactory{
			Method: http.MethodGet,
			Target: server.URL + path,
		}.Do()
		Expect(err).NotTo(HaveOccurred())
		return response
	}

	stagedFiles := func() []string {
		entries, err := os.ReadDir(uploadDir)
		Expect(err).NotTo(HaveOccurred())

		names := []string{}
		for _, entry := range entries {
			names = append(names, entry.Name())
		}
		return names
	}

	BeforeEach(func() {
		By("Creating the directories", func() {
			caseRoot, err := os.MkdirTemp(testRoot, "case-*")
			Expect(err).NotTo(HaveOccurred())

			uploadDir = filepath.Join(caseRoot, "uploads")
			outputDir = filepath.Join(caseRoot, "output")
			publicDir = filepath.Join(caseRoot, "public")
			spleeterDir = filepath.Join(caseRoot, "spleeter")

			Expect(os.MkdirAll(publicDir, os.ModePerm)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(publicDir, "index.html"), []byte("<h1>home</h1>"), 0o644)).To(Succeed())
		})

		By("Instantiating all dummies", func() {
			spleeterExecutor = dummy.NewDummySpleeterExecutor()
			fileStore = dummy.NewDummyFileStore()
			recordStore = dummy.NewDummyRecordStore()
			fakePublisher = &publishfakes.FakePublisher{}
		})

		appConfig = application.Config{
			CORSAllowedOrigins: []string{"*"},
			ExposeErrorDetails: true,
			PublicDir:          publicDir,
			UploadDir:          uploadDir,
			OutputDir:          outputDir,
			SpleeterBinPath:    "/whatever/spleeter",
			SpleeterWorkingDir: spleeterDir,
			SplitType:          separator.SplitFiveStemsType,
			Codec:              "wav",
			SeparationTimeout:  5 * time.Second,
			MaxUploadBytes:     1024,
			CleanupPolicy:      separator.CleanupOnSuccess,
			VerifyOutputs:      true,
		}

		collaborators = application.Collaborators{
			Executor: spleeterExecutor,
		}

		fiveStems = []string{"vocals", "drums", "bass", "piano", "other"}
	})

	JustBeforeEach(func() {
		app, err := application.NewAppWithCollaborators(appConfig, collaborators)
		Expect(err).NotTo(HaveOccurred())

		server = httptest.NewServer(app.Handler())
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("Uploading a valid file", func() {
		var (
			response *http.Response
			body     separate.SeparationResponse
		)

		JustBeforeEach(func() {
			var err error
			response, err = uploadRequest("song.mp3", []byte("cool_jamz")).Do()
			Expect(err).NotTo(HaveOccurred())
			defer response.Body.Close()

			body = testlib.DecodeJSON[separate.SeparationResponse](response.Body)
		})

		It("answers with every stem path", func() {
			Expect(response.StatusCode).To(Equal(http.StatusOK))
			Expect(body.Message).To(Equal(separate.SuccessMessage))
			Expect(body.Files).To(HaveLen(5))

			for _, stem := range fiveStems {
				Expect(body.Files).To(HaveKeyWithValue(stem, "output/song/"+stem+".wav"))
			}
		})

		It("removes the staged input", func() {
			Expect(stagedFiles()).To(BeEmpty())
		})

		It("runs the separator in its working directory", func() {
			Expect(spleeterExecutor.CallCount()).To(Equal(1))
			cmd := spleeterExecutor.CommandForCall(0)
			Expect(cmd.Name).To(Equal("/whatever/spleeter"))
			Expect(cmd.Dir).To(Equal(spleeterDir))
		})

		It("serves each stem as an attachment", func() {
			stemResponse := get("/" + body.Files["piano"])
			defer stemResponse.Body.Close()

			Expect(stemResponse.StatusCode).To(Equal(http.StatusOK))
			Expect(stemResponse.Header.Get("Content-Disposition")).To(ContainSubstring("attachment"))
			Expect(stemResponse.Header.Get("Content-Disposition")).To(ContainSubstring("piano.wav"))

			content, err := io.ReadAll(stemResponse.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(content)).To(Equal("cool_jamz-piano"))
		})

		It("does not report remote files", func() {
			Expect(body.RemoteFiles).To(BeEmpty())
		})

		Describe("A second upload with the same name", func() {
			var secondBody separate.SeparationResponse

			JustBeforeEach(func() {
				secondResponse, err := uploadRequest("song.wav", []byte("new_jamz")).Do()
				Expect(err).NotTo(HaveOccurred())
				defer secondResponse.Body.Close()

				Expect(secondResponse.StatusCode).To(Equal(http.StatusOK))
				secondBody = testlib.DecodeJSON[separate.SeparationResponse](secondResponse.Body)
			})

			It("reuses the output directory and overwrites the first result", func() {
				Expect(secondBody.Files).To(Equal(body.Files))

				content, err := os.ReadFile(filepath.Join(outputDir, "song", "vocals.wav"))
				Expect(err).NotTo(HaveOccurred())
				Expect(string(content)).To(Equal("new_jamz-vocals"))
			})
		})
	})

	Describe("Invalid requests", func() {
		expectNoSideEffects := func() {
			Expect(stagedFiles()).To(BeEmpty())
			Expect(spleeterExecutor.CallCount()).To(BeZero())
		}

		It("rejects a form without the file field", func() {
			response, err := testlib.RequestFactory{
				Method:     http.MethodPost,
				Target:     server.URL + "/upload",
				FormValues: map[string]string{"somethingElse": "hi"},
			}.Do()
			Expect(err).NotTo(HaveOccurred())
			defer response.Body.Close()

			Expect(response.StatusCode).To(Equal(http.StatusBadRequest))
			errBody := testlib.DecodeJSONError(response.Body)
			Expect(errBody.Code).To(Equal(string(api_error.NoFileProvidedCode)))
			Expect(errBody.Message).To(Equal(separate.NoFileProvidedMessage))
			expectNoSideEffects()
		})

		It("rejects a body that is not multipart", func() {
			response, err := testlib.RequestFactory{
				Method:  http.MethodPost,
				Target:  server.URL + "/upload",
				JSONObj: map[string]string{"audioFile": "song.mp3"},
			}.Do()
			Expect(err).NotTo(HaveOccurred())
			defer response.Body.Close()

			Expect(response.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(testlib.DecodeJSONError(response.Body).Code).To(Equal(string(api_error.NoFileProvidedCode)))
			expectNoSideEffects()
		})

		It("rejects an empty filename", func() {
			response, err := uploadRequest("", []byte("cool_jamz")).Do()
			Expect(err).NotTo(HaveOccurred())
			defer response.Body.Close()

			Expect(response.StatusCode).To(Equal(http.StatusBadRequest))
			errBody := testlib.DecodeJSONError(response.Body)
			Expect(errBody.Code).To(Equal(string(api_error.NoFileSelectedCode)))
			Expect(errBody.Message).To(Equal(separate.NoFileSelectedMessage))
			expectNoSideEffects()
		})

		It("rejects a filename with no usable name", func() {
			response, err := uploadRequest("..", []byte("cool_jamz")).Do()
			Expect(err).NotTo(HaveOccurred())
			defer response.Body.Close()

			Expect(response.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(testlib.DecodeJSONError(response.Body).Code).To(Equal(string(api_error.NoFileSelectedCode)))
			expectNoSideEffects()
		})

		It("rejects a file over the size limit", func() {
			response, err := uploadRequest("song.mp3", make([]byte, 2048)).Do()
			Expect(err).NotTo(HaveOccurred())
			defer response.Body.Close()

			Expect(response.StatusCode).To(Equal(http.StatusRequestEntityTooLarge))
			errBody := testlib.DecodeJSONError(response.Body)
			Expect(errBody.Code).To(Equal(string(api_error.FileTooLargeCode)))
			Expect(errBody.Message).To(ContainSubstring("1.0 kB"))
			expectNoSideEffects()
		})
	})

	Describe("Separator failures", func() {
		var (
			response *http.Response
			errBody  api_error.JSONAPIError
			elapsed  time.Duration
		)

		JustBeforeEach(func() {
			start := time.Now()

			var err error
			response, err = uploadRequest("song.mp3", []byte("cool_jamz")).Do()
			Expect(err).NotTo(HaveOccurred())
			defer response.Body.Close()

			elapsed = time.Since(start)
			errBody = testlib.DecodeJSONError(response.Body)
		})

		Describe("when the separator exits non-zero", func() {
			BeforeEach(func() {
				spleeterExecutor.Unavailable = true
			})

			It("answers with a server error and keeps the staged input", func() {
				Expect(response.StatusCode).To(Equal(http.StatusInternalServerError))
				Expect(errBody.Code).To(Equal(string(api_error.SeparationCode)))
				Expect(errBody.Message).To(Equal(separate.SeparationFailedMessage))
				Expect(errBody.ErrorDetails).To(ContainSubstring("Failed to load model"))
				Expect(errBody.ErrorDetails).To(HavePrefix("Failed to separate upload song.mp3"))
				Expect(stagedFiles()).To(ConsistOf("song.mp3"))
			})

			Describe("with the always cleanup policy", func() {
				BeforeEach(func() {
					appConfig.CleanupPolicy = separator.CleanupAlways
				})

				It("removes the staged input", func() {
					Expect(response.StatusCode).To(Equal(http.StatusInternalServerError))
					Expect(stagedFiles()).To(BeEmpty())
				})
			})

			Describe("without exposed error details", func() {
				BeforeEach(func() {
					appConfig.ExposeErrorDetails = false
				})

				It("sends only the code and message", func() {
					Expect(errBody.Code).To(Equal(string(api_error.SeparationCode)))
					Expect(errBody.ErrorDetails).To(BeEmpty())
				})
			})
		})

		Describe("when the separator never returns", func() {
			BeforeEach(func() {
				spleeterExecutor.Hang = true
				appConfig.SeparationTimeout = 200 * time.Millisecond
			})

			It("answers with a timeout after roughly the bound and keeps the staged input", func() {
				Expect(response.StatusCode).To(Equal(http.StatusInternalServerError))
				Expect(errBody.Code).To(Equal(string(api_error.TimeoutCode)))
				Expect(errBody.Message).To(Equal(separate.TimeoutMessage))
				Expect(elapsed).To(BeNumerically(">=", 200*time.Millisecond))
				Expect(elapsed).To(BeNumerically("<", 3*time.Second))
				Expect(stagedFiles()).To(ConsistOf("song.mp3"))
			})
		})

		Describe("when the separator leaves out a stem", func() {
			BeforeEach(func() {
				spleeterExecutor.MissingStems = []string{"piano"}
			})

			It("answers with an incomplete output error", func() {
				Expect(response.StatusCode).To(Equal(http.StatusInternalServerError))
				Expect(errBody.Code).To(Equal(string(api_error.IncompleteCode)))
				Expect(errBody.ErrorDetails).To(ContainSubstring("Separation output is incomplete"))
			})

			Describe("with verification off", func() {
				BeforeEach(func() {
					appConfig.VerifyOutputs = false
				})

				It("trusts the exit status", func() {
					Expect(response.StatusCode).To(Equal(http.StatusOK))
				})
			})
		})
	})

	Describe("Side channels", func() {
		var body separate.SeparationResponse

		BeforeEach(func() {
			appConfig.CloudStorageConfig = config.LocalCloudStorage{
				StorageHost: config.GoogleStorageHost,
				BucketName:  "bucket-head",
			}
			collaborators.FileStore = fileStore
			collaborators.RecordStore = recordStore
			collaborators.Publisher = fakePublisher
		})

		JustBeforeEach(func() {
			response, err := uploadRequest("song.mp3", []byte("cool_jamz")).Do()
			Expect(err).NotTo(HaveOccurred())
			defer response.Body.Close()

			Expect(response.StatusCode).To(Equal(http.StatusOK))
			body = testlib.DecodeJSON[separate.SeparationResponse](response.Body)
		})

		It("mirrors the stems to cloud storage", func() {
			Expect(body.RemoteFiles).To(HaveLen(5))
			vocalsURL := config.GoogleStorageHost + "/bucket-head/song/vocals.wav"
			Expect(body.RemoteFiles).To(HaveKeyWithValue("vocals", vocalsURL))

			content, err := fileStore.GetFile(vocalsURL)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(content)).To(Equal("cool_jamz-vocals"))
		})

		It("publishes a completed event", func() {
			Expect(fakePublisher.PublishCallCount()).To(Equal(1))
			Expect(fakePublisher.PublishArgsForCall(0).Type).To(Equal(separator.CompletedEventType))
		})

		It("serves the saved record", func() {
			response := get("/separations/song")
			defer response.Body.Close()

			Expect(response.StatusCode).To(Equal(http.StatusOK))
			record := testlib.DecodeJSON[entity.Record](response.Body)
			Expect(record.JobName).To(Equal("song"))
			Expect(record.OriginalFilename).To(Equal("song.mp3"))
			Expect(record.Stems).To(Equal(body.Files))
			Expect(record.RemoteStems).To(Equal(body.RemoteFiles))
		})

		It("answers 404 for an unknown record", func() {
			response := get("/separations/nope")
			defer response.Body.Close()

			Expect(response.StatusCode).To(Equal(http.StatusNotFound))
			Expect(testlib.DecodeJSONError(response.Body).Code).To(Equal(string(api_error.RecordNotFoundCode)))
		})

		Describe("when the record store is down", func() {
			BeforeEach(func() {
				recordStore.Unavailable = true
			})

			It("still succeeds", func() {
				Expect(body.Files).To(HaveLen(5))
			})
		})
	})

	Describe("Isolated jobs", func() {
		BeforeEach(func() {
			appConfig.IsolateJobs = true
		})

		It("gives uploads sharing a name their own output", func() {
			names := []string{}

			for _, content := range []string{"first", "second"} {
				response, err := uploadRequest("song.mp3", []byte(content)).Do()
				Expect(err).NotTo(HaveOccurred())

				body := testlib.DecodeJSON[separate.SeparationResponse](response.Body)
				response.Body.Close()

				Expect(response.StatusCode).To(Equal(http.StatusOK))
				names = append(names, filepath.Dir(body.Files["vocals"]))
			}

			Expect(names[0]).NotTo(Equal(names[1]))
			Expect(names[0]).To(HavePrefix("output/song-"))
		})
	})

	Describe("Other routes", func() {
		It("serves the home page", func() {
			response := get("/")
			defer response.Body.Close()

			Expect(response.StatusCode).To(Equal(http.StatusOK))
			content, err := io.ReadAll(response.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(content)).To(ContainSubstring("home"))
		})

		It("answers the health check", func() {
			response := get("/health-check")
			defer response.Body.Close()

			Expect(response.StatusCode).To(Equal(http.StatusOK))
		})

		It("answers 404 for a missing output file", func() {
			response := get("/output/nothing/vocals.wav")
			defer response.Body.Close()

			Expect(response.StatusCode).To(Equal(http.StatusNotFound))
			Expect(testlib.DecodeJSONError(response.Body).Code).To(Equal(string(api_error.OutputNotFoundCode)))
		})

		It("does not serve files outside the output root", func() {
			Expect(os.WriteFile(filepath.Join(uploadDir, "secret.txt"), []byte("secret"), 0o644)).To(Succeed())

			response := get("/output/..%2Fuploads%2Fsecret.txt")
			defer response.Body.Close()

			Expect(response.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("serves output files with escapes in their names", func() {
			stemDir := filepath.Join(outputDir, "song")
			Expect(os.MkdirAll(stemDir, os.ModePerm)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(stemDir, "a%41.wav"), []byte("percent"), 0o644)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(stemDir, "aA.wav"), []byte("letter"), 0o644)).To(Succeed())

			response := get("/output/song/a%2541.wav")
			defer response.Body.Close()

			Expect(response.StatusCode).To(Equal(http.StatusOK))
			content, err := io.ReadAll(response.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(content)).To(Equal("percent"))
		})

		It("does not register the record route without a record store", func() {
			response := get("/separations/song")
			defer response.Body.Close()

			Expect(response.StatusCode).To(Equal(http.StatusNotFound))
		})
	})
})
