package main

import (
	"os"
	"stem-separator/src/application/jobs/separate/separator"
	"stem-separator/src/lib/env"
	"stem-separator/src/lib/envvar"
	"time"

	. "github.com/onsi/gomega"

	. "github.com/onsi/ginkgo"
)

var _ = Describe("appConfigFor", func() {
	var restores []func()

	setEnv := func(key string, value string) {
		previous, wasSet := os.LookupEnv(key)
		restores = append(restores, func() {
			if wasSet {
				_ = os.Setenv(key, previous)
			} else {
				_ = os.Unsetenv(key)
			}
		})

		if value == "" {
			Expect(os.Unsetenv(key)).To(Succeed())
		} else {
			Expect(os.Setenv(key, value)).To(Succeed())
		}
	}

	BeforeEach(func() {
		restores = nil

		setEnv(envvar.SPLEETER_BIN_PATH, "/opt/spleeter")
		setEnv(envvar.SPLEETER_STEMS, "")
		setEnv(envvar.SEPARATION_TIMEOUT, "")
		setEnv(envvar.MAX_UPLOAD_SIZE, "")
		setEnv(envvar.CLEANUP_POLICY, "")
		setEnv(envvar.AWS_ACCESS_KEY_ID, "")
		setEnv(envvar.GOOGLE_CLOUD_STORAGE_BUCKET_NAME, "")
		setEnv(envvar.ALLOWED_FE_ORIGINS, "https://a.example,https://b.example")
	})

	AfterEach(func() {
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}
	})

	It("runs the test environment with the development settings", func() {
		appConfig := appConfigFor(env.Test)
		devConfig := appConfigFor(env.Development)

		Expect(appConfig.CORSAllowedOrigins).To(Equal([]string{"*"}))
		Expect(appConfig.ExposeErrorDetails).To(BeTrue())
		Expect(appConfig.SpleeterBinPath).To(Equal("/opt/spleeter"))
		Expect(appConfig).To(Equal(devConfig))
	})

	It("applies the defaults", func() {
		appConfig := appConfigFor(env.Test)

		Expect(appConfig.SplitType).To(Equal(separator.SplitFiveStemsType))
		Expect(appConfig.SeparationTimeout).To(Equal(300 * time.Second))
		Expect(appConfig.MaxUploadBytes).To(Equal(int64(200_000_000)))
		Expect(appConfig.CleanupPolicy).To(Equal(separator.CleanupOnSuccess))
		Expect(appConfig.DynamoConfig).To(BeNil())
	})

	It("reads production origins and hides error details", func() {
		appConfig := appConfigFor(env.Production)

		Expect(appConfig.CORSAllowedOrigins).To(Equal([]string{"https://a.example", "https://b.example"}))
		Expect(appConfig.ExposeErrorDetails).To(BeFalse())
		Expect(appConfig.CloudStorageConfig).To(BeNil())
	})

	It("panics on an unknown environment", func() {
		Expect(func() { appConfigFor(env.Environment("staging")) }).To(Panic())
	})
})
