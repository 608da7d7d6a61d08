package main

import (
	"os"
	"os/signal"
	"stem-separator/src/application"
	"stem-separator/src/application/jobs/separate/separator"
	"stem-separator/src/lib/config"
	"stem-separator/src/lib/env"
	"stem-separator/src/lib/envvar"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/apex/log/handlers/json"
	"github.com/dustin/go-humanize"
)

const (
	defaultPort              = ":5000"
	defaultSeparationTimeout = "300s"
	defaultMaxUploadSize     = "200MB"

	devDynamoHost   = "http://localhost:8000"
	devDynamoRegion = "localhost"
)

func ensureOk(err error) {
	if err != nil {
		panic(err)
	}
}

func main() {
	environment := env.Get()
	setupLogging(environment)

	app, err := application.NewApp(appConfigFor(environment))
	ensureOk(err)

	go stopOnSignal(&app)

	if err := app.Start(); err != nil {
		panic(err)
	}
}

// appConfigFor builds the app config from the environment variables.
// The test environment runs with the development settings.
func appConfigFor(environment env.Environment) application.Config {
	var appConfig application.Config

	switch environment {
	case env.Production:
		commaSeparatedOrigins := envvar.MustGet(envvar.ALLOWED_FE_ORIGINS)

		appConfig = baseConfig()
		appConfig.CORSAllowedOrigins = strings.Split(commaSeparatedOrigins, ",")
		appConfig.SpleeterBinPath = envvar.MustGet(envvar.SPLEETER_BIN_PATH)
		appConfig.ExposeErrorDetails = false

		if envvar.IsSet(envvar.GOOGLE_CLOUD_STORAGE_BUCKET_NAME) {
			appConfig.CloudStorageConfig = config.ProdCloudStorage{
				StorageHost: config.GoogleStorageHost,
				SecretKey:   envvar.MustGet(envvar.GOOGLE_CLOUD_KEY),
				BucketName:  envvar.MustGet(envvar.GOOGLE_CLOUD_STORAGE_BUCKET_NAME),
			}
		}

		if envvar.IsSet(envvar.AWS_ACCESS_KEY_ID) {
			appConfig.DynamoConfig = config.ProdDynamo{
				AccessKeyID:     envvar.MustGet(envvar.AWS_ACCESS_KEY_ID),
				SecretAccessKey: envvar.MustGet(envvar.AWS_SECRET_ACCESS_KEY),
				Region:          envvar.MustGet(envvar.DYNAMODB_REGION),
			}
		}

	case env.Development, env.Test:
		appConfig = baseConfig()
		appConfig.CORSAllowedOrigins = []string{"*"}
		appConfig.SpleeterBinPath = envvar.GetOrDefault(envvar.SPLEETER_BIN_PATH, "")
		appConfig.ExposeErrorDetails = true

		if appConfig.SpleeterBinPath == "" {
			appConfig.SpleeterBinPath = config.SpleeterPath()
		}

		if envvar.IsSet(envvar.AWS_ACCESS_KEY_ID) {
			appConfig.DynamoConfig = config.LocalDynamo{
				AccessKeyID:     envvar.MustGet(envvar.AWS_ACCESS_KEY_ID),
				SecretAccessKey: envvar.MustGet(envvar.AWS_SECRET_ACCESS_KEY),
				Region:          envvar.GetOrDefault(envvar.DYNAMODB_REGION, devDynamoRegion),
				Host:            envvar.GetOrDefault(envvar.DYNAMODB_HOST, devDynamoHost),
			}
		}

	default:
		panic("Unexpected environment")
	}

	return appConfig
}

// baseConfig reads the settings shared by every environment.
func baseConfig() application.Config {
	return application.Config{
		Port: envvar.GetOrDefault(envvar.PORT, defaultPort),
		Log:  true,

		PublicDir: envvar.GetOrDefault(envvar.PUBLIC_DIR, "public"),
		UploadDir: envvar.GetOrDefault(envvar.UPLOAD_DIR, "uploads"),
		OutputDir: envvar.GetOrDefault(envvar.OUTPUT_DIR, "output"),

		SpleeterWorkingDir: envvar.GetOrDefault(envvar.SPLEETER_WORKING_DIR_PATH, "."),
		SplitType:          mustSplitType(envvar.GetOrDefault(envvar.SPLEETER_STEMS, string(separator.SplitFiveStemsType))),
		Codec:              envvar.GetOrDefault(envvar.SPLEETER_CODEC, "wav"),
		SeparationTimeout:  mustDuration(envvar.GetOrDefault(envvar.SEPARATION_TIMEOUT, defaultSeparationTimeout)),
		MaxUploadBytes:     mustBytes(envvar.GetOrDefault(envvar.MAX_UPLOAD_SIZE, defaultMaxUploadSize)),
		CleanupPolicy:      mustCleanupPolicy(envvar.GetOrDefault(envvar.CLEANUP_POLICY, string(separator.CleanupOnSuccess))),
		IsolateJobs:        mustBool(envvar.GetOrDefault(envvar.ISOLATE_JOBS, "false")),
		VerifyOutputs:      mustBool(envvar.GetOrDefault(envvar.VERIFY_OUTPUTS, "true")),
		StaleUploadMaxAge:  mustDuration(envvar.GetOrDefault(envvar.STALE_UPLOAD_MAX_AGE, "0s")),

		RabbitMQURL:       envvar.GetOrDefault(envvar.RABBITMQ_URL, ""),
		RabbitMQQueueName: envvar.GetOrDefault(envvar.RABBITMQ_QUEUE_NAME, ""),
	}
}

func setupLogging(environment env.Environment) {
	if environment == env.Production {
		log.SetHandler(json.New(os.Stderr))
	} else {
		log.SetHandler(cli.New(os.Stderr))
	}

	level, err := log.ParseLevel(envvar.GetOrDefault(envvar.LOG_LEVEL, "info"))
	ensureOk(err)
	log.SetLevel(level)
}

func stopOnSignal(app *application.App) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals

	log.Info("Shutting down")
	if err := app.Stop(); err != nil {
		log.WithError(err).Error("Failed to stop app")
	}
}

func mustSplitType(val string) separator.SplitType {
	splitType, err := separator.ConvertToSplitType(val)
	ensureOk(err)
	return splitType
}

func mustDuration(val string) time.Duration {
	duration, err := time.ParseDuration(val)
	ensureOk(err)
	return duration
}

func mustBytes(val string) int64 {
	numBytes, err := humanize.ParseBytes(val)
	ensureOk(err)
	return int64(numBytes)
}

func mustBool(val string) bool {
	b, err := strconv.ParseBool(val)
	ensureOk(err)
	return b
}

func mustCleanupPolicy(val string) separator.CleanupPolicy {
	policy, ok := separator.ConvertToCleanupPolicy(val)
	if !ok {
		panic("Invalid cleanup policy: " + val)
	}

	return policy
}
