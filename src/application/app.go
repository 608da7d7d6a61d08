package application

import (
	"net/http"
	"path/filepath"
	"stem-separator/src/application/api_error"
	cloudstorage "stem-separator/src/application/cloud_storage/entity"
	filestore "stem-separator/src/application/cloud_storage/store"
	"stem-separator/src/application/executor"
	"stem-separator/src/application/jobs/records"
	"stem-separator/src/application/jobs/separate"
	"stem-separator/src/application/jobs/separate/separator"
	"stem-separator/src/application/jobs/separate/separator/file_separator"
	"stem-separator/src/application/jobs/serve_output"
	"stem-separator/src/application/publish"
	"stem-separator/src/application/separations/entity"
	recordstore "stem-separator/src/application/separations/store"
	"stem-separator/src/lib/cerr"
	"stem-separator/src/lib/config"
	"stem-separator/src/lib/storagepath"
	"stem-separator/src/lib/working_dir"
	"time"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/streadway/amqp"
	"google.golang.org/api/option"
)

type HTTPMethod string

const (
	GET  HTTPMethod = "GET"
	POST HTTPMethod = "POST"
)

const outputRoute = "output"

type Config struct {
	Port               string
	CORSAllowedOrigins []string
	Log                bool
	ExposeErrorDetails bool

	PublicDir string
	UploadDir string
	OutputDir string

	SpleeterBinPath    string
	SpleeterWorkingDir string
	SplitType          separator.SplitType
	Codec              string
	SeparationTimeout  time.Duration
	MaxUploadBytes     int64
	CleanupPolicy      separator.CleanupPolicy
	IsolateJobs        bool
	VerifyOutputs      bool
	StaleUploadMaxAge  time.Duration

	// side channels, each one is off while its config is unset
	CloudStorageConfig config.CloudStorage
	DynamoConfig       config.Dynamo
	RabbitMQURL        string
	RabbitMQQueueName  string
}

// Collaborators are the outside systems the app talks to. Only Executor is required.
type Collaborators struct {
	Executor    executor.Executor
	FileStore   cloudstorage.FileStore
	RecordStore entity.RecordStore
	Publisher   publish.Publisher
}

type App struct {
	echo   *echo.Echo
	port   string
	closer func() error
}

// NewApp connects to every side channel the config enables.
func NewApp(appConfig Config) (App, error) {
	collaborators := Collaborators{
		Executor: executor.BinaryFileExecutor{},
	}

	if appConfig.CloudStorageConfig != nil {
		fileStore, err := makeGoogleFileStore(appConfig.CloudStorageConfig)
		if err != nil {
			return App{}, err
		}
		collaborators.FileStore = fileStore
	}

	if appConfig.DynamoConfig != nil {
		recordStore, err := recordstore.NewDynamoDBRecordStore(appConfig.DynamoConfig)
		if err != nil {
			return App{}, err
		}
		collaborators.RecordStore = recordStore
	}

	var conn *amqp.Connection
	if appConfig.RabbitMQURL != "" {
		var (
			publisher publish.RabbitMQPublisher
			err       error
		)

		conn, publisher, err = makeRabbitMQPublisher(appConfig)
		if err != nil {
			return App{}, err
		}
		collaborators.Publisher = publisher
	}

	app, err := NewAppWithCollaborators(appConfig, collaborators)
	if err != nil {
		if conn != nil {
			_ = conn.Close()
		}
		return App{}, err
	}

	if conn != nil {
		app.closer = conn.Close
	}

	return app, nil
}

func NewAppWithCollaborators(appConfig Config, collaborators Collaborators) (App, error) {
	if collaborators.Executor == nil {
		return App{}, cerr.Error("An executor is required to run the separator")
	}

	workingDir, err := working_dir.NewWorkingDir(appConfig.UploadDir, appConfig.OutputDir)
	if err != nil {
		return App{}, cerr.Wrap(err).Error("Failed to prepare working directories")
	}

	if appConfig.StaleUploadMaxAge > 0 {
		sweepStaleUploads(workingDir, appConfig.StaleUploadMaxAge)
	}

	fileSeparator, err := makeFileSeparator(appConfig, collaborators)
	if err != nil {
		return App{}, err
	}

	runner := separator.NewJobRunner(workingDir, fileSeparator, separator.Settings{
		SplitType:       appConfig.SplitType,
		Codec:           appConfig.Codec,
		Timeout:         appConfig.SeparationTimeout,
		CleanupPolicy:   appConfig.CleanupPolicy,
		IsolateJobs:     appConfig.IsolateJobs,
		OutputURLPrefix: outputRoute,
	}, collaborators.RecordStore, collaborators.Publisher)

	responder := api_error.Responder{ExposeDetails: appConfig.ExposeErrorDetails}
	separateGateway := separate.NewGateway(runner, appConfig.MaxUploadBytes, responder)
	outputGateway := serve_output.NewGateway(workingDir, responder)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	if appConfig.Log {
		e.Use(middleware.Logger())
	}

	corsMiddleware := makeCorsMiddleware(appConfig)

	handleRoute := func(method HTTPMethod, path string, handlerFunc echo.HandlerFunc) {
		params := func() (string, echo.HandlerFunc, echo.MiddlewareFunc) {
			return path, handlerFunc, corsMiddleware
		}

		e.OPTIONS(params())

		switch method {
		case GET:
			e.GET(params())
		case POST:
			e.POST(params())
		default:
			panic("unhandled http method!")
		}
	}

	// health check
	handleRoute(GET, "/health-check", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	// home page
	if appConfig.PublicDir != "" {
		e.Static("/", appConfig.PublicDir)
		handleRoute(GET, "/", func(c echo.Context) error {
			return c.File(filepath.Join(appConfig.PublicDir, "index.html"))
		})
	}

	// separation routes
	handleRoute(POST, "/upload", separateGateway.Upload)
	handleRoute(GET, "/"+outputRoute+"/*", func(c echo.Context) error {
		return outputGateway.Download(c, c.Param("*"))
	})

	if collaborators.RecordStore != nil {
		recordGateway := records.NewGateway(collaborators.RecordStore, responder)
		handleRoute(GET, "/separations/:name", func(c echo.Context) error {
			return recordGateway.GetRecord(c, c.Param("name"))
		})
	}

	return App{
		echo: e,
		port: appConfig.Port,
	}, nil
}

func (a *App) Handler() http.Handler {
	return a.echo
}

func (a *App) Start() error {
	log.WithField("port", a.port).Info("Starting server")

	err := a.echo.Start(a.port)
	if err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "Couldn't start echo server")
	}

	return nil
}

func (a *App) Stop() error {
	err := a.echo.Close()
	if err != nil {
		return errors.Wrap(err, "Failed to stop echo server")
	}

	if a.closer != nil {
		if err := a.closer(); err != nil {
			return errors.Wrap(err, "Failed to close rabbitMQ connection")
		}
	}

	return nil
}

func makeFileSeparator(appConfig Config, collaborators Collaborators) (separator.FileSeparator, error) {
	spleeterDir := appConfig.SpleeterWorkingDir
	if spleeterDir == "" {
		spleeterDir = "."
	}

	localSeparator, err := file_separator.NewLocalFileSeparator(appConfig.SpleeterBinPath, spleeterDir, appConfig.VerifyOutputs, collaborators.Executor)
	if err != nil {
		return nil, err
	}

	if collaborators.FileStore == nil {
		return localSeparator, nil
	}

	if appConfig.CloudStorageConfig == nil {
		return nil, cerr.Error("A file store was given without a cloud storage config")
	}

	pathGenerator := storagepath.Generator{
		Host:   appConfig.CloudStorageConfig.GetStorageHost(),
		Bucket: appConfig.CloudStorageConfig.GetBucket(),
	}

	return file_separator.NewRemoteFileSeparator(localSeparator, collaborators.FileStore, pathGenerator), nil
}

func makeGoogleFileStore(storageConfig config.CloudStorage) (filestore.GoogleFileStore, error) {
	switch t := storageConfig.(type) {
	case config.ProdCloudStorage:
		return filestore.NewGoogleFileStore(t.StorageHost, option.WithCredentialsJSON([]byte(t.SecretKey)))
	case config.LocalCloudStorage:
		return filestore.NewGoogleFileStore(t.StorageHost, option.WithEndpoint(t.HostEndpoint), option.WithoutAuthentication())
	default:
		return filestore.GoogleFileStore{}, cerr.Error("Unexpected cloud storage config type")
	}
}

func makeRabbitMQPublisher(appConfig Config) (*amqp.Connection, publish.RabbitMQPublisher, error) {
	conn, err := amqp.Dial(appConfig.RabbitMQURL)
	if err != nil {
		return nil, publish.RabbitMQPublisher{}, cerr.Wrap(err).Error("Failed to dial rabbitMQ url")
	}

	publisher, err := publish.NewRabbitMQPublisher(conn, appConfig.RabbitMQQueueName)
	if err != nil {
		_ = conn.Close()
		return nil, publish.RabbitMQPublisher{}, cerr.Wrap(err).Error("Failed to create rabbitMQ publisher")
	}

	return conn, publisher, nil
}

func makeCorsMiddleware(appConfig Config) echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: appConfig.CORSAllowedOrigins,
		AllowHeaders: []string{echo.HeaderContentType},
	})
}

func sweepStaleUploads(workingDir working_dir.WorkingDir, maxAge time.Duration) {
	removed, err := workingDir.CleanStaleUploads(maxAge)
	if err != nil {
		cerr.LogWarn(cerr.Field("max_age", maxAge.String()).Wrap(err).Error("Failed to sweep stale uploads"))
		return
	}

	log.WithFields(log.Fields{
		"count":  len(removed),
		"maxAge": maxAge.String(),
	}).Info("Swept stale uploads")
}
