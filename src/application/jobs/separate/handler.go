package separate

import (
	"context"
	"mime/multipart"
	"net/http"
	"stem-separator/src/application/api_error"
	"stem-separator/src/application/jobs/separate/separator"
	"stem-separator/src/lib/cerr"
	"stem-separator/src/lib/mark"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v4"
)

const (
	FileFieldName  = "audioFile"
	SuccessMessage = "Audio separation completed."

	// room for the multipart framing around the file itself
	formOverheadBytes = 1 << 20
)

type SeparationResponse struct {
	Message     string            `json:"message"`
	Files       separator.StemSet `json:"files"`
	RemoteFiles separator.StemSet `json:"remote_files,omitempty"`
}

func NewGateway(runner separator.JobRunner, maxUploadBytes int64, responder api_error.Responder) Gateway {
	return Gateway{
		runner:         runner,
		maxUploadBytes: maxUploadBytes,
		responder:      responder,
	}
}

type Gateway struct {
	runner         separator.JobRunner
	maxUploadBytes int64
	responder      api_error.Responder
}

// Upload handles one multipart upload, blocking until its separation ends.
func (g Gateway) Upload(c echo.Context) error {
	fileHeader, err := g.uploadedFile(c)
	if err != nil {
		return g.responder.ErrorResponse(c, g.convertError(err))
	}

	file, err := fileHeader.Open()
	if err != nil {
		err = cerr.Field("filename", fileHeader.Filename).Wrap(err).Error("Failed to open uploaded file")
		return g.responder.ErrorResponse(c, api_error.CommitError(err, api_error.DefaultErrorCode, api_error.DefaultUserMessage))
	}
	defer file.Close()

	log.WithFields(log.Fields{
		"filename": fileHeader.Filename,
		"size":     humanize.Bytes(uint64(fileHeader.Size)),
	}).Info("Received upload")

	// a client hanging up must not kill the separator, only the timeout does
	ctx := context.WithoutCancel(c.Request().Context())

	result, err := g.runner.Run(ctx, separator.Upload{
		Filename: fileHeader.Filename,
		Content:  file,
		Size:     fileHeader.Size,
	})
	if err != nil {
		apiErr := api_error.WrapError(g.convertError(err), "Failed to separate upload "+fileHeader.Filename)
		return g.responder.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusOK, SeparationResponse{
		Message:     SuccessMessage,
		Files:       result.Files,
		RemoteFiles: result.RemoteFiles,
	})
}

// uploadedFile validates the request shape. Nothing touches the disk or
// starts a process before it passes.
func (g Gateway) uploadedFile(c echo.Context) (*multipart.FileHeader, error) {
	request := c.Request()
	if g.maxUploadBytes > 0 {
		request.Body = http.MaxBytesReader(c.Response(), request.Body, g.maxUploadBytes+formOverheadBytes)
	}

	form, err := c.MultipartForm()
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, invalidUpload(err, separator.FileTooLargeError, "Request body is over the size limit")
		}

		return nil, invalidUpload(err, separator.NoFileProvidedError, "Request is not a readable multipart form")
	}

	fileHeaders := form.File[FileFieldName]
	if len(fileHeaders) == 0 {
		errctx := cerr.Field("field", FileFieldName)

		// a part sent with an empty filename is parsed as a plain value
		if _, ok := form.Value[FileFieldName]; ok {
			return nil, invalidUpload(errctx.Error("File field has no filename"), separator.NoFileSelectedError, "No file selected")
		}

		return nil, invalidUpload(errctx.Error("Request has no file field"), separator.NoFileProvidedError, "No file provided")
	}

	fileHeader := fileHeaders[0]
	if fileHeader.Filename == "" {
		err := cerr.Field("field", FileFieldName).Error("File field has no filename")
		return nil, invalidUpload(err, separator.NoFileSelectedError, "No file selected")
	}

	if g.maxUploadBytes > 0 && fileHeader.Size > g.maxUploadBytes {
		err := cerr.Field("filename", fileHeader.Filename).
			Field("size", fileHeader.Size).
			Field("max_upload_bytes", g.maxUploadBytes).
			Error("Uploaded file is over the size limit")
		return nil, invalidUpload(err, separator.FileTooLargeError, "File too large")
	}

	return fileHeader, nil
}

func invalidUpload(err error, kind error, msg string) error {
	return mark.Wrap(mark.Wrap(err, kind, msg), separator.ValidationError, "Invalid upload")
}
