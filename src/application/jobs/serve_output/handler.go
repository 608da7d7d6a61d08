package serve_output

import (
	"net/url"
	"os"
	"path/filepath"
	"stem-separator/src/application/api_error"
	"stem-separator/src/lib/cerr"
	"stem-separator/src/lib/working_dir"

	"github.com/labstack/echo/v4"
)

const NotFoundMessage = "The requested file does not exist."

func NewGateway(workingDir working_dir.WorkingDir, responder api_error.Responder) Gateway {
	return Gateway{
		workingDir: workingDir,
		responder:  responder,
	}
}

type Gateway struct {
	workingDir working_dir.WorkingDir
	responder  api_error.Responder
}

// Download sends a file under the output root as an attachment.
func (g Gateway) Download(c echo.Context, relPath string) error {
	// echo routes on RawPath when it is set, its params are still escaped then
	if c.Request().URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(relPath); err == nil {
			relPath = unescaped
		}
	}

	fullPath := g.workingDir.ResolveOutput(relPath)
	errctx := cerr.Field("requested_path", relPath).Field("resolved_path", fullPath)

	info, err := os.Stat(fullPath)
	if err != nil {
		err = errctx.Wrap(err).Error("Failed to stat output file")
		return g.responder.ErrorResponse(c, api_error.CommitError(err, api_error.OutputNotFoundCode, NotFoundMessage))
	}

	if info.IsDir() {
		err = errctx.Error("Requested output path is a directory")
		return g.responder.ErrorResponse(c, api_error.CommitError(err, api_error.OutputNotFoundCode, NotFoundMessage))
	}

	return c.Attachment(fullPath, filepath.Base(fullPath))
}
