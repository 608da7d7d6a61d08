package records

import (
	"net/http"
	"stem-separator/src/application/api_error"
	"stem-separator/src/application/separations/entity"
	"stem-separator/src/lib/cerr"
	"stem-separator/src/lib/mark"

	"github.com/labstack/echo/v4"
)

const NotFoundMessage = "No separation exists with that name."

func NewGateway(recordStore entity.RecordStore, responder api_error.Responder) Gateway {
	return Gateway{
		recordStore: recordStore,
		responder:   responder,
	}
}

type Gateway struct {
	recordStore entity.RecordStore
	responder   api_error.Responder
}

func (g Gateway) GetRecord(c echo.Context, jobName string) error {
	record, err := g.recordStore.GetRecord(c.Request().Context(), jobName)
	if err != nil {
		err = cerr.Field("job_name", jobName).Wrap(err).Error("Failed to get separation record")

		if mark.Is(err, entity.NotFoundError) {
			return g.responder.ErrorResponse(c, api_error.CommitError(err, api_error.RecordNotFoundCode, NotFoundMessage))
		}

		return g.responder.ErrorResponse(c, api_error.CommitError(err, api_error.DefaultErrorCode, api_error.DefaultUserMessage))
	}

	return c.JSON(http.StatusOK, record)
}
