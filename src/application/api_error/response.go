package api_error

import (
	"fmt"
	"net/http"
	"stem-separator/src/lib/cerr"

	"github.com/labstack/echo/v4"
)

type JSONAPIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	ErrorDetails string `json:"error_details,omitempty"`
}

var httpStatusCodeMap = map[ErrorCode]int{
	DefaultErrorCode:   http.StatusInternalServerError,
	NoFileProvidedCode: http.StatusBadRequest,
	NoFileSelectedCode: http.StatusBadRequest,
	FileTooLargeCode:   http.StatusRequestEntityTooLarge,
	SeparationCode:     http.StatusInternalServerError,
	TimeoutCode:        http.StatusInternalServerError,
	IncompleteCode:     http.StatusInternalServerError,
	OutputNotFoundCode: http.StatusNotFound,
	RecordNotFoundCode: http.StatusNotFound,
}

func StatusCode(code ErrorCode) int {
	statusCode, ok := httpStatusCodeMap[code]
	if !ok {
		panic(fmt.Sprintf("Error code %s has no HTTP status code mapping", code))
	}

	return statusCode
}

// Responder writes api errors as JSON. Internal details are only sent
// when ExposeDetails is set.
type Responder struct {
	ExposeDetails bool
}

func (r Responder) ErrorResponse(c echo.Context, err *Error) error {
	statusCode := StatusCode(err.ErrorCode)

	if statusCode >= http.StatusInternalServerError {
		cerr.Log(err)
	} else {
		cerr.LogWarn(err)
	}

	body := JSONAPIError{
		Code:    string(err.ErrorCode),
		Message: err.UserMessage,
	}

	if r.ExposeDetails {
		body.ErrorDetails = err.Error()
	}

	return c.JSON(statusCode, body)
}
