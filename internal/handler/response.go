package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/carelog/patient-api/pkg/errors"
)

// Response is the envelope every non-array endpoint uses.
type Response struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	PatientID int64       `json:"patientId,omitempty"`
	User      interface{} `json:"user,omitempty"`
	Token     string      `json:"token,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Success: true,
		Data:    data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Success: false,
		Message: message,
	}
}

// RespondWithError maps an application error onto its HTTP status. Anything
// that is not an AppError is an internal fault and stays generic: no detail
// leaks to the client.
func RespondWithError(c *gin.Context, err error) {
	if appErr, ok := apperrors.As(err); ok {
		message := appErr.Message
		if appErr.Code == apperrors.ErrInternal {
			message = "server error"
		}
		c.Error(err)
		c.JSON(appErr.HTTPStatus(), NewErrorResponse(message))
		return
	}

	c.Error(err)
	c.JSON(http.StatusInternalServerError, NewErrorResponse("server error"))
}
