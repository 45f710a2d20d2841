package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "satdesk-manager/pkg/errors"
)

// APIResponse is the common envelope for all HTTP responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func SuccessResponse(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, APIResponse{
		Success: false,
		Message: message,
	})
}

// AppErrorResponse maps an application error to an HTTP response, carrying
// the error code so the UI can branch without parsing messages.
func AppErrorResponse(c *gin.Context, err error) {
	var appErr *appErrors.AppError
	if !errors.As(err, &appErr) {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusBadRequest
	switch appErr.Code {
	case appErrors.CodeNotFound:
		status = http.StatusNotFound
	case appErrors.CodeDeviceUnavailable, appErrors.CodeInvalidTransition, appErrors.CodeStaleState:
		status = http.StatusConflict
	}

	c.JSON(status, APIResponse{
		Success: false,
		Message: appErr.Message,
		Code:    appErr.Code,
	})
}
