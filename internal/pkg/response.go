package pkg

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/dataconsole/internal/route"
)

// Response is the standard JSON envelope for API responses.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// Success sends a 200 JSON response with the given data.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

// BadRequest sends a 400 JSON response carrying msg.
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{
		Code:    http.StatusBadRequest,
		Message: msg,
	})
}

// Error sends a JSON error response with the status from HTTPStatusCode.
// Only lookup failures expose their message; anything else is reported as
// an internal error.
func Error(c *gin.Context, err error) {
	status := HTTPStatusCode(err)

	msg := "internal error"
	if status != http.StatusInternalServerError {
		msg = err.Error()
	}

	c.JSON(status, Response{
		Code:    status,
		Message: msg,
		Data:    nil,
	})
}

// HTTPStatusCode maps route lookup errors to HTTP status codes.
func HTTPStatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, route.ErrNoMatch), errors.Is(err, route.ErrUnknownName):
		return http.StatusNotFound
	case errors.Is(err, route.ErrMissingParam):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
