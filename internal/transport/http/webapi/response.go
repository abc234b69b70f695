package webapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIResponse is the uniform envelope returned by every endpoint.
// success reports whether the request worked; data carries the payload or
// error details; message explains the outcome; code mirrors the HTTP status
// so clients can branch without inspecting transport state.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func respond(c *gin.Context, httpStatus int, success bool, message string, data any) {
	if message == "" {
		if success {
			message = "ok"
		} else {
			message = http.StatusText(httpStatus)
		}
	}

	resp := APIResponse{
		Success: success,
		Message: message,
		Code:    httpStatus,
	}
	if data == nil {
		resp.Data = gin.H{}
	} else {
		resp.Data = data
	}

	c.JSON(httpStatus, resp)
}

// RespondSuccess writes a success envelope.
func RespondSuccess(c *gin.Context, httpStatus int, data any, message string) {
	respond(c, httpStatus, true, message, data)
}

// RespondError writes a failure envelope, optionally with error details.
func RespondError(c *gin.Context, httpStatus int, message string, data any) {
	respond(c, httpStatus, false, message, data)
}

func respondSuccess(c *gin.Context, httpStatus int, data any, message string) {
	RespondSuccess(c, httpStatus, data, message)
}

func respondError(c *gin.Context, httpStatus int, message string, data any) {
	RespondError(c, httpStatus, message, data)
}
