package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the JSON envelope of every API reply. Code 0 means success.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Detail  string      `json:"detail,omitempty"`
}

// Error codes carried in Response.Code.
const (
	CodeOK              = 0
	CodeBadRequest      = 40001
	CodeUnauthorized    = 40101
	CodeNotFound        = 40401
	CodeTooLarge        = 41301
	CodeTooManyRequests = 42901
	CodeUnavailable     = 50301
	CodeInternal        = 50001
)

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeOK,
		Message: "success",
		Data:    data,
	})
}

func fail(c *gin.Context, status, code int, message, detail string) {
	c.AbortWithStatusJSON(status, Response{
		Code:    code,
		Message: message,
		Detail:  detail,
	})
}

func badRequest(c *gin.Context, message, detail string) {
	fail(c, http.StatusBadRequest, CodeBadRequest, message, detail)
}

func notFound(c *gin.Context, message string) {
	fail(c, http.StatusNotFound, CodeNotFound, message, "")
}

func internalError(c *gin.Context, detail string) {
	fail(c, http.StatusInternalServerError, CodeInternal, "internal error", detail)
}
