package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clinic-records-server/internal/core"
)

// ResponseData represents the structure of a standard API response.
type ResponseData struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Kind    string      `json:"kind,omitempty"` // machine-readable error kind
}

// Success sends a standard success response.
func Success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, ResponseData{
		Status:  http.StatusOK,
		Message: message,
		Data:    data,
	})
}

// Created sends a standard resource created response.
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, ResponseData{
		Status:  http.StatusCreated,
		Message: message,
		Data:    data,
	})
}

// Error sends a standard error response.
func Error(c *gin.Context, statusCode int, errorMessage string) {
	c.JSON(statusCode, ResponseData{
		Status:  statusCode,
		Message: "An error occurred",
		Error:   errorMessage,
	})
}

// BadRequest sends a 400 Bad Request error response.
func BadRequest(c *gin.Context, errorMessage string) {
	Error(c, http.StatusBadRequest, errorMessage)
}

// Unauthorized sends a 401 Unauthorized error response.
func Unauthorized(c *gin.Context, errorMessage string) {
	Error(c, http.StatusUnauthorized, errorMessage)
}

// Forbidden sends a 403 Forbidden error response.
func Forbidden(c *gin.Context, errorMessage string) {
	Error(c, http.StatusForbidden, errorMessage)
}

// NotFound sends a 404 Not Found error response.
func NotFound(c *gin.Context, errorMessage string) {
	Error(c, http.StatusNotFound, errorMessage)
}

// InternalServerError sends a 500 Internal Server Error response.
func InternalServerError(c *gin.Context, errorMessage string) {
	Error(c, http.StatusInternalServerError, errorMessage)
}

// kindStatus maps core error kinds to HTTP statuses.
var kindStatus = map[core.Kind]int{
	core.KindUnauthenticated:    http.StatusUnauthorized,
	core.KindInvalidCredentials: http.StatusUnauthorized,
	core.KindNotOwner:           http.StatusForbidden,
	core.KindRoleMismatch:       http.StatusForbidden,
	core.KindNotFound:           http.StatusNotFound,
	core.KindAlreadyLinked:      http.StatusConflict,
	core.KindSlotConflict:       http.StatusConflict,
	core.KindInvalidTransition:  http.StatusConflict,
	core.KindValidation:         http.StatusBadRequest,
}

// RespondError translates a core error into the standard envelope,
// keeping the machine-readable kind alongside the human message.
// Non-core errors become a 500.
func RespondError(c *gin.Context, err error) {
	kind := core.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		InternalServerError(c, err.Error())
		return
	}
	c.JSON(status, ResponseData{
		Status:  status,
		Message: "An error occurred",
		Error:   err.Error(),
		Kind:    string(kind),
	})
}
