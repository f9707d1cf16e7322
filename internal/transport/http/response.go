package http

import (
	"errors"
	"net/http"
	"time"

	"edustop-service/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ErrCode is the stable, machine-readable identifier of an API error.
type ErrCode string

const (
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"

	ErrValidation         ErrCode = "VALIDATION_ERROR"
	ErrInvalidCoordinates ErrCode = "INVALID_COORDINATES"

	ErrTargetNotFound        ErrCode = "TARGET_NOT_FOUND"
	ErrUserNotFound          ErrCode = "USER_NOT_FOUND"
	ErrTooFar                ErrCode = "TOO_FAR"
	ErrLimitExceeded         ErrCode = "LIMIT_EXCEEDED"
	ErrNoTasksAvailable      ErrCode = "NO_TASKS_AVAILABLE"
	ErrInvalidOrExpiredToken ErrCode = "INVALID_OR_EXPIRED_TOKEN"

	ErrStorageFailure ErrCode = "STORAGE_FAILURE"
	ErrInternal       ErrCode = "INTERNAL_ERROR"
)

// Message returns the human-readable text sent with a code.
func (c ErrCode) Message() string {
	switch c {
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid."
	case ErrValidation:
		return "Validation failed. Check the request input."
	case ErrInvalidCoordinates:
		return "Latitude, longitude or radius is out of range."
	case ErrTargetNotFound:
		return "EduStop not found."
	case ErrUserNotFound:
		return "User not found."
	case ErrTooFar:
		return "You are too far from this EduStop."
	case ErrLimitExceeded:
		return "This EduStop has no tasks left for now. Try again later."
	case ErrNoTasksAvailable:
		return "No tasks are available."
	case ErrInvalidOrExpiredToken:
		return "The task token is invalid or has expired."
	case ErrStorageFailure:
		return "A storage backend failed. Try again later."
	default:
		return "Internal server error."
	}
}

// Response is the envelope of every JSON reply.
type Response struct {
	Data     interface{} `json:"data"`
	Error    *ErrorBody  `json:"error,omitempty"`
	Metadata Metadata    `json:"metadata"`
}

type ErrorBody struct {
	Code    ErrCode           `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type Metadata struct {
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

// ContextKeyRequestID is the gin context key for the request ID.
const ContextKeyRequestID = "request_id"

// RequestIDMiddleware reuses X-Request-ID when sent, otherwise generates one.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(ContextKeyRequestID, reqID)
		c.Header("X-Request-ID", reqID)
		c.Next()
	}
}

func success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Data: data, Metadata: buildMetadata(c)})
}

func fail(c *gin.Context, status int, code ErrCode) {
	c.JSON(status, Response{
		Error:    &ErrorBody{Code: code, Message: code.Message()},
		Metadata: buildMetadata(c),
	})
}

func failWithFields(c *gin.Context, status int, code ErrCode, fields map[string]string) {
	c.JSON(status, Response{
		Error:    &ErrorBody{Code: code, Message: code.Message(), Fields: fields},
		Metadata: buildMetadata(c),
	})
}

func abortFail(c *gin.Context, status int, code ErrCode) {
	c.AbortWithStatusJSON(status, Response{
		Error:    &ErrorBody{Code: code, Message: code.Message()},
		Metadata: buildMetadata(c),
	})
}

// failFromError maps a domain error onto its status and code.
func failFromError(c *gin.Context, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	fail(c, status, code)
}

func classify(err error) (int, ErrCode) {
	switch {
	case errors.Is(err, domain.ErrTargetNotFound):
		return http.StatusNotFound, ErrTargetNotFound
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, ErrUserNotFound
	case errors.Is(err, domain.ErrTooFar):
		return http.StatusForbidden, ErrTooFar
	case errors.Is(err, domain.ErrLimitExceeded):
		return http.StatusTooManyRequests, ErrLimitExceeded
	case errors.Is(err, domain.ErrNoTasksAvailable):
		return http.StatusServiceUnavailable, ErrNoTasksAvailable
	case errors.Is(err, domain.ErrInvalidOrExpiredToken):
		return http.StatusBadRequest, ErrInvalidOrExpiredToken
	case errors.Is(err, domain.ErrInvalidCoordinates):
		return http.StatusBadRequest, ErrInvalidCoordinates
	case errors.Is(err, domain.ErrStorageFailure):
		return http.StatusInternalServerError, ErrStorageFailure
	default:
		return http.StatusInternalServerError, ErrInternal
	}
}

func buildMetadata(c *gin.Context) Metadata {
	id := c.GetString(ContextKeyRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	return Metadata{
		RequestID: id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
