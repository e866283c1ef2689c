package utils

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func traceID(c *gin.Context) string {
	value, _ := c.Get("trace_id")
	id, _ := value.(string)
	return id
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, APIResponse{
		Status:  "success",
		Code:    http.StatusOK,
		Message: message,
		TraceID: traceID(c),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		TraceID: traceID(c),
	})
}

func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidMessage):
		RespondError(c, http.StatusBadRequest, "Message must be a non-empty string")
	case errors.Is(err, ErrInvalidConversation):
		RespondError(c, http.StatusBadRequest, "Conversation id is not valid")
	case errors.Is(err, ErrMetadataTooLarge):
		RespondError(c, http.StatusBadRequest, "Metadata exceeds the allowed size")
	case errors.Is(err, ErrInvalidNudge):
		RespondError(c, http.StatusBadRequest, "Nudge id is not valid")
	case errors.Is(err, ErrAssessmentNotFound):
		RespondError(c, http.StatusNotFound, "Assessment not found")
	case errors.Is(err, ErrRateLimited):
		RespondError(c, http.StatusTooManyRequests, "Too many messages, please retry shortly")
	case errors.Is(err, ErrStorageFailure):
		log.Printf("Storage error: %v", err)
		RespondError(c, http.StatusServiceUnavailable, "Temporary storage issue, please retry")
	case errors.Is(err, ErrDatabaseError):
		log.Printf("Database error: %v", err)
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	default:
		log.Printf("Unknown error: %v", err)
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	}
}
