package utils

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"inmoback/apperr"
	"inmoback/models"
)

// SuccessResponse sends a successful API response
func SuccessResponse(c *gin.Context, message string, data interface{}) {
	response := models.APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
	c.JSON(http.StatusOK, response)
}

// CreatedResponse sends a 201 created response
func CreatedResponse(c *gin.Context, message string, data interface{}) {
	response := models.APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
	c.JSON(http.StatusCreated, response)
}

// PaginatedResponse sends a successful response with pagination metadata
func PaginatedResponse(c *gin.Context, message string, data interface{}, page, limit int, total int64) {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	response := models.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
		Meta: &models.Meta{
			Page:       page,
			Limit:      limit,
			Total:      int(total),
			TotalPages: totalPages,
		},
		Timestamp: time.Now(),
	}
	c.JSON(http.StatusOK, response)
}

// ErrorResponse sends an error API response
func ErrorResponse(c *gin.Context, statusCode int, code, message string) {
	response := models.APIResponse{
		Success: false,
		Message: message,
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
		Timestamp: time.Now(),
	}
	c.JSON(statusCode, response)
}

// BadRequestResponse sends a 400 response
func BadRequestResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusBadRequest, "bad_request", message)
}

// ValidationErrorResponse sends a validation error response
func ValidationErrorResponse(c *gin.Context, err error) {
	ErrorResponse(c, http.StatusUnprocessableEntity, apperr.CodeInvalidInput, err.Error())
}

// UnauthorizedResponse sends an unauthorized response
func UnauthorizedResponse(c *gin.Context, message string) {
	if message == "" {
		message = "Unauthorized access"
	}
	ErrorResponse(c, http.StatusUnauthorized, "unauthorized", message)
}

// ForbiddenResponse sends a forbidden response
func ForbiddenResponse(c *gin.Context, message string) {
	if message == "" {
		message = "Access forbidden"
	}
	ErrorResponse(c, http.StatusForbidden, "forbidden", message)
}

// NotFoundResponse sends a not found response
func NotFoundResponse(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	ErrorResponse(c, http.StatusNotFound, "not_found", message)
}

// InternalServerErrorResponse sends a 500 response
func InternalServerErrorResponse(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error"
	}
	ErrorResponse(c, http.StatusInternalServerError, "internal_error", message)
}

// AppErrorResponse maps a business error from the apperr taxonomy onto the
// HTTP surface, so callers can branch on code without parsing messages.
func AppErrorResponse(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		ErrorResponse(c, http.StatusNotFound, code, err.Error())
	case apperr.KindConflict:
		ErrorResponse(c, http.StatusConflict, code, err.Error())
	case apperr.KindInvalidState:
		ErrorResponse(c, http.StatusBadRequest, code, err.Error())
	case apperr.KindValidation:
		ErrorResponse(c, http.StatusUnprocessableEntity, code, err.Error())
	default:
		ErrorResponse(c, http.StatusInternalServerError, apperr.CodeStorageFailure, "Internal server error")
	}
}
