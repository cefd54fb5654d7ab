package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Machine-readable error codes. The client branches on these, so they
// are stable snake_case strings rather than prose.
const (
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
	CodeNotFound     = "not_found"
	CodeServerError  = "server_error"

	CodeInvalidBody = "invalid_body"
	CodeInvalidName = "invalid_name"
	CodeInvalidRole = "invalid_role"

	CodeInvalidJoinCode   = "invalid"
	CodeExpiredJoinCode   = "expired"
	CodeExhaustedJoinCode = "exhausted"

	CodeCannotRemoveAdmin = "cannot_remove_admin"
	CodeCannotLeaveAdmin  = "cannot_leave_admin"
	CodeCannotDeleteAdmin = "cannot_delete_admin"

	CodeUserNotInTeam       = "user_not_in_team"
	CodeLabelAndURLRequired = "label_and_url_required"
	CodeTitleRequired       = "title_required"
	CodeInvalidStatus       = "invalid_status"
)

// APIError is the standard error response body: {"error": "<code>"}.
type APIError struct {
	Code string `json:"error"`
}

func (e *APIError) Error() string {
	return e.Code
}

func respond(c *gin.Context, status int, code string) {
	c.JSON(status, APIError{Code: code})
}

// Unauthorized sends a 401 response.
func Unauthorized(c *gin.Context) {
	respond(c, http.StatusUnauthorized, CodeUnauthorized)
}

// Forbidden sends a 403 response.
func Forbidden(c *gin.Context) {
	respond(c, http.StatusForbidden, CodeForbidden)
}

// NotFound sends a 404 response.
func NotFound(c *gin.Context) {
	respond(c, http.StatusNotFound, CodeNotFound)
}

// BadRequest sends a 400 response carrying a domain-validation code.
func BadRequest(c *gin.Context, code string) {
	if code == "" {
		code = CodeInvalidBody
	}
	respond(c, http.StatusBadRequest, code)
}

// Internal sends a generic 500 response with no leaked detail.
func Internal(c *gin.Context) {
	respond(c, http.StatusInternalServerError, CodeServerError)
}
