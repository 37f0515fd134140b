package handlers

import (
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the error body rendered by the error boundary for every
// failed request. It mirrors apperr.Response and exists for the API docs.
type ErrorResponse struct {
	Kind      string     `json:"kind" example:"NotFoundError"`
	Status    int        `json:"status" example:"404"`
	Message   string     `json:"message" example:"Wrapped not found"`
	SubErrors []SubError `json:"subErrors"`
}

// SubError is one entry of ErrorResponse.SubErrors.
type SubError struct {
	Path    string `json:"path,omitempty" example:"relationship"`
	Code    string `json:"code,omitempty" example:"oneof"`
	Message string `json:"message" example:"must be one of: partner other best-friend friend sibling parent child enemy"`
}

// MessageResponse is a body carrying a single human-readable message.
type MessageResponse struct {
	Message string `json:"message" example:"pong"`
}

// ok writes v as JSON with status and ends the handler successfully.
func ok(c *gin.Context, status int, v any) error {
	c.JSON(status, v)
	return nil
}
