package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// PingResponse is returned by the API ping endpoints. Body echoes the JSON
// payload of a POST.
type PingResponse struct {
	Message string `json:"message" example:"api pong"`
	Body    any    `json:"body,omitempty" swaggertype:"object"`
}

// Ping godoc
// @ID          ping
// @Summary     Liveness probe
// @Tags        Ping
// @Produce     json
// @Success     200  {object}  handlers.MessageResponse
// @Router      /ping [get]
func (h *Handlers) Ping(c *gin.Context) error {
	return ok(c, http.StatusOK, MessageResponse{Message: "pong"})
}

// APIPing godoc
// @ID          apiPing
// @Summary     API liveness probe
// @Tags        Ping
// @Produce     json
// @Success     200  {object}  handlers.PingResponse
// @Router      /api/ping [get]
func (h *Handlers) APIPing(c *gin.Context) error {
	return ok(c, http.StatusOK, PingResponse{Message: "api pong"})
}

// APIPingEcho godoc
// @ID          apiPingEcho
// @Summary     Echo a JSON body
// @Description Webhook test endpoint: returns the posted JSON under "body".
// @Tags        Ping
// @Accept      json
// @Produce     json
// @Param       body  body      object  false  "Any JSON value"
// @Success     200   {object}  handlers.PingResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Malformed JSON"
// @Router      /api/ping [post]
func (h *Handlers) APIPingEcho(c *gin.Context) error {
	var body any
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		return bindError(err)
	}
	return ok(c, http.StatusOK, PingResponse{Message: "api pong", Body: body})
}
