package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-wrapped-backend/internal/auth"
	"github.com/tbourn/go-wrapped-backend/internal/http/middleware"
)

// LoginRequest is the payload of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"admin"`
	Password string `json:"password" binding:"required,min=4" example:"hunter22"`
}

// LoginResponse echoes the authenticated identity. The token itself only
// travels in the HTTP-only session cookie.
type LoginResponse struct {
	Username string `json:"username" example:"admin"`
}

// Login godoc
// @ID          login
// @Summary     Admin login
// @Description Checks the admin credentials and sets the HTTP-only session cookie.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.LoginRequest  true  "Credentials"
// @Success     200   {object}  handlers.LoginResponse
// @Header      200   {string}  Set-Cookie  "session=<jwt>; HttpOnly; SameSite=Lax"
// @Failure     400   {object}  handlers.ErrorResponse  "Validation failed or wrong credentials"
// @Failure     429   {object}  handlers.ErrorResponse  "Too many attempts"
// @Router      /api/auth/login [post]
func (h *Handlers) Login(c *gin.Context) error {
	var req LoginRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	username := strings.TrimSpace(req.Username)

	token, err := h.auth.Login(c.Request.Context(), username, req.Password)
	if err != nil {
		middleware.CountEvent(middleware.EventLoginFailed)
		return err
	}
	auth.SetSession(c, token, h.cookies)
	middleware.CountEvent(middleware.EventLoginSucceeded)
	return ok(c, http.StatusOK, LoginResponse{Username: username})
}

// Logout godoc
// @ID          logout
// @Summary     Logout
// @Description Expires the session cookie. Succeeds whether or not a session existed.
// @Tags        Auth
// @Produce     json
// @Success     200  {object}  handlers.MessageResponse
// @Router      /api/auth/logout [post]
func (h *Handlers) Logout(c *gin.Context) error {
	auth.ClearSession(c, h.cookies)
	return ok(c, http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}
