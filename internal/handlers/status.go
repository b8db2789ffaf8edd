package handlers

import (
	"errors"
	"net/http"
	"strconv"

	feeder "pet_feeder"
	"pet_feeder/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusOK = "ok"

	errGetStatus    = "failed to load status"
	errSetContainer = "failed to move container door"
	errOpenParam    = "query parameter 'open' must be true or false"
)

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Sign in
// @Description  Exchanges the owner password for a bearer token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      feeder.SignInRequest  true  "Owner password"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  feeder.ErrorResponse
// @Failure      401   {object}  feeder.ErrorResponse
// @Failure      404   {object}  feeder.ErrorResponse
// @Router       /auth/sign-in [post]
func (h *Handler) signIn(c *gin.Context) {
	var input feeder.SignInRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	token, err := h.services.SignIn(input.Password)
	switch {
	case errors.Is(err, service.ErrAuthDisabled):
		c.JSON(http.StatusNotFound, gin.H{"error": "authentication is not configured"})
		return
	case err != nil:
		if h.log != nil {
			h.log.Infow("auth_sign_in_failed", "ip", c.ClientIP())
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// @Summary      Machine status
// @Tags         feeder
// @Produce      json
// @Success      200  {object}  models.MachineStatus
// @Failure      401  {object}  feeder.ErrorResponse
// @Failure      500  {object}  feeder.ErrorResponse
// @Router       /api/v1/status [get]
// @Security     BearerAuth
func (h *Handler) getStatus(c *gin.Context) {
	st, err := h.services.Monitoring.GetCurrentStatus(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetStatus, "status_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Open or close the container door
// @Description  Manual feeding. Rejected with 409 while an automatic feed runs.
// @Tags         feeder
// @Produce      json
// @Param        open  query     bool  true  "true opens, false closes"
// @Success      200   {object}  models.MachineStatus
// @Failure      400   {object}  feeder.ErrorResponse
// @Failure      409   {object}  feeder.ErrorResponse
// @Router       /api/v1/container [post]
// @Security     BearerAuth
func (h *Handler) setContainer(c *gin.Context) {
	open, err := strconv.ParseBool(c.Query("open"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errOpenParam})
		return
	}
	ctx := c.Request.Context()
	if err := h.services.Feeding.SetContainerOpen(ctx, open); err != nil {
		h.serviceError(c, errSetContainer, "container_set_failed", err, "open", open)
		return
	}
	st, err := h.services.Monitoring.GetCurrentStatus(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetStatus, "status_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if h.log != nil {
			h.log.Infow("bad_request_body", "path", c.FullPath(), "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return false
	}
	return true
}
