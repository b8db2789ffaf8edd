package handlers

import (
	"net/http"

	feeder "pet_feeder"
	"pet_feeder/internal/models"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
)

const (
	errLoadSettings = "failed to load settings"
	errSaveSettings = "failed to save settings"
	errCalibration  = "calibration failed"
	errBadScale     = "scale must be container or plate"
	errPushDisabled = "push notifications are not configured"
	errSubscribe    = "failed to store subscription"
)

// @Summary      User settings
// @Tags         settings
// @Produce      json
// @Success      200  {object}  models.UserSettings
// @Failure      500  {object}  feeder.ErrorResponse
// @Router       /api/v1/settings [get]
// @Security     BearerAuth
func (h *Handler) getUserSettings(c *gin.Context) {
	u, err := h.services.Settings.GetUser(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadSettings, "settings_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// @Summary      Replace user settings
// @Description  The body replaces the stored settings as a whole.
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body      models.UserSettings  true  "Settings"
// @Success      200   {object}  models.UserSettings
// @Failure      400   {object}  feeder.ErrorResponse
// @Router       /api/v1/settings [put]
// @Security     BearerAuth
func (h *Handler) updateUserSettings(c *gin.Context) {
	var u models.UserSettings
	if ok := h.bindJSONOrBadRequest(c, &u); !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.services.Settings.UpdateUser(ctx, u); err != nil {
		h.serviceError(c, errSaveSettings, "settings_update_failed", err)
		return
	}
	h.getUserSettings(c)
}

// @Summary      Machine settings
// @Tags         settings
// @Produce      json
// @Success      200  {object}  models.SystemSettings
// @Router       /api/v1/settings/system [get]
// @Security     BearerAuth
func (h *Handler) getSystemSettings(c *gin.Context) {
	s, err := h.services.Settings.GetSystem(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadSettings, "system_settings_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// @Summary      Set door angles
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body      feeder.DoorAnglesRequest  true  "Servo angles in degrees"
// @Success      200   {object}  models.SystemSettings
// @Failure      400   {object}  feeder.ErrorResponse
// @Router       /api/v1/settings/system/door [put]
// @Security     BearerAuth
func (h *Handler) setDoorAngles(c *gin.Context) {
	var req feeder.DoorAnglesRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	if err := h.services.Settings.SetDoorAngles(c.Request.Context(), *req.Open, *req.Close); err != nil {
		h.serviceError(c, errSaveSettings, "door_angles_failed", err)
		return
	}
	h.getSystemSettings(c)
}

func scaleParam(c *gin.Context) (models.ScaleID, bool) {
	id, ok := models.ParseScaleID(c.Param("scale"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBadScale})
	}
	return id, ok
}

// @Summary      Tare scale
// @Description  Stores the current reading of the unloaded scale as its zero.
// @Tags         calibration
// @Produce      json
// @Param        scale  path      string  true  "container or plate"
// @Success      200    {object}  models.SystemSettings
// @Failure      400    {object}  feeder.ErrorResponse
// @Failure      503    {object}  feeder.ErrorResponse
// @Router       /api/v1/calibration/{scale}/tare [post]
// @Security     BearerAuth
func (h *Handler) tareScale(c *gin.Context) {
	id, ok := scaleParam(c)
	if !ok {
		return
	}
	sys, err := h.services.Calibration.Tare(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, errCalibration, "scale_tare_failed", err, "scale", id.String())
		return
	}
	c.JSON(http.StatusOK, sys)
}

// @Summary      Calibrate scale
// @Description  Derives the scale factor from a known weight placed on a tared scale.
// @Tags         calibration
// @Accept       json
// @Produce      json
// @Param        scale  path      string                   true   "container or plate"
// @Param        body   body      feeder.CalibrateRequest  false  "Reference weight"
// @Success      200    {object}  models.SystemSettings
// @Failure      400    {object}  feeder.ErrorResponse
// @Failure      503    {object}  feeder.ErrorResponse
// @Router       /api/v1/calibration/{scale}/calibrate [post]
// @Security     BearerAuth
func (h *Handler) calibrateScale(c *gin.Context) {
	id, ok := scaleParam(c)
	if !ok {
		return
	}
	var req feeder.CalibrateRequest
	if c.Request.ContentLength != 0 {
		if ok := h.bindJSONOrBadRequest(c, &req); !ok {
			return
		}
	}
	sys, err := h.services.Calibration.Calibrate(c.Request.Context(), id, req.Weight)
	if err != nil {
		h.serviceError(c, errCalibration, "scale_calibrate_failed", err, "scale", id.String())
		return
	}
	c.JSON(http.StatusOK, sys)
}

// @Summary      Tare plate with plate
// @Description  Records the empty plate now on the plate scale as the plate tare.
// @Tags         calibration
// @Produce      json
// @Success      200  {object}  models.UserSettings
// @Failure      500  {object}  feeder.ErrorResponse
// @Router       /api/v1/settings/plate-tare [post]
// @Security     BearerAuth
func (h *Handler) tarePlateWithPlate(c *gin.Context) {
	u, err := h.services.Calibration.TarePlateWithPlate(c.Request.Context())
	if err != nil {
		h.serviceError(c, errCalibration, "plate_tare_failed", err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// @Summary      VAPID public key
// @Tags         push
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  feeder.ErrorResponse
// @Router       /api/v1/push/vapid-public-key [get]
// @Security     BearerAuth
func (h *Handler) getVAPIDKey(c *gin.Context) {
	key := h.services.Push.PublicKey()
	if key == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errPushDisabled})
		return
	}
	c.JSON(http.StatusOK, gin.H{"public_key": key})
}

// @Summary      Subscribe to push alerts
// @Tags         push
// @Accept       json
// @Param        body  body  object  true  "PushSubscription as produced by the browser"
// @Success      201
// @Failure      400  {object}  feeder.ErrorResponse
// @Router       /api/v1/push/subscribe [post]
// @Security     BearerAuth
func (h *Handler) subscribePush(c *gin.Context) {
	if h.services.Push.PublicKey() == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errPushDisabled})
		return
	}
	var sub webpush.Subscription
	if ok := h.bindJSONOrBadRequest(c, &sub); !ok {
		return
	}
	if err := h.services.Push.Subscribe(c.Request.Context(), sub); err != nil {
		h.serviceError(c, errSubscribe, "push_subscribe_failed", err)
		return
	}
	c.Status(http.StatusCreated)
}
