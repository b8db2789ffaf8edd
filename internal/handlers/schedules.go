package handlers

import (
	"net/http"
	"strconv"

	feeder "pet_feeder"
	"pet_feeder/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errListSchedules  = "failed to load schedules"
	errSaveSchedule   = "failed to save schedule"
	errDeleteSchedule = "failed to delete schedule"
	errBadScheduleID  = "schedule id must be a positive integer"
	errActiveParam    = "query parameter 'active' must be true or false"
)

func scheduleID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBadScheduleID})
		return 0, false
	}
	return id, true
}

func toParams(r feeder.ScheduleRequest) service.ScheduleParams {
	return service.ScheduleParams{
		Name:           r.Name,
		Mode:           r.Mode,
		Active:         r.Active,
		Daytimes:       r.Daytimes,
		MaxTimesPerDay: r.MaxTimesPerDay,
		OnlyWhenEmpty:  r.OnlyWhenEmpty,
	}
}

// @Summary      List schedules
// @Tags         schedules
// @Produce      json
// @Success      200  {array}   models.Schedule
// @Failure      500  {object}  feeder.ErrorResponse
// @Router       /api/v1/schedules [get]
// @Security     BearerAuth
func (h *Handler) listSchedules(c *gin.Context) {
	out, err := h.services.Schedules.List(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListSchedules, "schedules_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary      Get schedule
// @Tags         schedules
// @Produce      json
// @Param        id   path      int  true  "Schedule id"
// @Success      200  {object}  models.Schedule
// @Failure      404  {object}  feeder.ErrorResponse
// @Router       /api/v1/schedules/{id} [get]
// @Security     BearerAuth
func (h *Handler) getSchedule(c *gin.Context) {
	id, ok := scheduleID(c)
	if !ok {
		return
	}
	s, err := h.services.Schedules.Get(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, errListSchedules, "schedule_get_failed", err, "id", id)
		return
	}
	c.JSON(http.StatusOK, s)
}

// @Summary      Create schedule
// @Description  New schedules are stored unselected; use activate to select one.
// @Tags         schedules
// @Accept       json
// @Produce      json
// @Param        body  body      feeder.ScheduleRequest  true  "Schedule"
// @Success      201   {object}  map[string]int64
// @Failure      400   {object}  feeder.ErrorResponse
// @Router       /api/v1/schedules [post]
// @Security     BearerAuth
func (h *Handler) createSchedule(c *gin.Context) {
	var req feeder.ScheduleRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	id, err := h.services.Schedules.Create(c.Request.Context(), toParams(req))
	if err != nil {
		h.serviceError(c, errSaveSchedule, "schedule_create_failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// @Summary      Update schedule
// @Tags         schedules
// @Accept       json
// @Produce      json
// @Param        id    path      int                     true  "Schedule id"
// @Param        body  body      feeder.ScheduleRequest  true  "Schedule"
// @Success      200   {object}  models.Schedule
// @Failure      400   {object}  feeder.ErrorResponse
// @Failure      404   {object}  feeder.ErrorResponse
// @Router       /api/v1/schedules/{id} [put]
// @Security     BearerAuth
func (h *Handler) updateSchedule(c *gin.Context) {
	id, ok := scheduleID(c)
	if !ok {
		return
	}
	var req feeder.ScheduleRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.services.Schedules.Update(ctx, id, toParams(req)); err != nil {
		h.serviceError(c, errSaveSchedule, "schedule_update_failed", err, "id", id)
		return
	}
	s, err := h.services.Schedules.Get(ctx, id)
	if err != nil {
		h.serviceError(c, errListSchedules, "schedule_get_failed", err, "id", id)
		return
	}
	c.JSON(http.StatusOK, s)
}

// @Summary      Delete schedule
// @Tags         schedules
// @Param        id   path  int  true  "Schedule id"
// @Success      204
// @Failure      404  {object}  feeder.ErrorResponse
// @Router       /api/v1/schedules/{id} [delete]
// @Security     BearerAuth
func (h *Handler) deleteSchedule(c *gin.Context) {
	id, ok := scheduleID(c)
	if !ok {
		return
	}
	if err := h.services.Schedules.Delete(c.Request.Context(), id); err != nil {
		h.serviceError(c, errDeleteSchedule, "schedule_delete_failed", err, "id", id)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary      Select schedule
// @Description  Makes the schedule the selected one and sets whether it is active.
// @Tags         schedules
// @Produce      json
// @Param        id      path      int   true   "Schedule id"
// @Param        active  query     bool  false  "Defaults to true"
// @Success      200     {object}  models.Schedule
// @Failure      400     {object}  feeder.ErrorResponse
// @Failure      404     {object}  feeder.ErrorResponse
// @Router       /api/v1/schedules/{id}/activate [post]
// @Security     BearerAuth
func (h *Handler) activateSchedule(c *gin.Context) {
	id, ok := scheduleID(c)
	if !ok {
		return
	}
	active := true
	if q := c.Query("active"); q != "" {
		v, err := strconv.ParseBool(q)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errActiveParam})
			return
		}
		active = v
	}
	ctx := c.Request.Context()
	if err := h.services.Schedules.SetSelected(ctx, id, active); err != nil {
		h.serviceError(c, errSaveSchedule, "schedule_select_failed", err, "id", id)
		return
	}
	s, err := h.services.Schedules.Get(ctx, id)
	if err != nil {
		h.serviceError(c, errListSchedules, "schedule_get_failed", err, "id", id)
		return
	}
	c.JSON(http.StatusOK, s)
}
