package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	feeder "pet_feeder"
	"pet_feeder/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errFromInvalid  = "invalid 'from' time; use RFC3339 or YYYY-MM-DD"
	errToInvalid    = "invalid 'to' time; use RFC3339 or YYYY-MM-DD"
	errLimitInvalid = "invalid 'limit'; use a non-negative integer"
	errLoadEvents   = "failed to load events"
	errLoadSamples  = "failed to load scale data"

	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

// isDateOnly reports whether the query string represents a date without time component.
func isDateOnly(s string) bool {
	return !strings.ContainsAny(s, "T ")
}

// parseRange reads the optional from/to query parameters. A date-only 'to'
// covers that whole day.
func parseRange(c *gin.Context) (from, to time.Time, ok bool) {
	var err error
	if qs := c.Query("from"); qs != "" {
		from, err = parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errFromInvalid})
			return from, to, false
		}
	}
	if qs := c.Query("to"); qs != "" {
		to, err = parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errToInvalid})
			return from, to, false
		}
		if isDateOnly(qs) {
			to = to.Add(24 * time.Hour)
		}
	}
	return from, to, true
}

// @Summary      List feeding events
// @Description  Filter by date (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD'). A date-only 'to' includes that whole day.
// @Tags         history
// @Produce      json
// @Param        from  query     string  false  "Start of range"  example(2025-08-01)
// @Param        to    query     string  false  "End of range"    example(2025-08-31)
// @Param        type  query     string  false  "Event type"  Enums(FEED,MISSED_FEED,SKIPPED_FEED,MOTOR_FAILURE,CONTAINER_EMPTY,WIFI_CONNECTION_LOST,WIFI_CONNECTION_RETURNED,SD_CONNECTION_LOST,SD_CONNECTION_RETURNED)
// @Success      200   {object}  feeder.EventsResponse
// @Failure      400   {object}  feeder.ErrorResponse
// @Failure      500   {object}  feeder.ErrorResponse
// @Router       /api/v1/events [get]
// @Security     BearerAuth
func (h *Handler) getEvents(c *gin.Context) {
	from, to, ok := parseRange(c)
	if !ok {
		return
	}
	eventType := c.Query("type")
	events, err := h.services.EventLog.List(c.Request.Context(), service.LogFilter{
		From: from,
		To:   to,
		Type: eventType,
	})
	if err != nil {
		h.serviceError(c, errLoadEvents, "events_list_failed", err, "from", from, "to", to, "type", eventType)
		return
	}
	c.JSON(http.StatusOK, feeder.EventsResponse{Count: len(events), Events: events})
}

// @Summary      Scale history
// @Tags         history
// @Produce      json
// @Param        scale  query     string  false  "container or plate"
// @Param        from   query     string  false  "Start of range"
// @Param        to     query     string  false  "End of range"
// @Param        limit  query     int     false  "Maximum samples, oldest first"
// @Success      200    {object}  feeder.ScaleDataResponse
// @Failure      400    {object}  feeder.ErrorResponse
// @Failure      500    {object}  feeder.ErrorResponse
// @Router       /api/v1/scale-data [get]
// @Security     BearerAuth
func (h *Handler) getScaleData(c *gin.Context) {
	from, to, ok := parseRange(c)
	if !ok {
		return
	}
	limit := 0
	if qs := c.Query("limit"); qs != "" {
		v, err := strconv.Atoi(qs)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": errLimitInvalid})
			return
		}
		limit = v
	}
	samples, err := h.services.EventLog.Samples(c.Request.Context(), service.ScaleFilter{
		Scale: c.Query("scale"),
		From:  from,
		To:    to,
		Limit: limit,
	})
	if err != nil {
		h.serviceError(c, errLoadSamples, "scale_data_failed", err)
		return
	}
	c.JSON(http.StatusOK, feeder.ScaleDataResponse{Count: len(samples), Samples: samples})
}

func parseQueryTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, layoutDateTime, layoutDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf(
		"invalid time format %q, expected one of: "+
			"RFC3339 (e.g. 2025-08-27T15:04:05Z), "+
			"'YYYY-MM-DD HH:MM:SS', "+
			"'YYYY-MM-DD'",
		s,
	)
}
