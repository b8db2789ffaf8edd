package handlers

import (
	"net/http"

	feeder "pet_feeder"
	"pet_feeder/internal/service"

	"github.com/gin-gonic/gin"
)

const errSimulator = "simulator command failed"

func (h *Handler) registerSimulatorRoutes(api *gin.RouterGroup) {
	sim := api.Group("/simulator")
	{
		sim.GET("", h.getSimulatorState)
		sim.PUT("/faults", h.setSimulatorFaults)
		sim.POST("/refill", h.refillContainer)
		sim.POST("/plate", h.putOnPlate)
	}
}

// @Summary      Simulator state
// @Description  True grams and injected faults of the simulated rig.
// @Tags         simulator
// @Produce      json
// @Success      200  {object}  models.SimulatorState
// @Failure      503  {object}  feeder.ErrorResponse
// @Router       /api/v1/simulator [get]
// @Security     BearerAuth
func (h *Handler) getSimulatorState(c *gin.Context) {
	st, err := h.services.Simulator.SimulatorState(c.Request.Context())
	if err != nil {
		h.serviceError(c, errSimulator, "simulator_state_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Inject faults
// @Tags         simulator
// @Accept       json
// @Produce      json
// @Param        body  body      feeder.SimulatorFaultsRequest  true  "Faults to set or clear"
// @Success      200   {object}  models.SimulatorState
// @Failure      400   {object}  feeder.ErrorResponse
// @Failure      503   {object}  feeder.ErrorResponse
// @Router       /api/v1/simulator/faults [put]
// @Security     BearerAuth
func (h *Handler) setSimulatorFaults(c *gin.Context) {
	var req feeder.SimulatorFaultsRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	st, err := h.services.Simulator.SetFaults(c.Request.Context(), service.SimulatorFaults{
		Jammed:           req.Jammed,
		ContainerRemoved: req.ContainerRemoved,
		Stale:            req.Stale,
		Eating:           req.Eating,
		DoorDetached:     req.DoorDetached,
		ClockOffline:     req.ClockOffline,
	})
	if err != nil {
		h.serviceError(c, errSimulator, "simulator_faults_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Refill container
// @Tags         simulator
// @Accept       json
// @Produce      json
// @Param        body  body      feeder.GramsRequest  true  "Food poured in"
// @Success      200   {object}  models.SimulatorState
// @Failure      400   {object}  feeder.ErrorResponse
// @Router       /api/v1/simulator/refill [post]
// @Security     BearerAuth
func (h *Handler) refillContainer(c *gin.Context) {
	var req feeder.GramsRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	st, err := h.services.Simulator.Refill(c.Request.Context(), req.Grams)
	if err != nil {
		h.serviceError(c, errSimulator, "simulator_refill_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Put weight on the plate
// @Description  Negative grams take weight off, e.g. the pet eating.
// @Tags         simulator
// @Accept       json
// @Produce      json
// @Param        body  body      feeder.GramsRequest  true  "Weight change"
// @Success      200   {object}  models.SimulatorState
// @Failure      400   {object}  feeder.ErrorResponse
// @Router       /api/v1/simulator/plate [post]
// @Security     BearerAuth
func (h *Handler) putOnPlate(c *gin.Context) {
	var req feeder.GramsRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	st, err := h.services.Simulator.PutOnPlate(c.Request.Context(), req.Grams)
	if err != nil {
		h.serviceError(c, errSimulator, "simulator_plate_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}
