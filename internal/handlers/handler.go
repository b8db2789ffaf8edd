package handlers

import (
	"net/http"
	"time"

	"pet_feeder/internal/logger"
	"pet_feeder/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RequestObserver records per-route request metrics.
type RequestObserver interface {
	ObserveRequest(route, code string, d time.Duration)
}

// Options carries the optional parts of the router.
type Options struct {
	WS        http.HandlerFunc // live status stream
	Metrics   http.Handler     // Prometheus exposition
	Observer  RequestObserver
	RateLimit rate.Limit // requests per second per client IP, 0 disables
	RateBurst int
	CacheTTL  time.Duration // history responses, 0 disables
}

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	opts     Options
	cache    *cache.Cache
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, opts Options) *Handler {
	h := &Handler{services: services, log: log, opts: opts}
	if opts.CacheTTL > 0 {
		h.cache = cache.New(opts.CacheTTL, 2*opts.CacheTTL)
	}
	return h
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if h.opts.Observer != nil {
		router.Use(h.observeRequests)
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)
	if h.opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.opts.Metrics))
	}
	if h.opts.WS != nil {
		router.GET("/ws", gin.WrapF(h.opts.WS))
	}

	auth := router.Group("/auth")
	{
		auth.POST("/sign-in", h.signIn)
	}

	h.registerAPIRoutes(router)
	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	mw := []gin.HandlerFunc{}
	if h.opts.RateLimit > 0 {
		mw = append(mw, rateLimiter(h.opts.RateLimit, h.opts.RateBurst))
	}
	mw = append(mw, h.ownerMiddleware)

	api := r.Group("/api/v1", mw...)
	{
		api.GET("/status", h.getStatus)
		// ?open=true|false
		api.POST("/container", h.setContainer)

		h.registerScheduleRoutes(api)
		h.registerHistoryRoutes(api)
		h.registerSettingsRoutes(api)
		h.registerPushRoutes(api)
		h.registerSimulatorRoutes(api)
	}
}

func (h *Handler) registerScheduleRoutes(api *gin.RouterGroup) {
	schedules := api.Group("/schedules")
	{
		schedules.GET("", h.listSchedules)
		schedules.POST("", h.createSchedule)
		schedules.GET("/:id", h.getSchedule)
		schedules.PUT("/:id", h.updateSchedule)
		schedules.DELETE("/:id", h.deleteSchedule)
		// ?active=true|false
		schedules.POST("/:id/activate", h.activateSchedule)
	}
}

func (h *Handler) registerHistoryRoutes(api *gin.RouterGroup) {
	var mw []gin.HandlerFunc
	if h.cache != nil {
		mw = append(mw, responseCache(h.cache, h.opts.CacheTTL))
	}
	history := api.Group("", mw...)
	{
		history.GET("/events", h.getEvents)
		history.GET("/scale-data", h.getScaleData)
	}
}

func (h *Handler) registerSettingsRoutes(api *gin.RouterGroup) {
	settings := api.Group("/settings")
	{
		settings.GET("", h.getUserSettings)
		settings.PUT("", h.updateUserSettings)
		settings.POST("/plate-tare", h.tarePlateWithPlate)
		settings.GET("/system", h.getSystemSettings)
		settings.PUT("/system/door", h.setDoorAngles)
	}
	calibration := api.Group("/calibration")
	{
		calibration.POST("/:scale/tare", h.tareScale)
		calibration.POST("/:scale/calibrate", h.calibrateScale)
	}
}

func (h *Handler) registerPushRoutes(api *gin.RouterGroup) {
	push := api.Group("/push")
	{
		push.GET("/vapid-public-key", h.getVAPIDKey)
		push.POST("/subscribe", h.subscribePush)
	}
}
