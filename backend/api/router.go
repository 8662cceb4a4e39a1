package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"boardhub/backend/domain"
	"boardhub/backend/logging"
	"boardhub/backend/pathsec"
	"boardhub/backend/repository"
	"boardhub/backend/service"
	"boardhub/backend/service/auth"
	"boardhub/backend/service/files"
	"boardhub/backend/service/monday"
)

// Options 路由的可选项
type Options struct {
	Logger      logging.Logger
	CORSOrigins []string
	// Metrics 挂在 /metrics；为空时不注册
	Metrics http.Handler
	// MaxUploadBytes 上传请求体上限（multipart 开销另加 multipartOverhead）
	MaxUploadBytes int64
}

type Router struct {
	service   *service.Facade
	logger    logging.Logger
	maxUpload int64
}

func NewRouter(svc *service.Facade, opts Options) *gin.Engine {
	r := &Router{
		service:   svc,
		logger:    logging.OrDefault(opts.Logger).WithPrefix("http"),
		maxUpload: opts.MaxUploadBytes,
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(r.logger))
	engine.Use(cors.New(corsConfig(opts.CORSOrigins)))
	r.register(engine, opts.Metrics)
	return engine
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Requested-With", requestIDHeader}
	cfg.ExposeHeaders = []string{requestIDHeader, "Content-Disposition"}
	cfg.MaxAge = 12 * time.Hour
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func (r *Router) register(engine *gin.Engine, metrics http.Handler) {
	engine.GET("/health", health)
	if metrics != nil {
		engine.GET("/metrics", gin.WrapH(metrics))
	}
	engine.POST("/auth/login", r.login)

	// 以下路由都需要 Bearer token
	authed := engine.Group("", r.requireAuth())

	authed.GET("/auth/me", r.me)

	users := authed.Group("/users", requireRole(domain.RoleAdmin))
	{
		users.GET("", r.listUsers)
		users.POST("", r.createUser)
	}

	boards := authed.Group("/boards")
	{
		boards.GET("", r.listBoards)
		boards.GET(":id", r.getBoard)
		boards.GET(":id/subscribers", r.listBoardSubscribers)
	}

	subscribers := authed.Group("/subscribers")
	{
		subscribers.GET("", r.listSubscribers)
		subscribers.POST("", r.createSubscriber)
		subscribers.GET(":id", r.getSubscriber)
		subscribers.PUT(":id", r.updateSubscriber)
		subscribers.DELETE(":id", r.deleteSubscriber)
	}

	schedules := authed.Group("/schedules")
	{
		schedules.GET("", r.listSchedules)
		schedules.POST("", r.createSchedule)
		schedules.GET(":id", r.getSchedule)
		schedules.PUT(":id", r.updateSchedule)
		schedules.DELETE(":id", r.deleteSchedule)
		schedules.POST(":id/enable", r.enableSchedule)
		schedules.POST(":id/disable", r.disableSchedule)
	}

	fileRoutes := authed.Group("/files")
	{
		fileRoutes.GET("", r.listFiles)
		fileRoutes.POST("", r.uploadFile)
		fileRoutes.GET(":name", r.downloadFile)
		fileRoutes.DELETE(":name", r.deleteFile)
	}

	authed.GET("/app/logs", r.getAppLogs)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (r *Router) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrInvalidID),
		errors.Is(err, repository.ErrInvalidData),
		errors.Is(err, pathsec.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

	case errors.Is(err, auth.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})

	case errors.Is(err, pathsec.ErrAccessDenied):
		// 不回显内部路径
		c.JSON(http.StatusForbidden, gin.H{"error": pathsec.ErrAccessDenied.Error()})

	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrBoardNotFound),
		errors.Is(err, repository.ErrSubscriberNotFound),
		errors.Is(err, repository.ErrScheduleNotFound),
		errors.Is(err, files.ErrFileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, repository.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, files.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})

	case errors.Is(err, monday.ErrUpstream):
		r.logger.Warn("upstream failure", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})

	default:
		r.logger.Error("request failed", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
