package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"buildbid/internal/auth"
	"buildbid/internal/client"
	"buildbid/internal/config"
	"buildbid/internal/handler"
	"buildbid/internal/job"
	"buildbid/internal/metrics"
	"buildbid/internal/middleware"
	"buildbid/internal/model"
	"buildbid/internal/notify"
	"buildbid/internal/repository"
)

// Deps are the external resources the HTTP surface runs on. Redis, Storage and Push may be nil.
type Deps struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Storage  client.FileStorage
	Push     client.PushSender
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// New wires repositories, handlers, routes and scheduled jobs. It does not start anything.
func New(cfg *config.Config, deps Deps) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	db := deps.DB
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	columnRepo := repository.NewColumnRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	subscriptionRepo := repository.NewPushSubscriptionRepository(db)
	revenueRepo := repository.NewRevenueRepository(db)

	hub := notify.NewHub(logger)
	opts := []notify.Option{
		notify.WithRedis(deps.Redis, cfg.Redis.UnreadTTL),
		notify.WithMetrics(deps.Metrics),
	}
	if deps.Push != nil {
		opts = append(opts, notify.WithPush(deps.Push, subscriptionRepo))
	}
	dispatcher := notify.NewDispatcher(notificationRepo, hub, logger, opts...)

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpiryHours)
	userHandler := handler.NewUserHandler(userRepo, tokens)
	projectHandler := handler.NewProjectHandler(projectRepo, deps.Storage, dispatcher, deps.Metrics, logger)
	columnHandler := handler.NewColumnHandler(columnRepo)
	ticketHandler := handler.NewTicketHandler(ticketRepo, columnRepo, dispatcher, logger)
	commentHandler := handler.NewCommentHandler(commentRepo, ticketRepo, projectRepo, userRepo, dispatcher, logger)
	notificationHandler := handler.NewNotificationHandler(dispatcher, hub, subscriptionRepo, logger)
	revenueHandler := handler.NewRevenueHandler(revenueRepo)

	r := gin.New()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))
	r.Use(middleware.Metrics(deps.Metrics))

	r.GET("/healthz", healthz(db))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Public routes
	r.POST("/register", userHandler.Register)
	r.POST("/login", userHandler.Login)
	r.POST("/login/admin", userHandler.LoginAdmin)

	// Any authenticated role
	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(cfg.JWT.Secret))
	{
		authorized.GET("/me", userHandler.Me)
		authorized.PUT("/me", userHandler.UpdateMe)

		authorized.GET("/notifications", notificationHandler.List)
		authorized.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		authorized.POST("/notifications/read-all", notificationHandler.MarkAllRead)
		authorized.POST("/notifications/:id/read", notificationHandler.MarkRead)
		authorized.POST("/push/subscriptions", notificationHandler.RegisterPush)
		authorized.DELETE("/push/subscriptions/:token", notificationHandler.DeletePush)
		authorized.GET("/ws", notificationHandler.WebSocket)

		authorized.GET("/tickets/:id/comments", commentHandler.ListTicketComments)
		authorized.POST("/tickets/:id/comments", commentHandler.AddTicketComment)
		authorized.GET("/projects/:id/comments", commentHandler.ListProjectComments)
		authorized.POST("/projects/:id/comments", commentHandler.AddProjectComment)
	}

	admin := authorized.Group("/admin", middleware.RequireRole(model.RoleAdmin))
	{
		admin.GET("/projects", projectHandler.List)
		admin.POST("/projects", projectHandler.Create)
		admin.GET("/projects/:id", projectHandler.Get)
		admin.PUT("/projects/:id", projectHandler.Update)
		admin.DELETE("/projects/:id", projectHandler.Delete)
		admin.PATCH("/projects/:id/status", projectHandler.UpdateStatus)
		admin.PATCH("/projects/:id/hold", projectHandler.UpdateHold)
		admin.PATCH("/projects/:id/column", projectHandler.MoveToColumn)
		admin.GET("/projects/:id/history", projectHandler.History)
		admin.POST("/projects/:id/files/:kind", projectHandler.UploadFile)
		admin.GET("/pipeline", projectHandler.Pipeline)
		admin.GET("/revenue", revenueHandler.Summary)

		admin.GET("/contractors", userHandler.ListContractors)
		admin.GET("/contractors/:id", userHandler.GetContractor)
		admin.GET("/admins", userHandler.ListAdmins)
		admin.GET("/clients", userHandler.ListClients)

		admin.GET("/columns", columnHandler.GetAll)
		admin.POST("/columns", columnHandler.Create)
		admin.POST("/columns/reorder", columnHandler.ReorderColumns)
		admin.GET("/columns/:id", columnHandler.GetByID)
		admin.PUT("/columns/:id", columnHandler.Update)
		admin.DELETE("/columns/:id", columnHandler.Delete)

		admin.GET("/tickets", ticketHandler.List)
		admin.POST("/tickets", ticketHandler.Create)
		admin.GET("/tickets/:id", ticketHandler.GetByID)
		admin.PUT("/tickets/:id", ticketHandler.Update)
		admin.DELETE("/tickets/:id", ticketHandler.Delete)
		admin.POST("/tickets/:id/move", ticketHandler.MoveTicket)
		admin.POST("/tickets/:id/timer/start", ticketHandler.StartTimer)
		admin.POST("/tickets/:id/timer/stop", ticketHandler.StopTimer)
	}

	contractor := authorized.Group("/contractor", middleware.RequireRole(model.RoleContractor))
	{
		contractor.GET("/projects", projectHandler.List)
		contractor.GET("/projects/:id", projectHandler.Get)
		contractor.PATCH("/projects/:id/status", projectHandler.UpdateStatus)
		contractor.GET("/pipeline", projectHandler.Pipeline)
		contractor.GET("/tickets", ticketHandler.List)
		contractor.GET("/tickets/:id", ticketHandler.GetByID)
		contractor.POST("/tickets/:id/timer/start", ticketHandler.StartTimer)
		contractor.POST("/tickets/:id/timer/stop", ticketHandler.StopTimer)
	}

	clientGroup := authorized.Group("/client", middleware.RequireRole(model.RoleClient))
	{
		clientGroup.GET("/projects", projectHandler.List)
		clientGroup.GET("/projects/:id", projectHandler.Get)
		clientGroup.GET("/tickets", ticketHandler.List)
		clientGroup.GET("/tickets/:id", ticketHandler.GetByID)
	}

	scheduler := job.NewScheduler(logger)
	if err := scheduler.Add("@daily", job.NewPushTokenCleanupJob(subscriptionRepo, cfg.Push.TokenMaxAgeDays, deps.Metrics, logger)); err != nil {
		return nil, err
	}
	if err := scheduler.Add("@hourly", job.NewDeadlineReminderJob(projectRepo, dispatcher, cfg.Push.ReminderWindow, deps.Metrics, logger)); err != nil {
		return nil, err
	}

	return &Server{
		Engine:    r,
		DB:        db,
		Redis:     deps.Redis,
		Config:    cfg,
		Logger:    logger,
		Hub:       hub,
		Scheduler: scheduler,
	}, nil
}

func healthz(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
