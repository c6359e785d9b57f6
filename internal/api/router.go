package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/satohidetada/my-flea-app/internal/api/handlers"
	"github.com/satohidetada/my-flea-app/internal/api/middleware"
	"github.com/satohidetada/my-flea-app/internal/auth"
	"github.com/satohidetada/my-flea-app/internal/cache"
	"github.com/satohidetada/my-flea-app/internal/config"
	"github.com/satohidetada/my-flea-app/internal/models"
	"github.com/satohidetada/my-flea-app/internal/notify"
	"github.com/satohidetada/my-flea-app/internal/services"
	"github.com/satohidetada/my-flea-app/internal/storage"
	"github.com/satohidetada/my-flea-app/internal/utils"
)

// Services bundles the services the REST handlers depend on.
type Services struct {
	Items         services.IItemService
	Transactions  services.ITransactionService
	Messages      services.IMessageService
	Likes         services.ILikeService
	Comments      services.ICommentService
	Reviews       services.IReviewService
	Users         services.IUserService
	Notifications services.INotificationService
}

// NewServices wires the Mongo-backed services. All of them share one notifier
// and one item cache so writes invalidate what reads have cached.
func NewServices(database *mongo.Database, notifier *notify.Notifier, itemCache cache.ItemCache, log logrus.FieldLogger) *Services {
	reviews := services.NewReviewService(database)
	return &Services{
		Items:         services.NewItemService(database, itemCache, log),
		Transactions:  services.NewTransactionService(database, notifier, itemCache, log),
		Messages:      services.NewMessageService(database, notifier, log),
		Likes:         services.NewLikeService(database, itemCache, log),
		Comments:      services.NewCommentService(database, notifier, log),
		Reviews:       reviews,
		Users:         services.NewUserService(database, reviews, log),
		Notifications: services.NewNotificationService(database),
	}
}

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, svc *Services, blobStore storage.IBlobStore, rateLimiter *middleware.RateLimiterMiddleware, log logrus.FieldLogger) *gin.Engine {
	r := gin.New()

	// Apply global middleware first (order matters)
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORSMiddleware())

	itemHandler := handlers.NewRestItemHandler(svc.Items, svc.Transactions, svc.Likes, svc.Comments)
	chatHandler := handlers.NewRestChatHandler(svc.Transactions, svc.Messages)
	userHandler := handlers.NewRestUserHandler(svc.Users, svc.Reviews, svc.Items)
	notificationHandler := handlers.NewRestNotificationHandler(svc.Notifications)
	uploadHandler := handlers.NewRestUploadHandler(blobStore, cfg.UploadSecretHash)

	v1 := r.Group("/v1")
	{
		// Public reads, limited per IP
		public := v1.Group("/")
		public.Use(rateLimiter.Limit())
		{
			public.GET("/ping", func(c *gin.Context) {
				c.String(http.StatusOK, "pong")
			})
			public.GET("/items", itemHandler.SearchItems)
			public.GET("/items/:id", itemHandler.GetItem)
			public.GET("/items/:id/comments", itemHandler.ListComments)
			public.GET("/users/:id", userHandler.GetProfile)
			public.GET("/users/:id/reviews", userHandler.ListReviews)
			public.GET("/users/:id/items", userHandler.ListItems)
		}

		// The limiter runs after auth so buckets are keyed per actor.
		authRequired := v1.Group("/")
		authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret), rateLimiter.Limit())
		{
			authRequired.POST("/items", itemHandler.CreateItem)
			authRequired.PATCH("/items/:id", itemHandler.EditItem)
			authRequired.DELETE("/items/:id", itemHandler.DeleteItem)
			authRequired.POST("/items/:id/purchase", itemHandler.Purchase)
			authRequired.POST("/items/:id/like", itemHandler.ToggleLike)
			authRequired.GET("/items/:id/like", itemHandler.IsLiked)
			authRequired.POST("/items/:id/comments", itemHandler.AddComment)

			authRequired.GET("/me/likes", itemHandler.ListLikedItems)
			authRequired.PUT("/me/profile", userHandler.UpdateProfile)

			authRequired.GET("/chats", chatHandler.ListChats)
			authRequired.GET("/chats/:id", chatHandler.GetChat)
			authRequired.GET("/chats/:id/messages", chatHandler.ListMessages)
			authRequired.POST("/chats/:id/messages", chatHandler.SendMessage)
			authRequired.POST("/chats/:id/reviews", chatHandler.SubmitReview)

			authRequired.GET("/notifications", notificationHandler.List)
			authRequired.GET("/notifications/unread_count", notificationHandler.UnreadCount)
			authRequired.POST("/notifications/:id/read", notificationHandler.MarkRead)
			authRequired.POST("/notifications/read_all", notificationHandler.MarkAllRead)

			authRequired.POST("/uploads", uploadHandler.Upload)
			authRequired.POST("/uploads/presign", uploadHandler.Presign)
		}
	}

	return r
}

// HealthCheck reports whether a backing store is reachable.
type HealthCheck func(ctx context.Context) error

// issueTokenArgs are the arguments of the issueToken service method.
type issueTokenArgs struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// SetupServiceRouter configures and returns the service Gin engine: metrics,
// health and the internal JSON API.
func SetupServiceRouter(cfg *config.Config, checks map[string]HealthCheck, shutdownChan chan<- struct{}, log logrus.FieldLogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		status := http.StatusOK
		result := gin.H{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				result[name] = err.Error()
				continue
			}
			result[name] = "ok"
		}
		c.JSON(status, result)
	})

	r.POST("/api", func(c *gin.Context) {
		var req struct {
			Method    string          `json:"method"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
			return
		}

		switch req.Method {
		case "shutdown":
			log.Info("Received shutdown command via Service API")
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
				log.Info("Shutdown signal sent successfully")
			default:
				log.Warn("Shutdown channel already signaled or blocked")
			}
		case "issueToken":
			if !cfg.MockServices {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Unknown service method: %s", req.Method)})
				return
			}
			var args issueTokenArgs
			if len(req.Arguments) > 0 {
				if err := json.Unmarshal(req.Arguments, &args); err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid arguments: expected {user_id, display_name}"})
					return
				}
			}
			actor := models.Actor{DisplayName: args.DisplayName}
			if args.UserID == "" {
				actor.ID = utils.NewSixID()
			} else {
				id, err := utils.ParseSixID(args.UserID)
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid user_id"})
					return
				}
				actor.ID = id
			}
			token, err := auth.GenerateJWT(actor, cfg.JwtSecret, cfg.JwtTTL)
			if err != nil {
				log.WithError(err).Error("Failed to issue development token")
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to issue token"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"token": token, "user_id": actor.ID.String()}})
		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Unknown service method: %s", req.Method)})
		}
	})
	return r
}
