package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hr-interview-bot/internal/admin"
	"hr-interview-bot/internal/metrics"
	"hr-interview-bot/internal/telegram"
)

// UpdateSink принимает обновления, пришедшие через webhook
type UpdateSink interface {
	Dispatch(ctx context.Context, update telegram.Update)
}

// Options описывает зависимости HTTP сервера
type Options struct {
	// WebhookSecret сверяется с заголовком X-Telegram-Bot-Api-Secret-Token
	WebhookSecret string
	// AdminKey открывает доступ к /api/reports; пустой ключ закрывает его
	AdminKey string
	Updates  UpdateSink
	Reports  *admin.Reports
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// NewRouter собирает маршруты сервиса.
// Webhook регистрируется только если задан Updates.
func NewRouter(opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(opts.Logger))

	r.GET("/health", health)
	r.GET("/metrics", gin.WrapH(metrics.NewHandler(opts.Metrics)))

	if opts.Updates != nil {
		wh := &webhookHandler{secret: opts.WebhookSecret, updates: opts.Updates, logger: opts.Logger}
		r.POST("/telegram/webhook", wh.handle)
	}

	if opts.Reports != nil {
		rh := &reportsHandler{reports: opts.Reports, logger: opts.Logger}
		api := r.Group("/api/reports")
		api.Use(adminKeyAuth(opts.AdminKey))
		{
			api.GET("/stats", rh.stats)
			api.GET("/recent", rh.recent)
			api.GET("/candidates/:id", rh.candidate)
		}
	}
	return r
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(started)),
		)
	}
}
