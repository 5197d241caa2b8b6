package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hr-interview-bot/internal/telegram"
)

const maxWebhookBody = 1 << 20

type webhookHandler struct {
	secret  string
	updates UpdateSink
	logger  *zap.Logger
}

// handle принимает обновление и сразу отвечает Telegram; обработка идет в очереди участника
func (h *webhookHandler) handle(c *gin.Context) {
	if h.secret != "" && !secureEqual(c.GetHeader(telegramSecretHeader), h.secret) {
		h.logger.Warn("unauthorized webhook request", zap.String("remote", c.ClientIP()))
		c.Status(http.StatusUnauthorized)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	var update telegram.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		h.logger.Warn("invalid webhook payload", zap.Error(err))
		c.Status(http.StatusBadRequest)
		return
	}

	h.updates.Dispatch(context.WithoutCancel(c.Request.Context()), update)
	c.Status(http.StatusOK)
}
