package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"hr-interview-bot/internal/admin"
	"hr-interview-bot/internal/interview"
	"hr-interview-bot/internal/metrics"
	"hr-interview-bot/internal/ratelimit"
)

const (
	maxInputLength = 4000

	msgRateLimited    = "⏳ Слишком много сообщений. Пожалуйста, подождите минуту."
	msgUnknownCommand = "Неизвестная команда. Используйте /help для получения списка команд."
	msgTextOnly       = "Пожалуйста, отправьте ответ текстовым сообщением."
)

// Interviewer - операции собеседования, вызываемые из Telegram
type Interviewer interface {
	Begin(ctx context.Context, p interview.Participant) error
	HandleAction(ctx context.Context, id int64, action string) error
	HandleText(ctx context.Context, id int64, text string) error
	Status(ctx context.Context, id int64) error
}

var _ Interviewer = (*interview.Machine)(nil)

// Handler разбирает обновления Telegram и передает их машине собеседования
type Handler struct {
	sender     Sender
	notifier   *Notifier
	interviews Interviewer
	reports    *admin.Reports
	limiter    ratelimit.Limiter
	metrics    *metrics.Metrics
	company    string
	logger     *zap.Logger
}

func NewHandler(sender Sender, interviews Interviewer, reports *admin.Reports, limiter ratelimit.Limiter, m *metrics.Metrics, company string, logger *zap.Logger) *Handler {
	if limiter == nil {
		limiter = ratelimit.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		sender:     sender,
		notifier:   NewNotifier(sender),
		interviews: interviews,
		reports:    reports,
		limiter:    limiter,
		metrics:    m,
		company:    company,
		logger:     logger,
	}
}

// HandleUpdate обрабатывает сообщение или нажатие кнопки
func (h *Handler) HandleUpdate(ctx context.Context, update Update) error {
	switch {
	case update.CallbackQuery != nil:
		return h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		return h.handleMessage(ctx, update.Message)
	}
	return nil
}

func (h *Handler) handleMessage(ctx context.Context, msg *Message) error {
	if msg.From == nil || msg.From.IsBot || !msg.Chat.Private() {
		return nil
	}
	userID := msg.From.ID
	text := strings.TrimSpace(msg.Text)

	if !h.allow(ctx, userID) {
		return h.send(ctx, userID, msgRateLimited)
	}
	if text == "" {
		return h.send(ctx, userID, msgTextOnly)
	}

	if strings.HasPrefix(text, "/") {
		return h.handleCommand(ctx, msg.From, text)
	}

	if err := validateUserInput(text); err != nil {
		return h.send(ctx, userID, "❌ "+err.Error())
	}
	return h.interviews.HandleText(ctx, userID, text)
}

// handleCommand обрабатывает команды бота
func (h *Handler) handleCommand(ctx context.Context, from *User, text string) error {
	switch parseCommand(text) {
	case "/start":
		return h.interviews.Begin(ctx, interview.Participant{
			ID:        from.ID,
			Username:  from.Username,
			FirstName: from.FirstName,
			LastName:  from.LastName,
		})
	case "/help":
		return h.send(ctx, from.ID, h.helpText())
	case "/status":
		return h.interviews.Status(ctx, from.ID)
	case "/admin":
		return h.notifier.Deliver(ctx, from.ID, h.reports.Menu(from.ID))
	}
	return h.send(ctx, from.ID, msgUnknownCommand)
}

func (h *Handler) handleCallback(ctx context.Context, cb *CallbackQuery) error {
	if err := h.sender.AnswerCallbackQuery(ctx, cb.ID, ""); err != nil {
		h.logger.Warn("failed to answer callback", zap.Int64("user_id", cb.From.ID), zap.Error(err))
	}
	if cb.From.IsBot || (cb.Message != nil && !cb.Message.Chat.Private()) {
		return nil
	}
	if !h.allow(ctx, cb.From.ID) {
		return h.send(ctx, cb.From.ID, msgRateLimited)
	}

	h.logger.Debug("callback received", zap.Int64("user_id", cb.From.ID), zap.String("data", cb.Data))
	if admin.IsAction(cb.Data) {
		return h.notifier.Deliver(ctx, cb.From.ID, h.reports.Handle(ctx, cb.From.ID, cb.Data))
	}
	return h.interviews.HandleAction(ctx, cb.From.ID, cb.Data)
}

func (h *Handler) allow(ctx context.Context, userID int64) bool {
	if h.limiter.Allow(ctx, ratelimit.Key(userID)) {
		return true
	}
	h.metrics.IncrementRateLimited()
	h.logger.Info("update rate limited", zap.Int64("user_id", userID))
	return false
}

func (h *Handler) send(ctx context.Context, chatID int64, text string) error {
	return h.sender.SendMessage(ctx, chatID, text, nil)
}

func (h *Handler) helpText() string {
	title := "🤖 **HR-бот**"
	if h.company != "" {
		title = fmt.Sprintf("🤖 **HR-бот компании %s**", h.company)
	}
	return title + "\n\n" +
		"**Команды:**\n" +
		"/start - Начать собеседование\n" +
		"/status - Прогресс текущего собеседования\n" +
		"/help - Показать эту справку\n\n" +
		"**О процессе:**\n" +
		"1. Выберите позицию (продажи или тестирование)\n" +
		"2. Ответьте на вопросы (5-7 минут)\n" +
		"3. Получите результат и ждите звонка от HR\n\n" +
		"**Поддержка:**\n" +
		"Если возникли проблемы, обратитесь к HR-специалисту."
}

// validateUserInput отсекает слишком длинные сообщения и спам одним символом
func validateUserInput(text string) error {
	n := utf8.RuneCountInString(text)
	if n > maxInputLength {
		return fmt.Errorf("сообщение слишком длинное (максимум %d символов)", maxInputLength)
	}

	if n > 10 {
		first, _ := utf8.DecodeRuneInString(text)
		if strings.Count(text, string(first)) > n*8/10 {
			return errors.New("сообщение содержит слишком много повторяющихся символов")
		}
	}
	return nil
}

// parseCommand возвращает команду без упоминания бота (/start@bot -> /start)
func parseCommand(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	command := fields[0]
	if idx := strings.Index(command, "@"); idx != -1 {
		command = command[:idx]
	}
	return strings.ToLower(command)
}
