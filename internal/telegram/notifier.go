package telegram

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"hr-interview-bot/internal/interview"
)

// maxMessageLength оставляет запас до лимита Telegram в 4096 символов
const maxMessageLength = 4000

// Sender - часть Bot API, нужная обработчику и уведомлениям
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, markup *InlineKeyboardMarkup) error
	SendMessageTo(ctx context.Context, chat string, text string) error
	AnswerCallbackQuery(ctx context.Context, callbackID, text string) error
}

// Notifier доставляет ответы собеседования в Telegram
type Notifier struct {
	sender Sender
}

func NewNotifier(sender Sender) *Notifier {
	return &Notifier{sender: sender}
}

// Deliver отправляет ответ участнику; кнопки прикрепляются к последней части
func (n *Notifier) Deliver(ctx context.Context, participantID int64, reply interview.Reply) error {
	chunks := splitMessage(reply.Text, maxMessageLength)
	for i, chunk := range chunks {
		var markup *InlineKeyboardMarkup
		if i == len(chunks)-1 {
			markup = Keyboard(reply.Buttons)
		}
		if err := n.sender.SendMessage(ctx, participantID, chunk, markup); err != nil {
			return fmt.Errorf("deliver to %d: %w", participantID, err)
		}
	}
	return nil
}

// Announce отправляет текст в чат или канал получателя результатов
func (n *Notifier) Announce(ctx context.Context, recipient string, text string) error {
	for _, chunk := range splitMessage(text, maxMessageLength) {
		if err := n.sender.SendMessageTo(ctx, recipient, chunk); err != nil {
			return fmt.Errorf("announce to %s: %w", recipient, err)
		}
	}
	return nil
}

// Keyboard переводит кнопки ответа в инлайн клавиатуру
func Keyboard(rows [][]interview.Button) *InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}
	markup := &InlineKeyboardMarkup{InlineKeyboard: make([][]InlineKeyboardButton, 0, len(rows))}
	for _, row := range rows {
		buttons := make([]InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, InlineKeyboardButton{Text: b.Text, CallbackData: b.Action})
		}
		markup.InlineKeyboard = append(markup.InlineKeyboard, buttons)
	}
	return markup
}

// splitMessage режет длинный текст на части, по возможности по границе строки
func splitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	runes := []rune(text)
	for len(runes) > limit {
		cut := limit
		for i := limit - 1; i > limit/2; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}
		chunks = append(chunks, strings.TrimRight(string(runes[:cut]), "\n"))
		runes = runes[cut:]
	}
	if rest := strings.TrimSpace(string(runes)); rest != "" {
		chunks = append(chunks, rest)
	}
	return chunks
}
