package interview

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"hr-interview-bot/internal/questions"
)

const (
	msgIntroTooShort = "Пожалуйста, представьтесь более подробно: укажите ваше имя, фамилию и желаемую позицию."
	msgIntroTokens   = "Пожалуйста, укажите ваше имя, фамилию и желаемую позицию."
	msgInvalidPhone  = "Пожалуйста, укажите корректный номер телефона в формате +7XXXXXXXXXX или 8XXXXXXXXXX"
	msgInvalidEmail  = "Пожалуйста, укажите корректный email адрес"

	// PortfolioNotProvided сохраняется, если кандидат ответил "нет"
	PortfolioNotProvided = "не указан"
)

// ValidationError содержит сообщение, которое нужно показать кандидату
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var titleCaser = cases.Title(language.Russian)

// ParseName извлекает имя и фамилию из представления кандидата
func ParseName(text string) (first, last string, err error) {
	if utf8.RuneCountInString(text) < 10 {
		return "", "", &ValidationError{Message: msgIntroTooShort}
	}
	words := strings.Fields(text)
	if len(words) < 2 {
		return "", "", &ValidationError{Message: msgIntroTokens}
	}
	return titleCaser.String(words[0]), titleCaser.String(words[1]), nil
}

var phoneCleaner = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")

// NormalizePhone приводит российский номер к формату +7XXXXXXXXXX
func NormalizePhone(text string) (string, error) {
	phone := phoneCleaner.Replace(strings.TrimSpace(text))
	switch {
	case strings.HasPrefix(phone, "8") && len(phone) == 11:
		return "+7" + phone[1:], nil
	case strings.HasPrefix(phone, "+7") && len(phone) == 12:
		return phone, nil
	}
	return "", &ValidationError{Message: msgInvalidPhone}
}

// NormalizeEmail проверяет и нормализует email
func NormalizeEmail(text string) (string, error) {
	if !strings.Contains(text, "@") || !strings.Contains(text, ".") {
		return "", &ValidationError{Message: msgInvalidEmail}
	}
	return strings.ToLower(strings.TrimSpace(text)), nil
}

// NormalizePortfolio возвращает ссылку на портфолио или отметку об отсутствии
func NormalizePortfolio(text string) string {
	if strings.ToLower(strings.TrimSpace(text)) == "нет" {
		return PortfolioNotProvided
	}
	return strings.TrimSpace(text)
}

// ApplyContact проверяет ответ и переносит значение в карточку кандидата.
// При ошибке проверки кандидат не изменяется.
func ApplyContact(c *Candidate, field questions.ContactField, text string) error {
	switch field {
	case questions.FieldName:
		first, last, err := ParseName(text)
		if err != nil {
			return err
		}
		c.FirstName, c.LastName = first, last
	case questions.FieldPhone:
		phone, err := NormalizePhone(text)
		if err != nil {
			return err
		}
		c.Phone = phone
	case questions.FieldEmail:
		email, err := NormalizeEmail(text)
		if err != nil {
			return err
		}
		c.Email = email
	case questions.FieldPortfolio:
		c.Portfolio = NormalizePortfolio(text)
	case questions.FieldNone:
	}
	return nil
}
