package interview

import (
	"strings"
	"unicode/utf8"
)

// MinResumeLength - минимальная длина текста резюме в символах
const MinResumeLength = 50

// MinResumeKeywords - сколько ключевых слов должно встретиться в резюме
const MinResumeKeywords = 2

var resumeKeywords = []string{"опыт", "образование", "навыки", "проекты", "работа", "компания", "должность"}

const (
	msgResumeTooShort = "⚠️ **Похоже, что загруженный текст слишком короткий для резюме.**\n\n" +
		"Пожалуйста, загрузите полное резюме или продолжите собеседование без него."
	msgResumeNotResume = "⚠️ **Загруженный текст не похож на резюме.**\n\n" +
		"Пожалуйста, загрузите настоящее резюме или продолжите собеседование без него."
)

// CheckResume проверяет, похож ли текст на резюме.
// Возвращает сообщение об отказе или пустую строку.
func CheckResume(text string) string {
	if utf8.RuneCountInString(text) < MinResumeLength {
		return msgResumeTooShort
	}
	if countResumeKeywords(text) < MinResumeKeywords {
		return msgResumeNotResume
	}
	return ""
}

func countResumeKeywords(text string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, kw := range resumeKeywords {
		if strings.Contains(lower, kw) {
			n++
		}
	}
	return n
}
