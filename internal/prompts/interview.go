package prompts

import (
	"fmt"
	"strings"
)

// TranscriptEntry - ответ кандидата на вопрос собеседования
type TranscriptEntry struct {
	QuestionID string
	Question   string
	Topic      string
	Answer     string
	FollowUps  []string
}

// GenerateInterviewAnalysisPrompt - промпт для оценки ответов кандидата на позицию
func GenerateInterviewAnalysisPrompt(position string, entries []TranscriptEntry) string {
	prompt := `Проанализируйте ответы кандидата на позицию %s и предоставьте детальную оценку.

ОТВЕТЫ КАНДИДАТА:
%s
ПРОАНАЛИЗИРУЙТЕ:
1. Глубину и релевантность ответов
2. Логику и последовательность мышления
3. Стиль речи и коммуникативные навыки
4. Оригинальность ответов (нет ли шаблонных формулировок)
5. Оценку по компетенциям

Верни ТОЛЬКО валидный JSON, без markdown и комментариев:
{
  "overall_score": 0.85,
  "competency_scores": {
    "experience": 0.8,
    "technical_skills": 0.7,
    "communication": 0.9,
    "problem_solving": 0.75
  },
  "communication_skills": "описание стиля общения",
  "experience_level": "junior/middle/senior",
  "originality_score": 0.9,
  "recommendations": ["список рекомендаций"],
  "hr_recommendation": "recommended/needs_clarification/not_recommended",
  "summary": "краткое резюме интервью"
}

Оценки должны быть от 0 до 1, где 1 - отлично.`

	return fmt.Sprintf(prompt, position, FormatTranscript(entries))
}

// FormatTranscript превращает ответы в нумерованный текст для модели
func FormatTranscript(entries []TranscriptEntry) string {
	var builder strings.Builder
	for i, e := range entries {
		fmt.Fprintf(&builder, "Вопрос %d (%s): %s\n", i+1, e.QuestionID, e.Question)
		if e.Topic != "" {
			fmt.Fprintf(&builder, "Тема: %s\n", e.Topic)
		}
		fmt.Fprintf(&builder, "Ответ: %s\n", e.Answer)
		for j, f := range e.FollowUps {
			fmt.Fprintf(&builder, "  Уточнение %d: %s\n", j+1, f)
		}
		builder.WriteString("\n")
	}
	return builder.String()
}
