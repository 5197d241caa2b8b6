package prompts

import (
	"strings"
	"testing"
)

func TestInterviewPromptContainsTranscript(t *testing.T) {
	prompt := GenerateInterviewAnalysisPrompt("SALES", []TranscriptEntry{
		{QuestionID: "sales_1", Question: "Почему продажи?", Topic: "мотивация", Answer: "Люблю общаться", FollowUps: []string{"Пять лет в рознице"}},
		{QuestionID: "sales_2", Question: "Как работаете с отказами?", Answer: "Спокойно"},
	})

	for _, want := range []string{
		"на позицию SALES",
		"Вопрос 1 (sales_1): Почему продажи?",
		"Тема: мотивация",
		"Ответ: Люблю общаться",
		"  Уточнение 1: Пять лет в рознице",
		"Вопрос 2 (sales_2)",
		`"hr_recommendation"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if strings.Contains(prompt, "%!") {
		t.Fatalf("prompt has formatting artifacts:\n%s", prompt)
	}
}

func TestResumePrompt(t *testing.T) {
	prompt := GenerateResumeAnalysisPrompt("QA", "Опыт 3 года")
	if !strings.Contains(prompt, "на позицию QA") || !strings.Contains(prompt, "Опыт 3 года") {
		t.Fatalf("unexpected prompt:\n%s", prompt)
	}
}
