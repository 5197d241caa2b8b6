package interview

import (
	"errors"
	"strings"
	"testing"

	"hr-interview-bot/internal/questions"
)

func TestNeedsFollowUp(t *testing.T) {
	long := strings.Repeat("а", ShortAnswerThreshold)
	short := strings.Repeat("а", ShortAnswerThreshold-1)

	tests := []struct {
		name     string
		answer   string
		soFar    int
		max      int
		expected bool
	}{
		{"first long answer still asks once", long, 0, 2, true},
		{"long answer after first follow-up", long, 1, 2, false},
		{"short answer within budget", short, 1, 2, true},
		{"short answer budget spent", short, 2, 2, false},
		{"zero budget never asks", short, 0, 0, false},
		{"runes not bytes", strings.Repeat("я", 30), 1, 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NeedsFollowUp(tt.answer, tt.soFar, tt.max); got != tt.expected {
				t.Fatalf("NeedsFollowUp(len=%d, %d, %d) = %v, want %v", len(tt.answer), tt.soFar, tt.max, got, tt.expected)
			}
		})
	}
}

func TestParseName(t *testing.T) {
	first, last, err := ParseName("иван петров, хочу в продажи")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != "Иван" || last != "Петров," {
		t.Fatalf("unexpected name %q %q", first, last)
	}

	for _, in := range []string{"Иван", "Иванушка-дурачок"} {
		_, _, err := ParseName(in)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%q: expected validation error, got %v", in, err)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		invalid bool
	}{
		{in: "8 (999) 123-45-67", want: "+79991234567"},
		{in: "+7 999 123 45 67", want: "+79991234567"},
		{in: "89991234567", want: "+79991234567"},
		{in: "12345", invalid: true},
		{in: "+3809991234567", invalid: true},
		{in: "7999123456", invalid: true},
	}
	for _, tt := range tests {
		got, err := NormalizePhone(tt.in)
		if tt.invalid {
			if err == nil {
				t.Fatalf("%q: expected error, got %q", tt.in, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("%q: got %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestNormalizeEmailAndPortfolio(t *testing.T) {
	if got, err := NormalizeEmail("  Ivan@Example.COM "); err != nil || got != "ivan@example.com" {
		t.Fatalf("unexpected email %q %v", got, err)
	}
	if _, err := NormalizeEmail("ivan-at-example"); err == nil {
		t.Fatal("expected invalid email")
	}
	if got := NormalizePortfolio(" НЕТ "); got != PortfolioNotProvided {
		t.Fatalf("unexpected portfolio %q", got)
	}
	if got := NormalizePortfolio("https://github.com/ivan"); got != "https://github.com/ivan" {
		t.Fatalf("unexpected portfolio %q", got)
	}
}

func TestApplyContactKeepsCandidateOnError(t *testing.T) {
	c := Candidate{ID: 1, Phone: "+79990000000"}
	if err := ApplyContact(&c, questions.FieldPhone, "123"); err == nil {
		t.Fatal("expected validation error")
	}
	if c.Phone != "+79990000000" {
		t.Fatalf("candidate changed on invalid input: %q", c.Phone)
	}

	if err := ApplyContact(&c, questions.FieldEmail, "A@B.RU"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Email != "a@b.ru" {
		t.Fatalf("unexpected email %q", c.Email)
	}
	if err := ApplyContact(&c, questions.FieldNone, "что угодно"); err != nil {
		t.Fatalf("unexpected error for field without contact: %v", err)
	}
}

func TestCheckResume(t *testing.T) {
	good := "Опыт работы: 5 лет в компании Ромашка. Образование высшее. Навыки: переговоры, CRM."
	if reason := CheckResume(good); reason != "" {
		t.Fatalf("expected resume to pass, got %q", reason)
	}
	if reason := CheckResume("коротко"); reason != msgResumeTooShort {
		t.Fatalf("expected too short, got %q", reason)
	}
	noKeywords := strings.Repeat("просто длинный текст без нужных слов ", 3)
	if reason := CheckResume(noKeywords); reason != msgResumeNotResume {
		t.Fatalf("expected not a resume, got %q", reason)
	}
}

func TestStatusTransitions(t *testing.T) {
	if !StatusStarted.CanTransition(StatusInProgress) || !StatusInProgress.CanTransition(StatusCompleted) {
		t.Fatal("forward transitions must be allowed")
	}
	if StatusCompleted.CanTransition(StatusInProgress) || StatusTimedOut.CanTransition(StatusCompleted) {
		t.Fatal("terminal statuses must not change")
	}
	if StatusInProgress.CanTransition(StatusStarted) {
		t.Fatal("backward transition must be rejected")
	}
}

func TestFormatQuestion(t *testing.T) {
	intro := questions.Question{Text: "Привет", Category: questions.CategoryIntroduction}
	if got := FormatQuestion(intro, 0, 15); got != "Привет" {
		t.Fatalf("introduction must be plain, got %q", got)
	}
	prof := questions.Question{Text: "Расскажите о себе", Category: questions.CategoryProfessional}
	got := FormatQuestion(prof, 5, 15)
	if !strings.HasPrefix(got, "📝 **Вопрос 6 из 15**\n\n**Расскажите о себе**") {
		t.Fatalf("unexpected question format %q", got)
	}
	if FormatFollowUp("Подробнее?") != "**Уточняющий вопрос:**\n\nПодробнее?" {
		t.Fatal("unexpected follow-up format")
	}
}
