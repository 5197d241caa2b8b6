package questions

import (
	"strings"
	"testing"
)

var testBranding = Branding{Company: "Маджента", HRName: "Анна Петрова", HRPosition: "Ведущий HR-специалист"}

func TestDefaultCatalogShape(t *testing.T) {
	c, err := Default(testBranding)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, track := range []Track{TrackSales, TrackQA} {
		all := c.QuestionsFor(track)
		contact := c.ContactQuestionsFor(track)
		prof := c.ProfessionalQuestionsFor(track)

		if len(contact) != 5 {
			t.Fatalf("%s: expected 5 contact questions, got %d", track, len(contact))
		}
		if len(prof) != 10 {
			t.Fatalf("%s: expected 10 professional questions, got %d", track, len(prof))
		}
		if len(all) != 15 {
			t.Fatalf("%s: expected 15 questions, got %d", track, len(all))
		}
		if all[5].ID != prof[0].ID {
			t.Fatalf("%s: expected professional part to start at index 5, got %s", track, all[5].ID)
		}
		for _, q := range prof {
			if q.Track != track {
				t.Fatalf("question %s has track %q", q.ID, q.Track)
			}
			if !q.Category.Scoreable() {
				t.Fatalf("question %s must be scoreable", q.ID)
			}
			if len(q.FollowUps) != 2 {
				t.Fatalf("question %s expected 2 follow-ups, got %d", q.ID, len(q.FollowUps))
			}
		}
	}
}

func TestContactQuestions(t *testing.T) {
	c, err := Default(testBranding)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	contact := c.ContactQuestionsFor(TrackSales)
	wantIDs := []string{"contact_intro", "contact_phone", "contact_email", "contact_portfolio", "contact_ready"}
	wantFields := []ContactField{FieldName, FieldPhone, FieldEmail, FieldPortfolio, FieldNone}
	wantCategories := []Category{CategoryIntroduction, CategoryContact, CategoryContact, CategoryContact, CategoryIntroduction}

	for i, q := range contact {
		if q.ID != wantIDs[i] {
			t.Fatalf("position %d: expected %s, got %s", i, wantIDs[i], q.ID)
		}
		if q.Field != wantFields[i] {
			t.Fatalf("%s: expected field %q, got %q", q.ID, wantFields[i], q.Field)
		}
		if q.Category != wantCategories[i] {
			t.Fatalf("%s: expected category %q, got %q", q.ID, wantCategories[i], q.Category)
		}
	}

	if contact[3].IsRequired() {
		t.Fatalf("portfolio question must be optional")
	}
	if !contact[0].IsRequired() {
		t.Fatalf("intro question must be required")
	}
	if !strings.Contains(contact[0].Text, "Маджента") || !strings.Contains(contact[0].Text, "Анна Петрова") {
		t.Fatalf("intro text is not branded: %q", contact[0].Text)
	}
	if strings.Contains(contact[0].Text, "{company}") {
		t.Fatalf("placeholder left in intro text")
	}
}

func TestQuestionByID(t *testing.T) {
	c, err := Default(testBranding)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	q, ok := c.QuestionByID("qa_3")
	if !ok {
		t.Fatalf("expected qa_3 to exist")
	}
	if q.Topic != "Технические навыки" || q.Track != TrackQA {
		t.Fatalf("unexpected question: %+v", q)
	}
	if q.FollowUpPrompt() != "Приведите примеры каждого типа тестирования" {
		t.Fatalf("unexpected follow-up prompt %q", q.FollowUpPrompt())
	}

	if _, ok := c.QuestionByID("contact_email"); !ok {
		t.Fatalf("expected contact question lookup to succeed")
	}
	if _, ok := c.QuestionByID("missing"); ok {
		t.Fatalf("expected unknown id to be absent")
	}
}

func TestUnknownTrack(t *testing.T) {
	c, err := Default(testBranding)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.QuestionsFor("devops"); got != nil {
		t.Fatalf("expected nil for unknown track, got %d questions", len(got))
	}
	if got := c.Title("devops"); got != "DEVOPS" {
		t.Fatalf("expected code fallback, got %q", got)
	}
}

func TestGenericFollowUp(t *testing.T) {
	q := Question{ID: "x", Text: "x", Category: CategoryProfessional}
	if q.FollowUpPrompt() != GenericFollowUp {
		t.Fatalf("expected generic prompt, got %q", q.FollowUpPrompt())
	}
}

func TestParseRejectsInvalidCatalog(t *testing.T) {
	cases := map[string]string{
		"no tracks": `contact: []`,
		"duplicate id": `
tracks:
  - id: sales
    title: Продажи
    questions:
      - {id: q1, text: a}
      - {id: q1, text: b}
`,
		"bad category": `
contact:
  - {id: c1, text: a, category: smalltalk}
tracks:
  - {id: sales, title: Продажи}
`,
		"professional contact": `
contact:
  - {id: c1, text: a, category: professional}
tracks:
  - {id: sales, title: Продажи}
`,
		"too many follow-ups": `
tracks:
  - id: sales
    title: Продажи
    questions:
      - {id: q1, text: a, follow_ups: [a, b, c, d]}
`,
		"contact field on professional": `
tracks:
  - id: sales
    title: Продажи
    questions:
      - {id: q1, text: a, field: phone}
`,
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc), testBranding); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestParseEmptyProfessionalTrack(t *testing.T) {
	doc := `
contact:
  - {id: c1, text: Привет, category: introduction}
tracks:
  - {id: intern, title: Стажер}
`
	c, err := Parse([]byte(doc), testBranding)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(c.QuestionsFor("intern")); got != 1 {
		t.Fatalf("expected 1 question, got %d", got)
	}
	if got := len(c.ProfessionalQuestionsFor("intern")); got != 0 {
		t.Fatalf("expected no professional questions, got %d", got)
	}
}
