package storage

import (
	"context"
	"testing"
	"time"

	"hr-interview-bot/internal/interview"
	"hr-interview-bot/internal/questions"
)

func TestArchiveSaveLoadList(t *testing.T) {
	catalog, err := questions.Default(questions.Branding{Company: "Маджента"})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	archive := NewArchive(t.TempDir(), catalog)

	ids, err := archive.ListResults()
	if err != nil || len(ids) != 0 {
		t.Fatalf("expected empty archive, got %v %v", ids, err)
	}

	transcript := interview.Transcript{
		Candidate: interview.Candidate{ID: 5, FirstName: "Иван", LastName: "Петров", Phone: "+79991234567"},
		Session:   interview.Session{ID: "abc", Track: questions.TrackSales, StartedAt: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)},
		Answers: []interview.Answer{
			{QuestionID: "contact_phone", Text: "89991234567"},
			{QuestionID: "sales_1", Text: "Продаю давно", FollowUpAnswers: []string{"пять лет"}},
		},
		Analysis: interview.AnalysisResult{OverallScore: 0.7, Recommendation: interview.Recommended},
	}
	if err := archive.Archive(context.Background(), transcript); err != nil {
		t.Fatalf("archive: %v", err)
	}

	ids, err = archive.ListResults()
	if err != nil || len(ids) != 1 || ids[0] != "abc" {
		t.Fatalf("unexpected ids %v %v", ids, err)
	}

	result, err := archive.LoadResult("abc")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if result.Candidate.Name != "Иван Петров" || result.Position != "Сотрудник отдела продаж" {
		t.Fatalf("unexpected header: %+v", result)
	}
	if len(result.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(result.Blocks))
	}
	contact, professional := result.Blocks[0], result.Blocks[1]
	if len(contact.QuestionsAndAnswers) != 1 || contact.QuestionsAndAnswers[0].QuestionID != "contact_phone" {
		t.Fatalf("unexpected contact block: %+v", contact)
	}
	if len(professional.QuestionsAndAnswers) != 1 || professional.QuestionsAndAnswers[0].Question == "" {
		t.Fatalf("unexpected professional block: %+v", professional)
	}
	if result.Analysis.Recommendation != interview.Recommended {
		t.Fatalf("analysis not archived: %+v", result.Analysis)
	}
}
