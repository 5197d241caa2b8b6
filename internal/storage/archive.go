package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hr-interview-bot/internal/interview"
	"hr-interview-bot/internal/questions"
)

const (
	blockContact      = "Контактные данные"
	blockProfessional = "Профессиональные вопросы"
)

// Archive сохраняет завершенные собеседования в JSON файлы
type Archive struct {
	dir     string
	catalog *questions.Catalog
}

func NewArchive(dir string, catalog *questions.Catalog) *Archive {
	if dir == "" {
		dir = "results"
	}
	return &Archive{dir: dir, catalog: catalog}
}

// Archive реализует interview.Archiver
func (a *Archive) Archive(_ context.Context, t interview.Transcript) error {
	return a.SaveResult(a.build(t))
}

func (a *Archive) build(t interview.Transcript) *InterviewResult {
	result := &InterviewResult{
		InterviewID: t.Session.ID,
		Timestamp:   t.Session.StartedAt.Format(time.RFC3339),
		Position:    a.catalog.Title(t.Session.Track),
		Candidate: CandidateCard{
			ID:        t.Candidate.ID,
			Name:      t.Candidate.DisplayName(),
			Username:  t.Candidate.Username,
			Phone:     t.Candidate.Phone,
			Email:     t.Candidate.Email,
			Portfolio: t.Candidate.Portfolio,
		},
		Analysis: t.Analysis,
	}

	contact := BlockResult{BlockID: 1, BlockName: blockContact}
	professional := BlockResult{BlockID: 2, BlockName: blockProfessional}
	for _, ans := range t.Answers {
		qa := QA{QuestionID: ans.QuestionID, Answer: ans.Text, FollowUps: ans.FollowUpAnswers}
		q, ok := a.catalog.QuestionByID(ans.QuestionID)
		if ok {
			qa.Question = q.Text
		}
		if ok && !q.Category.Scoreable() {
			contact.QuestionsAndAnswers = append(contact.QuestionsAndAnswers, qa)
			continue
		}
		professional.QuestionsAndAnswers = append(professional.QuestionsAndAnswers, qa)
	}
	result.Blocks = []BlockResult{contact, professional}
	return result
}

// SaveResult сохраняет результат собеседования в JSON файл
func (a *Archive) SaveResult(result *InterviewResult) error {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return fmt.Errorf("ошибка создания директории %s: %w", a.dir, err)
	}

	path := filepath.Join(a.dir, fmt.Sprintf("interview_%s.json", result.InterviewID))
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации результата: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("ошибка записи файла %s: %w", path, err)
	}
	return nil
}

// LoadResult загружает результат собеседования из JSON файла
func (a *Archive) LoadResult(interviewID string) (*InterviewResult, error) {
	path := filepath.Join(a.dir, fmt.Sprintf("interview_%s.json", interviewID))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла %s: %w", path, err)
	}

	var result InterviewResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("ошибка десериализации JSON: %w", err)
	}
	return &result, nil
}

// ListResults возвращает идентификаторы всех сохраненных собеседований
func (a *Archive) ListResults() ([]string, error) {
	entries, err := os.ReadDir(a.dir)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения директории %s: %w", a.dir, err)
	}

	results := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || !strings.HasPrefix(name, "interview_") {
			continue
		}
		results = append(results, strings.TrimSuffix(strings.TrimPrefix(name, "interview_"), ".json"))
	}
	return results, nil
}
