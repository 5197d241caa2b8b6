package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"hr-interview-bot/internal/interview"
	"hr-interview-bot/internal/questions"
)

const DefaultLimit = 10

// ReportSource - сторона чтения репозитория для отчетов
type ReportSource interface {
	RecentAnalyses(ctx context.Context, limit int) ([]interview.AnalysisResult, error)
	AnalysesByTrack(ctx context.Context, track questions.Track, limit int) ([]interview.AnalysisResult, error)
	Statistics(ctx context.Context, now time.Time) (interview.Statistics, error)
	GetCandidate(ctx context.Context, id int64) (interview.Candidate, error)
	GetCandidateAnalysis(ctx context.Context, candidateID int64) (interview.AnalysisResult, error)
}

// ResultRow - строка списка результатов
type ResultRow struct {
	CandidateID    int64                    `json:"candidate_id"`
	Name           string                   `json:"name"`
	Track          questions.Track          `json:"track"`
	OverallScore   float64                  `json:"overall_score"`
	Recommendation interview.Recommendation `json:"hr_recommendation"`
	Degraded       bool                     `json:"degraded,omitempty"`
	CreatedAt      time.Time                `json:"created_at"`
}

// ResultDetail - полный результат кандидата
type ResultDetail struct {
	Candidate interview.Candidate      `json:"candidate"`
	Analysis  interview.AnalysisResult `json:"analysis"`
}

// Reports строит отчеты для HR только на чтение
type Reports struct {
	source  ReportSource
	catalog *questions.Catalog
	policy  Policy
	logger  *zap.Logger
	now     func() time.Time
}

func NewReports(source ReportSource, catalog *questions.Catalog, policy Policy, logger *zap.Logger) *Reports {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy == nil {
		policy = NewAllowlist()
	}
	return &Reports{
		source:  source,
		catalog: catalog,
		policy:  policy,
		logger:  logger,
		now:     time.Now,
	}
}

// Authorized сообщает, есть ли у участника доступ к панели
func (r *Reports) Authorized(participantID int64) bool {
	return r.policy.IsAuthorized(participantID)
}

// Recent возвращает последние результаты, новые первыми
func (r *Reports) Recent(ctx context.Context, limit int) ([]ResultRow, error) {
	analyses, err := r.source.RecentAnalyses(ctx, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("recent analyses: %w", err)
	}
	return r.rows(ctx, analyses), nil
}

// ByTrack возвращает последние результаты по позиции
func (r *Reports) ByTrack(ctx context.Context, track questions.Track, limit int) ([]ResultRow, error) {
	if _, ok := r.catalog.Track(track); !ok {
		return nil, interview.ErrUnknownTrack
	}
	analyses, err := r.source.AnalysesByTrack(ctx, track, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("analyses by track: %w", err)
	}
	return r.rows(ctx, analyses), nil
}

// Detail возвращает кандидата и его последнюю оценку
func (r *Reports) Detail(ctx context.Context, candidateID int64) (ResultDetail, error) {
	analysis, err := r.source.GetCandidateAnalysis(ctx, candidateID)
	if err != nil {
		return ResultDetail{}, err
	}
	candidate, err := r.source.GetCandidate(ctx, candidateID)
	if err != nil {
		return ResultDetail{}, err
	}
	return ResultDetail{Candidate: candidate, Analysis: analysis}, nil
}

// Stats возвращает агрегаты на текущий момент
func (r *Reports) Stats(ctx context.Context) (interview.Statistics, error) {
	stats, err := r.source.Statistics(ctx, r.now())
	if err != nil {
		return interview.Statistics{}, fmt.Errorf("statistics: %w", err)
	}
	return stats, nil
}

func (r *Reports) rows(ctx context.Context, analyses []interview.AnalysisResult) []ResultRow {
	rows := make([]ResultRow, 0, len(analyses))
	for _, a := range analyses {
		rows = append(rows, ResultRow{
			CandidateID:    a.CandidateID,
			Name:           r.candidateName(ctx, a.CandidateID),
			Track:          a.Track,
			OverallScore:   a.OverallScore,
			Recommendation: a.Recommendation,
			Degraded:       a.Degraded,
			CreatedAt:      a.CreatedAt,
		})
	}
	return rows
}

func (r *Reports) candidateName(ctx context.Context, id int64) string {
	c, err := r.source.GetCandidate(ctx, id)
	if err != nil {
		if !errors.Is(err, interview.ErrNotFound) {
			r.logger.Warn("failed to load candidate for report", zap.Int64("candidate_id", id), zap.Error(err))
		}
		return fmt.Sprintf("ID: %d", id)
	}
	if name := c.DisplayName(); name != "" {
		return name
	}
	return fmt.Sprintf("ID: %d", id)
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return DefaultLimit
	}
	return limit
}
