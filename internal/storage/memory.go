package storage

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"hr-interview-bot/internal/interview"
	"hr-interview-bot/internal/questions"
)

// MemoryRepository хранит данные собеседований в памяти процесса
type MemoryRepository struct {
	mu         sync.RWMutex
	candidates map[int64]interview.Candidate
	sessions   map[string]interview.Session
	answers    map[string][]interview.Answer
	analyses   []interview.AnalysisResult
	now        func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		candidates: make(map[int64]interview.Candidate),
		sessions:   make(map[string]interview.Session),
		answers:    make(map[string][]interview.Answer),
		now:        time.Now,
	}
}

func (r *MemoryRepository) SaveCandidate(_ context.Context, c interview.Candidate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.candidates[c.ID]; ok && !existing.CreatedAt.IsZero() {
		c.CreatedAt = existing.CreatedAt
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.now()
	}
	r.candidates[c.ID] = c
	return nil
}

func (r *MemoryRepository) GetCandidate(_ context.Context, id int64) (interview.Candidate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.candidates[id]
	if !ok {
		return interview.Candidate{}, interview.ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepository) SaveInterview(_ context.Context, s interview.Session) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.Answers = nil
	r.sessions[s.ID] = s
	return s.ID, nil
}

func (r *MemoryRepository) UpdateInterview(_ context.Context, s interview.Session, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[sessionID]; !ok {
		return interview.ErrNotFound
	}
	s.ID = sessionID
	s.Answers = nil
	r.sessions[sessionID] = s
	return nil
}

func (r *MemoryRepository) GetInterview(_ context.Context, sessionID string) (interview.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return interview.Session{}, interview.ErrNotFound
	}
	s.Answers = slices.Clone(r.answers[sessionID])
	return s, nil
}

func (r *MemoryRepository) GetActiveInterview(_ context.Context, candidateID int64) (string, interview.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		found  bool
		latest interview.Session
	)
	for _, s := range r.sessions {
		if s.CandidateID != candidateID || !s.Status.Active() {
			continue
		}
		if !found || s.StartedAt.After(latest.StartedAt) {
			latest, found = s, true
		}
	}
	if !found {
		return "", interview.Session{}, interview.ErrNotFound
	}
	latest.Answers = slices.Clone(r.answers[latest.ID])
	return latest.ID, latest, nil
}

func (r *MemoryRepository) SaveAnswer(_ context.Context, sessionID string, a interview.Answer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[sessionID]; !ok {
		return interview.ErrNotFound
	}
	a.FollowUpAnswers = slices.Clone(a.FollowUpAnswers)
	r.answers[sessionID] = append(r.answers[sessionID], a)
	return nil
}

func (r *MemoryRepository) GetInterviewAnswers(_ context.Context, sessionID string) ([]interview.Answer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	answers := slices.Clone(r.answers[sessionID])
	sort.SliceStable(answers, func(i, j int) bool {
		return answers[i].Timestamp.Before(answers[j].Timestamp)
	})
	return answers, nil
}

func (r *MemoryRepository) SaveAnalysis(_ context.Context, a interview.AnalysisResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a.CreatedAt.IsZero() {
		a.CreatedAt = r.now()
	}
	r.analyses = append(r.analyses, a)
	return nil
}

func (r *MemoryRepository) GetCandidateAnalysis(_ context.Context, candidateID int64) (interview.AnalysisResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.analyses) - 1; i >= 0; i-- {
		if r.analyses[i].CandidateID == candidateID {
			return r.analyses[i], nil
		}
	}
	return interview.AnalysisResult{}, interview.ErrNotFound
}

// RecentAnalyses возвращает последние оценки, новые первыми
func (r *MemoryRepository) RecentAnalyses(_ context.Context, limit int) ([]interview.AnalysisResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]interview.AnalysisResult, 0, limit)
	for i := len(r.analyses) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.analyses[i])
	}
	return out, nil
}

// AnalysesByTrack возвращает последние оценки по позиции, новые первыми
func (r *MemoryRepository) AnalysesByTrack(_ context.Context, track questions.Track, limit int) ([]interview.AnalysisResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]interview.AnalysisResult, 0, limit)
	for i := len(r.analyses) - 1; i >= 0 && len(out) < limit; i-- {
		if r.analyses[i].Track == track {
			out = append(out, r.analyses[i])
		}
	}
	return out, nil
}

// Statistics считает агрегаты по сохраненным оценкам
func (r *MemoryRepository) Statistics(_ context.Context, now time.Time) (interview.Statistics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return computeStatistics(r.analyses, now), nil
}

func computeStatistics(analyses []interview.AnalysisResult, now time.Time) interview.Statistics {
	stats := interview.Statistics{
		ByTrack:          make(map[questions.Track]int),
		ByRecommendation: make(map[interview.Recommendation]int),
	}
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekStart := now.AddDate(0, 0, -7)

	var overall, originality float64
	for _, a := range analyses {
		stats.TotalInterviews++
		if !a.CreatedAt.Before(dayStart) {
			stats.TodayInterviews++
		}
		if !a.CreatedAt.Before(weekStart) {
			stats.WeekInterviews++
		}
		stats.ByTrack[a.Track]++
		stats.ByRecommendation[a.Recommendation]++
		overall += a.OverallScore
		originality += a.OriginalityScore
	}
	if stats.TotalInterviews > 0 {
		stats.AverageOverallScore = overall / float64(stats.TotalInterviews)
		stats.AverageOriginality = originality / float64(stats.TotalInterviews)
	}
	return stats
}
