package interview

import (
	"errors"
	"time"

	"hr-interview-bot/internal/questions"
)

var (
	// ErrNotFound возвращается репозиторием, если запись отсутствует
	ErrNotFound = errors.New("interview: not found")
	// ErrUnknownTrack сообщает о позиции, которой нет в каталоге
	ErrUnknownTrack = errors.New("interview: unknown track")
)

// Status представляет стадию собеседования
type Status string

const (
	StatusStarted    Status = "started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusTimedOut   Status = "timed_out"
)

// Active сообщает, что собеседование еще принимает ответы
func (s Status) Active() bool {
	return s == StatusStarted || s == StatusInProgress
}

// CanTransition проверяет монотонность перехода между статусами
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusStarted:
		return next == StatusInProgress || next == StatusCompleted || next == StatusTimedOut
	case StatusInProgress:
		return next == StatusCompleted || next == StatusTimedOut
	}
	return false
}

// Recommendation представляет итоговое решение по кандидату
type Recommendation string

const (
	Recommended        Recommendation = "recommended"
	NeedsClarification Recommendation = "needs_clarification"
	NotRecommended     Recommendation = "not_recommended"
)

// ParseRecommendation разбирает рекомендацию, неизвестные значения отклоняются
func ParseRecommendation(s string) (Recommendation, bool) {
	switch r := Recommendation(s); r {
	case Recommended, NeedsClarification, NotRecommended:
		return r, true
	}
	return NeedsClarification, false
}

// Candidate представляет участника собеседования
type Candidate struct {
	ID              int64           `json:"id"`
	Username        string          `json:"username,omitempty"`
	FirstName       string          `json:"first_name,omitempty"`
	LastName        string          `json:"last_name,omitempty"`
	Track           questions.Track `json:"track,omitempty"`
	ResumeText      string          `json:"resume_text,omitempty"`
	ExperienceLevel string          `json:"experience_level,omitempty"`
	Phone           string          `json:"phone,omitempty"`
	Email           string          `json:"email,omitempty"`
	Portfolio       string          `json:"portfolio,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// DisplayName возвращает имя кандидата для отчетов
func (c Candidate) DisplayName() string {
	switch {
	case c.FirstName != "" && c.LastName != "":
		return c.FirstName + " " + c.LastName
	case c.FirstName != "":
		return c.FirstName
	case c.Username != "":
		return "@" + c.Username
	}
	return ""
}

// Answer представляет ответ на вопрос вместе с уточнениями
type Answer struct {
	QuestionID      string    `json:"question_id"`
	Text            string    `json:"answer_text"`
	FollowUpAnswers []string  `json:"follow_up_answers,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// Session представляет одно собеседование кандидата
type Session struct {
	ID            string          `json:"id"`
	CandidateID   int64           `json:"candidate_id"`
	Track         questions.Track `json:"track"`
	Status        Status          `json:"status"`
	Cursor        int             `json:"question_cursor"`
	FollowUpCount int             `json:"follow_up_count"`
	Answers       []Answer        `json:"answers,omitempty"`
	StartedAt     time.Time       `json:"started_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
	LastActivity  time.Time       `json:"last_activity"`
}

// transition меняет статус, если переход допустим
func (s *Session) transition(next Status) bool {
	if !s.Status.CanTransition(next) {
		return false
	}
	s.Status = next
	return true
}

// AnalysisResult представляет оценку завершенного собеседования
type AnalysisResult struct {
	CandidateID        int64              `json:"candidate_id"`
	SessionID          string             `json:"session_id"`
	Track              questions.Track    `json:"track"`
	OverallScore       float64            `json:"overall_score"`
	CompetencyScores   map[string]float64 `json:"competency_scores"`
	CommunicationStyle string             `json:"communication_skills"`
	ExperienceLevel    string             `json:"experience_level"`
	OriginalityScore   float64            `json:"originality_score"`
	Recommendations    []string           `json:"recommendations"`
	Recommendation     Recommendation     `json:"hr_recommendation"`
	Summary            string             `json:"summary"`
	Degraded           bool               `json:"degraded,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
}

// ResumeAnalysis представляет структурированные данные резюме
type ResumeAnalysis struct {
	ExperienceYears    string   `json:"experience_years"`
	KeySkills          []string `json:"key_skills"`
	ExperienceLevel    string   `json:"experience_level"`
	RelevantExperience string   `json:"relevant_experience"`
	Education          string   `json:"education"`
	Summary            string   `json:"summary"`
	Recommendations    []string `json:"recommendations,omitempty"`
	Degraded           bool     `json:"degraded,omitempty"`
}

// Statistics содержит агрегаты для административных отчетов
type Statistics struct {
	TotalInterviews     int                     `json:"total_interviews"`
	TodayInterviews     int                     `json:"today_interviews"`
	WeekInterviews      int                     `json:"week_interviews"`
	ByTrack             map[questions.Track]int `json:"by_track"`
	ByRecommendation    map[Recommendation]int  `json:"by_recommendation"`
	AverageOverallScore float64                 `json:"avg_overall_score"`
	AverageOriginality  float64                 `json:"avg_originality_score"`
}

// Transcript объединяет все данные завершенного собеседования для архива
type Transcript struct {
	Candidate Candidate      `json:"candidate"`
	Session   Session        `json:"session"`
	Answers   []Answer       `json:"answers"`
	Analysis  AnalysisResult `json:"analysis"`
}
