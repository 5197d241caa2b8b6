package metrics

import (
	"sync"
	"time"
)

// Metrics хранит счетчики работы бота. Нулевой указатель допустим:
// все методы на nil ничего не делают.
type Metrics struct {
	mu   sync.RWMutex
	snap Snapshot
}

// Snapshot - копия счетчиков на момент вызова
type Snapshot struct {
	InterviewsStarted   int64     `json:"interviews_started"`
	InterviewsCompleted int64     `json:"interviews_completed"`
	InterviewsTimedOut  int64     `json:"interviews_timed_out"`
	QuestionsAsked      int64     `json:"questions_asked"`
	FollowUpsAsked      int64     `json:"follow_ups_asked"`
	ResumesAccepted     int64     `json:"resumes_accepted"`
	ResumesRejected     int64     `json:"resumes_rejected"`
	AnalysesDegraded    int64     `json:"analyses_degraded"`
	APICallsTotal       int64     `json:"api_calls_total"`
	APICallsSuccessful  int64     `json:"api_calls_successful"`
	UpdatesRateLimited  int64     `json:"updates_rate_limited"`
	LastUpdateTime      time.Time `json:"last_update_time"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		snap: Snapshot{LastUpdateTime: time.Now()},
	}
}

func (m *Metrics) update(fn func(s *Snapshot)) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.snap)
	m.snap.LastUpdateTime = time.Now()
}

func (m *Metrics) IncrementInterviewsStarted() {
	m.update(func(s *Snapshot) { s.InterviewsStarted++ })
}

func (m *Metrics) IncrementInterviewsCompleted() {
	m.update(func(s *Snapshot) { s.InterviewsCompleted++ })
}

func (m *Metrics) IncrementInterviewsTimedOut() {
	m.update(func(s *Snapshot) { s.InterviewsTimedOut++ })
}

func (m *Metrics) IncrementQuestionsAsked() {
	m.update(func(s *Snapshot) { s.QuestionsAsked++ })
}

func (m *Metrics) IncrementFollowUpsAsked() {
	m.update(func(s *Snapshot) { s.FollowUpsAsked++ })
}

func (m *Metrics) IncrementResume(accepted bool) {
	m.update(func(s *Snapshot) {
		if accepted {
			s.ResumesAccepted++
		} else {
			s.ResumesRejected++
		}
	})
}

func (m *Metrics) IncrementAnalysesDegraded() {
	m.update(func(s *Snapshot) { s.AnalysesDegraded++ })
}

func (m *Metrics) IncrementAPICall(success bool) {
	m.update(func(s *Snapshot) {
		s.APICallsTotal++
		if success {
			s.APICallsSuccessful++
		}
	})
}

func (m *Metrics) IncrementRateLimited() {
	m.update(func(s *Snapshot) { s.UpdatesRateLimited++ })
}

func (m *Metrics) GetSnapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap
}
