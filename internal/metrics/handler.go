package metrics

import (
	"fmt"
	"net/http"
)

// Handler отдает счетчики в текстовом формате Prometheus
type Handler struct {
	metrics *Metrics
}

func NewHandler(m *Metrics) *Handler {
	return &Handler{metrics: m}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	s := h.metrics.GetSnapshot()
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	counters := []struct {
		name  string
		help  string
		value int64
	}{
		{"hrbot_interviews_started_total", "Number of started interviews.", s.InterviewsStarted},
		{"hrbot_interviews_completed_total", "Number of completed interviews.", s.InterviewsCompleted},
		{"hrbot_interviews_timed_out_total", "Number of interviews marked as timed out.", s.InterviewsTimedOut},
		{"hrbot_questions_asked_total", "Number of delivered interview questions.", s.QuestionsAsked},
		{"hrbot_follow_ups_asked_total", "Number of clarification questions.", s.FollowUpsAsked},
		{"hrbot_resumes_accepted_total", "Number of accepted resumes.", s.ResumesAccepted},
		{"hrbot_resumes_rejected_total", "Number of rejected resume uploads.", s.ResumesRejected},
		{"hrbot_analyses_degraded_total", "Number of analyses replaced by the default result.", s.AnalysesDegraded},
		{"hrbot_oracle_calls_total", "Number of scoring oracle calls.", s.APICallsTotal},
		{"hrbot_oracle_calls_successful_total", "Number of successful scoring oracle calls.", s.APICallsSuccessful},
		{"hrbot_updates_rate_limited_total", "Number of inbound updates dropped by the rate limiter.", s.UpdatesRateLimited},
	}

	for _, c := range counters {
		_, _ = fmt.Fprintf(w, "# HELP %s %s\n", c.name, c.help)
		_, _ = fmt.Fprintf(w, "# TYPE %s counter\n", c.name)
		_, _ = fmt.Fprintf(w, "%s %d\n", c.name, c.value)
	}
}
