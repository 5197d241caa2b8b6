package ratelimit

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// Limiter решает, можно ли обработать очередное сообщение участника
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// Key возвращает ключ ограничителя для участника
func Key(participantID int64) string {
	return strconv.FormatInt(participantID, 10)
}

// Noop пропускает все сообщения
type Noop struct{}

func (Noop) Allow(context.Context, string) bool { return true }

// MemoryLimiter - скользящее окно в памяти процесса
type MemoryLimiter struct {
	requests map[string][]time.Time
	mutex    sync.Mutex
	limit    int
	window   time.Duration
	now      func() time.Time
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

func (rl *MemoryLimiter) Allow(_ context.Context, key string) bool {
	if rl.limit <= 0 || rl.window <= 0 || key == "" {
		return true
	}

	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	valid := rl.requests[key][:0]
	for _, t := range rl.requests[key] {
		if now.Sub(t) < rl.window {
			valid = append(valid, t)
		}
	}

	if len(valid) >= rl.limit {
		rl.requests[key] = valid
		return false
	}
	rl.requests[key] = append(valid, now)
	return true
}

// Cleanup удаляет ключи без запросов в текущем окне
func (rl *MemoryLimiter) Cleanup() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	for key, times := range rl.requests {
		if len(times) == 0 || now.Sub(times[len(times)-1]) >= rl.window {
			delete(rl.requests, key)
		}
	}
}
