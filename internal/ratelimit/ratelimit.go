package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter ограничивает число сообщений в чат за окно (sliding window)
type Limiter struct {
	mu       sync.Mutex
	requests map[int64][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

type Config struct {
	RequestsPerMinute int
	// CleanupInterval - как часто выкидывать пустые чаты, по умолчанию 5 минут
	CleanupInterval time.Duration
}

func New(ctx context.Context, cfg Config) *Limiter {
	limit := cfg.RequestsPerMinute
	if limit <= 0 {
		limit = 10
	}
	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	l := &Limiter{
		requests: make(map[int64][]time.Time),
		limit:    limit,
		window:   time.Minute,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go l.cleanup(ctx, interval)
	return l
}

func (l *Limiter) Limit() int {
	return l.limit
}

func (l *Limiter) Allow(chatID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	fresh := l.fresh(chatID, now)

	if len(fresh) >= l.limit {
		l.requests[chatID] = fresh
		return false
	}

	l.requests[chatID] = append(fresh, now)
	return true
}

func (l *Limiter) Remaining(chatID int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if rem := l.limit - len(l.fresh(chatID, l.now())); rem > 0 {
		return rem
	}
	return 0
}

// RetryAfter - сколько ждать до следующего разрешенного сообщения
func (l *Limiter) RetryAfter(chatID int64) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	fresh := l.fresh(chatID, now)
	if len(fresh) < l.limit {
		return 0
	}

	// таймстемпы добавляются по порядку, самый старый первый
	return fresh[0].Add(l.window).Sub(now)
}

func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// fresh оставляет только запросы внутри окна. Вызывать под mu.
func (l *Limiter) fresh(chatID int64, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	old := l.requests[chatID]
	out := old[:0]
	for _, t := range old {
		if t.After(cutoff) {
			out = append(out, t)
		}
	}
	return out
}

func (l *Limiter) cleanup(ctx context.Context, interval time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stop:
			return
		case <-tick.C:
			l.sweep()
		}
	}
}

func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for chatID := range l.requests {
		fresh := l.fresh(chatID, now)
		if len(fresh) == 0 {
			delete(l.requests, chatID)
		} else {
			l.requests[chatID] = fresh
		}
	}
}

func (l *Limiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.requests)
}
