package throttle

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Memory keeps one token bucket per key. Each attempt takes a token; tokens
// refill at Threshold per Window. Only suitable for a single replica.
type Memory struct {
	cfg      Config
	every    time.Duration
	limiters sync.Map // map[string]*rate.Limiter

	mu          sync.Mutex
	lastCleanup time.Time
	now         func() time.Time
}

// NewMemory returns an in-process limiter.
func NewMemory(cfg Config) *Memory {
	cfg = cfg.withDefaults()
	return &Memory{
		cfg:         cfg,
		every:       cfg.Window / time.Duration(cfg.Threshold),
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

func (m *Memory) Take(_ context.Context, key string) (bool, time.Duration, error) {
	limiter := rate.NewLimiter(rate.Every(m.every), m.cfg.Threshold)
	actual, _ := m.limiters.LoadOrStore(key, limiter)
	lim := actual.(*rate.Limiter)

	m.maybeCleanup()

	now := m.now()
	if lim.AllowN(now, 1) {
		return true, 0, nil
	}
	wait := time.Duration((1 - lim.TokensAt(now)) * float64(m.every))
	return false, max(wait, time.Second), nil
}

func (m *Memory) Reset(_ context.Context, key string) error {
	m.limiters.Delete(key)
	return nil
}

// maybeCleanup drops buckets that have fully refilled, at most once a window.
func (m *Memory) maybeCleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if now.Sub(m.lastCleanup) < m.cfg.Window {
		return
	}
	m.lastCleanup = now

	m.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).TokensAt(now) >= float64(m.cfg.Threshold) {
			m.limiters.Delete(key)
		}
		return true
	})
}
