// Package ratelimit implements per-provider sliding-window admission control.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const DefaultWindow = time.Minute

// LimitFunc returns the number of requests allowed per window for a provider.
// A non-positive limit disables throttling for that provider.
type LimitFunc func(provider string) int

// window records admission timestamps for one provider, oldest first.
type window struct {
	mu     sync.Mutex
	stamps []time.Time
}

// Limiter admits at most limit(provider) requests in any rolling window.
type Limiter struct {
	mu      sync.RWMutex
	windows map[string]*window
	width   time.Duration
	limit   LimitFunc
	now     func() time.Time
}

type Option func(*Limiter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// WithWindow overrides the window width.
func WithWindow(width time.Duration) Option {
	return func(l *Limiter) {
		if width > 0 {
			l.width = width
		}
	}
}

func New(limit LimitFunc, opts ...Option) *Limiter {
	l := &Limiter{
		windows: make(map[string]*window),
		width:   DefaultWindow,
		limit:   limit,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Limiter) window(provider string) *window {
	l.mu.RLock()
	w, ok := l.windows[provider]
	l.mu.RUnlock()
	if ok {
		return w
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if w, ok = l.windows[provider]; !ok {
		w = &window{}
		l.windows[provider] = w
	}
	return w
}

// Admit records a request for provider if the window has room.
// When denied it returns how long until the oldest in-window request expires.
func (l *Limiter) Admit(provider string) (bool, time.Duration) {
	limit := l.limit(provider)
	if limit <= 0 {
		return true, 0
	}

	w := l.window(provider)
	now := l.now()

	w.mu.Lock()
	defer w.mu.Unlock()

	expired := 0
	for expired < len(w.stamps) && now.Sub(w.stamps[expired]) >= l.width {
		expired++
	}
	if expired > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[expired:]...)
	}

	if len(w.stamps) < limit {
		w.stamps = append(w.stamps, now)
		return true, 0
	}

	retryAfter := w.stamps[0].Add(l.width).Sub(now)
	if retryAfter <= 0 {
		retryAfter = time.Millisecond
	}
	return false, retryAfter
}

// Wait blocks until provider is admitted or ctx is done.
func (l *Limiter) Wait(ctx context.Context, provider string) error {
	for {
		allowed, retryAfter := l.Admit(provider)
		if allowed {
			return nil
		}

		timer := time.NewTimer(retryAfter)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Reset forgets the recorded window of provider, e.g. after its limit changed.
func (l *Limiter) Reset(provider string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, provider)
}
