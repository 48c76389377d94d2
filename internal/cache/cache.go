// Package cache memoizes upstream chat responses for a short time.
package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/futig/ragchat-backend/internal/entity"
)

const (
	DefaultCapacity = 1024
	DefaultTTL      = 5 * time.Minute
)

// ResponseCache stores chat responses by request key.
type ResponseCache interface {
	Get(key string) (entity.ChatResponse, bool)
	Put(key string, value entity.ChatResponse, ttl time.Duration)
}

var (
	_ ResponseCache = &LRU{}
	_ ResponseCache = Disabled{}
)

type entry struct {
	value     entity.ChatResponse
	expiresAt time.Time
}

// LRU is a fixed-capacity least-recently-used cache whose entries expire lazily on read.
type LRU struct {
	items      *lru.Cache[string, entry]
	defaultTTL time.Duration
	now        func() time.Time
}

type Option func(*LRU)

func WithClock(now func() time.Time) Option {
	return func(c *LRU) {
		c.now = now
	}
}

func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *LRU) {
		if ttl > 0 {
			c.defaultTTL = ttl
		}
	}
}

func NewLRU(capacity int, opts ...Option) (*LRU, error) {
	items, err := lru.New[string, entry](capacity)
	if err != nil {
		return nil, err
	}

	c := &LRU{
		items:      items,
		defaultTTL: DefaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *LRU) Get(key string) (entity.ChatResponse, bool) {
	e, ok := c.items.Get(key)
	if !ok {
		return entity.ChatResponse{}, false
	}
	if !c.now().Before(e.expiresAt) {
		c.items.Remove(key)
		return entity.ChatResponse{}, false
	}
	return e.value, true
}

// Put stores value for ttl; a non-positive ttl uses the default.
func (c *LRU) Put(key string, value entity.ChatResponse, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.items.Add(key, entry{value: value, expiresAt: c.now().Add(ttl)})
}

func (c *LRU) Len() int {
	return c.items.Len()
}

// Disabled is used when no cache is configured: every lookup misses.
type Disabled struct{}

func (Disabled) Get(string) (entity.ChatResponse, bool) {
	return entity.ChatResponse{}, false
}

func (Disabled) Put(string, entity.ChatResponse, time.Duration) {}
