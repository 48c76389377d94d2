package dispatch

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/futig/ragchat-backend/internal/cache"
	"github.com/futig/ragchat-backend/internal/entity"
	pkgRetry "github.com/futig/ragchat-backend/internal/pkg/retry"
	"github.com/google/uuid"
)

// Providers resolves and calls upstream models.
type Providers interface {
	Resolve(name, model string) (entity.ProviderConfig, string, error)
	Complete(ctx context.Context, name, model string, req entity.ChatRequest) (entity.Completion, error)
}

// RateLimiter blocks until the provider admits one more request or ctx ends.
type RateLimiter interface {
	Wait(ctx context.Context, provider string) error
}

type Config struct {
	Retry    pkgRetry.RetryConfig
	CacheTTL time.Duration
	// Timeout bounds a whole dispatch including waits and retries. 0 leaves it to the caller.
	Timeout time.Duration
}

// Dispatcher turns one chat request into a cached, rate limited, retried upstream exchange.
// It does not log; every result carries a DispatchOutcome for the caller.
type Dispatcher struct {
	providers Providers
	limiter   RateLimiter
	cache     cache.ResponseCache
	cfg       Config
	now       func() time.Time
}

func New(providers Providers, limiter RateLimiter, responseCache cache.ResponseCache, cfg Config) *Dispatcher {
	if responseCache == nil {
		responseCache = cache.Disabled{}
	}
	return &Dispatcher{
		providers: providers,
		limiter:   limiter,
		cache:     responseCache,
		cfg:       cfg,
		now:       time.Now,
	}
}

type attemptState struct {
	provider string
	model    string
	attempts int
	stage    entity.DispatchStage
	fallback bool
}

func (d *Dispatcher) Dispatch(ctx context.Context, req entity.ChatRequest) (entity.ChatResponse, error) {
	start := d.now()
	if d.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.Timeout)
		defer cancel()
	}

	id := uuid.NewString()
	state := &attemptState{provider: req.Provider, model: req.Model, stage: entity.StageResolve}

	fail := func(err error) (entity.ChatResponse, error) {
		elapsed := d.now().Sub(start)
		return entity.ChatResponse{Outcome: d.outcome(id, state, false, elapsed)}, &entity.DispatchError{
			Stage:    state.stage,
			Provider: state.provider,
			Model:    state.model,
			Attempts: state.attempts,
			Elapsed:  elapsed,
			Err:      err,
		}
	}

	cfg, model, err := d.providers.Resolve(req.Provider, req.Model)
	if cfg.Name != "" {
		state.provider = cfg.Name
	}
	state.model = model
	if err != nil {
		return fail(err)
	}

	state.stage = entity.StageCache
	key := cache.Key(req, model)
	if !req.SkipCache {
		if cached, ok := d.cache.Get(key); ok {
			cached.ID = id
			cached.CreatedAt = d.now()
			cached.Outcome = d.outcome(id, state, true, d.now().Sub(start))
			return cached, nil
		}
	}

	completion, err := d.sendWithRetry(ctx, state, req)
	if err != nil && ctx.Err() == nil && classify(err) <= classRejected &&
		cfg.FallbackModel != "" && cfg.FallbackModel != model {
		state.model = cfg.FallbackModel
		state.fallback = true
		completion, err = d.send(ctx, state, entity.StageFallback, req)
	}
	if err != nil {
		return fail(wrapFinal(ctx, err))
	}

	resp := entity.ChatResponse{
		ID:        id,
		Text:      completion.Text,
		Usage:     completion.Usage,
		CreatedAt: d.now(),
	}
	if !req.SkipCache {
		d.cache.Put(key, resp, d.cfg.CacheTTL)
	}
	resp.Outcome = d.outcome(id, state, false, d.now().Sub(start))
	return resp, nil
}

// sendWithRetry retries transient failures of the primary model with backoff.
func (d *Dispatcher) sendWithRetry(ctx context.Context, state *attemptState, req entity.ChatRequest) (entity.Completion, error) {
	var lastErr error

	opts := append(d.cfg.Retry.ToRetryOptions(retryAfterHint),
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			return ctx.Err() == nil && classify(err) == classTransient
		}),
	)

	completion, err := retry.DoWithData(func() (entity.Completion, error) {
		stage := entity.StageSend
		if state.attempts > 0 {
			stage = entity.StageRetry
		}
		c, err := d.send(ctx, state, stage, req)
		if err != nil {
			lastErr = err
		}
		return c, err
	}, opts...)
	if err != nil && lastErr != nil {
		err = lastErr
	}
	return completion, err
}

// send makes one upstream call once the rate limiter admits it.
func (d *Dispatcher) send(ctx context.Context, state *attemptState, stage entity.DispatchStage, req entity.ChatRequest) (entity.Completion, error) {
	if err := d.limiter.Wait(ctx, state.provider); err != nil {
		state.stage = entity.StageRateAdmit
		return entity.Completion{}, err
	}

	state.stage = stage
	state.attempts++
	return d.providers.Complete(ctx, state.provider, state.model, req)
}

func (d *Dispatcher) outcome(id string, state *attemptState, hit bool, elapsed time.Duration) entity.DispatchOutcome {
	return entity.DispatchOutcome{
		DispatchID:   id,
		Provider:     state.provider,
		Model:        state.model,
		Stage:        state.stage,
		Attempts:     state.attempts,
		CacheHit:     hit,
		FallbackUsed: state.fallback,
		Duration:     elapsed,
	}
}
