package xassetretry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder 记录回调调用。
type recorder struct {
	mu        sync.Mutex
	fails     []string
	successes []string
	retries   [][2]string
}

func (r *recorder) onFail(_ context.Context, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fails = append(r.fails, path)
}

func (r *recorder) onSuccess(_ context.Context, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, path)
}

func (r *recorder) onRetry(_ context.Context, newURL, oldURL string, _ Stats) HookResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retries = append(r.retries, [2]string{newURL, oldURL})
	return Substitute(newURL)
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(opts...)
	require.NoError(t, err)
	return e
}

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		e := newTestEngine(t)
		assert.Equal(t, DefaultMaxRetryCount, e.MaxRetryCount())
		assert.Equal(t, 0, e.Analyzer().Domains().Len())
	})

	t.Run("negative max retry count", func(t *testing.T) {
		_, err := New(WithMaxRetryCount(-1))
		assert.True(t, errors.Is(err, ErrInvalidMaxRetryCount))
	})

	t.Run("invalid domain map", func(t *testing.T) {
		_, err := New(WithDomainMap(map[string]string{"a.com": " "}))
		assert.True(t, errors.Is(err, ErrInvalidDomain))
	})

	t.Run("invalid domain ring", func(t *testing.T) {
		_, err := New(WithDomainRing([]string{"a.com", "a.com"}))
		assert.True(t, errors.Is(err, ErrInvalidDomain))
	})

	t.Run("nil options ignored", func(t *testing.T) {
		e := newTestEngine(t, nil, WithOnRetry(nil), WithOnFail(nil), WithOnSuccess(nil),
			WithLogger(nil), WithStore(nil), WithDomains(nil), WithMeterProvider(nil))
		assert.NotNil(t, e.Store())
	})
}

func TestEngine_OnFailure_OutOfScope(t *testing.T) {
	rec := &recorder{}
	e := newTestEngine(t,
		WithDomainMap(map[string]string{"a.com": "b.com"}),
		WithOnFail(rec.onFail),
		WithOnRetry(rec.onRetry),
	)
	ctx := context.Background()

	for _, raw := range []string{"http://other.com/x.png", "/relative.png", "", "not a url"} {
		for range 10 {
			o, err := e.OnFailure(ctx, raw)
			require.NoError(t, err)
			assert.Equal(t, ActionIgnore, o.Action)
			assert.Equal(t, ReasonOutOfScope, o.Reason)
		}
	}
	assert.Equal(t, 0, e.Store().Len(), "out of scope failures never create collectors")
	assert.Empty(t, rec.fails)
	assert.Empty(t, rec.retries)
}

func TestEngine_OnFailure_Scenario(t *testing.T) {
	rec := &recorder{}
	e := newTestEngine(t,
		WithDomainMap(map[string]string{"a.com": "b.com"}),
		WithMaxRetryCount(1),
		WithOnFail(rec.onFail),
		WithOnRetry(rec.onRetry),
	)
	ctx := context.Background()

	o, err := e.OnFailure(ctx, "http://a.com/x.png")
	require.NoError(t, err)
	assert.Equal(t, ActionRetry, o.Action)
	assert.Equal(t, ReasonSubstituted, o.Reason)
	assert.Equal(t, "http://b.com/x.png", o.URL)
	assert.Equal(t, [][2]string{{"http://b.com/x.png", "http://a.com/x.png"}}, rec.retries)

	o, err = e.OnFailure(ctx, o.URL)
	require.NoError(t, err)
	assert.Equal(t, ActionTerminal, o.Action)
	assert.Equal(t, ReasonExhausted, o.Reason)
	assert.Equal(t, "/x.png", o.Path)
	assert.Equal(t, []string{"/x.png"}, rec.fails)
	assert.Len(t, rec.retries, 1, "no further substitution")

	c, ok := e.Store().Get("a.com")
	require.True(t, ok)
	stats := c.Stats()
	assert.Equal(t, 2, stats.RetryCount)
	assert.Equal(t, []string{"http://a.com/x.png", "http://b.com/x.png"}, stats.Failed)
	assert.Empty(t, stats.Succeeded)
}

func TestEngine_OnFailure_BudgetBoundary(t *testing.T) {
	for _, maxRetry := range []int{0, 1, 3, 5} {
		t.Run(fmt.Sprintf("max=%d", maxRetry), func(t *testing.T) {
			rec := &recorder{}
			e := newTestEngine(t,
				WithDomainRing([]string{"a.com", "b.com"}),
				WithMaxRetryCount(maxRetry),
				WithOnFail(rec.onFail),
			)
			ctx := context.Background()

			retries := 0
			for i := 1; i <= maxRetry+5; i++ {
				o, err := e.OnFailure(ctx, "http://a.com/x.png")
				require.NoError(t, err)
				if i <= maxRetry {
					assert.Equal(t, ActionRetry, o.Action, "failure %d", i)
					retries++
					continue
				}
				assert.Equal(t, ActionTerminal, o.Action, "failure %d", i)
			}
			assert.Equal(t, maxRetry, retries)
			// 第 maxRetry+1 次开始每次失败都会调用 OnFail
			assert.Len(t, rec.fails, 5)
			assert.Equal(t, "/x.png", rec.fails[0])

			c, ok := e.Store().Get("a.com")
			require.True(t, ok)
			assert.Equal(t, maxRetry+5, c.RetryCount())
		})
	}
}

func TestEngine_OnFailure_NoMapping(t *testing.T) {
	rec := &recorder{}
	e := newTestEngine(t,
		WithDomainMap(map[string]string{"a.com": "b.com"}),
		WithMaxRetryCount(3),
		WithOnFail(rec.onFail),
		WithOnRetry(rec.onRetry),
	)

	o, err := e.OnFailure(context.Background(), "http://b.com/x.png")
	require.NoError(t, err)
	assert.Equal(t, ActionIgnore, o.Action)
	assert.Equal(t, ReasonNoMapping, o.Reason)
	assert.Equal(t, "b.com", o.Domain)
	assert.Empty(t, rec.retries)
	assert.Empty(t, rec.fails)

	c, ok := e.Store().Get("a.com")
	require.True(t, ok)
	assert.Equal(t, 1, c.RetryCount(), "failures without mapping still count against the origin")
}

func TestEngine_OnFailure_Veto(t *testing.T) {
	var seen Stats
	e := newTestEngine(t,
		WithDomainMap(map[string]string{"a.com": "b.com"}),
		WithOnRetry(func(_ context.Context, _, _ string, stats Stats) HookResult {
			seen = stats
			return Veto()
		}),
	)

	o, err := e.OnFailure(context.Background(), "http://a.com/x.png")
	require.NoError(t, err)
	assert.Equal(t, ActionIgnore, o.Action)
	assert.Equal(t, ReasonVetoed, o.Reason)

	assert.Equal(t, 1, seen.RetryCount, "hook sees the failure already counted")
	c, ok := e.Store().Get("a.com")
	require.True(t, ok)
	stats := c.Stats()
	assert.Equal(t, 1, stats.RetryCount)
	assert.Equal(t, []string{"http://a.com/x.png"}, stats.Failed)
}

func TestEngine_OnFailure_HookModifiesURL(t *testing.T) {
	e := newTestEngine(t,
		WithDomainMap(map[string]string{"a.com": "b.com"}),
		WithOnRetry(func(_ context.Context, newURL, _ string, _ Stats) HookResult {
			return Substitute(newURL + "?retry=1")
		}),
	)

	o, err := e.OnFailure(context.Background(), "https://a.com/app.js")
	require.NoError(t, err)
	assert.Equal(t, ActionRetry, o.Action)
	assert.Equal(t, "https://b.com/app.js?retry=1", o.URL)
}

func TestEngine_OnFailure_InvalidHookResult(t *testing.T) {
	e := newTestEngine(t,
		WithDomainMap(map[string]string{"a.com": "b.com"}),
		WithOnRetry(func(context.Context, string, string, Stats) HookResult {
			return HookResult{}
		}),
	)

	_, err := e.OnFailure(context.Background(), "http://a.com/x.png")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidHookResult))

	c, ok := e.Store().Get("a.com")
	require.True(t, ok)
	assert.Equal(t, 1, c.RetryCount())
}

func TestEngine_OnFailure_SubstitutesFirstOccurrence(t *testing.T) {
	e := newTestEngine(t, WithDomainMap(map[string]string{"a.com": "b.com"}))

	o, err := e.OnFailure(context.Background(), "http://a.com/a.com/x.png")
	require.NoError(t, err)
	assert.Equal(t, "http://b.com/a.com/x.png", o.URL)
}

func TestEngine_OnSuccess(t *testing.T) {
	rec := &recorder{}
	e := newTestEngine(t,
		WithDomainMap(map[string]string{"a.com": "b.com"}),
		WithOnSuccess(rec.onSuccess),
	)
	ctx := context.Background()

	t.Run("first attempt success is not reported", func(t *testing.T) {
		e.OnSuccess(ctx, "http://a.com/x.png", false)
		assert.Empty(t, rec.successes)
		assert.Equal(t, 0, e.Store().Len())
	})

	t.Run("success after retry", func(t *testing.T) {
		e.OnSuccess(ctx, "http://b.com/x.png", true)
		assert.Equal(t, []string{"/x.png"}, rec.successes)

		c, ok := e.Store().Get("a.com")
		require.True(t, ok)
		assert.Equal(t, []string{"http://b.com/x.png"}, c.Stats().Succeeded)
	})

	t.Run("out of scope", func(t *testing.T) {
		e.OnSuccess(ctx, "http://other.com/x.png", true)
		assert.Len(t, rec.successes, 1)
	})
}

func TestEngine_SharedStore(t *testing.T) {
	store := NewStore()
	opts := []Option{
		WithDomainMap(map[string]string{"a.com": "b.com"}),
		WithStore(store),
	}
	e1 := newTestEngine(t, opts...)
	e2 := newTestEngine(t, opts...)
	ctx := context.Background()

	_, err := e1.OnFailure(ctx, "http://a.com/x.png")
	require.NoError(t, err)
	_, err = e2.OnFailure(ctx, "http://a.com/bg.png")
	require.NoError(t, err)

	c, ok := store.Get("a.com")
	require.True(t, ok)
	assert.Equal(t, 2, c.RetryCount())
	assert.Equal(t, 2, e1.Snapshot()["a.com"].RetryCount)
}

func TestEngine_ConcurrentFailures(t *testing.T) {
	e := newTestEngine(t,
		WithDomainMap(map[string]string{"a.com": "b.com"}),
		WithMaxRetryCount(1000),
	)
	ctx := context.Background()

	const workers, perWorker = 8, 50
	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWorker {
				_, err := e.OnFailure(ctx, fmt.Sprintf("http://a.com/%d/%d.png", w, i))
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	stats := e.Snapshot()["a.com"]
	assert.Equal(t, workers*perWorker, stats.RetryCount)
	assert.Len(t, stats.Failed, workers*perWorker)
}
