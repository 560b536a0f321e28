package xprobe

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatic(t *testing.T) {
	boom := errors.New("boom")
	s := NewStatic(map[string]error{
		"http://a.com/x.png": boom,
		"http://b.com/x.png": nil,
	})
	ctx := context.Background()

	assert.True(t, errors.Is(s.Probe(ctx, "http://a.com/x.png"), boom))
	assert.NoError(t, s.Probe(ctx, "http://b.com/x.png"))
	assert.True(t, errors.Is(s.Probe(ctx, "http://c.com/x.png"), ErrNotFound))

	s.Set("http://c.com/x.png", nil)
	assert.NoError(t, s.Probe(ctx, "http://c.com/x.png"))

	assert.Equal(t, []string{
		"http://a.com/x.png",
		"http://b.com/x.png",
		"http://c.com/x.png",
		"http://c.com/x.png",
	}, s.Calls())

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	assert.True(t, errors.Is(s.Probe(cctx, "http://b.com/x.png"), context.Canceled))
}

func TestDownHosts(t *testing.T) {
	var calls []string
	next := Func(func(_ context.Context, raw string) error {
		calls = append(calls, raw)
		return nil
	})
	p := DownHosts(next, "A.com", " ", "c.com")
	ctx := context.Background()

	assert.True(t, errors.Is(p.Probe(ctx, "http://a.com/x.png"), ErrHostDown))
	assert.True(t, errors.Is(p.Probe(ctx, "//c.com:8080/x.png"), ErrHostDown))
	assert.NoError(t, p.Probe(ctx, "http://b.com/x.png"))
	assert.NoError(t, p.Probe(ctx, "/relative.png"))
	assert.Equal(t, []string{"http://b.com/x.png", "/relative.png"}, calls)
}
