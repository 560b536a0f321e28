package xassetretry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHookResult(t *testing.T) {
	s := Substitute("http://b.com/x.png")
	assert.True(t, s.IsValid())
	assert.False(t, s.IsVeto())
	assert.Equal(t, "http://b.com/x.png", s.URL())

	v := Veto()
	assert.True(t, v.IsValid())
	assert.True(t, v.IsVeto())

	var zero HookResult
	assert.False(t, zero.IsValid())
}

func TestAdaptDynamicHook(t *testing.T) {
	assert.Nil(t, AdaptDynamicHook(nil))

	tests := []struct {
		name    string
		ret     any
		veto    bool
		valid   bool
		wantURL string
	}{
		{name: "nil vetoes", ret: nil, veto: true, valid: true},
		{name: "string substitutes", ret: "http://c.com/x.png", valid: true, wantURL: "http://c.com/x.png"},
		{name: "number is invalid", ret: 42},
		{name: "bool is invalid", ret: false},
		{name: "struct is invalid", ret: struct{}{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hook := AdaptDynamicHook(func(context.Context, string, string, Stats) any {
				return tt.ret
			})
			got := hook(context.Background(), "http://b.com/x.png", "http://a.com/x.png", Stats{})
			assert.Equal(t, tt.valid, got.IsValid())
			assert.Equal(t, tt.veto, got.IsVeto())
			assert.Equal(t, tt.wantURL, got.URL())
		})
	}
}

func TestEngine_DynamicHookInvalidType(t *testing.T) {
	e, err := New(
		WithDomainMap(map[string]string{"a.com": "b.com"}),
		WithOnRetry(AdaptDynamicHook(func(context.Context, string, string, Stats) any {
			return 1
		})),
	)
	require.NoError(t, err)

	_, err = e.OnFailure(context.Background(), "http://a.com/x.png")
	assert.True(t, errors.Is(err, ErrInvalidHookResult))
}
