package xprobe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPProber_Probe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			assert.Equal(t, "xassets", r.Header.Get("User-Agent"))
			_, _ = w.Write([]byte("png"))
		case "/slow.png":
			time.Sleep(200 * time.Millisecond)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := NewHTTPProber(
		WithClient(srv.Client()),
		WithHeader("User-Agent", "xassets"),
		WithTimeout(50*time.Millisecond),
	)
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		require.NoError(t, p.Probe(ctx, srv.URL+"/ok.png"))
	})

	t.Run("not found", func(t *testing.T) {
		err := p.Probe(ctx, srv.URL+"/missing.png")
		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, http.StatusNotFound, se.StatusCode)
	})

	t.Run("timeout", func(t *testing.T) {
		err := p.Probe(ctx, srv.URL+"/slow.png")
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	})

	t.Run("empty url", func(t *testing.T) {
		assert.True(t, errors.Is(p.Probe(ctx, ""), ErrEmptyURL))
	})

	t.Run("canceled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.Error(t, p.Probe(cctx, srv.URL+"/ok.png"))
	})
}

func TestHTTPProber_Method(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = r.Method
	}))
	defer srv.Close()

	p := NewHTTPProber(WithClient(srv.Client()), WithMethod("head"))
	require.NoError(t, p.Probe(context.Background(), srv.URL))
	assert.Equal(t, http.MethodHead, got)
}
