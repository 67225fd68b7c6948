package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igdb_mirror_v1_202610/internal/model"
	"igdb_mirror_v1_202610/pkg/net"
)

// fakeTokens 固定凭证
type fakeTokens struct {
	token   string
	err     error
	cleared int32
}

func (f *fakeTokens) Token(context.Context) (string, error) { return f.token, f.err }
func (f *fakeTokens) Refresh(context.Context) (string, error) { return f.token, f.err }
func (f *fakeTokens) Clear() { atomic.AddInt32(&f.cleared, 1) }
func (f *fakeTokens) Inspect() TokenStatus { return TokenStatus{HasToken: f.token != ""} }

func newTestDispatcher() net.Dispatcher {
	return net.NewDispatcher(net.DispatcherConfig{RatePerSecond: 1000, BreakerFailures: 100})
}

func TestCatalogClient_Query(t *testing.T) {
	var gotPath, gotBody, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[{"id":7,"name":"SNES"},{"id":8,"name":"N64"}]`))
	}))
	defer server.Close()

	client := NewCatalogClient(server.URL+"/v4", "cid", &fakeTokens{token: "tok"}, newTestDispatcher())
	items, err := client.Query(context.Background(), model.KindPlatform, "fields name;")
	require.NoError(t, err)

	assert.Len(t, items, 2)
	assert.Equal(t, "/v4/platforms", gotPath)
	assert.Equal(t, "fields name;", gotBody)
	assert.Equal(t, "Bearer tok", gotAuth)
}

func TestCatalogClient_UnauthorizedClearsToken(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	tokens := &fakeTokens{token: "stale"}
	client := NewCatalogClient(server.URL, "cid", tokens, newTestDispatcher())
	_, err := client.Query(context.Background(), model.KindGenre, "fields *;")

	var authErr *UpstreamAuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)
	// 重试一次后仍被拒
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&tokens.cleared))
}

// rotatingTokens Clear 之后发放新凭证
type rotatingTokens struct {
	mu         sync.Mutex
	generation int
}

func (r *rotatingTokens) Token(context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return "tok-" + strconv.Itoa(r.generation), nil
}

func (r *rotatingTokens) Refresh(ctx context.Context) (string, error) { return r.Token(ctx) }

func (r *rotatingTokens) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
}

func (r *rotatingTokens) Inspect() TokenStatus { return TokenStatus{HasToken: true} }

func TestCatalogClient_UnauthorizedRetriesWithFreshToken(t *testing.T) {
	var mu sync.Mutex
	var auths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		auths = append(auths, r.Header.Get("Authorization"))
		mu.Unlock()

		if r.Header.Get("Authorization") == "Bearer tok-0" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[{"id":3,"name":"Puzzle"}]`))
	}))
	defer server.Close()

	client := NewCatalogClient(server.URL, "cid", &rotatingTokens{}, newTestDispatcher())
	items, err := client.Query(context.Background(), model.KindGenre, "fields *;")
	require.NoError(t, err)
	assert.Len(t, items, 1)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"Bearer tok-0", "Bearer tok-1"}, auths)
}

func TestCatalogClient_NonSuccessIsFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`[{"title":"Syntax Error","status":400}]`))
	}))
	defer server.Close()

	client := NewCatalogClient(server.URL, "cid", &fakeTokens{token: "tok"}, newTestDispatcher())
	_, err := client.Query(context.Background(), model.KindCover, "bad")

	var fe *UpstreamFetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusBadRequest, fe.Status)
	assert.Equal(t, model.KindCover, fe.Kind)
	assert.Contains(t, fe.Body, "Syntax Error")
}

func TestCatalogClient_CredentialsMissing(t *testing.T) {
	client := NewCatalogClient("http://127.0.0.1:0", "", &fakeTokens{err: ErrCredentialsMissing}, newTestDispatcher())
	_, err := client.Query(context.Background(), model.KindCover, "fields *;")
	assert.True(t, errors.Is(err, ErrCredentialsMissing))
}

func TestCatalogClient_TransportErrorIsFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewCatalogClient(url, "cid", &fakeTokens{token: "tok"}, newTestDispatcher())
	_, err := client.Query(context.Background(), model.KindCover, "fields *;")

	var fe *UpstreamFetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 0, fe.Status)
}
