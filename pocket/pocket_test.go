package pocket

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x0000ff/pocket-tags/internal/pockettwin"
)

const testConsumerKey = "1234-abcd1234abcd1234abcd1234"

func newTestClient(t *testing.T, consumerKey string) (*Client, *pockettwin.Twin) {
	t.Helper()

	twin := pockettwin.New(testConsumerKey)
	srv := httptest.NewServer(twin.Handler())
	t.Cleanup(srv.Close)

	client := NewClient(consumerKey,
		WithBaseURL(srv.URL+"/v3"),
		WithSiteURL(srv.URL),
		WithLogger(zerolog.Nop()),
	)
	return client, twin
}

func TestNewClient(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		client := NewClient(testConsumerKey)
		require.NotNil(t, client)
		assert.Equal(t, testConsumerKey, client.ConsumerKey())
		assert.Equal(t, defaultBaseURL, client.baseURL)
		assert.Equal(t, defaultSiteURL, client.siteURL)
		assert.Equal(t, defaultTimeout, client.client.Timeout)
	})

	t.Run("empty consumer key", func(t *testing.T) {
		client := NewClient("")
		require.NotNil(t, client)
		assert.Empty(t, client.ConsumerKey())
	})

	t.Run("with timeout", func(t *testing.T) {
		client := NewClient(testConsumerKey, WithTimeout(30*time.Second))
		assert.Equal(t, 30*time.Second, client.client.Timeout)
	})

	t.Run("with custom http client", func(t *testing.T) {
		custom := &http.Client{Timeout: 10 * time.Second}
		client := NewClient(testConsumerKey, WithHTTPClient(custom), WithTimeout(time.Minute))
		assert.Same(t, custom, client.client)
		assert.Equal(t, 10*time.Second, custom.Timeout)
	})

	t.Run("trailing slash trimmed", func(t *testing.T) {
		client := NewClient(testConsumerKey, WithBaseURL("http://localhost:8080/v3/"), WithSiteURL("http://localhost:8080/"))
		assert.Equal(t, "http://localhost:8080/v3", client.baseURL)
		assert.Equal(t, "http://localhost:8080", client.siteURL)
	})
}

func TestGetRequestToken(t *testing.T) {
	client, twin := newTestClient(t, testConsumerKey)

	result, err := client.GetRequestToken(context.Background(), "https://example.com/callback")
	require.NoError(t, err)
	assert.Equal(t, "code-1", result.Code)
	assert.Nil(t, result.State)

	reqs := twin.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/v3/oauth/request", reqs[0].Path)
	assert.Equal(t, "application/json; charset=UTF-8", reqs[0].Header.Get("Content-Type"))
	assert.Equal(t, "application/json", reqs[0].Header.Get("X-Accept"))
	assert.Equal(t, testConsumerKey, reqs[0].Form.Get("consumer_key"))
	assert.Equal(t, "https://example.com/callback", reqs[0].Form.Get("redirect_uri"))
}

func TestGetRequestTokenWithState(t *testing.T) {
	client, twin := newTestClient(t, testConsumerKey)
	twin.SetResponse("/v3/oauth/request", http.StatusOK, `{"code":"dcba4321-dcba-4321-dcba-4321dc","state":"xyz"}`)

	result, err := client.GetRequestToken(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "dcba4321-dcba-4321-dcba-4321dc", result.Code)
	require.NotNil(t, result.State)
	assert.Equal(t, "xyz", *result.State)
}

func TestGetRequestTokenErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		xError     string
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "malformed body",
			status:     http.StatusOK,
			body:       "code=abc",
			wantStatus: http.StatusOK,
			wantMsg:    "failed to parse response body",
		},
		{
			name:       "missing code",
			status:     http.StatusOK,
			body:       `{"state":null}`,
			wantStatus: http.StatusOK,
			wantMsg:    "empty request token",
		},
		{
			name:       "api failure",
			status:     http.StatusForbidden,
			xError:     "Invalid consumer key.",
			wantStatus: http.StatusForbidden,
			wantMsg:    "unexpected status code 403",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, twin := newTestClient(t, testConsumerKey)
			if tt.xError != "" {
				twin.SetFailure("/v3/oauth/request", tt.status, tt.xError)
			} else {
				twin.SetResponse("/v3/oauth/request", tt.status, tt.body)
			}

			result, err := client.GetRequestToken(context.Background(), "https://example.com")
			require.Error(t, err)
			assert.Nil(t, result)

			var decodeErr *DecodeError
			require.ErrorAs(t, err, &decodeErr)
			assert.Equal(t, "request token", decodeErr.Op)
			assert.Equal(t, tt.wantStatus, decodeErr.StatusCode)
			assert.Equal(t, tt.body, decodeErr.Body)
			assert.Equal(t, tt.xError, decodeErr.XError)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Equal(t, KindDecode, Kind(err))
		})
	}
}

func TestEmptyConsumerKeyFailsRemotely(t *testing.T) {
	client, _ := newTestClient(t, "")

	_, err := client.GetRequestToken(context.Background(), "https://example.com")
	require.Error(t, err)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, http.StatusBadRequest, decodeErr.StatusCode)
	assert.Equal(t, "Missing consumer key.", decodeErr.XError)
}

func TestTransportError(t *testing.T) {
	t.Run("server unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		baseURL := srv.URL
		srv.Close()

		client := NewClient(testConsumerKey, WithBaseURL(baseURL+"/v3"))
		_, err := client.GetRequestToken(context.Background(), "https://example.com")
		require.Error(t, err)

		var transportErr *TransportError
		require.ErrorAs(t, err, &transportErr)
		assert.Equal(t, "request token", transportErr.Op)
		assert.Contains(t, err.Error(), "failed to send http request")
		assert.Equal(t, KindTransport, Kind(err))
	})

	t.Run("context canceled", func(t *testing.T) {
		client, _ := newTestClient(t, testConsumerKey)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.Authorize(ctx, "code-1")
		require.Error(t, err)
		assert.Equal(t, KindTransport, Kind(err))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestGetAuthorizationURL(t *testing.T) {
	client := NewClient(testConsumerKey)

	got := client.GetAuthorizationURL("dcba4321-dcba-4321", "https://example.com/cb?x=1&y=2")
	assert.Equal(t, "https://getpocket.com/oauth/authorize?request_token=dcba4321-dcba-4321&redirect_uri=https://example.com/cb?x=1&y=2", got)
	assert.Equal(t, got, client.GetAuthorizationURL("dcba4321-dcba-4321", "https://example.com/cb?x=1&y=2"))
}

func TestAuthorize(t *testing.T) {
	client, twin := newTestClient(t, testConsumerKey)
	ctx := context.Background()

	requestToken, err := client.GetRequestToken(ctx, "https://example.com")
	require.NoError(t, err)

	t.Run("before approval", func(t *testing.T) {
		_, err := client.Authorize(ctx, requestToken.Code)
		require.Error(t, err)

		var decodeErr *DecodeError
		require.ErrorAs(t, err, &decodeErr)
		assert.Equal(t, "authorize", decodeErr.Op)
		assert.Equal(t, http.StatusForbidden, decodeErr.StatusCode)
		assert.Equal(t, "User rejected code.", decodeErr.XError)
	})

	t.Run("after approval", func(t *testing.T) {
		require.True(t, twin.Approve(requestToken.Code))

		result, err := client.Authorize(ctx, requestToken.Code)
		require.NoError(t, err)
		assert.NotEmpty(t, result.AccessToken)
		assert.Equal(t, "pocketuser", result.Username)

		reqs := twin.Requests()
		last := reqs[len(reqs)-1]
		assert.Equal(t, "/v3/oauth/authorize", last.Path)
		assert.Equal(t, requestToken.Code, last.Form.Get("code"))
		assert.Equal(t, testConsumerKey, last.Form.Get("consumer_key"))
	})

	t.Run("code reused", func(t *testing.T) {
		_, err := client.Authorize(ctx, requestToken.Code)
		require.Error(t, err)
		assert.Equal(t, KindDecode, Kind(err))
	})
}

func TestAuthorizeEmptyAccessToken(t *testing.T) {
	client, twin := newTestClient(t, testConsumerKey)
	twin.SetResponse("/v3/oauth/authorize", http.StatusOK, `{"access_token":"","username":"pocketuser"}`)

	_, err := client.Authorize(context.Background(), "code-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty access token")

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, `{"access_token":"","username":"pocketuser"}`, decodeErr.Body)
}

func TestHandshakeAndTagSummary(t *testing.T) {
	client, twin := newTestClient(t, testConsumerKey)
	ctx := context.Background()

	twin.AddItems(
		pockettwin.Item{ItemID: "1", URL: "https://go.dev", Tags: []string{"go", "lang"}},
		pockettwin.Item{ItemID: "2", URL: "https://rust-lang.org", Tags: []string{"lang"}},
		pockettwin.Item{ItemID: "3", URL: "https://example.com"},
	)

	requestToken, err := client.GetRequestToken(ctx, "https://example.com")
	require.NoError(t, err)

	authURL := client.GetAuthorizationURL(requestToken.Code, "https://example.com")
	assert.Contains(t, authURL, "/oauth/authorize?request_token="+requestToken.Code)

	require.True(t, twin.Approve(requestToken.Code))

	access, err := client.Authorize(ctx, requestToken.Code)
	require.NoError(t, err)

	summaries, err := client.GetTagSummary(ctx, access.AccessToken)
	require.NoError(t, err)
	assert.ElementsMatch(t, []TagSummary{
		{Tag: "go", ItemCount: 1},
		{Tag: "lang", ItemCount: 2},
	}, summaries)

	reqs := twin.Requests()
	last := reqs[len(reqs)-1]
	assert.Equal(t, "/v3/get", last.Path)
	assert.Equal(t, access.AccessToken, last.Form.Get("access_token"))
	assert.Equal(t, "all", last.Form.Get("state"))
	assert.Equal(t, "complete", last.Form.Get("detailType"))
}

func TestMaxResponseSize(t *testing.T) {
	client, twin := newTestClient(t, testConsumerKey)
	client = NewClient(testConsumerKey,
		WithBaseURL(client.baseURL),
		WithMaxResponseSize(64),
	)
	assert.Equal(t, int64(64), client.maxBodySize)

	t.Run("within limit", func(t *testing.T) {
		twin.SetResponse("/v3/oauth/request", http.StatusOK, `{"code":"abc"}`)

		result, err := client.GetRequestToken(context.Background(), "https://example.com")
		require.NoError(t, err)
		assert.Equal(t, "abc", result.Code)
	})

	t.Run("over limit", func(t *testing.T) {
		twin.SetResponse("/v3/oauth/request", http.StatusOK, `{"code":"`+strings.Repeat("x", 100)+`"}`)

		_, err := client.GetRequestToken(context.Background(), "https://example.com")
		require.Error(t, err)
		assert.Equal(t, KindDecode, Kind(err))
		assert.Contains(t, err.Error(), "response body exceeds 64 bytes")
	})

	t.Run("default limit", func(t *testing.T) {
		assert.Equal(t, int64(defaultMaxBodySize), NewClient(testConsumerKey).maxBodySize)
	})
}

func TestClientConcurrentUse(t *testing.T) {
	const (
		accessToken = "5678defg-5678-defg-5678-defg56"
		workers     = 16
	)

	client, twin := newTestClient(t, testConsumerKey)
	twin.GrantAccessToken(accessToken)
	twin.AddItems(
		pockettwin.Item{ItemID: "1", Tags: []string{"go", "lang"}},
		pockettwin.Item{ItemID: "2", Tags: []string{"lang"}},
	)

	ctx := context.Background()
	want := []TagSummary{
		{Tag: "go", ItemCount: 1},
		{Tag: "lang", ItemCount: 2},
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes = make(map[string]bool)
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			summaries, err := client.GetTagSummary(ctx, accessToken)
			if assert.NoError(t, err, "worker %d", i) {
				assert.ElementsMatch(t, want, summaries, "worker %d", i)
			}

			result, err := client.GetRequestToken(ctx, fmt.Sprintf("https://example.com/cb/%d", i))
			if assert.NoError(t, err, "worker %d", i) {
				mu.Lock()
				codes[result.Code] = true
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, codes, workers)
	assert.Len(t, twin.Requests(), 2*workers)
}
