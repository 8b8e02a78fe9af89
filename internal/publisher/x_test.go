package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, cfg XConfig) *XClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg.BaseURL = srv.URL
	if cfg.AccessToken == "" && cfg.TokenFile == "" {
		cfg.AccessToken = "access-1"
	}
	c, err := NewXClient(context.Background(), cfg, nil)
	require.NoError(t, err)
	return c
}

func TestXClient_Publish(t *testing.T) {
	var gotAuth, gotText string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/2/tweets", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotText = body["text"]
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"id":"1789","text":"ignored"}}`))
	}, XConfig{})

	receipt, err := c.Publish(context.Background(), "Hello\n\nworld")
	require.NoError(t, err)
	assert.Equal(t, "1789", receipt.ID)
	assert.Equal(t, "Bearer access-1", gotAuth)
	assert.Equal(t, "Hello\n\nworld", gotText)
}

func TestXClient_RateLimited(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}, XConfig{})

	_, err := c.Publish(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRateLimited))
}

func TestXClient_Rejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"title":"Forbidden","detail":"duplicate content"}`))
	}, XConfig{})

	_, err := c.Publish(context.Background(), "x")
	var rejected *RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, http.StatusForbidden, rejected.Status)
	assert.Equal(t, "duplicate content", rejected.Detail)
	assert.Contains(t, err.Error(), "403")
}

func TestXClient_MissingID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{}}`))
	}, XConfig{})

	_, err := c.Publish(context.Background(), "x")
	assert.Error(t, err)
}

func TestXClient_Timeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}, XConfig{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Publish(ctx, "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestXClient_FollowerCount(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/users/me", r.URL.Path)
		assert.Equal(t, "public_metrics", r.URL.Query().Get("user.fields"))
		w.Write([]byte(`{"data":{"id":"1","public_metrics":{"followers_count":321}}}`))
	}, XConfig{})

	n, err := c.FollowerCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 321, n)
}

func TestXClient_FollowerCountUnavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"id":"1"}}`))
	}, XConfig{})

	_, err := c.FollowerCount(context.Background())
	assert.Error(t, err)
}

func TestXClient_RefreshSavesToken(t *testing.T) {
	tokenFile := filepath.Join(t.TempDir(), "token.json")
	expired := &oauth2.Token{
		AccessToken:  "stale",
		RefreshToken: "refresh-1",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(-time.Hour),
	}
	raw, err := json.Marshal(expired)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(tokenFile, raw, 0o600))

	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/2/oauth2/token":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
			assert.Equal(t, "refresh-1", r.PostForm.Get("refresh_token"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"fresh","token_type":"bearer","refresh_token":"refresh-2","expires_in":7200}`))
		case "/2/tweets":
			gotAuth = r.Header.Get("Authorization")
			w.Write([]byte(`{"data":{"id":"9"}}`))
		default:
			http.NotFound(w, r)
		}
	}, XConfig{ClientID: "client", ClientSecret: "secret", TokenFile: tokenFile})

	_, err = c.Publish(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "Bearer fresh", gotAuth)

	saved, err := os.ReadFile(tokenFile)
	require.NoError(t, err)
	var tok oauth2.Token
	require.NoError(t, json.Unmarshal(saved, &tok))
	assert.Equal(t, "fresh", tok.AccessToken)
	assert.Equal(t, "refresh-2", tok.RefreshToken)
}

func TestNewXClient_MissingCredentials(t *testing.T) {
	_, err := NewXClient(context.Background(), XConfig{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access token")
}

func TestStdout_Publish(t *testing.T) {
	var buf bytes.Buffer
	receipt, err := NewStdout(&buf).Publish(context.Background(), "Hello\n\nworld")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(receipt.ID, "dry-run-"))
	assert.Contains(t, buf.String(), "Hello\n\nworld")
}

func TestStdout_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewStdout(&bytes.Buffer{}).Publish(ctx, "x")
	assert.Error(t, err)
}
