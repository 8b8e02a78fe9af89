package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/oauth2"
)

// DefaultXBaseURL is the X API root.
const DefaultXBaseURL = "https://api.x.com"

// maxResponseBody bounds how much of an error response is read.
const maxResponseBody = 64 << 10

// XConfig holds the X API v2 endpoint and OAuth 2.0 user-context credentials.
type XConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string

	// TokenFile, when set, is read at startup in preference to the tokens
	// above and rewritten whenever the access token is refreshed. X rotates
	// refresh tokens, so without it a refresh only lasts one process.
	TokenFile string

	// HTTPClient is the base client for API and token calls. Nil means
	// http.DefaultClient.
	HTTPClient *http.Client
}

// XClient posts through the X API v2.
type XClient struct {
	base   string
	client *http.Client
}

// NewXClient builds an authenticated client. Tokens are refreshed through
// the X token endpoint when a client id and refresh token are available.
func NewXClient(ctx context.Context, cfg XConfig, logger *slog.Logger) (*XClient, error) {
	if logger == nil {
		logger = slog.Default()
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultXBaseURL
	}

	tok, err := initialToken(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, cfg.HTTPClient)
	}

	var src oauth2.TokenSource
	if cfg.ClientID != "" && tok.RefreshToken != "" {
		oc := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  base + "/2/oauth2/token",
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		}
		src = oc.TokenSource(ctx, tok)
	} else {
		src = oauth2.StaticTokenSource(tok)
	}

	if cfg.TokenFile != "" {
		src = &savingSource{src: src, path: cfg.TokenFile, last: tok.AccessToken, logger: logger}
	}

	return &XClient{base: base, client: oauth2.NewClient(ctx, src)}, nil
}

func initialToken(cfg XConfig) (*oauth2.Token, error) {
	if cfg.TokenFile != "" {
		raw, err := os.ReadFile(cfg.TokenFile)
		switch {
		case err == nil:
			var tok oauth2.Token
			if err := json.Unmarshal(raw, &tok); err != nil {
				return nil, fmt.Errorf("parse token file %s: %w", cfg.TokenFile, err)
			}
			if tok.AccessToken != "" {
				return &tok, nil
			}
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("read token file: %w", err)
		}
	}

	if cfg.AccessToken == "" {
		return nil, errors.New("missing X access token (set POSTBOT_X_ACCESS_TOKEN or publisher.token_file)")
	}
	return &oauth2.Token{
		AccessToken:  cfg.AccessToken,
		RefreshToken: cfg.RefreshToken,
		TokenType:    "Bearer",
	}, nil
}

// Publish creates a post with text.
func (c *XClient) Publish(ctx context.Context, text string) (Receipt, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return Receipt{}, fmt.Errorf("encode post: %w", err)
	}

	var out struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/2/tweets", bytes.NewReader(body), &out); err != nil {
		return Receipt{}, err
	}
	if out.Data.ID == "" {
		return Receipt{}, errors.New("post created without an id")
	}
	return Receipt{ID: out.Data.ID}, nil
}

// FollowerCount returns the authenticated account's follower count.
func (c *XClient) FollowerCount(ctx context.Context) (int, error) {
	var out struct {
		Data struct {
			PublicMetrics *struct {
				FollowersCount int `json:"followers_count"`
			} `json:"public_metrics"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/2/users/me?user.fields=public_metrics", nil, &out); err != nil {
		return 0, err
	}
	if out.Data.PublicMetrics == nil {
		return 0, errors.New("public metrics unavailable")
	}
	return out.Data.PublicMetrics.FollowersCount, nil
}

func (c *XClient) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%s %s: %w", method, path, ErrRateLimited)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
		return &RejectedError{Status: resp.StatusCode, Detail: problemDetail(raw)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// problemDetail extracts the human-readable part of an API error body.
func problemDetail(raw []byte) string {
	var p struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	if json.Unmarshal(raw, &p) == nil {
		switch {
		case p.Detail != "":
			return p.Detail
		case p.Title != "":
			return p.Title
		}
	}
	return strings.TrimSpace(string(raw))
}

// savingSource persists the token whenever the access token changes.
type savingSource struct {
	mu     sync.Mutex
	src    oauth2.TokenSource
	path   string
	last   string
	logger *slog.Logger
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		if err := saveToken(s.path, tok); err != nil {
			// The refreshed token still works for this process.
			s.logger.Error("saving refreshed token", "path", s.path, "error", err)
		} else {
			s.last = tok.AccessToken
		}
	}
	return tok, nil
}

// saveToken writes tok to path via a temp file and rename.
func saveToken(path string, tok *oauth2.Token) error {
	raw, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".token-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
