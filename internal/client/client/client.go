package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/dmitrijs2005/authgate/internal/client/models"
	"github.com/dmitrijs2005/authgate/internal/common"
)

type Client interface {
	SignUpEmail(ctx context.Context, email, password, fullName string) (*models.User, error)
	SignUpGoogle(ctx context.Context, idToken string) (*models.User, error)
	SignInEmail(ctx context.Context, email, password string) (*models.Session, error)
	SignInGoogle(ctx context.Context, idToken string) (*models.Session, error)
	SignOut(ctx context.Context) error
	Me(ctx context.Context) (*models.User, error)
	ListUsers(ctx context.Context, page, size int) (*models.ProfilePage, error)
	AvatarUploadURL(ctx context.Context, contentType string) (*models.AvatarUpload, error)
	AvatarURL(ctx context.Context) (string, error)
	Ping(ctx context.Context) error
	LoggedIn() bool
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func NewHTTPClient(baseURL string, hc *http.Client) *HTTPClient {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

func (c *HTTPClient) LoggedIn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken != ""
}

func (c *HTTPClient) tokens() (string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.refreshToken
}

func (c *HTTPClient) setSession(s *models.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s == nil {
		c.accessToken, c.refreshToken = "", ""
		return
	}
	c.accessToken, c.refreshToken = s.AccessToken, s.RefreshToken
}

func (c *HTTPClient) SignUpEmail(ctx context.Context, email, password, fullName string) (*models.User, error) {
	var u models.User
	body := map[string]string{"email": email, "password": password, "fullName": fullName}
	if err := c.send(ctx, http.MethodPost, "/api/v1/auth/sign-up-email", body, &u, false); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) SignUpGoogle(ctx context.Context, idToken string) (*models.User, error) {
	var u models.User
	if err := c.send(ctx, http.MethodPost, "/api/v1/auth/sign-up-google", map[string]string{"token": idToken}, &u, false); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) SignInEmail(ctx context.Context, email, password string) (*models.Session, error) {
	return c.signIn(ctx, "/api/v1/auth/sign-in-email", map[string]string{"email": email, "password": password})
}

func (c *HTTPClient) SignInGoogle(ctx context.Context, idToken string) (*models.Session, error) {
	return c.signIn(ctx, "/api/v1/auth/sign-in-google", map[string]string{"token": idToken})
}

func (c *HTTPClient) signIn(ctx context.Context, path string, body any) (*models.Session, error) {
	var s models.Session
	if err := c.send(ctx, http.MethodPost, path, body, &s, false); err != nil {
		return nil, err
	}
	c.setSession(&s)
	return &s, nil
}

// SignOut revokes the refresh token on the server and forgets the session
// locally even if the server call fails.
func (c *HTTPClient) SignOut(ctx context.Context) error {
	_, refresh := c.tokens()
	defer c.setSession(nil)
	if refresh == "" {
		return nil
	}
	return c.send(ctx, http.MethodPost, "/api/v1/auth/sign-out", map[string]string{"refreshToken": refresh}, nil, false)
}

func (c *HTTPClient) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodGet, "/api/v1/users/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) ListUsers(ctx context.Context, page, size int) (*models.ProfilePage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))

	var p models.ProfilePage
	if err := c.do(ctx, http.MethodGet, "/api/v1/users?"+q.Encode(), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) AvatarUploadURL(ctx context.Context, contentType string) (*models.AvatarUpload, error) {
	var up models.AvatarUpload
	if err := c.do(ctx, http.MethodPost, "/api/v1/users/me/avatar", map[string]string{"contentType": contentType}, &up); err != nil {
		return nil, err
	}
	return &up, nil
}

func (c *HTTPClient) AvatarURL(ctx context.Context) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/users/me/avatar", nil, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.send(ctx, http.MethodGet, "/healthz", nil, nil, false)
}

// do performs an authenticated call, refreshing the session once on 401.
func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	if !c.LoggedIn() {
		return ErrNotLoggedIn
	}

	err := c.send(ctx, method, path, in, out, true)
	if !errors.Is(err, ErrUnauthorized) {
		return err
	}

	if rerr := c.refresh(ctx); rerr != nil {
		return err
	}
	return c.send(ctx, method, path, in, out, true)
}

func (c *HTTPClient) refresh(ctx context.Context) error {
	_, refresh := c.tokens()
	if refresh == "" {
		return ErrUnauthorized
	}

	var s models.Session
	if err := c.send(ctx, http.MethodPost, "/api/v1/auth/refresh-token", map[string]string{"refreshToken": refresh}, &s, false); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			c.setSession(nil)
		}
		return err
	}
	c.setSession(&s)
	return nil
}

func (c *HTTPClient) send(ctx context.Context, method, path string, in, out any, auth bool) error {
	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		access, _ := c.tokens()
		req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+access)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return &APIError{Status: resp.StatusCode, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}
