// Package apiclient talks to the pedidos, productos, clientes and usuarios
// services on behalf of the terminal client. Every call takes an explicit
// *Session; tokens are refreshed once on 401 and the request replayed.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Endpoints holds the base URL of each backend service.
type Endpoints struct {
	Pedidos   string // e.g. http://localhost:8000/api/pedidos
	Productos string
	Clientes  string
	Usuarios  string // host only; the refresh path is appended
}

// EndpointsFromBase derives the service URLs from a single gateway URL.
func EndpointsFromBase(base string) Endpoints {
	base = strings.TrimRight(base, "/")
	return Endpoints{
		Pedidos:   base + "/api/pedidos",
		Productos: base + "/api/productos",
		Clientes:  base + "/api/clientes",
		Usuarios:  base,
	}
}

// User is the logged-in user as known to the client.
type User struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Role        string `json:"rol"`
	IsSuperuser bool   `json:"is_superuser"`
}

// Session carries the tokens of one logged-in user. It is safe for
// concurrent use; a refresh swaps the access token in place.
type Session struct {
	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	User         User
}

// NewSession creates a Session from a token pair.
func NewSession(access, refresh string, user User) *Session {
	return &Session{accessToken: access, refreshToken: refresh, User: user}
}

// AccessToken returns the current access token.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// Valid reports whether the session still holds a refresh token.
func (s *Session) Valid() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken != ""
}

// Clear forgets both tokens. Callers must log in again.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
	s.refreshToken = ""
}

func (s *Session) setAccess(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = token
}

func (s *Session) refresh() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// Client is an HTTP client for the backend services.
type Client struct {
	endpoints  Endpoints
	httpClient *http.Client

	// OnSessionExpired runs after a failed refresh cleared the session.
	OnSessionExpired func(*Session)
}

// New creates a Client.
func New(endpoints Endpoints) *Client {
	return &Client{
		endpoints:  endpoints,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// WithHTTPClient replaces the underlying http.Client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// Endpoints returns the configured service URLs.
func (c *Client) Endpoints() Endpoints { return c.endpoints }

// do sends one JSON request. body and out may be nil. On 401 the access
// token is refreshed once and the request replayed.
func (c *Client) do(ctx context.Context, sess *Session, method, rawURL string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("apiclient: marshal body: %w", err)
		}
	}

	resp, err := c.send(ctx, sess, method, rawURL, payload)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized && sess != nil {
		resp.Body.Close()
		if err := c.refreshSession(ctx, sess); err != nil {
			return err
		}
		resp, err = c.send(ctx, sess, method, rawURL, payload)
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return c.expire(sess, nil)
	}
	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if w, ok := out.(io.Writer); ok {
		if _, err := io.Copy(w, resp.Body); err != nil {
			return &NetworkError{Op: method + " " + rawURL, Err: err}
		}
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("apiclient: decode %s %s: %w", method, rawURL, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, sess *Session, method, rawURL string, payload []byte) (*http.Response, error) {
	var rdr io.Reader
	if payload != nil {
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, rdr)
	if err != nil {
		return nil, fmt.Errorf("apiclient: create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if sess != nil {
		if tok := sess.AccessToken(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: method + " " + rawURL, Err: err}
	}
	return resp, nil
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access string `json:"access"`
}

func (c *Client) refreshSession(ctx context.Context, sess *Session) error {
	rt := sess.refresh()
	if rt == "" {
		return c.expire(sess, nil)
	}
	payload, err := json.Marshal(refreshRequest{Refresh: rt})
	if err != nil {
		return fmt.Errorf("apiclient: marshal refresh: %w", err)
	}
	refreshURL := strings.TrimRight(c.endpoints.Usuarios, "/") + "/api/auth/token/refresh/"
	resp, err := c.send(ctx, nil, http.MethodPost, refreshURL, payload)
	if err != nil {
		var ne *NetworkError
		if errors.As(err, &ne) {
			// Transport failure: the refresh token may still be good.
			return err
		}
		return c.expire(sess, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.expire(sess, fmt.Errorf("refresh returned %d", resp.StatusCode))
	}
	var out refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.Access == "" {
		return c.expire(sess, fmt.Errorf("refresh response: %v", err))
	}
	sess.setAccess(out.Access)
	return nil
}

func (c *Client) expire(sess *Session, cause error) error {
	if sess != nil {
		sess.Clear()
		if c.OnSessionExpired != nil {
			c.OnSessionExpired(sess)
		}
	}
	if cause != nil {
		return fmt.Errorf("%w: %v", ErrSessionExpired, cause)
	}
	return ErrSessionExpired
}

func withQuery(base string, q url.Values) string {
	if len(q) == 0 {
		return base
	}
	return base + "?" + q.Encode()
}
