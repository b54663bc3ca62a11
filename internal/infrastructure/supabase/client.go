// Package supabase talks to a Supabase project: PostgREST for tables and stored procedures,
// GoTrue for password sessions.
package supabase

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
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/usampac/admin-web/internal/datastore"
)

var (
	// ErrMissingConfig is reported when the project URL or anon key is absent.
	ErrMissingConfig = errors.New("Missing Supabase environment variables")
	// ErrInvalidURL is reported when the project URL is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("Invalid Supabase URL")
)

const maxResponseBody = 4 << 20

// Config describes how to reach a Supabase project.
type Config struct {
	URL        string
	AnonKey    string
	JWTSecret  string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client is a thin REST client shared by Store and Auth.
type Client struct {
	baseURL    string
	restURL    string
	authURL    string
	anonKey    string
	httpClient *http.Client
}

// New validates cfg and builds a Client.
func New(cfg Config) (*Client, error) {
	rawURL := strings.TrimSpace(cfg.URL)
	key := strings.TrimSpace(cfg.AnonKey)
	if rawURL == "" || key == "" {
		return nil, ErrMissingConfig
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, ErrInvalidURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	base := strings.TrimRight(rawURL, "/")
	return &Client{
		baseURL:    base,
		restURL:    base + "/rest/v1",
		authURL:    base + "/auth/v1",
		anonKey:    key,
		httpClient: httpClient,
	}, nil
}

// Error is an error body returned by PostgREST or GoTrue.
type Error struct {
	Code       string
	Message    string
	Details    string
	Hint       string
	StatusCode int
}

func (e *Error) Error() string {
	return e.Message
}

type response struct {
	status int
	header http.Header
	body   []byte
}

// do performs one request. The bearer token is the user's access token when the context carries
// one, so row-level security evaluates as that user; otherwise the anon key is used.
func (c *Client) do(ctx context.Context, method, endpoint string, body any, header http.Header) (*response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	req.Header.Set("apikey", c.anonKey)
	if req.Header.Get("Authorization") == "" {
		bearer := c.anonKey
		if token, ok := datastore.AccessToken(ctx); ok {
			bearer = token
		}
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	req.Header.Set("X-Request-Id", requestID(ctx))

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if res.StatusCode >= 400 {
		return nil, parseError(data, res.StatusCode)
	}
	return &response{status: res.StatusCode, header: res.Header, body: data}, nil
}

func requestID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}

// parseError understands both PostgREST ({code,message,details,hint}) and GoTrue
// ({error,error_description} or {code,msg}) bodies.
func parseError(body []byte, status int) error {
	e := &Error{StatusCode: status}
	if gjson.ValidBytes(body) {
		parsed := gjson.ParseBytes(body)
		e.Code = firstNonEmpty(parsed.Get("code").String(), parsed.Get("error_code").String())
		e.Message = firstNonEmpty(
			parsed.Get("message").String(),
			parsed.Get("msg").String(),
			parsed.Get("error_description").String(),
			parsed.Get("error").String(),
		)
		e.Details = parsed.Get("details").String()
		e.Hint = parsed.Get("hint").String()
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(string(body))
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
