// Package client talks to a folio server on behalf of the CLI. It keeps the
// admin session in a SessionStore and composes interceptors on the HTTP
// transport to attach the bearer token and to drop the session when the
// server rejects it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/folioapp/folio/internal/model"
)

// DefaultTimeout bounds each API call.
const DefaultTimeout = 10 * time.Second

// APIError is a non-2xx response decoded from the server's error envelope.
type APIError struct {
	Status  int
	Message string
	Errors  map[string]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// Client is a typed API client.
type Client struct {
	baseURL        string
	sessions       SessionStore
	http           *http.Client
	transport      http.RoundTripper
	timeout        time.Duration
	interceptors   []Interceptor
	onUnauthorized UnauthorizedFunc
	logger         *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTransport sets the innermost RoundTripper. Defaults to
// http.DefaultTransport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.transport = rt }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithInterceptors adds interceptors outside the built-in ones.
func WithInterceptors(in ...Interceptor) Option {
	return func(c *Client) { c.interceptors = append(c.interceptors, in...) }
}

// WithOnUnauthorized sets the callback run after a 401 clears the session.
func WithOnUnauthorized(fn UnauthorizedFunc) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// WithLogger enables debug request logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a Client for the server at baseURL.
func New(baseURL string, sessions SessionStore, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		sessions:  sessions,
		transport: http.DefaultTransport,
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	interceptors := append([]Interceptor{}, c.interceptors...)
	if c.logger != nil {
		interceptors = append(interceptors, LogRequests(c.logger))
	}
	interceptors = append(interceptors,
		ClearOnUnauthorized(c.sessions, c.unauthorized),
		BearerToken(c.sessions),
	)

	c.http = &http.Client{
		Timeout:   c.timeout,
		Transport: chain(c.transport, interceptors...),
	}
	return c
}

// unauthorized logs a failed session clear before handing off to the
// caller's callback.
func (c *Client) unauthorized(resp *http.Response, clearErr error) {
	if clearErr != nil && c.logger != nil {
		c.logger.Warn("failed to clear session after 401", "error", clearErr)
	}
	if c.onUnauthorized != nil {
		c.onUnauthorized(resp, clearErr)
	}
}

// BaseURL returns the server address the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Session returns the stored session, or ErrNoSession.
func (c *Client) Session() (*Session, error) {
	return c.sessions.Load()
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		var envelope model.ErrorResponse
		if json.Unmarshal(data, &envelope) == nil {
			apiErr.Message = envelope.Message
			apiErr.Errors = envelope.Errors
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Admin session
// ---------------------------------------------------------------------------

// Login exchanges credentials for a token and stores the session.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var resp model.LoginResponse
	err := c.do(ctx, http.MethodPost, "/api/admin/login",
		map[string]string{"email": email, "password": password}, &resp)
	if err != nil {
		return nil, err
	}
	s := &Session{Token: resp.Token, Admin: resp.Admin, BaseURL: c.baseURL, SavedAt: time.Now().UTC()}
	if err := c.sessions.Save(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Logout forgets the local session. Tokens are stateless, so the server
// has nothing to revoke.
func (c *Client) Logout() error {
	return c.sessions.Clear()
}

// Profile returns the logged-in admin.
func (c *Client) Profile(ctx context.Context) (*model.Admin, error) {
	var resp model.ProfileResponse
	if err := c.do(ctx, http.MethodGet, "/api/admin/profile", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Admin, nil
}

// ---------------------------------------------------------------------------
// Projects
// ---------------------------------------------------------------------------

// ProjectFilter narrows ListProjects.
type ProjectFilter struct {
	Featured bool
	Category string
}

func (c *Client) ListProjects(ctx context.Context, f ProjectFilter) ([]model.Project, error) {
	q := url.Values{}
	if f.Featured {
		q.Set("featured", "true")
	}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	path := "/api/projects"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []model.Project
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetProject(ctx context.Context, idOrSlug string) (*model.Project, error) {
	var out model.Project
	if err := c.do(ctx, http.MethodGet, "/api/projects/"+url.PathEscape(idOrSlug), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateProject(ctx context.Context, p *model.Project) (*model.Project, error) {
	var out model.Project
	if err := c.do(ctx, http.MethodPost, "/api/projects", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProject sends only the given fields; the server keeps the rest.
func (c *Client) UpdateProject(ctx context.Context, id string, fields map[string]interface{}) (*model.Project, error) {
	var out model.Project
	if err := c.do(ctx, http.MethodPut, "/api/projects/"+url.PathEscape(id), fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/projects/"+url.PathEscape(id), nil, nil)
}

// ---------------------------------------------------------------------------
// Testimonials
// ---------------------------------------------------------------------------

func (c *Client) ListTestimonials(ctx context.Context) ([]model.Testimonial, error) {
	var out []model.Testimonial
	if err := c.do(ctx, http.MethodGet, "/api/testimonials", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateTestimonial(ctx context.Context, t *model.Testimonial) (*model.Testimonial, error) {
	var out model.Testimonial
	if err := c.do(ctx, http.MethodPost, "/api/testimonials", t, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateTestimonial(ctx context.Context, id string, fields map[string]interface{}) (*model.Testimonial, error) {
	var out model.Testimonial
	if err := c.do(ctx, http.MethodPut, "/api/testimonials/"+url.PathEscape(id), fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteTestimonial(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/testimonials/"+url.PathEscape(id), nil, nil)
}

// ---------------------------------------------------------------------------
// Contact
// ---------------------------------------------------------------------------

// SendContact submits the public contact form.
func (c *Client) SendContact(ctx context.Context, name, email, message string) (*model.ContactMessage, error) {
	var resp model.ContactCreatedResponse
	err := c.do(ctx, http.MethodPost, "/api/contact",
		map[string]string{"name": name, "email": email, "message": message}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.Contact, nil
}

// ListMessages returns the inbox, optionally filtered by status.
func (c *Client) ListMessages(ctx context.Context, status string) ([]model.ContactMessage, error) {
	path := "/api/contact/messages"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var out []model.ContactMessage
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateMessageStatus(ctx context.Context, id, status string) (*model.ContactMessage, error) {
	var out model.ContactMessage
	err := c.do(ctx, http.MethodPatch, "/api/contact/"+url.PathEscape(id),
		map[string]string{"status": status}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteMessage(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/contact/"+url.PathEscape(id), nil, nil)
}

// ---------------------------------------------------------------------------
// Chatbot and health
// ---------------------------------------------------------------------------

func (c *Client) Chat(ctx context.Context, message string) (*model.ChatReply, error) {
	var out model.ChatReply
	if err := c.do(ctx, http.MethodPost, "/api/chatbot", model.ChatRequest{Message: message}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health returns the server's health report. A degraded server answers
// 503, which is returned as an *APIError.
func (c *Client) Health(ctx context.Context) (*model.HealthResponse, error) {
	var out model.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
