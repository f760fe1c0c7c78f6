package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultPostmarkURL is Postmark's single-message endpoint.
const DefaultPostmarkURL = "https://api.postmarkapp.com/email"

// Message is one outgoing email.
type Message struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
	ReplyTo  string
}

// PostmarkClient sends email through Postmark's HTTP API.
type PostmarkClient struct {
	serverToken string
	fromEmail   string
	apiURL      string
	httpClient  *http.Client
}

type PostmarkOption func(*PostmarkClient)

func WithHTTPClient(c *http.Client) PostmarkOption {
	return func(cl *PostmarkClient) {
		cl.httpClient = c
	}
}

// WithAPIURL points the client at a different endpoint.
func WithAPIURL(url string) PostmarkOption {
	return func(cl *PostmarkClient) {
		cl.apiURL = url
	}
}

func NewPostmarkClient(serverToken, fromEmail string, opts ...PostmarkOption) *PostmarkClient {
	c := &PostmarkClient{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		apiURL:      DefaultPostmarkURL,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *PostmarkClient) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	ReplyTo  string `json:"ReplyTo,omitempty"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody,omitempty"`
	TextBody string `json:"TextBody"`
}

// Send delivers msg. Any status of 400 or above is an error.
func (c *PostmarkClient) Send(ctx context.Context, msg Message) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token")
	}

	body, err := json.Marshal(postmarkEmail{
		From:     c.fromEmail,
		To:       msg.To,
		ReplyTo:  msg.ReplyTo,
		Subject:  msg.Subject,
		HtmlBody: msg.HTMLBody,
		TextBody: msg.TextBody,
	})
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("postmark API error: status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}
	return nil
}
