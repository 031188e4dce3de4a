// Package client implements the chat backend HTTP client.
//
// The client handles all communication with the chat REST backend:
// - GET  /chat/rooms                   - Conversations for the current user
// - GET  /chat/rooms/{id}/messages     - Message history for a conversation
// - POST /chat/rooms/{id}/read         - Mark a conversation read
// - POST /chat/messages                - Send a message
// - GET  /chat/users/search            - User search for new chats
// - POST /chat/rooms/direct            - Create or reuse a direct conversation
// - GET  /api/health                   - Instance health (see package health)
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 10 * time.Second

// maxResponseSize limits response body reads to prevent memory exhaustion.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// RequestIDHeader carries a per-request identifier for server-side log correlation.
const RequestIDHeader = "X-Request-ID"

// ErrDecode is wrapped by errors returned when a response body is not valid JSON.
var ErrDecode = errors.New("invalid JSON response")

var validate = validator.New()

// Client is the chat backend HTTP client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string // Bearer token
}

// New creates a new client without authentication.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// NewWithToken creates a new client that sends Authorization: Bearer <token>.
func NewWithToken(baseURL, token string) *Client {
	c := New(baseURL)
	c.token = token
	return c
}

// WithTimeout returns a copy of the client using the given HTTP timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout <= 0 {
		return c
	}
	clone := *c
	clone.httpClient = &http.Client{Timeout: timeout, Transport: c.httpClient.Transport}
	return &clone
}

// BaseURL returns the server URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// UserSummary is the read-only projection of a user used in member lists and search results.
type UserSummary struct {
	ID         string  `json:"id"`
	FirstName  string  `json:"firstName"`
	LastName   string  `json:"lastName"`
	Avatar     *string `json:"avatar,omitempty"`
	Department *string `json:"department,omitempty"`
	Role       *string `json:"role,omitempty"`
	Status     string  `json:"status,omitempty"` // presence: online, away, offline...
}

// Member is a room membership entry.
type Member struct {
	User UserSummary `json:"user"`
}

// Message is a chat message. The owning room is implied by the fetch context.
type Message struct {
	ID        string      `json:"id"`
	Content   string      `json:"content"`
	SenderID  string      `json:"senderId"`
	Sender    UserSummary `json:"sender"`
	CreatedAt string      `json:"createdAt"`
}

// Room is a conversation, either a group or a two-member direct chat.
type Room struct {
	ID          string   `json:"id"`
	Name        *string  `json:"name,omitempty"`
	IsGroup     bool     `json:"isGroup"`
	Members     []Member `json:"members"`
	LastMessage *Message `json:"lastMessage,omitempty"` // Denormalized for list rendering
}

// ListRooms returns the caller's conversations in backend order.
func (c *Client) ListRooms(ctx context.Context) ([]Room, error) {
	var resp []Room
	if err := c.get(ctx, "/chat/rooms", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// ListMessages returns the messages of a room in backend order.
func (c *Client) ListMessages(ctx context.Context, roomID string) ([]Message, error) {
	var resp []Message
	path := fmt.Sprintf("/chat/rooms/%s/messages", url.PathEscape(roomID))
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// MarkRead marks a room read for the caller. The response body is ignored.
func (c *Client) MarkRead(ctx context.Context, roomID string) error {
	path := fmt.Sprintf("/chat/rooms/%s/read", url.PathEscape(roomID))
	return c.post(ctx, path, nil, nil)
}

// SendMessageRequest is the request body for POST /chat/messages.
type SendMessageRequest struct {
	Content string `json:"content" validate:"required"`
	RoomID  string `json:"roomId" validate:"required"`
}

// SendMessage posts a message and returns the server's stored copy.
func (c *Client) SendMessage(ctx context.Context, req *SendMessageRequest) (*Message, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	var resp Message
	if err := c.post(ctx, "/chat/messages", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchUsersRequest is the request parameters for GET /chat/users/search.
type SearchUsersRequest struct {
	Query string
}

// SearchUsers looks up users matching a free-text query.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]UserSummary, error) {
	var resp []UserSummary
	if err := c.get(ctx, "/chat/users/search", &SearchUsersRequest{Query: query}, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// StartDirectRequest is the request body for POST /chat/rooms/direct.
type StartDirectRequest struct {
	UserID string `json:"userId" validate:"required"`
}

// StartDirect creates a direct room with the user, or returns the existing one.
func (c *Client) StartDirect(ctx context.Context, userID string) (*Room, error) {
	req := &StartDirectRequest{UserID: userID}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	var resp Room
	if err := c.post(ctx, "/chat/rooms/direct", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HealthConnections is the connections block of a health report.
type HealthConnections struct {
	Websockets *int `json:"websockets" validate:"required"`
}

// HealthServices is the services block of a health report.
type HealthServices struct {
	Database string `json:"database" validate:"required"`
	Redis    string `json:"redis" validate:"required"`
}

// HealthReport is the response from GET /api/health.
type HealthReport struct {
	Instance    string            `json:"instance" validate:"required"`
	Connections HealthConnections `json:"connections"`
	Services    HealthServices    `json:"services"`
}

// Health fetches the instance health report. Missing fields are reported as
// validator.ValidationErrors.
func (c *Client) Health(ctx context.Context) (*HealthReport, error) {
	var resp HealthReport
	if err := c.get(ctx, "/api/health", nil, &resp); err != nil {
		return nil, err
	}
	if err := validate.Struct(&resp); err != nil {
		return &resp, err
	}
	return &resp, nil
}

// Error represents a non-2xx response from the chat backend.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("chat backend error (status %d): %s", e.StatusCode, e.Body)
}

// post sends a POST request and decodes the JSON response.
// A nil reqBody sends no body; a nil respBody ignores the response.
func (c *Client) post(ctx context.Context, path string, reqBody, respBody any) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, respBody)
}

// get sends a GET request with query parameters and decodes the JSON response.
func (c *Client) get(ctx context.Context, path string, params any, respBody any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	if params != nil {
		q := req.URL.Query()
		switch p := params.(type) {
		case *SearchUsersRequest:
			q.Set("q", p.Query)
		}
		req.URL.RawQuery = q.Encode()
	}

	return c.do(req, respBody)
}

func (c *Client) do(req *http.Request, respBody any) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Read maxResponseSize+1 to detect oversized responses while still accepting
	// responses exactly at the limit.
	respBodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if int64(len(respBodyBytes)) > maxResponseSize {
		return fmt.Errorf("response exceeds maximum size of %d bytes", maxResponseSize)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{
			StatusCode: resp.StatusCode,
			Body:       string(respBodyBytes),
		}
	}

	if respBody == nil {
		return nil
	}
	if err := json.Unmarshal(respBodyBytes, respBody); err != nil {
		return fmt.Errorf("decoding response: %w: %v", ErrDecode, err)
	}

	return nil
}
