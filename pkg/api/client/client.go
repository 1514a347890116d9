package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client provides typed access to the to-do API for the CLI and scripts.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// New constructs a Client pointing at the provided API base URL.
func New(base string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = "http://localhost:5000"
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	cli := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli, nil
}

// APIError represents an error response from the API.
type APIError struct {
	Status  int
	Message string
	Details []FieldError
}

// FieldError names one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	if len(e.Details) > 0 {
		parts := make([]string, 0, len(e.Details))
		for _, d := range e.Details {
			parts = append(parts, d.Message)
		}
		return fmt.Sprintf("api request failed (%d): %s: %s", e.Status, e.Message, strings.Join(parts, "; "))
	}
	return fmt.Sprintf("api request failed (%d): %s", e.Status, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body any, token string, v any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	endpoint := c.baseURL + path
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := extractError(resp.Body)
		apiErr.Status = resp.StatusCode
		return apiErr
	}

	if v == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func extractError(body io.Reader) APIError {
	if body == nil {
		return APIError{}
	}
	var payload struct {
		Error   string       `json:"error"`
		Details []FieldError `json:"details"`
	}
	data, err := io.ReadAll(body)
	if err != nil || len(data) == 0 {
		return APIError{}
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return APIError{Message: strings.TrimSpace(string(data))}
	}
	return APIError{Message: strings.TrimSpace(payload.Error), Details: payload.Details}
}

// User reflects API user payloads.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Task reflects API task payloads.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	User        string     `json:"user"`
	Team        *string    `json:"team"`
	DueDate     *time.Time `json:"dueDate"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Member is one user of a team.
type Member struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Team reflects API team payloads.
type Team struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Owner     string    `json:"owner"`
	Members   []Member  `json:"members"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Signup registers an account and returns its first token.
func (c *Client) Signup(ctx context.Context, name, email, password string) (*AuthResponse, error) {
	payload := map[string]string{"name": name, "email": email, "password": password}
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/signup", payload, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	payload := map[string]string{"email": email, "password": password}
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", payload, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Profile returns the authenticated user.
func (c *Client) Profile(ctx context.Context, token string) (*User, error) {
	var resp struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/user/profile", nil, token, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// ProfileUpdate carries the profile fields to change; nil fields are left alone.
type ProfileUpdate struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// UpdateProfile edits the authenticated user.
func (c *Client) UpdateProfile(ctx context.Context, token string, in ProfileUpdate) (*User, error) {
	var resp struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPut, "/user/profile", in, token, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// CreateTaskInput describes a new task. Empty strings are omitted.
type CreateTaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	Team        string `json:"team,omitempty"`
	DueDate     string `json:"dueDate,omitempty"`
}

// CreateTask stores a task owned by the caller.
func (c *Client) CreateTask(ctx context.Context, token string, in CreateTaskInput) (*Task, error) {
	var resp struct {
		Task Task `json:"task"`
	}
	if err := c.do(ctx, http.MethodPost, "/tasks", in, token, &resp); err != nil {
		return nil, err
	}
	return &resp.Task, nil
}

// TaskQuery narrows ListTasks. From and To only apply together.
type TaskQuery struct {
	Search string
	Status string
	From   string
	To     string
}

func (q TaskQuery) encode() string {
	values := url.Values{}
	if q.Search != "" {
		values.Set("search", q.Search)
	}
	if q.Status != "" {
		values.Set("status", q.Status)
	}
	if q.From != "" {
		values.Set("from", q.From)
	}
	if q.To != "" {
		values.Set("to", q.To)
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

// ListTasks returns the tasks visible to the caller, newest first.
func (c *Client) ListTasks(ctx context.Context, token string, q TaskQuery) ([]Task, error) {
	var resp struct {
		Count int    `json:"count"`
		Tasks []Task `json:"tasks"`
	}
	if err := c.do(ctx, http.MethodGet, "/tasks"+q.encode(), nil, token, &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

// TaskPatch lists the task fields to change. ClearDueDate sends an explicit null.
type TaskPatch struct {
	Title        *string
	Description  *string
	Status       *string
	DueDate      *string
	ClearDueDate bool
}

func (p TaskPatch) body() map[string]any {
	body := make(map[string]any)
	if p.Title != nil {
		body["title"] = *p.Title
	}
	if p.Description != nil {
		body["description"] = *p.Description
	}
	if p.Status != nil {
		body["status"] = *p.Status
	}
	switch {
	case p.ClearDueDate:
		body["dueDate"] = nil
	case p.DueDate != nil:
		body["dueDate"] = *p.DueDate
	}
	return body
}

// UpdateTask patches a task.
func (c *Client) UpdateTask(ctx context.Context, token, taskID string, p TaskPatch) (*Task, error) {
	var resp struct {
		Task Task `json:"task"`
	}
	if err := c.do(ctx, http.MethodPut, "/tasks/"+url.PathEscape(taskID), p.body(), token, &resp); err != nil {
		return nil, err
	}
	return &resp.Task, nil
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, token, taskID string) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(taskID), nil, token, nil)
}

// CreateTeam registers a team owned by the caller.
func (c *Client) CreateTeam(ctx context.Context, token, name string) (*Team, error) {
	var resp struct {
		Team Team `json:"team"`
	}
	if err := c.do(ctx, http.MethodPost, "/teams", map[string]string{"name": name}, token, &resp); err != nil {
		return nil, err
	}
	return &resp.Team, nil
}

// ListTeams returns the teams the caller belongs to.
func (c *Client) ListTeams(ctx context.Context, token string) ([]Team, error) {
	var resp struct {
		Teams []Team `json:"teams"`
	}
	if err := c.do(ctx, http.MethodGet, "/teams", nil, token, &resp); err != nil {
		return nil, err
	}
	return resp.Teams, nil
}

// AddMember adds the user registered under email to a team the caller owns.
func (c *Client) AddMember(ctx context.Context, token, teamID, email string) error {
	path := "/teams/" + url.PathEscape(teamID) + "/add-member"
	return c.do(ctx, http.MethodPost, path, map[string]string{"email": email}, token, nil)
}
