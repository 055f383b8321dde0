// Package api is a client for the LevelUp task service. Every request is
// scoped to the user through the external_id query parameter.
package api

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

	"github.com/sadopc/levelup/internal/focus"
)

var (
	ErrNotFound = errors.New("not found")
	ErrNoUser   = errors.New("no user id configured")
)

const DefaultTimeout = 10 * time.Second

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("task service: %d %s", e.Code, e.Detail)
	}
	return fmt.Sprintf("task service: %d %s", e.Code, http.StatusText(e.Code))
}

func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

type Client struct {
	base   *url.URL
	userID string
	http   *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func New(baseURL, userID string, opts ...Option) (*Client, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse base url: unsupported scheme %q", u.Scheme)
	}
	c := &Client{
		base:   u,
		userID: userID,
		http:   &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) UserID() string { return c.userID }

// ListTasks returns all of the user's tasks, newest first.
func (c *Client) ListTasks(ctx context.Context) ([]focus.Task, error) {
	var resp struct {
		Tasks []taskDTO `json:"tasks"`
		Count int       `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/tasks/list", nil, &resp); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	tasks := make([]focus.Task, len(resp.Tasks))
	for i, t := range resp.Tasks {
		tasks[i] = t.focus()
	}
	return tasks, nil
}

type NewTask struct {
	Title            string `json:"title"`
	EstimatedMinutes int    `json:"estimated_minutes"`
	Difficulty       int    `json:"difficulty"`
}

func (c *Client) CreateTask(ctx context.Context, t NewTask) (focus.Task, error) {
	var resp struct {
		Task taskDTO `json:"task"`
	}
	if err := c.do(ctx, http.MethodPost, "/tasks/create", t, &resp); err != nil {
		return focus.Task{}, fmt.Errorf("create task: %w", err)
	}
	return resp.Task.focus(), nil
}

// AddTask creates a task from its form fields.
func (c *Client) AddTask(ctx context.Context, title string, estimatedMinutes, difficulty int) (focus.Task, error) {
	return c.CreateTask(ctx, NewTask{Title: title, EstimatedMinutes: estimatedMinutes, Difficulty: difficulty})
}

// CompleteTask marks a task done.
func (c *Client) CompleteTask(ctx context.Context, taskID int64) error {
	body := struct {
		TaskID int64 `json:"task_id"`
	}{taskID}
	if err := c.do(ctx, http.MethodPost, "/tasks/complete", body, nil); err != nil {
		return fmt.Errorf("complete task %d: %w", taskID, err)
	}
	return nil
}

type Profile struct {
	UserID         string  `json:"user_id"`
	Name           string  `json:"name"`
	Energy         int     `json:"energy"`
	Level          int     `json:"level"`
	TotalTasks     int     `json:"total_tasks"`
	CompletedTasks int     `json:"completed_tasks"`
	CompletionRate float64 `json:"completion_rate"`
}

func (c *Client) Profile(ctx context.Context) (Profile, error) {
	var p Profile
	if err := c.do(ctx, http.MethodGet, "/user/profile", nil, &p); err != nil {
		return Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// Health pings the service.
func (c *Client) Health(ctx context.Context) error {
	if err := c.do(ctx, http.MethodGet, "/health", nil, nil); err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	return nil
}

func (c *Client) endpoint(path string) string {
	u := *c.base
	u.Path = c.base.Path + path
	q := u.Query()
	q.Set("external_id", c.userID)
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Detail string `json:"detail"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = json.Unmarshal(data, &e)
		return &StatusError{Code: resp.StatusCode, Detail: e.Detail}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
