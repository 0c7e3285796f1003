package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	defaultRetries = 3
	maxBackoff     = 5 * time.Second

	// How long after a forced logout further expiry signals are ignored,
	// so overlapping requests cannot re-trigger the redirect.
	expiryDebounce = 2 * time.Second
)

// APIError is a non-2xx response decoded from the server's error envelope.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// CredentialStore persists the session token and user between runs.
type CredentialStore interface {
	Token() string
	Save(token string, user *User) error
	Clear() error
}

// Doer abstracts the HTTP transport for testing.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the issue-reporting API. Transient failures are
// retried with exponential backoff; a 401 carrying an expired or invalid
// token clears stored credentials and fires OnSessionExpired exactly
// once even under concurrent requests.
type Client struct {
	baseURL string
	http    Doer
	creds   CredentialStore
	retries int

	expiryGroup      singleflight.Group
	expiryMu         sync.Mutex
	lastExpiry       time.Time
	onSessionExpired func()

	sleep func(time.Duration)
	now   func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the transport.
func WithHTTPClient(doer Doer) Option {
	return func(c *Client) { c.http = doer }
}

// WithRetries sets the attempt ceiling per request.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.retries = n
		}
	}
}

// WithSessionExpiredHandler registers the forced-logout callback.
func WithSessionExpiredHandler(fn func()) Option {
	return func(c *Client) { c.onSessionExpired = fn }
}

// New constructs a Client. baseURL should include the /api prefix.
func New(baseURL string, creds CredentialStore, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		creds:   creds,
		retries: defaultRetries,
		sleep:   time.Sleep,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Signup registers a new student account and stores the session.
func (c *Client) Signup(ctx context.Context, email, password, name string) (*Session, error) {
	var session Session
	payload := map[string]string{"email": email, "password": password, "name": name}
	if err := c.do(ctx, http.MethodPost, "/auth/signup", payload, &session); err != nil {
		return nil, err
	}
	if err := c.creds.Save(session.Token, &session.User); err != nil {
		return nil, err
	}
	return &session, nil
}

// Login authenticates and stores the session.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	payload := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", payload, &session); err != nil {
		return nil, err
	}
	if err := c.creds.Save(session.Token, &session.User); err != nil {
		return nil, err
	}
	return &session, nil
}

// Me fetches the authenticated account.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Logout ends the session server-side and clears stored credentials.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	if clearErr := c.creds.Clear(); clearErr != nil && err == nil {
		err = clearErr
	}
	return err
}

// ListIssues fetches the issue listing visible to the caller.
func (c *Client) ListIssues(ctx context.Context, filters IssueFilters) (*IssueList, error) {
	var out IssueList
	if err := c.do(ctx, http.MethodGet, "/issues"+filters.query(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMyIssues fetches the caller's own issues.
func (c *Client) ListMyIssues(ctx context.Context, filters IssueFilters) (*IssueList, error) {
	var out IssueList
	if err := c.do(ctx, http.MethodGet, "/issues/my"+filters.query(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetIssue fetches a single issue by id.
func (c *Client) GetIssue(ctx context.Context, id string) (*Issue, error) {
	var out struct {
		Issue Issue `json:"issue"`
	}
	if err := c.do(ctx, http.MethodGet, "/issues/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out.Issue, nil
}

// CreateIssue submits a new issue as a multipart form, attaching any
// local image files.
func (c *Client) CreateIssue(ctx context.Context, input CreateIssueInput) (*Issue, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	fields := map[string]string{
		"title":       input.Title,
		"description": input.Description,
		"category":    input.Category,
		"location":    input.Location,
		"priority":    input.Priority,
	}
	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := writer.WriteField(name, value); err != nil {
			return nil, err
		}
	}
	for _, path := range input.Images {
		if err := attachFile(writer, path); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	var out struct {
		Issue Issue `json:"issue"`
	}
	err := c.doRaw(ctx, http.MethodPost, "/issues", body.Bytes(), writer.FormDataContentType(), &out)
	if err != nil {
		return nil, err
	}
	return &out.Issue, nil
}

// UpdateIssue applies a partial update. Fields left nil are not sent, so
// the server cannot mistake absence for a request to clear a value.
func (c *Client) UpdateIssue(ctx context.Context, id string, input UpdateIssueInput) (*Issue, error) {
	payload := map[string]any{}
	setIf(payload, "title", input.Title)
	setIf(payload, "description", input.Description)
	setIf(payload, "category", input.Category)
	setIf(payload, "location", input.Location)
	setIf(payload, "priority", input.Priority)
	setIf(payload, "status", input.Status)
	setIf(payload, "adminRemarks", input.AdminRemarks)
	if input.ClearAssignee {
		payload["assignedTo"] = nil
	} else if input.AssignedTo != nil {
		payload["assignedTo"] = *input.AssignedTo
	}

	var out struct {
		Issue Issue `json:"issue"`
	}
	if err := c.do(ctx, http.MethodPut, "/issues/"+url.PathEscape(id), payload, &out); err != nil {
		return nil, err
	}
	return &out.Issue, nil
}

// DeleteIssue removes an issue.
func (c *Client) DeleteIssue(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/issues/"+url.PathEscape(id), nil, nil)
}

// IssueStats fetches the admin dashboard aggregate.
func (c *Client) IssueStats(ctx context.Context) (*IssueStats, error) {
	var out IssueStats
	if err := c.do(ctx, http.MethodGet, "/issues/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body []byte
	contentType := ""
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = encoded
		contentType = "application/json"
	}
	return c.doRaw(ctx, method, path, body, contentType, out)
}

func (c *Client) doRaw(ctx context.Context, method, path string, body []byte, contentType string, out any) error {
	var lastErr error

	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 {
			c.sleep(backoff(attempt - 1))
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return err
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		if token := c.creds.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			// Network failures are transient.
			lastErr = err
			continue
		}

		apiErr := decodeResponse(resp, out)
		if apiErr == nil {
			return nil
		}
		lastErr = apiErr

		if apiErr.StatusCode == http.StatusUnauthorized && sessionExpired(apiErr.Message) {
			c.handleSessionExpiry()
			return apiErr
		}
		if !transient(apiErr.StatusCode) {
			return apiErr
		}
	}
	return lastErr
}

// handleSessionExpiry clears credentials and notifies once. Concurrent
// requests observing the same expired session share a single flight, and
// stragglers arriving just after it completes are debounced.
func (c *Client) handleSessionExpiry() {
	c.expiryGroup.Do("session-expired", func() (any, error) {
		c.expiryMu.Lock()
		recent := !c.lastExpiry.IsZero() && c.now().Sub(c.lastExpiry) < expiryDebounce
		if !recent {
			c.lastExpiry = c.now()
		}
		c.expiryMu.Unlock()
		if recent {
			return nil, nil
		}

		_ = c.creds.Clear()
		if c.onSessionExpired != nil {
			c.onSessionExpired()
		}
		return nil, nil
	})
}

func decodeResponse(resp *http.Response, out any) *APIError {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(data) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return &APIError{StatusCode: resp.StatusCode, Message: err.Error()}
		}
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
		if apiErr.Message == "" {
			apiErr.Message = envelope.Message
		}
	}
	return apiErr
}

func sessionExpired(message string) bool {
	return message == "Token expired" || message == "Invalid token"
}

func transient(status int) bool {
	if status >= 500 {
		return true
	}
	return status == http.StatusRequestTimeout || status == http.StatusTooManyRequests
}

func backoff(attempt int) time.Duration {
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func attachFile(writer *multipart.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	part, err := writer.CreateFormFile("images", filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, file)
	return err
}

func setIf(payload map[string]any, key string, value *string) {
	if value != nil {
		payload[key] = *value
	}
}

func (f IssueFilters) query() string {
	params := url.Values{}
	if f.Status != "" {
		params.Set("status", f.Status)
	}
	if f.Category != "" {
		params.Set("category", f.Category)
	}
	if f.Priority != "" {
		params.Set("priority", f.Priority)
	}
	if f.Search != "" {
		params.Set("search", f.Search)
	}
	if f.Page > 0 {
		params.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		params.Set("limit", strconv.Itoa(f.Limit))
	}
	if encoded := params.Encode(); encoded != "" {
		return "?" + encoded
	}
	return ""
}
