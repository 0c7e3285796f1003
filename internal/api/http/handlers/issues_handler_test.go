package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/whybepb/campus-fixit/internal/auth"
	"github.com/whybepb/campus-fixit/internal/domain"
	"github.com/whybepb/campus-fixit/internal/observability"
	"github.com/whybepb/campus-fixit/internal/repository"
	"github.com/whybepb/campus-fixit/internal/service"
	apperrors "github.com/whybepb/campus-fixit/pkg/util"
)

type memUserRepo struct {
	users map[string]*domain.User
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) Update(_ context.Context, user *domain.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) List(_ context.Context, _ repository.UserFilter) ([]domain.User, error) {
	return nil, nil
}

func (r *memUserRepo) Count(_ context.Context, _ repository.UserFilter) (int64, error) {
	return 0, nil
}

func (r *memUserRepo) Delete(_ context.Context, id string) error {
	delete(r.users, id)
	return nil
}

func (r *memUserRepo) Stats(_ context.Context) (*repository.UserStats, error) {
	return &repository.UserStats{}, nil
}

type memIssueRepo struct {
	issues map[string]*domain.Issue
	nextID int
}

func (r *memIssueRepo) Create(_ context.Context, issue *domain.Issue) error {
	r.nextID++
	issue.ID = "issue-" + strconv.Itoa(r.nextID)
	issue.CreatedAt = time.Now()
	issue.UpdatedAt = issue.CreatedAt
	stored := *issue
	r.issues[issue.ID] = &stored
	return nil
}

func (r *memIssueRepo) Update(_ context.Context, issue *domain.Issue) error {
	if _, ok := r.issues[issue.ID]; !ok {
		return pgx.ErrNoRows
	}
	issue.UpdatedAt = time.Now()
	stored := *issue
	r.issues[issue.ID] = &stored
	return nil
}

func (r *memIssueRepo) GetByID(_ context.Context, id string) (*domain.Issue, error) {
	issue, ok := r.issues[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *issue
	return &copied, nil
}

func (r *memIssueRepo) Delete(_ context.Context, id string) error {
	delete(r.issues, id)
	return nil
}

func (r *memIssueRepo) List(_ context.Context, filter repository.IssueFilter) ([]domain.Issue, error) {
	var out []domain.Issue
	for _, issue := range r.issues {
		if filter.ReportedBy == nil || issue.ReportedBy == *filter.ReportedBy {
			out = append(out, *issue)
		}
	}
	return out, nil
}

func (r *memIssueRepo) Count(_ context.Context, filter repository.IssueFilter) (int64, error) {
	issues, _ := r.List(context.Background(), filter)
	return int64(len(issues)), nil
}

func (r *memIssueRepo) Stats(_ context.Context) (*repository.IssueStats, error) {
	return &repository.IssueStats{
		Total:      int64(len(r.issues)),
		ByStatus:   map[domain.IssueStatus]int64{},
		ByCategory: map[domain.IssueCategory]int64{},
		ByPriority: map[domain.IssuePriority]int64{},
	}, nil
}

type testEnv struct {
	app    *fiber.App
	tokens *auth.TokenManager
	users  *memUserRepo
	issues *memIssueRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := &memUserRepo{users: map[string]*domain.User{
		"student-1": {ID: "student-1", Email: "student@campus.edu", Name: "Student", Role: domain.RoleStudent},
		"student-2": {ID: "student-2", Email: "other@campus.edu", Name: "Other", Role: domain.RoleStudent},
		"admin-1":   {ID: "admin-1", Email: "admin@campus.edu", Name: "Admin", Role: domain.RoleAdmin},
	}}
	issues := &memIssueRepo{issues: map[string]*domain.Issue{}}

	issueService := service.NewIssueService(service.IssueDependencies{IssueRepo: issues})
	tokens := auth.NewTokenManager("test-secret", 60)
	middleware := auth.NewMiddleware(tokens, users)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) (err error) {
		defer func() {
			if err != nil {
				domainErr := apperrors.ToDomainError(err)
				c.Status(domainErr.HTTPStatus)
				err = c.JSON(fiber.Map{"error": fiber.Map{
					"code":    domainErr.Code,
					"message": domainErr.Message,
				}})
			}
		}()
		return c.Next()
	})
	app.Use(observability.RequestLogger(zap.NewNop(), nil))

	handler := NewIssuesHandler(issueService, nil)
	api := app.Group("/api")
	group := api.Group("/issues", middleware.Handle)
	group.Get("/stats", auth.RequireAdmin(), handler.Stats)
	group.Get("/my", handler.ListMine)
	group.Get("/", handler.List)
	group.Post("/", handler.Create)
	group.Get("/:id", handler.Get)
	group.Put("/:id", handler.Update)
	group.Delete("/:id", handler.Delete)

	return &testEnv{app: app, tokens: tokens, users: users, issues: issues}
}

func (e *testEnv) request(t *testing.T, method, path, userID string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if userID != "" {
		token, _, err := e.tokens.GenerateToken(userID, e.users.users[userID].Role)
		if err != nil {
			t.Fatalf("token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestCreateIssueEndpoint(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{}
	form.Set("title", "Broken light")
	form.Set("description", "The corridor light is flickering")
	form.Set("category", "electrical")
	form.Set("location", "Block A")

	resp := env.request(t, http.MethodPost, "/api/issues/", "student-1",
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var body struct {
		Issue struct {
			ID       string `json:"id"`
			Status   string `json:"status"`
			Priority string `json:"priority"`
		} `json:"issue"`
	}
	decodeBody(t, resp, &body)
	if body.Issue.Status != "open" || body.Issue.Priority != "medium" {
		t.Errorf("unexpected defaults: %+v", body.Issue)
	}
}

func TestUnauthenticatedRejected(t *testing.T) {
	env := newTestEnv(t)
	resp := env.request(t, http.MethodGet, "/api/issues/", "", nil, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

func TestInvalidTokenMessage(t *testing.T) {
	env := newTestEnv(t)

	badToken, _, err := auth.NewTokenManager("other-secret", 60).GenerateToken("student-1", domain.RoleStudent)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/issues/", nil)
	req.Header.Set("Authorization", "Bearer "+badToken)
	resp, err := env.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}

	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	decodeBody(t, resp, &body)
	if resp.StatusCode != http.StatusUnauthorized || body.Error.Message != "Invalid token" {
		t.Errorf("got %d %q", resp.StatusCode, body.Error.Message)
	}
}

func TestStatsRouteBeforeWildcard(t *testing.T) {
	env := newTestEnv(t)

	// The literal /stats segment must not be swallowed by /:id.
	resp := env.request(t, http.MethodGet, "/api/issues/stats", "admin-1", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("admin stats: expected 200, got %d", resp.StatusCode)
	}

	resp = env.request(t, http.MethodGet, "/api/issues/stats", "student-1", nil, "")
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("student stats: expected 403, got %d", resp.StatusCode)
	}
}

func TestUpdateAfterProcessingEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.issues.issues["issue-1"] = &domain.Issue{
		ID:         "issue-1",
		Title:      "Water leak",
		Status:     domain.IssueStatusInProgress,
		ReportedBy: "student-1",
	}

	resp := env.request(t, http.MethodPut, "/api/issues/issue-1", "student-1",
		strings.NewReader(`{"title":"Water leak, 3rd floor"}`), "application/json")

	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	decodeBody(t, resp, &body)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %d", resp.StatusCode)
	}
	if body.Error.Message != "Cannot update issue after it has been processed" {
		t.Errorf("got message %q", body.Error.Message)
	}
}

func TestListScopedToOwnIssues(t *testing.T) {
	env := newTestEnv(t)
	env.issues.issues["issue-1"] = &domain.Issue{ID: "issue-1", Status: domain.IssueStatusOpen, ReportedBy: "student-1"}
	env.issues.issues["issue-2"] = &domain.Issue{ID: "issue-2", Status: domain.IssueStatusOpen, ReportedBy: "student-2"}

	resp := env.request(t, http.MethodGet, "/api/issues/", "student-1", nil, "")
	var body struct {
		Issues []struct {
			ID string `json:"id"`
		} `json:"issues"`
	}
	decodeBody(t, resp, &body)
	if len(body.Issues) != 1 || body.Issues[0].ID != "issue-1" {
		t.Errorf("student list leaked: %+v", body.Issues)
	}

	resp = env.request(t, http.MethodGet, "/api/issues/", "admin-1", nil, "")
	decodeBody(t, resp, &body)
	if len(body.Issues) != 2 {
		t.Errorf("admin sees %d issues, want 2", len(body.Issues))
	}
}

func TestGetOtherStudentsIssueDenied(t *testing.T) {
	env := newTestEnv(t)
	env.issues.issues["issue-1"] = &domain.Issue{ID: "issue-1", Status: domain.IssueStatusOpen, ReportedBy: "student-2"}

	resp := env.request(t, http.MethodGet, "/api/issues/issue-1", "student-1", nil, "")
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %d", resp.StatusCode)
	}
}
