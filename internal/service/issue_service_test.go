package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/whybepb/campus-fixit/internal/domain"
	"github.com/whybepb/campus-fixit/internal/repository"
	apperrors "github.com/whybepb/campus-fixit/pkg/util"
)

type fakeIssueRepo struct {
	issues map[string]*domain.Issue
	nextID int
}

func newFakeIssueRepo() *fakeIssueRepo {
	return &fakeIssueRepo{issues: map[string]*domain.Issue{}}
}

func (r *fakeIssueRepo) Create(_ context.Context, issue *domain.Issue) error {
	r.nextID++
	issue.ID = "issue-" + strconv.Itoa(r.nextID)
	issue.CreatedAt = time.Now()
	issue.UpdatedAt = issue.CreatedAt
	stored := *issue
	r.issues[issue.ID] = &stored
	return nil
}

func (r *fakeIssueRepo) Update(_ context.Context, issue *domain.Issue) error {
	if _, ok := r.issues[issue.ID]; !ok {
		return pgx.ErrNoRows
	}
	issue.UpdatedAt = time.Now()
	stored := *issue
	r.issues[issue.ID] = &stored
	return nil
}

func (r *fakeIssueRepo) GetByID(_ context.Context, id string) (*domain.Issue, error) {
	issue, ok := r.issues[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *issue
	return &copied, nil
}

func (r *fakeIssueRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.issues[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.issues, id)
	return nil
}

func (r *fakeIssueRepo) List(_ context.Context, filter repository.IssueFilter) ([]domain.Issue, error) {
	var out []domain.Issue
	for _, issue := range r.issues {
		if matches(issue, filter) {
			out = append(out, *issue)
		}
	}
	return out, nil
}

func (r *fakeIssueRepo) Count(_ context.Context, filter repository.IssueFilter) (int64, error) {
	var total int64
	for _, issue := range r.issues {
		if matches(issue, filter) {
			total++
		}
	}
	return total, nil
}

func (r *fakeIssueRepo) Stats(_ context.Context) (*repository.IssueStats, error) {
	stats := &repository.IssueStats{
		ByStatus:   map[domain.IssueStatus]int64{},
		ByCategory: map[domain.IssueCategory]int64{},
		ByPriority: map[domain.IssuePriority]int64{},
	}
	for _, issue := range r.issues {
		stats.Total++
		stats.ByStatus[issue.Status]++
		stats.ByCategory[issue.Category]++
		stats.ByPriority[issue.Priority]++
	}
	return stats, nil
}

func matches(issue *domain.Issue, filter repository.IssueFilter) bool {
	if filter.ReportedBy != nil && issue.ReportedBy != *filter.ReportedBy {
		return false
	}
	if filter.Status != nil && issue.Status != *filter.Status {
		return false
	}
	if filter.Category != nil && issue.Category != *filter.Category {
		return false
	}
	if filter.Priority != nil && issue.Priority != *filter.Priority {
		return false
	}
	if filter.Search != nil {
		needle := strings.ToLower(*filter.Search)
		if !strings.Contains(strings.ToLower(issue.Title), needle) &&
			!strings.Contains(strings.ToLower(issue.Description), needle) &&
			!strings.Contains(strings.ToLower(issue.Location), needle) {
			return false
		}
	}
	return true
}

var (
	student = &domain.User{ID: "user-student", Role: domain.RoleStudent}
	other   = &domain.User{ID: "user-other", Role: domain.RoleStudent}
	admin   = &domain.User{ID: "user-admin", Role: domain.RoleAdmin}
)

func newTestService() (*IssueService, *fakeIssueRepo) {
	repo := newFakeIssueRepo()
	svc := NewIssueService(IssueDependencies{IssueRepo: repo})
	return svc, repo
}

func createOpenIssue(t *testing.T, svc *IssueService, reporter *domain.User) *domain.Issue {
	t.Helper()
	issue, err := svc.Create(context.Background(), reporter, IssueCreateInput{
		Title:       "Broken light",
		Description: "The corridor light is flickering",
		Category:    domain.CategoryElectrical,
		Location:    "Block A",
	})
	if err != nil {
		t.Fatalf("create issue: %v", err)
	}
	return issue
}

func strPtr(s string) *string { return &s }

func statusPtr(s domain.IssueStatus) *domain.IssueStatus { return &s }

func TestCreateDefaults(t *testing.T) {
	svc, _ := newTestService()
	issue := createOpenIssue(t, svc, student)

	if issue.Status != domain.IssueStatusOpen {
		t.Errorf("expected status open, got %s", issue.Status)
	}
	if issue.Priority != domain.PriorityMedium {
		t.Errorf("expected default priority medium, got %s", issue.Priority)
	}
	if issue.ReportedBy != student.ID {
		t.Errorf("expected reporter %s, got %s", student.ID, issue.ReportedBy)
	}
	if issue.ResolvedAt != nil {
		t.Error("new issue must not carry a resolution timestamp")
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService()
	cases := []struct {
		name  string
		input IssueCreateInput
	}{
		{"empty title", IssueCreateInput{Description: "d", Category: domain.CategoryWater, Location: "x"}},
		{"long title", IssueCreateInput{Title: strings.Repeat("a", 101), Description: "d", Category: domain.CategoryWater, Location: "x"}},
		{"empty description", IssueCreateInput{Title: "t", Category: domain.CategoryWater, Location: "x"}},
		{"bad category", IssueCreateInput{Title: "t", Description: "d", Category: "plumbing", Location: "x"}},
		{"empty location", IssueCreateInput{Title: "t", Description: "d", Category: domain.CategoryWater}},
		{"bad priority", IssueCreateInput{Title: "t", Description: "d", Category: domain.CategoryWater, Location: "x", Priority: "asap"}},
	}
	for _, tc := range cases {
		if _, err := svc.Create(context.Background(), student, tc.input); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestOwnerUpdateWhileOpen(t *testing.T) {
	svc, _ := newTestService()
	issue := createOpenIssue(t, svc, student)

	updated, err := svc.Update(context.Background(), student, issue.ID, IssueUpdateInput{
		Title: strPtr("Broken light, 2nd floor"),
	})
	if err != nil {
		t.Fatalf("owner update on open issue: %v", err)
	}
	if updated.Title != "Broken light, 2nd floor" {
		t.Errorf("title not updated: %q", updated.Title)
	}
}

func TestOwnerUpdateAfterProcessing(t *testing.T) {
	svc, _ := newTestService()
	issue := createOpenIssue(t, svc, student)

	if _, err := svc.Update(context.Background(), admin, issue.ID, IssueUpdateInput{
		Status: statusPtr(domain.IssueStatusInProgress),
	}); err != nil {
		t.Fatalf("admin status update: %v", err)
	}

	_, err := svc.Update(context.Background(), student, issue.ID, IssueUpdateInput{
		Title: strPtr("still broken"),
	})
	assertForbidden(t, err, "Cannot update issue after it has been processed")
}

func TestUpdateByNonOwner(t *testing.T) {
	svc, _ := newTestService()
	issue := createOpenIssue(t, svc, student)

	_, err := svc.Update(context.Background(), other, issue.ID, IssueUpdateInput{
		Title: strPtr("not yours"),
	})
	assertForbidden(t, err, "Access denied")
}

func TestAdminFieldsIgnoredForStudents(t *testing.T) {
	svc, _ := newTestService()
	issue := createOpenIssue(t, svc, student)

	urgent := domain.PriorityUrgent
	assignee := "user-admin"
	updated, err := svc.Update(context.Background(), student, issue.ID, IssueUpdateInput{
		Title:         strPtr("Broken light again"),
		Priority:      &urgent,
		Status:        statusPtr(domain.IssueStatusResolved),
		AdminRemarks:  strPtr("sneaky"),
		AssignedTo:    &assignee,
		AssignedToSet: true,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Title != "Broken light again" {
		t.Errorf("permitted field dropped: %q", updated.Title)
	}
	if updated.Priority != domain.PriorityMedium {
		t.Errorf("student changed priority to %s", updated.Priority)
	}
	if updated.Status != domain.IssueStatusOpen {
		t.Errorf("student changed status to %s", updated.Status)
	}
	if updated.AdminRemarks != nil {
		t.Error("student set admin remarks")
	}
	if updated.AssignedTo != nil {
		t.Error("student set assignee")
	}
}

func TestResolvedAtLifecycle(t *testing.T) {
	svc, _ := newTestService()
	issue := createOpenIssue(t, svc, student)
	ctx := context.Background()

	updated, err := svc.Update(ctx, admin, issue.ID, IssueUpdateInput{
		Status: statusPtr(domain.IssueStatusResolved),
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if updated.ResolvedAt == nil {
		t.Fatal("resolvedAt not stamped on transition into resolved")
	}
	stamped := *updated.ResolvedAt

	// Reopening must not clear the timestamp.
	updated, err = svc.Update(ctx, admin, issue.ID, IssueUpdateInput{
		Status: statusPtr(domain.IssueStatusInProgress),
	})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if updated.ResolvedAt == nil || !updated.ResolvedAt.Equal(stamped) {
		t.Error("resolvedAt changed when leaving resolved")
	}

	// Resolving again refreshes the stamp.
	updated, err = svc.Update(ctx, admin, issue.ID, IssueUpdateInput{
		Status: statusPtr(domain.IssueStatusResolved),
	})
	if err != nil {
		t.Fatalf("re-resolve: %v", err)
	}
	if updated.ResolvedAt == nil || updated.ResolvedAt.Before(stamped) {
		t.Error("resolvedAt not refreshed on re-entry into resolved")
	}
}

func TestAdminClearAssignee(t *testing.T) {
	svc, _ := newTestService()
	issue := createOpenIssue(t, svc, student)
	ctx := context.Background()

	assignee := "worker-1"
	updated, err := svc.Update(ctx, admin, issue.ID, IssueUpdateInput{
		AssignedTo:    &assignee,
		AssignedToSet: true,
	})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if updated.AssignedTo == nil || *updated.AssignedTo != assignee {
		t.Fatal("assignee not set")
	}

	updated, err = svc.Update(ctx, admin, issue.ID, IssueUpdateInput{
		AssignedToSet: true,
	})
	if err != nil {
		t.Fatalf("clear assignee: %v", err)
	}
	if updated.AssignedTo != nil {
		t.Error("assignee not cleared by explicit null")
	}
}

func TestDeleteRules(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	open := createOpenIssue(t, svc, student)
	if err := svc.Delete(ctx, other, open.ID); err == nil {
		t.Error("non-owner delete must be denied")
	}
	if err := svc.Delete(ctx, student, open.ID); err != nil {
		t.Errorf("owner delete of open issue: %v", err)
	}

	processed := createOpenIssue(t, svc, student)
	if _, err := svc.Update(ctx, admin, processed.ID, IssueUpdateInput{
		Status: statusPtr(domain.IssueStatusInProgress),
	}); err != nil {
		t.Fatalf("admin status update: %v", err)
	}
	err := svc.Delete(ctx, student, processed.ID)
	assertForbidden(t, err, "Cannot delete issue after it has been processed")

	if err := svc.Delete(ctx, admin, processed.ID); err != nil {
		t.Errorf("admin delete of processed issue: %v", err)
	}
}

func TestListScoping(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	createOpenIssue(t, svc, student)
	createOpenIssue(t, svc, student)
	createOpenIssue(t, svc, other)

	mine, pagination, err := svc.List(ctx, student, IssueListFilter{})
	if err != nil {
		t.Fatalf("student list: %v", err)
	}
	if len(mine) != 2 || pagination.Total != 2 {
		t.Errorf("student sees %d issues (total %d), want 2", len(mine), pagination.Total)
	}
	for _, issue := range mine {
		if issue.ReportedBy != student.ID {
			t.Errorf("student list leaked issue reported by %s", issue.ReportedBy)
		}
	}

	all, pagination, err := svc.List(ctx, admin, IssueListFilter{})
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(all) != 3 || pagination.Total != 3 {
		t.Errorf("admin sees %d issues (total %d), want 3", len(all), pagination.Total)
	}
}

func TestGetVisibility(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	issue := createOpenIssue(t, svc, student)

	if _, err := svc.Get(ctx, student, issue.ID); err != nil {
		t.Errorf("owner read: %v", err)
	}
	if _, err := svc.Get(ctx, admin, issue.ID); err != nil {
		t.Errorf("admin read: %v", err)
	}
	_, err := svc.Get(ctx, other, issue.ID)
	assertForbidden(t, err, "Access denied")

	if _, err := svc.Get(ctx, admin, "missing"); err == nil {
		t.Error("expected not found for unknown id")
	}
}

func TestPagination(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		createOpenIssue(t, svc, student)
	}

	_, pagination, err := svc.List(ctx, admin, IssueListFilter{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if pagination.Total != 5 || pagination.Pages != 3 {
		t.Errorf("got total=%d pages=%d, want total=5 pages=3", pagination.Total, pagination.Pages)
	}
}

type fakeStatsCache struct {
	values map[string]string
	sets   int
	hits   int
}

func (c *fakeStatsCache) GetString(_ context.Context, key string) (string, bool, error) {
	val, ok := c.values[key]
	if ok {
		c.hits++
	}
	return val, ok, nil
}

func (c *fakeStatsCache) SetString(_ context.Context, key, val string, _ time.Duration) error {
	c.values[key] = val
	c.sets++
	return nil
}

func (c *fakeStatsCache) Delete(_ context.Context, key string) error {
	delete(c.values, key)
	return nil
}

func TestStatsCaching(t *testing.T) {
	repo := newFakeIssueRepo()
	cache := &fakeStatsCache{values: map[string]string{}}
	svc := NewIssueService(IssueDependencies{IssueRepo: repo, Cache: cache, StatsTTL: time.Minute})
	ctx := context.Background()

	createOpenIssue(t, svc, student)

	if _, err := svc.Stats(ctx); err != nil {
		t.Fatalf("stats: %v", err)
	}
	if cache.sets != 1 {
		t.Errorf("expected aggregate to be cached, sets=%d", cache.sets)
	}

	if _, err := svc.Stats(ctx); err != nil {
		t.Fatalf("stats: %v", err)
	}
	if cache.hits != 1 {
		t.Errorf("expected second read served from cache, hits=%d", cache.hits)
	}

	// Any mutation invalidates the cached aggregate.
	createOpenIssue(t, svc, student)
	if _, ok := cache.values[statsCacheKey]; ok {
		t.Error("cache entry not invalidated after create")
	}
}

func assertForbidden(t *testing.T, err error, message string) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %T", err)
	}
	if domainErr.HTTPStatus != 403 {
		t.Errorf("expected 403, got %d", domainErr.HTTPStatus)
	}
	if domainErr.Message != message {
		t.Errorf("expected message %q, got %q", message, domainErr.Message)
	}
}
