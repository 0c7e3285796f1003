package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/whybepb/campus-fixit/internal/domain"
	"github.com/whybepb/campus-fixit/internal/events"
	"github.com/whybepb/campus-fixit/internal/repository"
	apperrors "github.com/whybepb/campus-fixit/pkg/util"
)

const (
	maxTitleLength       = 100
	maxDescriptionLength = 1000
	defaultPageSize      = 20
	maxPageSize          = 100

	statsCacheKey = "issues:stats"
)

// StatsCache is the small slice of the Redis wrapper the service needs.
type StatsCache interface {
	GetString(ctx context.Context, key string) (string, bool, error)
	SetString(ctx context.Context, key, val string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IssueService owns the issue lifecycle: creation, role- and
// ownership-scoped reads and writes, and the status-transition rules.
// This is the authoritative policy layer; clients may pre-filter but the
// decisions here are final.
type IssueService struct {
	issues     repository.IssueRepository
	cache      StatsCache
	statsTTL   time.Duration
	dispatcher events.Dispatcher
}

// IssueDependencies bundles collaborators for the issue service.
type IssueDependencies struct {
	IssueRepo  repository.IssueRepository
	Cache      StatsCache
	StatsTTL   time.Duration
	Dispatcher events.Dispatcher
}

// NewIssueService constructs the service.
func NewIssueService(deps IssueDependencies) *IssueService {
	return &IssueService{
		issues:     deps.IssueRepo,
		cache:      deps.Cache,
		statsTTL:   deps.StatsTTL,
		dispatcher: deps.Dispatcher,
	}
}

// IssueCreateInput describes issue creation payload.
type IssueCreateInput struct {
	Title       string
	Description string
	Category    domain.IssueCategory
	Location    string
	Priority    domain.IssuePriority
	Images      []string
}

// IssueUpdateInput carries the caller-supplied subset of mutable fields.
// Nil pointers mean "not supplied"; AssignedToSet distinguishes clearing
// the assignee from leaving it untouched.
type IssueUpdateInput struct {
	Title         *string
	Description   *string
	Category      *domain.IssueCategory
	Location      *string
	Priority      *domain.IssuePriority
	Status        *domain.IssueStatus
	AdminRemarks  *string
	AssignedTo    *string
	AssignedToSet bool
}

// IssueListFilter describes listing parameters from the query string.
type IssueListFilter struct {
	Status   *domain.IssueStatus
	Category *domain.IssueCategory
	Priority *domain.IssuePriority
	Search   *string
	Page     int
	Limit    int
}

// Pagination describes the returned result window.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// Create records a new issue reported by the acting user. Status always
// starts open and priority defaults to medium.
func (s *IssueService) Create(ctx context.Context, actor *domain.User, input IssueCreateInput) (*domain.Issue, error) {
	if err := validateCreateInput(&input); err != nil {
		return nil, err
	}

	issue := &domain.Issue{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Category:    input.Category,
		Priority:    input.Priority,
		Status:      domain.IssueStatusOpen,
		Location:    strings.TrimSpace(input.Location),
		Images:      input.Images,
		ReportedBy:  actor.ID,
	}
	if issue.Images == nil {
		issue.Images = []string{}
	}

	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, err
	}
	s.invalidateStats(ctx)
	s.publish(ctx, events.Event{
		Type:    events.EventIssueCreated,
		IssueID: issue.ID,
		ActorID: actor.ID,
		Payload: events.IssueCreatedPayload{
			Title:      issue.Title,
			Category:   issue.Category,
			Priority:   issue.Priority,
			ReportedBy: issue.ReportedBy,
		},
	})

	// Re-read for the populated reporter reference.
	return s.issues.GetByID(ctx, issue.ID)
}

// List returns a page of issues. Admins see everything; everyone else is
// pinned to their own reports before any explicit filter applies.
func (s *IssueService) List(ctx context.Context, actor *domain.User, filter IssueListFilter) ([]domain.Issue, Pagination, error) {
	repoFilter := repository.IssueFilter{
		Status:   filter.Status,
		Category: filter.Category,
		Priority: filter.Priority,
		Search:   filter.Search,
	}
	if !actor.IsAdmin() {
		ownerID := actor.ID
		repoFilter.ReportedBy = &ownerID
	}
	return s.page(ctx, repoFilter, filter.Page, filter.Limit)
}

// ListMine returns the acting user's own issues regardless of role.
func (s *IssueService) ListMine(ctx context.Context, actor *domain.User, filter IssueListFilter) ([]domain.Issue, Pagination, error) {
	ownerID := actor.ID
	repoFilter := repository.IssueFilter{
		ReportedBy: &ownerID,
		Status:     filter.Status,
		Category:   filter.Category,
	}
	return s.page(ctx, repoFilter, filter.Page, filter.Limit)
}

func (s *IssueService) page(ctx context.Context, repoFilter repository.IssueFilter, page, limit int) ([]domain.Issue, Pagination, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	repoFilter.Limit = limit
	repoFilter.Offset = (page - 1) * limit

	issues, err := s.issues.List(ctx, repoFilter)
	if err != nil {
		return nil, Pagination{}, err
	}
	total, err := s.issues.Count(ctx, repoFilter)
	if err != nil {
		return nil, Pagination{}, err
	}

	pagination := Pagination{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: int(math.Ceil(float64(total) / float64(limit))),
	}
	if issues == nil {
		issues = []domain.Issue{}
	}
	return issues, pagination, nil
}

// Get fetches a single issue, enforcing owner-or-admin visibility.
func (s *IssueService) Get(ctx context.Context, actor *domain.User, id string) (*domain.Issue, error) {
	issue, err := s.issues.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("Issue")
		}
		return nil, err
	}
	if !actor.IsAdmin() && issue.ReportedBy != actor.ID {
		return nil, apperrors.NewForbidden("Access denied")
	}
	return issue, nil
}

// Update applies a scoped mutation. Owners may edit descriptive fields
// while the issue is still open; admins may edit anything at any time.
// Fields outside the caller's scope are silently ignored.
func (s *IssueService) Update(ctx context.Context, actor *domain.User, id string, input IssueUpdateInput) (*domain.Issue, error) {
	if err := validateUpdateInput(&input); err != nil {
		return nil, err
	}

	issue, err := s.issues.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("Issue")
		}
		return nil, err
	}

	isAdmin := actor.IsAdmin()
	isOwner := issue.ReportedBy == actor.ID
	if !isAdmin && !isOwner {
		return nil, apperrors.NewForbidden("Access denied")
	}
	if !isAdmin && issue.Status != domain.IssueStatusOpen {
		return nil, apperrors.NewForbidden("Cannot update issue after it has been processed")
	}

	oldStatus := issue.Status
	oldAssignee := issue.AssignedTo

	// Fields every permitted writer may set.
	if input.Title != nil {
		issue.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		issue.Description = strings.TrimSpace(*input.Description)
	}
	if input.Category != nil {
		issue.Category = *input.Category
	}
	if input.Location != nil {
		issue.Location = strings.TrimSpace(*input.Location)
	}

	// Admin-only fields; silently dropped for everyone else.
	if isAdmin {
		if input.Priority != nil {
			issue.Priority = *input.Priority
		}
		if input.Status != nil {
			issue.Status = *input.Status
		}
		if input.AdminRemarks != nil {
			remarks := strings.TrimSpace(*input.AdminRemarks)
			issue.AdminRemarks = &remarks
		}
		if input.AssignedToSet {
			issue.AssignedTo = input.AssignedTo
		}
	}

	// resolvedAt is stamped exactly on the transition into resolved and is
	// deliberately never cleared by later updates.
	if issue.Status == domain.IssueStatusResolved && oldStatus != domain.IssueStatusResolved {
		now := time.Now()
		issue.ResolvedAt = &now
	}

	if err := s.issues.Update(ctx, issue); err != nil {
		return nil, err
	}
	s.invalidateStats(ctx)

	if issue.Status != oldStatus {
		s.publish(ctx, events.Event{
			Type:    events.EventIssueStatusChanged,
			IssueID: issue.ID,
			ActorID: actor.ID,
			Payload: events.IssueStatusChangedPayload{
				Title:      issue.Title,
				OldStatus:  oldStatus,
				NewStatus:  issue.Status,
				ReportedBy: issue.ReportedBy,
			},
		})
	}
	if isAdmin && input.AssignedToSet && !equalAssignee(oldAssignee, issue.AssignedTo) {
		s.publish(ctx, events.Event{
			Type:    events.EventIssueAssigned,
			IssueID: issue.ID,
			ActorID: actor.ID,
			Payload: events.IssueAssignedPayload{
				Title:      issue.Title,
				AssignedTo: issue.AssignedTo,
			},
		})
	}

	return s.issues.GetByID(ctx, issue.ID)
}

// Delete removes an issue: admins at any time, owners only while it is
// still open.
func (s *IssueService) Delete(ctx context.Context, actor *domain.User, id string) error {
	issue, err := s.issues.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("Issue")
		}
		return err
	}

	isAdmin := actor.IsAdmin()
	if !isAdmin && issue.ReportedBy != actor.ID {
		return apperrors.NewForbidden("Access denied")
	}
	if !isAdmin && issue.Status != domain.IssueStatusOpen {
		return apperrors.NewForbidden("Cannot delete issue after it has been processed")
	}

	if err := s.issues.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateStats(ctx)
	return nil
}

// Stats returns the aggregate dashboard counts, served from Redis when a
// fresh copy exists.
func (s *IssueService) Stats(ctx context.Context) (*repository.IssueStats, error) {
	if s.cache != nil && s.statsTTL > 0 {
		if cached, ok, err := s.cache.GetString(ctx, statsCacheKey); err == nil && ok {
			var stats repository.IssueStats
			if err := json.Unmarshal([]byte(cached), &stats); err == nil {
				return &stats, nil
			}
		}
	}

	stats, err := s.issues.Stats(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.statsTTL > 0 {
		if encoded, err := json.Marshal(stats); err == nil {
			_ = s.cache.SetString(ctx, statsCacheKey, string(encoded), s.statsTTL)
		}
	}
	return stats, nil
}

func (s *IssueService) invalidateStats(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, statsCacheKey)
	}
}

func (s *IssueService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func equalAssignee(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func validateCreateInput(input *IssueCreateInput) error {
	title := strings.TrimSpace(input.Title)
	if title == "" || len(title) > maxTitleLength {
		return apperrors.NewValidationError("Title is required (max 100 chars)", nil)
	}
	description := strings.TrimSpace(input.Description)
	if description == "" || len(description) > maxDescriptionLength {
		return apperrors.NewValidationError("Description is required (max 1000 chars)", nil)
	}
	if !domain.ValidIssueCategory(input.Category) {
		return apperrors.NewValidationError("Invalid category", nil)
	}
	if strings.TrimSpace(input.Location) == "" {
		return apperrors.NewValidationError("Location is required", nil)
	}
	if input.Priority == "" {
		input.Priority = domain.PriorityMedium
	}
	if !domain.ValidIssuePriority(input.Priority) {
		return apperrors.NewValidationError("Invalid priority", nil)
	}
	return nil
}

func validateUpdateInput(input *IssueUpdateInput) error {
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" || len(title) > maxTitleLength {
			return apperrors.NewValidationError("Title is required (max 100 chars)", nil)
		}
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" || len(description) > maxDescriptionLength {
			return apperrors.NewValidationError("Description is required (max 1000 chars)", nil)
		}
	}
	if input.Category != nil && !domain.ValidIssueCategory(*input.Category) {
		return apperrors.NewValidationError("Invalid category", nil)
	}
	if input.Priority != nil && !domain.ValidIssuePriority(*input.Priority) {
		return apperrors.NewValidationError("Invalid priority", nil)
	}
	if input.Status != nil && !domain.ValidIssueStatus(*input.Status) {
		return apperrors.NewValidationError("Invalid status", nil)
	}
	return nil
}
