package dto

import (
	"time"

	"github.com/whybepb/campus-fixit/internal/domain"
	"github.com/whybepb/campus-fixit/internal/repository"
	"github.com/whybepb/campus-fixit/internal/service"
)

// UpdateIssueRequest carries the caller-supplied subset of mutable
// fields. Which of them actually apply is decided server-side per role.
type UpdateIssueRequest struct {
	Title        *string                `json:"title"`
	Description  *string                `json:"description"`
	Category     *domain.IssueCategory  `json:"category"`
	Location     *string                `json:"location"`
	Priority     *domain.IssuePriority  `json:"priority"`
	Status       *domain.IssueStatus    `json:"status"`
	AdminRemarks *string                `json:"adminRemarks"`
	AssignedTo   assignedToField        `json:"assignedTo"`
}

// assignedToField distinguishes "absent" from "set to null" so an admin
// can clear the assignee.
type assignedToField struct {
	Set   bool
	Value *string
}

// UnmarshalJSON records presence before decoding the value.
func (f *assignedToField) UnmarshalJSON(data []byte) error {
	f.Set = true
	if string(data) == "null" {
		f.Value = nil
		return nil
	}
	value := string(data)
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		trimmed := value[1 : len(value)-1]
		if trimmed == "" {
			f.Value = nil
			return nil
		}
		f.Value = &trimmed
	}
	return nil
}

// UserRefResponse is a populated user reference.
type UserRefResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	StudentID *string `json:"studentId,omitempty"`
}

// IssueResponse is the wire shape of an issue.
type IssueResponse struct {
	ID           string                `json:"id"`
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	Category     domain.IssueCategory  `json:"category"`
	Priority     domain.IssuePriority  `json:"priority"`
	Status       domain.IssueStatus    `json:"status"`
	Location     string                `json:"location"`
	Images       []string              `json:"images"`
	ReportedBy   *UserRefResponse      `json:"reportedBy,omitempty"`
	AssignedTo   *UserRefResponse      `json:"assignedTo,omitempty"`
	AdminRemarks *string               `json:"adminRemarks,omitempty"`
	ResolvedAt   *time.Time            `json:"resolvedAt,omitempty"`
	CreatedAt    time.Time             `json:"createdAt"`
	UpdatedAt    time.Time             `json:"updatedAt"`
}

// NewIssueResponse maps a domain issue to its response shape.
func NewIssueResponse(issue *domain.Issue) IssueResponse {
	resp := IssueResponse{
		ID:           issue.ID,
		Title:        issue.Title,
		Description:  issue.Description,
		Category:     issue.Category,
		Priority:     issue.Priority,
		Status:       issue.Status,
		Location:     issue.Location,
		Images:       issue.Images,
		AdminRemarks: issue.AdminRemarks,
		ResolvedAt:   issue.ResolvedAt,
		CreatedAt:    issue.CreatedAt,
		UpdatedAt:    issue.UpdatedAt,
	}
	if resp.Images == nil {
		resp.Images = []string{}
	}
	if issue.Reporter != nil {
		resp.ReportedBy = &UserRefResponse{
			ID:        issue.Reporter.ID,
			Name:      issue.Reporter.Name,
			Email:     issue.Reporter.Email,
			StudentID: issue.Reporter.StudentID,
		}
	}
	if issue.Assignee != nil {
		resp.AssignedTo = &UserRefResponse{
			ID:    issue.Assignee.ID,
			Name:  issue.Assignee.Name,
			Email: issue.Assignee.Email,
		}
	}
	return resp
}

// NewIssueResponses maps a slice of issues.
func NewIssueResponses(issues []domain.Issue) []IssueResponse {
	items := make([]IssueResponse, 0, len(issues))
	for i := range issues {
		items = append(items, NewIssueResponse(&issues[i]))
	}
	return items
}

// IssueListResponse is the paginated listing envelope.
type IssueListResponse struct {
	Issues     []IssueResponse    `json:"issues"`
	Pagination service.Pagination `json:"pagination"`
}

// IssueStatsResponse is the admin dashboard aggregate.
type IssueStatsResponse struct {
	Total        int64                          `json:"total"`
	ByStatus     map[domain.IssueStatus]int64   `json:"byStatus"`
	ByCategory   map[domain.IssueCategory]int64 `json:"byCategory"`
	ByPriority   map[domain.IssuePriority]int64 `json:"byPriority"`
	RecentIssues []IssueResponse                `json:"recentIssues"`
}

// NewIssueStatsResponse maps repository stats to the wire shape.
func NewIssueStatsResponse(stats *repository.IssueStats) IssueStatsResponse {
	return IssueStatsResponse{
		Total:        stats.Total,
		ByStatus:     stats.ByStatus,
		ByCategory:   stats.ByCategory,
		ByPriority:   stats.ByPriority,
		RecentIssues: NewIssueResponses(stats.Recent),
	}
}
