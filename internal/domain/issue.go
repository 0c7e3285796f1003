package domain

import "time"

// IssueStatus enumerates lifecycle states for reported issues.
type IssueStatus string

const (
	IssueStatusOpen       IssueStatus = "open"
	IssueStatusInProgress IssueStatus = "in_progress"
	IssueStatusResolved   IssueStatus = "resolved"
)

// ValidIssueStatus reports whether the value is a known status.
func ValidIssueStatus(s IssueStatus) bool {
	switch s {
	case IssueStatusOpen, IssueStatusInProgress, IssueStatusResolved:
		return true
	}
	return false
}

// IssueCategory enumerates the kinds of campus facility problems.
type IssueCategory string

const (
	CategoryElectrical     IssueCategory = "electrical"
	CategoryWater          IssueCategory = "water"
	CategoryInternet       IssueCategory = "internet"
	CategoryInfrastructure IssueCategory = "infrastructure"
	CategoryOther          IssueCategory = "other"
)

// ValidIssueCategory reports whether the value is a known category.
func ValidIssueCategory(c IssueCategory) bool {
	switch c {
	case CategoryElectrical, CategoryWater, CategoryInternet, CategoryInfrastructure, CategoryOther:
		return true
	}
	return false
}

// IssuePriority enumerates urgency levels.
type IssuePriority string

const (
	PriorityLow    IssuePriority = "low"
	PriorityMedium IssuePriority = "medium"
	PriorityHigh   IssuePriority = "high"
	PriorityUrgent IssuePriority = "urgent"
)

// ValidIssuePriority reports whether the value is a known priority.
func ValidIssuePriority(p IssuePriority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Issue is the central mutable resource: a reported campus facility
// problem owned by the reporting user.
type Issue struct {
	ID           string
	Title        string
	Description  string
	Category     IssueCategory
	Priority     IssuePriority
	Status       IssueStatus
	Location     string
	Images       []string
	ReportedBy   string
	AssignedTo   *string
	AdminRemarks *string
	ResolvedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Populated references, filled by repository joins.
	Reporter *UserRef
	Assignee *UserRef
}
