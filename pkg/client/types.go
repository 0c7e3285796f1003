package client

import "time"

// Issue is the wire shape of a reported issue. LegacyID covers payloads
// produced by older backends that expose a raw document identifier.
type Issue struct {
	ID           string     `json:"id"`
	LegacyID     string     `json:"_id,omitempty"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Category     string     `json:"category"`
	Priority     string     `json:"priority"`
	Status       string     `json:"status"`
	Location     string     `json:"location"`
	Images       []string   `json:"images"`
	ReportedBy   *UserRef   `json:"reportedBy,omitempty"`
	AssignedTo   *UserRef   `json:"assignedTo,omitempty"`
	AdminRemarks *string    `json:"adminRemarks,omitempty"`
	ResolvedAt   *time.Time `json:"resolvedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Key returns the issue identifier regardless of which field carried it.
func (i *Issue) Key() string {
	if i.ID != "" {
		return i.ID
	}
	return i.LegacyID
}

// UserRef is a populated user reference embedded in issues.
type UserRef struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	StudentID *string `json:"studentId,omitempty"`
}

// User is the authenticated account shape.
type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	StudentID  *string   `json:"studentId,omitempty"`
	Department *string   `json:"department,omitempty"`
	Phone      *string   `json:"phone,omitempty"`
	Avatar     *string   `json:"avatar,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Pagination describes a listing window.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// IssueList is a page of issues.
type IssueList struct {
	Issues     []Issue    `json:"issues"`
	Pagination Pagination `json:"pagination"`
}

// IssueStats is the admin dashboard aggregate.
type IssueStats struct {
	Total        int64            `json:"total"`
	ByStatus     map[string]int64 `json:"byStatus"`
	ByCategory   map[string]int64 `json:"byCategory"`
	ByPriority   map[string]int64 `json:"byPriority"`
	RecentIssues []Issue          `json:"recentIssues"`
}

// Session is the result of a successful signup or login.
type Session struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// IssueFilters narrows listing calls. Zero values are omitted.
type IssueFilters struct {
	Status   string
	Category string
	Priority string
	Search   string
	Page     int
	Limit    int
}

// CreateIssueInput is the issue creation payload. Images holds local
// file paths uploaded alongside the form fields.
type CreateIssueInput struct {
	Title       string
	Description string
	Category    string
	Location    string
	Priority    string
	Images      []string
}

// UpdateIssueInput carries optional issue mutations. Nil fields are not
// sent. ClearAssignee sends an explicit null for assignedTo.
type UpdateIssueInput struct {
	Title         *string `json:"title,omitempty"`
	Description   *string `json:"description,omitempty"`
	Category      *string `json:"category,omitempty"`
	Location      *string `json:"location,omitempty"`
	Priority      *string `json:"priority,omitempty"`
	Status        *string `json:"status,omitempty"`
	AdminRemarks  *string `json:"adminRemarks,omitempty"`
	AssignedTo    *string `json:"-"`
	ClearAssignee bool    `json:"-"`
}
