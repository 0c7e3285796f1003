package events

import (
	"time"

	"github.com/whybepb/campus-fixit/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIssueCreated       EventType = "issue_created"
	EventIssueStatusChanged EventType = "issue_status_changed"
	EventIssueAssigned      EventType = "issue_assigned"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	IssueID   string      `json:"issue_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// IssueCreatedPayload payload.
type IssueCreatedPayload struct {
	Title      string               `json:"title"`
	Category   domain.IssueCategory `json:"category"`
	Priority   domain.IssuePriority `json:"priority"`
	ReportedBy string               `json:"reported_by"`
}

// IssueStatusChangedPayload payload.
type IssueStatusChangedPayload struct {
	Title      string             `json:"title"`
	OldStatus  domain.IssueStatus `json:"old_status"`
	NewStatus  domain.IssueStatus `json:"new_status"`
	ReportedBy string             `json:"reported_by"`
}

// IssueAssignedPayload payload.
type IssueAssignedPayload struct {
	Title      string  `json:"title"`
	AssignedTo *string `json:"assigned_to,omitempty"`
}
