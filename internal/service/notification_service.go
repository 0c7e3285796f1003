package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/whybepb/campus-fixit/internal/config"
	"github.com/whybepb/campus-fixit/internal/domain"
	"github.com/whybepb/campus-fixit/internal/events"
	"github.com/whybepb/campus-fixit/internal/push"
	"github.com/whybepb/campus-fixit/internal/repository"
)

var statusPhrases = map[domain.IssueStatus]string{
	domain.IssueStatusOpen:       "is now open",
	domain.IssueStatusInProgress: "is now being worked on",
	domain.IssueStatusResolved:   "has been resolved",
}

// NotificationService pushes status updates to the reporting student's
// device. Delivery is best effort; failures are logged and dropped.
type NotificationService struct {
	dispatcher events.Dispatcher
	users      repository.UserRepository
	pusher     *push.Client
	logger     *zap.Logger
	cfg        config.PushConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, users repository.UserRepository, pusher *push.Client, logger *zap.Logger, cfg config.PushConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		users:      users,
		pusher:     pusher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to the events worth notifying about.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventIssueStatusChanged, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventIssueAssigned, n.handleAssigned)
}

func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.IssueStatusChangedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("issue status changed",
		zap.String("issue_id", event.IssueID),
		zap.String("old_status", string(payload.OldStatus)),
		zap.String("new_status", string(payload.NewStatus)))

	phrase, ok := statusPhrases[payload.NewStatus]
	if !ok {
		phrase = fmt.Sprintf("status changed to %s", payload.NewStatus)
	}
	body := fmt.Sprintf("%q %s", payload.Title, phrase)

	return n.sendToUser(ctx, payload.ReportedBy, "Issue Updated", body, map[string]any{
		"issueId":   event.IssueID,
		"type":      "status_update",
		"oldStatus": payload.OldStatus,
		"newStatus": payload.NewStatus,
	})
}

func (n *NotificationService) handleAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.IssueAssignedPayload)
	if !ok || payload.AssignedTo == nil {
		return nil
	}
	n.logger.Info("issue assigned",
		zap.String("issue_id", event.IssueID),
		zap.String("assigned_to", *payload.AssignedTo))

	body := fmt.Sprintf("%q has been assigned to you", payload.Title)
	return n.sendToUser(ctx, *payload.AssignedTo, "Issue Assigned", body, map[string]any{
		"issueId": event.IssueID,
		"type":    "assignment",
	})
}

func (n *NotificationService) sendToUser(ctx context.Context, userID, title, body string, data map[string]any) error {
	if !n.cfg.Enabled || n.pusher == nil {
		return nil
	}

	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		n.logger.Warn("push recipient lookup failed", zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	if user.PushToken == nil || !push.ValidToken(*user.PushToken) {
		return nil
	}

	msg := push.Message{
		To:        *user.PushToken,
		Title:     title,
		Body:      body,
		Sound:     "default",
		Priority:  "high",
		ChannelID: "status-updates",
		Data:      data,
	}
	if err := n.pusher.Send(ctx, msg); err != nil {
		n.logger.Warn("push delivery failed", zap.String("user_id", userID), zap.Error(err))
	}
	return nil
}
