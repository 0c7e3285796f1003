package worker

import (
	"github.com/whybepb/campus-fixit/internal/service"
)

// StartNotificationWorker registers push notification handlers on the
// event dispatcher.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
