package worker

import (
	"github.com/acme-ops/opsboard/internal/service"
)

// StartNotificationWorker registers notification handlers on the dispatcher.
// Handlers run synchronously on the publishing request.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
