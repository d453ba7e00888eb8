package worker

import (
	"github.com/deskline/helpdesk/internal/service"
)

// StartNotificationWorker wires the notification subscribers into the event
// dispatcher. Delivery happens inline with the publishing request.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
