package services

import "log"

// EventPublisher pushes workflow events to the message queue. Services
// treat it as optional: a nil publisher means events are disabled.
type EventPublisher interface {
	Publish(event string, payload map[string]interface{}) error
}

// Event names published by the services.
const (
	EventPartCreated    = "part.created"
	EventPartUpdated    = "part.updated"
	EventPartDeleted    = "part.deleted"
	EventResetRequested = "reset.requested"
	EventResetApproved  = "reset.approved"
	EventResetDenied    = "reset.denied"
	EventResetCompleted = "reset.completed"
)

// publish sends an event if a publisher is configured. Publish failures
// are logged and never fail the request that triggered them.
func publish(events EventPublisher, event string, payload map[string]interface{}) {
	if events == nil {
		return
	}
	if err := events.Publish(event, payload); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", event, err)
	}
}
