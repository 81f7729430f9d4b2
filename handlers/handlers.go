// Package handlers adapts the core services to Fiber HTTP handlers.
// Handlers parse and authorize at the transport level only; every business
// rule lives in the service layer and surfaces here as an AppError.
package handlers

import (
	"carematch/notifications"
	"carematch/service"

	"gorm.io/gorm"
)

var (
	gate      *service.SubscriptionGate
	lifecycle *service.PostLifecycleManager
	admission *service.ApplicationAdmissionController
	broker    *service.ChatSessionBroker
	recorder  *service.MatchRecorder
)

// Init wires the handler package to the core services.
func Init(db *gorm.DB, events *notifications.Notifier) {
	gate = service.NewSubscriptionGate(db)
	lifecycle = service.NewPostLifecycleManager(db, events)
	admission = service.NewApplicationAdmissionController(db, gate, events)
	broker = service.NewChatSessionBroker(db, gate, events)
	recorder = service.NewMatchRecorder(db, lifecycle, events)
}
