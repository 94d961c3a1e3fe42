package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"freight/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationTripCreated       NotificationType = "TRIP_CREATED"
	NotificationTripStatusChanged NotificationType = "TRIP_STATUS_CHANGED"
	NotificationTripCancelled     NotificationType = "TRIP_CANCELLED"
	NotificationAssignmentChanged NotificationType = "ASSIGNMENT_CHANGED"
	NotificationLedgerPosting     NotificationType = "LEDGER_POSTING"
)

// Notifier delivers fire-and-forget notifications after a core
// transaction commits. A Notifier failure never rolls anything back; the
// caller logs it and moves on.
type Notifier interface {
	NotifyTripStatusChanged(ctx context.Context, trip *domain.Trip) error
	NotifyAssignmentChanged(ctx context.Context, change *domain.AssignmentChange) error
	NotifyLedgerPosting(ctx context.Context, doc *domain.Document) error
}

// Notification represents one notification to be delivered.
type Notification struct {
	Type      NotificationType
	Subject   string
	Data      map[string]any
	CreatedAt time.Time
}

// NotificationService is the broadcast collaborator boundary. The real
// delivery channel (push, SMS, websocket fan-out) lives outside this
// service; here each notification is handed off and logged.
type NotificationService struct {
	logger *zap.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(logger *zap.Logger) *NotificationService {
	return &NotificationService{logger: logger}
}

// NotifyTripStatusChanged announces a trip lifecycle change.
func (s *NotificationService) NotifyTripStatusChanged(ctx context.Context, trip *domain.Trip) error {
	notificationType := NotificationTripStatusChanged
	switch trip.Status {
	case domain.TripStatusCreated:
		notificationType = NotificationTripCreated
	case domain.TripStatusCancelled:
		notificationType = NotificationTripCancelled
	}

	return s.send(ctx, Notification{
		Type:    notificationType,
		Subject: trip.ID,
		Data: map[string]any{
			"trip_id": trip.ID,
			"status":  string(trip.Status),
			"source":  trip.SourceOrgID,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyAssignmentChanged announces a driver/truck reassignment.
func (s *NotificationService) NotifyAssignmentChanged(ctx context.Context, change *domain.AssignmentChange) error {
	return s.send(ctx, Notification{
		Type:    NotificationAssignmentChanged,
		Subject: change.TripID,
		Data: map[string]any{
			"trip_id":    change.TripID,
			"new_driver": change.NewDriverID,
			"new_truck":  change.NewTruckID,
			"reason":     change.Reason,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyLedgerPosting announces a committed invoice or payment.
func (s *NotificationService) NotifyLedgerPosting(ctx context.Context, doc *domain.Document) error {
	return s.send(ctx, Notification{
		Type:    NotificationLedgerPosting,
		Subject: doc.ID,
		Data: map[string]any{
			"document_id":  doc.ID,
			"kind":         string(doc.Kind),
			"owner":        doc.OwnerOrgID,
			"counterparty": doc.CounterpartyOrgID,
			"amount":       doc.Amount,
		},
		CreatedAt: time.Now(),
	})
}

func (s *NotificationService) send(ctx context.Context, notification Notification) error {
	s.logger.Info("notification",
		zap.String("type", string(notification.Type)),
		zap.String("subject", notification.Subject),
		zap.Any("data", notification.Data),
	)
	return nil
}

// Ensure NotificationService implements Notifier.
var _ Notifier = (*NotificationService)(nil)
