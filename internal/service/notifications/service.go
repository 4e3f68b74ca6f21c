package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockkeeper/internal/domain/models"
	"github.com/mamadbah2/stockkeeper/pkg/clients/whatsapp"
)

// Channel delivers a rendered notification somewhere.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, n models.Notification) error
}

// Service renders movement alerts and fans them out to every channel.
type Service struct {
	channels []Channel
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires a notification service over the given channels.
func NewService(logger *zap.Logger, channels ...Channel) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{channels: channels, logger: logger, now: time.Now}
}

// ScheduleStockInAlert announces a committed stock-in movement.
func (s *Service) ScheduleStockInAlert(ctx context.Context, alert models.StockInAlert) error {
	body := fmt.Sprintf("%s received from %s by %s.", countProducts(alert.ProductCount), alert.Supplier, alert.StockManager)
	if alert.TotalValue.IsPositive() {
		body += fmt.Sprintf(" Total value: %s.", alert.TotalValue.StringFixed(2))
	}
	return s.Publish(ctx, models.Notification{
		Kind:  models.NotificationStockIn,
		Title: "Stock received",
		Body:  withProducts(body, alert.ProductNames),
	})
}

// ScheduleDistributionAlert announces a committed distribution.
func (s *Service) ScheduleDistributionAlert(ctx context.Context, alert models.DistributionAlert) error {
	body := fmt.Sprintf("%s distributed to %s by %s.", countProducts(alert.ProductCount), alert.Department, alert.StockManager)
	return s.Publish(ctx, models.Notification{
		Kind:  models.NotificationDistribution,
		Title: "Stock distributed",
		Body:  withProducts(body, alert.ProductNames),
	})
}

// Publish delivers n on every channel. A failing channel does not stop the
// others; all failures are returned joined.
func (s *Service) Publish(ctx context.Context, n models.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now().UTC()
	}

	var errs []error
	for _, ch := range s.channels {
		if err := ch.Deliver(ctx, n); err != nil {
			s.logger.Warn("notification delivery failed", zap.String("channel", ch.Name()), zap.String("kind", string(n.Kind)), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
			continue
		}
		s.logger.Debug("notification delivered", zap.String("channel", ch.Name()), zap.String("kind", string(n.Kind)))
	}
	return errors.Join(errs...)
}

func countProducts(n int) string {
	if n == 1 {
		return "1 product"
	}
	return fmt.Sprintf("%d products", n)
}

func withProducts(body string, names []string) string {
	if len(names) == 0 {
		return body
	}
	return body + "\n" + strings.Join(names, ", ")
}

// Inbox stores notifications for the in-app list.
type Inbox interface {
	SaveNotification(ctx context.Context, n models.Notification) error
}

// InboxChannel persists notifications to the in-app inbox.
type InboxChannel struct {
	inbox Inbox
}

// NewInboxChannel wraps an inbox store.
func NewInboxChannel(inbox Inbox) *InboxChannel {
	return &InboxChannel{inbox: inbox}
}

func (c *InboxChannel) Name() string { return "inbox" }

func (c *InboxChannel) Deliver(ctx context.Context, n models.Notification) error {
	return c.inbox.SaveNotification(ctx, n)
}

// WhatsAppChannel pushes notifications as WhatsApp text messages.
type WhatsAppChannel struct {
	client     whatsapp.Client
	recipients []string
}

// NewWhatsAppChannel sends to the given recipients through client.
func NewWhatsAppChannel(client whatsapp.Client, recipients []string) *WhatsAppChannel {
	return &WhatsAppChannel{client: client, recipients: recipients}
}

func (c *WhatsAppChannel) Name() string { return "whatsapp" }

func (c *WhatsAppChannel) Deliver(ctx context.Context, n models.Notification) error {
	return whatsapp.Broadcast(ctx, c.client, c.recipients, fmt.Sprintf("*%s*\n%s", n.Title, n.Body))
}
