package notification

import (
	"context"
	"fmt"
	"time"

	notificationRepo "trimly/database/repository/notification"
	shopRepo "trimly/database/repository/shop"
	"trimly/models"
	"trimly/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultDispatcher is the production implementation. The inbox write and
// the webhook call are independent failure domains: either can fail without
// undoing the other, and neither blocks the lifecycle transition that
// already committed.
type DefaultDispatcher struct {
	Repo    notificationRepo.NotificationRepository
	Shops   shopRepo.ShopRepository
	Webhook *WebhookClient
}

func NewDefaultDispatcher(
	repo notificationRepo.NotificationRepository,
	shops shopRepo.ShopRepository,
	webhook *WebhookClient,
) (*DefaultDispatcher, error) {
	if repo == nil {
		return nil, fmt.Errorf("notification dispatcher initialization error: repository is nil")
	}
	return &DefaultDispatcher{Repo: repo, Shops: shops, Webhook: webhook}, nil
}

// FireAndForget writes the inbox record and attempts the webhook. Both are
// attempted regardless of the other's outcome; failures are logged and the
// last one is returned as a warning.
func (d *DefaultDispatcher) FireAndForget(ctx context.Context, event models.BookingEvent) error {
	logger := utils.GetLogger()
	var soft error

	notif := &models.Notification{
		ID:        uuid.New().String(),
		ShopID:    event.ShopID,
		BookingID: event.BookingID,
		Type:      event.Type,
		Title:     event.Title,
		Message:   event.Message,
		Data:      event.Data,
		Read:      false,
		CreatedAt: time.Now(),
	}
	if err := d.Repo.CreateNotification(ctx, notif); err != nil {
		logger.Warn("inbox notification write failed",
			zap.String("shop", event.ShopID), zap.String("type", event.Type), zap.Error(err))
		soft = fmt.Errorf("inbox write failed: %w", err)
	}

	if d.Webhook != nil {
		url := d.Webhook.DefaultURL
		if d.Shops != nil {
			if shop, err := d.Shops.GetShopByID(ctx, event.ShopID); err == nil && shop.WebhookURL != "" {
				url = shop.WebhookURL
			}
		}
		if url != "" {
			if err := d.Webhook.Send(ctx, url, event); err != nil {
				logger.Warn("webhook delivery failed",
					zap.String("shop", event.ShopID), zap.String("type", event.Type), zap.Error(err))
				soft = fmt.Errorf("webhook delivery failed: %w", err)
			}
		}
	}

	return soft
}
