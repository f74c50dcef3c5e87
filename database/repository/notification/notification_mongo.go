package notificationRepo

import (
	"context"
	"fmt"
	"time"

	"trimly/database"
	"trimly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationRepository persists owner-inbox notification records.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notif *models.Notification) error
	ListShopNotifications(ctx context.Context, shopID string, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, notificationID string) error
}

// MongoNotificationRepo implements NotificationRepository using MongoDB.
type MongoNotificationRepo struct {
	notifColl *mongo.Collection
}

// NewMongoNotificationRepo constructs a new instance of MongoNotificationRepo.
func NewMongoNotificationRepo() NotificationRepository {
	db := database.DB()
	return &MongoNotificationRepo{
		notifColl: db.Collection("notifications"),
	}
}

// CreateNotification inserts a new notification record.
func (repo *MongoNotificationRepo) CreateNotification(ctx context.Context, notif *models.Notification) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := repo.notifColl.InsertOne(ctxWithTimeout, notif); err != nil {
		return fmt.Errorf("error creating notification: %w", err)
	}
	return nil
}

// ListShopNotifications returns a shop's notifications, newest first.
func (repo *MongoNotificationRepo) ListShopNotifications(ctx context.Context, shopID string, unreadOnly bool) ([]models.Notification, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"shop_id": shopID}
	if unreadOnly {
		filter["read"] = false
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := repo.notifColl.Find(ctxWithTimeout, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing notifications for shop %s: %w", shopID, err)
	}
	defer cursor.Close(ctxWithTimeout)

	var notifications []models.Notification
	if err := cursor.All(ctxWithTimeout, &notifications); err != nil {
		return nil, fmt.Errorf("error decoding notifications for shop %s: %w", shopID, err)
	}
	return notifications, nil
}

// MarkRead flips a notification's read flag.
func (repo *MongoNotificationRepo) MarkRead(ctx context.Context, notificationID string) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": notificationID}
	update := bson.M{"$set": bson.M{"read": true}}
	if _, err := repo.notifColl.UpdateOne(ctxWithTimeout, filter, update); err != nil {
		return fmt.Errorf("error marking notification %s read: %w", notificationID, err)
	}
	return nil
}
