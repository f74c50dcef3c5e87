package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"trimly/config"
	bookingRepo "trimly/database/repository/booking"
	"trimly/models"
	"trimly/services/notification"
	"trimly/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// InitWorker runs the async worker in background.
func InitWorker(repo bookingRepo.BookingRepository, dispatcher notification.Dispatcher) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeReservationReconcile, handleReconcileTask(repo))
	mux.HandleFunc(TypeReminderSend, handleReminderTask(repo, dispatcher))

	go func() {
		log.Println("[Worker] starting async worker...")
		if err := srv.Run(mux); err != nil {
			log.Fatalf("[Worker] failed to start: %v", err)
		}
	}()
}

// handleReconcileTask retries the reservation retire that failed inline.
// asynq drives the backoff; when the final attempt also fails the booking is
// flagged for manual reconciliation instead of being left silently divergent.
func handleReconcileTask(repo bookingRepo.BookingRepository) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ReconcilePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("invalid reconcile payload: %w", err)
		}

		err := repo.RetireReservation(ctx, payload.BookingID, payload.Date, payload.Time)
		if err == nil {
			utils.GetLogger().Info("reservation index repaired",
				zap.String("booking", payload.BookingID))
			return nil
		}

		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)
		if retried >= maxRetry {
			utils.GetLogger().Error("reservation repair exhausted retries, flagging booking",
				zap.String("booking", payload.BookingID), zap.Error(err))
			if flagErr := repo.FlagForReconciliation(ctx, payload.BookingID); flagErr != nil {
				utils.GetLogger().Error("failed to flag booking",
					zap.String("booking", payload.BookingID), zap.Error(flagErr))
			}
		}
		return fmt.Errorf("retire reservation for booking %s: %w", payload.BookingID, err)
	}
}

// handleReminderTask sends the appointment reminder unless the booking was
// cancelled after the reminder was scheduled.
func handleReminderTask(repo bookingRepo.BookingRepository, dispatcher notification.Dispatcher) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ReminderPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("invalid reminder payload: %w", err)
		}

		booking, err := repo.GetBookingByID(ctx, payload.BookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return nil
			}
			return fmt.Errorf("fetch booking for reminder: %w", err)
		}
		if booking.Status == models.BookingStatusCancelled {
			return nil
		}

		event := models.BookingEvent{
			Type:       models.NotifReminder,
			ShopID:     booking.ShopID,
			BookingID:  booking.ID,
			CustomerID: booking.CustomerID,
			Title:      "Upcoming appointment",
			Message:    fmt.Sprintf("Appointment on %s at %s is coming up", booking.Date, booking.Time),
		}
		if err := dispatcher.FireAndForget(ctx, event); err != nil {
			utils.GetLogger().Warn("reminder delivery incomplete",
				zap.String("booking", booking.ID), zap.Error(err))
		}
		return nil
	}
}
