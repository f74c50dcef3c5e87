package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"trimly/config"

	"github.com/hibiken/asynq"
)

// Task types handled by the worker.
const (
	TypeReservationReconcile = "reservation:reconcile"
	TypeReminderSend         = "reminder:send"
)

// ReconcilePayload identifies a reservation that must be retired to bring
// the slot index back in line with its booking.
type ReconcilePayload struct {
	BookingID string `json:"booking_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

// ReminderPayload identifies a booking to remind the customer about.
type ReminderPayload struct {
	BookingID string `json:"booking_id"`
}

// Scheduler enqueues background tasks on the Redis-backed queue. It
// satisfies the booking service's TaskScheduler dependency.
type Scheduler struct {
	client *asynq.Client
}

// NewScheduler builds a task scheduler over the configured Redis queue.
func NewScheduler() *Scheduler {
	return &Scheduler{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     config.AppConfig.RedisAddr,
			Password: config.AppConfig.RedisPassword,
			DB:       config.AppConfig.RedisQueueDB,
		}),
	}
}

// EnqueueRetireReservation queues a reservation-index repair. asynq retries
// the task with exponential backoff; the worker flags the booking for
// manual reconciliation when the final attempt fails.
func (s *Scheduler) EnqueueRetireReservation(ctx context.Context, bookingID, date, timeOfDay string) error {
	payload, err := json.Marshal(ReconcilePayload{BookingID: bookingID, Date: date, Time: timeOfDay})
	if err != nil {
		return fmt.Errorf("failed to marshal reconcile payload: %w", err)
	}
	task := asynq.NewTask(TypeReservationReconcile, payload, asynq.MaxRetry(8))
	if _, err := s.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue reservation reconcile: %w", err)
	}
	return nil
}

// EnqueueReminder schedules an appointment reminder for the given instant.
func (s *Scheduler) EnqueueReminder(ctx context.Context, bookingID string, at time.Time) error {
	if !at.After(time.Now()) {
		return nil
	}
	payload, err := json.Marshal(ReminderPayload{BookingID: bookingID})
	if err != nil {
		return fmt.Errorf("failed to marshal reminder payload: %w", err)
	}
	task := asynq.NewTask(TypeReminderSend, payload, asynq.MaxRetry(3))
	if _, err := s.client.EnqueueContext(ctx, task, asynq.ProcessAt(at)); err != nil {
		return fmt.Errorf("failed to enqueue reminder: %w", err)
	}
	return nil
}

// Close releases the underlying queue client.
func (s *Scheduler) Close() error {
	return s.client.Close()
}
