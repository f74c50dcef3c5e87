package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	bookingRepo "trimly/database/repository/booking"
	shopRepo "trimly/database/repository/shop"
	"trimly/models"

	"github.com/google/uuid"
)

// slotKey is the natural key of a reservation.
type slotKey struct {
	shopID, date, timeOfDay string
}

// fakeBookingRepo is an in-memory BookingRepository. Claims go through a
// mutex-guarded insert-if-absent over the booked-slot key, mirroring the
// unique partial index, so concurrency tests exercise real win/lose races.
type fakeBookingRepo struct {
	mu           sync.Mutex
	bookings     map[string]*models.Booking
	reservations map[string]*models.SlotReservation // by reservation id
	bookedSlots  map[slotKey]string                 // -> reservation id
	flagged      map[string]bool

	failRetire bool
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{
		bookings:     make(map[string]*models.Booking),
		reservations: make(map[string]*models.SlotReservation),
		bookedSlots:  make(map[slotKey]string),
		flagged:      make(map[string]bool),
	}
}

func (f *fakeBookingRepo) GetBookingByID(_ context.Context, id string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, fmt.Errorf("fetch booking %s: %w", id, bookingRepo.ErrBookingNotFound)
	}
	copied := *b
	return &copied, nil
}

func (f *fakeBookingRepo) ListShopBookings(_ context.Context, shopID, date string) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Booking
	for _, b := range f.bookings {
		if b.ShopID == shopID && (date == "" || b.Date == date) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) CountActiveBookingsAt(_ context.Context, shopID, date, timeOfDay, excludeID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, b := range f.bookings {
		if b.ShopID == shopID && b.Date == date && b.Time == timeOfDay &&
			b.Status != models.BookingStatusCancelled && b.ID != excludeID {
			count++
		}
	}
	return count, nil
}

func (f *fakeBookingRepo) ConfirmBooking(_ context.Context, id string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, fmt.Errorf("confirm booking %s: %w", id, bookingRepo.ErrBookingNotFound)
	}
	if b.Status != models.BookingStatusPending {
		return nil, fmt.Errorf("confirm booking %s: %w", id, bookingRepo.ErrNoTransition)
	}
	b.Status = models.BookingStatusConfirmed
	b.LastModified = time.Now()
	copied := *b
	return &copied, nil
}

func (f *fakeBookingRepo) CancelBooking(_ context.Context, id, reason, actor string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	if b.Status != models.BookingStatusPending && b.Status != models.BookingStatusConfirmed {
		return nil, bookingRepo.ErrNoTransition
	}
	b.Status = models.BookingStatusCancelled
	b.CancellationReason = reason
	b.CancelledBy = actor
	b.LastModified = time.Now()
	copied := *b
	return &copied, nil
}

func (f *fakeBookingRepo) FlagForReconciliation(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flagged[id] = true
	return nil
}

func (f *fakeBookingRepo) claimLocked(res *models.SlotReservation) error {
	key := slotKey{res.ShopID, res.Date, res.Time}
	if _, held := f.bookedSlots[key]; held {
		return fmt.Errorf("claim reservation: %w", bookingRepo.ErrSlotTaken)
	}
	stored := *res
	f.reservations[res.ID] = &stored
	f.bookedSlots[key] = res.ID
	return nil
}

func (f *fakeBookingRepo) retireLocked(bookingID, date, timeOfDay string) {
	for _, r := range f.reservations {
		if r.BookingID == bookingID && r.Date == date && r.Time == timeOfDay &&
			r.Status == models.ReservationStatusBooked {
			r.Status = models.ReservationStatusCancelled
			r.UpdatedAt = time.Now()
			delete(f.bookedSlots, slotKey{r.ShopID, r.Date, r.Time})
		}
	}
}

func (f *fakeBookingRepo) ClaimSlot(_ context.Context, res *models.SlotReservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.claimLocked(res)
}

func (f *fakeBookingRepo) RetireReservation(_ context.Context, bookingID, date, timeOfDay string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRetire {
		return errors.New("simulated store failure")
	}
	f.retireLocked(bookingID, date, timeOfDay)
	return nil
}

func (f *fakeBookingRepo) GetActiveReservation(_ context.Context, shopID, date, timeOfDay string) (*models.SlotReservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, held := f.bookedSlots[slotKey{shopID, date, timeOfDay}]; held {
		copied := *f.reservations[id]
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeBookingRepo) ListActiveReservations(_ context.Context, shopID, date string) ([]models.SlotReservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.SlotReservation
	for _, r := range f.reservations {
		if r.ShopID == shopID && r.Date == date && r.Status == models.ReservationStatusBooked {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) CreateBookingTransactionally(_ context.Context, b *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := &models.SlotReservation{
		ID:        uuid.New().String(),
		ShopID:    b.ShopID,
		Date:      b.Date,
		Time:      b.Time,
		BookingID: b.ID,
		Status:    models.ReservationStatusBooked,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := f.claimLocked(res); err != nil {
		return err
	}
	stored := *b
	f.bookings[b.ID] = &stored
	return nil
}

func (f *fakeBookingRepo) RescheduleTransactionally(_ context.Context, bookingID, newDate, newTime string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[bookingID]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	if b.Status != models.BookingStatusConfirmed {
		return nil, bookingRepo.ErrNoTransition
	}
	newRes := &models.SlotReservation{
		ID:        uuid.New().String(),
		ShopID:    b.ShopID,
		Date:      newDate,
		Time:      newTime,
		BookingID: b.ID,
		Status:    models.ReservationStatusBooked,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := f.claimLocked(newRes); err != nil {
		return nil, err
	}
	oldDate, oldTime := b.Date, b.Time
	b.PreviousDate, b.PreviousTime = oldDate, oldTime
	b.Date, b.Time = newDate, newTime
	b.LastModified = time.Now()
	f.retireLocked(bookingID, oldDate, oldTime)
	copied := *b
	return &copied, nil
}

func (f *fakeBookingRepo) SubscribeReservations(context.Context, string) (*bookingRepo.ReservationSubscription, error) {
	panic("SubscribeReservations not supported by fake")
}

// bookedCountAt reports how many booked reservations hold a slot. Used to
// assert the at-most-one invariant.
func (f *fakeBookingRepo) bookedCountAt(shopID, date, timeOfDay string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, r := range f.reservations {
		if r.ShopID == shopID && r.Date == date && r.Time == timeOfDay &&
			r.Status == models.ReservationStatusBooked {
			count++
		}
	}
	return count
}

// fakeShopRepo serves a fixed set of shops.
type fakeShopRepo struct {
	shops map[string]*models.Shop
}

func (f *fakeShopRepo) GetShopByID(_ context.Context, id string) (*models.Shop, error) {
	s, ok := f.shops[id]
	if !ok {
		return nil, shopRepo.ErrShopNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeShopRepo) UpdateAvailability(_ context.Context, id string, availability models.WeeklyAvailability) error {
	s, ok := f.shops[id]
	if !ok {
		return shopRepo.ErrShopNotFound
	}
	s.Availability = availability
	return nil
}

func (f *fakeShopRepo) GetRatingAggregate(_ context.Context, id string) (*models.RatingAggregate, error) {
	s, ok := f.shops[id]
	if !ok {
		return nil, shopRepo.ErrShopNotFound
	}
	return &s.Rating, nil
}

// fakeDispatcher records events and optionally fails.
type fakeDispatcher struct {
	mu     sync.Mutex
	events []models.BookingEvent
	fail   bool
}

func (f *fakeDispatcher) FireAndForget(_ context.Context, event models.BookingEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	if f.fail {
		return errors.New("simulated delivery failure")
	}
	return nil
}

func (f *fakeDispatcher) countByType(eventType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, e := range f.events {
		if e.Type == eventType {
			count++
		}
	}
	return count
}

// fakeScheduler records enqueued background tasks.
type fakeScheduler struct {
	mu        sync.Mutex
	retires   []string // booking ids
	reminders []string
}

func (f *fakeScheduler) EnqueueRetireReservation(_ context.Context, bookingID, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retires = append(f.retires, bookingID)
	return nil
}

func (f *fakeScheduler) EnqueueReminder(_ context.Context, bookingID string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reminders = append(f.reminders, bookingID)
	return nil
}

// pinClock fixes the service clock for the duration of the test.
func pinClock(t *testing.T, at time.Time) {
	t.Helper()
	saved := nowFn
	nowFn = func() time.Time { return at }
	t.Cleanup(func() { nowFn = saved })
}

// allWeekAvailability opens every weekday with the same window.
func allWeekAvailability(open, close string) models.WeeklyAvailability {
	avail := models.WeeklyAvailability{}
	for _, day := range []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"} {
		avail[day] = models.DayWindow{Open: open, Close: close}
	}
	return avail
}

func newTestService(shop *models.Shop) (*DefaultBookingService, *fakeBookingRepo, *fakeDispatcher, *fakeScheduler) {
	repo := newFakeBookingRepo()
	dispatcher := &fakeDispatcher{}
	scheduler := &fakeScheduler{}
	svc := &DefaultBookingService{
		Repo:               repo,
		ShopRepo:           &fakeShopRepo{shops: map[string]*models.Shop{shop.ID: shop}},
		Notifier:           dispatcher,
		Scheduler:          scheduler,
		GranularityMinutes: 30,
	}
	return svc, repo, dispatcher, scheduler
}
