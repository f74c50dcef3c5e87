package rating

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	bookingRepo "trimly/database/repository/booking"
	ratingRepo "trimly/database/repository/rating"
	shopRepo "trimly/database/repository/shop"
	"trimly/models"
	"trimly/utils"
)

// fakeStore backs both the booking lookup and the rating commit so the
// is_rated guard and the aggregate merge can be exercised against shared
// state, under one mutex, the way the transactional store behaves.
type fakeStore struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
	ratings  map[string]*models.Rating
	shop     *models.Shop
}

func newFakeStore(shop *models.Shop) *fakeStore {
	return &fakeStore{
		bookings: make(map[string]*models.Booking),
		ratings:  make(map[string]*models.Rating),
		shop:     shop,
	}
}

func (f *fakeStore) addBooking(b *models.Booking) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookings[b.ID] = b
}

// --- ratingRepo.RatingRepository ---

func (f *fakeStore) CommitRating(_ context.Context, rating *models.Rating) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[rating.BookingID]
	if !ok || b.IsRated {
		return fmt.Errorf("commit rating for booking %s: %w", rating.BookingID, ratingRepo.ErrAlreadyRated)
	}
	b.IsRated = true
	b.RatingID = rating.ID
	stored := *rating
	f.ratings[rating.ID] = &stored

	agg := &f.shop.Rating
	if agg.Distribution == nil {
		agg.Distribution = make(map[string]int)
	}
	agg.Count++
	agg.Sum += int64(rating.Value)
	agg.Distribution[strconv.Itoa(rating.Value)]++
	agg.Average = float64(agg.Sum) / float64(agg.Count)
	return nil
}

func (f *fakeStore) GetRatingByID(_ context.Context, id string) (*models.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.ratings[id]
	if !ok {
		return nil, ratingRepo.ErrRatingNotFound
	}
	copied := *r
	return &copied, nil
}

func (f *fakeStore) ListShopRatings(_ context.Context, shopID string) ([]models.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Rating
	for _, r := range f.ratings {
		if r.ShopID == shopID {
			out = append(out, *r)
		}
	}
	return out, nil
}

// --- the slice of bookingRepo.BookingRepository the service uses ---

func (f *fakeStore) GetBookingByID(_ context.Context, id string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, fmt.Errorf("fetch booking %s: %w", id, bookingRepo.ErrBookingNotFound)
	}
	copied := *b
	return &copied, nil
}

func (f *fakeStore) ListShopBookings(context.Context, string, string) ([]models.Booking, error) {
	panic("not used")
}
func (f *fakeStore) CountActiveBookingsAt(context.Context, string, string, string, string) (int64, error) {
	panic("not used")
}
func (f *fakeStore) ConfirmBooking(context.Context, string) (*models.Booking, error) {
	panic("not used")
}
func (f *fakeStore) CancelBooking(context.Context, string, string, string) (*models.Booking, error) {
	panic("not used")
}
func (f *fakeStore) FlagForReconciliation(context.Context, string) error { panic("not used") }
func (f *fakeStore) ClaimSlot(context.Context, *models.SlotReservation) error {
	panic("not used")
}
func (f *fakeStore) RetireReservation(context.Context, string, string, string) error {
	panic("not used")
}
func (f *fakeStore) GetActiveReservation(context.Context, string, string, string) (*models.SlotReservation, error) {
	panic("not used")
}
func (f *fakeStore) ListActiveReservations(context.Context, string, string) ([]models.SlotReservation, error) {
	panic("not used")
}
func (f *fakeStore) CreateBookingTransactionally(context.Context, *models.Booking) error {
	panic("not used")
}
func (f *fakeStore) RescheduleTransactionally(context.Context, string, string, string) (*models.Booking, error) {
	panic("not used")
}
func (f *fakeStore) SubscribeReservations(context.Context, string) (*bookingRepo.ReservationSubscription, error) {
	panic("not used")
}

// --- shopRepo.ShopRepository ---

func (f *fakeStore) GetShopByID(_ context.Context, id string) (*models.Shop, error) {
	if id != f.shop.ID {
		return nil, shopRepo.ErrShopNotFound
	}
	return f.shop, nil
}

func (f *fakeStore) UpdateAvailability(context.Context, string, models.WeeklyAvailability) error {
	panic("not used")
}

func (f *fakeStore) GetRatingAggregate(_ context.Context, id string) (*models.RatingAggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id != f.shop.ID {
		return nil, shopRepo.ErrShopNotFound
	}
	agg := f.shop.Rating
	return &agg, nil
}

// pinClock fixes the service clock for the duration of the test.
func pinClock(t *testing.T, at time.Time) {
	t.Helper()
	saved := nowFn
	nowFn = func() time.Time { return at }
	t.Cleanup(func() { nowFn = saved })
}

// completedBooking is confirmed and in the past relative to ratingClock.
func completedBooking(id, shopID, customerID string) *models.Booking {
	return &models.Booking{
		ID:         id,
		ShopID:     shopID,
		CustomerID: customerID,
		Status:     models.BookingStatusConfirmed,
		Date:       "2026-01-10",
		Time:       "10:00",
	}
}

var ratingClock = time.Date(2026, 1, 15, 12, 0, 0, 0, time.Local)

func newTestService() (*DefaultRatingService, *fakeStore) {
	store := newFakeStore(&models.Shop{ID: "shopX", OwnerID: "owner1", Name: "Trim Town"})
	svc := &DefaultRatingService{
		Repo:        store,
		BookingRepo: store,
		ShopRepo:    store,
	}
	return svc, store
}

func TestSubmitRatingValueRange(t *testing.T) {
	svc, store := newTestService()
	store.addBooking(completedBooking("b1", "shopX", "cust1"))

	for _, value := range []int{0, 6, -3} {
		_, err := svc.SubmitRating(context.Background(), SubmitRatingRequest{
			BookingID: "b1", CustomerID: "cust1", Value: value,
		})
		var vErr *utils.ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("value %d: error type = %T, want *utils.ValidationError", value, err)
		}
	}
}

func TestSubmitRatingUnknownBooking(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.SubmitRating(context.Background(), SubmitRatingRequest{
		BookingID: "ghost", CustomerID: "cust1", Value: 4,
	})
	var nfErr *utils.NotFoundError
	if !errors.As(err, &nfErr) {
		t.Fatalf("error type = %T, want *utils.NotFoundError", err)
	}
}

func TestSubmitRatingWrongCustomer(t *testing.T) {
	svc, store := newTestService()
	store.addBooking(completedBooking("b1", "shopX", "cust1"))

	_, err := svc.SubmitRating(context.Background(), SubmitRatingRequest{
		BookingID: "b1", CustomerID: "someone-else", Value: 4,
	})
	var vErr *utils.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error type = %T, want *utils.ValidationError", err)
	}
}

func TestSubmitRatingRequiresCompleted(t *testing.T) {
	svc, store := newTestService()
	pinClock(t, ratingClock)
	store.addBooking(&models.Booking{
		ID: "b1", ShopID: "shopX", CustomerID: "cust1",
		Status: models.BookingStatusConfirmed,
		Date:   "2026-01-20", Time: "10:00",
	})

	_, err := svc.SubmitRating(context.Background(), SubmitRatingRequest{
		BookingID: "b1", CustomerID: "cust1", Value: 4,
	})
	var vErr *utils.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error type = %T, want *utils.ValidationError", err)
	}
}

func TestSubmitRatingOnce(t *testing.T) {
	svc, store := newTestService()
	pinClock(t, ratingClock)
	store.addBooking(completedBooking("b1", "shopX", "cust1"))
	ctx := context.Background()

	rating, err := svc.SubmitRating(ctx, SubmitRatingRequest{
		BookingID: "b1", CustomerID: "cust1", Value: 5, Review: "great cut",
	})
	if err != nil {
		t.Fatalf("SubmitRating: %v", err)
	}
	if rating.Value != 5 || rating.ShopID != "shopX" {
		t.Errorf("rating = %+v, want value 5 for shopX", rating)
	}

	_, err = svc.SubmitRating(ctx, SubmitRatingRequest{
		BookingID: "b1", CustomerID: "cust1", Value: 3,
	})
	var vErr *utils.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("second submit: error type = %T, want *utils.ValidationError", err)
	}

	agg := store.shop.Rating
	if agg.Count != 1 || agg.Sum != 5 || agg.Average != 5 {
		t.Errorf("aggregate = %+v, want count 1 sum 5 average 5", agg)
	}
	if agg.Distribution["5"] != 1 {
		t.Errorf("distribution[5] = %d, want 1", agg.Distribution["5"])
	}
}

func TestGetShopRating(t *testing.T) {
	svc, store := newTestService()
	pinClock(t, ratingClock)
	store.addBooking(completedBooking("b1", "shopX", "cust1"))
	ctx := context.Background()

	if _, err := svc.SubmitRating(ctx, SubmitRatingRequest{
		BookingID: "b1", CustomerID: "cust1", Value: 4,
	}); err != nil {
		t.Fatalf("SubmitRating: %v", err)
	}

	agg, err := svc.GetShopRating(ctx, "shopX")
	if err != nil {
		t.Fatalf("GetShopRating: %v", err)
	}
	if agg.Count != 1 || agg.Average != 4 {
		t.Errorf("aggregate = %+v, want count 1 average 4", agg)
	}

	_, err = svc.GetShopRating(ctx, "ghost")
	var nfErr *utils.NotFoundError
	if !errors.As(err, &nfErr) {
		t.Fatalf("unknown shop: error type = %T, want *utils.NotFoundError", err)
	}
}

func TestSubmitRatingConcurrentMerge(t *testing.T) {
	svc, store := newTestService()
	pinClock(t, ratingClock)
	ctx := context.Background()

	const n = 25
	for i := 0; i < n; i++ {
		store.addBooking(completedBooking(fmt.Sprintf("b%d", i), "shopX", fmt.Sprintf("cust%d", i)))
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.SubmitRating(ctx, SubmitRatingRequest{
				BookingID:  fmt.Sprintf("b%d", i),
				CustomerID: fmt.Sprintf("cust%d", i),
				Value:      1 + i%5,
			})
			if err != nil {
				t.Errorf("SubmitRating b%d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	agg := store.shop.Rating
	if agg.Count != n {
		t.Fatalf("aggregate count = %d, want %d (lost updates)", agg.Count, n)
	}
	var wantSum int64
	for i := 0; i < n; i++ {
		wantSum += int64(1 + i%5)
	}
	if agg.Sum != wantSum {
		t.Errorf("aggregate sum = %d, want %d", agg.Sum, wantSum)
	}
	if want := float64(wantSum) / float64(n); agg.Average != want {
		t.Errorf("aggregate average = %v, want %v", agg.Average, want)
	}
}
