package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"trimly/models"
	"trimly/utils"

	"go.uber.org/zap"
)

const availabilityCacheTTL = 60 * time.Second

// GenerateSlots derives the bookable time-of-day strings for one date from a
// shop's weekly availability. Pure and deterministic: a closed day yields an
// empty sequence, otherwise slots step from the open time by the granularity.
// The closing time itself is included, so a 09:00-17:00 day at 30 minutes
// ends with "17:00" (the last appointment starts exactly at close).
func GenerateSlots(weekly models.WeeklyAvailability, date string, granularityMinutes int) ([]string, error) {
	if granularityMinutes <= 0 {
		return nil, utils.NewValidationError("granularity must be positive, got %d", granularityMinutes)
	}
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, utils.NewValidationError("invalid date %q, want YYYY-MM-DD", date)
	}

	window, ok := weekly[strings.ToLower(day.Weekday().String())]
	if !ok {
		return []string{}, nil
	}

	open, err := parseMinutes(window.Open)
	if err != nil {
		return nil, fmt.Errorf("invalid open time %q: %w", window.Open, err)
	}
	close, err := parseMinutes(window.Close)
	if err != nil {
		return nil, fmt.Errorf("invalid close time %q: %w", window.Close, err)
	}

	var slots []string
	for m := open; m <= close; m += granularityMinutes {
		slots = append(slots, fmt.Sprintf("%02d:%02d", m/60, m%60))
	}
	return slots, nil
}

func parseMinutes(hhmm string) (int, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// CheckAvailability returns the day view for a shop: every derivable slot
// with a booked flag. The view is cached briefly in Redis and invalidated on
// any occupancy mutation.
func (s *DefaultBookingService) CheckAvailability(ctx context.Context, shopID, date string) (*models.DayAvailability, error) {
	logger := utils.GetLogger()

	if s.Cache != nil {
		if cached, err := s.Cache.Get(ctx, availabilityCacheKey(shopID, date)).Result(); err == nil {
			var view models.DayAvailability
			if err := json.Unmarshal([]byte(cached), &view); err == nil {
				return &view, nil
			}
		}
	}

	shop, err := s.ShopRepo.GetShopByID(ctx, shopID)
	if err != nil {
		return nil, s.mapShopError(shopID, err)
	}

	granularity := shop.GranularityMinutes
	if granularity <= 0 {
		granularity = s.GranularityMinutes
	}
	slots, err := GenerateSlots(shop.Availability, date, granularity)
	if err != nil {
		return nil, err
	}

	reservations, err := s.Repo.ListActiveReservations(ctx, shopID, date)
	if err != nil {
		return nil, &utils.TransientError{Op: "list reservations", Err: err}
	}
	booked := make(map[string]bool, len(reservations))
	for _, r := range reservations {
		booked[r.Time] = true
	}

	view := &models.DayAvailability{ShopID: shopID, Date: date, Slots: make([]models.SlotView, 0, len(slots))}
	for _, t := range slots {
		view.Slots = append(view.Slots, models.SlotView{Time: t, Booked: booked[t]})
	}

	if s.Cache != nil {
		if data, err := json.Marshal(view); err == nil {
			if err := s.Cache.Set(ctx, availabilityCacheKey(shopID, date), data, availabilityCacheTTL).Err(); err != nil {
				logger.Warn("failed to cache availability view", zap.String("shop", shopID), zap.Error(err))
			}
		}
	}
	return view, nil
}

func availabilityCacheKey(shopID, date string) string {
	return "avail:" + shopID + ":" + date
}

// invalidateAvailability drops the cached day view after an occupancy change.
// Best-effort: a stale entry only lives until the TTL anyway.
func (s *DefaultBookingService) invalidateAvailability(ctx context.Context, shopID string, dates ...string) {
	if s.Cache == nil {
		return
	}
	for _, d := range dates {
		if err := s.Cache.Del(ctx, availabilityCacheKey(shopID, d)).Err(); err != nil {
			utils.GetLogger().Warn("failed to invalidate availability cache",
				zap.String("shop", shopID), zap.String("date", d), zap.Error(err))
		}
	}
}
