package geocode

import (
	"context"
	"time"

	"golang.org/x/exp/slog"
	"golang.org/x/sync/singleflight"

	"cardkeeper/internal/app/client/backend"
	"cardkeeper/internal/domain/card"
)

// DefaultDelay - пауза между внешними запросами
const DefaultDelay = 600 * time.Millisecond

// Report - итог восстановления координат
type Report struct {
	Fixed   int
	Failed  int
	Skipped int
}

type RepairOption func(*Repairer)

func WithDelay(d time.Duration) RepairOption {
	return func(r *Repairer) {
		if d >= 0 {
			r.delay = d
		}
	}
}

// Repairer последовательно геокодирует карточки пользователя, у которых
// есть адрес, но нет координат
type Repairer struct {
	backend  backend.Backend
	geocoder Geocoder
	delay    time.Duration
	log      *slog.Logger
	flight   singleflight.Group
}

func NewRepairer(b backend.Backend, g Geocoder, log *slog.Logger, opts ...RepairOption) *Repairer {
	r := &Repairer{
		backend:  b,
		geocoder: g,
		delay:    DefaultDelay,
		log:      log.With("component", "geocode_repair"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run чинит карточки userID. Одновременные вызовы для одного пользователя
// присоединяются к уже идущему прогону.
func (r *Repairer) Run(ctx context.Context, userID string) (Report, error) {
	v, err, shared := r.flight.Do(userID, func() (any, error) {
		return r.run(ctx, userID)
	})
	if shared {
		r.log.Debug("joined in-flight repair", "user_id", userID)
	}

	report, _ := v.(Report)
	return report, err
}

func (r *Repairer) run(ctx context.Context, userID string) (Report, error) {
	var report Report

	cards, err := r.backend.GetCards(ctx, userID, backend.ScopeMine)
	if err != nil {
		return report, err
	}

	calls := 0
	for i := range cards {
		c := &cards[i]
		if !card.NeedsGeocoding(*c) {
			report.Skipped++
			continue
		}

		if calls > 0 {
			if err := sleep(ctx, r.delay); err != nil {
				return report, err
			}
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		calls++

		pt, err := r.geocoder.Geocode(ctx, c.Address)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return report, ctxErr
		}
		if err != nil || pt == nil {
			report.Failed++
			r.log.Info("address not resolved", "card_id", c.ID, "address", c.Address, "error", err)
			continue
		}

		c.SetLocation(pt.Lat, pt.Lng)
		// уже найденные координаты сохраняем даже при отмене
		if err := r.backend.SaveCard(context.WithoutCancel(ctx), c); err != nil {
			report.Failed++
			r.log.Warn("failed to save repaired card", "card_id", c.ID, "error", err)
			continue
		}
		report.Fixed++
	}

	r.log.Info("geocode repair finished",
		"user_id", userID,
		"fixed", report.Fixed,
		"failed", report.Failed,
		"skipped", report.Skipped,
	)
	return report, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
