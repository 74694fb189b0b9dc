package tracker

import (
	"context"
	"log/slog"

	"github.com/dealwatch/backend/internal/logger"
	"github.com/dealwatch/backend/internal/model"
)

// Deliverer sends one drop event to one user.
type Deliverer interface {
	Deliver(ctx context.Context, userID int64, event model.DropEvent) error
}

// DispatchResult counts deliveries for one event.
type DispatchResult struct {
	Sent   int
	Failed int
}

// Dispatcher fans a drop event out to its users.
type Dispatcher struct {
	channel Deliverer
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher over channel
func NewDispatcher(channel Deliverer, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{channel: channel, logger: log}
}

// Dispatch delivers event to every user in event.Users exactly once.
// A failure for one user is logged and never stops the others.
func (d *Dispatcher) Dispatch(ctx context.Context, event model.DropEvent) DispatchResult {
	var res DispatchResult
	for _, userID := range event.Users {
		log := logger.Enrich(logger.WithUserID(ctx, userID), d.logger)
		if err := d.channel.Deliver(ctx, userID, event); err != nil {
			res.Failed++
			log.Error("Failed to deliver price drop",
				slog.String("game_id", event.GameID),
				slog.String("store_id", event.StoreID),
				slog.String("error", err.Error()),
			)
			continue
		}
		res.Sent++
		log.Info("Delivered price drop",
			slog.String("game_id", event.GameID),
			slog.String("store_id", event.StoreID),
		)
	}
	return res
}
