package notify

import (
	"context"
	"log/slog"

	"github.com/dealwatch/backend/internal/logger"
	"github.com/dealwatch/backend/internal/model"
	"github.com/dealwatch/backend/pkg/currency"
)

// LogChannel writes deliveries to the log instead of sending them.
type LogChannel struct {
	quoter *currency.Quoter
	logger *slog.Logger
}

// NewLogChannel creates a LogChannel
func NewLogChannel(quoter *currency.Quoter, log *slog.Logger) *LogChannel {
	if log == nil {
		log = slog.Default()
	}
	return &LogChannel{quoter: quoter, logger: log}
}

// Deliver logs the message that would be sent to userID
func (c *LogChannel) Deliver(ctx context.Context, userID int64, event model.DropEvent) error {
	log := logger.Enrich(ctx, c.logger)
	log.Info("Price drop notification",
		slog.Int64("user_id", userID),
		slog.String("game_id", event.GameID),
		slog.String("store_id", event.StoreID),
		slog.String("text", FormatDropMessage(event, quoteFor(ctx, c.quoter, log))),
	)
	return nil
}
