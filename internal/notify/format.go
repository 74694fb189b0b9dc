// Package notify delivers price drop events to users.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dealwatch/backend/internal/model"
	"github.com/dealwatch/backend/pkg/currency"
)

// FormatDropMessage renders the alert text sent to a user. Event prices are
// USD and are converted with quote.
//
//	🔥 Price Drop Alert! 🔥
//
//	Game: LEGO Batman
//
//	🏪 Steam: $30.00 (was $40.00, -62%)
//
//	Use /search LEGO Batman to get more details!
func FormatDropMessage(event model.DropEvent, quote currency.Quote) string {
	title := event.GameTitle
	if title == "" {
		title = "Unknown Game"
	}

	var b strings.Builder
	b.WriteString("🔥 Price Drop Alert! 🔥\n\n")
	fmt.Fprintf(&b, "Game: %s\n\n", title)

	current := quote.Format(event.Current.Price)
	if event.FirstSighting() {
		fmt.Fprintf(&b, "🏪 %s: %s (was %s, regular %s, -%d%%)\n",
			event.StoreName, current, model.PreviousPriceUnknown,
			quote.Format(event.Current.RetailPrice), event.Current.DiscountPercent)
	} else {
		fmt.Fprintf(&b, "🏪 %s: %s (was %s, -%d%%)\n",
			event.StoreName, current, quote.Format(event.Previous.Price), event.Current.DiscountPercent)
	}

	fmt.Fprintf(&b, "\nUse /search %s to get more details!", title)
	return b.String()
}

// FormatDropSubject is the email subject for an alert.
func FormatDropSubject(event model.DropEvent) string {
	title := event.GameTitle
	if title == "" {
		title = "Unknown Game"
	}
	return "Price Drop Alert: " + title
}

// quoteFor resolves the display quote, falling back to USD prices when rates
// are unavailable.
func quoteFor(ctx context.Context, quoter *currency.Quoter, log *slog.Logger) currency.Quote {
	quote, err := quoter.Quote(ctx)
	if err != nil && log != nil {
		log.Warn("Exchange rate unavailable, formatting in USD",
			slog.String("currency", string(quoter.Currency())),
			slog.String("error", err.Error()),
		)
	}
	return quote
}
