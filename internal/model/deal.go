package model

import (
	"github.com/shopspring/decimal"
)

// Deal is one row of the feed's current-deals listing.
type Deal struct {
	DealID          string          `json:"dealId"`
	GameID          string          `json:"gameId"`
	Title           string          `json:"title"`
	StoreID         string          `json:"storeId"`
	StoreName       string          `json:"storeName"`
	Price           decimal.Decimal `json:"price"`
	RetailPrice     decimal.Decimal `json:"retailPrice"`
	DiscountPercent int             `json:"discountPercent"`
	Thumbnail       string          `json:"thumbnail,omitempty"`
}

// GameSummary is a search hit.
type GameSummary struct {
	GameID       string          `json:"gameId"`
	Title        string          `json:"title"`
	Cheapest     decimal.Decimal `json:"cheapest"`
	Thumbnail    string          `json:"thumbnail,omitempty"`
	CheapestDeal string          `json:"cheapestDealId,omitempty"`
}

// StorePrice is the price of a game at one store.
type StorePrice struct {
	StoreID         string          `json:"storeId"`
	StoreName       string          `json:"storeName"`
	Price           decimal.Decimal `json:"price"`
	RetailPrice     decimal.Decimal `json:"retailPrice"`
	DiscountPercent int             `json:"discountPercent"`
}

// GameDetails is a game with its current per-store prices.
type GameDetails struct {
	GameID    string       `json:"gameId"`
	Title     string       `json:"title"`
	Thumbnail string       `json:"thumbnail,omitempty"`
	Prices    []StorePrice `json:"prices"`
}

// Cheapest returns the lowest store price, or nil when no store sells the game.
func (d GameDetails) Cheapest() *StorePrice {
	var best *StorePrice
	for i := range d.Prices {
		if best == nil || d.Prices[i].Price.LessThan(best.Price) {
			best = &d.Prices[i]
		}
	}
	return best
}
