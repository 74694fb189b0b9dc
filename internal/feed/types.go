package feed

import (
	"encoding/json"

	"github.com/dealwatch/backend/internal/model"
)

// GameSnapshot is one fetch of a game: its title and the current
// snapshot per store ID.
type GameSnapshot struct {
	GameID    string
	Title     string
	Thumbnail string
	Prices    map[string]model.PriceSnapshot
}

// Wire formats of the CheapShark API.

type gameLookupResponse struct {
	Info struct {
		Title string `json:"title"`
		Thumb string `json:"thumb"`
	} `json:"info"`
	Deals []struct {
		StoreID     string `json:"storeID"`
		DealID      string `json:"dealID"`
		Price       string `json:"price"`
		RetailPrice string `json:"retailPrice"`
		Savings     string `json:"savings"`
	} `json:"deals"`
}

type gameSearchResult struct {
	GameID         string `json:"gameID"`
	Cheapest       string `json:"cheapest"`
	CheapestDealID string `json:"cheapestDealID"`
	External       string `json:"external"`
	Thumb          string `json:"thumb"`
}

type storeResult struct {
	StoreID   string `json:"storeID"`
	StoreName string `json:"storeName"`
	IsActive  int    `json:"isActive"`
	Images    struct {
		Logo string `json:"logo"`
	} `json:"images"`
}

type dealResult struct {
	DealID      string `json:"dealID"`
	GameID      string `json:"gameID"`
	Title       string `json:"title"`
	StoreID     string `json:"storeID"`
	SalePrice   string `json:"salePrice"`
	NormalPrice string `json:"normalPrice"`
	Savings     string `json:"savings"`
	Thumb       string `json:"thumb"`
}

// isEmptyJSON reports whether the feed answered with no data. An unknown
// game ID yields an empty array instead of a lookup object.
func isEmptyJSON(body json.RawMessage) bool {
	s := string(body)
	return s == "" || s == "null" || s == "[]" || s == "{}"
}
