package model

import (
	"errors"
	"net/mail"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativePrice   = errors.New("price must not be negative")
	ErrDiscountRange   = errors.New("discount percent must be between 0 and 100")
	ErrMissingGameID   = errors.New("game id is required")
	ErrMissingStoreID  = errors.New("store id is required")
	ErrNegativeCeiling = errors.New("price ceiling must not be negative")
	ErrInvalidUserID   = errors.New("user id must be positive")
	ErrInvalidEmail    = errors.New("email address is invalid")
)

// PreviousPriceUnknown is reported for a drop seen on the first observation of a pair.
const PreviousPriceUnknown = "unknown"

// Game is a title from the upstream catalog. The ID is opaque.
type Game struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Thumbnail string    `db:"thumbnail" json:"thumbnail,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Store is a digital storefront selling games.
type Store struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Logo      string    `db:"logo" json:"logo,omitempty"`
	IsActive  bool      `db:"is_active" json:"isActive"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// PriceSnapshot is one observation of price and discount for a (game, store) pair.
type PriceSnapshot struct {
	GameID          string          `db:"game_id" json:"gameId"`
	StoreID         string          `db:"store_id" json:"storeId"`
	Price           decimal.Decimal `db:"price" json:"price"`
	RetailPrice     decimal.Decimal `db:"retail_price" json:"retailPrice"`
	DiscountPercent int             `db:"discount_percent" json:"discountPercent"`
	ObservedAt      time.Time       `db:"observed_at" json:"observedAt"`
}

// Key identifies the (game, store) pair of the snapshot.
func (p PriceSnapshot) Key() string {
	return p.GameID + "/" + p.StoreID
}

// Validate checks the snapshot invariants.
func (p PriceSnapshot) Validate() error {
	if p.GameID == "" {
		return ErrMissingGameID
	}
	if p.StoreID == "" {
		return ErrMissingStoreID
	}
	if p.Price.IsNegative() || p.RetailPrice.IsNegative() {
		return ErrNegativePrice
	}
	if p.DiscountPercent < 0 || p.DiscountPercent > 100 {
		return ErrDiscountRange
	}
	return nil
}

// SubscriptionFilters narrow which drops reach a subscriber. A nil field means no filter.
type SubscriptionFilters struct {
	PriceCeiling *decimal.Decimal `db:"price_ceiling" json:"priceCeiling,omitempty"`
	MinDiscount  *int             `db:"min_discount" json:"minDiscount,omitempty"`
}

// Validate checks filter values.
func (f SubscriptionFilters) Validate() error {
	if f.PriceCeiling != nil && f.PriceCeiling.IsNegative() {
		return ErrNegativeCeiling
	}
	if f.MinDiscount != nil && (*f.MinDiscount < 0 || *f.MinDiscount > 100) {
		return ErrDiscountRange
	}
	return nil
}

// Admits reports whether a snapshot passes the filters.
func (f SubscriptionFilters) Admits(s PriceSnapshot) bool {
	if f.PriceCeiling != nil && s.Price.GreaterThan(*f.PriceCeiling) {
		return false
	}
	if f.MinDiscount != nil && s.DiscountPercent < *f.MinDiscount {
		return false
	}
	return true
}

// User is a chat user. The ID is the chat the bot talks to.
type User struct {
	ID        int64     `db:"id" json:"id"`
	Username  string    `db:"username" json:"username,omitempty"`
	FirstName string    `db:"first_name" json:"firstName,omitempty"`
	LastName  string    `db:"last_name" json:"lastName,omitempty"`
	Email     string    `db:"email" json:"email,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// UserProfile is a partial profile update. Nil fields keep the stored value.
type UserProfile struct {
	Username  *string `json:"username,omitempty"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Email     *string `json:"email,omitempty"`
}

// Validate checks the email address when one is given. An empty string clears it.
func (p UserProfile) Validate() error {
	if p.Email != nil && *p.Email != "" {
		addr, err := mail.ParseAddress(*p.Email)
		if err != nil || addr.Address != *p.Email {
			return ErrInvalidEmail
		}
	}
	return nil
}

// Subscription is a user's interest in price drops for one game.
// At most one exists per (user, game).
type Subscription struct {
	UserID    int64     `db:"user_id" json:"userId"`
	GameID    string    `db:"game_id" json:"gameId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	SubscriptionFilters
}

// UserSubscription is the per-user view of a subscription.
type UserSubscription struct {
	Subscription
	GameTitle   string         `json:"gameTitle"`
	Thumbnail   string         `json:"thumbnail,omitempty"`
	LowestPrice *PriceSnapshot `json:"lowestPrice,omitempty"`
}

// DropEvent is produced once per cycle per qualifying (game, store) pair.
// It is never persisted.
type DropEvent struct {
	GameID    string         `json:"gameId"`
	GameTitle string         `json:"gameTitle"`
	StoreID   string         `json:"storeId"`
	StoreName string         `json:"storeName"`
	Previous  *PriceSnapshot `json:"previous,omitempty"`
	Current   PriceSnapshot  `json:"current"`
	Users     []int64        `json:"users"`
}

// FirstSighting reports whether the pair had no stored price before this drop.
func (e DropEvent) FirstSighting() bool {
	return e.Previous == nil
}

// PreviousPriceLabel returns the previous price as text, or "unknown".
func (e DropEvent) PreviousPriceLabel() string {
	if e.Previous == nil {
		return PreviousPriceUnknown
	}
	return e.Previous.Price.StringFixed(2)
}
