package tracker

import (
	"sort"

	"github.com/dealwatch/backend/internal/model"
)

// DefaultDiscountThreshold is the discount a snapshot must exceed to be considered at all.
const DefaultDiscountThreshold = 10

// Policy decides which price changes are notifiable drops.
type Policy struct {
	// Threshold is exclusive: a discount equal to it is ignored.
	Threshold int
	// NotifyFirstSighting treats the first observation of a discounted pair as a drop.
	NotifyFirstSighting bool
}

// DefaultPolicy returns the default drop policy
func DefaultPolicy() Policy {
	return Policy{
		Threshold:           DefaultDiscountThreshold,
		NotifyFirstSighting: true,
	}
}

// Qualifies reports whether a snapshot is discounted enough to be tracked.
// Snapshots that do not qualify must not touch the price store.
func (p Policy) Qualifies(current model.PriceSnapshot) bool {
	return current.DiscountPercent > p.Threshold
}

// IsDrop compares a qualifying snapshot with the one it replaced.
// previous is nil on the first observation of the pair.
func (p Policy) IsDrop(previous *model.PriceSnapshot, current model.PriceSnapshot) bool {
	if !p.Qualifies(current) {
		return false
	}
	if previous == nil {
		return p.NotifyFirstSighting
	}
	return previous.Price.IsPositive() && current.Price.LessThan(previous.Price)
}

// FilterSubscribers returns the users whose filters admit the snapshot,
// in ascending order with duplicates removed.
func FilterSubscribers(subs []model.Subscription, current model.PriceSnapshot) []int64 {
	seen := make(map[int64]struct{}, len(subs))
	users := make([]int64, 0, len(subs))
	for _, sub := range subs {
		if !sub.Admits(current) {
			continue
		}
		if _, dup := seen[sub.UserID]; dup {
			continue
		}
		seen[sub.UserID] = struct{}{}
		users = append(users, sub.UserID)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users
}

// Evaluate applies the policy and the subscriber filters to one pair.
// It returns the users to notify, or nil when there is nothing to send.
func Evaluate(p Policy, previous *model.PriceSnapshot, current model.PriceSnapshot, subs []model.Subscription) []int64 {
	if !p.IsDrop(previous, current) {
		return nil
	}
	users := FilterSubscribers(subs, current)
	if len(users) == 0 {
		return nil
	}
	return users
}
