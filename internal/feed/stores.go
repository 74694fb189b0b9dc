package feed

import (
	"sort"
	"strconv"

	"github.com/dealwatch/backend/internal/model"
)

func storeList(m map[string]model.Store) []model.Store {
	out := make([]model.Store, 0, len(m))
	for _, s := range m {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return lessID(out[i].ID, out[j].ID) })
	return out
}

func sortStorePrices(prices []model.StorePrice) {
	sort.Slice(prices, func(i, j int) bool {
		if !prices[i].Price.Equal(prices[j].Price) {
			return prices[i].Price.LessThan(prices[j].Price)
		}
		return lessID(prices[i].StoreID, prices[j].StoreID)
	})
}

// lessID orders numeric IDs numerically and everything else lexically.
func lessID(a, b string) bool {
	ai, errA := strconv.Atoi(a)
	bi, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return ai < bi
	}
	return a < b
}
