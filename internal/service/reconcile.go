package service

import (
	"github.com/samber/lo"

	"github.com/billforge/billforge/internal/domain/invoice"
)

// removeCancellingPairs drops every already invoiced credit together with the
// item it reverses. Once both sides of a reversal are recorded they must not
// re-enter deduplication independently.
func removeCancellingPairs(existing []invoice.Item) []invoice.Item {
	cancelled := make(map[string]struct{})
	for _, item := range existing {
		if recurring, ok := item.(*invoice.RecurringItem); ok && recurring.Reverses() {
			cancelled[recurring.ID] = struct{}{}
			cancelled[recurring.ReversesItemID] = struct{}{}
			if recurring.ReversedItemID != "" {
				cancelled[recurring.ReversedItemID] = struct{}{}
			}
		}
	}

	return lo.Filter(existing, func(item invoice.Item, _ int) bool {
		_, ok := cancelled[item.GetID()]
		return !ok
	})
}

// removeDuplicates removes every proposed item that is semantically equal to
// a remaining existing item, and removes that existing item with it. A charge
// billed before and unchanged is re-emitted by expansion every run; dropping
// both sides of the match is what keeps generation idempotent.
func removeDuplicates(proposed, existing []invoice.Item) (newProposed, newExisting []invoice.Item) {
	matched := make(map[int]struct{}, len(existing))

	newProposed = make([]invoice.Item, 0, len(proposed))
	for _, p := range proposed {
		found := false
		for i, e := range existing {
			if _, ok := matched[i]; ok {
				continue
			}
			if e.MatchKey() == p.MatchKey() {
				matched[i] = struct{}{}
				found = true
				break
			}
		}
		if !found {
			newProposed = append(newProposed, p)
		}
	}

	newExisting = make([]invoice.Item, 0, len(existing))
	for i, e := range existing {
		if _, ok := matched[i]; !ok {
			newExisting = append(newExisting, e)
		}
	}
	return newProposed, newExisting
}
