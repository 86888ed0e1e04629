package chatclient

import (
	"sort"

	"github.com/puretrustgold/puretrust-api/model"
)

// Reconcile merges newly arrived messages into the locally known set and
// returns a deduplicated transcript in chronological order.
//
// The merge is an id-keyed union with later-wins overwrite, so a
// server-confirmed copy replaces a local echo sharing its id, and re-delivery
// over the live feed is a no-op. CreatedAt is the sole ordering key (arrival
// order over the network carries no guarantee); ties break on id so the
// result is identical for any delivery order of the same message set.
//
// Reconcile never mutates its inputs. It is invoked both after a send
// resolves and once per live feed event, which is what keeps a sender's own
// echoed insert from rendering twice.
func Reconcile(known []model.ChatMessage, incoming ...model.ChatMessage) []model.ChatMessage {
	byID := make(map[string]model.ChatMessage, len(known)+len(incoming))
	for _, m := range known {
		byID[m.ID] = m
	}
	for _, m := range incoming {
		byID[m.ID] = m
	}

	merged := make([]model.ChatMessage, 0, len(byID))
	for _, m := range byID {
		merged = append(merged, m)
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].CreatedAt.Equal(merged[j].CreatedAt) {
			return merged[i].ID < merged[j].ID
		}
		return merged[i].CreatedAt.Before(merged[j].CreatedAt)
	})

	return merged
}
