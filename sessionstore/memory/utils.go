package memory

import (
	"sort"

	"github.com/w-h-a/recall/sessionstore"
)

func sortByTimestamp(msgs []sessionstore.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
}
