package service

import (
	"time"
)

// DefaultLinkedInTokenLifetime applies when the token endpoint omits expires_in.
const DefaultLinkedInTokenLifetime = 5184000

func GetExpiresAt(expiresIn int64) time.Time {
	if expiresIn <= 0 {
		expiresIn = DefaultLinkedInTokenLifetime
	}
	return time.Now().Add(time.Duration(expiresIn) * time.Second)
}

// dedupeIDs drops repeated ids, keeping first-seen order.
func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
