package store

import (
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/kilupskalvis/sitestore/internal/kv"
	"github.com/kilupskalvis/sitestore/internal/models"
)

// evictFraction of each submission collection is dropped per eviction pass.
const evictFraction = 0.2

// Evict frees capacity by dropping the oldest submissions (contacts,
// newsletter subscribers, job applications), each collection independently.
// Content and user collections are never touched. It reports whether the
// freed bytes reach half of neededBytes; an insufficient pass is not an error.
func (s *Store) Evict(neededBytes int64) bool {
	return s.evict(neededBytes, "")
}

// evict skips the collection under writing: the retried write replaces it
// whole, so records dropped from it would be restored or lost for nothing.
func (s *Store) evict(neededBytes int64, writing Key) bool {
	passes := []struct {
		key Key
		run func() int64
	}{
		{KeyContacts, func() int64 {
			return evictOldest(s, KeyContacts, func(c models.Contact) time.Time { return c.SubmittedAt })
		}},
		{KeyNewsletter, func() int64 {
			return evictOldest(s, KeyNewsletter, func(v models.Subscriber) time.Time { return v.SubscribedAt })
		}},
		{KeyApplications, func() int64 {
			return evictOldest(s, KeyApplications, func(a models.Application) time.Time { return a.AppliedAt })
		}},
	}

	var freed int64
	for _, p := range passes {
		if p.key == writing {
			continue
		}
		freed += p.run()
	}
	s.quota.Invalidate()

	ok := freed*2 >= neededBytes
	s.logger.Info("store: eviction finished",
		"freed_bytes", freed,
		"needed_bytes", neededBytes,
		"skipped_key", writing,
		"sufficient", ok)
	return ok
}

// evictOldest removes the oldest share of one collection and saves it on its
// own, so a failure here never blocks the other collections. Survivors keep
// their stored order. It returns the bytes freed.
func evictOldest[T any](s *Store, key Key, ts func(T) time.Time) int64 {
	raw, ok, err := s.backend.Get(string(key))
	if err != nil || !ok {
		return 0
	}

	var recs []T
	if err := json.Unmarshal([]byte(raw), &recs); err != nil || len(recs) == 0 {
		return 0
	}

	n := len(recs)
	count := int(math.Ceil(float64(n) * evictFraction))

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return ts(recs[order[a]]).Before(ts(recs[order[b]]))
	})

	drop := make(map[int]bool, count)
	for _, i := range order[:count] {
		drop[i] = true
	}
	kept := make([]T, 0, n-count)
	for i, r := range recs {
		if !drop[i] {
			kept = append(kept, r)
		}
	}

	data, err := json.Marshal(kept)
	if err != nil {
		s.logger.Warn("store: eviction marshal failed", "key", key, "error", err)
		return 0
	}
	if res := s.tryWrite(key, string(data)); res.Status != WriteOK {
		s.logger.Warn("store: eviction save failed", "key", key, "status", res.Status, "error", res.Err)
		return 0
	}

	s.logger.Info("store: evicted oldest records", "key", key, "removed", count, "remaining", len(kept))
	s.emitKey(key)
	return int64(kv.CodeUnits(raw)-kv.CodeUnits(string(data))) * int64(s.quota.cfg.BytesPerChar)
}
