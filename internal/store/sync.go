package store

import (
	"context"

	"github.com/kilupskalvis/sitestore/internal/kv"
)

// Sync re-emits the topic of every key another process changes, until ctx is
// done. Listeners run on the watcher's goroutine. Concurrent writers across
// processes are last-write-wins per collection.
func (s *Store) Sync(ctx context.Context, w kv.Watcher) error {
	return w.Watch(ctx, func(key string) {
		s.quota.Invalidate()
		if t, ok := keyTopics[Key(key)]; ok {
			s.logger.Debug("store: external change", "key", key, "topic", t)
			s.bus.Emit(t)
		}
	})
}
