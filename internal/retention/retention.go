package retention

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"booktalk/internal/applog"
	"booktalk/internal/config"
	"booktalk/internal/storage"
)

// sidecarSuffix marks transcript files written next to synthesized audio.
const sidecarSuffix = ".txt"

// ActiveKeys reports objects that are still in use and must survive a sweep.
// session.Store satisfies it with the sessions' active documents.
type ActiveKeys interface {
	ActiveDocumentKeys(ctx context.Context) ([]string, error)
}

// Janitor prunes stored uploads and speech by age and by count.
type Janitor struct {
	store    storage.Storage
	active   ActiveKeys
	folders  []string
	maxAge   time.Duration
	maxFiles int
	interval time.Duration
	now      func() time.Time
}

func NewJanitor(store storage.Storage, cfg config.RetentionConfig, folders ...string) *Janitor {
	return &Janitor{
		store:    store,
		folders:  folders,
		maxAge:   cfg.MaxAge,
		maxFiles: cfg.MaxFiles,
		interval: cfg.Interval,
		now:      time.Now,
	}
}

// Protect exempts the keys reported by src from every rule. Protected objects do not
// count toward the per-folder cap.
func (j *Janitor) Protect(src ActiveKeys) *Janitor {
	j.active = src
	return j
}

// Enabled reports whether any pruning rule is configured.
func (j *Janitor) Enabled() bool {
	return j.maxAge > 0 || j.maxFiles > 0
}

// Run sweeps once immediately and then on every interval until ctx is done.
func (j *Janitor) Run(ctx context.Context) {
	if !j.Enabled() {
		return
	}
	interval := j.interval
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		if _, err := j.Sweep(ctx); err != nil && ctx.Err() == nil {
			applog.Error("retention", "sweep_failed", err, nil)
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

type entry struct {
	primary  storage.Entry
	sidecars []string
}

// Sweep applies the rules to every folder and returns how many objects were removed.
// A transcript sidecar is removed together with the audio it belongs to.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	if !j.Enabled() {
		return 0, nil
	}
	pinned, err := j.pinned(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, folder := range j.folders {
		objs, err := j.store.List(ctx, folder)
		if err != nil {
			return removed, err
		}
		entries := group(objs)
		sort.Slice(entries, func(a, b int) bool {
			return entries[a].primary.LastModified.Before(entries[b].primary.LastModified)
		})

		cutoff := j.now().Add(-j.maxAge)
		keep := entries[:0]
		var drop []entry
		for _, e := range entries {
			if _, ok := pinned[e.primary.Key]; ok {
				continue
			}
			if j.maxAge > 0 && e.primary.LastModified.Before(cutoff) {
				drop = append(drop, e)
				continue
			}
			keep = append(keep, e)
		}
		if j.maxFiles > 0 && len(keep) > j.maxFiles {
			excess := len(keep) - j.maxFiles
			drop = append(drop, keep[:excess]...)
		}

		for _, e := range drop {
			for _, key := range append([]string{e.primary.Key}, e.sidecars...) {
				if err := j.store.Delete(ctx, key); err != nil {
					return removed, err
				}
				removed++
			}
		}
	}
	if removed > 0 {
		applog.Info("retention", "sweep_completed", map[string]any{"removed": removed})
	}
	return removed, nil
}

// pinned loads the protected keys. A failure aborts the sweep rather than risk
// deleting a document a session still answers from.
func (j *Janitor) pinned(ctx context.Context) (map[string]struct{}, error) {
	if j.active == nil {
		return nil, nil
	}
	keys, err := j.active.ActiveDocumentKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active documents: %w", err)
	}
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set, nil
}

func group(objs []storage.Entry) []entry {
	byKey := make(map[string]int, len(objs))
	var entries []entry
	for _, o := range objs {
		if strings.HasSuffix(o.Key, sidecarSuffix) {
			continue
		}
		byKey[o.Key] = len(entries)
		entries = append(entries, entry{primary: o})
	}
	for _, o := range objs {
		if !strings.HasSuffix(o.Key, sidecarSuffix) {
			continue
		}
		if i, ok := byKey[strings.TrimSuffix(o.Key, sidecarSuffix)]; ok {
			entries[i].sidecars = append(entries[i].sidecars, o.Key)
			continue
		}
		entries = append(entries, entry{primary: o})
	}
	return entries
}
