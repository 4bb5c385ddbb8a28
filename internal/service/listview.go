package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/assignment-portal/internal/models"
	"github.com/RubachokBoss/assignment-portal/internal/service/integration"
)

// FetchFunc loads one course/batch list from the LMS API.
type FetchFunc[T any] func(ctx context.Context, token string, sel models.Selection) ([]T, error)

// Listing is what a filtered list view renders.
type Listing[T any] struct {
	Items     []T
	Selection models.Selection
	// Fetched is false when no request was made
	Fetched bool
	// Warning is set when the request failed and Items is the last good list
	Warning string
}

type cachedList[T any] struct {
	items     []T
	updatedAt time.Time
}

// ListView is the filtered-list state of one view for every session. The
// last successful list per session and selection is kept so a failed
// refetch leaves it visible.
type ListView[T any] struct {
	name   string
	fetch  FetchFunc[T]
	logger zerolog.Logger
	now    func() time.Time

	mu    sync.Mutex
	lists map[string]map[models.Selection]cachedList[T]
}

func NewListView[T any](name string, fetch FetchFunc[T], logger zerolog.Logger) *ListView[T] {
	return &ListView[T]{
		name:   name,
		fetch:  fetch,
		logger: logger.With().Str("component", "list_view").Str("view", name).Logger(),
		now:    time.Now,
		lists:  make(map[string]map[models.Selection]cachedList[T]),
	}
}

// Load fetches the list for sel. Without a complete selection nothing is
// requested and the list is empty.
func (v *ListView[T]) Load(ctx context.Context, sid, token string, sel models.Selection) (Listing[T], error) {
	out := Listing[T]{Items: []T{}, Selection: sel}
	if !sel.Complete() {
		return out, nil
	}

	items, err := v.fetch(ctx, token, sel)
	if err != nil {
		if errors.Is(err, integration.ErrUnauthorized) {
			return out, err
		}
		v.logger.Error().Err(err).Str("session_id", sid).Msg("Failed to fetch list")

		out.Items = v.cached(sid, sel)
		out.Warning = "Failed to load " + v.name + ": " + integration.MessageOr(err, tryAgain)
		return out, nil
	}

	v.store(sid, sel, items)
	out.Items = items
	out.Fetched = true
	return out, nil
}

// Find looks an item up in the last fetched list.
func (v *ListView[T]) Find(sid string, sel models.Selection, match func(T) bool) (T, bool) {
	for _, item := range v.cached(sid, sel) {
		if match(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Drop removes matching items from the list kept for sid and sel, so a
// failed refetch after a delete never brings the item back.
func (v *ListView[T]) Drop(sid string, sel models.Selection, match func(T) bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	l, ok := v.lists[sid][sel]
	if !ok {
		return
	}
	kept := make([]T, 0, len(l.items))
	for _, item := range l.items {
		if !match(item) {
			kept = append(kept, item)
		}
	}
	l.items = kept
	v.lists[sid][sel] = l
}

// Forget drops everything kept for a session.
func (v *ListView[T]) Forget(sid string) {
	v.mu.Lock()
	delete(v.lists, sid)
	v.mu.Unlock()
}

// Purge drops lists not refreshed since cutoff and returns how many.
func (v *ListView[T]) Purge(cutoff time.Time) int {
	v.mu.Lock()
	defer v.mu.Unlock()

	n := 0
	for sid, bySel := range v.lists {
		for sel, l := range bySel {
			if l.updatedAt.Before(cutoff) {
				delete(bySel, sel)
				n++
			}
		}
		if len(bySel) == 0 {
			delete(v.lists, sid)
		}
	}
	return n
}

func (v *ListView[T]) cached(sid string, sel models.Selection) []T {
	v.mu.Lock()
	defer v.mu.Unlock()

	l, ok := v.lists[sid][sel]
	if !ok {
		return []T{}
	}
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

func (v *ListView[T]) store(sid string, sel models.Selection, items []T) {
	kept := make([]T, len(items))
	copy(kept, items)

	v.mu.Lock()
	defer v.mu.Unlock()

	bySel, ok := v.lists[sid]
	if !ok {
		bySel = make(map[models.Selection]cachedList[T])
		v.lists[sid] = bySel
	}
	bySel[sel] = cachedList[T]{items: kept, updatedAt: v.now()}
}
