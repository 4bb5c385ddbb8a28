package repository

import (
	"context"
	"time"
)

// Keys kept per browser session. They mirror what the portal front-end kept
// in local storage.
const (
	KeyUser           = "user"
	KeyAuthToken      = "authToken"
	KeySelectedCourse = "selectedCourse"
	KeySelectedBatch  = "selectedBatch"
	KeySection        = "section"
)

// StorageRepository is a per-session key/value store.
type StorageRepository interface {
	Get(ctx context.Context, sessionID, key string) (string, bool, error)
	Set(ctx context.Context, sessionID, key, value string) error
	Remove(ctx context.Context, sessionID string, keys ...string) error
	Clear(ctx context.Context, sessionID string) error
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Ping(ctx context.Context) error
}
