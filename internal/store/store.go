// Package store is the local persistent key-value layer: per-identity
// overlay state, the guest settings snapshot, and the shell cooldown
// timestamp.
package store

import (
	"context"
	"time"

	"newsdeck/internal/model"
)

//go:generate mockgen -destination=mock/store.go -package=mock newsdeck/internal/store Store

// Store is the local key-value persistence surface.
type Store interface {
	LoadOverlay(ctx context.Context, identity string) (model.OverlayState, error)
	SaveOverlay(ctx context.Context, identity string, state model.OverlayState) error
	LoadGuestSnapshot(ctx context.Context) (*model.Snapshot, error)
	SaveGuestSnapshot(ctx context.Context, snapshot model.Snapshot) error
	Cooldown(ctx context.Context) (time.Time, error)
	SetCooldown(ctx context.Context, t time.Time) error
	Close() error
}
