package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"newsdeck/internal/cloud"
	"newsdeck/internal/logger"
	"newsdeck/internal/model"
	"newsdeck/internal/store"
)

// SyncStatus is the observable sync state. Success and Error revert to
// Idle after a short display window.
type SyncStatus string

const (
	SyncIdle    SyncStatus = "idle"
	SyncSyncing SyncStatus = "syncing"
	SyncSuccess SyncStatus = "success"
	SyncError   SyncStatus = "error"
)

const statusDisplayWindow = 3 * time.Second

// SyncService moves the settings snapshot between the local session and
// the cloud blob store. A downloaded snapshot replaces local configuration
// wholesale; a failed push never touches the last-known-good state.
type SyncService interface {
	SignIn(ctx context.Context, identity string) error
	SignOut(ctx context.Context) error
	// SyncNow is the user-triggered upload, with visible status transitions.
	SyncNow(ctx context.Context) error
	// CheckAndSync silently uploads when the last sync is older than the
	// configured threshold. Failures are logged, never surfaced.
	CheckAndSync(ctx context.Context) error

	Status() SyncStatus
	LastSync() time.Time
	Identity() string
}

type syncService struct {
	catalog  CatalogService
	overlay  OverlayService
	blobs    cloud.BlobStore
	local    store.Store
	blobName string
	maxAge   time.Duration

	mu       sync.Mutex
	status   SyncStatus
	identity string
	blobID   string
	lastSync time.Time
}

// NewSyncService wires the sync layer and registers the catalog change
// listener that mirrors guest-mode settings into local storage.
func NewSyncService(catalog CatalogService, overlay OverlayService, blobs cloud.BlobStore, local store.Store, blobName string, maxAge time.Duration) SyncService {
	s := &syncService{
		catalog:  catalog,
		overlay:  overlay,
		blobs:    blobs,
		local:    local,
		blobName: blobName,
		maxAge:   maxAge,
		status:   SyncIdle,
		identity: GuestIdentity,
	}
	catalog.OnChange(s.snapshotChanged)
	return s
}

// SignIn hydrates the overlay for the identity, then reconciles settings
// with the cloud: an existing snapshot replaces local state wholesale; a
// missing one means first run, and the current local state is pushed as
// the initial sync without surfacing the Syncing transition.
func (s *syncService) SignIn(ctx context.Context, identity string) error {
	if err := s.overlay.SwitchIdentity(ctx, identity); err != nil {
		return fmt.Errorf("switch overlay: %w", err)
	}
	s.mu.Lock()
	s.identity = identity
	s.mu.Unlock()

	id, err := s.blobs.Find(ctx, s.blobName)
	if errors.Is(err, cloud.ErrNotFound) {
		id, err = s.blobs.Create(ctx, s.blobName)
		if err != nil {
			return fmt.Errorf("create settings blob: %w", err)
		}
		s.setBlobID(id)
		logger.Info("first sign-in, pushing local settings", "module", "service", "action", "sync", "resource", "settings", "result", "ok", "identity", identity)
		return s.upload(ctx)
	}
	if err != nil {
		return fmt.Errorf("find settings blob: %w", err)
	}
	s.setBlobID(id)

	data, err := s.blobs.Read(ctx, id)
	if err != nil {
		return fmt.Errorf("read settings blob: %w", err)
	}
	if len(data) == 0 {
		// Blob exists but was never written; same as first run.
		return s.upload(ctx)
	}

	var snapshot model.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return fmt.Errorf("decode settings blob: %w", err)
	}

	s.catalog.Replace(snapshot)
	s.mu.Lock()
	s.lastSync = time.Now().UTC()
	s.mu.Unlock()
	logger.Info("settings replaced from cloud", "module", "service", "action", "sync", "resource", "settings", "result", "ok", "identity", identity, "feeds", len(snapshot.Feeds))
	return nil
}

// SignOut reverts the in-memory session to defaults. The departing
// identity's local storage stays intact for a later sign-in.
func (s *syncService) SignOut(ctx context.Context) error {
	if err := s.overlay.SwitchIdentity(ctx, GuestIdentity); err != nil {
		return fmt.Errorf("switch overlay: %w", err)
	}
	s.catalog.Replace(model.DefaultSnapshot())

	s.mu.Lock()
	s.identity = GuestIdentity
	s.blobID = ""
	s.lastSync = time.Time{}
	s.status = SyncIdle
	s.mu.Unlock()
	return nil
}

func (s *syncService) SyncNow(ctx context.Context) error {
	s.mu.Lock()
	if s.status == SyncSyncing {
		s.mu.Unlock()
		return ErrSyncInFlight
	}
	s.status = SyncSyncing
	s.mu.Unlock()

	if err := s.upload(ctx); err != nil {
		s.setStatusWithRevert(SyncError)
		logger.Error("manual sync failed", "module", "service", "action", "sync", "resource", "settings", "result", "failed", "error", err)
		return err
	}
	s.setStatusWithRevert(SyncSuccess)
	return nil
}

func (s *syncService) CheckAndSync(ctx context.Context) error {
	s.mu.Lock()
	identity := s.identity
	last := s.lastSync
	s.mu.Unlock()

	if identity == GuestIdentity {
		return nil
	}
	if !last.IsZero() && time.Since(last) <= s.maxAge {
		return nil
	}

	if err := s.upload(ctx); err != nil {
		// Silent path: the last-known-good timestamp stays untouched.
		logger.Warn("periodic sync failed", "module", "service", "action", "sync", "resource", "settings", "result", "failed", "error", err)
		return err
	}
	return nil
}

func (s *syncService) Status() SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *syncService) LastSync() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSync
}

func (s *syncService) Identity() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// upload pushes the full current snapshot. Only a successful write
// advances the sync timestamp.
func (s *syncService) upload(ctx context.Context) error {
	snapshot := s.catalog.Snapshot()
	snapshot.SyncedAt = time.Now().UTC()

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	id, err := s.ensureBlob(ctx)
	if err != nil {
		return err
	}
	if err := s.blobs.Write(ctx, id, data); err != nil {
		return fmt.Errorf("write settings blob: %w", err)
	}

	s.mu.Lock()
	s.lastSync = snapshot.SyncedAt
	s.mu.Unlock()
	return nil
}

func (s *syncService) ensureBlob(ctx context.Context) (string, error) {
	s.mu.Lock()
	id := s.blobID
	s.mu.Unlock()
	if id != "" {
		return id, nil
	}

	id, err := s.blobs.Find(ctx, s.blobName)
	if errors.Is(err, cloud.ErrNotFound) {
		id, err = s.blobs.Create(ctx, s.blobName)
	}
	if err != nil {
		return "", fmt.Errorf("locate settings blob: %w", err)
	}
	s.setBlobID(id)
	return id, nil
}

func (s *syncService) setBlobID(id string) {
	s.mu.Lock()
	s.blobID = id
	s.mu.Unlock()
}

func (s *syncService) setStatusWithRevert(status SyncStatus) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()

	time.AfterFunc(statusDisplayWindow, func() {
		s.mu.Lock()
		if s.status == status {
			s.status = SyncIdle
		}
		s.mu.Unlock()
	})
}

// snapshotChanged mirrors guest-mode settings into the local store so an
// unauthenticated session survives restarts.
func (s *syncService) snapshotChanged(snapshot model.Snapshot) {
	s.mu.Lock()
	identity := s.identity
	s.mu.Unlock()
	if identity != GuestIdentity {
		return
	}
	if err := s.local.SaveGuestSnapshot(context.Background(), snapshot); err != nil {
		logger.Warn("guest snapshot persist failed", "module", "service", "action", "persist", "resource", "settings", "result", "failed", "error", err)
	}
}
