package service

import (
	"context"
	"sync"

	"newsdeck/internal/logger"
	"newsdeck/internal/model"
	"newsdeck/internal/store"
)

// GuestIdentity is the fixed identity used when nobody is signed in.
const GuestIdentity = "guest"

// OverlayService layers per-identity read/bookmark/tag state over the
// ephemeral article collection. Mutations are idempotent and flushed to
// local storage immediately; reads are pure lookups. Switching identity
// reloads the overlay wholesale so state never leaks between identities.
type OverlayService interface {
	MarkRead(id string)
	MarkUnread(id string)
	ToggleBookmark(id string)
	SetTags(id string, tags []string)

	IsRead(id string) bool
	IsBookmarked(id string) bool
	Tags(id string) []string

	Identity() string
	SwitchIdentity(ctx context.Context, identity string) error
}

type overlayService struct {
	store store.Store

	mu       sync.RWMutex
	identity string
	state    model.OverlayState
}

// NewOverlayService hydrates the overlay for the guest identity.
func NewOverlayService(ctx context.Context, st store.Store) (OverlayService, error) {
	state, err := st.LoadOverlay(ctx, GuestIdentity)
	if err != nil {
		return nil, err
	}
	return &overlayService{store: st, identity: GuestIdentity, state: state}, nil
}

func (s *overlayService) MarkRead(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Read[id] {
		// Already read: skip the redundant write.
		return
	}
	s.state.Read[id] = true
	s.persistLocked()
}

func (s *overlayService) MarkUnread(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Read[id] {
		return
	}
	delete(s.state.Read, id)
	s.persistLocked()
}

func (s *overlayService) ToggleBookmark(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Bookmarked[id] {
		delete(s.state.Bookmarked, id)
	} else {
		s.state.Bookmarked[id] = true
	}
	s.persistLocked()
}

func (s *overlayService) SetTags(id string, tags []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(tags) == 0 {
		delete(s.state.Tags, id)
	} else {
		s.state.Tags[id] = append([]string(nil), tags...)
	}
	s.persistLocked()
}

func (s *overlayService) IsRead(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Read[id]
}

func (s *overlayService) IsBookmarked(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Bookmarked[id]
}

func (s *overlayService) Tags(id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tags := s.state.Tags[id]
	if len(tags) == 0 {
		return nil
	}
	return append([]string(nil), tags...)
}

func (s *overlayService) Identity() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// SwitchIdentity replaces the in-memory overlay with the new identity's
// stored state. The departing identity's storage is left intact.
func (s *overlayService) SwitchIdentity(ctx context.Context, identity string) error {
	state, err := s.store.LoadOverlay(ctx, identity)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.identity = identity
	s.state = state
	s.mu.Unlock()
	return nil
}

// persistLocked flushes the overlay for the current identity. A storage
// failure is logged and dropped: the session keeps running, the write is
// simply lost.
func (s *overlayService) persistLocked() {
	if err := s.store.SaveOverlay(context.Background(), s.identity, s.state); err != nil {
		logger.Warn("overlay persist failed", "module", "service", "action", "persist", "resource", "overlay", "result", "failed", "identity", s.identity, "error", err)
	}
}
