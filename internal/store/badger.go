package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"newsdeck/internal/model"
)

const (
	guestSnapshotKey = "settings:guest"
	cooldownKey      = "cooldown"
)

// overlayKey namespaces overlay state per identity.
func overlayKey(identity string) []byte {
	return []byte("overlay:" + identity)
}

type badgerStore struct {
	db *badger.DB
}

// Open opens (or creates) the badger database at path.
func Open(path string) (Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open store at %s: %w", path, err)
	}
	return &badgerStore{db: db}, nil
}

func (s *badgerStore) Close() error {
	return s.db.Close()
}

func (s *badgerStore) LoadOverlay(ctx context.Context, identity string) (model.OverlayState, error) {
	state := model.NewOverlayState()
	raw, err := s.get(overlayKey(identity))
	if err != nil {
		return state, err
	}
	if raw == nil {
		return state, nil
	}
	if err := json.Unmarshal(raw, &state); err != nil {
		return model.NewOverlayState(), fmt.Errorf("decode overlay %s: %w", identity, err)
	}
	if state.Read == nil {
		state.Read = make(map[string]bool)
	}
	if state.Bookmarked == nil {
		state.Bookmarked = make(map[string]bool)
	}
	if state.Tags == nil {
		state.Tags = make(map[string][]string)
	}
	return state, nil
}

func (s *badgerStore) SaveOverlay(ctx context.Context, identity string, state model.OverlayState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode overlay %s: %w", identity, err)
	}
	return s.set(overlayKey(identity), raw)
}

func (s *badgerStore) LoadGuestSnapshot(ctx context.Context) (*model.Snapshot, error) {
	raw, err := s.get([]byte(guestSnapshotKey))
	if err != nil || raw == nil {
		return nil, err
	}
	var snapshot model.Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("decode guest snapshot: %w", err)
	}
	return &snapshot, nil
}

func (s *badgerStore) SaveGuestSnapshot(ctx context.Context, snapshot model.Snapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode guest snapshot: %w", err)
	}
	return s.set([]byte(guestSnapshotKey), raw)
}

func (s *badgerStore) Cooldown(ctx context.Context) (time.Time, error) {
	raw, err := s.get([]byte(cooldownKey))
	if err != nil || raw == nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, string(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cooldown: %w", err)
	}
	return t, nil
}

func (s *badgerStore) SetCooldown(ctx context.Context, t time.Time) error {
	return s.set([]byte(cooldownKey), []byte(t.UTC().Format(time.RFC3339)))
}

// get returns nil with no error for a missing key.
func (s *badgerStore) get(key []byte) ([]byte, error) {
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return raw, nil
}

func (s *badgerStore) set(key, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
