package service

import (
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"

	"newsdeck/internal/model"
)

// CatalogService manages the in-memory feed/folder configuration plus the
// view preferences that travel with the settings snapshot. It is hydrated
// from a snapshot and materialized back into one; the sync layer decides
// when snapshots move.
type CatalogService interface {
	Feeds() []model.Feed
	Folders() []model.Folder

	AddFeed(feedURL, title string, folderID *string) (model.Feed, error)
	UpdateFeed(id, title string, folderID *string) (model.Feed, error)
	DeleteFeed(id string) error

	AddFolder(name string) (model.Folder, error)
	RenameFolder(id, name string) (model.Folder, error)
	DeleteFolder(id string) error

	SetTheme(theme string)
	SetArticleView(view string)
	SetLayout(layout model.LayoutPrefs)
	SetWidgets(widgets []model.Widget)

	Snapshot() model.Snapshot
	Replace(snapshot model.Snapshot)

	// OnChange registers a single listener invoked with the new snapshot
	// after every mutation. Replace does not fire it.
	OnChange(fn func(model.Snapshot))
}

type catalogService struct {
	mu       sync.RWMutex
	snapshot model.Snapshot
	onChange func(model.Snapshot)
}

// NewCatalogService starts from the given snapshot; pass
// model.DefaultSnapshot() for a fresh session.
func NewCatalogService(snapshot model.Snapshot) CatalogService {
	return &catalogService{snapshot: snapshot}
}

func (s *catalogService) Feeds() []model.Feed {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Feed(nil), s.snapshot.Feeds...)
}

func (s *catalogService) Folders() []model.Folder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Folder(nil), s.snapshot.Folders...)
}

func (s *catalogService) AddFeed(feedURL, title string, folderID *string) (model.Feed, error) {
	trimmedURL := strings.TrimSpace(feedURL)
	if !isValidURL(trimmedURL) {
		return model.Feed{}, ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, feed := range s.snapshot.Feeds {
		if feed.URL == trimmedURL {
			return model.Feed{}, ErrConflict
		}
	}
	if folderID != nil && !s.folderExistsLocked(*folderID) {
		return model.Feed{}, ErrNotFound
	}

	finalTitle := strings.TrimSpace(title)
	if finalTitle == "" {
		finalTitle = trimmedURL
	}

	feed := model.Feed{
		ID:       uuid.NewString(),
		URL:      trimmedURL,
		Title:    finalTitle,
		FolderID: folderID,
	}
	s.snapshot.Feeds = append(s.snapshot.Feeds, feed)
	s.fireLocked()
	return feed, nil
}

func (s *catalogService) UpdateFeed(id, title string, folderID *string) (model.Feed, error) {
	trimmedTitle := strings.TrimSpace(title)
	if trimmedTitle == "" {
		return model.Feed{}, ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if folderID != nil && !s.folderExistsLocked(*folderID) {
		return model.Feed{}, ErrNotFound
	}
	for i := range s.snapshot.Feeds {
		if s.snapshot.Feeds[i].ID == id {
			s.snapshot.Feeds[i].Title = trimmedTitle
			s.snapshot.Feeds[i].FolderID = folderID
			feed := s.snapshot.Feeds[i]
			s.fireLocked()
			return feed, nil
		}
	}
	return model.Feed{}, ErrNotFound
}

func (s *catalogService) DeleteFeed(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.snapshot.Feeds {
		if s.snapshot.Feeds[i].ID == id {
			s.snapshot.Feeds = append(s.snapshot.Feeds[:i], s.snapshot.Feeds[i+1:]...)
			s.fireLocked()
			return nil
		}
	}
	return ErrNotFound
}

func (s *catalogService) AddFolder(name string) (model.Folder, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return model.Folder{}, ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, folder := range s.snapshot.Folders {
		if folder.Name == trimmed {
			return model.Folder{}, ErrConflict
		}
	}

	folder := model.Folder{ID: uuid.NewString(), Name: trimmed}
	s.snapshot.Folders = append(s.snapshot.Folders, folder)
	s.fireLocked()
	return folder, nil
}

func (s *catalogService) RenameFolder(id, name string) (model.Folder, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return model.Folder{}, ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, folder := range s.snapshot.Folders {
		if folder.Name == trimmed && folder.ID != id {
			return model.Folder{}, ErrConflict
		}
	}
	for i := range s.snapshot.Folders {
		if s.snapshot.Folders[i].ID == id {
			s.snapshot.Folders[i].Name = trimmed
			folder := s.snapshot.Folders[i]
			s.fireLocked()
			return folder, nil
		}
	}
	return model.Folder{}, ErrNotFound
}

// DeleteFolder removes the folder and nulls FolderID on every member feed
// in the same critical section, so no feed ever references a nonexistent
// folder.
func (s *catalogService) DeleteFolder(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := -1
	for i := range s.snapshot.Folders {
		if s.snapshot.Folders[i].ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		return ErrNotFound
	}

	s.snapshot.Folders = append(s.snapshot.Folders[:index], s.snapshot.Folders[index+1:]...)
	for i := range s.snapshot.Feeds {
		if s.snapshot.Feeds[i].FolderID != nil && *s.snapshot.Feeds[i].FolderID == id {
			s.snapshot.Feeds[i].FolderID = nil
		}
	}
	s.fireLocked()
	return nil
}

func (s *catalogService) SetTheme(theme string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Theme = theme
	s.fireLocked()
}

func (s *catalogService) SetArticleView(view string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.ArticleView = view
	s.fireLocked()
}

func (s *catalogService) SetLayout(layout model.LayoutPrefs) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Layout = layout
	s.fireLocked()
}

func (s *catalogService) SetWidgets(widgets []model.Widget) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Widgets = append([]model.Widget(nil), widgets...)
	s.fireLocked()
}

func (s *catalogService) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

// Replace swaps in a downloaded snapshot wholesale. There is no merge:
// the incoming snapshot is the new state.
func (s *catalogService) Replace(snapshot model.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshot
}

func (s *catalogService) OnChange(fn func(model.Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

func (s *catalogService) folderExistsLocked(id string) bool {
	for _, folder := range s.snapshot.Folders {
		if folder.ID == id {
			return true
		}
	}
	return false
}

func (s *catalogService) copyLocked() model.Snapshot {
	snapshot := s.snapshot
	snapshot.Feeds = append([]model.Feed(nil), s.snapshot.Feeds...)
	snapshot.Folders = append([]model.Folder(nil), s.snapshot.Folders...)
	snapshot.Widgets = append([]model.Widget(nil), s.snapshot.Widgets...)
	return snapshot
}

func (s *catalogService) fireLocked() {
	if s.onChange != nil {
		s.onChange(s.copyLocked())
	}
}

func isValidURL(value string) bool {
	parsed, err := url.ParseRequestURI(value)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return parsed.Host != ""
}
