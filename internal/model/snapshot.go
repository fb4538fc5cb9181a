package model

import "time"

// Widget is an opaque shell surface (magic feed, dashboard tile) carried
// through the snapshot so sync round-trips it without interpreting it.
type Widget struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Title string `json:"title,omitempty"`
}

// LayoutPrefs are view preferences synchronized with the snapshot.
type LayoutPrefs struct {
	SidebarCollapsed bool `json:"sidebarCollapsed"`
	ShowImages       bool `json:"showImages"`
	Compact          bool `json:"compact"`
}

// Snapshot is the unit of settings synchronization. A downloaded snapshot
// replaces local configuration wholesale, never field-by-field.
type Snapshot struct {
	Feeds       []Feed      `json:"feeds"`
	Folders     []Folder    `json:"folders"`
	Widgets     []Widget    `json:"widgets,omitempty"`
	Theme       string      `json:"theme"`
	ArticleView string      `json:"articleView"`
	Layout      LayoutPrefs `json:"layout"`
	SyncedAt    time.Time   `json:"syncedAt"`
}

// DefaultSnapshot returns the configuration a fresh session starts from.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Theme:       "system",
		ArticleView: "card",
		Layout:      LayoutPrefs{ShowImages: true},
	}
}
