package model

// OverlayState is the persisted per-identity read/bookmark/tag overlay,
// keyed by article identity.
type OverlayState struct {
	Read       map[string]bool     `json:"read"`
	Bookmarked map[string]bool     `json:"bookmarked"`
	Tags       map[string][]string `json:"tags,omitempty"`
}

// NewOverlayState returns an empty overlay with all maps allocated.
func NewOverlayState() OverlayState {
	return OverlayState{
		Read:       make(map[string]bool),
		Bookmarked: make(map[string]bool),
		Tags:       make(map[string][]string),
	}
}
