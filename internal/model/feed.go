package model

// Feed is a user-configured subscription.
type Feed struct {
	ID       string  `json:"id"`
	URL      string  `json:"url"`
	Title    string  `json:"title"`
	IconURL  string  `json:"iconUrl,omitempty"`
	FolderID *string `json:"folderId,omitempty"`
}
