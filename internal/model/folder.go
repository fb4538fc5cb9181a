package model

// Folder groups feeds. Feeds hold the reference via FolderID; deleting a
// folder nulls that reference on every member feed, it never cascades.
type Folder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
