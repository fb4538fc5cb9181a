package service

import (
	"errors"
	"io"

	"newsdeck/internal/config"
	"newsdeck/internal/logger"
	"newsdeck/internal/opml"
)

// OPMLService imports and exports the feed catalog as OPML.
type OPMLService interface {
	Import(r io.Reader) (ImportResult, error)
	Export() ([]byte, error)
}

type ImportResult struct {
	FoldersCreated int `json:"foldersCreated"`
	FeedsCreated   int `json:"feedsCreated"`
	FeedsSkipped   int `json:"feedsSkipped"`
}

type opmlService struct {
	catalog CatalogService
}

func NewOPMLService(catalog CatalogService) OPMLService {
	return &opmlService{catalog: catalog}
}

// Import adds feeds from an OPML document into the catalog. Feeds whose
// URL already exists are skipped; folders are reused by name.
func (s *opmlService) Import(r io.Reader) (ImportResult, error) {
	entries, err := opml.Parse(r)
	if err != nil {
		return ImportResult{}, ErrInvalid
	}

	result := ImportResult{}
	folderIDs := make(map[string]string)
	for _, folder := range s.catalog.Folders() {
		folderIDs[folder.Name] = folder.ID
	}

	for _, entry := range entries {
		var folderID *string
		if entry.Folder != "" {
			id, ok := folderIDs[entry.Folder]
			if !ok {
				folder, err := s.catalog.AddFolder(entry.Folder)
				if err != nil {
					logger.Warn("opml folder skipped", "module", "service", "action", "import", "resource", "opml", "result", "failed", "folder", entry.Folder, "error", err)
					continue
				}
				id = folder.ID
				folderIDs[entry.Folder] = id
				result.FoldersCreated++
			}
			folderID = &id
		}

		if _, err := s.catalog.AddFeed(entry.URL, entry.Title, folderID); err != nil {
			if errors.Is(err, ErrConflict) {
				result.FeedsSkipped++
				continue
			}
			logger.Warn("opml feed skipped", "module", "service", "action", "import", "resource", "opml", "result", "failed", "url", entry.URL, "error", err)
			result.FeedsSkipped++
			continue
		}
		result.FeedsCreated++
	}

	logger.Info("opml import finished", "module", "service", "action", "import", "resource", "opml", "result", "ok", "created", result.FeedsCreated, "skipped", result.FeedsSkipped)
	return result, nil
}

// Export renders the catalog as OPML grouped by folder.
func (s *opmlService) Export() ([]byte, error) {
	feeds := s.catalog.Feeds()
	folders := s.catalog.Folders()

	byFolder := make(map[string][]opml.Outline)
	var loose []opml.Outline
	for _, feed := range feeds {
		outline := opml.Outline{
			Text:   feed.Title,
			Title:  feed.Title,
			Type:   "rss",
			XMLURL: feed.URL,
		}
		if feed.FolderID != nil {
			byFolder[*feed.FolderID] = append(byFolder[*feed.FolderID], outline)
			continue
		}
		loose = append(loose, outline)
	}

	var outlines []opml.Outline
	for _, folder := range folders {
		outlines = append(outlines, opml.Outline{
			Text:     folder.Name,
			Title:    folder.Name,
			Outlines: byFolder[folder.ID],
		})
	}
	outlines = append(outlines, loose...)

	return opml.Render(config.AppName+" subscriptions", outlines)
}
