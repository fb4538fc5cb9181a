// Package opml parses and renders OPML subscription lists.
package opml

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"
)

// OPML is the root of an OPML document.
type OPML struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr"`
	Head    Head     `xml:"head"`
	Body    Body     `xml:"body"`
}

// Head holds OPML metadata.
type Head struct {
	Title       string `xml:"title,omitempty"`
	DateCreated string `xml:"dateCreated,omitempty"`
}

// Body holds the outlines.
type Body struct {
	Outlines []Outline `xml:"outline"`
}

// Outline is a folder (nested outlines) or a feed (xmlUrl set).
type Outline struct {
	Text     string    `xml:"text,attr"`
	Title    string    `xml:"title,attr,omitempty"`
	Type     string    `xml:"type,attr,omitempty"`
	XMLURL   string    `xml:"xmlUrl,attr,omitempty"`
	HTMLURL  string    `xml:"htmlUrl,attr,omitempty"`
	Outlines []Outline `xml:"outline,omitempty"`
}

// FeedEntry is a flattened feed with the folder name it sits under, if any.
type FeedEntry struct {
	Folder string
	Title  string
	URL    string
}

// Parse reads an OPML document into a flat list of feed entries. Nested
// folders collapse to their top-level folder name.
func Parse(r io.Reader) ([]FeedEntry, error) {
	var doc OPML
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode opml: %w", err)
	}

	var entries []FeedEntry
	var walk func(outlines []Outline, folder string)
	walk = func(outlines []Outline, folder string) {
		for _, o := range outlines {
			if o.XMLURL != "" {
				title := o.Title
				if title == "" {
					title = o.Text
				}
				entries = append(entries, FeedEntry{Folder: folder, Title: title, URL: o.XMLURL})
				continue
			}
			if len(o.Outlines) > 0 {
				name := folder
				if name == "" {
					name = o.Text
					if name == "" {
						name = o.Title
					}
				}
				walk(o.Outlines, name)
			}
		}
	}
	walk(doc.Body.Outlines, "")

	return entries, nil
}

// Render serializes outlines into an OPML document.
func Render(title string, outlines []Outline) ([]byte, error) {
	doc := OPML{
		Version: "2.0",
		Head: Head{
			Title:       title,
			DateCreated: time.Now().UTC().Format(time.RFC1123Z),
		},
		Body: Body{Outlines: outlines},
	}
	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode opml: %w", err)
	}
	return append([]byte(xml.Header), data...), nil
}
