package parse

import (
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"
)

// extractImage applies the image heuristic in priority order: a media
// content node marked as image, an enclosure with an image type, a media
// thumbnail, then the first <img> in the content or description HTML.
// Relative candidates resolve against base; unresolvable candidates are
// dropped rather than failing the article.
func extractImage(item *gofeed.Item, base string) string {
	if media, ok := item.Extensions["media"]; ok {
		for _, content := range media["content"] {
			medium := content.Attrs["medium"]
			contentType := content.Attrs["type"]
			if medium == "image" || strings.HasPrefix(contentType, "image") {
				if resolved := resolveURL(base, content.Attrs["url"]); resolved != "" {
					return resolved
				}
			}
		}
	}

	for _, enc := range item.Enclosures {
		if strings.HasPrefix(enc.Type, "image") {
			if resolved := resolveURL(base, enc.URL); resolved != "" {
				return resolved
			}
		}
	}

	if media, ok := item.Extensions["media"]; ok {
		for _, thumb := range media["thumbnail"] {
			if resolved := resolveURL(base, thumb.Attrs["url"]); resolved != "" {
				return resolved
			}
		}
	}

	for _, body := range []string{item.Content, item.Description} {
		if src := firstImgSrc(body); src != "" {
			if resolved := resolveURL(base, src); resolved != "" {
				return resolved
			}
		}
	}

	return ""
}

// firstImgSrc returns the src of the first <img> element in the fragment.
func firstImgSrc(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	root, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return ""
	}

	var walk func(n *html.Node) string
	walk = func(n *html.Node) string {
		if n.Type == html.ElementNode && n.Data == "img" {
			for _, attr := range n.Attr {
				if attr.Key == "src" && strings.TrimSpace(attr.Val) != "" {
					return strings.TrimSpace(attr.Val)
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if src := walk(child); src != "" {
				return src
			}
		}
		return ""
	}
	return walk(root)
}

func resolveURL(base, candidate string) string {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return ""
	}
	ref, err := url.Parse(candidate)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}
	baseURL, err := url.Parse(base)
	if err != nil || baseURL.Host == "" {
		return ""
	}
	return baseURL.ResolveReference(ref).String()
}
