package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"

	"feedbook/pkg/domain"
)

// ValidateRSS checks that the document has a recognizable RSS root element.
// It only inspects the first start element, so trailing markup oddities in
// otherwise usable feeds don't fail the check.
func ValidateRSS(doc []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(doc))
	dec.Strict = false
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return domain.ErrNotRSSFeed
			}
			return fmt.Errorf("%w: %s", domain.ErrNotRSSFeed, err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			if strings.EqualFold(start.Name.Local, "rss") {
				return nil
			}
			return domain.ErrNotRSSFeed
		}
	}
}

// Normalize extracts articles from a fetched document using the strategy
// picked by Classify. Items are returned in document order, capped by limit
// (0 means unbounded). Absent fields are empty strings.
func Normalize(doc []byte, sourceURL string, kind domain.FeedKind, limit int) ([]domain.Article, error) {
	if kind == domain.KindWrapped {
		return normalizeWrapped(doc, sourceURL, limit)
	}
	return normalizePlain(doc, sourceURL, limit)
}

// normalizePlain reads article fields directly from sibling entry fields,
// with the media extension supplying the image link when present
func normalizePlain(doc []byte, sourceURL string, limit int) ([]domain.Article, error) {
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	articles := make([]domain.Article, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if limit > 0 && len(articles) >= limit {
			break
		}
		articles = append(articles, domain.Article{
			SourceURL:   sourceURL,
			FeedTitle:   parsed.Title,
			Title:       item.Title,
			Description: strings.TrimSpace(item.Description),
			Published:   item.Published,
			Link:        item.Link,
			ImageLink:   itemImageLink(item),
		})
	}
	return articles, nil
}

// itemImageLink pulls the image URL from the media:content extension,
// falling back to the first image enclosure
func itemImageLink(item *gofeed.Item) string {
	if exts, ok := item.Extensions["media"]["content"]; ok && len(exts) > 0 {
		if url := exts[0].Attrs["url"]; url != "" {
			return url
		}
	}
	for _, enc := range item.Enclosures {
		if strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}
	return ""
}

// normalizeWrapped recovers description and image link by re-parsing the
// escaped payload embedded in each entry's description field. The article
// link comes from the text node right after the link element: the permissive
// parser treats link as a void element, so its URL ends up as a sibling.
func normalizeWrapped(doc []byte, sourceURL string, limit int) ([]domain.Article, error) {
	gq, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("parse feed markup: %w", err)
	}

	feedTitle := strings.TrimSpace(gq.Find("channel > title").First().Text())
	payloads := itemPayloads(doc, 0) // one per entry in document order, "" when absent

	var articles []domain.Article
	gq.Find("item").EachWithBreak(func(i int, item *goquery.Selection) bool {
		if limit > 0 && len(articles) >= limit {
			return false
		}

		art := domain.Article{
			SourceURL: sourceURL,
			FeedTitle: feedTitle,
			Title:     strings.TrimSpace(item.Find("title").First().Text()),
			Published: strings.TrimSpace(item.Find("pubdate").First().Text()),
			Link:      linkSiblingText(item),
		}
		if i < len(payloads) && payloads[i] != "" {
			art.Description, art.ImageLink = parsePayload(payloads[i])
		}

		articles = append(articles, art)
		return true
	})
	return articles, nil
}

// linkSiblingText collects the text nodes following an entry's link element
func linkSiblingText(item *goquery.Selection) string {
	link := item.Find("link")
	if link.Length() == 0 {
		return ""
	}
	var b strings.Builder
	for n := link.Get(0).NextSibling; n != nil && n.Type == html.TextNode; n = n.NextSibling {
		b.WriteString(n.Data)
	}
	return strings.TrimSpace(b.String())
}

// parsePayload reads the first paragraph and first image out of the embedded
// markup fragment
func parsePayload(payload string) (description, imageLink string) {
	inner, err := goquery.NewDocumentFromReader(strings.NewReader(payload))
	if err != nil {
		return "", ""
	}
	description = strings.TrimSpace(inner.Find("p").First().Text())
	imageLink = inner.Find("img").First().AttrOr("src", "")
	return description, imageLink
}
