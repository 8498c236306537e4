package render

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-pkgz/lgr"
	"github.com/hokaccha/go-prettyjson"

	"feedbook/pkg/domain"
)

// Projection is the structured-text view of one article, a normalized field
// subset with the feed identity alongside
type Projection struct {
	Feed    string `json:"Feed"`
	URL     string `json:"URL"`
	Article struct {
		Title       string `json:"title"`
		Published   string `json:"pubdate"`
		Description string `json:"description"`
		Link        string `json:"link"`
		ImageLink   string `json:"img_link"`
	} `json:"Article"`
}

// Project maps articles to their structured-text projections
func Project(articles []domain.Article) []Projection {
	out := make([]Projection, 0, len(articles))
	for _, art := range articles {
		var p Projection
		p.Feed = art.FeedTitle
		p.URL = art.SourceURL
		p.Article.Title = art.Title
		p.Article.Published = art.Published
		p.Article.Description = art.Description
		p.Article.Link = art.Link
		p.Article.ImageLink = art.ImageLink
		out = append(out, p)
	}
	return out
}

// JSONText serializes the articles' projections. With colorize set the output
// is ANSI-colorized for terminal display; the data underneath is the same.
func JSONText(articles []domain.Article, colorize bool) (string, error) {
	data, err := json.MarshalIndent(Project(articles), "", "    ")
	if err != nil {
		return "", fmt.Errorf("marshal articles: %w", err)
	}
	if !colorize {
		return string(data), nil
	}

	formatter := prettyjson.NewFormatter()
	formatter.Indent = 4
	colored, err := formatter.Format(data)
	if err != nil {
		return "", fmt.Errorf("colorize json: %w", err)
	}
	return string(colored), nil
}

// renderJSON writes the plain structured-text serialization to path
func (r *Renderer) renderJSON(articles []domain.Article, path string) (string, error) {
	text, err := JSONText(articles, false)
	if err != nil {
		lgr.Printf("[ERROR] JSON rendering failed, nothing written: %v", err)
		return "", nil
	}
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		return "", fmt.Errorf("write JSON file: %w", err)
	}
	lgr.Printf("[INFO] rendered JSON into %s", path)
	return path, nil
}
