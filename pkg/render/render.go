// Package render converts article collections into output documents: a
// hypertext page, a fixed-layout PDF, an EPUB container, and a structured
// JSON projection. HTML and PDF share one templating engine; EPUB assembles
// its container page by page.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pkgz/lgr"
	"github.com/google/uuid"

	"feedbook/pkg/domain"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Format is a render output format
type Format string

// Supported output formats
const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
	FormatEPUB Format = "epub"
	FormatJSON Format = "json"
)

// Ext returns the format's canonical file extension
func (f Format) Ext() string { return "." + string(f) }

// ParseFormat maps a user-supplied format name to a Format
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatHTML, FormatPDF, FormatEPUB, FormatJSON:
		return Format(strings.ToLower(s)), nil
	default:
		return "", fmt.Errorf("unknown format %q", s)
	}
}

// Renderer renders article collections into output documents
type Renderer struct {
	tmpl        *template.Template // shared engine for HTML and PDF
	assetsDir   string             // where generated cover/placeholder images live
	ebookTitle  string
	ebookAuthor string
}

// Config holds renderer settings
type Config struct {
	AssetsDir   string // directory for generated EPUB cover and placeholder images
	EbookTitle  string
	EbookAuthor string
}

// New creates a renderer with the embedded templates parsed once
func New(cfg Config) (*Renderer, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if cfg.EbookTitle == "" {
		cfg.EbookTitle = "RSS feed book content:"
	}
	if cfg.EbookAuthor == "" {
		cfg.EbookAuthor = "feedbook"
	}
	return &Renderer{
		tmpl:        tmpl,
		assetsDir:   cfg.AssetsDir,
		ebookTitle:  cfg.EbookTitle,
		ebookAuthor: cfg.EbookAuthor,
	}, nil
}

// Render writes the articles to target in the given format and returns the
// path actually written. A missing target directory is a fatal error for this
// call; template or assembly failures are logged and degrade to nothing
// written, reported by an empty path with nil error.
func (r *Renderer) Render(format Format, articles []domain.Article, target string) (string, error) {
	path, err := resolveTarget(target, format.Ext())
	if err != nil {
		return "", err
	}

	switch format {
	case FormatHTML:
		return r.renderHTML(articles, path)
	case FormatPDF:
		return r.renderPDF(articles, path)
	case FormatEPUB:
		return r.renderEPUB(articles, path)
	case FormatJSON:
		return r.renderJSON(articles, path)
	default:
		return "", fmt.Errorf("unknown format %q", format)
	}
}

// resolveTarget turns a target location into a concrete file path. A location
// without the format's extension is treated as a directory and gets a random
// short filename, so repeated runs don't silently overwrite each other.
func resolveTarget(target, ext string) (string, error) {
	if strings.HasSuffix(target, ext) {
		dir := filepath.Dir(target)
		if err := checkDir(dir); err != nil {
			return "", err
		}
		return target, nil
	}
	if err := checkDir(target); err != nil {
		return "", err
	}
	name := fmt.Sprintf("rss_feed_%s%s", uuid.NewString()[:6], ext)
	return filepath.Join(target, name), nil
}

func checkDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %q does not exist", domain.ErrRenderTarget, dir)
	}
	return nil
}

// feedPage is the binding rendered by the shared markup template
type feedPage struct {
	FeedTitle string
	Articles  []domain.Article
}

func pageFor(articles []domain.Article) feedPage {
	page := feedPage{Articles: articles}
	if len(articles) > 0 {
		page.FeedTitle = articles[0].FeedTitle
	}
	return page
}

// renderHTML writes the shared markup template output to path
func (r *Renderer) renderHTML(articles []domain.Article, path string) (string, error) {
	var buf strings.Builder
	if err := r.tmpl.ExecuteTemplate(&buf, "feed.html", pageFor(articles)); err != nil {
		lgr.Printf("[ERROR] HTML rendering failed, nothing written: %v", err)
		return "", nil
	}
	if err := os.WriteFile(path, []byte(buf.String()), 0o600); err != nil {
		return "", fmt.Errorf("write HTML file: %w", err)
	}
	lgr.Printf("[INFO] rendered HTML into %s", path)
	return path, nil
}
