package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	epub "github.com/go-shiori/go-epub"
	"github.com/go-pkgz/lgr"

	"feedbook/pkg/domain"
)

// renderEPUB assembles the e-book container: a cover, one generated page per
// article in input order, and a table of contents mirroring the spine. An
// empty article list still yields a valid book with just cover and nav.
func (r *Renderer) renderEPUB(articles []domain.Article, path string) (string, error) {
	book, err := epub.NewEpub(r.ebookTitle)
	if err != nil {
		lgr.Printf("[ERROR] EPUB assembly failed, nothing written: %v", err)
		return "", nil
	}
	book.SetAuthor(r.ebookAuthor)
	book.SetLang("en")
	book.SetIdentifier("feedbook-0001")

	if err := r.setCover(book); err != nil {
		lgr.Printf("[ERROR] EPUB cover failed, nothing written: %v", err)
		return "", nil
	}

	for i, art := range articles {
		if err := r.addBookPage(book, art, i); err != nil {
			lgr.Printf("[ERROR] EPUB page %d failed, nothing written: %v", i, err)
			return "", nil
		}
	}

	if err := book.Write(path); err != nil {
		lgr.Printf("[ERROR] EPUB write failed, nothing written: %v", err)
		return "", nil
	}
	lgr.Printf("[INFO] rendered EPUB into %s", path)
	return path, nil
}

func (r *Renderer) setCover(book *epub.Epub) error {
	coverPath, err := r.ensureAsset("epub_book_cover.png", 600, 800, color.RGBA{R: 0x2b, G: 0x3a, B: 0x67, A: 0xff})
	if err != nil {
		return err
	}
	internal, err := book.AddImage(coverPath, "cover.png")
	if err != nil {
		return fmt.Errorf("add cover image: %w", err)
	}
	if err := book.SetCover(internal, ""); err != nil {
		return fmt.Errorf("set cover: %w", err)
	}
	return nil
}

// epubPage is the binding for the per-article EPUB page template
type epubPage struct {
	domain.Article
	ImageFile string
}

func (r *Renderer) addBookPage(book *epub.Epub, art domain.Article, num int) error {
	imgSource := art.ImagePath
	if imgSource == "" {
		// articles without a cached image get a fixed placeholder
		placeholder, err := r.ensureAsset("epub_empty_image.png", 250, 200, color.RGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff})
		if err != nil {
			return err
		}
		imgSource = placeholder
	}
	internalImg, err := book.AddImage(imgSource, fmt.Sprintf("image%d.png", num))
	if err != nil {
		return fmt.Errorf("add page image: %w", err)
	}

	var body strings.Builder
	page := epubPage{Article: art, ImageFile: internalImg}
	if err := r.tmpl.ExecuteTemplate(&body, "epub_page.html", page); err != nil {
		return fmt.Errorf("render page template: %w", err)
	}

	if _, err := book.AddSection(body.String(), art.Title, fmt.Sprintf("book_page_%d.xhtml", num), ""); err != nil {
		return fmt.Errorf("add section: %w", err)
	}
	return nil
}

// ensureAsset generates a solid-color PNG under the assets dir unless one is
// already there, and returns its path
func (r *Renderer) ensureAsset(name string, width, height int, fill color.RGBA) (string, error) {
	dir := r.assetsDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, fill)
		}
	}
	f, err := os.Create(path) //nolint:gosec // path is under the configured assets dir
	if err != nil {
		return "", fmt.Errorf("create asset %s: %w", name, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return "", fmt.Errorf("encode asset %s: %w", name, err)
	}
	return path, nil
}
