// Package images caches article images locally and scales them down to a
// fixed display width. Both phases run over a bounded worker pool and must
// complete before the caller proceeds.
package images

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	_ "image/gif"  // register decoders for cached image formats
	_ "image/jpeg" // sources serve whatever they like regardless of extension
	"image/png"

	"github.com/go-pkgz/lgr"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"feedbook/pkg/domain"
)

// Cache fetches and resizes article images into a flat local directory
type Cache struct {
	dir      string
	client   *http.Client
	workers  int
	maxWidth int
}

// Config holds image cache settings
type Config struct {
	Dir      string
	Workers  int           // worker pool width for both phases
	MaxWidth int           // display width cached images are scaled down to
	Timeout  time.Duration // per-request fetch timeout
}

// New creates an image cache rooted at cfg.Dir
func New(cfg Config) *Cache {
	if cfg.Workers == 0 {
		cfg.Workers = 10
	}
	if cfg.MaxWidth == 0 {
		cfg.MaxWidth = 250
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Cache{
		dir:      cfg.Dir,
		client:   &http.Client{Timeout: cfg.Timeout},
		workers:  cfg.Workers,
		maxWidth: cfg.MaxWidth,
	}
}

// Filename derives the cache filename for an article title: a 15-character
// lower-cased whitespace-stripped prefix with a fixed extension. Articles
// sharing a title prefix alias the same file, across sources too - a known
// limitation of the flat layout, kept as is.
func Filename(title string) string {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, title)
	if runes := []rune(stripped); len(runes) > 15 {
		stripped = string(runes[:15])
	}
	return "img_" + stripped + ".png"
}

// Process runs the fetch phase and then the resize phase over the articles,
// populating ImagePath in place. Each phase fans out over the worker pool and
// fully completes before the next starts. Per-item failures are logged, never
// propagated: one bad image must not abort the batch.
func (c *Cache) Process(ctx context.Context, articles []domain.Article) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i := range articles {
		g.Go(func() error {
			c.fetchOne(gctx, &articles[i])
			return nil
		})
	}
	_ = g.Wait() // barrier: resize depends on ImagePath being populated

	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i := range articles {
		path := articles[i].ImagePath
		if path == "" {
			continue
		}
		g.Go(func() error {
			c.resizeOne(gctx, path)
			return nil
		})
	}
	_ = g.Wait()
}

// fetchOne downloads a single article image into the cache unless it is
// already there
func (c *Cache) fetchOne(ctx context.Context, art *domain.Article) {
	path := filepath.Join(c.dir, Filename(art.Title))

	if _, err := os.Stat(path); err == nil {
		art.ImagePath = path
		lgr.Printf("[DEBUG] image for %q already cached", art.Title)
		return
	}

	if !art.HasImage() {
		lgr.Printf("[DEBUG] no image link for %q", art.Title)
		return
	}

	data, err := c.download(ctx, art.ImageLink)
	if err != nil {
		lgr.Printf("[WARN] failed to fetch image %s for %q: %v", art.ImageLink, art.Title, err)
		return
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		lgr.Printf("[WARN] failed to write cached image %s: %v", path, err)
		return
	}
	art.ImagePath = path
}

func (c *Cache) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// resizeOne scales a cached image down to the display width, preserving
// aspect ratio and overwriting in place. Images already at or below the
// width are left alone, so re-runs are no-ops.
func (c *Cache) resizeOne(_ context.Context, path string) {
	data, err := os.ReadFile(path) //nolint:gosec // path is derived from the cache dir
	if err != nil {
		lgr.Printf("[WARN] failed to read cached image %s: %v", path, err)
		return
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		lgr.Printf("[WARN] failed to decode cached image %s: %v", path, err)
		return
	}

	bounds := src.Bounds()
	if bounds.Dx() <= c.maxWidth {
		return
	}

	height := bounds.Dy() * c.maxWidth / bounds.Dx()
	dst := image.NewRGBA(image.Rect(0, 0, c.maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		lgr.Printf("[WARN] failed to encode resized image %s: %v", path, err)
		return
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		lgr.Printf("[WARN] failed to write resized image %s: %v", path, err)
	}
}
