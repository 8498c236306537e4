// Package proc wires the ingestion pipeline: fetch a feed document, classify
// it, normalize its entries, cache their images and persist the result.
package proc

import (
	"context"
	"fmt"

	"github.com/go-pkgz/lgr"

	"feedbook/pkg/domain"
	"feedbook/pkg/feed"
)

// Fetcher retrieves a document body over the network
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ImageCache populates local image paths on a batch of articles
type ImageCache interface {
	Process(ctx context.Context, articles []domain.Article)
}

// Store persists sources and their articles
type Store interface {
	EnsureSource(ctx context.Context, url, title string) (domain.Source, error)
	InsertArticles(ctx context.Context, sourceID int64, articles []domain.Article) (int, error)
}

// Processor runs the ingestion pipeline for one feed URL at a time
type Processor struct {
	fetcher Fetcher
	images  ImageCache
	store   Store
}

// New creates a processor over the given collaborators
func New(fetcher Fetcher, images ImageCache, store Store) *Processor {
	return &Processor{fetcher: fetcher, images: images, store: store}
}

// Result reports what one ingestion run produced
type Result struct {
	Kind     domain.FeedKind
	Source   domain.Source
	Articles []domain.Article
	Inserted int
}

// Ingest fetches the feed at url once, classifies and normalizes it, caches
// article images and persists the batch. The limit caps processed entries in
// document order; 0 means unbounded, negative is rejected before any I/O.
func (p *Processor) Ingest(ctx context.Context, url string, limit int) (*Result, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidLimit, limit)
	}

	body, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if err := feed.ValidateRSS(body); err != nil {
		return nil, fmt.Errorf("validate %s: %w", url, err)
	}

	kind := feed.Classify(body)
	lgr.Printf("[INFO] %s classified as %s feed", url, kind)

	articles, err := feed.Normalize(body, url, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", url, err)
	}
	lgr.Printf("[INFO] normalized %d articles from %s", len(articles), url)

	// both image phases complete before persistence, the stored records carry
	// final local paths
	p.images.Process(ctx, articles)

	title := ""
	if len(articles) > 0 {
		title = articles[0].FeedTitle
	}
	src, err := p.store.EnsureSource(ctx, url, title)
	if err != nil {
		return nil, fmt.Errorf("ensure source %s: %w", url, err)
	}

	inserted, err := p.store.InsertArticles(ctx, src.ID, articles)
	if err != nil {
		return nil, fmt.Errorf("insert articles for %s: %w", url, err)
	}
	lgr.Printf("[INFO] inserted %d of %d articles from %s", inserted, len(articles), url)

	return &Result{Kind: kind, Source: src, Articles: articles, Inserted: inserted}, nil
}
