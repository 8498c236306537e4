package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/araddon/dateparse"
	"github.com/go-pkgz/lgr"

	"feedbook/pkg/domain"
)

const articleColumns = `a.id, a.source_id, s.url AS source_url, a.feed_title, a.title, a.description,
	a.published, a.published_key, a.link, a.image_link, a.image_path, a.created_at`

// ArticleExists reports whether an article with the given title is already
// cached. The check is global across sources, matching the reference behavior.
func (db *DB) ArticleExists(ctx context.Context, title string) (bool, error) {
	var exists bool
	err := db.conn.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM articles WHERE title = ?)`, title)
	if err != nil {
		return false, fmt.Errorf("check article exists: %w", err)
	}
	return exists, nil
}

// InsertArticles persists the articles not already cached, computing the
// YYYYMMDD date key from the raw publish timestamp on the way in. A record
// that fails individually (unparseable date, constraint violation) is logged
// and skipped, the batch continues. Returns the number actually inserted.
func (db *DB) InsertArticles(ctx context.Context, sourceID int64, articles []domain.Article) (int, error) {
	query := `
		INSERT INTO articles (source_id, feed_title, title, description, published, published_key, link, image_link, image_path)
		VALUES (:source_id, :feed_title, :title, :description, :published, :published_key, :link, :image_link, :image_path)
	`
	inserted := 0
	for _, art := range articles {
		exists, err := db.ArticleExists(ctx, art.Title)
		if err != nil {
			return inserted, err
		}
		if exists {
			lgr.Printf("[DEBUG] article %q already cached, skipping", art.Title)
			continue
		}

		key, err := publishedKey(art.Published)
		if err != nil {
			lgr.Printf("[WARN] article %q has unparseable publish date %q, skipping: %v", art.Title, art.Published, err)
			continue
		}

		row := articleRow{
			SourceID:     sourceID,
			FeedTitle:    art.FeedTitle,
			Title:        art.Title,
			Description:  art.Description,
			Published:    art.Published,
			PublishedKey: key,
			Link:         art.Link,
			ImageLink:    art.ImageLink,
			ImagePath:    art.ImagePath,
		}
		err = withRetry(ctx, func() error {
			_, execErr := db.conn.NamedExecContext(ctx, query, row)
			return execErr
		})
		if err != nil {
			lgr.Printf("[WARN] failed to insert article %q: %v", art.Title, err)
			continue
		}
		inserted++
	}
	return inserted, nil
}

// publishedKey derives the YYYYMMDD cache key from a raw publish timestamp,
// absent stays absent
func publishedKey(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	ts, err := dateparse.ParseAny(raw)
	if err != nil {
		return "", err
	}
	return ts.Format("20060102"), nil
}

// GetArticlesByDate returns cached articles with the given YYYYMMDD date key,
// or all cached articles when date is empty. Limit 0 means unbounded. A date
// that matches nothing is domain.ErrNotFound, distinct from an empty cache.
func (db *DB) GetArticlesByDate(ctx context.Context, date string, limit int) ([]StoredArticle, error) {
	var rows []articleRow
	var err error
	if date == "" {
		query := fmt.Sprintf(`SELECT %s FROM articles a JOIN sources s ON s.id = a.source_id ORDER BY a.id LIMIT ?`, articleColumns)
		err = db.conn.SelectContext(ctx, &rows, query, sqlLimit(limit))
	} else {
		query := fmt.Sprintf(`SELECT %s FROM articles a JOIN sources s ON s.id = a.source_id WHERE a.published_key = ? ORDER BY a.id LIMIT ?`, articleColumns)
		err = db.conn.SelectContext(ctx, &rows, query, date, sqlLimit(limit))
	}
	if err != nil {
		return nil, fmt.Errorf("get articles by date: %w", err)
	}
	if date != "" && len(rows) == 0 {
		return nil, fmt.Errorf("no articles for date %s: %w", date, domain.ErrNotFound)
	}
	return toStoredList(rows), nil
}

// GetArticlesByDateAndSource returns cached articles filtered by source URL
// and optionally by date key. An unknown source URL is domain.ErrNotFound, a
// known source with no matching articles is an empty result. Without a source
// URL the call degrades to the date-only query and inherits its not-found
// semantics.
func (db *DB) GetArticlesByDateAndSource(ctx context.Context, date, sourceURL string, limit int) ([]StoredArticle, error) {
	if sourceURL == "" {
		return db.GetArticlesByDate(ctx, date, limit)
	}

	src, err := db.GetSourceByURL(ctx, sourceURL)
	if err != nil {
		return nil, err
	}

	var rows []articleRow
	if date == "" {
		query := fmt.Sprintf(`SELECT %s FROM articles a JOIN sources s ON s.id = a.source_id WHERE a.source_id = ? ORDER BY a.id LIMIT ?`, articleColumns)
		err = db.conn.SelectContext(ctx, &rows, query, src.ID, sqlLimit(limit))
	} else {
		query := fmt.Sprintf(`SELECT %s FROM articles a JOIN sources s ON s.id = a.source_id WHERE a.source_id = ? AND a.published_key = ? ORDER BY a.id LIMIT ?`, articleColumns)
		err = db.conn.SelectContext(ctx, &rows, query, src.ID, date, sqlLimit(limit))
	}
	if err != nil {
		return nil, fmt.Errorf("get articles by date and source: %w", err)
	}
	return toStoredList(rows), nil
}

// GetArticle retrieves an article by ID
func (db *DB) GetArticle(ctx context.Context, id int64) (StoredArticle, error) {
	var row articleRow
	query := fmt.Sprintf(`SELECT %s FROM articles a JOIN sources s ON s.id = a.source_id WHERE a.id = ?`, articleColumns)
	err := db.conn.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return StoredArticle{}, fmt.Errorf("article %d: %w", id, domain.ErrNotFound)
		}
		return StoredArticle{}, fmt.Errorf("get article: %w", err)
	}
	return row.toStored(), nil
}

// DeleteArticle removes an article by ID
func (db *DB) DeleteArticle(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM articles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("article %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// sqlLimit maps "unbounded" to sqlite's no-limit marker
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
