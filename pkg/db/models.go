package db

import (
	"time"

	"feedbook/pkg/domain"
)

// sourceRow is the sources table record
type sourceRow struct {
	ID        int64     `db:"id"`
	URL       string    `db:"url"`
	Title     string    `db:"title"`
	CreatedAt time.Time `db:"created_at"`
}

func (r sourceRow) toDomain() domain.Source {
	return domain.Source{ID: r.ID, URL: r.URL, Title: r.Title, CreatedAt: r.CreatedAt}
}

// articleRow is the articles table record
type articleRow struct {
	ID           int64     `db:"id"`
	SourceID     int64     `db:"source_id"`
	SourceURL    string    `db:"source_url"` // joined from sources
	FeedTitle    string    `db:"feed_title"`
	Title        string    `db:"title"`
	Description  string    `db:"description"`
	Published    string    `db:"published"`
	PublishedKey string    `db:"published_key"`
	Link         string    `db:"link"`
	ImageLink    string    `db:"image_link"`
	ImagePath    string    `db:"image_path"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r articleRow) toDomain() domain.Article {
	return domain.Article{
		SourceURL:    r.SourceURL,
		FeedTitle:    r.FeedTitle,
		Title:        r.Title,
		Description:  r.Description,
		Published:    r.Published,
		PublishedKey: r.PublishedKey,
		Link:         r.Link,
		ImageLink:    r.ImageLink,
		ImagePath:    r.ImagePath,
	}
}

// StoredArticle is an article together with its store identity
type StoredArticle struct {
	ID       int64
	SourceID int64
	domain.Article
}

func (r articleRow) toStored() StoredArticle {
	return StoredArticle{ID: r.ID, SourceID: r.SourceID, Article: r.toDomain()}
}

func toStoredList(rows []articleRow) []StoredArticle {
	out := make([]StoredArticle, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toStored())
	}
	return out
}
