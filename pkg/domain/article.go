package domain

import "time"

// FeedKind identifies which extraction strategy applies to a fetched feed document.
type FeedKind int

// Feed kinds. Plain feeds carry descriptive text in the description field,
// wrapped feeds embed an escaped HTML fragment there.
const (
	KindPlain FeedKind = iota
	KindWrapped
)

// String returns a human-readable kind name
func (k FeedKind) String() string {
	if k == KindWrapped {
		return "wrapped"
	}
	return "plain"
}

// Article is the canonical unit produced by feed normalization. Absent values
// are empty strings, never sentinels. ImagePath is populated by the image
// cache stage and is meaningless before it runs.
type Article struct {
	SourceURL    string // originating feed URL
	FeedTitle    string // feed display name at fetch time
	Title        string // dedup identity key
	Description  string
	Published    string // publish timestamp as provided by the source
	PublishedKey string // YYYYMMDD form of Published, computed at persist time
	Link         string
	ImageLink    string
	ImagePath    string // local cache path, set by the image cache stage
}

// HasImage reports whether the source provided an image link
func (a *Article) HasImage() bool { return a.ImageLink != "" }

// Source is a registered feed origin. A source owns its articles, deleting it
// cascades to them.
type Source struct {
	ID        int64
	URL       string
	Title     string
	CreatedAt time.Time
}
