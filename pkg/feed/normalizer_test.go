package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedbook/pkg/domain"
)

func TestValidateRSS(t *testing.T) {
	assert.NoError(t, ValidateRSS([]byte(plainFeedDoc)))
	assert.NoError(t, ValidateRSS([]byte(wrappedFeedDoc)))

	err := ValidateRSS([]byte(`<html><body>not a feed</body></html>`))
	assert.ErrorIs(t, err, domain.ErrNotRSSFeed)

	err = ValidateRSS([]byte(``))
	assert.ErrorIs(t, err, domain.ErrNotRSSFeed)
}

func TestNormalize_Plain(t *testing.T) {
	articles, err := Normalize([]byte(plainFeedDoc), "http://example.com/feed", domain.KindPlain, 0)
	require.NoError(t, err)
	require.Len(t, articles, 2)

	first := articles[0]
	assert.Equal(t, "http://example.com/feed", first.SourceURL)
	assert.Equal(t, "Plain Feed", first.FeedTitle)
	assert.Equal(t, "Breaking: Markets Rally Today", first.Title)
	assert.Equal(t, "Markets rallied on unexpectedly good news", first.Description)
	assert.Equal(t, "Mon, 02 Jan 2023 10:00:00 GMT", first.Published)
	assert.Equal(t, "http://example.com/markets", first.Link)
	assert.Equal(t, "http://x/img.png", first.ImageLink, "media:content supplies the image link")
	assert.Empty(t, first.PublishedKey, "date key is computed at persist time, not here")
	assert.Empty(t, first.ImagePath, "image path is set by the cache stage, not here")

	// absent fields stay empty
	second := articles[1]
	assert.Equal(t, "Second Story", second.Title)
	assert.Empty(t, second.Description)
	assert.Empty(t, second.Published)
	assert.Empty(t, second.ImageLink)
	assert.False(t, second.HasImage())
}

func TestNormalize_PlainEnclosureFallback(t *testing.T) {
	doc := `<rss version="2.0"><channel><title>Enc Feed</title>
		<item>
			<title>With Enclosure</title>
			<link>http://example.com/e1</link>
			<enclosure url="http://example.com/pic.jpg" type="image/jpeg" length="1000"/>
		</item>
	</channel></rss>`

	articles, err := Normalize([]byte(doc), "http://example.com/enc", domain.KindPlain, 0)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "http://example.com/pic.jpg", articles[0].ImageLink)
}

func TestNormalize_PlainLimit(t *testing.T) {
	articles, err := Normalize([]byte(plainFeedDoc), "http://example.com/feed", domain.KindPlain, 1)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "Breaking: Markets Rally Today", articles[0].Title)
}

func TestNormalize_Wrapped(t *testing.T) {
	articles, err := Normalize([]byte(wrappedFeedDoc), "http://example.com/rss", domain.KindWrapped, 0)
	require.NoError(t, err)
	require.Len(t, articles, 2)

	first := articles[0]
	assert.Equal(t, "Wrapped Feed", first.FeedTitle)
	assert.Equal(t, "Wrapped Article One", first.Title)
	assert.Equal(t, "Summary of article one", first.Description, "description is the payload's first paragraph")
	assert.Equal(t, "http://example.com/img1.png", first.ImageLink, "image comes from the payload's first img")
	assert.Equal(t, "http://example.com/w1", first.Link, "link is recovered from the text after the void link element")
	assert.Equal(t, "Tue, 03 Jan 2023 09:30:00 GMT", first.Published)

	second := articles[1]
	assert.Equal(t, "Wrapped Article Two", second.Title)
	assert.Equal(t, "Summary of article two", second.Description)
	assert.Equal(t, "http://example.com/w2", second.Link)
}

func TestNormalize_WrappedChannelCData(t *testing.T) {
	articles, err := Normalize([]byte(channelCDataFeedDoc), "http://example.com/rss", domain.KindWrapped, 0)
	require.NoError(t, err)
	require.Len(t, articles, 2)

	// the channel blurb must not shift payload pairing by one entry
	first := articles[0]
	assert.Equal(t, "Summary of article one", first.Description)
	assert.Equal(t, "http://example.com/img1.png", first.ImageLink)

	second := articles[1]
	assert.Equal(t, "Summary of article two", second.Description)
	assert.Equal(t, "http://example.com/img2.png", second.ImageLink)
}

func TestNormalize_WrappedLimit(t *testing.T) {
	articles, err := Normalize([]byte(wrappedFeedDoc), "http://example.com/rss", domain.KindWrapped, 1)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "Wrapped Article One", articles[0].Title)
}

func TestNormalize_WrappedMissingPayloadFields(t *testing.T) {
	doc := `<rss><channel><title>Sparse</title>
		<item>
			<title>No Image Here</title>
			<link>http://example.com/n1</link>
			<description><![CDATA[<p>text only</p><a href="http://example.com/n1">more</a>]]></description>
		</item>
	</channel></rss>`

	articles, err := Normalize([]byte(doc), "http://example.com/sparse", domain.KindWrapped, 0)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "text only", articles[0].Description)
	assert.Empty(t, articles[0].ImageLink)
	assert.Empty(t, articles[0].Published)
}
