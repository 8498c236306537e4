package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedbook/pkg/db"
	"feedbook/pkg/domain"
	"feedbook/pkg/proc"
	"feedbook/pkg/render"
)

type fakeStore struct {
	queried     bool
	articles    []db.StoredArticle
	unknownSrc  bool
	deletedSrc  []int64
	deletedArts []int64
}

func (f *fakeStore) GetArticlesByDateAndSource(_ context.Context, date, sourceURL string, _ int) ([]db.StoredArticle, error) {
	f.queried = true
	if f.unknownSrc && sourceURL != "" {
		return nil, fmt.Errorf("source %q: %w", sourceURL, domain.ErrNotFound)
	}
	if date == "" {
		return f.articles, nil
	}
	var matched []db.StoredArticle
	for _, a := range f.articles {
		if a.PublishedKey == date {
			matched = append(matched, a)
		}
	}
	if sourceURL == "" && len(matched) == 0 {
		return nil, fmt.Errorf("no articles for date %s: %w", date, domain.ErrNotFound)
	}
	return matched, nil
}

func (f *fakeStore) GetArticle(_ context.Context, id int64) (db.StoredArticle, error) {
	for _, a := range f.articles {
		if a.ID == id {
			return a, nil
		}
	}
	return db.StoredArticle{}, fmt.Errorf("article %d: %w", id, domain.ErrNotFound)
}

func (f *fakeStore) DeleteArticle(_ context.Context, id int64) error {
	f.deletedArts = append(f.deletedArts, id)
	return nil
}

func (f *fakeStore) GetSources(_ context.Context) ([]domain.Source, error) {
	return []domain.Source{{ID: 1, URL: "http://example.com/feed", Title: "Example Feed"}}, nil
}

func (f *fakeStore) DeleteSource(_ context.Context, id int64) error {
	if id == 404 {
		return fmt.Errorf("source %d: %w", id, domain.ErrNotFound)
	}
	f.deletedSrc = append(f.deletedSrc, id)
	return nil
}

type fakePipeline struct {
	gotURL   string
	gotLimit int
	err      error
}

func (f *fakePipeline) Ingest(_ context.Context, url string, limit int) (*proc.Result, error) {
	f.gotURL, f.gotLimit = url, limit
	if f.err != nil {
		return nil, f.err
	}
	return &proc.Result{
		Kind:     domain.KindPlain,
		Source:   domain.Source{ID: 1, URL: url},
		Articles: []domain.Article{{Title: "one"}, {Title: "two"}},
		Inserted: 2,
	}, nil
}

type fakeRenderer struct {
	gotFormat render.Format
	path      string
	err       error
}

func (f *fakeRenderer) Render(format render.Format, _ []domain.Article, _ string) (string, error) {
	f.gotFormat = format
	return f.path, f.err
}

func testServer(t *testing.T, store *fakeStore, pipeline *fakePipeline, renderer *fakeRenderer) *httptest.Server {
	t.Helper()
	srv := New(Config{Listen: ":0", Timeout: time.Second, OutputDir: t.TempDir(), Version: "test"}, store, pipeline, renderer)
	ts := httptest.NewServer(srv.router)
	t.Cleanup(ts.Close)
	return ts
}

func TestServer_Ingest(t *testing.T) {
	pipeline := &fakePipeline{}
	ts := testServer(t, &fakeStore{}, pipeline, &fakeRenderer{})

	body := bytes.NewBufferString(`{"url": "http://example.com/feed", "limit": 5}`)
	resp, err := http.Post(ts.URL+"/api/v1/feeds", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "http://example.com/feed", pipeline.gotURL)
	assert.Equal(t, 5, pipeline.gotLimit)

	var res map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.EqualValues(t, 2, res["inserted"])
	assert.Equal(t, "plain", res["kind"])
}

func TestServer_IngestBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"missing url", `{"limit": 5}`, http.StatusBadRequest},
		{"zero limit", `{"url": "http://x", "limit": 0}`, http.StatusBadRequest},
		{"negative limit", `{"url": "http://x", "limit": -1}`, http.StatusBadRequest},
		{"non-numeric limit", `{"url": "http://x", "limit": "abc"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pipeline := &fakePipeline{}
			ts := testServer(t, &fakeStore{}, pipeline, &fakeRenderer{})

			resp, err := http.Post(ts.URL+"/api/v1/feeds", "application/json", bytes.NewBufferString(tt.body))
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.code, resp.StatusCode)
			assert.Empty(t, pipeline.gotURL, "pipeline is not reached on invalid input")
		})
	}
}

func TestServer_IngestNotRSS(t *testing.T) {
	pipeline := &fakePipeline{err: fmt.Errorf("validate: %w", domain.ErrNotRSSFeed)}
	ts := testServer(t, &fakeStore{}, pipeline, &fakeRenderer{})

	body := bytes.NewBufferString(`{"url": "http://example.com/page"}`)
	resp, err := http.Post(ts.URL+"/api/v1/feeds", "application/json", body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestServer_Articles(t *testing.T) {
	store := &fakeStore{articles: []db.StoredArticle{
		{ID: 1, Article: domain.Article{Title: "cached one", PublishedKey: "20230102"}},
	}}
	ts := testServer(t, store, &fakePipeline{}, &fakeRenderer{})

	resp, err := http.Get(ts.URL + "/api/v1/articles?date=20230102&limit=10")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var articles []articleResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&articles))
	require.Len(t, articles, 1)
	assert.Equal(t, "cached one", articles[0].Title)
}

func TestServer_ArticlesValidation(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"non-numeric limit", "?limit=abc"},
		{"negative limit", "?limit=-1"},
		{"zero limit", "?limit=0"},
		{"bad date", "?date=2023-01-02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			ts := testServer(t, store, &fakePipeline{}, &fakeRenderer{})

			resp, err := http.Get(ts.URL + "/api/v1/articles" + tt.query)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.False(t, store.queried, "store is not touched on invalid input")
		})
	}
}

func TestServer_ArticlesDateWithoutMatches(t *testing.T) {
	store := &fakeStore{articles: []db.StoredArticle{
		{ID: 1, Article: domain.Article{Title: "cached one", PublishedKey: "20230102"}},
	}}
	ts := testServer(t, store, &fakePipeline{}, &fakeRenderer{})

	resp, err := http.Get(ts.URL + "/api/v1/articles?date=19990101")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_ArticlesUnknownSource(t *testing.T) {
	store := &fakeStore{unknownSrc: true}
	ts := testServer(t, store, &fakePipeline{}, &fakeRenderer{})

	resp, err := http.Get(ts.URL + "/api/v1/articles?source=http://unknown.example.com/rss")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_ArticleByID(t *testing.T) {
	store := &fakeStore{articles: []db.StoredArticle{{ID: 7, Article: domain.Article{Title: "seventh"}}}}
	ts := testServer(t, store, &fakePipeline{}, &fakeRenderer{})

	resp, err := http.Get(ts.URL + "/api/v1/articles/7")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var article articleResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&article))
	assert.Equal(t, "seventh", article.Title)

	resp2, err := http.Get(ts.URL + "/api/v1/articles/99")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestServer_DeleteSource(t *testing.T) {
	store := &fakeStore{}
	ts := testServer(t, store, &fakePipeline{}, &fakeRenderer{})

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/sources/1", http.NoBody)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []int64{1}, store.deletedSrc)

	req, err = http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/sources/404", http.NoBody)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_Render(t *testing.T) {
	store := &fakeStore{articles: []db.StoredArticle{{ID: 1, Article: domain.Article{Title: "a", PublishedKey: "20230102"}}}}
	renderer := &fakeRenderer{path: "/out/rss_feed_abc123.html"}
	ts := testServer(t, store, &fakePipeline{}, renderer)

	body := bytes.NewBufferString(`{"format": "html", "date": "20230102"}`)
	resp, err := http.Post(ts.URL+"/api/v1/render", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, render.FormatHTML, renderer.gotFormat)

	var res map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, "/out/rss_feed_abc123.html", res["path"])
}

func TestServer_RenderBadFormat(t *testing.T) {
	ts := testServer(t, &fakeStore{}, &fakePipeline{}, &fakeRenderer{})

	body := bytes.NewBufferString(`{"format": "docx"}`)
	resp, err := http.Post(ts.URL+"/api/v1/render", "application/json", body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_Ping(t *testing.T) {
	ts := testServer(t, &fakeStore{}, &fakePipeline{}, &fakeRenderer{})

	resp, err := http.Get(ts.URL + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
