package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"feedbook/pkg/db"
	"feedbook/pkg/domain"
	"feedbook/pkg/render"
)

// articleResponse is the JSON view of a cached article
type articleResponse struct {
	ID           int64  `json:"id"`
	SourceURL    string `json:"source_url"`
	FeedTitle    string `json:"feed_title"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Published    string `json:"published"`
	PublishedKey string `json:"published_key"`
	Link         string `json:"link"`
	ImageLink    string `json:"image_link"`
	ImagePath    string `json:"image_path"`
}

func toArticleResponse(a db.StoredArticle) articleResponse {
	return articleResponse{
		ID:           a.ID,
		SourceURL:    a.SourceURL,
		FeedTitle:    a.FeedTitle,
		Title:        a.Title,
		Description:  a.Description,
		Published:    a.Published,
		PublishedKey: a.PublishedKey,
		Link:         a.Link,
		ImageLink:    a.ImageLink,
		ImagePath:    a.ImagePath,
	}
}

// ingestHandler runs the full pipeline for a feed URL
func (s *Server) ingestHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL   string `json:"url"`
		Limit *int   `json:"limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, err, "invalid request body")
		return
	}
	if req.URL == "" {
		sendError(w, http.StatusBadRequest, errors.New("url is required"), "invalid request")
		return
	}

	limit := 0
	if req.Limit != nil {
		if err := domain.CheckLimit(*req.Limit); err != nil {
			sendError(w, http.StatusBadRequest, err, "invalid limit")
			return
		}
		limit = *req.Limit
	}

	res, err := s.pipeline.Ingest(r.Context(), req.URL, limit)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotRSSFeed):
		sendError(w, http.StatusUnprocessableEntity, err, "URL does not lead to an RSS feed")
		return
	default:
		sendError(w, http.StatusBadGateway, err, "failed to ingest feed")
		return
	}

	renderJSON(w, http.StatusOK, map[string]interface{}{
		"source":   res.Source.URL,
		"kind":     res.Kind.String(),
		"parsed":   len(res.Articles),
		"inserted": res.Inserted,
	})
}

// articlesHandler returns cached articles filtered by date and/or source
func (s *Server) articlesHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	// limit and date are validated before the store is touched
	limit, err := domain.ParseLimit(q.Get("limit"))
	if err != nil {
		sendError(w, http.StatusBadRequest, err, "invalid limit")
		return
	}
	date := q.Get("date")
	if date != "" && !domain.ValidDateKey(date) {
		sendError(w, http.StatusBadRequest, errors.New("date must be YYYYMMDD"), "invalid date")
		return
	}

	articles, err := s.store.GetArticlesByDateAndSource(r.Context(), date, q.Get("source"), limit)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		sendError(w, http.StatusNotFound, err, "no matching articles")
		return
	default:
		sendError(w, http.StatusInternalServerError, err, "failed to query articles")
		return
	}

	out := make([]articleResponse, 0, len(articles))
	for _, a := range articles {
		out = append(out, toArticleResponse(a))
	}
	renderJSON(w, http.StatusOK, out)
}

func (s *Server) articleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		sendError(w, http.StatusBadRequest, err, "invalid article id")
		return
	}

	article, err := s.store.GetArticle(r.Context(), id)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		sendError(w, http.StatusNotFound, err, "article not found")
		return
	default:
		sendError(w, http.StatusInternalServerError, err, "failed to get article")
		return
	}
	renderJSON(w, http.StatusOK, toArticleResponse(article))
}

func (s *Server) deleteArticleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		sendError(w, http.StatusBadRequest, err, "invalid article id")
		return
	}

	err = s.store.DeleteArticle(r.Context(), id)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		sendError(w, http.StatusNotFound, err, "article not found")
		return
	default:
		sendError(w, http.StatusInternalServerError, err, "failed to delete article")
		return
	}
	renderJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) sourcesHandler(w http.ResponseWriter, r *http.Request) {
	sources, err := s.store.GetSources(r.Context())
	if err != nil {
		sendError(w, http.StatusInternalServerError, err, "failed to get sources")
		return
	}
	renderJSON(w, http.StatusOK, sources)
}

// deleteSourceHandler removes a source and cascades to its articles
func (s *Server) deleteSourceHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		sendError(w, http.StatusBadRequest, err, "invalid source id")
		return
	}

	err = s.store.DeleteSource(r.Context(), id)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		sendError(w, http.StatusNotFound, err, "source not found")
		return
	default:
		sendError(w, http.StatusInternalServerError, err, "failed to delete source")
		return
	}
	renderJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// renderHandler renders cached articles into a document in the configured
// output directory
func (s *Server) renderHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Format string `json:"format"`
		Date   string `json:"date"`
		Source string `json:"source"`
		Limit  string `json:"limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, err, "invalid request body")
		return
	}

	format, err := render.ParseFormat(req.Format)
	if err != nil {
		sendError(w, http.StatusBadRequest, err, "invalid format")
		return
	}
	limit, err := domain.ParseLimit(req.Limit)
	if err != nil {
		sendError(w, http.StatusBadRequest, err, "invalid limit")
		return
	}
	if req.Date != "" && !domain.ValidDateKey(req.Date) {
		sendError(w, http.StatusBadRequest, errors.New("date must be YYYYMMDD"), "invalid date")
		return
	}

	stored, err := s.store.GetArticlesByDateAndSource(r.Context(), req.Date, req.Source, limit)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		sendError(w, http.StatusNotFound, err, "no matching articles")
		return
	default:
		sendError(w, http.StatusInternalServerError, err, "failed to query articles")
		return
	}

	articles := make([]domain.Article, 0, len(stored))
	for _, a := range stored {
		articles = append(articles, a.Article)
	}

	path, err := s.renderer.Render(format, articles, s.cfg.OutputDir)
	switch {
	case errors.Is(err, domain.ErrRenderTarget):
		sendError(w, http.StatusBadRequest, err, "render target invalid")
		return
	case err != nil:
		sendError(w, http.StatusInternalServerError, err, "failed to render")
		return
	case path == "":
		sendError(w, http.StatusInternalServerError, errors.New("nothing written"), "render produced no output")
		return
	}
	renderJSON(w, http.StatusOK, map[string]string{"path": path})
}
