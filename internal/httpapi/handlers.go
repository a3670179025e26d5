package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/apex/log"
	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-blog/article"
)

// ArticleService is the use case surface the handlers call.
type ArticleService interface {
	ListArticles(ctx context.Context, filters article.ListFilters) (article.PaginatedArticles, error)
	ListTags(ctx context.Context) ([]article.Tag, error)
	GetArticleByID(ctx context.Context, id int64, recordView bool) (article.Detail, error)
	GetArticleBySlug(ctx context.Context, slug string, recordView bool) (article.Detail, error)
	CreateArticle(ctx context.Context, payload article.MutationPayload) (article.CreateResult, error)
	UpdateArticle(ctx context.Context, id int64, payload article.MutationPayload) (article.UpdateResult, error)
	DeleteArticles(ctx context.Context, ids []int64, hard bool) (article.DeleteResult, error)
	ResolveInitialState(ctx context.Context, rawURL string) (article.InitialState, int)
}

type articleHandlers struct {
	svc       ArticleService
	logger    log.Interface
	bodyLimit int64
}

func (h *articleHandlers) list(w http.ResponseWriter, r *http.Request) {
	filters, err := article.ParseListFilters(r.URL.Query())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	page, err := h.svc.ListArticles(r.Context(), filters)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *articleHandlers) tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.ListTags(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

func (h *articleHandlers) detailBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if !article.ValidSlugParam(slug) {
		writeError(w, r, h.logger, &article.ValidationError{Fields: validation.Errors{
			"slug": errors.New("must contain lowercase letters, digits or dashes"),
		}})
		return
	}
	detail, err := h.svc.GetArticleBySlug(r.Context(), slug, recordView(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *articleHandlers) detail(w http.ResponseWriter, r *http.Request) {
	id, err := article.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	detail, err := h.svc.GetArticleByID(r.Context(), id, recordView(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *articleHandlers) create(w http.ResponseWriter, r *http.Request) {
	payload, err := h.decode(w, r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.svc.CreateArticle(r.Context(), payload)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *articleHandlers) update(w http.ResponseWriter, r *http.Request) {
	id, err := article.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	payload, err := h.decode(w, r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.svc.UpdateArticle(r.Context(), id, payload)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// remove serves both DELETE /articles/{id} and DELETE /articles?ids=1,2.
func (h *articleHandlers) remove(w http.ResponseWriter, r *http.Request) {
	var (
		ids []int64
		err error
	)
	switch {
	case chi.URLParam(r, "id") != "":
		var id int64
		id, err = article.ParseID(chi.URLParam(r, "id"))
		ids = []int64{id}
	case r.URL.Query().Get("ids") != "":
		ids, err = article.ParseIDList(r.URL.Query().Get("ids"))
	default:
		badRequest(w, "Provide an id path param or ids query parameter")
		return
	}
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.svc.DeleteArticles(r.Context(), ids, r.URL.Query().Get("hard") == "true")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *articleHandlers) state(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		path = "/"
	}
	state, status := h.svc.ResolveInitialState(r.Context(), path)
	writeJSON(w, status, state)
}

func (h *articleHandlers) decode(w http.ResponseWriter, r *http.Request) (article.MutationPayload, error) {
	var payload article.MutationPayload
	body := http.MaxBytesReader(w, r.Body, h.bodyLimit)
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return payload, &article.ValidationError{Fields: validation.Errors{
			"body": errors.New("must be a JSON article payload"),
		}}
	}
	return payload, nil
}

func recordView(r *http.Request) bool {
	return r.URL.Query().Get("recordView") == "true"
}
