package service

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/goliatone/go-blog/article"
)

const articlesPath = "/articles/"

// ResolveInitialState maps a page URL to the data the client renders first,
// together with the HTTP status the page should be served with.
//
//	/               list view, query string parsed as list filters
//	/articles/new   create view
//	/articles/{s}   detail view, recording a view
//
// Anything else is the not-found view. Invalid list filters yield an error
// view with 400; any other failure an error view with 500.
func (s *ArticleService) ResolveInitialState(ctx context.Context, rawURL string) (article.InitialState, int) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return errorState(http.StatusBadRequest, "Invalid URL")
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}

	switch {
	case path == "/":
		filters, err := article.ParseListFilters(u.Query())
		if err != nil {
			// A malformed list query is a client error; render it as a 400 view.
			return errorState(http.StatusBadRequest, err.Error())
		}
		page, err := s.ListArticles(ctx, filters)
		if err != nil {
			return s.failure(err)
		}
		return article.InitialState{View: article.ViewList, ListData: &page}, http.StatusOK

	case path == "/articles/new":
		return article.InitialState{View: article.ViewCreate}, http.StatusOK

	case strings.HasPrefix(path, articlesPath):
		slug := strings.TrimPrefix(path, articlesPath)
		if slug == "" || strings.Contains(slug, "/") {
			return notFoundState()
		}
		detail, err := s.GetArticleBySlug(ctx, slug, true)
		if errors.Is(err, article.ErrNotFound) {
			return notFoundState()
		}
		if err != nil {
			return s.failure(err)
		}
		return article.InitialState{View: article.ViewDetail, DetailData: &detail}, http.StatusOK
	}

	return notFoundState()
}

func (s *ArticleService) failure(err error) (article.InitialState, int) {
	s.logger.WithError(err).Error("resolve initial state")
	return errorState(http.StatusInternalServerError, err.Error())
}

func notFoundState() (article.InitialState, int) {
	return article.InitialState{View: article.ViewNotFound}, http.StatusNotFound
}

func errorState(status int, message string) (article.InitialState, int) {
	return article.InitialState{
		View:  article.ViewError,
		Error: &article.StateError{Message: message, StatusCode: status},
	}, status
}
