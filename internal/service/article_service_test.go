package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gracechapel-dev/church-site-api/internal/models"
)

type fakeArticleRepo struct {
	articles map[string]*models.Article
}

func newFakeArticleRepo() *fakeArticleRepo {
	return &fakeArticleRepo{articles: make(map[string]*models.Article)}
}

func (f *fakeArticleRepo) List(context.Context, models.ArticleFilter) ([]models.Article, int, error) {
	var out []models.Article
	for _, a := range f.articles {
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (f *fakeArticleRepo) GetByID(_ context.Context, id string) (*models.Article, error) {
	if a, ok := f.articles[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeArticleRepo) GetBySlug(_ context.Context, slug string) (*models.Article, error) {
	for _, a := range f.articles {
		if a.Slug == slug {
			copied := *a
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeArticleRepo) Create(_ context.Context, article *models.Article) error {
	article.ID = "ar-1"
	f.articles[article.ID] = article
	return nil
}

func (f *fakeArticleRepo) Update(_ context.Context, article *models.Article) error {
	f.articles[article.ID] = article
	return nil
}

func (f *fakeArticleRepo) Delete(_ context.Context, id string) error {
	delete(f.articles, id)
	return nil
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Easter Sunday Recap":     "easter-sunday-recap",
		"  What's New in 2025?  ": "what-s-new-in-2025",
		"Grace & Truth":           "grace-truth",
		"---":                     "",
		"Already-Slugged title":   "already-slugged-title",
	}
	for input, expected := range cases {
		assert.Equal(t, expected, slugify(input), input)
	}
}

func TestArticleServiceCreateDraftAndPublish(t *testing.T) {
	repo := newFakeArticleRepo()
	svc := NewArticleService(repo, nil, zap.NewNop())

	draft, err := svc.Create(context.Background(), ArticleRequest{
		Title:  "Easter Sunday Recap",
		Body:   "He is risen.",
		Author: "Pastor Dan",
	})
	require.NoError(t, err)
	assert.Equal(t, "easter-sunday-recap", draft.Slug)
	assert.Nil(t, draft.PublishedAt)

	published, err := svc.Update(context.Background(), draft.ID, ArticleRequest{
		Title:   "Easter Sunday Recap",
		Body:    "He is risen.",
		Author:  "Pastor Dan",
		Publish: true,
	})
	require.NoError(t, err)
	require.NotNil(t, published.PublishedAt)
	// The slug stays stable even if the title changes later.
	renamed, err := svc.Update(context.Background(), draft.ID, ArticleRequest{
		Title:   "Easter Recap (Updated)",
		Body:    "He is risen.",
		Author:  "Pastor Dan",
		Publish: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "easter-sunday-recap", renamed.Slug)
}

func TestArticleServiceUnpublishClearsTimestamp(t *testing.T) {
	repo := newFakeArticleRepo()
	svc := NewArticleService(repo, nil, zap.NewNop())

	article, err := svc.Create(context.Background(), ArticleRequest{
		Title: "News", Body: "Body", Author: "Editor", Publish: true,
	})
	require.NoError(t, err)
	require.NotNil(t, article.PublishedAt)

	updated, err := svc.Update(context.Background(), article.ID, ArticleRequest{
		Title: "News", Body: "Body", Author: "Editor", Publish: false,
	})
	require.NoError(t, err)
	assert.Nil(t, updated.PublishedAt)
}
