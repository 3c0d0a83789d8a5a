package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"

	"inkwell/internal/models"
	"inkwell/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn     func(context.Context, *models.Post) error
	getBySlugFn  func(context.Context, string) (*models.Post, error)
	listFn       func(context.Context, int, int) ([]*models.Post, int64, error)
	recentFn     func(context.Context, int) ([]*models.Post, error)
	searchFn     func(context.Context, string, int) ([]*models.Post, error)
	updateFn     func(context.Context, *models.Post) error
	deleteFn     func(context.Context, string) error
	slugExistsFn func(context.Context, string) (bool, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return s.getBySlugFn(ctx, slug)
}
func (s *postRepoStub) List(ctx context.Context, limit, offset int) ([]*models.Post, int64, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *postRepoStub) Recent(ctx context.Context, limit int) ([]*models.Post, error) {
	return s.recentFn(ctx, limit)
}
func (s *postRepoStub) Search(ctx context.Context, query string, limit int) ([]*models.Post, error) {
	return s.searchFn(ctx, query, limit)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, slug string) error {
	return s.deleteFn(ctx, slug)
}
func (s *postRepoStub) SlugExists(ctx context.Context, slug string) (bool, error) {
	return s.slugExistsFn(ctx, slug)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:    func(_ context.Context, _ *models.Post) error { return nil },
		getBySlugFn: func(_ context.Context, slug string) (*models.Post, error) { return &models.Post{Slug: slug}, nil },
		listFn:      func(_ context.Context, _, _ int) ([]*models.Post, int64, error) { return nil, 0, nil },
		recentFn:    func(_ context.Context, _ int) ([]*models.Post, error) { return nil, nil },
		searchFn:    func(_ context.Context, _ string, _ int) ([]*models.Post, error) { return nil, nil },
		updateFn:    func(_ context.Context, _ *models.Post) error { return nil },
		deleteFn:    func(_ context.Context, _ string) error { return nil },
		slugExistsFn: func(_ context.Context, _ string) (bool, error) {
			return false, nil
		},
	}
}

// assetStoreStub records uploads and deletions.
type assetStoreStub struct {
	uploadFn func(context.Context, []byte) (*storage.UploadResult, error)
	uploads  int
}

func (s *assetStoreStub) Upload(ctx context.Context, content []byte) (*storage.UploadResult, error) {
	s.uploads++
	if s.uploadFn != nil {
		return s.uploadFn(ctx, content)
	}
	return &storage.UploadResult{
		URL:      "https://inkwell-dev.s3.us-east-1.amazonaws.com/tech-blog/fixed.webp",
		PublicID: "tech-blog/fixed.webp",
	}, nil
}

func (s *assetStoreStub) Delete(_ context.Context, _ string) error { return nil }

// pngBytes produces a tiny valid PNG for upload paths.
func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func appErrCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	return appErr.Code
}

func TestCreatePost_Validation(t *testing.T) {
	svc := NewPostService(noopPostRepo(), &assetStoreStub{})
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreatePostInput
	}{
		{name: "Missing Title", input: CreatePostInput{AuthorID: 1, Content: "body"}},
		{name: "Missing Content", input: CreatePostInput{AuthorID: 1, Title: "Hi"}},
		{name: "Blank Title", input: CreatePostInput{AuthorID: 1, Title: "   ", Content: "body"}},
		{name: "Title Too Long", input: CreatePostInput{AuthorID: 1, Title: strings.Repeat("x", 301), Content: "body"}},
		{name: "Upload Without Excerpt", input: CreatePostInput{AuthorID: 1, Title: "Hi", Content: "body", Image: []byte{1}}},
		{name: "URL Without Public ID", input: CreatePostInput{AuthorID: 1, Title: "Hi", Content: "body", Excerpt: "e", CoverImageURL: "https://example.com/a.webp"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePost(ctx, tt.input)
			assert.Equal(t, "VALIDATION_ERROR", appErrCode(t, err))
		})
	}
}

func TestCreatePost_RequiresAuthor(t *testing.T) {
	svc := NewPostService(noopPostRepo(), &assetStoreStub{})

	_, err := svc.CreatePost(context.Background(), CreatePostInput{Title: "Hi", Content: "body"})
	assert.Equal(t, "UNAUTHORIZED", appErrCode(t, err))
}

func TestCreatePost_SlugDerivation(t *testing.T) {
	repo := noopPostRepo()
	var created *models.Post
	repo.createFn = func(_ context.Context, p *models.Post) error {
		created = p
		return nil
	}
	svc := NewPostService(repo, &assetStoreStub{})

	_, err := svc.CreatePost(context.Background(), CreatePostInput{
		AuthorID: 1,
		Title:    "Hello World",
		Content:  "body",
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "hello-world", created.Slug)
}

func TestCreatePost_SlugCollisionProbing(t *testing.T) {
	repo := noopPostRepo()
	repo.slugExistsFn = func(_ context.Context, slug string) (bool, error) {
		return slug == "hello-world", nil
	}
	var created *models.Post
	repo.createFn = func(_ context.Context, p *models.Post) error {
		created = p
		return nil
	}
	svc := NewPostService(repo, &assetStoreStub{})

	// Same normalized title as the existing post, different punctuation.
	_, err := svc.CreatePost(context.Background(), CreatePostInput{
		AuthorID: 1,
		Title:    "Hello World!!",
		Content:  "body",
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "hello-world-1", created.Slug)
}

func TestCreatePost_ConcurrentSlugRace(t *testing.T) {
	repo := noopPostRepo()
	repo.createFn = func(_ context.Context, _ *models.Post) error {
		return gorm.ErrDuplicatedKey
	}
	svc := NewPostService(repo, &assetStoreStub{})

	_, err := svc.CreatePost(context.Background(), CreatePostInput{
		AuthorID: 1,
		Title:    "Hello World",
		Content:  "body",
	})
	assert.Equal(t, "CONFLICT", appErrCode(t, err))
}

func TestCreatePost_UploadFailureSkipsInsert(t *testing.T) {
	repo := noopPostRepo()
	createCalls := 0
	repo.createFn = func(_ context.Context, _ *models.Post) error {
		createCalls++
		return nil
	}
	assets := &assetStoreStub{
		uploadFn: func(_ context.Context, _ []byte) (*storage.UploadResult, error) {
			return nil, errors.New("bucket unavailable")
		},
	}
	svc := NewPostService(repo, assets)

	_, err := svc.CreatePost(context.Background(), CreatePostInput{
		AuthorID: 1,
		Title:    "Hi",
		Content:  "body",
		Excerpt:  "e",
		Image:    pngBytes(t),
	})
	assert.Equal(t, "UPLOAD_ERROR", appErrCode(t, err))
	assert.Zero(t, createCalls)
}

func TestCreatePost_InvalidImageIsClientError(t *testing.T) {
	assets := &assetStoreStub{
		uploadFn: func(_ context.Context, content []byte) (*storage.UploadResult, error) {
			return storage.NewS3StoreWithClient(nil, "b", "r", "f").Upload(context.Background(), content)
		},
	}
	svc := NewPostService(noopPostRepo(), assets)

	_, err := svc.CreatePost(context.Background(), CreatePostInput{
		AuthorID: 1,
		Title:    "Hi",
		Content:  "body",
		Excerpt:  "e",
		Image:    []byte("definitely not an image"),
	})
	assert.Equal(t, "VALIDATION_ERROR", appErrCode(t, err))
}

func TestCreatePost_UploadPopulatesCoverFields(t *testing.T) {
	repo := noopPostRepo()
	var created *models.Post
	repo.createFn = func(_ context.Context, p *models.Post) error {
		created = p
		return nil
	}
	svc := NewPostService(repo, &assetStoreStub{})

	_, err := svc.CreatePost(context.Background(), CreatePostInput{
		AuthorID: 1,
		Title:    "Hi",
		Content:  "body",
		Excerpt:  "e",
		Image:    pngBytes(t),
		// Literal fields are ignored when a file is uploaded
		CoverImageURL:      "https://example.com/stale.webp",
		CoverImagePublicID: "stale",
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "tech-blog/fixed.webp", created.CoverImagePublicID)
	assert.Equal(t, "https://inkwell-dev.s3.us-east-1.amazonaws.com/tech-blog/fixed.webp", created.CoverImageURL)
}

func TestGetPost_NotFound(t *testing.T) {
	repo := noopPostRepo()
	repo.getBySlugFn = func(_ context.Context, _ string) (*models.Post, error) {
		return nil, gorm.ErrRecordNotFound
	}
	svc := NewPostService(repo, &assetStoreStub{})

	_, err := svc.GetPost(context.Background(), "missing")
	assert.Equal(t, "NOT_FOUND", appErrCode(t, err))
}

func TestListPosts_PaginationMath(t *testing.T) {
	repo := noopPostRepo()
	var gotLimit, gotOffset int
	repo.listFn = func(_ context.Context, limit, offset int) ([]*models.Post, int64, error) {
		gotLimit, gotOffset = limit, offset
		return []*models.Post{{ID: 1}}, 20, nil
	}
	svc := NewPostService(repo, &assetStoreStub{})

	_, pagination, err := svc.ListPosts(context.Background(), 2, 9)
	require.NoError(t, err)
	assert.Equal(t, 9, gotLimit)
	assert.Equal(t, 9, gotOffset)
	assert.Equal(t, 2, pagination.Page)
	assert.Equal(t, int64(20), pagination.TotalCount)
	assert.Equal(t, 3, pagination.TotalPages)
	assert.True(t, pagination.HasMore)
	require.NotNil(t, pagination.NextPage)
	assert.Equal(t, 3, *pagination.NextPage)
}

func TestListPosts_LastPage(t *testing.T) {
	repo := noopPostRepo()
	repo.listFn = func(_ context.Context, limit, offset int) ([]*models.Post, int64, error) {
		return []*models.Post{{ID: 19}, {ID: 20}}, 20, nil
	}
	svc := NewPostService(repo, &assetStoreStub{})

	_, pagination, err := svc.ListPosts(context.Background(), 3, 9)
	require.NoError(t, err)
	assert.False(t, pagination.HasMore)
	assert.Nil(t, pagination.NextPage)
}

func TestListPosts_Defaults(t *testing.T) {
	repo := noopPostRepo()
	var gotLimit, gotOffset int
	repo.listFn = func(_ context.Context, limit, offset int) ([]*models.Post, int64, error) {
		gotLimit, gotOffset = limit, offset
		return nil, 0, nil
	}
	svc := NewPostService(repo, &assetStoreStub{})

	// Zero values mean "unspecified"; negatives are treated the same way.
	_, pagination, err := svc.ListPosts(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, gotLimit)
	assert.Zero(t, gotOffset)
	assert.Equal(t, 1, pagination.Page)

	_, _, err = svc.ListPosts(context.Background(), 1, 1000)
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, gotLimit)
}

func TestRecentPosts_Limits(t *testing.T) {
	repo := noopPostRepo()
	var gotLimit int
	repo.recentFn = func(_ context.Context, limit int) ([]*models.Post, error) {
		gotLimit = limit
		return nil, nil
	}
	svc := NewPostService(repo, &assetStoreStub{})

	_, err := svc.RecentPosts(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultRecentLimit, gotLimit)

	_, err = svc.RecentPosts(context.Background(), 500)
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, gotLimit)
}

func TestSearchPosts_BlankQuerySkipsStore(t *testing.T) {
	repo := noopPostRepo()
	searchCalls := 0
	repo.searchFn = func(_ context.Context, _ string, _ int) ([]*models.Post, error) {
		searchCalls++
		return nil, nil
	}
	svc := NewPostService(repo, &assetStoreStub{})

	for _, q := range []string{"", "   ", "\t"} {
		posts, err := svc.SearchPosts(context.Background(), q, 0)
		require.NoError(t, err)
		assert.NotNil(t, posts)
		assert.Empty(t, posts)
	}
	assert.Zero(t, searchCalls)
}

func TestSearchPosts_DefaultLimit(t *testing.T) {
	repo := noopPostRepo()
	var gotLimit int
	repo.searchFn = func(_ context.Context, _ string, limit int) ([]*models.Post, error) {
		gotLimit = limit
		return nil, nil
	}
	svc := NewPostService(repo, &assetStoreStub{})

	_, err := svc.SearchPosts(context.Background(), "golang", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultSearchLimit, gotLimit)
}

func TestUpdatePost_NotFoundBeforeOwnership(t *testing.T) {
	repo := noopPostRepo()
	repo.getBySlugFn = func(_ context.Context, _ string) (*models.Post, error) {
		return nil, gorm.ErrRecordNotFound
	}
	svc := NewPostService(repo, &assetStoreStub{})

	_, err := svc.UpdatePost(context.Background(), UpdatePostInput{UserID: 1, Slug: "missing"})
	assert.Equal(t, "NOT_FOUND", appErrCode(t, err))
}

func TestUpdatePost_ForbiddenLeavesPostUnchanged(t *testing.T) {
	repo := noopPostRepo()
	repo.getBySlugFn = func(_ context.Context, slug string) (*models.Post, error) {
		return &models.Post{Slug: slug, AuthorID: 2, Title: "Theirs"}, nil
	}
	updateCalls := 0
	repo.updateFn = func(_ context.Context, _ *models.Post) error {
		updateCalls++
		return nil
	}
	svc := NewPostService(repo, &assetStoreStub{})

	_, err := svc.UpdatePost(context.Background(), UpdatePostInput{
		UserID: 1,
		Slug:   "theirs",
		Title:  "Mine now",
	})
	assert.Equal(t, "FORBIDDEN", appErrCode(t, err))
	assert.Zero(t, updateCalls)
}

func TestUpdatePost_PartialFields(t *testing.T) {
	repo := noopPostRepo()
	repo.getBySlugFn = func(_ context.Context, slug string) (*models.Post, error) {
		return &models.Post{
			Slug:     slug,
			AuthorID: 1,
			Title:    "Old Title",
			Content:  "Old content",
			Excerpt:  "Old excerpt",
		}, nil
	}
	var updated *models.Post
	repo.updateFn = func(_ context.Context, p *models.Post) error {
		updated = p
		return nil
	}
	svc := NewPostService(repo, &assetStoreStub{})

	_, err := svc.UpdatePost(context.Background(), UpdatePostInput{
		UserID: 1,
		Slug:   "old-title",
		Title:  "New Title",
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "New Title", updated.Title)
	assert.Equal(t, "Old content", updated.Content)
	assert.Equal(t, "Old excerpt", updated.Excerpt)
	// The slug is derived once at creation and never re-derived.
	assert.Equal(t, "old-title", updated.Slug)
}

func TestUpdatePost_ImageReplacesLiteralFields(t *testing.T) {
	repo := noopPostRepo()
	repo.getBySlugFn = func(_ context.Context, slug string) (*models.Post, error) {
		return &models.Post{
			Slug:               slug,
			AuthorID:           1,
			CoverImageURL:      "https://inkwell-dev.s3.us-east-1.amazonaws.com/tech-blog/old.webp",
			CoverImagePublicID: "tech-blog/old.webp",
		}, nil
	}
	var updated *models.Post
	repo.updateFn = func(_ context.Context, p *models.Post) error {
		updated = p
		return nil
	}
	svc := NewPostService(repo, &assetStoreStub{})

	_, err := svc.UpdatePost(context.Background(), UpdatePostInput{
		UserID:             1,
		Slug:               "post",
		Image:              pngBytes(t),
		CoverImageURL:      "https://example.com/ignored.webp",
		CoverImagePublicID: "ignored",
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "tech-blog/fixed.webp", updated.CoverImagePublicID)
}

func TestDeletePost_NotFound(t *testing.T) {
	repo := noopPostRepo()
	repo.getBySlugFn = func(_ context.Context, _ string) (*models.Post, error) {
		return nil, gorm.ErrRecordNotFound
	}
	svc := NewPostService(repo, &assetStoreStub{})

	err := svc.DeletePost(context.Background(), 1, "missing")
	assert.Equal(t, "NOT_FOUND", appErrCode(t, err))
}

func TestDeletePost_Forbidden(t *testing.T) {
	repo := noopPostRepo()
	repo.getBySlugFn = func(_ context.Context, slug string) (*models.Post, error) {
		return &models.Post{Slug: slug, AuthorID: 2}, nil
	}
	deleteCalls := 0
	repo.deleteFn = func(_ context.Context, _ string) error {
		deleteCalls++
		return nil
	}
	svc := NewPostService(repo, &assetStoreStub{})

	err := svc.DeletePost(context.Background(), 1, "theirs")
	assert.Equal(t, "FORBIDDEN", appErrCode(t, err))
	assert.Zero(t, deleteCalls)
}

func TestDeletePost_Success(t *testing.T) {
	repo := noopPostRepo()
	repo.getBySlugFn = func(_ context.Context, slug string) (*models.Post, error) {
		return &models.Post{Slug: slug, AuthorID: 1, CoverImagePublicID: "tech-blog/x.webp"}, nil
	}
	var deletedSlug string
	repo.deleteFn = func(_ context.Context, slug string) error {
		deletedSlug = slug
		return nil
	}
	svc := NewPostService(repo, &assetStoreStub{})

	err := svc.DeletePost(context.Background(), 1, "mine")
	require.NoError(t, err)
	assert.Equal(t, "mine", deletedSlug)
}
