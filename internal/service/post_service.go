// Package service contains the business rules for the blog.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
	"inkwell/internal/slug"
	"inkwell/internal/storage"

	"gorm.io/gorm"
)

const (
	maxTitleLen   = 300
	maxContentLen = 50000 // 50K characters

	// DefaultPageSize is used when the list endpoint gets no explicit limit.
	DefaultPageSize = 9
	// DefaultRecentLimit is used when the recent endpoint gets no explicit limit.
	DefaultRecentLimit = 6
	// DefaultSearchLimit caps search results when no limit is supplied.
	DefaultSearchLimit = 10
	// MaxPageSize bounds every list-shaped response.
	MaxPageSize = 100
)

// PostService implements post creation, retrieval, search, and the
// owner-only mutation rules.
type PostService struct {
	postRepo repository.PostRepository
	assets   storage.AssetStore
}

// NewPostService creates a new post service.
func NewPostService(postRepo repository.PostRepository, assets storage.AssetStore) *PostService {
	return &PostService{
		postRepo: postRepo,
		assets:   assets,
	}
}

// CreatePostInput carries the canonical mutation request for a new post.
// Image holds raw bytes when the client uploaded a file; it takes precedence
// over the literal CoverImageURL/CoverImagePublicID pair.
type CreatePostInput struct {
	AuthorID           uint
	Title              string
	Content            string
	Excerpt            string
	CoverImageURL      string
	CoverImagePublicID string
	Image              []byte
}

// UpdatePostInput carries a partial mutation for an existing post. Only
// non-empty fields overwrite stored values.
type UpdatePostInput struct {
	UserID             uint
	Slug               string
	Title              string
	Content            string
	Excerpt            string
	CoverImageURL      string
	CoverImagePublicID string
	Image              []byte
}

// Pagination describes the page envelope returned alongside list results.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int   `json:"totalPages"`
	HasMore    bool  `json:"hasMore"`
	NextPage   *int  `json:"nextPage"`
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if in.AuthorID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if len(in.Title) > maxTitleLen {
		return nil, models.NewValidationError("Title too long (max 300 characters)")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxContentLen {
		return nil, models.NewValidationError("Content too long (max 50000 characters)")
	}
	// The upload-enabled flow requires an excerpt alongside the file.
	if in.Image != nil && strings.TrimSpace(in.Excerpt) == "" {
		return nil, models.NewValidationError("Excerpt is required when uploading a cover image")
	}
	if err := validateCoverPair(in.CoverImageURL, in.CoverImagePublicID); err != nil {
		return nil, err
	}

	candidate, err := slug.Unique(ctx, in.Title, s.postRepo.SlugExists)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Slug:               candidate,
		Title:              in.Title,
		Content:            in.Content,
		Excerpt:            in.Excerpt,
		CoverImageURL:      in.CoverImageURL,
		CoverImagePublicID: in.CoverImagePublicID,
		AuthorID:           in.AuthorID,
	}

	// Upload before the insert so a failed upload persists nothing.
	uploaded, err := s.uploadCover(ctx, in.Image)
	if err != nil {
		return nil, err
	}
	if uploaded != nil {
		post.CoverImageURL = uploaded.URL
		post.CoverImagePublicID = uploaded.PublicID
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		if uploaded != nil {
			// The asset is already in the store and nothing references it.
			// There is no compensating delete; the orphan is only recorded.
			observability.OrphanedAssets.WithLabelValues("create_failed").Inc()
			middleware.Logger.WarnContext(ctx, "cover image orphaned after failed post insert",
				slog.String("public_id", uploaded.PublicID))
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Two concurrent creations raced past the slug probe; the store's
			// unique constraint picked the winner.
			return nil, models.NewConflictError("A post with this slug already exists")
		}
		return nil, err
	}

	return s.GetPost(ctx, post.Slug)
}

func (s *PostService) GetPost(ctx context.Context, slugParam string) (*models.Post, error) {
	post, err := s.postRepo.GetBySlug(ctx, slugParam)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("Post", slugParam)
	}
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) ListPosts(ctx context.Context, page, limit int) ([]*models.Post, Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	offset := (page - 1) * limit

	posts, total, err := s.postRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, Pagination{}, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	hasMore := int64(offset+limit) < total
	var nextPage *int
	if hasMore {
		n := page + 1
		nextPage = &n
	}

	return posts, Pagination{
		Page:       page,
		Limit:      limit,
		TotalCount: total,
		TotalPages: totalPages,
		HasMore:    hasMore,
		NextPage:   nextPage,
	}, nil
}

func (s *PostService) RecentPosts(ctx context.Context, limit int) ([]*models.Post, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return s.postRepo.Recent(ctx, limit)
}

// SearchPosts matches the query case-insensitively against title, content,
// and excerpt. A blank query returns an empty result set without touching
// the store.
func (s *PostService) SearchPosts(ctx context.Context, query string, limit int) ([]*models.Post, error) {
	if strings.TrimSpace(query) == "" {
		return []*models.Post{}, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return s.postRepo.Search(ctx, query, limit)
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.GetPost(ctx, in.Slug)
	if err != nil {
		return nil, err
	}

	if post.AuthorID != in.UserID {
		return nil, models.NewForbiddenError("You can only update your own posts")
	}

	if in.Title != "" {
		if len(in.Title) > maxTitleLen {
			return nil, models.NewValidationError("Title too long (max 300 characters)")
		}
		post.Title = in.Title
	}
	if in.Content != "" {
		if len(in.Content) > maxContentLen {
			return nil, models.NewValidationError("Content too long (max 50000 characters)")
		}
		post.Content = in.Content
	}
	if in.Excerpt != "" {
		post.Excerpt = in.Excerpt
	}

	switch {
	case in.Image != nil:
		// A binary upload wins over any literal URL/ID fields in the same request.
		uploaded, err := s.uploadCover(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		if post.CoverImagePublicID != "" {
			// The replaced asset stays in the store; recorded, not reclaimed.
			observability.OrphanedAssets.WithLabelValues("image_replaced").Inc()
			middleware.Logger.WarnContext(ctx, "previous cover image orphaned by replacement",
				slog.String("public_id", post.CoverImagePublicID))
		}
		post.CoverImageURL = uploaded.URL
		post.CoverImagePublicID = uploaded.PublicID
	case in.CoverImageURL != "" || in.CoverImagePublicID != "":
		if err := validateCoverPair(in.CoverImageURL, in.CoverImagePublicID); err != nil {
			return nil, err
		}
		post.CoverImageURL = in.CoverImageURL
		post.CoverImagePublicID = in.CoverImagePublicID
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) DeletePost(ctx context.Context, userID uint, slugParam string) error {
	post, err := s.GetPost(ctx, slugParam)
	if err != nil {
		return err
	}

	if post.AuthorID != userID {
		return models.NewForbiddenError("You can only delete your own posts")
	}

	if err := s.postRepo.Delete(ctx, slugParam); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Post", slugParam)
		}
		return err
	}

	if post.CoverImagePublicID != "" {
		// Deleting a post does not delete its asset; the store object is
		// orphaned. Counted so the gap is observable.
		observability.OrphanedAssets.WithLabelValues("post_deleted").Inc()
		middleware.Logger.WarnContext(ctx, "cover image orphaned by post deletion",
			slog.String("public_id", post.CoverImagePublicID))
	}
	return nil
}

// uploadCover pushes raw image bytes to the asset store. A nil payload means
// the request carried no file.
func (s *PostService) uploadCover(ctx context.Context, image []byte) (*storage.UploadResult, error) {
	if image == nil {
		return nil, nil
	}
	if s.assets == nil {
		return nil, models.NewValidationError("Cover image uploads are not available")
	}
	uploaded, err := s.assets.Upload(ctx, image)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidImage) {
			observability.AssetUploadFailures.WithLabelValues("transcode").Inc()
			return nil, models.NewValidationError("Cover image must be a JPEG, PNG, GIF, or WebP file")
		}
		observability.AssetUploadFailures.WithLabelValues("store").Inc()
		return nil, models.NewUploadError(err)
	}
	return uploaded, nil
}

// validateCoverPair enforces that URL and public ID are set or cleared together.
func validateCoverPair(url, publicID string) error {
	if (url == "") != (publicID == "") {
		return models.NewValidationError("coverImageURL and coverImagePublicId must be supplied together")
	}
	return nil
}
