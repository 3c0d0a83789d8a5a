package server

import (
	"io"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// maxCoverImageBytes bounds the accepted upload size before transcoding.
const maxCoverImageBytes = 10 << 20 // 10 MiB

// postMutationRequest is the decoded body of a create or update request,
// whichever of the two wire shapes it arrived in. Image is non-nil only for
// multipart requests that carried a coverImage file.
type postMutationRequest struct {
	Title              string `json:"title"`
	Content            string `json:"content"`
	Excerpt            string `json:"excerpt"`
	CoverImageURL      string `json:"coverImageURL"`
	CoverImagePublicID string `json:"coverImagePublicId"`
	Image              []byte `json:"-"`
}

// parsePostMutation decodes either wire shape of a post mutation:
// multipart/form-data with an optional coverImage file, or a plain JSON body
// with literal cover image fields. On failure it writes a 400 response and
// returns errResponseWritten.
func (s *Server) parsePostMutation(c *fiber.Ctx) (*postMutationRequest, error) {
	req := &postMutationRequest{}

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		req.Title = c.FormValue("title")
		req.Content = c.FormValue("content")
		req.Excerpt = c.FormValue("excerpt")
		req.CoverImageURL = c.FormValue("coverImageURL")
		req.CoverImagePublicID = c.FormValue("coverImagePublicId")

		fileHeader, err := c.FormFile("coverImage")
		if err == nil && fileHeader != nil {
			if fileHeader.Size > maxCoverImageBytes {
				_ = models.RespondWithError(c, fiber.StatusBadRequest,
					models.NewValidationError("Cover image exceeds the 10 MB limit"))
				return nil, errResponseWritten
			}
			file, err := fileHeader.Open()
			if err != nil {
				_ = models.RespondWithError(c, fiber.StatusBadRequest,
					models.NewValidationError("Cover image could not be read"))
				return nil, errResponseWritten
			}
			defer file.Close()
			content, err := io.ReadAll(file)
			if err != nil {
				_ = models.RespondWithError(c, fiber.StatusBadRequest,
					models.NewValidationError("Cover image could not be read"))
				return nil, errResponseWritten
			}
			req.Image = content
		}
		return req, nil
	}

	if err := c.BodyParser(req); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return nil, errResponseWritten
	}
	return req, nil
}

// GetPosts handles GET /api/posts with page-based pagination
func (s *Server) GetPosts(c *fiber.Ctx) error {
	ctx := c.Context()
	page := parsePage(c)

	posts, pagination, err := s.postService.ListPosts(ctx, page.Page, page.Limit)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(PostListResponse{
		Posts:      toPostSummaries(posts),
		Pagination: pagination,
	})
}

// GetRecentPosts handles GET /api/posts/recent
func (s *Server) GetRecentPosts(c *fiber.Ctx) error {
	ctx := c.Context()
	limit := c.QueryInt("limit", 0)

	posts, err := s.postService.RecentPosts(ctx, limit)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	// The recent feed is embeddable from any origin, unlike the rest of the
	// API which honors the configured origin list. Consumers get the bare
	// array, not an envelope.
	c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
	return c.JSON(toPostSummaries(posts))
}

// SearchPosts handles GET /api/posts/search?q=...
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	ctx := c.Context()
	q := c.Query("q")
	limit := c.QueryInt("limit", 0)

	posts, err := s.postService.SearchPosts(ctx, q, limit)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	summaries := toPostSummaries(posts)
	return c.JSON(PostSearchResponse{Posts: summaries, Count: len(summaries)})
}

// GetPost handles GET /api/posts/:slug
func (s *Server) GetPost(c *fiber.Ctx) error {
	ctx := c.Context()
	slug := c.Params("slug")

	post, err := s.postService.GetPost(ctx, slug)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(toPostResponse(post))
}

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	ctx := c.Context()
	session, ok := sessionFromLocals(c)
	if !ok {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authentication required"))
	}

	req, err := s.parsePostMutation(c)
	if err != nil {
		return nil
	}

	// The upload form requires all fields including the image file; reject
	// incomplete multipart submissions with the full list of gaps.
	if req.Image != nil || strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		var missing []string
		if strings.TrimSpace(req.Title) == "" {
			missing = append(missing, "title")
		}
		if strings.TrimSpace(req.Content) == "" {
			missing = append(missing, "content")
		}
		if strings.TrimSpace(req.Excerpt) == "" {
			missing = append(missing, "excerpt")
		}
		if req.Image == nil {
			missing = append(missing, "coverImage")
		}
		if len(missing) > 0 {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Missing required fields: "+strings.Join(missing, ", ")))
		}
	}

	post, err := s.postService.CreatePost(ctx, service.CreatePostInput{
		AuthorID:           session.UserID,
		Title:              req.Title,
		Content:            req.Content,
		Excerpt:            req.Excerpt,
		CoverImageURL:      req.CoverImageURL,
		CoverImagePublicID: req.CoverImagePublicID,
		Image:              req.Image,
	})
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(toPostResponse(post))
}

// UpdatePost handles PUT /api/posts/:slug
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	ctx := c.Context()
	slug := c.Params("slug")
	session, ok := sessionFromLocals(c)
	if !ok {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authentication required"))
	}

	req, err := s.parsePostMutation(c)
	if err != nil {
		return nil
	}

	post, err := s.postService.UpdatePost(ctx, service.UpdatePostInput{
		UserID:             session.UserID,
		Slug:               slug,
		Title:              req.Title,
		Content:            req.Content,
		Excerpt:            req.Excerpt,
		CoverImageURL:      req.CoverImageURL,
		CoverImagePublicID: req.CoverImagePublicID,
		Image:              req.Image,
	})
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(toPostResponse(post))
}

// DeletePost handles DELETE /api/posts/:slug
func (s *Server) DeletePost(c *fiber.Ctx) error {
	ctx := c.Context()
	slug := c.Params("slug")
	session, ok := sessionFromLocals(c)
	if !ok {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authentication required"))
	}

	if err := s.postService.DeletePost(ctx, session.UserID, slug); err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(fiber.Map{"message": "Post deleted successfully"})
}
