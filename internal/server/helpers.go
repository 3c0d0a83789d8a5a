package server

import (
	"errors"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// pageParams holds parsed page/limit query parameters. Limit 0 means the
// caller supplied none; the service applies the endpoint's default.
type pageParams struct {
	Page  int
	Limit int
}

// parsePage extracts page and limit query parameters. Non-numeric and
// out-of-range values fall back rather than erroring, matching the forgiving
// behavior of the list endpoints.
func parsePage(c *fiber.Ctx) pageParams {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		limit = 0
	}
	return pageParams{Page: page, Limit: limit}
}

// AuthorResponse is the public author projection: display fields only,
// never provider identity.
type AuthorResponse struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

// PostSummaryResponse is the list-context projection of a post. Content is
// excluded to bound payload size.
type PostSummaryResponse struct {
	ID            uint           `json:"id"`
	Slug          string         `json:"slug"`
	Title         string         `json:"title"`
	Excerpt       string         `json:"excerpt"`
	CoverImageURL string         `json:"coverImageURL,omitempty"`
	Author        AuthorResponse `json:"author"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// PostResponse is the full detail projection of a post.
type PostResponse struct {
	ID                 uint           `json:"id"`
	Slug               string         `json:"slug"`
	Title              string         `json:"title"`
	Content            string         `json:"content"`
	Excerpt            string         `json:"excerpt"`
	CoverImageURL      string         `json:"coverImageURL,omitempty"`
	CoverImagePublicID string         `json:"coverImagePublicId,omitempty"`
	AuthorID           uint           `json:"authorId"`
	Author             AuthorResponse `json:"author"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

// PostListResponse is the paginated envelope for GET /api/posts.
type PostListResponse struct {
	Posts      []PostSummaryResponse `json:"posts"`
	Pagination service.Pagination    `json:"pagination"`
}

// PostSearchResponse carries search matches plus the match count.
type PostSearchResponse struct {
	Posts []PostSummaryResponse `json:"posts"`
	Count int                   `json:"count,omitempty"`
}

func toAuthorResponse(u models.User) AuthorResponse {
	return AuthorResponse{Name: u.Name, Image: u.Image}
}

func toPostResponse(p *models.Post) PostResponse {
	return PostResponse{
		ID:                 p.ID,
		Slug:               p.Slug,
		Title:              p.Title,
		Content:            p.Content,
		Excerpt:            p.Excerpt,
		CoverImageURL:      p.CoverImageURL,
		CoverImagePublicID: p.CoverImagePublicID,
		AuthorID:           p.AuthorID,
		Author:             toAuthorResponse(p.Author),
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func toPostSummaries(posts []*models.Post) []PostSummaryResponse {
	out := make([]PostSummaryResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, PostSummaryResponse{
			ID:            p.ID,
			Slug:          p.Slug,
			Title:         p.Title,
			Excerpt:       p.Excerpt,
			CoverImageURL: p.CoverImageURL,
			Author:        toAuthorResponse(p.Author),
			CreatedAt:     p.CreatedAt,
		})
	}
	return out
}
