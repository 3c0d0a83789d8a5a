// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/slug"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// SeedOptions tunes how the factory spreads and persists generated data.
type SeedOptions struct {
	// MaxDays bounds how far back generated created_at timestamps reach.
	MaxDays int
	// DryRun builds entities without writing them, assigning synthetic IDs.
	DryRun bool
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	opts SeedOptions
	// synthetic ID counter when running in DryRun mode
	nextID uint
	// slugs already handed out this run, so generated titles that collide
	// still produce unique slugs without a round-trip per post
	seenSlugs map[string]int
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts SeedOptions) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{db: db, opts: opts, nextID: 1000, seenSlugs: map[string]int{}}
}

// CreateUser constructs and persists a sample user with a fake provider
// identity. Optional override functions may modify the generated user
// before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Provider: "github",
		Subject:  gofakeit.UUID(),
		Name:     gofakeit.Name(),
		Image:    fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
	}

	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		log.Printf("[dry-run] CreateUser: %s (no DB write)", user.Name)
		return user, nil
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("creating seed user: %w", err)
	}
	return user, nil
}

// BuildPost constructs a post struct for the given author but does not
// persist it. Useful for batching.
func (f *Factory) BuildPost(author *models.User, overrides ...func(*models.Post)) *models.Post {
	title := gofakeit.Sentence(gofakeit.Number(4, 9))
	post := &models.Post{
		Title:    title,
		Slug:     f.uniqueSlug(title),
		Content:  gofakeit.Paragraph(3, 6, 12, "\n\n"),
		Excerpt:  gofakeit.Sentence(18),
		AuthorID: author.ID,
	}

	if gofakeit.Bool() {
		key := fmt.Sprintf("tech-blog/%s.webp", gofakeit.UUID())
		post.CoverImagePublicID = key
		post.CoverImageURL = fmt.Sprintf("https://inkwell-dev.s3.us-east-1.amazonaws.com/%s", key)
	}

	// realistic created_at spread
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	daysBack := r.Intn(maxDays)
	hoursBack := r.Intn(24)
	minsBack := r.Intn(60)
	post.CreatedAt = time.Now().Add(-time.Duration(daysBack)*24*time.Hour -
		time.Duration(hoursBack)*time.Hour - time.Duration(minsBack)*time.Minute)

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePostsBatch persists multiple posts in a single DB call when possible.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if f.opts.DryRun {
		for _, p := range posts {
			f.nextID++
			p.ID = f.nextID
		}
		log.Printf("[dry-run] CreatePostsBatch: %d posts (no DB write)", len(posts))
		return nil
	}
	return f.db.Create(&posts).Error
}

// uniqueSlug derives a slug for title and disambiguates it against every
// slug already produced this run.
func (f *Factory) uniqueSlug(title string) string {
	base := slug.Make(title)
	n, seen := f.seenSlugs[base]
	f.seenSlugs[base] = n + 1
	if !seen {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n)
}
