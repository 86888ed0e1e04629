package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/puretrustgold/puretrust-api/model"
	"golang.org/x/net/html"
	"gorm.io/gorm"
)

// ErrPostNotFound is returned for lookups of unknown posts
var ErrPostNotFound = errors.New("blog post not found")

// ExcerptMaxLength bounds generated excerpts
const ExcerptMaxLength = 280

// BlogService manages CMS articles for the public site
type BlogService struct {
	db *gorm.DB
}

// NewBlogService creates a new blog service
func NewBlogService(db *gorm.DB) *BlogService {
	return &BlogService{db: db}
}

// ListPublished returns published posts, newest first
func (s *BlogService) ListPublished(ctx context.Context, page, limit int) ([]model.BlogPost, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.BlogPost{}).Where("published = ?", true)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []model.BlogPost
	err := query.
		Order("published_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&posts).Error
	return posts, total, err
}

// GetBySlug loads one published post by slug
func (s *BlogService) GetBySlug(ctx context.Context, slug string) (*model.BlogPost, error) {
	var post model.BlogPost
	err := s.db.WithContext(ctx).
		First(&post, "slug = ? AND published = ?", slug, true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Create stores a new post. A missing slug is derived from the title and a
// missing excerpt from the body HTML.
func (s *BlogService) Create(ctx context.Context, post *model.BlogPost) error {
	if post.Slug == "" {
		post.Slug = Slugify(post.Title)
	}
	if post.Excerpt == "" {
		post.Excerpt = ExtractExcerpt(post.Body, ExcerptMaxLength)
	}
	if post.Published && post.PublishedAt == nil {
		now := time.Now().UTC()
		post.PublishedAt = &now
	}
	return s.db.WithContext(ctx).Create(post).Error
}

// Update rewrites an existing post
func (s *BlogService) Update(ctx context.Context, id string, updated *model.BlogPost) (*model.BlogPost, error) {
	var post model.BlogPost
	err := s.db.WithContext(ctx).First(&post, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}

	post.Title = updated.Title
	post.Body = updated.Body
	post.CoverURL = updated.CoverURL
	post.Author = updated.Author
	if updated.Slug != "" {
		post.Slug = updated.Slug
	}
	post.Excerpt = updated.Excerpt
	if post.Excerpt == "" {
		post.Excerpt = ExtractExcerpt(post.Body, ExcerptMaxLength)
	}
	if updated.Published && !post.Published {
		now := time.Now().UTC()
		post.PublishedAt = &now
	}
	post.Published = updated.Published

	if err := s.db.WithContext(ctx).Save(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// Delete removes a post
func (s *BlogService) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&model.BlogPost{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL slug from a title
func Slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = slugStrip.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// ExtractExcerpt renders HTML body text and truncates it on a word boundary.
// Script and style contents are skipped entirely.
func ExtractExcerpt(htmlBody string, maxLen int) string {
	doc, err := html.Parse(strings.NewReader(htmlBody))
	if err != nil {
		return truncateWords(htmlBody, maxLen)
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return truncateWords(collapseWhitespace(sb.String()), maxLen)
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateWords(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxLen {
		return s
	}

	cut := s[:maxLen]
	if idx := strings.LastIndexFunc(cut, unicode.IsSpace); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " .,;:") + "…"
}
