package blog

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/puretrustgold/puretrust-api/model"
	"github.com/puretrustgold/puretrust-api/services"
	"github.com/puretrustgold/puretrust-api/utils/middleware"
	"github.com/puretrustgold/puretrust-api/utils/response"
	"github.com/puretrustgold/puretrust-api/utils/validation"
)

// BlogHandler serves public articles and the operator CMS endpoints
type BlogHandler struct {
	validator *validation.Validator
	blog      *services.BlogService
	audit     *services.AuditService
}

// NewBlogHandler creates a new blog handler
func NewBlogHandler(blog *services.BlogService, audit *services.AuditService) *BlogHandler {
	return &BlogHandler{
		validator: validation.NewValidator(),
		blog:      blog,
		audit:     audit,
	}
}

// PostRequest represents a create or update of an article
type PostRequest struct {
	Title     string `json:"title" validate:"required,min=3,max=255"`
	Slug      string `json:"slug" validate:"omitempty,max=255"`
	Body      string `json:"body" validate:"required"`
	Excerpt   string `json:"excerpt" validate:"omitempty,max=512"`
	CoverURL  string `json:"cover_url" validate:"omitempty,url,max=1024"`
	Author    string `json:"author" validate:"omitempty,max=255"`
	Published bool   `json:"published"`
}

func (r *PostRequest) toModel() *model.BlogPost {
	return &model.BlogPost{
		Title:     r.Title,
		Slug:      r.Slug,
		Body:      r.Body,
		Excerpt:   r.Excerpt,
		CoverURL:  r.CoverURL,
		Author:    r.Author,
		Published: r.Published,
	}
}

// List handles GET /api/v1/blog (public, published posts only)
func (h *BlogHandler) List(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	posts, total, err := h.blog.ListPublished(c.Context(), page, limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to load articles")
	}

	return response.Paginated(c, posts, response.CalculatePagination(page, limit, total))
}

// GetBySlug handles GET /api/v1/blog/:slug (public)
func (h *BlogHandler) GetBySlug(c *fiber.Ctx) error {
	post, err := h.blog.GetBySlug(c.Context(), c.Params("slug"))
	if errors.Is(err, services.ErrPostNotFound) {
		return response.NotFound(c, "Article not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to load article")
	}
	return response.Success(c, post)
}

// Create handles POST /api/v1/blog (operator)
func (h *BlogHandler) Create(c *fiber.Ctx) error {
	admin, ok := middleware.GetAdmin(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req PostRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.UnprocessableEntity(c, "Validation failed", validation.FlattenValidationErrors(err))
	}

	post := req.toModel()
	if post.Author == "" {
		post.Author = admin.Name
	}
	if err := h.blog.Create(c.Context(), post); err != nil {
		return response.InternalServerError(c, "Failed to create article")
	}

	h.audit.Record(c, admin.ID, "blog_create", "blog_posts", post.ID, map[string]interface{}{
		"slug":      post.Slug,
		"published": post.Published,
	})

	return response.Created(c, post)
}

// Update handles PUT /api/v1/blog/:id (operator)
func (h *BlogHandler) Update(c *fiber.Ctx) error {
	admin, ok := middleware.GetAdmin(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req PostRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.UnprocessableEntity(c, "Validation failed", validation.FlattenValidationErrors(err))
	}

	post, err := h.blog.Update(c.Context(), c.Params("id"), req.toModel())
	if errors.Is(err, services.ErrPostNotFound) {
		return response.NotFound(c, "Article not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to update article")
	}

	h.audit.Record(c, admin.ID, "blog_update", "blog_posts", post.ID, map[string]interface{}{
		"slug":      post.Slug,
		"published": post.Published,
	})

	return response.Success(c, post)
}

// Delete handles DELETE /api/v1/blog/:id (operator)
func (h *BlogHandler) Delete(c *fiber.Ctx) error {
	admin, ok := middleware.GetAdmin(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	id := c.Params("id")
	err := h.blog.Delete(c.Context(), id)
	if errors.Is(err, services.ErrPostNotFound) {
		return response.NotFound(c, "Article not found")
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to delete article")
	}

	h.audit.Record(c, admin.ID, "blog_delete", "blog_posts", id, nil)

	return response.Success(c, fiber.Map{"deleted": true})
}
