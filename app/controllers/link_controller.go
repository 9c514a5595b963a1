package controllers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ManuelReschke/LinkFox/app/models"
	"github.com/ManuelReschke/LinkFox/app/repository"
	"github.com/ManuelReschke/LinkFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/LinkFox/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/LinkFox/internal/pkg/shortener"
	"github.com/ManuelReschke/LinkFox/internal/pkg/statistics"
	"github.com/ManuelReschke/LinkFox/internal/pkg/usercontext"
)

const (
	defaultSlugLength = 7
	maxSlugAttempts   = 5
)

type createLinkRequest struct {
	TargetURL string `json:"target_url"`
	Title     string `json:"title"`
	Slug      string `json:"slug"`
}

type updateLinkRequest struct {
	TargetURL *string `json:"target_url"`
	Title     *string `json:"title"`
	IsActive  *bool   `json:"is_active"`
}

func linkResponse(link *models.Link) fiber.Map {
	return fiber.Map{
		"uuid":       link.UUID,
		"slug":       link.Slug,
		"target_url": link.TargetURL,
		"title":      link.Title,
		"is_active":  link.IsActive,
		"clicks":     link.Clicks,
		"created_at": link.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// HandleLinkCreate creates a short link for the authenticated user. When no
// custom slug is provided a random one is generated.
func HandleLinkCreate(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Authentication required"})
	}

	if !models.GetAppSettings().IsLinkCreationEnabled() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "service_unavailable", "message": "Link creation is currently disabled"})
	}

	var req createLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	repo := repository.GetGlobalFactory().GetLinkRepository()

	plan := entitlements.Normalize(userCtx.Plan)
	count, err := repo.CountByUserID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to count links"})
	}
	if !entitlements.CanCreateLink(plan, count) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "quota_exceeded", "message": "Link quota for your plan is exhausted"})
	}

	slug := strings.TrimSpace(req.Slug)
	if slug != "" {
		if !entitlements.AllowsCustomSlug(plan) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Custom slugs require a premium plan"})
		}
		taken, err := repo.SlugExists(slug)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to check slug"})
		}
		if taken {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "Slug already taken"})
		}
	} else {
		var err error
		slug, err = generateFreeSlug(repo)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to generate slug"})
		}
	}

	link := &models.Link{
		UserID:    userCtx.UserID,
		Slug:      slug,
		TargetURL: strings.TrimSpace(req.TargetURL),
		Title:     strings.TrimSpace(req.Title),
		IsActive:  true,
	}
	if err := link.Validate(); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "Invalid link data"})
	}
	if err := repo.Create(link); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create link"})
	}

	statistics.ResetCacheUpdateTimer()

	return c.Status(fiber.StatusCreated).JSON(linkResponse(link))
}

func generateFreeSlug(repo repository.LinkRepository) (string, error) {
	for i := 0; i < maxSlugAttempts; i++ {
		slug, err := shortener.GenerateSecureSlug(defaultSlugLength)
		if err != nil {
			return "", err
		}
		taken, err := repo.SlugExists(slug)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
	}
	return "", errors.New("no free slug found")
}

// HandleLinkList returns the authenticated user's links, newest first.
func HandleLinkList(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Authentication required"})
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	perPage := c.QueryInt("per_page", 25)
	if perPage < 1 || perPage > 100 {
		perPage = 25
	}

	repo := repository.GetGlobalFactory().GetLinkRepository()
	links, err := repo.GetByUserID(userCtx.UserID, (page-1)*perPage, perPage)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load links"})
	}
	total, err := repo.CountByUserID(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to count links"})
	}

	items := make([]fiber.Map, 0, len(links))
	for i := range links {
		items = append(items, linkResponse(&links[i]))
	}

	return c.JSON(fiber.Map{
		"links":    items,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

// HandleLinkGet returns a single link owned by the authenticated user.
func HandleLinkGet(c *fiber.Ctx) error {
	link, errResp := loadOwnedLink(c)
	if errResp != nil {
		return errResp
	}
	return c.JSON(linkResponse(link))
}

// HandleLinkUpdate patches target URL, title or active flag of an owned link.
func HandleLinkUpdate(c *fiber.Ctx) error {
	link, errResp := loadOwnedLink(c)
	if errResp != nil {
		return errResp
	}

	var req updateLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	if req.TargetURL != nil {
		link.TargetURL = strings.TrimSpace(*req.TargetURL)
	}
	if req.Title != nil {
		link.Title = strings.TrimSpace(*req.Title)
	}
	if req.IsActive != nil {
		link.IsActive = *req.IsActive
	}
	if err := link.Validate(); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "Invalid link data"})
	}

	repo := repository.GetGlobalFactory().GetLinkRepository()
	if err := repo.Update(link); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update link"})
	}

	return c.JSON(linkResponse(link))
}

// HandleLinkDelete soft deletes an owned link.
func HandleLinkDelete(c *fiber.Ctx) error {
	link, errResp := loadOwnedLink(c)
	if errResp != nil {
		return errResp
	}

	repo := repository.GetGlobalFactory().GetLinkRepository()
	if err := repo.Delete(link.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to delete link"})
	}

	return c.JSON(fiber.Map{"message": "link deleted"})
}

func loadOwnedLink(c *fiber.Ctx) (*models.Link, error) {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return nil, c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Authentication required"})
	}

	uuid := c.Params("uuid")
	repo := repository.GetGlobalFactory().GetLinkRepository()
	link, err := repo.GetByUUID(uuid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Link not found"})
		}
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load link"})
	}
	if link.UserID != userCtx.UserID && !userCtx.IsAdmin {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Link not found"})
	}
	return link, nil
}

// HandleLinkRedirect resolves a public slug and redirects to the target URL.
// Clicks are counted asynchronously via the Redis counter.
func HandleLinkRedirect(c *fiber.Ctx) error {
	slug := c.Params("slug")
	if slug == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Link not found"})
	}

	repo := repository.GetGlobalFactory().GetLinkRepository()
	link, err := repo.GetBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Link not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Lookup failed"})
	}
	if !link.IsActive {
		return c.Status(fiber.StatusGone).JSON(fiber.Map{"error": "gone", "message": "Link is no longer active"})
	}

	if err := counter.AddLinkClick(link.ID); err != nil {
		// counting must not break the redirect
		log.Printf("[LinkRedirect] msg=\"failed to count click\" link_id=%d error=%v", link.ID, err)
	}

	return c.Redirect(link.TargetURL, fiber.StatusFound)
}
