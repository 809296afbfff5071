package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/network-ticketing/internal/api/dto"
	"github.com/spec-kit/network-ticketing/internal/domain"
	"github.com/spec-kit/network-ticketing/internal/service"
	apperrors "github.com/spec-kit/network-ticketing/pkg/util"
)

// CategoriesHandler exposes issue category administration.
type CategoriesHandler struct {
	categories *service.CategoryService
}

// NewCategoriesHandler constructs handler.
func NewCategoriesHandler(categories *service.CategoryService) *CategoriesHandler {
	return &CategoriesHandler{categories: categories}
}

// List GET /categories.
func (h *CategoriesHandler) List(c *fiber.Ctx) error {
	categories, err := h.categories.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromCategories(categories)})
}

// Create POST /categories.
func (h *CategoriesHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Code) == "" || strings.TrimSpace(req.Name) == "" {
		return apperrors.NewValidationError("code and name required", nil)
	}
	category, err := h.categories.Create(c.UserContext(), &domain.IssueCategory{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		SLAHours:    req.SLAHours,
		Active:      true,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.FromCategory(category)})
}

// Update PUT /categories/:id.
func (h *CategoriesHandler) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return apperrors.NewValidationError("invalid id path parameter", nil)
	}
	var req dto.UpdateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	category, err := h.categories.Update(c.UserContext(), id, &domain.IssueCategory{
		Name:        req.Name,
		Description: req.Description,
		SLAHours:    req.SLAHours,
		Active:      active,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromCategory(category)})
}
