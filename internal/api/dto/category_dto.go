package dto

import (
	"time"

	"github.com/spec-kit/network-ticketing/internal/domain"
)

// CreateCategoryRequest payload.
type CreateCategoryRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SLAHours    *int   `json:"sla_hours"`
}

// UpdateCategoryRequest payload.
type UpdateCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	SLAHours    *int   `json:"sla_hours"`
	Active      *bool  `json:"active"`
}

// CategoryResponse is the category view.
type CategoryResponse struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	SLAHours    *int      `json:"sla_hours"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// FromCategory maps a domain category.
func FromCategory(category *domain.IssueCategory) CategoryResponse {
	return CategoryResponse{
		ID:          category.ID,
		Code:        category.Code,
		Name:        category.Name,
		Description: category.Description,
		SLAHours:    category.SLAHours,
		Active:      category.Active,
		CreatedAt:   category.CreatedAt,
	}
}

// FromCategories maps a slice of categories.
func FromCategories(categories []domain.IssueCategory) []CategoryResponse {
	items := make([]CategoryResponse, 0, len(categories))
	for i := range categories {
		items = append(items, FromCategory(&categories[i]))
	}
	return items
}
