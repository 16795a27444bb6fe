package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/craftshoplabs/craftshop-backend/pkg/db/models"
)

// CategoryDTO is the wire shape of a category.
type CategoryDTO struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	OwnerID      uuid.UUID `json:"owner_id"`
	OwnerName    string    `json:"owner_name"`
	ProductCount int       `json:"product_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProductDTO is the wire shape of a product.
type ProductDTO struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Price        decimal.Decimal `json:"price"`
	ImageURL     string          `json:"image_url,omitempty"`
	CategoryID   uuid.UUID       `json:"category_id"`
	CategoryName string          `json:"category_name"`
	OwnerID      uuid.UUID       `json:"owner_id"`
	Active       bool            `json:"active"`
	Stock        int             `json:"stock"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func CategoryFromModel(m *models.Category) *CategoryDTO {
	if m == nil {
		return nil
	}
	return &CategoryDTO{
		ID:           m.ID,
		Name:         m.CategoryName,
		OwnerID:      m.OwnerID,
		OwnerName:    m.OwnerName,
		ProductCount: m.ProductCount,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func CategoriesFromModels(ms []models.Category) []CategoryDTO {
	out := make([]CategoryDTO, 0, len(ms))
	for i := range ms {
		out = append(out, *CategoryFromModel(&ms[i]))
	}
	return out
}

func ProductFromModel(m *models.Product) *ProductDTO {
	if m == nil {
		return nil
	}
	return &ProductDTO{
		ID:           m.ID,
		Name:         m.Name,
		Description:  m.Description,
		Price:        m.Price,
		ImageURL:     m.ImageURL,
		CategoryID:   m.CategoryID,
		CategoryName: m.CategoryName,
		OwnerID:      m.OwnerID,
		Active:       m.Active,
		Stock:        m.Stock,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func ProductsFromModels(ms []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(ms))
	for i := range ms {
		out = append(out, *ProductFromModel(&ms[i]))
	}
	return out
}
