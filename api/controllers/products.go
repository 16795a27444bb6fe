package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/craftshoplabs/craftshop-backend/api/responses"
	"github.com/craftshoplabs/craftshop-backend/api/validators"
	"github.com/craftshoplabs/craftshop-backend/internal/catalog"
	pkgerrors "github.com/craftshoplabs/craftshop-backend/pkg/errors"
	"github.com/craftshoplabs/craftshop-backend/pkg/logger"
)

// ListProducts returns the products visible to the caller.
func ListProducts(svc catalog.ProductService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		rows, err := svc.ListProducts(r.Context(), principal)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, catalog.ProductsFromModels(rows))
	}
}

// GetProduct returns one product visible to the caller.
func GetProduct(svc catalog.ProductService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		id, err := parseIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), principal, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, catalog.ProductFromModel(product))
	}
}

// imageUploadRequest carries an inline image; data is base64 on the wire.
type imageUploadRequest struct {
	Filename    string `json:"filename" validate:"required"`
	ContentType string `json:"content_type,omitempty"`
	Data        []byte `json:"data" validate:"required"`
}

func (img *imageUploadRequest) toInput() *catalog.ImageUpload {
	if img == nil {
		return nil
	}
	return &catalog.ImageUpload{
		Filename:    strings.TrimSpace(img.Filename),
		ContentType: strings.TrimSpace(img.ContentType),
		Data:        img.Data,
	}
}

type createProductRequest struct {
	Name        string              `json:"name" validate:"required"`
	Description string              `json:"description,omitempty"`
	Price       string              `json:"price" validate:"required"`
	CategoryID  string              `json:"category_id" validate:"required,uuid"`
	Stock       int                 `json:"stock" validate:"omitempty,min=0"`
	Image       *imageUploadRequest `json:"image,omitempty"`
}

func (req createProductRequest) toInput() (catalog.CreateProductInput, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(req.Price))
	if err != nil {
		return catalog.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
	}
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return catalog.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category id")
	}
	return catalog.CreateProductInput{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Price:       price,
		CategoryID:  categoryID,
		Stock:       req.Stock,
		Image:       req.Image.toInput(),
	}, nil
}

// CreateProduct creates a product inside a category visible to the caller.
func CreateProduct(svc catalog.ProductService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), principal, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, catalog.ProductFromModel(product))
	}
}

type patchProductRequest struct {
	Name             *string             `json:"name,omitempty"`
	Description      *string             `json:"description,omitempty"`
	Price            *string             `json:"price,omitempty"`
	Stock            *int                `json:"stock,omitempty" validate:"omitempty,min=0"`
	Active           *bool               `json:"active,omitempty"`
	AdditionalOwners []string            `json:"additional_owners,omitempty" validate:"omitempty,dive,uuid"`
	Image            *imageUploadRequest `json:"image,omitempty"`
}

func (req patchProductRequest) toInput() (catalog.PatchProductInput, error) {
	input := catalog.PatchProductInput{
		Name:        req.Name,
		Description: req.Description,
		Stock:       req.Stock,
		Active:      req.Active,
		Image:       req.Image.toInput(),
	}
	if req.Price != nil {
		price, err := decimal.NewFromString(strings.TrimSpace(*req.Price))
		if err != nil {
			return catalog.PatchProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
		}
		input.Price = &price
	}
	for _, raw := range req.AdditionalOwners {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return catalog.PatchProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid owner id")
		}
		input.AdditionalOwners = append(input.AdditionalOwners, id)
	}
	return input, nil
}

// PatchProduct applies a partial update to a product the caller co-owns.
func PatchProduct(svc catalog.ProductService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		id, err := parseIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload patchProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.PatchProduct(r.Context(), principal, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, catalog.ProductFromModel(product))
	}
}

// DeleteProduct removes a product, its payment catalog entries, its stored
// image, and decrements the category counter.
func DeleteProduct(svc catalog.ProductService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		id, err := parseIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), principal, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
