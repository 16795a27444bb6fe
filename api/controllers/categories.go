package controllers

import (
	"net/http"
	"strings"

	"github.com/craftshoplabs/craftshop-backend/api/responses"
	"github.com/craftshoplabs/craftshop-backend/api/validators"
	"github.com/craftshoplabs/craftshop-backend/internal/catalog"
	"github.com/craftshoplabs/craftshop-backend/pkg/logger"
)

// ListCategories returns the categories visible to the caller.
func ListCategories(svc catalog.CategoryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		rows, err := svc.ListCategories(r.Context(), principal)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, catalog.CategoriesFromModels(rows))
	}
}

// GetCategory returns one category visible to the caller.
func GetCategory(svc catalog.CategoryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		id, err := parseIDParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := svc.GetCategory(r.Context(), principal, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, catalog.CategoryFromModel(category))
	}
}

type categoryNameRequest struct {
	Name string `json:"name" validate:"required"`
}

// CreateCategory creates a category owned by the caller.
func CreateCategory(svc catalog.CategoryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		var payload categoryNameRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := svc.CreateCategory(r.Context(), principal, catalog.CreateCategoryInput{
			Name: strings.TrimSpace(payload.Name),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, catalog.CategoryFromModel(category))
	}
}

// RenameCategory renames a category and cascades the cached name to every
// referencing product.
func RenameCategory(svc catalog.CategoryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		id, err := parseIDParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload categoryNameRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := svc.RenameCategory(r.Context(), principal, id, strings.TrimSpace(payload.Name))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, catalog.CategoryFromModel(category))
	}
}

// DeleteCategory deletes an empty category; categories that still count
// products are refused with a conflict.
func DeleteCategory(svc catalog.CategoryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		id, err := parseIDParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteCategory(r.Context(), principal, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
