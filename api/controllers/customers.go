package controllers

import (
	"net/http"

	"github.com/stripe/stripe-go/v84"

	"github.com/craftshoplabs/craftshop-backend/api/responses"
	"github.com/craftshoplabs/craftshop-backend/api/validators"
	customersvc "github.com/craftshoplabs/craftshop-backend/internal/customers"
	"github.com/craftshoplabs/craftshop-backend/pkg/enums"
	pkgerrors "github.com/craftshoplabs/craftshop-backend/pkg/errors"
	"github.com/craftshoplabs/craftshop-backend/pkg/logger"
)

// ListCustomers returns every storefront customer.
func ListCustomers(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.ListCustomers(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, customersvc.FromModels(rows))
	}
}

type customerDetailsResponse struct {
	Customer *customersvc.CustomerDTO `json:"customer"`
	Charges  []*stripe.Charge         `json:"charges"`
}

// GetCustomer returns a customer together with their payment history.
func GetCustomer(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		details, err := svc.GetCustomer(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, customerDetailsResponse{
			Customer: customersvc.FromModel(details.Customer),
			Charges:  details.Charges,
		})
	}
}

type patchCustomerRequest struct {
	Status string `json:"status" validate:"required"`
}

// PatchCustomer toggles a customer between active and inactive, keeping the
// identity account in step.
func PatchCustomer(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload patchCustomerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseCustomerStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		customer, err := svc.UpdateStatus(r.Context(), id, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, customersvc.FromModel(customer))
	}
}

// DeleteCustomer tears a customer down across Stripe, the identity
// directory, and the database.
func DeleteCustomer(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteCustomer(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
