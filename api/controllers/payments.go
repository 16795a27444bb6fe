package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/craftshoplabs/craftshop-backend/api/responses"
	paymentsvc "github.com/craftshoplabs/craftshop-backend/internal/payments"
	"github.com/craftshoplabs/craftshop-backend/pkg/logger"
)

// PaymentsBalance returns the current processor balance.
func PaymentsBalance(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		balance, err := svc.GetBalance(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, balance)
	}
}

// PaymentsTransactions lists balance transactions.
func PaymentsTransactions(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		transactions, err := svc.ListTransactions(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, transactions)
	}
}

// PaymentsRefunds lists refunds issued through the processor.
func PaymentsRefunds(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refunds, err := svc.ListRefunds(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, refunds)
	}
}

// PaymentsCustomerTransactions joins one customer's charges with the
// balance transactions behind them.
func PaymentsCustomerTransactions(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stripeCustomerID := chi.URLParam(r, "stripeCustomerId")

		result, err := svc.CustomerTransactions(r.Context(), stripeCustomerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
