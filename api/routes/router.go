package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/craftshoplabs/craftshop-backend/api/controllers"
	"github.com/craftshoplabs/craftshop-backend/api/middleware"
	authsvc "github.com/craftshoplabs/craftshop-backend/internal/auth"
	"github.com/craftshoplabs/craftshop-backend/internal/catalog"
	customersvc "github.com/craftshoplabs/craftshop-backend/internal/customers"
	ordersvc "github.com/craftshoplabs/craftshop-backend/internal/orders"
	paymentsvc "github.com/craftshoplabs/craftshop-backend/internal/payments"
	usersvc "github.com/craftshoplabs/craftshop-backend/internal/users"
	"github.com/craftshoplabs/craftshop-backend/pkg/auth/session"
	"github.com/craftshoplabs/craftshop-backend/pkg/config"
	"github.com/craftshoplabs/craftshop-backend/pkg/enums"
	"github.com/craftshoplabs/craftshop-backend/pkg/logger"
	pkgredis "github.com/craftshoplabs/craftshop-backend/pkg/redis"
)

// Services bundles everything the router mounts.
type Services struct {
	Auth       authsvc.Service
	Users      usersvc.Service
	Categories catalog.CategoryService
	Products   catalog.ProductService
	Customers  customersvc.Service
	Orders     ordersvc.Service
	Payments   paymentsvc.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	readiness map[string]controllers.Pinger,
	redisClient *pkgredis.Client,
	sessions session.AccessSessionChecker,
	svcs Services,
) http.Handler {
	// Interface-typed nils would slip past the middleware nil checks.
	var idemStore pkgredis.IdempotencyStore
	var rateStore middleware.RateLimiterStore
	if redisClient != nil {
		idemStore = redisClient
		rateStore = redisClient
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	r.Handle("/metrics", promhttp.Handler())

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, rateStore, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svcs.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(svcs.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/users", func(r chi.Router) {
			r.With(middleware.RequireScope(enums.ScopeUserRead, logg)).Get("/", controllers.ListUsers(svcs.Users, logg))
			r.With(middleware.RequireScope(enums.ScopeUserCreate, logg)).Post("/", controllers.CreateUser(svcs.Users, logg))
			r.Route("/{userId}", func(r chi.Router) {
				r.With(middleware.RequireScope(enums.ScopeUserRead, logg)).Get("/", controllers.GetUser(svcs.Users, logg))
				r.With(middleware.RequireScope(enums.ScopeUserUpdate, logg)).Patch("/", controllers.PatchUser(svcs.Users, logg))
				r.With(middleware.RequireScope(enums.ScopeUserDelete, logg)).Delete("/", controllers.DeleteUser(svcs.Users, logg))
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.With(middleware.RequireScope(enums.ScopeCategoryRead, logg)).Get("/", controllers.ListCategories(svcs.Categories, logg))
			r.With(middleware.RequireScope(enums.ScopeCategoryCreate, logg)).Post("/", controllers.CreateCategory(svcs.Categories, logg))
			r.Route("/{categoryId}", func(r chi.Router) {
				r.With(middleware.RequireScope(enums.ScopeCategoryRead, logg)).Get("/", controllers.GetCategory(svcs.Categories, logg))
				r.With(middleware.RequireScope(enums.ScopeCategoryUpdate, logg)).Put("/", controllers.RenameCategory(svcs.Categories, logg))
				r.With(middleware.RequireScope(enums.ScopeCategoryDelete, logg)).Delete("/", controllers.DeleteCategory(svcs.Categories, logg))
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.With(middleware.RequireScope(enums.ScopeProductRead, logg)).Get("/", controllers.ListProducts(svcs.Products, logg))
			r.With(middleware.RequireScope(enums.ScopeProductCreate, logg)).Post("/", controllers.CreateProduct(svcs.Products, logg))
			r.Route("/{productId}", func(r chi.Router) {
				r.With(middleware.RequireScope(enums.ScopeProductRead, logg)).Get("/", controllers.GetProduct(svcs.Products, logg))
				r.With(middleware.RequireScope(enums.ScopeProductUpdate, logg)).Patch("/", controllers.PatchProduct(svcs.Products, logg))
				r.With(middleware.RequireScope(enums.ScopeProductDelete, logg)).Delete("/", controllers.DeleteProduct(svcs.Products, logg))
			})
		})

		r.Route("/customers", func(r chi.Router) {
			r.With(middleware.RequireScope(enums.ScopeCustomerRead, logg)).Get("/", controllers.ListCustomers(svcs.Customers, logg))
			r.Route("/{customerId}", func(r chi.Router) {
				r.With(middleware.RequireScope(enums.ScopeCustomerDetails, logg)).Get("/", controllers.GetCustomer(svcs.Customers, logg))
				r.With(middleware.RequireScope(enums.ScopeCustomerUpdate, logg)).Patch("/", controllers.PatchCustomer(svcs.Customers, logg))
				r.With(middleware.RequireScope(enums.ScopeCustomerDelete, logg)).Delete("/", controllers.DeleteCustomer(svcs.Customers, logg))
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(middleware.RequireScope(enums.ScopeOrderRead, logg)).Get("/", controllers.ListOrders(svcs.Orders, logg))
			r.Route("/{orderId}", func(r chi.Router) {
				r.With(middleware.RequireScope(enums.ScopeOrderRead, logg)).Get("/", controllers.GetOrder(svcs.Orders, logg))
				r.With(middleware.RequireScope(enums.ScopeOrderUpdate, logg)).Patch("/", controllers.PatchOrder(svcs.Orders, logg))
				r.With(middleware.RequireScope(enums.ScopeOrderDelete, logg)).Delete("/", controllers.DeleteOrder(svcs.Orders, logg))
				r.With(middleware.RequireScope(enums.ScopeOrderRefund, logg)).Post("/refund", controllers.RefundOrder(svcs.Orders, logg))
			})
		})

		r.Route("/payments", func(r chi.Router) {
			r.Use(middleware.RequireScope(enums.ScopeOrderRead, logg))
			r.Get("/balance", controllers.PaymentsBalance(svcs.Payments, logg))
			r.Get("/transactions", controllers.PaymentsTransactions(svcs.Payments, logg))
			r.Get("/refunds", controllers.PaymentsRefunds(svcs.Payments, logg))
			r.Get("/customers/{stripeCustomerId}/transactions", controllers.PaymentsCustomerTransactions(svcs.Payments, logg))
		})
	})

	return r
}
