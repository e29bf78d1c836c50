package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"crmcore/internal/auth"
	"crmcore/internal/config"
	"crmcore/internal/httpserver/handlers"
	"crmcore/internal/store"
)

func NewRouter(db *gorm.DB, rdb *redis.Client, cfg config.Config, lg *zap.SugaredLogger) http.Handler {
	tk := auth.NewTokens(cfg)
	users := store.NewUserStore(db)
	sessions := store.NewSessionStore(db)
	roles := store.NewRoleStore(db)
	perms := store.NewPermissionStore(db)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.Logger)

	r.Group(func(pub chi.Router) {
		pub.With(LoginRateLimit(rdb, cfg, lg)).
			Post("/auth/login", handlers.Login(users, sessions, tk, cfg, lg))
		pub.Post("/auth/refresh", handlers.Refresh(users, sessions, tk, lg))
		pub.Post("/auth/logout", handlers.Logout(sessions, tk, cfg, lg))
	})

	r.Group(func(protected chi.Router) {
		protected.Use(auth.JWTAuth(tk))

		protected.Get("/roles", handlers.ListRoles(roles, lg))
		protected.With(auth.RequirePermission(db, "ROLE_CREATE")).
			Post("/roles", handlers.CreateRole(roles, lg))
		protected.With(auth.RequirePermission(db, "ROLE_VIEW")).
			Get("/roles/{roleId}", handlers.GetRole(roles, lg))
		protected.With(auth.RequirePermission(db, "ROLE_PERMISSION_UPDATE")).
			Post("/roles/{roleId}/permissions", handlers.AssignPermissions(roles, lg))
		protected.With(auth.RequirePermission(db, "ROLE_DELETE")).
			Delete("/roles/{roleId}", handlers.DeleteRole(roles, lg))
		protected.With(auth.RequirePermission(db, "ROLE_VIEW")).
			Get("/permissions", handlers.ListPermissions(perms, lg))

		protected.With(auth.RequirePermission(db, "USER_CREATE")).
			Post("/users", handlers.CreateUser(users, roles, lg))
		protected.With(auth.RequirePermission(db, "USER_VIEW")).
			Get("/users", handlers.ListUsers(users, lg))
		protected.With(auth.RequirePermission(db, "USER_CREDENTIAL_UPDATE")).
			Put("/users/{userId}", handlers.UpdateCredentials(users, lg))
		protected.With(auth.RequirePermission(db, "USER_ROLE_UPDATE")).
			Put("/users/{userId}/role", handlers.UpdateUserRole(users, roles, lg))
		protected.With(auth.RequirePermission(db, "USER_DELETE")).
			Delete("/users/{userId}", handlers.DeleteUser(users, lg))

		protected.With(auth.RequirePermission(db, "CUSTOMER_VIEW")).
			Get("/customers", handlers.ListCustomers(db, lg))
		protected.With(auth.RequirePermission(db, "CUSTOMER_CREATE")).
			Post("/customers", handlers.CreateCustomer(db, lg))
		protected.With(auth.RequirePermission(db, "CUSTOMER_UPDATE")).
			Put("/customers/{customerId}", handlers.UpdateCustomer(db, lg))
		protected.With(auth.RequirePermission(db, "CUSTOMER_DELETE")).
			Delete("/customers/{customerId}", handlers.DeleteCustomer(db, lg))

		protected.With(auth.RequirePermission(db, "CONTACT_VIEW")).
			Get("/customers/{customerId}/contacts", handlers.ListContacts(db, lg))
		protected.With(auth.RequirePermission(db, "CONTACT_CREATE")).
			Post("/customers/{customerId}/contacts", handlers.CreateContact(db, lg))
		protected.With(auth.RequirePermission(db, "CONTACT_UPDATE")).
			Put("/contacts/{id}", handlers.UpdateContact(db, lg))
		protected.With(auth.RequirePermission(db, "CONTACT_DELETE")).
			Delete("/contacts/{id}", handlers.DeleteContact(db, lg))

		protected.With(auth.RequirePermission(db, "SERVICE_TYPE_VIEW")).
			Get("/service-types", handlers.ListServiceTypes(db, lg))
		protected.With(auth.RequirePermission(db, "SERVICE_TYPE_CREATE")).
			Post("/service-types", handlers.CreateServiceType(db, lg))
		protected.With(auth.RequirePermission(db, "SERVICE_TYPE_UPDATE")).
			Put("/service-types/{id}", handlers.UpdateServiceType(db, lg))
		protected.With(auth.RequirePermission(db, "SERVICE_TYPE_DELETE")).
			Delete("/service-types/{id}", handlers.DeleteServiceType(db, lg))

		protected.With(auth.RequirePermission(db, "JOB_VIEW")).
			Get("/jobs", handlers.ListJobs(db, lg))
		protected.With(auth.RequirePermission(db, "JOB_CREATE")).
			Post("/jobs", handlers.CreateJob(db, lg))
		protected.With(auth.RequirePermission(db, "JOB_UPDATE")).
			Put("/jobs/{id}", handlers.UpdateJob(db, lg))
		protected.With(auth.RequirePermission(db, "JOB_DELETE")).
			Delete("/jobs/{id}", handlers.DeleteJob(db, lg))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return r
}
