package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/servicehub-platform/internal/api/http/handlers"
	"github.com/spec-kit/servicehub-platform/internal/auth"
	"github.com/spec-kit/servicehub-platform/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Invoices       *handlers.InvoicesHandler
	Payments       *handlers.PaymentsHandler
	Reports        *handlers.ReportsHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Users.Me)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Post("", auth.RequirePermission("tickets:create"), cfg.Tickets.Create)
	tickets.Get("", auth.RequirePermission("tickets:read"), cfg.Tickets.List)
	tickets.Get("/stats", auth.RequirePermission("reports:read"), cfg.Tickets.Stats)
	tickets.Get("/reference/:reference", auth.RequirePermission("tickets:read"), cfg.Tickets.GetByReference)
	tickets.Get("/:id", auth.RequirePermission("tickets:read"), cfg.Tickets.Get)
	tickets.Patch("/:id", auth.RequirePermission("tickets:update"), cfg.Tickets.Update)
	tickets.Delete("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Tickets.Delete)
	tickets.Post("/:id/assign", auth.RequirePermission("tickets:assign"), cfg.Tickets.Assign)
	tickets.Post("/:id/status", auth.RequirePermission("tickets:update"), cfg.Tickets.ChangeStatus)
	tickets.Post("/:id/comments", auth.RequirePermission("tickets:comment"), cfg.Tickets.AddComment)
	tickets.Get("/:id/comments", auth.RequirePermission("tickets:read"), cfg.Tickets.ListComments)

	invoices := app.Group("/invoices", cfg.AuthMiddleware.Handle)
	invoices.Post("", auth.RequirePermission("invoices:create"), cfg.Invoices.Create)
	invoices.Get("", auth.RequirePermission("invoices:read"), cfg.Invoices.List)
	invoices.Get("/stats", auth.RequirePermission("reports:read"), cfg.Invoices.Stats)
	invoices.Get("/:id", auth.RequirePermission("invoices:read"), cfg.Invoices.Get)
	invoices.Post("/:id/send", auth.RequirePermission("invoices:update"), cfg.Invoices.Send)
	invoices.Post("/:id/cancel", auth.RequirePermission("invoices:update"), cfg.Invoices.Cancel)
	invoices.Delete("/:id", auth.RequirePermission("invoices:delete"), cfg.Invoices.Delete)
	invoices.Post("/:id/payments", auth.RequirePermission("payments:create"), cfg.Invoices.RecordPayment)
	invoices.Get("/:id/payments", auth.RequirePermission("payments:read"), cfg.Invoices.ListPayments)

	payments := app.Group("/payments", cfg.AuthMiddleware.Handle)
	payments.Get("", auth.RequirePermission("payments:read"), cfg.Payments.List)
	payments.Get("/:id", auth.RequirePermission("payments:read"), cfg.Payments.Get)

	users := app.Group("/users", cfg.AuthMiddleware.Handle)
	users.Post("", auth.RequirePermission("users:create"), cfg.Users.CreateUser)
	users.Get("", auth.RequirePermission("users:read"), cfg.Users.List)
	users.Get("/:id", auth.RequirePermission("users:read"), cfg.Users.Get)
	users.Patch("/:id", auth.RequirePermission("users:update"), cfg.Users.Update)
	users.Delete("/:id", auth.RequirePermission("users:delete"), cfg.Users.Deactivate)

	app.Get("/roles", cfg.AuthMiddleware.Handle, auth.RequirePermission("users:read"), cfg.Users.ListRoles)

	reports := app.Group("/reports", cfg.AuthMiddleware.Handle)
	reports.Get("/dashboard", auth.RequirePermission("reports:read"), cfg.Reports.Dashboard)
}
