package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/user"
	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterConfig struct {
	AppName        string
	Version        string
	Env            string
	LogLevel       slog.Level
	AllowedOrigins []string
}

type Handlers struct {
	Attendance   AttendanceHandler
	Correction   CorrectionHandler
	Salary       SalaryHandler
	Cashbook     CashbookHandler
	Company      CompanyHandler
	Notification NotificationHandler
	Audit        AuditHandler
}

func NewRouter(cfg RouterConfig, JWTService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.LogLevel,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", cfg.AppName),
		slog.String("version", cfg.Version),
		slog.String("env", cfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// EventSource authenticates with the short-lived token in the query
		r.Get("/notifications/stream", h.Notification.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)

			r.Route("/attendance", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireEmployee)
					r.With(middleware.RequirePermission(user.PermissionAttendancePunch)).Post("/punch-in", h.Attendance.PunchIn)
					r.With(middleware.RequirePermission(user.PermissionAttendancePunch)).Post("/punch-out", h.Attendance.PunchOut)
					r.With(middleware.RequirePermission(user.PermissionAttendanceViewOwn)).Get("/me", h.Attendance.GetMyAttendance)
				})

				r.With(middleware.RequirePermission(user.PermissionAttendanceViewAll)).Get("/", h.Attendance.List)
				r.Get("/{id}", h.Attendance.Get)

				// Manager
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionAttendanceReview))
					r.Patch("/{id}/status", h.Attendance.SetStatus)
					r.Patch("/{id}/hours", h.Attendance.UpdateHours)
				})
			})

			r.Route("/corrections", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireEmployee)
					r.Use(middleware.RequirePermission(user.PermissionCorrectionSubmit))
					r.Post("/", h.Correction.Submit)
					r.Get("/me", h.Correction.ListMine)
				})

				r.Get("/{id}", h.Correction.Get)

				// Manager
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionCorrectionReview))
					r.Get("/pending", h.Correction.ListPending)
					r.Post("/{id}/review", h.Correction.Review)
				})
			})

			r.Route("/salaries", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionSalaryView))
					r.Get("/", h.Salary.List)
					r.Get("/{id}", h.Salary.Get)
				})

				// Owner
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionSalaryManage))
					r.Post("/", h.Salary.GetOrCreate)
					r.Post("/generate", h.Salary.Generate)
					r.Post("/generate-period", h.Salary.GeneratePeriod)
					r.Post("/{id}/recalculate", h.Salary.Recalculate)
					r.Post("/{id}/approve", h.Salary.Approve)
					r.Post("/{id}/reject", h.Salary.Reject)
					r.Post("/{id}/mark-paid", h.Salary.MarkPaid)
				})
			})

			r.Route("/ledger", func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermissionSalaryManage))
				r.Post("/payments", h.Salary.RecordPayment)
				r.Post("/recoveries", h.Salary.RecordRecovery)
				r.Post("/deductions", h.Salary.RecordDeduction)
			})

			r.Route("/cashbook", func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermissionCashbookManage))
				r.Get("/", h.Cashbook.List)
				r.Post("/", h.Cashbook.Create)
				r.Get("/balance", h.Cashbook.Balance)
				r.Get("/{id}", h.Cashbook.Get)
				r.Patch("/{id}", h.Cashbook.Edit)
				r.Post("/{id}/reverse", h.Cashbook.Reverse)
				r.With(middleware.RequirePermission(user.PermissionCashbookDelete)).Delete("/{id}", h.Cashbook.Delete)
			})

			r.Route("/company/settings", func(r chi.Router) {
				r.Get("/", h.Company.GetSettings)
				r.With(middleware.RequirePermission(user.PermissionCompanyManage)).Put("/", h.Company.UpdateSettings)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Use(middleware.RequireEmployee)
				r.Get("/", h.Notification.List)
				r.Get("/unread-count", h.Notification.UnreadCount)
				r.Post("/read", h.Notification.MarkAsRead)
				r.Post("/read-all", h.Notification.MarkAllAsRead)
				r.Post("/sse-token", h.Notification.GetSSEToken)
			})

			r.With(middleware.RequireOwner).Get("/audit-logs", h.Audit.List)
		})
	})
	return r
}
