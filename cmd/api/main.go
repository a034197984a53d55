package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/config"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/cashbook"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/company"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/correction"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/notification"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/salary"
	appHTTP "github.com/cmlabs-hris/payroll-engine/internal/handler/http"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/cache"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/clock"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/lock"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/sse"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/telemetry"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/worker"
	"github.com/cmlabs-hris/payroll-engine/internal/repository/memory"
	"github.com/cmlabs-hris/payroll-engine/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/payroll-engine/internal/service/attendance"
	auditService "github.com/cmlabs-hris/payroll-engine/internal/service/audit"
	cashbookService "github.com/cmlabs-hris/payroll-engine/internal/service/cashbook"
	companyService "github.com/cmlabs-hris/payroll-engine/internal/service/company"
	correctionService "github.com/cmlabs-hris/payroll-engine/internal/service/correction"
	ledgerService "github.com/cmlabs-hris/payroll-engine/internal/service/ledger"
	notificationService "github.com/cmlabs-hris/payroll-engine/internal/service/notification"
	"github.com/cmlabs-hris/payroll-engine/internal/service/recalculation"
	salaryService "github.com/cmlabs-hris/payroll-engine/internal/service/salary"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const version = "v1.0.0"

type repositories struct {
	tx          database.TxManager
	attendances attendance.AttendanceRepository
	salaries    salary.Repository
	ledger      salary.LedgerRepository
	cashbook    cashbook.Repository
	corrections correction.Repository
	employees   employee.EmployeeRepository
	settings    company.SettingsRepository
	audit       audit.Repository
	notifs      notification.Repository
	close       func()
}

func openRepositories(ctx context.Context, cfg *config.Config) (repositories, error) {
	if cfg.Database.Driver == "memory" {
		slog.Warn("Using in-memory store, data is lost on restart")
		store := memory.NewStore()
		return repositories{
			tx:          memory.NewTxManager(store),
			attendances: memory.NewAttendanceRepository(store),
			salaries:    memory.NewSalaryRepository(store),
			ledger:      memory.NewLedgerRepository(store),
			cashbook:    memory.NewCashbookRepository(store),
			corrections: memory.NewCorrectionRepository(store),
			employees:   memory.NewEmployeeRepository(store),
			settings:    memory.NewSettingsRepository(store),
			audit:       memory.NewAuditRepository(store),
			notifs:      memory.NewNotificationRepository(store),
			close:       func() {},
		}, nil
	}

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolConfig{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return repositories{}, fmt.Errorf("connect database: %w", err)
	}
	return repositories{
		tx:          postgresql.NewTxManager(db),
		attendances: postgresql.NewAttendanceRepository(db),
		salaries:    postgresql.NewSalaryRepository(db),
		ledger:      postgresql.NewLedgerRepository(db),
		cashbook:    postgresql.NewCashbookRepository(db),
		corrections: postgresql.NewCorrectionRepository(db),
		employees:   postgresql.NewEmployeeRepository(db),
		settings:    postgresql.NewSettingsRepository(db),
		audit:       postgresql.NewAuditRepository(db),
		notifs:      postgresql.NewNotificationRepository(db),
		close:       db.Close,
	}, nil
}

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := telemetry.Setup(ctx, cfg.App.Name, cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.Insecure)

	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		return err
	}
	defer repos.close()

	// Redis is optional: without it punches rely on database constraints
	// and settings are read from the database every time.
	var (
		settingsCache cache.Cache = cache.Noop{}
		punchLocker   lock.Locker = lock.Noop{}
	)
	if cfg.Redis.Addr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Username, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			slog.Warn("Redis unavailable, continuing without cache and punch lock", "error", err)
		} else {
			defer client.Close()
			settingsCache = cache.NewRedisCache(client, cfg.Redis.Prefix+"cache:")
			punchLocker = lock.NewRedisLocker(client, cfg.Redis.Prefix+"lock:")
		}
	}

	pool := worker.NewPool(worker.Config{
		Workers:     cfg.Worker.Workers,
		QueueSize:   cfg.Worker.QueueSize,
		TaskTimeout: cfg.Worker.TaskTimeout,
	})

	notifSvc := notificationService.NewNotificationService(repos.notifs, sse.NewHub(), notificationService.Config{
		BatchSize:     cfg.Worker.NotificationBatchSize,
		FlushInterval: cfg.Worker.NotificationFlushInterval,
		WorkerCount:   cfg.Worker.NotificationWorkers,
	})

	var deductions salary.DeductionPolicy = salary.NoDeductions
	if cfg.Payroll.DeductionPercent.IsPositive() {
		deductions = salary.PercentDeduction(cfg.Payroll.DeductionPercent)
	}

	clk := clock.System{}
	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	auditSvc := auditService.NewAuditService(repos.audit, pool)
	companySvc := companyService.NewCompanyService(repos.settings, settingsCache, auditSvc)
	salarySvc := salaryService.NewSalaryService(repos.tx, repos.salaries, repos.ledger, repos.employees, repos.attendances,
		companySvc, deductions, auditSvc, clk)
	trigger := recalculation.NewTrigger(salarySvc, pool)
	attendanceSvc := attendanceService.NewAttendanceService(repos.tx, repos.attendances, companySvc, punchLocker,
		trigger, notifSvc, auditSvc, clk)
	correctionSvc := correctionService.NewCorrectionService(repos.tx, repos.corrections, repos.attendances, companySvc,
		trigger, notifSvc, auditSvc, clk)
	ledgerSvc := ledgerService.NewLedgerService(repos.tx, repos.salaries, repos.ledger, repos.cashbook, salarySvc,
		notifSvc, auditSvc, clk)
	cashbookSvc := cashbookService.NewCashbookService(repos.tx, repos.cashbook, repos.salaries, repos.ledger, auditSvc, clk)

	router := appHTTP.NewRouter(appHTTP.RouterConfig{
		AppName:        cfg.App.Name,
		Version:        version,
		Env:            cfg.App.Env,
		LogLevel:       cfg.SlogLevel(),
		AllowedOrigins: cfg.App.AllowedOrigins,
	}, JWTService, appHTTP.Handlers{
		Attendance:   appHTTP.NewAttendanceHandler(attendanceSvc),
		Correction:   appHTTP.NewCorrectionHandler(correctionSvc),
		Salary:       appHTTP.NewSalaryHandler(salarySvc, ledgerSvc),
		Cashbook:     appHTTP.NewCashbookHandler(cashbookSvc),
		Company:      appHTTP.NewCompanyHandler(companySvc),
		Notification: appHTTP.NewNotificationHandler(notifSvc, JWTService),
		Audit:        appHTTP.NewAuditHandler(auditSvc),
	})

	// no write timeout: notification streams stay open
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           otelhttp.NewHandler(router, cfg.App.Name),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env, "db_driver", cfg.Database.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown error", "error", err)
	}
	// drain recalculations and audit writes before notifications and the database go away
	if err := pool.Stop(shutdownCtx); err != nil {
		slog.Error("Worker pool shutdown error", "error", err)
	}
	notifSvc.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("Tracing shutdown error", "error", err)
	}
	return nil
}
