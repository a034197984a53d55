// Package servicetest wires every service against the in-memory store for
// end-to-end service tests.
package servicetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/cashbook"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/company"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/correction"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/notification"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/salary"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/user"
	"github.com/cmlabs-hris/payroll-engine/internal/fixtures"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/cache"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/clock"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/lock"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/worker"
	"github.com/cmlabs-hris/payroll-engine/internal/repository/memory"
	attendanceService "github.com/cmlabs-hris/payroll-engine/internal/service/attendance"
	auditService "github.com/cmlabs-hris/payroll-engine/internal/service/audit"
	cashbookService "github.com/cmlabs-hris/payroll-engine/internal/service/cashbook"
	companyService "github.com/cmlabs-hris/payroll-engine/internal/service/company"
	correctionService "github.com/cmlabs-hris/payroll-engine/internal/service/correction"
	ledgerService "github.com/cmlabs-hris/payroll-engine/internal/service/ledger"
	"github.com/cmlabs-hris/payroll-engine/internal/service/recalculation"
	salaryService "github.com/cmlabs-hris/payroll-engine/internal/service/salary"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// RecordingNotifier keeps every message it is asked to deliver.
type RecordingNotifier struct {
	mu       sync.Mutex
	messages []notification.Message
}

func (n *RecordingNotifier) Notify(_ context.Context, msg notification.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
}

func (n *RecordingNotifier) Messages() []notification.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification.Message(nil), n.messages...)
}

// OfType returns the recorded messages of type t.
func (n *RecordingNotifier) OfType(t notification.Type) []notification.Message {
	var out []notification.Message
	for _, m := range n.Messages() {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

// Harness is one company with a fixed clock and synchronous background work.
type Harness struct {
	CompanyID string
	Clock     *clock.Manual
	Store     *memory.Store
	Tx        database.TxManager
	Notifier  *RecordingNotifier

	Attendances attendance.AttendanceRepository
	Salaries    salary.Repository
	Ledger      salary.LedgerRepository
	Cashbook    cashbook.Repository
	Corrections correction.Repository
	Employees   employee.EmployeeRepository
	Settings    company.SettingsRepository
	AuditLogs   audit.Repository

	Audit           audit.Service
	Company         company.CompanyService
	SalaryEngine    *salaryService.SalaryServiceImpl
	Trigger         *recalculation.Trigger
	Attendance      *attendanceService.AttendanceServiceImpl
	Correction      correction.Service
	LedgerService   salary.LedgerService
	CashbookService cashbook.Service
}

// New builds a harness whose company runs a 09:00-18:00 UTC shift with
// Sunday off and the rest of the default policy.
func New(t *testing.T, now time.Time) *Harness {
	t.Helper()

	store := memory.NewStore()
	h := &Harness{
		CompanyID:   uuid.NewString(),
		Clock:       clock.NewManual(now),
		Store:       store,
		Tx:          memory.NewTxManager(store),
		Notifier:    &RecordingNotifier{},
		Attendances: memory.NewAttendanceRepository(store),
		Salaries:    memory.NewSalaryRepository(store),
		Ledger:      memory.NewLedgerRepository(store),
		Cashbook:    memory.NewCashbookRepository(store),
		Corrections: memory.NewCorrectionRepository(store),
		Employees:   memory.NewEmployeeRepository(store),
		Settings:    memory.NewSettingsRepository(store),
		AuditLogs:   memory.NewAuditRepository(store),
	}

	runner := worker.Inline{}
	h.Audit = auditService.NewAuditService(h.AuditLogs, runner)
	h.Company = companyService.NewCompanyService(h.Settings, cache.Noop{}, h.Audit)
	h.SalaryEngine = salaryService.NewSalaryService(h.Tx, h.Salaries, h.Ledger, h.Employees, h.Attendances,
		h.Company, salary.NoDeductions, h.Audit, h.Clock)
	h.Trigger = recalculation.NewTrigger(h.SalaryEngine, runner)
	h.Attendance = attendanceService.NewAttendanceService(h.Tx, h.Attendances, h.Company, lock.Noop{},
		h.Trigger, h.Notifier, h.Audit, h.Clock)
	h.Correction = correctionService.NewCorrectionService(h.Tx, h.Corrections, h.Attendances, h.Company,
		h.Trigger, h.Notifier, h.Audit, h.Clock)
	h.LedgerService = ledgerService.NewLedgerService(h.Tx, h.Salaries, h.Ledger, h.Cashbook, h.SalaryEngine,
		h.Notifier, h.Audit, h.Clock)
	h.CashbookService = cashbookService.NewCashbookService(h.Tx, h.Cashbook, h.Salaries, h.Ledger, h.Audit, h.Clock)

	settings := fixtures.DefaultSettings(h.CompanyID)
	settings.Timezone = "UTC"
	_, err := h.Settings.UpsertSettings(context.Background(), settings)
	require.NoError(t, err)
	return h
}

// UpdateSettings applies fn to the stored company settings.
func (h *Harness) UpdateSettings(t *testing.T, fn func(*company.Settings)) {
	t.Helper()
	ctx := context.Background()
	s, err := h.Settings.GetSettings(ctx, h.CompanyID)
	require.NoError(t, err)
	fn(&s)
	_, err = h.Settings.UpsertSettings(ctx, s)
	require.NoError(t, err)
}

// AddDailyEmployee stores an active DAILY employee paid rate per approved day.
func (h *Harness) AddDailyEmployee(t *testing.T, name string, rate int64) employee.Employee {
	t.Helper()
	e, err := h.Employees.Create(context.Background(), employee.Employee{
		ID:         uuid.NewString(),
		CompanyID:  h.CompanyID,
		UserID:     uuid.NewString(),
		FullName:   name,
		SalaryType: employee.SalaryTypeDaily,
		DailyRate:  decimal.NewFromInt(rate),
		IsActive:   true,
	})
	require.NoError(t, err)
	return e
}

// AsStaff returns a context acting as the employee.
func (h *Harness) AsStaff(e employee.Employee) context.Context {
	return user.WithActor(context.Background(), user.Actor{
		UserID:     e.UserID,
		EmployeeID: e.ID,
		CompanyID:  h.CompanyID,
		Role:       user.RoleStaff,
	})
}

// AsManager returns a context acting as a manager without an employee profile.
func (h *Harness) AsManager() context.Context {
	return user.WithActor(context.Background(), user.Actor{
		UserID:    "manager-" + h.CompanyID,
		CompanyID: h.CompanyID,
		Role:      user.RoleManager,
	})
}

// AsOwner returns a context acting as the company admin.
func (h *Harness) AsOwner() context.Context {
	return user.WithActor(context.Background(), user.Actor{
		UserID:    "owner-" + h.CompanyID,
		CompanyID: h.CompanyID,
		Role:      user.RoleAdmin,
	})
}

// SeedApprovedDays stores APPROVED attendance on the first n working days of
// the month, each worth hours.
func (h *Harness) SeedApprovedDays(t *testing.T, e employee.Employee, year int, month time.Month, n int, hours float64) {
	t.Helper()
	ctx := context.Background()
	day := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	for seeded := 0; seeded < n; day = day.AddDate(0, 0, 1) {
		require.Equal(t, month, day.Month(), "month has fewer than %d working days", n)
		if day.Weekday() == time.Sunday {
			continue
		}
		in := day.Add(9 * time.Hour)
		out := in.Add(time.Duration(hours * float64(time.Hour)))
		_, err := h.Attendances.Create(ctx, attendance.Attendance{
			EmployeeID:   e.ID,
			CompanyID:    h.CompanyID,
			Date:         day,
			PunchIn:      &in,
			PunchOut:     &out,
			Status:       attendance.StatusApproved,
			WorkingHours: hours,
		})
		require.NoError(t, err)
		seeded++
	}
}
